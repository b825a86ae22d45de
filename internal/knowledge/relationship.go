package knowledge

import "time"

// Relationship type vocabulary (closed).
const (
	RelDependsOn     = "depends_on"
	RelRelatesTo     = "relates_to"
	RelConflictsWith = "conflicts_with"
	RelExtends       = "extends"
	RelImplements    = "implements"
	RelReferences    = "references"
	RelSimilarTo     = "similar_to"
)

// RelationshipTypes maps each relationship type to its display label.
var RelationshipTypes = map[string]string{
	RelDependsOn:     "Depends On",
	RelRelatesTo:     "Relates To",
	RelConflictsWith: "Conflicts With",
	RelExtends:       "Extends",
	RelImplements:    "Implements",
	RelReferences:    "References",
	RelSimilarTo:     "Similar To",
}

// Relationship is a directed, typed, weighted edge between two entries.
// Bidirectional creation produces two independent rows; deleting one leaves
// the other intact.
type Relationship struct {
	ID          int64             `json:"id"`
	FromEntryID int64             `json:"from_entry_id"`
	ToEntryID   int64             `json:"to_entry_id"`
	Type        string            `json:"type"`
	Strength    float64           `json:"strength"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// TypeDisplay returns the human-readable label for the relationship type.
func (r *Relationship) TypeDisplay() string {
	if label, ok := RelationshipTypes[r.Type]; ok {
		return label
	}
	return r.Type
}

// ValidateForCreate validates a relationship for creation.
func (r *Relationship) ValidateForCreate() error {
	if _, ok := RelationshipTypes[r.Type]; !ok {
		return ErrInvalidRelType
	}
	if r.FromEntryID == r.ToEntryID {
		return ErrSelfRelationship
	}
	return nil
}
