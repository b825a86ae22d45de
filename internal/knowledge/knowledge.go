// Package knowledge defines the core domain types for the knowledge store:
// entries, tags, collections, typed metadata, and relationships.
package knowledge

import (
	"errors"
	"strings"
	"time"
)

// Validation and lookup errors.
var (
	ErrEmptyContent        = errors.New("content is required")
	ErrNotFound            = errors.New("entry not found")
	ErrEmptyTagName        = errors.New("tag name is required")
	ErrInvalidRelType      = errors.New("unknown relationship type")
	ErrSelfRelationship    = errors.New("from_entry_id and to_entry_id cannot be the same")
	ErrUnknownMetadataType = errors.New("unknown metadata type")
)

// Entry is a stored knowledge record: content plus git provenance and
// associations. Tags, Metadata, and Collection are populated by the storage
// layer's detail loaders; TagRelated, SemanticallySimilar, and the explicit
// relationship edges are attached by the service layer.
type Entry struct {
	ID           int64     `json:"id"`
	Content      string    `json:"content"`
	Repo         string    `json:"repo,omitempty"`
	Branch       string    `json:"branch,omitempty"`
	CommitSHA    string    `json:"commit_sha,omitempty"`
	Author       string    `json:"author,omitempty"`
	ProjectType  string    `json:"project_type,omitempty"`
	Embedding    []float32 `json:"-"`
	CollectionID int64     `json:"collection_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Tags       []Tag       `json:"tags,omitempty"`
	Metadata   []Metadata  `json:"metadata,omitempty"`
	Collection *Collection `json:"collection,omitempty"`

	TagRelated          []Entry `json:"tag_related,omitempty"`
	SemanticallySimilar []Entry `json:"semantically_similar,omitempty"`

	Outgoing []Relationship `json:"outgoing_relationships,omitempty"`
	Incoming []Relationship `json:"incoming_relationships,omitempty"`
}

// TagNames returns the entry's tag names in attachment order.
func (e *Entry) TagNames() []string {
	names := make([]string, 0, len(e.Tags))
	for _, t := range e.Tags {
		names = append(names, t.Name)
	}
	return names
}

// MetadataValue returns the stored metadata value for key, or def if the key
// is not set.
func (e *Entry) MetadataValue(key, def string) string {
	for _, m := range e.Metadata {
		if m.Key == key {
			return m.Value
		}
	}
	return def
}

// Priority returns the priority metadata value, defaulting to "medium".
func (e *Entry) Priority() string {
	return e.MetadataValue("priority", "medium")
}

// Status returns the status metadata value, defaulting to "open".
func (e *Entry) Status() string {
	return e.MetadataValue("status", "open")
}

// IsTodo reports whether the entry carries the "todo" tag.
func (e *Entry) IsTodo() bool {
	for _, t := range e.Tags {
		if t.Name == "todo" {
			return true
		}
	}
	return false
}

// Tag is a named label with a maintained usage counter. Names are compared
// case-sensitively as stored. UsageCount tracks explicit attachments only;
// auto-suggested attachments do not increment it.
type Tag struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	UsageCount  int    `json:"usage_count"`
	Color       string `json:"color,omitempty"`
	Description string `json:"description,omitempty"`
}

// NormalizeTagNames trims tag names, drops empty ones, and removes
// duplicates while preserving first-seen order.
func NormalizeTagNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	var out []string
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// Collection is a named grouping bucket for entries. A collection does not
// own entry lifecycle; entries reference at most one collection.
type Collection struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Color       string            `json:"color,omitempty"`
	Icon        string            `json:"icon,omitempty"`
	IsPrivate   bool              `json:"is_private,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`

	EntryCount int `json:"entry_count,omitempty"`
}

// DefaultCollectionColor is applied when a collection is created without one.
const DefaultCollectionColor = "#3B82F6"

// DefaultCollectionIcon is applied when a collection is created without one.
const DefaultCollectionIcon = "folder"
