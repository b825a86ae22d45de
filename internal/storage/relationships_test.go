package storage

import (
	"errors"
	"testing"

	"github.com/davidwry/stash/internal/knowledge"
)

func TestCreateRelationship(t *testing.T) {
	db := setupTestDB(t)

	from := addTestEntry(t, db, "from")
	to := addTestEntry(t, db, "to")

	rel, err := db.CreateRelationship(knowledge.Relationship{
		FromEntryID: from,
		ToEntryID:   to,
		Type:        knowledge.RelDependsOn,
		Strength:    0.8,
		Metadata:    map[string]string{"note": "build order"},
	})
	if err != nil {
		t.Fatalf("CreateRelationship: %v", err)
	}
	if rel.ID == 0 {
		t.Error("relationship id not assigned")
	}

	rels, err := db.RelationshipsFrom(from)
	if err != nil {
		t.Fatalf("RelationshipsFrom: %v", err)
	}
	if len(rels) != 1 {
		t.Fatalf("got %d relationships, want 1", len(rels))
	}
	got := rels[0]
	if got.Type != knowledge.RelDependsOn || got.ToEntryID != to {
		t.Errorf("relationship = %+v, want depends_on to %d", got, to)
	}
	if got.Strength != 0.8 {
		t.Errorf("strength = %v, want 0.8", got.Strength)
	}
	if got.Metadata["note"] != "build order" {
		t.Errorf("metadata = %v, want note=build order", got.Metadata)
	}
}

func TestCreateRelationshipValidation(t *testing.T) {
	db := setupTestDB(t)

	a := addTestEntry(t, db, "a")
	b := addTestEntry(t, db, "b")

	tests := []struct {
		name    string
		rel     knowledge.Relationship
		wantErr error
	}{
		{
			name:    "unknown type",
			rel:     knowledge.Relationship{FromEntryID: a, ToEntryID: b, Type: "causes"},
			wantErr: knowledge.ErrInvalidRelType,
		},
		{
			name:    "self edge",
			rel:     knowledge.Relationship{FromEntryID: a, ToEntryID: a, Type: knowledge.RelRelatesTo},
			wantErr: knowledge.ErrSelfRelationship,
		},
		{
			name:    "missing endpoint",
			rel:     knowledge.Relationship{FromEntryID: a, ToEntryID: 999, Type: knowledge.RelRelatesTo},
			wantErr: knowledge.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := db.CreateRelationship(tt.rel)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CreateRelationship = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateBidirectional(t *testing.T) {
	db := setupTestDB(t)

	a := addTestEntry(t, db, "a")
	b := addTestEntry(t, db, "b")

	forward, reverse, err := db.CreateBidirectional(knowledge.Relationship{
		FromEntryID: a, ToEntryID: b, Type: knowledge.RelSimilarTo, Strength: 0.9,
	})
	if err != nil {
		t.Fatalf("CreateBidirectional: %v", err)
	}
	if forward.FromEntryID != a || forward.ToEntryID != b {
		t.Errorf("forward = %d->%d, want %d->%d", forward.FromEntryID, forward.ToEntryID, a, b)
	}
	if reverse.FromEntryID != b || reverse.ToEntryID != a {
		t.Errorf("reverse = %d->%d, want %d->%d", reverse.FromEntryID, reverse.ToEntryID, b, a)
	}

	// The two edges are independent rows; deleting one leaves the other.
	deleted, err := db.DeleteRelationship(forward.ID)
	if err != nil {
		t.Fatalf("DeleteRelationship: %v", err)
	}
	if !deleted {
		t.Fatal("DeleteRelationship = false, want true")
	}

	remaining, err := db.RelationshipsFrom(b)
	if err != nil {
		t.Fatalf("RelationshipsFrom: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != reverse.ID {
		t.Errorf("reverse edge did not survive: %v", remaining)
	}
}

func TestDeleteRelationshipNotFound(t *testing.T) {
	db := setupTestDB(t)

	deleted, err := db.DeleteRelationship(123)
	if err != nil {
		t.Fatalf("DeleteRelationship: %v", err)
	}
	if deleted {
		t.Error("DeleteRelationship(123) = true for missing row, want false")
	}
}
