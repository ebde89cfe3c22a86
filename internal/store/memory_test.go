package store

import (
	"context"
	"testing"
	"time"
)

func TestMemory_GetCreate(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	t.Run("Get on empty store", func(t *testing.T) {
		doc, err := m.Get(ctx, CollectionAccounts, "1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if doc != nil {
			t.Errorf("Expected nil for absent document, got %v", doc)
		}
	})

	t.Run("Round trip", func(t *testing.T) {
		in := Doc{
			"id":       int64(1),
			"username": "alice",
			"profile":  map[string]any{"codename": "nightowl"},
		}
		if err := m.Create(ctx, CollectionAccounts, "1", in); err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		out, _ := m.Get(ctx, CollectionAccounts, "1")
		if out["username"] != "alice" {
			t.Errorf("Unexpected document: %v", out)
		}
	})

	t.Run("Returned documents are isolated copies", func(t *testing.T) {
		out, _ := m.Get(ctx, CollectionAccounts, "1")
		out["username"] = "mallory"
		out["profile"].(map[string]any)["codename"] = "hijacked"

		again, _ := m.Get(ctx, CollectionAccounts, "1")
		if again["username"] != "alice" {
			t.Error("Expected stored document to be unaffected by caller mutation")
		}
		if again["profile"].(map[string]any)["codename"] != "nightowl" {
			t.Error("Expected nested maps to be cloned")
		}
	})

	t.Run("Stored documents are isolated from the input", func(t *testing.T) {
		in := Doc{"id": "x", "nested": map[string]any{"k": "v"}}
		m.Create(ctx, CollectionDrafts, "x", in)
		in["nested"].(map[string]any)["k"] = "mutated"

		out, _ := m.Get(ctx, CollectionDrafts, "x")
		if out["nested"].(map[string]any)["k"] != "v" {
			t.Error("Expected store to hold its own copy of the input")
		}
	})
}

func TestMemory_Update(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	m.Create(ctx, CollectionAccounts, "1", Doc{
		"state":   "IDLE",
		"profile": map[string]any{"codename": "nightowl", "onboarded": false},
	})

	t.Run("Dotted partial update", func(t *testing.T) {
		err := m.Update(ctx, CollectionAccounts, "1", map[string]any{
			"state":             "POSTING",
			"profile.onboarded": true,
		})
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}

		doc, _ := m.Get(ctx, CollectionAccounts, "1")
		if doc["state"] != "POSTING" {
			t.Errorf("Expected state POSTING, got %v", doc["state"])
		}
		profile := doc["profile"].(map[string]any)
		if profile["onboarded"] != true || profile["codename"] != "nightowl" {
			t.Errorf("Unexpected profile after partial update: %v", profile)
		}
	})

	t.Run("Missing document", func(t *testing.T) {
		err := m.Update(ctx, CollectionAccounts, "404", map[string]any{"state": "X"})
		if err != ErrNotFound {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}

func TestMemory_Query(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, owner := range []int64{1, 1, 1, 2} {
		id := string(rune('a' + i))
		m.Create(ctx, CollectionDrafts, id, Doc{
			"id":         id,
			"owner_id":   owner,
			"status":     "draft",
			"created_at": base.Add(time.Duration(i) * time.Minute),
		})
	}

	t.Run("Filter and order", func(t *testing.T) {
		docs, err := m.Query(ctx, CollectionDrafts, Query{
			Filters: []Filter{
				{Field: "owner_id", Op: OpEq, Value: int64(1)},
				{Field: "status", Op: OpEq, Value: "draft"},
			},
			OrderBy:    "created_at",
			Descending: true,
		})
		if err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		if len(docs) != 3 {
			t.Fatalf("Expected 3 documents, got %d", len(docs))
		}
		if docs[0]["id"] != "c" || docs[2]["id"] != "a" {
			t.Errorf("Unexpected order: %v, %v, %v", docs[0]["id"], docs[1]["id"], docs[2]["id"])
		}
	})

	t.Run("Limit", func(t *testing.T) {
		docs, _ := m.Query(ctx, CollectionDrafts, Query{
			OrderBy: "created_at",
			Limit:   2,
		})
		if len(docs) != 2 {
			t.Errorf("Expected 2 documents, got %d", len(docs))
		}
	})

	t.Run("Time comparison", func(t *testing.T) {
		docs, err := m.Query(ctx, CollectionDrafts, Query{
			Filters: []Filter{
				{Field: "created_at", Op: OpLt, Value: base.Add(90 * time.Second)},
			},
		})
		if err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		if len(docs) != 2 {
			t.Errorf("Expected 2 documents before the cutoff, got %d", len(docs))
		}
	})

	t.Run("Mixed numeric kinds compare", func(t *testing.T) {
		// Filter values arrive as int64 from callers but may be float64
		// after a JSON round trip; both sides normalize.
		docs, err := m.Query(ctx, CollectionDrafts, Query{
			Filters: []Filter{{Field: "owner_id", Op: OpEq, Value: float64(2)}},
		})
		if err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		if len(docs) != 1 {
			t.Errorf("Expected 1 document for owner 2, got %d", len(docs))
		}
	})

	t.Run("Missing field never matches", func(t *testing.T) {
		docs, _ := m.Query(ctx, CollectionDrafts, Query{
			Filters: []Filter{{Field: "nonexistent", Op: OpEq, Value: "x"}},
		})
		if len(docs) != 0 {
			t.Errorf("Expected no matches on a missing field, got %d", len(docs))
		}
	})
}

func TestMemory_Delete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	m.Create(ctx, CollectionDrafts, "d1", Doc{"id": "d1"})

	if err := m.Delete(ctx, CollectionDrafts, "d1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if doc, _ := m.Get(ctx, CollectionDrafts, "d1"); doc != nil {
		t.Errorf("Expected document to be gone, got %v", doc)
	}

	t.Run("Delete is idempotent", func(t *testing.T) {
		if err := m.Delete(ctx, CollectionDrafts, "d1"); err != nil {
			t.Errorf("Expected idempotent delete, got %v", err)
		}
	})
}

func TestApplyFields(t *testing.T) {
	t.Run("Creates intermediate maps", func(t *testing.T) {
		doc := Doc{}
		applyFields(doc, map[string]any{"profile.codename": "nightowl"})

		profile, ok := doc["profile"].(map[string]any)
		if !ok || profile["codename"] != "nightowl" {
			t.Errorf("Expected nested map to be created, got %v", doc)
		}
	})

	t.Run("Skips paths through non-map values", func(t *testing.T) {
		doc := Doc{"state": "IDLE"}
		applyFields(doc, map[string]any{"state.nested": "x"})

		if doc["state"] != "IDLE" {
			t.Errorf("Expected scalar to be left alone, got %v", doc["state"])
		}
	})
}
