package fs

import (
	"context"
	"errors"
	"testing"
	"time"

	"polygraph/pkg/graph"
	"polygraph/pkg/store"
)

func testSnapshot(t *testing.T, id string, createdAt time.Time) *store.Snapshot {
	t.Helper()
	g := graph.New()
	g.SetNode("Q1", "Alice", "")
	g.SetNode("Q2", "Bob", "")
	err := g.AddEdge(&graph.Edge{Source: "Q1", Target: "Q2", Relation: "spouse"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return &store.Snapshot{
		Meta:  store.Meta{ID: id, Label: "test run", CreatedAt: createdAt},
		Graph: g,
		Stats: &graph.Stats{SeedIDs: []string{"Q1"}, TotalNodes: 2, TotalEdges: 1},
	}
}

func TestSaveAndLoadSnapshot(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	if err := s.SaveSnapshot(ctx, testSnapshot(t, "snap1", created)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded, err := s.LoadSnapshot(ctx, "snap1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded.Label != "test run" || !loaded.CreatedAt.Equal(created) {
		t.Fatalf("unexpected metadata: %+v", loaded.Meta)
	}
	if loaded.NodeCount != 2 || loaded.Graph.NodeCount() != 2 {
		t.Fatalf("expected 2 nodes, got meta=%d graph=%d",
			loaded.NodeCount, loaded.Graph.NodeCount())
	}
	if loaded.Stats == nil || len(loaded.Stats.SeedIDs) != 1 {
		t.Fatalf("expected stats round trip, got %+v", loaded.Stats)
	}
}

func TestLoadSnapshotNotFound(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = s.LoadSnapshot(context.Background(), "missing")
	var notFound *store.NotFoundError
	if !errors.As(err, &notFound) || notFound.ID != "missing" {
		t.Fatalf("expected a NotFoundError, got %v", err)
	}
}

func TestListSnapshotsNewestFirst(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()
	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)

	if err := s.SaveSnapshot(ctx, testSnapshot(t, "old", older)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.SaveSnapshot(ctx, testSnapshot(t, "new", newer)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	metas, err := s.ListSnapshots(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(metas) != 2 || metas[0].ID != "new" || metas[1].ID != "old" {
		t.Fatalf("unexpected listing order: %+v", metas)
	}
}

func TestDeleteSnapshot(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	if err := s.SaveSnapshot(ctx, testSnapshot(t, "snap1", time.Now())); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.DeleteSnapshot(ctx, "snap1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var notFound *store.NotFoundError
	if err := s.DeleteSnapshot(ctx, "snap1"); !errors.As(err, &notFound) {
		t.Fatalf("expected a NotFoundError on double delete, got %v", err)
	}
	metas, err := s.ListSnapshots(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(metas) != 0 {
		t.Fatalf("expected an empty listing, got %+v", metas)
	}
}
