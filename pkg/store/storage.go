// Package store persists graph snapshots. A snapshot is a crawled (and
// possibly enriched) graph together with its run diagnostics, addressed by a
// correlation id. Backends live in the fs and pgx subpackages.
package store

import (
	"context"
	"fmt"
	"time"

	"polygraph/pkg/graph"
)

// Meta describes a stored snapshot without its graph payload.
type Meta struct {
	ID        string    `json:"id"`
	Label     string    `json:"label,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	NodeCount int       `json:"node_count"`
	EdgeCount int       `json:"edge_count"`
}

// Snapshot is a full stored graph with its metadata and crawl diagnostics.
// Stats may be nil for snapshots that were assembled outside a crawl run.
type Snapshot struct {
	Meta
	Graph *graph.Graph
	Stats *graph.Stats
}

// NotFoundError reports a snapshot id with no stored data behind it.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("snapshot %q not found", e.ID)
}

// SnapshotStore is the persistence contract shared by the server, the worker
// and the CLI. SaveSnapshot overwrites an existing snapshot with the same id.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap *Snapshot) error
	LoadSnapshot(ctx context.Context, id string) (*Snapshot, error)
	ListSnapshots(ctx context.Context) ([]Meta, error)
	DeleteSnapshot(ctx context.Context, id string) error
}

// ChunkRange calls fn over [start, end) windows of at most chunkSize until
// total is covered or fn returns an error.
func ChunkRange(total, chunkSize int, fn func(start, end int) error) error {
	if total <= 0 {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = total
	}
	for start := 0; start < total; start += chunkSize {
		end := min(start+chunkSize, total)
		if err := fn(start, end); err != nil {
			return err
		}
	}
	return nil
}
