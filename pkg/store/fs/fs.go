// Package fs stores snapshots as export directories on the local filesystem.
// Each snapshot lives under <root>/<id>/ in the regular interchange layout,
// so a stored snapshot doubles as a ready-made export bundle.
package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"polygraph/pkg/export"
	"polygraph/pkg/graph"
	"polygraph/pkg/store"
)

const metaFile = "meta.json"

// Store keeps snapshots under a root directory.
type Store struct {
	root string
}

func NewStore(root string) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("snapshot root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot root: %w", err)
	}
	return &Store{root: root}, nil
}

// Dir returns the directory holding the artifacts of one snapshot.
func (s *Store) Dir(id string) string {
	return filepath.Join(s.root, id)
}

func (s *Store) SaveSnapshot(ctx context.Context, snap *store.Snapshot) error {
	if snap.ID == "" {
		return fmt.Errorf("snapshot id is required")
	}
	if snap.Graph == nil {
		return fmt.Errorf("snapshot graph is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	meta := snap.Meta
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now().UTC()
	}
	meta.NodeCount = snap.Graph.NodeCount()
	meta.EdgeCount = snap.Graph.EdgeCount()

	dir := s.Dir(snap.ID)
	if _, err := export.Export(snap.Graph, dir); err != nil {
		return err
	}
	if snap.Stats != nil {
		if err := export.ExportStats(snap.Stats, dir); err != nil {
			return err
		}
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot metadata: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, metaFile), append(data, '\n'), 0o644)
}

func (s *Store) LoadSnapshot(ctx context.Context, id string) (*store.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir := s.Dir(id)
	meta, err := s.readMeta(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &store.NotFoundError{ID: id}
		}
		return nil, err
	}

	g, err := export.Load(dir)
	if err != nil {
		return nil, err
	}

	snap := &store.Snapshot{Meta: meta, Graph: g}
	statsData, err := os.ReadFile(filepath.Join(dir, export.StatsFile))
	if err == nil {
		var stats graph.Stats
		if err := json.Unmarshal(statsData, &stats); err != nil {
			return nil, fmt.Errorf("failed to decode snapshot stats: %w", err)
		}
		snap.Stats = &stats
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return snap, nil
}

func (s *Store) ListSnapshots(ctx context.Context) ([]store.Meta, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot root: %w", err)
	}

	metas := make([]store.Meta, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.readMeta(filepath.Join(s.root, entry.Name()))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		metas = append(metas, meta)
	}

	sort.Slice(metas, func(i, j int) bool {
		if !metas[i].CreatedAt.Equal(metas[j].CreatedAt) {
			return metas[i].CreatedAt.After(metas[j].CreatedAt)
		}
		return metas[i].ID < metas[j].ID
	})
	return metas, nil
}

func (s *Store) DeleteSnapshot(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := s.Dir(id)
	if _, err := os.Stat(filepath.Join(dir, metaFile)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &store.NotFoundError{ID: id}
		}
		return err
	}
	return os.RemoveAll(dir)
}

func (s *Store) readMeta(dir string) (store.Meta, error) {
	var meta store.Meta
	data, err := os.ReadFile(filepath.Join(dir, metaFile))
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return meta, fmt.Errorf("failed to decode snapshot metadata: %w", err)
	}
	return meta, nil
}
