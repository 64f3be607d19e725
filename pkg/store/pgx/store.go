// Package pgx implements the snapshot store on PostgreSQL. Node and edge
// records are kept as JSONB next to a few indexed columns, so snapshots can
// be queried in SQL without losing interchange fidelity.
package pgx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"polygraph/pkg/export"
	"polygraph/pkg/graph"
	"polygraph/pkg/leaselock"
	"polygraph/pkg/logger"
	"polygraph/pkg/store"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	Begin(ctx context.Context) (pgxv5.Tx, error)
}

const (
	nodeChunk = 500
	edgeChunk = 1000
)

// SnapshotDBStore implements store.SnapshotStore on a pgx connection or pool.
type SnapshotDBStore struct {
	conn   pgxIConn
	locks  *leaselock.Client
	dbLock sync.Mutex
}

type SnapshotDBStoreOption func(*SnapshotDBStore)

// WithLeaseLock serializes writers of the same snapshot across processes.
func WithLeaseLock(locks *leaselock.Client) SnapshotDBStoreOption {
	return func(s *SnapshotDBStore) {
		s.locks = locks
	}
}

func NewSnapshotDBStore(conn pgxIConn, opts ...SnapshotDBStoreOption) *SnapshotDBStore {
	s := &SnapshotDBStore{conn: conn}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s
}

// SaveSnapshot writes the snapshot in one transaction, replacing any stored
// snapshot with the same id.
func (s *SnapshotDBStore) SaveSnapshot(ctx context.Context, snap *store.Snapshot) error {
	if snap.ID == "" {
		return fmt.Errorf("snapshot id is required")
	}
	if snap.Graph == nil {
		return fmt.Errorf("snapshot graph is required")
	}
	if s.locks != nil {
		return s.locks.WithLease(ctx, "snapshot:"+snap.ID, leaselock.Options{Wait: true},
			func(ctx context.Context) error {
				return s.saveSnapshot(ctx, snap)
			})
	}
	return s.saveSnapshot(ctx, snap)
}

func (s *SnapshotDBStore) saveSnapshot(ctx context.Context, snap *store.Snapshot) error {

	createdAt := snap.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	var statsJSON []byte
	if snap.Stats != nil {
		data, err := json.Marshal(snap.Stats)
		if err != nil {
			return fmt.Errorf("failed to marshal snapshot stats: %w", err)
		}
		statsJSON = data
	}

	nodes, edges := export.Records(snap.Graph)

	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO snapshots (id, label, created_at, node_count, edge_count, stats)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			label = EXCLUDED.label,
			created_at = EXCLUDED.created_at,
			node_count = EXCLUDED.node_count,
			edge_count = EXCLUDED.edge_count,
			stats = EXCLUDED.stats`,
		snap.ID, snap.Label, createdAt, len(nodes), len(edges), statsJSON,
	)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM snapshot_nodes WHERE snapshot_id = $1`, snap.ID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM snapshot_edges WHERE snapshot_id = $1`, snap.ID); err != nil {
		return err
	}

	err = store.ChunkRange(len(nodes), nodeChunk, func(start, end int) error {
		part := nodes[start:end]
		ids := make([]string, 0, len(part))
		labels := make([]string, 0, len(part))
		records := make([]string, 0, len(part))
		for _, node := range part {
			data, err := json.Marshal(node)
			if err != nil {
				return fmt.Errorf("failed to marshal node %s: %w", node.ID, err)
			}
			ids = append(ids, node.ID)
			labels = append(labels, node.Label)
			records = append(records, string(data))
		}
		logger.Debug("[Store] Saving node chunk", "snapshot", snap.ID, "nodes", len(part))
		_, err := tx.Exec(ctx, `
			INSERT INTO snapshot_nodes (snapshot_id, node_id, label, record)
			SELECT $1, unnest($2::text[]), unnest($3::text[]), unnest($4::jsonb[])`,
			snap.ID, ids, labels, records,
		)
		return err
	})
	if err != nil {
		return err
	}

	err = store.ChunkRange(len(edges), edgeChunk, func(start, end int) error {
		part := edges[start:end]
		sources := make([]string, 0, len(part))
		targets := make([]string, 0, len(part))
		relations := make([]string, 0, len(part))
		records := make([]string, 0, len(part))
		for _, edge := range part {
			data, err := json.Marshal(edge)
			if err != nil {
				return fmt.Errorf("failed to marshal edge %s->%s: %w", edge.Source, edge.Target, err)
			}
			sources = append(sources, edge.Source)
			targets = append(targets, edge.Target)
			relations = append(relations, edge.Relation)
			records = append(records, string(data))
		}
		logger.Debug("[Store] Saving edge chunk", "snapshot", snap.ID, "edges", len(part))
		_, err := tx.Exec(ctx, `
			INSERT INTO snapshot_edges (snapshot_id, source, target, relation, record)
			SELECT $1, unnest($2::text[]), unnest($3::text[]), unnest($4::text[]), unnest($5::jsonb[])`,
			snap.ID, sources, targets, relations, records,
		)
		return err
	})
	if err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	logger.Info("[Store] Snapshot saved",
		"snapshot", snap.ID, "nodes", len(nodes), "edges", len(edges))
	return nil
}

func (s *SnapshotDBStore) LoadSnapshot(ctx context.Context, id string) (*store.Snapshot, error) {
	var (
		meta      store.Meta
		statsJSON []byte
	)
	meta.ID = id
	err := s.conn.QueryRow(ctx, `
		SELECT label, created_at, node_count, edge_count, stats
		FROM snapshots WHERE id = $1`, id,
	).Scan(&meta.Label, &meta.CreatedAt, &meta.NodeCount, &meta.EdgeCount, &statsJSON)
	if err != nil {
		if errors.Is(err, pgxv5.ErrNoRows) {
			return nil, &store.NotFoundError{ID: id}
		}
		return nil, err
	}

	nodes, err := scanRecords[export.NodeRecord](ctx, s.conn, `
		SELECT record FROM snapshot_nodes WHERE snapshot_id = $1 ORDER BY seq`, id)
	if err != nil {
		return nil, err
	}
	edges, err := scanRecords[export.EdgeRecord](ctx, s.conn, `
		SELECT record FROM snapshot_edges WHERE snapshot_id = $1 ORDER BY seq`, id)
	if err != nil {
		return nil, err
	}

	g, err := export.FromRecords("snapshot "+id, nodes, edges)
	if err != nil {
		return nil, err
	}

	snap := &store.Snapshot{Meta: meta, Graph: g}
	if len(statsJSON) > 0 {
		var stats graph.Stats
		if err := json.Unmarshal(statsJSON, &stats); err != nil {
			return nil, fmt.Errorf("failed to decode snapshot stats: %w", err)
		}
		snap.Stats = &stats
	}
	return snap, nil
}

func (s *SnapshotDBStore) ListSnapshots(ctx context.Context) ([]store.Meta, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT id, label, created_at, node_count, edge_count
		FROM snapshots ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var metas []store.Meta
	for rows.Next() {
		var meta store.Meta
		err := rows.Scan(&meta.ID, &meta.Label, &meta.CreatedAt,
			&meta.NodeCount, &meta.EdgeCount)
		if err != nil {
			return nil, err
		}
		metas = append(metas, meta)
	}
	return metas, rows.Err()
}

func (s *SnapshotDBStore) DeleteSnapshot(ctx context.Context, id string) error {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	tag, err := s.conn.Exec(ctx, `DELETE FROM snapshots WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &store.NotFoundError{ID: id}
	}
	return nil
}

func scanRecords[T any](ctx context.Context, conn pgxIConn, sql string, id string) ([]*T, error) {
	rows, err := conn.Query(ctx, sql, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*T
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		record := new(T)
		if err := json.Unmarshal(data, record); err != nil {
			return nil, fmt.Errorf("failed to decode stored record: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
