package storage

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"polygraph/internal/util"
	"polygraph/pkg/leaselock"
	"polygraph/pkg/logger"
	"polygraph/pkg/store"
	fsstore "polygraph/pkg/store/fs"
	pgxstore "polygraph/pkg/store/pgx"
)

// OpenSnapshotStore picks the snapshot backend from the environment. With a
// DATABASE_URL the PostgreSQL store is used and migrated; otherwise snapshots
// live on disk under SNAPSHOT_DIR. The returned func releases the backend.
func OpenSnapshotStore(ctx context.Context) (store.SnapshotStore, func(), error) {
	databaseURL := util.GetEnv("DATABASE_URL")
	if databaseURL != "" {
		if err := pgxstore.Migrate(databaseURL); err != nil {
			return nil, nil, err
		}
		pool, err := pgxpool.New(ctx, databaseURL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("[Storage] Using PostgreSQL snapshot store")
		locks := leaselock.New(pool)
		return pgxstore.NewSnapshotDBStore(pool, pgxstore.WithLeaseLock(locks)), pool.Close, nil
	}

	dir := util.GetEnvString("SNAPSHOT_DIR", "snapshots")
	fsStore, err := fsstore.NewStore(dir)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("[Storage] Using filesystem snapshot store", "dir", dir)
	return fsStore, func() {}, nil
}
