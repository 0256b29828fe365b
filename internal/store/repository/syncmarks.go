package repository

import (
	"context"
	"fmt"

	"github.com/meridian/oddsync/internal/store"
)

// SyncMarkRepository tracks which time partitions a sync type has completed
type SyncMarkRepository struct {
	db *store.Database
}

// NewSyncMarkRepository creates a new sync mark repository
func NewSyncMarkRepository(db *store.Database) *SyncMarkRepository {
	return &SyncMarkRepository{db: db}
}

// IsMarked reports whether the partition has already been fully processed
func (r *SyncMarkRepository) IsMarked(ctx context.Context, syncType, partitionKey string) (bool, error) {
	var exists bool
	err := r.db.DB().QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM sync_marks WHERE sync_type = $1 AND partition_key = $2)`,
		syncType, partitionKey,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("querying sync mark: %w", err)
	}
	return exists, nil
}

// Mark records a partition as complete. Callers must only invoke this after
// every write for the partition has committed.
func (r *SyncMarkRepository) Mark(ctx context.Context, syncType, partitionKey string) error {
	query := `
		INSERT INTO sync_marks (sync_type, partition_key)
		VALUES ($1, $2)
		ON CONFLICT (sync_type, partition_key) DO UPDATE
		SET completed_at = NOW()
	`

	if _, err := r.db.DB().ExecContext(ctx, query, syncType, partitionKey); err != nil {
		return fmt.Errorf("writing sync mark: %w", err)
	}
	return nil
}

// ListMarked returns the completed partition keys for a sync type in order
func (r *SyncMarkRepository) ListMarked(ctx context.Context, syncType string) ([]string, error) {
	rows, err := r.db.DB().QueryContext(ctx,
		`SELECT partition_key FROM sync_marks WHERE sync_type = $1 ORDER BY partition_key`, syncType)
	if err != nil {
		return nil, fmt.Errorf("querying sync marks: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scanning sync mark: %w", err)
		}
		keys = append(keys, key)
	}

	return keys, rows.Err()
}
