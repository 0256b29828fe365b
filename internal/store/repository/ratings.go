package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/meridian/oddsync/internal/store"
)

// RatingRepository handles rating snapshot persistence
type RatingRepository struct {
	db *store.Database
}

// NewRatingRepository creates a new rating repository
func NewRatingRepository(db *store.Database) *RatingRepository {
	return &RatingRepository{db: db}
}

// InsertSnapshot stores a point-in-time rating. Snapshots are append-only
// per team/season/week; re-running a build leaves existing rows untouched.
func (r *RatingRepository) InsertSnapshot(ctx context.Context, snap *store.RatingSnapshot) error {
	query := `
		INSERT INTO rating_snapshots (team_id, season, week, rating, games_played)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (team_id, season, week) DO NOTHING
	`

	if _, err := r.db.DB().ExecContext(ctx, query,
		snap.TeamID, snap.Season, snap.Week, snap.Rating, snap.GamesPlayed); err != nil {
		return fmt.Errorf("inserting rating snapshot: %w", err)
	}
	return nil
}

// GetAsOfWeek returns the latest snapshot for a team at or before the given
// week. The snapshot never reflects games at or after its own week, so this
// is safe for scoring week-`week` games.
func (r *RatingRepository) GetAsOfWeek(ctx context.Context, teamID, season, week int) (*store.RatingSnapshot, error) {
	query := `
		SELECT snapshot_id, team_id, season, week, rating, games_played, created_at
		FROM rating_snapshots
		WHERE team_id = $1 AND season = $2 AND week <= $3
		ORDER BY week DESC
		LIMIT 1
	`

	snap := &store.RatingSnapshot{}
	err := r.db.DB().QueryRowContext(ctx, query, teamID, season, week).Scan(
		&snap.SnapshotID, &snap.TeamID, &snap.Season, &snap.Week,
		&snap.Rating, &snap.GamesPlayed, &snap.CreatedAt,
	)

	if err == sql.ErrNoRows {
		// No snapshot yet for this team. Normal early in a season.
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying rating snapshot: %w", err)
	}

	return snap, nil
}
