package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/meridian/oddsync/internal/store"
)

// GameRepository handles game data access
type GameRepository struct {
	db *store.Database
}

// NewGameRepository creates a new game repository
func NewGameRepository(db *store.Database) *GameRepository {
	return &GameRepository{db: db}
}

// Upsert inserts or updates a game keyed on its external ID. Scores and
// status advance; identity fields never change once set.
func (r *GameRepository) Upsert(ctx context.Context, game *store.Game) error {
	query := `
		INSERT INTO games (
			sport, season, week, external_id, start_time,
			home_team_id, away_team_id, home_score, away_score,
			neutral_site, status
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (external_id) DO UPDATE
		SET home_score = EXCLUDED.home_score,
			away_score = EXCLUDED.away_score,
			status = EXCLUDED.status,
			start_time = EXCLUDED.start_time,
			updated_at = NOW()
		RETURNING game_id
	`

	err := r.db.DB().QueryRowContext(ctx, query,
		game.Sport, game.Season, game.Week, game.ExternalID, game.StartTime,
		game.HomeTeamID, game.AwayTeamID, game.HomeScore, game.AwayScore,
		game.NeutralSite, game.Status,
	).Scan(&game.GameID)
	if err != nil {
		return fmt.Errorf("upserting game: %w", err)
	}

	return nil
}

// GetByID finds a game by ID. Returns nil when no such game exists.
func (r *GameRepository) GetByID(ctx context.Context, gameID int) (*store.Game, error) {
	query := gameSelect + ` WHERE game_id = $1`

	game, err := scanGame(r.db.DB().QueryRowContext(ctx, query, gameID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying game: %w", err)
	}
	return game, nil
}

// FindByTeamsAndDate finds a game by its two team IDs on a calendar date.
// The swapped return reports a home/away match in reverse orientation, which
// callers must count rather than silently accept.
func (r *GameRepository) FindByTeamsAndDate(ctx context.Context, homeTeamID, awayTeamID int, date time.Time) (game *store.Game, swapped bool, err error) {
	query := gameSelect + `
		WHERE home_team_id = $1 AND away_team_id = $2
			AND start_time >= $3 AND start_time < $4
		LIMIT 1
	`

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 2) // evening kickoffs can land past midnight UTC

	game, err = scanGame(r.db.DB().QueryRowContext(ctx, query, homeTeamID, awayTeamID, dayStart, dayEnd))
	if err == nil {
		return game, false, nil
	}
	if err != sql.ErrNoRows {
		return nil, false, fmt.Errorf("querying game by teams: %w", err)
	}

	// Swap check: neutral-site and data-entry discrepancies sometimes invert
	// the provider's home/away pair relative to the catalog.
	game, err = scanGame(r.db.DB().QueryRowContext(ctx, query, awayTeamID, homeTeamID, dayStart, dayEnd))
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("querying game by swapped teams: %w", err)
	}
	return game, true, nil
}

// ListBySeason returns all games in a season ordered by start time
func (r *GameRepository) ListBySeason(ctx context.Context, season int) ([]*store.Game, error) {
	query := gameSelect + ` WHERE season = $1 ORDER BY start_time, game_id`
	return r.queryGames(ctx, query, season)
}

// ListNonFinal returns games that have not gone final yet
func (r *GameRepository) ListNonFinal(ctx context.Context, season int) ([]*store.Game, error) {
	query := gameSelect + ` WHERE season = $1 AND status <> 'final' ORDER BY start_time, game_id`
	return r.queryGames(ctx, query, season)
}

const gameSelect = `
	SELECT game_id, sport, season, week, external_id, start_time,
		home_team_id, away_team_id, home_score, away_score,
		neutral_site, status, created_at, updated_at
	FROM games`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanGame(row rowScanner) (*store.Game, error) {
	game := &store.Game{}
	err := row.Scan(
		&game.GameID, &game.Sport, &game.Season, &game.Week, &game.ExternalID,
		&game.StartTime, &game.HomeTeamID, &game.AwayTeamID,
		&game.HomeScore, &game.AwayScore, &game.NeutralSite, &game.Status,
		&game.CreatedAt, &game.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return game, nil
}

func (r *GameRepository) queryGames(ctx context.Context, query string, args ...interface{}) ([]*store.Game, error) {
	rows, err := r.db.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying games: %w", err)
	}
	defer rows.Close()

	var games []*store.Game
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning game: %w", err)
		}
		games = append(games, game)
	}

	return games, rows.Err()
}
