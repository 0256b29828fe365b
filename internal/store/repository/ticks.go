package repository

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/meridian/oddsync/internal/store"
)

// tickChunkSize bounds the number of rows per INSERT statement.
const tickChunkSize = 50

// TickRepository persists deduplicated market observations
type TickRepository struct {
	db *store.Database
}

// NewTickRepository creates a new tick repository
func NewTickRepository(db *store.Database) *TickRepository {
	return &TickRepository{db: db}
}

// BatchResult summarizes an InsertBatch call
type BatchResult struct {
	Submitted    int
	Created      int
	FailedChunks int
}

// InsertBatch persists a batch of ticks, exactly one row per unique content
// hash. Writes are chunked; a failed chunk is logged and counted but does not
// abort chunks already committed. Hashes are computed here if absent.
func (r *TickRepository) InsertBatch(ctx context.Context, ticks []*store.Tick) (BatchResult, error) {
	result := BatchResult{Submitted: len(ticks)}
	if len(ticks) == 0 {
		return result, nil
	}

	for _, tick := range ticks {
		if tick.ContentHash == "" {
			tick.ContentHash = tick.ComputeHash()
		}
	}

	for start := 0; start < len(ticks); start += tickChunkSize {
		end := start + tickChunkSize
		if end > len(ticks) {
			end = len(ticks)
		}

		created, err := r.insertChunk(ctx, ticks[start:end])
		if err != nil {
			// Chunk isolation: committed chunks stand, this one is retried on
			// the next pass via the idempotent hash key.
			log.Printf("[ticks] chunk %d-%d failed: %v", start, end, err)
			result.FailedChunks++
			continue
		}
		result.Created += created
	}

	return result, nil
}

func (r *TickRepository) insertChunk(ctx context.Context, chunk []*store.Tick) (int, error) {
	var (
		placeholders []string
		args         []interface{}
	)

	for i, tick := range chunk {
		base := i * 8
		placeholders = append(placeholders, fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8))
		args = append(args,
			tick.GameID, tick.Provider, tick.MarketKind, tick.Side,
			tick.Line, tick.Price, tick.CapturedAt, tick.ContentHash,
		)
	}

	query := fmt.Sprintf(`
		INSERT INTO ticks (game_id, provider, market_kind, side, line, price, captured_at, content_hash)
		VALUES %s
		ON CONFLICT (content_hash) DO NOTHING
	`, strings.Join(placeholders, ","))

	res, err := r.db.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("inserting tick chunk: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading rows affected: %w", err)
	}
	return int(affected), nil
}

// LatestAcrossProviders returns the most recently captured tick per
// provider, market kind, and side for a game.
func (r *TickRepository) LatestAcrossProviders(ctx context.Context, gameID int) ([]*store.Tick, error) {
	query := `
		SELECT DISTINCT ON (provider, market_kind, side)
			tick_id, game_id, provider, market_kind, side, line, price,
			captured_at, content_hash, created_at
		FROM ticks
		WHERE game_id = $1
		ORDER BY provider, market_kind, side, captured_at DESC
	`

	rows, err := r.db.DB().QueryContext(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("querying latest ticks: %w", err)
	}
	defer rows.Close()

	var ticks []*store.Tick
	for rows.Next() {
		tick := &store.Tick{}
		err := rows.Scan(
			&tick.TickID, &tick.GameID, &tick.Provider, &tick.MarketKind,
			&tick.Side, &tick.Line, &tick.Price, &tick.CapturedAt,
			&tick.ContentHash, &tick.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning tick: %w", err)
		}
		ticks = append(ticks, tick)
	}

	return ticks, rows.Err()
}
