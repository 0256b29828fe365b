package repository

import (
	"context"
	"fmt"

	"github.com/meridian/oddsync/internal/store"
)

// EdgeRepository handles edge record persistence
type EdgeRepository struct {
	db *store.Database
}

// NewEdgeRepository creates a new edge repository
func NewEdgeRepository(db *store.Database) *EdgeRepository {
	return &EdgeRepository{db: db}
}

// Upsert writes an edge record keyed by game+provider+market. The WHERE
// guard refuses to rewrite an edge whose game has gone final, preserving
// backtest integrity even if a caller slips past the orchestrator's skip.
func (r *EdgeRepository) Upsert(ctx context.Context, edge *store.Edge) error {
	query := `
		INSERT INTO edges (
			game_id, provider, market_kind, market_line, model_line,
			edge_points, win_probability, expected_value, historical_roi,
			tier, qualified, low_confidence, recommended_side, computed_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,NOW())
		ON CONFLICT (game_id, provider, market_kind) DO UPDATE
		SET market_line = EXCLUDED.market_line,
			model_line = EXCLUDED.model_line,
			edge_points = EXCLUDED.edge_points,
			win_probability = EXCLUDED.win_probability,
			expected_value = EXCLUDED.expected_value,
			historical_roi = EXCLUDED.historical_roi,
			tier = EXCLUDED.tier,
			qualified = EXCLUDED.qualified,
			low_confidence = EXCLUDED.low_confidence,
			recommended_side = EXCLUDED.recommended_side,
			computed_at = NOW()
		WHERE NOT EXISTS (
			SELECT 1 FROM games g
			WHERE g.game_id = edges.game_id AND g.status = 'final'
		)
	`

	if _, err := r.db.DB().ExecContext(ctx, query,
		edge.GameID, edge.Provider, edge.MarketKind, edge.MarketLine, edge.ModelLine,
		edge.EdgePoints, edge.WinProbability, edge.ExpectedValue, edge.HistoricalROI,
		edge.Tier, edge.Qualified, edge.LowConfidence, edge.RecommendedSide,
	); err != nil {
		return fmt.Errorf("upserting edge: %w", err)
	}
	return nil
}

// ListQualified returns qualifying edges for non-final games, strongest first
func (r *EdgeRepository) ListQualified(ctx context.Context) ([]*store.Edge, error) {
	query := edgeSelect + `
		JOIN games g ON g.game_id = e.game_id
		WHERE e.qualified = true AND g.status <> 'final'
		ORDER BY ABS(e.edge_points) DESC
	`
	return r.queryEdges(ctx, query)
}

// ListForGame returns all edge records for a game
func (r *EdgeRepository) ListForGame(ctx context.Context, gameID int) ([]*store.Edge, error) {
	query := edgeSelect + ` WHERE e.game_id = $1 ORDER BY e.provider, e.market_kind`
	return r.queryEdges(ctx, query, gameID)
}

const edgeSelect = `
	SELECT e.edge_id, e.game_id, e.provider, e.market_kind, e.market_line,
		e.model_line, e.edge_points, e.win_probability, e.expected_value,
		e.historical_roi, e.tier, e.qualified, e.low_confidence,
		e.recommended_side, e.computed_at
	FROM edges e`

func (r *EdgeRepository) queryEdges(ctx context.Context, query string, args ...interface{}) ([]*store.Edge, error) {
	rows, err := r.db.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying edges: %w", err)
	}
	defer rows.Close()

	var edges []*store.Edge
	for rows.Next() {
		edge := &store.Edge{}
		err := rows.Scan(
			&edge.EdgeID, &edge.GameID, &edge.Provider, &edge.MarketKind,
			&edge.MarketLine, &edge.ModelLine, &edge.EdgePoints,
			&edge.WinProbability, &edge.ExpectedValue, &edge.HistoricalROI,
			&edge.Tier, &edge.Qualified, &edge.LowConfidence, &edge.RecommendedSide,
			&edge.ComputedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning edge: %w", err)
		}
		edges = append(edges, edge)
	}

	return edges, rows.Err()
}
