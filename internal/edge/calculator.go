package edge

import (
	"math"
	"time"

	"github.com/meridian/oddsync/internal/store"
)

// Standard -110 pricing: a winning bet returns 100/110 of the stake.
const standardPayout = 100.0 / 110.0

// Confidence tier cutoffs on calibrated win probability.
const (
	tierACutoff = 0.58
	tierBCutoff = 0.55
)

// QualificationBounds are the frozen actionability limits. Edges below the
// minimum are noise; edges above the maximum usually mean the model is
// missing information (injury, weather) rather than the market being wrong.
type QualificationBounds struct {
	MinEdge float64 `json:"min_edge"`
	MaxEdge float64 `json:"max_edge"`
}

// DefaultBounds returns the standard qualification window.
func DefaultBounds() QualificationBounds {
	return QualificationBounds{MinEdge: 2.0, MaxEdge: 9.5}
}

// Calculator scores the discrepancy between a market line and a model line.
type Calculator struct {
	calibration *Calibration
	bounds      QualificationBounds
}

// NewCalculator creates a calculator over a frozen calibration table
func NewCalculator(calibration *Calibration, bounds QualificationBounds) *Calculator {
	return &Calculator{calibration: calibration, bounds: bounds}
}

// Evaluate scores one market observation against the model's line. Both
// lines use the market sign convention (negative = home favored).
// edge = market - model: a positive edge means the market undervalues the
// home side, so home is the recommended side; negative recommends away.
func (c *Calculator) Evaluate(gameID int, provider, marketKind string, marketLine, modelLine float64, lowConfidence bool) *store.Edge {
	edgePoints := marketLine - modelLine
	magnitude := math.Abs(edgePoints)

	winProb := c.calibration.WinProbability(magnitude)
	ev := winProb*standardPayout - (1 - winProb)

	side := store.SideHome
	if edgePoints < 0 {
		side = store.SideAway
	}
	if marketKind == store.MarketTotal {
		// For totals a market number above the model means the over is
		// inflated; the value is on the under.
		side = store.SideUnder
		if edgePoints < 0 {
			side = store.SideOver
		}
	}

	tier := tierFor(winProb)
	if lowConfidence {
		tier = demote(tier)
	}

	qualified := magnitude >= c.bounds.MinEdge && magnitude <= c.bounds.MaxEdge

	return &store.Edge{
		GameID:          gameID,
		Provider:        provider,
		MarketKind:      marketKind,
		MarketLine:      marketLine,
		ModelLine:       modelLine,
		EdgePoints:      edgePoints,
		WinProbability:  winProb,
		ExpectedValue:   ev,
		HistoricalROI:   c.calibration.BucketROI(magnitude),
		Tier:            tier,
		Qualified:       qualified,
		LowConfidence:   lowConfidence,
		RecommendedSide: side,
		ComputedAt:      time.Now().UTC(),
	}
}

func tierFor(winProb float64) string {
	switch {
	case winProb >= tierACutoff:
		return "A"
	case winProb >= tierBCutoff:
		return "B"
	default:
		return "C"
	}
}

// demote drops a tier one level; C stays C.
func demote(tier string) string {
	switch tier {
	case "A":
		return "B"
	default:
		return "C"
	}
}
