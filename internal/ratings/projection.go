package ratings

import "math"

// SourceContribution is one rating source's spread-equivalent view of a
// matchup, tagged so disagreements can be reported.
type SourceContribution struct {
	Name   string  `json:"name"`
	Spread float64 `json:"spread"`
	Weight float64 `json:"weight"`
}

// Projection is the model's line for a matchup in the market's sign
// convention (negative = home favored). LowConfidence marks projections
// whose sources disagreed beyond the frozen threshold; the outlier is kept,
// never silently discarded.
type Projection struct {
	Line          float64              `json:"line"`
	LowConfidence bool                 `json:"low_confidence"`
	Sources       []SourceContribution `json:"sources"`
}

// EfficiencyRating is an auxiliary per-play rating pair for one team
type EfficiencyRating struct {
	Offense float64 // points per play scaled, higher is better
	Defense float64 // lower is better
}

// Margin returns the team's net efficiency
func (r EfficiencyRating) Margin() float64 {
	return r.Offense - r.Defense
}

// Projector combines point-in-time rating sources into a single projected
// line using frozen ensemble weights.
type Projector struct {
	cfg ModelConfig
	elo *Elo
}

// NewProjector creates a projector
func NewProjector(cfg ModelConfig) *Projector {
	return &Projector{cfg: cfg, elo: NewElo(cfg)}
}

// ProjectSpread produces the projected spread for a matchup. homeEff and
// awayEff are optional; when absent the projection rests on the Elo source
// alone and the disagreement check is vacuous.
func (p *Projector) ProjectSpread(homeRating, awayRating float64, homeEff, awayEff *EfficiencyRating, neutralSite bool) Projection {
	sources := []SourceContribution{
		{
			Name:   "elo",
			Spread: p.elo.SpreadEquivalent(homeRating, awayRating, neutralSite),
			Weight: p.cfg.EloWeight,
		},
	}

	if homeEff != nil && awayEff != nil {
		spread := -(homeEff.Margin() - awayEff.Margin()) / p.cfg.EffPointsPerSpreadPoint
		if !neutralSite {
			spread -= p.cfg.HomeFieldAdvantage
		}
		sources = append(sources, SourceContribution{
			Name:   "efficiency",
			Spread: spread,
			Weight: p.cfg.EfficiencyWeight,
		})
	}

	var weightSum, weighted float64
	for _, src := range sources {
		weightSum += src.Weight
		weighted += src.Weight * src.Spread
	}
	line := weighted / weightSum

	lowConfidence := false
	if len(sources) > 1 {
		for _, src := range sources {
			if math.Abs(src.Spread-line) > p.cfg.DisagreementThreshold {
				lowConfidence = true
				break
			}
		}
	}

	return Projection{
		Line:          line,
		LowConfidence: lowConfidence,
		Sources:       sources,
	}
}
