package ratings

import "math"

// Elo applies post-game rating updates using the frozen model coefficients.
type Elo struct {
	cfg ModelConfig
}

// NewElo creates an Elo updater
func NewElo(cfg ModelConfig) *Elo {
	return &Elo{cfg: cfg}
}

// WinExpectation returns the logistic expectation that the first team wins
// given the rating difference (first minus second, home-field already
// folded in by the caller).
func (e *Elo) WinExpectation(ratingDiff float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, -ratingDiff/e.cfg.EloScale))
}

// Update returns both teams' post-game ratings. The swing blends a
// win/loss term against the logistic expectation with a margin-of-victory
// term; each term is capped before blending and the blended total is
// capped again, so no single blowout produces an unbounded move.
func (e *Elo) Update(homeRating, awayRating float64, homeScore, awayScore int, neutralSite bool) (newHome, newAway float64) {
	diff := homeRating - awayRating
	if !neutralSite {
		diff += e.cfg.HomeFieldAdvantage * e.cfg.EloPointsPerSpreadPoint
	}
	expected := e.WinExpectation(diff)

	actual := 0.5
	switch {
	case homeScore > awayScore:
		actual = 1.0
	case homeScore < awayScore:
		actual = 0.0
	}

	resultTerm := clamp(e.cfg.KFactor*(actual-expected), e.cfg.ResultTermCap)

	// Log-damped margin term, signed toward the winner. A tie contributes
	// nothing.
	margin := float64(homeScore - awayScore)
	var marginTerm float64
	if margin != 0 {
		damped := math.Log1p(math.Abs(margin)) * e.cfg.KFactor / 3.0
		marginTerm = clamp(math.Copysign(damped, margin)*(1.0-math.Abs(expected-0.5)), e.cfg.MarginTermCap)
	}

	w := e.cfg.MarginWeight
	swing := clamp((1.0-w)*resultTerm+w*marginTerm, e.cfg.TotalUpdateCap)

	return homeRating + swing, awayRating - swing
}

// SpreadEquivalent converts a rating difference into spread points with the
// market's sign convention: negative means the home side is favored.
func (e *Elo) SpreadEquivalent(homeRating, awayRating float64, neutralSite bool) float64 {
	spread := -(homeRating - awayRating) / e.cfg.EloPointsPerSpreadPoint
	if !neutralSite {
		spread -= e.cfg.HomeFieldAdvantage
	}
	return spread
}

func clamp(v, limit float64) float64 {
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}
