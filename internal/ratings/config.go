package ratings

import (
	"encoding/json"
	"fmt"
	"os"
)

// ModelConfig holds the frozen coefficients consumed by the rating and
// projection engine. The values are produced by offline weight-selection
// experiments and supplied as a versioned JSON file; the pipeline never
// computes them.
type ModelConfig struct {
	// Elo parameters
	BaseRating float64 `json:"base_rating"`
	KFactor    float64 `json:"k_factor"`
	EloScale   float64 `json:"elo_scale"` // logistic divisor, classically 400

	// Per-term caps applied before blending, and the cap on the blend
	ResultTermCap  float64 `json:"result_term_cap"`
	MarginTermCap  float64 `json:"margin_term_cap"`
	TotalUpdateCap float64 `json:"total_update_cap"`
	MarginWeight   float64 `json:"margin_weight"` // blend weight of the margin term

	// Spread conversion
	EloPointsPerSpreadPoint float64 `json:"elo_points_per_spread_point"`
	EffPointsPerSpreadPoint float64 `json:"eff_points_per_spread_point"`
	HomeFieldAdvantage      float64 `json:"home_field_advantage"` // spread points

	// Ensemble
	EloWeight             float64 `json:"elo_weight"`
	EfficiencyWeight      float64 `json:"efficiency_weight"`
	DisagreementThreshold float64 `json:"disagreement_threshold"` // spread points
}

// DefaultModelConfig returns the coefficients shipped with the repo. Tests
// use these; deployments load the frozen file instead.
func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		BaseRating:              1500,
		KFactor:                 24,
		EloScale:                400,
		ResultTermCap:           18,
		MarginTermCap:           14,
		TotalUpdateCap:          26,
		MarginWeight:            0.5,
		EloPointsPerSpreadPoint: 28,
		EffPointsPerSpreadPoint: 1.0,
		HomeFieldAdvantage:      2.4,
		EloWeight:               0.65,
		EfficiencyWeight:        0.35,
		DisagreementThreshold:   6.5,
	}
}

// LoadModelConfig reads the frozen model configuration from a JSON file.
// A missing or malformed file is a fatal configuration error for callers.
func LoadModelConfig(path string) (ModelConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ModelConfig{}, fmt.Errorf("reading model config: %w", err)
	}

	var cfg ModelConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return ModelConfig{}, fmt.Errorf("parsing model config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return ModelConfig{}, err
	}
	return cfg, nil
}

// Validate rejects configurations that would divide by zero or weight
// nothing at all.
func (c ModelConfig) Validate() error {
	if c.EloScale <= 0 {
		return fmt.Errorf("model config: elo_scale must be positive")
	}
	if c.EloPointsPerSpreadPoint <= 0 {
		return fmt.Errorf("model config: elo_points_per_spread_point must be positive")
	}
	if c.EffPointsPerSpreadPoint <= 0 {
		return fmt.Errorf("model config: eff_points_per_spread_point must be positive")
	}
	if sum := c.EloWeight + c.EfficiencyWeight; sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("model config: ensemble weights sum to %.3f, want 1", sum)
	}
	if c.TotalUpdateCap <= 0 {
		return fmt.Errorf("model config: total_update_cap must be positive")
	}
	return nil
}
