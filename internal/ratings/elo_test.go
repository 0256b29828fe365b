package ratings

import (
	"math"
	"testing"
)

func TestWinExpectation(t *testing.T) {
	elo := NewElo(DefaultModelConfig())

	if got := elo.WinExpectation(0); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("WinExpectation(0) = %v, want 0.5", got)
	}
	if got := elo.WinExpectation(400); math.Abs(got-10.0/11.0) > 1e-9 {
		t.Errorf("WinExpectation(400) = %v, want 10/11", got)
	}
	if low, high := elo.WinExpectation(-200), elo.WinExpectation(200); low+high > 1.0+1e-9 || low+high < 1.0-1e-9 {
		t.Errorf("expectations not symmetric: %v + %v != 1", low, high)
	}
}

func TestUpdateIsZeroSum(t *testing.T) {
	elo := NewElo(DefaultModelConfig())

	newHome, newAway := elo.Update(1520, 1480, 31, 17, false)
	if delta := (newHome + newAway) - (1520 + 1480); math.Abs(delta) > 1e-9 {
		t.Errorf("rating mass changed by %v", delta)
	}
	if newHome <= 1520 {
		t.Errorf("winner's rating did not increase: %v", newHome)
	}
	if newAway >= 1480 {
		t.Errorf("loser's rating did not decrease: %v", newAway)
	}
}

func TestUpdateBlowoutIsCapped(t *testing.T) {
	cfg := DefaultModelConfig()
	elo := NewElo(cfg)

	// A 70-point blowout by a heavy underdog maximizes both terms.
	newHome, _ := elo.Update(1200, 1800, 77, 7, false)
	swing := newHome - 1200
	if swing > cfg.TotalUpdateCap {
		t.Errorf("swing %v exceeds total cap %v", swing, cfg.TotalUpdateCap)
	}
	if swing <= 0 {
		t.Errorf("underdog blowout win produced non-positive swing %v", swing)
	}

	// Doubling the margin must not double the swing once caps bite.
	newHome2, _ := elo.Update(1200, 1800, 147, 7, false)
	if swing2 := newHome2 - 1200; swing2 > cfg.TotalUpdateCap {
		t.Errorf("bigger blowout swing %v exceeds cap %v", swing2, cfg.TotalUpdateCap)
	}
}

func TestUpdateTieMovesTowardExpectation(t *testing.T) {
	elo := NewElo(DefaultModelConfig())

	// A tie between equals at a neutral site should move nothing.
	newHome, newAway := elo.Update(1500, 1500, 21, 21, true)
	if newHome != 1500 || newAway != 1500 {
		t.Errorf("neutral tie moved ratings: %v, %v", newHome, newAway)
	}

	// A tie where the favored home side was expected to win should cost it.
	newHome, _ = elo.Update(1600, 1400, 21, 21, false)
	if newHome >= 1600 {
		t.Errorf("favorite tying did not lose rating: %v", newHome)
	}
}

func TestSpreadEquivalentSignConvention(t *testing.T) {
	cfg := DefaultModelConfig()
	elo := NewElo(cfg)

	// Stronger home team: negative spread (home favored).
	if spread := elo.SpreadEquivalent(1600, 1500, false); spread >= 0 {
		t.Errorf("stronger home team spread = %v, want negative", spread)
	}

	// Equal teams at home: spread equals minus the home-field advantage.
	spread := elo.SpreadEquivalent(1500, 1500, false)
	if math.Abs(spread-(-cfg.HomeFieldAdvantage)) > 1e-9 {
		t.Errorf("equal teams spread = %v, want %v", spread, -cfg.HomeFieldAdvantage)
	}

	// Neutral site removes the advantage entirely.
	if spread := elo.SpreadEquivalent(1500, 1500, true); spread != 0 {
		t.Errorf("equal teams neutral spread = %v, want 0", spread)
	}
}

func TestModelConfigValidate(t *testing.T) {
	cfg := DefaultModelConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}

	bad := cfg
	bad.EloScale = 0
	if err := bad.Validate(); err == nil {
		t.Error("zero EloScale accepted")
	}

	bad = cfg
	bad.EloWeight = 0.9
	bad.EfficiencyWeight = 0.9
	if err := bad.Validate(); err == nil {
		t.Error("ensemble weights not summing to 1 accepted")
	}
}
