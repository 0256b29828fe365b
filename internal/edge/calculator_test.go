package edge

import (
	"math"
	"testing"

	"github.com/meridian/oddsync/internal/store"
)

func testCalculator() *Calculator {
	return NewCalculator(DefaultCalibration(), DefaultBounds())
}

func TestEvaluateSignConvention(t *testing.T) {
	calc := testCalculator()

	// Market has home favored by 7, model says only 3: the market
	// overvalues home by 4 points, so the value is on the away side.
	rec := calc.Evaluate(1, "draftkings", store.MarketSpread, -7, -3, false)

	if rec.EdgePoints != -4 {
		t.Errorf("edge = %v, want -4", rec.EdgePoints)
	}
	if rec.RecommendedSide != store.SideAway {
		t.Errorf("recommended side = %q, want %q", rec.RecommendedSide, store.SideAway)
	}

	// Flip it: market -3, model -7 means home is undervalued.
	rec = calc.Evaluate(1, "draftkings", store.MarketSpread, -3, -7, false)
	if rec.EdgePoints != 4 {
		t.Errorf("edge = %v, want 4", rec.EdgePoints)
	}
	if rec.RecommendedSide != store.SideHome {
		t.Errorf("recommended side = %q, want %q", rec.RecommendedSide, store.SideHome)
	}
}

func TestEvaluateQualificationBounds(t *testing.T) {
	calc := testCalculator()
	bounds := DefaultBounds()

	tests := []struct {
		name          string
		market, model float64
		wantQualified bool
	}{
		{"below minimum", -3, -3.5, false},
		{"at minimum", -3, -3 + bounds.MinEdge, true},
		{"inside window", -7, -3, true},
		{"above maximum", -14, -3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := calc.Evaluate(1, "draftkings", store.MarketSpread, tt.market, tt.model, false)
			if rec.Qualified != tt.wantQualified {
				t.Errorf("edge %v qualified = %v, want %v", rec.EdgePoints, rec.Qualified, tt.wantQualified)
			}
		})
	}
}

func TestEvaluateExpectedValue(t *testing.T) {
	calc := testCalculator()

	rec := calc.Evaluate(1, "draftkings", store.MarketSpread, -7, -3, false)

	// EV at -110 pricing: p*(100/110) - (1-p).
	want := rec.WinProbability*(100.0/110.0) - (1 - rec.WinProbability)
	if math.Abs(rec.ExpectedValue-want) > 1e-9 {
		t.Errorf("EV = %v, want %v", rec.ExpectedValue, want)
	}
	if rec.WinProbability <= 0 || rec.WinProbability >= 1 {
		t.Errorf("win probability %v out of range", rec.WinProbability)
	}

	// Magnitude 4 lands in the [4, 5) bucket of the default table.
	if rec.HistoricalROI != 0.097 {
		t.Errorf("historical ROI = %v, want 0.097", rec.HistoricalROI)
	}
}

func TestEvaluateLowConfidenceDemotesTier(t *testing.T) {
	calc := testCalculator()

	normal := calc.Evaluate(1, "draftkings", store.MarketSpread, -9, -3, false)
	demoted := calc.Evaluate(1, "draftkings", store.MarketSpread, -9, -3, true)

	if !demoted.LowConfidence {
		t.Error("low confidence flag not carried onto the record")
	}
	if normal.Tier == "A" && demoted.Tier != "B" {
		t.Errorf("tier %q not demoted to B", demoted.Tier)
	}
	if normal.Tier == "B" && demoted.Tier != "C" {
		t.Errorf("tier %q not demoted to C", demoted.Tier)
	}
	if demoted.Tier == "A" {
		t.Error("low-confidence edge kept tier A")
	}
}

func TestEvaluateTotalsSides(t *testing.T) {
	calc := testCalculator()

	// Market total above the model total: value on the under.
	rec := calc.Evaluate(1, "draftkings", store.MarketTotal, 55.5, 51, false)
	if rec.RecommendedSide != store.SideUnder {
		t.Errorf("side = %q, want %q", rec.RecommendedSide, store.SideUnder)
	}

	rec = calc.Evaluate(1, "draftkings", store.MarketTotal, 48, 51, false)
	if rec.RecommendedSide != store.SideOver {
		t.Errorf("side = %q, want %q", rec.RecommendedSide, store.SideOver)
	}
}

func TestWinProbabilityZeroSampleFallback(t *testing.T) {
	cal := &Calibration{
		MinSamples: 25,
		Buckets: []Bucket{
			{MinEdge: 0, MaxEdge: 2, Samples: 100, Wins: 48},
			{MinEdge: 2, MaxEdge: 4, Samples: 80, Wins: 44},
			{MinEdge: 4, MaxEdge: 6, Samples: 0, Wins: 0}, // empty bucket
			{MinEdge: 6, MaxEdge: 99, Samples: 40, Wins: 24},
		},
	}
	if err := cal.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	p := cal.WinProbability(5.0)
	if math.IsNaN(p) {
		t.Fatal("zero-sample bucket produced NaN")
	}
	if p == 0.5 {
		t.Fatal("zero-sample bucket fell back to a hardcoded 0.5")
	}

	// Cumulative rate at the 4.0 threshold pools the empty bucket with
	// everything above it: (0+24)/(0+40).
	if want := 24.0 / 40.0; math.Abs(p-want) > 1e-9 {
		t.Errorf("fallback probability = %v, want cumulative %v", p, want)
	}
}

func TestWinProbabilitySmallSampleUsesCumulative(t *testing.T) {
	cal := &Calibration{
		MinSamples: 25,
		Buckets: []Bucket{
			{MinEdge: 0, MaxEdge: 3, Samples: 200, Wins: 100},
			{MinEdge: 3, MaxEdge: 6, Samples: 10, Wins: 9}, // unstable 90%
			{MinEdge: 6, MaxEdge: 99, Samples: 30, Wins: 15},
		},
	}

	p := cal.WinProbability(4.0)
	want := float64(9+15) / float64(10+30)
	if math.Abs(p-want) > 1e-9 {
		t.Errorf("small-sample probability = %v, want pooled %v", p, want)
	}
}

func TestWinProbabilityBeyondTableRange(t *testing.T) {
	cal := DefaultCalibration()

	p := cal.WinProbability(500)
	if math.IsNaN(p) || p <= 0 || p >= 1 {
		t.Errorf("out-of-range magnitude produced %v", p)
	}
}

func TestCalibrationValidate(t *testing.T) {
	bad := &Calibration{MinSamples: 25}
	if err := bad.Validate(); err == nil {
		t.Error("empty table accepted")
	}

	bad = &Calibration{
		MinSamples: 25,
		Buckets:    []Bucket{{MinEdge: 3, MaxEdge: 1, Samples: 10, Wins: 5}},
	}
	if err := bad.Validate(); err == nil {
		t.Error("inverted bounds accepted")
	}

	bad = &Calibration{
		MinSamples: 25,
		Buckets:    []Bucket{{MinEdge: 0, MaxEdge: 1, Samples: 5, Wins: 9}},
	}
	if err := bad.Validate(); err == nil {
		t.Error("more wins than samples accepted")
	}
}
