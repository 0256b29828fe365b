package store

import (
	"testing"
	"time"
)

func baseTick() Tick {
	return Tick{
		GameID:     42,
		Provider:   "draftkings",
		MarketKind: MarketSpread,
		Side:       SideHome,
		Line:       -7.5,
		Price:      -110,
		CapturedAt: time.Date(2024, 11, 2, 16, 0, 0, 0, time.UTC),
	}
}

func TestComputeHashIsStable(t *testing.T) {
	a, b := baseTick(), baseTick()
	if a.ComputeHash() != b.ComputeHash() {
		t.Error("identical ticks hashed differently")
	}

	// Same instant in another zone is the same observation.
	loc := time.FixedZone("EST", -5*3600)
	b.CapturedAt = a.CapturedAt.In(loc)
	if a.ComputeHash() != b.ComputeHash() {
		t.Error("timezone representation changed the hash")
	}

	// Database-assigned fields play no part in identity.
	b = baseTick()
	b.TickID = 999
	b.CreatedAt = time.Now()
	if a.ComputeHash() != b.ComputeHash() {
		t.Error("row metadata changed the hash")
	}
}

func TestComputeHashChangesWithIdentityFields(t *testing.T) {
	baseTickVal := baseTick()
	base := baseTickVal.ComputeHash()

	mutations := map[string]func(*Tick){
		"game":     func(tk *Tick) { tk.GameID = 43 },
		"provider": func(tk *Tick) { tk.Provider = "fanduel" },
		"market":   func(tk *Tick) { tk.MarketKind = MarketTotal },
		"side":     func(tk *Tick) { tk.Side = SideAway },
		"line":     func(tk *Tick) { tk.Line = -7.0 },
		"price":    func(tk *Tick) { tk.Price = -115 },
		"captured": func(tk *Tick) { tk.CapturedAt = tk.CapturedAt.Add(time.Second) },
	}

	for name, mutate := range mutations {
		tick := baseTick()
		mutate(&tick)
		if tick.ComputeHash() == base {
			t.Errorf("changing %s did not change the hash", name)
		}
	}
}
