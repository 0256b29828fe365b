package oddsapi

import "time"

// Market keys used by the provider
const (
	MarketKeySpreads = "spreads"
	MarketKeyTotals  = "totals"
)

// Snapshot is the provider's view of the market at one historical instant.
// Found is false for a 422 response, which means no snapshot exists at that
// timestamp — a well-defined empty result, not an error.
type Snapshot struct {
	Timestamp         time.Time
	PreviousTimestamp *time.Time
	NextTimestamp     *time.Time
	Events            []Event
	Found             bool
}

// snapshotResponse mirrors the provider's historical odds payload
type snapshotResponse struct {
	Timestamp         string  `json:"timestamp"`
	PreviousTimestamp *string `json:"previous_timestamp"`
	NextTimestamp     *string `json:"next_timestamp"`
	Data              []Event `json:"data"`
}

// Event is one scheduled matchup with its bookmaker blocks. Optional nested
// fields are pointers so every absence is a deliberate branch, never a
// zero-value masquerading as data.
type Event struct {
	ID           string      `json:"id"`
	SportKey     string      `json:"sport_key"`
	CommenceTime time.Time   `json:"commence_time"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	Bookmakers   []Bookmaker `json:"bookmakers"`
}

// Bookmaker is one book's market blocks for an event
type Bookmaker struct {
	Key        string    `json:"key"`
	Title      string    `json:"title"`
	LastUpdate time.Time `json:"last_update"`
	Markets    []Market  `json:"markets"`
}

// Market is one market kind offered by a bookmaker
type Market struct {
	Key        string    `json:"key"`
	LastUpdate time.Time `json:"last_update"`
	Outcomes   []Outcome `json:"outcomes"`
}

// Outcome is an outcome/price/line triple. Price and Point are absent for
// some exotic market rows; callers must branch on nil.
type Outcome struct {
	Name  string   `json:"name"`
	Price *float64 `json:"price"`
	Point *float64 `json:"point"`
}

// SpreadFor returns the bookmaker's spread outcome for the named side, if
// the bookmaker quotes one with both a price and a line.
func (b *Bookmaker) SpreadFor(teamName string) (line, price float64, ok bool) {
	return b.outcomeFor(MarketKeySpreads, teamName)
}

// TotalFor returns the bookmaker's total outcome for "Over" or "Under"
func (b *Bookmaker) TotalFor(side string) (line, price float64, ok bool) {
	return b.outcomeFor(MarketKeyTotals, side)
}

func (b *Bookmaker) outcomeFor(marketKey, name string) (float64, float64, bool) {
	for _, market := range b.Markets {
		if market.Key != marketKey {
			continue
		}
		for _, outcome := range market.Outcomes {
			if outcome.Name != name {
				continue
			}
			if outcome.Price == nil || outcome.Point == nil {
				return 0, 0, false
			}
			return *outcome.Point, *outcome.Price, true
		}
	}
	return 0, 0, false
}
