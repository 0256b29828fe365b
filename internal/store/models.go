package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"
)

// Market kinds supported by the pipeline.
const (
	MarketSpread = "spread"
	MarketTotal  = "total"
)

// Game lifecycle states.
const (
	GameStatusScheduled = "scheduled"
	GameStatusFinal     = "final"
)

// Sides a tick or edge can reference.
const (
	SideHome  = "home"
	SideAway  = "away"
	SideOver  = "over"
	SideUnder = "under"
)

// Team is the internal identity a noisy external name resolves to.
// Exactly one canonical team exists per ID; aliases and mappings are
// many-to-one onto a team.
type Team struct {
	TeamID        int            `json:"team_id" db:"team_id"`
	Sport         string         `json:"sport" db:"sport"`
	CanonicalName string         `json:"canonical_name" db:"canonical_name"`
	Abbreviation  string         `json:"abbreviation" db:"abbreviation"`
	Conference    sql.NullString `json:"conference,omitempty" db:"conference"`
	IsActive      bool           `json:"is_active" db:"is_active"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" db:"updated_at"`
}

// TeamAlias is a provider-specific spelling of a team name.
type TeamAlias struct {
	AliasID  int    `json:"alias_id" db:"alias_id"`
	TeamID   int    `json:"team_id" db:"team_id"`
	Provider string `json:"provider" db:"provider"`
	Alias    string `json:"alias" db:"alias"`
}

// TeamMapping is an explicit override: a raw external string pinned to a
// team regardless of provider. Used when normalization cannot bridge the gap.
type TeamMapping struct {
	MappingID int    `json:"mapping_id" db:"mapping_id"`
	TeamID    int    `json:"team_id" db:"team_id"`
	RawName   string `json:"raw_name" db:"raw_name"`
}

// Game is a scheduled matchup between two teams at a fixed start time.
type Game struct {
	GameID      int           `json:"game_id" db:"game_id"`
	Sport       string        `json:"sport" db:"sport"`
	Season      int           `json:"season" db:"season"`
	Week        int           `json:"week" db:"week"`
	ExternalID  string        `json:"external_id" db:"external_id"`
	StartTime   time.Time     `json:"start_time" db:"start_time"`
	HomeTeamID  int           `json:"home_team_id" db:"home_team_id"`
	AwayTeamID  int           `json:"away_team_id" db:"away_team_id"`
	HomeScore   sql.NullInt32 `json:"home_score,omitempty" db:"home_score"`
	AwayScore   sql.NullInt32 `json:"away_score,omitempty" db:"away_score"`
	NeutralSite bool          `json:"neutral_site" db:"neutral_site"`
	Status      string        `json:"status" db:"status"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`
}

// IsFinal reports whether the game has completed.
func (g *Game) IsFinal() bool {
	return g.Status == GameStatusFinal
}

// Tick is one immutable market-line observation at a point in time.
// Ticks are append-only and unique by content hash.
type Tick struct {
	TickID      int64     `json:"tick_id" db:"tick_id"`
	GameID      int       `json:"game_id" db:"game_id"`
	Provider    string    `json:"provider" db:"provider"`
	MarketKind  string    `json:"market_kind" db:"market_kind"`
	Side        string    `json:"side" db:"side"`
	Line        float64   `json:"line" db:"line"`
	Price       int       `json:"price" db:"price"`
	CapturedAt  time.Time `json:"captured_at" db:"captured_at"`
	ContentHash string    `json:"content_hash" db:"content_hash"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// ComputeHash derives the content hash over the fields that define the
// observation's identity. Re-submitting the same fields is a no-op upsert;
// changing any of them creates a new logical tick.
func (t *Tick) ComputeHash() string {
	payload := fmt.Sprintf("%d|%s|%s|%s|%.2f|%d|%d",
		t.GameID, t.Provider, t.MarketKind, t.Side, t.Line, t.Price,
		t.CapturedAt.UTC().Unix())
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// RatingSnapshot is a team's rating as of a season/week. A snapshot for
// week w never incorporates games at or after week w.
type RatingSnapshot struct {
	SnapshotID  int64     `json:"snapshot_id" db:"snapshot_id"`
	TeamID      int       `json:"team_id" db:"team_id"`
	Season      int       `json:"season" db:"season"`
	Week        int       `json:"week" db:"week"`
	Rating      float64   `json:"rating" db:"rating"`
	GamesPlayed int       `json:"games_played" db:"games_played"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Edge links a game, provider and market kind to the discrepancy between
// the market line and the model line. Upserted as new data arrives; frozen
// once the game is final.
type Edge struct {
	EdgeID          int64     `json:"edge_id" db:"edge_id"`
	GameID          int       `json:"game_id" db:"game_id"`
	Provider        string    `json:"provider" db:"provider"`
	MarketKind      string    `json:"market_kind" db:"market_kind"`
	MarketLine      float64   `json:"market_line" db:"market_line"`
	ModelLine       float64   `json:"model_line" db:"model_line"`
	EdgePoints      float64   `json:"edge_points" db:"edge_points"`
	WinProbability  float64   `json:"win_probability" db:"win_probability"`
	ExpectedValue   float64   `json:"expected_value" db:"expected_value"`
	HistoricalROI   float64   `json:"historical_roi" db:"historical_roi"`
	Tier            string    `json:"tier" db:"tier"`
	Qualified       bool      `json:"qualified" db:"qualified"`
	LowConfidence   bool      `json:"low_confidence" db:"low_confidence"`
	RecommendedSide string    `json:"recommended_side" db:"recommended_side"`
	ComputedAt      time.Time `json:"computed_at" db:"computed_at"`
}

// SyncMark records that a time partition has been fully processed by a
// given sync type. A mark is written only after all work for the partition
// is durably committed, so re-runs can trust it.
type SyncMark struct {
	SyncType     string    `json:"sync_type" db:"sync_type"`
	PartitionKey string    `json:"partition_key" db:"partition_key"`
	CompletedAt  time.Time `json:"completed_at" db:"completed_at"`
}
