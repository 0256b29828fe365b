package scoreboard

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/meridian/oddsync/internal/resolve"
	"github.com/meridian/oddsync/internal/store"
	"github.com/meridian/oddsync/internal/store/repository"
)

// Provider name used when resolving scoreboard team names.
const Provider = "scoreboard"

// Ingester pulls schedule and final-score data into the games table.
type Ingester struct {
	client   *Client
	gameRepo *repository.GameRepository
	resolver *resolve.Index
	sport    string
}

// NewIngester creates a scoreboard ingester
func NewIngester(db *store.Database, resolver *resolve.Index, baseURL string) *Ingester {
	return &Ingester{
		client:   New(baseURL),
		gameRepo: repository.NewGameRepository(db),
		resolver: resolver,
		sport:    "americanfootball_ncaaf",
	}
}

// IngestWeek fetches and stores all games for one season week.
// Returns the number of games persisted.
func (i *Ingester) IngestWeek(ctx context.Context, season, week int) (int, error) {
	log.Printf("[scoreboard] Fetching season %d week %d", season, week)

	board, err := i.client.FetchWeek(ctx, CollegeFootball, season, week)
	if err != nil {
		return 0, fmt.Errorf("fetch week %d: %w", week, err)
	}

	parsed, parseErrs := ParseEvents(board)
	for _, perr := range parseErrs {
		log.Printf("[scoreboard] Skipping event: %v", perr)
	}

	persisted := 0
	unresolved := 0
	for _, pg := range parsed {
		game, err := i.buildGame(pg, season, week)
		if err != nil {
			unresolved++
			continue
		}
		if err := i.gameRepo.Upsert(ctx, game); err != nil {
			log.Printf("[scoreboard] Error upserting game %s: %v", pg.ExternalID, err)
			continue
		}
		persisted++
	}

	if unresolved > 0 {
		log.Printf("[scoreboard] %d games had unresolvable team names", unresolved)
	}
	log.Printf("[scoreboard] ✓ Processed %d games for season %d week %d", persisted, season, week)
	return persisted, nil
}

// buildGame resolves team names and assembles the row to persist.
// Resolution is strict: either name failing means the game is dropped.
func (i *Ingester) buildGame(pg ParsedGame, season, week int) (*store.Game, error) {
	homeID, ok := i.resolver.Resolve(Provider, pg.HomeName)
	if !ok {
		return nil, fmt.Errorf("unresolvable home team %q", pg.HomeName)
	}
	awayID, ok := i.resolver.Resolve(Provider, pg.AwayName)
	if !ok {
		return nil, fmt.Errorf("unresolvable away team %q", pg.AwayName)
	}

	game := &store.Game{
		Sport:       i.sport,
		Season:      season,
		Week:        week,
		ExternalID:  pg.ExternalID,
		StartTime:   pg.StartTime,
		HomeTeamID:  homeID,
		AwayTeamID:  awayID,
		NeutralSite: pg.NeutralSite,
		Status:      store.GameStatusScheduled,
	}
	if pg.Completed {
		game.Status = store.GameStatusFinal
		game.HomeScore = sql.NullInt32{Int32: int32(pg.HomeScore), Valid: true}
		game.AwayScore = sql.NullInt32{Int32: int32(pg.AwayScore), Valid: true}
	}
	return game, nil
}
