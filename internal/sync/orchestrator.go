package sync

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/meridian/oddsync/internal/edge"
	"github.com/meridian/oddsync/internal/oddsapi"
	"github.com/meridian/oddsync/internal/ratings"
	"github.com/meridian/oddsync/internal/store"
	"github.com/meridian/oddsync/internal/store/repository"
)

// SyncTypeHistoricalOdds is the progress-marker namespace for the
// historical odds sync.
const SyncTypeHistoricalOdds = "historical_odds"

// ProviderOddsAPI is the resolver provider key for market-data team names.
const ProviderOddsAPI = "oddsapi"

// Narrow views of the collaborators the orchestrator drives. Kept small so
// tests can substitute fakes without a database or the network.

type snapshotFetcher interface {
	FetchSnapshot(ctx context.Context, sportKey string, at time.Time, bookmakers []string) (oddsapi.Snapshot, error)
	RequestsUsed() int
	BudgetRemaining() int
}

type teamResolver interface {
	Resolve(provider, rawName string) (int, bool)
}

type gameFinder interface {
	FindByTeamsAndDate(ctx context.Context, homeTeamID, awayTeamID int, date time.Time) (*store.Game, bool, error)
}

type tickWriter interface {
	InsertBatch(ctx context.Context, ticks []*store.Tick) (repository.BatchResult, error)
}

type markStore interface {
	IsMarked(ctx context.Context, syncType, partitionKey string) (bool, error)
	Mark(ctx context.Context, syncType, partitionKey string) error
}

type unmatchedLedger interface {
	RecordUnmatched(ctx context.Context, provider, rawName string) (bool, error)
}

// Summary is the run-end report. Every skipped or dropped record shows up
// in a counter; nothing is silently discarded.
type Summary struct {
	PartitionsProcessed int       `json:"partitions_processed"`
	PartitionsSkipped   int       `json:"partitions_skipped"`
	PartitionsFailed    int       `json:"partitions_failed"`
	EventsSeen          int       `json:"events_seen"`
	EventsMatched       int       `json:"events_matched"`
	EventsSwapMatched   int       `json:"events_swap_matched"`
	EventsUnmatched     int       `json:"events_unmatched"`
	TicksSubmitted      int       `json:"ticks_submitted"`
	TicksCreated        int       `json:"ticks_created"`
	FailedChunks        int       `json:"failed_chunks"`
	UnmatchedNames      int       `json:"unmatched_names"`
	FetchErrors         int       `json:"fetch_errors"`
	PersistErrors       int       `json:"persist_errors"`
	APICalls            int       `json:"api_calls"`
	BudgetRemaining     int       `json:"budget_remaining"`
	CoveragePercent     float64   `json:"coverage_percent"`
	StartedAt           time.Time `json:"started_at"`
	FinishedAt          time.Time `json:"finished_at"`
}

// Config carries the frozen knobs for one sync run.
type Config struct {
	SportKey    string
	Bookmakers  []string
	CaptureHour int // UTC hour of day at which each partition's snapshot is taken
}

// Orchestrator drives the fetch, resolve, persist loop over date partitions
// in ascending order and materializes edges from the stored ticks.
type Orchestrator struct {
	cfg       Config
	fetcher   snapshotFetcher
	resolver  teamResolver
	games     gameFinder
	ticks     tickWriter
	marks     markStore
	unmatched unmatchedLedger
}

// NewOrchestrator wires an orchestrator from its collaborators.
func NewOrchestrator(cfg Config, fetcher snapshotFetcher, resolver teamResolver, games gameFinder, ticks tickWriter, marks markStore, unmatched unmatchedLedger) *Orchestrator {
	if cfg.SportKey == "" {
		cfg.SportKey = "americanfootball_ncaaf"
	}
	return &Orchestrator{
		cfg:       cfg,
		fetcher:   fetcher,
		resolver:  resolver,
		games:     games,
		ticks:     ticks,
		marks:     marks,
		unmatched: unmatched,
	}
}

// SyncRange processes each calendar date in [start, end] in ascending order.
// Marked partitions are skipped. A partition's mark is written only after
// every tick chunk for it committed, so a killed run resumes at the first
// unmarked date. The context is checked between partitions; cancellation
// mid-range leaves a resumable state.
func (o *Orchestrator) SyncRange(ctx context.Context, start, end time.Time) (*Summary, error) {
	summary := &Summary{StartedAt: time.Now().UTC()}
	// The client's counter is cumulative across runs; report this run's share.
	callsAtStart := o.fetcher.RequestsUsed()
	defer func() {
		summary.FinishedAt = time.Now().UTC()
		summary.APICalls = o.fetcher.RequestsUsed() - callsAtStart
		summary.BudgetRemaining = o.fetcher.BudgetRemaining()
		if summary.EventsSeen > 0 {
			summary.CoveragePercent = 100 * float64(summary.EventsMatched) / float64(summary.EventsSeen)
		}
	}()

	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	last := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)

	for !day.After(last) {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		partitionKey := day.Format("2006-01-02")
		marked, err := o.marks.IsMarked(ctx, SyncTypeHistoricalOdds, partitionKey)
		if err != nil {
			return summary, fmt.Errorf("checking mark for %s: %w", partitionKey, err)
		}
		if marked {
			summary.PartitionsSkipped++
			day = day.AddDate(0, 0, 1)
			continue
		}

		if err := o.processPartition(ctx, day, partitionKey, summary); err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			log.Printf("[sync] Partition %s failed: %v", partitionKey, err)
			summary.PartitionsFailed++
		} else {
			summary.PartitionsProcessed++
		}
		day = day.AddDate(0, 0, 1)
	}

	log.Printf("✓ Sync complete: %d processed, %d skipped, %d failed, %d/%d ticks created, coverage %.1f%%",
		summary.PartitionsProcessed, summary.PartitionsSkipped, summary.PartitionsFailed,
		summary.TicksCreated, summary.TicksSubmitted,
		100*safeRatio(summary.EventsMatched, summary.EventsSeen))
	return summary, nil
}

// processPartition fetches one date's snapshot, resolves and persists its
// events, and marks the partition once everything committed.
func (o *Orchestrator) processPartition(ctx context.Context, day time.Time, partitionKey string, summary *Summary) error {
	captureAt := day.Add(time.Duration(o.cfg.CaptureHour) * time.Hour)

	snap, err := o.fetcher.FetchSnapshot(ctx, o.cfg.SportKey, captureAt, o.cfg.Bookmakers)
	if err != nil {
		summary.FetchErrors++
		return fmt.Errorf("fetching snapshot: %w", err)
	}

	if !snap.Found || len(snap.Events) == 0 {
		// No snapshot at this instant. Zero coverage, but the partition is
		// done: mark it so re-runs skip it.
		log.Printf("[sync] %s: no snapshot data", partitionKey)
		return o.marks.Mark(ctx, SyncTypeHistoricalOdds, partitionKey)
	}

	var batch []*store.Tick
	for _, event := range snap.Events {
		summary.EventsSeen++
		game, swapped, ok := o.matchEvent(ctx, event, summary)
		if !ok {
			continue
		}
		summary.EventsMatched++
		if swapped {
			summary.EventsSwapMatched++
			log.Printf("[sync] Swap-matched event %s vs %s (game %d)", event.HomeTeam, event.AwayTeam, game.GameID)
		}
		batch = append(batch, eventTicks(event, game, swapped, snap.Timestamp)...)
	}

	result, err := o.ticks.InsertBatch(ctx, batch)
	summary.TicksSubmitted += result.Submitted
	summary.TicksCreated += result.Created
	summary.FailedChunks += result.FailedChunks
	if err != nil {
		summary.PersistErrors++
		return fmt.Errorf("persisting ticks: %w", err)
	}
	if result.FailedChunks > 0 {
		// Committed chunks stay committed, but the partition is incomplete.
		// Leaving it unmarked makes the next run re-process it; the content
		// hashes make that a no-op for the rows that did land.
		summary.PersistErrors++
		return fmt.Errorf("%d tick chunks failed", result.FailedChunks)
	}

	if err := o.marks.Mark(ctx, SyncTypeHistoricalOdds, partitionKey); err != nil {
		return fmt.Errorf("marking partition: %w", err)
	}
	log.Printf("[sync] ✓ %s: %d events, %d ticks (%d new)", partitionKey, len(snap.Events), result.Submitted, result.Created)
	return nil
}

// matchEvent resolves both team names and locates the catalog game. Either
// name failing resolution sends it to the unmatched ledger and drops the
// event for this pass.
func (o *Orchestrator) matchEvent(ctx context.Context, event oddsapi.Event, summary *Summary) (*store.Game, bool, bool) {
	homeID, homeOK := o.resolver.Resolve(ProviderOddsAPI, event.HomeTeam)
	if !homeOK {
		o.recordUnmatched(ctx, event.HomeTeam, summary)
	}
	awayID, awayOK := o.resolver.Resolve(ProviderOddsAPI, event.AwayTeam)
	if !awayOK {
		o.recordUnmatched(ctx, event.AwayTeam, summary)
	}
	if !homeOK || !awayOK {
		summary.EventsUnmatched++
		return nil, false, false
	}

	game, swapped, err := o.games.FindByTeamsAndDate(ctx, homeID, awayID, event.CommenceTime)
	if err != nil {
		log.Printf("[sync] Error finding game for %s vs %s: %v", event.HomeTeam, event.AwayTeam, err)
		summary.EventsUnmatched++
		return nil, false, false
	}
	if game == nil {
		summary.EventsUnmatched++
		return nil, false, false
	}
	return game, swapped, true
}

func (o *Orchestrator) recordUnmatched(ctx context.Context, rawName string, summary *Summary) {
	summary.UnmatchedNames++
	if o.unmatched == nil {
		return
	}
	if _, err := o.unmatched.RecordUnmatched(ctx, ProviderOddsAPI, rawName); err != nil {
		log.Printf("[sync] Error recording unmatched name %q: %v", rawName, err)
	}
}

// eventTicks flattens one event's bookmaker blocks into tick rows. When the
// event matched in swapped orientation, provider-side spread outcomes are
// relabeled so stored side and line always use the catalog's orientation.
func eventTicks(event oddsapi.Event, game *store.Game, swapped bool, capturedAt time.Time) []*store.Tick {
	var ticks []*store.Tick

	homeName, awayName := event.HomeTeam, event.AwayTeam
	homeSide, awaySide := store.SideHome, store.SideAway
	if swapped {
		homeSide, awaySide = store.SideAway, store.SideHome
	}

	for _, book := range event.Bookmakers {
		if line, price, ok := book.SpreadFor(homeName); ok {
			ticks = append(ticks, newTick(game.GameID, book.Key, store.MarketSpread, homeSide, line, price, capturedAt))
		}
		if line, price, ok := book.SpreadFor(awayName); ok {
			ticks = append(ticks, newTick(game.GameID, book.Key, store.MarketSpread, awaySide, line, price, capturedAt))
		}
		if line, price, ok := book.TotalFor("Over"); ok {
			ticks = append(ticks, newTick(game.GameID, book.Key, store.MarketTotal, store.SideOver, line, price, capturedAt))
		}
		if line, price, ok := book.TotalFor("Under"); ok {
			ticks = append(ticks, newTick(game.GameID, book.Key, store.MarketTotal, store.SideUnder, line, price, capturedAt))
		}
	}
	return ticks
}

func newTick(gameID int, provider, marketKind, side string, line, price float64, capturedAt time.Time) *store.Tick {
	tick := &store.Tick{
		GameID:     gameID,
		Provider:   provider,
		MarketKind: marketKind,
		Side:       side,
		Line:       line,
		Price:      int(price),
		CapturedAt: capturedAt,
	}
	tick.ContentHash = tick.ComputeHash()
	return tick
}

func safeRatio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

type nonFinalLister interface {
	ListNonFinal(ctx context.Context, season int) ([]*store.Game, error)
}

type latestTickReader interface {
	LatestAcrossProviders(ctx context.Context, gameID int) ([]*store.Tick, error)
}

type ratingReader interface {
	GetAsOfWeek(ctx context.Context, teamID, season, week int) (*store.RatingSnapshot, error)
}

type edgeWriter interface {
	Upsert(ctx context.Context, edge *store.Edge) error
}

// Materializer recomputes edges for non-final games from the latest stored
// ticks and point-in-time rating snapshots.
type Materializer struct {
	gameRepo   nonFinalLister
	tickRepo   latestTickReader
	ratingRepo ratingReader
	edgeRepo   edgeWriter
	projector  *ratings.Projector
	calculator *edge.Calculator

	// Efficiency ratings by team ID, refreshed out of band. May be nil.
	efficiency map[int]ratings.EfficiencyRating

	// OnEdge, when set, is invoked for each upserted edge. Used to feed the
	// live edge broadcast.
	OnEdge func(*store.Edge)
}

// NewMaterializer wires an edge materializer over the repositories.
func NewMaterializer(gameRepo nonFinalLister, tickRepo latestTickReader, ratingRepo ratingReader, edgeRepo edgeWriter, projector *ratings.Projector, calculator *edge.Calculator) *Materializer {
	return &Materializer{
		gameRepo:   gameRepo,
		tickRepo:   tickRepo,
		ratingRepo: ratingRepo,
		edgeRepo:   edgeRepo,
		projector:  projector,
		calculator: calculator,
	}
}

// SetEfficiency installs the auxiliary per-play ratings used as the second
// ensemble source.
func (m *Materializer) SetEfficiency(eff map[int]ratings.EfficiencyRating) {
	m.efficiency = eff
}

// MaterializeSeason recomputes edges for every non-final game in a season.
// Final games are skipped here and additionally guarded at the repository,
// so a materialization pass can never rewrite a settled edge.
func (m *Materializer) MaterializeSeason(ctx context.Context, season int) (int, error) {
	games, err := m.gameRepo.ListNonFinal(ctx, season)
	if err != nil {
		return 0, fmt.Errorf("listing games: %w", err)
	}

	upserted := 0
	for _, game := range games {
		select {
		case <-ctx.Done():
			return upserted, ctx.Err()
		default:
		}

		n, err := m.materializeGame(ctx, game)
		if err != nil {
			log.Printf("[edges] Error materializing game %d: %v", game.GameID, err)
			continue
		}
		upserted += n
	}

	log.Printf("✓ Materialized %d edges across %d games", upserted, len(games))
	return upserted, nil
}

func (m *Materializer) materializeGame(ctx context.Context, game *store.Game) (int, error) {
	projection, err := m.project(ctx, game)
	if err != nil {
		return 0, err
	}
	if projection == nil {
		return 0, nil // no ratings yet for one of the teams
	}

	// Latest spread tick per provider, home side only: one edge per
	// game/provider/market.
	providers, err := m.latestHomeSpreads(ctx, game.GameID)
	if err != nil {
		return 0, err
	}

	upserted := 0
	for provider, tick := range providers {
		rec := m.calculator.Evaluate(game.GameID, provider, store.MarketSpread,
			tick.Line, projection.Line, projection.LowConfidence)
		if err := m.edgeRepo.Upsert(ctx, rec); err != nil {
			return upserted, fmt.Errorf("upserting edge for %s: %w", provider, err)
		}
		upserted++
		if m.OnEdge != nil {
			m.OnEdge(rec)
		}
	}
	return upserted, nil
}

// project builds the model's line for a game. The snapshot labeled with the
// game's week is frozen before that week's results apply, so reading it
// never leaks the game's own outcome while still seeing every completed
// prior week.
func (m *Materializer) project(ctx context.Context, game *store.Game) (*ratings.Projection, error) {
	asOf := game.Week
	if asOf < 1 {
		asOf = 1
	}

	homeSnap, err := m.ratingRepo.GetAsOfWeek(ctx, game.HomeTeamID, game.Season, asOf)
	if err != nil {
		return nil, fmt.Errorf("home rating: %w", err)
	}
	awaySnap, err := m.ratingRepo.GetAsOfWeek(ctx, game.AwayTeamID, game.Season, asOf)
	if err != nil {
		return nil, fmt.Errorf("away rating: %w", err)
	}
	if homeSnap == nil || awaySnap == nil {
		return nil, nil
	}

	var homeEff, awayEff *ratings.EfficiencyRating
	if m.efficiency != nil {
		if eff, ok := m.efficiency[game.HomeTeamID]; ok {
			homeEff = &eff
		}
		if eff, ok := m.efficiency[game.AwayTeamID]; ok {
			awayEff = &eff
		}
	}

	projection := m.projector.ProjectSpread(homeSnap.Rating, awaySnap.Rating, homeEff, awayEff, game.NeutralSite)
	return &projection, nil
}

func (m *Materializer) latestHomeSpreads(ctx context.Context, gameID int) (map[string]*store.Tick, error) {
	ticks, err := m.tickRepo.LatestAcrossProviders(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("loading ticks: %w", err)
	}

	latest := make(map[string]*store.Tick)
	for _, tick := range ticks {
		if tick.MarketKind != store.MarketSpread || tick.Side != store.SideHome {
			continue
		}
		if prev, ok := latest[tick.Provider]; !ok || tick.CapturedAt.After(prev.CapturedAt) {
			latest[tick.Provider] = tick
		}
	}
	return latest, nil
}
