package sync

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/meridian/oddsync/internal/oddsapi"
	"github.com/meridian/oddsync/internal/store"
	"github.com/meridian/oddsync/internal/store/repository"
)

func price(v float64) *float64 { return &v }

func snapshotWithEvent(at time.Time) oddsapi.Snapshot {
	return oddsapi.Snapshot{
		Timestamp: at,
		Found:     true,
		Events: []oddsapi.Event{
			{
				ID:           "evt-1",
				SportKey:     "americanfootball_ncaaf",
				CommenceTime: at.Add(4 * time.Hour),
				HomeTeam:     "Georgia Bulldogs",
				AwayTeam:     "Florida Gators",
				Bookmakers: []oddsapi.Bookmaker{
					{
						Key: "draftkings",
						Markets: []oddsapi.Market{
							{
								Key: oddsapi.MarketKeySpreads,
								Outcomes: []oddsapi.Outcome{
									{Name: "Georgia Bulldogs", Price: price(-110), Point: price(-14.5)},
									{Name: "Florida Gators", Price: price(-110), Point: price(14.5)},
								},
							},
						},
					},
				},
			},
		},
	}
}

type fakeFetcher struct {
	calls     []time.Time
	snapshots map[string]oddsapi.Snapshot // keyed by date
	errs      map[string]error
}

func (f *fakeFetcher) FetchSnapshot(ctx context.Context, sportKey string, at time.Time, bookmakers []string) (oddsapi.Snapshot, error) {
	f.calls = append(f.calls, at)
	key := at.Format("2006-01-02")
	if err, ok := f.errs[key]; ok {
		return oddsapi.Snapshot{}, err
	}
	if snap, ok := f.snapshots[key]; ok {
		return snap, nil
	}
	return oddsapi.Snapshot{Found: false}, nil
}

func (f *fakeFetcher) RequestsUsed() int    { return len(f.calls) }
func (f *fakeFetcher) BudgetRemaining() int { return 500 - len(f.calls) }

type fakeResolver struct {
	names map[string]int
}

func (r *fakeResolver) Resolve(provider, rawName string) (int, bool) {
	id, ok := r.names[rawName]
	return id, ok
}

type fakeGames struct {
	game    *store.Game
	swapped bool
}

func (g *fakeGames) FindByTeamsAndDate(ctx context.Context, homeID, awayID int, date time.Time) (*store.Game, bool, error) {
	if g.game == nil {
		return nil, false, nil
	}
	if g.game.HomeTeamID == homeID && g.game.AwayTeamID == awayID {
		return g.game, false, nil
	}
	if g.swapped && g.game.HomeTeamID == awayID && g.game.AwayTeamID == homeID {
		return g.game, true, nil
	}
	return nil, false, nil
}

type fakeTicks struct {
	byHash      map[string]*store.Tick
	failNext    bool
	batchesSeen int
}

func (t *fakeTicks) InsertBatch(ctx context.Context, ticks []*store.Tick) (repository.BatchResult, error) {
	t.batchesSeen++
	result := repository.BatchResult{Submitted: len(ticks)}
	if t.failNext {
		t.failNext = false
		result.FailedChunks = 1
		return result, nil
	}
	if t.byHash == nil {
		t.byHash = make(map[string]*store.Tick)
	}
	for _, tick := range ticks {
		if tick.ContentHash == "" {
			tick.ContentHash = tick.ComputeHash()
		}
		if _, exists := t.byHash[tick.ContentHash]; !exists {
			t.byHash[tick.ContentHash] = tick
			result.Created++
		}
	}
	return result, nil
}

type fakeMarks struct {
	marked []string
	set    map[string]bool
}

func (m *fakeMarks) IsMarked(ctx context.Context, syncType, partitionKey string) (bool, error) {
	return m.set[partitionKey], nil
}

func (m *fakeMarks) Mark(ctx context.Context, syncType, partitionKey string) error {
	if m.set == nil {
		m.set = make(map[string]bool)
	}
	if !m.set[partitionKey] {
		m.set[partitionKey] = true
		m.marked = append(m.marked, partitionKey)
	}
	return nil
}

type fakeLedger struct {
	recorded []string
}

func (l *fakeLedger) RecordUnmatched(ctx context.Context, provider, rawName string) (bool, error) {
	l.recorded = append(l.recorded, rawName)
	return true, nil
}

func testOrchestrator(fetcher *fakeFetcher, games *fakeGames, ticks *fakeTicks, marks *fakeMarks, ledger *fakeLedger) *Orchestrator {
	resolver := &fakeResolver{names: map[string]int{
		"Georgia Bulldogs": 1,
		"Florida Gators":   2,
	}}
	return NewOrchestrator(Config{CaptureHour: 16}, fetcher, resolver, games, ticks, marks, ledger)
}

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestSyncRangeSkipsMarkedAndProcessesInOrder(t *testing.T) {
	fetcher := &fakeFetcher{snapshots: map[string]oddsapi.Snapshot{
		"2024-11-01": snapshotWithEvent(day("2024-11-01").Add(16 * time.Hour)),
		"2024-11-02": snapshotWithEvent(day("2024-11-02").Add(16 * time.Hour)),
		"2024-11-03": snapshotWithEvent(day("2024-11-03").Add(16 * time.Hour)),
	}}
	games := &fakeGames{game: &store.Game{GameID: 10, HomeTeamID: 1, AwayTeamID: 2}}
	ticks := &fakeTicks{}
	marks := &fakeMarks{set: map[string]bool{"2024-11-01": true}}
	ledger := &fakeLedger{}

	o := testOrchestrator(fetcher, games, ticks, marks, ledger)

	summary, err := o.SyncRange(context.Background(), day("2024-11-01"), day("2024-11-03"))
	if err != nil {
		t.Fatalf("SyncRange: %v", err)
	}

	if summary.PartitionsSkipped != 1 {
		t.Errorf("skipped = %d, want 1 (the pre-marked D1)", summary.PartitionsSkipped)
	}
	if summary.PartitionsProcessed != 2 {
		t.Errorf("processed = %d, want 2", summary.PartitionsProcessed)
	}

	// D1 was never fetched; D2 and D3 were fetched ascending.
	if len(fetcher.calls) != 2 {
		t.Fatalf("got %d fetches, want 2", len(fetcher.calls))
	}
	if !fetcher.calls[0].Before(fetcher.calls[1]) {
		t.Error("partitions fetched out of ascending order")
	}

	// Marks written in order, after the work.
	want := []string{"2024-11-02", "2024-11-03"}
	if len(marks.marked) != len(want) {
		t.Fatalf("marked %v, want %v", marks.marked, want)
	}
	for i := range want {
		if marks.marked[i] != want[i] {
			t.Errorf("mark %d = %q, want %q", i, marks.marked[i], want[i])
		}
	}
}

func TestSyncRangeResumesAfterKill(t *testing.T) {
	snapshots := map[string]oddsapi.Snapshot{
		"2024-11-01": snapshotWithEvent(day("2024-11-01").Add(16 * time.Hour)),
		"2024-11-02": snapshotWithEvent(day("2024-11-02").Add(16 * time.Hour)),
		"2024-11-03": snapshotWithEvent(day("2024-11-03").Add(16 * time.Hour)),
	}
	games := &fakeGames{game: &store.Game{GameID: 10, HomeTeamID: 1, AwayTeamID: 2}}
	ticks := &fakeTicks{}
	marks := &fakeMarks{set: map[string]bool{"2024-11-01": true}}

	// First run: the process dies right after D2 commits. Simulated by a
	// context that cancels once D2's mark lands.
	ctx, cancel := context.WithCancel(context.Background())
	killingMarks := &cancellingMarks{inner: marks, cancelOn: "2024-11-02", cancel: cancel}

	fetcher := &fakeFetcher{snapshots: snapshots}
	o := NewOrchestrator(Config{CaptureHour: 16}, fetcher,
		&fakeResolver{names: map[string]int{"Georgia Bulldogs": 1, "Florida Gators": 2}},
		games, ticks, killingMarks, nil)

	_, err := o.SyncRange(ctx, day("2024-11-01"), day("2024-11-03"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("first run error = %v, want context.Canceled", err)
	}
	if !marks.set["2024-11-02"] || marks.set["2024-11-03"] {
		t.Fatalf("after kill: marks = %v, want D2 only", marks.set)
	}

	// Fresh run resumes at the first unmarked partition.
	fetcher2 := &fakeFetcher{snapshots: snapshots}
	o2 := testOrchestrator(fetcher2, games, ticks, marks, &fakeLedger{})

	summary, err := o2.SyncRange(context.Background(), day("2024-11-01"), day("2024-11-03"))
	if err != nil {
		t.Fatalf("resumed run: %v", err)
	}
	if summary.PartitionsSkipped != 2 || summary.PartitionsProcessed != 1 {
		t.Errorf("resumed run skipped=%d processed=%d, want 2/1",
			summary.PartitionsSkipped, summary.PartitionsProcessed)
	}
	if !marks.set["2024-11-03"] {
		t.Error("D3 not marked after resumed run")
	}

	// Two spread sides per processed day.
	if len(ticks.byHash) != 4 {
		t.Errorf("got %d unique ticks, want 4", len(ticks.byHash))
	}

	// Force both days to re-process. The identical snapshots hash to the
	// same content, so nothing new is created.
	delete(marks.set, "2024-11-02")
	delete(marks.set, "2024-11-03")
	summary, err = o2.SyncRange(context.Background(), day("2024-11-01"), day("2024-11-03"))
	if err != nil {
		t.Fatalf("overlap run: %v", err)
	}
	if summary.TicksCreated != 0 {
		t.Errorf("overlap run created %d ticks, want 0", summary.TicksCreated)
	}
	if len(ticks.byHash) != 4 {
		t.Errorf("after overlap run: %d unique ticks, want 4", len(ticks.byHash))
	}
}

type cancellingMarks struct {
	inner    *fakeMarks
	cancelOn string
	cancel   context.CancelFunc
}

func (m *cancellingMarks) IsMarked(ctx context.Context, syncType, partitionKey string) (bool, error) {
	return m.inner.IsMarked(ctx, syncType, partitionKey)
}

func (m *cancellingMarks) Mark(ctx context.Context, syncType, partitionKey string) error {
	if err := m.inner.Mark(ctx, syncType, partitionKey); err != nil {
		return err
	}
	if partitionKey == m.cancelOn {
		m.cancel()
	}
	return nil
}

func TestSyncRangeFailedChunksLeavePartitionUnmarked(t *testing.T) {
	fetcher := &fakeFetcher{snapshots: map[string]oddsapi.Snapshot{
		"2024-11-02": snapshotWithEvent(day("2024-11-02").Add(16 * time.Hour)),
	}}
	games := &fakeGames{game: &store.Game{GameID: 10, HomeTeamID: 1, AwayTeamID: 2}}
	ticks := &fakeTicks{failNext: true}
	marks := &fakeMarks{}

	o := testOrchestrator(fetcher, games, ticks, marks, &fakeLedger{})

	summary, err := o.SyncRange(context.Background(), day("2024-11-02"), day("2024-11-02"))
	if err != nil {
		t.Fatalf("SyncRange: %v", err)
	}

	if summary.PartitionsFailed != 1 {
		t.Errorf("failed = %d, want 1", summary.PartitionsFailed)
	}
	if marks.set["2024-11-02"] {
		t.Error("partition with failed chunks was marked complete")
	}
	if summary.PersistErrors == 0 {
		t.Error("chunk failure not counted")
	}
}

func TestSyncRangeUnmatchedNamesAreLedgeredNotGuessed(t *testing.T) {
	snap := snapshotWithEvent(day("2024-11-02").Add(16 * time.Hour))
	snap.Events[0].AwayTeam = "Mystery Team"
	fetcher := &fakeFetcher{snapshots: map[string]oddsapi.Snapshot{"2024-11-02": snap}}

	games := &fakeGames{game: &store.Game{GameID: 10, HomeTeamID: 1, AwayTeamID: 2}}
	ticks := &fakeTicks{}
	marks := &fakeMarks{}
	ledger := &fakeLedger{}

	o := testOrchestrator(fetcher, games, ticks, marks, ledger)

	summary, err := o.SyncRange(context.Background(), day("2024-11-02"), day("2024-11-02"))
	if err != nil {
		t.Fatalf("SyncRange: %v", err)
	}

	if summary.EventsUnmatched != 1 {
		t.Errorf("unmatched events = %d, want 1", summary.EventsUnmatched)
	}
	if len(ledger.recorded) != 1 || ledger.recorded[0] != "Mystery Team" {
		t.Errorf("ledger = %v, want [Mystery Team]", ledger.recorded)
	}
	if len(ticks.byHash) != 0 {
		t.Errorf("ticks persisted for an unmatched event: %d", len(ticks.byHash))
	}
	// The partition itself still completes; the miss is counted, not fatal.
	if !marks.set["2024-11-02"] {
		t.Error("partition not marked after counted unmatched event")
	}
}

func TestSyncRangeSwapMatchIsCounted(t *testing.T) {
	snap := snapshotWithEvent(day("2024-11-02").Add(16 * time.Hour))
	fetcher := &fakeFetcher{snapshots: map[string]oddsapi.Snapshot{"2024-11-02": snap}}

	// Catalog has the orientation inverted relative to the provider.
	games := &fakeGames{game: &store.Game{GameID: 10, HomeTeamID: 2, AwayTeamID: 1}, swapped: true}
	ticks := &fakeTicks{}
	marks := &fakeMarks{}

	o := testOrchestrator(fetcher, games, ticks, marks, &fakeLedger{})

	summary, err := o.SyncRange(context.Background(), day("2024-11-02"), day("2024-11-02"))
	if err != nil {
		t.Fatalf("SyncRange: %v", err)
	}

	if summary.EventsSwapMatched != 1 {
		t.Errorf("swap matched = %d, want 1", summary.EventsSwapMatched)
	}

	// Stored sides use the catalog's orientation: the provider's home
	// outcome lands on the catalog's away side.
	for _, tick := range ticks.byHash {
		if tick.Line == -14.5 && tick.Side != store.SideAway {
			t.Errorf("provider home spread stored as %q, want %q", tick.Side, store.SideAway)
		}
		if tick.Line == 14.5 && tick.Side != store.SideHome {
			t.Errorf("provider away spread stored as %q, want %q", tick.Side, store.SideHome)
		}
	}
}

func TestSyncRangeNoDataMarksPartition(t *testing.T) {
	fetcher := &fakeFetcher{} // every date returns Found=false
	marks := &fakeMarks{}

	o := testOrchestrator(fetcher, &fakeGames{}, &fakeTicks{}, marks, &fakeLedger{})

	summary, err := o.SyncRange(context.Background(), day("2024-11-02"), day("2024-11-02"))
	if err != nil {
		t.Fatalf("SyncRange: %v", err)
	}

	if summary.PartitionsProcessed != 1 {
		t.Errorf("processed = %d, want 1: no data is zero coverage, not failure", summary.PartitionsProcessed)
	}
	if !marks.set["2024-11-02"] {
		t.Error("no-data partition left unmarked")
	}
}

func TestSyncRangeFetchErrorDoesNotMark(t *testing.T) {
	fetcher := &fakeFetcher{errs: map[string]error{
		"2024-11-02": fmt.Errorf("provider returned 500"),
	}}
	marks := &fakeMarks{}

	o := testOrchestrator(fetcher, &fakeGames{}, &fakeTicks{}, marks, &fakeLedger{})

	summary, err := o.SyncRange(context.Background(), day("2024-11-02"), day("2024-11-02"))
	if err != nil {
		t.Fatalf("SyncRange should isolate partition failures, got %v", err)
	}

	if summary.PartitionsFailed != 1 || summary.FetchErrors != 1 {
		t.Errorf("failed=%d fetchErrors=%d, want 1/1", summary.PartitionsFailed, summary.FetchErrors)
	}
	if marks.set["2024-11-02"] {
		t.Error("failed partition was marked complete")
	}
}

func TestSyncRangeReportsPerRunAPICalls(t *testing.T) {
	fetcher := &fakeFetcher{snapshots: map[string]oddsapi.Snapshot{
		"2024-11-01": snapshotWithEvent(day("2024-11-01").Add(16 * time.Hour)),
		"2024-11-02": snapshotWithEvent(day("2024-11-02").Add(16 * time.Hour)),
	}}
	games := &fakeGames{game: &store.Game{GameID: 10, HomeTeamID: 1, AwayTeamID: 2}}

	o := testOrchestrator(fetcher, games, &fakeTicks{}, &fakeMarks{}, &fakeLedger{})

	first, err := o.SyncRange(context.Background(), day("2024-11-01"), day("2024-11-01"))
	if err != nil {
		t.Fatalf("first SyncRange: %v", err)
	}
	if first.APICalls != 1 {
		t.Errorf("first run APICalls = %d, want 1", first.APICalls)
	}

	// The client's counter keeps growing for the life of the process; each
	// summary must report only its own run's calls.
	second, err := o.SyncRange(context.Background(), day("2024-11-02"), day("2024-11-02"))
	if err != nil {
		t.Fatalf("second SyncRange: %v", err)
	}
	if second.APICalls != 1 {
		t.Errorf("second run APICalls = %d, want 1", second.APICalls)
	}
}
