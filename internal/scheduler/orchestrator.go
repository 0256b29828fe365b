package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/meridian/oddsync/internal/ingest/effratings"
	"github.com/meridian/oddsync/internal/ingest/scoreboard"
	"github.com/meridian/oddsync/internal/ratings"
	syncpkg "github.com/meridian/oddsync/internal/sync"
)

// Config holds scheduler configuration
type Config struct {
	PipelineInterval  time.Duration // Default: 30m
	DailySyncHour     int           // UTC hour for the incremental odds sync. Default: 5
	Season            int
	MaxWeek           int
	CurrentWeek       int
	EnablePipeline    bool // Default: true
	EnableDailySync   bool // Default: true
	EnableResultsPoll bool // Default: true
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() *Config {
	return &Config{
		PipelineInterval:  30 * time.Minute,
		DailySyncHour:     5,
		Season:            time.Now().Year(),
		MaxWeek:           16,
		CurrentWeek:       1,
		EnablePipeline:    true,
		EnableDailySync:   true,
		EnableResultsPoll: true,
	}
}

// Orchestrator manages the scheduled pipeline tasks: the daily incremental
// odds sync, results ingestion, and the rating/edge materialization loop.
type Orchestrator struct {
	config       *Config
	runner       *syncpkg.Runner
	materializer *syncpkg.Materializer
	snapshots    *ratings.SnapshotBuilder
	results      *scoreboard.Ingester
	efficiency   *effratings.Ingester
	cancel       context.CancelFunc
}

// NewOrchestrator creates a new scheduler orchestrator
func NewOrchestrator(config *Config, runner *syncpkg.Runner, materializer *syncpkg.Materializer, snapshots *ratings.SnapshotBuilder, results *scoreboard.Ingester, efficiency *effratings.Ingester) *Orchestrator {
	if config == nil {
		config = DefaultConfig()
	}
	return &Orchestrator{
		config:       config,
		runner:       runner,
		materializer: materializer,
		snapshots:    snapshots,
		results:      results,
		efficiency:   efficiency,
	}
}

// Start begins all scheduled tasks and blocks until the context is done
func (o *Orchestrator) Start(ctx context.Context) {
	log.Printf("Scheduler started: pipeline=%v (every %v), daily sync=%v (at %02d:00 UTC), results poll=%v",
		o.config.EnablePipeline, o.config.PipelineInterval,
		o.config.EnableDailySync, o.config.DailySyncHour,
		o.config.EnableResultsPoll)

	ctx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	if o.config.EnablePipeline {
		go o.runPipeline(ctx)
	}
	if o.config.EnableDailySync {
		go o.runDailySync(ctx)
	}

	<-ctx.Done()
	log.Println("Scheduler stopping...")
}

// Stop cancels all scheduled tasks
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
}

// runPipeline periodically rebuilds point-in-time ratings, refreshes the
// auxiliary efficiency source, polls current-week results, and
// rematerializes edges so the feed reflects newly synced ticks and newly
// final games.
func (o *Orchestrator) runPipeline(ctx context.Context) {
	ticker := time.NewTicker(o.config.PipelineInterval)
	defer ticker.Stop()

	o.pipelinePass(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.pipelinePass(ctx)
		}
	}
}

func (o *Orchestrator) pipelinePass(ctx context.Context) {
	if o.config.EnableResultsPoll && o.results != nil {
		if _, err := o.results.IngestWeek(ctx, o.config.Season, o.config.CurrentWeek); err != nil {
			log.Printf("[scheduler] Results ingest error: %v", err)
		}
	}

	if err := o.snapshots.BuildSeason(ctx, o.config.Season, o.config.MaxWeek); err != nil {
		log.Printf("[scheduler] Rating build error: %v", err)
	}

	if o.efficiency != nil {
		eff, err := o.efficiency.IngestRatings(ctx)
		if err != nil {
			// The ensemble degrades to its primary source when the
			// auxiliary feed is unavailable.
			log.Printf("[scheduler] Efficiency ingest error: %v", err)
		} else {
			o.materializer.SetEfficiency(eff)
		}
	}

	if _, err := o.materializer.MaterializeSeason(ctx, o.config.Season); err != nil {
		log.Printf("[scheduler] Materialization error: %v", err)
	}
}

// runDailySync triggers an incremental odds sync for yesterday's partition
// once per day at the configured hour. Marked partitions make this a no-op
// when nothing is pending.
func (o *Orchestrator) runDailySync(ctx context.Context) {
	for {
		next := nextRunAt(time.Now().UTC(), o.config.DailySyncHour)
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Until(next)):
		}

		yesterday := time.Now().UTC().AddDate(0, 0, -1)
		if !o.runner.Trigger(ctx, yesterday, yesterday) {
			log.Println("[scheduler] Daily sync skipped: a sync is already running")
		}
	}
}

func nextRunAt(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
