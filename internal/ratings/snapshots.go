package ratings

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/meridian/oddsync/internal/store"
	"github.com/meridian/oddsync/internal/store/repository"
)

// BuildWeeklyRatings replays a season's final games chronologically and
// returns each team's rating as of every week. The map for week w is frozen
// before any week-w game is applied, so a snapshot never reflects
// information from games at or after the week it claims to represent.
// Non-final games are ignored entirely.
func BuildWeeklyRatings(games []*store.Game, cfg ModelConfig, maxWeek int) map[int]map[int]float64 {
	elo := NewElo(cfg)

	finals := make([]*store.Game, 0, len(games))
	for _, game := range games {
		if game.IsFinal() && game.HomeScore.Valid && game.AwayScore.Valid {
			finals = append(finals, game)
		}
	}
	sort.SliceStable(finals, func(i, j int) bool {
		if finals[i].Week != finals[j].Week {
			return finals[i].Week < finals[j].Week
		}
		return finals[i].StartTime.Before(finals[j].StartTime)
	})

	current := make(map[int]float64)
	rating := func(teamID int) float64 {
		if r, ok := current[teamID]; ok {
			return r
		}
		return cfg.BaseRating
	}

	snapshots := make(map[int]map[int]float64, maxWeek)
	next := 0 // index of the first unapplied final

	for week := 1; week <= maxWeek; week++ {
		// Freeze the pre-week view first.
		frozen := make(map[int]float64, len(current))
		for teamID, r := range current {
			frozen[teamID] = r
		}
		snapshots[week] = frozen

		// Then apply this week's results.
		for next < len(finals) && finals[next].Week <= week {
			game := finals[next]
			next++

			newHome, newAway := elo.Update(
				rating(game.HomeTeamID), rating(game.AwayTeamID),
				int(game.HomeScore.Int32), int(game.AwayScore.Int32),
				game.NeutralSite,
			)
			current[game.HomeTeamID] = newHome
			current[game.AwayTeamID] = newAway
		}
	}

	return snapshots
}

// SnapshotBuilder persists point-in-time weekly ratings
type SnapshotBuilder struct {
	gameRepo   *repository.GameRepository
	ratingRepo *repository.RatingRepository
	cfg        ModelConfig
}

// NewSnapshotBuilder creates a snapshot builder
func NewSnapshotBuilder(gameRepo *repository.GameRepository, ratingRepo *repository.RatingRepository, cfg ModelConfig) *SnapshotBuilder {
	return &SnapshotBuilder{
		gameRepo:   gameRepo,
		ratingRepo: ratingRepo,
		cfg:        cfg,
	}
}

// BuildSeason computes and stores weekly rating snapshots for a season up
// to and including maxWeek. Existing snapshots are left untouched — the
// rows are append-only per team/season/week.
func (b *SnapshotBuilder) BuildSeason(ctx context.Context, season, maxWeek int) error {
	games, err := b.gameRepo.ListBySeason(ctx, season)
	if err != nil {
		return fmt.Errorf("loading season games: %w", err)
	}

	gamesPlayed := make(map[int]int)
	weekly := BuildWeeklyRatings(games, b.cfg, maxWeek)

	stored := 0
	for week := 1; week <= maxWeek; week++ {
		for teamID, rating := range weekly[week] {
			snap := &store.RatingSnapshot{
				TeamID:      teamID,
				Season:      season,
				Week:        week,
				Rating:      rating,
				GamesPlayed: gamesPlayed[teamID],
			}
			if err := b.ratingRepo.InsertSnapshot(ctx, snap); err != nil {
				return fmt.Errorf("storing snapshot team=%d week=%d: %w", teamID, week, err)
			}
			stored++
		}

		// Advance games-played counts with this week's finals so next
		// week's snapshots carry them.
		for _, game := range games {
			if game.Week == week && game.IsFinal() {
				gamesPlayed[game.HomeTeamID]++
				gamesPlayed[game.AwayTeamID]++
			}
		}
	}

	log.Printf("[ratings] ✓ Stored %d snapshots for season %d through week %d", stored, season, maxWeek)
	return nil
}
