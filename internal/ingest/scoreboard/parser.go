package scoreboard

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParsedGame is a scoreboard event reduced to what persistence needs.
// Team names stay raw; identity resolution happens downstream.
type ParsedGame struct {
	ExternalID  string
	StartTime   time.Time
	HomeName    string
	AwayName    string
	HomeScore   int
	AwayScore   int
	Completed   bool
	NeutralSite bool
}

// ParseEvents extracts games from a scoreboard payload. Events missing a
// competition, a team, or a parseable date are skipped with an error rather
// than guessed at.
func ParseEvents(board *Scoreboard) ([]ParsedGame, []error) {
	var games []ParsedGame
	var errs []error

	for _, event := range board.Events {
		game, err := parseEvent(event)
		if err != nil {
			errs = append(errs, fmt.Errorf("event %s: %w", event.ID, err))
			continue
		}
		games = append(games, game)
	}
	return games, errs
}

func parseEvent(event ScoreboardEvent) (ParsedGame, error) {
	if len(event.Competitions) == 0 {
		return ParsedGame{}, fmt.Errorf("no competitions")
	}
	comp := event.Competitions[0]

	startTime, err := time.Parse("2006-01-02T15:04Z", event.Date)
	if err != nil {
		startTime, err = time.Parse(time.RFC3339, event.Date)
		if err != nil {
			return ParsedGame{}, fmt.Errorf("unparseable date %q", event.Date)
		}
	}

	game := ParsedGame{
		ExternalID:  event.ID,
		StartTime:   startTime.UTC(),
		Completed:   comp.Status.Type.Completed,
		NeutralSite: comp.NeutralSite,
	}

	for _, competitor := range comp.Competitors {
		score := 0
		if trimmed := strings.TrimSpace(competitor.Score); trimmed != "" {
			if parsed, err := strconv.Atoi(trimmed); err == nil {
				score = parsed
			}
		}

		switch competitor.HomeAway {
		case "home":
			game.HomeName = competitor.Team.DisplayName
			game.HomeScore = score
		case "away":
			game.AwayName = competitor.Team.DisplayName
			game.AwayScore = score
		}
	}

	if game.HomeName == "" || game.AwayName == "" {
		return ParsedGame{}, fmt.Errorf("missing home or away team")
	}
	return game, nil
}
