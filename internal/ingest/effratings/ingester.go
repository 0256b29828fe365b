package effratings

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/meridian/oddsync/internal/ratings"
	"github.com/meridian/oddsync/internal/resolve"
)

// Ingester fetches the efficiency ratings page and resolves each row's team
// name to a canonical team ID. Rows whose names cannot be resolved are
// counted and dropped rather than guessed at.
type Ingester struct {
	client   *Client
	resolver *resolve.Index
}

// NewIngester creates a new efficiency ratings ingester
func NewIngester(baseURL string, resolver *resolve.Index) *Ingester {
	return &Ingester{
		client:   NewClient(baseURL),
		resolver: resolver,
	}
}

// IngestRatings fetches and parses the current efficiency table, returning
// ratings keyed by canonical team ID.
func (i *Ingester) IngestRatings(ctx context.Context) (map[int]ratings.EfficiencyRating, error) {
	log.Println("Ingesting per-play efficiency ratings...")

	html, err := i.client.FetchRatingsPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch efficiency page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse efficiency page: %w", err)
	}

	rows, err := ParseRatingsTable(doc)
	if err != nil {
		return nil, err
	}

	result := make(map[int]ratings.EfficiencyRating, len(rows))
	unresolved := 0
	for _, row := range rows {
		teamID, ok := i.resolver.Resolve("effratings", row.TeamName)
		if !ok {
			unresolved++
			continue
		}
		result[teamID] = ratings.EfficiencyRating{
			Offense: row.Offense,
			Defense: row.Defense,
		}
	}

	if unresolved > 0 {
		log.Printf("  %d efficiency rows had unresolvable team names", unresolved)
	}
	log.Printf("✓ Ingested efficiency ratings for %d teams", len(result))
	return result, nil
}
