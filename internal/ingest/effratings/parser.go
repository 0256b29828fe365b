package effratings

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// TeamRating is one row of the efficiency table: a team's offensive and
// defensive per-play values, keyed by the site's team name.
type TeamRating struct {
	TeamName string
	Offense  float64
	Defense  float64
}

// ParseRatingsTable extracts team efficiency rows from the ratings page.
// The page layout is a single table whose first column is the team name;
// offense and defense columns are located by header text so minor column
// reshuffles do not break the parse.
func ParseRatingsTable(doc *goquery.Document) ([]TeamRating, error) {
	var ratings []TeamRating

	doc.Find("table").EachWithBreak(func(i int, table *goquery.Selection) bool {
		nameCol, offCol, defCol := locateColumns(table)
		if nameCol < 0 || offCol < 0 || defCol < 0 {
			return true
		}

		table.Find("tbody tr").Each(func(j int, row *goquery.Selection) {
			cells := row.Find("td")
			if cells.Length() <= offCol || cells.Length() <= defCol {
				return
			}

			name := strings.TrimSpace(cells.Eq(nameCol).Text())
			if name == "" {
				return
			}

			off, errOff := parseCell(cells.Eq(offCol).Text())
			def, errDef := parseCell(cells.Eq(defCol).Text())
			if errOff != nil || errDef != nil {
				return
			}

			ratings = append(ratings, TeamRating{
				TeamName: name,
				Offense:  off,
				Defense:  def,
			})
		})
		return len(ratings) == 0
	})

	if len(ratings) == 0 {
		return nil, fmt.Errorf("no efficiency rows found in ratings page")
	}

	log.Printf("Parsed %d team efficiency ratings", len(ratings))
	return ratings, nil
}

// locateColumns finds the name, offense, and defense column indexes from the
// table header. Returns -1 for any column it cannot find.
func locateColumns(table *goquery.Selection) (nameCol, offCol, defCol int) {
	nameCol, offCol, defCol = -1, -1, -1

	table.Find("thead th, tr th").Each(func(i int, th *goquery.Selection) {
		header := strings.ToLower(strings.TrimSpace(th.Text()))
		switch {
		case nameCol < 0 && (header == "team" || strings.Contains(header, "team")):
			nameCol = i
		case offCol < 0 && strings.HasPrefix(header, "off"):
			offCol = i
		case defCol < 0 && strings.HasPrefix(header, "def"):
			defCol = i
		}
	})
	return nameCol, offCol, defCol
}

func parseCell(text string) (float64, error) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(text, "+", ""))
	return strconv.ParseFloat(cleaned, 64)
}
