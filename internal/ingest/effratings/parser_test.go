package effratings

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

const ratingsPage = `<html><body>
<table>
  <thead>
    <tr><th>Team</th><th>Off</th><th>Def</th><th>Ovr</th></tr>
  </thead>
  <tbody>
    <tr><td>Georgia</td><td>+12.3</td><td>-8.1</td><td>20.4</td></tr>
    <tr><td>Florida</td><td>2.0</td><td>+1.5</td><td>0.5</td></tr>
    <tr><td></td><td>1.0</td><td>1.0</td><td>0.0</td></tr>
    <tr><td>Broken Row</td><td>abc</td><td>1.0</td><td></td></tr>
  </tbody>
</table>
</body></html>`

func docFrom(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("building document: %v", err)
	}
	return doc
}

func TestParseRatingsTable(t *testing.T) {
	ratings, err := ParseRatingsTable(docFrom(t, ratingsPage))
	if err != nil {
		t.Fatalf("ParseRatingsTable: %v", err)
	}

	// The blank-name and unparseable rows are dropped.
	if len(ratings) != 2 {
		t.Fatalf("got %d rows, want 2", len(ratings))
	}

	georgia := ratings[0]
	if georgia.TeamName != "Georgia" {
		t.Errorf("TeamName = %q", georgia.TeamName)
	}
	if georgia.Offense != 12.3 {
		t.Errorf("Offense = %v, want 12.3 (leading + stripped)", georgia.Offense)
	}
	if georgia.Defense != -8.1 {
		t.Errorf("Defense = %v, want -8.1", georgia.Defense)
	}

	if ratings[1].TeamName != "Florida" || ratings[1].Defense != 1.5 {
		t.Errorf("second row = %+v", ratings[1])
	}
}

func TestParseRatingsTableRejectsEmptyPage(t *testing.T) {
	pages := map[string]string{
		"no tables":       `<html><body><p>nothing here</p></body></html>`,
		"missing columns": `<html><body><table><thead><tr><th>Rank</th><th>Name</th></tr></thead><tbody><tr><td>1</td><td>Georgia</td></tr></tbody></table></body></html>`,
	}
	for name, page := range pages {
		if _, err := ParseRatingsTable(docFrom(t, page)); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}
