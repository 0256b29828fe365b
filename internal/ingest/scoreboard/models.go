package scoreboard

// Scoreboard is the provider's scoreboard payload, trimmed to the fields
// the pipeline consumes.
type Scoreboard struct {
	Events []ScoreboardEvent `json:"events"`
	Week   struct {
		Number int `json:"number"`
	} `json:"week"`
	Season struct {
		Year int `json:"year"`
		Type int `json:"type"`
	} `json:"season"`
}

// ScoreboardEvent is one game on the scoreboard.
type ScoreboardEvent struct {
	ID           string `json:"id"`
	Date         string `json:"date"`
	Competitions []struct {
		NeutralSite bool `json:"neutralSite"`
		Status      struct {
			Type struct {
				Name      string `json:"name"`
				Completed bool   `json:"completed"`
			} `json:"type"`
		} `json:"status"`
		Competitors []struct {
			HomeAway string `json:"homeAway"`
			Score    string `json:"score"`
			Team     struct {
				ID          string `json:"id"`
				DisplayName string `json:"displayName"`
				Location    string `json:"location"`
			} `json:"team"`
		} `json:"competitors"`
	} `json:"competitions"`
}
