package resolve

import (
	"strings"
)

// abbreviationExpansions rewrites common shorthand tokens before comparison.
// Applied token-by-token after punctuation stripping.
var abbreviationExpansions = map[string]string{
	"st":    "saint",
	"ste":   "saint",
	"intl":  "international",
	"univ":  "university",
	"so":    "southern",
	"no":    "northern",
	"app":   "appalachian",
	"miss":  "mississippi",
	"tenn":  "tennessee",
	"la":    "louisiana",
	"fla":   "florida",
	"wash":  "washington",
}

// mascotSuffixes are trailing mascot phrases stripped when producing the
// short form of a name. Longest phrases first so "crimson tide" wins over
// a hypothetical single-word "tide".
var mascotSuffixes = []string{
	"fighting irish", "crimson tide", "golden eagles", "golden bears",
	"golden gophers", "yellow jackets", "horned frogs", "red raiders",
	"scarlet knights", "demon deacons", "green wave", "blue devils",
	"blue raiders", "ragin cajuns", "black knights", "mean green",
	"nittany lions", "tar heels", "red wolves", "sun devils",
	"mountaineers", "boilermakers", "cornhuskers", "gamecocks",
	"wolverines", "volunteers", "seminoles", "razorbacks", "buckeyes",
	"bulldogs", "longhorns", "wildcats", "panthers", "tigers", "aggies",
	"sooners", "hurricanes", "hokies", "cavaliers", "commodores",
	"gators", "rebels", "broncos", "spartans", "badgers", "hawkeyes",
	"jayhawks", "cyclones", "cougars", "utes", "ducks", "beavers",
	"huskies", "trojans", "bruins", "bears", "cardinal", "cardinals",
	"falcons", "owls", "rams", "knights", "bulls", "eagles", "hornets",
	"gaels", "pirates", "midshipmen", "terrapins", "illini", "wolfpack",
	"orange", "bearcats", "musketeers", "flyers", "billikens", "dons",
	"zags", "toreros", "lobos", "aztecs", "rainbow warriors", "warriors",
	"vandals", "bengals", "chippewas", "rockets", "zips", "flashes",
	"redhawks", "huskers", "mustangs", "roadrunners", "miners",
	"blazers", "monarchs", "49ers", "paladins", "catamounts", "keydets",
	"governors", "racers", "colonels", "hilltoppers", "thundering herd",
}

// Normalize produces the deterministic comparison form of an external team
// name: lowercased, punctuation stripped, parenthetical qualifiers removed,
// abbreviations expanded, whitespace collapsed. Mascot stripping is a
// separate step (StripMascot) so both long and short forms can be indexed.
func Normalize(name string) string {
	s := strings.ToLower(name)

	// Drop parenthetical qualifiers like "Miami (OH)" or "(FL)".
	for {
		open := strings.Index(s, "(")
		if open < 0 {
			break
		}
		close := strings.Index(s[open:], ")")
		if close < 0 {
			s = s[:open]
			break
		}
		s = s[:open] + " " + s[open+close+1:]
	}

	// Strip punctuation, keeping letters, digits and spaces.
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '/':
			b.WriteRune(' ')
		}
	}
	s = b.String()

	// Expand abbreviations token by token.
	tokens := strings.Fields(s)
	for i, tok := range tokens {
		if expanded, ok := abbreviationExpansions[tok]; ok {
			tokens[i] = expanded
		}
	}

	return strings.Join(tokens, " ")
}

// StripMascot removes a trailing mascot phrase from an already-normalized
// name. Returns the input unchanged when no known mascot matches or when
// stripping would leave nothing.
func StripMascot(normalized string) string {
	for _, suffix := range mascotSuffixes {
		if strings.HasSuffix(normalized, " "+suffix) {
			return strings.TrimSpace(strings.TrimSuffix(normalized, " "+suffix))
		}
	}
	return normalized
}
