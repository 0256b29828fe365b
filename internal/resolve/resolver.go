package resolve

import (
	"fmt"
	"log"
	"strings"

	"github.com/meridian/oddsync/internal/store"
)

// Index is the precomputed lookup structure for team identity resolution.
// It is built once per sync run from catalog rows and immutable after build;
// the catalog is append-only during a run, so mid-run rebuilds are not
// required. Construct a fresh Index per test rather than sharing state.
type Index struct {
	byAlias      map[string]int // "provider\x00alias" -> team ID
	byMapping    map[string]int // raw external string -> team ID
	byNormalized map[string]int // normalized canonical form -> team ID
	teams        map[int]*store.Team
}

// BuildIndex precomputes the resolution cascade from catalog rows. Two
// distinct teams producing the same normalized key is an ambiguity; the key
// is withdrawn from the index so lookups of it fail closed.
func BuildIndex(teams []*store.Team, aliases []*store.TeamAlias, mappings []*store.TeamMapping) (*Index, error) {
	idx := &Index{
		byAlias:      make(map[string]int),
		byMapping:    make(map[string]int),
		byNormalized: make(map[string]int),
		teams:        make(map[int]*store.Team),
	}

	for _, team := range teams {
		idx.teams[team.TeamID] = team
	}

	for _, alias := range aliases {
		if _, ok := idx.teams[alias.TeamID]; !ok {
			return nil, fmt.Errorf("alias %q references unknown team %d", alias.Alias, alias.TeamID)
		}
		idx.byAlias[aliasKey(alias.Provider, alias.Alias)] = alias.TeamID
	}

	for _, mapping := range mappings {
		if _, ok := idx.teams[mapping.TeamID]; !ok {
			return nil, fmt.Errorf("mapping %q references unknown team %d", mapping.RawName, mapping.TeamID)
		}
		idx.byMapping[mapping.RawName] = mapping.TeamID
	}

	// Index both the full normalized canonical name and its mascot-stripped
	// short form. Conflicting keys are withdrawn, never guessed.
	conflicted := make(map[string]bool)
	addNormalized := func(key string, teamID int) {
		if key == "" || conflicted[key] {
			return
		}
		if existing, ok := idx.byNormalized[key]; ok && existing != teamID {
			log.Printf("[resolve] ambiguous normalized form %q (teams %d, %d); withdrawing", key, existing, teamID)
			delete(idx.byNormalized, key)
			conflicted[key] = true
			return
		}
		idx.byNormalized[key] = teamID
	}

	for _, team := range teams {
		full := Normalize(team.CanonicalName)
		addNormalized(full, team.TeamID)
		if short := StripMascot(full); short != full {
			addNormalized(short, team.TeamID)
		}
	}

	return idx, nil
}

// Resolve maps an external team-name string to an internal team ID, or
// reports no match. The cascade is strict and first-hit-wins:
//
//  1. exact match against the provider's alias table
//  2. exact match against explicit name-mapping overrides
//  3. normalized-form match against normalized canonical names
//
// No fuzzy matching. A miss returns ok=false and the caller records the raw
// string to the unmatched ledger; a team is never fabricated.
func (idx *Index) Resolve(provider, rawName string) (teamID int, ok bool) {
	raw := strings.TrimSpace(rawName)
	if raw == "" {
		return 0, false
	}

	if id, ok := idx.byAlias[aliasKey(provider, raw)]; ok {
		return id, true
	}

	if id, ok := idx.byMapping[raw]; ok {
		return id, true
	}

	norm := Normalize(raw)
	if id, ok := idx.byNormalized[norm]; ok {
		return id, true
	}
	if short := StripMascot(norm); short != norm {
		if id, ok := idx.byNormalized[short]; ok {
			return id, true
		}
	}

	return 0, false
}

// TeamCount returns the number of indexed teams
func (idx *Index) TeamCount() int {
	return len(idx.teams)
}

func aliasKey(provider, alias string) string {
	return provider + "\x00" + alias
}
