package repository

import (
	"context"
	"fmt"

	"github.com/meridian/oddsync/internal/store"
)

// TeamRepository handles team catalog data access
type TeamRepository struct {
	db *store.Database
}

// NewTeamRepository creates a new team repository
func NewTeamRepository(db *store.Database) *TeamRepository {
	return &TeamRepository{db: db}
}

// GetAll returns all active teams
func (r *TeamRepository) GetAll(ctx context.Context) ([]*store.Team, error) {
	query := `
		SELECT team_id, sport, canonical_name, abbreviation, conference,
			is_active, created_at, updated_at
		FROM teams
		WHERE is_active = true
		ORDER BY canonical_name
	`

	rows, err := r.db.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying teams: %w", err)
	}
	defer rows.Close()

	var teams []*store.Team
	for rows.Next() {
		team := &store.Team{}
		err := rows.Scan(
			&team.TeamID, &team.Sport, &team.CanonicalName, &team.Abbreviation,
			&team.Conference, &team.IsActive, &team.CreatedAt, &team.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning team: %w", err)
		}
		teams = append(teams, team)
	}

	return teams, rows.Err()
}

// GetAliases returns all provider aliases
func (r *TeamRepository) GetAliases(ctx context.Context) ([]*store.TeamAlias, error) {
	query := `
		SELECT alias_id, team_id, provider, alias
		FROM team_aliases
		ORDER BY provider, alias
	`

	rows, err := r.db.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying aliases: %w", err)
	}
	defer rows.Close()

	var aliases []*store.TeamAlias
	for rows.Next() {
		alias := &store.TeamAlias{}
		if err := rows.Scan(&alias.AliasID, &alias.TeamID, &alias.Provider, &alias.Alias); err != nil {
			return nil, fmt.Errorf("scanning alias: %w", err)
		}
		aliases = append(aliases, alias)
	}

	return aliases, rows.Err()
}

// GetMappings returns all explicit name-mapping overrides
func (r *TeamRepository) GetMappings(ctx context.Context) ([]*store.TeamMapping, error) {
	query := `
		SELECT mapping_id, team_id, raw_name
		FROM team_mappings
		ORDER BY raw_name
	`

	rows, err := r.db.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying mappings: %w", err)
	}
	defer rows.Close()

	var mappings []*store.TeamMapping
	for rows.Next() {
		mapping := &store.TeamMapping{}
		if err := rows.Scan(&mapping.MappingID, &mapping.TeamID, &mapping.RawName); err != nil {
			return nil, fmt.Errorf("scanning mapping: %w", err)
		}
		mappings = append(mappings, mapping)
	}

	return mappings, rows.Err()
}
