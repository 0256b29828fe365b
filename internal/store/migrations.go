package store

// Migration pairs a version label with the SQL it applies. Migrations are
// embedded rather than read from disk so a deployed binary is self-contained.
type Migration struct {
	Version string
	SQL     string
}

var migrations = []Migration{
	{
		Version: "001_create_teams",
		SQL: `
			CREATE TABLE IF NOT EXISTS teams (
				team_id SERIAL PRIMARY KEY,
				sport VARCHAR(50) NOT NULL DEFAULT 'americanfootball_ncaaf',
				canonical_name VARCHAR(120) NOT NULL,
				abbreviation VARCHAR(10) NOT NULL,
				conference VARCHAR(50),
				is_active BOOLEAN NOT NULL DEFAULT TRUE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				UNIQUE (sport, canonical_name)
			);

			CREATE TABLE IF NOT EXISTS team_aliases (
				alias_id SERIAL PRIMARY KEY,
				team_id INTEGER NOT NULL REFERENCES teams(team_id),
				provider VARCHAR(50) NOT NULL,
				alias VARCHAR(120) NOT NULL,
				UNIQUE (provider, alias)
			);

			CREATE TABLE IF NOT EXISTS team_mappings (
				mapping_id SERIAL PRIMARY KEY,
				team_id INTEGER NOT NULL REFERENCES teams(team_id),
				raw_name VARCHAR(120) NOT NULL UNIQUE
			);
		`,
	},
	{
		Version: "002_create_games",
		SQL: `
			CREATE TABLE IF NOT EXISTS games (
				game_id SERIAL PRIMARY KEY,
				sport VARCHAR(50) NOT NULL DEFAULT 'americanfootball_ncaaf',
				season INTEGER NOT NULL,
				week INTEGER NOT NULL,
				external_id VARCHAR(80) NOT NULL UNIQUE,
				start_time TIMESTAMPTZ NOT NULL,
				home_team_id INTEGER NOT NULL REFERENCES teams(team_id),
				away_team_id INTEGER NOT NULL REFERENCES teams(team_id),
				home_score INTEGER,
				away_score INTEGER,
				neutral_site BOOLEAN NOT NULL DEFAULT FALSE,
				status VARCHAR(20) NOT NULL DEFAULT 'scheduled',
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_games_season_week ON games(season, week);
			CREATE INDEX IF NOT EXISTS idx_games_start_time ON games(start_time);
		`,
	},
	{
		Version: "003_create_ticks",
		SQL: `
			CREATE TABLE IF NOT EXISTS ticks (
				tick_id BIGSERIAL PRIMARY KEY,
				game_id INTEGER NOT NULL REFERENCES games(game_id),
				provider VARCHAR(50) NOT NULL,
				market_kind VARCHAR(20) NOT NULL,
				side VARCHAR(10) NOT NULL,
				line DOUBLE PRECISION NOT NULL,
				price INTEGER NOT NULL,
				captured_at TIMESTAMPTZ NOT NULL,
				content_hash CHAR(64) NOT NULL UNIQUE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_ticks_game_market ON ticks(game_id, market_kind, captured_at);
		`,
	},
	{
		Version: "004_create_rating_snapshots",
		SQL: `
			CREATE TABLE IF NOT EXISTS rating_snapshots (
				snapshot_id BIGSERIAL PRIMARY KEY,
				team_id INTEGER NOT NULL REFERENCES teams(team_id),
				season INTEGER NOT NULL,
				week INTEGER NOT NULL,
				rating DOUBLE PRECISION NOT NULL,
				games_played INTEGER NOT NULL DEFAULT 0,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				UNIQUE (team_id, season, week)
			);
		`,
	},
	{
		Version: "005_create_edges",
		SQL: `
			CREATE TABLE IF NOT EXISTS edges (
				edge_id BIGSERIAL PRIMARY KEY,
				game_id INTEGER NOT NULL REFERENCES games(game_id),
				provider VARCHAR(50) NOT NULL,
				market_kind VARCHAR(20) NOT NULL,
				market_line DOUBLE PRECISION NOT NULL,
				model_line DOUBLE PRECISION NOT NULL,
				edge_points DOUBLE PRECISION NOT NULL,
				win_probability DOUBLE PRECISION NOT NULL,
				expected_value DOUBLE PRECISION NOT NULL,
				historical_roi DOUBLE PRECISION NOT NULL DEFAULT 0,
				tier VARCHAR(5) NOT NULL,
				qualified BOOLEAN NOT NULL DEFAULT FALSE,
				low_confidence BOOLEAN NOT NULL DEFAULT FALSE,
				recommended_side VARCHAR(10) NOT NULL,
				computed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				UNIQUE (game_id, provider, market_kind)
			);
		`,
	},
	{
		Version: "006_create_sync_marks",
		SQL: `
			CREATE TABLE IF NOT EXISTS sync_marks (
				sync_type VARCHAR(50) NOT NULL,
				partition_key VARCHAR(30) NOT NULL,
				completed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				PRIMARY KEY (sync_type, partition_key)
			);
		`,
	},
}

// seedStatements load a starter catalog. Real deployments extend the catalog
// through the same tables; the pipeline only reads them.
var seedStatements = []string{
	`
	INSERT INTO teams (canonical_name, abbreviation, conference)
	SELECT v.name, v.abbr, v.conf
	FROM (VALUES
		('Alabama Crimson Tide', 'ALA', 'SEC'),
		('Georgia Bulldogs', 'UGA', 'SEC'),
		('Ohio State Buckeyes', 'OSU', 'Big Ten'),
		('Michigan Wolverines', 'MICH', 'Big Ten'),
		('Texas Longhorns', 'TEX', 'SEC'),
		('Oregon Ducks', 'ORE', 'Big Ten'),
		('Saint Marys Gaels', 'SMC', 'WCC'),
		('Appalachian State Mountaineers', 'APP', 'Sun Belt')
	) AS v(name, abbr, conf)
	WHERE NOT EXISTS (SELECT 1 FROM teams t WHERE t.canonical_name = v.name);
	`,
	`
	INSERT INTO team_aliases (team_id, provider, alias)
	SELECT t.team_id, v.provider, v.alias
	FROM (VALUES
		('oddsapi', 'Alabama Crimson Tide', 'Alabama Crimson Tide'),
		('oddsapi', 'Ohio State Buckeyes', 'Ohio St Buckeyes'),
		('oddsapi', 'Appalachian State Mountaineers', 'App State Mountaineers')
	) AS v(provider, canonical, alias)
	JOIN teams t ON t.canonical_name = v.canonical
	WHERE NOT EXISTS (
		SELECT 1 FROM team_aliases a WHERE a.provider = v.provider AND a.alias = v.alias
	);
	`,
}
