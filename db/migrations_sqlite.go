package db

// SQLite-specific migrations, kept in lockstep with the PostgreSQL set.
// SQLite is used by the test suite and local development only.

var sqliteMigrations = []Migration{
	{
		Version: 1,
		Name:    "create_copy_analyses_table",
		Up: `
			CREATE TABLE IF NOT EXISTS copy_analyses (
				id TEXT PRIMARY KEY,
				url TEXT NOT NULL,
				slug TEXT,
				status TEXT NOT NULL,
				data TEXT NOT NULL,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_copy_analyses_url ON copy_analyses(url);
			CREATE INDEX IF NOT EXISTS idx_copy_analyses_status ON copy_analyses(status);
			CREATE INDEX IF NOT EXISTS idx_copy_analyses_created_at ON copy_analyses(created_at);
		`,
		Down: `
			DROP INDEX IF EXISTS idx_copy_analyses_created_at;
			DROP INDEX IF EXISTS idx_copy_analyses_status;
			DROP INDEX IF EXISTS idx_copy_analyses_url;
			DROP TABLE IF EXISTS copy_analyses;
		`,
	},
	{
		Version: 2,
		Name:    "add_copy_analyses_slug_index",
		Up: `
			CREATE UNIQUE INDEX IF NOT EXISTS idx_copy_analyses_slug ON copy_analyses(slug);
		`,
		Down: `
			DROP INDEX IF EXISTS idx_copy_analyses_slug;
		`,
	},
}
