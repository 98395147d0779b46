package db

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    topic TEXT NOT NULL,
    description TEXT,
    due DATE,
    status TEXT DEFAULT 'Pending',
    impact INTEGER DEFAULT 1,
    tractability INTEGER DEFAULT 1,
    uncertainty INTEGER DEFAULT 1,
    score REAL DEFAULT 0.0,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_tasks_order ON tasks (score DESC, due);
CREATE INDEX IF NOT EXISTS idx_tasks_status_created ON tasks (status, created_at);`

// Initialize ensures the tasks table exists. It never drops or rewrites
// existing rows, so it is safe to run on every start.
func (db *DB) Initialize() error {
	if _, err := db.conn.Exec(schema); err != nil {
		db.logger.Error().Err(err).Msg("failed to create schema")
		return storageErr("creating schema", err)
	}
	return nil
}
