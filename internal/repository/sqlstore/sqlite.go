package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// sqlitePragmas are applied to every pooled connection through the DSN
const sqlitePragmas = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"

var sqliteDialect = dialect{
	name: "sqlite",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS types (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			type TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS difficulties (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			level TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS categories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			opentdb_id INTEGER NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS answers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			answer TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS questions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			question TEXT NOT NULL UNIQUE,
			difficulty_id INTEGER REFERENCES difficulties(id) ON DELETE SET NULL,
			category_id INTEGER REFERENCES categories(id) ON DELETE SET NULL,
			type_id INTEGER REFERENCES types(id) ON DELETE SET NULL,
			correct_answer_id INTEGER NOT NULL REFERENCES answers(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS question_incorrect_answers (
			question_id INTEGER NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
			answer_id INTEGER NOT NULL REFERENCES answers(id) ON DELETE CASCADE,
			position INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (question_id, answer_id)
		)`,
		`CREATE TABLE IF NOT EXISTS sync_runs (
			id TEXT PRIMARY KEY,
			started_at INTEGER NOT NULL,
			finished_at INTEGER,
			status TEXT NOT NULL,
			processed INTEGER NOT NULL DEFAULT 0,
			stored INTEGER NOT NULL DEFAULT 0,
			skipped INTEGER NOT NULL DEFAULT 0,
			diverged INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS sync_categories (
			run_id TEXT NOT NULL REFERENCES sync_runs(id) ON DELETE CASCADE,
			category TEXT NOT NULL,
			remote_total INTEGER NOT NULL DEFAULT 0,
			batches INTEGER NOT NULL DEFAULT 0,
			abandoned_batches INTEGER NOT NULL DEFAULT 0,
			done INTEGER NOT NULL DEFAULT 0,
			processed INTEGER NOT NULL DEFAULT 0,
			stored INTEGER NOT NULL DEFAULT 0,
			skipped INTEGER NOT NULL DEFAULT 0,
			diverged INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (run_id, category)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_questions_category ON questions(category_id)`,
		`CREATE INDEX IF NOT EXISTS idx_questions_difficulty ON questions(difficulty_id)`,
		`CREATE INDEX IF NOT EXISTS idx_qia_answer ON question_incorrect_answers(answer_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sync_runs_started ON sync_runs(started_at)`,
	},
}

// OpenSQLite opens (creating if needed) a SQLite database file
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}

	db, err := sql.Open("sqlite", path+sep+sqlitePragmas)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection serializes writers, avoiding SQLITE_BUSY on
	// lock upgrades inside transactions.
	db.SetMaxOpenConns(1)

	return newStore(ctx, db, sqliteDialect)
}
