package sqlstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

var postgresDialect = dialect{
	name:     "postgres",
	numbered: true,
	schema: []string{
		`CREATE TABLE IF NOT EXISTS types (
			id BIGSERIAL PRIMARY KEY,
			type TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS difficulties (
			id BIGSERIAL PRIMARY KEY,
			level TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS categories (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			opentdb_id INTEGER NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS answers (
			id BIGSERIAL PRIMARY KEY,
			answer TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS questions (
			id BIGSERIAL PRIMARY KEY,
			question TEXT NOT NULL UNIQUE,
			difficulty_id BIGINT REFERENCES difficulties(id) ON DELETE SET NULL,
			category_id BIGINT REFERENCES categories(id) ON DELETE SET NULL,
			type_id BIGINT REFERENCES types(id) ON DELETE SET NULL,
			correct_answer_id BIGINT NOT NULL REFERENCES answers(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS question_incorrect_answers (
			question_id BIGINT NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
			answer_id BIGINT NOT NULL REFERENCES answers(id) ON DELETE CASCADE,
			position INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (question_id, answer_id)
		)`,
		`CREATE TABLE IF NOT EXISTS sync_runs (
			id TEXT PRIMARY KEY,
			started_at BIGINT NOT NULL,
			finished_at BIGINT,
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
			updated_at BIGINT NOT NULL,
			PRIMARY KEY (run_id, category)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_questions_category ON questions(category_id)`,
		`CREATE INDEX IF NOT EXISTS idx_questions_difficulty ON questions(difficulty_id)`,
		`CREATE INDEX IF NOT EXISTS idx_qia_answer ON question_incorrect_answers(answer_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sync_runs_started ON sync_runs(started_at)`,
	},
}

// OpenPostgres connects to PostgreSQL through a pgx pool exposed as *sql.DB
func OpenPostgres(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	if cfg.MaxConns <= 0 || cfg.MaxConns > 8 {
		cfg.MaxConns = 8
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	store, err := newStore(ctx, db, postgresDialect)
	if err != nil {
		pool.Close()
		return nil, err
	}
	store.closers = append(store.closers, pool.Close)
	return store, nil
}
