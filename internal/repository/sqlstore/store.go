package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"triviamirror/internal/config"
	"triviamirror/internal/domain"
	"triviamirror/internal/repository"
)

// dialect captures what differs between the supported databases
type dialect struct {
	name   string
	schema []string
	// numbered placeholders ($1, $2, ...) instead of ?
	numbered bool
}

// Store implements repository.Store on database/sql
type Store struct {
	db      *sql.DB
	dialect dialect
	closers []func()
}

var _ repository.Store = (*Store)(nil)

// Open opens the database selected by cfg and migrates its schema
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return OpenPostgres(ctx, cfg.URL)
	case config.DriverSQLite, "":
		return OpenSQLite(ctx, cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func newStore(ctx context.Context, db *sql.DB, d dialect) (*Store, error) {
	s := &Store{db: db, dialect: d}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Dialect returns the database flavor, "sqlite" or "postgres"
func (s *Store) Dialect() string {
	return s.dialect.name
}

// Ping verifies the database connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *Store) Close() error {
	err := s.db.Close()
	for _, fn := range s.closers {
		fn()
	}
	return err
}

// rebind rewrites ? placeholders for dialects with numbered parameters.
// Queries in this package never contain a literal ? inside strings.
func (s *Store) rebind(query string) string {
	if !s.dialect.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func (s *Store) exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.rebind(query), args...)
}

func (s *Store) query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.rebind(query), args...)
}

func (s *Store) queryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return s.db.QueryRowContext(ctx, s.rebind(query), args...)
}

// insertReturningID runs an INSERT ... RETURNING id, mapping uniqueness
// violations to repository.ErrConflict
func (s *Store) insertReturningID(ctx context.Context, query string, args ...interface{}) (int64, error) {
	var id int64
	if err := s.queryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, mapWriteError(err)
	}
	return id, nil
}

// deleteWhere runs a DELETE and reports ErrNotFound when nothing matched
func (s *Store) deleteWhere(ctx context.Context, query string, args ...interface{}) error {
	res, err := s.exec(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ============================================================================
// Reference Tables
// ============================================================================

// ListTypes returns all question types
func (s *Store) ListTypes(ctx context.Context) ([]domain.Type, error) {
	rows, err := s.query(ctx, `SELECT id, type FROM types ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query types: %w", err)
	}
	defer rows.Close()

	var out []domain.Type
	for rows.Next() {
		var t domain.Type
		if err := rows.Scan(&t.ID, &t.Type); err != nil {
			return nil, fmt.Errorf("failed to scan type: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CreateType inserts a question type
func (s *Store) CreateType(ctx context.Context, name string) (*domain.Type, error) {
	id, err := s.insertReturningID(ctx, `INSERT INTO types (type) VALUES (?) RETURNING id`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create type %q: %w", name, err)
	}
	return &domain.Type{ID: id, Type: name}, nil
}

// DeleteType deletes a question type by name
func (s *Store) DeleteType(ctx context.Context, name string) error {
	if err := s.deleteWhere(ctx, `DELETE FROM types WHERE type = ?`, name); err != nil {
		return fmt.Errorf("failed to delete type %q: %w", name, err)
	}
	return nil
}

// ListDifficulties returns all difficulty levels
func (s *Store) ListDifficulties(ctx context.Context) ([]domain.Difficulty, error) {
	rows, err := s.query(ctx, `SELECT id, level FROM difficulties ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query difficulties: %w", err)
	}
	defer rows.Close()

	var out []domain.Difficulty
	for rows.Next() {
		var d domain.Difficulty
		if err := rows.Scan(&d.ID, &d.Level); err != nil {
			return nil, fmt.Errorf("failed to scan difficulty: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// CreateDifficulty inserts a difficulty level
func (s *Store) CreateDifficulty(ctx context.Context, level string) (*domain.Difficulty, error) {
	id, err := s.insertReturningID(ctx, `INSERT INTO difficulties (level) VALUES (?) RETURNING id`, level)
	if err != nil {
		return nil, fmt.Errorf("failed to create difficulty %q: %w", level, err)
	}
	return &domain.Difficulty{ID: id, Level: level}, nil
}

// DeleteDifficulty deletes a difficulty level by name
func (s *Store) DeleteDifficulty(ctx context.Context, level string) error {
	if err := s.deleteWhere(ctx, `DELETE FROM difficulties WHERE level = ?`, level); err != nil {
		return fmt.Errorf("failed to delete difficulty %q: %w", level, err)
	}
	return nil
}

// ListCategories returns all categories
func (s *Store) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.query(ctx, `SELECT id, name, opentdb_id FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var out []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.RemoteID); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateCategory inserts a category with its remote id
func (s *Store) CreateCategory(ctx context.Context, name string, remoteID int) (*domain.Category, error) {
	id, err := s.insertReturningID(ctx,
		`INSERT INTO categories (name, opentdb_id) VALUES (?, ?) RETURNING id`, name, remoteID)
	if err != nil {
		return nil, fmt.Errorf("failed to create category %q: %w", name, err)
	}
	return &domain.Category{ID: id, Name: name, RemoteID: remoteID}, nil
}

// DeleteCategory deletes a category by name. Its questions keep a NULL category.
func (s *Store) DeleteCategory(ctx context.Context, name string) error {
	if err := s.deleteWhere(ctx, `DELETE FROM categories WHERE name = ?`, name); err != nil {
		return fmt.Errorf("failed to delete category %q: %w", name, err)
	}
	return nil
}

// ============================================================================
// Answers
// ============================================================================

// FindAnswerByText returns the answer with exactly this text, or nil
func (s *Store) FindAnswerByText(ctx context.Context, text string) (*domain.Answer, error) {
	var a domain.Answer
	err := s.queryRow(ctx, `SELECT id, answer FROM answers WHERE answer = ?`, text).Scan(&a.ID, &a.Text)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query answer: %w", err)
	}
	return &a, nil
}

// CreateAnswer inserts an answer text
func (s *Store) CreateAnswer(ctx context.Context, text string) (*domain.Answer, error) {
	id, err := s.insertReturningID(ctx, `INSERT INTO answers (answer) VALUES (?) RETURNING id`, text)
	if err != nil {
		return nil, fmt.Errorf("failed to create answer: %w", err)
	}
	return &domain.Answer{ID: id, Text: text}, nil
}

// ListAnswers returns all answers
func (s *Store) ListAnswers(ctx context.Context) ([]domain.Answer, error) {
	rows, err := s.query(ctx, `SELECT id, answer FROM answers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query answers: %w", err)
	}
	defer rows.Close()

	var out []domain.Answer
	for rows.Next() {
		var a domain.Answer
		if err := rows.Scan(&a.ID, &a.Text); err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpdateAnswerText rewrites the text of an answer
func (s *Store) UpdateAnswerText(ctx context.Context, id int64, text string) error {
	res, err := s.exec(ctx, `UPDATE answers SET answer = ? WHERE id = ?`, text, id)
	if err != nil {
		return fmt.Errorf("failed to update answer %d: %w", id, mapWriteError(err))
	}
	return requireAffected(res, "answer", id)
}

// DeleteAnswer deletes an answer and every question that uses it, as
// correct or incorrect answer, so a reseed can recreate them whole
func (s *Store) DeleteAnswer(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, s.rebind(`
		DELETE FROM questions
		WHERE correct_answer_id = ?
		   OR id IN (SELECT question_id FROM question_incorrect_answers WHERE answer_id = ?)`), id, id)
	if err != nil {
		return fmt.Errorf("failed to delete questions using answer %d: %w", id, err)
	}

	res, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM answers WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete answer %d: %w", id, err)
	}
	if err := requireAffected(res, "answer", id); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit answer deletion: %w", err)
	}
	return nil
}

// DeleteAllAnswers deletes every answer
func (s *Store) DeleteAllAnswers(ctx context.Context) (int64, error) {
	res, err := s.exec(ctx, `DELETE FROM answers`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete answers: %w", err)
	}
	return res.RowsAffected()
}

// ============================================================================
// Questions
// ============================================================================

// FindQuestionByText returns the question with exactly this text, or nil
func (s *Store) FindQuestionByText(ctx context.Context, text string) (*domain.Question, error) {
	questions, err := s.selectQuestions(ctx, `WHERE q.question = ?`, text)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, nil
	}
	return &questions[0], nil
}

// CreateQuestion inserts a question and its incorrect answer links atomically
func (s *Store) CreateQuestion(ctx context.Context, q domain.NewQuestion) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx, s.rebind(`
		INSERT INTO questions (question, difficulty_id, category_id, type_id, correct_answer_id)
		VALUES (?, ?, ?, ?, ?) RETURNING id`),
		q.Text, q.DifficultyID, q.CategoryID, q.TypeID, q.CorrectAnswerID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert question: %w", mapWriteError(err))
	}

	link := s.rebind(`INSERT INTO question_incorrect_answers (question_id, answer_id, position) VALUES (?, ?, ?)`)
	for i, answerID := range q.IncorrectAnswerIDs {
		if _, err := tx.ExecContext(ctx, link, id, answerID, i); err != nil {
			return 0, fmt.Errorf("failed to link incorrect answer %d: %w", answerID, mapWriteError(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit question: %w", err)
	}
	return id, nil
}

// CountQuestionsInCategory counts the stored questions of one category
func (s *Store) CountQuestionsInCategory(ctx context.Context, categoryID int64) (int, error) {
	var n int
	if err := s.queryRow(ctx, `SELECT COUNT(*) FROM questions WHERE category_id = ?`, categoryID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count questions: %w", err)
	}
	return n, nil
}

// ListQuestions returns all questions with their relations
func (s *Store) ListQuestions(ctx context.Context) ([]domain.Question, error) {
	return s.selectQuestions(ctx, "")
}

// MatchQuestions returns the questions of one difficulty level and category
func (s *Store) MatchQuestions(ctx context.Context, difficulty, category string) ([]domain.Question, error) {
	return s.selectQuestions(ctx, `WHERE d.level = ? AND c.name = ?`, difficulty, category)
}

// selectQuestions loads questions matching where, then their incorrect answers
func (s *Store) selectQuestions(ctx context.Context, where string, args ...interface{}) ([]domain.Question, error) {
	rows, err := s.query(ctx, `SELECT `+questionColumns+` FROM questions q `+questionJoins+` `+where+` ORDER BY q.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	index := make(map[int64]int)
	for rows.Next() {
		var r questionRow
		if err := rows.Scan(r.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		index[r.ID] = len(questions)
		questions = append(questions, r.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, nil
	}

	linkRows, err := s.query(ctx, `
		SELECT qia.question_id, a.answer
		FROM question_incorrect_answers qia
		JOIN answers a ON a.id = qia.answer_id
		JOIN questions q ON q.id = qia.question_id `+questionJoins+` `+where+`
		ORDER BY qia.question_id, qia.position`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query incorrect answers: %w", err)
	}
	defer linkRows.Close()

	for linkRows.Next() {
		var (
			questionID int64
			answer     string
		)
		if err := linkRows.Scan(&questionID, &answer); err != nil {
			return nil, fmt.Errorf("failed to scan incorrect answer: %w", err)
		}
		if i, ok := index[questionID]; ok {
			questions[i].IncorrectAnswers = append(questions[i].IncorrectAnswers, answer)
		}
	}
	if err := linkRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating incorrect answers: %w", err)
	}

	return questions, nil
}

// ListQuestionTexts returns the id and text of every question
func (s *Store) ListQuestionTexts(ctx context.Context) ([]repository.TextRow, error) {
	rows, err := s.query(ctx, `SELECT id, question FROM questions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query question texts: %w", err)
	}
	defer rows.Close()

	var out []repository.TextRow
	for rows.Next() {
		var r repository.TextRow
		if err := rows.Scan(&r.ID, &r.Text); err != nil {
			return nil, fmt.Errorf("failed to scan question text: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpdateQuestionText rewrites the text of a question
func (s *Store) UpdateQuestionText(ctx context.Context, id int64, text string) error {
	res, err := s.exec(ctx, `UPDATE questions SET question = ? WHERE id = ?`, text, id)
	if err != nil {
		return fmt.Errorf("failed to update question %d: %w", id, mapWriteError(err))
	}
	return requireAffected(res, "question", id)
}

// DeleteAllQuestions deletes every question and its links
func (s *Store) DeleteAllQuestions(ctx context.Context) (int64, error) {
	res, err := s.exec(ctx, `DELETE FROM questions`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete questions: %w", err)
	}
	return res.RowsAffected()
}

// ============================================================================
// Sync Runs
// ============================================================================

// CreateSyncRun inserts a new run record
func (s *Store) CreateSyncRun(ctx context.Context, run *domain.SyncRun) error {
	_, err := s.exec(ctx, `
		INSERT INTO sync_runs (`+syncRunColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, syncRunArgs(run)...)
	if err != nil {
		return fmt.Errorf("failed to create sync run: %w", mapWriteError(err))
	}
	return nil
}

// UpdateSyncRun stores the status and counters of a run
func (s *Store) UpdateSyncRun(ctx context.Context, run *domain.SyncRun) error {
	res, err := s.exec(ctx, `
		UPDATE sync_runs SET finished_at = ?, status = ?,
			processed = ?, stored = ?, skipped = ?, diverged = ?, failed = ?
		WHERE id = ?`,
		timePtrToNullMillis(run.FinishedAt), string(run.Status),
		run.Processed, run.Stored, run.Skipped, run.Diverged, run.Failed,
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update sync run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("sync run %s: %w", run.ID, repository.ErrNotFound)
	}
	return nil
}

// GetSyncRun loads a run by id
func (s *Store) GetSyncRun(ctx context.Context, id string) (*domain.SyncRun, error) {
	var r syncRunRow
	err := s.queryRow(ctx, `SELECT `+syncRunColumns+` FROM sync_runs WHERE id = ?`, id).Scan(r.scanArgs()...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sync run %s: %w", id, repository.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query sync run: %w", err)
	}
	return r.toDomain(), nil
}

// LatestSyncRun loads the most recently started run, or nil
func (s *Store) LatestSyncRun(ctx context.Context) (*domain.SyncRun, error) {
	var r syncRunRow
	err := s.queryRow(ctx, `SELECT `+syncRunColumns+` FROM sync_runs ORDER BY started_at DESC LIMIT 1`).Scan(r.scanArgs()...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest sync run: %w", err)
	}
	return r.toDomain(), nil
}

// SaveSyncCategory inserts or replaces the progress of one category
func (s *Store) SaveSyncCategory(ctx context.Context, c *domain.SyncCategory) error {
	_, err := s.exec(ctx, `
		INSERT INTO sync_categories (`+syncCategoryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (run_id, category) DO UPDATE SET
			remote_total = excluded.remote_total,
			batches = excluded.batches,
			abandoned_batches = excluded.abandoned_batches,
			done = excluded.done,
			processed = excluded.processed,
			stored = excluded.stored,
			skipped = excluded.skipped,
			diverged = excluded.diverged,
			failed = excluded.failed,
			updated_at = excluded.updated_at`,
		syncCategoryArgs(c)...)
	if err != nil {
		return fmt.Errorf("failed to save sync category %q: %w", c.Category, err)
	}
	return nil
}

// ListSyncCategories returns the category progress of a run
func (s *Store) ListSyncCategories(ctx context.Context, runID string) ([]domain.SyncCategory, error) {
	rows, err := s.query(ctx, `SELECT `+syncCategoryColumns+` FROM sync_categories WHERE run_id = ? ORDER BY category`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync categories: %w", err)
	}
	defer rows.Close()

	var out []domain.SyncCategory
	for rows.Next() {
		var r syncCategoryRow
		if err := rows.Scan(r.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan sync category: %w", err)
		}
		out = append(out, r.toDomain())
	}
	return out, rows.Err()
}

func requireAffected(res sql.Result, kind string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, repository.ErrNotFound)
	}
	return nil
}
