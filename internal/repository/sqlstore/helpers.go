package sqlstore

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"triviamirror/internal/domain"
	"triviamirror/internal/repository"
)

// ============================================================================
// Null Type Conversion Helpers
// ============================================================================

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// nullToBool converts sql.NullInt64 to bool (0 = false, non-zero = true)
func nullToBool(ni sql.NullInt64) bool {
	return ni.Valid && ni.Int64 != 0
}

// boolToInt stores a bool as 0 or 1
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Timestamps are stored as unix milliseconds so both dialects share a column type

// millisToTime converts unix milliseconds to UTC time
func millisToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// nullMillisToTimePtr converts nullable unix milliseconds to *time.Time
func nullMillisToTimePtr(ni sql.NullInt64) *time.Time {
	if !ni.Valid {
		return nil
	}
	t := millisToTime(ni.Int64)
	return &t
}

// timePtrToNullMillis converts *time.Time to nullable unix milliseconds
func timePtrToNullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

// ============================================================================
// Error Mapping
// ============================================================================

// isUniqueViolation reports whether err is a uniqueness violation in
// either dialect
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// mapWriteError translates driver uniqueness errors to repository.ErrConflict
func mapWriteError(err error) error {
	if isUniqueViolation(err) {
		return repository.ErrConflict
	}
	return err
}

// ============================================================================
// Question Row Scanner
// ============================================================================

// questionJoins resolves the reference names of questions aliased q.
// LEFT joins keep questions whose reference rows were deleted.
const questionJoins = `
	LEFT JOIN difficulties d ON d.id = q.difficulty_id
	LEFT JOIN categories c ON c.id = q.category_id
	LEFT JOIN types t ON t.id = q.type_id
	LEFT JOIN answers ca ON ca.id = q.correct_answer_id`

// questionColumns returns the SELECT column list for question queries
const questionColumns = `q.id, q.question, d.level, c.name, t.type, ca.answer`

// questionRow holds all columns from a question query for scanning
type questionRow struct {
	ID            int64
	Text          string
	Difficulty    sql.NullString
	Category      sql.NullString
	Type          sql.NullString
	CorrectAnswer sql.NullString
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match questionColumns order exactly
func (r *questionRow) scanArgs() []interface{} {
	return []interface{}{
		&r.ID,            // 1
		&r.Text,          // 2
		&r.Difficulty,    // 3
		&r.Category,      // 4
		&r.Type,          // 5
		&r.CorrectAnswer, // 6
	}
}

// toDomain converts the scanned row to a domain.Question without
// incorrect answers, which are loaded separately
func (r *questionRow) toDomain() domain.Question {
	return domain.Question{
		ID:               r.ID,
		Text:             r.Text,
		Difficulty:       nullToString(r.Difficulty),
		Category:         nullToString(r.Category),
		Type:             nullToString(r.Type),
		CorrectAnswer:    nullToString(r.CorrectAnswer),
		IncorrectAnswers: []string{},
	}
}

// ============================================================================
// Sync Run Row Scanner
// ============================================================================

// syncRunColumns returns the column list for sync run queries
const syncRunColumns = `id, started_at, finished_at, status,
	processed, stored, skipped, diverged, failed`

// syncRunRow holds all columns from a sync run query for scanning
type syncRunRow struct {
	ID         string
	StartedAt  int64
	FinishedAt sql.NullInt64
	Status     string
	Processed  int
	Stored     int
	Skipped    int
	Diverged   int
	Failed     int
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match syncRunColumns order exactly
func (r *syncRunRow) scanArgs() []interface{} {
	return []interface{}{
		&r.ID, &r.StartedAt, &r.FinishedAt, &r.Status,
		&r.Processed, &r.Stored, &r.Skipped, &r.Diverged, &r.Failed,
	}
}

// toDomain converts the scanned row to a domain.SyncRun
func (r *syncRunRow) toDomain() *domain.SyncRun {
	return &domain.SyncRun{
		ID:         r.ID,
		StartedAt:  millisToTime(r.StartedAt),
		FinishedAt: nullMillisToTimePtr(r.FinishedAt),
		Status:     domain.RunStatus(r.Status),
		Tally: domain.Tally{
			Processed: r.Processed,
			Stored:    r.Stored,
			Skipped:   r.Skipped,
			Diverged:  r.Diverged,
			Failed:    r.Failed,
		},
	}
}

// syncRunArgs prepares arguments in syncRunColumns order
func syncRunArgs(run *domain.SyncRun) []interface{} {
	return []interface{}{
		run.ID,
		run.StartedAt.UnixMilli(),
		timePtrToNullMillis(run.FinishedAt),
		string(run.Status),
		run.Processed,
		run.Stored,
		run.Skipped,
		run.Diverged,
		run.Failed,
	}
}

// ============================================================================
// Sync Category Row Scanner
// ============================================================================

// syncCategoryColumns returns the column list for sync category queries
const syncCategoryColumns = `run_id, category, remote_total, batches, abandoned_batches, done,
	processed, stored, skipped, diverged, failed, updated_at`

// syncCategoryRow holds all columns from a sync category query for scanning
type syncCategoryRow struct {
	RunID            string
	Category         string
	RemoteTotal      int
	Batches          int
	AbandonedBatches int
	Done             sql.NullInt64
	Processed        int
	Stored           int
	Skipped          int
	Diverged         int
	Failed           int
	UpdatedAt        int64
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match syncCategoryColumns order exactly
func (r *syncCategoryRow) scanArgs() []interface{} {
	return []interface{}{
		&r.RunID, &r.Category, &r.RemoteTotal, &r.Batches, &r.AbandonedBatches, &r.Done,
		&r.Processed, &r.Stored, &r.Skipped, &r.Diverged, &r.Failed, &r.UpdatedAt,
	}
}

// toDomain converts the scanned row to a domain.SyncCategory
func (r *syncCategoryRow) toDomain() domain.SyncCategory {
	return domain.SyncCategory{
		RunID:            r.RunID,
		Category:         r.Category,
		RemoteTotal:      r.RemoteTotal,
		Batches:          r.Batches,
		AbandonedBatches: r.AbandonedBatches,
		Done:             nullToBool(r.Done),
		Tally: domain.Tally{
			Processed: r.Processed,
			Stored:    r.Stored,
			Skipped:   r.Skipped,
			Diverged:  r.Diverged,
			Failed:    r.Failed,
		},
	}
}

// syncCategoryArgs prepares arguments in syncCategoryColumns order
func syncCategoryArgs(c *domain.SyncCategory) []interface{} {
	return []interface{}{
		c.RunID,
		c.Category,
		c.RemoteTotal,
		c.Batches,
		c.AbandonedBatches,
		boolToInt(c.Done),
		c.Processed,
		c.Stored,
		c.Skipped,
		c.Diverged,
		c.Failed,
		time.Now().UnixMilli(),
	}
}
