package repository

import (
	"context"
	"errors"

	"triviamirror/internal/domain"
)

var (
	// ErrConflict is returned when a write violates a uniqueness constraint
	ErrConflict = errors.New("unique constraint conflict")

	// ErrNotFound is returned when an addressed row does not exist
	ErrNotFound = errors.New("not found")
)

// TextRow is an (id, text) pair used by maintenance passes
type TextRow struct {
	ID   int64
	Text string
}

// ReferenceRepository persists the three reference tables
type ReferenceRepository interface {
	ListTypes(ctx context.Context) ([]domain.Type, error)
	CreateType(ctx context.Context, name string) (*domain.Type, error)
	DeleteType(ctx context.Context, name string) error

	ListDifficulties(ctx context.Context) ([]domain.Difficulty, error)
	CreateDifficulty(ctx context.Context, level string) (*domain.Difficulty, error)
	DeleteDifficulty(ctx context.Context, level string) error

	ListCategories(ctx context.Context) ([]domain.Category, error)
	CreateCategory(ctx context.Context, name string, remoteID int) (*domain.Category, error)
	DeleteCategory(ctx context.Context, name string) error
}

// AnswerRepository persists shared answer texts
type AnswerRepository interface {
	// FindAnswerByText returns nil, nil when no answer has exactly this text
	FindAnswerByText(ctx context.Context, text string) (*domain.Answer, error)
	// CreateAnswer returns ErrConflict when the text already exists
	CreateAnswer(ctx context.Context, text string) (*domain.Answer, error)

	ListAnswers(ctx context.Context) ([]domain.Answer, error)
	UpdateAnswerText(ctx context.Context, id int64, text string) error
	DeleteAnswer(ctx context.Context, id int64) error
	DeleteAllAnswers(ctx context.Context) (int64, error)
}

// QuestionRepository persists questions and their incorrect answer links
type QuestionRepository interface {
	// FindQuestionByText returns nil, nil when no question has exactly this text
	FindQuestionByText(ctx context.Context, text string) (*domain.Question, error)
	// CreateQuestion inserts the question and its join rows in one
	// transaction. Returns ErrConflict when the text already exists.
	CreateQuestion(ctx context.Context, q domain.NewQuestion) (int64, error)

	CountQuestionsInCategory(ctx context.Context, categoryID int64) (int, error)
	ListQuestions(ctx context.Context) ([]domain.Question, error)
	// MatchQuestions lists questions by difficulty level and category name
	MatchQuestions(ctx context.Context, difficulty, category string) ([]domain.Question, error)

	ListQuestionTexts(ctx context.Context) ([]TextRow, error)
	UpdateQuestionText(ctx context.Context, id int64, text string) error
	DeleteAllQuestions(ctx context.Context) (int64, error)
}

// SyncRunRepository persists ingestion progress reports
type SyncRunRepository interface {
	CreateSyncRun(ctx context.Context, run *domain.SyncRun) error
	UpdateSyncRun(ctx context.Context, run *domain.SyncRun) error
	// GetSyncRun returns ErrNotFound for an unknown id
	GetSyncRun(ctx context.Context, id string) (*domain.SyncRun, error)
	// LatestSyncRun returns nil, nil before the first run
	LatestSyncRun(ctx context.Context) (*domain.SyncRun, error)

	SaveSyncCategory(ctx context.Context, c *domain.SyncCategory) error
	ListSyncCategories(ctx context.Context, runID string) ([]domain.SyncCategory, error)
}

// Store is the complete persistence layer
type Store interface {
	ReferenceRepository
	AnswerRepository
	QuestionRepository
	SyncRunRepository

	Ping(ctx context.Context) error
	Close() error
}
