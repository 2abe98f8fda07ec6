package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"triviamirror/internal/domain"
	"triviamirror/internal/repository"
)

// MaintenanceStore is the persistence Maintenance needs
type MaintenanceStore interface {
	ListAnswers(ctx context.Context) ([]domain.Answer, error)
	UpdateAnswerText(ctx context.Context, id int64, text string) error
	DeleteAnswer(ctx context.Context, id int64) error
	ListQuestionTexts(ctx context.Context) ([]repository.TextRow, error)
	UpdateQuestionText(ctx context.Context, id int64, text string) error
	DeleteAllQuestions(ctx context.Context) (int64, error)
	DeleteAllAnswers(ctx context.Context) (int64, error)
}

// TrimReport counts the rows touched by a whitespace pass
type TrimReport struct {
	AnswersTrimmed   int `json:"answers_trimmed"`
	AnswersDeleted   int `json:"answers_deleted"`
	QuestionsTrimmed int `json:"questions_trimmed"`
	QuestionsFailed  int `json:"questions_failed"`
}

// Modified returns how many rows were rewritten or removed
func (r TrimReport) Modified() int {
	return r.AnswersTrimmed + r.AnswersDeleted + r.QuestionsTrimmed
}

// Maintenance runs repair passes over stored questions and answers
type Maintenance struct {
	store    MaintenanceStore
	eventBus *EventBus
}

// NewMaintenance creates a maintenance service
func NewMaintenance(store MaintenanceStore, eventBus *EventBus) *Maintenance {
	return &Maintenance{store: store, eventBus: eventBus}
}

// TrimWhitespace strips leading and trailing whitespace from every answer
// and question. An answer whose trimmed text already exists is deleted
// instead, which removes the questions using it until the next seed.
// A question whose trimmed text already exists is left as is and counted
// as failed.
func (m *Maintenance) TrimWhitespace(ctx context.Context) (*TrimReport, error) {
	report := &TrimReport{}

	answers, err := m.store.ListAnswers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	for _, a := range answers {
		trimmed := strings.TrimSpace(a.Text)
		if trimmed == a.Text {
			continue
		}
		err := m.store.UpdateAnswerText(ctx, a.ID, trimmed)
		if err == nil {
			report.AnswersTrimmed++
			continue
		}
		if !errors.Is(err, repository.ErrConflict) {
			return report, fmt.Errorf("failed to trim answer %d: %w", a.ID, err)
		}

		log.Printf("Failed to update answer %q: %v -- deleting answer, you will need to re-run seed", a.Text, err)
		if err := m.store.DeleteAnswer(ctx, a.ID); err != nil {
			return report, fmt.Errorf("failed to delete answer %d: %w", a.ID, err)
		}
		report.AnswersDeleted++
	}
	log.Printf("Trimming completed. Total answers trimmed: %d", report.AnswersTrimmed+report.AnswersDeleted)

	questions, err := m.store.ListQuestionTexts(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to list questions: %w", err)
	}
	for _, q := range questions {
		trimmed := strings.TrimSpace(q.Text)
		if trimmed == q.Text {
			continue
		}
		err := m.store.UpdateQuestionText(ctx, q.ID, trimmed)
		if err == nil {
			report.QuestionsTrimmed++
			continue
		}
		if !errors.Is(err, repository.ErrConflict) {
			return report, fmt.Errorf("failed to trim question %d: %w", q.ID, err)
		}
		log.Printf("Failed to trim question %q: trimmed text already stored", q.Text)
		report.QuestionsFailed++
	}
	log.Printf("Trimming completed. Total questions trimmed: %d", report.QuestionsTrimmed)

	m.eventBus.Publish(Event{Type: EventTrimCompleted, Payload: report})
	return report, nil
}

// Purge deletes every question, then every answer. Reference data is kept.
func (m *Maintenance) Purge(ctx context.Context) error {
	questions, err := m.store.DeleteAllQuestions(ctx)
	if err != nil {
		return err
	}
	answers, err := m.store.DeleteAllAnswers(ctx)
	if err != nil {
		return err
	}
	log.Printf("Purged %d questions and %d answers", questions, answers)
	return nil
}
