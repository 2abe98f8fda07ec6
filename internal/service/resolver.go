package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"triviamirror/internal/domain"
	"triviamirror/internal/repository"
)

// QuestionStore is the persistence Resolver needs
type QuestionStore interface {
	FindQuestionByText(ctx context.Context, text string) (*domain.Question, error)
	CreateQuestion(ctx context.Context, q domain.NewQuestion) (int64, error)
}

// Resolver decides whether an incoming question is new, a duplicate, or a
// conflicting copy of a stored one. Stored questions are never overwritten;
// whichever copy arrived first wins.
type Resolver struct {
	questions QuestionStore
	answers   *AnswerResolver
	catalog   *Catalog
	eventBus  *EventBus
}

// NewResolver creates a resolver
func NewResolver(questions QuestionStore, answers *AnswerResolver, catalog *Catalog, eventBus *EventBus) *Resolver {
	return &Resolver{
		questions: questions,
		answers:   answers,
		catalog:   catalog,
		eventBus:  eventBus,
	}
}

// Resolve stores c if its text is unknown. A stored question with the same
// text yields Skipped when every field matches and Diverged otherwise.
// Candidates are expected to be normalized already.
func (r *Resolver) Resolve(ctx context.Context, c domain.Candidate) (*domain.Resolution, error) {
	existing, err := r.questions.FindQuestionByText(ctx, c.Text)
	if err != nil {
		return nil, fmt.Errorf("failed to look up question: %w", err)
	}
	if existing != nil {
		return r.compare(existing, c), nil
	}

	q, err := r.insert(ctx, c)
	if errors.Is(err, repository.ErrConflict) {
		// Someone else stored the same text between lookup and insert
		existing, lookupErr := r.questions.FindQuestionByText(ctx, c.Text)
		if lookupErr != nil {
			return nil, fmt.Errorf("failed to look up question after conflict: %w", lookupErr)
		}
		if existing != nil {
			return r.compare(existing, c), nil
		}
	}
	if err != nil {
		return nil, err
	}

	return &domain.Resolution{Outcome: domain.OutcomeStored, Question: q}, nil
}

func (r *Resolver) compare(existing *domain.Question, c domain.Candidate) *domain.Resolution {
	diff := domain.CompareQuestion(existing, c)
	if diff.Empty() {
		return &domain.Resolution{Outcome: domain.OutcomeSkipped, Question: existing, Reason: "duplicate"}
	}

	logDivergence(diff, c, existing)
	r.eventBus.Publish(Event{Type: EventQuestionDiverged, Payload: diff})
	return &domain.Resolution{Outcome: domain.OutcomeDiverged, Question: existing, Diff: diff}
}

// insert resolves references and answers, then stores the question
func (r *Resolver) insert(ctx context.Context, c domain.Candidate) (*domain.Question, error) {
	refs, err := r.catalog.Resolve(c.Difficulty, c.Category, c.Type)
	if err != nil {
		return nil, err
	}

	answers, err := r.answers.ResolveAll(ctx, c.AnswerTexts())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve answers: %w", err)
	}

	nq := domain.NewQuestion{
		Text:            c.Text,
		DifficultyID:    refs.DifficultyID,
		CategoryID:      refs.CategoryID,
		TypeID:          refs.TypeID,
		CorrectAnswerID: answers[0].ID,
	}
	seen := make(map[int64]bool, len(answers)-1)
	for _, a := range answers[1:] {
		if seen[a.ID] {
			continue
		}
		seen[a.ID] = true
		nq.IncorrectAnswerIDs = append(nq.IncorrectAnswerIDs, a.ID)
	}

	id, err := r.questions.CreateQuestion(ctx, nq)
	if err != nil {
		return nil, err
	}

	return &domain.Question{
		ID:               id,
		Text:             c.Text,
		Difficulty:       c.Difficulty,
		Category:         c.Category,
		Type:             c.Type,
		CorrectAnswer:    c.CorrectAnswer,
		IncorrectAnswers: c.DistinctIncorrect(),
	}, nil
}

const divergenceRule = "================================================================================"

func logDivergence(diff *domain.Diff, incoming domain.Candidate, existing *domain.Question) {
	in, _ := json.MarshalIndent(incoming, "", "  ")
	ex, _ := json.MarshalIndent(existing, "", "  ")

	var b strings.Builder
	b.WriteString(divergenceRule + "\n")
	b.WriteString("DUPED QUESTION WITH DIFFERENCES\n")
	b.WriteString(diff.String() + "\n")
	fmt.Fprintf(&b, "incoming question: %s\n", in)
	fmt.Fprintf(&b, "existing question: %s\n", ex)
	b.WriteString(divergenceRule)
	log.Println(b.String())
}
