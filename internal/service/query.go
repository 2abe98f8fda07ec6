package service

import (
	"context"
	"errors"
	"math/rand/v2"

	"triviamirror/internal/domain"
)

// ErrInvalidAmount is returned for a non-positive sample size
var ErrInvalidAmount = errors.New("amount must be a positive integer")

// QuestionMatcher finds questions by difficulty level and category name
type QuestionMatcher interface {
	MatchQuestions(ctx context.Context, difficulty, category string) ([]domain.Question, error)
}

// AnswerView is the public shape of an answer
type AnswerView struct {
	Answer string `json:"answer"`
}

// QuestionView is the public shape of a sampled question
type QuestionView struct {
	Question         string       `json:"question"`
	CorrectAnswer    AnswerView   `json:"correct_answer"`
	IncorrectAnswers []AnswerView `json:"incorrect_answers"`
}

// QueryService serves random samples of stored questions
type QueryService struct {
	repo    QuestionMatcher
	shuffle func([]domain.Question)
}

// NewQueryService creates a query service
func NewQueryService(repo QuestionMatcher) *QueryService {
	return &QueryService{
		repo: repo,
		shuffle: func(qs []domain.Question) {
			rand.Shuffle(len(qs), func(i, j int) { qs[i], qs[j] = qs[j], qs[i] })
		},
	}
}

// Sample returns up to amount shuffled questions of the given difficulty
// and category. An unknown difficulty or category yields an empty list.
func (s *QueryService) Sample(ctx context.Context, difficulty, category string, amount int) ([]QuestionView, error) {
	if amount < 1 {
		return nil, ErrInvalidAmount
	}

	questions, err := s.repo.MatchQuestions(ctx, difficulty, category)
	if err != nil {
		return nil, err
	}
	s.shuffle(questions)
	if len(questions) > amount {
		questions = questions[:amount]
	}

	out := make([]QuestionView, 0, len(questions))
	for _, q := range questions {
		view := QuestionView{
			Question:         q.Text,
			CorrectAnswer:    AnswerView{Answer: q.CorrectAnswer},
			IncorrectAnswers: make([]AnswerView, 0, len(q.IncorrectAnswers)),
		}
		for _, a := range q.IncorrectAnswers {
			view.IncorrectAnswers = append(view.IncorrectAnswers, AnswerView{Answer: a})
		}
		out = append(out, view)
	}
	return out, nil
}
