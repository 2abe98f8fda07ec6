package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"triviamirror/internal/domain"
)

func seedQuery(t *testing.T, h *harness) {
	t.Helper()
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		_, err := h.resolver.Resolve(ctx, domain.Candidate{
			Text:             fmt.Sprintf("Easy science %d", i),
			Difficulty:       "easy",
			Category:         "Science & Nature",
			Type:             "multiple",
			CorrectAnswer:    fmt.Sprintf("Right %d", i),
			IncorrectAnswers: []string{"Wrong 1", "Wrong 2", "Wrong 3"},
		})
		assertNoError(t, err)
	}
	_, err := h.resolver.Resolve(ctx, domain.Candidate{
		Text:             "Hard science",
		Difficulty:       "hard",
		Category:         "Science & Nature",
		Type:             "boolean",
		CorrectAnswer:    "True",
		IncorrectAnswers: []string{"False"},
	})
	assertNoError(t, err)
}

func TestQueryServiceSample(t *testing.T) {
	h := newHarness(t, nil, DefaultPipelineConfig())
	seedQuery(t, h)
	svc := NewQueryService(h.store)
	ctx := context.Background()

	tests := []struct {
		name       string
		difficulty string
		category   string
		amount     int
		want       int
	}{
		{"single", "easy", "Science & Nature", 1, 1},
		{"limited", "easy", "Science & Nature", 2, 2},
		{"more than stored", "easy", "Science & Nature", 10, 3},
		{"other difficulty", "hard", "Science & Nature", 5, 1},
		{"unknown category", "easy", "Sports", 5, 0},
		{"unknown difficulty", "extreme", "Science & Nature", 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Sample(ctx, tt.difficulty, tt.category, tt.amount)
			assertNoError(t, err)
			if len(got) != tt.want {
				t.Errorf("got %d questions, want %d", len(got), tt.want)
			}
			if got == nil {
				t.Error("expected an empty list, not nil")
			}
		})
	}
}

func TestQueryServiceInvalidAmount(t *testing.T) {
	svc := NewQueryService(newTestStore(t))
	for _, amount := range []int{0, -3} {
		if _, err := svc.Sample(context.Background(), "easy", "Science & Nature", amount); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("amount %d: expected ErrInvalidAmount, got %v", amount, err)
		}
	}
}

func TestQueryServiceShape(t *testing.T) {
	h := newHarness(t, nil, DefaultPipelineConfig())
	seedQuery(t, h)
	svc := NewQueryService(h.store)
	svc.shuffle = func([]domain.Question) {}

	got, err := svc.Sample(context.Background(), "hard", "Science & Nature", 1)
	assertNoError(t, err)
	if len(got) != 1 {
		t.Fatalf("expected one question, got %d", len(got))
	}

	want := QuestionView{
		Question:         "Hard science",
		CorrectAnswer:    AnswerView{Answer: "True"},
		IncorrectAnswers: []AnswerView{{Answer: "False"}},
	}
	if got[0].Question != want.Question || got[0].CorrectAnswer != want.CorrectAnswer ||
		len(got[0].IncorrectAnswers) != 1 || got[0].IncorrectAnswers[0] != want.IncorrectAnswers[0] {
		t.Errorf("got %+v, want %+v", got[0], want)
	}
}
