package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"triviamirror/internal/domain"
	"triviamirror/internal/repository"
)

// AnswerStore is the persistence AnswerResolver needs
type AnswerStore interface {
	FindAnswerByText(ctx context.Context, text string) (*domain.Answer, error)
	CreateAnswer(ctx context.Context, text string) (*domain.Answer, error)
}

// AnswerResolver maps answer texts to shared answer rows
type AnswerResolver struct {
	store AnswerStore
}

// NewAnswerResolver creates an answer resolver
func NewAnswerResolver(store AnswerStore) *AnswerResolver {
	return &AnswerResolver{store: store}
}

// FindOrCreate returns the answer with this exact text, creating it when
// missing. A create that loses a uniqueness race is resolved by querying
// again; an answer that still cannot be found fails with ErrAnswerUnresolved.
func (r *AnswerResolver) FindOrCreate(ctx context.Context, text string) (*domain.Answer, error) {
	answer, err := r.store.FindAnswerByText(ctx, text)
	if err != nil {
		return nil, err
	}
	if answer != nil {
		return answer, nil
	}

	answer, err = r.store.CreateAnswer(ctx, text)
	if err == nil {
		return answer, nil
	}
	if !errors.Is(err, repository.ErrConflict) {
		return nil, err
	}

	answer, err = r.store.FindAnswerByText(ctx, text)
	if err != nil {
		return nil, err
	}
	if answer == nil {
		return nil, fmt.Errorf("%w: %q", ErrAnswerUnresolved, text)
	}
	return answer, nil
}

// ResolveAll resolves every text concurrently and returns the answers in
// input order
func (r *AnswerResolver) ResolveAll(ctx context.Context, texts []string) ([]domain.Answer, error) {
	answers := make([]domain.Answer, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	for i, text := range texts {
		g.Go(func() error {
			a, err := r.FindOrCreate(gctx, text)
			if err != nil {
				return err
			}
			answers[i] = *a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return answers, nil
}
