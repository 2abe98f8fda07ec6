package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"triviamirror/internal/domain"
)

// SyncRunReader reads persisted run reports
type SyncRunReader interface {
	LatestSyncRun(ctx context.Context) (*domain.SyncRun, error)
	ListSyncCategories(ctx context.Context, runID string) ([]domain.SyncCategory, error)
}

// SyncOptions selects what one sync pass does
type SyncOptions struct {
	// Categories restricts ingestion to these names when non-empty
	Categories []string
	// SkipTrim disables the whitespace pass after ingestion
	SkipTrim bool
}

// SyncSummary is the outcome of a full sync pass
type SyncSummary struct {
	References *SyncReport `json:"references"`
	Run        *RunReport  `json:"run"`
	Trim       *TrimReport `json:"trim,omitempty"`
}

// SyncService runs reference sync, ingestion and maintenance in order.
// At most one pass runs at a time.
type SyncService struct {
	refs        *ReferenceSync
	pipeline    *Pipeline
	maintenance *Maintenance
	runs        SyncRunReader

	running atomic.Bool
	wg      sync.WaitGroup
}

// NewSyncService creates a sync service
func NewSyncService(refs *ReferenceSync, pipeline *Pipeline, maintenance *Maintenance, runs SyncRunReader) *SyncService {
	return &SyncService{
		refs:        refs,
		pipeline:    pipeline,
		maintenance: maintenance,
		runs:        runs,
	}
}

// Run performs a sync pass, failing with ErrSyncRunning if one is active
func (s *SyncService) Run(ctx context.Context, opts SyncOptions) (*SyncSummary, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrSyncRunning
	}
	defer s.running.Store(false)
	return s.run(ctx, opts)
}

// Start launches a sync pass in the background
func (s *SyncService) Start(ctx context.Context, opts SyncOptions) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrSyncRunning
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.running.Store(false)
		if _, err := s.run(ctx, opts); err != nil {
			log.Printf("Background sync failed: %v", err)
		}
	}()
	return nil
}

// Running reports whether a pass is active
func (s *SyncService) Running() bool {
	return s.running.Load()
}

// Wait blocks until a background pass started with Start has returned
func (s *SyncService) Wait() {
	s.wg.Wait()
}

// Latest returns the most recent run report, or nil before the first run
func (s *SyncService) Latest(ctx context.Context) (*RunReport, error) {
	run, err := s.runs.LatestSyncRun(ctx)
	if err != nil || run == nil {
		return nil, err
	}
	categories, err := s.runs.ListSyncCategories(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	return &RunReport{Run: *run, Categories: categories}, nil
}

func (s *SyncService) run(ctx context.Context, opts SyncOptions) (*SyncSummary, error) {
	summary := &SyncSummary{}

	refs, err := s.refs.Sync(ctx)
	if err != nil {
		return nil, fmt.Errorf("reference sync failed: %w", err)
	}
	summary.References = refs

	run, err := s.pipeline.Run(ctx, opts.Categories)
	if err != nil {
		return summary, fmt.Errorf("ingestion failed: %w", err)
	}
	summary.Run = run

	if opts.SkipTrim || ctx.Err() != nil {
		return summary, nil
	}
	trim, err := s.maintenance.TrimWhitespace(ctx)
	if err != nil {
		return summary, fmt.Errorf("whitespace pass failed: %w", err)
	}
	summary.Trim = trim
	return summary, nil
}
