package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"triviamirror/internal/domain"
	"triviamirror/internal/opentdb"
)

// QuestionSource is the remote side of ingestion
type QuestionSource interface {
	CategoryCount(ctx context.Context, categoryID int) (int, error)
	Questions(ctx context.Context, amount, categoryID int, token string) (*opentdb.QuestionsResponse, error)
}

// TokenSession supplies and renews the session token for batch fetches
type TokenSession interface {
	Acquire(ctx context.Context) (string, error)
	Reset(ctx context.Context) (string, error)
}

// CandidateResolver stores or deduplicates one incoming question
type CandidateResolver interface {
	Resolve(ctx context.Context, c domain.Candidate) (*domain.Resolution, error)
}

// PipelineStore is the persistence Pipeline needs
type PipelineStore interface {
	CountQuestionsInCategory(ctx context.Context, categoryID int64) (int, error)
	CreateSyncRun(ctx context.Context, run *domain.SyncRun) error
	UpdateSyncRun(ctx context.Context, run *domain.SyncRun) error
	SaveSyncCategory(ctx context.Context, c *domain.SyncCategory) error
}

// PipelineConfig bounds batch sizes and retries
type PipelineConfig struct {
	// MaxBatchSize is the largest amount requested per fetch
	MaxBatchSize int
	// MaxBatchRetries is how often a batch failing with anything but an
	// exhausted token is retried before it is abandoned. Zero abandons at once.
	MaxBatchRetries int
	// MaxTokenResets bounds consecutive token resets for one batch
	MaxTokenResets int
	// DisableShuffle processes categories in remote id order
	DisableShuffle bool
}

// DefaultPipelineConfig returns the remote source's batch ceiling with
// abandon-on-error semantics
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		MaxBatchSize:    opentdb.MaxAmount,
		MaxBatchRetries: 0,
		MaxTokenResets:  3,
	}
}

// RunReport is the outcome of one pipeline run
type RunReport struct {
	Run        domain.SyncRun        `json:"run"`
	Categories []domain.SyncCategory `json:"categories"`
}

// Pipeline fetches questions category by category and feeds them to the
// resolver. Batches, categories and questions are processed one at a time.
type Pipeline struct {
	source   QuestionSource
	session  TokenSession
	resolver CandidateResolver
	store    PipelineStore
	catalog  *Catalog
	eventBus *EventBus
	cfg      PipelineConfig

	shuffle func([]domain.Category)
	newID   func() string
	now     func() time.Time
}

// NewPipeline creates an ingestion pipeline
func NewPipeline(source QuestionSource, session TokenSession, resolver CandidateResolver, store PipelineStore, catalog *Catalog, eventBus *EventBus, cfg PipelineConfig) *Pipeline {
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = opentdb.MaxAmount
	}
	return &Pipeline{
		source:   source,
		session:  session,
		resolver: resolver,
		store:    store,
		catalog:  catalog,
		eventBus: eventBus,
		cfg:      cfg,
		shuffle: func(cats []domain.Category) {
			rand.Shuffle(len(cats), func(i, j int) { cats[i], cats[j] = cats[j], cats[i] })
		},
		newID: uuid.NewString,
		now:   time.Now,
	}
}

// Run ingests every catalog category, or only those named in filter.
// Per-question and per-batch failures are counted, never returned. The run
// fails before any fetch when no session token can be acquired; otherwise
// errors cover run bookkeeping only. A cancelled context stops the
// run after the current write.
func (p *Pipeline) Run(ctx context.Context, filter []string) (*RunReport, error) {
	run := domain.SyncRun{
		ID:        p.newID(),
		StartedAt: p.now().UTC(),
		Status:    domain.RunStatusRunning,
	}
	if err := p.store.CreateSyncRun(ctx, &run); err != nil {
		return nil, fmt.Errorf("failed to record sync run: %w", err)
	}
	log.Printf("Sync run %s started", run.ID)
	p.eventBus.Publish(Event{Type: EventSyncStarted, Payload: run})

	// Without a token every batch would fail, so the run stops here
	if _, err := p.session.Acquire(ctx); err != nil {
		p.finish(ctx, &run, domain.RunStatusFailed)
		return &RunReport{Run: run}, fmt.Errorf("failed to acquire session token: %w", err)
	}

	wanted := make(map[string]bool, len(filter))
	for _, name := range filter {
		wanted[name] = true
	}
	for _, name := range filter {
		if _, ok := p.catalog.Category(name); !ok {
			log.Printf("Requested category %q is not known locally", name)
		}
	}

	categories := p.catalog.Categories()
	if !p.cfg.DisableShuffle {
		p.shuffle(categories)
	}

	report := &RunReport{}
	for _, cat := range categories {
		if ctx.Err() != nil {
			break
		}
		if len(wanted) > 0 && !wanted[cat.Name] {
			log.Printf("Skipping category %s", cat.Name)
			p.eventBus.Publish(Event{Type: EventCategorySkipped, Payload: map[string]string{"category": cat.Name}})
			continue
		}

		progress := p.ingestCategory(ctx, run.ID, cat)
		run.Tally.Add(progress.Tally)
		report.Categories = append(report.Categories, *progress)
	}

	status := domain.RunStatusCompleted
	if ctx.Err() != nil {
		status = domain.RunStatusCancelled
	}
	p.finish(ctx, &run, status)

	report.Run = run
	return report, nil
}

// finish stamps and records the final state of a run
func (p *Pipeline) finish(ctx context.Context, run *domain.SyncRun, status domain.RunStatus) {
	finished := p.now().UTC()
	run.FinishedAt = &finished
	run.Status = status

	// Bookkeeping survives cancellation so an interrupted run is still recorded
	if err := p.store.UpdateSyncRun(context.WithoutCancel(ctx), run); err != nil {
		log.Printf("Failed to record sync run %s: %v", run.ID, err)
	}

	log.Printf("Sync run %s %s in %s: %s processed, %s stored, %s skipped, %s diverged, %s failed",
		run.ID, run.Status, finished.Sub(run.StartedAt).Round(time.Second),
		humanize.Comma(int64(run.Processed)), humanize.Comma(int64(run.Stored)),
		humanize.Comma(int64(run.Skipped)), humanize.Comma(int64(run.Diverged)),
		humanize.Comma(int64(run.Failed)))
	p.eventBus.Publish(Event{Type: EventSyncFinished, Payload: *run})
}

// ingestCategory runs the fetch loop for one category until the remote
// total is exhausted or the local count has caught up with it
func (p *Pipeline) ingestCategory(ctx context.Context, runID string, cat domain.Category) *domain.SyncCategory {
	progress := &domain.SyncCategory{RunID: runID, Category: cat.Name}
	defer p.saveProgress(ctx, progress)

	total, err := p.source.CategoryCount(ctx, cat.RemoteID)
	if err != nil {
		log.Printf("Failed to count questions in %s: %v", cat.Name, err)
		return progress
	}
	progress.RemoteTotal = total

	log.Printf("Category %s: %s questions available", cat.Name, humanize.Comma(int64(total)))
	p.eventBus.Publish(Event{Type: EventCategoryStarted, Payload: map[string]interface{}{"category": cat.Name, "remote_total": total}})

	remaining := total
	resets, retries := 0, 0
	caughtUp := false

	for remaining > 0 {
		if ctx.Err() != nil {
			break
		}

		local, err := p.store.CountQuestionsInCategory(ctx, cat.ID)
		if err != nil {
			log.Printf("Failed to count local questions in %s: %v", cat.Name, err)
		} else if local >= total {
			log.Printf("Category %s already holds %s of %s questions", cat.Name,
				humanize.Comma(int64(local)), humanize.Comma(int64(total)))
			caughtUp = true
			break
		}

		batch := min(remaining, p.cfg.MaxBatchSize)
		remaining -= batch

		results, err := p.fetch(ctx, cat, batch)
		if err != nil {
			if ctx.Err() != nil {
				remaining += batch
				break
			}

			if opentdb.IsTokenEmpty(err) && resets < p.cfg.MaxTokenResets {
				resets++
				remaining += batch
				log.Printf("Token exhausted in %s, resetting (%d/%d)", cat.Name, resets, p.cfg.MaxTokenResets)
				if _, rerr := p.session.Reset(ctx); rerr != nil {
					log.Printf("Failed to reset token: %v", rerr)
				}
				p.eventBus.Publish(Event{Type: EventTokenReset, Payload: map[string]interface{}{"category": cat.Name, "resets": resets}})
				continue
			}

			if !opentdb.IsTokenEmpty(err) && retries < p.cfg.MaxBatchRetries {
				retries++
				remaining += batch
				log.Printf("Batch of %d in %s failed, retrying (%d/%d): %v", batch, cat.Name, retries, p.cfg.MaxBatchRetries, err)
				continue
			}

			resets, retries = 0, 0
			progress.AbandonedBatches++
			log.Printf("Abandoning batch of %d in %s: %v", batch, cat.Name, err)
			p.eventBus.Publish(Event{Type: EventBatchAbandoned, Payload: map[string]interface{}{"category": cat.Name, "amount": batch, "error": err.Error()}})
			continue
		}
		resets, retries = 0, 0

		tally := p.processBatch(ctx, results)
		progress.Batches++
		progress.Tally.Add(tally)

		log.Printf("   batch %d of %s: %d processed, %d stored, %d skipped, %d diverged, %d failed, %s remaining",
			progress.Batches, cat.Name, tally.Processed, tally.Stored, tally.Skipped, tally.Diverged, tally.Failed,
			humanize.Comma(int64(remaining)))
		p.eventBus.Publish(Event{Type: EventBatchProcessed, Payload: map[string]interface{}{
			"category":  cat.Name,
			"batch":     progress.Batches,
			"tally":     tally,
			"remaining": remaining,
		}})
		p.saveProgress(ctx, progress)
	}

	progress.Done = ctx.Err() == nil && (remaining == 0 || caughtUp)
	log.Printf("Category %s finished: %s processed, %s stored", cat.Name,
		humanize.Comma(int64(progress.Processed)), humanize.Comma(int64(progress.Stored)))
	p.eventBus.Publish(Event{Type: EventCategoryCompleted, Payload: *progress})
	return progress
}

// errNoResults marks a successful response without a results list
var errNoResults = errors.New("response carried no results")

// fetch requests one batch with the current session token
func (p *Pipeline) fetch(ctx context.Context, cat domain.Category, amount int) ([]domain.Candidate, error) {
	token, err := p.session.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire token: %w", err)
	}
	resp, err := p.source.Questions(ctx, amount, cat.RemoteID, token)
	if err != nil {
		return nil, err
	}
	if resp.Results == nil {
		return nil, errNoResults
	}
	return resp.Results, nil
}

// processBatch normalizes and resolves each result in order
func (p *Pipeline) processBatch(ctx context.Context, results []domain.Candidate) domain.Tally {
	var tally domain.Tally
	for _, raw := range results {
		if ctx.Err() != nil {
			break
		}
		c := raw.Normalized()
		res, err := p.resolver.Resolve(ctx, c)
		if err != nil {
			tally.RecordFailure()
			log.Printf("Failed to store question %q: %v", c.Text, err)
			continue
		}
		tally.Record(res.Outcome)
	}
	return tally
}

func (p *Pipeline) saveProgress(ctx context.Context, progress *domain.SyncCategory) {
	if err := p.store.SaveSyncCategory(context.WithoutCancel(ctx), progress); err != nil {
		log.Printf("Failed to record progress for %s: %v", progress.Category, err)
	}
}
