package service

import (
	"context"
	"fmt"
	"html"
	"path/filepath"
	"sync"
	"testing"

	"triviamirror/internal/domain"
	"triviamirror/internal/opentdb"
	"triviamirror/internal/repository/sqlstore"
)

// ============================================================================
// Test Helpers
// ============================================================================

// newTestStore creates a SQLite store in a temporary directory
func newTestStore(t *testing.T) *sqlstore.Store {
	t.Helper()
	store, err := sqlstore.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// assertNoError fails the test if err is not nil
func assertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

var testCategories = []opentdb.RemoteCategory{
	{ID: 9, Name: "General Knowledge"},
	{ID: 17, Name: "Science & Nature"},
}

// fakeCategories serves a fixed remote category list
type fakeCategories struct {
	categories []opentdb.RemoteCategory
	err        error
	// block, when set, delays Categories until it is closed
	block chan struct{}
}

func (f *fakeCategories) Categories(ctx context.Context) ([]opentdb.RemoteCategory, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.categories, f.err
}

// fetchCall records one batch request
type fetchCall struct {
	Amount     int
	CategoryID int
	Token      string
}

// fakeSource generates unique questions per category on demand
type fakeSource struct {
	mu       sync.Mutex
	totals   map[int]int
	names    map[int]string
	failures map[int]error // keyed by 1-based call number
	failFrom int           // when non-zero, every call from this number fails with failErr
	failErr  error
	calls    []fetchCall
	served   map[int]int
}

func newFakeSource(totals map[int]int) *fakeSource {
	names := map[int]string{}
	for _, c := range testCategories {
		names[c.ID] = c.Name
	}
	return &fakeSource{
		totals:   totals,
		names:    names,
		failures: map[int]error{},
		served:   map[int]int{},
	}
}

func (f *fakeSource) CategoryCount(ctx context.Context, categoryID int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.totals[categoryID], nil
}

func (f *fakeSource) Questions(ctx context.Context, amount, categoryID int, token string) (*opentdb.QuestionsResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, fetchCall{Amount: amount, CategoryID: categoryID, Token: token})
	n := len(f.calls)
	if err := f.failures[n]; err != nil {
		return nil, err
	}
	if f.failFrom > 0 && n >= f.failFrom {
		return nil, f.failErr
	}

	resp := &opentdb.QuestionsResponse{ResponseCode: opentdb.CodeSuccess, Results: []domain.Candidate{}}
	for i := 0; i < amount; i++ {
		f.served[categoryID]++
		resp.Results = append(resp.Results, fakeCandidate(f.names[categoryID], f.served[categoryID]))
	}
	return resp, nil
}

func (f *fakeSource) Amounts() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.Amount
	}
	return out
}

// fakeCandidate builds a question as the remote source delivers it, with
// an entity-encoded category and padded texts
func fakeCandidate(category string, n int) domain.Candidate {
	return domain.Candidate{
		Text:             fmt.Sprintf(" %s question %d ", category, n),
		Difficulty:       "easy",
		Category:         html.EscapeString(category),
		Type:             "multiple",
		CorrectAnswer:    fmt.Sprintf("%s answer %d ", category, n),
		IncorrectAnswers: []string{"Wrong A", " Wrong B", "Wrong C"},
	}
}

// fakeSession hands out numbered tokens
type fakeSession struct {
	mu       sync.Mutex
	token    string
	acquires int
	resets   int
	// acquireErr, when set, fails every token request
	acquireErr error
}

func (f *fakeSession) Acquire(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acquires++
	if f.acquireErr != nil {
		return "", f.acquireErr
	}
	if f.token == "" {
		f.token = "token-0"
	}
	return f.token, nil
}

func (f *fakeSession) Reset(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	f.token = fmt.Sprintf("token-%d", f.resets)
	return f.token, nil
}

// harness wires real services over a temporary store
type harness struct {
	store    *sqlstore.Store
	refs     *ReferenceSync
	resolver *Resolver
	source   *fakeSource
	session  *fakeSession
	pipeline *Pipeline
	bus      *EventBus
}

func newHarness(t *testing.T, totals map[int]int, cfg PipelineConfig) *harness {
	t.Helper()
	store := newTestStore(t)
	bus := NewEventBus()
	refs := NewReferenceSync(store, &fakeCategories{categories: testCategories},
		domain.DefaultTypes, domain.DefaultDifficulties, bus)
	_, err := refs.Sync(context.Background())
	assertNoError(t, err)

	resolver := NewResolver(store, NewAnswerResolver(store), refs.Catalog(), bus)
	source := newFakeSource(totals)
	session := &fakeSession{}
	cfg.DisableShuffle = true
	pipeline := NewPipeline(source, session, resolver, store, refs.Catalog(), bus, cfg)

	ids := 0
	pipeline.newID = func() string {
		ids++
		return fmt.Sprintf("run-%d", ids)
	}

	return &harness{
		store:    store,
		refs:     refs,
		resolver: resolver,
		source:   source,
		session:  session,
		pipeline: pipeline,
		bus:      bus,
	}
}

// counts returns the number of stored questions and answers
func (h *harness) counts(t *testing.T) (questions, answers int) {
	t.Helper()
	qs, err := h.store.ListQuestions(context.Background())
	assertNoError(t, err)
	as, err := h.store.ListAnswers(context.Background())
	assertNoError(t, err)
	return len(qs), len(as)
}
