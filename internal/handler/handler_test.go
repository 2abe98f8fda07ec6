package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"triviamirror/internal/codec"
	"triviamirror/internal/domain"
	"triviamirror/internal/service"
)

// ============================================================================
// Fakes
// ============================================================================

type fakeSampler struct {
	questions []service.QuestionView
	err       error
	// last call
	difficulty, category string
	amount               int
}

func (f *fakeSampler) Sample(ctx context.Context, difficulty, category string, amount int) ([]service.QuestionView, error) {
	f.difficulty, f.category, f.amount = difficulty, category, amount
	if f.err != nil {
		return nil, f.err
	}
	if amount < len(f.questions) {
		return f.questions[:amount], nil
	}
	return f.questions, nil
}

type fakeRunner struct {
	mu      sync.Mutex
	running bool
	started []service.SyncOptions
	ctx     context.Context
	latest  *service.RunReport
}

func (f *fakeRunner) Start(ctx context.Context, opts service.SyncOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.running {
		return service.ErrSyncRunning
	}
	f.running = true
	f.ctx = ctx
	f.started = append(f.started, opts)
	return nil
}

func (f *fakeRunner) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func (f *fakeRunner) Latest(ctx context.Context) (*service.RunReport, error) {
	return f.latest, nil
}

type fakeBank struct {
	bank     *domain.QuestionBank
	imported *domain.QuestionBank
}

func (f *fakeBank) Export(ctx context.Context, exporter codec.Exporter, w io.Writer) error {
	return exporter.Export(f.bank, w)
}

func (f *fakeBank) Import(ctx context.Context, importer codec.Importer, r io.Reader) (*service.ImportReport, error) {
	bank, err := importer.Parse(r)
	if err != nil {
		return nil, err
	}
	f.imported = bank
	report := &service.ImportReport{}
	for range bank.Questions {
		report.Record(domain.OutcomeStored)
	}
	return report, nil
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(ctx context.Context) error { return f.err }

func sampleViews() []service.QuestionView {
	return []service.QuestionView{
		{Question: "Q1", CorrectAnswer: service.AnswerView{Answer: "A"}, IncorrectAnswers: []service.AnswerView{{Answer: "B"}}},
		{Question: "Q2", CorrectAnswer: service.AnswerView{Answer: "C"}, IncorrectAnswers: []service.AnswerView{}},
	}
}

func newTestMux(rt Routes) http.Handler {
	mux := http.NewServeMux()
	rt.Register(mux)
	return Chain(mux, Recover, CORS)
}

func decodeError(t *testing.T, body io.Reader) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return resp
}

// ============================================================================
// Question endpoint
// ============================================================================

func TestGetQuestions(t *testing.T) {
	sampler := &fakeSampler{questions: sampleViews()}
	mux := newTestMux(Routes{Questions: NewQuestionHandler(sampler, 10)})

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantError  string
		wantCount  int
		wantAmount int
	}{
		{"default amount", "difficulty=easy&category=Science+%26+Nature", http.StatusOK, "", 1, 1},
		{"explicit amount", "difficulty=easy&category=Science&amount=2", http.StatusOK, "", 2, 2},
		{"missing difficulty", "category=Science", http.StatusBadRequest, "Missing difficulty or category parameter", 0, 0},
		{"missing category", "difficulty=easy", http.StatusBadRequest, "Missing difficulty or category parameter", 0, 0},
		{"zero amount", "difficulty=easy&category=Science&amount=0", http.StatusBadRequest, "Invalid amount parameter", 0, 0},
		{"negative amount", "difficulty=easy&category=Science&amount=-2", http.StatusBadRequest, "Invalid amount parameter", 0, 0},
		{"non-numeric amount", "difficulty=easy&category=Science&amount=five", http.StatusBadRequest, "Invalid amount parameter", 0, 0},
		{"amount over cap", "difficulty=easy&category=Science&amount=11", http.StatusBadRequest, "Invalid amount parameter", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sampler.amount = 0
			req := httptest.NewRequest(http.MethodGet, "/questions?"+tt.query, nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantError != "" {
				if got := decodeError(t, rec.Body); got.Error != tt.wantError {
					t.Errorf("error = %q, want %q", got.Error, tt.wantError)
				}
				if sampler.amount != 0 {
					t.Error("service should not be called for a bad request")
				}
				return
			}

			var got []service.QuestionView
			if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if len(got) != tt.wantCount {
				t.Errorf("got %d questions, want %d", len(got), tt.wantCount)
			}
			if sampler.amount != tt.wantAmount {
				t.Errorf("service amount = %d, want %d", sampler.amount, tt.wantAmount)
			}
		})
	}

	if sampler.category != "Science" {
		t.Errorf("category = %q, want Science", sampler.category)
	}
}

func TestGetQuestionsBody(t *testing.T) {
	mux := newTestMux(Routes{Questions: NewQuestionHandler(&fakeSampler{questions: sampleViews()}, 0)})
	req := httptest.NewRequest(http.MethodGet, "/questions?difficulty=easy&category=x&amount=5", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	want := `[{"question":"Q1","correct_answer":{"answer":"A"},"incorrect_answers":[{"answer":"B"}]},` +
		`{"question":"Q2","correct_answer":{"answer":"C"},"incorrect_answers":[]}]`
	if got := strings.TrimSpace(rec.Body.String()); got != want {
		t.Errorf("body = %s, want %s", got, want)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

func TestGetQuestionsServiceErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"invalid amount", service.ErrInvalidAmount, http.StatusBadRequest},
		{"database", errors.New("disk I/O error"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := newTestMux(Routes{Questions: NewQuestionHandler(&fakeSampler{err: tt.err}, 0)})
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/questions?difficulty=easy&category=x", nil))
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

// ============================================================================
// Sync endpoints
// ============================================================================

type ctxKey struct{}

func TestTriggerSync(t *testing.T) {
	runner := &fakeRunner{}
	base := context.WithValue(context.Background(), ctxKey{}, "server")
	mux := newTestMux(Routes{Sync: NewSyncHandler(base, runner)})

	req := httptest.NewRequest(http.MethodPost, "/api/sync", strings.NewReader(`{"categories":["History"],"skip_trim":true}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	if len(runner.started) != 1 || runner.started[0].Categories[0] != "History" || !runner.started[0].SkipTrim {
		t.Errorf("unexpected start options %+v", runner.started)
	}
	if runner.ctx.Value(ctxKey{}) != "server" {
		t.Error("background sync must run under the server context, not the request")
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sync", nil))
	if rec.Code != http.StatusConflict {
		t.Errorf("second trigger status = %d, want 409", rec.Code)
	}
}

func TestTriggerSyncBadBody(t *testing.T) {
	mux := newTestMux(Routes{Sync: NewSyncHandler(context.Background(), &fakeRunner{})})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sync", strings.NewReader("{")))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestGetSyncStatus(t *testing.T) {
	runner := &fakeRunner{running: true, latest: &service.RunReport{Run: domain.SyncRun{ID: "run-1", Status: domain.RunStatusCompleted}}}
	mux := newTestMux(Routes{Sync: NewSyncHandler(context.Background(), runner)})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sync", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var status SyncStatus
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if !status.Running || status.Latest == nil || status.Latest.Run.ID != "run-1" {
		t.Errorf("unexpected status %+v", status)
	}
}

// ============================================================================
// Bank, health and middleware
// ============================================================================

func TestExportAndImport(t *testing.T) {
	bank := &fakeBank{bank: &domain.QuestionBank{Questions: []domain.Question{{
		ID: 1, Text: "Q1", Difficulty: "easy", Category: "History", Type: "boolean",
		CorrectAnswer: "True", IncorrectAnswers: []string{"False"},
	}}}}
	mux := newTestMux(Routes{Bank: NewBankHandler(bank)})

	for _, tt := range []struct{ format, contentType string }{
		{"json", "application/json"},
		{"yaml", "application/yaml"},
	} {
		t.Run(tt.format, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/export/"+tt.format, nil))
			if rec.Code != http.StatusOK {
				t.Fatalf("export status = %d", rec.Code)
			}
			if got := rec.Header().Get("Content-Type"); got != tt.contentType {
				t.Errorf("Content-Type = %q, want %q", got, tt.contentType)
			}

			imp := httptest.NewRecorder()
			mux.ServeHTTP(imp, httptest.NewRequest(http.MethodPost, "/api/import/"+tt.format, rec.Body))
			if imp.Code != http.StatusOK {
				t.Fatalf("import status = %d (body %s)", imp.Code, imp.Body.String())
			}
			if len(bank.imported.Questions) != 1 || bank.imported.Questions[0].Text != "Q1" {
				t.Errorf("unexpected imported bank %+v", bank.imported)
			}
		})
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/export/xml", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unsupported format status = %d, want 404", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"ok", nil, http.StatusOK},
		{"down", errors.New("connection refused"), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := newTestMux(Routes{Health: Health(fakePinger{err: tt.err})})
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestRecover(t *testing.T) {
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}), Recover, Logger)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	mux := newTestMux(Routes{Questions: NewQuestionHandler(&fakeSampler{}, 0)})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/questions", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}), mark("a"), mark("b"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if strings.Join(order, ",") != "a,b" {
		t.Errorf("order = %v, want a,b", order)
	}
}
