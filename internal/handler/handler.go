package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"triviamirror/internal/service"
)

// Sampler returns random questions for a difficulty and category
type Sampler interface {
	Sample(ctx context.Context, difficulty, category string, amount int) ([]service.QuestionView, error)
}

// ErrorResponse is the JSON body of every error reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// QuestionHandler serves the public question endpoint
type QuestionHandler struct {
	svc Sampler
	// maxAmount caps the amount parameter; zero means no cap
	maxAmount int
}

// NewQuestionHandler creates a question handler
func NewQuestionHandler(svc Sampler, maxAmount int) *QuestionHandler {
	return &QuestionHandler{svc: svc, maxAmount: maxAmount}
}

// GetQuestions returns a shuffled sample of questions matching the
// difficulty and category query parameters
func (h *QuestionHandler) GetQuestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	difficulty := q.Get("difficulty")
	category := q.Get("category")
	if difficulty == "" || category == "" {
		writeError(w, "Missing difficulty or category parameter", "", http.StatusBadRequest)
		return
	}

	amount := 1
	if raw := q.Get("amount"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, "Invalid amount parameter", "amount must be a positive integer", http.StatusBadRequest)
			return
		}
		amount = n
	}
	if h.maxAmount > 0 && amount > h.maxAmount {
		writeError(w, "Invalid amount parameter", fmt.Sprintf("amount must not exceed %d", h.maxAmount), http.StatusBadRequest)
		return
	}

	questions, err := h.svc.Sample(r.Context(), difficulty, category, amount)
	if err != nil {
		if errors.Is(err, service.ErrInvalidAmount) {
			writeError(w, "Invalid amount parameter", err.Error(), http.StatusBadRequest)
			return
		}
		log.Printf("Failed to sample questions: %v", err)
		writeError(w, "Failed to get questions", err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, questions, http.StatusOK)
}

// Pinger reports whether the database is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health reports database reachability
func Health(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			writeError(w, "Database unavailable", err.Error(), http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
	}
}

func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode JSON: %v", err)
	}
}

func writeError(w http.ResponseWriter, error, details string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Details: details,
	}); err != nil {
		log.Printf("Failed to encode error response: %v", err)
	}
}
