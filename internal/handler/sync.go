package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"triviamirror/internal/service"
)

// SyncRunner starts background sync passes and reports on them
type SyncRunner interface {
	Start(ctx context.Context, opts service.SyncOptions) error
	Running() bool
	Latest(ctx context.Context) (*service.RunReport, error)
}

// SyncRequest is the optional body of a sync trigger
type SyncRequest struct {
	Categories []string `json:"categories"`
	SkipTrim   bool     `json:"skip_trim"`
}

// SyncStatus describes the current and most recent sync pass
type SyncStatus struct {
	Running bool               `json:"running"`
	Latest  *service.RunReport `json:"latest,omitempty"`
}

// SyncHandler triggers and reports sync passes
type SyncHandler struct {
	runner SyncRunner
	// baseCtx outlives requests; background passes stop when it is cancelled
	baseCtx context.Context
}

// NewSyncHandler creates a sync handler whose passes run under baseCtx
func NewSyncHandler(baseCtx context.Context, runner SyncRunner) *SyncHandler {
	return &SyncHandler{runner: runner, baseCtx: baseCtx}
}

// TriggerSync starts a background sync pass
func (h *SyncHandler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	var req SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	err := h.runner.Start(h.baseCtx, service.SyncOptions{Categories: req.Categories, SkipTrim: req.SkipTrim})
	if errors.Is(err, service.ErrSyncRunning) {
		writeError(w, "Sync already running", "", http.StatusConflict)
		return
	}
	if err != nil {
		log.Printf("Failed to start sync: %v", err)
		writeError(w, "Failed to start sync", err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]string{"status": "started"}, http.StatusAccepted)
}

// GetSyncStatus returns whether a pass is running and the latest report
func (h *SyncHandler) GetSyncStatus(w http.ResponseWriter, r *http.Request) {
	latest, err := h.runner.Latest(r.Context())
	if err != nil {
		log.Printf("Failed to get sync report: %v", err)
		writeError(w, "Failed to get sync report", err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, SyncStatus{Running: h.runner.Running(), Latest: latest}, http.StatusOK)
}
