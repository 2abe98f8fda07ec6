package handler

import "net/http"

// Routes groups the handlers mounted by the server
type Routes struct {
	Questions *QuestionHandler
	Sync      *SyncHandler
	Bank      *BankHandler
	Health    http.HandlerFunc
	Events    http.Handler
}

// Register mounts every non-nil handler on mux
func (rt Routes) Register(mux *http.ServeMux) {
	if rt.Questions != nil {
		mux.HandleFunc("GET /questions", rt.Questions.GetQuestions)
	}
	if rt.Health != nil {
		mux.HandleFunc("GET /health", rt.Health)
	}
	if rt.Events != nil {
		mux.Handle("GET /events", rt.Events)
	}
	if rt.Sync != nil {
		mux.HandleFunc("POST /api/sync", rt.Sync.TriggerSync)
		mux.HandleFunc("GET /api/sync", rt.Sync.GetSyncStatus)
	}
	if rt.Bank != nil {
		mux.HandleFunc("GET /api/export/{format}", rt.Bank.Export)
		mux.HandleFunc("POST /api/import/{format}", rt.Bank.Import)
	}
}
