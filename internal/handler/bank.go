package handler

import (
	"bytes"
	"context"
	"io"
	"log"
	"net/http"

	"triviamirror/internal/codec"
	"triviamirror/internal/service"
)

// maxImportBytes bounds the size of an uploaded question bank
const maxImportBytes = 32 << 20

// BankExchanger exports and imports question banks
type BankExchanger interface {
	Export(ctx context.Context, exporter codec.Exporter, w io.Writer) error
	Import(ctx context.Context, importer codec.Importer, r io.Reader) (*service.ImportReport, error)
}

// BankHandler serves question bank export and import
type BankHandler struct {
	svc BankExchanger
}

// NewBankHandler creates a question bank handler
func NewBankHandler(svc BankExchanger) *BankHandler {
	return &BankHandler{svc: svc}
}

// Export writes every stored question in the format named by the path
func (h *BankHandler) Export(w http.ResponseWriter, r *http.Request) {
	c, err := codec.ForFormat(r.PathValue("format"))
	if err != nil {
		writeError(w, "Unsupported format", err.Error(), http.StatusNotFound)
		return
	}

	var buf bytes.Buffer
	if err := h.svc.Export(r.Context(), c, &buf); err != nil {
		log.Printf("Failed to export questions: %v", err)
		writeError(w, "Failed to export questions", err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", c.ContentType())
	w.Header().Set("Content-Disposition", "attachment; filename=questions."+c.Format())
	w.Write(buf.Bytes())
}

// Import ingests a question bank in the format named by the path
func (h *BankHandler) Import(w http.ResponseWriter, r *http.Request) {
	c, err := codec.ForFormat(r.PathValue("format"))
	if err != nil {
		writeError(w, "Unsupported format", err.Error(), http.StatusNotFound)
		return
	}

	report, err := h.svc.Import(r.Context(), c, http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		writeError(w, "Failed to import questions", err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, report, http.StatusOK)
}
