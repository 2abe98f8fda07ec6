package service

import (
	"errors"
	"fmt"

	"triviamirror/internal/domain"
)

// ReferenceLookupError reports an incoming question naming a category,
// type or difficulty that does not exist locally
type ReferenceLookupError struct {
	Kind domain.ReferenceKind
	Name string
}

func (e *ReferenceLookupError) Error() string {
	return fmt.Sprintf("%s '%s' not found", e.Kind, e.Name)
}

// ErrAnswerUnresolved is returned when an answer can neither be created nor
// found afterwards. The question it belongs to is not stored.
var ErrAnswerUnresolved = errors.New("failed to create or find answer")

// ErrSyncRunning is returned when a sync is requested while one is active
var ErrSyncRunning = errors.New("a sync is already running")
