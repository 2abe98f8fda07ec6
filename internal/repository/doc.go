// Package repository defines the data access interfaces for the trivia mirror.
//
// Services depend on the narrow interfaces (ReferenceRepository,
// AnswerRepository, QuestionRepository, SyncRunRepository); the composed
// Store is implemented by the sqlstore subpackage for SQLite and PostgreSQL.
//
// # Errors
//
// Uniqueness violations surface as ErrConflict regardless of driver, so
// callers can implement find-or-create by re-querying after a conflict.
// Lookups that address a row by text return nil, nil when nothing matches;
// lookups by id return ErrNotFound.
//
// # Referential Behavior
//
// Deleting a category, type or difficulty leaves dependent questions in
// place with a NULL reference. Deleting an answer removes every question
// that uses it, as correct or incorrect answer.
package repository
