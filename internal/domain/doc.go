// Package domain defines the core types for the triviamirror question bank.
//
// This package contains the entities mirrored from the remote trivia source
// and the value objects produced while ingesting them.
//
// # Reference Data
//
// Category, Type and Difficulty are small lookup entities that every Question
// points to. They are kept in bijection with the remote source by the
// reference sync in the service package.
//
// # Questions and Answers
//
// Question is identified by its text, which is globally unique. Answer rows are
// shared by content: two questions with byte-identical answer text reference
// the same Answer.
//
// Candidate is an incoming question as delivered by the remote source, before
// it has been resolved against local data.
//
// # Deduplication
//
// CompareQuestion produces a Diff between a stored Question and a Candidate
// with the same text. An empty Diff means the candidate is a plain duplicate;
// a non-empty one is reported for human review and never applied.
//
// # Design Principles
//
// - No database or network dependencies
// - Pure comparison and normalization logic
package domain
