// Package service implements the trivia mirror's business logic.
//
// # Sync Pass
//
// A sync pass runs three stages in order. ReferenceSync converges the
// types, difficulties and categories tables to the remote sets and
// refreshes the Catalog snapshot. Pipeline then walks the categories in
// random order, fetching bounded batches through the rate-limited client
// and handing each normalized question to the Resolver. Finally
// Maintenance trims stray whitespace from stored texts.
//
// # Deduplication
//
// Question text is the dedup key. A candidate whose text is already stored
// is Skipped when every field matches and Diverged otherwise; diverged
// copies are logged for review and never written. New questions resolve
// their answers concurrently through AnswerResolver before insertion.
//
// # Failure Policy
//
// Per-question and per-batch failures are logged and counted in the run's
// tally, never returned. An exhausted session token is reset and the same
// batch retried; other batch failures are retried up to a configured bound
// and then abandoned.
//
// # Event System
//
// Services publish progress via EventBus; the server relays those events to
// SSE clients.
package service
