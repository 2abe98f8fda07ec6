// Package opentdb is the client for the Open Trivia DB remote question source.
//
// Client issues the four read calls the pipeline needs: the category list,
// the per-category question count, session token issuance and batch question
// fetches. Batch fetches are rate limited: consecutive rate-limited calls are
// spaced by at least the configured minimum, while plain lookups neither wait
// nor move the spacing window.
//
// Every payload carries a response_code. When a call is validated a non-zero
// code fails with *ProtocolError. Code 4 (token empty) is recognized by
// IsTokenEmpty so callers can reset the Session and retry.
package opentdb
