// Package handler implements the HTTP surface of triviamirror.
//
// # Endpoints
//
//	GET  /questions?difficulty=&category=&amount=   random sample (amount defaults to 1)
//	GET  /health                                    database reachability
//	GET  /events                                    SSE stream of sync progress
//	POST /api/sync                                  start a background sync (409 if one runs)
//	GET  /api/sync                                  running flag and latest run report
//	GET  /api/export/{format}                       all questions as json or yaml
//	POST /api/import/{format}                       ingest an exported bank
//
// Errors are returned as JSON with {error, details}. A missing difficulty or
// category yields 400 with "Missing difficulty or category parameter", and
// a non-positive or non-numeric amount yields 400 as well.
//
// Middleware provides panic recovery, permissive CORS and request logging.
package handler
