// Package logging assembles structured slog loggers and formatting helpers used
// across cardscan.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes attribute helpers so orchestration code can tag log
// lines with scan IDs, faces, and decision fields. The package also provides a
// no-op logger for tests and wiring code that cannot fail.
//
// The analysis core (quad, centering, imagehash, fingerprint) never logs; it
// returns tagged results and lets callers decide what to record.
package logging
