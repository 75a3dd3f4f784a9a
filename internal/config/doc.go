// Package config loads, normalizes, and validates cardscan configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// CARDSCAN_DATA_DIR. The Config type centralizes every empirical threshold the
// analysis core uses: quad acceptance, edge detection multipliers, condition
// tier cutoffs, centering subgrade buckets, and the same/different match
// thresholds. None of those numbers live inside the algorithms themselves.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
