// Package store persists scans and identity bindings in SQLite.
//
// The scans table doubles as the candidate repository for the fingerprint
// matcher: Candidates returns an owner's prior hashed scans, newest first.
// The identity_bindings table maps fingerprint keys to physical item ids and
// implements fingerprint.BindingStore. The schema is created from embedded
// migrations on Open.
package store
