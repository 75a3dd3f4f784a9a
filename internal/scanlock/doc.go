// Package scanlock serializes analysis of a single scan across processes
// with advisory file locks.
package scanlock
