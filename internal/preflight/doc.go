// Package preflight provides readiness checks for the configuration,
// filesystem paths and scan database that cardscan depends on.
//
// The CLI "cardscan doctor" command runs RunAll and renders the results.
// The analyze command runs the directory checks before taking a scan lock.
package preflight
