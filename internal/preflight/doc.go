// Package preflight provides readiness checks for the external tools and
// filesystem paths a reconciliation run depends on.
//
// The reconcile command runs RunAll before opening a run and refuses to start
// when a required check fails; the doctor command prints every result.
//
// Checks for disabled features are skipped.
package preflight
