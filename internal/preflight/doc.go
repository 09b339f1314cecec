// Package preflight provides readiness checks for the tools, services and
// filesystem paths a dub run depends on.
//
// The "dubber doctor" command prints every check. "dubber dub" runs RunAll
// before starting so a missing credential or unwritable directory fails in
// seconds instead of after the analysis upload.
//
// Each check is gated by its config toggle; disabled features are skipped.
package preflight
