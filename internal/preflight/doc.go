// Package preflight provides readiness checks for the services and paths an
// audit depends on.
//
// The API server runs RunAll at startup and logs each result. The CLI status
// command renders the same results plus the config-only Summaries.
package preflight
