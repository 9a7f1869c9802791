// Package daemon runs the long-lived Brand Guardian HTTP process.
//
// It wires configuration, the workflow manager, and the optional audit
// history into a single lifecycle with flock-based locking to prevent multiple
// instances. The HTTP API accepts audits as multipart uploads or JSON video
// URLs, serves the embedded upload page, and reports health, status, and
// stored audits.
//
// Uploaded media is written to a session-scoped temp path and removed once
// the audit returns, whatever its outcome. Handler panics and workflow errors
// surface as 500 responses with a {"detail": ...} body.
//
// Keep orchestration logic here: audit steps live in their respective
// packages while the daemon focuses on startup, shutdown, and transport.
package daemon
