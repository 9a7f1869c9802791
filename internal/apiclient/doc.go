// Package apiclient talks to a running brandguardiand over HTTP.
//
// The CLI uses it to probe server health for `brandguardian status` and to
// submit audits with `brandguardian audit --server` so long jobs run inside
// the server process instead of the terminal.
package apiclient
