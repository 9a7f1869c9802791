// Package history persists finished audits in a local SQLite ledger.
//
// The ledger is optional. The API server and CLI record each final audit
// state so past verdicts can be listed and inspected after the process that
// produced them has exited.
package history
