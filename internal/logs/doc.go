// Package logs locates and tails the server and per-audit log files for
// `brandguardian logs`.
//
// Tail reads the last N lines with bounded memory and returns the byte offset
// to resume from. Follow polls from that offset until the context ends.
package logs
