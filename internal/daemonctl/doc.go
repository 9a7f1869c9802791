// Package daemonctl starts and stops brandguardiand on behalf of the CLI.
//
// Start launches `brandguardian serve` in its own session and waits for the
// health endpoint. Stop signals the PID recorded by the server and escalates
// to SIGKILL after a grace period.
package daemonctl
