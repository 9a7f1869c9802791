// Package staging sweeps the temp directory where audit sessions stage
// uploaded and downloaded media.
//
// Each session writes its media under a name keyed by video and session ID
// and removes it when the workflow returns. A crash between those points
// leaves the file behind, so the server sweeps entries older than the
// configured age when it starts.
package staging
