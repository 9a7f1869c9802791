// Package services defines shared utilities consumed by the workflow stages
// and their external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp session IDs, video IDs, stage names, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper, and Kind, which maps a
//     failure to the name recorded in an audit's error log.
//
// Subpackages hold the remote collaborators: the language model client, the
// video indexing client, and the video downloader.
package services
