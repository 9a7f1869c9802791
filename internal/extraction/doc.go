// Package extraction turns a video reference into transcript, on-screen text,
// and metadata using the video indexing service.
//
// Client performs the download, upload, poll, and normalize sequence. Stage
// adapts it to the workflow so failures are recorded in the audit state
// instead of returned.
package extraction
