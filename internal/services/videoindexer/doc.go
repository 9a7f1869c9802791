// Package videoindexer talks to the Azure Video Indexer REST API.
//
// The client exchanges an Azure Resource Manager token for an account access
// token, uploads local media as multipart form data, and polls the index
// endpoint at a fixed interval until the service reports Processed, Failed,
// or Quarantined. Failed and Quarantined surface as the distinct sentinels
// ErrIndexingFailed and ErrQuarantined.
//
// IndexResult exposes the normalized transcript, on-screen text, and
// duration extracted from the index payload.
package videoindexer
