// Package auditstate defines the record threaded through one audit run.
//
// A State is never mutated by stages directly. Each stage returns an Update
// and the workflow folds it in with Merge: scalar fields are overwritten when
// the update sets them, while compliance results and errors are appended so
// earlier diagnostics are never lost.
package auditstate
