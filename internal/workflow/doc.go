// Package workflow runs one audit end to end.
//
// The Manager assigns a session, then moves the audit state through
// START, EXTRACTING, AUDITING, and DONE. Both stages always run: when
// extraction fails the audit stage records a skipped FAIL verdict without
// touching the rule store or the model. Stage failures never surface as
// errors from Run; they are folded into the returned state's error log.
// Run only fails for an empty reference or a stage that panics.
//
// Finished audits are optionally recorded in the history ledger and
// announced through the notifier.
package workflow
