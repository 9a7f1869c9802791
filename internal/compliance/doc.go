// Package compliance judges extracted video text against retrieved brand rules.
//
// Judge prompts a chat model with the rules as ground truth and parses the
// structured verdict it returns. Stage combines retrieval and judging for the
// workflow and declines to run when extraction produced nothing to audit.
package compliance
