// Package planner derives an advisory remediation plan from audit findings.
// The plan describes actions a maintainer could take; nothing here mutates
// the repository.
package planner
