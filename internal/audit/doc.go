// Package audit orchestrates full repository audits: it loads the
// per-repository configuration, runs the rules engine over a scanned
// repository tree, persists the result cache, and renders reports. The
// package also assembles the audit, report, plan, and cache Cobra commands.
package audit
