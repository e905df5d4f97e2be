// Package rules defines the findings model shared by every audit category.
//
// It exposes Severity, Finding, AuditResults, and the timing types used to
// report per-category execution metrics. The package has no dependencies on
// other repolens packages so that categories, the engine, the cache, and the
// report renderers can all consume it freely.
package rules
