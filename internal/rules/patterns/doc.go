// Package patterns holds the compiled secret detection patterns used by the
// secrets category. The table is package-level and immutable after init.
package patterns
