// Package categories implements the built-in audit rule categories.
//
// Each category inspects the repository through the scanner and emits
// findings according to the loaded configuration. Categories never touch the
// cache or each other; the engine owns sequencing and caching.
package categories
