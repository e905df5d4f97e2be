// Package cli constructs the repolens command-line interface, wiring the
// Cobra command hierarchy, configuration loader, and structured logging
// primitives behind a reusable application instance.
package cli
