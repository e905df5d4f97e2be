// Package config models the audit configuration loaded from .repolens.yml.
//
// It holds rule toggles and severity overrides, secrets scanning exclusions,
// custom rule definitions, license compliance policy, cache settings, and the
// preset vocabulary.
package config
