// Package config loads, validates and watches the process configuration.
//
// Configuration comes from a YAML file with defaults applied, then
// GANYMEDE_* environment overrides, then validation. The store's enabled
// flag is the one exception to the override convention: GANYMEDE_STORE_ENABLED
// is not a config override but the feature gate's runtime signal, resolved
// separately so it can win over any persisted value (see package featuregate).
//
// A file watcher re-reads the configuration on change so the persisted
// enabled flag and retention settings can be adjusted without a restart.
package config
