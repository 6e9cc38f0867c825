package main

import (
	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/featuregate"
	"mercator-hq/ganymede/pkg/investigation/store"
)

// openLocalStore opens the configured store for direct command-line access.
// The same gate resolution applies as in the server, so a disabled store
// behaves identically from the CLI.
func openLocalStore(cfg *config.Config) (*store.LogStore, error) {
	return store.Open(&store.Config{
		Path:          cfg.Store.Path,
		MaxEntries:    cfg.Store.MaxEntries,
		RetentionDays: cfg.Store.RetentionDays,
		MaxFileBytes:  cfg.Store.MaxFileBytes,
		CatalogPath:   cfg.Store.CatalogPath,
	}, featuregate.New(cfg.Store.IsEnabled()), nil)
}
