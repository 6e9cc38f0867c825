package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/ganymede/pkg/investigation"
	"mercator-hq/ganymede/pkg/investigation/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show store state and archived segments",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := openLocalStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	out := struct {
		Store    investigation.Snapshot `json:"store"`
		Segments []*store.Segment       `json:"segments,omitempty"`
	}{Store: st.Snapshot()}

	if cfg.Store.CatalogPath != "" {
		catalog, err := store.OpenCatalog(cfg.Store.CatalogPath)
		if err != nil {
			return err
		}
		defer catalog.Close()

		out.Segments, err = catalog.Segments(context.Background())
		if err != nil {
			return err
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
