package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/ganymede/pkg/investigation/export"
	"mercator-hq/ganymede/pkg/investigation/query"
)

var exportFlags struct {
	format string
	output string
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export investigation records as JSON or CSV",
	Long: `Stream all matching records from the configured store to a file or stdout.

Shares the filter flags of the query command; --limit and --cursor do not
apply, an export always covers the full matching set.`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&queryFlags.tenant, "tenant", "", "tenant ID")
	exportCmd.Flags().StringVar(&queryFlags.component, "component", "", "filter by component ID")
	exportCmd.Flags().StringVar(&queryFlags.project, "project", "", "filter by project ID")
	exportCmd.Flags().StringVar(&queryFlags.since, "since", "", "lower CreatedAt bound (RFC 3339)")
	exportCmd.Flags().StringVar(&queryFlags.until, "until", "", "upper CreatedAt bound (RFC 3339)")
	exportCmd.Flags().BoolVar(&queryFlags.admin, "admin", false, "administrative unscoped export")
	exportCmd.Flags().StringVar(&exportFlags.format, "format", export.FormatJSON, "output format (json, csv)")
	exportCmd.Flags().StringVarP(&exportFlags.output, "output", "o", "", "output file (default stdout)")
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	exporter, err := export.New(exportFlags.format)
	if err != nil {
		return err
	}

	q, err := queryFromFlags()
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if exportFlags.output != "" {
		f, err := os.Create(exportFlags.output)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	st, err := openLocalStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	records, errChan, err := query.ExecuteStream(ctx, st, q)
	if err != nil {
		return err
	}

	if err := exporter.ExportStream(ctx, records, w); err != nil {
		return err
	}
	return <-errChan
}
