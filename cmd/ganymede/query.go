package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/ganymede/pkg/investigation"
	"mercator-hq/ganymede/pkg/investigation/query"
)

var queryFlags struct {
	tenant    string
	component string
	project   string
	since     string
	until     string
	limit     int
	cursor    uint64
	admin     bool
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query investigation records from the local store",
	Long: `Query the configured store, newest first, with cursor pagination.

A tenant is required unless --admin is set. The printed next_cursor feeds the
--cursor flag of a follow-up query.`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().StringVar(&queryFlags.tenant, "tenant", "", "tenant ID")
	queryCmd.Flags().StringVar(&queryFlags.component, "component", "", "filter by component ID")
	queryCmd.Flags().StringVar(&queryFlags.project, "project", "", "filter by project ID")
	queryCmd.Flags().StringVar(&queryFlags.since, "since", "", "lower CreatedAt bound (RFC 3339)")
	queryCmd.Flags().StringVar(&queryFlags.until, "until", "", "upper CreatedAt bound (RFC 3339)")
	queryCmd.Flags().IntVar(&queryFlags.limit, "limit", 0, "page size (default 100)")
	queryCmd.Flags().Uint64Var(&queryFlags.cursor, "cursor", 0, "resume cursor from a previous page")
	queryCmd.Flags().BoolVar(&queryFlags.admin, "admin", false, "administrative unscoped query")
}

// queryFromFlags assembles the query shared by the query and export commands.
func queryFromFlags() (*investigation.Query, error) {
	q := &investigation.Query{
		TenantID:    queryFlags.tenant,
		ComponentID: queryFlags.component,
		ProjectID:   queryFlags.project,
		Limit:       queryFlags.limit,
		Cursor:      queryFlags.cursor,
		AdminScope:  queryFlags.admin,
	}

	if queryFlags.since != "" {
		t, err := time.Parse(time.RFC3339, queryFlags.since)
		if err != nil {
			return nil, fmt.Errorf("--since must be RFC 3339: %w", err)
		}
		q.Since = &t
	}
	if queryFlags.until != "" {
		t, err := time.Parse(time.RFC3339, queryFlags.until)
		if err != nil {
			return nil, fmt.Errorf("--until must be RFC 3339: %w", err)
		}
		q.Until = &t
	}

	return q, nil
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	q, err := queryFromFlags()
	if err != nil {
		return err
	}

	st, err := openLocalStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	records, next, err := query.Execute(context.Background(), st, q)
	if err != nil {
		return err
	}

	out := struct {
		Records    []*investigation.Record `json:"records"`
		NextCursor uint64                  `json:"next_cursor,omitempty"`
	}{Records: records, NextCursor: next}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
