package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/ganymede/pkg/investigation"
)

var appendFlags struct {
	tenant    string
	component string
	project   string
	status    string
	evidence  []string
}

var appendCmd = &cobra.Command{
	Use:   "append",
	Short: "Append one investigation record to the local store",
	Long: `Append one investigation record directly to the configured store.

Evidence entries are JSON objects with "kind" and optional "payload":

  ganymede append --tenant acme --status open \
    --evidence '{"kind":"log-excerpt","payload":{"line":"timeout"}}'`,
	RunE: runAppend,
}

func init() {
	rootCmd.AddCommand(appendCmd)

	appendCmd.Flags().StringVar(&appendFlags.tenant, "tenant", "", "tenant ID (required)")
	appendCmd.Flags().StringVar(&appendFlags.component, "component", "", "component ID")
	appendCmd.Flags().StringVar(&appendFlags.project, "project", "", "project ID")
	appendCmd.Flags().StringVar(&appendFlags.status, "status", investigation.StatusOpen, "record status")
	appendCmd.Flags().StringArrayVar(&appendFlags.evidence, "evidence", nil, "evidence entry as JSON (repeatable)")
	appendCmd.MarkFlagRequired("tenant")
}

func runAppend(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	rec := &investigation.Record{
		TenantID:    appendFlags.tenant,
		ComponentID: appendFlags.component,
		ProjectID:   appendFlags.project,
		Status:      appendFlags.status,
	}
	for i, raw := range appendFlags.evidence {
		var ev investigation.Evidence
		if err := json.Unmarshal([]byte(raw), &ev); err != nil {
			return fmt.Errorf("evidence entry %d is not valid JSON: %w", i, err)
		}
		rec.Evidence = append(rec.Evidence, ev)
	}

	st, err := openLocalStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	id, err := st.Append(context.Background(), rec)
	if err != nil {
		return err
	}
	if id == "" {
		fmt.Println("store disabled, record not persisted")
		return nil
	}

	fmt.Println(id)
	return nil
}
