package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"collator/internal/ipc"
	"collator/internal/jobs"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check job database health (schema, integrity, counts)",
		RunE: func(cmd *cobra.Command, args []string) error {
			health, counts, err := collectHealth(cmd, ctx)
			if err != nil {
				return err
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, map[string]any{"database": health, "jobs": counts})
			}

			stdout := cmd.OutOrStdout()
			fmt.Fprintf(stdout, "Database path: %s\n", health.DBPath)
			fmt.Fprintf(stdout, "Database exists: %s\n", yesNo(health.DatabaseExists))
			fmt.Fprintf(stdout, "Readable: %s\n", yesNo(health.DatabaseReadable))
			if health.SchemaVersion != "" {
				fmt.Fprintf(stdout, "Schema version: %s\n", health.SchemaVersion)
			}
			fmt.Fprintf(stdout, "jobs table present: %s\n", yesNo(health.TableExists))
			if len(health.ColumnsPresent) > 0 {
				columns := append([]string(nil), health.ColumnsPresent...)
				sort.Strings(columns)
				fmt.Fprintf(stdout, "Columns: %s\n", strings.Join(columns, ", "))
			}
			if len(health.MissingColumns) > 0 {
				fmt.Fprintf(stdout, "Missing columns: %s\n", strings.Join(health.MissingColumns, ", "))
			} else {
				fmt.Fprintln(stdout, "Missing columns: none")
			}
			fmt.Fprintf(stdout, "Integrity check: %s\n", yesNo(health.IntegrityCheck))
			fmt.Fprintf(stdout, "Total jobs: %d\n", health.TotalJobs)
			if health.Error != "" {
				fmt.Fprintf(stdout, "Error: %s\n", health.Error)
			}
			fmt.Fprintf(stdout, "Pending: %d  Aggregating: %d  Aggregated: %d  Failed: %d  Errored: %d\n",
				counts.Pending, counts.Aggregating, counts.Aggregated, counts.Failed, counts.Errored)
			return nil
		},
	}
}

// collectHealth gathers database diagnostics and job counts from the daemon
// when reachable, or straight from the store otherwise.
func collectHealth(cmd *cobra.Command, ctx *commandContext) (ipc.DatabaseHealthResponse, ipc.JobHealthResponse, error) {
	client, err := ctx.dialClient()
	if err == nil {
		defer client.Close()
		health, healthErr := client.DatabaseHealth()
		if healthErr != nil {
			return ipc.DatabaseHealthResponse{}, ipc.JobHealthResponse{}, healthErr
		}
		counts, countsErr := client.JobHealth()
		if countsErr != nil {
			return ipc.DatabaseHealthResponse{}, ipc.JobHealthResponse{}, countsErr
		}
		return *health, *counts, nil
	}

	cfg, cfgErr := ctx.ensureConfig()
	if cfgErr != nil {
		return ipc.DatabaseHealthResponse{}, ipc.JobHealthResponse{}, cfgErr
	}
	store, openErr := jobs.Open(cfg)
	if openErr != nil {
		return ipc.DatabaseHealthResponse{}, ipc.JobHealthResponse{}, fmt.Errorf("open job store: %w", openErr)
	}
	defer store.Close()

	health, checkErr := store.CheckHealth(cmd.Context())
	if checkErr != nil {
		return ipc.DatabaseHealthResponse{}, ipc.JobHealthResponse{}, checkErr
	}
	counts, countsErr := store.Health(cmd.Context())
	if countsErr != nil {
		return ipc.DatabaseHealthResponse{}, ipc.JobHealthResponse{}, countsErr
	}
	return ipc.DatabaseHealthResponse(health), ipc.JobHealthResponse(counts), nil
}
