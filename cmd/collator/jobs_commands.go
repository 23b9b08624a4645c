package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"collator/internal/api"
	"collator/internal/jobs"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and maintain collation jobs",
	}

	var listStatuses []string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateStatusFilters(listStatuses); err != nil {
				return err
			}
			return ctx.withJobsAPI(func(client jobsAPI) error {
				records, err := client.List(cmd.Context(), listStatuses)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, api.JobListResponse{Jobs: records})
				}
				stdout := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintln(stdout, "No jobs queued")
					return nil
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"ID", "Job", "Status", "Chunks", "Updated"},
					buildJobListRows(records),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
					shouldColorize(stdout),
				))
				return nil
			})
		},
	}
	listCmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by job status (repeatable)")

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one job in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parsePositiveIDs(args)
			if err != nil {
				return err
			}
			return ctx.withJobsAPI(func(client jobsAPI) error {
				job, err := client.Describe(cmd.Context(), ids[0])
				if err != nil {
					return err
				}
				if job == nil {
					return fmt.Errorf("job %d not found", ids[0])
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, api.JobResponse{Job: *job})
				}
				printJobDetail(cmd, *job)
				return nil
			})
		},
	}

	retryCmd := &cobra.Command{
		Use:   "retry [id...]",
		Short: "Requeue failed jobs",
		Long: `Retry returns failed jobs to pending so the aggregation stage picks them
up again. Without arguments every failed job is retried; with job ids only
those jobs are checked and requeued.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parsePositiveIDs(args)
			if err != nil {
				return err
			}
			return ctx.withJobsAPI(func(client jobsAPI) error {
				if len(ids) == 0 {
					updated, err := client.RetryAll(cmd.Context())
					if err != nil {
						return err
					}
					if ctx.JSONMode() {
						return writeJSON(cmd, map[string]int64{"updated": updated})
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Retried %d failed jobs\n", updated)
					return nil
				}

				result, err := api.RetryFailedJobsByID(cmd.Context(), client, ids)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, result)
				}
				printJobRetryResult(cmd, result)
				return nil
			})
		},
	}

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Return interrupted jobs to pending",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withJobsAPI(func(client jobsAPI) error {
				updated, err := client.ResetStuck(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, map[string]int64{"updated": updated})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reset %d jobs\n", updated)
				return nil
			})
		},
	}

	var clearStatuses []string
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete jobs from the store",
		Long: `Clear deletes job records. Without --status every job is removed; with one
or more --status filters only jobs in those states are deleted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateStatusFilters(clearStatuses); err != nil {
				return err
			}
			return ctx.withJobsAPI(func(client jobsAPI) error {
				removed, err := client.Clear(cmd.Context(), clearStatuses)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, map[string]int64{"removed": removed})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d %s\n", removed, clearLabel(clearStatuses))
				return nil
			})
		},
	}
	clearCmd.Flags().StringSliceVarP(&clearStatuses, "status", "s", nil, "Only delete jobs with this status (repeatable)")

	jobsCmd.AddCommand(listCmd, showCmd, retryCmd, resetCmd, clearCmd)
	return jobsCmd
}

func parsePositiveIDs(args []string) ([]int64, error) {
	if len(args) == 0 {
		return nil, nil
	}
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid job id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// validateStatusFilters rejects unknown status names up front: filters are
// dropped silently further down, which would turn a typo in `jobs clear
// --status` into an unfiltered clear.
func validateStatusFilters(values []string) error {
	for _, value := range values {
		if _, ok := jobs.ParseStatus(value); !ok {
			return fmt.Errorf("unknown job status %q", value)
		}
	}
	return nil
}
