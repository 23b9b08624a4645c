package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"collator/internal/aggregator"
	"collator/internal/config"
	"collator/internal/jobs"
	"collator/internal/logging"
	"collator/internal/notifications"
	"collator/internal/objectstore"
	"collator/internal/stageexec"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run <request.json>",
		Short: "Aggregate one request in-process without the daemon",
		Long: `Run records an aggregation request and executes the stage directly in this
process, applying the same status transitions the daemon would. Useful for
debugging a single request and for batch environments without a resident
daemon. Pass "-" to read the request from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			payload, err := readRequestPayload(cmd, args[0])
			if err != nil {
				return err
			}

			logger, err := logging.New(logging.Options{
				Level:            ctx.resolvedLogLevel(cfg),
				Format:           cfg.Logging.Format,
				OutputPaths:      []string{"stderr"},
				ErrorOutputPaths: []string{"stderr"},
			})
			if err != nil {
				return fmt.Errorf("initialize logging: %w", err)
			}

			store, err := jobs.Open(cfg)
			if err != nil {
				return fmt.Errorf("open job store: %w", err)
			}
			defer store.Close()

			outcome, err := enqueueDirect(cmd.Context(), store, payload)
			if err != nil {
				return err
			}
			if !outcome.Accepted {
				fmt.Fprintf(cmd.OutOrStdout(), "Recorded as job %d with status %s\n",
					outcome.Job.ID, formatStatusLabel(outcome.Job.Status))
				reason := outcome.Reason
				if reason == "" {
					reason = "invalid request"
				}
				return fmt.Errorf("request rejected: %s", reason)
			}

			job, err := store.GetByID(cmd.Context(), outcome.Job.ID)
			if err != nil {
				return fmt.Errorf("load job %d: %w", outcome.Job.ID, err)
			}

			handler, err := aggregator.New(cfg, store, logger)
			if err != nil {
				return fmt.Errorf("create aggregation stage: %w", err)
			}

			runErr := stageexec.Run(cmd.Context(), stageexec.Options{
				Logger:    logger,
				Store:     store,
				Notifier:  notifications.NewService(cfg),
				Handler:   handler,
				StageName: "aggregation",
				Job:       job,
			})

			final, loadErr := store.GetByID(cmd.Context(), job.ID)
			if loadErr != nil || final == nil {
				if runErr != nil {
					return fmt.Errorf("aggregation failed: %w", runErr)
				}
				return fmt.Errorf("reload job %d: %w", job.ID, loadErr)
			}
			runOutcome := aggregator.OutcomeFromJob(final)
			if ctx.JSONMode() {
				if err := writeJSON(cmd, runOutcome); err != nil {
					return err
				}
			} else {
				printRunOutcome(cmd, cfg, final, runOutcome)
			}
			if runErr != nil {
				return fmt.Errorf("aggregation failed: %w", runErr)
			}
			return nil
		},
	}
}

func printRunOutcome(cmd *cobra.Command, cfg *config.Config, job *jobs.Job, outcome aggregator.Outcome) {
	stdout := cmd.OutOrStdout()
	fmt.Fprintf(stdout, "Job %d (%s) finished with status %s\n", job.ID, outcome.JobID, formatStatusLabel(string(job.Status)))
	if msg := strings.TrimSpace(outcome.Message); msg != "" {
		fmt.Fprintf(stdout, "  %s\n", msg)
	}
	if job.ErrorMessage != "" {
		fmt.Fprintf(stdout, "  Error: %s\n", job.ErrorMessage)
	}
	if outcome.PromptKey == "" {
		return
	}

	fmt.Fprintf(stdout, "Prompt: %s\n", outcome.PromptKey)
	fs, err := objectstore.NewFS(cfg.Paths.StoreRoot)
	if err != nil {
		return
	}
	info, err := fs.Stat(cmd.Context(), outcome.Bucket, outcome.PromptKey)
	if err != nil {
		return
	}
	fmt.Fprintf(stdout, "Size: %s (%d chunks aggregated)\n", humanize.IBytes(uint64(info.Size)), outcome.ChunksAggregated)
}
