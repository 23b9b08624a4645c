package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"collator/internal/api"
	"collator/internal/jobs"
	"collator/internal/request"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "submit <request.json>",
		Short: "Queue an aggregation request",
		Long: `Submit reads an aggregation request document and records it as a job.
The payload is handed to the running daemon when one is listening on the
control socket; otherwise it is written straight into the job database and
picked up on the next daemon start. Pass "-" to read the request from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := readRequestPayload(cmd, args[0])
			if err != nil {
				return err
			}

			resp, err := submitPayload(cmd, ctx, payload)
			if err != nil {
				return err
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, resp)
			}

			stdout := cmd.OutOrStdout()
			if resp.Accepted {
				fmt.Fprintf(stdout, "Job %d queued (%s, %d chunks)\n", resp.Job.ID, resp.Job.JobID, resp.Job.ChunksTotal)
				return nil
			}
			reason := resp.Reason
			if reason == "" {
				reason = "request rejected"
			}
			fmt.Fprintf(stdout, "Request rejected: %s\n", reason)
			fmt.Fprintf(stdout, "Recorded as job %d with status %s\n", resp.Job.ID, formatStatusLabel(resp.Job.Status))
			return nil
		},
	}
}

func readRequestPayload(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		payload, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read request from stdin: %w", err)
		}
		return payload, nil
	}
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read request file: %w", err)
	}
	return payload, nil
}

func submitPayload(cmd *cobra.Command, ctx *commandContext, payload []byte) (api.SubmitResponse, error) {
	client, err := ctx.dialClient()
	if err == nil {
		defer client.Close()
		resp, submitErr := client.Submit(json.RawMessage(payload))
		if submitErr != nil {
			return api.SubmitResponse{}, submitErr
		}
		if resp == nil {
			return api.SubmitResponse{}, errors.New("missing submit response")
		}
		return api.SubmitResponse{Accepted: resp.Accepted, Reason: resp.Reason, Job: resp.Job}, nil
	}

	cfg, cfgErr := ctx.ensureConfig()
	if cfgErr != nil {
		return api.SubmitResponse{}, cfgErr
	}
	store, openErr := jobs.Open(cfg)
	if openErr != nil {
		return api.SubmitResponse{}, fmt.Errorf("open job store: %w", openErr)
	}
	defer store.Close()
	return enqueueDirect(cmd.Context(), store, payload)
}

// enqueueDirect records a request without a daemon, matching the daemon's
// submission transitions: malformed payloads are persisted as errored jobs so
// the rejection stays visible in job history.
func enqueueDirect(ctx context.Context, store *jobs.Store, payload []byte) (api.SubmitResponse, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return api.SubmitResponse{}, errors.New("request payload is empty")
	}

	env, err := request.Parse(trimmed)
	if err != nil {
		job, storeErr := store.EnqueueInvalid(ctx, env.JobID, string(trimmed), err.Error())
		if storeErr != nil {
			return api.SubmitResponse{}, fmt.Errorf("record invalid request: %w", storeErr)
		}
		return api.SubmitResponse{Accepted: false, Reason: job.ErrorMessage, Job: api.FromJob(job)}, nil
	}

	job, err := store.Enqueue(ctx, env, string(trimmed))
	if err != nil {
		return api.SubmitResponse{}, fmt.Errorf("enqueue aggregation request: %w", err)
	}
	return api.SubmitResponse{Accepted: true, Job: api.FromJob(job)}, nil
}
