package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"collator/internal/config"
	"collator/internal/ipc"
	"collator/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var lines int

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent daemon log entries",
		Long: `Logs prints entries from the daemon log. With a daemon running the lines
are served over IPC; otherwise the stable log file under the configured log
directory is read directly. Use --follow to keep streaming new entries.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit := lines
			if limit < 0 {
				limit = 0
			}
			offset := int64(-1)
			if limit == 0 {
				offset = 0
			}

			client, err := ctx.dialClient()
			if err == nil {
				defer client.Close()
				return tailViaIPC(cmd, client, offset, limit, follow)
			}

			cfg, cfgErr := ctx.ensureConfig()
			if cfgErr != nil {
				return cfgErr
			}
			path := filepath.Join(cfg.Paths.LogDir, config.DaemonLogFileName)
			return tailLogFile(cmd, path, offset, limit, follow)
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Stream new log entries until interrupted")
	cmd.Flags().IntVarP(&lines, "lines", "n", 10, "Number of recent lines to show (0 shows the whole log)")
	return cmd
}

func tailViaIPC(cmd *cobra.Command, client *ipc.Client, offset int64, limit int, follow bool) error {
	stdout := cmd.OutOrStdout()
	printed := false
	for {
		resp, err := client.LogTail(ipc.LogTailRequest{
			Offset:     offset,
			Limit:      limit,
			Follow:     follow,
			WaitMillis: 1000,
		})
		if err != nil {
			return err
		}
		for _, line := range resp.Lines {
			fmt.Fprintln(stdout, line)
			printed = true
		}
		offset = resp.Offset
		limit = 0

		if !follow {
			if !printed {
				fmt.Fprintln(stdout, "No log entries available")
			}
			return nil
		}

		select {
		case <-cmd.Context().Done():
			return nil
		default:
		}
	}
}

// tailLogFile reads the stable daemon log pointer directly when no daemon is
// listening on the control socket.
func tailLogFile(cmd *cobra.Command, path string, offset int64, limit int, follow bool) error {
	stdout := cmd.OutOrStdout()
	printed := false
	for {
		result, err := logs.Tail(cmd.Context(), path, logs.TailOptions{
			Offset: offset,
			Limit:  limit,
			Follow: follow,
			Wait:   time.Second,
		})
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		for _, line := range result.Lines {
			fmt.Fprintln(stdout, line)
			printed = true
		}
		offset = result.Offset
		limit = 0

		if !follow {
			if !printed {
				fmt.Fprintln(stdout, "No log entries available")
			}
			return nil
		}

		select {
		case <-cmd.Context().Done():
			return nil
		default:
		}
	}
}
