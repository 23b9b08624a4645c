package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"collator/internal/api"
)

func buildJobStatusRows(stats map[string]int) [][]string {
	if len(stats) == 0 {
		return nil
	}
	keys := make([]string, 0, len(stats))
	for key := range stats {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{formatStatusLabel(key), strconv.Itoa(stats[key])})
	}
	return rows
}

func buildJobListRows(records []api.Job) [][]string {
	sorted := api.SortJobsNewestFirst(records)
	rows := make([][]string, 0, len(sorted))
	for _, job := range sorted {
		name := job.JobID
		if job.Label != "" && job.Label != job.JobID {
			name = fmt.Sprintf("%s (%s)", job.JobID, job.Label)
		}
		rows = append(rows, []string{
			strconv.FormatInt(job.ID, 10),
			name,
			formatStatusLabel(job.Status),
			formatChunkProgress(job),
			formatDisplayTime(job.UpdatedAt),
		})
	}
	return rows
}

func formatChunkProgress(job api.Job) string {
	if job.ChunksTotal <= 0 {
		return "-"
	}
	return fmt.Sprintf("%d/%d", job.ChunksAggregated, job.ChunksTotal)
}

// formatStatusLabel turns stored status values like PENDING into display
// labels like Pending.
func formatStatusLabel(status string) string {
	trimmed := strings.TrimSpace(status)
	if trimmed == "" {
		return "Unknown"
	}
	words := strings.Split(strings.ToLower(trimmed), "_")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

func formatDisplayTime(value string) string {
	parsed := api.ParseJobTime(value)
	if parsed.IsZero() {
		return value
	}
	return parsed.UTC().Format("2006-01-02 15:04")
}

func formatTimestampDetail(value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	parsed := api.ParseJobTime(value)
	if parsed.IsZero() {
		return value
	}
	return fmt.Sprintf("%s (%s)", parsed.UTC().Format("2006-01-02 15:04:05"), humanize.Time(parsed))
}

func printJobDetail(cmd *cobra.Command, job api.Job) {
	stdout := cmd.OutOrStdout()
	detail := func(label, value string) {
		if strings.TrimSpace(value) == "" {
			return
		}
		fmt.Fprintf(stdout, "%-13s %s\n", label+":", value)
	}

	detail("Job", job.JobID)
	if job.Label != "" && job.Label != job.JobID {
		detail("Label", job.Label)
	}
	detail("Record", strconv.FormatInt(job.ID, 10))
	detail("Status", formatStatusLabel(job.Status))
	detail("Message", job.StatusMessage)
	detail("Error", job.ErrorMessage)
	detail("Bucket", job.Bucket)
	detail("Output path", job.OutputPath)
	detail("Prompt key", job.PromptKey)
	if job.ChunksTotal > 0 {
		detail("Chunks", fmt.Sprintf("%d/%d aggregated", job.ChunksAggregated, job.ChunksTotal))
	}
	detail("Created", formatTimestampDetail(job.CreatedAt))
	detail("Updated", formatTimestampDetail(job.UpdatedAt))
	detail("Heartbeat", formatTimestampDetail(job.LastHeartbeat))
}

func printJobRetryResult(cmd *cobra.Command, result api.RetryJobsResult) {
	stdout := cmd.OutOrStdout()
	for _, item := range result.Jobs {
		switch item.Outcome {
		case api.RetryJobNotFound:
			fmt.Fprintf(stdout, "Job %d not found\n", item.ID)
		case api.RetryJobNotFailed:
			fmt.Fprintf(stdout, "Job %d is not in a retryable state (only failed jobs can be retried)\n", item.ID)
		default:
			fmt.Fprintf(stdout, "Job %d reset for retry\n", item.ID)
		}
	}
}

func clearLabel(statuses []string) string {
	if len(statuses) == 1 {
		return strings.ToLower(formatStatusLabel(statuses[0])) + " jobs"
	}
	return "jobs"
}
