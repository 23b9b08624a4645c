package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"collator/internal/config"
)

const userAgent = "Collator-Go/0.1.0"

// Service defines the notification surface exposed to workflow components.
type Service interface {
	NotifyJobQueued(ctx context.Context, label string, chunks int) error
	NotifyAggregationStarted(ctx context.Context, label string, chunks int) error
	NotifyJobAggregated(ctx context.Context, label, promptKey string, chunks int) error
	NotifyJobFailed(ctx context.Context, label, message string) error
	NotifyError(ctx context.Context, err error, contextLabel string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:   topic,
		client:     &http.Client{Timeout: timeout},
		queued:     cfg.Notifications.Queued,
		completion: cfg.Notifications.Completion,
		errors:     cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint   string
	client     *http.Client
	queued     bool
	completion bool
	errors     bool
}

func (n *ntfyService) NotifyJobQueued(ctx context.Context, label string, chunks int) error {
	if !n.queued {
		return nil
	}
	label = strings.TrimSpace(label)
	data := payload{
		title:   "Collator - Job Queued",
		message: fmt.Sprintf("Queued: %s (%d chunks)", label, chunks),
		tags:    []string{"collator", "job", "queued"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyAggregationStarted(ctx context.Context, label string, chunks int) error {
	if !n.queued {
		return nil
	}
	label = strings.TrimSpace(label)
	data := payload{
		title:   "Collator - Aggregation Started",
		message: fmt.Sprintf("Collating %d chunk summaries: %s", chunks, label),
		tags:    []string{"collator", "aggregation", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyJobAggregated(ctx context.Context, label, promptKey string, chunks int) error {
	if !n.completion {
		return nil
	}
	label = strings.TrimSpace(label)
	promptKey = strings.TrimSpace(promptKey)
	message := fmt.Sprintf("✅ Analysis prompt ready: %s (%d chunks)", label, chunks)
	if promptKey != "" {
		message = fmt.Sprintf("%s\nKey: %s", message, promptKey)
	}
	data := payload{
		title:    "Collator - Aggregated",
		message:  message,
		tags:     []string{"collator", "aggregation", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyJobFailed(ctx context.Context, label, message string) error {
	if !n.errors {
		return nil
	}
	label = strings.TrimSpace(label)
	message = strings.TrimSpace(message)
	data := payload{
		title:    "Collator - Job Failed",
		message:  fmt.Sprintf("❌ %s: %s", label, message),
		tags:     []string{"collator", "job", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("❌ Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Collator - Error",
		message:  builder.String(),
		tags:     []string{"collator", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Collator - Test",
		message:  "Notification system test",
		tags:     []string{"collator", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyJobQueued(context.Context, string, int) error             { return nil }
func (noopService) NotifyAggregationStarted(context.Context, string, int) error    { return nil }
func (noopService) NotifyJobAggregated(context.Context, string, string, int) error { return nil }
func (noopService) NotifyJobFailed(context.Context, string, string) error          { return nil }
func (noopService) NotifyError(context.Context, error, string) error               { return nil }
func (noopService) TestNotification(context.Context) error                         { return nil }
