package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"collator/internal/logging"
	"collator/internal/services"
)

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "yaml"}); err == nil {
		t.Fatal("expected unsupported format to fail")
	}
}

func TestNewConsoleWritesFormattedLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	logger, err := logging.New(logging.Options{
		Level:            "info",
		Format:           "console",
		OutputPaths:      []string{path},
		ErrorOutputPaths: []string{path},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger = logging.NewComponentLogger(logger, "workflow")
	logger.Info("job picked up", logging.String(logging.FieldJobID, "job-1"), logging.Int(logging.FieldChunkIndex, 3))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := strings.TrimSpace(string(data))
	if !strings.Contains(line, "INFO workflow: job picked up") {
		t.Fatalf("unexpected line %q", line)
	}
	if !strings.Contains(line, "job_id=job-1") || !strings.Contains(line, "chunk_index=3") {
		t.Fatalf("missing attrs in %q", line)
	}
}

func TestNewJSONWritesStructuredRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	logger, err := logging.New(logging.Options{
		Level:            "debug",
		Format:           "json",
		OutputPaths:      []string{path},
		ErrorOutputPaths: []string{path},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Warn("summary skipped", logging.String(logging.FieldObjectKey, "chunks/3.txt"))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(data))), &record); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if record["msg"] != "summary skipped" {
		t.Fatalf("msg = %v", record["msg"])
	}
	if record["level"] != "warn" {
		t.Fatalf("level = %v", record["level"])
	}
	if record["object_key"] != "chunks/3.txt" {
		t.Fatalf("object_key = %v", record["object_key"])
	}
}

func TestDebugSuppressedAtInfoLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	logger, err := logging.New(logging.Options{
		Level:       "info",
		Format:      "console",
		OutputPaths: []string{path},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Debug("invisible")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if len(strings.TrimSpace(string(data))) != 0 {
		t.Fatalf("expected empty log, got %q", string(data))
	}
}

func TestWithContextStampsJobFields(t *testing.T) {
	ctx := services.WithJobRef(context.Background(), 7)
	ctx = services.WithJobID(ctx, "job-abc")
	ctx = services.WithStage(ctx, "aggregate")

	fields := logging.ContextFields(ctx)
	keys := make(map[string]bool, len(fields))
	for _, attr := range fields {
		keys[attr.Key] = true
	}
	for _, want := range []string{logging.FieldJobRef, logging.FieldJobID, logging.FieldStage} {
		if !keys[want] {
			t.Fatalf("missing context field %q in %v", want, keys)
		}
	}
	if keys[logging.FieldRequestID] {
		t.Fatal("unexpected request_id field")
	}
}

func TestNewNopDiscards(t *testing.T) {
	logger := logging.NewNop()
	logger.Info("nothing happens")
	if logger.Enabled(context.Background(), 0) {
		t.Fatal("nop logger should be disabled")
	}
}
