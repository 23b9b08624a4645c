package stage

import (
	"errors"
	"testing"

	"collator/internal/services"
)

func TestParseRequest_Valid(t *testing.T) {
	raw := `{"job_id":"j1","bucket_name":"b","output_path":"out","chunk_results":[{"chunk_index":0,"summary_key":"s/0.txt"}]}`
	env, err := ParseRequest(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.JobID != "j1" {
		t.Fatalf("unexpected job_id: %q", env.JobID)
	}
}

func TestParseRequest_Empty(t *testing.T) {
	_, err := ParseRequest("")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for empty input, got %v", err)
	}
}

func TestParseRequest_Invalid(t *testing.T) {
	_, err := ParseRequest("{invalid json")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
