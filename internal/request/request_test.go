package request_test

import (
	"errors"
	"testing"

	"collator/internal/request"
)

func TestParseAcceptsUpstreamPayload(t *testing.T) {
	raw := []byte(`{
        "job_id": "mainframe-docs-2024",
        "bucket_name": "analysis-bucket",
        "output_path": "results/",
        "chunk_results": [
            {"chunk_index": 0, "status": "success", "summary_key": "summaries/chunk-0.txt"},
            {"chunk_index": 1, "status": "error"},
            {"chunk_index": 2, "summary_key": "summaries/chunk-2.txt"}
        ]
    }`)

	env, err := request.Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if env.JobID != "mainframe-docs-2024" {
		t.Fatalf("unexpected job_id: %q", env.JobID)
	}
	if env.Bucket != "analysis-bucket" {
		t.Fatalf("unexpected bucket: %q", env.Bucket)
	}
	if env.OutputPath != "results" {
		t.Fatalf("expected trailing slash stripped, got %q", env.OutputPath)
	}
	if len(env.ChunkResults) != 3 {
		t.Fatalf("expected 3 chunk results, got %d", len(env.ChunkResults))
	}
	if env.ChunkResults[0].ChunkIndex != 0 || env.ChunkResults[2].ChunkIndex != 2 {
		t.Fatal("expected chunk results to keep upstream order")
	}
	if !env.ChunkResults[1].Failed() {
		t.Fatal("expected chunk 1 to report failed")
	}
	if env.ChunkResults[2].Failed() {
		t.Fatal("expected chunk 2 to report healthy")
	}
}

func TestParseAcceptsBucketAlias(t *testing.T) {
	raw := []byte(`{"job_id": "j1", "bucket": "alias-bucket", "output_path": "out", "chunk_results": []}`)
	env, err := request.Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if env.Bucket != "alias-bucket" {
		t.Fatalf("expected bucket alias honored, got %q", env.Bucket)
	}
}

func TestParsePrefersCanonicalBucketKey(t *testing.T) {
	raw := []byte(`{"job_id": "j1", "bucket_name": "primary", "bucket": "alias", "output_path": "out"}`)
	env, err := request.Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if env.Bucket != "primary" {
		t.Fatalf("expected bucket_name to win, got %q", env.Bucket)
	}
}

func TestParseAllowsEmptyChunkResults(t *testing.T) {
	raw := []byte(`{"job_id": "j1", "bucket_name": "b", "output_path": "out"}`)
	env, err := request.Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(env.ChunkResults) != 0 {
		t.Fatalf("expected no chunk results, got %d", len(env.ChunkResults))
	}
}

func TestValidateReportsMissingFields(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"missing job_id", `{"bucket_name": "b", "output_path": "out"}`},
		{"missing bucket", `{"job_id": "j1", "output_path": "out"}`},
		{"missing output_path", `{"job_id": "j1", "bucket_name": "b"}`},
		{"blank fields", `{"job_id": "  ", "bucket_name": "b", "output_path": "out"}`},
	}
	for _, tc := range cases {
		_, err := request.Parse([]byte(tc.raw))
		if !errors.Is(err, request.ErrMissingParameters) {
			t.Fatalf("%s: expected ErrMissingParameters, got %v", tc.name, err)
		}
	}
}

func TestParseRejectsMalformedJSON(t *testing.T) {
	if _, err := request.Parse([]byte(`{"job_id": `)); err == nil {
		t.Fatal("expected error for malformed payload")
	}
	if _, err := request.Parse(nil); err == nil {
		t.Fatal("expected error for empty payload")
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	env := request.Envelope{
		JobID:      "j1",
		Bucket:     "b",
		OutputPath: "out",
		ChunkResults: []request.ChunkResult{
			{ChunkIndex: 0, Status: "success", SummaryKey: "s/0.txt"},
		},
	}
	encoded, err := env.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	decoded, err := request.Parse([]byte(encoded))
	if err != nil {
		t.Fatalf("Parse of encoded payload failed: %v", err)
	}
	if decoded.Bucket != env.Bucket || decoded.JobID != env.JobID {
		t.Fatalf("round trip mismatch: %#v", decoded)
	}
}

func TestCloneIsolatesChunkResults(t *testing.T) {
	env := request.Envelope{
		JobID:        "j1",
		Bucket:       "b",
		OutputPath:   "out",
		ChunkResults: []request.ChunkResult{{ChunkIndex: 0, SummaryKey: "k"}},
	}
	cp := env.Clone()
	cp.ChunkResults[0].SummaryKey = "other"
	if env.ChunkResults[0].SummaryKey != "k" {
		t.Fatal("expected clone to isolate chunk results")
	}
}
