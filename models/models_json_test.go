package models

import (
	"encoding/json"
	"testing"
)

// TestAnalysisJSONSerialization verifies that optional analysis fields are
// omitted until the job produces them.
func TestAnalysisJSONSerialization(t *testing.T) {
	pending := &Analysis{
		ID:     "test-id",
		URL:    "https://example.com",
		Slug:   "example-com",
		Status: StatusAnalyzing,
	}

	jsonBytes, err := json.Marshal(pending)
	if err != nil {
		t.Fatalf("Failed to marshal pending analysis: %v", err)
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(jsonBytes, &fields); err != nil {
		t.Fatalf("Failed to unmarshal JSON: %v", err)
	}

	for _, key := range []string{"error", "content", "scores", "rewrite", "snapshot_path", "cached"} {
		if _, exists := fields[key]; exists {
			t.Errorf("%s should be omitted while the job is pending", key)
		}
	}
	if fields["status"] != string(StatusAnalyzing) {
		t.Errorf("status = %v, want %q", fields["status"], StatusAnalyzing)
	}

	completed := &Analysis{
		ID:             "test-id",
		URL:            "https://example.com",
		Slug:           "example-com",
		Status:         StatusCompleted,
		Content:        &ExtractedContent{Headline: "Hello"},
		Scores:         &ScoreBundle{},
		SnapshotPath:   "snapshots/2026/08/example-com.html",
		ProcessingTime: 1.25,
	}

	jsonBytes, err = json.Marshal(completed)
	if err != nil {
		t.Fatalf("Failed to marshal completed analysis: %v", err)
	}
	if err := json.Unmarshal(jsonBytes, &fields); err != nil {
		t.Fatalf("Failed to unmarshal JSON: %v", err)
	}

	for _, key := range []string{"content", "scores", "snapshot_path", "processing_time_seconds"} {
		if _, exists := fields[key]; !exists {
			t.Errorf("%s missing from completed analysis JSON", key)
		}
	}
}
