package nlp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func sidecarServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL)
}

func decodeInputs(t *testing.T, r *http.Request) string {
	t.Helper()
	var req inferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		t.Fatalf("failed to decode request: %v", err)
	}
	return req.Inputs
}

func TestPing(t *testing.T) {
	client := sidecarServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("path = %q, want /health", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	})

	if err := client.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestPingUnhealthy(t *testing.T) {
	client := sidecarServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	if err := client.Ping(context.Background()); err == nil {
		t.Error("expected error for unhealthy sidecar")
	}
}

func TestClassify(t *testing.T) {
	client := sidecarServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/classify" {
			t.Errorf("path = %q, want /classify", r.URL.Path)
		}
		if got := decodeInputs(t, r); got != "great product" {
			t.Errorf("inputs = %q", got)
		}
		json.NewEncoder(w).Encode([][]classification{{
			{Label: "NEGATIVE", Score: 0.02},
			{Label: "POSITIVE", Score: 0.98},
		}})
	})

	got, err := client.Classify(context.Background(), "great product")
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if got.Label != "POSITIVE" {
		t.Errorf("label = %q, want POSITIVE (highest score wins)", got.Label)
	}
	if got.Score != 0.98 {
		t.Errorf("score = %f, want 0.98", got.Score)
	}
}

func TestClassifyEmptyResponse(t *testing.T) {
	client := sidecarServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([][]classification{})
	})

	if _, err := client.Classify(context.Background(), "text"); err == nil {
		t.Error("expected error for empty classification response")
	}
}

func TestTags(t *testing.T) {
	client := sidecarServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pos" {
			t.Errorf("path = %q, want /pos", r.URL.Path)
		}
		json.NewEncoder(w).Encode([]Token{
			{Word: "Get", Tag: "VERB"},
			{Word: "Shopify", Tag: "PROPN"},
		})
	})

	tokens, err := client.Tags(context.Background(), "Get Shopify")
	if err != nil {
		t.Fatalf("Tags failed: %v", err)
	}
	if len(tokens) != 2 || tokens[0].Tag != "VERB" || tokens[1].Tag != "PROPN" {
		t.Errorf("tokens = %+v", tokens)
	}
}

func TestErrorStatus(t *testing.T) {
	client := sidecarServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	if _, err := client.Classify(context.Background(), "text"); err == nil {
		t.Error("Classify should fail on 500")
	}
	if _, err := client.Tags(context.Background(), "text"); err == nil {
		t.Error("Tags should fail on 500")
	}
}

func TestNewClientDefaultBaseURL(t *testing.T) {
	c := NewClient("")
	if c.baseURL != DefaultBaseURL {
		t.Errorf("baseURL = %q, want %q", c.baseURL, DefaultBaseURL)
	}
}
