package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/reportgen/internal/config"
	"github.com/dgallion1/reportgen/internal/genai"
	"github.com/dgallion1/reportgen/internal/pipeline"
)

type noopWriter struct{}

func (noopWriter) GenerateSection(ctx context.Context, req genai.GenerateRequest) (string, error) {
	return "Placeholder content.", nil
}

func testServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Config{
		ReportgenAPIKey: "secret",
		MaxQueueSize:    4,
		MaxBodyBytes:    1 << 20,
		JobTTL:          time.Hour,
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	orch := pipeline.NewOrchestrator(cfg, noopWriter{}, nil, log)
	// Workers not started: submitted jobs stay queued, which is enough
	// for handler tests.
	return NewServer(orch, nil, log, cfg)
}

func doJSON(t *testing.T, s *Server, method, path, body, apiKey string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestServer_HealthIsPublic(t *testing.T) {
	rec := doJSON(t, testServer(t), http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestServer_RejectsMissingAndWrongKey(t *testing.T) {
	s := testServer(t)
	if rec := doJSON(t, s, http.MethodPost, "/api/reports", "{}", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("missing key: status = %d, want 401", rec.Code)
	}
	if rec := doJSON(t, s, http.MethodPost, "/api/reports", "{}", "wrong"); rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong key: status = %d, want 401", rec.Code)
	}
}

func TestServer_CreateReportValidation(t *testing.T) {
	s := testServer(t)
	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", "{", http.StatusBadRequest},
		{"missing title", `{"sections":[{"title":"A"}]}`, http.StatusBadRequest},
		{"missing sections and outline", `{"title":"R"}`, http.StatusBadRequest},
		{"both sections and outline", `{"title":"R","outline":"# A","sections":[{"title":"A"}]}`, http.StatusBadRequest},
		{"headingless outline", `{"title":"R","outline":"just request text"}`, http.StatusAccepted},
		{"valid sections", `{"title":"R","sections":[{"title":"A","subsections":[{"title":"A1"}]}]}`, http.StatusAccepted},
		{"valid outline", `{"title":"R","outline":"# Intro\n\n## Detail\n"}`, http.StatusAccepted},
	}
	for _, tt := range tests {
		rec := doJSON(t, s, http.MethodPost, "/api/reports", tt.body, "secret")
		if rec.Code != tt.want {
			t.Errorf("%s: status = %d, want %d (body %s)", tt.name, rec.Code, tt.want, rec.Body.String())
		}
	}
}

func TestServer_CreateReportQueuesJob(t *testing.T) {
	s := testServer(t)
	rec := doJSON(t, s, http.MethodPost, "/api/reports",
		`{"title":"Queued Report","sections":[{"title":"One"},{"title":"Two"}]}`, "secret")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{`"job_id"`, `"poll_url"`, `"download_url"`, `"sections":2`} {
		if !strings.Contains(body, want) {
			t.Errorf("response missing %s: %s", want, body)
		}
	}
}

func TestServer_StatusAndDownloadNotFound(t *testing.T) {
	s := testServer(t)
	if rec := doJSON(t, s, http.MethodGet, "/api/reports/nope/status", "", "secret"); rec.Code != http.StatusNotFound {
		t.Errorf("status endpoint: %d, want 404", rec.Code)
	}
	if rec := doJSON(t, s, http.MethodGet, "/api/reports/nope/download", "", "secret"); rec.Code != http.StatusNotFound {
		t.Errorf("download endpoint: %d, want 404", rec.Code)
	}
}

func TestServer_DownloadBeforeCompletion(t *testing.T) {
	s := testServer(t)
	rec := doJSON(t, s, http.MethodPost, "/api/reports",
		`{"title":"Pending","sections":[{"title":"A"}]}`, "secret")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("create: %d", rec.Code)
	}
	var resp struct {
		JobID string `json:"job_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	dl := doJSON(t, s, http.MethodGet, "/api/reports/"+resp.JobID+"/download", "", "secret")
	if dl.Code != http.StatusConflict {
		t.Errorf("download before completion: %d, want 409", dl.Code)
	}
}

func TestServer_StatsUnavailableWithoutWriter(t *testing.T) {
	rec := doJSON(t, testServer(t), http.MethodGet, "/api/stats/llm", "", "secret")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("stats: %d, want 503", rec.Code)
	}
}
