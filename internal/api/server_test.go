package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/RobinCoderZhao/newsagent/internal/newsagent/pipeline"
	"github.com/RobinCoderZhao/newsagent/internal/newsagent/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockRunner struct {
	requests []pipeline.Request
}

func (m *mockRunner) Submit(req pipeline.Request) string {
	m.requests = append(m.requests, req)
	return "run-123"
}

type mockRuns struct {
	getFn  func(id string) (*store.Run, error)
	listFn func(limit int) ([]store.Run, error)
}

func (m *mockRuns) GetRun(_ context.Context, id string) (*store.Run, error) {
	return m.getFn(id)
}

func (m *mockRuns) ListRuns(_ context.Context, limit int) ([]store.Run, error) {
	return m.listFn(limit)
}

func doRequest(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestHealth(t *testing.T) {
	rec := doRequest(NewServer(&mockRunner{}, nil).Routes(), http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if decode(t, rec)["status"] != "ok" {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestGenerate_Accepted(t *testing.T) {
	runner := &mockRunner{}
	rec := doRequest(NewServer(runner, nil).Routes(), http.MethodPost, "/agent/generate-ai-news",
		`{"period":"24h","callbackUrl":"https://example.com/cb"}`)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	if body["message"] != "Task accepted" || body["runId"] != "run-123" {
		t.Errorf("unexpected body %v", body)
	}
	if len(runner.requests) != 1 || runner.requests[0].Period != "24h" || runner.requests[0].CallbackURL != "https://example.com/cb" {
		t.Errorf("unexpected submitted requests %+v", runner.requests)
	}
}

func TestGenerate_BadPeriodStillAccepted(t *testing.T) {
	runner := &mockRunner{}
	rec := doRequest(NewServer(runner, nil).Routes(), http.MethodPost, "/agent/generate-ai-news",
		`{"period":"7w","callbackUrl":"https://example.com/cb"}`)
	if rec.Code != http.StatusAccepted || len(runner.requests) != 1 {
		t.Errorf("expected run to be accepted, got %d", rec.Code)
	}
}

func TestGenerate_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"missing period", `{"callbackUrl":"https://example.com/cb"}`, "Missing required field: period"},
		{"missing callback", `{"period":"24h"}`, "Missing required field: callbackUrl"},
		{"empty body", `{}`, "Missing required field: period"},
		{"malformed json", `{"period":`, "Invalid request body"},
		{"bad callback", `{"period":"24h","callbackUrl":"ftp://x"}`, "Invalid field: callbackUrl"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &mockRunner{}
			rec := doRequest(NewServer(runner, nil).Routes(), http.MethodPost, "/agent/generate-ai-news", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			if got := decode(t, rec)["error"]; got != tt.wantErr {
				t.Errorf("error = %v, want %q", got, tt.wantErr)
			}
			if len(runner.requests) != 0 {
				t.Error("invalid requests must not start a run")
			}
		})
	}
}

func TestGetRun(t *testing.T) {
	runs := &mockRuns{getFn: func(id string) (*store.Run, error) {
		switch id {
		case "known":
			return &store.Run{ID: "known", State: "done", Articles: 3}, nil
		case "broken":
			return nil, errors.New("disk on fire")
		default:
			return nil, store.ErrNotFound
		}
	}}
	h := NewServer(&mockRunner{}, runs).Routes()

	rec := doRequest(h, http.MethodGet, "/agent/runs/known", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := decode(t, rec); body["state"] != "done" || body["articles"] != float64(3) {
		t.Errorf("unexpected body %v", body)
	}

	if rec := doRequest(h, http.MethodGet, "/agent/runs/unknown", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	if rec := doRequest(h, http.MethodGet, "/agent/runs/broken", ""); rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestGetRun_LedgerDisabled(t *testing.T) {
	rec := doRequest(NewServer(&mockRunner{}, nil).Routes(), http.MethodGet, "/agent/runs/any", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestListRuns(t *testing.T) {
	var gotLimit int
	runs := &mockRuns{listFn: func(limit int) ([]store.Run, error) {
		gotLimit = limit
		return []store.Run{{ID: "b", State: "done"}, {ID: "a", State: "fetching"}}, nil
	}}
	h := NewServer(&mockRunner{}, runs).Routes()

	rec := doRequest(h, http.MethodGet, "/agent/runs", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotLimit != 20 {
		t.Errorf("expected default limit 20, got %d", gotLimit)
	}
	list, ok := decode(t, rec)["runs"].([]any)
	if !ok || len(list) != 2 {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
	if first := list[0].(map[string]any); first["id"] != "b" {
		t.Errorf("expected newest run first, got %v", first)
	}

	if rec := doRequest(h, http.MethodGet, "/agent/runs?limit=5", ""); rec.Code != http.StatusOK || gotLimit != 5 {
		t.Errorf("expected limit 5 to pass through, got status %d limit %d", rec.Code, gotLimit)
	}
	for _, bad := range []string{"0", "-1", "abc", "1000"} {
		if rec := doRequest(h, http.MethodGet, "/agent/runs?limit="+bad, ""); rec.Code != http.StatusBadRequest {
			t.Errorf("limit=%s: expected 400, got %d", bad, rec.Code)
		}
	}
}

func TestListRuns_Errors(t *testing.T) {
	if rec := doRequest(NewServer(&mockRunner{}, nil).Routes(), http.MethodGet, "/agent/runs", ""); rec.Code != http.StatusNotFound {
		t.Errorf("ledger disabled: expected 404, got %d", rec.Code)
	}
	runs := &mockRuns{listFn: func(int) ([]store.Run, error) { return nil, errors.New("locked") }}
	if rec := doRequest(NewServer(&mockRunner{}, runs).Routes(), http.MethodGet, "/agent/runs", ""); rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}
