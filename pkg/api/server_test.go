package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/laneflow/laneflow/pkg/pipeline"
)

const validSpec = `{
	"lanes": [{"id": "1", "name": "Main"}],
	"nodes": [
		{"id": "s", "type": "start", "name": "Start", "lane_id": "1", "next": "f"},
		{"id": "f", "type": "finish", "name": "End", "lane_id": "1"}
	]
}`

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewServer(pipeline.NewRunner(nil, nil), nil).Router())
	t.Cleanup(srv.Close)
	return srv
}

func TestHealthz(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestConvertBPMN(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Post(srv.URL+"/v1/convert", "application/json", strings.NewReader(validSpec))
	if err != nil {
		t.Fatalf("POST /v1/convert: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/xml" {
		t.Errorf("content type = %q, want application/xml", ct)
	}
	if resp.Header.Get("X-Run-Id") == "" {
		t.Error("response missing X-Run-Id header")
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Error("response missing X-Request-Id header")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(string(body), "<bpmn:definitions") {
		t.Errorf("body is not a BPMN document:\n%s", body)
	}
}

func TestConvertLayoutFormat(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Post(srv.URL+"/v1/convert?format=layout", "application/json", strings.NewReader(validSpec))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q, want application/json", ct)
	}

	var diagram struct {
		NodeBounds map[string]any `json:"node_bounds"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&diagram); err != nil {
		t.Fatalf("decode layout body: %v", err)
	}
	if len(diagram.NodeBounds) != 2 {
		t.Errorf("node bounds = %d entries, want 2", len(diagram.NodeBounds))
	}
}

func TestConvertYAMLInput(t *testing.T) {
	srv := testServer(t)

	yamlSpec := `
lanes:
  - id: "1"
    name: Main
nodes:
  - id: s
    type: start
    name: Start
    lane_id: "1"
    next: f
  - id: f
    type: finish
    name: End
    lane_id: "1"
`
	resp, err := http.Post(srv.URL+"/v1/convert", "application/yaml", strings.NewReader(yamlSpec))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestConvertErrors(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		body       string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "missing lanes",
			url:        "/v1/convert",
			body:       `{"nodes": []}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_SPEC",
		},
		{
			name:       "malformed json",
			url:        "/v1/convert",
			body:       `{`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_SPEC",
		},
		{
			name:       "unknown format",
			url:        "/v1/convert?format=pdf",
			body:       validSpec,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_FORMAT",
		},
		{
			name: "unsupported topology",
			url:  "/v1/convert",
			body: `{
				"lanes": [{"id": "1", "name": "Main"}],
				"nodes": [
					{"id": "s1", "type": "start", "name": "A", "lane_id": "1", "next": "f"},
					{"id": "f", "type": "finish", "name": "End", "lane_id": "1"},
					{"id": "s2", "type": "start", "name": "B", "lane_id": "1", "next": "g"},
					{"id": "g", "type": "flow", "name": "G", "lane_id": "1", "next": {"a": "f", "b": "f"}}
				]
			}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "UNSUPPORTED_TOPOLOGY",
		},
	}

	srv := testServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+tt.url, "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatalf("POST: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}

			var body errorResponse
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if body.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Code, tt.wantCode)
			}
			if body.RequestID == "" {
				t.Error("error body missing request id")
			}
		})
	}
}
