package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"discogen/internal/config"
	"discogen/internal/discovery"
	"discogen/internal/logging"
	"discogen/internal/metrics"
	"discogen/internal/ratelimit"
)

func newTestServer(t *testing.T) (*server, *httptest.Server) {
	t.Helper()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/apis":
			json.NewEncoder(w).Encode(map[string]any{
				"items": []map[string]any{
					{
						"id": "demo:v1", "name": "demo", "version": "v1", "title": "Demo API",
						"discoveryRestUrl": "http://" + r.Host + "/demo/v1/rest", "preferred": true,
					},
					{
						"id": "old:v1", "name": "old", "version": "v1", "title": "Old API",
						"discoveryRestUrl": "http://" + r.Host + "/old/v1/rest",
					},
				},
			})
		case "/demo/v1/rest":
			json.NewEncoder(w).Encode(map[string]any{
				"kind":    "discovery#restDescription",
				"id":      "demo:v1",
				"name":    "demo",
				"version": "v1",
				"title":   "Demo API",
				"rootUrl": "https://demo.example.com/",
				"resources": map[string]any{
					"things": map[string]any{
						"methods": map[string]any{
							"list": map[string]any{
								"httpMethod": "GET",
								"path":       "things",
								"response":   map[string]any{"$ref": "ThingList"},
							},
						},
					},
				},
				"schemas": map[string]any{
					"ThingList": map[string]any{
						"id":   "ThingList",
						"type": "object",
						"properties": map[string]any{
							"count": map[string]any{"type": "integer"},
						},
					},
				},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(upstream.Close)

	cfg := &config.Config{DirectoryURL: upstream.URL + "/apis"}
	cfg.ApplyDefaults()
	cfg.DirectoryURL = upstream.URL + "/apis"

	srv := &server{
		cfg:       cfg,
		logger:    logging.Discard(),
		directory: discovery.NewDirectory(cfg.DirectoryURL, 2*time.Second),
		fetcher:   discovery.NewFetcher(2 * time.Second),
		collector: metrics.NewCollector(),
	}
	ts := httptest.NewServer(srv.routes())
	t.Cleanup(ts.Close)
	return srv, ts
}

func get(t *testing.T, url, accept string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(body)
}

func TestGenerateRoute(t *testing.T) {
	_, ts := newTestServer(t)

	resp, body := get(t, ts.URL+"/v1/demo:v1.ts", "*/*")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/typescript") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !strings.Contains(body, "export class Demo {") {
		t.Fatalf("missing generated class:\n%s", body)
	}
	if !strings.Contains(body, "async thingsList(): Promise<ThingList> {") {
		t.Fatalf("missing generated method:\n%s", body)
	}
	if !strings.Contains(body, "Source: http://") {
		t.Fatalf("missing self URL in header:\n%s", body)
	}
}

func TestGenerateRouteBrowserAccept(t *testing.T) {
	_, ts := newTestServer(t)

	resp, _ := get(t, ts.URL+"/v1/demo:v1.ts", "text/html,application/xhtml+xml")
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("browsers should get text/plain, got %q", ct)
	}
}

func TestGenerateRouteWithoutExtension(t *testing.T) {
	_, ts := newTestServer(t)

	resp, body := get(t, ts.URL+"/v1/demo:v1", "*/*")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.StatusCode, body)
	}
}

func TestGenerateUnknownAPI(t *testing.T) {
	_, ts := newTestServer(t)

	resp, _ := get(t, ts.URL+"/v1/missing:v1.ts", "*/*")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestGenerateBadModulePath(t *testing.T) {
	_, ts := newTestServer(t)

	resp, _ := get(t, ts.URL+"/v1/garbage", "*/*")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestIndexListsPreferredOnly(t *testing.T) {
	_, ts := newTestServer(t)

	resp, body := get(t, ts.URL+"/", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if !strings.Contains(body, "/v1/demo:v1.ts") {
		t.Fatalf("preferred API missing from index:\n%s", body)
	}
	if strings.Contains(body, "/v1/old:v1.ts") {
		t.Fatalf("non-preferred API should not be listed:\n%s", body)
	}
}

func TestMetricsRoute(t *testing.T) {
	_, ts := newTestServer(t)

	get(t, ts.URL+"/v1/demo:v1.ts", "*/*")
	resp, body := get(t, ts.URL+"/metrics", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if !strings.Contains(body, "discogen_requests_total 1") {
		t.Fatalf("metrics missing request count:\n%s", body)
	}
}

func TestHealthz(t *testing.T) {
	_, ts := newTestServer(t)
	resp, body := get(t, ts.URL+"/healthz", "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "ok") {
		t.Fatalf("healthz failed: %d %q", resp.StatusCode, body)
	}
}

func TestRateLimitedGenerate(t *testing.T) {
	srv, ts := newTestServer(t)
	srv.limits = ratelimit.NewRegistry(1, 0)

	resp, _ := get(t, ts.URL+"/v1/demo:v1.ts", "*/*")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("first request should pass, got %d", resp.StatusCode)
	}
	resp, _ = get(t, ts.URL+"/v1/demo:v1.ts", "*/*")
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("second request should be limited, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Fatalf("missing Retry-After header")
	}
}

func TestParseModulePath(t *testing.T) {
	cases := []struct {
		in      string
		api     string
		version string
		ok      bool
	}{
		{"demo:v1.ts", "demo", "v1", true},
		{"demo:v1", "demo", "v1", true},
		{"sqladmin:v1beta4.ts", "sqladmin", "v1beta4", true},
		{"demo", "", "", false},
		{":v1", "", "", false},
		{"demo:", "", "", false},
	}
	for _, tc := range cases {
		api, version, ok := parseModulePath(tc.in)
		if api != tc.api || version != tc.version || ok != tc.ok {
			t.Fatalf("parseModulePath(%q) = %q %q %v, want %q %q %v", tc.in, api, version, ok, tc.api, tc.version, tc.ok)
		}
	}
}
