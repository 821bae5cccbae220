package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/supermro/pkg/hierarchy"
	"github.com/matzehuels/supermro/pkg/observability"
	"github.com/matzehuels/supermro/pkg/pipeline"
)

const models = `from abc import ABC, abstractmethod


class Base(ABC):
    @abstractmethod
    def save(self):
        ...


class Item(Base):
    def save(self):
        pass

    def price(self):
        return 0


class Book(Item):
    pass


class Broken(Missing):
    pass
`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	root := t.TempDir()
	pkg := filepath.Join(root, "shop")
	if err := os.MkdirAll(pkg, 0o755); err != nil {
		t.Fatal(err)
	}
	for name, content := range map[string]string{"__init__.py": "", "models.py": models} {
		if err := os.WriteFile(filepath.Join(pkg, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	s := New(pipeline.NewRunner(nil, nil, nil), Config{
		Defaults: pipeline.Options{ProjectPath: root, Package: "shop", Stubs: true},
	})
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, srv *httptest.Server, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, body
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	return v
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	resp, body := get(t, srv, "/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if got := decode[map[string]string](t, body)["status"]; got != "ok" {
		t.Errorf("status field = %q, want ok", got)
	}
	if !strings.HasPrefix(resp.Header.Get("Server"), "supermro/") {
		t.Errorf("Server header = %q", resp.Header.Get("Server"))
	}
}

func TestChains(t *testing.T) {
	srv := newTestServer(t)
	resp, body := get(t, srv, "/api/v1/chains")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	got := decode[chainsResponse](t, body)

	want := []string{"shop.models.Book", "shop.models.Item", "shop.models.Base", "abc.ABC", "object"}
	if chain, ok := got.Chains.Get("shop.models.Book"); !ok || !slices.Equal(chain, want) {
		t.Errorf("chain of Book = %v, want %v", chain, want)
	}
	if len(got.Failures) != 1 || got.Failures[0].Name != "shop.models.Broken" || got.Failures[0].Code != "UNRESOLVED_BASE" {
		t.Errorf("failures = %+v, want Broken UNRESOLVED_BASE", got.Failures)
	}
	if got.Stats.Failed != 1 {
		t.Errorf("stats.failed = %d, want 1", got.Stats.Failed)
	}
}

func TestChain(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		path   string
		status int
		code   string
	}{
		{"/api/v1/chains/Book", http.StatusOK, ""},
		{"/api/v1/chains/shop.models.Item", http.StatusOK, ""},
		{"/api/v1/chains/Nope", http.StatusNotFound, "CLASS_NOT_FOUND"},
		{"/api/v1/chains/Broken", http.StatusUnprocessableEntity, "UNRESOLVED_BASE"},
		{"/api/v1/chains/Book?package=other", http.StatusNotFound, "PACKAGE_NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, body := get(t, srv, tt.path)
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d: %s", resp.StatusCode, tt.status, body)
			}
			if tt.code != "" {
				if got := decode[errorBody](t, body).Error.Code; got != tt.code {
					t.Errorf("code = %s, want %s", got, tt.code)
				}
			}
		})
	}
}

func TestTrace(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"abstract counted", "class=Book&method=save", []string{"shop.models.Item", "shop.models.Base"}},
		{"abstract skipped", "class=Book&method=save&skip_abstract=true", []string{"shop.models.Item"}},
		{"root method", "class=Book&method=__init__", []string{"object"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := get(t, srv, "/api/v1/trace?"+tt.query)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d: %s", resp.StatusCode, body)
			}
			tr := decode[hierarchy.Trace](t, body)
			var got []string
			for _, s := range tr.Steps {
				got = append(got, s.Class)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("steps = %v, want %v", got, tt.want)
			}
		})
	}

	resp, _ := get(t, srv, "/api/v1/trace?class=Book&method=fly")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown method status = %d, want 404", resp.StatusCode)
	}
	resp, _ = get(t, srv, "/api/v1/trace?class=Book")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing method status = %d, want 400", resp.StatusCode)
	}
}

func TestGraph(t *testing.T) {
	srv := newTestServer(t)

	resp, body := get(t, srv, "/api/v1/graph/dot")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/vnd.graphviz") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(string(body), "digraph") || strings.Contains(string(body), "Broken") {
		t.Errorf("dot output should contain a digraph without failed classes:\n%s", body)
	}

	resp, _ = get(t, srv, "/api/v1/graph/gif")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown format status = %d, want 400", resp.StatusCode)
	}
}

func TestPlan(t *testing.T) {
	srv := newTestServer(t)
	resp, body := get(t, srv, "/api/v1/plan")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	var plan struct {
		Clusters []struct {
			Module string `json:"module"`
		} `json:"clusters"`
		Excluded []string `json:"excluded"`
	}
	if err := json.Unmarshal(body, &plan); err != nil {
		t.Fatal(err)
	}
	for _, c := range plan.Clusters {
		if c.Module == "abc" || c.Module == "builtins" {
			t.Errorf("stub module %s should be hidden", c.Module)
		}
	}
	if !slices.Contains(plan.Excluded, "shop.models.Broken") {
		t.Errorf("excluded = %v, want Broken", plan.Excluded)
	}
}

func TestAnalyzeManifest(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name        string
		contentType string
		body        string
		status      int
	}{
		{"json", "application/json", `{"modules":[{"name":"m","classes":[{"name":"A"},{"name":"B","bases":["A"]}]}]}`, http.StatusOK},
		{"yaml", "application/yaml", "modules:\n  - name: m\n    classes:\n      - name: A\n      - name: B\n        bases: [A]\n", http.StatusOK},
		{"duplicate class", "application/json", `{"modules":[{"name":"m","classes":[{"name":"A"},{"name":"A"}]}]}`, http.StatusBadRequest},
		{"malformed", "application/json", `{"modules":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/api/v1/analyze", tt.contentType, strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d: %s", resp.StatusCode, tt.status, body)
			}
			if tt.status != http.StatusOK {
				return
			}
			got := decode[chainsResponse](t, body)
			if chain, _ := got.Chains.Get("m.B"); !slices.Equal(chain, []string{"m.B", "m.A", "object"}) {
				t.Errorf("chain of m.B = %v", chain)
			}
		})
	}
}

type recordingHooks struct {
	observability.NoopHTTPHooks
	mu     sync.Mutex
	routes []string
}

func (h *recordingHooks) OnResponse(_ context.Context, method, route string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.routes = append(h.routes, method+" "+route)
}

func TestInstrumentUsesRoutePattern(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetHTTPHooks(hooks)
	t.Cleanup(observability.Reset)

	srv := newTestServer(t)
	get(t, srv, "/api/v1/chains/Book")
	get(t, srv, "/nope")

	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	want := []string{"GET /api/v1/chains/{class}", "GET unmatched"}
	if !slices.Equal(hooks.routes, want) {
		t.Errorf("routes = %v, want %v", hooks.routes, want)
	}
}
