package driver

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/datazip-inc/tap-toast/types"
	"github.com/stretchr/testify/require"
)

// fakeToast is an in-process Toast API. The login endpoint hands out
// token-1, token-2, ... and data endpoints demand the latest token.
type fakeToast struct {
	server *httptest.Server

	mu       sync.Mutex
	tokens   int
	hits     map[string]int
	queries  map[string][]url.Values
	headers  map[string]http.Header
	handlers map[string]http.HandlerFunc
}

func newFakeToast(t *testing.T) *fakeToast {
	t.Helper()
	f := &fakeToast{
		hits:     map[string]int{},
		queries:  map[string][]url.Values{},
		headers:  map[string]http.Header{},
		handlers: map[string]http.HandlerFunc{},
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeToast) serve(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/")

	f.mu.Lock()
	f.hits[path]++
	f.queries[path] = append(f.queries[path], r.URL.Query())
	f.headers[path] = r.Header.Clone()
	if path == loginPath {
		f.tokens++
		token := f.tokens
		handler := f.handlers[path]
		f.mu.Unlock()
		if handler != nil {
			handler(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"token":{"accessToken":"token-%d","expiresIn":3600}}`, token)
		return
	}
	expected := fmt.Sprintf("Bearer token-%d", f.tokens)
	handler := f.handlers[path]
	f.mu.Unlock()

	if handler == nil {
		http.NotFound(w, r)
		return
	}
	if path != tokenPath && r.Header.Get("Authorization") != expected {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	handler(w, r)
}

func (f *fakeToast) handle(path string, handler http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[path] = handler
}

// json serves a fixed body
func (f *fakeToast) json(path, body string) {
	f.handle(path, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	})
}

// byQuery serves the body registered for the value of one query parameter,
// an empty list otherwise
func (f *fakeToast) byQuery(path, param string, bodies map[string]string) {
	f.handle(path, func(w http.ResponseWriter, r *http.Request) {
		body, found := bodies[r.URL.Query().Get(param)]
		if !found {
			body = "[]"
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	})
}

// detail serves {"guid": <last path segment>} under prefix
func (f *fakeToast) detail(prefix string, guids ...string) {
	for _, guid := range guids {
		f.json(prefix+"/"+guid, fmt.Sprintf(`{"guid":%q,"amount":1.10}`, guid))
	}
}

func (f *fakeToast) hitCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

func (f *fakeToast) queryLog(path string) []url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[path]
}

func (f *fakeToast) tokenCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tokens
}

func testConfig(baseURL string) *Config {
	return &Config{
		ClientID:            "client-id",
		ClientSecret:        "client-secret",
		LocationGUID:        "location-1",
		ManagementGroupGUID: "group-1",
		StartDate:           "2021-01-01T00:00:00Z",
		BaseURL:             baseURL,
		Retry:               &RetryConfig{InitialIntervalMS: 1, MaxIntervalMS: 5},
	}
}

func newTestToast(t *testing.T, f *fakeToast, now time.Time, configure ...func(*Config)) *Toast {
	t.Helper()
	driver := &Toast{
		HTTPClient: f.server.Client(),
		Now:        func() time.Time { return now },
	}
	config, ok := driver.GetConfigRef().(*Config)
	require.True(t, ok)
	*config = *testConfig(f.server.URL)
	for _, fn := range configure {
		fn(config)
	}
	require.NoError(t, driver.Setup(context.Background()))
	return driver
}

func readStream(t *testing.T, driver *Toast, name string, bookmark time.Time) ([]types.Record, error) {
	t.Helper()
	var stream *types.Stream
	for _, candidate := range driver.Streams() {
		if candidate.Name == name {
			stream = candidate
		}
	}
	require.NotNil(t, stream, name)

	records, err := driver.Read(context.Background(), stream, bookmark)
	require.NoError(t, err)
	return collect(records)
}

func collect(records iter.Seq2[types.Record, error]) ([]types.Record, error) {
	var out []types.Record
	for record, err := range records {
		if err != nil {
			return out, err
		}
		out = append(out, record)
	}
	return out, nil
}

func guids(records []types.Record) []string {
	out := make([]string, 0, len(records))
	for _, record := range records {
		out = append(out, fmt.Sprint(record["guid"]))
	}
	return out
}
