//go:build e2e && unix

package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

type fixtureResult struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

var fruits = []fixtureResult{
	{ID: "apple", Title: "Apple", Description: "crisp and red"},
	{ID: "apricot", Title: "Apricot", Description: "small and orange"},
	{ID: "banana", Title: "Banana"},
	{ID: "blackberry", Title: "Blackberry"},
	{ID: "blueberry", Title: "Blueberry", Description: "tiny and blue"},
	{ID: "grape", Title: "Grape"},
	{ID: "grapefruit", Title: "Grapefruit", Description: "large and sour"},
}

// fixtureServer is a search endpoint matching fruit titles by substring
type fixtureServer struct {
	*httptest.Server

	mu       sync.Mutex
	queries  []string
	failures int // upcoming requests answered with 503
}

func newFixtureServer(t *testing.T) *fixtureServer {
	t.Helper()
	fs := &fixtureServer{}
	fs.Server = httptest.NewServer(http.HandlerFunc(fs.handle))
	t.Cleanup(fs.Close)
	return fs
}

// FailNext makes the next n requests fail with 503
func (fs *fixtureServer) FailNext(n int) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.failures = n
}

// Queries returns every query received so far
func (fs *fixtureServer) Queries() []string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]string(nil), fs.queries...)
}

func (fs *fixtureServer) handle(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 1 {
		http.Error(w, "bad limit", http.StatusBadRequest)
		return
	}

	fs.mu.Lock()
	fs.queries = append(fs.queries, query)
	fail := fs.failures > 0
	if fail {
		fs.failures--
	}
	fs.mu.Unlock()

	if fail {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}

	matches := []fixtureResult{}
	for _, f := range fruits {
		if strings.Contains(strings.ToLower(f.Title), query) {
			matches = append(matches, f)
		}
	}
	total := len(matches)
	if len(matches) > limit {
		matches = matches[:limit]
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"results": matches,
		"total":   total,
		"page":    1,
	})
}
