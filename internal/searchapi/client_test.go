package searchapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T, url string, opts Options) *Client {
	t.Helper()
	c, err := NewClient(url, opts)
	require.NoError(t, err)
	return c
}

func TestFetchSendsQueryParameters(t *testing.T) {
	var got *http.Request
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		got = r
		fmt.Fprint(w, `{"results":[{"id":"1","title":"Alpha"}],"total":1,"page":1}`)
	})

	c := newClient(t, srv.URL+"/api/search?tenant=x", Options{UserAgent: "test-agent"})
	page, err := c.Fetch(context.Background(), Request{Query: "abc def", Limit: 10, Page: 1})
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, http.MethodGet, got.Method)
	assert.Equal(t, "/api/search", got.URL.Path)
	assert.Equal(t, "abc def", got.URL.Query().Get("query"))
	assert.Equal(t, "10", got.URL.Query().Get("limit"))
	assert.Equal(t, "1", got.URL.Query().Get("page"))
	assert.Equal(t, "x", got.URL.Query().Get("tenant"))
	assert.Equal(t, "application/json", got.Header.Get("Accept"))
	assert.Equal(t, "test-agent", got.Header.Get("User-Agent"))
	assert.NotEmpty(t, got.Header.Get("X-Request-Id"))

	require.Len(t, page.Results, 1)
	assert.Equal(t, "Alpha", page.Results[0].Title)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 1, page.Page)
}

func TestFetchDecodesOptionalFields(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":[
			{"id":"1","title":"Alpha","description":"first","image":"https://img/1.png"},
			{"id":"2","title":"Beta"}
		],"total":42,"page":1}`)
	})

	page, err := newClient(t, srv.URL, Options{}).Fetch(context.Background(), Request{Query: "abc", Limit: 10})
	require.NoError(t, err)

	require.Len(t, page.Results, 2)
	assert.True(t, page.Results[0].HasDescription())
	assert.True(t, page.Results[0].HasImage())
	assert.False(t, page.Results[1].HasDescription())
	assert.Equal(t, 42, page.Total)
}

func TestFetchEmptyResults(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":[],"total":0,"page":1}`)
	})

	page, err := newClient(t, srv.URL, Options{}).Fetch(context.Background(), Request{Query: "zzz"})
	require.NoError(t, err)
	assert.True(t, page.IsEmpty())
	assert.NotNil(t, page.Results)
}

func TestFetchTruncatesToLimit(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":[{"id":"1","title":"a"},{"id":"2","title":"b"},{"id":"3","title":"c"}],"total":3,"page":1}`)
	})

	page, err := newClient(t, srv.URL, Options{}).Fetch(context.Background(), Request{Query: "abc", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Results, 2)
	assert.Equal(t, 3, page.Total)
}

func TestFetchStatusErrors(t *testing.T) {
	tests := []struct {
		status    int
		transient bool
		message   string
	}{
		{http.StatusInternalServerError, true, "search service unavailable (HTTP 500)"},
		{http.StatusServiceUnavailable, true, "search service unavailable (HTTP 503)"},
		{http.StatusBadRequest, false, "request rejected (HTTP 400)"},
		{http.StatusNotFound, false, "request rejected (HTTP 404)"},
		{http.StatusTooManyRequests, false, "request rejected (HTTP 429)"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			})

			_, err := newClient(t, srv.URL, Options{}).Fetch(context.Background(), Request{Query: "abc"})
			require.Error(t, err)

			var statusErr *StatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, tt.status, statusErr.StatusCode)
			assert.Equal(t, tt.transient, IsTransient(err))
			assert.Equal(t, tt.message, UserMessage(err))
		})
	}
}

func TestFetchMalformedBodies(t *testing.T) {
	bodies := map[string]string{
		"not json":         `<html>oops</html>`,
		"missing total":    `{"results":[],"page":1}`,
		"negative total":   `{"results":[],"total":-1,"page":1}`,
		"page zero":        `{"results":[],"total":0,"page":0}`,
		"missing title":    `{"results":[{"id":"1"}],"total":1,"page":1}`,
		"missing id":       `{"results":[{"title":"a"}],"total":1,"page":1}`,
		"duplicate id":     `{"results":[{"id":"1","title":"a"},{"id":"1","title":"b"}],"total":2,"page":1}`,
		"results not list": `{"results":{},"total":0,"page":1}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, body)
			})

			_, err := newClient(t, srv.URL, Options{}).Fetch(context.Background(), Request{Query: "abc"})
			require.ErrorIs(t, err, ErrMalformedResponse)
			assert.False(t, IsTransient(err))
			assert.Equal(t, "search service sent an invalid response", UserMessage(err))
		})
	}
}

func TestFetchRejectsOversizedBody(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":[],"total":0,"page":1,"pad":"`+strings.Repeat("x", maxBodySize)+`"}`)
	})

	_, err := newClient(t, srv.URL, Options{}).Fetch(context.Background(), Request{Query: "abc"})
	require.ErrorIs(t, err, ErrMalformedResponse)
}

func TestFetchTimeoutIsTransient(t *testing.T) {
	release := make(chan struct{})
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	c := newClient(t, srv.URL, Options{Timeout: 20 * time.Millisecond})
	_, err := c.Fetch(context.Background(), Request{Query: "abc"})

	require.ErrorIs(t, err, ErrTimeout)
	assert.True(t, IsTransient(err))
	assert.Equal(t, "search timed out", UserMessage(err))
}

func TestFetchCancelledIsTerminal(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := newClient(t, srv.URL, Options{Timeout: time.Second}).Fetch(ctx, Request{Query: "abc"})
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsTransient(err))
}

func TestFetchTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newClient(t, url, Options{}).Fetch(context.Background(), Request{Query: "abc"})

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.True(t, IsTransient(err))
	assert.Equal(t, "could not reach search service", UserMessage(err))
}

func TestNewClientRejectsBadURL(t *testing.T) {
	_, err := NewClient("ftp://example.com/search", Options{})
	assert.Error(t, err)

	_, err = NewClient("://bad", Options{})
	assert.Error(t, err)
}

func TestUserMessageFallback(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, "search failed", UserMessage(errors.New("boom")))
	assert.False(t, IsTransient(errors.New("boom")))
}
