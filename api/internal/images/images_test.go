package images

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeDDG(t *testing.T, page string, results int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/i.js", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "4-1234-5678", r.URL.Query().Get("vqd"))
		assert.Equal(t, "json", r.URL.Query().Get("o"))
		var items []string
		for i := 0; i < results; i++ {
			items = append(items, fmt.Sprintf(`{"image":"https://img.example/%d.png"}`, i))
		}
		_, _ = fmt.Fprintf(w, `{"results":[%s]}`, strings.Join(items, ","))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "images", r.URL.Query().Get("iax"))
		assert.Equal(t, "Mozilla/5.0", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(page))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &calls
}

const page = `<html><head><script>var x = 1; vqd='4-1234-5678'; DDG.init();</script></head><body></body></html>`

func TestSearch_CapsResults(t *testing.T) {
	srv, _ := fakeDDG(t, page, 9)
	s := New(Options{BaseURL: srv.URL}, nil)

	got := s.Search(context.Background(), "transformer attention diagram flowchart")
	require.Len(t, got, 6)
	assert.Equal(t, "https://img.example/0.png", got[0])
}

func TestSearch_DoubleQuotedToken(t *testing.T) {
	srv, _ := fakeDDG(t, `<script>vqd="4-1234-5678"</script>`, 2)
	got := New(Options{BaseURL: srv.URL}, nil).Search(context.Background(), "q")
	assert.Len(t, got, 2)
}

func TestSearch_NoTokenIsEmpty(t *testing.T) {
	srv, _ := fakeDDG(t, `<html>nothing here</html>`, 3)
	got := New(Options{BaseURL: srv.URL}, nil).Search(context.Background(), "q")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSearch_UpstreamDownIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()
	got := New(Options{BaseURL: srv.URL}, nil).Search(context.Background(), "q")
	assert.Equal(t, []string{}, got)
}

func TestSearch_EmptyQuery(t *testing.T) {
	assert.Equal(t, []string{}, New(Options{BaseURL: "http://127.0.0.1:1"}, nil).Search(context.Background(), "  "))
}

func TestSearch_Cache(t *testing.T) {
	srv, calls := fakeDDG(t, page, 3)
	s := New(Options{BaseURL: srv.URL, CacheTTL: time.Minute}, nil)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	first := s.Search(context.Background(), "q")
	require.Len(t, first, 3)
	assert.EqualValues(t, 2, calls.Load())

	first[0] = "mutated"
	second := s.Search(context.Background(), "q")
	assert.Equal(t, "https://img.example/0.png", second[0])
	assert.EqualValues(t, 2, calls.Load())

	clock = clock.Add(2 * time.Minute)
	s.Search(context.Background(), "q")
	assert.EqualValues(t, 4, calls.Load())
}

func TestSearch_CancelledContext(t *testing.T) {
	srv, _ := fakeDDG(t, page, 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	got := New(Options{BaseURL: srv.URL, RatePerSecond: 1}, nil).Search(ctx, "q")
	assert.Empty(t, got)
}
