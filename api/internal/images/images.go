package images

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL    = "https://duckduckgo.com"
	DefaultMaxResults = 6
	userAgent         = "Mozilla/5.0"
)

var vqdRe = regexp.MustCompile(`vqd=["']?([\d-]+)["']?`)

type Options struct {
	BaseURL       string
	MaxResults    int
	RatePerSecond float64
	CacheTTL      time.Duration
	Timeout       time.Duration
}

// HTTPClient is satisfied by *http.Client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// limitedClient spaces outbound requests to the scraped endpoint.
type limitedClient struct {
	client  HTTPClient
	limiter *rate.Limiter
}

func (c *limitedClient) Do(req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return c.client.Do(req)
}

type cacheEntry struct {
	images []string
	stored time.Time
}

// Searcher finds illustrative images for a query. It is best effort:
// Search never fails, it returns an empty list instead.
type Searcher struct {
	opts   Options
	client *limitedClient
	log    *logrus.Logger

	mu    sync.Mutex
	cache map[string]cacheEntry
	now   func() time.Time
}

func New(opts Options, log *logrus.Logger) *Searcher {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.MaxResults <= 0 {
		opts.MaxResults = DefaultMaxResults
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	return &Searcher{
		opts: opts,
		client: &limitedClient{
			client:  &http.Client{Timeout: opts.Timeout},
			limiter: rate.NewLimiter(limit, 1),
		},
		log:   log,
		cache: make(map[string]cacheEntry),
		now:   time.Now,
	}
}

// WithHTTPClient swaps the underlying client, keeping the rate limit.
func (s *Searcher) WithHTTPClient(c HTTPClient) *Searcher {
	if c != nil {
		s.client.client = c
	}
	return s
}

// Search returns up to MaxResults image URLs for query.
func (s *Searcher) Search(ctx context.Context, query string) []string {
	query = strings.TrimSpace(query)
	if query == "" {
		return []string{}
	}
	if imgs, ok := s.cached(query); ok {
		s.log.WithField("query", query).Debug("image search cache hit")
		return imgs
	}
	imgs, err := s.search(ctx, query)
	if err != nil {
		s.log.WithError(err).WithField("query", query).Warn("image search failed")
		return []string{}
	}
	s.store(query, imgs)
	return imgs
}

func (s *Searcher) cached(query string) ([]string, bool) {
	if s.opts.CacheTTL <= 0 {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.cache[query]
	if !ok {
		return nil, false
	}
	if s.now().Sub(e.stored) >= s.opts.CacheTTL {
		delete(s.cache, query)
		return nil, false
	}
	return append([]string(nil), e.images...), true
}

func (s *Searcher) store(query string, imgs []string) {
	if s.opts.CacheTTL <= 0 {
		return
	}
	s.mu.Lock()
	s.cache[query] = cacheEntry{images: append([]string(nil), imgs...), stored: s.now()}
	s.mu.Unlock()
}

func (s *Searcher) search(ctx context.Context, query string) ([]string, error) {
	vqd, err := s.token(ctx, query)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("l", "us-en")
	q.Set("o", "json")
	q.Set("q", query)
	q.Set("vqd", vqd)
	body, err := s.get(ctx, s.opts.BaseURL+"/i.js?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var out struct {
		Results []struct {
			Image string `json:"image"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode images: %w", err)
	}
	imgs := make([]string, 0, s.opts.MaxResults)
	for _, r := range out.Results {
		if len(imgs) == s.opts.MaxResults {
			break
		}
		if r.Image != "" {
			imgs = append(imgs, r.Image)
		}
	}
	return imgs, nil
}

// token scrapes the vqd value the image endpoint requires.
func (s *Searcher) token(ctx context.Context, query string) (string, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("iax", "images")
	q.Set("ia", "images")
	body, err := s.get(ctx, s.opts.BaseURL+"/?"+q.Encode())
	if err != nil {
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return "", fmt.Errorf("parse search page: %w", err)
	}
	var vqd string
	doc.Find("script").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if m := vqdRe.FindStringSubmatch(sel.Text()); m != nil {
			vqd = m[1]
			return false
		}
		return true
	})
	if vqd == "" {
		// sometimes it sits in an attribute or a bare inline value
		if m := vqdRe.FindSubmatch(body); m != nil {
			vqd = string(m[1])
		}
	}
	if vqd == "" {
		return "", fmt.Errorf("vqd token not found")
	}
	return vqd, nil
}

func (s *Searcher) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image search status %d", resp.StatusCode)
	}
	return body, nil
}
