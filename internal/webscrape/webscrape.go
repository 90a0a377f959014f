// Package webscrape fetches remote pages as plain text for the scrape record.
// Failures never abort a run: they are recorded on the Result.
package webscrape

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/temoto/robotstxt"
	"go.uber.org/zap"
)

// Result is one scraped page.
type Result struct {
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error,omitempty"`
}

// Options configure a Scraper.
type Options struct {
	UserAgent       string
	Timeout         time.Duration
	RespectRobots   bool
	RobotsCacheSize int
	MaxBodyBytes    int64
	// Client overrides the HTTP client. Timeout is ignored when set.
	Client *http.Client
}

// ErrDisallowed is recorded when robots.txt forbids a URL.
var ErrDisallowed = errors.New("disallowed by robots.txt")

// Scraper fetches pages sequentially, caching robots.txt per host.
type Scraper struct {
	opts   Options
	agent  string
	client *http.Client
	robots *lru.Cache[string, *robotstxt.RobotsData]
	logger *zap.Logger
	now    func() time.Time
}

// New builds a Scraper.
func New(opts Options, logger *zap.Logger) (*Scraper, error) {
	if opts.UserAgent == "" {
		return nil, errors.New("webscrape: user agent is required")
	}
	if opts.RobotsCacheSize <= 0 {
		opts.RobotsCacheSize = 64
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 5 << 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cache, err := lru.New[string, *robotstxt.RobotsData](opts.RobotsCacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating robots cache: %w", err)
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	return &Scraper{
		opts:   opts,
		agent:  productToken(opts.UserAgent),
		client: client,
		robots: cache,
		logger: logger,
		now:    time.Now,
	}, nil
}

// ScrapeAll scrapes every URL in order.
func (s *Scraper) ScrapeAll(ctx context.Context, urls []string) []Result {
	results := make([]Result, 0, len(urls))
	for _, u := range urls {
		results = append(results, s.Scrape(ctx, u))
	}
	return results
}

// Scrape fetches one URL and extracts its title and visible text.
func (s *Scraper) Scrape(ctx context.Context, rawURL string) Result {
	res := Result{URL: rawURL, Timestamp: s.now()}

	u, err := url.Parse(rawURL)
	if err == nil && ((u.Scheme != "http" && u.Scheme != "https") || u.Host == "") {
		err = fmt.Errorf("unsupported url %q", rawURL)
	}
	if err != nil {
		return s.fail(res, err)
	}

	if s.opts.RespectRobots && !s.Allowed(ctx, u) {
		return s.fail(res, fmt.Errorf("%w for %s", ErrDisallowed, rawURL))
	}

	body, err := s.fetch(ctx, rawURL)
	if err != nil {
		return s.fail(res, err)
	}

	title, text, err := ExtractText(strings.NewReader(body))
	if err != nil {
		return s.fail(res, fmt.Errorf("parsing html: %w", err))
	}
	res.Title = title
	res.Text = text

	s.logger.Info("scraped url", zap.String("url", rawURL), zap.Int("chars", len(text)))
	return res
}

// Allowed reports whether robots.txt on u's host admits the scraper's agent.
// An unreachable robots.txt allows everything.
func (s *Scraper) Allowed(ctx context.Context, u *url.URL) bool {
	key := u.Scheme + "://" + u.Host
	data, ok := s.robots.Get(key)
	if !ok {
		data = s.fetchRobots(ctx, key+"/robots.txt")
		s.robots.Add(key, data)
	}
	if data == nil {
		return true
	}
	return data.TestAgent(u.RequestURI(), s.agent)
}

func (s *Scraper) fetchRobots(ctx context.Context, robotsURL string) *robotstxt.RobotsData {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", s.opts.UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Debug("robots.txt unreachable", zap.String("url", robotsURL), zap.Error(err))
		return nil
	}
	defer resp.Body.Close()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		s.logger.Debug("robots.txt unparsable", zap.String("url", robotsURL), zap.Error(err))
		return nil
	}
	return data
}

func (s *Scraper) fetch(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", s.opts.UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetching %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.opts.MaxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", rawURL, err)
	}
	return strings.ToValidUTF8(string(data), "�"), nil
}

func (s *Scraper) fail(res Result, err error) Result {
	res.Error = err.Error()
	s.logger.Warn("scrape failed", zap.String("url", res.URL), zap.Error(err))
	return res
}

// productToken returns the agent name robots.txt groups are matched on,
// e.g. "AspireDocBot" for "AspireDocBot/1.0 (+https://...)".
func productToken(ua string) string {
	if i := strings.IndexAny(ua, "/ "); i > 0 {
		return ua[:i]
	}
	return ua
}
