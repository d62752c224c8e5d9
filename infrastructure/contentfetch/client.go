// Package contentfetch retrieves and extracts remote articles for
// wikipedia and web nodes.
package contentfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/Apanazar/WGE/application/ports"
	pkgerrors "github.com/Apanazar/WGE/pkg/errors"
	"github.com/Apanazar/WGE/pkg/observability"
)

// Config holds fetcher settings
type Config struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64

	// WikipediaURL is the per-language site root; %s is the language.
	WikipediaURL string

	// Circuit breaker
	BreakerMaxRequests      uint32
	BreakerInterval         time.Duration
	BreakerTimeout          time.Duration
	BreakerFailureThreshold float64
	BreakerMinRequests      uint32
}

// DefaultConfig returns the default fetcher configuration
func DefaultConfig() Config {
	return Config{
		Timeout:      30 * time.Second,
		UserAgent:    "WikiGraphExplorer/1.0",
		MaxBodyBytes: 10 << 20,
		WikipediaURL: "https://%s.wikipedia.org",

		BreakerMaxRequests:      5,
		BreakerInterval:         30 * time.Second,
		BreakerTimeout:          60 * time.Second,
		BreakerFailureThreshold: 0.8,
		BreakerMinRequests:      5,
	}
}

var languagePattern = regexp.MustCompile(`^[a-z]{2,3}(-[a-z]+)?$`)

// mainPages lists localized front pages used when a random lookup fails.
var mainPages = map[string]string{
	"en": "Main_Page",
	"ru": "%D0%97%D0%B0%D0%B3%D0%BB%D0%B0%D0%B2%D0%BD%D0%B0%D1%8F_%D1%81%D1%82%D1%80%D0%B0%D0%BD%D0%B8%D1%86%D0%B0",
	"de": "Wikipedia:Hauptseite",
	"fr": "Wikip%C3%A9dia:Accueil_principal",
}

// statusError is a non-200 answer from the remote site
type statusError struct {
	Code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.Code)
}

// Client implements ports.ContentFetcher over HTTP
type Client struct {
	cfg     Config
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewClient creates a fetcher. A nil httpClient gets one with cfg.Timeout.
func NewClient(cfg Config, httpClient *http.Client, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	c := &Client{cfg: cfg, http: httpClient, logger: logger}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "content-fetch",
		MaxRequests: cfg.BreakerMaxRequests,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.BreakerMinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.BreakerFailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		// Pages that answer 4xx say nothing about the health of the network.
		IsSuccessful: func(err error) bool {
			var se *statusError
			if errors.As(err, &se) {
				return se.Code < 500
			}
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return c
}

// Fetch downloads url and extracts its title, markup and links
func (c *Client) Fetch(ctx context.Context, rawURL string, limit int) (result *ports.FetchResult, err error) {
	ctx, span := observability.StartSpan(ctx, "contentfetch", "Client.Fetch",
		attribute.String("url", rawURL), attribute.Int("limit", limit))
	defer func() { observability.EndSpan(span, err) }()

	pageURL, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (pageURL.Scheme != "http" && pageURL.Scheme != "https") || pageURL.Host == "" {
		return nil, pkgerrors.NewFetchFailedError(rawURL, fmt.Errorf("unsupported url"))
	}

	start := time.Now()
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.get(ctx, pageURL, limit)
	})
	if err != nil {
		c.logger.Warn("Fetch failed",
			zap.String("url", rawURL),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return nil, pkgerrors.NewFetchFailedError(rawURL, err)
	}

	a := out.(*article)
	span.SetAttributes(attribute.Int("links", len(a.Links)))
	c.logger.Info("Article parsed",
		zap.String("url", rawURL),
		zap.String("title", a.Title),
		zap.Int("links", len(a.Links)),
		zap.Bool("fallback", a.Fallback),
		zap.Duration("duration", time.Since(start)))

	return &ports.FetchResult{Title: a.Title, Content: a.Content, Links: a.Links}, nil
}

func (c *Client) get(ctx context.Context, pageURL *url.URL, limit int) (*article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &statusError{Code: resp.StatusCode}
	}

	var body io.Reader = resp.Body
	if c.cfg.MaxBodyBytes > 0 {
		body = io.LimitReader(resp.Body, c.cfg.MaxBodyBytes)
	}
	// Redirects move the page; links resolve against where it ended up.
	return parseArticle(body, resp.Request.URL, limit)
}

// RandomURL asks the wiki for a random article and returns where it
// redirected. Failures fall back to the language's main page.
func (c *Client) RandomURL(ctx context.Context, language string) (string, error) {
	lang := strings.ToLower(strings.TrimSpace(language))
	if !languagePattern.MatchString(lang) {
		lang = "en"
	}
	site := fmt.Sprintf(c.cfg.WikipediaURL, lang)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, site+"/wiki/Special:Random", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		c.logger.Warn("Random article lookup failed, using main page",
			zap.String("language", lang), zap.Error(err))
		return c.mainPage(site, lang), nil
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	final := resp.Request.URL.String()
	c.logger.Info("Random article resolved",
		zap.String("language", lang),
		zap.String("url", final),
		zap.Int("status", resp.StatusCode))
	return final, nil
}

func (c *Client) mainPage(site, lang string) string {
	page, ok := mainPages[lang]
	if !ok {
		page = "Special:MainPage"
	}
	return site + "/wiki/" + page
}
