package movie

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"

	"github.com/JCUYLLE2/FindFilms/internal/metrics"
)

const (
	// DefaultBaseURL is the TMDB v3 API root.
	DefaultBaseURL  = "https://api.themoviedb.org/3"
	defaultLanguage = "en-US"
	defaultTimeout  = 10 * time.Second
)

var validate = validator.New()

// Config configures the TMDB client.
type Config struct {
	BaseURL  string
	APIKey   string
	Language string
	// Timeout bounds each request including rate limiter wait.
	Timeout time.Duration
	// RateLimit is the sustained request rate per second; zero disables limiting.
	RateLimit float64
}

// Client talks to the TMDB v3 API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	language   string
	timeout    time.Duration
	limiter    *rate.Limiter
	metrics    metrics.Recorder
	logger     *slog.Logger
}

// NewClient creates a catalog client. httpClient may be nil.
func NewClient(cfg Config, httpClient *http.Client, recorder metrics.Recorder, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		language:   cfg.Language,
		timeout:    cfg.Timeout,
		metrics:    recorder,
		logger:     logger,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.language == "" {
		c.language = defaultLanguage
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	if cfg.RateLimit > 0 {
		burst := int(cfg.RateLimit)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return c
}

// ListPopular returns a page of popular titles.
func (c *Client) ListPopular(ctx context.Context, page int) (Page, error) {
	var out Page
	err := c.get(ctx, "popular", "/movie/popular", pageQuery(page), &out)
	return normalizePage(out), err
}

// ListNowPlaying returns a page of titles currently in theatres.
func (c *Client) ListNowPlaying(ctx context.Context, page int) (Page, error) {
	var out Page
	err := c.get(ctx, "now_playing", "/movie/now_playing", pageQuery(page), &out)
	return normalizePage(out), err
}

// Search uses text search when criteria carries text, attribute discovery otherwise.
// An empty result set is returned as a zero-length page, not an error.
func (c *Client) Search(ctx context.Context, criteria Criteria) (SearchResult, error) {
	text := strings.TrimSpace(criteria.Text)

	// Text search ignores the discovery filters, so only the page is checked.
	var err error
	if text != "" {
		err = validate.StructPartial(criteria, "Page")
	} else {
		err = validate.Struct(criteria)
	}
	if err != nil {
		return SearchResult{}, fmt.Errorf("%w: %v", ErrInvalidCriteria, err)
	}

	query := pageQuery(criteria.Page)

	if text != "" {
		query.Set("query", text)
		query.Set("include_adult", "false")

		var out Page
		if err := c.get(ctx, "search", "/search/movie", query, &out); err != nil {
			return SearchResult{Source: SourceTextSearch}, err
		}
		return SearchResult{Page: normalizePage(out), Source: SourceTextSearch}, nil
	}

	query.Set("sort_by", "popularity.desc")
	if criteria.GenreID > 0 {
		query.Set("with_genres", strconv.Itoa(criteria.GenreID))
	}
	if criteria.Year > 0 {
		query.Set("primary_release_year", strconv.Itoa(criteria.Year))
	}
	if criteria.MinRating != nil {
		query.Set("vote_average.gte", strconv.FormatFloat(*criteria.MinRating, 'f', -1, 64))
	}

	var out Page
	if err := c.get(ctx, "discover", "/discover/movie", query, &out); err != nil {
		return SearchResult{Source: SourceDiscover}, err
	}
	return SearchResult{Page: normalizePage(out), Source: SourceDiscover}, nil
}

// Genres returns the catalog genre list.
func (c *Client) Genres(ctx context.Context) ([]Genre, error) {
	var out struct {
		Genres []Genre `json:"genres"`
	}
	if err := c.get(ctx, "genres", "/genre/movie/list", url.Values{}, &out); err != nil {
		return nil, err
	}
	if out.Genres == nil {
		out.Genres = []Genre{}
	}
	return out.Genres, nil
}

// Get returns the details of a single title.
func (c *Client) Get(ctx context.Context, id int64) (Details, error) {
	if id <= 0 {
		return Details{}, ErrNotFound
	}
	var out Details
	err := c.get(ctx, "details", "/movie/"+strconv.FormatInt(id, 10), url.Values{}, &out)
	return out, err
}

func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values, out any) (err error) {
	started := time.Now()
	limited := false
	defer func() {
		outcome := metrics.OutcomeOK
		switch {
		case limited:
			outcome = metrics.OutcomeRateLimited
		case err != nil && !errors.Is(err, ErrNotFound):
			outcome = metrics.OutcomeError
		}
		c.metrics.RecordCatalogRequest(endpoint, outcome, time.Since(started))
	}()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			limited = true
			return fmt.Errorf("catalog %s: %w: %w", endpoint, ErrCatalogUnavailable, err)
		}
	}

	query.Set("api_key", c.apiKey)
	query.Set("language", c.language)
	target := c.baseURL + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("catalog %s: create request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("catalog request failed", "endpoint", endpoint, "err", err)
		return fmt.Errorf("catalog %s: %w: %w", endpoint, ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound && endpoint == "details" {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("catalog returned error status", "endpoint", endpoint, "status", resp.StatusCode)
		return fmt.Errorf("catalog %s: %w: status %d", endpoint, ErrCatalogUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("catalog %s: %w: decode: %w", endpoint, ErrCatalogUnavailable, err)
	}
	return nil
}

func pageQuery(page int) url.Values {
	if page < 1 {
		page = 1
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	return q
}

func normalizePage(p Page) Page {
	if p.Results == nil {
		p.Results = []Movie{}
	}
	return p
}
