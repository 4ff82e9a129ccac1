package hltb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"backlog/internal/services"
	"backlog/internal/textutil"
)

const (
	defaultPageSize = 20
	defaultTimeout  = 30 * time.Second
	searchPath      = "/api/search"
)

// Result is one entry of the search response.
type Result struct {
	GameID       int64  `json:"game_id"`
	GameName     string `json:"game_name"`
	GameAlias    string `json:"game_alias"`
	CompMain     int64  `json:"comp_main"`
	ReleaseWorld int    `json:"release_world"`
	ReviewScore  int    `json:"review_score"`
}

// Response models the search response body.
type Response struct {
	Count int      `json:"count"`
	Data  []Result `json:"data"`
}

// Candidate is a search result scored against the query.
type Candidate struct {
	ExternalID  string
	Name        string
	Similarity  float64
	ReleaseYear int
	MainHours   float64
	ReviewScore int
}

// HasDuration reports whether the service recorded a main-story time.
func (c Candidate) HasDuration() bool {
	return c.MainHours > 0
}

// Searcher defines the lookup operation used by duration enrichment.
type Searcher interface {
	Search(ctx context.Context, name string) ([]Candidate, error)
}

// Client provides access to the search endpoint.
type Client struct {
	baseURL    string
	userAgent  string
	pageSize   int
	httpClient *http.Client
}

var _ Searcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the HTTP timeout of the default client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithPageSize overrides how many results are requested per search.
func WithPageSize(size int) Option {
	return func(c *Client) {
		if size > 0 {
			c.pageSize = size
		}
	}
}

// New creates a search client.
func New(baseURL, userAgent string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("hltb base url required")
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  strings.TrimSpace(userAgent),
		pageSize:   defaultPageSize,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type searchRequest struct {
	SearchType    string        `json:"searchType"`
	SearchTerms   []string      `json:"searchTerms"`
	SearchPage    int           `json:"searchPage"`
	Size          int           `json:"size"`
	SearchOptions searchOptions `json:"searchOptions"`
}

type searchOptions struct {
	Games struct {
		UserID        int    `json:"userId"`
		Platform      string `json:"platform"`
		SortCategory  string `json:"sortCategory"`
		RangeCategory string `json:"rangeCategory"`
	} `json:"games"`
	Filter     string `json:"filter"`
	Sort       int    `json:"sort"`
	Randomizer int    `json:"randomizer"`
}

// Search looks up name and returns all candidates in response order. An empty
// slice means the service found nothing.
func (c *Client) Search(ctx context.Context, name string) ([]Candidate, error) {
	name = strings.TrimSpace(name)
	terms := textutil.SearchTerms(name)
	if len(terms) == 0 {
		return nil, errors.New("query must not be empty")
	}

	body := searchRequest{
		SearchType:  "games",
		SearchTerms: terms,
		SearchPage:  1,
		Size:        c.pageSize,
	}
	body.SearchOptions.Games.SortCategory = "popular"
	body.SearchOptions.Games.RangeCategory = "main"
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode hltb request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+searchPath, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Referer", c.baseURL+"/")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, services.Wrap(services.ErrTransient, "hltb", "search",
			fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, services.Wrap(services.StatusMarker(resp.StatusCode), "hltb", "search",
			fmt.Sprintf("returned %d (latency=%v): %s", resp.StatusCode, latency, strings.TrimSpace(string(snippet))), nil)
	}

	var payload Response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, services.Wrap(services.ErrMalformedResponse, "hltb", "search", "decode response", err)
	}
	return candidates(name, payload.Data), nil
}

func candidates(query string, results []Result) []Candidate {
	out := make([]Candidate, 0, len(results))
	for _, result := range results {
		name := strings.TrimSpace(result.GameName)
		similarity := textutil.Similarity(query, name)
		if alias := strings.TrimSpace(result.GameAlias); alias != "" {
			if aliasScore := textutil.Similarity(query, alias); aliasScore > similarity {
				similarity = aliasScore
			}
		}
		candidate := Candidate{
			Name:        name,
			Similarity:  similarity,
			ReleaseYear: result.ReleaseWorld,
			ReviewScore: result.ReviewScore,
		}
		if result.GameID > 0 {
			candidate.ExternalID = strconv.FormatInt(result.GameID, 10)
		}
		if result.CompMain > 0 {
			candidate.MainHours = float64(result.CompMain) / 3600
		}
		out = append(out, candidate)
	}
	return out
}
