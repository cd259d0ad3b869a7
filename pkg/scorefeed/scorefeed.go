// Package scorefeed publishes finished hands and match results to an external
// record keeper over HTTP.
package scorefeed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/abrezinsky/coinche/internal/logger"
)

// Bid is the contract of a published hand
type Bid struct {
	Value       int    `json:"value"`
	Suit        string `json:"suit"`
	Taker       string `json:"taker"`
	Escalation  string `json:"escalation"`
	Coincher    string `json:"coincher,omitempty"`
	Surcoincher string `json:"surcoincher,omitempty"`
}

// HandRecord is one scored hand as the record keeper receives it
type HandRecord struct {
	MatchID      string         `json:"match_id"`
	HandID       string         `json:"hand_id"`
	HandNumber   int            `json:"hand_number"`
	Dealer       string         `json:"dealer"`
	Bid          *Bid           `json:"bid,omitempty"`
	Fulfilled    *bool          `json:"fulfilled,omitempty"`
	Capot        bool           `json:"capot"`
	Deltas       map[string]int `json:"deltas"`
	Totals       map[string]int `json:"totals"`
	Edited       bool           `json:"edited"`
	Celebrations []string       `json:"celebrations,omitempty"`
	ScoredAt     time.Time      `json:"scored_at"`
}

// MatchResult is the final standing of a match
type MatchResult struct {
	MatchID string         `json:"match_id"`
	Name    string         `json:"name"`
	Winner  string         `json:"winner,omitempty"`
	Draw    bool           `json:"draw"`
	Hands   int            `json:"hands"`
	Totals  map[string]int `json:"totals"`
	Players map[string]int `json:"players,omitempty"`
	EndedAt time.Time      `json:"ended_at"`
}

// Outcome is the status block returned by the record keeper
type Outcome struct {
	Summary     string `json:"summary"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Response is the record keeper's reply
type Response struct {
	Outcome Outcome `json:"outcome"`
}

// Client defines the interface for publishing scores
type Client interface {
	// PublishHand sends one scored or re-scored hand
	PublishHand(ctx context.Context, hand HandRecord) error
	// PublishResult sends the final standing of a match
	PublishResult(ctx context.Context, result MatchResult) error
	// BaseURL returns the configured feed URL
	BaseURL() string
	// SetBaseURL updates the feed URL
	SetBaseURL(url string)
}

// HTTPClient posts JSON to a record keeper
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        logger.Logger
}

// NewHTTPClient creates a new feed client with a 10 second timeout
func NewHTTPClient(baseURL string, log logger.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

// NewHTTPClientWithHTTPClient creates a feed client with a custom http.Client
func NewHTTPClientWithHTTPClient(baseURL string, httpClient *http.Client, log logger.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: httpClient,
		log:        log,
	}
}

// BaseURL returns the configured feed URL
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// SetBaseURL updates the feed URL
func (c *HTTPClient) SetBaseURL(url string) {
	c.baseURL = url
}

// SetToken sets the bearer token sent with every request
func (c *HTTPClient) SetToken(token string) {
	c.token = token
}

// PublishHand sends one scored hand
func (c *HTTPClient) PublishHand(ctx context.Context, hand HandRecord) error {
	return c.post(ctx, "/hands", hand)
}

// PublishResult sends the final standing of a match
func (c *HTTPClient) PublishResult(ctx context.Context, result MatchResult) error {
	return c.post(ctx, "/results", result)
}

// post sends body as JSON and checks both the HTTP status and the outcome block
func (c *HTTPClient) post(ctx context.Context, path string, body interface{}) error {
	if c.baseURL == "" {
		return fmt.Errorf("feed URL not configured")
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	apiURL := strings.TrimSuffix(c.baseURL, "/") + path
	c.log.Debug("Score feed request", "method", "POST", "url", apiURL, "bytes", len(payload))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to score feed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.log.Debug("Score feed response", "status", resp.StatusCode, "body", string(respBody))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("score feed returned status %d: %s", resp.StatusCode, string(respBody))
	}

	// An empty body is a plain acknowledgement
	if len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}

	var response Response
	if err := json.Unmarshal(respBody, &response); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if response.Outcome.Summary == "failure" {
		return fmt.Errorf("score feed error: %s (%s)", response.Outcome.Description, response.Outcome.Code)
	}
	return nil
}

// Ensure HTTPClient implements Client
var _ Client = (*HTTPClient)(nil)
