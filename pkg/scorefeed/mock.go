package scorefeed

import (
	"context"
	"sync"
)

// MockClient is a mock feed client for testing. It records what was published.
type MockClient struct {
	mu        sync.Mutex
	baseURL   string
	handErr   error
	resultErr error
	hands     []HandRecord
	results   []MatchResult
}

// MockOption configures the mock client
type MockOption func(*MockClient)

// WithHandError sets an error to return from PublishHand
func WithHandError(err error) MockOption {
	return func(m *MockClient) {
		m.handErr = err
	}
}

// WithResultError sets an error to return from PublishResult
func WithResultError(err error) MockOption {
	return func(m *MockClient) {
		m.resultErr = err
	}
}

// WithBaseURL sets the base URL
func WithBaseURL(url string) MockOption {
	return func(m *MockClient) {
		m.baseURL = url
	}
}

// NewMockClient creates a new mock feed client
func NewMockClient(opts ...MockOption) *MockClient {
	m := &MockClient{baseURL: "http://mock-feed.local"}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// BaseURL returns the configured base URL
func (m *MockClient) BaseURL() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.baseURL
}

// SetBaseURL updates the base URL
func (m *MockClient) SetBaseURL(url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.baseURL = url
}

// PublishHand records the hand or returns the configured error
func (m *MockClient) PublishHand(ctx context.Context, hand HandRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handErr != nil {
		return m.handErr
	}
	m.hands = append(m.hands, hand)
	return nil
}

// PublishResult records the result or returns the configured error
func (m *MockClient) PublishResult(ctx context.Context, result MatchResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.resultErr != nil {
		return m.resultErr
	}
	m.results = append(m.results, result)
	return nil
}

// Hands returns every published hand
func (m *MockClient) Hands() []HandRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]HandRecord(nil), m.hands...)
}

// Results returns every published result
func (m *MockClient) Results() []MatchResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MatchResult(nil), m.results...)
}

// Ensure MockClient implements Client
var _ Client = (*MockClient)(nil)
