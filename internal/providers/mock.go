package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"
)

const MockClientName = "mock"

// MockClient is an LLMClient for testing.
type MockClient struct {
	// Configurable behavior
	Latency      time.Duration
	ShouldFail   bool
	FailModels   map[string]bool // Fail only requests for these models
	ResponseText string
	Responses    map[string]string // Per-model response overrides
	ResponseJSON json.RawMessage

	// State
	requestCount atomic.Int64
	lastPrompt   atomic.Value
}

// NewMockClient creates a new mock client with sensible defaults.
func NewMockClient() *MockClient {
	return &MockClient{
		ResponseText: "mock response",
	}
}

// Name returns the client identifier.
func (c *MockClient) Name() string {
	return MockClientName
}

// RequestCount returns the number of chat requests served.
func (c *MockClient) RequestCount() int64 {
	return c.requestCount.Load()
}

// LastPrompt returns the user content of the most recent request.
func (c *MockClient) LastPrompt() string {
	if v, ok := c.lastPrompt.Load().(string); ok {
		return v
	}
	return ""
}

// Chat sends a mock chat request.
func (c *MockClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	start := time.Now()
	count := c.requestCount.Add(1)

	for _, m := range req.Messages {
		if m.Role == "user" {
			c.lastPrompt.Store(m.Content)
		}
	}

	if c.Latency > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.Latency):
		}
	}

	result := &ChatResult{
		RequestID: fmt.Sprintf("mock-%d", count),
		Provider:  MockClientName,
		ModelUsed: req.Model,
		Attempts:  1,
	}

	if c.ShouldFail || c.FailModels[req.Model] {
		result.Success = false
		result.ErrorMessage = "mock failure"
		result.ExecutionTime = time.Since(start)
		return result, fmt.Errorf("mock failure for model %s", req.Model)
	}

	text := c.ResponseText
	if override, ok := c.Responses[req.Model]; ok {
		text = override
	}

	result.Content = text
	result.ParsedJSON = c.ResponseJSON
	result.Success = true
	result.ExecutionTime = time.Since(start)
	return result, nil
}
