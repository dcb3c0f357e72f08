package llm

import (
	"context"
)

// MockClient is a configurable LLM client for testing and offline runs.
type MockClient struct {
	ExplainResponse string
	ExplainError    error

	// Call tracking for assertions
	ExplainCalls []string
}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (c *MockClient) Explain(_ context.Context, prompt string) (string, error) {
	c.ExplainCalls = append(c.ExplainCalls, prompt)
	if c.ExplainError != nil {
		return "", c.ExplainError
	}
	return c.ExplainResponse, nil
}
