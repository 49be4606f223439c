package groq

import (
	"context"
	"errors"

	"github.com/fwojciec/comparator"
)

// Compile-time interface verification.
var _ comparator.Provider = (*Provider)(nil)

// ErrEmptyResponse is returned when the completion has no choices.
var ErrEmptyResponse = errors.New("groq: empty response")

// Provider implements comparator.Provider using Groq.
type Provider struct {
	client    ChatClient
	model     string
	maxTokens int
}

// NewProvider creates a new Provider. A non-positive maxTokens uses
// DefaultMaxTokens.
func NewProvider(client ChatClient, model string, maxTokens int) *Provider {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &Provider{client: client, model: model, maxTokens: maxTokens}
}

// Key returns comparator.Groq.
func (p *Provider) Key() comparator.ProviderKey {
	return comparator.Groq
}

// Model returns the Groq model name.
func (p *Provider) Model() string {
	return p.model
}

// Invoke sends prompt as a single user message and returns the reply text.
func (p *Provider) Invoke(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.Complete(ctx, ChatRequest{
		Model:     p.model,
		Messages:  []Message{{Role: "user", Content: prompt}},
		MaxTokens: p.maxTokens,
	})
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Text(), nil
}
