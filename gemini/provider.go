package gemini

import (
	"context"
	"errors"
	"fmt"

	"github.com/fwojciec/comparator"
)

// Compile-time interface verification.
var _ comparator.Provider = (*Provider)(nil)

// ErrEmptyResponse is returned when Gemini answers with no text, which
// happens when a reply is blocked.
var ErrEmptyResponse = errors.New("gemini: empty response")

// Provider implements comparator.Provider using Google Gemini.
type Provider struct {
	client GenerativeClient
	model  string
}

// NewProvider creates a new Provider.
func NewProvider(client GenerativeClient, model string) *Provider {
	return &Provider{client: client, model: model}
}

// Key returns comparator.Gemini.
func (p *Provider) Key() comparator.ProviderKey {
	return comparator.Gemini
}

// Model returns the Gemini model name.
func (p *Provider) Model() string {
	return p.model
}

// Invoke sends prompt as a single user message and returns the reply text.
func (p *Provider) Invoke(ctx context.Context, prompt string) (string, error) {
	contents := []*Content{{
		Parts: []*Part{{Text: prompt}},
	}}

	resp, err := p.client.GenerateContent(ctx, p.model, contents, &GenerateContentConfig{})
	if err != nil {
		return "", err
	}
	if resp == nil {
		return "", fmt.Errorf("gemini: returned nil response")
	}
	if resp.Text == "" {
		return "", ErrEmptyResponse
	}
	return resp.Text, nil
}
