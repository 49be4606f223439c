package mock

import (
	"context"

	"github.com/fwojciec/comparator"
)

// Compile-time interface verification.
var _ comparator.Provider = (*Provider)(nil)

// Provider is a mock implementation of comparator.Provider.
type Provider struct {
	Name      comparator.ProviderKey
	ModelName string
	InvokeFn  func(ctx context.Context, prompt string) (string, error)
}

func (p *Provider) Key() comparator.ProviderKey {
	return p.Name
}

func (p *Provider) Model() string {
	return p.ModelName
}

func (p *Provider) Invoke(ctx context.Context, prompt string) (string, error) {
	return p.InvokeFn(ctx, prompt)
}
