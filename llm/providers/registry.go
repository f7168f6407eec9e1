package providers

import (
	"fmt"
	"sort"
	"sync"

	"fodmap-research/llm/providers/shared"
)

// Registry manages provider instances
type Registry struct {
	providers map[string]shared.LLMProvider
	mu        sync.RWMutex
}

// NewRegistry creates an empty provider registry
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]shared.LLMProvider),
	}
}

// RegisterProvider registers a provider instance under its name
func (r *Registry) RegisterProvider(provider shared.LLMProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[provider.Name()] = provider
}

// GetProvider gets a registered provider by name
func (r *Registry) GetProvider(name string) (shared.LLMProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.providers[name]
	if !exists {
		return nil, fmt.Errorf("provider not found: %s", name)
	}
	return provider, nil
}

// ListProviders returns the sorted names of registered providers
func (r *Registry) ListProviders() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Gateway returns a completion gateway over the named provider
func (r *Registry) Gateway(name, model string) (*Gateway, error) {
	provider, err := r.GetProvider(name)
	if err != nil {
		return nil, err
	}
	return NewGateway(provider, model), nil
}
