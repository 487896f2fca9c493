package application

import (
	"fmt"
	"sort"

	"brandwisp-store-sync/internal/domain"
	"brandwisp-store-sync/internal/ports"
)

// PlatformRegistry resolves the PlatformClient of a connection's provider
type PlatformRegistry struct {
	clients map[domain.Provider]ports.PlatformClient
}

func NewPlatformRegistry(clients ...ports.PlatformClient) *PlatformRegistry {
	r := &PlatformRegistry{clients: make(map[domain.Provider]ports.PlatformClient, len(clients))}
	for _, c := range clients {
		r.clients[c.Provider()] = c
	}
	return r
}

// Get fails with domain.ErrUnsupportedProvider for providers without a client
func (r *PlatformRegistry) Get(provider domain.Provider) (ports.PlatformClient, error) {
	c, ok := r.clients[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedProvider, provider)
	}
	return c, nil
}

// Providers lists the registered providers in a stable order
func (r *PlatformRegistry) Providers() []domain.Provider {
	out := make([]domain.Provider, 0, len(r.clients))
	for p := range r.clients {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
