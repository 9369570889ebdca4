package provider

import (
	"chorus/common"

	zlog "github.com/rs/zerolog/log"
)

// Registry holds the fixed provider set, keyed by name, with a stable order.
// The order determines ranking tie-breaks and the default single-mode
// provider, so it must not depend on map iteration.
type Registry struct {
	order   []string
	clients map[string]Client
}

// NewRegistry builds the provider set from config. Providers without
// credentials fall back to the deterministic offline stub under the same
// name, so the set size never depends on which keys are present.
func NewRegistry(configs []common.ProviderConfig, maxRetries int) *Registry {
	registry := &Registry{clients: make(map[string]Client)}

	for _, cfg := range configs {
		var client Client
		switch cfg.Type {
		case "gemini":
			client = NewGeminiClient(cfg)
		default:
			client = NewOpenAIClient(cfg)
		}

		if client.Configured() {
			client = WithRetry(client, maxRetries)
		} else {
			zlog.Info().Str("provider", cfg.Name).Msg("Provider not configured, using offline stub")
			client = NewStubClient(cfg.Name)
		}

		registry.Add(client)
	}

	return registry
}

// NewRegistryFromClients builds a registry from pre-constructed clients,
// preserving their order.
func NewRegistryFromClients(clients ...Client) *Registry {
	registry := &Registry{clients: make(map[string]Client)}
	for _, client := range clients {
		registry.Add(client)
	}
	return registry
}

// Add registers a client under its name. A repeated name replaces the client
// but keeps its original position.
func (r *Registry) Add(client Client) {
	name := client.Name()
	if _, exists := r.clients[name]; !exists {
		r.order = append(r.order, name)
	}
	r.clients[name] = client
}

// Names returns the provider names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

func (r *Registry) Get(name string) (Client, bool) {
	client, ok := r.clients[name]
	return client, ok
}

func (r *Registry) Size() int {
	return len(r.order)
}
