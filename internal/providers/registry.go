package providers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// ClientSpec describes how to build an LLM client.
type ClientSpec struct {
	Type         string // "gemini", "openai", "mock"
	APIKey       string // Already env-expanded
	BaseURL      string // openai type only
	DefaultModel string
}

// Registry lazily constructs LLM clients and hands out the cached instance
// while its API key is unchanged. When the key for a name changes (config
// hot reload, keys.txt edit), the next Client call rebuilds the client under
// the lock, so concurrent first use never constructs duplicates.
type Registry struct {
	mu      sync.Mutex
	logger  *slog.Logger
	clients map[string]*clientEntry
}

type clientEntry struct {
	client LLMClient
	apiKey string
}

// NewRegistry creates an empty client registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		logger:  logger,
		clients: make(map[string]*clientEntry),
	}
}

// Client returns the client for the given name, building or rebuilding it
// from spec as needed. Returns an error when the spec has no API key or an
// unknown type.
func (r *Registry) Client(ctx context.Context, name string, spec ClientSpec) (LLMClient, error) {
	if spec.APIKey == "" {
		return nil, fmt.Errorf("provider %s: no API key configured", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.clients[name]; ok && entry.apiKey == spec.APIKey {
		return entry.client, nil
	}

	client, err := r.build(ctx, spec)
	if err != nil {
		return nil, fmt.Errorf("provider %s: %w", name, err)
	}

	r.clients[name] = &clientEntry{client: client, apiKey: spec.APIKey}
	r.logger.Info("initialized LLM client", "name", name, "type", spec.Type)
	return client, nil
}

// Register installs a pre-built client under a name. Used by tests and by
// callers that construct clients outside the registry.
func (r *Registry) Register(name, apiKey string, client LLMClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[name] = &clientEntry{client: client, apiKey: apiKey}
}

func (r *Registry) build(ctx context.Context, spec ClientSpec) (LLMClient, error) {
	switch spec.Type {
	case "gemini":
		return NewGeminiClient(ctx, GeminiConfig{
			APIKey:       spec.APIKey,
			DefaultModel: spec.DefaultModel,
		})
	case "openai":
		return NewOpenAIClient(OpenAIConfig{
			APIKey:       spec.APIKey,
			BaseURL:      spec.BaseURL,
			DefaultModel: spec.DefaultModel,
		})
	case "mock":
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unknown provider type: %s", spec.Type)
	}
}
