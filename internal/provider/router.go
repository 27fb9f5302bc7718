package provider

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/inkwell-ai/inkwell/internal/chat/contract"
	inkerrors "github.com/inkwell-ai/inkwell/internal/errors"
	anthropicProvider "github.com/inkwell-ai/inkwell/internal/provider/anthropic"
	geminiProvider "github.com/inkwell-ai/inkwell/internal/provider/gemini"
	openaiProvider "github.com/inkwell-ai/inkwell/internal/provider/openai"
)

const defaultOllamaBaseURL = "http://localhost:11434/v1"

// Router resolves model names to configured direct providers. The chat loop
// never comes through here; the router serves generation and embedding calls
// that bypass the Inkwell proxy.
type Router struct {
	fallback  string
	providers map[string]Provider
	mu        sync.RWMutex
}

func NewRouter(registry []RegistryEntry, fallback string) (*Router, error) {
	r := &Router{
		fallback:  fallback,
		providers: make(map[string]Provider),
	}

	for _, entry := range registry {
		p, err := createProvider(entry)
		if err != nil {
			slog.Warn("Failed to create provider", "provider", entry.Provider, "model", entry.Name, "error", err)
			continue
		}
		r.providers[entry.Name] = p
		slog.Info("Provider initialized", "name", entry.Name, "type", entry.Provider)
	}

	if len(r.providers) == 0 && len(registry) > 0 {
		return nil, inkerrors.Internal("no providers initialized")
	}
	return r, nil
}

func (r *Router) Generate(ctx context.Context, model string, req contract.CompletionRequest) (*contract.CompletionResponse, error) {
	p, err := r.resolve(model)
	if err != nil {
		return nil, err
	}
	if req.Model == "" {
		req.Model = model
	}

	resp, err := p.Generate(ctx, req)
	if err != nil {
		if inkerrors.IsSilent(err) {
			return nil, err
		}
		return nil, inkerrors.Wrap(err, "provider request failed")
	}
	return resp, nil
}

// Embed tries the requested model first, then the fallback, then every other
// registered provider in name order. Providers without embedding support are
// skipped.
func (r *Router) Embed(ctx context.Context, model string, text string) ([]float32, error) {
	var lastErr error
	for _, tryModel := range r.embeddingTryOrder(model) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		r.mu.RLock()
		p, exists := r.providers[tryModel]
		r.mu.RUnlock()
		if !exists {
			continue
		}

		vec, err := p.Embed(ctx, text)
		if err == nil {
			return vec, nil
		}
		if isEmbeddingUnsupported(err) {
			continue
		}
		lastErr = err
		slog.Warn("Embedding failed, trying next model", "model", tryModel, "error", err)
	}

	if lastErr != nil {
		return nil, inkerrors.Wrap(lastErr, "embedding failed")
	}
	return nil, inkerrors.NotFound("no embedding-capable model configured")
}

func (r *Router) ListModels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	models := make([]string, 0, len(r.providers))
	for name := range r.providers {
		models = append(models, name)
	}
	sort.Strings(models)
	return models
}

func (r *Router) resolve(model string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if p, ok := r.providers[model]; ok {
		return p, nil
	}
	if r.fallback != "" && model != r.fallback {
		if p, ok := r.providers[r.fallback]; ok {
			slog.Info("Model not registered, using fallback", "model", model, "fallback", r.fallback)
			return p, nil
		}
	}
	return nil, inkerrors.NotFound(fmt.Sprintf("model %s not found", model))
}

func (r *Router) embeddingTryOrder(requestedModel string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{}, len(r.providers)+2)
	order := make([]string, 0, len(r.providers)+2)

	appendUnique := func(name string) {
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		order = append(order, name)
	}

	appendUnique(requestedModel)
	appendUnique(r.fallback)

	registered := make([]string, 0, len(r.providers))
	for name := range r.providers {
		registered = append(registered, name)
	}
	sort.Strings(registered)
	for _, name := range registered {
		appendUnique(name)
	}

	return order
}

func isEmbeddingUnsupported(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "embedding not supported") ||
		strings.Contains(msg, "embeddings not implemented") ||
		strings.Contains(msg, "not support embeddings")
}

func createProvider(entry RegistryEntry) (Provider, error) {
	switch entry.Provider {
	case "openai":
		if entry.APIKey == "" && os.Getenv("OPENAI_API_KEY") == "" {
			return nil, inkerrors.InvalidInput("API key required for OpenAI provider")
		}
		return openaiProvider.New(entry.APIKey, entry.BaseURL, entry.Name), nil

	case "ollama":
		baseURL := entry.BaseURL
		if baseURL == "" {
			baseURL = defaultOllamaBaseURL
		}
		apiKey := entry.APIKey
		if apiKey == "" {
			apiKey = "ollama"
		}
		return openaiProvider.New(apiKey, baseURL, entry.Name), nil

	case "anthropic":
		if entry.APIKey == "" && os.Getenv("ANTHROPIC_API_KEY") == "" {
			return nil, inkerrors.InvalidInput("API key required for Anthropic provider")
		}
		return anthropicProvider.New(entry.APIKey), nil

	case "gemini":
		if entry.APIKey == "" && os.Getenv("GEMINI_API_KEY") == "" {
			return nil, inkerrors.InvalidInput("API key required for Gemini provider")
		}
		return geminiProvider.New(entry.APIKey)

	default:
		return nil, inkerrors.InvalidInput(fmt.Sprintf("unknown provider type: %s", entry.Provider))
	}
}
