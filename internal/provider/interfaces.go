package provider

import (
	"context"

	"github.com/inkwell-ai/inkwell/internal/chat/contract"
)

// Provider is a directly-configured LLM backend. The chat loop always goes
// through the Inkwell proxy; direct providers serve one-shot generation and
// embeddings.
type Provider interface {
	Generate(ctx context.Context, req contract.CompletionRequest) (*contract.CompletionResponse, error)
	Embed(ctx context.Context, text string) ([]float32, error)
	Name() string
}

// RegistryEntry is one configured provider.
type RegistryEntry struct {
	Name     string
	Provider string // "openai", "ollama", "anthropic", "gemini"
	APIKey   string
	BaseURL  string
}
