// internal/llm/factory/factory.go
package factory

import (
	"fmt"

	"github.com/futusense/futusense/internal/config"
	"github.com/futusense/futusense/internal/llm"
	"github.com/futusense/futusense/internal/llm/claude"
	"github.com/futusense/futusense/internal/llm/ollama"
	"github.com/futusense/futusense/internal/llm/openai"
)

// New creates an LLM provider based on configuration. An empty provider
// name means the LLM path is disabled and agents run heuristics only.
func New(cfg config.LLMConfig) (llm.Provider, error) {
	switch cfg.Provider {
	case "":
		return nil, nil
	case "claude":
		return claude.New(cfg.Claude.APIKey, cfg.Claude.Model)
	case "openai":
		return openai.New(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL)
	case "ollama":
		return ollama.New(cfg.Ollama.Endpoint, cfg.Ollama.Model)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.Provider)
	}
}
