package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/matchcv/internal/ai"
	"github.com/spigell/matchcv/internal/ai/gemini"
	"github.com/spigell/matchcv/internal/ai/ollama"
	"github.com/spigell/matchcv/internal/ai/openai"
	"github.com/spigell/matchcv/internal/ats"
	"github.com/spigell/matchcv/internal/embedding"
	"github.com/spigell/matchcv/internal/secrets"
)

const disabledInConfig = "disabled in configuration"

// buildChain assembles the providers in their fixed order: Groq, Mistral,
// Ollama, then Gemini when enabled. Missing keys do not fail here; the chain
// reports them as configuration errors when it reaches the provider.
func buildChain(config *Config, logger *zap.Logger) (*ai.Chain, error) {
	providers := config.Providers
	groq := valueOr(providers.Groq)
	mistral := valueOr(providers.Mistral)
	local := valueOr(providers.Ollama)

	groqKey, err := secrets.LoadOptional(secrets.Source{Name: "GROQ_API_KEY", Value: groq.APIKey, File: groq.APIKeyFile})
	if err != nil {
		return nil, err
	}
	mistralKey, err := secrets.LoadOptional(secrets.Source{Name: "MISTRAL_API_KEY", Value: mistral.APIKey, File: mistral.APIKeyFile})
	if err != nil {
		return nil, err
	}

	specs := []*ai.Spec{
		withTimeout(openai.GroqSpec(groqKey, openai.Options{BaseURL: groq.BaseURL, Model: groq.Model}, logger), groq.Timeout),
		withTimeout(openai.MistralSpec(mistralKey, openai.Options{BaseURL: mistral.BaseURL, Model: mistral.Model}, logger), mistral.Timeout),
		ollama.Spec(ollama.Config{BaseURL: local.BaseURL, Model: local.Model, Timeout: local.Timeout}, logger),
	}

	if groq.Disabled {
		ai.DisableByName(specs, openai.GroqName, disabledInConfig)
	}
	if mistral.Disabled {
		ai.DisableByName(specs, openai.MistralName, disabledInConfig)
	}
	if local.Disabled {
		ai.DisableByName(specs, ollama.Name, disabledInConfig)
	}

	if g := providers.Gemini; g != nil && g.Enabled {
		key, err := secrets.LoadOptional(secrets.Source{Name: "GEMINI_API_KEY", Value: g.APIKey, File: g.APIKeyFile})
		if err != nil {
			return nil, err
		}
		specs = append(specs, withTimeout(gemini.Spec(gemini.Config{APIKey: key, Model: g.Model}, logger), g.Timeout))
	}

	return ai.NewChain(specs, logger, config.MaxLogLength), nil
}

func valueOr[T any](v *T) T {
	if v == nil {
		var zero T
		return zero
	}
	return *v
}

func withTimeout(spec *ai.Spec, timeout time.Duration) *ai.Spec {
	if timeout > 0 {
		spec.Timeout = timeout
	}
	return spec
}

// buildScorer picks the embedding backend from configuration. Only an unknown
// backend name or an unreadable key file is an error; an unreachable or
// keyless backend falls back to keywords.
func buildScorer(ctx context.Context, config *Config, logger *zap.Logger) (*ats.Scorer, error) {
	factory, err := embeddingFactory(config)
	if err != nil {
		return nil, err
	}

	var handle *embedding.Handle
	if factory != nil {
		handle = embedding.NewHandle(embedding.Probed(factory))
	}

	scorer := ats.New(ctx, handle, logger)
	logger.Debug("scorer ready", zap.String("strategy", scorer.Strategy()))
	return scorer, nil
}

func embeddingFactory(config *Config) (embedding.Factory, error) {
	model := config.Embedding.Model

	switch provider := strings.ToLower(strings.TrimSpace(config.Embedding.Provider)); provider {
	case "", "none":
		return nil, nil
	case "ollama":
		baseURL := valueOr(config.Providers.Ollama).BaseURL
		return func(context.Context) (embedding.Embedder, error) {
			return embedding.NewOllama(baseURL, model), nil
		}, nil
	case "gemini":
		g := valueOr(config.Providers.Gemini)
		key, err := secrets.LoadOptional(secrets.Source{Name: "GEMINI_API_KEY", Value: g.APIKey, File: g.APIKeyFile})
		if err != nil {
			return nil, fmt.Errorf("gemini embeddings: %w", err)
		}
		return func(ctx context.Context) (embedding.Embedder, error) {
			// Without a key the scorer falls back to keywords.
			if key == "" {
				return nil, fmt.Errorf("GEMINI_API_KEY absente: %w", embedding.ErrDisabled)
			}
			return embedding.NewGemini(ctx, key, model)
		}, nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q (expected none, ollama or gemini)", provider)
	}
}
