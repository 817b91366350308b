package openai

import (
	"go.uber.org/zap"

	"github.com/spigell/matchcv/internal/ai"
)

const (
	GroqName    = "Groq (llama-3.3-70b)"
	GroqBaseURL = "https://api.groq.com/openai/v1"
	GroqModel   = "llama-3.3-70b-versatile"
	// groqPlaceholder prefixes the sample key of the example env file.
	groqPlaceholder = "gsk_xxx"

	MistralName    = "Mistral (mistral-small)"
	MistralBaseURL = "https://api.mistral.ai/v1"
	MistralModel   = "mistral-small-latest"
	mistralMinKey  = 10
)

// Options override the preset defaults. Zero values keep the preset.
type Options struct {
	BaseURL string
	Model   string
}

// GroqSpec returns the chain entry for Groq.
func GroqSpec(apiKey string, opts Options, logger *zap.Logger) *ai.Spec {
	return newSpec(GroqName, GroqBaseURL, GroqModel, apiKey, opts, logger, ai.Credential{
		Name:         "GROQ_API_KEY",
		Value:        apiKey,
		Placeholders: []string{groqPlaceholder},
	})
}

// MistralSpec returns the chain entry for Mistral.
func MistralSpec(apiKey string, opts Options, logger *zap.Logger) *ai.Spec {
	return newSpec(MistralName, MistralBaseURL, MistralModel, apiKey, opts, logger, ai.Credential{
		Name:      "MISTRAL_API_KEY",
		Value:     apiKey,
		MinLength: mistralMinKey,
	})
}

func newSpec(name, baseURL, model, apiKey string, opts Options, logger *zap.Logger, cred ai.Credential) *ai.Spec {
	if opts.BaseURL != "" {
		baseURL = opts.BaseURL
	}
	if opts.Model != "" {
		model = opts.Model
	}

	client := New(Config{
		Name:    name,
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
	}, logger)

	return &ai.Spec{
		Name:        name,
		Model:       model,
		Provider:    client,
		Credentials: []ai.Credential{cred},
		InputBudget: ai.HostedInputBudget,
	}
}
