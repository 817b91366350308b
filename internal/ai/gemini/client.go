package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/matchcv/internal/ai"
)

const (
	Name         = "Gemini"
	defaultModel = "gemini-2.5-flash"

	defaultTemperature = 0.3
	defaultMaxTokens   = 4000
)

type chatSession interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type chatCreator interface {
	Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error)
}

type genaiChats struct {
	chats *genai.Chats
}

func (g genaiChats) Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error) {
	return g.chats.Create(ctx, model, config, history)
}

type Config struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int32
	HTTPClient  *http.Client
}

// Generator wraps the Google GenAI client. The client is created on first use
// so that a missing key only surfaces when the chain reaches this provider.
type Generator struct {
	apiKey      string
	model       string
	temperature float32
	maxTokens   int32
	httpClient  *http.Client
	logger      *zap.Logger

	once    sync.Once
	chats   chatCreator
	initErr error
}

func NewGenerator(cfg Config, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}

	return &Generator{
		apiKey:      strings.TrimSpace(cfg.APIKey),
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		httpClient:  cfg.HTTPClient,
		logger:      logger,
	}
}

// Spec returns the chain entry for Gemini.
func Spec(cfg Config, logger *zap.Logger) *ai.Spec {
	g := NewGenerator(cfg, logger)
	return &ai.Spec{
		Name:     Name,
		Model:    g.model,
		Provider: g,
		Credentials: []ai.Credential{{
			Name:  "GEMINI_API_KEY",
			Value: cfg.APIKey,
		}},
		InputBudget: ai.HostedInputBudget,
	}
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

func (g *Generator) init(ctx context.Context) error {
	g.once.Do(func() {
		if g.chats != nil {
			return
		}
		if g.apiKey == "" {
			g.initErr = &ai.ConfigurationError{Provider: Name, Reason: "GEMINI_API_KEY absente"}
			return
		}

		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:     g.apiKey,
			Backend:    genai.BackendGeminiAPI,
			HTTPClient: g.httpClient,
		})
		if err != nil {
			g.initErr = fmt.Errorf("create genai client: %w", err)
			return
		}
		g.chats = genaiChats{chats: client.Chats}
	})
	return g.initErr
}

// Generate sends the user prompt in a fresh chat carrying the system instruction.
func (g *Generator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if g == nil {
		return "", errors.New("gemini generator is not initialized")
	}
	if err := g.init(ctx); err != nil {
		return "", err
	}

	userPrompt = strings.TrimSpace(userPrompt)
	if userPrompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(g.temperature),
		MaxOutputTokens: g.maxTokens,
	}
	if systemPrompt = strings.TrimSpace(systemPrompt); systemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	chat, err := g.chats.Create(ctx, g.model, config, nil)
	if err != nil {
		return "", fmt.Errorf("create chat: %w", err)
	}

	g.logger.Debug("gemini send message", zap.String("model", g.model))

	resp, err := chat.SendMessage(ctx, genai.Part{Text: userPrompt})
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", &ai.TransportError{Provider: Name, StatusCode: apiErr.Code, Err: err}
		}
		return "", &ai.TransportError{Provider: Name, Err: err}
	}

	output := responseText(resp)
	if output == "" {
		return "", &ai.TransportError{Provider: Name, Err: errors.New("gemini api returned empty response")}
	}

	return output, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	return strings.TrimSpace(builder.String())
}
