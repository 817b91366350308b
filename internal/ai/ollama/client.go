// Package ollama calls a self-hosted Ollama server through its chat API.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/matchcv/internal/ai"
)

const (
	Name           = "Ollama (mistral:7b)"
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "mistral:7b-instruct"
	// DefaultTimeout is generous: local models on CPU are slow.
	DefaultTimeout     = 120 * time.Second
	DefaultTemperature = 0.3
	DefaultNumPredict  = 3000
)

type Config struct {
	BaseURL     string
	Model       string
	Timeout     time.Duration
	Temperature float64
	NumPredict  int
}

type Client struct {
	baseURL     string
	model       string
	temperature float64
	numPredict  int
	logger      *zap.Logger

	HTTPClient *http.Client
}

func New(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = withDefaults(cfg)

	return &Client{
		baseURL:     cfg.BaseURL,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		numPredict:  cfg.NumPredict,
		logger:      logger,
		HTTPClient:  &http.Client{Timeout: cfg.Timeout},
	}
}

func withDefaults(cfg Config) Config {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.NumPredict <= 0 {
		cfg.NumPredict = DefaultNumPredict
	}
	return cfg
}

// Spec returns the chain entry for the local backend. It needs no credential.
func Spec(cfg Config, logger *zap.Logger) *ai.Spec {
	cfg = withDefaults(cfg)
	return &ai.Spec{
		Name:        Name,
		Model:       cfg.Model,
		Provider:    New(cfg, logger),
		InputBudget: ai.LocalInputBudget,
		Timeout:     cfg.Timeout,
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type options struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
	Stream   bool      `json:"stream"`
	Options  options   `json:"options"`
}

type chatResponse struct {
	Message       message `json:"message"`
	Done          bool    `json:"done"`
	TotalDuration int64   `json:"total_duration"`
	EvalCount     int     `json:"eval_count"`
	Error         string  `json:"error"`
}

// Generate runs one non-streaming chat request.
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Stream:  false,
		Options: options{Temperature: c.temperature, NumPredict: c.numPredict},
	})
	if err != nil {
		return "", fmt.Errorf("marshal ollama request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build ollama request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("make request", zap.String("url", req.URL.String()), zap.String("model", c.model))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", &ai.TransportError{Provider: Name, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ai.TransportError{Provider: Name, StatusCode: resp.StatusCode, Err: err}
	}

	var response chatResponse
	decodeErr := json.Unmarshal(data, &response)

	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(response.Error)
		if decodeErr != nil || msg == "" {
			msg = fmt.Sprintf("bad status: %s", resp.Status)
		}
		return "", &ai.TransportError{Provider: Name, StatusCode: resp.StatusCode, Err: errors.New(msg)}
	}
	if decodeErr != nil {
		return "", &ai.TransportError{Provider: Name, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode ollama response: %w", decodeErr)}
	}

	content := response.Message.Content
	if strings.TrimSpace(content) == "" {
		return "", &ai.TransportError{Provider: Name, StatusCode: resp.StatusCode, Err: errors.New("empty completion")}
	}

	c.logger.Debug("ollama chat received",
		zap.Int("eval_count", response.EvalCount),
		zap.Duration("total_duration", time.Duration(response.TotalDuration)),
	)

	return content, nil
}
