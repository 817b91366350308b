// Package openai talks to backends exposing the OpenAI chat completions API.
// Groq and Mistral both do.
package openai

import (
	"bytes"
	"compress/gzip"
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
	contentType     = "application/json"
	contentEncoding = "gzip"
	userAgent       = "spigell/matchcv"

	// DefaultTimeout bounds hosted calls when no explicit HTTP client is configured.
	DefaultTimeout = 60 * time.Second
	// DefaultTemperature keeps the rewrite close to the source résumé.
	DefaultTemperature = 0.3
	// DefaultMaxTokens leaves room for the full résumé plus the cover letter.
	DefaultMaxTokens = 4000
)

// Config configures one OpenAI-compatible backend.
type Config struct {
	// Name is the display name used in errors and logs.
	Name        string
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
}

type Client struct {
	name        string
	baseURL     string
	token       string
	model       string
	temperature float64
	maxTokens   int
	logger      *zap.Logger

	HTTPClient *http.Client
	UserAgent  string
}

func New(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	return &Client{
		name:        cfg.Name,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		token:       strings.TrimSpace(cfg.APIKey),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      logger,
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		UserAgent: userAgent,
	}
}

func (c *Client) Model() string { return c.model }

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message      message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// errorResponse covers both the OpenAI layout ({"error":{"message"}}) and
// the flat Mistral one ({"message"}).
type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
	Message string `json:"message"`
}

// Generate sends one chat completion request and returns the assistant text.
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req = c.setHeaders(req)

	resp, err := c.request(req)
	if err != nil {
		return "", &ai.TransportError{Provider: c.name, Err: err}
	}
	defer resp.Body.Close()

	data, err := readBody(resp)
	if err != nil {
		return "", &ai.TransportError{Provider: c.name, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &ai.TransportError{Provider: c.name, StatusCode: resp.StatusCode, Err: errors.New(errorMessage(data, resp.Status))}
	}

	var response chatResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return "", &ai.TransportError{Provider: c.name, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode chat response: %w", err)}
	}

	if len(response.Choices) == 0 || strings.TrimSpace(response.Choices[0].Message.Content) == "" {
		return "", &ai.TransportError{Provider: c.name, StatusCode: resp.StatusCode, Err: errors.New("empty completion")}
	}

	c.logger.Debug("chat completion received",
		zap.String("finish_reason", response.Choices[0].FinishReason),
		zap.Int("prompt_tokens", response.Usage.PromptTokens),
		zap.Int("completion_tokens", response.Usage.CompletionTokens),
	)

	return response.Choices[0].Message.Content, nil
}

func (c *Client) request(req *http.Request) (*http.Response, error) {
	c.logger.Debug("make request", zap.String("url", req.URL.String()), zap.String("model", c.model))
	return c.HTTPClient.Do(req)
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", contentType)
	req.Header.Set("Accept-Encoding", contentEncoding)

	return req
}

func readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	return io.ReadAll(reader)
}

func errorMessage(data []byte, status string) string {
	var parsed errorResponse
	if err := json.Unmarshal(data, &parsed); err == nil {
		if msg := strings.TrimSpace(parsed.Error.Message); msg != "" {
			return msg
		}
		if msg := strings.TrimSpace(parsed.Message); msg != "" {
			return msg
		}
	}

	if body := strings.TrimSpace(string(data)); body != "" {
		return fmt.Sprintf("bad status: %s: %s", status, body)
	}
	return fmt.Sprintf("bad status: %s", status)
}
