package openai

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/matchcv/internal/ai"
)

func TestGenerateSendsChatCompletion(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer gsk_live_key" {
			t.Errorf("unexpected authorization header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"nom\":\"Jeanne\"}"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	client := New(Config{Name: GroqName, BaseURL: srv.URL + "/v1/", APIKey: " gsk_live_key ", Model: GroqModel}, zap.NewNop())

	out, err := client.Generate(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `{"nom":"Jeanne"}` {
		t.Fatalf("unexpected output %q", out)
	}

	if got.Model != GroqModel || got.Temperature != DefaultTemperature || got.MaxTokens != DefaultMaxTokens {
		t.Fatalf("unexpected request parameters: %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[0].Content != "system" ||
		got.Messages[1].Role != "user" || got.Messages[1].Content != "user" {
		t.Fatalf("unexpected messages: %+v", got.Messages)
	}
}

func TestGenerateReadsGzipBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		_, _ = gz.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
		_ = gz.Close()
	}))
	defer srv.Close()

	client := New(Config{Name: MistralName, BaseURL: srv.URL, Model: MistralModel}, nil)

	out, err := client.Generate(context.Background(), "s", "u")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "ok" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantStatus  int
		wantMessage string
		rateLimited bool
	}{
		{
			name:        "rate limited",
			status:      http.StatusTooManyRequests,
			body:        `{"error":{"message":"Rate limit reached for model"}}`,
			wantStatus:  http.StatusTooManyRequests,
			wantMessage: "Rate limit reached for model",
			rateLimited: true,
		},
		{
			name:        "flat mistral error",
			status:      http.StatusUnauthorized,
			body:        `{"object":"error","message":"Unauthorized","type":"invalid_request_error"}`,
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Unauthorized",
		},
		{
			name:        "plain text error",
			status:      http.StatusBadGateway,
			body:        "upstream down",
			wantStatus:  http.StatusBadGateway,
			wantMessage: "upstream down",
		},
		{
			name:        "no choices",
			status:      http.StatusOK,
			body:        `{"choices":[]}`,
			wantStatus:  http.StatusOK,
			wantMessage: "empty completion",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := New(Config{Name: GroqName, BaseURL: srv.URL, Model: GroqModel}, zap.NewNop())
			_, err := client.Generate(context.Background(), "s", "u")

			var transportErr *ai.TransportError
			if !errors.As(err, &transportErr) {
				t.Fatalf("expected TransportError, got %v", err)
			}
			if transportErr.StatusCode != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, transportErr.StatusCode)
			}
			if transportErr.RateLimited() != tt.rateLimited {
				t.Fatalf("unexpected rate limit flag for %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantMessage) {
				t.Fatalf("expected %q in %q", tt.wantMessage, err.Error())
			}
			if !strings.HasPrefix(err.Error(), GroqName) {
				t.Fatalf("expected provider name prefix, got %q", err.Error())
			}
		})
	}
}

func TestGenerateNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := New(Config{Name: MistralName, BaseURL: url, Model: MistralModel}, zap.NewNop())
	_, err := client.Generate(context.Background(), "s", "u")

	var transportErr *ai.TransportError
	if !errors.As(err, &transportErr) || transportErr.StatusCode != 0 {
		t.Fatalf("expected TransportError without status, got %v", err)
	}
}

func TestPresets(t *testing.T) {
	groq := GroqSpec("gsk_xxx_placeholder", Options{}, zap.NewNop())
	if groq.Name != GroqName || groq.Model != GroqModel || groq.InputBudget != ai.HostedInputBudget {
		t.Fatalf("unexpected groq spec: %+v", groq)
	}
	if err := groq.Credentials[0].Validate(); err == nil {
		t.Fatalf("expected placeholder key to be rejected")
	}

	mistral := MistralSpec("short", Options{Model: "mistral-large-latest"}, zap.NewNop())
	if mistral.Model != "mistral-large-latest" {
		t.Fatalf("expected model override, got %q", mistral.Model)
	}
	if err := mistral.Credentials[0].Validate(); err == nil {
		t.Fatalf("expected short key to be rejected")
	}
	if err := MistralSpec("0123456789", Options{}, nil).Credentials[0].Validate(); err != nil {
		t.Fatalf("unexpected error for valid key: %v", err)
	}
}
