package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/matchcv/internal/ai"
	"github.com/spigell/matchcv/internal/ai/gemini"
	"github.com/spigell/matchcv/internal/ai/ollama"
	"github.com/spigell/matchcv/internal/ai/openai"
)

func emptyConfig() *Config {
	return &Config{
		Providers: &ProvidersConfig{},
		Embedding: &EmbeddingConfig{},
		Server:    &ServerConfig{},
	}
}

func TestBuildChainOrder(t *testing.T) {
	config := emptyConfig()
	config.Providers.Gemini = &GeminiConfig{Enabled: true, Timeout: 30 * time.Second}

	chain, err := buildChain(config, zap.NewNop())
	if err != nil {
		t.Fatalf("buildChain returned error: %v", err)
	}

	var names []string
	for _, spec := range chain.Specs() {
		names = append(names, spec.Name)
	}

	want := []string{openai.GroqName, openai.MistralName, ollama.Name, gemini.Name}
	if len(names) != len(want) {
		t.Fatalf("expected %d providers, got %v", len(want), names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("provider %d: expected %q, got %q", i, want[i], names[i])
		}
	}

	if got := chain.Specs()[3].Timeout; got != 30*time.Second {
		t.Fatalf("expected gemini timeout override, got %s", got)
	}
}

func TestBuildChainKeysAndDisabled(t *testing.T) {
	dir := t.TempDir()
	keyFile := filepath.Join(dir, "mistral.key")
	if err := os.WriteFile(keyFile, []byte("  mistral-secret-key\n"), 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}

	config := emptyConfig()
	config.Providers.Groq = &HostedConfig{APIKey: "gsk_real_key_value", Disabled: true}
	config.Providers.Mistral = &HostedConfig{APIKeyFile: keyFile}

	chain, err := buildChain(config, zap.NewNop())
	if err != nil {
		t.Fatalf("buildChain returned error: %v", err)
	}

	statuses := ai.Describe(chain.Specs())
	if statuses[0].Enabled {
		t.Fatalf("expected groq to be disabled, got %+v", statuses[0])
	}
	if !statuses[1].Configured {
		t.Fatalf("expected mistral key from file to validate, got %+v", statuses[1])
	}
}

func TestBuildChainMissingKeyFile(t *testing.T) {
	config := emptyConfig()
	config.Providers.Groq = &HostedConfig{APIKeyFile: filepath.Join(t.TempDir(), "absent")}

	if _, err := buildChain(config, zap.NewNop()); err == nil {
		t.Fatal("expected error for unreadable key file")
	}
}

func TestEmbeddingFactory(t *testing.T) {
	tests := []struct {
		name        string
		provider    string
		geminiKey   string
		wantFactory bool
		wantErr     bool
	}{
		{name: "default", provider: "", wantFactory: false},
		{name: "none", provider: "none", wantFactory: false},
		{name: "ollama", provider: "Ollama", wantFactory: true},
		{name: "gemini with key", provider: "gemini", geminiKey: "key", wantFactory: true},
		{name: "gemini without key", provider: "gemini", wantFactory: true},
		{name: "unknown", provider: "word2vec", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := emptyConfig()
			config.Embedding.Provider = tt.provider
			config.Providers.Gemini = &GeminiConfig{APIKey: tt.geminiKey}

			factory, err := embeddingFactory(config)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if (factory != nil) != tt.wantFactory {
				t.Fatalf("expected factory=%v, got %v", tt.wantFactory, factory != nil)
			}
		})
	}
}

func TestBuildScorerWithoutGeminiKeyUsesKeywords(t *testing.T) {
	config := emptyConfig()
	config.Embedding.Provider = "gemini"

	core, logs := observer.New(zap.InfoLevel)
	scorer, err := buildScorer(context.Background(), config, zap.New(core))
	if err != nil {
		t.Fatalf("buildScorer returned error: %v", err)
	}
	if scorer.Strategy() != "keyword" {
		t.Fatalf("expected keyword strategy, got %q", scorer.Strategy())
	}

	entries := logs.FilterMessage("embedding backend unavailable, using keyword scoring").All()
	if len(entries) != 1 {
		t.Fatalf("expected one fallback log entry, got %d", len(entries))
	}
	if reason := entries[0].ContextMap()["reason"]; !strings.Contains(reason.(string), "GEMINI_API_KEY") {
		t.Fatalf("expected reason to name the missing key, got %v", reason)
	}
}

func TestBuildScorerFallsBackToKeywords(t *testing.T) {
	scorer, err := buildScorer(context.Background(), emptyConfig(), zap.NewNop())
	if err != nil {
		t.Fatalf("buildScorer returned error: %v", err)
	}
	if scorer.Strategy() != "keyword" {
		t.Fatalf("expected keyword strategy, got %q", scorer.Strategy())
	}
}
