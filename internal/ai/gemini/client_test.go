package gemini

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/matchcv/internal/ai"
)

type fakeChatCreator struct {
	mu    sync.Mutex
	calls []chatCallRecord
	queue map[string][]fakeChatResponse
}

type chatCallRecord struct {
	model  string
	config *genai.GenerateContentConfig
	chat   *fakeChat
}

type fakeChatResponse struct {
	resp *genai.GenerateContentResponse
	err  error
}

type fakeChat struct {
	mu       sync.Mutex
	response fakeChatResponse
	messages []string
}

func (f *fakeChat) SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, part := range parts {
		f.messages = append(f.messages, part.Text)
	}
	return f.response.resp, f.response.err
}

func newFakeChatCreator() *fakeChatCreator {
	return &fakeChatCreator{queue: make(map[string][]fakeChatResponse)}
}

func (f *fakeChatCreator) enqueue(model string, resp *genai.GenerateContentResponse, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue[model] = append(f.queue[model], fakeChatResponse{resp: resp, err: err})
}

func (f *fakeChatCreator) Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	responses := f.queue[model]
	if len(responses) == 0 {
		return nil, errors.New("unexpected call")
	}
	res := responses[0]
	f.queue[model] = responses[1:]
	chat := &fakeChat{response: res}
	f.calls = append(f.calls, chatCallRecord{model: model, config: config, chat: chat})
	return chat, nil
}

func newTestGenerator(chats chatCreator) *Generator {
	g := NewGenerator(Config{APIKey: "test-key", Model: "gemini-pro"}, zap.NewNop())
	g.chats = chats
	return g
}

func textResponse(parts ...*genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: parts}}},
	}
}

func TestGeneratorSendsSystemInstruction(t *testing.T) {
	chats := newFakeChatCreator()
	chats.enqueue("gemini-pro", textResponse(
		&genai.Part{Text: "thinking...", Thought: true},
		&genai.Part{Text: `{"nom": "Jeanne"}`},
	), nil)

	output, err := newTestGenerator(chats).Generate(context.Background(), "system", "message")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if output != `{"nom": "Jeanne"}` {
		t.Fatalf("unexpected output: %q", output)
	}

	if len(chats.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(chats.calls))
	}

	call := chats.calls[0]
	if call.config == nil || call.config.SystemInstruction == nil {
		t.Fatalf("expected system instruction to be set")
	}
	if got := call.config.SystemInstruction.Parts[0].Text; got != "system" {
		t.Fatalf("unexpected system instruction: %q", got)
	}
	if call.config.Temperature == nil || *call.config.Temperature != defaultTemperature {
		t.Fatalf("unexpected temperature: %v", call.config.Temperature)
	}
	if call.config.MaxOutputTokens != defaultMaxTokens {
		t.Fatalf("unexpected max tokens: %d", call.config.MaxOutputTokens)
	}
	if len(call.chat.messages) != 1 || call.chat.messages[0] != "message" {
		t.Fatalf("unexpected chat message: %+v", call.chat.messages)
	}
}

func TestGeneratorDoesNotRetry(t *testing.T) {
	chats := newFakeChatCreator()
	quotaErr := genai.APIError{
		Code:    http.StatusTooManyRequests,
		Status:  "RESOURCE_EXHAUSTED",
		Message: "quota exhausted, retry after 60 seconds",
	}
	chats.enqueue("gemini-pro", nil, quotaErr)
	chats.enqueue("gemini-pro", textResponse(&genai.Part{Text: "too late"}), nil)

	_, err := newTestGenerator(chats).Generate(context.Background(), "sys", "msg")

	var transportErr *ai.TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if !transportErr.RateLimited() {
		t.Fatalf("expected rate limit to be reported, got status %d", transportErr.StatusCode)
	}
	if len(chats.calls) != 1 {
		t.Fatalf("expected single call, got %d", len(chats.calls))
	}
}

func TestGeneratorEmptyResponse(t *testing.T) {
	chats := newFakeChatCreator()
	chats.enqueue("gemini-pro", textResponse(&genai.Part{Text: "  "}), nil)

	_, err := newTestGenerator(chats).Generate(context.Background(), "sys", "msg")

	var transportErr *ai.TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
}

func TestGeneratorWithoutKey(t *testing.T) {
	g := NewGenerator(Config{}, nil)

	_, err := g.Generate(context.Background(), "sys", "msg")
	if !ai.IsConfiguration(err) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	if g.Model() != defaultModel {
		t.Fatalf("unexpected default model %q", g.Model())
	}
}

func TestSpec(t *testing.T) {
	spec := Spec(Config{Model: "gemini-2.5-pro"}, zap.NewNop())

	if spec.Name != Name || spec.Model != "gemini-2.5-pro" {
		t.Fatalf("unexpected spec: %+v", spec)
	}
	if len(spec.Credentials) != 1 || spec.Credentials[0].Validate() == nil {
		t.Fatalf("expected missing key to fail validation")
	}
}
