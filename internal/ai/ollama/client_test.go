package ollama

import (
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

func TestGenerateWireFormat(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"model":"mistral:7b-instruct","message":{"role":"assistant","content":"{\"nom\":\"Jeanne\"}"},"done":true}`))
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL + "/"}, zap.NewNop())
	out, err := client.Generate(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `{"nom":"Jeanne"}` {
		t.Fatalf("unexpected output %q", out)
	}

	if got["model"] != DefaultModel {
		t.Fatalf("unexpected model %v", got["model"])
	}
	if got["stream"] != false {
		t.Fatalf("expected stream=false, got %v", got["stream"])
	}
	opts, ok := got["options"].(map[string]any)
	if !ok || opts["temperature"] != 0.3 || opts["num_predict"] != float64(DefaultNumPredict) {
		t.Fatalf("unexpected options %v", got["options"])
	}
	messages, ok := got["messages"].([]any)
	if !ok || len(messages) != 2 {
		t.Fatalf("unexpected messages %v", got["messages"])
	}
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{name: "model missing", status: http.StatusNotFound, body: `{"error":"model \"mistral:7b-instruct\" not found, try pulling it first"}`, wantMsg: "try pulling it first"},
		{name: "html error page", status: http.StatusBadGateway, body: "<html>bad gateway</html>", wantMsg: "bad status: 502"},
		{name: "empty message", status: http.StatusOK, body: `{"message":{"role":"assistant","content":"  "},"done":true}`, wantMsg: "empty completion"},
		{name: "garbage", status: http.StatusOK, body: "not json", wantMsg: "decode ollama response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := New(Config{BaseURL: srv.URL}, nil).Generate(context.Background(), "s", "u")

			var transportErr *ai.TransportError
			if !errors.As(err, &transportErr) {
				t.Fatalf("expected TransportError, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Fatalf("expected %q in %q", tt.wantMsg, err.Error())
			}
		})
	}
}

func TestSpecDefaults(t *testing.T) {
	spec := Spec(Config{}, zap.NewNop())

	if spec.Name != Name || spec.Model != DefaultModel {
		t.Fatalf("unexpected spec identity: %+v", spec)
	}
	if spec.InputBudget != ai.LocalInputBudget || spec.Timeout != DefaultTimeout {
		t.Fatalf("unexpected limits: budget=%d timeout=%s", spec.InputBudget, spec.Timeout)
	}
	if len(spec.Credentials) != 0 {
		t.Fatalf("local backend must not require credentials")
	}

	client, ok := spec.Provider.(*Client)
	if !ok {
		t.Fatalf("unexpected provider type %T", spec.Provider)
	}
	if client.baseURL != DefaultBaseURL {
		t.Fatalf("unexpected base url %q", client.baseURL)
	}
}
