package llm

import (
	"testing"
)

func TestResolveString(t *testing.T) {
	tests := []struct {
		name      string
		spec      string
		wantModel string
		wantErr   bool
	}{
		{name: "ollama prefix", spec: "ollama:llama3.1:8b", wantModel: "llama3.1:8b"},
		{name: "bare model assumes ollama", spec: "llama3.1:8b", wantModel: "llama3.1:8b"},
		{name: "gateway needs map", spec: "gateway:x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, model, err := Resolve(tt.spec)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got client %T", client)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if model != tt.wantModel {
				t.Errorf("model = %q, want %q", model, tt.wantModel)
			}
			if _, ok := client.(*OpenAIClient); !ok {
				t.Errorf("client = %T, want *OpenAIClient", client)
			}
		})
	}
}

func TestResolveMap(t *testing.T) {
	t.Run("openai requires api key", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "")
		_, _, err := Resolve(map[string]any{"provider": "openai", "model": "gpt-4"})
		if err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("anthropic with explicit key", func(t *testing.T) {
		client, model, err := Resolve(map[string]any{
			"provider": "anthropic", "model": "claude-sonnet", "api_key": "k",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if model != "claude-sonnet" {
			t.Errorf("model = %q", model)
		}
		if _, ok := client.(*AnthropicClient); !ok {
			t.Errorf("client = %T, want *AnthropicClient", client)
		}
	})

	t.Run("gateway with base_url and key", func(t *testing.T) {
		client, _, err := Resolve(map[string]any{
			"provider": "gateway", "model": "m", "base_url": "http://gw:9000/v1", "api_key": "k",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := client.(*OpenAIClient); !ok {
			t.Errorf("client = %T, want *OpenAIClient", client)
		}
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, _, err := Resolve(map[string]any{"provider": "watson"})
		if err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestResolveUnsupportedType(t *testing.T) {
	if _, _, err := Resolve(42); err == nil {
		t.Fatal("expected error")
	}
}
