package llm

import (
	"fmt"
	"os"
	"strings"
)

const defaultOllamaBaseURL = "http://localhost:11434/v1"

// Resolve parses a model spec (string or map) and returns a Client.
// String specs use "provider:model" form; ollama works without credentials,
// openai and anthropic fall back to OPENAI_API_KEY / ANTHROPIC_API_KEY.
// Map specs carry explicit provider, model, api_key and base_url keys.
func Resolve(modelSpec any) (Client, string, error) {
	switch v := modelSpec.(type) {
	case string:
		return resolveString(v)
	case map[string]any:
		return resolveMap(v)
	default:
		return nil, "", fmt.Errorf("unsupported model spec type: %T", modelSpec)
	}
}

func resolveString(spec string) (Client, string, error) {
	parts := strings.SplitN(spec, ":", 2)
	provider := parts[0]
	model := ""
	if len(parts) > 1 {
		model = parts[1]
	}

	switch provider {
	case "ollama":
		return NewOpenAIClient(defaultOllamaBaseURL, "ollama", model), model, nil
	case "openai":
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return nil, "", fmt.Errorf("openai provider requires OPENAI_API_KEY or map format with api_key")
		}
		return NewOpenAIClient("https://api.openai.com/v1", key, model), model, nil
	case "anthropic":
		key := os.Getenv("ANTHROPIC_API_KEY")
		if key == "" {
			return nil, "", fmt.Errorf("anthropic provider requires ANTHROPIC_API_KEY or map format with api_key")
		}
		return NewAnthropicClient("", key, model), model, nil
	case "gateway":
		return nil, "", fmt.Errorf("gateway provider requires map format with base_url and api_key")
	default:
		// Bare model name, assume local Ollama (e.g. "llama3.1:8b")
		return NewOpenAIClient(defaultOllamaBaseURL, "ollama", spec), spec, nil
	}
}

func resolveMap(spec map[string]any) (Client, string, error) {
	provider, _ := spec["provider"].(string)
	model, _ := spec["model"].(string)
	baseURL, _ := spec["base_url"].(string)
	apiKey, _ := spec["api_key"].(string)

	switch provider {
	case "ollama":
		if baseURL == "" {
			baseURL = defaultOllamaBaseURL
		}
		return NewOpenAIClient(baseURL, "ollama", model), model, nil
	case "openai":
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			return nil, "", fmt.Errorf("openai provider requires api_key in model spec")
		}
		if baseURL == "" {
			baseURL = "https://api.openai.com/v1"
		}
		return NewOpenAIClient(baseURL, apiKey, model), model, nil
	case "anthropic":
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, "", fmt.Errorf("anthropic provider requires api_key in model spec")
		}
		return NewAnthropicClient(baseURL, apiKey, model), model, nil
	case "gateway":
		if baseURL == "" {
			return nil, "", fmt.Errorf("gateway provider requires base_url in model spec")
		}
		if apiKey == "" {
			return nil, "", fmt.Errorf("gateway provider requires api_key in model spec")
		}
		return NewOpenAIClient(baseURL, apiKey, model), model, nil
	default:
		return nil, "", fmt.Errorf("unknown provider: %q", provider)
	}
}
