package factory

import (
	"fmt"
	"multistep-rag-be/pkg/llm"
	"multistep-rag-be/pkg/llm/ollama"
)

const DefaultOllamaURL = "http://localhost:11434"

func NewLLMProvider(providerType, modelName, baseURL string) (llm.LLMProvider, error) {
	switch providerType {
	case "ollama":
		if baseURL == "" {
			baseURL = DefaultOllamaURL
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
