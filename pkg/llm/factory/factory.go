package factory

import (
	"fmt"

	"welfare-chat-be/pkg/llm"
	"welfare-chat-be/pkg/llm/ollama"
)

// NewLLMProvider builds the configured LLM backend. Only Ollama is wired for
// now; the switch keeps the seam for hosted providers.
func NewLLMProvider(providerType, modelName, baseURL string) (llm.LLMProvider, error) {
	switch providerType {
	case "ollama":
		return ollama.NewProvider(baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
