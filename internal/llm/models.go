package llm

import (
	"slices"

	"nova-api/internal/config"
)

// SimulatorModel is the name reported by the built-in keyword responder.
const SimulatorModel = "nova-simulator"

// ModelConfig describes one model offered by the service.
type ModelConfig struct {
	Name             string  `json:"model_name"`
	Type             string  `json:"model_type"`
	APIKeyConfigured bool    `json:"api_key_configured"`
	MaxTokens        int     `json:"max_tokens"`
	Temperature      float64 `json:"temperature"`
}

// Catalog is the fixed, ordered list of model descriptors.
type Catalog struct {
	models []ModelConfig
}

// NewCatalog builds the catalog once; key presence is read from cfg at
// construction time and never changes afterwards.
func NewCatalog(cfg *config.Config) *Catalog {
	return &Catalog{models: []ModelConfig{
		{Name: "gpt-3.5-turbo", Type: "openai", APIKeyConfigured: cfg.OpenAIAPIKey != "", MaxTokens: 4096, Temperature: 0.7},
		{Name: "claude-3-sonnet", Type: "anthropic", APIKeyConfigured: cfg.AnthropicAPIKey != "", MaxTokens: 4096, Temperature: 0.7},
		{Name: "llama-2-7b", Type: "huggingface", APIKeyConfigured: cfg.HuggingFaceAPIKey != "", MaxTokens: 2048, Temperature: 0.8},
		{Name: SimulatorModel, Type: "simulation", APIKeyConfigured: true, MaxTokens: 1000, Temperature: 0.7},
	}}
}

// Models returns a copy of the catalog in its fixed order.
func (c *Catalog) Models() []ModelConfig {
	return slices.Clone(c.models)
}
