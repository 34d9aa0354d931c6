package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

type LLMProvider string

const (
	ProviderSimulation LLMProvider = "simulation"
	ProviderOpenAI     LLMProvider = "openai"
	ProviderYandex     LLMProvider = "yandex"
)

type Config struct {
	// HTTP
	Host            string        `env:"HOST" envDefault:"0.0.0.0"`
	Port            int           `env:"PORT" envDefault:"8000"`
	GinMode         string        `env:"GIN_MODE" envDefault:"release"`
	CORSOrigins     []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:4200"`
	APIVersion      string        `env:"API_VERSION" envDefault:"1.0.0"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	// LLM settings
	LLMProvider      LLMProvider `env:"LLM_PROVIDER" envDefault:"simulation"`
	OpenAIAPIKey     string      `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string      `env:"OPENAI_BASE_URL"`
	OpenAIModel      string      `env:"OPENAI_MODEL" envDefault:"gpt-3.5-turbo"`
	YandexOAuthToken string      `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string      `env:"YANDEX_FOLDER_ID"`

	// Only used to report key presence in the model catalog
	AnthropicAPIKey   string `env:"ANTHROPIC_API_KEY"`
	HuggingFaceAPIKey string `env:"HUGGINGFACE_API_KEY"`

	// OpenRouter (optional)
	OpenRouterReferrer string `env:"OPENROUTER_REFERRER"`
	OpenRouterTitle    string `env:"OPENROUTER_TITLE"`

	// Prompts
	SystemPromptPath string `env:"SYSTEM_PROMPT_PATH"`

	// Storage
	TranscriptPath string `env:"TRANSCRIPT_PATH"`

	// Integrations
	MetricsEnabled   bool   `env:"METRICS_ENABLED" envDefault:"true"`
	MCPEnabled       bool   `env:"MCP_ENABLED" envDefault:"true"`
	ReportCron       string `env:"REPORT_CRON" envDefault:"0 21 * * *"`
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
}

// Load parses the process environment into a Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.LLMProvider {
	case ProviderSimulation, ProviderOpenAI, ProviderYandex:
	default:
		return fmt.Errorf("unknown llm provider: %s", c.LLMProvider)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	return nil
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
