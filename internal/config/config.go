// Package config provides centralized configuration for the exchange
// server. All configurable values are loaded from environment variables
// with sensible defaults.
package config

import (
	"os"
	"time"
)

// Config holds all server configuration values.
type Config struct {
	// Port is the HTTP server listen port.
	Port string

	// DBPath is the path to the SQLite content store file.
	DBPath string

	// RegistryURL is the base URL of the registry gateway. Empty selects
	// the in-process registry (demo mode).
	RegistryURL string

	// LLMProvider selects which model backend to use: "openai", "claude".
	LLMProvider string

	// OpenAIKey is the API key for the OpenAI service.
	OpenAIKey string

	// OpenAIModel is the model identifier for OpenAI completions.
	OpenAIModel string

	// AnthropicKey is the API key for the Anthropic Claude service.
	AnthropicKey string

	// AnthropicModel is the model identifier for Claude completions.
	AnthropicModel string

	// ProducerDomain identifies the producer agent on the registry.
	ProducerDomain string

	// ValidatorDomain identifies the validator agent on the registry.
	ValidatorDomain string

	// WorkerInterval is the polling interval for the validation worker.
	WorkerInterval time.Duration

	// RegistryTimeout is the timeout for registry gateway requests.
	RegistryTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults.
func Load() Config {
	return Config{
		Port:            envOr("PORT", "8080"),
		DBPath:          envOr("DB_PATH", "workproof.db"),
		RegistryURL:     os.Getenv("REGISTRY_URL"),
		LLMProvider:     envOr("LLM_PROVIDER", "openai"),
		OpenAIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:     envOr("OPENAI_MODEL", "gpt-4o-mini"),
		AnthropicKey:    os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  envOr("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
		ProducerDomain:  envOr("PRODUCER_DOMAIN", "producer.workproof.local"),
		ValidatorDomain: envOr("VALIDATOR_DOMAIN", "validator.workproof.local"),
		WorkerInterval:  envDuration("WORKER_INTERVAL", 3*time.Second),
		RegistryTimeout: envDuration("REGISTRY_TIMEOUT", 30*time.Second),
	}
}

// UseStubs returns true when no model API key is configured for the
// selected provider. The stub client keeps the exchange runnable offline.
func (c Config) UseStubs() bool {
	switch c.LLMProvider {
	case "claude":
		return c.AnthropicKey == ""
	default:
		return c.OpenAIKey == ""
	}
}

// UseMemoryRegistry returns true when no registry gateway is configured.
func (c Config) UseMemoryRegistry() bool {
	return c.RegistryURL == ""
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
