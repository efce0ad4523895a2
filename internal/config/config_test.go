package config

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "DB_PATH", "REGISTRY_URL", "LLM_PROVIDER",
		"OPENAI_API_KEY", "OPENAI_MODEL", "ANTHROPIC_API_KEY", "ANTHROPIC_MODEL",
		"PRODUCER_DOMAIN", "VALIDATOR_DOMAIN", "WORKER_INTERVAL", "REGISTRY_TIMEOUT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.DBPath != "workproof.db" {
		t.Errorf("DBPath = %q, want workproof.db", cfg.DBPath)
	}
	if cfg.LLMProvider != "openai" {
		t.Errorf("LLMProvider = %q, want openai", cfg.LLMProvider)
	}
	if cfg.ProducerDomain != "producer.workproof.local" {
		t.Errorf("ProducerDomain = %q", cfg.ProducerDomain)
	}
	if cfg.ValidatorDomain != "validator.workproof.local" {
		t.Errorf("ValidatorDomain = %q", cfg.ValidatorDomain)
	}
	if cfg.WorkerInterval != 3*time.Second {
		t.Errorf("WorkerInterval = %v, want 3s", cfg.WorkerInterval)
	}
	if cfg.RegistryTimeout != 30*time.Second {
		t.Errorf("RegistryTimeout = %v, want 30s", cfg.RegistryTimeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("DB_PATH", "/tmp/other.db")
	t.Setenv("WORKER_INTERVAL", "500ms")
	t.Setenv("REGISTRY_URL", "http://gateway:8545")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.DBPath != "/tmp/other.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.WorkerInterval != 500*time.Millisecond {
		t.Errorf("WorkerInterval = %v, want 500ms", cfg.WorkerInterval)
	}
	if cfg.RegistryURL != "http://gateway:8545" {
		t.Errorf("RegistryURL = %q", cfg.RegistryURL)
	}
}

func TestLoadInvalidDurationFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("WORKER_INTERVAL", "not-a-duration")

	cfg := Load()
	if cfg.WorkerInterval != 3*time.Second {
		t.Errorf("WorkerInterval = %v, want default 3s", cfg.WorkerInterval)
	}
}

func TestUseStubs(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want bool
	}{
		{"openai with key", Config{LLMProvider: "openai", OpenAIKey: "sk-x"}, false},
		{"openai without key", Config{LLMProvider: "openai"}, true},
		{"claude with key", Config{LLMProvider: "claude", AnthropicKey: "ak-x"}, false},
		{"claude without key", Config{LLMProvider: "claude", OpenAIKey: "sk-x"}, true},
		{"unknown provider defaults to openai key", Config{LLMProvider: "other", OpenAIKey: "sk-x"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.UseStubs(); got != tt.want {
				t.Errorf("UseStubs() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUseMemoryRegistry(t *testing.T) {
	if !(Config{}).UseMemoryRegistry() {
		t.Error("empty RegistryURL should select the in-process registry")
	}
	if (Config{RegistryURL: "http://gateway:8545"}).UseMemoryRegistry() {
		t.Error("configured RegistryURL should select the gateway client")
	}
}
