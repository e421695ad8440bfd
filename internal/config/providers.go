package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ProviderEntry describes one LLM provider's connection and budget
// settings as read from providers.yaml.
type ProviderEntry struct {
	Name              string `yaml:"name"`
	Kind              string `yaml:"kind"` // "anthropic" or "openai"
	Model             string `yaml:"model"`
	APIKeyEnv         string `yaml:"api_key_env"`
	MaxClassifyTokens int    `yaml:"max_classify_tokens"`
	MaxSynthesizeTokens int  `yaml:"max_synthesize_tokens"`
}

// ProvidersConfig is the decoded shape of providers.yaml.
type ProvidersConfig struct {
	Enabled         bool            `yaml:"llm_enabled"`
	Primary         string          `yaml:"primary_provider"`
	FallbackEnv     string          `yaml:"fallback_provider_env"`
	Providers       []ProviderEntry `yaml:"providers"`
}

// EntryFor returns the named provider entry, or false if it is not
// registered.
func (c *ProvidersConfig) EntryFor(name string) (ProviderEntry, bool) {
	for _, p := range c.Providers {
		if p.Name == name {
			return p, true
		}
	}
	return ProviderEntry{}, false
}

// FallbackName returns the fallback provider name from LLM_FALLBACK_PROVIDER
// (or the config-declared env var), empty if unset.
func (c *ProvidersConfig) FallbackName() string {
	envVar := c.FallbackEnv
	if envVar == "" {
		envVar = "LLM_FALLBACK_PROVIDER"
	}
	return os.Getenv(envVar)
}

// LoadProviders reads and decodes providers.yaml from the given path.
func LoadProviders(path string) (*ProvidersConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read providers config: %w", err)
	}

	var cfg ProvidersConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse providers config: %w", err)
	}
	if cfg.Primary == "" && len(cfg.Providers) > 0 {
		cfg.Primary = cfg.Providers[0].Name
	}
	return &cfg, nil
}
