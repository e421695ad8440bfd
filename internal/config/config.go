// Package config provides configuration management for the knowledge graph
// question-answering server.
//
// Config (see Load) is built from default values overridden by environment
// variables. The YAML files under ConfigDir (providers.yaml, intents.yaml,
// cypher_templates.yaml, evaluation_criteria.yaml) are read separately by
// NewAppContext; environment variables do not override their contents.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"unified-thinking/internal/knowledge"
)

// Config represents the complete server configuration.
type Config struct {
	Server   ServerConfig         `json:"server"`
	Neo4j    knowledge.Neo4jConfig `json:"-"`
	Vector   VectorConfig         `json:"vector"`
	Paths    PathConfig           `json:"paths"`
	Critic   CriticConfig         `json:"critic"`
	Logging  LoggingConfig        `json:"logging"`
}

// ServerConfig contains server-level configuration.
type ServerConfig struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
	HTTPAddr    string `json:"http_addr"`
}

// VectorConfig configures the chromem-go backed vector store.
type VectorConfig struct {
	PersistPath string `json:"persist_path"`
}

// PathConfig locates the YAML config directory and the prompt registry's
// on-disk storage.
type PathConfig struct {
	ConfigDir  string `json:"config_dir"`
	PromptsDir string `json:"prompts_dir"`
}

// CriticConfig carries the sampling/threshold knobs that are not themselves
// per-criterion data (those live in evaluation_criteria.yaml).
type CriticConfig struct {
	MinCompositeScore   float64 `json:"min_composite_score"`
	EvaluationSampleRate float64 `json:"evaluation_sample_rate"`
	MaxResponseLength   int     `json:"max_response_length"`
	FeedbackEnabled     bool    `json:"feedback_enabled"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level            string `json:"level"`
	Format           string `json:"format"`
	EnableTimestamps bool   `json:"enable_timestamps"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Name:        "kg-qa-engine",
			Version:     "1.0.0",
			Environment: "development",
			HTTPAddr:    ":8080",
		},
		Neo4j: knowledge.DefaultConfig(),
		Vector: VectorConfig{
			PersistPath: "",
		},
		Paths: PathConfig{
			ConfigDir:  "config",
			PromptsDir: "data/prompts",
		},
		Critic: CriticConfig{
			MinCompositeScore:    0.6,
			EvaluationSampleRate: 1.0,
			MaxResponseLength:    500,
			FeedbackEnabled:      true,
		},
		Logging: LoggingConfig{
			Level:            "info",
			Format:           "text",
			EnableTimestamps: true,
		},
	}
}

// Load builds the configuration from defaults overridden by environment
// variables, then validates it.
func Load() (*Config, error) {
	cfg := Default()
	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadFromEnv overlays environment variables onto the configuration.
// Variables follow the pattern KGQA_<SECTION>_<KEY>, matching the
// underscore-prefixed convention the Neo4j client already uses for its own
// NEO4J_* variables.
func (c *Config) loadFromEnv() {
	if v := os.Getenv("KGQA_SERVER_NAME"); v != "" {
		c.Server.Name = v
	}
	if v := os.Getenv("KGQA_SERVER_ENVIRONMENT"); v != "" {
		c.Server.Environment = v
	}
	if v := os.Getenv("KGQA_HTTP_ADDR"); v != "" {
		c.Server.HTTPAddr = v
	}
	if v := os.Getenv("KGQA_VECTOR_PERSIST_PATH"); v != "" {
		c.Vector.PersistPath = v
	}
	if v := os.Getenv("KGQA_CONFIG_DIR"); v != "" {
		c.Paths.ConfigDir = v
	}
	if v := os.Getenv("KGQA_PROMPTS_DIR"); v != "" {
		c.Paths.PromptsDir = v
	}
	if v := os.Getenv("KGQA_CRITIC_MIN_COMPOSITE_SCORE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Critic.MinCompositeScore = f
		}
	}
	if v := os.Getenv("KGQA_CRITIC_SAMPLE_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Critic.EvaluationSampleRate = f
		}
	}
	if v := os.Getenv("KGQA_CRITIC_FEEDBACK_ENABLED"); v != "" {
		c.Critic.FeedbackEnabled = parseBool(v)
	}
	if v := os.Getenv("KGQA_LOGGING_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("KGQA_LOGGING_FORMAT"); v != "" {
		c.Logging.Format = strings.ToLower(v)
	}

	// Neo4j configuration reuses the knowledge package's own env reader so
	// NEO4J_URI / NEO4J_USERNAME / NEO4J_PASSWORD / NEO4J_DATABASE stay the
	// single source of truth for graph connectivity.
	c.Neo4j = knowledge.DefaultConfig()

	_ = time.Second // keep time imported for the Neo4j timeout override below
	if v := os.Getenv("NEO4J_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			c.Neo4j.Timeout = time.Duration(ms) * time.Millisecond
		}
	}
}

// Validate checks the configuration for obviously broken values.
func (c *Config) Validate() error {
	if c.Server.Name == "" {
		return fmt.Errorf("server.name cannot be empty")
	}
	switch c.Server.Environment {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("server.environment must be one of: development, staging, production")
	}
	if c.Paths.ConfigDir == "" {
		return fmt.Errorf("paths.config_dir cannot be empty")
	}
	if c.Paths.PromptsDir == "" {
		return fmt.Errorf("paths.prompts_dir cannot be empty")
	}
	if c.Critic.MinCompositeScore < 0 || c.Critic.MinCompositeScore > 1 {
		return fmt.Errorf("critic.min_composite_score must be between 0 and 1")
	}
	if c.Critic.EvaluationSampleRate < 0 || c.Critic.EvaluationSampleRate > 1 {
		return fmt.Errorf("critic.evaluation_sample_rate must be between 0 and 1")
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json'")
	}
	return nil
}

// parseBool parses a boolean from string (handles various common spellings).
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on" || s == "enabled"
}
