package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// IntentKeywords maps one intent to the keyword/phrase list the fallback
// (non-LLM) classifier matches against, in order.
type IntentKeywords struct {
	Intent   string   `yaml:"intent"`
	Keywords []string `yaml:"keywords"`
}

// IntentsConfig is the decoded shape of intents.yaml: the closed intent
// set plus the known-entities catalog used by both the LLM prompt and the
// keyword-heuristic fallback, and an alias table mapping informal surface
// forms to canonical graph node IDs.
type IntentsConfig struct {
	Intents       []IntentKeywords  `yaml:"intents"`
	KnownEntities []string          `yaml:"known_entities"`
	Aliases       map[string]string `yaml:"aliases"`
}

// NormalizeEntity resolves a raw entity mention through the alias table
// (e.g. "cot" -> "m:cot") keyed on its lowercased form. A mention with no
// alias entry is kept verbatim, per the classifier's normalization rule.
func (c *IntentsConfig) NormalizeEntity(mention string) string {
	trimmed := strings.TrimSpace(mention)
	if canonical, ok := c.Aliases[strings.ToLower(trimmed)]; ok {
		return canonical
	}
	return trimmed
}

// ClassifyByKeyword applies the fallback heuristic: the first intent whose
// keyword list contains a case-insensitive substring of query wins. Empty
// string means no keyword rule matched.
func (c *IntentsConfig) ClassifyByKeyword(query string) string {
	lower := strings.ToLower(query)
	for _, ik := range c.Intents {
		for _, kw := range ik.Keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				return ik.Intent
			}
		}
	}
	return ""
}

// ExtractKnownEntities returns every catalog entity whose name appears as a
// substring of query, case-insensitive.
func (c *IntentsConfig) ExtractKnownEntities(query string) []string {
	lower := strings.ToLower(query)
	var found []string
	for _, e := range c.KnownEntities {
		if strings.Contains(lower, strings.ToLower(e)) {
			found = append(found, e)
		}
	}
	return found
}

// LoadIntents reads and decodes intents.yaml from the given path.
func LoadIntents(path string) (*IntentsConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read intents config: %w", err)
	}

	var cfg IntentsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse intents config: %w", err)
	}
	return &cfg, nil
}
