package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// CypherTemplate is one named, pre-authored Cypher query the search planner
// can select. EntityTypes lists the entity-type multiset this template is
// written for; the planner matches intent first, then an exact EntityTypes
// multiset match (see SelectTemplate).
type CypherTemplate struct {
	Name        string   `yaml:"name"`
	Intent      string   `yaml:"intent"`
	EntityTypes []string `yaml:"entity_types"`
	Params      []string `yaml:"params"`
	Cypher      string   `yaml:"cypher"`
}

// CypherTemplatesConfig is the decoded shape of cypher_templates.yaml.
type CypherTemplatesConfig struct {
	Templates        []CypherTemplate  `yaml:"templates"`
	DefaultTemplates map[string]string `yaml:"default_templates"` // intent -> template name
	EntityPatterns   map[string]string `yaml:"entity_patterns"`   // substring -> entity type
}

// DetectEntityType returns the entity type a free-text term most likely
// refers to, by substring match against EntityPatterns, defaulting to
// "Method" when nothing matches — mirroring the planner's own fallback.
func (c *CypherTemplatesConfig) DetectEntityType(term string) string {
	lower := strings.ToLower(term)

	// Sort keys for deterministic matching when multiple patterns overlap.
	keys := make([]string, 0, len(c.EntityPatterns))
	for k := range c.EntityPatterns {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if strings.Contains(lower, strings.ToLower(k)) {
			return c.EntityPatterns[k]
		}
	}
	return "Method"
}

// SelectTemplate picks the best matching template for an intent and a set
// of detected entity types: exact intent + entity-type-multiset match
// first, then the intent's configured default template.
func (c *CypherTemplatesConfig) SelectTemplate(intent string, entityTypes []string) (CypherTemplate, bool) {
	wanted := sortedCopy(entityTypes)

	for _, tpl := range c.Templates {
		if tpl.Intent != intent {
			continue
		}
		if equalMultiset(sortedCopy(tpl.EntityTypes), wanted) {
			return tpl, true
		}
	}

	if name, ok := c.DefaultTemplates[intent]; ok {
		for _, tpl := range c.Templates {
			if tpl.Name == name {
				return tpl, true
			}
		}
	}

	return CypherTemplate{}, false
}

func sortedCopy(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	sort.Strings(out)
	return out
}

func equalMultiset(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// LoadCypherTemplates reads and decodes cypher_templates.yaml.
func LoadCypherTemplates(path string) (*CypherTemplatesConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cypher templates config: %w", err)
	}

	var cfg CypherTemplatesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse cypher templates config: %w", err)
	}
	return &cfg, nil
}
