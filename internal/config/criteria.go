package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EvaluationCriterion is one scored dimension the critic evaluates an
// agent's output against.
type EvaluationCriterion struct {
	ID            string  `yaml:"id"`
	AgentTarget   string  `yaml:"agent_target"`
	Name          string  `yaml:"name"`
	Description   string  `yaml:"description"`
	Weight        float64 `yaml:"weight"`
	ScoringRubric string  `yaml:"scoring_rubric"`
	IsActive      bool    `yaml:"is_active"`
}

// EvaluationSettings are the global knobs in evaluation_criteria.yaml's
// settings block.
type EvaluationSettings struct {
	MinCompositeScore     float64 `yaml:"min_composite_score"`
	EvaluationSampleRate  float64 `yaml:"evaluation_sample_rate"`
	MaxResponseLength     int     `yaml:"max_response_length"`
	FeedbackEnabled       bool    `yaml:"feedback_enabled"`
}

// CriteriaConfig is the decoded shape of evaluation_criteria.yaml.
type CriteriaConfig struct {
	Settings EvaluationSettings     `yaml:"settings"`
	Criteria []EvaluationCriterion  `yaml:"criteria"`
}

// ForAgent returns the active criteria targeting the given agent name.
func (c *CriteriaConfig) ForAgent(agentName string) []EvaluationCriterion {
	var out []EvaluationCriterion
	for _, crit := range c.Criteria {
		if crit.AgentTarget == agentName && crit.IsActive {
			out = append(out, crit)
		}
	}
	return out
}

// LoadCriteria reads and decodes evaluation_criteria.yaml from the given
// path, defaulting MinCompositeScore/EvaluationSampleRate to the teacher's
// conservative defaults (score everything, fail nothing below 0.6) when
// the settings block is omitted.
func LoadCriteria(path string) (*CriteriaConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read criteria config: %w", err)
	}

	cfg := CriteriaConfig{
		Settings: EvaluationSettings{
			MinCompositeScore:    0.6,
			EvaluationSampleRate: 1.0,
			MaxResponseLength:    500,
			FeedbackEnabled:      true,
		},
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse criteria config: %w", err)
	}
	return &cfg, nil
}
