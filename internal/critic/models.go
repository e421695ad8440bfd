// Package critic scores pipeline-stage outputs against per-agent
// evaluation criteria and persists the result back into the graph.
package critic

import "time"

// Evaluation is the result of scoring one agent's output against every
// active criterion targeting it.
type Evaluation struct {
	ID              string
	AgentName       string
	Query           string
	Response        string
	Scores          map[string]float64
	CompositeScore  float64
	Feedback        string
	CreatedAt       time.Time
	ConversationID  string
}
