// Package pipeline implements the fixed five-stage retrieval chain: Intent
// Classifier, Search Planner, Graph Retriever, Conditional Web Expander,
// Synthesizer. Each stage is a plain method on its own struct, mutating one
// shared *querycontext.Context in place; Pipeline.Run drives them in order.
package pipeline

// Agent names double as the prompt registry key for each stage and as the
// agent_target values evaluation_criteria.yaml and test_queries.yaml are
// keyed by.
const (
	AgentIntentClassifier = "intent_classifier"
	AgentSearchPlanner    = "search_planner"
	AgentGraphRetriever   = "graph_retriever"
	AgentSynthesizer      = "synthesizer"
)

// validIntents is the closed set the classifier may resolve to, in both the
// LLM and heuristic-fallback paths.
var validIntents = []string{
	"lookup",
	"exploration",
	"path_trace",
	"comparison",
	"aggregation",
	"coverage_check",
	"definition",
	"expansion",
	"out_of_scope",
}

func isValidIntent(tag string) bool {
	for _, v := range validIntents {
		if v == tag {
			return true
		}
	}
	return false
}
