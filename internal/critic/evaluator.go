package critic

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"unified-thinking/internal/config"
	"unified-thinking/internal/knowledge"
	"unified-thinking/internal/llm"
	"unified-thinking/internal/querycontext"
)

// Evaluator scores pipeline stage outputs against the active criteria for
// that agent and optionally persists the result to the graph.
type Evaluator struct {
	appCtx      *config.AppContext
	llmRegistry *llm.Registry
	prompts     *llm.PromptResolver
	kg          *knowledge.KnowledgeGraph

	mu      sync.Mutex
	counter int
}

func NewEvaluator(appCtx *config.AppContext, llmRegistry *llm.Registry, prompts *llm.PromptResolver, kg *knowledge.KnowledgeGraph) *Evaluator {
	return &Evaluator{appCtx: appCtx, llmRegistry: llmRegistry, prompts: prompts, kg: kg}
}

// Evaluate scores response against every active criterion targeting
// agentName. It returns (nil, false) when the sampling gate excludes this
// call or no criteria target the agent at all.
func (e *Evaluator) Evaluate(ctx context.Context, agentName, query, response string, sc ScoreContext, conversationID string) (*Evaluation, bool) {
	criteriaCfg := e.appCtx.Criteria
	settings := criteriaCfg.Settings

	if settings.EvaluationSampleRate < 1.0 && rand.Float64() > settings.EvaluationSampleRate {
		return nil, false
	}

	criteria := criteriaCfg.ForAgent(agentName)
	if len(criteria) == 0 {
		log.Printf("[Critic] no criteria found for agent: %s", agentName)
		return nil, false
	}

	scores := make(map[string]float64, len(criteria))
	for _, c := range criteria {
		scores[c.ID] = scoreCriterion(ctx, e.llmRegistry, e.prompts, c, query, response, sc)
	}

	composite := compositeScore(scores, criteria)

	var feedback string
	if settings.FeedbackEnabled && composite < settings.MinCompositeScore {
		feedback = e.generateFeedback(ctx, criteria, scores, query, response)
	}

	truncated := response
	if settings.MaxResponseLength > 0 && len(truncated) > settings.MaxResponseLength {
		truncated = truncated[:settings.MaxResponseLength] + "..."
	}

	e.mu.Lock()
	e.counter++
	id := fmt.Sprintf("eval:%s-%04d", time.Now().Format("20060102"), e.counter)
	e.mu.Unlock()

	return &Evaluation{
		ID:             id,
		AgentName:      agentName,
		Query:          query,
		Response:       truncated,
		Scores:         scores,
		CompositeScore: composite,
		Feedback:       feedback,
		CreatedAt:      time.Now(),
		ConversationID: conversationID,
	}, true
}

// EvaluatePipeline scores every stage of a finished querycontext.Context
// whose output is non-empty, mirroring the original pipeline's per-agent
// evaluation pass.
func (e *Evaluator) EvaluatePipeline(ctx context.Context, qc *querycontext.Context, conversationID string) []*Evaluation {
	var evaluations []*Evaluation

	if qc.Synthesis.Answer != "" {
		sc := ScoreContext{
			KGResultCount:     len(qc.Retrieval.GraphRecords),
			VectorResultCount: len(qc.Retrieval.VectorResults),
			SourceCount:       len(qc.Synthesis.Sources),
			EntityCount:       len(qc.Intent.Entities),
			Intent:            string(qc.Intent.Intent),
		}
		if eval, ok := e.Evaluate(ctx, "synthesizer", qc.UserQuery, qc.Synthesis.Answer, sc, conversationID); ok {
			evaluations = append(evaluations, eval)
		}
	}

	if qc.Intent.Ran {
		response := fmt.Sprintf("Intent: %s, Entities: %v", qc.Intent.Intent, qc.Intent.Entities)
		sc := ScoreContext{EntityCount: len(qc.Intent.Entities), Intent: string(qc.Intent.Intent)}
		if eval, ok := e.Evaluate(ctx, "intent_classifier", qc.UserQuery, response, sc, conversationID); ok {
			evaluations = append(evaluations, eval)
		}
	}

	if qc.Plan.Ran {
		response := fmt.Sprintf("template=%s retrieval=%s params=%d", qc.Plan.TemplateKey, qc.Plan.RetrievalMode, len(qc.Plan.CypherParams))
		sc := ScoreContext{
			Intent:           string(qc.Intent.Intent),
			CypherTemplate:   qc.Plan.TemplateKey,
			RetrievalMode:    string(qc.Plan.RetrievalMode),
			CypherParamCount: len(qc.Plan.CypherParams),
		}
		if eval, ok := e.Evaluate(ctx, "search_planner", qc.UserQuery, response, sc, conversationID); ok {
			evaluations = append(evaluations, eval)
		}
	}

	if qc.Retrieval.Ran {
		response := fmt.Sprintf("results=%d cypher=%q", len(qc.Retrieval.GraphRecords), qc.Retrieval.CypherExecuted)
		if qc.Error != "" {
			response += fmt.Sprintf(" error=%s", qc.Error)
		}
		sc := ScoreContext{
			KGResultCount:    len(qc.Retrieval.GraphRecords),
			CypherTemplate:   qc.Plan.TemplateKey,
			RetrievalMode:    string(qc.Plan.RetrievalMode),
			CypherParamCount: len(qc.Plan.CypherParams),
			CypherExecuted:   qc.Retrieval.CypherExecuted != "",
			HasError:         qc.Error != "",
		}
		if eval, ok := e.Evaluate(ctx, "graph_retriever", qc.UserQuery, response, sc, conversationID); ok {
			evaluations = append(evaluations, eval)
		}
	}

	return evaluations
}

func (e *Evaluator) generateFeedback(ctx context.Context, criteria []config.EvaluationCriterion, scores map[string]float64, query, response string) string {
	if e.llmRegistry == nil || !e.llmRegistry.Available() {
		return e.heuristicFeedback(criteria, scores)
	}

	type lowScore struct {
		c     config.EvaluationCriterion
		score float64
	}
	var low []lowScore
	for _, c := range criteria {
		if s := scores[c.ID]; s < 0.6 {
			low = append(low, lowScore{c, s})
		}
	}
	if len(low) == 0 {
		return ""
	}
	sort.Slice(low, func(i, j int) bool { return low[i].score < low[j].score })
	if len(low) > 3 {
		low = low[:3]
	}

	var summary strings.Builder
	for _, l := range low {
		fmt.Fprintf(&summary, "- %s: %.2f (%s)\n", l.c.Name, l.score, l.c.Description)
	}

	truncatedResponse := response
	if len(truncatedResponse) > 500 {
		truncatedResponse = truncatedResponse[:500]
	}

	prompt := fmt.Sprintf(`Based on the evaluation scores below, provide brief improvement suggestions.

Query: %s
Response: %s

Low-scoring criteria:
%s

Provide 2-3 specific, actionable suggestions to improve the response.
Keep it concise (under 100 words).`, query, truncatedResponse, summary.String())

	resp, err := e.llmRegistry.Complete(ctx, llm.CallKindSynthesize, llm.Request{
		Messages:  []llm.Message{{Role: "user", Content: prompt}},
		MaxTokens: 150,
	})
	if err != nil {
		log.Printf("[Critic] feedback generation failed: %v", err)
		return e.heuristicFeedback(criteria, scores)
	}
	return strings.TrimSpace(resp.Text)
}

func (e *Evaluator) heuristicFeedback(criteria []config.EvaluationCriterion, scores map[string]float64) string {
	var lowNames []string
	for _, c := range criteria {
		if scores[c.ID] < 0.6 {
			lowNames = append(lowNames, c.Name)
		}
	}
	if len(lowNames) == 0 {
		return ""
	}
	if len(lowNames) > 3 {
		lowNames = lowNames[:3]
	}
	return "Consider improving: " + strings.Join(lowNames, ", ")
}

// SaveToGraph persists an evaluation and its USES_CRITERIA edges to the
// knowledge graph.
func (e *Evaluator) SaveToGraph(ctx context.Context, eval *Evaluation) error {
	if e.kg == nil {
		return fmt.Errorf("no knowledge graph configured")
	}

	scoresJSON, err := json.Marshal(eval.Scores)
	if err != nil {
		return fmt.Errorf("marshal scores: %w", err)
	}

	_, err = e.kg.RunCypherWrite(ctx, `
MERGE (e:Evaluation {id: $id})
SET e.agent_name = $agent_name,
    e.query = $query,
    e.response = $response,
    e.scores = $scores,
    e.composite_score = $composite_score,
    e.feedback = $feedback,
    e.created_at = datetime($created_at),
    e.conversation_id = $conversation_id
`, map[string]interface{}{
		"id":              eval.ID,
		"agent_name":      eval.AgentName,
		"query":           eval.Query,
		"response":        eval.Response,
		"scores":          string(scoresJSON),
		"composite_score": eval.CompositeScore,
		"feedback":        eval.Feedback,
		"created_at":      eval.CreatedAt.Format(time.RFC3339),
		"conversation_id": eval.ConversationID,
	})
	if err != nil {
		return fmt.Errorf("save evaluation: %w", err)
	}

	for criterionID, score := range eval.Scores {
		_, err := e.kg.RunCypherWrite(ctx, `
MATCH (e:Evaluation {id: $eval_id})
MATCH (ec:EvaluationCriteria {id: $criterion_id})
MERGE (e)-[:USES_CRITERIA {score: $score}]->(ec)
`, map[string]interface{}{
			"eval_id":      eval.ID,
			"criterion_id": criterionID,
			"score":        score,
		})
		if err != nil {
			log.Printf("[Critic] failed to link criterion %s: %v", criterionID, err)
		}
	}

	return nil
}
