package optimizer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"unified-thinking/internal/knowledge"
	"unified-thinking/internal/llm"
)

// FailureAnalyzer clusters low-scoring Evaluation nodes into FailurePatterns
// and, when an LLM provider is available, generates root-cause hypotheses
// for each one.
type FailureAnalyzer struct {
	kg          *knowledge.KnowledgeGraph
	llmRegistry *llm.Registry
	threshold   float64
	minSamples  int

	patternCounter int
}

// NewFailureAnalyzer builds an analyzer. threshold is the score below which
// a criterion counts as a failure; minSamples is the minimum number of
// failing evaluations required before a pattern is created.
func NewFailureAnalyzer(kg *knowledge.KnowledgeGraph, llmRegistry *llm.Registry, threshold float64, minSamples int) *FailureAnalyzer {
	return &FailureAnalyzer{kg: kg, llmRegistry: llmRegistry, threshold: threshold, minSamples: minSamples}
}

type lowScoreEval struct {
	evalID      string
	agentName   string
	query       string
	response    string
	criterionID string
	score       float64
}

// Analyze queries low-scoring evaluations, groups them by (agent,
// criterion), and creates a FailurePattern for every group with at least
// minSamples members. agentName filters to one agent; empty analyzes all.
func (a *FailureAnalyzer) Analyze(ctx context.Context, agentName string) ([]*FailurePattern, error) {
	lowScores, err := a.queryLowScores(ctx, agentName)
	if err != nil {
		return nil, fmt.Errorf("query low scores: %w", err)
	}
	if len(lowScores) == 0 {
		log.Printf("[FailureAnalyzer] no low-scoring evaluations found")
		return nil, nil
	}

	grouped := a.groupFailures(lowScores)

	var patterns []*FailurePattern
	for key, failures := range grouped {
		if len(failures) < a.minSamples {
			continue
		}
		pattern := a.createPattern(ctx, key, failures)
		if pattern != nil {
			patterns = append(patterns, pattern)
		}
	}

	for _, p := range patterns {
		if err := a.savePattern(ctx, p); err != nil {
			log.Printf("[FailureAnalyzer] failed to save pattern %s: %v", p.ID, err)
		}
	}

	return patterns, nil
}

func (a *FailureAnalyzer) queryLowScores(ctx context.Context, agentName string) ([]lowScoreEval, error) {
	if a.kg == nil {
		return nil, nil
	}

	params := map[string]interface{}{"threshold": a.threshold}
	query := `
MATCH (e:Evaluation)
WHERE e.composite_score < $threshold
RETURN e.id AS eval_id, e.agent_name AS agent_name, e.query AS query,
       e.response AS response, e.scores AS scores
ORDER BY e.created_at DESC
LIMIT 100
`
	if agentName != "" {
		params["agent_name"] = agentName
		query = `
MATCH (e:Evaluation)
WHERE e.agent_name = $agent_name AND e.composite_score < $threshold
RETURN e.id AS eval_id, e.agent_name AS agent_name, e.query AS query,
       e.response AS response, e.scores AS scores
ORDER BY e.created_at DESC
LIMIT 100
`
	}

	rows, err := a.kg.RunCypher(ctx, query, params)
	if err != nil {
		return nil, err
	}

	var out []lowScoreEval
	for _, row := range rows {
		evalID, _ := row["eval_id"].(string)
		agent, _ := row["agent_name"].(string)
		q, _ := row["query"].(string)
		resp, _ := row["response"].(string)

		scoresJSON, _ := row["scores"].(string)
		var scores map[string]float64
		if scoresJSON != "" {
			_ = json.Unmarshal([]byte(scoresJSON), &scores)
		}
		for criterionID, score := range scores {
			if score >= a.threshold {
				continue
			}
			out = append(out, lowScoreEval{
				evalID:      evalID,
				agentName:   agent,
				query:       q,
				response:    resp,
				criterionID: criterionID,
				score:       score,
			})
		}
	}
	return out, nil
}

func (a *FailureAnalyzer) groupFailures(evals []lowScoreEval) map[string][]lowScoreEval {
	grouped := make(map[string][]lowScoreEval)
	for _, e := range evals {
		key := e.agentName + ":" + e.criterionID
		grouped[key] = append(grouped[key], e)
	}
	return grouped
}

func (a *FailureAnalyzer) createPattern(ctx context.Context, key string, failures []lowScoreEval) *FailurePattern {
	parts := strings.SplitN(key, ":", 2)
	if len(parts) != 2 {
		return nil
	}
	agentName, criterionID := parts[0], parts[1]

	var sum float64
	for _, f := range failures {
		sum += f.score
	}
	avgScore := sum / float64(len(failures))

	sampleLimit := 5
	if sampleLimit > len(failures) {
		sampleLimit = len(failures)
	}
	var sampleQueries, sampleResponses []string
	for _, f := range failures[:sampleLimit] {
		sampleQueries = append(sampleQueries, f.query)
		if f.response != "" {
			resp := f.response
			if len(resp) > 200 {
				resp = resp[:200]
			}
			sampleResponses = append(sampleResponses, resp)
		}
	}

	patternType := inferPatternType(criterionID)
	description := fmt.Sprintf("%s consistently scores low on %s (avg: %.2f)", agentName, criterionID, avgScore)
	hypotheses := a.generateHypotheses(ctx, agentName, criterionID, sampleQueries, sampleResponses, avgScore)

	a.patternCounter++
	dateStr := time.Now().Format("2006-01")
	shortCriterion := criterionID
	if idx := strings.LastIndex(criterionID, ":"); idx >= 0 {
		shortCriterion = criterionID[idx+1:]
	}
	patternID := fmt.Sprintf("fp:%s:%s:%s", agentName, shortCriterion, dateStr)

	return &FailurePattern{
		ID:                  patternID,
		AgentName:           agentName,
		CriterionID:         criterionID,
		PatternType:         patternType,
		Description:         description,
		Frequency:           len(failures),
		AvgScore:            avgScore,
		SampleQueries:       sampleQueries,
		SampleResponses:     sampleResponses,
		RootCauseHypotheses: hypotheses,
		Status:              "detected",
		CreatedAt:           time.Now(),
	}
}

func inferPatternType(criterionID string) string {
	c := strings.ToLower(criterionID)
	switch {
	case containsAny(c, "intent", "entity", "scope"):
		return "classification"
	case containsAny(c, "source", "citation", "grounding", "accuracy"):
		return "output_quality"
	case containsAny(c, "reasoning", "steps", "completeness"):
		return "reasoning"
	case containsAny(c, "retrieval", "query", "result", "template"):
		return "retrieval"
	}
	return "output_quality"
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func (a *FailureAnalyzer) generateHypotheses(ctx context.Context, agentName, criterionID string, sampleQueries, sampleResponses []string, avgScore float64) []string {
	if a.llmRegistry == nil || !a.llmRegistry.Available() {
		return fallbackHypotheses(criterionID)
	}

	var samples strings.Builder
	for i, q := range sampleQueries {
		fmt.Fprintf(&samples, "\nQuery %d: %s\n", i+1, q)
		if i < len(sampleResponses) && sampleResponses[i] != "" {
			excerpt := sampleResponses[i]
			if len(excerpt) > 150 {
				excerpt = excerpt[:150]
			}
			fmt.Fprintf(&samples, "Response excerpt: %s...\n", excerpt)
		}
	}

	prompt := fmt.Sprintf(`The %s agent consistently scores low on the "%s" criterion.
Average score: %.2f (threshold: %.2f)

Sample failing cases:
%s

Generate 2-3 hypotheses for why the %s prompt might be causing this issue.
Focus on prompt-level issues that could be fixed by modifying the prompt text.

Output as a JSON list of strings:
["hypothesis 1", "hypothesis 2", "hypothesis 3"]

Only output the JSON, no other text.`, agentName, criterionID, avgScore, a.threshold, samples.String(), agentName)

	resp, err := a.llmRegistry.Complete(ctx, llm.CallKindSynthesize, llm.Request{
		Messages:  []llm.Message{{Role: "user", Content: prompt}},
		MaxTokens: 300,
	})
	if err != nil {
		log.Printf("[FailureAnalyzer] hypothesis generation failed: %v", err)
		return fallbackHypotheses(criterionID)
	}

	hypotheses, ok := parseJSONStringList(resp.Text)
	if !ok {
		return fallbackHypotheses(criterionID)
	}
	if len(hypotheses) > 3 {
		hypotheses = hypotheses[:3]
	}
	return hypotheses
}

var fallbackHypothesesTable = map[string][]string{
	"source-citation": {
		"Prompt may not explicitly instruct to cite KG sources",
		"Source formatting instructions may be unclear",
	},
	"answer-relevance": {
		"Prompt may lack clear instruction to directly answer the question",
		"Context formatting may be confusing the model",
	},
	"reasoning-steps": {
		"Prompt may not require explicit reasoning steps",
		"Chain-of-thought instruction may be missing",
	},
	"completeness": {
		"Prompt may not emphasize including all relevant information",
		"Instructions for handling multiple results may be unclear",
	},
	"factual-accuracy": {
		"Prompt may allow too much creative interpretation",
		"Grounding instructions may be insufficiently strong",
	},
	"intent-accuracy": {
		"Intent categories may not be clearly described",
		"Examples for each intent type may be insufficient",
	},
	"entity-extraction": {
		"Entity extraction instructions may be too vague",
		"Entity format examples may be missing",
	},
	"template-selection": {
		"Template selection criteria may be unclear",
		"Intent-to-template mapping may need more examples",
	},
}

func fallbackHypotheses(criterionID string) []string {
	short := criterionID
	if idx := strings.LastIndex(criterionID, ":"); idx >= 0 {
		short = criterionID[idx+1:]
	}
	if h, ok := fallbackHypothesesTable[strings.ToLower(short)]; ok {
		return h
	}
	return []string{
		"Prompt instructions may be unclear or ambiguous",
		"Examples in the prompt may be insufficient",
	}
}

func (a *FailureAnalyzer) savePattern(ctx context.Context, p *FailurePattern) error {
	if a.kg == nil {
		return fmt.Errorf("no knowledge graph configured")
	}

	_, err := a.kg.RunCypherWrite(ctx, `
MERGE (fp:FailurePattern {id: $id})
SET fp.agent_name = $agent_name,
    fp.criterion_id = $criterion_id,
    fp.pattern_type = $pattern_type,
    fp.description = $description,
    fp.frequency = $frequency,
    fp.avg_score = $avg_score,
    fp.sample_queries = $sample_queries,
    fp.root_cause_hypotheses = $hypotheses,
    fp.status = $status,
    fp.created_at = datetime()
`, map[string]interface{}{
		"id":            p.ID,
		"agent_name":    p.AgentName,
		"criterion_id":  p.CriterionID,
		"pattern_type":  p.PatternType,
		"description":   p.Description,
		"frequency":     p.Frequency,
		"avg_score":     p.AvgScore,
		"sample_queries": p.SampleQueries,
		"hypotheses":    p.RootCauseHypotheses,
		"status":        p.Status,
	})
	return err
}

// GetPatterns returns existing FailurePatterns, optionally filtered by
// status and/or agent.
func (a *FailureAnalyzer) GetPatterns(ctx context.Context, status, agentName string) ([]*FailurePattern, error) {
	if a.kg == nil {
		return nil, nil
	}

	var clauses []string
	params := map[string]interface{}{}
	if status != "" {
		clauses = append(clauses, "fp.status = $status")
		params["status"] = status
	}
	if agentName != "" {
		clauses = append(clauses, "fp.agent_name = $agent_name")
		params["agent_name"] = agentName
	}

	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}

	query := fmt.Sprintf(`
MATCH (fp:FailurePattern)
%s
RETURN fp
ORDER BY fp.created_at DESC
`, where)

	rows, err := a.kg.RunCypher(ctx, query, params)
	if err != nil {
		return nil, err
	}

	var patterns []*FailurePattern
	for _, row := range rows {
		fp, ok := row["fp"].(knowledge.SerializedNode)
		if !ok {
			continue
		}
		patterns = append(patterns, &FailurePattern{
			ID:                  stringProp(fp.Properties, "id"),
			AgentName:           stringProp(fp.Properties, "agent_name"),
			CriterionID:         stringProp(fp.Properties, "criterion_id"),
			PatternType:         stringProp(fp.Properties, "pattern_type"),
			Description:         stringProp(fp.Properties, "description"),
			Status:              stringProp(fp.Properties, "status"),
			RootCauseHypotheses: stringSliceProp(fp.Properties, "root_cause_hypotheses"),
			SampleQueries:       stringSliceProp(fp.Properties, "sample_queries"),
		})
	}
	return patterns, nil
}

func stringProp(props map[string]interface{}, key string) string {
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}

func stringSliceProp(props map[string]interface{}, key string) []string {
	raw, ok := props[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// UpdatePatternStatus moves a pattern through its detected -> reviewing ->
// addressing -> resolved lifecycle.
func (a *FailureAnalyzer) UpdatePatternStatus(ctx context.Context, patternID, status string) error {
	if a.kg == nil {
		return fmt.Errorf("no knowledge graph configured")
	}
	_, err := a.kg.RunCypherWrite(ctx, `
MATCH (fp:FailurePattern {id: $id})
SET fp.status = $status
`, map[string]interface{}{"id": patternID, "status": status})
	return err
}
