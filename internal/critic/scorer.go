package critic

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"text/template"

	"unified-thinking/internal/config"
	"unified-thinking/internal/llm"
)

const AgentCritic = "critic"

const defaultScoringPrompt = `You are evaluating an AI assistant's response quality.

Criterion: {{.Name}}
Description: {{.Description}}

Scoring Rubric:
{{.Rubric}}

User Query: {{.Query}}

Assistant Response: {{.Response}}
{{.ContextSummary}}

Based on the rubric above, assign a score from 0.0 to 1.0.
Output ONLY the numeric score (e.g., "0.8"). No explanation needed.

Score:`

func init() {
	llm.RegisterDefaultPrompt(AgentCritic, defaultScoringPrompt)
}

var scoreNumberPattern = regexp.MustCompile(`(\d+\.?\d*)`)

// ScoreContext carries the evidence the heuristic scorer and the LLM
// scoring prompt need, without threading the full querycontext.Context
// (and its pipeline-package import) into the critic package.
type ScoreContext struct {
	KGResultCount    int
	VectorResultCount int
	SourceCount      int
	EntityCount      int
	Intent           string
	CypherTemplate   string
	RetrievalMode    string
	CypherParamCount int
	CypherExecuted   bool
	HasError         bool
}

func (c ScoreContext) summary() string {
	return fmt.Sprintf("\nContext:\n- KG results retrieved: %d\n- Vector results retrieved: %d\n- Sources cited: %d\n",
		c.KGResultCount, c.VectorResultCount, c.SourceCount)
}

// scoreCriterion scores one response against one criterion, preferring an
// LLM judgment and falling back to a fixed heuristic table when no
// provider is available or the call fails.
func scoreCriterion(ctx context.Context, llmRegistry *llm.Registry, prompts *llm.PromptResolver, criterion config.EvaluationCriterion, query, response string, sc ScoreContext) float64 {
	if llmRegistry == nil || !llmRegistry.Available() {
		return heuristicScore(criterion, response, sc)
	}

	promptText, err := renderScoringPrompt(prompts, criterion, query, response, sc)
	if err != nil {
		return heuristicScore(criterion, response, sc)
	}

	resp, err := llmRegistry.Complete(ctx, llm.CallKindClassify, llm.Request{
		Messages: []llm.Message{{Role: "user", Content: promptText}},
	})
	if err != nil {
		return heuristicScore(criterion, response, sc)
	}

	return parseScore(resp.Text)
}

func renderScoringPrompt(prompts *llm.PromptResolver, criterion config.EvaluationCriterion, query, response string, sc ScoreContext) (string, error) {
	truncated := response
	if len(truncated) > 1000 {
		truncated = truncated[:1000]
	}

	tpl, err := template.New(AgentCritic).Parse(prompts.Resolve(AgentCritic))
	if err != nil {
		return "", err
	}
	data := struct {
		Name           string
		Description    string
		Rubric         string
		Query          string
		Response       string
		ContextSummary string
	}{
		Name:           criterion.Name,
		Description:    criterion.Description,
		Rubric:         criterion.ScoringRubric,
		Query:          query,
		Response:       truncated,
		ContextSummary: sc.summary(),
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func parseScore(text string) float64 {
	trimmed := strings.TrimSpace(text)
	match := scoreNumberPattern.FindStringSubmatch(trimmed)
	if match == nil {
		return 0.5
	}
	score, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0.5
	}
	if score > 1.0 {
		score = score / 100.0
	}
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score
}

// heuristicScore mirrors the fixed per-criterion fallback table used when
// no LLM provider is configured.
func heuristicScore(criterion config.EvaluationCriterion, response string, sc ScoreContext) float64 {
	switch criterion.ID {
	case "ec:answer-relevance":
		if len(response) < 20 {
			return 0.2
		}
		return 0.7

	case "ec:source-citation":
		switch {
		case sc.SourceCount >= 2:
			return 0.9
		case sc.SourceCount == 1:
			return 0.6
		default:
			return 0.3
		}

	case "ec:factual-accuracy":
		if sc.KGResultCount > 0 {
			return 0.7
		}
		return 0.5

	case "ec:reasoning-steps":
		lower := strings.ToLower(response)
		for _, kw := range []string{"because", "therefore", "since"} {
			if strings.Contains(lower, kw) {
				return 0.7
			}
		}
		return 0.4

	case "ec:completeness":
		if sc.KGResultCount > 0 && len(response) > 200 {
			return 0.7
		}
		return 0.5

	case "ec:conciseness":
		switch {
		case len(response) > 2000:
			return 0.4
		case len(response) > 1000:
			return 0.6
		default:
			return 0.8
		}

	case "ec:safety":
		return 1.0

	case "ec:intent-accuracy":
		return 0.7

	case "ec:entity-extraction":
		if sc.EntityCount >= 1 {
			return 0.8
		}
		return 0.4

	case "ec:scope-detection":
		if sc.Intent == "out_of_scope" {
			return 0.9
		}
		return 0.7

	case "ec:template-selection":
		if sc.CypherTemplate != "" {
			return 0.8
		}
		return 0.4

	case "ec:retrieval-mode":
		if sc.RetrievalMode != "" {
			return 0.7
		}
		return 0.5

	case "ec:parameter-binding":
		if sc.CypherParamCount > 0 {
			return 0.8
		}
		return 0.5

	case "ec:query-execution":
		if sc.HasError {
			return 0.0
		}
		if sc.KGResultCount > 0 {
			return 1.0
		}
		return 0.5

	case "ec:result-relevance":
		if sc.KGResultCount > 0 {
			return 0.7
		}
		return 0.3
	}

	return 0.5
}

// compositeScore computes the weighted mean of scores over criteria,
// ignoring any criterion with no corresponding score.
func compositeScore(scores map[string]float64, criteria []config.EvaluationCriterion) float64 {
	if len(scores) == 0 || len(criteria) == 0 {
		return 0
	}

	var weightedSum, totalWeight float64
	for _, c := range criteria {
		if score, ok := scores[c.ID]; ok {
			weightedSum += score * c.Weight
			totalWeight += c.Weight
		}
	}
	if totalWeight == 0 {
		return 0
	}
	return weightedSum / totalWeight
}
