package optimizer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"unified-thinking/internal/llm"
)

// VariantGenerator produces candidate prompt rewrites that address a
// FailurePattern, using the registry's active prompt as the starting point.
type VariantGenerator struct {
	registry            *Registry
	llmRegistry         *llm.Registry
	prompts             *llm.PromptResolver
	variantCounter      int
}

func NewVariantGenerator(registry *Registry, llmRegistry *llm.Registry, prompts *llm.PromptResolver) *VariantGenerator {
	return &VariantGenerator{registry: registry, llmRegistry: llmRegistry, prompts: prompts}
}

// GenerateVariants asks the LLM for numVariants complete rewrites of the
// agent's current prompt, each addressing the failure pattern.
func (g *VariantGenerator) GenerateVariants(ctx context.Context, pattern *FailurePattern, numVariants int) []*PromptVariant {
	currentPrompt := g.loadCurrentPrompt(pattern.AgentName)
	if currentPrompt == "" {
		log.Printf("[VariantGenerator] no current prompt found for %s", pattern.AgentName)
		return nil
	}

	if g.llmRegistry == nil || !g.llmRegistry.Available() {
		log.Printf("[VariantGenerator] no LLM provider available")
		return nil
	}

	return g.generateWithLLM(ctx, currentPrompt, pattern, numVariants)
}

func (g *VariantGenerator) loadCurrentPrompt(agentName string) string {
	if content, ok := g.registry.LoadPrompt(agentName); ok {
		return content
	}
	if g.prompts != nil {
		return g.prompts.Resolve(agentName)
	}
	return ""
}

type variantLLMEntry struct {
	Prompt               string `json:"prompt"`
	Rationale            string `json:"rationale"`
	AddressesHypotheses  []int  `json:"addresses_hypotheses"`
}

func (g *VariantGenerator) generateWithLLM(ctx context.Context, currentPrompt string, pattern *FailurePattern, numVariants int) []*PromptVariant {
	var hypothesesText strings.Builder
	for _, h := range pattern.RootCauseHypotheses {
		fmt.Fprintf(&hypothesesText, "- %s\n", h)
	}

	var samplesText strings.Builder
	limit := 3
	if limit > len(pattern.SampleQueries) {
		limit = len(pattern.SampleQueries)
	}
	for i, q := range pattern.SampleQueries[:limit] {
		fmt.Fprintf(&samplesText, "  %d. %s\n", i+1, q)
	}

	truncatedPrompt := currentPrompt
	if len(truncatedPrompt) > 2000 {
		truncatedPrompt = truncatedPrompt[:2000]
	}

	generationPrompt := fmt.Sprintf(`You are a prompt engineer. Your task is to improve a prompt that has a recurring issue.

## Current Prompt for %s:
---
%s
---

## Problem:
%s

Average score: %.2f on criterion: %s

## Sample failing queries:
%s

## Root cause hypotheses:
%s

## Task:
Generate %d improved versions of this prompt. Each version should:
1. Address at least one of the hypotheses above
2. Be a COMPLETE replacement prompt (not a diff)
3. Keep the same overall structure but improve the problematic areas
4. Include specific instructions or examples to fix the issue

Output as JSON:
[
  {
    "prompt": "Full improved prompt text here...",
    "rationale": "Brief explanation of what was changed and why",
    "addresses_hypotheses": [0, 1]
  },
  ...
]

Only output valid JSON, no other text.`, pattern.AgentName, truncatedPrompt, pattern.Description,
		pattern.AvgScore, pattern.CriterionID, samplesText.String(), hypothesesText.String(), numVariants)

	resp, err := g.llmRegistry.Complete(ctx, llm.CallKindSynthesize, llm.Request{
		Messages:  []llm.Message{{Role: "user", Content: generationPrompt}},
		MaxTokens: 4000,
	})
	if err != nil {
		log.Printf("[VariantGenerator] generation failed: %v", err)
		return nil
	}

	entries, ok := parseVariantEntries(resp.Text)
	if !ok {
		log.Printf("[VariantGenerator] could not parse JSON from LLM response")
		return nil
	}

	if len(entries) > numVariants {
		entries = entries[:numVariants]
	}

	var variants []*PromptVariant
	for _, e := range entries {
		g.variantCounter++
		variants = append(variants, &PromptVariant{
			ID:                  fmt.Sprintf("var:%s:%03d", pattern.AgentName, g.variantCounter),
			AgentName:           pattern.AgentName,
			PromptContent:       e.Prompt,
			Rationale:           e.Rationale,
			AddressesHypotheses: e.AddressesHypotheses,
			FailurePatternID:    pattern.ID,
		})
	}
	return variants
}

func parseVariantEntries(text string) ([]variantLLMEntry, bool) {
	match := jsonArrayPattern.FindString(text)
	if match == "" {
		return nil, false
	}
	var entries []variantLLMEntry
	if err := json.Unmarshal([]byte(match), &entries); err != nil {
		return nil, false
	}
	return entries, true
}

// GenerateDiff produces a unified diff between the current and proposed
// prompt text, for display in a review UI.
func (g *VariantGenerator) GenerateDiff(original, modified string) string {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(original),
		B:        difflib.SplitLines(modified),
		FromFile: "current",
		ToFile:   "proposed",
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return ""
	}
	return text
}

// ApplyVariant creates a new, not-yet-active PromptVersion from a variant.
func (g *VariantGenerator) ApplyVariant(ctx context.Context, variant *PromptVariant, testResults map[string]interface{}, performanceDelta float64) (string, error) {
	pv, err := g.registry.CreateVersion(ctx, variant.AgentName, variant.PromptContent, variant.Rationale, variant.FailurePatternID, testResults, performanceDelta)
	if err != nil {
		return "", err
	}
	return pv.ID, nil
}
