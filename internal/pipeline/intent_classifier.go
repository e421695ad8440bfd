package pipeline

import (
	"bytes"
	"context"
	"log"
	"regexp"
	"strings"
	"text/template"

	"unified-thinking/internal/config"
	"unified-thinking/internal/llm"
	"unified-thinking/internal/querycontext"
)

const defaultIntentClassifierPrompt = `You are an intent classifier for a knowledge graph about Agentic AI.

The knowledge graph contains:
- Principles (core capabilities): Perception, Memory, Planning, Reasoning, Tool Use, Reflection, Grounding, Learning, Multi-Agent, Guardrails, Tracing
- Methods (research techniques): ReAct, Chain-of-Thought, RAG, etc.
- Implementations (frameworks/services): LangChain, CrewAI, AutoGen, etc.
- Standards: MCP, Agent-to-Agent, OpenTelemetry

Classify the user query into ONE of these intents:

1. lookup - single concept lookup ("What is ReAct?")
2. exploration - browsing related concepts without a single fixed target ("What's connected to RAG?")
3. path_trace - relationship or implementation path between concepts ("Which frameworks implement ReAct?")
4. comparison - compare multiple concepts ("CrewAI vs AutoGen")
5. aggregation - counts or statistics ("How many methods address Planning?")
6. coverage_check - gaps in the corpus ("Which methods have no paper?")
7. definition - asking for a definition specifically ("Define Constitutional AI")
8. expansion - likely not in the graph, needs the web ("Latest agent frameworks in 2025")
9. out_of_scope - unrelated to Agentic AI entirely

Additionally, extract key entities mentioned in the query.

User Query: {{.Query}}

Respond in this exact format:
INTENT: <lookup|exploration|path_trace|comparison|aggregation|coverage_check|definition|expansion|out_of_scope>
ENTITIES: <comma-separated list of entities>
REASONING: <brief explanation>
`

func init() {
	llm.RegisterDefaultPrompt(AgentIntentClassifier, defaultIntentClassifierPrompt)
}

var (
	intentLinePattern   = regexp.MustCompile(`(?i)INTENT:\s*(lookup|exploration|path_trace|comparison|aggregation|coverage_check|definition|expansion|out_of_scope)`)
	entitiesLinePattern = regexp.MustCompile(`(?i)ENTITIES:\s*(.+)`)
)

// IntentClassifier maps a raw query to an intent tag and a set of
// normalized entity mentions.
type IntentClassifier struct {
	llmRegistry *llm.Registry
	prompts     *llm.PromptResolver
	appCtx      *config.AppContext
}

func NewIntentClassifier(llmRegistry *llm.Registry, prompts *llm.PromptResolver, appCtx *config.AppContext) *IntentClassifier {
	return &IntentClassifier{llmRegistry: llmRegistry, prompts: prompts, appCtx: appCtx}
}

// Run classifies qc.UserQuery and populates qc.Intent. It never returns an
// error: any failure degrades to the heuristic fallback.
func (s *IntentClassifier) Run(ctx context.Context, qc *querycontext.Context) {
	intentsCfg := s.appCtx.CurrentIntents()

	if s.llmRegistry == nil || !s.llmRegistry.Available() {
		s.fallback(qc, intentsCfg)
		return
	}

	promptText, err := s.renderPrompt(qc.UserQuery)
	if err != nil {
		log.Printf("[Intent Classifier] template error: %v", err)
		s.fallback(qc, intentsCfg)
		return
	}

	resp, err := s.llmRegistry.Complete(ctx, llm.CallKindClassify, llm.Request{
		Messages: []llm.Message{{Role: "user", Content: promptText}},
	})
	if err != nil {
		log.Printf("[Intent Classifier] provider error: %v", err)
		s.fallback(qc, intentsCfg)
		return
	}

	intent := extractIntent(resp.Text)
	entities := extractEntities(resp.Text, intentsCfg)

	qc.Intent = querycontext.IntentResult{
		Ran:      true,
		Intent:   querycontext.Intent(intent),
		Entities: entities,
	}
	log.Printf("[Intent Classifier] Intent: %s, Entities: %v", intent, entities)
}

func (s *IntentClassifier) renderPrompt(query string) (string, error) {
	tpl, err := template.New(AgentIntentClassifier).Parse(s.prompts.Resolve(AgentIntentClassifier))
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, struct{ Query string }{Query: query}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *IntentClassifier) fallback(qc *querycontext.Context, intentsCfg *config.IntentsConfig) {
	intent := intentsCfg.ClassifyByKeyword(qc.UserQuery)
	if intent == "" {
		intent = "lookup"
	}

	entities := normalizeEntities(intentsCfg.ExtractKnownEntities(qc.UserQuery), intentsCfg)

	qc.Intent = querycontext.IntentResult{
		Ran:      true,
		Intent:   querycontext.Intent(intent),
		Entities: entities,
	}
	log.Printf("[Intent Classifier] Using fallback - Intent: %s, Entities: %v", intent, entities)
}

func extractIntent(content string) string {
	match := intentLinePattern.FindStringSubmatch(content)
	if match == nil {
		return "lookup"
	}
	tag := strings.ToLower(match[1])
	if !isValidIntent(tag) {
		return "lookup"
	}
	return tag
}

func extractEntities(content string, intentsCfg *config.IntentsConfig) []string {
	match := entitiesLinePattern.FindStringSubmatch(content)
	if match == nil {
		return nil
	}
	raw := strings.Split(match[1], ",")
	mentions := make([]string, 0, len(raw))
	for _, m := range raw {
		trimmed := strings.TrimSpace(m)
		if trimmed != "" {
			mentions = append(mentions, trimmed)
		}
	}
	return normalizeEntities(mentions, intentsCfg)
}

func normalizeEntities(mentions []string, intentsCfg *config.IntentsConfig) []string {
	normalized := make([]string, len(mentions))
	for i, m := range mentions {
		normalized[i] = intentsCfg.NormalizeEntity(m)
	}
	return normalized
}
