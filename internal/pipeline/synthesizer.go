package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"text/template"

	"unified-thinking/internal/knowledge"
	"unified-thinking/internal/llm"
	"unified-thinking/internal/querycontext"
)

const defaultSynthesizerPrompt = `You are a helpful assistant that answers questions about Agentic AI using a knowledge graph.

The knowledge graph contains:
- Principles (core capabilities): Perception, Memory, Planning, Reasoning, Tool Use, Reflection, Grounding, Learning, Multi-Agent, Guardrails, Tracing
- Methods (research techniques like ReAct, Chain-of-Thought, RAG)
- Implementations (frameworks like LangChain, CrewAI, AutoGen)
- Standards (like MCP, Agent-to-Agent, OpenTelemetry)

User Question: {{.Query}}

Query Intent: {{.Intent}}

Knowledge Graph Results:
{{.GraphResults}}

Vector Search Results:
{{.VectorResults}}

Web Search Results:
{{.WebResults}}

Based on the results above, provide a clear, concise answer to the user's question.

Guidelines:
1. If results are empty or insufficient, say you couldn't find information about that in the knowledge graph.
2. Structure your answer clearly, using lists when appropriate.
3. Mention specific support levels when discussing implementations (e.g. "core support", "first-class").
4. If comparing entities, highlight both similarities and differences.
5. Be factual: only use information from the results above.

Answer:`

func init() {
	llm.RegisterDefaultPrompt(AgentSynthesizer, defaultSynthesizerPrompt)
}

// Synthesizer turns retrieved evidence into a natural-language answer and a
// confidence score.
type Synthesizer struct {
	llmRegistry *llm.Registry
	prompts     *llm.PromptResolver
}

func NewSynthesizer(llmRegistry *llm.Registry, prompts *llm.PromptResolver) *Synthesizer {
	return &Synthesizer{llmRegistry: llmRegistry, prompts: prompts}
}

// Run populates qc.Synthesis from the accumulated stage results.
func (s *Synthesizer) Run(ctx context.Context, qc *querycontext.Context) {
	hasEvidence := qc.HasEvidence()

	if qc.Error != "" && !hasEvidence {
		qc.Synthesis = querycontext.SynthesisResult{
			Ran:        true,
			Answer:     fmt.Sprintf("I encountered an error: %s", qc.Error),
			Confidence: 0,
		}
		return
	}

	if qc.Intent.Intent == querycontext.IntentOutOfScope {
		qc.Synthesis = querycontext.SynthesisResult{
			Ran:        true,
			Answer:     "That question is outside the scope of this knowledge graph about Agentic AI concepts.",
			Confidence: 0,
		}
		return
	}

	if !hasEvidence {
		qc.Synthesis = querycontext.SynthesisResult{
			Ran:        true,
			Answer:     "I couldn't find information about that in the knowledge graph or web search.",
			Confidence: 0.1,
		}
		return
	}

	sources := extractSources(qc.Retrieval.GraphRecords, qc.Web.Hits)
	confidence := computeConfidence(qc)

	if s.llmRegistry == nil || !s.llmRegistry.Available() {
		qc.Synthesis = querycontext.SynthesisResult{
			Ran:        true,
			Answer:     simpleFormat(qc.Retrieval.GraphRecords, qc.Retrieval.VectorResults),
			Sources:    sources,
			Confidence: confidence,
		}
		return
	}

	promptText, err := s.renderPrompt(qc)
	if err != nil {
		log.Printf("[Synthesizer] template error: %v", err)
		qc.Synthesis = querycontext.SynthesisResult{
			Ran:        true,
			Answer:     simpleFormat(qc.Retrieval.GraphRecords, qc.Retrieval.VectorResults),
			Sources:    sources,
			Confidence: confidence,
		}
		return
	}

	resp, err := s.llmRegistry.Complete(ctx, llm.CallKindSynthesize, llm.Request{
		Messages: []llm.Message{{Role: "user", Content: promptText}},
	})
	if err != nil {
		log.Printf("[Synthesizer] provider error: %v", err)
		qc.Synthesis = querycontext.SynthesisResult{
			Ran:        true,
			Answer:     simpleFormat(qc.Retrieval.GraphRecords, qc.Retrieval.VectorResults),
			Sources:    sources,
			Confidence: confidence,
		}
		return
	}

	qc.Synthesis = querycontext.SynthesisResult{
		Ran:        true,
		Answer:     strings.TrimSpace(resp.Text),
		Sources:    sources,
		Confidence: confidence,
	}
	log.Printf("[Synthesizer] generated answer with confidence %.2f", confidence)
}

func (s *Synthesizer) renderPrompt(qc *querycontext.Context) (string, error) {
	tpl, err := template.New(AgentSynthesizer).Parse(s.prompts.Resolve(AgentSynthesizer))
	if err != nil {
		return "", err
	}
	data := struct {
		Query         string
		Intent        string
		GraphResults  string
		VectorResults string
		WebResults    string
	}{
		Query:         qc.UserQuery,
		Intent:        string(qc.Intent.Intent),
		GraphResults:  formatGraphRecords(qc.Retrieval.GraphRecords),
		VectorResults: formatVectorHits(qc.Retrieval.VectorResults),
		WebResults:    formatWebHits(qc.Web.Hits),
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func formatGraphRecords(records []querycontext.GraphRecord) string {
	if len(records) == 0 {
		return "No results found."
	}
	var b strings.Builder
	for i, record := range records {
		fmt.Fprintf(&b, "Result %d:\n", i+1)
		for key, value := range record {
			switch v := value.(type) {
			case knowledge.SerializedNode:
				fmt.Fprintf(&b, "  %s (%s): %v\n", key, strings.Join(v.Labels, ", "), v.Properties)
			case knowledge.SerializedRelationship:
				fmt.Fprintf(&b, "  %s [%s]: %v\n", key, v.Type, v.Properties)
			default:
				fmt.Fprintf(&b, "  %s: %v\n", key, v)
			}
		}
	}
	return b.String()
}

func formatVectorHits(hits []querycontext.VectorHit) string {
	if len(hits) == 0 {
		return "No vector matches."
	}
	var b strings.Builder
	for _, h := range hits {
		fmt.Fprintf(&b, "- (%.2f) %s\n", h.Score, h.Text)
	}
	return b.String()
}

func formatWebHits(hits []querycontext.WebHit) string {
	if len(hits) == 0 {
		return "No web results."
	}
	var b strings.Builder
	for _, h := range hits {
		fmt.Fprintf(&b, "- %s (%s): %s\n", h.Title, h.URL, h.Content)
	}
	return b.String()
}

func simpleFormat(records []querycontext.GraphRecord, vectorHits []querycontext.VectorHit) string {
	var lines []string
	for _, record := range records {
		for _, value := range record {
			if node, ok := value.(knowledge.SerializedNode); ok {
				name := fmt.Sprintf("%v", node.Properties["name"])
				if name == "" || name == "<nil>" {
					name = node.ElementID
				}
				if desc, ok := node.Properties["description"].(string); ok && desc != "" {
					lines = append(lines, fmt.Sprintf("- **%s**: %s", name, desc))
				} else {
					lines = append(lines, fmt.Sprintf("- **%s**", name))
				}
			}
		}
	}
	if len(lines) == 0 {
		for _, h := range vectorHits {
			lines = append(lines, fmt.Sprintf("- %s", h.Text))
		}
	}
	if len(lines) == 0 {
		return "Found results, but couldn't format them properly."
	}
	if len(lines) > 10 {
		lines = lines[:10]
	}
	return "Here's what I found:\n\n" + strings.Join(lines, "\n")
}

func extractSources(records []querycontext.GraphRecord, webHits []querycontext.WebHit) []querycontext.Source {
	var sources []querycontext.Source
	seen := map[string]bool{}
	for _, record := range records {
		for _, value := range record {
			node, ok := value.(knowledge.SerializedNode)
			if !ok {
				continue
			}
			id, _ := node.Properties["id"].(string)
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			nodeType := "Unknown"
			if len(node.Labels) > 0 {
				nodeType = node.Labels[0]
			}
			name, _ := node.Properties["name"].(string)
			if name == "" {
				name = id
			}
			sources = append(sources, querycontext.Source{Type: nodeType, ID: id, Name: name})
		}
	}
	for _, h := range webHits {
		if h.URL == "" || seen[h.URL] {
			continue
		}
		seen[h.URL] = true
		sources = append(sources, querycontext.Source{Type: "Web", ID: h.URL, Name: h.Title})
	}
	return sources
}

// computeConfidence combines four weighted dimensions into a single score
// in [0, 1], rounded to two decimal places: how many requested entities
// were actually matched by a source, whether the evidence gathered fits the
// intent's expected retrieval mode, how many distinct results came back,
// and the mean vector similarity of any vector hits.
func computeConfidence(qc *querycontext.Context) float64 {
	entityMatch := entityMatchScore(qc)
	intentFulfillment := intentFulfillmentScore(qc)
	completeness := completenessScore(qc)
	vectorSimilarity := vectorSimilarityScore(qc.Retrieval.VectorResults)

	score := 0.3*entityMatch + 0.3*intentFulfillment + 0.2*completeness + 0.2*vectorSimilarity
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return math.Round(score*100) / 100
}

func entityMatchScore(qc *querycontext.Context) float64 {
	entities := qc.Intent.Entities
	if len(entities) == 0 {
		return 1.0
	}
	matched := 0
	for _, e := range entities {
		if entityIsCovered(e, qc.Retrieval.GraphRecords, qc.Retrieval.VectorResults) {
			matched++
		}
	}
	return float64(matched) / float64(len(entities))
}

func entityIsCovered(entity string, records []querycontext.GraphRecord, hits []querycontext.VectorHit) bool {
	lower := strings.ToLower(entity)
	for _, record := range records {
		for _, value := range record {
			node, ok := value.(knowledge.SerializedNode)
			if !ok {
				continue
			}
			if id, ok := node.Properties["id"].(string); ok && strings.Contains(strings.ToLower(id), lower) {
				return true
			}
			if name, ok := node.Properties["name"].(string); ok && strings.Contains(strings.ToLower(name), lower) {
				return true
			}
		}
	}
	for _, h := range hits {
		if strings.Contains(strings.ToLower(h.Text), lower) {
			return true
		}
	}
	return false
}

func intentFulfillmentScore(qc *querycontext.Context) float64 {
	switch qc.Intent.Intent {
	case querycontext.IntentExpansion:
		if len(qc.Web.Hits) > 0 || len(qc.Retrieval.VectorResults) > 0 {
			return 1.0
		}
		return 0.3
	case querycontext.IntentOutOfScope:
		return 1.0
	default:
		if qc.Plan.PlanError != "" {
			return 0.3
		}
		if len(qc.Retrieval.GraphRecords) > 0 {
			return 1.0
		}
		if len(qc.Retrieval.VectorResults) > 0 || len(qc.Web.Hits) > 0 {
			return 0.6
		}
		return 0.2
	}
}

func completenessScore(qc *querycontext.Context) float64 {
	total := len(qc.Retrieval.GraphRecords) + len(qc.Retrieval.VectorResults) + len(qc.Web.Hits)
	if total >= 5 {
		return 1.0
	}
	return float64(total) / 5.0
}

func vectorSimilarityScore(hits []querycontext.VectorHit) float64 {
	if len(hits) == 0 {
		return 0
	}
	var sum float64
	for _, h := range hits {
		sum += float64(h.Score)
	}
	return sum / float64(len(hits))
}
