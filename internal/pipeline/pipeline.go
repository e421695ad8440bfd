package pipeline

import (
	"context"

	"unified-thinking/internal/config"
	"unified-thinking/internal/knowledge"
	"unified-thinking/internal/llm"
	"unified-thinking/internal/querycontext"
	"unified-thinking/internal/websearch"
)

// Pipeline runs a query through the five fixed stages in order. Each query
// gets its own *querycontext.Context; nothing here is shared across
// concurrent calls to Run except the read-mostly config and provider
// registries passed in at construction.
type Pipeline struct {
	intentClassifier *IntentClassifier
	searchPlanner    *SearchPlanner
	graphRetriever   *GraphRetriever
	webExpander      *WebExpander
	synthesizer      *Synthesizer
}

// Config bundles everything the pipeline's stages need to be constructed.
type Config struct {
	AppCtx      *config.AppContext
	KG          *knowledge.KnowledgeGraph
	LLMRegistry *llm.Registry
	Prompts     *llm.PromptResolver
	WebSearch   *websearch.Client
}

func New(cfg Config) *Pipeline {
	vectorEnabled := cfg.KG != nil && cfg.KG.VectorStore != nil
	return &Pipeline{
		intentClassifier: NewIntentClassifier(cfg.LLMRegistry, cfg.Prompts, cfg.AppCtx),
		searchPlanner:    NewSearchPlanner(cfg.AppCtx, vectorEnabled),
		graphRetriever:   NewGraphRetriever(cfg.KG),
		webExpander:      NewWebExpander(cfg.WebSearch, cfg.KG),
		synthesizer:      NewSynthesizer(cfg.LLMRegistry, cfg.Prompts),
	}
}

// Run executes the full chain for one user query and returns the populated
// context. It never returns an error itself: every stage degrades to a
// non-fatal result and records failures on qc.Error for the caller to
// inspect.
func (p *Pipeline) Run(ctx context.Context, query string, llmProvider, llmModel string) *querycontext.Context {
	qc := querycontext.NewContext(query)
	qc.RequestedLLMProvider = llmProvider
	qc.RequestedLLMModel = llmModel

	p.intentClassifier.Run(ctx, qc)
	p.searchPlanner.Run(qc)
	p.graphRetriever.Run(ctx, qc)
	p.webExpander.Run(ctx, qc)
	p.synthesizer.Run(ctx, qc)

	return qc
}
