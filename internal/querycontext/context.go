// Package querycontext defines the shared state threaded through the
// retrieval pipeline: one value per incoming query, mutated by each stage
// in turn and read by the critic evaluator afterward.
package querycontext

// RetrievalMode selects how the search planner instructs the graph
// retriever to fetch evidence for a query.
type RetrievalMode string

const (
	RetrievalNone        RetrievalMode = "none"
	RetrievalVectorFirst RetrievalMode = "vector_first"
	RetrievalHybrid      RetrievalMode = "hybrid"
	RetrievalGraphOnly   RetrievalMode = "graph_only"
)

// Intent is one of the closed set of query intents the classifier assigns.
type Intent string

const (
	IntentLookup        Intent = "lookup"
	IntentExploration   Intent = "exploration"
	IntentPathTrace     Intent = "path_trace"
	IntentComparison    Intent = "comparison"
	IntentAggregation   Intent = "aggregation"
	IntentCoverageCheck Intent = "coverage_check"
	IntentDefinition    Intent = "definition"
	IntentExpansion     Intent = "expansion"
	IntentOutOfScope    Intent = "out_of_scope"
)

// GraphRecord is one row of a Cypher query result, already converted out of
// the live driver's Node/Relationship types into a plain JSON-safe shape.
type GraphRecord map[string]interface{}

// VectorSourceType classifies where a vector store entry originally came
// from, so a web-search result upgraded into a KG node can be told apart
// from one that never was.
type VectorSourceType string

const (
	VectorSourceKGNode    VectorSourceType = "kg_node"
	VectorSourceWebSearch VectorSourceType = "web_search"
	VectorSourcePaper     VectorSourceType = "paper"
	VectorSourceUserNote  VectorSourceType = "user_note"
)

// VectorHit is one result from a vector similarity search. Score is the
// similarity the vector store reported (the reranker's relevance score when
// reranking ran); it is not rescaled.
type VectorHit struct {
	SourceType  VectorSourceType `json:"source_type"`
	SourceID    string           `json:"source_id"`
	SourceURL   string           `json:"source_url,omitempty"`
	NodeID      string           `json:"node_id,omitempty"`
	NodeLabel   string           `json:"node_label,omitempty"`
	Title       string           `json:"title"`
	Text        string           `json:"text"`
	Score       float32          `json:"score"`
	CollectedAt string           `json:"collected_at,omitempty"`
	Collector   string           `json:"collector,omitempty"`
}

// WebHit is one result returned by the web search provider.
type WebHit struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// IntentResult is the Intent Classifier's stage output.
type IntentResult struct {
	Ran      bool
	Err      error
	Intent   Intent
	Entities []string
}

// PlanResult is the Search Planner's stage output.
type PlanResult struct {
	Ran           bool
	Err           error
	RetrievalMode RetrievalMode
	TemplateKey   string
	CypherTemplate string
	CypherParams  map[string]interface{}
	VectorQuery   string
	Message       string
	PlanError     string
}

// RetrievalResult is the Graph Retriever's stage output.
type RetrievalResult struct {
	Ran            bool
	Err            error
	GraphRecords   []GraphRecord
	VectorResults  []VectorHit
	CypherExecuted string
}

// WebResult is the Conditional Web Expander's stage output.
type WebResult struct {
	Ran     bool
	Err     error
	Skipped bool
	Query   string
	Hits    []WebHit
}

// Source is one citation attached to a synthesized answer: a KG node
// (type = its first label) or a web result (type = "Web").
type Source struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SynthesisResult is the Synthesizer's stage output.
type SynthesisResult struct {
	Ran        bool
	Err        error
	Answer     string
	Sources    []Source
	Confidence float64
}

// Context is the query-scoped state passed between pipeline stages. A new
// Context is created per incoming request; nothing on it is shared across
// concurrent queries.
type Context struct {
	UserQuery string

	// RequestedLLMProvider and RequestedLLMModel let a caller override the
	// configured default provider/model for this one query, mirroring the
	// per-request override the HTTP layer exposes.
	RequestedLLMProvider string
	RequestedLLMModel    string

	Intent     IntentResult
	Plan       PlanResult
	Retrieval  RetrievalResult
	Web        WebResult
	Synthesis  SynthesisResult

	// Error holds the first stage error encountered. Stages after the
	// failing one still run (mirroring the original graph's behavior of
	// falling through to a "not found" answer); the synthesizer checks Error
	// and, when there is no evidence, answers with the error instead.
	Error string
}

// NewContext starts a fresh query context for the given user query.
func NewContext(query string) *Context {
	return &Context{UserQuery: query}
}

// HasEvidence reports whether the retrieval or web stage produced anything
// the synthesizer can work with.
func (c *Context) HasEvidence() bool {
	return len(c.Retrieval.GraphRecords) > 0 ||
		len(c.Retrieval.VectorResults) > 0 ||
		len(c.Web.Hits) > 0
}

// SetError records the first stage failure without aborting the pipeline.
func (c *Context) SetError(stage string, err error) {
	if c.Error == "" && err != nil {
		c.Error = stage + ": " + err.Error()
	}
}
