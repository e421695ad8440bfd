package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"unified-thinking/internal/querycontext"
)

// queryRequest mirrors the original QueryRequest schema: a free-text query
// plus optional per-call provider/model overrides.
type queryRequest struct {
	Query       string `json:"query" binding:"required"`
	LLMProvider string `json:"llm_provider"`
	LLMModel    string `json:"llm_model"`
}

// queryResponse mirrors the original QueryResponse schema field for field,
// including the fields the web search expansion stage adds.
type queryResponse struct {
	Answer         string                    `json:"answer"`
	Intent         string                    `json:"intent"`
	Entities       []string                  `json:"entities"`
	Confidence     float64                   `json:"confidence"`
	Sources        []querycontext.Source     `json:"sources"`
	VectorResults  []querycontext.VectorHit  `json:"vector_results"`
	WebResults     []querycontext.WebHit     `json:"web_results"`
	WebQuery       string                    `json:"web_query"`
	CypherExecuted string                    `json:"cypher_executed"`
	KGResults      []querycontext.GraphRecord `json:"kg_results"`
	Error          string                    `json:"error,omitempty"`
}

func (s *Server) handleQuery(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	qc := s.deps.Pipeline.Run(c.Request.Context(), req.Query, req.LLMProvider, req.LLMModel)

	if s.deps.Evaluator != nil {
		s.deps.Evaluator.EvaluatePipeline(c.Request.Context(), qc, "")
	}

	c.JSON(http.StatusOK, queryResponse{
		Answer:         qc.Synthesis.Answer,
		Intent:         string(qc.Intent.Intent),
		Entities:       qc.Intent.Entities,
		Confidence:     qc.Synthesis.Confidence,
		Sources:        qc.Synthesis.Sources,
		VectorResults:  qc.Retrieval.VectorResults,
		WebResults:     qc.Web.Hits,
		WebQuery:       qc.Web.Query,
		CypherExecuted: qc.Retrieval.CypherExecuted,
		KGResults:      qc.Retrieval.GraphRecords,
		Error:          qc.Error,
	})
}
