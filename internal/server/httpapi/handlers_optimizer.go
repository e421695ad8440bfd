package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"unified-thinking/internal/optimizer"
)

// handleOptimizerPatterns lists detected failure patterns, optionally
// filtered by ?status= and ?agent=.
func (s *Server) handleOptimizerPatterns(c *gin.Context) {
	status := c.Query("status")
	agent := c.Query("agent")

	patterns, err := s.deps.Analyzer.GetPatterns(c.Request.Context(), status, agent)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"patterns": patterns})
}

type analyzeRequest struct {
	AgentName string `json:"agent_name"`
}

// handleOptimizerAnalyze scans recent evaluations for recurring failures
// and persists any new patterns it finds.
func (s *Server) handleOptimizerAnalyze(c *gin.Context) {
	var req analyzeRequest
	_ = c.ShouldBindJSON(&req)

	patterns, err := s.deps.Analyzer.Analyze(c.Request.Context(), req.AgentName)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"patterns": patterns})
}

// handleOptimizerApprovePattern is Gate 1: a human marks a detected pattern
// as worth addressing, which unblocks variant generation for it.
func (s *Server) handleOptimizerApprovePattern(c *gin.Context) {
	patternID := c.Param("id")
	if err := s.deps.Analyzer.UpdatePatternStatus(c.Request.Context(), patternID, "reviewing"); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pattern_id": patternID, "status": "reviewing"})
}

type optimizerTestRequest struct {
	Pattern     *optimizer.FailurePattern `json:"pattern" binding:"required"`
	NumVariants int                       `json:"num_variants"`
}

// handleOptimizerTest generates candidate prompt rewrites for an approved
// pattern and runs each one against the fixed query suite, scored against
// the current baseline.
func (s *Server) handleOptimizerTest(c *gin.Context) {
	var req optimizerTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	numVariants := req.NumVariants
	if numVariants <= 0 {
		numVariants = 3
	}

	variants := s.deps.Generator.GenerateVariants(c.Request.Context(), req.Pattern, numVariants)
	if len(variants) == 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "no variants could be generated"})
		return
	}

	results := s.deps.Runner.RunTests(c.Request.Context(), req.Pattern.AgentName, variants, nil)
	c.JSON(http.StatusOK, gin.H{"results": results})
}

type activateVersionRequest struct {
	ApprovedBy string `json:"approved_by"`
}

// handleOptimizerActivateVersion is Gate 2: a human promotes one tested
// variant to be the agent's active prompt.
func (s *Server) handleOptimizerActivateVersion(c *gin.Context) {
	versionID := c.Param("id")
	var req activateVersionRequest
	_ = c.ShouldBindJSON(&req)

	if err := s.deps.Prompts.ActivateVersion(c.Request.Context(), versionID, req.ApprovedBy); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"version_id": versionID, "active": true})
}

type rollbackRequest struct {
	AgentName string `json:"agent_name" binding:"required"`
	ToVersion string `json:"to_version"`
}

// handleOptimizerRollback reactivates a prior version for an agent,
// defaulting to the immediately preceding one when to_version is omitted.
func (s *Server) handleOptimizerRollback(c *gin.Context) {
	var req rollbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.deps.Prompts.Rollback(c.Request.Context(), req.AgentName, req.ToVersion); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"agent_name": req.AgentName, "rolled_back": true})
}

// handleOptimizerVersions lists version history for ?agent=, newest first.
func (s *Server) handleOptimizerVersions(c *gin.Context) {
	agent := c.Query("agent")
	if agent == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "agent query parameter is required"})
		return
	}

	limit := 20
	versions, err := s.deps.Prompts.GetVersionHistory(c.Request.Context(), agent, limit)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"versions": versions})
}
