// Package httpapi exposes the query pipeline, the knowledge graph, the
// evaluation critic, and the prompt optimizer over HTTP using gin, mirroring
// the route surface of the FastAPI service this system replaces.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"unified-thinking/internal/config"
	"unified-thinking/internal/critic"
	"unified-thinking/internal/knowledge"
	"unified-thinking/internal/llm"
	"unified-thinking/internal/optimizer"
	"unified-thinking/internal/pipeline"
)

// Deps bundles every component a route handler needs. It is held on Server
// and passed to the handlers that are methods on it, rather than threaded
// through package-level globals.
type Deps struct {
	AppCtx      *config.AppContext
	KG          *knowledge.KnowledgeGraph
	Pipeline    *pipeline.Pipeline
	Evaluator   *critic.Evaluator
	Analyzer    *optimizer.FailureAnalyzer
	Generator   *optimizer.VariantGenerator
	Runner      *optimizer.TestRunner
	Prompts     *optimizer.Registry
	LLMRegistry *llm.Registry
}

// Server wraps a gin.Engine and an http.Server so the caller can start and
// gracefully stop it the same way the stdio transport it replaces was run
// to completion and torn down.
type Server struct {
	engine *gin.Engine
	http   *http.Server
	deps   *Deps
}

// NewServer builds the gin engine, registers every route, and wraps it in
// an http.Server bound to addr. It does not start listening.
func NewServer(addr string, deps *Deps) *Server {
	if deps.AppCtx != nil && deps.AppCtx.Config.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.Default()

	s := &Server{
		engine: engine,
		deps:   deps,
		http: &http.Server{
			Addr:              addr,
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.engine.POST("/query", s.handleQuery)
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/stats", s.handleStats)

	s.engine.GET("/graph/principles", s.handlePrinciples)
	s.engine.POST("/graph/nodes/propose", s.handleProposeNode)
	s.engine.POST("/graph/nodes/approve", s.handleApproveNode)

	s.engine.GET("/evaluations", s.handleListEvaluations)
	s.engine.GET("/evaluation-criteria", s.handleEvaluationCriteria)

	s.engine.GET("/optimizer/patterns", s.handleOptimizerPatterns)
	s.engine.POST("/optimizer/analyze", s.handleOptimizerAnalyze)
	s.engine.POST("/optimizer/patterns/:id/approve", s.handleOptimizerApprovePattern)
	s.engine.POST("/optimizer/test", s.handleOptimizerTest)
	s.engine.POST("/optimizer/versions/:id/activate", s.handleOptimizerActivateVersion)
	s.engine.POST("/optimizer/rollback", s.handleOptimizerRollback)
	s.engine.GET("/optimizer/versions", s.handleOptimizerVersions)
}

// Start blocks serving HTTP until the listener errors or Shutdown is called.
func (s *Server) Start() error {
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully drains in-flight requests before closing the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
