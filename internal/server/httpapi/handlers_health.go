package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type healthResponse struct {
	Status          string `json:"status"`
	Neo4j           bool   `json:"neo4j"`
	ChromaDBEntries int    `json:"chromadb_entries"`
}

// handleHealth reports "ok" when Neo4j answers, "degraded" otherwise. A
// degraded graph still lets the process serve vector-only queries, so this
// never fails the request itself.
func (s *Server) handleHealth(c *gin.Context) {
	neo4jOK := false
	if s.deps.KG != nil {
		neo4jOK = s.deps.KG.Ping(c.Request.Context()) == nil
	}

	status := "degraded"
	if neo4jOK {
		status = "ok"
	}

	entries := 0
	if s.deps.KG != nil {
		entries = s.deps.KG.VectorEntryCount()
	}

	c.JSON(http.StatusOK, healthResponse{
		Status:          status,
		Neo4j:           neo4jOK,
		ChromaDBEntries: entries,
	})
}
