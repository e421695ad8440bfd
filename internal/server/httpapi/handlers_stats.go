package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type statsResponse struct {
	TotalNodes           int            `json:"total_nodes"`
	TotalRelationships   int            `json:"total_relationships"`
	NodesByLabel         map[string]int `json:"nodes_by_label"`
	RelationshipsByType  map[string]int `json:"relationships_by_type"`
}

// handleStats reports node and relationship counts broken down by label
// and relationship type. Neo4j unavailability is a hard failure here,
// matching the original's 503 behavior: unlike /query and /health there is
// nothing degraded-but-useful to return.
func (s *Server) handleStats(c *gin.Context) {
	if s.deps.KG == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "knowledge graph unavailable"})
		return
	}
	ctx := c.Request.Context()

	totalRows, err := s.deps.KG.RunCypher(ctx, `MATCH (n) RETURN count(n) AS total`, nil)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "neo4j unavailable: " + err.Error()})
		return
	}
	totalNodes := intProp(firstRow(totalRows), "total")

	relRows, err := s.deps.KG.RunCypher(ctx, `MATCH ()-[r]->() RETURN count(r) AS total`, nil)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "neo4j unavailable: " + err.Error()})
		return
	}
	totalRels := intProp(firstRow(relRows), "total")

	labelRows, err := s.deps.KG.RunCypher(ctx, `MATCH (n) RETURN labels(n)[0] AS label, count(*) AS total`, nil)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "neo4j unavailable: " + err.Error()})
		return
	}
	byLabel := make(map[string]int, len(labelRows))
	for _, row := range labelRows {
		if label, ok := row["label"].(string); ok {
			byLabel[label] = intProp(row, "total")
		}
	}

	typeRows, err := s.deps.KG.RunCypher(ctx, `MATCH ()-[r]->() RETURN type(r) AS rel_type, count(*) AS total`, nil)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "neo4j unavailable: " + err.Error()})
		return
	}
	byType := make(map[string]int, len(typeRows))
	for _, row := range typeRows {
		if relType, ok := row["rel_type"].(string); ok {
			byType[relType] = intProp(row, "total")
		}
	}

	c.JSON(http.StatusOK, statsResponse{
		TotalNodes:          totalNodes,
		TotalRelationships:  totalRels,
		NodesByLabel:        byLabel,
		RelationshipsByType: byType,
	})
}

func firstRow(rows []map[string]interface{}) map[string]interface{} {
	if len(rows) == 0 {
		return nil
	}
	return rows[0]
}

func intProp(props map[string]interface{}, key string) int {
	if props == nil {
		return 0
	}
	switch v := props[key].(type) {
	case int64:
		return int(v)
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}
