package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

type evaluationItem struct {
	ID             string             `json:"id"`
	AgentName      string             `json:"agent_name"`
	Query          string             `json:"query"`
	Response       string             `json:"response"`
	Scores         map[string]float64 `json:"scores"`
	CompositeScore float64            `json:"composite_score"`
	Feedback       string             `json:"feedback"`
	CreatedAt      string             `json:"created_at"`
	ConversationID string             `json:"conversation_id,omitempty"`
}

// handleListEvaluations returns the most recent evaluations, optionally
// filtered by agent via the ?agent= query parameter, newest first.
func (s *Server) handleListEvaluations(c *gin.Context) {
	if s.deps.KG == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "knowledge graph unavailable"})
		return
	}

	agent := c.Query("agent")
	params := map[string]interface{}{}
	query := `
MATCH (e:Evaluation)
RETURN e.id AS id, e.agent_name AS agent_name, e.query AS query,
       e.response AS response, e.scores AS scores,
       e.composite_score AS composite_score, e.feedback AS feedback,
       toString(e.created_at) AS created_at, e.conversation_id AS conversation_id
ORDER BY e.created_at DESC
LIMIT 100
`
	if agent != "" {
		params["agent_name"] = agent
		query = `
MATCH (e:Evaluation)
WHERE e.agent_name = $agent_name
RETURN e.id AS id, e.agent_name AS agent_name, e.query AS query,
       e.response AS response, e.scores AS scores,
       e.composite_score AS composite_score, e.feedback AS feedback,
       toString(e.created_at) AS created_at, e.conversation_id AS conversation_id
ORDER BY e.created_at DESC
LIMIT 100
`
	}

	rows, err := s.deps.KG.RunCypher(c.Request.Context(), query, params)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "neo4j unavailable: " + err.Error()})
		return
	}

	evaluations := make([]evaluationItem, 0, len(rows))
	for _, row := range rows {
		var scores map[string]float64
		if scoresJSON, _ := row["scores"].(string); scoresJSON != "" {
			_ = json.Unmarshal([]byte(scoresJSON), &scores)
		}
		id, _ := row["id"].(string)
		agentName, _ := row["agent_name"].(string)
		q, _ := row["query"].(string)
		resp, _ := row["response"].(string)
		feedback, _ := row["feedback"].(string)
		createdAt, _ := row["created_at"].(string)
		conversationID, _ := row["conversation_id"].(string)

		evaluations = append(evaluations, evaluationItem{
			ID:             id,
			AgentName:      agentName,
			Query:          q,
			Response:       resp,
			Scores:         scores,
			CompositeScore: floatProp(row, "composite_score"),
			Feedback:       feedback,
			CreatedAt:      createdAt,
			ConversationID: conversationID,
		})
	}

	c.JSON(http.StatusOK, gin.H{"evaluations": evaluations})
}

// handleEvaluationCriteria returns the active rubric loaded from
// evaluation_criteria.yaml, the same criteria the pipeline's critic scores
// every agent response against.
func (s *Server) handleEvaluationCriteria(c *gin.Context) {
	if s.deps.AppCtx == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "configuration unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"settings": s.deps.AppCtx.Criteria.Settings,
		"criteria": s.deps.AppCtx.Criteria.Criteria,
	})
}

func floatProp(props map[string]interface{}, key string) float64 {
	if props == nil {
		return 0
	}
	switch v := props[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}
