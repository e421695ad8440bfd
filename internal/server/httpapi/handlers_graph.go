package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"unified-thinking/internal/llm"
)

type principleItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MethodCount int    `json:"method_count"`
	ImplCount   int    `json:"impl_count"`
}

// handlePrinciples lists the eleven top-level principles with their
// downstream method and implementation counts, walking the two hops the
// domain graph fixes at ADDRESSES and IMPLEMENTS.
func (s *Server) handlePrinciples(c *gin.Context) {
	if s.deps.KG == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "knowledge graph unavailable"})
		return
	}

	rows, err := s.deps.KG.RunCypher(c.Request.Context(), `
MATCH (p:Principle)
OPTIONAL MATCH (p)<-[:ADDRESSES]-(m:Method)
OPTIONAL MATCH (m)<-[:IMPLEMENTS]-(i:Implementation)
RETURN p.id AS id, p.name AS name, p.description AS description,
       count(DISTINCT m) AS method_count,
       count(DISTINCT i) AS impl_count
ORDER BY p.name
`, nil)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "neo4j unavailable: " + err.Error()})
		return
	}

	principles := make([]principleItem, 0, len(rows))
	for _, row := range rows {
		id, _ := row["id"].(string)
		name, _ := row["name"].(string)
		desc, _ := row["description"].(string)
		principles = append(principles, principleItem{
			ID:          id,
			Name:        name,
			Description: desc,
			MethodCount: intProp(row, "method_count"),
			ImplCount:   intProp(row, "impl_count"),
		})
	}

	c.JSON(http.StatusOK, gin.H{"principles": principles})
}

// addressedPrinciple is one principle a proposed Method addresses, and
// implementedMethod is one method a proposed Implementation implements -
// both carried over verbatim from the web-extraction schema.
type addressedPrinciple struct {
	Principle string  `json:"principle"`
	Role      string  `json:"role"`
	Weight    float64 `json:"weight"`
}

type implementedMethod struct {
	Method string `json:"method"`
	Level  string `json:"level"`
}

// proposedNode is a candidate node extracted from web content by the LLM,
// staged for human approval before it is written to the graph. Only the
// fields relevant to node_type are populated by the extraction call; the
// rest are left zero.
type proposedNode struct {
	NodeType    string `json:"node_type"` // "Method" | "Implementation" | "Document"
	NodeID      string `json:"node_id"`
	Name        string `json:"name"`
	Description string `json:"description"`

	MethodFamily string                `json:"method_family,omitempty"`
	MethodType   string                `json:"method_type,omitempty"`
	Granularity  string                `json:"granularity,omitempty"`
	Addresses    []addressedPrinciple  `json:"addresses,omitempty"`

	ImplType     string              `json:"impl_type,omitempty"`
	Maintainer   string              `json:"maintainer,omitempty"`
	SourceRepo   string              `json:"source_repo,omitempty"`
	Implements   []implementedMethod `json:"implements,omitempty"`

	DocType  string   `json:"doc_type,omitempty"`
	Authors  []string `json:"authors,omitempty"`
	Year     int      `json:"year,omitempty"`
	Venue    string   `json:"venue,omitempty"`
	Proposes []string `json:"proposes,omitempty"`

	SourceURL        string  `json:"source_url"`
	Confidence       float64 `json:"confidence"`
	ExistsInKG       bool    `json:"exists_in_kg"`
	ExistingDescription string `json:"existing_description,omitempty"`
}

const extractionPrompt = `You are extracting a candidate knowledge graph node from web content about agentic AI systems.

Classify the content as one of: Method, Implementation, Document.

Respond with a single JSON object matching this shape (omit fields that do not apply):
{
  "node_type": "Method|Implementation|Document",
  "node_id": "slug-case-identifier",
  "name": "display name",
  "description": "one or two sentence summary",
  "method_family": "...", "method_type": "...", "granularity": "...",
  "addresses": [{"principle": "principle-id", "role": "...", "weight": 0.0}],
  "impl_type": "...", "maintainer": "...", "source_repo": "...",
  "implements": [{"method": "method-id", "level": "..."}],
  "doc_type": "...", "authors": ["..."], "year": 0, "venue": "...", "proposes": ["..."],
  "confidence": 0.7
}

Content:
%s`

type proposeRequest struct {
	Title   string `json:"title" binding:"required"`
	URL     string `json:"url" binding:"required"`
	Content string `json:"content" binding:"required"`
}

type proposeResponse struct {
	ProposalID string       `json:"proposal_id"`
	Node       proposedNode `json:"node"`
}

// pendingProposals holds nodes staged by /graph/nodes/propose until a
// caller confirms or discards them via /graph/nodes/approve. It is
// in-process state, acceptable because node proposals are a single-operator
// curation workflow rather than a durable queue.
type pendingProposalStore struct {
	mu    sync.Mutex
	byID  map[string]proposedNode
}

var pendingProposals = &pendingProposalStore{byID: make(map[string]proposedNode)}

func (s *pendingProposalStore) put(node proposedNode) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := fmt.Sprintf("prop:%d", time.Now().UnixNano())
	s.byID[id] = node
	return id
}

func (s *pendingProposalStore) take(id string) (proposedNode, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	node, ok := s.byID[id]
	if ok {
		delete(s.byID, id)
	}
	return node, ok
}

// handleProposeNode runs web content through the LLM classifier and stages
// the resulting candidate node for approval; it never writes to the graph.
func (s *Server) handleProposeNode(c *gin.Context) {
	var req proposeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if s.deps.LLMRegistry == nil || !s.deps.LLMRegistry.Available() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no LLM provider available for extraction"})
		return
	}

	resp, err := s.deps.LLMRegistry.Complete(c.Request.Context(), llm.CallKindSynthesize, llm.Request{
		System:    "Respond with JSON only, no surrounding prose.",
		Messages:  []llm.Message{{Role: "user", Content: fmt.Sprintf(extractionPrompt, req.Content)}},
		MaxTokens: 800,
	})
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "extraction failed: " + err.Error()})
		return
	}

	node, ok := parseProposedNode(resp.Text)
	if !ok {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "could not parse extracted node from LLM response"})
		return
	}
	node.SourceURL = req.URL
	if node.Confidence == 0 {
		node.Confidence = 0.7
	}

	if s.deps.KG != nil {
		node.ExistsInKG, node.ExistingDescription = s.checkExisting(c.Request.Context(), node.NodeID)
	}

	id := pendingProposals.put(node)
	c.JSON(http.StatusOK, proposeResponse{ProposalID: id, Node: node})
}

func (s *Server) checkExisting(ctx context.Context, nodeID string) (bool, string) {
	if nodeID == "" {
		return false, ""
	}
	rows, err := s.deps.KG.RunCypher(ctx, `
MATCH (n {id: $id}) RETURN n.description AS description LIMIT 1
`, map[string]interface{}{"id": nodeID})
	if err != nil || len(rows) == 0 {
		return false, ""
	}
	desc, _ := rows[0]["description"].(string)
	return true, desc
}

func parseProposedNode(text string) (proposedNode, bool) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < 0 || end <= start {
		return proposedNode{}, false
	}
	var node proposedNode
	if err := json.Unmarshal([]byte(text[start:end+1]), &node); err != nil {
		return proposedNode{}, false
	}
	return node, true
}

type approveRequest struct {
	ProposalID string `json:"proposal_id" binding:"required"`
}

type approveResponse struct {
	Success bool   `json:"success"`
	NodeID  string `json:"node_id"`
	Message string `json:"message"`
}

// handleApproveNode writes a previously-staged proposal to the graph with a
// raw MERGE statement shaped to the proposal's node_type, rather than
// routing it through the generic entity schema, since the proposal's
// labels and properties are domain-specific (Method/Implementation/
// Document) and do not map onto that schema's closed type set.
func (s *Server) handleApproveNode(c *gin.Context) {
	var req approveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	node, ok := pendingProposals.take(req.ProposalID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "proposal not found or already resolved"})
		return
	}

	if s.deps.KG == nil {
		c.JSON(http.StatusServiceUnavailable, approveResponse{Success: false, Message: "knowledge graph unavailable"})
		return
	}

	ctx := c.Request.Context()
	if err := s.writeApprovedNode(ctx, node); err != nil {
		c.JSON(http.StatusInternalServerError, approveResponse{Success: false, Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, approveResponse{
		Success: true,
		NodeID:  node.NodeID,
		Message: fmt.Sprintf("%s %q written to graph", node.NodeType, node.NodeID),
	})
}

func (s *Server) writeApprovedNode(ctx context.Context, node proposedNode) error {
	switch node.NodeType {
	case "Method":
		if _, err := s.deps.KG.RunCypherWrite(ctx, `
MERGE (m:Method {id: $id})
SET m.name = $name, m.description = $description, m.method_family = $family,
    m.method_type = $method_type, m.granularity = $granularity,
    m.source_url = $source_url, m.confidence = $confidence
`, map[string]interface{}{
			"id": node.NodeID, "name": node.Name, "description": node.Description,
			"family": node.MethodFamily, "method_type": node.MethodType,
			"granularity": node.Granularity, "source_url": node.SourceURL,
			"confidence": node.Confidence,
		}); err != nil {
			return err
		}
		for _, addr := range node.Addresses {
			if _, err := s.deps.KG.RunCypherWrite(ctx, `
MATCH (m:Method {id: $method_id})
MATCH (p:Principle {id: $principle_id})
MERGE (m)-[r:ADDRESSES]->(p)
SET r.role = $role, r.weight = $weight
`, map[string]interface{}{
				"method_id": node.NodeID, "principle_id": addr.Principle,
				"role": addr.Role, "weight": addr.Weight,
			}); err != nil {
				return fmt.Errorf("link principle %s: %w", addr.Principle, err)
			}
		}

	case "Implementation":
		if _, err := s.deps.KG.RunCypherWrite(ctx, `
MERGE (i:Implementation {id: $id})
SET i.name = $name, i.description = $description, i.impl_type = $impl_type,
    i.maintainer = $maintainer, i.source_repo = $source_repo,
    i.source_url = $source_url, i.confidence = $confidence
`, map[string]interface{}{
			"id": node.NodeID, "name": node.Name, "description": node.Description,
			"impl_type": node.ImplType, "maintainer": node.Maintainer,
			"source_repo": node.SourceRepo, "source_url": node.SourceURL,
			"confidence": node.Confidence,
		}); err != nil {
			return err
		}
		for _, impl := range node.Implements {
			if _, err := s.deps.KG.RunCypherWrite(ctx, `
MATCH (i:Implementation {id: $impl_id})
MATCH (m:Method {id: $method_id})
MERGE (i)-[r:IMPLEMENTS]->(m)
SET r.level = $level
`, map[string]interface{}{
				"impl_id": node.NodeID, "method_id": impl.Method, "level": impl.Level,
			}); err != nil {
				return fmt.Errorf("link method %s: %w", impl.Method, err)
			}
		}

	case "Document":
		if _, err := s.deps.KG.RunCypherWrite(ctx, `
MERGE (d:Document {id: $id})
SET d.name = $name, d.description = $description, d.doc_type = $doc_type,
    d.authors = $authors, d.year = $year, d.venue = $venue,
    d.source_url = $source_url, d.confidence = $confidence
`, map[string]interface{}{
			"id": node.NodeID, "name": node.Name, "description": node.Description,
			"doc_type": node.DocType, "authors": node.Authors, "year": node.Year,
			"venue": node.Venue, "source_url": node.SourceURL, "confidence": node.Confidence,
		}); err != nil {
			return err
		}
		for _, proposed := range node.Proposes {
			if _, err := s.deps.KG.RunCypherWrite(ctx, `
MATCH (d:Document {id: $doc_id})
MATCH (m:Method {id: $method_id})
MERGE (d)-[:PROPOSES]->(m)
`, map[string]interface{}{"doc_id": node.NodeID, "method_id": proposed}); err != nil {
				return fmt.Errorf("link proposed method %s: %w", proposed, err)
			}
		}

	default:
		return fmt.Errorf("unknown node_type %q", node.NodeType)
	}

	return nil
}
