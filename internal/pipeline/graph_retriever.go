package pipeline

import (
	"context"
	"log"

	"unified-thinking/internal/knowledge"
	"unified-thinking/internal/querycontext"
)

// GraphRetriever executes the plan the search planner produced: the bound
// Cypher template when there is one, a vector similarity search when the
// mode calls for it, or both.
type GraphRetriever struct {
	kg *knowledge.KnowledgeGraph
}

func NewGraphRetriever(kg *knowledge.KnowledgeGraph) *GraphRetriever {
	return &GraphRetriever{kg: kg}
}

// Run populates qc.Retrieval from qc.Plan. Failures on one leg (graph or
// vector) don't abort the other; both are attempted and whatever succeeds
// is kept.
func (s *GraphRetriever) Run(ctx context.Context, qc *querycontext.Context) {
	plan := qc.Plan
	result := querycontext.RetrievalResult{Ran: true}

	if plan.RetrievalMode == querycontext.RetrievalNone {
		qc.Retrieval = result
		return
	}

	if plan.CypherTemplate != "" && plan.RetrievalMode != querycontext.RetrievalVectorFirst {
		records, err := s.kg.RunCypher(ctx, plan.CypherTemplate, plan.CypherParams)
		if err != nil {
			log.Printf("[Graph Retriever] cypher error: %v", err)
			qc.SetError("graph_retriever", err)
		} else {
			result.GraphRecords = toGraphRecords(records)
			result.CypherExecuted = plan.CypherTemplate
		}
	}

	needsVector := plan.RetrievalMode == querycontext.RetrievalVectorFirst || plan.RetrievalMode == querycontext.RetrievalHybrid
	if needsVector && plan.VectorQuery != "" && s.kg != nil {
		hits, err := s.searchVector(ctx, plan.VectorQuery)
		if err != nil {
			log.Printf("[Graph Retriever] vector search error: %v", err)
			qc.SetError("graph_retriever", err)
		} else {
			result.VectorResults = hits
		}
	}

	// Vector hits are not enriched with graph neighbors here: if neither
	// the template nor the vector search returned anything, there's simply
	// no evidence for this query in the graph.
	qc.Retrieval = result
	log.Printf("[Graph Retriever] graph_records=%d vector_results=%d", len(result.GraphRecords), len(result.VectorResults))
}

func (s *GraphRetriever) searchVector(ctx context.Context, query string) ([]querycontext.VectorHit, error) {
	results, err := s.kg.SearchSemantic(ctx, query, 5, 0)
	if err != nil {
		return nil, err
	}
	hits := make([]querycontext.VectorHit, 0, len(results))
	for _, r := range results {
		hits = append(hits, querycontext.VectorHit{
			SourceType: querycontext.VectorSourceKGNode,
			SourceID:   r.ID,
			Text:       r.Content,
			Score:      r.Similarity,
		})
	}
	return hits, nil
}

func toGraphRecords(records []map[string]interface{}) []querycontext.GraphRecord {
	out := make([]querycontext.GraphRecord, len(records))
	for i, r := range records {
		out[i] = querycontext.GraphRecord(r)
	}
	return out
}
