package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log"

	"unified-thinking/internal/knowledge"
	"unified-thinking/internal/querycontext"
	"unified-thinking/internal/websearch"
)

// WebExpander runs a Tavily search when the graph and vector store came up
// empty, or when the intent is expansion regardless of what came back.
// Successful hits are best-effort embedded into the vector store under a
// stable, URL-derived ID so repeated expansions of the same page upsert
// rather than duplicate.
type WebExpander struct {
	client *websearch.Client
	kg     *knowledge.KnowledgeGraph
}

func NewWebExpander(client *websearch.Client, kg *knowledge.KnowledgeGraph) *WebExpander {
	return &WebExpander{client: client, kg: kg}
}

// Run populates qc.Web. It never returns an error: a disabled or failing
// web search degrades to an empty, non-fatal result.
func (s *WebExpander) Run(ctx context.Context, qc *querycontext.Context) {
	if !s.shouldRun(qc) {
		qc.Web = querycontext.WebResult{Ran: true, Skipped: true}
		return
	}

	if s.client == nil || !s.client.Available() {
		log.Printf("[Web Expander] no search provider configured, skipping")
		qc.Web = querycontext.WebResult{Ran: true, Skipped: true, Query: qc.UserQuery}
		return
	}

	tavilyHits, err := s.client.Search(ctx, qc.UserQuery, 5)
	if err != nil {
		log.Printf("[Web Expander] search error: %v", err)
		qc.SetError("web_expander", err)
		qc.Web = querycontext.WebResult{Ran: true, Query: qc.UserQuery}
		return
	}

	hits := make([]querycontext.WebHit, 0, len(tavilyHits))
	for _, h := range tavilyHits {
		hits = append(hits, querycontext.WebHit{Title: h.Title, URL: h.URL, Content: h.Content, Score: h.Score})
		s.upsertVector(ctx, h)
	}

	qc.Web = querycontext.WebResult{Ran: true, Query: qc.UserQuery, Hits: hits}
	log.Printf("[Web Expander] found %d results", len(hits))
}

func (s *WebExpander) shouldRun(qc *querycontext.Context) bool {
	if qc.Intent.Intent == querycontext.IntentExpansion {
		return true
	}
	return !qc.HasEvidence()
}

// upsertVector embeds a web hit under a stable fingerprint of its URL, so
// re-running an expansion for the same page updates rather than duplicates
// the stored document. Failures here are logged and swallowed: web results
// still reach the synthesizer even if the store write fails.
func (s *WebExpander) upsertVector(ctx context.Context, hit websearch.Hit) {
	if s.kg == nil || s.kg.VectorStore == nil || hit.URL == "" {
		return
	}
	id := "web:" + fingerprint(hit.URL)
	metadata := map[string]string{
		"source_type": string(querycontext.VectorSourceWebSearch),
		"source_url":  hit.URL,
		"title":       hit.Title,
	}
	if err := s.kg.VectorStore.AddDocument(ctx, "entities", id, hit.Content, metadata); err != nil {
		log.Printf("[Web Expander] vector upsert failed for %s: %v", hit.URL, err)
	}
}

func fingerprint(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])[:16]
}
