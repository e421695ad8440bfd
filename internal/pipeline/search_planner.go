package pipeline

import (
	"fmt"
	"log"
	"strings"

	"unified-thinking/internal/config"
	"unified-thinking/internal/querycontext"
)

// SearchPlanner selects a parameterized Cypher template and retrieval mode
// for a classified query.
type SearchPlanner struct {
	appCtx        *config.AppContext
	vectorEnabled bool
}

func NewSearchPlanner(appCtx *config.AppContext, vectorEnabled bool) *SearchPlanner {
	return &SearchPlanner{appCtx: appCtx, vectorEnabled: vectorEnabled}
}

// Run builds qc.Plan from qc.Intent. It never raises; an unresolved
// template surfaces as PlanResult.PlanError for the retriever to see.
func (s *SearchPlanner) Run(qc *querycontext.Context) {
	intent := qc.Intent.Intent
	entities := qc.Intent.Entities

	log.Printf("[Search Planner] Planning for intent: %s, entities: %v", intent, entities)

	if intent == querycontext.IntentOutOfScope {
		qc.Plan = querycontext.PlanResult{
			Ran:           true,
			RetrievalMode: querycontext.RetrievalNone,
			Message:       "Query is out of scope for this knowledge graph.",
		}
		return
	}

	if intent == querycontext.IntentExpansion {
		vectorQuery := qc.UserQuery
		if vectorQuery == "" {
			vectorQuery = strings.Join(entities, " ")
		}
		qc.Plan = querycontext.PlanResult{
			Ran:           true,
			RetrievalMode: querycontext.RetrievalVectorFirst,
			VectorQuery:   vectorQuery,
			Message:       "Expansion query - will use vector + web search.",
		}
		return
	}

	cypherCfg := s.appCtx.CypherTemplates

	entityTypes := make([]string, len(entities))
	for i, e := range entities {
		entityTypes[i] = cypherCfg.DetectEntityType(e)
	}

	tpl, ok := cypherCfg.SelectTemplate(string(intent), entityTypes)
	if !ok {
		qc.Plan = querycontext.PlanResult{
			Ran:           true,
			RetrievalMode: querycontext.RetrievalGraphOnly,
			PlanError:     fmt.Sprintf("no template found for intent=%s, entity_types=%v", intent, entityTypes),
		}
		s.maybeAddVectorSearch(qc, intent, entities)
		return
	}

	params := make(map[string]interface{}, len(tpl.Params))
	for i, paramName := range tpl.Params {
		if i < len(entities) {
			params[paramName] = entities[i]
		}
	}

	qc.Plan = querycontext.PlanResult{
		Ran:            true,
		RetrievalMode:  querycontext.RetrievalGraphOnly,
		TemplateKey:    tpl.Name,
		CypherTemplate: tpl.Cypher,
		CypherParams:   params,
	}

	s.maybeAddVectorSearch(qc, intent, entities)
}

// maybeAddVectorSearch decides whether to augment the planned strategy with
// a vector query, per the rules in search_planner.py generalized to the
// closed intent set.
func (s *SearchPlanner) maybeAddVectorSearch(qc *querycontext.Context, intent querycontext.Intent, entities []string) {
	if !s.vectorEnabled {
		return
	}
	if qc.Plan.RetrievalMode == querycontext.RetrievalNone {
		return
	}

	vectorQuery := qc.UserQuery
	if vectorQuery == "" {
		vectorQuery = strings.Join(entities, " ")
	}

	switch {
	case qc.Plan.CypherTemplate == "":
		qc.Plan.RetrievalMode = querycontext.RetrievalVectorFirst
		qc.Plan.VectorQuery = vectorQuery
		log.Printf("[Search Planner] Strategy: vector_first (no Cypher template)")
	case intent == querycontext.IntentLookup || intent == querycontext.IntentExploration || intent == querycontext.IntentPathTrace:
		qc.Plan.RetrievalMode = querycontext.RetrievalHybrid
		qc.Plan.VectorQuery = vectorQuery
		log.Printf("[Search Planner] Strategy: hybrid (graph + vector)")
	}
}
