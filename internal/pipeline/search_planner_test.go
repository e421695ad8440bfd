package pipeline

import (
	"testing"

	"unified-thinking/internal/config"
	"unified-thinking/internal/querycontext"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plannerAppContext() *config.AppContext {
	return &config.AppContext{
		CypherTemplates: &config.CypherTemplatesConfig{
			EntityPatterns: map[string]string{
				"react": "Method",
			},
			DefaultTemplates: map[string]string{
				"lookup": "lookup_method",
			},
			Templates: []config.CypherTemplate{
				{Name: "lookup_method", Intent: "lookup", EntityTypes: []string{"Method"}, Params: []string{"entity"}, Cypher: "MATCH (m:Method {name:$entity}) RETURN m"},
				{Name: "compare_methods", Intent: "comparison", EntityTypes: []string{"Method", "Method"}, Params: []string{"entity_a", "entity_b"}, Cypher: "MATCH (a),(b) RETURN a,b"},
			},
		},
	}
}

func TestSearchPlanner_OutOfScope(t *testing.T) {
	p := NewSearchPlanner(plannerAppContext(), true)
	qc := querycontext.NewContext("tell me a joke")
	qc.Intent = querycontext.IntentResult{Ran: true, Intent: querycontext.IntentOutOfScope}

	p.Run(qc)

	assert.Equal(t, querycontext.RetrievalNone, qc.Plan.RetrievalMode)
}

func TestSearchPlanner_Expansion(t *testing.T) {
	p := NewSearchPlanner(plannerAppContext(), true)
	qc := querycontext.NewContext("latest agent frameworks in 2026")
	qc.Intent = querycontext.IntentResult{Ran: true, Intent: querycontext.IntentExpansion}

	p.Run(qc)

	assert.Equal(t, querycontext.RetrievalVectorFirst, qc.Plan.RetrievalMode)
	assert.Equal(t, qc.UserQuery, qc.Plan.VectorQuery)
}

func TestSearchPlanner_LookupWithTemplateBecomesHybrid(t *testing.T) {
	p := NewSearchPlanner(plannerAppContext(), true)
	qc := querycontext.NewContext("What is ReAct?")
	qc.Intent = querycontext.IntentResult{Ran: true, Intent: querycontext.IntentLookup, Entities: []string{"react"}}

	p.Run(qc)

	require.Equal(t, "lookup_method", qc.Plan.TemplateKey)
	assert.Equal(t, querycontext.RetrievalHybrid, qc.Plan.RetrievalMode)
	assert.Equal(t, "react", qc.Plan.CypherParams["entity"])
}

func TestSearchPlanner_NoTemplateFallsBackToVectorFirst(t *testing.T) {
	p := NewSearchPlanner(plannerAppContext(), true)
	qc := querycontext.NewContext("How many methods address Planning?")
	qc.Intent = querycontext.IntentResult{Ran: true, Intent: querycontext.IntentAggregation, Entities: []string{"planning"}}

	p.Run(qc)

	assert.NotEmpty(t, qc.Plan.PlanError)
	assert.Equal(t, querycontext.RetrievalVectorFirst, qc.Plan.RetrievalMode)
}

func TestSearchPlanner_VectorDisabledKeepsGraphOnly(t *testing.T) {
	p := NewSearchPlanner(plannerAppContext(), false)
	qc := querycontext.NewContext("What is ReAct?")
	qc.Intent = querycontext.IntentResult{Ran: true, Intent: querycontext.IntentLookup, Entities: []string{"react"}}

	p.Run(qc)

	assert.Equal(t, querycontext.RetrievalGraphOnly, qc.Plan.RetrievalMode)
}
