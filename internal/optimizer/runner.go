package optimizer

import (
	"context"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"unified-thinking/internal/critic"
	"unified-thinking/internal/llm"
	"unified-thinking/internal/pipeline"
	"unified-thinking/internal/querycontext"
)

// TestRunner runs the fixed query suite in config/test_queries.yaml through
// the live pipeline, once against the baseline (active) prompt and once per
// candidate variant with the variant's text swapped in via
// llm.PromptResolver.WithOverride, then ranks variants by improvement over
// baseline.
type TestRunner struct {
	pipeline        *pipeline.Pipeline
	prompts         *llm.PromptResolver
	evaluator       *critic.Evaluator
	testQueriesPath string

	cache map[string][]TestQuery
}

func NewTestRunner(p *pipeline.Pipeline, prompts *llm.PromptResolver, evaluator *critic.Evaluator, testQueriesPath string) *TestRunner {
	return &TestRunner{pipeline: p, prompts: prompts, evaluator: evaluator, testQueriesPath: testQueriesPath}
}

type rawTestQuery struct {
	Query             string   `yaml:"query"`
	ExpectedIntent    string   `yaml:"expected_intent"`
	ExpectedEntities  []string `yaml:"expected_entities"`
	ExpectedTemplate  string   `yaml:"expected_template"`
	ExpectedRetrieval string   `yaml:"expected_retrieval"`
	MinConfidence     *float64 `yaml:"min_confidence"`
	MinSources        int      `yaml:"min_sources"`
	MinResults        int      `yaml:"min_results"`
	NoError           *bool    `yaml:"no_error"`
}

func (tr *TestRunner) loadTestQueries(agentName string) ([]TestQuery, error) {
	if tr.cache == nil {
		raw := map[string][]rawTestQuery{}
		data, err := os.ReadFile(tr.testQueriesPath)
		if err != nil {
			if os.IsNotExist(err) {
				tr.cache = map[string][]TestQuery{}
			} else {
				return nil, fmt.Errorf("read test queries: %w", err)
			}
		} else {
			if err := yaml.Unmarshal(data, &raw); err != nil {
				return nil, fmt.Errorf("parse test queries: %w", err)
			}
			tr.cache = map[string][]TestQuery{}
			for agent, queries := range raw {
				for _, q := range queries {
					tr.cache[agent] = append(tr.cache[agent], parseTestQuery(q))
				}
			}
		}
	}

	if agentName == "" {
		var all []TestQuery
		for _, queries := range tr.cache {
			all = append(all, queries...)
		}
		return all, nil
	}
	return tr.cache[agentName], nil
}

func parseTestQuery(raw rawTestQuery) TestQuery {
	minConfidence := 0.5
	if raw.MinConfidence != nil {
		minConfidence = *raw.MinConfidence
	}
	noError := true
	if raw.NoError != nil {
		noError = *raw.NoError
	}
	return TestQuery{
		Query:             raw.Query,
		ExpectedIntent:    raw.ExpectedIntent,
		ExpectedEntities:  raw.ExpectedEntities,
		ExpectedTemplate:  raw.ExpectedTemplate,
		ExpectedRetrieval: raw.ExpectedRetrieval,
		MinConfidence:     minConfidence,
		MinSources:        raw.MinSources,
		MinResults:        raw.MinResults,
		NoError:           noError,
	}
}

// RunTests tests every variant against the baseline prompt and returns
// results sorted by performance delta, best first.
func (tr *TestRunner) RunTests(ctx context.Context, agentName string, variants []*PromptVariant, testQueries []TestQuery) []*TestResult {
	if testQueries == nil {
		loaded, err := tr.loadTestQueries(agentName)
		if err != nil {
			return nil
		}
		testQueries = loaded
	}
	if len(testQueries) == 0 {
		return nil
	}

	baseline := tr.runTestSuite(ctx, testQueries, "", "")

	var results []*TestResult
	for _, variant := range variants {
		variantRun := tr.runTestSuite(ctx, testQueries, agentName, variant.PromptContent)

		delta := calculateDelta(baseline.avgScores, variantRun.avgScores)
		passed, failed := countPassFail(variantRun.perQuery)

		results = append(results, &TestResult{
			Variant:          *variant,
			Scores:           variantRun.avgScores,
			BaselineScores:   baseline.avgScores,
			PerQueryScores:   variantRun.perQuery,
			PerformanceDelta: delta,
			TestQueriesCount: len(testQueries),
			PassedCount:      passed,
			FailedCount:      failed,
		})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].PerformanceDelta > results[j].PerformanceDelta })
	return results
}

type testSuiteRun struct {
	avgScores map[string]float64
	perQuery  []map[string]interface{}
}

func (tr *TestRunner) runTestSuite(ctx context.Context, testQueries []TestQuery, overrideAgent, overridePrompt string) testSuiteRun {
	if overrideAgent != "" && overridePrompt != "" {
		restore := tr.prompts.WithOverride(overrideAgent, overridePrompt)
		defer restore()
	}

	allScores := map[string][]float64{}
	var perQuery []map[string]interface{}

	for _, tq := range testQueries {
		qc := tr.pipeline.Run(ctx, tq.Query, "", "")

		evaluations := tr.evaluator.EvaluatePipeline(ctx, qc, "")

		queryScores := map[string]float64{}
		for _, ev := range evaluations {
			for criterionID, score := range ev.Scores {
				allScores[criterionID] = append(allScores[criterionID], score)
				queryScores[criterionID] = score
			}
		}

		composite := 0.0
		if len(evaluations) > 0 {
			composite = evaluations[0].CompositeScore
		}

		perQuery = append(perQuery, map[string]interface{}{
			"query":               tq.Query,
			"scores":              queryScores,
			"composite_score":     composite,
			"assertions_passed":   checkAssertions(tq, qc),
			"intent":              string(qc.Intent.Intent),
			"entities":            qc.Intent.Entities,
			"confidence":          qc.Synthesis.Confidence,
		})
	}

	avgScores := map[string]float64{}
	for criterionID, scores := range allScores {
		var sum float64
		for _, s := range scores {
			sum += s
		}
		avgScores[criterionID] = sum / float64(len(scores))
	}

	return testSuiteRun{avgScores: avgScores, perQuery: perQuery}
}

// checkAssertions reports whether the pipeline's result satisfies the test
// query's expectations.
func checkAssertions(tq TestQuery, qc *querycontext.Context) bool {
	if tq.ExpectedIntent != "" && string(qc.Intent.Intent) != tq.ExpectedIntent {
		return false
	}

	for _, expected := range tq.ExpectedEntities {
		found := false
		for _, e := range qc.Intent.Entities {
			if e == expected {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if qc.Synthesis.Confidence < tq.MinConfidence {
		return false
	}

	if len(qc.Synthesis.Sources) < tq.MinSources {
		return false
	}

	if len(qc.Retrieval.GraphRecords) < tq.MinResults {
		return false
	}

	if tq.NoError && qc.Error != "" {
		return false
	}

	return true
}

// RunSingleTest runs one query through the pipeline and returns a detailed,
// UI-friendly result including per-stage evaluations.
func (tr *TestRunner) RunSingleTest(ctx context.Context, query string) map[string]interface{} {
	qc := tr.pipeline.Run(ctx, query, "", "")
	evaluations := tr.evaluator.EvaluatePipeline(ctx, qc, "")

	evalSummaries := make([]map[string]interface{}, 0, len(evaluations))
	for _, ev := range evaluations {
		evalSummaries = append(evalSummaries, map[string]interface{}{
			"agent":           ev.AgentName,
			"composite_score": ev.CompositeScore,
			"scores":          ev.Scores,
		})
	}

	return map[string]interface{}{
		"success":          qc.Error == "",
		"query":            query,
		"answer":           qc.Synthesis.Answer,
		"intent":           string(qc.Intent.Intent),
		"entities":         qc.Intent.Entities,
		"confidence":       qc.Synthesis.Confidence,
		"sources_count":    len(qc.Synthesis.Sources),
		"kg_results_count": len(qc.Retrieval.GraphRecords),
		"error":            qc.Error,
		"evaluations":      evalSummaries,
	}
}

func calculateDelta(baseline, variant map[string]float64) float64 {
	if len(baseline) == 0 {
		return 0
	}
	var deltas []float64
	for criterionID, baselineScore := range baseline {
		variantScore, ok := variant[criterionID]
		if !ok {
			variantScore = baselineScore
		}
		deltas = append(deltas, variantScore-baselineScore)
	}
	var sum float64
	for _, d := range deltas {
		sum += d
	}
	return sum / float64(len(deltas))
}

func countPassFail(perQuery []map[string]interface{}) (passed, failed int) {
	for _, pq := range perQuery {
		if ok, _ := pq["assertions_passed"].(bool); ok {
			passed++
		} else {
			failed++
		}
	}
	return
}
