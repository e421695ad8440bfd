// Package optimizer detects recurring evaluation failures, generates
// candidate prompt rewrites to address them, tests those rewrites against a
// fixed query suite, and version-controls whichever prompt ends up active
// for each pipeline stage.
package optimizer

import "time"

// FailurePattern is a recurring low-score cluster detected across many
// Evaluation nodes for the same agent and criterion.
type FailurePattern struct {
	ID                  string
	AgentName           string
	CriterionID         string
	PatternType         string // "output_quality" | "reasoning" | "retrieval" | "classification"
	Description         string
	Frequency           int
	AvgScore            float64
	SampleQueries       []string
	SampleResponses     []string
	RootCauseHypotheses []string
	SuggestedFixes      []string
	Status              string // "detected" | "reviewing" | "addressing" | "resolved"
	CreatedAt           time.Time
	ResolvedAt          *time.Time
}

// PatternKey groups patterns by agent and criterion, mirroring the Python
// property of the same name.
func (f FailurePattern) PatternKey() string {
	return f.AgentName + ":" + f.CriterionID
}

// PromptVariant is one candidate rewrite of an agent's prompt, generated to
// address a specific FailurePattern.
type PromptVariant struct {
	ID                   string
	AgentName            string
	PromptContent        string
	Rationale            string
	AddressesHypotheses  []int
	FailurePatternID     string
	CreatedAt            time.Time
}

// PromptVersion is a versioned prompt stored in the registry. Only one
// version per agent has IsActive set at a time.
type PromptVersion struct {
	ID                string
	AgentName         string
	Version           string // semver, e.g. "1.2.0"
	PromptContent     string
	PromptHash        string
	PromptPath        string
	IsActive          bool
	UserApproved      bool
	ParentVersion     string
	FailurePatternID  string
	PerformanceDelta  float64
	TestResultsJSON   string
	Rationale         string
	CreatedAt         time.Time
	ApprovedAt        *time.Time
	ApprovedBy        string
}

// TestResult is the outcome of running one PromptVariant against a test
// suite, compared against the current baseline prompt.
type TestResult struct {
	Variant          PromptVariant
	Scores           map[string]float64
	BaselineScores   map[string]float64
	PerQueryScores   []map[string]interface{}
	PerformanceDelta float64
	TestQueriesCount int
	PassedCount      int
	FailedCount      int
	CreatedAt        time.Time
}

// PassRate is the fraction of test queries whose assertions passed.
func (r TestResult) PassRate() float64 {
	if r.TestQueriesCount == 0 {
		return 0
	}
	return float64(r.PassedCount) / float64(r.TestQueriesCount)
}

// TestQuery is one fixed query and its expected properties, loaded from
// config/test_queries.yaml. Parsing (runner.go's parseTestQuery) applies the
// same defaults as the original's dict.get calls.
type TestQuery struct {
	Query             string
	ExpectedIntent    string
	ExpectedEntities  []string
	ExpectedTemplate  string
	ExpectedRetrieval string
	MinConfidence     float64
	MinSources        int
	MinResults        int
	NoError           bool
}
