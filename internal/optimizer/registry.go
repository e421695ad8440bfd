package optimizer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"unified-thinking/internal/knowledge"
)

// Registry manages versioned prompts per agent: one active PromptVersion
// node per agent in the graph, plus a current.txt file under promptsDir
// that PromptResolver.Resolve ultimately falls through to via LoadPrompt.
// It implements llm.PromptSource.
type Registry struct {
	kg         *knowledge.KnowledgeGraph
	promptsDir string
}

func NewRegistry(kg *knowledge.KnowledgeGraph, promptsDir string) *Registry {
	return &Registry{kg: kg, promptsDir: promptsDir}
}

// LoadPrompt implements llm.PromptSource: it reads the agent's current.txt
// file, which ActivateVersion keeps in sync with the active PromptVersion.
func (r *Registry) LoadPrompt(agentName string) (string, bool) {
	path := filepath.Join(r.promptsDir, agentName, "current.txt")
	content, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return string(content), true
}

func hashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])[:16]
}

var semverPattern = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)`)

func parseVersion(version string) (major, minor, patch int) {
	match := semverPattern.FindStringSubmatch(version)
	if match == nil {
		return 1, 0, 0
	}
	major, _ = strconv.Atoi(match[1])
	minor, _ = strconv.Atoi(match[2])
	patch, _ = strconv.Atoi(match[3])
	return
}

// Bump is the kind of semver increment a new version represents.
type Bump string

const (
	BumpMajor Bump = "major"
	BumpMinor Bump = "minor"
	BumpPatch Bump = "patch"
)

func incrementVersion(version string, bump Bump) string {
	major, minor, patch := parseVersion(version)
	switch bump {
	case BumpMajor:
		return fmt.Sprintf("%d.0.0", major+1)
	case BumpMinor:
		return fmt.Sprintf("%d.%d.0", major, minor+1)
	default:
		return fmt.Sprintf("%d.%d.%d", major, minor, patch+1)
	}
}

// GetCurrentVersion returns the active PromptVersion for an agent, or nil
// if none has been activated yet.
func (r *Registry) GetCurrentVersion(ctx context.Context, agentName string) (*PromptVersion, error) {
	if r.kg == nil {
		return nil, nil
	}

	rows, err := r.kg.RunCypher(ctx, `
MATCH (pv:PromptVersion {agent_name: $agent_name, is_active: true})
RETURN pv
`, map[string]interface{}{"agent_name": agentName})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	return promptVersionFromRow(rows[0])
}

// GetVersionHistory returns the most recent versions for an agent, newest
// first.
func (r *Registry) GetVersionHistory(ctx context.Context, agentName string, limit int) ([]*PromptVersion, error) {
	if r.kg == nil {
		return nil, nil
	}

	rows, err := r.kg.RunCypher(ctx, `
MATCH (pv:PromptVersion {agent_name: $agent_name})
RETURN pv
ORDER BY pv.created_at DESC
LIMIT $limit
`, map[string]interface{}{"agent_name": agentName, "limit": limit})
	if err != nil {
		return nil, err
	}

	var out []*PromptVersion
	for _, row := range rows {
		pv, err := promptVersionFromRow(row)
		if err != nil || pv == nil {
			continue
		}
		out = append(out, pv)
	}
	return out, nil
}

func promptVersionFromRow(row map[string]interface{}) (*PromptVersion, error) {
	node, ok := row["pv"].(knowledge.SerializedNode)
	if !ok {
		return nil, fmt.Errorf("unexpected row shape for pv")
	}
	props := node.Properties
	return &PromptVersion{
		ID:               stringProp(props, "id"),
		AgentName:        stringProp(props, "agent_name"),
		Version:          stringProp(props, "version"),
		PromptContent:    stringProp(props, "prompt_content"),
		PromptHash:       stringProp(props, "prompt_hash"),
		PromptPath:       stringProp(props, "prompt_path"),
		IsActive:         boolProp(props, "is_active"),
		UserApproved:     boolProp(props, "user_approved"),
		ParentVersion:    stringProp(props, "parent_version"),
		FailurePatternID: stringProp(props, "failure_pattern_id"),
		PerformanceDelta: floatProp(props, "performance_delta"),
		Rationale:        stringProp(props, "rationale"),
	}, nil
}

func boolProp(props map[string]interface{}, key string) bool {
	v, _ := props[key].(bool)
	return v
}

func floatProp(props map[string]interface{}, key string) float64 {
	v, _ := props[key].(float64)
	return v
}

// CreateVersion writes a new, not-yet-active PromptVersion for an agent:
// its prompt text to disk, and a PromptVersion node in the graph linked to
// the FailurePattern it addresses (if any).
func (r *Registry) CreateVersion(ctx context.Context, agentName, content, rationale, failurePatternID string, testResults map[string]interface{}, performanceDelta float64) (*PromptVersion, error) {
	current, err := r.GetCurrentVersion(ctx, agentName)
	if err != nil {
		return nil, err
	}

	newVersion := "1.0.0"
	parentVersion := ""
	if current != nil {
		newVersion = incrementVersion(current.Version, BumpPatch)
		parentVersion = current.ID
	}

	versionID := fmt.Sprintf("pv:%s@%s", agentName, newVersion)
	promptHash := hashContent(content)

	agentDir := filepath.Join(r.promptsDir, agentName)
	if err := os.MkdirAll(agentDir, 0o755); err != nil {
		return nil, fmt.Errorf("create prompt dir: %w", err)
	}
	promptPath := filepath.Join(agentDir, fmt.Sprintf("v%s.txt", newVersion))
	if err := os.WriteFile(promptPath, []byte(content), 0o644); err != nil {
		return nil, fmt.Errorf("write prompt file: %w", err)
	}

	pv := &PromptVersion{
		ID:               versionID,
		AgentName:        agentName,
		Version:          newVersion,
		PromptContent:    content,
		PromptHash:       promptHash,
		PromptPath:       promptPath,
		IsActive:         false,
		UserApproved:     false,
		ParentVersion:    parentVersion,
		FailurePatternID: failurePatternID,
		PerformanceDelta: performanceDelta,
		Rationale:        rationale,
		CreatedAt:        time.Now(),
	}

	if r.kg == nil {
		return pv, nil
	}

	var testResultsJSON interface{}
	if testResults != nil {
		b, err := json.Marshal(testResults)
		if err == nil {
			testResultsJSON = string(b)
		}
	}

	_, err = r.kg.RunCypherWrite(ctx, `
MERGE (pv:PromptVersion {id: $id})
SET pv.agent_name = $agent_name,
    pv.version = $version,
    pv.prompt_content = $prompt_content,
    pv.prompt_hash = $prompt_hash,
    pv.prompt_path = $prompt_path,
    pv.is_active = false,
    pv.user_approved = false,
    pv.parent_version = $parent_version,
    pv.failure_pattern_id = $failure_pattern_id,
    pv.performance_delta = $performance_delta,
    pv.test_results = $test_results,
    pv.rationale = $rationale,
    pv.created_at = datetime()
`, map[string]interface{}{
		"id":                 pv.ID,
		"agent_name":         pv.AgentName,
		"version":            pv.Version,
		"prompt_content":     pv.PromptContent,
		"prompt_hash":        pv.PromptHash,
		"prompt_path":        pv.PromptPath,
		"parent_version":     nullableString(pv.ParentVersion),
		"failure_pattern_id": nullableString(pv.FailurePatternID),
		"performance_delta":  pv.PerformanceDelta,
		"test_results":       testResultsJSON,
		"rationale":          pv.Rationale,
	})
	if err != nil {
		return nil, fmt.Errorf("save prompt version: %w", err)
	}

	if failurePatternID != "" {
		_, err = r.kg.RunCypherWrite(ctx, `
MATCH (pv:PromptVersion {id: $pv_id})
MATCH (fp:FailurePattern {id: $fp_id})
MERGE (pv)-[:ADDRESSES]->(fp)
`, map[string]interface{}{"pv_id": pv.ID, "fp_id": failurePatternID})
		if err != nil {
			return nil, fmt.Errorf("link failure pattern: %w", err)
		}
	}

	return pv, nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// ActivateVersion deactivates the agent's current active version and
// activates versionID, then refreshes current.txt so PromptResolver picks
// up the change on its next Resolve call.
func (r *Registry) ActivateVersion(ctx context.Context, versionID, approvedBy string) error {
	if r.kg == nil {
		return fmt.Errorf("no knowledge graph configured")
	}

	rows, err := r.kg.RunCypher(ctx, `
MATCH (pv:PromptVersion {id: $id})
RETURN pv.agent_name AS agent_name
`, map[string]interface{}{"id": versionID})
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("prompt version not found: %s", versionID)
	}
	agentName, _ := rows[0]["agent_name"].(string)

	if _, err := r.kg.RunCypherWrite(ctx, `
MATCH (pv:PromptVersion {agent_name: $agent_name, is_active: true})
SET pv.is_active = false
`, map[string]interface{}{"agent_name": agentName}); err != nil {
		return err
	}

	if _, err := r.kg.RunCypherWrite(ctx, `
MATCH (pv:PromptVersion {id: $id})
SET pv.is_active = true,
    pv.user_approved = true,
    pv.approved_at = datetime(),
    pv.approved_by = $approved_by
`, map[string]interface{}{"id": versionID, "approved_by": approvedBy}); err != nil {
		return err
	}

	return r.updateCurrentPrompt(ctx, agentName, versionID)
}

func (r *Registry) updateCurrentPrompt(ctx context.Context, agentName, versionID string) error {
	rows, err := r.kg.RunCypher(ctx, `
MATCH (pv:PromptVersion {id: $id})
RETURN pv.prompt_content AS content
`, map[string]interface{}{"id": versionID})
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	content, _ := rows[0]["content"].(string)

	agentDir := filepath.Join(r.promptsDir, agentName)
	if err := os.MkdirAll(agentDir, 0o755); err != nil {
		return fmt.Errorf("create prompt dir: %w", err)
	}
	currentPath := filepath.Join(agentDir, "current.txt")
	tmpPath := currentPath + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write current.txt: %w", err)
	}
	return os.Rename(tmpPath, currentPath)
}

// Rollback reactivates toVersion if given, otherwise the current version's
// parent. Returns an error if there is no parent to roll back to.
func (r *Registry) Rollback(ctx context.Context, agentName, toVersion string) error {
	if toVersion != "" {
		return r.ActivateVersion(ctx, toVersion, "rollback")
	}

	current, err := r.GetCurrentVersion(ctx, agentName)
	if err != nil {
		return err
	}
	if current == nil || current.ParentVersion == "" {
		return fmt.Errorf("no parent version to roll back to for agent %s", agentName)
	}
	return r.ActivateVersion(ctx, current.ParentVersion, "rollback")
}

// InitializeFromCode bootstraps the registry's v1.0.0 for an agent from its
// in-code default prompt, the first time that agent is ever seen. A no-op
// if a version is already active.
func (r *Registry) InitializeFromCode(ctx context.Context, agentName, promptContent string) (*PromptVersion, error) {
	current, err := r.GetCurrentVersion(ctx, agentName)
	if err != nil {
		return nil, err
	}
	if current != nil {
		return current, nil
	}

	pv, err := r.CreateVersion(ctx, agentName, promptContent, "Initial version extracted from code", "", nil, 0)
	if err != nil {
		return nil, err
	}

	if err := r.ActivateVersion(ctx, pv.ID, "initialization"); err != nil {
		return nil, err
	}
	pv.IsActive = true
	pv.UserApproved = true
	return pv, nil
}
