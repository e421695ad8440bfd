package llm

import "sync"

// defaultPrompts holds the prompt text each pipeline stage ships with in
// code, before any version of it has ever been registered. A stage calls
// RegisterDefaultPrompt once, from its package init function, so the
// optimizer's Registry has something to bootstrap its v1.0.0 from the first time
// it sees that agent name.
var (
	defaultPromptsMu sync.RWMutex
	defaultPrompts   = map[string]string{}
)

// RegisterDefaultPrompt records the in-code prompt for an agent. Safe to
// call more than once; the last registration for a name wins, which only
// matters in tests that re-construct a stage.
func RegisterDefaultPrompt(agentName, content string) {
	defaultPromptsMu.Lock()
	defer defaultPromptsMu.Unlock()
	defaultPrompts[agentName] = content
}

// DefaultPrompt returns the in-code prompt registered for an agent, if any.
func DefaultPrompt(agentName string) (string, bool) {
	defaultPromptsMu.RLock()
	defer defaultPromptsMu.RUnlock()
	content, ok := defaultPrompts[agentName]
	return content, ok
}

// PromptSource resolves the prompt a pipeline stage should use for the
// current call. internal/optimizer.Registry implements this once a version
// has been created for the agent; until then, stages fall back to their own
// DefaultPrompt.
type PromptSource interface {
	LoadPrompt(agentName string) (string, bool)
}

// PromptResolver is the single place every pipeline stage goes through to
// get its system prompt, so a test run can hot-swap one agent's prompt
// (see PromptResolver.WithOverride) without touching the stage's own code.
type PromptResolver struct {
	source    PromptSource
	mu        sync.RWMutex
	overrides map[string]string
}

// NewPromptResolver wraps a PromptSource (typically an optimizer.Registry).
// source may be nil, in which case every call falls through to the in-code
// default.
func NewPromptResolver(source PromptSource) *PromptResolver {
	return &PromptResolver{source: source, overrides: map[string]string{}}
}

// Resolve returns the prompt to use for agentName: an active test override
// first, then the registry's active version, then the in-code default.
func (r *PromptResolver) Resolve(agentName string) string {
	r.mu.RLock()
	override, overridden := r.overrides[agentName]
	r.mu.RUnlock()
	if overridden {
		return override
	}

	if r.source != nil {
		if content, ok := r.source.LoadPrompt(agentName); ok {
			return content
		}
	}

	content, _ := DefaultPrompt(agentName)
	return content
}

// WithOverride pins agentName to content for the lifetime of the returned
// restore function. The Test Runner uses this to evaluate a candidate
// prompt variant without creating or activating a registry version.
func (r *PromptResolver) WithOverride(agentName, content string) (restore func()) {
	r.mu.Lock()
	previous, had := r.overrides[agentName]
	r.overrides[agentName] = content
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if had {
			r.overrides[agentName] = previous
		} else {
			delete(r.overrides, agentName)
		}
	}
}
