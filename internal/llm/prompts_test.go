package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegisterAndGetDefaultPrompt(t *testing.T) {
	RegisterDefaultPrompt("test_agent_prompts", "you are a test agent")

	content, ok := DefaultPrompt("test_agent_prompts")
	assert.True(t, ok)
	assert.Equal(t, "you are a test agent", content)

	_, ok = DefaultPrompt("no_such_agent")
	assert.False(t, ok)
}

type stubPromptSource struct {
	prompts map[string]string
}

func (s *stubPromptSource) LoadPrompt(agentName string) (string, bool) {
	content, ok := s.prompts[agentName]
	return content, ok
}

func TestPromptResolver_FallsBackToDefault(t *testing.T) {
	RegisterDefaultPrompt("resolver_agent", "default prompt")

	resolver := NewPromptResolver(nil)
	assert.Equal(t, "default prompt", resolver.Resolve("resolver_agent"))
}

func TestPromptResolver_PrefersSourceOverDefault(t *testing.T) {
	RegisterDefaultPrompt("resolver_agent_2", "default prompt")
	source := &stubPromptSource{prompts: map[string]string{"resolver_agent_2": "registry prompt"}}

	resolver := NewPromptResolver(source)
	assert.Equal(t, "registry prompt", resolver.Resolve("resolver_agent_2"))
}

func TestPromptResolver_OverrideWinsAndRestores(t *testing.T) {
	RegisterDefaultPrompt("resolver_agent_3", "default prompt")
	source := &stubPromptSource{prompts: map[string]string{"resolver_agent_3": "registry prompt"}}
	resolver := NewPromptResolver(source)

	restore := resolver.WithOverride("resolver_agent_3", "test variant prompt")
	assert.Equal(t, "test variant prompt", resolver.Resolve("resolver_agent_3"))

	restore()
	assert.Equal(t, "registry prompt", resolver.Resolve("resolver_agent_3"))
}

func TestPromptResolver_NestedOverrideRestoresPrevious(t *testing.T) {
	resolver := NewPromptResolver(nil)

	restoreOuter := resolver.WithOverride("nested_agent", "outer")
	restoreInner := resolver.WithOverride("nested_agent", "inner")
	assert.Equal(t, "inner", resolver.Resolve("nested_agent"))

	restoreInner()
	assert.Equal(t, "outer", resolver.Resolve("nested_agent"))

	restoreOuter()
	_, ok := DefaultPrompt("nested_agent")
	assert.False(t, ok)
}
