package optimizer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_LoadPrompt_MissingFile(t *testing.T) {
	r := NewRegistry(nil, t.TempDir())
	content, ok := r.LoadPrompt("synthesizer")
	assert.False(t, ok)
	assert.Empty(t, content)
}

func TestRegistry_LoadPrompt_ReadsCurrentTxt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "synthesizer"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "synthesizer", "current.txt"), []byte("answer using the graph"), 0o644))

	r := NewRegistry(nil, dir)
	content, ok := r.LoadPrompt("synthesizer")
	assert.True(t, ok)
	assert.Equal(t, "answer using the graph", content)
}

func TestParseVersion(t *testing.T) {
	major, minor, patch := parseVersion("1.4.2")
	assert.Equal(t, 1, major)
	assert.Equal(t, 4, minor)
	assert.Equal(t, 2, patch)
}

func TestParseVersion_Malformed(t *testing.T) {
	major, minor, patch := parseVersion("not-a-version")
	assert.Equal(t, 1, major)
	assert.Equal(t, 0, minor)
	assert.Equal(t, 0, patch)
}

func TestIncrementVersion(t *testing.T) {
	assert.Equal(t, "2.0.0", incrementVersion("1.4.2", BumpMajor))
	assert.Equal(t, "1.5.0", incrementVersion("1.4.2", BumpMinor))
	assert.Equal(t, "1.4.3", incrementVersion("1.4.2", BumpPatch))
}

func TestHashContent_StableAndSixteenChars(t *testing.T) {
	h1 := hashContent("some prompt text")
	h2 := hashContent("some prompt text")
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 16)
}

func TestRegistry_GetCurrentVersion_NoKG(t *testing.T) {
	r := NewRegistry(nil, t.TempDir())
	pv, err := r.GetCurrentVersion(context.Background(), "synthesizer")
	assert.NoError(t, err)
	assert.Nil(t, pv)
}

func TestRegistry_CreateVersion_NoKGWritesFileOnly(t *testing.T) {
	dir := t.TempDir()
	r := NewRegistry(nil, dir)

	pv, err := r.CreateVersion(context.Background(), "synthesizer", "new prompt body", "fixes citation issue", "", nil, 0)
	require.NoError(t, err)
	require.NotNil(t, pv)

	assert.Equal(t, "1.0.0", pv.Version)
	assert.False(t, pv.IsActive)
	assert.Equal(t, "new prompt body", pv.PromptContent)

	written, err := os.ReadFile(pv.PromptPath)
	require.NoError(t, err)
	assert.Equal(t, "new prompt body", string(written))
}

func TestRegistry_Rollback_NoKGErrors(t *testing.T) {
	r := NewRegistry(nil, t.TempDir())
	err := r.Rollback(context.Background(), "synthesizer", "")
	assert.Error(t, err)
}

func TestNullableString(t *testing.T) {
	assert.Nil(t, nullableString(""))
	assert.Equal(t, "x", nullableString("x"))
}
