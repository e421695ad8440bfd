package websearch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClient_Available(t *testing.T) {
	assert.False(t, NewClient("").Available())
	assert.True(t, NewClient("tvly-test").Available())
}

func TestClient_Search_NoAPIKey(t *testing.T) {
	c := NewClient("")
	_, err := c.Search(context.Background(), "ReAct", 5)
	assert.Error(t, err)
}
