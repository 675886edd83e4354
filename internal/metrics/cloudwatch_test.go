package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledClientIsNoOp(t *testing.T) {
	client, err := NewClient(context.Background(), "test", false)
	require.NoError(t, err)
	assert.False(t, client.enabled)

	// record calls on a disabled client publish nothing and never panic
	client.RecordAPIRequest("/api/v1/tracks", 200, 12*time.Millisecond)
	client.RecordGeneration("gpt-5-mini", "completed", 800*time.Millisecond)
	client.RecordTokenUsage("gpt-5-mini", 160, 120, 40)
}

func TestNilClientIsNoOp(t *testing.T) {
	var client *Client

	client.RecordAPIRequest("/api/v1/tracks", 500, time.Millisecond)
	client.RecordGeneration("gpt-5-mini", "failed", time.Second)
	client.RecordTokenUsage("gpt-5-mini", 0, 0, 0)
}
