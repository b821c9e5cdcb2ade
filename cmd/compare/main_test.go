package main

import (
	"bytes"
	"context"
	"github.com/janpfeifer/othelloGo/internal/arena"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestRunMatches(t *testing.T) {
	aiPlayers, err := createAIPlayers("random:seed=1", "linear,ab,max_depth=1")
	require.NoError(t, err)
	a := arena.New(aiPlayers[0], aiPlayers[1], 6)
	a.Parallelism = 2
	out := &bytes.Buffer{}
	require.NoError(t, runMatches(context.Background(), out, a, 4))
	assert.Len(t, a.History, 4)
	assert.Contains(t, out.String(), "Played 4 of 4")
	assert.Contains(t, out.String(), "Final: ")

	_, err = createAIPlayers("random", "linear,nonsense")
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = runMatches(ctx, out, a, 2)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, out.String(), "Interrupted")
}
