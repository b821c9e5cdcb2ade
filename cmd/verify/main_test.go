package main

import (
	"bytes"
	"context"
	"github.com/janpfeifer/othelloGo/internal/players"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"path"
	"strings"
	"testing"
)

func testConfig() config {
	return config{
		boardSize:   6,
		checkpoint:  "./pretrained_models/othello/gomlx/6x6_best",
		numMCTSSims: 25,
		cPuct:       1.0,
		numGames:    2,
		parallelism: 1,
		randomSeed:  42,
	}
}

func TestAIPlayerConfig(t *testing.T) {
	cfg := testConfig()
	assert.Equal(t, "a0fnn=./pretrained_models/othello/gomlx/6x6_best,mcts,num_mcts_sims=25,c_puct=1,temperature=0",
		cfg.aiPlayerConfig())
	cfg.aiConfig = "linear,mcts"
	assert.Equal(t, "linear,mcts", cfg.aiPlayerConfig())
}

func TestVerifyModelFree(t *testing.T) {
	cfg := testConfig()
	cfg.aiConfig = "linear,mcts,num_mcts_sims=10,temperature=0"
	out := &bytes.Buffer{}
	results, err := verify(context.Background(), out, cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, results.Total())
	assert.GreaterOrEqual(t, results.OneWon, 0)
	assert.GreaterOrEqual(t, results.TwoWon, 0)
	assert.GreaterOrEqual(t, results.Draws, 0)

	text := out.String()
	assert.Contains(t, text, "Board size: 6x6")
	assert.Contains(t, text, "Action space: 37 possible actions")
	assert.Contains(t, text, "Results: AI won")
	loaded := strings.Index(text, "Model loaded successfully")
	require.Greater(t, loaded, strings.Index(text, "2. Loading pretrained model"))
	require.Less(t, loaded, strings.Index(text, "3. Setting up Monte Carlo Tree Search"))
	assert.Contains(t, text, "Verification complete!")
}

func TestVerifyErrors(t *testing.T) {
	// Missing checkpoint.
	cfg := testConfig()
	cfg.checkpoint = path.Join(t.TempDir(), "missing")
	out := &bytes.Buffer{}
	_, err := verify(context.Background(), out, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NotContains(t, out.String(), "Verification complete!")

	// Invalid board size.
	cfg = testConfig()
	cfg.boardSize = 5
	_, err = verify(context.Background(), out, cfg)
	assert.Error(t, err)

	// Invalid number of games.
	cfg = testConfig()
	cfg.aiConfig = "linear,mcts"
	cfg.numGames = -1
	_, err = verify(context.Background(), out, cfg)
	assert.Error(t, err)

	// Invalid player configuration.
	cfg = testConfig()
	cfg.aiConfig = "linear,mcts,unknown_param=1"
	_, err = verify(context.Background(), out, cfg)
	assert.Error(t, err)

	// Cancelled context.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg = testConfig()
	cfg.aiConfig = "linear,mcts,num_mcts_sims=3"
	_, err = verify(ctx, out, cfg)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestVerifyCheckpoint(t *testing.T) {
	// Create and save a small untrained model for 4x4 boards.
	checkpoint := path.Join(t.TempDir(), "4x4")
	player, err := players.New("a0fnn=" + checkpoint + ",create,board_size=4,embedding_dim=16,mcts,num_mcts_sims=3")
	require.NoError(t, err)
	learner := player.(*players.SearcherScorer).PolicyLearner
	require.NotNil(t, learner)
	require.NoError(t, learner.Save())

	cfg := testConfig()
	cfg.boardSize = 4
	cfg.checkpoint = checkpoint
	cfg.numMCTSSims = 5
	out := &bytes.Buffer{}
	results, err := verify(context.Background(), out, cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, results.Total())
	assert.Contains(t, out.String(), "Action space: 17 possible actions")

	// Model board size doesn't match the game.
	cfg.boardSize = 6
	_, err = verify(context.Background(), out, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "board size 4")
}
