package main

import (
	"context"
	"github.com/janpfeifer/othelloGo/internal/players"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path"
	"testing"
)

func TestCreatePlayer(t *testing.T) {
	for _, config := range []string{"", "random", "linear,ab,unknown=1"} {
		_, err := createPlayer(config)
		assert.Error(t, err, "config %q should fail", config)
	}
	player, err := createPlayer("linear=" + path.Join(t.TempDir(), "linear.txt") + ",ab,max_depth=1")
	require.NoError(t, err)
	assert.NotNil(t, player.ValueLearner)
}

func TestMatchesSaveAndLoad(t *testing.T) {
	player, err := players.New("random:seed=3")
	require.NoError(t, err)
	matches, err := runMatches(context.Background(), player, 4, 5)
	require.NoError(t, err)
	require.Len(t, matches, 5)
	for _, match := range matches {
		assert.True(t, match.FinalBoard().IsFinished())
		assert.Len(t, match.Boards, len(match.Actions)+1)
	}

	fileName := path.Join(t.TempDir(), "matches.bin")
	require.NoError(t, saveMatches(fileName, matches))
	require.NoError(t, saveMatches(fileName, matches[:2]))
	_, err = os.Stat(fileName + "~")
	assert.NoError(t, err, "previous matches file should have been backed up")

	loaded, err := loadMatches(fileName + "~")
	require.NoError(t, err)
	require.Len(t, loaded, 5)
	for ii, match := range loaded {
		assert.Equal(t, matches[ii].Actions, match.Actions)
		assert.Equal(t, matches[ii].FinalBoard().String(), match.FinalBoard().String())
	}
	_, err = loadMatches(path.Join(t.TempDir(), "missing.bin"))
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = runMatches(ctx, player, 4, 2)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLabeledBoards(t *testing.T) {
	player, err := players.New("random:seed=5")
	require.NoError(t, err)
	matches, err := runMatches(context.Background(), player, 4, 10)
	require.NoError(t, err)
	train, validation := splitMatches(matches, 20)
	assert.Greater(t, train.Len(), validation.Len())
	assert.Greater(t, validation.Len(), 0)
	for ii, board := range train.Boards {
		assert.False(t, board.IsFinished())
		assert.LessOrEqual(t, train.Labels[ii], float32(1))
		assert.GreaterOrEqual(t, train.Labels[ii], float32(-1))
	}

	// Positions of the same match have opposite labels for opposite players.
	lb := &LabeledBoards{}
	lb.AddMatch(matches[0])
	final := matches[0].FinalBoard()
	for ii, board := range lb.Boards {
		if final.Draw() {
			assert.Zero(t, lb.Labels[ii])
		} else if board.NextPlayer == final.Winner() {
			assert.Greater(t, lb.Labels[ii], float32(0))
		} else {
			assert.Less(t, lb.Labels[ii], float32(0))
		}
	}
}

func TestRun(t *testing.T) {
	defer func(size, num, loops int, save string) {
		*flagBoardSize, *flagNumMatches, *flagTrainLoops, *flagSaveMatches = size, num, loops, save
	}(*flagBoardSize, *flagNumMatches, *flagTrainLoops, *flagSaveMatches)
	modelFile := path.Join(t.TempDir(), "linear.txt")
	player, err := createPlayer("linear=" + modelFile + ",ab,max_depth=1,randomness=0.1")
	require.NoError(t, err)
	*flagBoardSize = 4
	*flagNumMatches = 6
	*flagTrainLoops = 2
	*flagSaveMatches = path.Join(t.TempDir(), "matches.bin")
	require.NoError(t, run(context.Background(), player))
	_, err = os.Stat(modelFile)
	assert.NoError(t, err, "model should have been saved")
	_, err = os.Stat(*flagSaveMatches)
	assert.NoError(t, err, "matches should have been saved")
}
