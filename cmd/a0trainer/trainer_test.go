package main

import (
	"context"
	"github.com/janpfeifer/othelloGo/internal/generics"
	. "github.com/janpfeifer/othelloGo/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"math/rand/v2"
	"os"
	"path"
	"testing"
)

func newTestTrainer(t *testing.T) (*trainer, string) {
	checkpoint := path.Join(t.TempDir(), "model")
	tr, err := newTrainer("a0fnn="+checkpoint+",create,board_size=4,embedding_dim=16,batch_size=16,"+
		"mcts,num_mcts_sims=4", "")
	require.NoError(t, err)
	return tr, checkpoint
}

func TestNewTrainer(t *testing.T) {
	tr, _ := newTestTrainer(t)
	assert.Equal(t, 4, tr.boardSize)
	tr.finalize()

	for _, config := range []string{
		"",
		"linear,mcts",
		"linear,ab;linear,mcts",
		"a0fnn=" + path.Join(t.TempDir(), "ab") + ",create,board_size=4,ab",
		"a0fnn=" + path.Join(t.TempDir(), "missing") + ",mcts",
	} {
		_, err := newTrainer(config, "")
		assert.Error(t, err, "config %q should have failed", config)
	}
	_, err := newTrainer("a0fnn="+path.Join(t.TempDir(), "other")+",create,board_size=4,mcts", "linear,unknown")
	assert.Error(t, err)
}

func TestRunMatch(t *testing.T) {
	tr, _ := newTestTrainer(t)
	for _, symmetries := range []bool{false, true} {
		*flagSymmetries = symmetries
		examples, winner, err := tr.runMatch(context.Background(), 0)
		require.NoError(t, err)
		require.NotEmpty(t, examples)
		if symmetries {
			assert.Zero(t, len(examples)%NumSymmetries)
		}
		for _, example := range examples {
			require.Len(t, example.policyLabels, example.board.ActionSize())
			assert.InDelta(t, 1.0, generics.Sum(example.policyLabels), 1e-4)
			for action, prob := range example.policyLabels {
				if prob > 0 {
					assert.True(t, example.board.IsValid(Action(action)))
				}
			}
			if winner == PlayerInvalid {
				assert.Zero(t, example.valueLabel)
			} else {
				assert.NotZero(t, example.valueLabel)
			}
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := tr.runMatch(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBootstrap(t *testing.T) {
	checkpoint := path.Join(t.TempDir(), "model")
	tr, err := newTrainer("a0fnn="+checkpoint+",create,board_size=4,embedding_dim=16,mcts,num_mcts_sims=2",
		"linear,ab,max_depth=1")
	require.NoError(t, err)
	require.NotNil(t, tr.bootstrap)
	examples, _, err := tr.runMatch(context.Background(), 1)
	require.NoError(t, err)
	assert.NotEmpty(t, examples)
}

func TestIteration(t *testing.T) {
	tr, checkpoint := newTestTrainer(t)
	defer func(matches, steps, eval int) {
		*flagNumMatches, *flagTrainSteps, *flagNumEvalGames = matches, steps, eval
	}(*flagNumMatches, *flagTrainSteps, *flagNumEvalGames)
	*flagNumMatches = 2
	*flagTrainSteps = 3
	*flagNumEvalGames = 2
	require.NoError(t, tr.iteration(context.Background()))
	assert.NotEmpty(t, tr.examples)
	_, err := os.Stat(checkpoint)
	assert.NoError(t, err, "model checkpoint should have been saved")
}

func TestSelectAction(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	policy := []float32{0, 0.25, 0, 0.75, 0}
	counts := make([]int, len(policy))
	for range 1000 {
		counts[selectAction(rng, policy, true)]++
	}
	assert.Zero(t, counts[0]+counts[2]+counts[4])
	assert.Greater(t, counts[3], counts[1])
	assert.Greater(t, counts[1], 0)
	for range 10 {
		assert.Equal(t, Action(3), selectAction(rng, policy, false))
	}
}

func TestMovingAverage(t *testing.T) {
	assert.Equal(t, float32(2), movingAverage(0, 2, averageLossDecay, 1))
	assert.InDelta(t, 1.5, movingAverage(1, 2, averageLossDecay, 2), 1e-6)
}
