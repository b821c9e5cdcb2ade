package alphabeta_test

import (
	"github.com/janpfeifer/othelloGo/internal/ai"
	"github.com/janpfeifer/othelloGo/internal/ai/linear"
	"github.com/janpfeifer/othelloGo/internal/parameters"
	"github.com/janpfeifer/othelloGo/internal/searchers/alphabeta"
	. "github.com/janpfeifer/othelloGo/internal/state"
	. "github.com/janpfeifer/othelloGo/internal/state/statetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"math"
	"math/rand/v2"
	"testing"
	"time"
)

var scorer = linear.PreTrainedBest

// minimax is a plain exhaustive search (no pruning), with the same leaf evaluation as alpha-beta.
func minimax(board *Board, depth int) float32 {
	best := float32(-math.MaxFloat32)
	for _, next := range board.TakeAllActions() {
		var score float32
		if isEnd, endScore := ai.IsEndGameAndScore(next); isEnd {
			score = -endScore
		} else if depth <= 1 {
			score = -scorer.Score(next)
		} else {
			score = -minimax(next, depth-1)
		}
		best = max(best, score)
	}
	return best
}

func TestEndGameMove(t *testing.T) {
	// Black playing "c1" flips all white disks and wins.
	board := BuildBoard(`
		X O . .
		. O . .
		X . . .
		. . . .`, PlayerFirst)
	searcher := alphabeta.New(scorer).WithMaxDepth(1)
	action, nextBoard, score, policy, err := searcher.Search(board)
	require.NoError(t, err)
	assert.Equalf(t, "c1", board.ActionString(action), "got %s -> score=%.2f", board.ActionString(action), score)
	assert.Equal(t, ai.WinGameScore, score)
	assert.True(t, nextBoard.IsFinished())
	assert.Nil(t, policy)
}

func TestPruningMatchesMinimax(t *testing.T) {
	rng := rand.New(rand.NewPCG(13, 0))
	for _, depth := range []int{1, 2, 3} {
		searcher := alphabeta.New(scorer).WithMaxDepth(depth)
		for range 10 {
			// Random position in the middle of a 6x6 game.
			board := NewBoard(6)
			numMoves := 4 + rng.IntN(12)
			for ii := 0; ii < numMoves && !board.IsFinished(); ii++ {
				board = board.Act(board.Derived.Actions[rng.IntN(board.NumActions())])
			}
			if board.IsFinished() {
				continue
			}
			action, nextBoard, score, _, err := searcher.Search(board)
			require.NoError(t, err)
			require.True(t, board.IsValid(action))
			assert.Equal(t, board.Act(action).String(), nextBoard.String())
			assert.InDeltaf(t, minimax(board, depth), score, 1e-5, "depth=%d, board:\n%s", depth, board)
		}
	}
}

func TestMaxTime(t *testing.T) {
	searcher := alphabeta.New(ai.BatchScorerProxy{ValueScorer: scorer}).WithMaxTime(50 * time.Millisecond)
	board := NewBoard(6)
	action, _, score, _, err := searcher.Search(board)
	require.NoError(t, err)
	assert.True(t, board.IsValid(action))
	assert.LessOrEqual(t, math.Abs(float64(score)), 1.0)
	assert.Equal(t, "alphabeta(max_time=50ms)", searcher.String())

	_, _, _, _, err = searcher.Search(BuildBoard(`
		X X . .
		. . . .
		. . . .
		. . . .`, PlayerSecond))
	assert.Error(t, err)
}

func TestNewFromParams(t *testing.T) {
	searcher, err := alphabeta.NewFromParams(scorer, parameters.NewFromConfigString("mcts"))
	require.NoError(t, err)
	assert.Nil(t, searcher)

	params := parameters.NewFromConfigString("ab,max_depth=2,noise=0.1,max_move_noise=10")
	searcher, err = alphabeta.NewFromParams(scorer, params)
	require.NoError(t, err)
	assert.Empty(t, params)
	assert.Equal(t, "alphabeta(max_depth=2)", searcher.(*alphabeta.Searcher).String())

	searcher, err = alphabeta.NewFromParams(scorer, parameters.NewFromConfigString("alphabeta,max_time=1s"))
	require.NoError(t, err)
	assert.Equal(t, "alphabeta(max_time=1s)", searcher.(*alphabeta.Searcher).String())

	_, err = alphabeta.NewFromParams(scorer, parameters.NewFromConfigString("ab,max_depth=0"))
	assert.Error(t, err)
	_, err = alphabeta.NewFromParams(scorer, parameters.NewFromConfigString("ab,noise=-1"))
	assert.Error(t, err)
}
