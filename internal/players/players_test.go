package players_test

import (
	"github.com/janpfeifer/othelloGo/internal/ai/linear"
	"github.com/janpfeifer/othelloGo/internal/players"
	_ "github.com/janpfeifer/othelloGo/internal/players/default"
	"github.com/janpfeifer/othelloGo/internal/searchers/alphabeta"
	"github.com/janpfeifer/othelloGo/internal/searchers/mcts"
	. "github.com/janpfeifer/othelloGo/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestNew(t *testing.T) {
	for _, test := range []struct {
		config   string
		searcher any
	}{
		{"", &alphabeta.Searcher{}},
		{"linear,ab,max_depth=1", &alphabeta.Searcher{}},
		{"linear=v0,mcts,num_mcts_sims=10,c_puct=1.0,temperature=0", &mcts.Searcher{}},
	} {
		player, err := players.New(test.config)
		require.NoErrorf(t, err, "config %q", test.config)
		ss, ok := player.(*players.SearcherScorer)
		require.True(t, ok)
		assert.IsType(t, test.searcher, ss.Searcher)
		assert.IsType(t, &linear.Scorer{}, ss.Scorer)
		assert.NotNil(t, ss.ValueLearner)
	}

	for _, config := range []string{
		"linear,ab,unknown=3",        // Unknown parameter.
		"linear",                     // No searcher.
		"mcts,num_mcts_sims=10",      // No scorer.
		"linear,ab,mcts,max_depth=1", // Multiple searchers.
		"random,seed=x",              // Invalid seed.
		"random:seed=1,max_depth=2",  // Unused parameter.
	} {
		_, err := players.New(config)
		assert.Errorf(t, err, "config %q should have failed", config)
	}
}

func TestPlay(t *testing.T) {
	for _, config := range []string{"random:seed=42", "linear,ab,max_depth=2", "linear,mcts,num_mcts_sims=20", "linear,mcts,num_mcts_sims=20,randomness=0.5"} {
		player, err := players.New(config)
		require.NoError(t, err)
		board := NewBoard(6)
		for !board.IsFinished() {
			action, nextBoard, _, policy, err := player.Play(board)
			require.NoErrorf(t, err, "config %q", config)
			require.Truef(t, board.IsValid(action), "config %q played invalid action %d", config, action)
			require.Equal(t, board.Act(action).String(), nextBoard.String())
			if policy != nil {
				require.Len(t, policy, board.NumActions())
			}
			board = nextBoard
		}
		player.Finalize()
	}
}

func TestRandomPlayer(t *testing.T) {
	// Same seed, same actions.
	play := func() (actions []Action) {
		player := players.NewRandomPlayer(7)
		board := NewBoard(8)
		for !board.IsFinished() {
			action, nextBoard, score, _, err := player.Play(board)
			require.NoError(t, err)
			assert.Zero(t, score)
			actions = append(actions, action)
			board = nextBoard
		}
		return
	}
	assert.Equal(t, play(), play())

	// All initial actions are eventually played.
	player := players.NewRandomPlayer(0)
	board := NewBoard(8)
	seen := make(map[Action]bool)
	for range 200 {
		action, _, _, _, err := player.Play(board)
		require.NoError(t, err)
		seen[action] = true
	}
	assert.Len(t, seen, 4)
}
