package arena

import (
	"context"
	"github.com/janpfeifer/othelloGo/internal/players"
	. "github.com/janpfeifer/othelloGo/internal/state"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sync"
	"testing"
)

// firstActionPlayer always plays the first valid action, and records the colors it played.
type firstActionPlayer struct {
	mu     sync.Mutex
	colors []PlayerNum
	failAt int // If > 0, fails at this move number.
}

func (p *firstActionPlayer) Play(board *Board) (action Action, nextBoard *Board, score float32, policy []float32, err error) {
	p.mu.Lock()
	p.colors = append(p.colors, board.NextPlayer)
	p.mu.Unlock()
	if p.failAt > 0 && board.MoveNumber >= p.failAt {
		err = errors.New("failed on purpose")
		return
	}
	return board.Derived.Actions[0], board.TakeAllActions()[0], 0, nil, nil
}

func (p *firstActionPlayer) Finalize() {}

// invalidPlayer always plays at the top-left corner.
type invalidPlayer struct{ firstActionPlayer }

func (p *invalidPlayer) Play(board *Board) (action Action, nextBoard *Board, score float32, policy []float32, err error) {
	return ActionAt(board.Size, 0, 0), board, 0, nil, nil
}

var _ players.Player = &firstActionPlayer{}

func TestPlayGame(t *testing.T) {
	one, two := &firstActionPlayer{}, &firstActionPlayer{}
	a := New(one, two, 6)
	var numMoves int
	a.Display = func(gameIdx int, board *Board, action Action, nextBoard *Board) {
		numMoves++
		assert.True(t, board.IsValid(action))
	}

	ctx := context.Background()
	outcome, err := a.PlayGame(ctx, 0, true)
	require.NoError(t, err)
	assert.Greater(t, numMoves, 0)
	assert.Equal(t, PlayerFirst, one.colors[0])
	assert.Equal(t, PlayerSecond, two.colors[0])

	// Both players play the same way: swapping who starts swaps the outcome.
	one.colors, two.colors = nil, nil
	swappedOutcome, err := a.PlayGame(ctx, 1, false)
	require.NoError(t, err)
	assert.Equal(t, -outcome, swappedOutcome)
	assert.Equal(t, PlayerSecond, one.colors[0])
	assert.Equal(t, PlayerFirst, two.colors[0])
}

func TestPlayGames(t *testing.T) {
	for _, parallelism := range []int{1, 4} {
		a := New(players.NewRandomPlayer(1), players.NewRandomPlayer(2), 6)
		a.Parallelism = parallelism
		var numProgress int
		a.Progress = func(game GameResult, results Results) {
			numProgress++
			assert.Equal(t, numProgress, results.Total())
			assert.Equal(t, game.Index%2 == 0, game.OneFirst)
			assert.True(t, game.Final.IsFinished())
		}
		results, err := a.PlayGames(context.Background(), 10)
		require.NoError(t, err)
		assert.Equal(t, 10, results.Total())
		assert.GreaterOrEqual(t, results.OneWon, 0)
		assert.GreaterOrEqual(t, results.TwoWon, 0)
		assert.GreaterOrEqual(t, results.Draws, 0)
		assert.Equal(t, 10, numProgress)
		require.Len(t, a.History, 10)
		for ii, game := range a.History {
			assert.Equal(t, ii, game.Index)
		}
	}
}

func TestPlayGamesAlternates(t *testing.T) {
	one, two := &firstActionPlayer{}, &firstActionPlayer{}
	a := New(one, two, 4)
	results, err := a.PlayGames(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, results.Total())
	// Same deterministic strategy: each player wins one game, or both are draws.
	assert.Equal(t, results.OneWon, results.TwoWon)
	assert.Equal(t, PlayerFirst, one.colors[0])
	assert.True(t, a.History[0].OneFirst)
	assert.False(t, a.History[1].OneFirst)
}

func TestPlayGamesErrors(t *testing.T) {
	// Cancelled context.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a := New(players.NewRandomPlayer(1), players.NewRandomPlayer(2), 6)
	_, err := a.PlayGames(ctx, 2)
	require.ErrorIs(t, err, context.Canceled)

	// Player failure.
	a = New(&firstActionPlayer{failAt: 3}, players.NewRandomPlayer(2), 6)
	_, err = a.PlayGames(context.Background(), 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed on purpose")

	// Invalid action.
	a = New(&invalidPlayer{}, players.NewRandomPlayer(2), 6)
	_, err = a.PlayGames(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid action")

	// Negative number of games.
	a = New(players.NewRandomPlayer(1), players.NewRandomPlayer(2), 6)
	results, err := a.PlayGames(context.Background(), -1)
	require.Error(t, err)
	assert.Zero(t, results.Total())
}
