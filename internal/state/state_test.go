package state_test

import (
	"bytes"
	"encoding/gob"
	. "github.com/janpfeifer/othelloGo/internal/state"
	. "github.com/janpfeifer/othelloGo/internal/state/statetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"math/rand/v2"
	"slices"
	"testing"
)

func TestNewBoard(t *testing.T) {
	for _, test := range []struct {
		size        int
		wantActions []string
	}{
		{4, []string{"b1", "a2", "d3", "c4"}},
		{6, []string{"c2", "b3", "e4", "d5"}},
		{8, []string{"d3", "c4", "f5", "e6"}},
	} {
		b := NewBoard(test.size)
		assert.Equal(t, PlayerFirst, b.NextPlayer)
		assert.Equal(t, 2, b.NumDisks(PlayerFirst))
		assert.Equal(t, 2, b.NumDisks(PlayerSecond))
		assert.Equal(t, test.size*test.size+1, b.ActionSize())
		assert.Equal(t, test.wantActions, b.ActionsStrings(b.Derived.Actions), "board size %d", test.size)
		assert.False(t, b.IsFinished())
		assert.Equal(t, PlayerInvalid, b.Winner())
	}
	assert.Panics(t, func() { NewBoard(5) })
	assert.Panics(t, func() { NewBoard(2) })
}

func TestAct(t *testing.T) {
	b := NewBoard(8)
	action, err := ParseAction(b.Size, "d3")
	require.NoError(t, err)
	next := b.Act(action)
	assert.Equal(t, PlayerSecond, next.NextPlayer)
	assert.Equal(t, 2, next.MoveNumber)
	assert.Equal(t, 4, next.NumDisks(PlayerFirst))
	assert.Equal(t, 1, next.NumDisks(PlayerSecond))
	assert.Equal(t, BlackDisk, next.At(3, 3))

	// Original board is not changed.
	assert.Equal(t, WhiteDisk, b.At(3, 3))
	assert.Equal(t, 2, b.NumDisks(PlayerFirst))

	// Invalid action.
	assert.Panics(t, func() { b.Act(ActionAt(8, 0, 0)) })
	assert.Panics(t, func() { b.Act(b.PassAction()) })
}

func TestFlipsMultipleDirections(t *testing.T) {
	b := BuildBoard(`
		X . X .
		O O . .
		. O . .
		X . X .`, PlayerFirst)
	// Placing at (2,0) flips (1,0) upwards and (1,1) diagonally.
	action := ActionAt(4, 2, 0)
	require.True(t, b.IsValid(action))
	next := b.Act(action)
	assert.Equal(t, BlackDisk, next.At(1, 0))
	assert.Equal(t, BlackDisk, next.At(1, 1))
	assert.Equal(t, WhiteDisk, next.At(2, 1)) // Not flanked horizontally: (2,2) is empty.
	assert.Equal(t, 7, next.NumDisks(PlayerFirst))
	assert.Equal(t, 1, next.NumDisks(PlayerSecond))
}

func TestPass(t *testing.T) {
	b := BuildBoard(`
		X O . .
		. . . .
		. . . .
		. . . .`, PlayerSecond)
	require.False(t, b.IsFinished())
	assert.Equal(t, []Action{b.PassAction()}, b.Derived.Actions)
	assert.Equal(t, "pass", b.ActionString(b.Derived.Actions[0]))
	mask := b.ValidActionsMask()
	assert.Len(t, mask, 17)
	assert.True(t, mask[16])

	next := b.Act(b.PassAction())
	assert.Equal(t, PlayerFirst, next.NextPlayer)
	assert.Equal(t, []string{"c1"}, next.ActionsStrings(next.Derived.Actions))
}

func TestFinished(t *testing.T) {
	b := BuildBoard(`
		X X . .
		. . . .
		. . . .
		. . . .`, PlayerSecond)
	assert.True(t, b.IsFinished())
	assert.Equal(t, PlayerFirst, b.Winner())
	assert.False(t, b.Draw())
	assert.Contains(t, b.FinishReason(), "no moves left")

	b = BuildBoard(`
		X . . O
		. . . .
		. . . .
		. . . .`, PlayerFirst)
	assert.True(t, b.IsFinished())
	assert.True(t, b.Draw())
	assert.Equal(t, PlayerInvalid, b.Winner())

	b = BuildBoard(`
		X X X X
		X X X X
		O O O O
		O O O X`, PlayerSecond)
	assert.True(t, b.IsFinished())
	assert.Equal(t, PlayerFirst, b.Winner())
	assert.Contains(t, b.FinishReason(), "board is full")
}

func TestRandomMatchesTerminate(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 0))
	for _, size := range []int{4, 6, 8} {
		for range 20 {
			b := NewBoard(size)
			for !b.IsFinished() {
				require.Equal(t, size*size, b.NumDisks(PlayerFirst)+b.NumDisks(PlayerSecond)+b.Derived.NumEmpty)
				require.Less(t, b.MoveNumber, 2*size*size)
				actions := b.Derived.Actions
				b = b.Act(actions[rng.IntN(len(actions))])
			}
			assert.LessOrEqual(t, b.NumDisks(PlayerFirst)+b.NumDisks(PlayerSecond), size*size)
			if b.Draw() {
				assert.Equal(t, b.NumDisks(PlayerFirst), b.NumDisks(PlayerSecond))
			} else {
				winner := b.Winner()
				assert.Greater(t, b.NumDisks(winner), b.NumDisks(winner.Opponent()))
			}
		}
	}
}

func TestTakeAllActions(t *testing.T) {
	b := NewBoard(6)
	nextBoards := b.TakeAllActions()
	require.Len(t, nextBoards, b.NumActions())
	for ii, nb := range nextBoards {
		assert.Equal(t, b.Act(b.Derived.Actions[ii]).String(), nb.String())
	}
	// Cached.
	assert.Same(t, nextBoards[0], b.TakeAllActions()[0])
	b.ClearNextBoardsCache()
	assert.NotSame(t, nextBoards[0], b.TakeAllActions()[0])
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction(8, "e6")
	require.NoError(t, err)
	assert.Equal(t, ActionAt(8, 5, 4), a)
	assert.Equal(t, "e6", a.StringForSize(8))

	a, err = ParseAction(6, " PASS ")
	require.NoError(t, err)
	assert.Equal(t, Action(36), a)

	_, err = ParseAction(6, "g1")
	assert.Error(t, err)
	_, err = ParseAction(6, "a0")
	assert.Error(t, err)
	_, err = ParseAction(6, "x")
	assert.Error(t, err)
}

func TestSymmetries(t *testing.T) {
	b := NewBoard(8)
	// 180 degrees rotation of the initial position is the same position.
	assert.Equal(t, b.String(), b.Transform(2).String())
	assert.NotEqual(t, b.String(), b.Transform(1).String())

	for _, action := range b.Derived.Actions {
		policy := make([]float32, b.ActionSize())
		policy[action] = 1
		boards, policies := b.Symmetries(policy)
		require.Len(t, boards, NumSymmetries)
		for symIdx, symBoard := range boards {
			assert.Equal(t, 2, symBoard.NumDisks(PlayerFirst))
			assert.Equal(t, 2, symBoard.NumDisks(PlayerSecond))
			hot := slices.Index(policies[symIdx], 1)
			require.NotEqual(t, -1, hot)
			assert.True(t, symBoard.IsValid(Action(hot)),
				"symmetry %d of action %s is not valid", symIdx, b.ActionString(action))
		}
	}

	// Pass action is preserved.
	policy := make([]float32, b.ActionSize())
	policy[b.PassAction()] = 0.5
	assert.Equal(t, float32(0.5), b.TransformPolicy(5, policy)[b.PassAction()])
}

func TestEncodeLoadMatch(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 0))
	b := NewBoard(6)
	var actions []Action
	var policies [][]float32
	for !b.IsFinished() {
		action := b.Derived.Actions[rng.IntN(b.NumActions())]
		policy := make([]float32, b.ActionSize())
		policy[action] = 1
		actions = append(actions, action)
		policies = append(policies, policy)
		b = b.Act(action)
	}

	buf := &bytes.Buffer{}
	require.NoError(t, EncodeMatch(gob.NewEncoder(buf), 6, actions, policies))
	initial, gotActions, gotPolicies, boards, err := LoadMatch(gob.NewDecoder(buf))
	require.NoError(t, err)
	assert.Equal(t, 6, initial.Size)
	assert.Equal(t, actions, gotActions)
	assert.Equal(t, policies, gotPolicies)
	require.Len(t, boards, len(actions)+1)
	assert.Equal(t, b.String(), boards[len(boards)-1].String())
	assert.True(t, boards[len(boards)-1].IsFinished())
}
