package gomlx

import (
	"fmt"
	"github.com/gomlx/gomlx/graph"
	"github.com/gomlx/gomlx/graph/graphtest"
	"github.com/gomlx/gomlx/ml/context"
	"github.com/gomlx/gomlx/types/tensors"
	"github.com/janpfeifer/othelloGo/internal/generics"
	. "github.com/janpfeifer/othelloGo/internal/state"
	. "github.com/janpfeifer/othelloGo/internal/state/statetest"
	"github.com/stretchr/testify/require"
	"testing"

	_ "github.com/gomlx/gomlx/backends/simplego"
)

// buildBoardsForAlphaZeroFNN returns 3 boards of size 6x6: the initial one twice, and one where the only
// action for white is to pass.
func buildBoardsForAlphaZeroFNN(t *testing.T) (boards []*Board) {
	board0 := NewBoard(6)
	require.Equal(t, 4, board0.NumActions())
	board1 := BuildBoard(`
		X O . . . .
		. . . . . .
		. . . . . .
		. . . . . .
		. . . . . .
		. . . . . .`, PlayerSecond)
	require.Equal(t, []Action{board1.PassAction()}, board1.Derived.Actions)
	return []*Board{board0, board0, board1}
}

func TestAlphaZeroFNN_Padding(t *testing.T) {
	fnn := NewAlphaZeroFNN()
	wantPaddedSizes := []int{1, 8, 8, 8, 8, 8, 8, 8, 12, 12, 12, 12, 18, 18, 18, 18, 18, 18, 27, 27, 27, 27, 27, 27, 27, 27, 27, 41, 41, 41, 41}
	gotPaddedSizes := make([]int, len(wantPaddedSizes))
	for ii := range wantPaddedSizes {
		gotPaddedSizes[ii] = fnn.paddedSize(ii + 1)
	}
	require.Equal(t, wantPaddedSizes, gotPaddedSizes)
	require.Equal(t, 128, fnn.paddedSize(128))
}

func TestAlphaZeroFNN_Inputs(t *testing.T) {
	boards := buildBoardsForAlphaZeroFNN(t)
	fnn := NewAlphaZeroFNN()
	inputs := fnn.CreatePolicyInputs(boards)

	require.Len(t, inputs, 3)
	planesT, maskT, numBoardsT := inputs[0], inputs[1], inputs[2]
	require.Equal(t, int32(len(boards)), tensors.ToScalar[int32](numBoardsT))
	paddedNumBoards := fnn.paddedSize(len(boards))
	planesT.Shape().AssertDims(paddedNumBoards, 4*36+1)
	maskT.Shape().AssertDims(paddedNumBoards, 37)

	mask := tensors.CopyFlatData[float32](maskT)
	require.Equal(t, float32(4), generics.Sum(mask[:37]))
	for _, action := range boards[0].Derived.Actions {
		require.Equal(t, float32(1), mask[int(action)])
	}
	// Only pass for the 3rd board, and nothing for the padding.
	require.Equal(t, float32(1), mask[2*37+36])
	require.Equal(t, float32(1), generics.Sum(mask[2*37:3*37]))
	require.Zero(t, generics.Sum(mask[3*37:]))

	// Wrong board size.
	require.Panics(t, func() { fnn.CreatePolicyInputs([]*Board{NewBoard(8)}) })
}

func TestAlphaZeroFNN_ForwardPolicyGraph(t *testing.T) {
	boards := buildBoardsForAlphaZeroFNN(t)
	fnn := NewAlphaZeroFNN()
	numPaddedBoards := fnn.paddedSize(len(boards))
	inputs := fnn.CreatePolicyInputs(boards)
	inputsAny := generics.SliceMap(inputs, func(t *tensors.Tensor) any { return t })
	backend := graphtest.BuildTestBackend()
	outputs := context.ExecOnceN(backend, fnn.Context(), func(ctx *context.Context, inputs []*graph.Node) []*graph.Node {
		values, policies := fnn.ForwardPolicyGraph(ctx, inputs)
		return []*graph.Node{values, policies}
	}, inputsAny...)
	valuesT, policiesT := outputs[0], outputs[1]
	fmt.Printf("Values: %s\n", valuesT)

	valuesT.Shape().AssertDims(numPaddedBoards)
	policiesT.Shape().AssertDims(numPaddedBoards, 37)
	for _, value := range tensors.CopyFlatData[float32](valuesT) {
		require.Less(t, value, float32(1))
		require.Greater(t, value, float32(-1))
	}
	policies := tensors.CopyFlatData[float32](policiesT)

	// Makes sure policies sum to 1 over the valid actions.
	for boardIdx, board := range boards {
		policy := policies[boardIdx*37 : (boardIdx+1)*37]
		var sumProbs float32
		for action, prob := range policy {
			if board.IsValid(Action(action)) {
				sumProbs += prob
			} else {
				require.InDeltaf(t, 0, prob, 1e-6, "invalid action %d of board #%d has probability %g", action, boardIdx, prob)
			}
		}
		require.InDeltaf(t, 1.0, sumProbs, 1e-4, "Sum of probabilities for board %s is %.3f, it should be 1", board, sumProbs)
	}
	require.InDelta(t, 1.0, policies[2*37+36], 1e-5)
}

func TestAlphaZeroFNN_LossGraph(t *testing.T) {
	boards := buildBoardsForAlphaZeroFNN(t)
	valuesLabels := []float32{0, 0.8, -0.8}
	policyLabels := make([][]float32, len(boards))
	for ii, board := range boards {
		policyLabels[ii] = make([]float32, board.ActionSize())
		policyLabels[ii][board.Derived.Actions[0]] = 1
	}
	fnn := NewAlphaZeroFNN()
	policyInputs := fnn.CreatePolicyInputs(boards)
	labelsInputs := fnn.CreatePolicyLabels(valuesLabels, policyLabels)
	inputsAny := generics.SliceMap(append(policyInputs, labelsInputs...), func(t *tensors.Tensor) any { return t })
	backend := graphtest.BuildTestBackend()
	lossT := context.ExecOnce(backend, fnn.Context(), func(ctx *context.Context, inputs []*graph.Node) *graph.Node {
		policyInputsN := inputs[:len(policyInputs)]
		labelsInputsN := inputs[len(policyInputs):]
		return fnn.LossGraph(ctx, policyInputsN, labelsInputsN)
	}, inputsAny...)
	fmt.Printf("Loss: %s\n", lossT)
	lossT.Shape().AssertScalar()
	require.Greater(t, tensors.ToScalar[float32](lossT), float32(0))
}
