package gomlx

import (
	"github.com/gomlx/gomlx/graph"
	"github.com/gomlx/gomlx/ml/context"
	"github.com/gomlx/gomlx/types/tensors"
	"github.com/janpfeifer/othelloGo/internal/state"
)

// PolicyModel is a GoMLX supported policy model (use with MCTS/AlphaZero), which is able to estimate both
// the value of a board position, and its policy: the probability of each action.
type PolicyModel interface {
	// Context used by the model: with both it weights and hyperparameters.
	Context() *context.Context

	// BoardSize the model was configured for.
	BoardSize() int

	// CreatePolicyInputs for a batch of boards.
	// It should include any padding needed by the model.
	CreatePolicyInputs(boards []*state.Board) []*tensors.Tensor

	// CreatePolicyLabels tensors used during training. The policy labels are given over the full
	// action space of the board (see state.Board.ActionSize).
	CreatePolicyLabels(valueLabels []float32, policyLabels [][]float32) []*tensors.Tensor

	// ForwardValueGraph outputs only the value score of the boards, shaped [paddedBatchSize].
	ForwardValueGraph(ctx *context.Context, policyInputs []*graph.Node) (value *graph.Node)

	// ForwardPolicyGraph is the GoMLX model graph function with the forward path that includes
	// the value score of the boards (shaped [paddedBatchSize]) and their policy values (action probabilities,
	// shaped [paddedBatchSize, actionSize]).
	//
	// The returned policies are padded -- just discard the values beyond the number of boards.
	ForwardPolicyGraph(ctx *context.Context, policyInputs []*graph.Node) (value *graph.Node, policy *graph.Node)

	// LossGraph should calculate the loss given the policy inputs and the labels.
	// It must return a scalar with the loss value.
	LossGraph(ctx *context.Context, policyInputs []*graph.Node, labels []*graph.Node) *graph.Node
}
