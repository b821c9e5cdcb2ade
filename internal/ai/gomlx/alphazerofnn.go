package gomlx

import (
	"github.com/gomlx/exceptions"
	. "github.com/gomlx/gomlx/graph"
	"github.com/gomlx/gomlx/ml/context"
	"github.com/gomlx/gomlx/ml/layers"
	"github.com/gomlx/gomlx/ml/layers/activations"
	fnnLayer "github.com/gomlx/gomlx/ml/layers/fnn"
	"github.com/gomlx/gomlx/ml/layers/kan"
	"github.com/gomlx/gomlx/ml/layers/regularizers"
	"github.com/gomlx/gomlx/ml/train/losses"
	"github.com/gomlx/gomlx/ml/train/optimizers"
	"github.com/gomlx/gomlx/ml/train/optimizers/cosineschedule"
	"github.com/gomlx/gomlx/types/shapes"
	"github.com/gomlx/gomlx/types/tensors"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/janpfeifer/othelloGo/internal/features"
	"github.com/janpfeifer/othelloGo/internal/state"
)

// DefaultModelBoardSize used by the models, if not configured otherwise.
const DefaultModelBoardSize = 6

// maskedLogitPenalty is subtracted from the logits of invalid actions before the softmax.
const maskedLogitPenalty = 1e9

// AlphaZeroFNN implement a feed-forward model for scoring a board and its actions.
// It implements a PolicyModel.
//
// The inputs are the board planes (see features.Planes), the mask of the valid actions and the number
// of boards (the rest is padding). A shared trunk feeds a value head (tanh) and a policy head
// (softmax over the valid actions).
type AlphaZeroFNN struct {
	ctx *context.Context
}

// Compile-time assert that AlphaZeroFNN implements PolicyModel.
var _ PolicyModel = &AlphaZeroFNN{}

// NewAlphaZeroFNN creates an AlphaZeroFNN model with a fresh context, initialized with hyperparameters set to their defaults.
func NewAlphaZeroFNN() *AlphaZeroFNN {
	fnn := &AlphaZeroFNN{ctx: context.New()}
	fnn.ctx.RngStateReset()
	fnn.ctx.SetParams(map[string]any{
		"batch_size": 128,

		// Size of the board the model plays: it defines the shape of the inputs and of the policy.
		"board_size": DefaultModelBoardSize,

		// Dimension of the output of the trunk, shared by the value and policy heads.
		"embedding_dim": 128,

		optimizers.ParamOptimizer:       "adam",
		optimizers.ParamLearningRate:    0.001,
		optimizers.ParamAdamEpsilon:     1e-7,
		optimizers.ParamAdamDType:       "",
		cosineschedule.ParamPeriodSteps: 0,
		activations.ParamActivation:     "relu",
		layers.ParamDropoutRate:         0.0,
		regularizers.ParamL2:            1e-5,
		regularizers.ParamL1:            1e-5,

		// AlphaZeroFNN network parameters:
		fnnLayer.ParamNumHiddenLayers: 2,
		fnnLayer.ParamNumHiddenNodes:  128,
		fnnLayer.ParamResidual:        true,
		fnnLayer.ParamNormalization:   "layer",

		// KAN network parameters:
		"kan":                                 false, // Enable kan
		kan.ParamNumControlPoints:             20,    // Number of control points
		kan.ParamNumHiddenNodes:               16,
		kan.ParamNumHiddenLayers:              1,
		kan.ParamBSplineDegree:                2,
		kan.ParamBSplineMagnitudeL1:           1e-5,
		kan.ParamBSplineMagnitudeL2:           0.0,
		kan.ParamDiscrete:                     false,
		kan.ParamDiscretePerturbation:         "triangular",
		kan.ParamDiscreteSoftness:             0.1,
		kan.ParamDiscreteSoftnessSchedule:     kan.SoftnessScheduleNone.String(),
		kan.ParamDiscreteSplitPointsTrainable: true,
		kan.ParamResidual:                     true,
	})
	fnn.ctx = fnn.ctx.Checked(false)
	return fnn
}

// Context implements PolicyModel.
func (fnn *AlphaZeroFNN) Context() *context.Context {
	return fnn.ctx
}

// BoardSize implements PolicyModel.
func (fnn *AlphaZeroFNN) BoardSize() int {
	return context.GetParamOr(fnn.ctx, "board_size", DefaultModelBoardSize)
}

// actionSize of the configured board size: one action per cell plus the pass action.
func (fnn *AlphaZeroFNN) actionSize() int {
	size := fnn.BoardSize()
	return size*size + 1
}

// paddedSize returns a padded batchSize for the given numBoards.
// This is important so we don't have too many different versions of the program for every different batch size.
func (fnn *AlphaZeroFNN) paddedSize(numBoards int) int {
	if numBoards == 1 {
		// Always have the option to support 1.
		return numBoards
	}
	// Make sure the default batchSize is supported without padding.
	defaultBatchSize := context.GetParamOr(fnn.ctx, "batch_size", 128)
	if numBoards == defaultBatchSize {
		return numBoards
	}

	// Starts with 8, anything smaller than that, the cost in space is too small, not worth having multiple programs
	// for different padding sizes.
	paddedSize := 8
	for paddedSize < numBoards {
		// Increase 1.5x at a time.
		paddedSize = paddedSize + (paddedSize+1)/2
	}
	return paddedSize
}

// CreatePolicyInputs implements PolicyModel.
// It returns the board planes, the valid actions mask (1 for valid actions, 0 otherwise) and the number of boards.
func (fnn *AlphaZeroFNN) CreatePolicyInputs(boards []*state.Board) []*tensors.Tensor {
	size := fnn.BoardSize()
	planesDim := features.PlanesDim(size)
	actionSize := fnn.actionSize()
	paddedBatchSize := fnn.paddedSize(len(boards))
	planesT := tensors.FromShape(shapes.Make(dtypes.Float32, paddedBatchSize, planesDim))
	maskT := tensors.FromShape(shapes.Make(dtypes.Float32, paddedBatchSize, actionSize))
	for _, board := range boards {
		if board.Size != size {
			exceptions.Panicf("AlphaZeroFNN configured for board size %d, got board of size %d", size, board.Size)
		}
	}
	tensors.MutableFlatData(planesT, func(flat []float32) {
		for boardIdx, board := range boards {
			features.Planes(board, flat[boardIdx*planesDim:(boardIdx+1)*planesDim])
		}
	})
	tensors.MutableFlatData(maskT, func(flat []float32) {
		for boardIdx, board := range boards {
			for _, action := range board.Derived.Actions {
				flat[boardIdx*actionSize+int(action)] = 1
			}
		}
	})
	numBoardsT := tensors.FromScalar(int32(len(boards)))
	return []*tensors.Tensor{planesT, maskT, numBoardsT}
}

// CreatePolicyLabels implements PolicyModel.
func (fnn *AlphaZeroFNN) CreatePolicyLabels(valueLabels []float32, policyLabels [][]float32) []*tensors.Tensor {
	actionSize := fnn.actionSize()
	paddedBatchSize := fnn.paddedSize(len(valueLabels))
	valueLabelsT := tensors.FromShape(shapes.Make(dtypes.Float32, paddedBatchSize, 1))
	tensors.MutableFlatData(valueLabelsT, func(flat []float32) {
		copy(flat, valueLabels)
	})
	policyLabelsT := tensors.FromShape(shapes.Make(dtypes.Float32, paddedBatchSize, actionSize))
	tensors.MutableFlatData(policyLabelsT, func(flat []float32) {
		for boardIdx, labels := range policyLabels {
			if len(labels) != actionSize {
				exceptions.Panicf("policy labels for board #%d has %d values, expected %d", boardIdx, len(labels), actionSize)
			}
			copy(flat[boardIdx*actionSize:], labels)
		}
	})
	return []*tensors.Tensor{valueLabelsT, policyLabelsT}
}

// trunk shared by the value and the policy heads.
func (fnn *AlphaZeroFNN) trunk(ctx *context.Context, planes *Node) *Node {
	embeddingDim := context.GetParamOr(ctx, "embedding_dim", 128)
	var embedding *Node
	if context.GetParamOr(ctx, "kan", false) {
		// Use KAN, all configured by context hyperparameters. See NewAlphaZeroFNN for defaults.
		embedding = kan.New(ctx.In("kan"), planes, embeddingDim).Done()
	} else {
		// Normal FNN, all configured by context hyperparameters. See NewAlphaZeroFNN for defaults.
		embedding = fnnLayer.New(ctx.In("fnn"), planes, embeddingDim).Done()
	}
	return activations.ApplyFromContext(ctx, embedding)
}

// valueHead returns the board values, shaped [batchSize].
func (fnn *AlphaZeroFNN) valueHead(ctx *context.Context, embedding *Node) *Node {
	batchSize := embedding.Shape().Dim(0)
	logits := layers.Dense(ctx.In("value_head"), embedding, true, 1)
	logits.AssertDims(batchSize, 1)
	return Reshape(MulScalar(Tanh(logits), 0.99), batchSize)
}

// ForwardValueGraph implements PolicyModel.
func (fnn *AlphaZeroFNN) ForwardValueGraph(ctx *context.Context, policyInputs []*Node) (value *Node) {
	return fnn.valueHead(ctx, fnn.trunk(ctx, policyInputs[0]))
}

// ForwardPolicyGraph implements PolicyModel.
func (fnn *AlphaZeroFNN) ForwardPolicyGraph(ctx *context.Context, policyInputs []*Node) (value *Node, policy *Node) {
	planes, mask := policyInputs[0], policyInputs[1]
	embedding := fnn.trunk(ctx, planes)
	value = fnn.valueHead(ctx, embedding)

	// Invalid actions get a large negative logit, so their probability is 0.
	logits := layers.Dense(ctx.In("policy_head"), embedding, true, fnn.actionSize())
	logits = Add(logits, MulScalar(AddScalar(mask, -1), maskedLogitPenalty))
	policy = Softmax(logits, -1)
	return
}

// getBatchMask of a batch, given the number of used elements (numUsed, an Int32 scalar) from it.
// It returns a boolean mask shaped [batchSize, 1].
func (fnn *AlphaZeroFNN) getBatchMask(batch, numUsed *Node) *Node {
	g := batch.Graph()
	batchSize := batch.Shape().Dim(0)
	return LessThan(Iota(g, shapes.Make(dtypes.Int32, batchSize, 1), 0), numUsed)
}

// LossGraph implements PolicyModel: the sum of the mean squared error of the values and the
// cross-entropy of the policies, only over the non-padded examples.
func (fnn *AlphaZeroFNN) LossGraph(ctx *context.Context, policyInputs []*Node, labels []*Node) *Node {
	numBoards := policyInputs[2]
	valueLabels, policyLabels := labels[0], labels[1]
	value, policy := fnn.ForwardPolicyGraph(ctx, policyInputs)
	batchSize := value.Shape().Dim(0)
	batchMask := fnn.getBatchMask(value, numBoards)

	valueLoss := losses.MeanSquaredError([]*Node{valueLabels, batchMask}, []*Node{Reshape(value, batchSize, 1)})
	if !valueLoss.IsScalar() {
		valueLoss = ReduceAllMean(valueLoss)
	}

	// Cross-entropy, with the log of the probabilities clipped to avoid infinities.
	perExample := Neg(ReduceSum(Mul(policyLabels, Log(AddScalar(policy, 1e-7))), -1))
	perExample = Mul(perExample, ConvertDType(Reshape(batchMask, batchSize), dtypes.Float32))
	policyLoss := Div(ReduceAllSum(perExample), ConvertDType(numBoards, dtypes.Float32))
	return Add(valueLoss, policyLoss)
}
