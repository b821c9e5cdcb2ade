package gomlx

import (
	"bytes"
	"fmt"
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gomlx/graph"
	"github.com/gomlx/gomlx/ml/context"
	"github.com/gomlx/gomlx/ml/context/checkpoints"
	"github.com/gomlx/gomlx/ml/train"
	"github.com/gomlx/gomlx/ml/train/optimizers"
	"github.com/gomlx/gomlx/types/tensors"
	"github.com/janpfeifer/othelloGo/internal/ai"
	"github.com/janpfeifer/othelloGo/internal/generics"
	"github.com/janpfeifer/othelloGo/internal/parameters"
	"github.com/janpfeifer/othelloGo/internal/state"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
	"os"
	"slices"
	"sync"
)

// PolicyScorer implements a generic GoMLX scorer for Othello, to be used with the MCTS searcher.
// It models both the value of the board and the policy (the probability of each action).
//
// It implements ai.PolicyScorer, ai.BatchValueScorer and ai.PolicyLearner.
//
// It is just a wrapper around on of the models implemented.
type PolicyScorer struct {
	Type ModelType

	// filePath passed to the model, where it is saved.
	filePath string

	// model used by the scorer.
	model PolicyModel

	// Executors.
	valueScoreExec, policyScoreExec, lossExec, trainStepExec *context.Exec

	// Number of input tensors for the executors: they are defined at the first call to
	// PolicyModel.CreatePolicyInputs and PolicyModel.CreatePolicyLabels, and must remain constant.
	// Before they are defined, they are temporarily set as -1.
	numPolicyInputTensors, numLabelTensors int

	// checkpoint handler, if model is being saved/loaded to/from disk.
	checkpoint *checkpoints.Handler

	// checkpointsToKeep is the number of copies of older checkpoints to keep around.
	// Default to 10.
	checkpointsToKeep int

	// Hyperparameters cached values: they should also be set in modelCtx.
	batchSize, boardSize int

	// muLearning "write" for learning, and "read" for scoring.
	muLearning sync.RWMutex

	// muInputs protects the lazy definition of numPolicyInputTensors and numLabelTensors.
	muInputs sync.Mutex

	// optimizer used when training the model.
	optimizer optimizers.Interface

	// numCompilations of computation graphs.
	NumCompilations int

	// muSave makes saving sequential.
	muSave sync.Mutex
}

var (
	// Assert PolicyScorer is an ai.PolicyScorer, an ai.BatchValueScorer and an ai.PolicyLearner.
	_ ai.PolicyScorer     = (*PolicyScorer)(nil)
	_ ai.BatchValueScorer = (*PolicyScorer)(nil)
	_ ai.PolicyLearner    = (*PolicyScorer)(nil)
)

// newPolicyScorer returns a gomlx.PolicyScorer for the given PolicyModel.
//
// If filePath is empty the model is not associated to any checkpoint. Otherwise, the checkpoint directory
// must exist, unless the parameter "create" is set.
//
// Panics from GoMLX (e.g.: when loading a corrupt checkpoint) are converted to errors.
func newPolicyScorer(modelType ModelType, filePath string, model PolicyModel, params parameters.Params) (*PolicyScorer, error) {
	s := &PolicyScorer{
		Type:                  modelType,
		filePath:              filePath,
		model:                 model,
		numPolicyInputTensors: -1,
		numLabelTensors:       -1,
	}

	// Help if requested.
	if slices.Index([]string{"help", "--help", "-help", "-h"}, filePath) != -1 {
		s.writeHyperparametersHelp()
		return nil, errors.Errorf("model type %s help requested", modelType)
	}

	// Checkpoint model.
	var err error
	s.checkpointsToKeep, err = parameters.PopParamOr(params, "keep", 10)
	if err != nil {
		return nil, err
	}
	create, err := parameters.PopParamOr(params, "create", false)
	if err != nil {
		return nil, err
	}
	checkpointExists := false
	if filePath != "" {
		_, statErr := os.Stat(filePath)
		switch {
		case statErr == nil:
			checkpointExists = true
		case os.IsNotExist(statErr) && create:
			klog.Infof("Creating new model %s in %q", modelType, filePath)
		default:
			return nil, errors.Wrapf(statErr, "model %s checkpoint %q not available (set \"create\" to create a new model)",
				modelType, filePath)
		}
	}
	var connectErr error
	err = exceptions.TryCatch[error](func() { connectErr = s.connectCheckpointHandler() })
	if err == nil {
		err = connectErr
	}
	if err != nil {
		return nil, err
	}
	loadedBoardSize := s.model.BoardSize()

	// Create the backend.
	_ = backend()

	// Overwrite hyperparameters from given params.
	err = extractParams(s.Type.String(), params, s.model.Context())
	if err != nil {
		return nil, err
	}
	ctx := s.model.Context()
	s.batchSize = context.GetParamOr(ctx, "batch_size", 128)
	s.boardSize = s.model.BoardSize()
	if checkpointExists && loadedBoardSize != s.boardSize {
		return nil, errors.Errorf("model %s in %q was trained for board_size=%d, it can't be changed to %d",
			modelType, filePath, loadedBoardSize, s.boardSize)
	}
	if s.boardSize < state.MinBoardSize || s.boardSize > state.MaxBoardSize || s.boardSize%2 != 0 {
		return nil, errors.Errorf("model %s: invalid board_size=%d", modelType, s.boardSize)
	}

	// Create optimizer to be used in training.
	s.optimizer = optimizers.FromContext(ctx)
	err = exceptions.TryCatch[error](s.createExecutors)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to build model %s", s)
	}
	return s, nil
}

func (s *PolicyScorer) connectCheckpointHandler() error {
	if s.filePath == "" {
		return nil
	}
	if err := s.createCheckpoint(s.filePath); err != nil {
		return errors.WithMessagef(err, "failed to build checkpoint for model %s in path %s",
			s.Type, s.filePath)
	}
	return nil
}

func (s *PolicyScorer) createExecutors() {
	muNewClient.Lock()
	defer muNewClient.Unlock()
	ctx := s.model.Context().Checked(false)
	s.valueScoreExec = context.NewExec(backend(), ctx,
		func(ctx *context.Context, policyInputs []*graph.Node) *graph.Node {
			s.NumCompilations++
			return s.model.ForwardValueGraph(ctx, policyInputs)
		})
	s.policyScoreExec = context.NewExec(backend(), ctx,
		func(ctx *context.Context, policyInputs []*graph.Node) []*graph.Node {
			s.NumCompilations++
			value, policy := s.model.ForwardPolicyGraph(ctx, policyInputs)
			return []*graph.Node{value, policy}
		})
	s.lossExec = context.NewExec(backend(), ctx,
		func(ctx *context.Context, inputsAndLabels []*graph.Node) *graph.Node {
			s.NumCompilations++
			inputs := inputsAndLabels[:s.numPolicyInputTensors]
			labels := inputsAndLabels[s.numPolicyInputTensors:]
			loss := s.model.LossGraph(ctx, inputs, labels)
			if !loss.IsScalar() {
				// Some losses may return one value per example of the batch.
				loss = graph.ReduceAllMean(loss)
			}
			return loss
		})
	s.lossExec.SetMaxCache(100)
	s.trainStepExec = context.NewExec(backend(), s.model.Context(),
		func(ctx *context.Context, inputsAndLabels []*graph.Node) *graph.Node {
			s.NumCompilations++
			g := inputsAndLabels[0].Graph()
			ctx.SetTraining(g, true)
			inputs := inputsAndLabels[:s.numPolicyInputTensors]
			labels := inputsAndLabels[s.numPolicyInputTensors:]
			loss := s.model.LossGraph(ctx, inputs, labels)
			s.optimizer.UpdateGraph(ctx, g, loss)
			train.ExecPerStepUpdateGraphFn(ctx, g)
			return loss
		})
	s.trainStepExec.SetMaxCache(100)

	// Force creating/loading of variables without race conditions first.
	board := state.NewBoard(s.boardSize)
	_ = s.PolicyScore(board)
	_ = s.Score(board)
}

// String implements fmt.Stringer and ai.PolicyScorer.
func (s *PolicyScorer) String() string {
	if s == nil {
		return "<nil>[GoMLX]"
	}
	gomlxName := fmt.Sprintf("[GoMLX/%s]", backend().Name())
	if s.checkpoint == nil || s.checkpoint.Dir() == "" {
		return fmt.Sprintf("%s%s", s.Type, gomlxName)
	}
	return fmt.Sprintf("%s%s@%s", s.Type, gomlxName, s.checkpoint.Dir())
}

// BoardSize the model was trained for.
func (s *PolicyScorer) BoardSize() int {
	return s.boardSize
}

// Score implements ai.PolicyScorer (which includes ai.ValueScorer).
func (s *PolicyScorer) Score(board *state.Board) float32 {
	return s.BatchScore([]*state.Board{board})[0]
}

// BatchScore implements ai.BatchValueScorer. All boards are evaluated in one call to the model.
func (s *PolicyScorer) BatchScore(boards []*state.Board) []float32 {
	inputs := s.createPolicyInputs(boards)
	s.muLearning.RLock()
	defer s.muLearning.RUnlock()
	donatedInputs := generics.SliceMap(inputs, func(t *tensors.Tensor) any {
		return graph.DonateTensorBuffer(t, backend())
	})
	scoresT := s.valueScoreExec.Call(donatedInputs...)[0]
	return tensors.CopyFlatData[float32](scoresT)[:len(boards)]
}

// createPolicyInputs is a wrapper over s.model.CreatePolicyInputs that asserts the number of inputs hasn't changed.
func (s *PolicyScorer) createPolicyInputs(boards []*state.Board) []*tensors.Tensor {
	inputs := s.model.CreatePolicyInputs(boards)
	s.muInputs.Lock()
	defer s.muInputs.Unlock()
	if s.numPolicyInputTensors == -1 {
		s.numPolicyInputTensors = len(inputs)
	} else {
		if len(inputs) != s.numPolicyInputTensors {
			exceptions.Panicf("model %s: expected %d policy inputs, got %d",
				s, s.numPolicyInputTensors, len(inputs))
		}
	}
	return inputs
}

// PolicyScore implements ai.PolicyScorer.
//
// It returns the probabilities of the valid actions only, in the order of board.Derived.Actions.
func (s *PolicyScorer) PolicyScore(board *state.Board) []float32 {
	inputs := s.createPolicyInputs([]*state.Board{board})
	s.muLearning.RLock()
	defer s.muLearning.RUnlock()
	donatedInputs := generics.SliceMap(inputs, func(t *tensors.Tensor) any {
		return graph.DonateTensorBuffer(t, backend())
	})
	policyScoresT := s.policyScoreExec.Call(donatedInputs...)[1]
	paddedPolicyScores := tensors.CopyFlatData[float32](policyScoresT)
	probs := ai.ContractPolicy(board, paddedPolicyScores[:board.ActionSize()])

	// Renormalize: the invalid actions have a residual probability due to float precision.
	sum := generics.Sum(probs)
	if sum > 0 {
		for ii := range probs {
			probs[ii] /= sum
		}
	}
	return probs
}

// Learn implements ai.PolicyLearner, and trains model with the new boards and its labels.
//
// The input should be one batch, and this performs one "training step".
//
// It returns the loss.
func (s *PolicyScorer) Learn(boards []*state.Board, valueLabels []float32, policyLabels [][]float32) (loss float32) {
	inputsAndLabels := s.createInputsAndLabels(boards, valueLabels, policyLabels)
	s.muLearning.Lock()
	defer s.muLearning.Unlock()
	lossT := s.trainStepExec.Call(inputsAndLabels...)[0]
	return tensors.ToScalar[float32](lossT)
}

// Loss returns a measure of loss for the model -- whatever it is.
func (s *PolicyScorer) Loss(boards []*state.Board, valueLabels []float32, policyLabels [][]float32) (loss float32) {
	inputsAndLabels := s.createInputsAndLabels(boards, valueLabels, policyLabels)
	s.muLearning.RLock()
	defer s.muLearning.RUnlock()
	lossT := s.lossExec.Call(inputsAndLabels...)[0]
	return tensors.ToScalar[float32](lossT)
}

func (s *PolicyScorer) createInputsAndLabels(boards []*state.Board, valueLabels []float32, policyLabels [][]float32) []any {
	inputs := s.createPolicyInputs(boards)
	labels := s.model.CreatePolicyLabels(valueLabels, policyLabels)
	s.muInputs.Lock()
	if s.numLabelTensors == -1 {
		s.numLabelTensors = len(labels)
	} else if len(labels) != s.numLabelTensors {
		s.muInputs.Unlock()
		exceptions.Panicf("model %s: expected %d policy label tensors, got %d", s, s.numLabelTensors, len(labels))
	}
	s.muInputs.Unlock()
	inputs = append(inputs, labels...)
	donatedInputs := generics.SliceMap(inputs, func(t *tensors.Tensor) any {
		return graph.DonateTensorBuffer(t, backend())
	})
	return donatedInputs
}

// Save should save the model.
func (s *PolicyScorer) Save() error {
	if s.checkpoint == nil {
		klog.Warningf("This %s model is not associated to a checkpoint directory,  not saving", s.Type)
		return nil
	}
	s.muSave.Lock()
	defer s.muSave.Unlock()
	s.muLearning.RLock()
	defer s.muLearning.RUnlock()
	return s.checkpoint.Save()
}

// BatchSize returns the recommended batch size and implements ai.PolicyLearner.
func (s *PolicyScorer) BatchSize() int {
	return s.batchSize
}

// writeHyperparametersHelp enumerates all the hyperparameters set in the context.
func (s *PolicyScorer) writeHyperparametersHelp() {
	buf := &bytes.Buffer{}
	_, _ = fmt.Fprintf(buf, "Model %s parameters:\n", s.Type)
	_, _ = fmt.Fprintf(buf, "\t%s=<path_to_model> to use the model saved at the given directory, or\n", s.Type)
	_, _ = fmt.Fprintf(buf, "\t%s=<path_to_model>,create to create a new model if the directory doesn't exist, or\n", s.Type)
	_, _ = fmt.Fprintf(buf, "\t%s=-help to show this help message\n", s.Type)
	s.model.Context().EnumerateParams(func(scope, key string, value any) {
		if scope != context.RootScope {
			return
		}
		_, _ = fmt.Fprintf(buf, "\t%q: default value is %v\n", key, value)
	})
	klog.Info(buf)
}

func (s *PolicyScorer) createCheckpoint(filePath string) error {
	checkpoint, err := checkpoints.
		Build(s.model.Context()).
		Dir(filePath).
		Immediate().
		Keep(s.checkpointsToKeep).
		Done()
	if err != nil {
		return err
	}
	s.checkpoint = checkpoint
	return nil
}

// Finalize associated model, and leaves scorer in an invalid state, but immediately frees resources.
func (s *PolicyScorer) Finalize() {
	s.valueScoreExec.Finalize()
	s.policyScoreExec.Finalize()
	s.lossExec.Finalize()
	s.trainStepExec.Finalize()
	s.model.Context().Finalize()
}
