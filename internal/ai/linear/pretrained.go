package linear

import (
	"github.com/janpfeifer/othelloGo/internal/ai"
	"github.com/janpfeifer/othelloGo/internal/parameters"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Embedded pre-trained linear models.

var (
	// PreTrainedV0 weights were hand-tuned following classic Othello heuristics: mobility and corners
	// are good, giving away corners (X-squares and C-squares) and having a large frontier is bad.
	PreTrainedV0 = NewWithWeights(
		// NumDisks -> 2
		0.5, -0.5,

		// Mobility -> 2
		1.5, -1.5,

		// Corners -> 2
		3.0, -3.0,

		// XSquares -> 2
		-1.5, 1.5,

		// CSquares -> 2
		-0.8, 0.8,

		// Edges -> 2
		0.6, -0.6,

		// Frontier -> 2
		-0.8, 0.8,

		// Parity -> 1
		0.1,

		// Progress -> 1
		0.0,

		// Bias: *Must always be last*
		0.0,
	).WithName("v0")

	// PreTrainedBest is an alias to the current best linear model.
	PreTrainedBest = PreTrainedV0.Clone().WithName("best")
)

// NewFromParams returns the linear scorer if "linear" is set, otherwise it returns nil (and no error).
// It returns an error if an unknown model or if it is a path to file, and it can't load or parse it.
func NewFromParams(params parameters.Params) (ai.ValueScorer, error) {
	if _, found := params["linear"]; !found {
		return nil, nil
	}
	modelName, err := parameters.PopParamOr(params, "linear", "best")
	if err != nil {
		return nil, err
	}
	if modelName == "" {
		modelName = "best"
	}
	var selected *Scorer
	for _, scorer := range []*Scorer{PreTrainedBest, PreTrainedV0} {
		if modelName == scorer.name {
			selected = scorer
		}
	}
	if selected == nil {
		selected, err = LoadOrCreate(modelName)
		if err != nil {
			err = errors.WithMessagef(err, "failed to load model \"linear=%s\"", modelName)
			return nil, err
		}
	}
	selected.LearningRate, err = parameters.PopParamOr(params, "learning_rate", selected.LearningRate)
	if err != nil {
		return nil, err
	}
	selected.L2Reg, err = parameters.PopParamOr(params, "l2_reg", selected.L2Reg)
	if err != nil {
		return nil, err
	}

	klog.V(1).Infof("Linear model %s with %d features\n", selected, selected.NumFeatures())
	return selected, nil
}
