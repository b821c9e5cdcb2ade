// Package gomlx implements PolicyScorer (for MCTS/AlphaZero searchers) and the GoMLX models that support it.
//
// For now only FNN (Feedforward Neural Network) models are implemented, over the board planes (see
// features.Planes). Importing this package registers the "a0fnn" scorer in the players package.
package gomlx

import (
	"github.com/gomlx/gomlx/backends"
	"github.com/gomlx/gomlx/ml/context"
	"github.com/janpfeifer/othelloGo/internal/ai"
	"github.com/janpfeifer/othelloGo/internal/parameters"
	"github.com/janpfeifer/othelloGo/internal/players"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
	"sync"
	"weak"
)

// ModelType of the GoMLX models supported.
type ModelType int

const (
	ModelNone ModelType = iota
	ModelAlphaZeroFNN
)

var modelTypeNames = []string{"none", "a0fnn"}

// String returns the name of the model type, also used as the parameter key to select it.
func (m ModelType) String() string {
	if m < 0 || int(m) >= len(modelTypeNames) {
		return "unknown"
	}
	return modelTypeNames[m]
}

// ModelTypeValues returns all ModelType values.
func ModelTypeValues() []ModelType {
	return []ModelType{ModelNone, ModelAlphaZeroFNN}
}

var (
	// Backend is a singleton, the same for all players.
	backend = sync.OnceValue(func() backends.Backend { return backends.New() })

	// muNewClient is a Mutex used to synchronize access to GoMLX client initialization
	// or related critical sections.
	muNewClient sync.Mutex

	// Cache of models: per model type / checkpoint name.
	muModelsCache sync.Mutex
	modelsCache   = make(map[string]map[string]weak.Pointer[PolicyScorer])
)

const notSpecified = "#<not_specified>"

// New creates a new GoMLX based scorer/learner if the supported model is selected in parameters.
// Currently selected model names:
//
//   - "a0fnn": the parameter should map to the checkpoint directory with the model weights. If the directory
//     doesn't exist, it fails, unless the parameter "create" is set, in which case a model is created
//     with random weights. It's a PolicyScorer and a PolicyLearner.
//
// Scorers are cached per checkpoint directory, as long as they are in use.
//
// If no known model type is configured, it returns nil, nil.
func New(params parameters.Params) (*PolicyScorer, error) {
	muModelsCache.Lock()
	defer muModelsCache.Unlock()

	for _, modelType := range ModelTypeValues() {
		if modelType == ModelNone {
			continue
		}
		key := modelType.String()
		filePath, _ := parameters.PopParamOr(params, key, notSpecified)
		if filePath == notSpecified {
			continue
		}

		// Check cache for previously created models.
		cachePerModelType, found := modelsCache[key]
		if found {
			if weakPtr, found := cachePerModelType[filePath]; found {
				if strongPtr := weakPtr.Value(); strongPtr != nil {
					if err := consumeCachedParams(strongPtr, params); err != nil {
						return nil, err
					}
					klog.V(1).Infof("Reusing scorer %s", strongPtr)
					return strongPtr, nil
				}
				// weak scorer has been collected.
				delete(cachePerModelType, filePath)
			}
		} else {
			cachePerModelType = make(map[string]weak.Pointer[PolicyScorer])
			modelsCache[key] = cachePerModelType
		}

		// Create model and context.
		var scorer *PolicyScorer
		var err error
		switch modelType {
		case ModelAlphaZeroFNN:
			scorer, err = newPolicyScorer(modelType, filePath, NewAlphaZeroFNN(), params)
			if err != nil {
				return nil, err
			}
		default:
			return nil, errors.Errorf("model type %s defined but not implemented", modelType)
		}
		if filePath != "" {
			cachePerModelType[filePath] = weak.Make(scorer)
		}
		klog.V(1).Infof("Created new scorer %s", scorer)
		return scorer, nil
	}
	return nil, nil
}

// init registers New as a potential scorer, so end users can use it.
func init() {
	players.RegisteredScorers = append(players.RegisteredScorers,
		func(params parameters.Params) (ai.ValueScorer, error) {
			scorer, err := New(params)
			if scorer == nil || err != nil {
				return nil, err
			}
			return scorer, nil
		})
}

// extractParams and write them as context hyperparameters
func extractParams(modelName string, params parameters.Params, ctx *context.Context) error {
	var err error
	ctx.EnumerateParams(func(scope, key string, valueAny any) {
		if err != nil {
			// If error happened skip the rest.
			return
		}
		if scope != context.RootScope {
			return
		}
		switch defaultValue := valueAny.(type) {
		case string:
			value, _ := parameters.PopParamOr(params, key, defaultValue)
			ctx.SetParam(key, value)
		case int:
			value, newErr := parameters.PopParamOr(params, key, defaultValue)
			if newErr != nil {
				err = errors.WithMessagef(newErr, "parsing %q (int) for model %s", key, modelName)
				return
			}
			ctx.SetParam(key, value)
		case float64:
			value, newErr := parameters.PopParamOr(params, key, defaultValue)
			if newErr != nil {
				err = errors.WithMessagef(newErr, "parsing %q (float64) for model %s", key, modelName)
				return
			}
			ctx.SetParam(key, value)
		case float32:
			value, newErr := parameters.PopParamOr(params, key, defaultValue)
			if newErr != nil {
				err = errors.WithMessagef(newErr, "parsing %q (float32) for model %s", key, modelName)
				return
			}
			ctx.SetParam(key, value)
		case bool:
			value, newErr := parameters.PopParamOr(params, key, defaultValue)
			if newErr != nil {
				err = errors.WithMessagef(newErr, "parsing %q (bool) for model %s", key, modelName)
				return
			}
			ctx.SetParam(key, value)
		default:
			err = errors.Errorf("model %s parameter %q is of unknown type %T", modelName, key, defaultValue)
		}
	})
	return err
}

// consumeCachedParams pops from params the model parameters of a scorer reused from the cache.
// It fails if any of them differs from the value the scorer was created with.
func consumeCachedParams(s *PolicyScorer, params parameters.Params) error {
	if _, err := parameters.PopParamOr(params, "create", false); err != nil {
		return err
	}
	if err := popSameParam(s, params, "keep", s.checkpointsToKeep); err != nil {
		return err
	}
	var err error
	s.model.Context().EnumerateParams(func(scope, key string, valueAny any) {
		if err != nil || scope != context.RootScope {
			return
		}
		switch current := valueAny.(type) {
		case string:
			err = popSameParam(s, params, key, current)
		case int:
			err = popSameParam(s, params, key, current)
		case float64:
			err = popSameParam(s, params, key, current)
		case float32:
			err = popSameParam(s, params, key, current)
		case bool:
			err = popSameParam(s, params, key, current)
		}
	})
	return err
}

// popSameParam pops key from params, if present, and checks it matches current.
func popSameParam[T parameters.Value](s *PolicyScorer, params parameters.Params, key string, current T) error {
	if _, found := params[key]; !found {
		return nil
	}
	value, err := parameters.PopParamOr(params, key, current)
	if err != nil {
		return errors.WithMessagef(err, "parsing %q for model %s in %q", key, s.Type, s.filePath)
	}
	if value != current {
		return errors.Errorf("model %s in %q is already loaded with %s=%v, it can't be reconfigured to %v",
			s.Type, s.filePath, key, current, value)
	}
	return nil
}
