package mcts

import (
	"github.com/janpfeifer/othelloGo/internal/ai"
	"github.com/janpfeifer/othelloGo/internal/parameters"
	"github.com/janpfeifer/othelloGo/internal/searchers"
	"github.com/pkg/errors"
	"strconv"
)

// NewFromParams creates a MCTS searcher if "mcts" is set in params, otherwise it returns nil (and no error).
//
// If the scorer is not an ai.PolicyScorer, it is wrapped with ai.NewPolicyProxy, using the parameter
// "policy_scale" as the multiplier of the scores.
//
// Parameters:
//
//   - num_mcts_sims (alias max_traverses): number of simulations per search.
//   - min_traverses: minimum number of simulations, even if max_time is reached.
//   - max_time: time limit per search.
//   - c_puct: exploration constant.
//   - temperature: temperature used to select the action played.
//   - max_rand_depth: move number after which the most visited action is always played.
func NewFromParams(scorer ai.ValueScorer, params parameters.Params) (searchers.Searcher, error) {
	isMCTS, err := parameters.PopParamOr(params, "mcts", false)
	if err != nil {
		return nil, err
	}
	if !isMCTS {
		return nil, nil
	}
	policyScorer, ok := scorer.(ai.PolicyScorer)
	if !ok {
		scale, err := parameters.PopParamOr(params, "policy_scale", float32(1))
		if err != nil {
			return nil, err
		}
		policyScorer = ai.NewPolicyProxy(scorer, scale)
	}
	mcts := New(policyScorer)
	mcts.cPuct, err = parameters.PopParamOr(params, "c_puct", mcts.cPuct)
	if err != nil {
		return nil, err
	}
	if mcts.cPuct < 0 {
		return nil, errors.Errorf("negative c_puct value (%f given) not possible", mcts.cPuct)
	}
	mcts.maxTime, err = parameters.PopParamOr(params, "max_time", mcts.maxTime)
	if err != nil {
		return nil, err
	}
	if simsStr, found := parameters.PopFirstParam(params, "", "num_mcts_sims", "max_traverses"); found {
		mcts.maxTraverses, err = strconv.Atoi(simsStr)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse configuration num_mcts_sims=%q to int", simsStr)
		}
	}
	mcts.minTraverses, err = parameters.PopParamOr(params, "min_traverses", min(mcts.minTraverses, mcts.maxTraverses))
	if err != nil {
		return nil, err
	}
	mcts.temperature, err = parameters.PopParamOr(params, "temperature", mcts.temperature)
	if err != nil {
		return nil, err
	}
	if mcts.temperature < 0 {
		return nil, errors.Errorf("negative temperature (%f given) not possible", mcts.temperature)
	}
	mcts.maxRandDepth, err = parameters.PopParamOr(params, "max_rand_depth", mcts.maxRandDepth)
	if err != nil {
		return nil, err
	}
	if mcts.maxTraverses <= 0 && mcts.maxTime <= 0 {
		return nil, errors.New("mcts requires either num_mcts_sims or max_time to be set")
	}
	return mcts, nil
}
