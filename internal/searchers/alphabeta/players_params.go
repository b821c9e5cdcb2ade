package alphabeta

import (
	"github.com/janpfeifer/othelloGo/internal/ai"
	"github.com/janpfeifer/othelloGo/internal/parameters"
	"github.com/janpfeifer/othelloGo/internal/searchers"
	"github.com/pkg/errors"
)

// NewFromParams creates an alpha-beta pruning searcher if "ab" (or "alphabeta") is set in params, otherwise it
// returns nil (and no error).
//
// Parameters:
//
//   - max_depth (int): Max depth of search in plies, default is 3. Ignored if max_time is set.
//   - max_time (time.Duration): Max time per search, deepening the search one ply at a time.
//   - noise (float): Standard deviation of the gaussian noise added to the leaf scores. Default is 0.
//   - max_move_noise (int): Move number after which no more noise is added.
func NewFromParams(scorer ai.ValueScorer, params parameters.Params) (searchers.Searcher, error) {
	if value, found := parameters.PopFirstParam(params, "false", "ab", "alphabeta"); !found || value == "false" {
		return nil, nil
	}
	ab := New(scorer)
	maxDepth, err := parameters.PopParamOr(params, "max_depth", DefaultMaxDepth)
	if err != nil {
		return nil, err
	}
	if maxDepth < 1 {
		return nil, errors.Errorf("invalid max_depth=%d, it must be >= 1", maxDepth)
	}
	ab.WithMaxDepth(maxDepth)
	maxTime, err := parameters.PopParamOr(params, "max_time", ab.maxTime)
	if err != nil {
		return nil, err
	}
	if maxTime > 0 {
		ab.WithMaxTime(maxTime)
	}
	noise, err := parameters.PopParamOr(params, "noise", float32(0))
	if err != nil {
		return nil, err
	}
	if noise < 0 {
		return nil, errors.Errorf("negative noise (%f given) not possible", noise)
	}
	ab.WithRandomness(noise)
	maxMoveNoise, err := parameters.PopParamOr(params, "max_move_noise", 0)
	if err != nil {
		return nil, err
	}
	ab.WithMaxMoveRandomness(maxMoveNoise)
	return ab, nil
}
