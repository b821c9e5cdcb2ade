// Package players provides a factory of players (AI or random) from configuration strings.
// It also allows scorer and searcher providers to register themselves.
package players

import (
	"github.com/janpfeifer/othelloGo/internal/ai"
	"github.com/janpfeifer/othelloGo/internal/parameters"
	"github.com/janpfeifer/othelloGo/internal/searchers"
	. "github.com/janpfeifer/othelloGo/internal/state"
	"github.com/pkg/errors"
	"strings"
)

// Player is anything that is able to play the game.
type Player interface {
	// Play returns the action chosen, the next board position (after the action is taken)
	// and optionally the current board score and the policy (probabilities over board.Derived.Actions)
	// predicted by the player: these can be used for training.
	Play(board *Board) (action Action, nextBoard *Board, score float32, policy []float32, err error)

	// Finalize is called at the end of a match.
	Finalize()
}

// ScorerBuilder creates a scorer from the given parameters, consuming the ones it uses.
// If the parameters don't select the scorer, it returns nil and no error.
type ScorerBuilder func(params parameters.Params) (ai.ValueScorer, error)

// SearcherBuilder creates a searcher from the given parameters, consuming the ones it uses.
// If the parameters don't select the searcher, it returns nil and no error.
type SearcherBuilder func(scorer ai.ValueScorer, params parameters.Params) (searchers.Searcher, error)

var (
	// RegisteredScorers is the list of available scorers. Packages implementing scorers append to it
	// during initialization.
	RegisteredScorers []ScorerBuilder

	// RegisteredSearchers is the list of available searchers. Packages implementing searchers append to it
	// during initialization.
	RegisteredSearchers []SearcherBuilder
)

var (
	// DefaultPlayerConfig is used if no configuration was given to the AI. The value may be changed by the
	// UI built.
	DefaultPlayerConfig = "linear,ab,max_depth=2"
)

// New creates a new player given the configuration string.
//
// Args:
//
//   - config: a comma-separated list of parameters with optional values associated, optionally prefixed by
//     a module name followed by a colon (e.g.: "random:seed=3").
//     If empty, the default is given by DefaultPlayerConfig.
//
// Modules:
//
//   - "random": a player that picks uniformly among the valid actions. Optional parameter "seed".
//   - Otherwise, a SearcherScorer, see NewSearcherScorer. E.g.: "a0fnn=models/6x6,mcts,num_mcts_sims=25".
//
// Unknown parameters are reported as errors.
func New(config string) (Player, error) {
	if config == "" {
		config = DefaultPlayerConfig
	}
	if moduleSplit := strings.Index(config, ":"); moduleSplit != -1 && !strings.ContainsAny(config[:moduleSplit], "=,") {
		config = config[:moduleSplit] + "," + config[moduleSplit+1:]
	}
	params := parameters.NewFromConfigString(config)

	var player Player
	isRandom, err := parameters.PopParamOr(params, "random", false)
	if err != nil {
		return nil, err
	}
	if isRandom {
		var seed int
		seed, err = parameters.PopParamOr(params, "seed", 0)
		if err != nil {
			return nil, err
		}
		player = NewRandomPlayer(uint64(seed))
	} else {
		player, err = NewSearcherScorer(params)
		if err != nil {
			return nil, errors.WithMessagef(err, "failed to create AI player %q", config)
		}
	}

	// Check that all parameters were processed.
	if err = parameters.CheckAllUsed(params); err != nil {
		return nil, errors.WithMessagef(err, "player configuration %q", config)
	}
	return player, nil
}
