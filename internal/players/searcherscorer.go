package players

import (
	"fmt"
	"github.com/janpfeifer/othelloGo/internal/ai"
	"github.com/janpfeifer/othelloGo/internal/parameters"
	"github.com/janpfeifer/othelloGo/internal/searchers"
	. "github.com/janpfeifer/othelloGo/internal/state"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// SearcherScorer is a standard set up for an AI: a searcher and a scorer.
// It implements the Player interface.
type SearcherScorer struct {
	Searcher searchers.Searcher
	Scorer   ai.ValueScorer

	// ValueLearner and PolicyLearner are set if the Scorer is also a learner.
	ValueLearner  ai.ValueLearner
	PolicyLearner ai.PolicyLearner
}

// NewSearcherScorer creates a new AI player given the parameters, which are consumed as they are used.
// Exactly one scorer (e.g. "linear" or "a0fnn") and one searcher (e.g. "ab" or "mcts") must be defined.
//
// Typical parameters:
//
//   - linear (string): Configure to use the linear scorer. Default value is "best", and other valid values are
//     "v0" or a path to the linear model to be loaded.
//   - a0fnn (string): Path to the GoMLX AlphaZero model checkpoint.
//   - ab (bool): If to use Alpha-Beta pruning search algorithm.
//   - mcts (bool): Use MCTS (Monte Carlo Tree Search) algorithm.
//   - randomness (float): Adds a layer of randomness in the search: the first level choice is
//     distributed according to a softmax of the policy of each move, divided by this value.
//     So lower values (closer to 0) means less randomness, higher value means more randomness,
//     hence more exploration. Default is 0. Only used by searchers that return a policy.
//   - max_move_randomness (int): Move number after which no randomness is used.
//
// More details on the parameters are dependent on the scorer and searcher used.
func NewSearcherScorer(params parameters.Params) (*SearcherScorer, error) {
	if len(RegisteredScorers) == 0 {
		return nil, errors.New("no registered scorers. Perhaps you need to import _ \"github.com/janpfeifer/othelloGo/internal/players/default\" to your binary ?")
	}
	if len(RegisteredSearchers) == 0 {
		return nil, errors.New("no registered searchers. Perhaps you need to import _ \"github.com/janpfeifer/othelloGo/internal/players/default\" to your binary ?")
	}
	player := &SearcherScorer{}

	// Find scorer.
	for _, builder := range RegisteredScorers {
		s, err := builder(params)
		if err != nil {
			return nil, err
		}
		if s == nil {
			// Not this type of scorer.
			continue
		}
		if player.Scorer != nil {
			return nil, errors.Errorf("multiple scorers defined (%s and %s)", player.Scorer, s)
		}
		player.Scorer = s
	}
	if player.Scorer == nil {
		return nil, errors.New("no scorers defined")
	}

	// Find searcher.
	for _, builder := range RegisteredSearchers {
		s, err := builder(player.Scorer, params)
		if err != nil {
			return nil, err
		}
		if s == nil {
			continue
		}
		if player.Searcher != nil {
			return nil, errors.New("multiple searchers defined")
		}
		player.Searcher = s
	}
	if player.Searcher == nil {
		return nil, errors.New("no searchers defined")
	}

	// Optional randomness.
	randomness, err := parameters.PopParamOr(params, "randomness", float32(0))
	if err != nil {
		return nil, err
	}
	maxMoveRandomness, err := parameters.PopParamOr(params, "max_move_randomness", 0)
	if err != nil {
		return nil, err
	}
	player.Searcher = searchers.NewRandomizedSearcher(player.Searcher, randomness, maxMoveRandomness)

	// Check whether the scorer is also a learner.
	if learner, ok := player.Scorer.(ai.ValueLearner); ok {
		player.ValueLearner = learner
	}
	if learner, ok := player.Scorer.(ai.PolicyLearner); ok {
		player.PolicyLearner = learner
	}
	return player, nil
}

// Assert that SearchScorer is a Player.
var _ Player = &SearcherScorer{}

// String returns a description of the searcher and scorer used.
func (s *SearcherScorer) String() string {
	return fmt.Sprintf("%v with %s", s.Searcher, s.Scorer)
}

// Play implements the Player interface: it chooses an action given a Board.
func (s *SearcherScorer) Play(b *Board) (action Action, nextBoard *Board, score float32, policy []float32, err error) {
	action, nextBoard, score, policy, err = s.Searcher.Search(b)
	if err != nil {
		err = errors.WithMessagef(err, "AI (%s) failed to play move #%d", s.Scorer, b.MoveNumber)
		return
	}
	if klog.V(2).Enabled() {
		klog.Infof("Move #%d: AI (%s) playing %s, score=%.3f",
			b.MoveNumber, s.Scorer, b.ActionString(action), score)
	}
	return
}

// Finalize is called at the end of a match.
func (s *SearcherScorer) Finalize() {
	if klog.V(1).Enabled() {
		klog.Infof("Player (scorer=%s) finalized", s.Scorer)
	}
}
