package searchers

import (
	"fmt"
	"github.com/gomlx/exceptions"
	"github.com/janpfeifer/othelloGo/internal/ai"
	. "github.com/janpfeifer/othelloGo/internal/state"
	"k8s.io/klog/v2"
	"math/rand/v2"
)

// NewRandomizedSearcher adds randomness to the action taken by an existing Searcher.
// Args:
//
//   - searcher: Baseline Searcher.
//   - randomness (>=0): Amount of randomness to use: it is applied as a divisor to the scores
//     returned by the Searcher, except if there is a winning move.
//     The larger the value the more it leads to randomness (exploration), and lower values
//     lead to "pick the best scoring move" (exploitation), with zero meaning no randomness.
//   - maxMoveRandomness: starting at this move no more randomness is used. This allows
//     randomness to be used only earlier in the match.
func NewRandomizedSearcher(searcher Searcher, randomness float32, maxMoveRandomness int) Searcher {
	if randomness <= 0 {
		// Without randomness, simply return the original Searcher.
		return searcher
	}
	return &randomizedSearcher{searcher: searcher, randomness: randomness, maxMoveRandomness: maxMoveRandomness}
}

// randomizedSearcher is a meta Searcher, that introduces randomness to its scorer.
type randomizedSearcher struct {
	searcher          Searcher
	randomness        float32
	maxMoveRandomness int
}

// Assert randomizedSearcher is a Searcher.
var _ Searcher = &randomizedSearcher{}

// String implements fmt.Stringer.
func (rs *randomizedSearcher) String() string {
	return fmt.Sprintf("%v+randomness=%g", rs.searcher, rs.randomness)
}

// Search implements the Searcher interface.
func (rs *randomizedSearcher) Search(board *Board) (chosenAction Action, nextBoard *Board, score float32, policy []float32, err error) {
	actions := board.Derived.Actions

	// Get scores from base searcher for current board.
	chosenAction, nextBoard, score, policy, err = rs.searcher.Search(board)
	if err != nil {
		return
	}

	// If we reached the max move number for randomness, or if the searcher doesn't return a policy,
	// or if there is only one action possible, or if it is an end-game move, we don't add any randomness.
	if (rs.maxMoveRandomness > 0 && board.MoveNumber >= rs.maxMoveRandomness) || nextBoard.IsFinished() || len(policy) <= 1 {
		return
	}
	if len(policy) != len(actions) {
		exceptions.Panicf("randomizedSearcher: Searcher returned %d policy values, but board has %d actions!?", len(policy), len(actions))
	}

	// Calculate probability for each action.
	logits := make([]float32, len(policy))
	for ii, prob := range policy {
		logits[ii] = prob / rs.randomness
	}
	probabilities := ai.Softmax(logits)

	// Select from probabilities.
	chance := rand.Float32()
	for actionIdx, value := range probabilities {
		if chance > value && actionIdx < len(probabilities)-1 {
			chance -= value
			continue
		}

		// Found the new action:
		if klog.V(2).Enabled() {
			klog.Infof("randomizedSearcher selection: action=%s, prob=%.3f", board.ActionString(actions[actionIdx]), policy[actionIdx])
		}
		if actions[actionIdx] == chosenAction {
			// randomizedSearcher chose the same as the base searcher.
			return
		}
		chosenAction = actions[actionIdx]
		nextBoard = board.TakeAllActions()[actionIdx]
		return
	}
	return
}
