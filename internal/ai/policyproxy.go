package ai

import (
	"github.com/chewxy/math32"
	. "github.com/janpfeifer/othelloGo/internal/state"
	"slices"
)

// PolicyProxy implement a PolicyScorer that wraps a common ValueScorer.
// It scores the policy by using the score of the state of each action taken.
//
// It allows the scorer to work with MCTS (Monte Carlo Tree Search) searcher.
//
// It is not a PolicyLearner though, that requires a proper PolicyScorer model.
type PolicyProxy struct {
	ValueScorer
	batchScorer BatchValueScorer
	scale       float32
}

// NewPolicyProxy returns a proxy PolicyScorer that takes a ValueScorer to score the board states
// for each action, passes the output to a Softmax and return that probability as a policy.
// It also takes scale as a multiplier before the Softmax.
func NewPolicyProxy(scorer ValueScorer, scale float32) PolicyScorer {
	p := &PolicyProxy{
		ValueScorer: scorer,
		scale:       scale,
	}
	if batchScorer, ok := scorer.(BatchValueScorer); ok {
		p.batchScorer = batchScorer
	} else {
		p.batchScorer = BatchScorerProxy{scorer}
	}
	return p
}

// PolicyScore implements PolicyScorer.
func (p *PolicyProxy) PolicyScore(board *Board) []float32 {
	nextBoards := board.TakeAllActions()
	scores := p.batchScorer.BatchScore(nextBoards)
	for ii, nextBoard := range nextBoards {
		// Scores are from the point of view of the player moving next, that is the opponent.
		if isEnd, endScore := IsEndGameAndScore(nextBoard); isEnd {
			scores[ii] = endScore
		}
		scores[ii] = -p.scale * scores[ii]
	}
	return Softmax(scores)
}

// Softmax returns the Softmax of the given logits in a numerically stable way.
func Softmax(logits []float32) (probs []float32) {
	probs = make([]float32, len(logits))
	if len(logits) == 0 {
		return
	}
	var sum float32

	// Subtract maxValue from all logits keep the probability the same, but makes for more numerically stable
	// logits.
	maxValue := slices.Max(logits)
	for ii, value := range logits {
		probs[ii] = math32.Exp(value - maxValue)
		sum += probs[ii]
	}
	for ii := range probs {
		probs[ii] /= sum
	}
	return
}
