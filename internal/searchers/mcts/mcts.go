// Package mcts is a Monte Carlo Tree Search implementation of searchers.Searcher for
// the Alpha-Zero algorithm.
//
// References used, since the original paper doesn't actually provide the formulas:
//
//   - https://suragnair.github.io/posts/alphazero.html by Surag Nair
//   - Paper here: https://github.com/suragnair/alpha-zero-general/blob/master/pretrained_models/writeup.pdf
//   - https://web.stanford.edu/class/archive/cs/cs221/cs221.1196/sections/Section5.pdf
//
// AlphaZero original paper -- that mostly talks about its successes but not the actual
// formula:
//
//   - Mastering Chess and Shogi by Self-Play with a General Reinforcement Learning Algorithm
//     https://arxiv.org/abs/1712.01815
package mcts

import (
	"fmt"
	"github.com/chewxy/math32"
	"github.com/janpfeifer/othelloGo/internal/ai"
	"github.com/janpfeifer/othelloGo/internal/generics"
	"github.com/janpfeifer/othelloGo/internal/searchers"
	. "github.com/janpfeifer/othelloGo/internal/state"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
	"math"
	"math/rand/v2"
	"slices"
	"time"
)

// epsilon added to the visit counts in the exploration term, so the priors are used
// even before the first visit.
const epsilon = 1e-8

// Searcher implements searchers.Searcher using AlphaZero's MCTS.
// Each search builds a fresh tree rooted at the given board, so a Searcher can be shared
// by concurrent matches.
type Searcher struct {
	// maxTime defines the maximum number of time to spend thinking.
	// Either maxTime or maxTraverses must be defined.
	maxTime time.Duration

	// maxTraverses, minTraverses define the limit number of traverses to do during the search, if not zero.
	// Either maxTime or maxTraverses must be defined.
	maxTraverses, minTraverses int

	// cPuct is the degree of exploration of alpha-zero.
	cPuct float32

	// temperature (usually represented as the greek letter τ) is an exponent applied
	// to the counts used in the policy distribution (π) formula. If set to zero, it will
	// always take the best estimate action. AlphaZero Go uses 1 for the first 30 moves.
	// Larger models will make the play more random.
	temperature float32

	// maxRandDepth defines the move after which temperature is disabled and
	// it simply takes the best move, as opposed to randomly using th policy distribution.
	// A value <= 0 means there is no maxRandDepth.
	maxRandDepth int

	// scorer to use during search.
	scorer ai.PolicyScorer
}

// Assert Searcher is a searchers.Searcher.
var _ searchers.Searcher = (*Searcher)(nil)

// New creates a new MCTS searcher with the given scorer, and the default parameters:
// 100 traverses per search, c_puct=1 and temperature=1 for the first 15 moves.
//
// See the With* methods to configure it.
func New(scorer ai.PolicyScorer) *Searcher {
	return &Searcher{
		scorer:       scorer,
		maxTraverses: 100,
		minTraverses: 10,
		cPuct:        1.0,
		temperature:  1.0,
		maxRandDepth: 15,
	}
}

// WithMaxTraverses sets the number of simulations (traverses of the tree) per search.
// If 0, the search is limited only by WithMaxTime.
func (s *Searcher) WithMaxTraverses(maxTraverses int) *Searcher {
	s.maxTraverses = maxTraverses
	return s
}

// WithMaxTime limits the time spent per search. Set to 0 for no time limit.
func (s *Searcher) WithMaxTime(maxTime time.Duration) *Searcher {
	s.maxTime = maxTime
	return s
}

// WithCPuct sets the exploration constant.
func (s *Searcher) WithCPuct(cPuct float32) *Searcher {
	s.cPuct = cPuct
	return s
}

// WithTemperature sets the temperature used to select the action played by Search.
// Zero means always the most visited action.
func (s *Searcher) WithTemperature(temperature float32) *Searcher {
	s.temperature = temperature
	return s
}

// String returns a description of the searcher configuration.
func (s *Searcher) String() string {
	if s.maxTime > 0 {
		return fmt.Sprintf("mcts(max_time=%s,c_puct=%g,temperature=%g)", s.maxTime, s.cPuct, s.temperature)
	}
	return fmt.Sprintf("mcts(num_mcts_sims=%d,c_puct=%g,temperature=%g)", s.maxTraverses, s.cPuct, s.temperature)
}

type searchStats struct {
	// Number of candidate nodes generated during search: used for performance measures.
	numCacheNodes int
}

// cacheNode holds information about the possible actions of a board.
type cacheNode struct {
	// Board, actions, children boards and children base scores.
	board *Board

	// actionsProbs are the model actions probabilities.
	actionsProbs []float32

	// Children cacheNodes.
	cacheNodes []*cacheNode

	// N is the count per action of which paths have been traversed.
	N []int

	// sumN holds the sum of all values of N.
	sumN int

	// sumScores of the score of taking the corresponding action at the current board.
	// If N[a] > 0, we have $Q(s, a) = sumScores[a]/N[a]$.
	sumScores []float32
}

// newCacheNode for the given board position and updated searchStats.
func (s *Searcher) newCacheNode(b *Board, stats *searchStats) (*cacheNode, error) {
	if b.IsFinished() {
		return nil, errors.Errorf("can't create cacheNode for a finished board state")
	}
	numActions := b.NumActions()
	cn := &cacheNode{
		board:      b,
		cacheNodes: make([]*cacheNode, numActions),
		N:          make([]int, numActions),
		sumScores:  make([]float32, numActions),
	}
	if stats != nil {
		stats.numCacheNodes++
	}
	cn.actionsProbs = s.scorer.PolicyScore(b)

	// Sanity check:
	if len(cn.actionsProbs) != numActions {
		return nil, errors.Errorf("scorer %s returned %d probabilities for board with %d actions",
			s.scorer, len(cn.actionsProbs), numActions)
	}
	var sumProbs float32
	for _, prob := range cn.actionsProbs {
		if prob < 0 || math32.IsNaN(prob) {
			klog.Errorf("Board has invalid action probability %g !?\n%sActions: %v\nProbabilities: %v",
				prob, b, b.ActionsStrings(b.Derived.Actions), cn.actionsProbs)
			return nil, errors.Errorf("scorer %s returned invalid probability %g for board position", s.scorer, prob)
		}
		sumProbs += prob
	}
	if math32.Abs(sumProbs-1.0) > 1e-3 {
		klog.Errorf("Board action probabilities don't sum to 1 !?\n%sActions: %v\nProbabilities: %v",
			b, b.ActionsStrings(b.Derived.Actions), cn.actionsProbs)
		return nil, errors.Errorf("scorer %s returned probabilities summing to %g != 1.0", s.scorer, sumProbs)
	}
	return cn, nil
}

// searchSubtree rooted on cn, expanding one board.
//
// It returns the new sampled score for the "next player" (to play) of cacheNode's board.
//
// Notice it doesn't return the score estimate (Q) of all samples in the sub-tree, but simply
// the score of the individual new sample (the value returned by the scorer on the leaf-node
// of the recursion).
//
// This is the core of the AlphaZero/MCTS algorithm, based on the estimated
// upper bounds of each possible action.
func (s *Searcher) searchSubtree(cn *cacheNode, stats *searchStats) (score float32, err error) {
	// Find the action with the best upper confidence (U in the description).
	bestAction := -1
	bestUpperConfidence := math32.Inf(-1)
	globalFactor := s.cPuct * math32.Sqrt(float32(cn.sumN)+epsilon)
	for actionIdx, numVisits := range cn.N {
		var Q float32 // 0 if we haven't subsampled it yet.
		if numVisits > 0 {
			Q = cn.sumScores[actionIdx] / float32(numVisits)
		}
		upperConfidence := Q + globalFactor*cn.actionsProbs[actionIdx]/float32(1+numVisits)
		if upperConfidence > bestUpperConfidence {
			bestAction = actionIdx
			bestUpperConfidence = upperConfidence
		}
	}

	// Notice TakeAllActions is cached in the board.
	newBoard := cn.board.TakeAllActions()[bestAction]
	if isEnd, endScore := ai.IsEndGameAndScore(newBoard); isEnd {
		// Terminal boards use the exact result, and are never expanded.
		score = -endScore
	} else if cn.N[bestAction] == 0 {
		// For the first time an action is considered, just get the plain score estimate
		// for the new board.
		score = -s.scorer.Score(newBoard)
	} else {
		// If not the first time we sample the action, make sure we have a corresponding
		// cacheNode for it, expanding the tree.
		if cn.cacheNodes[bestAction] == nil {
			cn.cacheNodes[bestAction], err = s.newCacheNode(newBoard, stats)
			if err != nil {
				return
			}
		}
		// Recursively sample value of the best action.
		score, err = s.searchSubtree(cn.cacheNodes[bestAction], stats)
		if err != nil {
			return
		}
		score = -score
	}
	cn.sumScores[bestAction] += score
	cn.N[bestAction]++
	cn.sumN++
	return
}

// search runs the simulations from the given board, and returns the root of the search tree.
func (s *Searcher) search(board *Board) (root *cacheNode, err error) {
	var stats searchStats
	root, err = s.newCacheNode(board, &stats)
	if err != nil {
		return
	}

	// Keep sampling until the number of traverses or the time is over.
	numTraverses := 0
	startTime := time.Now()
	for {
		_, err = s.searchSubtree(root, &stats)
		if err != nil {
			return nil, err
		}
		numTraverses++

		if s.maxTraverses > 0 && numTraverses >= s.maxTraverses {
			break
		}
		if s.minTraverses > 0 && numTraverses < s.minTraverses {
			continue
		}
		if s.maxTime > 0 && time.Since(startTime) > s.maxTime {
			break
		}
	}

	// Log performance.
	if klog.V(2).Enabled() {
		elapsed := time.Since(startTime)
		cacheNodeRate := float64(stats.numCacheNodes) / elapsed.Seconds()
		klog.Infof("Search at move #%d: %d traverses, %d nodes, %.2f nodes/s",
			board.MoveNumber, numTraverses, stats.numCacheNodes, cacheNodeRate)
	}
	return
}

// Search implements searchers.Searcher.
//
// It returns the selected action (sampled using the temperature, see WithTemperature), the board after
// the action is taken, the score estimate (Q) of the action taken and the policy derived from the visit counts
// of each action, in the order of board.Derived.Actions.
func (s *Searcher) Search(board *Board) (action Action, nextBoard *Board, score float32, policy []float32, err error) {
	var root *cacheNode
	root, err = s.search(board)
	if err != nil {
		return
	}
	temperature := s.temperature
	if s.maxRandDepth > 0 && board.MoveNumber > s.maxRandDepth {
		temperature = 0
	}
	actionIdx := sampleIndex(visitProbabilities(root, temperature))
	action = board.Derived.Actions[actionIdx]
	nextBoard = board.TakeAllActions()[actionIdx]
	score = root.sumScores[actionIdx] / float32(root.N[actionIdx])
	policy = visitProbabilities(root, 1)
	return
}

// ActionProbabilities runs the simulations from the given board, and returns the probability of each action of
// the fixed action space of the board (see Board.ActionSize), derived from the visit counts raised to the power of
// 1/temperature. Invalid actions have probability 0.
//
// If temperature is 0, it returns a one-hot vector on one of the most visited actions: ties are broken at random.
func (s *Searcher) ActionProbabilities(board *Board, temperature float32) ([]float32, error) {
	if temperature < 0 {
		return nil, errors.Errorf("invalid negative temperature %g", temperature)
	}
	root, err := s.search(board)
	if err != nil {
		return nil, err
	}
	return ai.ExpandPolicy(board, visitProbabilities(root, temperature)), nil
}

// visitProbabilities returns the probability of each action of the root node (in the order of
// Board.Derived.Actions), based on the visit counts.
func visitProbabilities(root *cacheNode, temperature float32) []float32 {
	probs := make([]float32, len(root.N))
	if temperature == 0 {
		best := generics.ArgMaxAll(root.N)
		probs[best[rand.IntN(len(best))]] = 1
		return probs
	}

	// Normalize by the maximum count before the power, to avoid overflows with small temperatures.
	maxN := float64(slices.Max(root.N))
	invTemp := 1.0 / float64(temperature)
	var sum float64
	powered := make([]float64, len(root.N))
	for ii, n := range root.N {
		powered[ii] = math.Pow(float64(n)/maxN, invTemp)
		sum += powered[ii]
	}
	for ii := range probs {
		probs[ii] = float32(powered[ii] / sum)
	}
	return probs
}

// sampleIndex from a probability distribution.
func sampleIndex(probs []float32) int {
	r := rand.Float32()
	var sumProb float32
	for idx, prob := range probs {
		sumProb += prob
		if r < sumProb {
			return idx
		}
	}
	// Due to rounding errors we may get here: return the last action with non-zero probability.
	for idx := len(probs) - 1; idx >= 0; idx-- {
		if probs[idx] > 0 {
			return idx
		}
	}
	return len(probs) - 1
}
