// Package alphabeta implements a searchers.Searcher based on Alpha-Beta pruning, using a value scorer
// to evaluate the leaf positions.
package alphabeta

import (
	"fmt"
	"github.com/janpfeifer/othelloGo/internal/ai"
	"github.com/janpfeifer/othelloGo/internal/generics"
	"github.com/janpfeifer/othelloGo/internal/searchers"
	. "github.com/janpfeifer/othelloGo/internal/state"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
	"math"
	"math/rand/v2"
	"time"
)

// Searcher implements the searchers.Searcher interface.
// It is used by players.SearcherScorer, along with the scorer, to implement an AI player (players.Player interface).
//
// A Searcher holds no state across searches, so it can be used concurrently.
type Searcher struct {
	maxDepth          int
	maxTime           time.Duration
	randomness        float32
	maxMoveRandomness int
	scorer            ai.BatchValueScorer
}

// Assert that Searcher implements searchers.Searcher.
var _ searchers.Searcher = (*Searcher)(nil)

// Stats stores running stats collected during the search: for benchmarking, monitoring and debugging purposes.
type Stats struct {
	// nodes "played" during search -- execution of an action in a board, following by the creation of the new board.
	nodes int

	// evals means the number of examples passed to the scorer. Notice end-game situations are not scored and don't
	// count here.
	evals int

	leafEvals int
	prunes    int
}

// New returns an Alpha-Beta Pruning based searchers.Searcher implementation.
// There are many other optional configurations, see methods Searcher.With...
//
// The one obligatory parameter is the scorer used for the search. If it doesn't implement ai.BatchValueScorer
// it is wrapped with ai.BatchScorerProxy.
//
// See: wikipedia.org/wiki/Alpha-beta_pruning
func New(scorer ai.ValueScorer) *Searcher {
	batchScorer, ok := scorer.(ai.BatchValueScorer)
	if !ok {
		batchScorer = ai.BatchScorerProxy{ValueScorer: scorer}
	}
	return &Searcher{
		scorer:   batchScorer,
		maxDepth: DefaultMaxDepth,
	}
}

// DefaultMaxDepth for search.
const DefaultMaxDepth = 3

// WithMaxDepth sets a default max depth of search: the unit here are plies (ply singular). Each player
// playing counts as one ply. See https://en.wikipedia.org/wiki/Ply_(game_theory).
//
// This overrides WithMaxTime.
//
// The default is 3 (DefaultMaxDepth).
func (ab *Searcher) WithMaxDepth(maxDepth int) *Searcher {
	ab.maxDepth = maxDepth
	if maxDepth > 0 {
		ab.maxTime = 0
	} else {
		ab.maxDepth = 0
		// If disabling maxDepth, set maxTime to some default, if it is not set.
		if ab.maxTime == 0 {
			ab.maxTime = 3 * time.Second
		}
	}
	return ab
}

// WithRandomness adds a gaussian noise scaled to randomness to the scores returned by the scorer.
// Scores vary from -1 to 1 (+/- ai.WinGameScore), so a value of 1.0 here would be a lot.
//
// This can be useful to make the AI play worse, to make it more fun.
//
// If noise is added, the scores are also further squashed by an S curve.
//
// Set to 0 to disable randomness -- this is the default.
//
// See also WithMaxMoveRandomness.
func (ab *Searcher) WithRandomness(randomness float32) *Searcher {
	ab.randomness = randomness
	return ab
}

// WithMaxMoveRandomness sets a move limit after which randomness is disabled.
//
// This is desirable if, for instance, using randomness only to generate different openings.
func (ab *Searcher) WithMaxMoveRandomness(maxMoveRandomness int) *Searcher {
	ab.maxMoveRandomness = maxMoveRandomness
	return ab
}

// WithMaxTime sets a default max duration of thinking per search.
// The search is iteratively deepened, one ply at a time, until the time is exhausted.
// This overrides WithMaxDepth.
//
// The default is no time-limit, and instead be limited by WithMaxDepth.
func (ab *Searcher) WithMaxTime(maxTime time.Duration) *Searcher {
	ab.maxTime = maxTime
	if maxTime > 0 {
		ab.maxDepth = 0
	} else {
		ab.maxTime = 0
		// If disabling maxTime, set maxDepth to default, if it is not set.
		if ab.maxDepth == 0 {
			ab.maxDepth = 2
		}
	}
	return ab
}

// String returns a description of the searcher configuration.
func (ab *Searcher) String() string {
	if ab.maxTime > 0 {
		return fmt.Sprintf("alphabeta(max_time=%s)", ab.maxTime)
	}
	return fmt.Sprintf("alphabeta(max_depth=%d)", ab.maxDepth)
}

// Search implements the Searcher interface.
//
// It returns policy always nil, because it wouldn't be a good approximation for the non-best move.
// This is because of the pruning aspect of the algorithm: bad moves are cut short, so alpha-beta pruning score
// estimation for bad moves will not be a good one.
func (ab *Searcher) Search(board *Board) (action Action, nextBoard *Board, score float32, policy []float32, err error) {
	if board.IsFinished() {
		err = errors.Errorf("alphabeta: can't search on a finished board (move #%d)", board.MoveNumber)
		return
	}
	start := time.Now()
	var stats Stats
	if ab.maxTime <= 0 {
		action, nextBoard, score = ab.searchToMaxDepth(board, ab.maxDepth, &stats)
	} else {
		// Iterative deepening: no point going deeper than the number of plies left to the end of the game,
		// considering passes.
		maxPlies := 2 * (board.Derived.NumEmpty + 1)
		for depth := 1; depth <= maxPlies; depth++ {
			action, nextBoard, score = ab.searchToMaxDepth(board, depth, &stats)
			if time.Since(start) > ab.maxTime || nextBoard.IsFinished() {
				break
			}
		}
	}
	elapsedTime := time.Since(start).Seconds()
	if klog.V(3).Enabled() {
		klog.Infof("Move #%d, best action found: %s, αβ-score=%.2f\n%s",
			board.MoveNumber, board.ActionString(action), score, nextBoard)
	}
	if klog.V(2).Enabled() {
		klog.Infof("Counts: %+v", stats)
		evals := float64(stats.evals)
		klog.Infof("  nodes/s=%.1f, evals/s=%.1f, leafEvals=%.2f%%", float64(stats.nodes)/elapsedTime,
			evals/elapsedTime, 100*float64(stats.leafEvals)/max(evals, 1))
	}
	return
}

// searchToMaxDepth executes alpha-beta pruning algorithm to the given depth.
// Returns:
//
//	bestAction: that it suggests taking.
//	bestBoard: Board after taking bestAction.
//	bestScore: score of taking betAction
func (ab *Searcher) searchToMaxDepth(board *Board, maxDepth int, stats *Stats) (
	bestAction Action, bestBoard *Board, bestScore float32) {
	alpha := float32(-math.MaxFloat32)
	beta := float32(-math.MaxFloat32)
	addNoise := ab.randomness > 0 && (ab.maxMoveRandomness <= 0 || board.MoveNumber <= ab.maxMoveRandomness)
	return ab.recursion(board, max(maxDepth, 1), alpha, beta, addNoise, stats)
}

// recursion of the alpha-beta pruning algorithm, with depthLeft plies to go.
//
// alpha is the best score found so far for board.NextPlayer, and beta the best score found so far for the
// opponent, in the opponent's point of view.
func (ab *Searcher) recursion(board *Board, depthLeft int, alpha, beta float32, addNoise bool, stats *Stats) (
	bestAction Action, bestBoard *Board, bestScore float32) {
	isLeaf := depthLeft <= 1

	// Sub-actions and boards available at this state: in principle we would only need to score the leaf
	// nodes, but we score intermediary nodes to guide the alpha-beta pruning search -- it prunes more
	// if we search for the better nodes first and find high values for alpha, making it faster overall.
	actions := board.Derived.Actions
	newBoards, scores, numEvals := executeAndScoreActions(board, ab.scorer)
	stats.nodes += len(newBoards)

	// If there is only one action, and it leads to and end-game, then there is nothing else to explore.
	if len(actions) == 1 && newBoards[0].IsFinished() {
		return actions[0], newBoards[0], scores[0]
	}

	// If there is a winning move, the scorer was not used (no evals), and we take the winning move (or one of them
	// at random), no need to explore deeper.
	bestActionIdx := -1
	winningMoves := 0
	for actionIdx, score := range scores {
		if score == ai.WinGameScore && newBoards[actionIdx].IsFinished() {
			winningMoves++
			if winningMoves == 1 || rand.IntN(winningMoves) == 0 {
				bestActionIdx = actionIdx
			}
		}
	}
	if winningMoves > 0 {
		return actions[bestActionIdx], newBoards[bestActionIdx], ai.WinGameScore
	}

	// Count actual evals.
	stats.evals += numEvals
	if isLeaf {
		stats.leafEvals += numEvals
		// Add noise to leaf nodes if randomness was configured: only non end-of-game actions.
		if addNoise {
			for ii := range scores {
				if !newBoards[ii].IsFinished() {
					noise := float32(rand.NormFloat64()*float64(ab.randomness)) * ai.WinGameScore
					scores[ii] = ai.SquashScore(scores[ii] + noise)
				}
			}
		}
	}

	// Find order from the best scoring first.
	bestScore = float32(-math.MaxFloat32)
	bestBoard = nil
	bestAction = NoAction
	ordering := generics.SliceOrdering(scores, true) // Reverse order by score.
	for _, actionIdx := range ordering {
		// Only follows recursion if this action doesn't end the match.
		if !isLeaf && !newBoards[actionIdx].IsFinished() {
			// Runs alphaBeta for opponent player, so the alpha/beta are reversed.
			_, _, score := ab.recursion(newBoards[actionIdx], depthLeft-1, beta, alpha, addNoise, stats)
			// the score is the negative of the opponents score.
			scores[actionIdx] = -score
		}

		// Update the alpha for pruning.
		if scores[actionIdx] > alpha {
			alpha = scores[actionIdx]
		}

		// Save bestScore for this board.
		if scores[actionIdx] > bestScore {
			bestScore = scores[actionIdx]
			bestAction = actions[actionIdx]
			bestBoard = newBoards[actionIdx]
		}

		// Prune.
		if -bestScore <= beta {
			// The opponent will never take this path, so we can prune the search and stop here.
			stats.prunes++
			return
		}

		// If bestScore is a win, it can stop early.
		if bestBoard.IsFinished() && bestScore > 0 {
			// This is a winner move, no need to look further.
			return
		}
	}
	return bestAction, bestBoard, bestScore
}

// executeAndScoreActions creates the boards after executing each of the board actions,
// and returns the new boards and their scores according to the given scorer.
//
// It returns without using the scorer if any of the actions lead to b.NextPlayer winning.
func executeAndScoreActions(board *Board, scorer ai.BatchValueScorer) (newBoards []*Board, scores []float32, numEvals int) {
	actions := board.Derived.Actions
	scores = make([]float32, len(actions))
	newBoards = make([]*Board, len(actions))

	// Pre-score actions that lead to end-game.
	boardsToScore := make([]*Board, 0, len(actions))
	hasWinning := 0
	for ii, action := range actions {
		newBoards[ii] = board.Act(action)
		if isEnd, score := ai.IsEndGameAndScore(newBoards[ii]); isEnd {
			// End game is treated differently.
			score = -score // Score for board.NextPlayer, not newBoards[ii].NextPlayer
			if score > 0.0 {
				hasWinning++
			}
			scores[ii] = score
		} else {
			boardsToScore = append(boardsToScore, newBoards[ii])
		}
	}

	// Player wins, no need to score the other actions.
	if hasWinning > 0 {
		return
	}

	if len(boardsToScore) > 0 {
		// Score non-game ending boards.
		scored := scorer.BatchScore(boardsToScore)
		numEvals = len(scored)
		scoredIdx := 0
		for ii := range scores {
			if !newBoards[ii].IsFinished() {
				// Score for board.NextPlayer, not newBoards[ii].NextPlayer, hence
				// we take the inverse here.
				scores[ii] = -scored[scoredIdx]
				scoredIdx++
			}
		}
	}
	return
}
