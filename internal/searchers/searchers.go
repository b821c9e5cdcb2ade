// Package searchers defines the Searcher interface, implemented by the search algorithms
// (alpha-beta pruning, MCTS) in its sub-packages, and generic wrappers over searchers.
package searchers

import (
	. "github.com/janpfeifer/othelloGo/internal/state"
)

// Searcher is the interface that any of the search algorithms
// must adhere to be valid.
type Searcher interface {
	// Search returns the next action to take on the given board, along with the updated Board (after taking the action)
	// and the expected score of taking that action.
	//
	// Optionally, it can also return the policy: a probability for each of the actions available on the board, in the
	// order of board.Derived.Actions. Some algorithms (e.g.: alpha-beta pruning) don't provide good approximations
	// to those, so they return it nil.
	//
	// An error is returned if the underlying scorer misbehaves (e.g. returns invalid probabilities).
	Search(board *Board) (action Action, nextBoard *Board, score float32, policy []float32, err error)
}
