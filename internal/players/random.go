package players

import (
	. "github.com/janpfeifer/othelloGo/internal/state"
	"math/rand/v2"
	"sync"
)

// RandomPlayer picks uniformly at random among the valid actions of the board.
// It is the baseline opponent used to check that an AI is working.
//
// It is safe for concurrent use.
type RandomPlayer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// Assert RandomPlayer is a Player.
var _ Player = (*RandomPlayer)(nil)

// NewRandomPlayer creates a RandomPlayer. If seed is 0 a random seed is used.
func NewRandomPlayer(seed uint64) *RandomPlayer {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &RandomPlayer{rng: rand.New(rand.NewPCG(seed, 0))}
}

// Play implements Player. It returns a score of 0 and a uniform policy.
func (p *RandomPlayer) Play(board *Board) (action Action, nextBoard *Board, score float32, policy []float32, err error) {
	numActions := board.NumActions()
	p.mu.Lock()
	actionIdx := p.rng.IntN(numActions)
	p.mu.Unlock()
	action = board.Derived.Actions[actionIdx]
	nextBoard = board.TakeAllActions()[actionIdx]
	policy = make([]float32, numActions)
	for ii := range policy {
		policy[ii] = 1 / float32(numActions)
	}
	return
}

// Finalize implements Player.
func (p *RandomPlayer) Finalize() {}

// String implements fmt.Stringer.
func (p *RandomPlayer) String() string { return "random" }
