package ai

import (
	"github.com/janpfeifer/othelloGo/internal/generics"
	. "github.com/janpfeifer/othelloGo/internal/state"
)

// BatchScorerProxy is a trivial implementation of a BatchValueScorer, with no efficiency gains.
type BatchScorerProxy struct {
	ValueScorer
}

// BatchScore calls Score for each board of the batch.
func (s BatchScorerProxy) BatchScore(boards []*Board) (scores []float32) {
	scores = generics.SliceMap(boards, func(board *Board) float32 {
		return s.Score(board)
	})
	return
}

func (s BatchScorerProxy) String() string {
	return s.ValueScorer.String()
}

// Assert BatchScorerProxy implements BatchValueScorer
var _ BatchValueScorer = &BatchScorerProxy{}
