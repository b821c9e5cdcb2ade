package main

import (
	"context"
	"fmt"
	"github.com/gomlx/exceptions"
	"github.com/janpfeifer/othelloGo/internal/ai"
	. "github.com/janpfeifer/othelloGo/internal/state"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
	"math/rand/v2"
	"time"
)

// LabeledBoards holds boards and their value labels, in the same order.
type LabeledBoards struct {
	Boards []*Board
	Labels []float32
}

// Len returns the number of labeled boards.
func (lb *LabeledBoards) Len() int {
	return len(lb.Boards)
}

// AddMatch labels the boards of the match, except those with only the pass action, with the final
// result of the match from the point of view of the player to move.
func (lb *LabeledBoards) AddMatch(match *Match) {
	final := match.FinalBoard()
	_, endScore := ai.IsEndGameAndScore(final)
	for _, board := range match.Boards[:len(match.Boards)-1] {
		if board.NumActions() == 1 && board.IsPass(board.Derived.Actions[0]) {
			continue
		}
		label := endScore
		if board.NextPlayer != final.NextPlayer {
			label = -endScore
		}
		lb.Boards = append(lb.Boards, board)
		lb.Labels = append(lb.Labels, label)
	}
}

// splitMatches into training and validation labeled boards. Validation matches are taken evenly
// from the list, according to the percentage given.
func splitMatches(matches []*Match, validationPercentage int) (train, validation *LabeledBoards) {
	train, validation = &LabeledBoards{}, &LabeledBoards{}
	for matchIdx, match := range matches {
		if validationPercentage > 0 && (matchIdx*validationPercentage)%100 < validationPercentage {
			validation.AddMatch(match)
		} else {
			train.AddMatch(match)
		}
	}
	return
}

// trainFromMatches trains the learner for -train_loops over the boards of the matches, and saves it.
func trainFromMatches(ctx context.Context, learner ai.ValueLearner, matches []*Match) error {
	train, validation := splitMatches(matches, *flagValidation)
	if train.Len() == 0 {
		return errors.New("no training examples")
	}
	if validation.Len() > 0 {
		fmt.Printf("Validation loss before training: %.4f\n", learner.Loss(validation.Boards, validation.Labels))
	}
	batchSize := learner.BatchSize()
	start := time.Now()
	err := exceptions.TryCatch[error](func() {
		boardsBatch := make([]*Board, 0, batchSize)
		labelsBatch := make([]float32, 0, batchSize)
		for loop := range *flagTrainLoops {
			var sumLoss float32
			var numBatches int
			for _, idx := range rand.Perm(train.Len()) {
				if ctx.Err() != nil {
					return
				}
				boardsBatch = append(boardsBatch, train.Boards[idx])
				labelsBatch = append(labelsBatch, train.Labels[idx])
				if len(boardsBatch) == batchSize {
					sumLoss += learner.Learn(boardsBatch, labelsBatch)
					numBatches++
					boardsBatch, labelsBatch = boardsBatch[:0], labelsBatch[:0]
				}
			}
			if len(boardsBatch) > 0 {
				sumLoss += learner.Learn(boardsBatch, labelsBatch)
				numBatches++
				boardsBatch, labelsBatch = boardsBatch[:0], labelsBatch[:0]
			}
			fmt.Printf("\rTraining loop %d of %d: loss=%.4f, elapsed=%s\x1b[0K",
				loop+1, *flagTrainLoops, sumLoss/float32(numBatches), time.Since(start).Round(time.Millisecond))
		}
	})
	fmt.Println()
	if err != nil {
		return errors.WithMessage(err, "failed to train model")
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if validation.Len() > 0 {
		fmt.Printf("Validation loss after training: %.4f\n", learner.Loss(validation.Boards, validation.Labels))
	}
	if err = learner.Save(); err != nil {
		return errors.WithMessage(err, "failed to save model after training")
	}
	klog.Infof("Model %s saved", learner)
	return nil
}
