package main

import (
	"context"
	"flag"
	"fmt"
	"github.com/janpfeifer/othelloGo/internal/ai"
	"github.com/janpfeifer/othelloGo/internal/arena"
	"github.com/janpfeifer/othelloGo/internal/generics"
	. "github.com/janpfeifer/othelloGo/internal/state"
	"github.com/janpfeifer/othelloGo/internal/ui/cli"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
	"math/rand/v2"
	"runtime"
	"sync"
	"time"
)

var (
	flagBoardSize  = flag.Int("board_size", 6, "Board size, used if the model doesn't define one.")
	flagNumMatches = flag.Int("num_matches", 50, "Number of self-play matches per iteration.")
	flagTempMoves  = flag.Int("temperature_moves", 10, "Actions are sampled proportionally to the MCTS visit "+
		"counts up to this move number, after that the most visited action is taken.")
	flagSymmetries  = flag.Bool("symmetries", true, "Augment the examples with the 8 symmetries of the board.")
	flagParallelism = flag.Int("parallelism", 0, "If > 0 ignore GOMAXPROCS and play "+
		"these many matches simultaneously.")
	flagPrintSteps = flag.Bool("print_steps", false, "Print board at each step. "+
		"Very verbose, and you probably want to set -parallelism=1.")
)

var (
	stepUI   = cli.New(true, false)
	muStepUI sync.Mutex
)

// selfPlay runs the self-play matches of one iteration, and returns the examples collected.
func (t *trainer) selfPlay(ctx context.Context) (examples []Example, err error) {
	var (
		mu      sync.Mutex
		results arena.Results
	)
	parallelism := getParallelism()
	start := time.Now()
	printUpdate := func() {
		fmt.Printf("\r\tSelf-play (parallelism=%d): %5d of %d finished (%d/%d/%d 1st-Wins/2nd-Wins/Draws) in %s\x1b[0K",
			parallelism, results.Total(), *flagNumMatches, results.OneWon, results.TwoWon, results.Draws,
			time.Since(start).Round(time.Second))
	}
	printUpdate()

	var g errgroup.Group
	g.SetLimit(parallelism)
	for matchIdx := range *flagNumMatches {
		g.Go(func() error {
			matchExamples, winner, err := t.runMatch(ctx, matchIdx)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			examples = append(examples, matchExamples...)
			switch winner {
			case PlayerFirst:
				results.OneWon++
			case PlayerSecond:
				results.TwoWon++
			default:
				results.Draws++
			}
			printUpdate()
			return nil
		})
	}
	err = g.Wait()
	fmt.Println()
	if err != nil {
		return nil, err
	}
	fmt.Printf("\t- %d matches, %d draws (%.1f%%), %d new training examples.\n",
		*flagNumMatches, results.Draws, 100*float32(results.Draws)/float32(max(*flagNumMatches, 1)), len(examples))
	return examples, nil
}

// runMatch plays one self-play match and returns its examples, labeled with the final result of the match.
//
// If a bootstrap player is configured, it plays the second player in even matches and the first player in odd
// matches, but the policy labels are still the ones of the model being trained.
func (t *trainer) runMatch(ctx context.Context, matchIdx int) (examples []Example, winner PlayerNum, err error) {
	if klog.V(1).Enabled() {
		klog.Infof("Starting match %d", matchIdx)
		defer klog.Infof("Finished match %d", matchIdx)
	}
	rng := rand.New(rand.NewPCG(rand.Uint64(), uint64(matchIdx)))
	bootstrapPlayerNum := PlayerNum(1 - matchIdx%2)
	board := NewBoard(t.boardSize)
	var playerNums []PlayerNum
	for !board.IsFinished() {
		if ctx.Err() != nil {
			return nil, PlayerInvalid, ctx.Err()
		}
		if board.NumActions() == 1 && board.IsPass(board.Derived.Actions[0]) {
			board = board.Act(board.PassAction())
			continue
		}
		policy, err := t.searcher.ActionProbabilities(board, 1)
		if err != nil {
			return nil, PlayerInvalid, errors.WithMessagef(err, "match %d, move #%d", matchIdx, board.MoveNumber)
		}
		var action Action
		if t.bootstrap != nil && board.NextPlayer == bootstrapPlayerNum {
			action, _, _, _, err = t.bootstrap.Play(board)
			if err != nil {
				return nil, PlayerInvalid, errors.WithMessagef(err, "bootstrap player failed in match %d", matchIdx)
			}
		} else {
			action = selectAction(rng, policy, board.MoveNumber <= *flagTempMoves)
		}
		examples = append(examples, Example{board: board, policyLabels: policy})
		playerNums = append(playerNums, board.NextPlayer)
		nextBoard := board.Act(action)
		board.ClearNextBoardsCache()
		if *flagPrintSteps {
			muStepUI.Lock()
			fmt.Printf("Match-%05d, move #%d: %s\n", matchIdx, board.MoveNumber, board.ActionString(action))
			stepUI.PrintBoard(nextBoard)
			fmt.Println("------------------")
			muStepUI.Unlock()
		}
		board = nextBoard
	}

	// Label examples with the result of the match, from the point of view of the player to move.
	_, endScore := ai.IsEndGameAndScore(board)
	winner = board.Winner()
	for ii := range examples {
		if playerNums[ii] == board.NextPlayer {
			examples[ii].valueLabel = endScore
		} else {
			examples[ii].valueLabel = -endScore
		}
	}
	if *flagSymmetries {
		augmented := make([]Example, 0, len(examples)*NumSymmetries)
		for _, example := range examples {
			boards, policies := example.board.Symmetries(example.policyLabels)
			for symIdx := range boards {
				augmented = append(augmented, Example{
					board:        boards[symIdx],
					valueLabel:   example.valueLabel,
					policyLabels: policies[symIdx],
				})
			}
		}
		examples = augmented
	}
	return examples, winner, nil
}

// selectAction samples an action from the policy, over the full action space, if sample is true.
// Otherwise, it takes one of the most probable actions.
func selectAction(rng *rand.Rand, policy []float32, sample bool) Action {
	if !sample {
		best := generics.ArgMaxAll(policy)
		return Action(best[rng.IntN(len(best))])
	}
	r := rng.Float32() * generics.Sum(policy)
	lastValid := 0
	for ii, prob := range policy {
		if prob <= 0 {
			continue
		}
		lastValid = ii
		r -= prob
		if r <= 0 {
			return Action(ii)
		}
	}
	return Action(lastValid)
}

// getParallelism returns the parallelism.
func getParallelism() (parallelism int) {
	parallelism = runtime.GOMAXPROCS(0)
	if *flagParallelism > 0 {
		parallelism = *flagParallelism
	}
	return
}
