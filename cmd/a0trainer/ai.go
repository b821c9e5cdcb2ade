package main

import (
	"context"
	"flag"
	"fmt"
	"github.com/gomlx/exceptions"
	"github.com/janpfeifer/othelloGo/internal/ai"
	"github.com/janpfeifer/othelloGo/internal/arena"
	"github.com/janpfeifer/othelloGo/internal/players"
	"github.com/janpfeifer/othelloGo/internal/searchers/mcts"
	"github.com/janpfeifer/othelloGo/internal/state"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
	"math/rand/v2"
	"strings"
	"time"
)

var (
	flagAIConfig = flag.String("ai", "", "Configuration for model/searcher to train, it must be an \"mcts\" searcher "+
		"with a learnable model (e.g.: \"a0fnn\"). a0trainer plays against itself, so only one configuration is accepted.")
	flagBootstrapAI = flag.String("bootstrap", "", "Configure an AI to bootstrap an AlphaZero model: it plays one "+
		"of the sides of the self-play matches, while the policy labels still come from the model being trained.")
	flagTrainSteps   = flag.Int("train_steps", 200, "Number of training steps (batches) per iteration.")
	flagNumEvalGames = flag.Int("num_eval", 10, "Number of games played against a random player after each "+
		"iteration, to evaluate the model. Set to 0 to disable.")
)

// Example holds one data point to learn from.
type Example struct {
	board        *state.Board
	valueLabel   float32
	policyLabels []float32 // Over the full action space of the board.
}

// trainer holds the AI being trained and the examples collected so far.
type trainer struct {
	aiPlayer  *players.SearcherScorer
	searcher  *mcts.Searcher
	learner   ai.PolicyLearner
	bootstrap players.Player
	boardSize int
	examples  []Example
}

// newTrainer creates the AI player to train from its configuration, and optionally the bootstrap player.
func newTrainer(config, bootstrapConfig string) (*trainer, error) {
	if config == "" {
		return nil, errors.New("must specify AI configuration with -ai")
	}
	if strings.Contains(config, ";") {
		return nil, errors.Errorf("invalid AI config %q, only one AI configuration must be given, no \";\" accepted", config)
	}
	klog.V(1).Infof("Creating AI from %q", config)
	player, err := players.New(config)
	if err != nil {
		return nil, err
	}
	t := &trainer{boardSize: *flagBoardSize}
	var ok bool
	t.aiPlayer, ok = player.(*players.SearcherScorer)
	if !ok || t.aiPlayer.PolicyLearner == nil {
		return nil, errors.Errorf("invalid AI config (-ai) %q: a0trainer requires a model that implements "+
			"PolicyLearner (e.g.: \"a0fnn\")", config)
	}
	t.learner = t.aiPlayer.PolicyLearner
	t.searcher, ok = t.aiPlayer.Searcher.(*mcts.Searcher)
	if !ok {
		return nil, errors.Errorf("invalid AI config (-ai) %q: a0trainer requires the \"mcts\" searcher, "+
			"without randomness", config)
	}
	if sized, ok := t.learner.(interface{ BoardSize() int }); ok {
		t.boardSize = sized.BoardSize()
	}
	if bootstrapConfig != "" {
		t.bootstrap, err = players.New(bootstrapConfig)
		if err != nil {
			return nil, errors.WithMessagef(err, "invalid bootstrap AI config (-bootstrap) %q", bootstrapConfig)
		}
	}
	return t, nil
}

// iteration runs one round of self-play, training and evaluation.
func (t *trainer) iteration(ctx context.Context) error {
	newExamples, err := t.selfPlay(ctx)
	if err != nil {
		return err
	}
	t.examples = append(t.examples, newExamples...)
	if excess := len(t.examples) - *flagMaxExamples; *flagMaxExamples > 0 && excess > 0 {
		t.examples = t.examples[excess:]
	}
	if err = t.train(ctx); err != nil {
		return err
	}
	return t.evaluate(ctx)
}

// train the model with batches sampled from the collected examples, and save it.
func (t *trainer) train(ctx context.Context) error {
	if *flagTrainSteps <= 0 || len(t.examples) == 0 {
		// No training, probably just a debug run.
		return nil
	}
	batchSize := t.learner.BatchSize()
	fmt.Printf("\t- Training %d steps, batch size %d, pool of %d examples\n", *flagTrainSteps, batchSize, len(t.examples))
	var averageLoss float32
	var numSteps int
	start := time.Now()
	printUpdate := func() {
		fmt.Printf("\r\tTraining: %6d steps, ~loss=%.3f, elapsed=%s\x1b[0K",
			numSteps, averageLoss, time.Since(start).Round(time.Millisecond))
	}
	printUpdate()

	err := exceptions.TryCatch[error](func() {
		boardsBatch := make([]*state.Board, batchSize)
		valueLabelsBatch := make([]float32, batchSize)
		policyLabelsBatch := make([][]float32, batchSize)
		for range *flagTrainSteps {
			if ctx.Err() != nil {
				return
			}
			// Sample batch: random with replacement.
			for batchIdx := range batchSize {
				example := t.examples[rand.IntN(len(t.examples))]
				boardsBatch[batchIdx] = example.board
				valueLabelsBatch[batchIdx] = example.valueLabel
				policyLabelsBatch[batchIdx] = example.policyLabels
			}
			loss := t.learner.Learn(boardsBatch, valueLabelsBatch, policyLabelsBatch)
			numSteps++
			averageLoss = movingAverage(averageLoss, loss, averageLossDecay, numSteps)
			printUpdate()
		}
	})
	printUpdate()
	fmt.Println()
	if err != nil {
		return errors.WithMessage(err, "failed to train model")
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err = t.learner.Save(); err != nil {
		return errors.WithMessagef(err, "failed to save model after training")
	}
	fmt.Printf("\t- Model %s saved\n", t.learner)
	return nil
}

// evaluate the model being trained against a random player.
func (t *trainer) evaluate(ctx context.Context) error {
	if *flagNumEvalGames <= 0 {
		return nil
	}
	a := arena.New(t.aiPlayer, players.NewRandomPlayer(0), t.boardSize)
	a.Parallelism = getParallelism()
	results, err := a.PlayGames(ctx, *flagNumEvalGames)
	if err != nil {
		return errors.WithMessage(err, "failed to evaluate model against random player")
	}
	fmt.Printf("\t- Evaluation against random player: AI won %d, Random won %d, Draws %d\n",
		results.OneWon, results.TwoWon, results.Draws)
	return nil
}

// finalize releases the players.
func (t *trainer) finalize() {
	t.aiPlayer.Finalize()
	if t.bootstrap != nil {
		t.bootstrap.Finalize()
	}
}

const averageLossDecay = float32(0.95)

func movingAverage(average, newValue, decay float32, count int) float32 {
	decay = min(1-1/float32(count), decay)
	return average*decay + (1-decay)*newValue
}
