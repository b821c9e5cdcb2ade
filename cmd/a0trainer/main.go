// a0trainer is a command line tool to orchestrate the training of AlphaZero based models, like the one
// loaded by the verify tool.
//
// It works by:
//  1. Self-play a bunch of matches, using MCTS visit counts as policy labels and the final result of the
//     match as value labels. The examples are augmented with the board symmetries.
//  2. Train the model on a sample of the most recent examples, and save it.
//  3. Optionally, evaluate the model against a random player.
//
// Example:
//
//	$ a0trainer -ai="a0fnn=./pretrained_models/othello/gomlx/6x6_best,create,board_size=6,mcts,num_mcts_sims=25" \
//	    -num_iterations=20
//
// See -help for flags.
package main

import (
	"context"
	"flag"
	"fmt"
	"github.com/janpfeifer/must"
	_ "github.com/janpfeifer/othelloGo/internal/players/default"
	"github.com/janpfeifer/othelloGo/internal/profilers"
	"github.com/janpfeifer/othelloGo/internal/ui/spinning"
	"k8s.io/klog/v2"
	"time"
)

// Flags
var (
	flagNumIterations = flag.Int("num_iterations", 0, "Number of iterations of self-play and then train. "+
		"A value of <= 0 means to train indefinitely, until interrupted.")
	flagMaxExamples = flag.Int("max_examples", 200_000, "Maximum number of most recent examples kept for training.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	// Capture Control+C
	ctx, cancel := context.WithCancel(context.Background())
	spinning.SafeInterrupt(cancel, 5*time.Second)
	defer cancel()

	// Profilers: HTTP profiler server and CPU profile.
	prof := must.M1(profilers.Setup(ctx))
	defer prof.OnQuit()

	t := must.M1(newTrainer(*flagAIConfig, *flagBootstrapAI))
	defer t.finalize()

	if *flagNumIterations <= 0 {
		fmt.Println("Training indefinitely (use -num_iterations to limit it):")
		fmt.Println("\t- It saves after each iteration, and you can simply interrupt (Control+C) when you want to stop.")
	}
	for i := 0; *flagNumIterations <= 0 || i < *flagNumIterations; i++ {
		fmt.Printf("\nIteration #%d - %s\n", i, time.Now().Format("2006-01-02 15:04:05"))
		err := t.iteration(ctx)
		if ctx.Err() != nil {
			// Interrupted.
			return
		}
		if err != nil {
			klog.Exitf("Training failed: %+v", err)
		}
	}
}
