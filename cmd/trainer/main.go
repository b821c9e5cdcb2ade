// trainer trains value models (e.g.: "linear=my_model.txt") from matches: it plays matches with the
// configured AI (or loads previously saved ones), labels every position with the final result of its match,
// and trains the model on them.
//
// Example:
//
//	$ trainer -ai="linear=linear_6x6.txt,ab,max_depth=2,randomness=0.1" -num_matches=200 -train_loops=5 \
//	    -save_matches=matches_6x6.bin
//
// See -help for flags.
package main

import (
	"context"
	"flag"
	"fmt"
	"github.com/janpfeifer/must"
	"github.com/janpfeifer/othelloGo/internal/ai/linear"
	"github.com/janpfeifer/othelloGo/internal/players"
	_ "github.com/janpfeifer/othelloGo/internal/players/default"
	"github.com/janpfeifer/othelloGo/internal/profilers"
	"github.com/janpfeifer/othelloGo/internal/ui/spinning"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
	"time"
)

var (
	flagAIConfig    = flag.String("ai", "", "Configuration of the AI to train, its scorer must be a value learner (e.g.: \"linear=file\").")
	flagTrainLoops  = flag.Int("train_loops", 1, "How many times to loop the training over the examples.")
	flagValidation  = flag.Int("validation", 10, "Percentage of matches used for validation (evaluation only).")
	flagDoNotTrain  = flag.Bool("no_train", false, "Only play (or load) and save the matches, don't train.")
	flagBoardSize   = flag.Int("board_size", 6, "Board size of the matches played.")
	flagNumMatches  = flag.Int("num_matches", 100, "Number of matches to play, if not loading them.")
	flagParallelism = flag.Int("parallelism", 0, "If > 0 ignore GOMAXPROCS and play "+
		"these many matches simultaneously.")
	flagSaveMatches = flag.String("save_matches", "", "File name where to save the matches played.")
	flagLoadMatches = flag.String("load_matches", "", "Instead of playing matches, load previously saved ones.")
	flagPrintGoCode = flag.Bool("print_go_code", false, "After training a linear model, print its weights as Go code.")
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

	player := must.M1(createPlayer(*flagAIConfig))
	defer player.Finalize()
	if err := run(ctx, player); err != nil && !errors.Is(err, context.Canceled) {
		klog.Exitf("Training failed: %+v", err)
	}
}

// createPlayer creates the AI to train, and checks that it can learn.
func createPlayer(config string) (*players.SearcherScorer, error) {
	if config == "" {
		return nil, errors.New("must specify AI configuration with -ai")
	}
	p, err := players.New(config)
	if err != nil {
		return nil, err
	}
	player, ok := p.(*players.SearcherScorer)
	if !ok || player.ValueLearner == nil {
		return nil, errors.Errorf("invalid AI config (-ai) %q: trainer requires a scorer that is a value learner "+
			"(e.g.: \"linear=file\")", config)
	}
	return player, nil
}

// run plays or loads the matches, saves them if requested, and trains the player's model.
func run(ctx context.Context, player *players.SearcherScorer) error {
	var matches []*Match
	var err error
	if *flagLoadMatches != "" {
		matches, err = loadMatches(*flagLoadMatches)
	} else {
		matches, err = runMatches(ctx, player, *flagBoardSize, *flagNumMatches)
	}
	if err != nil {
		return err
	}
	fmt.Printf("%d matches, %d positions\n", len(matches), countPositions(matches))
	if *flagSaveMatches != "" {
		if err = saveMatches(*flagSaveMatches, matches); err != nil {
			return err
		}
	}
	if *flagDoNotTrain {
		return nil
	}
	if err = trainFromMatches(ctx, player.ValueLearner, matches); err != nil {
		return err
	}
	if linearModel, ok := player.ValueLearner.(*linear.Scorer); ok && *flagPrintGoCode {
		fmt.Printf("Linear model weights:\n%s", linearModel.AsGoCode())
	}
	return nil
}
