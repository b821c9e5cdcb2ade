// compare pits two AI configurations against each other over a number of games, alternating who plays first,
// and reports the tally. Optionally, it writes an HTML chart with the cumulative results.
//
// See -help for flags.
package main

import (
	"context"
	"flag"
	"fmt"
	"github.com/janpfeifer/must"
	"github.com/janpfeifer/othelloGo/internal/arena"
	"github.com/janpfeifer/othelloGo/internal/players"
	_ "github.com/janpfeifer/othelloGo/internal/players/default"
	"github.com/janpfeifer/othelloGo/internal/profilers"
	"github.com/janpfeifer/othelloGo/internal/report"
	"github.com/janpfeifer/othelloGo/internal/state"
	"github.com/janpfeifer/othelloGo/internal/ui/cli"
	"github.com/janpfeifer/othelloGo/internal/ui/spinning"
	"github.com/pkg/errors"
	"io"
	"k8s.io/klog/v2"
	"os"
	"runtime"
	"time"
)

var (
	flagPlayer1Config = flag.String("ai1", "", "1st player configuration.")
	flagPlayer2Config = flag.String("ai2", "", "2nd player configuration.")
	flagBoardSize     = flag.Int("board_size", state.DefaultBoardSize, "Size of the board.")
	flagNumMatches    = flag.Int("num_matches", 100, "Number of matches to play.")
	flagParallelism   = flag.Int("parallelism", 0, "If > 0 ignore GOMAXPROCS and play "+
		"these many matches simultaneously.")
	flagPrintSteps = flag.Bool("print_steps", false, "Print board at each step. "+
		"Very verbose, and you probably want to set -parallelism=1.")
	flagChart = flag.String("chart", "", "If set, writes an HTML chart with the cumulative results to the given file.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	if *flagPlayer1Config == "" || *flagPlayer2Config == "" {
		klog.Exit("You must configure both players to compare with flags -ai1 and -ai2")
	}

	// Capture Control+C
	ctx, cancel := context.WithCancel(context.Background())
	spinning.SafeInterrupt(cancel, 5*time.Second)
	defer cancel()

	// Profilers: HTTP profiler server and CPU profile.
	prof := must.M1(profilers.Setup(ctx))
	defer prof.OnQuit()

	aiPlayers := must.M1(createAIPlayers(*flagPlayer1Config, *flagPlayer2Config))
	a := arena.New(aiPlayers[0], aiPlayers[1], *flagBoardSize)
	a.Parallelism = getParallelism()
	if *flagPrintSteps {
		ui := cli.New(true, false)
		a.Display = func(gameIdx int, board *state.Board, action state.Action, nextBoard *state.Board) {
			fmt.Printf("Match-%05d, move #%d: %s plays %s\n",
				gameIdx, board.MoveNumber, board.NextPlayer.Color(), board.ActionString(action))
			ui.PrintBoard(nextBoard)
			fmt.Println("------------------")
		}
	}
	err := runMatches(ctx, os.Stdout, a, *flagNumMatches)
	if err != nil && !errors.Is(err, context.Canceled) {
		klog.Exitf("Failed to run matches: %+v", err)
	}
	if *flagChart != "" && len(a.History) > 0 {
		title := fmt.Sprintf("%dx%d Othello", *flagBoardSize, *flagBoardSize)
		must.M(report.WriteFile(*flagChart, title, [2]string{*flagPlayer1Config, *flagPlayer2Config}, a.History))
		fmt.Printf("Chart written to %q\n", *flagChart)
	}
}

func createAIPlayers(configs ...string) (aiPlayers [2]players.Player, err error) {
	for playerIdx, config := range configs {
		klog.V(1).Infof("Creating AI for player #%d from %q", playerIdx+1, config)
		aiPlayers[playerIdx], err = players.New(config)
		if err != nil {
			return aiPlayers, errors.WithMessagef(err, "failed to create AI-%d from %q", playerIdx+1, config)
		}
	}
	return
}

// runMatches plays the matches in the arena, printing the running results to w.
func runMatches(ctx context.Context, w io.Writer, a *arena.Arena, numMatches int) error {
	start := time.Now()
	printResults := func(results arena.Results) {
		_, _ = fmt.Fprintf(w, "\rPlayed %d of %d: AI-1 won %d, AI-2 won %d, %d draws - %s\x1b[0K",
			results.Total(), numMatches, results.OneWon, results.TwoWon, results.Draws,
			time.Since(start).Round(time.Second))
	}
	a.Progress = func(_ arena.GameResult, results arena.Results) {
		printResults(results)
	}
	printResults(arena.Results{})
	results, err := a.PlayGames(ctx, numMatches)
	_, _ = fmt.Fprintln(w)
	if err != nil {
		if ctx.Err() != nil {
			_, _ = fmt.Fprintf(w, "Interrupted: %s\n", ctx.Err())
		}
		return err
	}
	var oneFirstWins, twoFirstWins int
	for _, game := range a.History {
		switch {
		case game.Outcome > 0 && game.OneFirst:
			oneFirstWins++
		case game.Outcome < 0 && !game.OneFirst:
			twoFirstWins++
		}
	}
	_, _ = fmt.Fprintf(w, "Final: %s (AI-1 won %d as 1st, AI-2 won %d as 1st)\n", results, oneFirstWins, twoFirstWins)
	return nil
}

// getParallelism returns the parallelism.
func getParallelism() (parallelism int) {
	parallelism = runtime.GOMAXPROCS(0)
	if *flagParallelism > 0 {
		parallelism = *flagParallelism
	}
	return
}
