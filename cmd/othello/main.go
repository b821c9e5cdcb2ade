// othello is a terminal front-end to play Othello against the AI, watch two AIs playing each other,
// or play a hotseat match between two humans.
//
// Actions are typed as a column letter followed by the row number (e.g.: "d3"), or "pass".
//
// See -help for flags.
package main

import (
	"context"
	"flag"
	"fmt"
	"github.com/janpfeifer/must"
	"github.com/janpfeifer/othelloGo/internal/features"
	"github.com/janpfeifer/othelloGo/internal/players"
	_ "github.com/janpfeifer/othelloGo/internal/players/default"
	. "github.com/janpfeifer/othelloGo/internal/state"
	"github.com/janpfeifer/othelloGo/internal/ui/cli"
	"github.com/janpfeifer/othelloGo/internal/ui/spinning"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
	"math/rand/v2"
	"os"
	"strings"
	"time"
)

var (
	flagBoardSize = flag.Int("board_size", DefaultBoardSize, "Size of the board, an even number from 4 to 16.")
	flagHotseat   = flag.Bool("hotseat", false, "Hotseat match: human vs human")
	flagWatch     = flag.Bool("watch", false, "Watch mode: AI vs AI playing")
	flagFirst     = flag.String("first", "", "Who plays first: human or ai. Default is random.")
	flagAIConfig  = flag.String("config", players.DefaultPlayerConfig, "AI configuration against which to play")
	flagAIConfig2 = flag.String("config2", players.DefaultPlayerConfig, "Second AI configuration, if playing AI vs AI with -watch")
	flagQuiet     = flag.Bool("quiet", false, "Quiet mode for when watching AI play, only the actions and the last board position is printed.")
	flagNoColor   = flag.Bool("no_color", false, "Disable colors in the terminal.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	// Capture Control+C
	ctx, cancel := context.WithCancel(context.Background())
	spinning.SafeInterrupt(cancel, 3*time.Second)
	defer cancel()

	aiPlayers := must.M1(createPlayers())
	defer func() {
		for _, p := range aiPlayers {
			if p != nil {
				p.Finalize()
			}
		}
	}()
	board, err := playMatch(ctx, aiPlayers, cli.New(!*flagNoColor, false))
	if err != nil {
		klog.Exitf("Failed to run match: %+v", err)
	}
	klog.V(1).Infof("Match finished after %d moves: %s", board.MoveNumber, board.FinishReason())
}

// playMatch runs a match until the end, asking the human players (nil entries in aiPlayers) for their actions.
func playMatch(ctx context.Context, aiPlayers [NumPlayers]players.Player, ui *cli.UI) (*Board, error) {
	board := NewBoard(*flagBoardSize)
	for !board.IsFinished() {
		if ctx.Err() != nil {
			return board, ctx.Err()
		}
		aiPlayer := aiPlayers[board.NextPlayer]
		if aiPlayer == nil {
			if newBoard, passed := ui.CheckNoAvailableAction(board); passed {
				board = newBoard
				continue
			}
			newBoard, err := ui.RunNextMove(board)
			if err != nil {
				return board, err
			}
			board = newBoard
			continue
		}

		// AI plays.
		if !*flagQuiet {
			ui.Print(board, false)
		}
		if klog.V(2).Enabled() {
			klog.Infof("Board features:\n%s", features.FeaturesString(features.FeatureVector(board)))
		}
		fmt.Printf("\t%s: ", aiPlayer)
		ui.PrintPlayer(board)
		s := spinning.New(ctx, os.Stdout)
		action, newBoard, score, policy, err := aiPlayer.Play(board)
		s.Done()
		if err != nil {
			return board, err
		}
		fmt.Printf(" %s (score=%.3f", board.ActionString(action), score)
		if idx := board.FindAction(action); policy != nil && idx >= 0 {
			fmt.Printf(", prob=%.1f%%", 100*policy[idx])
		}
		fmt.Print(")\n\n")
		board = newBoard
	}
	ui.Print(board, false)
	ui.PrintWinner(board)
	return board, nil
}

// createPlayers returns the AI players, indexed by PlayerNum. Human players are left as nil.
func createPlayers() (aiPlayers [NumPlayers]players.Player, err error) {
	if *flagHotseat && *flagWatch {
		return aiPlayers, errors.New("-hotseat and -watch cannot be used together")
	}
	if *flagHotseat {
		// Both players are human, nothing to do.
		return
	}

	var aiPlayerNum PlayerNum
	switch {
	case *flagWatch:
		aiPlayerNum = PlayerFirst
	case strings.ToLower(*flagFirst) == "human":
		aiPlayerNum = PlayerSecond
	case strings.ToLower(*flagFirst) == "ai":
		aiPlayerNum = PlayerFirst
	case *flagFirst == "":
		aiPlayerNum = PlayerNum(rand.IntN(NumPlayers))
	default:
		return aiPlayers, errors.Errorf("invalid -first=%q, only valid values are \"human\" or \"ai\"", *flagFirst)
	}
	aiPlayers[aiPlayerNum], err = players.New(*flagAIConfig)
	if err != nil || !*flagWatch {
		return
	}
	aiPlayers[aiPlayerNum.Opponent()], err = players.New(*flagAIConfig2)
	return
}
