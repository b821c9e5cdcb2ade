// verify is a smoke test of an installation: it loads the pretrained model, wraps it in an MCTS searcher and
// plays a couple of games against a player that chooses its moves at random.
//
// It exits with status 1 if anything fails (e.g.: the model checkpoint is missing).
//
// See -help for flags.
package main

import (
	"context"
	"flag"
	"fmt"
	"github.com/janpfeifer/othelloGo/internal/arena"
	"github.com/janpfeifer/othelloGo/internal/players"
	_ "github.com/janpfeifer/othelloGo/internal/players/default"
	"github.com/janpfeifer/othelloGo/internal/state"
	"github.com/janpfeifer/othelloGo/internal/ui/spinning"
	"github.com/pkg/errors"
	"io"
	"k8s.io/klog/v2"
	"os"
	"strings"
	"time"
)

var (
	flagBoardSize  = flag.Int("board_size", 6, "Size of the board, it must match the one the model was trained on.")
	flagCheckpoint = flag.String("checkpoint", "./pretrained_models/othello/gomlx/6x6_best",
		"Directory with the pretrained GoMLX model checkpoint.")
	flagNumMCTSSims = flag.Int("num_mcts_sims", 25, "Number of MCTS simulations per move.")
	flagCPuct       = flag.Float64("c_puct", 1.0, "MCTS exploration constant.")
	flagAIConfig    = flag.String("ai", "", "If set, overrides the AI player configuration (e.g.: \"linear,mcts\"), "+
		"and -checkpoint, -num_mcts_sims and -c_puct are ignored.")
	flagNumGames    = flag.Int("num_games", 2, "Number of games to play against the random player.")
	flagParallelism = flag.Int("parallelism", 1, "Number of games to play simultaneously.")
	flagSeed        = flag.Uint64("seed", 0, "Seed for the random player. If 0 a random seed is used.")
)

// config of one verification run.
type config struct {
	boardSize   int
	checkpoint  string
	numMCTSSims int
	cPuct       float64
	aiConfig    string
	numGames    int
	parallelism int
	randomSeed  uint64
}

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	// Capture Control+C
	ctx, cancel := context.WithCancel(context.Background())
	spinning.SafeInterrupt(cancel, 3*time.Second)
	defer cancel()

	cfg := config{
		boardSize:   *flagBoardSize,
		checkpoint:  *flagCheckpoint,
		numMCTSSims: *flagNumMCTSSims,
		cPuct:       *flagCPuct,
		aiConfig:    *flagAIConfig,
		numGames:    *flagNumGames,
		parallelism: *flagParallelism,
		randomSeed:  *flagSeed,
	}
	if _, err := verify(ctx, os.Stdout, cfg); err != nil {
		fmt.Printf("\n❌ FAILED: %v\n", err)
		klog.Exitf("Verification failed: %+v", err)
	}
}

// aiPlayerConfig returns the players.New configuration of the AI player.
func (cfg config) aiPlayerConfig() string {
	if cfg.aiConfig != "" {
		return cfg.aiConfig
	}
	return fmt.Sprintf("a0fnn=%s,mcts,num_mcts_sims=%d,c_puct=%g,temperature=0",
		cfg.checkpoint, cfg.numMCTSSims, cfg.cPuct)
}

// verify runs the verification steps, printing the progress to w.
func verify(ctx context.Context, w io.Writer, cfg config) (results arena.Results, err error) {
	separator := strings.Repeat("=", 50)
	_, _ = fmt.Fprintln(w, separator)
	_, _ = fmt.Fprintln(w, "Testing Othello with GoMLX...")
	_, _ = fmt.Fprintln(w, separator)

	_, _ = fmt.Fprintf(w, "\n1. Creating %dx%d Othello game...\n", cfg.boardSize, cfg.boardSize)
	if cfg.boardSize < state.MinBoardSize || cfg.boardSize > state.MaxBoardSize || cfg.boardSize%2 != 0 {
		return results, errors.Errorf("invalid -board_size=%d: it must be even and between %d and %d",
			cfg.boardSize, state.MinBoardSize, state.MaxBoardSize)
	}
	if cfg.numGames < 1 {
		return results, errors.Errorf("invalid -num_games=%d: at least one game must be played", cfg.numGames)
	}
	board := state.NewBoard(cfg.boardSize)
	_, _ = fmt.Fprintf(w, "   Board size: %dx%d\n", board.Size, board.Size)
	_, _ = fmt.Fprintf(w, "   Action space: %d possible actions\n", board.ActionSize())

	_, _ = fmt.Fprintln(w, "\n2. Loading pretrained model...")
	if cfg.aiConfig == "" {
		if _, err = os.Stat(cfg.checkpoint); err != nil {
			return results, errors.Wrapf(err, "pretrained model checkpoint %q not found, "+
				"train one with a0trainer or use -ai to configure another player", cfg.checkpoint)
		}
	}
	aiConfig := cfg.aiPlayerConfig()
	klog.V(1).Infof("AI player configuration: %q", aiConfig)
	aiPlayer, err := players.New(aiConfig)
	if err != nil {
		return results, errors.WithMessagef(err, "failed to create AI player from %q", aiConfig)
	}
	defer aiPlayer.Finalize()
	if err = checkBoardSize(aiPlayer, cfg.boardSize); err != nil {
		return results, err
	}
	_, _ = fmt.Fprintln(w, "   Model loaded successfully!")

	_, _ = fmt.Fprintln(w, "\n3. Setting up Monte Carlo Tree Search...")
	_, _ = fmt.Fprintf(w, "   AI player: %s\n", aiPlayer)

	randomPlayer := players.NewRandomPlayer(cfg.randomSeed)
	_, _ = fmt.Fprintf(w, "\n4. Playing %d games: AI vs Random Player...\n", cfg.numGames)
	a := arena.New(aiPlayer, randomPlayer, cfg.boardSize)
	a.Parallelism = cfg.parallelism
	a.Progress = func(game arena.GameResult, _ arena.Results) {
		klog.V(1).Infof("Game #%d finished in %s: outcome %+d (%s)",
			game.Index, game.Elapsed, game.Outcome, game.Final.FinishReason())
	}
	results, err = a.PlayGames(ctx, cfg.numGames)
	if err != nil {
		return results, errors.WithMessage(err, "failed to play games")
	}

	_, _ = fmt.Fprintf(w, "\n   Results: AI won %d, Random won %d, Draws %d\n",
		results.OneWon, results.TwoWon, results.Draws)
	if results.OneWon > results.TwoWon {
		_, _ = fmt.Fprintln(w, "\n✅ SUCCESS: AI player is working and winning games!")
	} else {
		_, _ = fmt.Fprintln(w, "\n⚠️  AI didn't win all games, but setup is working.")
	}
	_, _ = fmt.Fprintf(w, "\n%s\nVerification complete!\n%s\n", separator, separator)
	return results, nil
}

// checkBoardSize verifies that the scorer of the player, if it is tied to a board size, matches the game.
func checkBoardSize(player players.Player, boardSize int) error {
	ss, ok := player.(*players.SearcherScorer)
	if !ok {
		return nil
	}
	sized, ok := ss.Scorer.(interface{ BoardSize() int })
	if !ok {
		return nil
	}
	if sized.BoardSize() != boardSize {
		return errors.Errorf("model %s was trained for board size %d, but the game uses board size %d",
			ss.Scorer, sized.BoardSize(), boardSize)
	}
	return nil
}
