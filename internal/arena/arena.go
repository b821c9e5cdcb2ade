// Package arena runs matches between two players and tallies the results.
package arena

import (
	"context"
	"fmt"
	"github.com/janpfeifer/othelloGo/internal/players"
	"github.com/janpfeifer/othelloGo/internal/state"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
	"sync"
	"time"
)

// Results of the games played in the Arena, from the point of view of the two players.
type Results struct {
	OneWon, TwoWon, Draws int
}

// Total number of games accounted for.
func (r Results) Total() int {
	return r.OneWon + r.TwoWon + r.Draws
}

// String implements fmt.Stringer.
func (r Results) String() string {
	return fmt.Sprintf("player one won %d, player two won %d, draws %d", r.OneWon, r.TwoWon, r.Draws)
}

// record the outcome of one game.
func (r *Results) record(outcome int) {
	switch {
	case outcome > 0:
		r.OneWon++
	case outcome < 0:
		r.TwoWon++
	default:
		r.Draws++
	}
}

// GameResult holds the information about one game played.
type GameResult struct {
	// Index of the game, from 0 to the number of games played - 1.
	Index int

	// Outcome from player one's point of view: +1 if player one won, -1 if player two won, 0 for a draw.
	Outcome int

	// OneFirst is true if player one moved first (as black).
	OneFirst bool

	// Final board of the game.
	Final *state.Board

	// Elapsed time to play the game.
	Elapsed time.Duration
}

// Arena where two players are pitted against each other.
type Arena struct {
	// Players: the first one is referred as "player one", the second as "player two".
	Players [2]players.Player

	// BoardSize of the games played.
	BoardSize int

	// Parallelism is the number of games played concurrently by PlayGames. If <= 1 games are played
	// sequentially. The players must be safe for concurrent use if Parallelism > 1.
	Parallelism int

	// Display, if set, is called after every move.
	// It is serialized: it's never called concurrently.
	Display func(gameIdx int, board *state.Board, action state.Action, nextBoard *state.Board)

	// Progress, if set, is called at the end of each game, with the results accumulated so far.
	// It is serialized: it's never called concurrently.
	Progress func(game GameResult, results Results)

	// History of the games played by the last call to PlayGames, ordered by game index.
	History []GameResult

	muDisplay sync.Mutex
}

// New creates an Arena for the two players, that will play sequentially games on boards of the given size.
func New(playerOne, playerTwo players.Player, boardSize int) *Arena {
	return &Arena{
		Players:     [2]players.Player{playerOne, playerTwo},
		BoardSize:   boardSize,
		Parallelism: 1,
	}
}

// PlayGame plays one game between the two players: if oneFirst is true player one moves first (it plays black),
// otherwise player two moves first.
//
// It returns the outcome from player one's point of view: +1 if player one won, -1 if player two won, 0 for a draw.
// The context is checked between moves: if cancelled it returns the context error.
func (a *Arena) PlayGame(ctx context.Context, gameIdx int, oneFirst bool) (outcome int, err error) {
	result, err := a.playGame(ctx, gameIdx, oneFirst)
	if err != nil {
		return 0, err
	}
	return result.Outcome, nil
}

func (a *Arena) playGame(ctx context.Context, gameIdx int, oneFirst bool) (result GameResult, err error) {
	start := time.Now()
	result = GameResult{Index: gameIdx, OneFirst: oneFirst}

	// colorToPlayer maps the color (state.PlayerFirst, state.PlayerSecond) to the index in Players.
	colorToPlayer := [2]int{0, 1}
	if !oneFirst {
		colorToPlayer = [2]int{1, 0}
	}
	board := state.NewBoard(a.BoardSize)
	for !board.IsFinished() {
		if err = ctx.Err(); err != nil {
			return
		}
		playerIdx := colorToPlayer[board.NextPlayer]
		action, nextBoard, _, _, playErr := a.Players[playerIdx].Play(board)
		if playErr != nil {
			err = errors.WithMessagef(playErr, "game #%d, move #%d, player %d", gameIdx, board.MoveNumber, playerIdx+1)
			return
		}
		if !board.IsValid(action) {
			err = errors.Errorf("game #%d, move #%d: player %d played invalid action %s",
				gameIdx, board.MoveNumber, playerIdx+1, board.ActionString(action))
			return
		}
		if klog.V(2).Enabled() {
			klog.Infof("Game #%d, move #%d: player %d (%s) played %s", gameIdx, board.MoveNumber,
				playerIdx+1, board.NextPlayer, board.ActionString(action))
		}
		if a.Display != nil {
			a.muDisplay.Lock()
			a.Display(gameIdx, board, action, nextBoard)
			a.muDisplay.Unlock()
		}
		board.ClearNextBoardsCache()
		board = nextBoard
	}

	result.Final = board
	result.Elapsed = time.Since(start)
	if !board.Draw() {
		if colorToPlayer[board.Winner()] == 0 {
			result.Outcome = 1
		} else {
			result.Outcome = -1
		}
	}
	klog.V(1).Infof("Game #%d finished after %d moves (%s): outcome %+d", gameIdx, board.MoveNumber-1,
		board.FinishReason(), result.Outcome)
	return
}

// PlayGames plays num games, alternating who moves first: in even games player one moves first.
//
// It returns the accumulated results, where OneWon + TwoWon + Draws == num. If the context is cancelled
// or any of the games fail, it returns an error.
func (a *Arena) PlayGames(ctx context.Context, num int) (Results, error) {
	var results Results
	if num < 0 {
		return results, errors.Errorf("invalid number of games %d", num)
	}
	a.History = make([]GameResult, num)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(max(a.Parallelism, 1))
	var muResults sync.Mutex
	for gameIdx := range num {
		eg.Go(func() error {
			game, err := a.playGame(egCtx, gameIdx, gameIdx%2 == 0)
			if err != nil {
				return err
			}
			muResults.Lock()
			defer muResults.Unlock()
			results.record(game.Outcome)
			a.History[gameIdx] = game
			if a.Progress != nil {
				a.Progress(game, results)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		if ctx.Err() != nil {
			// Report the cancellation of the caller, not the one of the errgroup.
			return results, ctx.Err()
		}
		return results, err
	}
	return results, nil
}
