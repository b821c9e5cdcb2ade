package main

import (
	"context"
	"encoding/gob"
	"fmt"
	"github.com/janpfeifer/othelloGo/internal/ai"
	"github.com/janpfeifer/othelloGo/internal/players"
	. "github.com/janpfeifer/othelloGo/internal/state"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"io"
	"k8s.io/klog/v2"
	"os"
	"runtime"
	"sync"
	"time"
)

// Match holds the sequence of boards and actions of one match.
type Match struct {
	// Boards has one more element than Actions: the final board.
	Boards   []*Board
	Actions  []Action
	Policies [][]float32
}

// FinalBoard of the match.
func (m *Match) FinalBoard() *Board {
	return m.Boards[len(m.Boards)-1]
}

// runMatch plays one match with the player taking both sides.
func runMatch(ctx context.Context, matchIdx int, player players.Player, boardSize int) (*Match, error) {
	board := NewBoard(boardSize)
	match := &Match{Boards: []*Board{board}}
	for !board.IsFinished() {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		action, nextBoard, _, policy, err := player.Play(board)
		if err != nil {
			return nil, errors.WithMessagef(err, "match %d failed", matchIdx)
		}
		// Searchers that don't return a policy (e.g. alpha-beta) are labeled with the action taken.
		fullPolicy := ai.OneHotEncoding(board.ActionSize(), int(action))
		if policy != nil {
			fullPolicy = ai.ExpandPolicy(board, policy)
		}
		board.ClearNextBoardsCache()
		match.Actions = append(match.Actions, action)
		match.Policies = append(match.Policies, fullPolicy)
		match.Boards = append(match.Boards, nextBoard)
		board = nextBoard
	}
	klog.V(1).Infof("Match %d finished: %s", matchIdx, board.FinishReason())
	return match, nil
}

// runMatches plays numMatches in parallel, and returns them ordered by index.
func runMatches(ctx context.Context, player players.Player, boardSize, numMatches int) ([]*Match, error) {
	matches := make([]*Match, numMatches)
	var (
		mu       sync.Mutex
		finished int
	)
	start := time.Now()
	var g errgroup.Group
	g.SetLimit(getParallelism())
	for matchIdx := range numMatches {
		g.Go(func() error {
			match, err := runMatch(ctx, matchIdx, player, boardSize)
			if err != nil {
				return err
			}
			matches[matchIdx] = match
			mu.Lock()
			defer mu.Unlock()
			finished++
			fmt.Printf("\rPlaying: %d of %d matches finished in %s\x1b[0K",
				finished, numMatches, time.Since(start).Round(time.Second))
			return nil
		})
	}
	err := g.Wait()
	fmt.Println()
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// saveMatches to the given file. The file is first written to a temporary file, and the previous
// version, if it exists, is kept as a backup (suffix "~").
func saveMatches(fileName string, matches []*Match) error {
	tmpName := fileName + ".tmp"
	f, err := os.Create(tmpName)
	if err != nil {
		return errors.Wrapf(err, "failed to create %q", tmpName)
	}
	enc := gob.NewEncoder(f)
	for _, match := range matches {
		if err = EncodeMatch(enc, match.Boards[0].Size, match.Actions, match.Policies); err != nil {
			_ = f.Close()
			return err
		}
	}
	if err = f.Close(); err != nil {
		return errors.Wrapf(err, "failed to close %q", tmpName)
	}
	if _, err = os.Stat(fileName); err == nil {
		if err = os.Rename(fileName, fileName+"~"); err != nil {
			return errors.Wrapf(err, "failed to backup %q", fileName)
		}
	}
	if err = os.Rename(tmpName, fileName); err != nil {
		return errors.Wrapf(err, "failed to rename %q to %q", tmpName, fileName)
	}
	klog.Infof("Saved %d matches to %q", len(matches), fileName)
	return nil
}

// loadMatches saved with saveMatches.
func loadMatches(fileName string) ([]*Match, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open matches file %q", fileName)
	}
	defer func() { _ = f.Close() }()
	dec := gob.NewDecoder(f)
	var matches []*Match
	for {
		_, actions, policies, boards, err := LoadMatch(dec)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.WithMessagef(err, "failed to load match #%d from %q", len(matches), fileName)
		}
		matches = append(matches, &Match{Boards: boards, Actions: actions, Policies: policies})
	}
	klog.V(1).Infof("Loaded %d matches from %q", len(matches), fileName)
	return matches, nil
}

// countPositions returns the number of boards where an action was taken.
func countPositions(matches []*Match) (count int) {
	for _, match := range matches {
		count += len(match.Actions)
	}
	return
}

// getParallelism returns the parallelism.
func getParallelism() (parallelism int) {
	parallelism = runtime.GOMAXPROCS(0)
	if *flagParallelism > 0 {
		parallelism = *flagParallelism
	}
	return
}
