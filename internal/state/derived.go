package state

import (
	"github.com/gomlx/exceptions"
	"sync"
)

// Derived holds information that is generated from the Board state.
type Derived struct {
	// Actions of the next player to move. If the player has no placement available but the
	// opponent does, it holds only the pass action. If empty, the game is over.
	Actions []Action

	// validMask has one entry per action of the fixed action space.
	validMask []bool

	// Disk counts per player, and number of empty cells.
	NumDisks [NumPlayers]int
	NumEmpty int

	// OpponentMobility is the number of placements the opponent would have if it were to move.
	OpponentMobility int

	// Wins is only set if the game is finished. If neither player wins, it is a draw.
	Wins [NumPlayers]bool

	// nextBoards are the cached generated boards for all possible actions taken.
	// If set, it has the same length as Actions.
	muNextBoards sync.Mutex
	nextBoards   []*Board
}

// directions enumerates the 8 lines a move can flip disks along.
var directions = [8][2]int{{-1, -1}, {-1, 0}, {-1, 1}, {0, -1}, {0, 1}, {1, -1}, {1, 0}, {1, 1}}

// BuildDerived rebuilds the Derived information of the board.
func (b *Board) BuildDerived() {
	d := &Derived{validMask: make([]bool, b.ActionSize())}
	b.Derived = d
	for _, c := range b.cells {
		if owner := c.Owner(); owner != PlayerInvalid {
			d.NumDisks[owner]++
		} else {
			d.NumEmpty++
		}
	}

	d.Actions = b.placements(b.NextPlayer)
	d.OpponentMobility = len(b.placements(b.OpponentPlayer()))
	if len(d.Actions) == 0 && d.OpponentMobility > 0 {
		d.Actions = []Action{b.PassAction()}
	}
	for _, action := range d.Actions {
		d.validMask[action] = true
	}
	if len(d.Actions) == 0 {
		// Game is over.
		first, second := d.NumDisks[PlayerFirst], d.NumDisks[PlayerSecond]
		d.Wins[PlayerFirst] = first > second
		d.Wins[PlayerSecond] = second > first
	}
}

// placements lists the cells where the player can place a disk, in row-major order.
func (b *Board) placements(player PlayerNum) (actions []Action) {
	for row := range b.Size {
		for col := range b.Size {
			if b.At(row, col) == Empty && b.flipsAny(player, row, col) {
				actions = append(actions, Action(row*b.Size+col))
			}
		}
	}
	return
}

// flipsAny returns whether placing a disk of the player at (row, col) would flip at least
// one opponent disk.
func (b *Board) flipsAny(player PlayerNum, row, col int) bool {
	for _, dir := range directions {
		if b.countFlips(player, row, col, dir) > 0 {
			return true
		}
	}
	return false
}

// countFlips returns the number of opponent disks that would be flipped along one direction.
func (b *Board) countFlips(player PlayerNum, row, col int, dir [2]int) int {
	own, opp := CellFor(player), CellFor(player.Opponent())
	count := 0
	r, c := row+dir[0], col+dir[1]
	for b.inside(r, c) && b.At(r, c) == opp {
		count++
		r, c = r+dir[0], c+dir[1]
	}
	if count == 0 || !b.inside(r, c) || b.At(r, c) != own {
		return 0
	}
	return count
}

// ValidActionsMask returns one boolean per action of the fixed action space (see ActionSize).
// The returned slice is shared and should not be modified.
func (b *Board) ValidActionsMask() []bool {
	return b.Derived.validMask
}

// IsValid returns whether the action can be taken by the next player.
func (b *Board) IsValid(action Action) bool {
	return action >= 0 && int(action) < len(b.Derived.validMask) && b.Derived.validMask[action]
}

// FindAction returns the index of the action in Derived.Actions, or -1 if not valid.
func (b *Board) FindAction(action Action) int {
	for ii, a := range b.Derived.Actions {
		if a == action {
			return ii
		}
	}
	return -1
}

// Act returns a new board after the next player takes the action.
// It panics if the action is not valid.
func (b *Board) Act(action Action) *Board {
	if !b.IsValid(action) {
		exceptions.Panicf("invalid action %s for %s at move #%d",
			action.StringForSize(b.Size), b.NextPlayer, b.MoveNumber)
	}
	newB := b.Clone()
	if !b.IsPass(action) {
		row, col := action.RowCol(b.Size)
		own := CellFor(b.NextPlayer)
		newB.set(row, col, own)
		for _, dir := range directions {
			n := b.countFlips(b.NextPlayer, row, col, dir)
			r, c := row, col
			for range n {
				r, c = r+dir[0], c+dir[1]
				newB.set(r, c, own)
			}
		}
	}
	newB.NextPlayer = b.OpponentPlayer()
	newB.MoveNumber = b.MoveNumber + 1
	newB.BuildDerived()
	return newB
}

// TakeAllActions returns the boards resulting from each of the actions in Derived.Actions.
// The result is cached in the board, so calling it again is cheap.
func (b *Board) TakeAllActions() []*Board {
	d := b.Derived
	d.muNextBoards.Lock()
	defer d.muNextBoards.Unlock()
	if d.nextBoards != nil {
		return d.nextBoards
	}
	d.nextBoards = make([]*Board, len(d.Actions))
	for ii, action := range d.Actions {
		d.nextBoards[ii] = b.Act(action)
	}
	return d.nextBoards
}

// ClearNextBoardsCache frees the boards cached by TakeAllActions.
func (b *Board) ClearNextBoardsCache() {
	d := b.Derived
	d.muNextBoards.Lock()
	defer d.muNextBoards.Unlock()
	d.nextBoards = nil
}
