// Package state holds the Othello game state: the board, the players and the actions.
//
// Boards are treated as immutable values: Board.Act returns a new Board, and the information
// derived from the position (legal actions, disk counts, winner) is stored in Board.Derived.
package state

import (
	"fmt"
	"github.com/gomlx/exceptions"
	"slices"
	"strings"
)

const (
	// NumPlayers is always 2 in Othello.
	NumPlayers = 2

	// DefaultBoardSize is the standard tournament board size.
	DefaultBoardSize = 8

	// MinBoardSize and MaxBoardSize are the limits supported. The size must also be even,
	// so the starting position is centered.
	MinBoardSize = 4
	MaxBoardSize = 16
)

// PlayerNum is the either 0 or 1 corresponding to the first player to move (black)
// or the second player to move (white).
type PlayerNum uint8

const (
	PlayerFirst PlayerNum = iota
	PlayerSecond

	// PlayerInvalid represents an invalid PlayerNum, or no player (e.g.: the winner of a draw).
	PlayerInvalid
)

var playerNames = [...]string{"First", "Second", "Invalid"}

// String implements fmt.Stringer.
func (p PlayerNum) String() string {
	if int(p) < len(playerNames) {
		return playerNames[p]
	}
	return fmt.Sprintf("PlayerNum(%d)", p)
}

// Color of the disks of the player: black plays first.
func (p PlayerNum) Color() string {
	switch p {
	case PlayerFirst:
		return "Black"
	case PlayerSecond:
		return "White"
	default:
		return "None"
	}
}

// Opponent returns the other player.
func (p PlayerNum) Opponent() PlayerNum {
	return 1 - p
}

// Cell holds the content of one square of the board.
type Cell uint8

const (
	Empty Cell = iota
	BlackDisk
	WhiteDisk
)

// CellFor returns the disk of the given player.
func CellFor(player PlayerNum) Cell {
	return Cell(player + 1)
}

// Owner of the disk in the cell, or PlayerInvalid if it is empty.
func (c Cell) Owner() PlayerNum {
	if c == Empty {
		return PlayerInvalid
	}
	return PlayerNum(c - 1)
}

// Board is a compact representation of the game state.
// Use it through its methods, and don't change it after it's built: it may be shared
// by search trees.
type Board struct {
	// cells in row-major order, Size*Size of them.
	cells []Cell

	// Size of the board: it's always a square.
	Size int

	MoveNumber int
	NextPlayer PlayerNum

	// Derived information is regenerated after each move.
	Derived *Derived
}

// NewBoard creates a board of the given size with the standard starting position:
// two disks for each player in the central 2x2 square, white on the main diagonal.
func NewBoard(size int) *Board {
	if size < MinBoardSize || size > MaxBoardSize || size%2 != 0 {
		exceptions.Panicf("invalid board size %d: it must be even and between %d and %d",
			size, MinBoardSize, MaxBoardSize)
	}
	b := &Board{
		cells:      make([]Cell, size*size),
		Size:       size,
		MoveNumber: 1,
		NextPlayer: PlayerFirst,
	}
	half := size / 2
	b.set(half-1, half-1, WhiteDisk)
	b.set(half, half, WhiteDisk)
	b.set(half-1, half, BlackDisk)
	b.set(half, half-1, BlackDisk)
	b.BuildDerived()
	return b
}

// NewBoardFromCells creates a board from a given list of cells (row-major). Mostly used by
// tests and when loading positions.
func NewBoardFromCells(size int, cells []Cell, nextPlayer PlayerNum) *Board {
	if len(cells) != size*size {
		exceptions.Panicf("NewBoardFromCells: %d cells given for board size %d", len(cells), size)
	}
	b := &Board{
		cells:      slices.Clone(cells),
		Size:       size,
		MoveNumber: 1,
		NextPlayer: nextPlayer,
	}
	b.BuildDerived()
	return b
}

// Clone makes a copy of the board, without the derived information.
func (b *Board) Clone() *Board {
	newB := &Board{}
	*newB = *b
	newB.cells = slices.Clone(b.cells)
	newB.Derived = nil
	return newB
}

// OpponentPlayer returns the player that is not the next one to play.
func (b *Board) OpponentPlayer() PlayerNum {
	return 1 - b.NextPlayer
}

// At returns the content of the cell at the given row and column.
func (b *Board) At(row, col int) Cell {
	return b.cells[row*b.Size+col]
}

// Cells returns a read-only view of the cells, in row-major order.
func (b *Board) Cells() []Cell {
	return b.cells
}

func (b *Board) set(row, col int, c Cell) {
	b.cells[row*b.Size+col] = c
}

func (b *Board) inside(row, col int) bool {
	return row >= 0 && row < b.Size && col >= 0 && col < b.Size
}

// NumDisks returns how many disks the player has on the board.
func (b *Board) NumDisks(player PlayerNum) int {
	return b.Derived.NumDisks[player]
}

// ActionSize is the size of the fixed action space: one action per cell, plus the pass action.
func (b *Board) ActionSize() int {
	return b.Size*b.Size + 1
}

// PassAction is the action index used to pass the turn, only valid when there are no other moves.
func (b *Board) PassAction() Action {
	return Action(b.Size * b.Size)
}

// IsPass returns whether the action is the pass action for this board.
func (b *Board) IsPass(action Action) bool {
	return action == b.PassAction()
}

// NumActions available to the next player. It is zero if the game is finished.
func (b *Board) NumActions() int {
	return len(b.Derived.Actions)
}

// IsFinished returns whether the match is over: neither player can place a disk.
func (b *Board) IsFinished() bool {
	return len(b.Derived.Actions) == 0
}

// Winner returns the player with most disks at the end of the game.
// It returns PlayerInvalid if the game is not finished, or if it is a draw.
func (b *Board) Winner() PlayerNum {
	if !b.IsFinished() {
		return PlayerInvalid
	}
	for player := range PlayerNum(NumPlayers) {
		if b.Derived.Wins[player] {
			return player
		}
	}
	return PlayerInvalid
}

// Draw returns whether the game finished with the same number of disks for both players.
func (b *Board) Draw() bool {
	return b.IsFinished() && !b.Derived.Wins[0] && !b.Derived.Wins[1]
}

// FinishReason returns a human-readable description of how the game ended.
func (b *Board) FinishReason() string {
	if !b.IsFinished() {
		return "not finished"
	}
	counts := fmt.Sprintf("%d x %d", b.NumDisks(PlayerFirst), b.NumDisks(PlayerSecond))
	if b.Derived.NumEmpty == 0 {
		return "board is full, " + counts
	}
	return "no moves left for either player, " + counts
}

// String returns an ASCII representation of the board: "X" for black, "O" for white.
func (b *Board) String() string {
	var sb strings.Builder
	for row := range b.Size {
		for col := range b.Size {
			switch b.At(row, col) {
			case BlackDisk:
				sb.WriteByte('X')
			case WhiteDisk:
				sb.WriteByte('O')
			default:
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
