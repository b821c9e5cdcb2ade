// Package statetest provides helper functions to create tests using the Othello state.
package statetest

import (
	"github.com/gomlx/exceptions"
	. "github.com/janpfeifer/othelloGo/internal/state"
	"strings"
)

// BuildBoard from an ASCII layout, one line per row: "X" for black, "O" for white and "." for empty.
// Spaces are ignored, as well as empty lines.
func BuildBoard(layout string, nextPlayer PlayerNum) *Board {
	var cells []Cell
	size := 0
	for _, line := range strings.Split(layout, "\n") {
		line = strings.ReplaceAll(strings.TrimSpace(line), " ", "")
		if line == "" {
			continue
		}
		if size == 0 {
			size = len(line)
		} else if len(line) != size {
			exceptions.Panicf("BuildBoard: row %q has %d cells, expected %d", line, len(line), size)
		}
		for _, ch := range line {
			switch ch {
			case 'X', 'x':
				cells = append(cells, BlackDisk)
			case 'O', 'o':
				cells = append(cells, WhiteDisk)
			case '.':
				cells = append(cells, Empty)
			default:
				exceptions.Panicf("BuildBoard: invalid cell %q", ch)
			}
		}
	}
	if len(cells) != size*size {
		exceptions.Panicf("BuildBoard: layout has %d cells, not a square of size %d", len(cells), size)
	}
	return NewBoardFromCells(size, cells, nextPlayer)
}
