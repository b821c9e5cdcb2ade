package state

import (
	"fmt"
	"github.com/pkg/errors"
	"strconv"
	"strings"
)

// Action is an index into the fixed action space of a board: row*Size+col for placing a disk
// on the given cell, or Size*Size for passing (see Board.PassAction).
type Action int

// NoAction is returned when no action could be selected.
const NoAction = Action(-1)

// RowCol returns the row and column of a placement action, for the given board size.
func (a Action) RowCol(size int) (row, col int) {
	return int(a) / size, int(a) % size
}

// ActionAt returns the placement action for the given cell.
func ActionAt(size, row, col int) Action {
	return Action(row*size + col)
}

// StringForSize returns the action in the usual notation: a column letter followed by the
// 1-based row number (e.g. "d3"), or "pass".
func (a Action) StringForSize(size int) string {
	if a == NoAction {
		return "none"
	}
	if int(a) == size*size {
		return "pass"
	}
	row, col := a.RowCol(size)
	return fmt.Sprintf("%c%d", 'a'+col, row+1)
}

// ActionString is a shortcut to Action.StringForSize with the board size.
func (b *Board) ActionString(a Action) string {
	return a.StringForSize(b.Size)
}

// ParseAction parses the notation used by Action.StringForSize. It doesn't check whether the
// action is valid, only that it is within the board.
func ParseAction(size int, s string) (Action, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "pass" || s == "p" {
		return Action(size * size), nil
	}
	if len(s) < 2 {
		return NoAction, errors.Errorf("invalid action %q: expected column letter and row number, e.g. \"d3\"", s)
	}
	col := int(s[0] - 'a')
	row, err := strconv.Atoi(s[1:])
	if err != nil {
		return NoAction, errors.Wrapf(err, "invalid row number in action %q", s)
	}
	row--
	if col < 0 || col >= size || row < 0 || row >= size {
		return NoAction, errors.Errorf("action %q is outside the %dx%d board", s, size, size)
	}
	return ActionAt(size, row, col), nil
}

// ActionsStrings converts a list of actions to their notation.
func (b *Board) ActionsStrings(actions []Action) []string {
	strs := make([]string, len(actions))
	for ii, a := range actions {
		strs[ii] = b.ActionString(a)
	}
	return strs
}
