package cli

import (
	"bytes"
	. "github.com/janpfeifer/othelloGo/internal/state"
	. "github.com/janpfeifer/othelloGo/internal/state/statetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
)

func TestReadCommand(t *testing.T) {
	board := NewBoard(6)
	out := &bytes.Buffer{}
	ui := NewWithIO(strings.NewReader("z9\nf6\nc2\n"), out, false, false)
	action, err := ui.ReadCommand(board)
	require.NoError(t, err)
	assert.Equal(t, "c2", board.ActionString(action))
	assert.Contains(t, out.String(), "Failed to parse")
	assert.Contains(t, out.String(), "is not valid")

	ui = NewWithIO(strings.NewReader("a1\na1\na1\n"), out, false, false)
	_, err = ui.ReadCommand(board)
	assert.ErrorIs(t, err, ErrTooManyParsingErrors)

	ui = NewWithIO(strings.NewReader(""), out, false, false)
	_, err = ui.ReadCommand(board)
	assert.Error(t, err)
}

func TestPrintBoard(t *testing.T) {
	board := NewBoard(4)
	out := &bytes.Buffer{}
	ui := NewWithIO(strings.NewReader(""), out, false, false)
	ui.Print(board, true)
	text := out.String()
	assert.Contains(t, text, "Move #1")
	assert.Contains(t, text, " a  b  c  d ")
	assert.Contains(t, text, "Black: 2 disks")
	assert.Contains(t, text, "Available actions: [b1, a2, d3, c4]")
	// Valid placements are marked.
	assert.Equal(t, 4, strings.Count(text, " * "))
}

func TestRun(t *testing.T) {
	// White has to pass, then black wins by playing c1.
	board := BuildBoard(`
		X O . .
		. O . .
		X . . .
		. . . .`, PlayerSecond)
	out := &bytes.Buffer{}
	ui := NewWithIO(strings.NewReader("c1\n"), out, false, false)
	final, err := ui.Run(board)
	require.NoError(t, err)
	assert.True(t, final.IsFinished())
	assert.Equal(t, PlayerFirst, final.Winner())
	assert.Contains(t, out.String(), "has no available actions, passing")
	assert.Contains(t, out.String(), "BLACK PLAYER WINS")
}
