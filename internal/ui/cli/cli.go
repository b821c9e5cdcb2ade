// Package cli implements a command-line UI for the game.
package cli

import (
	"bufio"
	"fmt"
	"github.com/charmbracelet/lipgloss"
	. "github.com/janpfeifer/othelloGo/internal/state"
	"github.com/pkg/errors"
	"golang.org/x/term"
	"io"
	"k8s.io/klog/v2"
	"os"
	"strings"
)

// ErrTooManyParsingErrors is returned by ReadCommand when the user failed to type a valid action 3 times.
var ErrTooManyParsingErrors = errors.New("failed to read command 3 times")

// UI prints boards and reads the human player actions from a terminal.
type UI struct {
	color, clearScreen bool
	reader             *bufio.Reader
	out                io.Writer
	renderer           *lipgloss.Renderer
}

// New creates a UI reading from os.Stdin and writing to os.Stdout.
func New(color bool, clearScreen bool) *UI {
	return NewWithIO(os.Stdin, os.Stdout, color, clearScreen)
}

// NewWithIO creates a UI reading the commands from in and printing to out.
func NewWithIO(in io.Reader, out io.Writer, color bool, clearScreen bool) *UI {
	return &UI{
		color:       color,
		clearScreen: clearScreen,
		reader:      bufio.NewReader(in),
		out:         out,
		renderer:    lipgloss.NewRenderer(out),
	}
}

// terminalWidth returns the width of the output if it is a terminal, or 0.
func (ui *UI) terminalWidth() int {
	f, ok := ui.out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}

func (ui *UI) printCentered(block string) {
	lines := strings.Split(block, "\n")
	blockWidth := lipgloss.Width(block)
	indent := max((ui.terminalWidth()-blockWidth)/2, 0)
	for _, line := range lines {
		if len(line) == 0 {
			_, _ = fmt.Fprintln(ui.out)
			continue
		}
		_, _ = fmt.Fprintf(ui.out, "%s%s\n", strings.Repeat(" ", indent), line)
	}
}

// diskStyle returns the style used to print the disks of the player.
func (ui *UI) diskStyle(player PlayerNum) lipgloss.Style {
	style := ui.renderer.NewStyle()
	if !ui.color {
		return style
	}
	if player == PlayerFirst {
		return style.Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("9"))
	}
	return style.Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("10"))
}

// CheckNoAvailableAction plays the pass action if it is the only one available to the next player.
func (ui *UI) CheckNoAvailableAction(board *Board) (*Board, bool) {
	if board.IsFinished() || board.NumActions() > 1 || !board.IsPass(board.Derived.Actions[0]) {
		return board, false
	}
	_, _ = fmt.Fprintln(ui.out)
	ui.PrintPlayer(board)
	_, _ = fmt.Fprintln(ui.out, " has no available actions, passing.")
	_, _ = fmt.Fprintln(ui.out)
	return board.Act(board.PassAction()), true
}

// RunNextMove prints the board and reads the next action from the user, until a valid one is given.
func (ui *UI) RunNextMove(board *Board) (*Board, error) {
	for {
		ui.Print(board, true)
		_, _ = fmt.Fprintln(ui.out)
		action, err := ui.ReadCommand(board)
		if errors.Is(err, ErrTooManyParsingErrors) {
			continue
		}
		if err != nil {
			klog.Errorf("RunNextMove() failed: %+v", err)
			return board, err
		}
		return board.Act(action), nil
	}
}

// Run a match where the user plays both sides, until the end of the game.
func (ui *UI) Run(board *Board) (*Board, error) {
	for {
		board, _ = ui.CheckNoAvailableAction(board)
		if board.IsFinished() {
			ui.PrintWinner(board)
			return board, nil
		}
		var err error
		board, err = ui.RunNextMove(board)
		if err != nil {
			return board, err
		}
	}
}

// PrintWinner prints the result of a finished game.
func (ui *UI) PrintWinner(b *Board) {
	winner := b.Winner()
	_, _ = fmt.Fprintln(ui.out)
	if winner == PlayerInvalid {
		style := ui.renderer.NewStyle().Padding(1, 2)
		if ui.color {
			style = style.Background(lipgloss.Color("13")).Foreground(lipgloss.Color("0"))
		}
		ui.printCentered(style.Render(fmt.Sprintf("*** DRAW: %s! ***", b.FinishReason())))
	} else {
		ui.printCentered(ui.diskStyle(winner).Render(
			fmt.Sprintf("*** %s PLAYER WINS!! (%s) ***", strings.ToUpper(winner.Color()), b.FinishReason())))
	}
	_, _ = fmt.Fprintln(ui.out)
}

// ReadCommand reads an action in the form "d3" (column letter and row number) or "pass".
// It gives the user 3 chances before returning ErrTooManyParsingErrors.
func (ui *UI) ReadCommand(b *Board) (action Action, err error) {
	for range 3 {
		_, _ = fmt.Fprint(ui.out, "    ")
		ui.PrintPlayer(b)
		_, _ = fmt.Fprint(ui.out, " action > ")

		var text string
		text, err = ui.reader.ReadString('\n')
		if err != nil && (err != io.EOF || strings.TrimSpace(text) == "") {
			return NoAction, errors.Wrap(err, "failed to read action")
		}
		text = strings.TrimSpace(text)
		action, err = ParseAction(b.Size, text)
		if err != nil {
			_, _ = fmt.Fprintf(ui.out, "    * Failed to parse your input %q: %v\n", text, err)
			continue
		}
		if !b.IsValid(action) {
			_, _ = fmt.Fprintf(ui.out, "    * Action %s is not valid, choose one of [%s]\n",
				b.ActionString(action), strings.Join(b.ActionsStrings(b.Derived.Actions), ", "))
			continue
		}
		return action, nil
	}
	return NoAction, ErrTooManyParsingErrors
}

// Print the board, the disk counts and who is to play.
func (ui *UI) Print(board *Board, includeAvailableActions bool) {
	if board.Derived == nil {
		klog.Fatal("Called UI.Print(board), with board without Derived set.")
	}
	if ui.clearScreen {
		_, _ = fmt.Fprint(ui.out, "\033c")
	}
	_, _ = fmt.Fprintf(ui.out, "\n%s\n\n", ui.renderer.NewStyle().Bold(ui.color).Render(
		fmt.Sprintf("Move #%d", board.MoveNumber)))

	ui.PrintBoard(board)
	_, _ = fmt.Fprintln(ui.out)
	for _, player := range []PlayerNum{PlayerFirst, PlayerSecond} {
		_, _ = fmt.Fprintf(ui.out, "%s: %d disks\n",
			ui.diskStyle(player).Render(player.Color()), board.NumDisks(player))
	}

	if board.IsFinished() {
		return
	}
	_, _ = fmt.Fprintln(ui.out)
	ui.PrintPlayer(board)
	_, _ = fmt.Fprintln(ui.out, " turn to play")
	if includeAvailableActions {
		_, _ = fmt.Fprintf(ui.out, "- Available actions: [%s]\n",
			strings.Join(board.ActionsStrings(board.Derived.Actions), ", "))
	}
}

// PrintPlayer prints the color of the next player.
func (ui *UI) PrintPlayer(board *Board) {
	_, _ = fmt.Fprint(ui.out, ui.diskStyle(board.NextPlayer).Render(board.NextPlayer.Color()+" Player"))
}

// PrintBoard prints the board with the column letters and row numbers used by actions.
// Squares where the next player can play are marked with a "*".
func (ui *UI) PrintBoard(board *Board) {
	var sb strings.Builder
	header := "   "
	for col := range board.Size {
		header += fmt.Sprintf(" %c ", 'a'+col)
	}
	sb.WriteString(header + "\n")
	validMask := board.ValidActionsMask()
	for row := range board.Size {
		sb.WriteString(fmt.Sprintf("%2d ", row+1))
		for col := range board.Size {
			cell := board.At(row, col)
			switch {
			case cell != Empty:
				letter := " X "
				if cell.Owner() == PlayerSecond {
					letter = " O "
				}
				sb.WriteString(ui.diskStyle(cell.Owner()).Render(letter))
			case validMask[ActionAt(board.Size, row, col)]:
				sb.WriteString(" * ")
			default:
				sb.WriteString(" . ")
			}
		}
		sb.WriteString(fmt.Sprintf(" %d\n", row+1))
	}
	sb.WriteString(header)
	ui.printCentered(sb.String())
}
