package report

import (
	"bytes"
	"github.com/janpfeifer/othelloGo/internal/arena"
	"github.com/janpfeifer/othelloGo/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
)

func buildHistory() []arena.GameResult {
	final := state.NewBoard(4)
	return []arena.GameResult{
		{Index: 0, Outcome: 1, Final: final},
		{Index: 1, Outcome: -1, Final: final},
		{Index: 2}, // Not played.
		{Index: 3, Outcome: 0, Final: final},
		{Index: 4, Outcome: 1, Final: final},
	}
}

func TestCumulativeResults(t *testing.T) {
	tally := CumulativeResults(buildHistory())
	assert.Equal(t, []arena.Results{
		{OneWon: 1},
		{OneWon: 1, TwoWon: 1},
		{OneWon: 1, TwoWon: 1, Draws: 1},
		{OneWon: 2, TwoWon: 1, Draws: 1},
	}, tally)
}

func TestRender(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, Render(buf, "a0fnn vs random", [2]string{"a0fnn", "random"}, buildHistory()))
	html := buf.String()
	assert.Contains(t, html, "echarts")
	assert.Contains(t, html, "a0fnn vs random")
	assert.Contains(t, html, "draws")

	filePath := filepath.Join(t.TempDir(), "charts", "compare.html")
	require.NoError(t, WriteFile(filePath, "compare", [2]string{"one", "two"}, buildHistory()))
	contents, err := os.ReadFile(filePath)
	require.NoError(t, err)
	assert.Contains(t, string(contents), "compare")
}
