// Package report renders the history of arena games as an HTML chart.
package report

import (
	"fmt"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/janpfeifer/othelloGo/internal/arena"
	"github.com/pkg/errors"
	"io"
	"os"
	"path/filepath"
)

// CumulativeResults returns the running tally after each game of the history.
// Games not played (zero value, e.g. if interrupted) are skipped.
func CumulativeResults(history []arena.GameResult) []arena.Results {
	tally := make([]arena.Results, 0, len(history))
	var current arena.Results
	for _, game := range history {
		if game.Final == nil {
			continue
		}
		switch {
		case game.Outcome > 0:
			current.OneWon++
		case game.Outcome < 0:
			current.TwoWon++
		default:
			current.Draws++
		}
		tally = append(tally, current)
	}
	return tally
}

// Render writes an HTML page with a line chart of the cumulative wins of each player (and draws) over the games.
func Render(w io.Writer, title string, playerNames [2]string, history []arena.GameResult) error {
	tally := CumulativeResults(history)
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("%d games", len(tally)),
		}),
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: title,
			Theme:     "shine",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "game"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "cumulative"}),
	)

	games := make([]string, len(tally))
	oneWon := make([]opts.LineData, len(tally))
	twoWon := make([]opts.LineData, len(tally))
	draws := make([]opts.LineData, len(tally))
	for ii, results := range tally {
		games[ii] = fmt.Sprintf("%d", ii+1)
		oneWon[ii] = opts.LineData{Value: results.OneWon}
		twoWon[ii] = opts.LineData{Value: results.TwoWon}
		draws[ii] = opts.LineData{Value: results.Draws}
	}
	line.SetXAxis(games).
		AddSeries(playerNames[0], oneWon).
		AddSeries(playerNames[1], twoWon).
		AddSeries("draws", draws)

	page := components.NewPage()
	page.AddCharts(line)
	if err := page.Render(w); err != nil {
		return errors.Wrapf(err, "failed to render chart %q", title)
	}
	return nil
}

// WriteFile renders the chart (see Render) to the given file path, creating its directory if needed.
func WriteFile(filePath, title string, playerNames [2]string, history []arena.GameResult) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return errors.Wrapf(err, "failed to create directory for chart %q", filePath)
	}
	f, err := os.Create(filePath)
	if err != nil {
		return errors.Wrapf(err, "failed to create chart file %q", filePath)
	}
	if err = Render(f, title, playerNames, history); err != nil {
		_ = f.Close()
		return err
	}
	return errors.Wrapf(f.Close(), "failed to close chart file %q", filePath)
}
