// Copyright 2026 The BayesMoons Authors. SPDX-License-Identifier: Apache-2.0

package bayesmoons

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/gomlx/gomlx/ml/context"
	"github.com/pkg/errors"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Padding(1, 2, 0, 2)

	headerRowStyle = lipgloss.NewStyle().Reverse(true).
			Padding(0, 2, 0, 2).Align(lipgloss.Center)
	oddRowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFF")).
			PaddingLeft(1).PaddingRight(1)
	evenRowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#999")).
			PaddingLeft(1).PaddingRight(1)
)

func newPlainTable() *lgtable.Table {
	return lgtable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
		StyleFunc(func(row, col int) (s lipgloss.Style) {
			if row == lgtable.HeaderRow {
				s = headerRowStyle
				return
			}
			if row%2 == 0 {
				s = oddRowStyle
			} else {
				s = evenRowStyle
			}
			if col == 0 {
				s = s.Align(lipgloss.Right)
			} else {
				s = s.Align(lipgloss.Left)
			}
			return
		})
}

// FormatSummary renders the run and its posterior-predictive check as
// bordered tables, for the demo to print after training.
func FormatSummary(res *TrainResults, m PosteriorMetrics) string {
	run := newPlainTable()
	run.Row("run id", res.RunID)
	run.Row("model", res.ModelType())
	run.Row("backend", res.Backend.Name())
	run.Row("dataset", res.Data.Raw.Name)
	run.Row("train examples", humanize.Comma(int64(res.Data.Train.NumExamples())))
	run.Row("test examples", humanize.Comma(int64(res.Data.Test.NumExamples())))
	run.Row("global step", humanize.Comma(res.GlobalStep))
	run.Row("train time", res.TrainDuration.Round(time.Millisecond).String())
	if res.Checkpoint != nil {
		run.Row("checkpoint", res.Checkpoint.Dir())
	}

	check := newPlainTable()
	check.Row("posterior samples", humanize.Comma(int64(m.NumSamples)))
	check.Row("accuracy", fmt.Sprintf("%.2f%%", 100*m.Accuracy))
	check.Row("mean NLL", fmt.Sprintf("%.4f nats", m.MeanNLL))
	check.Row("mean entropy", fmt.Sprintf("%.4f nats", m.MeanEntropy))
	check.Row("entropy when right", fmt.Sprintf("%.4f nats", m.MeanEntropyCorrect))
	check.Row("entropy when wrong", fmt.Sprintf("%.4f nats", m.MeanEntropyWrong))

	return titleStyle.Render("Training run") + "\n" + run.Render() + "\n" +
		titleStyle.Render(fmt.Sprintf("Posterior-predictive check (%s examples)",
			humanize.Comma(int64(m.NumExamples)))) + "\n" + check.Render()
}

// ModelType returns the value of the "model" hyperparameter the run trained.
func (r *TrainResults) ModelType() string {
	return context.GetParamOr(r.Ctx, "model", "?")
}

// FormatPredictions renders per-point posterior-predictive summaries as a
// table: coordinates, predicted class, mean probability with its spread and
// the predictive entropy.
func FormatPredictions(preds []PointPrediction) string {
	table := newPlainTable()
	table.Headers("x1", "x2", "class", "p(class=1)", "entropy")
	for _, p := range preds {
		table.Row(
			fmt.Sprintf("%.3f", p.X1),
			fmt.Sprintf("%.3f", p.X2),
			fmt.Sprintf("%d", p.Class),
			fmt.Sprintf("%.3f ± %.3f", p.Prob, p.StdDev),
			fmt.Sprintf("%.3f", p.Entropy),
		)
	}
	return table.Render()
}

// PredictionsDataFrame converts point predictions to a gota dataframe with
// columns x1, x2, class, p_mean, p_stddev and entropy.
func PredictionsDataFrame(preds []PointPrediction) dataframe.DataFrame {
	n := len(preds)
	x1s := make([]float64, n)
	x2s := make([]float64, n)
	classes := make([]int, n)
	means := make([]float64, n)
	stddevs := make([]float64, n)
	entropies := make([]float64, n)
	for i, p := range preds {
		x1s[i], x2s[i] = p.X1, p.X2
		classes[i] = p.Class
		means[i], stddevs[i], entropies[i] = p.Prob, p.StdDev, p.Entropy
	}
	return dataframe.New(
		series.New(x1s, series.Float, "x1"),
		series.New(x2s, series.Float, "x2"),
		series.New(classes, series.Int, "class"),
		series.New(means, series.Float, "p_mean"),
		series.New(stddevs, series.Float, "p_stddev"),
		series.New(entropies, series.Float, "entropy"),
	)
}

// WritePredictionsCSV saves point predictions as CSV with a header row.
func WritePredictionsCSV(path string, preds []PointPrediction) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating predictions file %q", path)
	}
	defer func() { _ = f.Close() }()
	if err = PredictionsDataFrame(preds).WriteCSV(f); err != nil {
		return errors.Wrapf(err, "writing predictions to %q", path)
	}
	return nil
}
