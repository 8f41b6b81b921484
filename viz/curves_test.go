// Copyright 2026 The BayesMoons Authors. SPDX-License-Identifier: Apache-2.0

package viz

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gomlx/gomlx/ui/plots"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPoints() []plots.Point {
	var points []plots.Point
	for step := 1; step <= 5; step++ {
		points = append(points,
			plots.Point{MetricName: "Train: Moving Average Loss", Short: "T/~loss",
				MetricType: "loss", Step: float64(100 * step), Value: 1.0 / float64(step)},
			plots.Point{MetricName: "Mean Accuracy on test", Short: "#acc(tes)",
				MetricType: "accuracy", Step: float64(100 * step), Value: 0.5 + 0.08*float64(step)},
		)
	}
	return points
}

func TestMetricTypes(t *testing.T) {
	assert.Equal(t, []string{"accuracy", "loss"}, MetricTypes(testPoints()))
	assert.Empty(t, MetricTypes(nil))
}

func TestTrainingCurveSVG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "training.svg")
	require.NoError(t, TrainingCurveSVG(testPoints(), "loss", path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	svg := string(content)
	assert.Contains(t, svg, "<svg")
	assert.Contains(t, svg, "loss metrics")

	require.Error(t, TrainingCurveSVG(testPoints(), "calibration", path),
		"unknown metric type has nothing to plot")
}

func TestTrainingCurvesHTML(t *testing.T) {
	html := TrainingCurvesHTML(testPoints())
	assert.Equal(t, 2, strings.Count(html, "<svg"), "one diagram per metric type")
	assert.Contains(t, html, "accuracy metrics")
	assert.Contains(t, html, "loss metrics")
	assert.Empty(t, TrainingCurvesHTML(nil))
}
