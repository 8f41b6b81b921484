// Copyright 2026 The BayesMoons Authors. SPDX-License-Identifier: Apache-2.0

package viz

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"

	mg "github.com/erkkah/margaid"
	"github.com/gomlx/gomlx/ui/plots"
	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
)

// Curve dimensions, the same the training loop uses for its inline plots.
const (
	curvesWidth  = 1024
	curvesHeight = 400
)

// MetricTypes lists the metric types ("loss", "accuracy", ...) present in the
// training plot points, sorted. Points of the same type share a Y axis and
// are drawn in the same diagram.
func MetricTypes(points []plots.Point) []string {
	seen := make(map[string]bool)
	for _, pt := range points {
		seen[pt.MetricType] = true
	}
	types := maps.Keys(seen)
	sort.Strings(types)
	return types
}

// TrainingCurveSVG renders the training curves of one metric type as an SVG
// file. The points are the ones the training loop persists in the checkpoint
// directory (see plots.LoadPointsFromCheckpoint).
func TrainingCurveSVG(points []plots.Point, metricType, path string) error {
	svg, err := renderCurves(points, metricType)
	if err != nil {
		return err
	}
	if svg == "" {
		return errors.Errorf("no %q points to plot", metricType)
	}
	if err = os.WriteFile(path, []byte(svg), 0644); err != nil {
		return errors.Wrapf(err, "writing %q curves to %q", metricType, path)
	}
	return nil
}

// TrainingCurvesHTML renders one diagram per metric type and returns them
// concatenated as HTML, ready for Display or a report page.
func TrainingCurvesHTML(points []plots.Point) string {
	parts := make([]string, 0, 2)
	for _, metricType := range MetricTypes(points) {
		svg, err := renderCurves(points, metricType)
		if err != nil {
			parts = append(parts, fmt.Sprintf("<p>%v</p>", err))
			continue
		}
		parts = append(parts, svg)
	}
	return strings.Join(parts, "\n")
}

// renderCurves draws one line per metric name of the given type. Returns ""
// when there are no points of that type.
func renderCurves(points []plots.Point, metricType string) (string, error) {
	perName := make(map[string]*mg.Series)
	allPoints := mg.NewSeries()
	for _, pt := range points {
		if pt.MetricType != metricType {
			continue
		}
		s, found := perName[pt.MetricName]
		if !found {
			s = mg.NewSeries(mg.Titled(pt.MetricName))
			perName[pt.MetricName] = s
		}
		value := mg.MakeValue(pt.Step, pt.Value)
		s.Add(value)
		allPoints.Add(value)
	}
	if len(perName) == 0 {
		return "", nil
	}

	names := maps.Keys(perName)
	sort.Strings(names)
	allSeries := make([]*mg.Series, 0, len(names))
	for _, name := range names {
		allSeries = append(allSeries, perName[name])
	}

	diagram := mg.New(curvesWidth, curvesHeight,
		mg.WithAutorange(mg.XAxis, allSeries...),
		mg.WithAutorange(mg.YAxis, allSeries...),
		mg.WithInset(70),
		mg.WithPadding(2),
		mg.WithColorScheme(90),
		mg.WithBackgroundColor("#f8f8f8"),
	)
	for _, s := range allSeries {
		diagram.Line(s, mg.UsingAxes(mg.XAxis, mg.YAxis), mg.UsingMarker("square"), mg.UsingStrokeWidth(2))
	}
	diagram.Axis(allPoints, mg.XAxis, diagram.ValueTicker('f', 0, 10), false, "Steps")
	diagram.Axis(allPoints, mg.YAxis, diagram.ValueTicker('f', 3, 10), true, metricType)
	diagram.Frame()
	diagram.Title(fmt.Sprintf("%s metrics", metricType))
	diagram.Legend(mg.BottomLeft)

	var buf bytes.Buffer
	if err := diagram.Render(&buf); err != nil {
		return "", errors.Wrapf(err, "rendering %q curves", metricType)
	}
	return buf.String(), nil
}
