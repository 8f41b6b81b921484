// Copyright 2026 The BayesMoons Authors. SPDX-License-Identifier: Apache-2.0

// Classifier serves a model trained by the demo: it restores the checkpoint
// and the feature scaler, draws posterior-predictive samples at the requested
// points and prints the per-point summary.
//
// Points are given in the original (unstandardized) coordinates, either
// inline or from a CSV file:
//
//	classifier --checkpoint=~/work/bayesmoons/bnn --points="0.5,0.25;-1,1"
//	classifier --checkpoint=~/work/bayesmoons/bnn --csv=points.csv --out=preds.csv
package main

import (
	"flag"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/probing-ml/bayesmoons"

	_ "github.com/gomlx/gomlx/backends/default"
)

var (
	flagCheckpoint = flag.String("checkpoint", "",
		"Directory with a checkpoint saved by the demo. Required.")
	flagPoints = flag.String("points", "",
		"Points to classify, in original coordinates: \"x1,x2;x1,x2;...\".")
	flagCSV = flag.String("csv", "",
		"CSV file with the points to classify: needs columns x1 and x2, extra columns are ignored.")
	flagSamples = flag.Int("samples", 100, "Posterior samples drawn per point.")
	flagOut     = flag.String("out", "", "CSV file to also write the predictions to.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	if *flagCheckpoint == "" {
		klog.Errorf("Missing --checkpoint with the model to serve. See 'classifier -help'.")
		os.Exit(1)
	}
	if (*flagPoints == "") == (*flagCSV == "") {
		klog.Errorf("Points to classify must come from exactly one of --points or --csv. See 'classifier -help'.")
		os.Exit(1)
	}
	if err := run(); err != nil {
		klog.Fatalf("Failed with error: %+v", err)
	}
}

func run() error {
	points, err := readPoints()
	if err != nil {
		return err
	}
	pred, err := bayesmoons.LoadPredictor(nil, *flagCheckpoint)
	if err != nil {
		return err
	}
	pred.Verbose = true
	preds, err := pred.Predict(points, *flagSamples)
	if err != nil {
		return err
	}
	fmt.Println(bayesmoons.FormatPredictions(preds))
	if *flagOut != "" {
		if err = bayesmoons.WritePredictionsCSV(*flagOut, preds); err != nil {
			return err
		}
		fmt.Printf("Predictions saved to %s\n", *flagOut)
	}
	return nil
}

func readPoints() ([][2]float64, error) {
	if *flagPoints != "" {
		return parsePoints(*flagPoints)
	}
	return loadPointsCSV(*flagCSV)
}

// parsePoints parses the --points syntax, "x1,x2" pairs separated by ";".
func parsePoints(s string) ([][2]float64, error) {
	var points [][2]float64
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		coords := strings.Split(part, ",")
		if len(coords) != 2 {
			return nil, errors.Errorf("point %q: want two comma-separated coordinates", part)
		}
		var pt [2]float64
		for i, coord := range coords {
			v, err := strconv.ParseFloat(strings.TrimSpace(coord), 64)
			if err != nil {
				return nil, errors.Wrapf(err, "point %q", part)
			}
			pt[i] = v
		}
		points = append(points, pt)
	}
	if len(points) == 0 {
		return nil, errors.Errorf("no points in %q", s)
	}
	return points, nil
}

// loadPointsCSV reads the points from the x1 and x2 columns of a CSV file.
func loadPointsCSV(path string) ([][2]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening points file %q", path)
	}
	defer func() { _ = f.Close() }()
	df := dataframe.ReadCSV(f)
	if df.Error() != nil {
		return nil, errors.Wrapf(df.Error(), "parsing points file %q", path)
	}
	names := df.Names()
	for _, col := range []string{"x1", "x2"} {
		if !slices.Contains(names, col) {
			return nil, errors.Errorf("points file %q misses column %q, it has %v", path, col, names)
		}
	}
	if df.Nrow() == 0 {
		return nil, errors.Errorf("points file %q has no rows", path)
	}
	x1s := df.Col("x1").Float()
	x2s := df.Col("x2").Float()
	points := make([][2]float64, df.Nrow())
	for i := range points {
		points[i] = [2]float64{x1s[i], x2s[i]}
	}
	return points, nil
}
