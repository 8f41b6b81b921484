// Copyright 2026 The BayesMoons Authors. SPDX-License-Identifier: Apache-2.0

// Bayesian neural-network demo: generates a synthetic 2D dataset, fits the
// weight posteriors by stochastic variational inference, runs the
// posterior-predictive check on the held-out split and writes the predictive
// mean/uncertainty surfaces, training curves and CSV exports.
//
// Hyperparameters are set with --set, e.g.:
//
//	demo --checkpoint=bnn --set="dataset=circles;train_steps=5000;bayes_prior_sigma=0.5"
//
// Compare against the deterministic baseline with --set="model=map".
package main

import (
	"flag"
	"fmt"
	"path/filepath"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gomlx/ml/context"
	"github.com/gomlx/gomlx/ui/commandline"
	"github.com/gomlx/gomlx/ui/plots"
	"github.com/janpfeifer/must"
	"k8s.io/klog/v2"

	"github.com/probing-ml/bayesmoons"
	"github.com/probing-ml/bayesmoons/viz"

	_ "github.com/gomlx/gomlx/backends/default"
)

var (
	flagDataDir = flag.String("data", "~/work/bayesmoons",
		"Directory to hold checkpoints and plot artifacts.")
	flagCheckpoint = flag.String("checkpoint", "",
		"Directory to save and load checkpoints from, relative to --data. If left empty, no checkpoints are created.")
	flagEval       = flag.Bool("eval", true, "Whether to evaluate the model on train and test data in the end.")
	flagVerbosity  = flag.Int("verbosity", 1, "Level of verbosity, the higher the more verbose.")
	flagSamples    = flag.Int("samples", 100, "Posterior samples drawn per point for the predictive surfaces.")
	flagResolution = flag.Int("resolution", 101,
		"Grid resolution per axis for the predictive surfaces.")
	flagPlots = flag.Bool("plots", true, "Whether to write the surface plots, curves and CSV exports.")
)

func main() {
	ctx := bayesmoons.CreateDefaultContext()
	settings := commandline.CreateContextSettingsFlag(ctx, "")
	klog.InitFlags(nil)
	flag.Parse()
	paramsSet := must.M1(commandline.ParseContextSettings(ctx, *settings))
	err := exceptions.TryCatch[error](func() { run(ctx, paramsSet) })
	if err != nil {
		klog.Fatalf("Failed with error: %+v", err)
	}
}

func run(ctx *context.Context, paramsSet []string) {
	res := bayesmoons.TrainModel(ctx, *flagDataDir, *flagCheckpoint, paramsSet, *flagEval, *flagVerbosity)

	// Posterior-predictive check on the held-out split.
	pred := must.M1(res.Predictor())
	pred.Verbose = *flagVerbosity >= 1
	metrics := must.M1(bayesmoons.EvaluatePosterior(pred, res.Data.Test, *flagSamples))
	fmt.Println(bayesmoons.FormatSummary(res, metrics))

	if !*flagPlots {
		return
	}
	dir := res.ArtifactsDir(*flagDataDir)
	must.M(res.Data.Raw.SaveCSV(filepath.Join(dir, "dataset.csv")))

	// Predictive mean and uncertainty over the input plane, in the original
	// coordinates.
	minX1, maxX1, minX2, maxX2 := res.Data.Raw.Bounds(0.5)
	grid := must.M1(pred.PredictGrid(minX1, maxX1, minX2, maxX2, *flagResolution, *flagSamples))
	panels := must.M1(viz.SurfacePNGs(grid, res.Data.Raw, dir))
	montage := filepath.Join(dir, "surfaces.png")
	must.M(viz.Montage(panels, 2, montage))
	viz.DisplayImageFile(montage)

	figs := viz.SurfaceFigs(grid)
	must.M(viz.PlotlyToHTMLFile(filepath.Join(dir, "surfaces.html"), figs...))
	viz.DisplayFigs(figs...)

	// Per-point predictions on the held-out split, back in the original
	// coordinates.
	testOrig := res.Data.Scaler.Inverse(res.Data.Test)
	testPoints := make([][2]float64, testOrig.NumExamples())
	for i := range testPoints {
		testPoints[i] = [2]float64{float64(testOrig.X[2*i]), float64(testOrig.X[2*i+1])}
	}
	preds := must.M1(pred.Predict(testPoints, *flagSamples))
	must.M(bayesmoons.WritePredictionsCSV(filepath.Join(dir, "predictions.csv"), preds))

	// Training curves, if the loop persisted plot points with the checkpoint.
	if res.Checkpoint != nil {
		plotPoints, err := plots.LoadPointsFromCheckpoint(res.Checkpoint.Dir())
		if err == nil && len(plotPoints) > 0 {
			must.M(viz.TrainingCurveSVG(plotPoints, "loss", filepath.Join(dir, "training.svg")))
			viz.DisplayHTML(viz.TrainingCurvesHTML(plotPoints))
		}
	}
	if *flagVerbosity >= 1 {
		klog.Infof("Artifacts written to %s", dir)
	}
}
