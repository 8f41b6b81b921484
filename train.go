// Copyright 2026 The BayesMoons Authors. SPDX-License-Identifier: Apache-2.0

package bayesmoons

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gomlx/backends"
	. "github.com/gomlx/gomlx/graph"
	"github.com/gomlx/gomlx/ml/context"
	"github.com/gomlx/gomlx/ml/context/checkpoints"
	"github.com/gomlx/gomlx/ml/data"
	"github.com/gomlx/gomlx/ml/layers/activations"
	"github.com/gomlx/gomlx/ml/layers/regularizers"
	"github.com/gomlx/gomlx/ml/train"
	"github.com/gomlx/gomlx/ml/train/losses"
	"github.com/gomlx/gomlx/ml/train/metrics"
	"github.com/gomlx/gomlx/ml/train/optimizers"
	"github.com/gomlx/gomlx/ml/train/optimizers/cosineschedule"
	"github.com/gomlx/gomlx/types/tensors"
	"github.com/gomlx/gomlx/ui/commandline"
	"github.com/gomlx/gomlx/ui/gonb/plotly"
	"github.com/google/uuid"
	"github.com/janpfeifer/must"
	"golang.org/x/exp/maps"

	"github.com/probing-ml/bayesmoons/bayes"
	"github.com/probing-ml/bayesmoons/moons"
)

// ScalerFileName is where TrainModel saves the feature scaler, next to the
// checkpoint, so serving standardizes points exactly like training did.
const ScalerFileName = "scaler.json"

// ParamsExcludedFromLoading are hyperparameters that a checkpoint must not
// override when resuming: they describe the session, not the model.
var ParamsExcludedFromLoading = []string{
	"data_dir", "train_steps", "num_checkpoints", "plots",
}

// CreateDefaultContext sets the context with the default hyperparameters
// used by TrainModel. Any of them can be overridden with the -set flag of
// the demos.
func CreateDefaultContext() *context.Context {
	ctx := context.New()
	ctx.RngStateReset()
	ctx.SetParams(map[string]any{
		// Model type to use: one of Models ("bnn" or the "map" baseline).
		"model":           "bnn",
		"train_steps":     2000,
		"num_checkpoints": 3,

		// batch_size for training.
		"batch_size": 64,

		// eval_batch_size can be larger than training, it's more efficient.
		"eval_batch_size": 256,

		// Synthetic dataset: "dataset" takes one of moons.Names(); "seed"=0
		// draws a fresh seed every run, any other value reproduces the data,
		// the initialization and the weight sampling.
		"dataset":       "moons",
		"num_examples":  1024,
		"noise":         0.2,
		"test_fraction": 0.25,
		"seed":          42,

		// Prior and variational-posterior hyperparameters.
		bayes.ParamPriorSigma:   1.0,
		bayes.ParamInitLogSigma: -5.0,
		bayes.ParamKLWeight:     0.0, // 0 selects 1/numTrainExamples.

		// Network topology, shared by both model types.
		ParamNumHiddenLayers: 2,
		ParamNumHiddenNodes:  16,

		// "plots" triggers generating intermediary eval data for plotting,
		// and if running in GoNB, to actually draw the plot with Plotly.
		plotly.ParamPlots: true,

		optimizers.ParamOptimizer:       "adamw",
		optimizers.ParamLearningRate:    0.01,
		cosineschedule.ParamPeriodSteps: 0,
		activations.ParamActivation:     "tanh",

		// L2 turns the "map" baseline into a proper MAP point estimate; the
		// variational model ignores it, its prior enters through the KL.
		regularizers.ParamL2: 1e-4,
		regularizers.ParamL1: 0.0,
	})
	return ctx
}

// Data bundles one synthetic classification problem, standardized and
// split, with the GoMLX datasets that feed training and evaluation.
type Data struct {
	Raw    moons.Dataset // As generated, in original coordinates.
	Train  moons.Dataset // Standardized training split.
	Test   moons.Dataset // Standardized test split.
	Scaler *moons.Scaler

	TrainDS     train.Dataset // Infinite, shuffled, batched.
	TrainEvalDS train.Dataset
	TestEvalDS  train.Dataset
}

// NewDataFromContext generates the synthetic problem described by the
// context hyperparameters ("dataset", "num_examples", "noise", "seed" and
// "test_fraction"), standardizes it with a scaler fitted on the training
// split only, and prepares the datasets for the training loop.
func NewDataFromContext(backend backends.Backend, ctx *context.Context) (*Data, error) {
	name := context.GetParamOr(ctx, "dataset", "moons")
	numExamples := context.GetParamOr(ctx, "num_examples", 1024)
	noise := context.GetParamOr(ctx, "noise", 0.2)
	seed := uint64(context.GetParamOr(ctx, "seed", 42))
	testFraction := context.GetParamOr(ctx, "test_fraction", 0.25)

	raw, err := moons.ByName(name, numExamples, noise, seed)
	if err != nil {
		return nil, err
	}
	splitSeed := seed
	if splitSeed != 0 {
		splitSeed++
	}
	trainSplit, testSplit := raw.Split(testFraction, splitSeed)
	scaler := moons.NewScaler().Fit(trainSplit)
	d := &Data{
		Raw:    raw,
		Train:  scaler.Transform(trainSplit),
		Test:   scaler.Transform(testSplit),
		Scaler: scaler,
	}

	batchSize := context.GetParamOr(ctx, "batch_size", 0)
	if batchSize <= 0 {
		exceptions.Panicf("batch_size must be > 0 (maybe it was not set?): %d", batchSize)
	}
	evalBatchSize := context.GetParamOr(ctx, "eval_batch_size", 0)
	if evalBatchSize <= 0 {
		evalBatchSize = batchSize
	}

	trainBase, err := d.Train.InMemoryDataset(backend, "train")
	if err != nil {
		return nil, err
	}
	d.TrainDS = trainBase.Copy().Infinite(true).Shuffle().BatchSize(batchSize, true)
	d.TrainEvalDS = trainBase.BatchSize(evalBatchSize, false)
	testBase, err := d.Test.InMemoryDataset(backend, "test")
	if err != nil {
		return nil, err
	}
	d.TestEvalDS = testBase.BatchSize(evalBatchSize, false)
	return d, nil
}

// TrainResults is what TrainModel leaves behind for the
// posterior-predictive stage and the reports.
type TrainResults struct {
	RunID   string
	Backend backends.Backend
	Ctx     *context.Context // Root scope, model variables under "/model".
	Data    *Data

	// Checkpoint is nil when training ran without checkpointing.
	Checkpoint *checkpoints.Handler

	GlobalStep    int64
	TrainDuration time.Duration
}

// ArtifactsDir returns the directory where run artifacts (plots, CSVs)
// should be written: the checkpoint directory when there is one, dataDir
// otherwise.
func (r *TrainResults) ArtifactsDir(dataDir string) string {
	if r.Checkpoint != nil {
		return r.Checkpoint.Dir()
	}
	return data.ReplaceTildeInDir(dataDir)
}

// TrainModel fits the model selected by the "model" hyperparameter to a
// fresh synthetic dataset, with hyperparameters given in ctx. checkpointPath
// may be empty to skip checkpointing. paramsSet lists hyperparameters set on
// the command line, which a loaded checkpoint must not override.
//
// Graph-building or training failures panic; run it under
// exceptions.TryCatch at the boundary (as the demos do).
func TrainModel(
	ctx *context.Context,
	dataDir, checkpointPath string,
	paramsSet []string,
	evaluateOnEnd bool,
	verbosity int,
) *TrainResults {
	dataDir = data.ReplaceTildeInDir(dataDir)
	if !data.FileExists(dataDir) {
		must.M(os.MkdirAll(dataDir, 0777))
	}

	// Backend handles graph compilation and accelerator resources.
	backend := backends.New()
	if verbosity >= 1 {
		fmt.Printf("Backend %q:\t%s\n", backend.Name(), backend.Description())
	}

	// Checkpointing: also restores hyperparameters (except the session ones)
	// before the data is generated, so a resumed model sees the same data.
	var checkpoint *checkpoints.Handler
	if checkpointPath != "" {
		numCheckpointsToKeep := context.GetParamOr(ctx, "num_checkpoints", 3)
		checkpoint = must.M1(checkpoints.Build(ctx).
			DirFromBase(checkpointPath, dataDir).
			Keep(numCheckpointsToKeep).
			ExcludeParams(append(paramsSet, ParamsExcludedFromLoading...)...).
			Done())
		fmt.Printf("Checkpoint: %q\n", checkpoint.Dir())
	}
	if verbosity >= 2 {
		fmt.Println(commandline.SprintContextSettings(ctx))
	}

	// Seeded runs reproduce initialization and weight sampling too.
	if seed := context.GetParamOr(ctx, "seed", 42); seed != 0 {
		ctx.RngStateFromSeed(int64(seed))
	}

	d := must.M1(NewDataFromContext(backend, ctx))
	if checkpoint != nil {
		must.M(d.Scaler.Save(filepath.Join(checkpoint.Dir(), ScalerFileName)))
	}

	// The ELBO weighs the KL by 1/numTrainExamples when the likelihood is
	// averaged per example.
	if context.GetParamOr(ctx, bayes.ParamKLWeight, 0.0) == 0 {
		ctx.SetParam(bayes.ParamKLWeight, 1.0/float64(d.Train.NumExamples()))
	}

	// Select the model graph building function.
	modelType := context.GetParamOr(ctx, "model", "bnn")
	modelFn, found := Models[modelType]
	if !found {
		exceptions.Panicf("parameter \"model\" must take one value from %v, got %q",
			maps.Keys(Models), modelType)
	}
	if verbosity >= 1 {
		fmt.Printf("Model: %s\n", modelType)
	}

	// Metrics: accuracies on the logits, and the KL term the model reports
	// as its second output.
	meanAccuracyMetric := metrics.NewMeanBinaryLogitsAccuracy("Mean Accuracy", "#acc")
	movingAccuracyMetric := metrics.NewMovingAverageBinaryLogitsAccuracy("Moving Average Accuracy", "~acc", 0.01)
	klMetric := metrics.NewMeanMetric("Mean KL Divergence", "#kl", "kl",
		func(ctx *context.Context, labels, predictions []*Node) *Node {
			return predictions[1]
		}, nil)

	rootCtx := ctx
	ctx = ctx.In("model") // Convention scope used for model creation.
	trainer := train.NewTrainer(backend, ctx, modelFn,
		losses.BinaryCrossentropyLogits,
		optimizers.FromContext(ctx),
		[]metrics.Interface{movingAccuracyMetric, klMetric}, // trainMetrics
		[]metrics.Interface{meanAccuracyMetric, klMetric})   // evalMetrics

	loop := train.NewLoop(trainer)
	if verbosity >= 0 {
		commandline.AttachProgressBar(loop)
	}

	// Checkpoint saving: periodically and at the end of the loop.
	if checkpoint != nil {
		train.PeriodicCallback(loop, 30*time.Second, true, "saving checkpoint", 100,
			func(loop *train.Loop, metrics []*tensors.Tensor) error {
				return checkpoint.Save()
			})
	}

	// Attach Plotly plots: plot points at exponential steps. The points are
	// saved along the checkpoint directory (if one is given).
	if context.GetParamOr(ctx, plotly.ParamPlots, false) {
		_ = plotly.New().
			WithCheckpoint(checkpoint).
			Dynamic().
			WithDatasets(d.TrainEvalDS, d.TestEvalDS).
			ScheduleExponential(loop, 200, 1.2)
	}

	// Loop for the given number of steps.
	numTrainSteps := context.GetParamOr(ctx, "train_steps", 0)
	globalStep := int(optimizers.GetGlobalStep(ctx))
	if globalStep > 0 {
		trainer.SetContext(ctx.Reuse())
	}
	start := time.Now()
	if globalStep < numTrainSteps {
		_ = must.M1(loop.RunSteps(d.TrainDS, numTrainSteps-globalStep))
		if verbosity >= 1 {
			fmt.Printf("\t[Step %d] median train step: %d microseconds\n",
				loop.LoopStep, loop.MedianTrainStepDuration().Microseconds())
		}
	} else {
		fmt.Printf("\t - target train_steps=%d already reached. To train further, set a number additional "+
			"to current global step.\n", numTrainSteps)
	}

	// Finally, print an evaluation on train and test datasets.
	if evaluateOnEnd {
		if verbosity >= 1 {
			fmt.Println()
		}
		must.M(commandline.ReportEval(trainer, d.TrainEvalDS, d.TestEvalDS))
	}

	return &TrainResults{
		RunID:         uuid.New().String(),
		Backend:       backend,
		Ctx:           rootCtx,
		Data:          d,
		Checkpoint:    checkpoint,
		GlobalStep:    optimizers.GetGlobalStep(ctx),
		TrainDuration: time.Since(start),
	}
}
