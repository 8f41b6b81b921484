// Copyright 2026 The BayesMoons Authors. SPDX-License-Identifier: Apache-2.0

package bayesmoons

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gomlx/backends"
	"github.com/gomlx/gomlx/ml/context"
	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probing-ml/bayesmoons/bayes"

	_ "github.com/gomlx/gomlx/backends/default"
)

func init() {
	// Tests run on the pure-Go backend unless the user picked another.
	if os.Getenv(backends.GOMLX_BACKEND) == "" {
		must.M(os.Setenv(backends.GOMLX_BACKEND, "go"))
	}
}

// testContext shrinks the default hyperparameters so tests train in a
// fraction of a second. seed comes from the defaults (42), so every test
// sees the same data and weights.
func testContext() *context.Context {
	ctx := CreateDefaultContext()
	ctx.SetParams(map[string]any{
		"train_steps":  200,
		"num_examples": 128,
		"batch_size":   32,
		"plots":        false,
	})
	return ctx
}

var (
	trainOnce  sync.Once
	trainedRes *TrainResults
	trainedErr error
)

// trainedResults trains the default "bnn" model once with testContext and
// caches the result for every test in the package.
func trainedResults(t *testing.T) *TrainResults {
	trainOnce.Do(func() {
		trainedErr = exceptions.TryCatch[error](func() {
			trainedRes = TrainModel(testContext(), t.TempDir(), "", nil, false, -1)
		})
	})
	require.NoError(t, trainedErr)
	require.NotNil(t, trainedRes)
	return trainedRes
}

func TestCreateDefaultContext(t *testing.T) {
	ctx := CreateDefaultContext()
	assert.Equal(t, "bnn", context.GetParamOr(ctx, "model", ""))
	assert.Equal(t, "moons", context.GetParamOr(ctx, "dataset", ""))
	assert.Equal(t, 2000, context.GetParamOr(ctx, "train_steps", 0))
	assert.Equal(t, 1.0, context.GetParamOr(ctx, bayes.ParamPriorSigma, 0.0))
	assert.Equal(t, 0.0, context.GetParamOr(ctx, bayes.ParamKLWeight, -1.0),
		"KL weight must default to 0, selecting 1/numTrainExamples at training")
}

func TestNewDataFromContext(t *testing.T) {
	d, err := NewDataFromContext(backends.New(), testContext())
	require.NoError(t, err)
	assert.Equal(t, 128, d.Raw.NumExamples())
	assert.Equal(t, 96, d.Train.NumExamples())
	assert.Equal(t, 32, d.Test.NumExamples())
	require.NotNil(t, d.Scaler)
	require.NotNil(t, d.TrainDS)
	require.NotNil(t, d.TrainEvalDS)
	require.NotNil(t, d.TestEvalDS)

	// Train split is standardized: per-column mean ~0, stddev ~1.
	for j := 0; j < 2; j++ {
		col := d.Train.Column(j)
		var mean float64
		for _, v := range col {
			mean += v
		}
		mean /= float64(len(col))
		assert.InDelta(t, 0, mean, 1e-5)
	}
}

func TestTrainModel(t *testing.T) {
	res := trainedResults(t)
	assert.EqualValues(t, 200, res.GlobalStep)
	assert.Equal(t, "bnn", res.ModelType())
	assert.Nil(t, res.Checkpoint)
	assert.NotEmpty(t, res.RunID)
	assert.Greater(t, res.TrainDuration.Nanoseconds(), int64(0))

	// The ELBO weighting was filled in from the training split size.
	klWeight := context.GetParamOr(res.Ctx, bayes.ParamKLWeight, 0.0)
	assert.InDelta(t, 1.0/96.0, klWeight, 1e-12)
}

func TestTrainModelMAPBaseline(t *testing.T) {
	ctx := testContext()
	ctx.SetParam("model", "map")
	ctx.SetParam("train_steps", 20)
	var res *TrainResults
	require.NotPanics(t, func() {
		res = TrainModel(ctx, t.TempDir(), "", nil, false, -1)
	})
	assert.EqualValues(t, 20, res.GlobalStep)
	assert.Equal(t, "map", res.ModelType())
}

func TestTrainModelUnknownModel(t *testing.T) {
	ctx := testContext()
	ctx.SetParam("model", "bogus")
	require.Panics(t, func() {
		TrainModel(ctx, t.TempDir(), "", nil, false, -1)
	})
}

func TestCheckpointRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping checkpoint round-trip in short mode")
	}
	dataDir := t.TempDir()
	ctx := testContext()
	ctx.SetParam("train_steps", 50)
	res := TrainModel(ctx, dataDir, "ckpt", nil, false, -1)
	require.NotNil(t, res.Checkpoint)
	ckptDir := res.Checkpoint.Dir()
	assert.Equal(t, ckptDir, res.ArtifactsDir(dataDir))

	// The scaler is saved next to the checkpoint.
	_, err := os.Stat(filepath.Join(ckptDir, ScalerFileName))
	require.NoError(t, err)

	// A fresh predictor restored from disk serves sane predictions.
	pred, err := LoadPredictor(nil, ckptDir)
	require.NoError(t, err)
	assert.Equal(t, "bnn", pred.ModelType)
	preds, err := pred.Predict([][2]float64{{0.5, 0.25}, {-1, 1}}, 8)
	require.NoError(t, err)
	require.Len(t, preds, 2)
	for _, p := range preds {
		assert.GreaterOrEqual(t, p.Prob, 0.0)
		assert.LessOrEqual(t, p.Prob, 1.0)
	}
}
