// Copyright 2026 The BayesMoons Authors. SPDX-License-Identifier: Apache-2.0

package bayesmoons

import (
	"math"
	"path/filepath"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gomlx/backends"
	. "github.com/gomlx/gomlx/graph"
	"github.com/gomlx/gomlx/ml/context"
	"github.com/gomlx/gomlx/ml/context/checkpoints"
	"github.com/gomlx/gomlx/ml/data"
	"github.com/gomlx/gomlx/types/tensors"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/exp/maps"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/probing-ml/bayesmoons/bayes"
	"github.com/probing-ml/bayesmoons/moons"
)

// Predictor draws posterior-predictive samples from a trained model: each
// forward pass samples fresh weights from the variational posterior, so
// repeated calls on the same points describe the predictive distribution.
//
// SampleProbs takes already standardized inputs (as the training datasets
// are); Predict and PredictGrid take points in the original coordinates and
// run them through the scaler first.
type Predictor struct {
	Backend   backends.Backend
	Scaler    *moons.Scaler
	ModelType string

	// Verbose shows a progressbar while sampling.
	Verbose bool

	ctx  *context.Context
	exec *context.Exec
}

// NewPredictor builds a Predictor on a trained context -- typically
// TrainResults.Ctx, or a context restored from a checkpoint. The model graph
// is selected by the checkpointed "model" hyperparameter.
//
// backend must be the instance that materialized the context variables --
// TrainResults.Predictor passes the training backend. It may be nil only for
// a context freshly loaded from disk (LoadPredictor does that), in which case
// a new backend is created.
//
// It enables weight sampling on ctx (see bayes.Sampling), which sticks: a
// later evaluation on the same context will sample weights too.
func NewPredictor(backend backends.Backend, ctx *context.Context, scaler *moons.Scaler) (*Predictor, error) {
	if backend == nil {
		backend = backends.New()
	}
	modelType := context.GetParamOr(ctx, "model", "")
	modelFn, found := Models[modelType]
	if !found {
		return nil, errors.Errorf("hyperparameter \"model\"=%q doesn't select any of the known models %v",
			modelType, maps.Keys(Models))
	}
	bayes.Sampling(ctx, true)
	p := &Predictor{
		Backend:   backend,
		Scaler:    scaler,
		ModelType: modelType,
		ctx:       ctx,
	}
	p.exec = context.NewExec(backend, ctx.Reuse().In("model"),
		func(ctx *context.Context, points *Node) *Node {
			outputs := modelFn(ctx, nil, []*Node{points})
			return Sigmoid(outputs[0])
		})
	return p, nil
}

// Predictor builds a posterior-predictive sampler on the just trained
// model. See NewPredictor.
func (r *TrainResults) Predictor() (*Predictor, error) {
	return NewPredictor(r.Backend, r.Ctx, r.Data.Scaler)
}

// LoadPredictor restores a checkpoint saved by TrainModel -- variables,
// hyperparameters and the feature scaler -- and builds a Predictor on it.
// backend may be nil.
func LoadPredictor(backend backends.Backend, checkpointDir string) (*Predictor, error) {
	checkpointDir = data.ReplaceTildeInDir(checkpointDir)
	ctx := context.New()
	_, err := checkpoints.Load(ctx).Dir(checkpointDir).Done()
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to load checkpoint from %q", checkpointDir)
	}
	scaler, err := moons.LoadScaler(filepath.Join(checkpointDir, ScalerFileName))
	if err != nil {
		return nil, err
	}
	return NewPredictor(backend, ctx, scaler)
}

// minSamplesForProgress: only runs long enough to be worth a progressbar.
const minSamplesForProgress = 16

// SampleProbs runs numSamples forward passes over points, a standardized
// [numPoints, 2] tensor, each pass with weights freshly sampled from the
// posterior. It returns the probabilities of class 1 as a
// [numPoints][numSamples] matrix.
func (p *Predictor) SampleProbs(points *tensors.Tensor, numSamples int) ([][]float32, error) {
	if numSamples <= 0 {
		return nil, errors.Errorf("numSamples must be positive, got %d", numSamples)
	}
	dims := points.Shape().Dimensions
	if len(dims) != 2 || dims[1] != 2 {
		return nil, errors.Errorf("points must be shaped [numPoints, 2], got %s", points.Shape())
	}
	numPoints := dims[0]
	probs := make([][]float32, numPoints)
	for i := range probs {
		probs[i] = make([]float32, numSamples)
	}
	var bar *progressbar.ProgressBar
	if p.Verbose && numSamples >= minSamplesForProgress {
		bar = progressbar.Default(int64(numSamples), "posterior samples")
	}
	err := exceptions.TryCatch[error](func() {
		for s := 0; s < numSamples; s++ {
			sample := p.exec.Call(points)[0]
			tensors.ConstFlatData(sample, func(flat []float32) {
				for i, v := range flat {
					probs[i][s] = v
				}
			})
			if bar != nil {
				_ = bar.Add(1)
			}
		}
	})
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to sample the posterior predictive (%d samples)", numSamples)
	}
	return probs, nil
}

// PointPrediction summarizes the sampled predictive distribution at one
// point.
type PointPrediction struct {
	X1, X2  float64 // In the original (unstandardized) coordinates.
	Prob    float64 // Posterior-predictive mean probability of class 1.
	StdDev  float64 // Spread of the sampled probabilities.
	Entropy float64 // Predictive entropy in nats, at most ln(2).
	Class   int     // 1 if Prob >= 0.5, else 0.
}

// Predict samples the posterior predictive at the given points, in original
// coordinates, and summarizes it per point.
func (p *Predictor) Predict(points [][2]float64, numSamples int) ([]PointPrediction, error) {
	if len(points) == 0 {
		return nil, nil
	}
	flat := make([]float32, 0, 2*len(points))
	for _, pt := range points {
		x1, x2 := p.Scaler.TransformPoint(pt[0], pt[1])
		flat = append(flat, float32(x1), float32(x2))
	}
	inputs := tensors.FromFlatDataAndDimensions(flat, len(points), 2)
	probs, err := p.SampleProbs(inputs, numSamples)
	if err != nil {
		return nil, err
	}
	preds := make([]PointPrediction, len(points))
	for i, pt := range points {
		preds[i] = newPointPrediction(pt[0], pt[1], probs[i])
	}
	return preds, nil
}

func newPointPrediction(x1, x2 float64, sampled []float32) (pred PointPrediction) {
	mean, stddev, entropy := probStats(sampled)
	pred = PointPrediction{X1: x1, X2: x2, Prob: mean, StdDev: stddev, Entropy: entropy}
	if mean >= 0.5 {
		pred.Class = 1
	}
	return
}

// probStats reduces the sampled probabilities of one point.
func probStats(sampled []float32) (mean, stddev, entropy float64) {
	values := make([]float64, len(sampled))
	for s, v := range sampled {
		values[s] = float64(v)
	}
	mean = stat.Mean(values, nil)
	if len(values) > 1 {
		stddev = stat.StdDev(values, nil)
	}
	entropy = binaryEntropy(mean)
	return
}

// binaryEntropy in nats. Zero at p in {0, 1}.
func binaryEntropy(p float64) float64 {
	if p <= 0 || p >= 1 {
		return 0
	}
	return -p*math.Log(p) - (1-p)*math.Log(1-p)
}

// GridPrediction holds the posterior-predictive statistics over a
// rectangular grid of the input space, in original coordinates. The matrices
// are indexed [idxX2][idxX1].
type GridPrediction struct {
	X1s, X2s              []float64
	Mean, StdDev, Entropy [][]float64
	NumSamples            int
}

// PredictGrid samples the posterior predictive over a resolution x resolution
// grid spanning the given bounds (see moons.Dataset.Bounds) and summarizes it
// per cell. This feeds the predictive mean and uncertainty surface plots.
func (p *Predictor) PredictGrid(minX1, maxX1, minX2, maxX2 float64, resolution, numSamples int) (*GridPrediction, error) {
	if resolution < 2 {
		return nil, errors.Errorf("grid resolution must be at least 2, got %d", resolution)
	}
	g := &GridPrediction{
		X1s:        floats.Span(make([]float64, resolution), minX1, maxX1),
		X2s:        floats.Span(make([]float64, resolution), minX2, maxX2),
		NumSamples: numSamples,
	}
	flat := make([]float32, 0, 2*resolution*resolution)
	for _, x2 := range g.X2s {
		for _, x1 := range g.X1s {
			sx1, sx2 := p.Scaler.TransformPoint(x1, x2)
			flat = append(flat, float32(sx1), float32(sx2))
		}
	}
	inputs := tensors.FromFlatDataAndDimensions(flat, resolution*resolution, 2)
	probs, err := p.SampleProbs(inputs, numSamples)
	if err != nil {
		return nil, err
	}
	g.Mean = make([][]float64, resolution)
	g.StdDev = make([][]float64, resolution)
	g.Entropy = make([][]float64, resolution)
	for iy := range g.X2s {
		g.Mean[iy] = make([]float64, resolution)
		g.StdDev[iy] = make([]float64, resolution)
		g.Entropy[iy] = make([]float64, resolution)
		for ix := range g.X1s {
			mean, stddev, entropy := probStats(probs[iy*resolution+ix])
			g.Mean[iy][ix] = mean
			g.StdDev[iy][ix] = stddev
			g.Entropy[iy][ix] = entropy
		}
	}
	return g, nil
}

// PosteriorMetrics is the result of the posterior-predictive check on a
// held-out dataset.
type PosteriorMetrics struct {
	NumExamples int
	NumSamples  int

	Accuracy    float64 // Of the predictive mean at threshold 0.5.
	MeanNLL     float64 // Negative log-likelihood of the predictive mean, in nats.
	MeanEntropy float64

	// Predictive entropy split by correctness: a well calibrated posterior
	// is more uncertain where it errs.
	MeanEntropyCorrect float64
	MeanEntropyWrong   float64
}

// EvaluatePosterior runs the posterior-predictive check on a standardized
// dataset, typically the test split of the data the model was trained on.
func EvaluatePosterior(p *Predictor, ds moons.Dataset, numSamples int) (PosteriorMetrics, error) {
	m := PosteriorMetrics{NumExamples: ds.NumExamples(), NumSamples: numSamples}
	if m.NumExamples == 0 {
		return m, errors.Errorf("cannot evaluate on empty dataset %q", ds.Name)
	}
	inputs, _ := ds.Tensors()
	probs, err := p.SampleProbs(inputs, numSamples)
	if err != nil {
		return m, err
	}
	const eps = 1e-7
	var correct, wrong int
	var nll, entropy, entropyCorrect, entropyWrong float64
	for i := range probs {
		mean, _, pointEntropy := probStats(probs[i])
		label := int(ds.Y[i])
		prob := math.Min(math.Max(mean, eps), 1-eps)
		if label == 1 {
			nll -= math.Log(prob)
		} else {
			nll -= math.Log(1 - prob)
		}
		entropy += pointEntropy
		predicted := 0
		if mean >= 0.5 {
			predicted = 1
		}
		if predicted == label {
			correct++
			entropyCorrect += pointEntropy
		} else {
			wrong++
			entropyWrong += pointEntropy
		}
	}
	n := float64(m.NumExamples)
	m.Accuracy = float64(correct) / n
	m.MeanNLL = nll / n
	m.MeanEntropy = entropy / n
	if correct > 0 {
		m.MeanEntropyCorrect = entropyCorrect / float64(correct)
	}
	if wrong > 0 {
		m.MeanEntropyWrong = entropyWrong / float64(wrong)
	}
	return m, nil
}
