// Copyright 2026 The BayesMoons Authors. SPDX-License-Identifier: Apache-2.0

package moons

import (
	"encoding/json"
	"math"
	"os"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// Scaler standardizes features to zero mean and unit variance, column by
// column. Fit it on the training split only, then apply it to everything
// that reaches the model, including user-supplied points at serving time.
type Scaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// NewScaler returns an unfitted scaler.
func NewScaler() *Scaler { return &Scaler{} }

// Fit learns per-column mean and standard deviation from ds. Columns with
// zero spread get a standard deviation of 1 so Transform stays finite.
// It returns the scaler to allow chaining.
func (s *Scaler) Fit(ds Dataset) *Scaler {
	numFeatures := ds.NumFeatures()
	s.Mean = make([]float64, numFeatures)
	s.Std = make([]float64, numFeatures)
	for j := 0; j < numFeatures; j++ {
		col := ds.Column(j)
		s.Mean[j] = stat.Mean(col, nil)
		s.Std[j] = stat.StdDev(col, nil)
		if s.Std[j] == 0 || math.IsNaN(s.Std[j]) {
			s.Std[j] = 1
		}
	}
	return s
}

// Transform returns a copy of ds with standardized features.
func (s *Scaler) Transform(ds Dataset) Dataset {
	s.check(ds)
	out := ds.clone()
	numFeatures := ds.NumFeatures()
	for i := 0; i < ds.NumExamples(); i++ {
		for j := 0; j < numFeatures; j++ {
			v := float64(ds.X[i*numFeatures+j])
			out.X[i*numFeatures+j] = float32((v - s.Mean[j]) / s.Std[j])
		}
	}
	return out
}

// FitTransform fits the scaler on ds and returns the transformed copy.
func (s *Scaler) FitTransform(ds Dataset) Dataset {
	return s.Fit(ds).Transform(ds)
}

// Inverse undoes Transform, mapping standardized features back to the
// original coordinates.
func (s *Scaler) Inverse(ds Dataset) Dataset {
	s.check(ds)
	out := ds.clone()
	numFeatures := ds.NumFeatures()
	for i := 0; i < ds.NumExamples(); i++ {
		for j := 0; j < numFeatures; j++ {
			v := float64(ds.X[i*numFeatures+j])
			out.X[i*numFeatures+j] = float32(v*s.Std[j] + s.Mean[j])
		}
	}
	return out
}

// TransformPoint standardizes a single (x1, x2) point.
func (s *Scaler) TransformPoint(x1, x2 float64) (float64, float64) {
	if len(s.Mean) != 2 {
		exceptions.Panicf("moons.Scaler: scaler fitted for %d features, want 2", len(s.Mean))
	}
	return (x1 - s.Mean[0]) / s.Std[0], (x2 - s.Mean[1]) / s.Std[1]
}

func (s *Scaler) check(ds Dataset) {
	if len(s.Mean) == 0 {
		exceptions.Panicf("moons.Scaler: used before Fit")
	}
	if ds.NumFeatures() != len(s.Mean) {
		exceptions.Panicf("moons.Scaler: fitted for %d features, dataset has %d",
			len(s.Mean), ds.NumFeatures())
	}
}

// Save writes the scaler as JSON, conventionally next to the checkpoint so
// serving loads the same standardization used in training.
func (s *Scaler) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating scaler file %q", path)
	}
	defer func() { _ = f.Close() }()
	if err = json.NewEncoder(f).Encode(s); err != nil {
		return errors.Wrapf(err, "encoding scaler to %q", path)
	}
	return nil
}

// LoadScaler reads a scaler saved with Save.
func LoadScaler(path string) (*Scaler, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening scaler file %q", path)
	}
	defer func() { _ = f.Close() }()
	s := &Scaler{}
	if err = json.NewDecoder(f).Decode(s); err != nil {
		return nil, errors.Wrapf(err, "decoding scaler from %q", path)
	}
	return s, nil
}

// Split partitions ds into train and test subsets. testFraction must be in
// (0, 1); the split is deterministic for a fixed non-zero seed and both
// subsets always get at least one example.
func (ds Dataset) Split(testFraction float64, seed uint64) (train, test Dataset) {
	if testFraction <= 0 || testFraction >= 1 {
		exceptions.Panicf("moons.Dataset.Split: testFraction must be in (0, 1), got %g", testFraction)
	}
	n := ds.NumExamples()
	numTest := int(math.Round(float64(n) * testFraction))
	numTest = min(max(numTest, 1), n-1)
	perm := newRand(seed).Perm(n)
	test = ds.gather(perm[:numTest], ds.Name+"-test")
	train = ds.gather(perm[numTest:], ds.Name+"-train")
	return
}

func (ds Dataset) gather(rows []int, name string) Dataset {
	numFeatures := ds.NumFeatures()
	out := newDataset(name, len(rows))
	for i, r := range rows {
		copy(out.X[i*numFeatures:(i+1)*numFeatures], ds.X[r*numFeatures:(r+1)*numFeatures])
		out.Y[i] = ds.Y[r]
	}
	return out
}

func (ds Dataset) clone() Dataset {
	out := Dataset{Name: ds.Name, X: make([]float32, len(ds.X)), Y: make([]float32, len(ds.Y))}
	copy(out.X, ds.X)
	copy(out.Y, ds.Y)
	return out
}
