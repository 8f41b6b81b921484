// Copyright 2026 The BayesMoons Authors. SPDX-License-Identifier: Apache-2.0

// Package moons generates small synthetic 2D binary-classification datasets
// (two interleaved moons, concentric circles, Gaussian blobs) along with the
// preprocessing used by the demos: standard scaling, train/test splitting,
// CSV import/export and conversion to GoMLX tensors.
//
// All generators take an explicit seed so runs can be reproduced. A seed of 0
// draws the seed from entropy instead, for the classic notebook experience.
package moons

import (
	"math"
	"math/rand/v2"
	"sort"

	"golang.org/x/exp/maps"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pkg/errors"
)

// Dataset is a 2D binary-classification dataset: X holds the features
// row-major (NumExamples() x 2) and Y the labels (0 or 1), one per row.
type Dataset struct {
	Name string
	X    []float32
	Y    []float32
}

// seedMix is mixed into the second PCG word so that seed k and seed k+1
// produce unrelated streams.
const seedMix = 0x9E3779B97F4A7C15

func newRand(seed uint64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(seed, seed^seedMix))
}

// Moons generates n points along two interleaved half-circles, the classic
// "two moons" toy problem. Gaussian noise with the given standard deviation
// is added to both coordinates. n is rounded up to the next even number so
// the classes stay balanced.
func Moons(n int, noise float64, seed uint64) Dataset {
	n = evenUp(n)
	half := n / 2
	rng := newRand(seed)
	angle := distuv.Uniform{Min: 0, Max: math.Pi, Src: rng}

	ds := newDataset("moons", n)
	for i := 0; i < half; i++ {
		theta := angle.Rand()
		ds.set(i, math.Cos(theta), math.Sin(theta), 0)
		theta = angle.Rand()
		ds.set(half+i, 1-math.Cos(theta), 1-math.Sin(theta)-0.5, 1)
	}
	ds.perturb(noise, rng)
	ds.shuffle(rng)
	return ds
}

// Circles generates n points on two concentric circles: the positive class
// on a circle of radius factor, the negative class on the unit circle.
func Circles(n int, noise, factor float64, seed uint64) Dataset {
	n = evenUp(n)
	half := n / 2
	rng := newRand(seed)
	angle := distuv.Uniform{Min: 0, Max: 2 * math.Pi, Src: rng}

	ds := newDataset("circles", n)
	for i := 0; i < half; i++ {
		theta := angle.Rand()
		ds.set(i, math.Cos(theta), math.Sin(theta), 0)
		theta = angle.Rand()
		ds.set(half+i, factor*math.Cos(theta), factor*math.Sin(theta), 1)
	}
	ds.perturb(noise, rng)
	ds.shuffle(rng)
	return ds
}

// Blobs generates two Gaussian clusters centered at (-1,-1) and (1,1), with
// noise as the cluster standard deviation (0 means the default of 0.5).
func Blobs(n int, noise float64, seed uint64) Dataset {
	n = evenUp(n)
	half := n / 2
	rng := newRand(seed)
	if noise <= 0 {
		noise = 0.5
	}
	gauss := distuv.Normal{Mu: 0, Sigma: noise, Src: rng}

	ds := newDataset("blobs", n)
	for i := 0; i < half; i++ {
		ds.set(i, -1+gauss.Rand(), -1+gauss.Rand(), 0)
		ds.set(half+i, 1+gauss.Rand(), 1+gauss.Rand(), 1)
	}
	ds.shuffle(rng)
	return ds
}

var generators = map[string]func(n int, noise float64, seed uint64) Dataset{
	"moons": Moons,
	"circles": func(n int, noise float64, seed uint64) Dataset {
		return Circles(n, noise, 0.5, seed)
	},
	"blobs": Blobs,
}

// Names lists the dataset generators known to ByName, sorted.
func Names() []string {
	names := maps.Keys(generators)
	sort.Strings(names)
	return names
}

// ByName generates a dataset by generator name ("moons", "circles", "blobs").
func ByName(name string, n int, noise float64, seed uint64) (Dataset, error) {
	gen, found := generators[name]
	if !found {
		return Dataset{}, errors.Errorf("unknown dataset %q, available: %q", name, Names())
	}
	return gen(n, noise, seed), nil
}

// NumExamples returns the number of rows in the dataset.
func (ds Dataset) NumExamples() int { return len(ds.Y) }

// NumFeatures returns the width of X, 2 for all generated datasets.
func (ds Dataset) NumFeatures() int {
	if len(ds.Y) == 0 {
		return 0
	}
	return len(ds.X) / len(ds.Y)
}

// Column returns feature column j as float64, for stats and plotting.
func (ds Dataset) Column(j int) []float64 {
	numFeatures := ds.NumFeatures()
	col := make([]float64, ds.NumExamples())
	for i := range col {
		col[i] = float64(ds.X[i*numFeatures+j])
	}
	return col
}

// Bounds returns the feature ranges expanded by margin on every side,
// used to frame plots and prediction grids.
func (ds Dataset) Bounds(margin float64) (minX, maxX, minY, maxY float64) {
	xs, ys := ds.Column(0), ds.Column(1)
	minX, maxX = floats.Min(xs)-margin, floats.Max(xs)+margin
	minY, maxY = floats.Min(ys)-margin, floats.Max(ys)+margin
	return
}

func newDataset(name string, n int) Dataset {
	return Dataset{
		Name: name,
		X:    make([]float32, 2*n),
		Y:    make([]float32, n),
	}
}

func (ds Dataset) set(i int, x1, x2 float64, label float32) {
	ds.X[2*i] = float32(x1)
	ds.X[2*i+1] = float32(x2)
	ds.Y[i] = label
}

func (ds Dataset) perturb(noise float64, rng *rand.Rand) {
	if noise <= 0 {
		return
	}
	gauss := distuv.Normal{Mu: 0, Sigma: noise, Src: rng}
	for i := range ds.X {
		ds.X[i] += float32(gauss.Rand())
	}
}

func (ds Dataset) shuffle(rng *rand.Rand) {
	rng.Shuffle(ds.NumExamples(), func(i, j int) {
		ds.X[2*i], ds.X[2*j] = ds.X[2*j], ds.X[2*i]
		ds.X[2*i+1], ds.X[2*j+1] = ds.X[2*j+1], ds.X[2*i+1]
		ds.Y[i], ds.Y[j] = ds.Y[j], ds.Y[i]
	})
}

func evenUp(n int) int {
	if n < 2 {
		n = 2
	}
	if n%2 == 1 {
		n++
	}
	return n
}
