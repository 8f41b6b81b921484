// Copyright 2026 The BayesMoons Authors. SPDX-License-Identifier: Apache-2.0

package moons

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func classCounts(t *testing.T, ds Dataset) (zeros, ones int) {
	for _, y := range ds.Y {
		switch y {
		case 0:
			zeros++
		case 1:
			ones++
		default:
			t.Fatalf("label %v is neither 0 nor 1", y)
		}
	}
	return
}

func TestMoons(t *testing.T) {
	ds := Moons(101, 0, 42)
	assert.Equal(t, 102, ds.NumExamples(), "odd n should round up to keep classes balanced")
	assert.Len(t, ds.X, 2*102)
	zeros, ones := classCounts(t, ds)
	assert.Equal(t, zeros, ones)

	// Noiseless moons live inside known bounds: outer moon x in [-1,1],
	// y in [0,1]; inner moon x in [0,2], y in [-0.5,0.5].
	for i := 0; i < ds.NumExamples(); i++ {
		x1, x2 := ds.X[2*i], ds.X[2*i+1]
		assert.GreaterOrEqual(t, x1, float32(-1.0-1e-6))
		assert.LessOrEqual(t, x1, float32(2.0+1e-6))
		assert.GreaterOrEqual(t, x2, float32(-0.5-1e-6))
		assert.LessOrEqual(t, x2, float32(1.0+1e-6))
	}
}

func TestMoonsSeeding(t *testing.T) {
	a := Moons(128, 0.2, 7)
	b := Moons(128, 0.2, 7)
	c := Moons(128, 0.2, 8)
	assert.Equal(t, a.X, b.X, "same seed must reproduce the same dataset")
	assert.Equal(t, a.Y, b.Y)
	assert.NotEqual(t, a.X, c.X, "different seeds must diverge")
}

func TestCircles(t *testing.T) {
	ds := Circles(200, 0, 0.5, 11)
	for i := 0; i < ds.NumExamples(); i++ {
		radius := math.Hypot(float64(ds.X[2*i]), float64(ds.X[2*i+1]))
		if ds.Y[i] == 0 {
			assert.InDelta(t, 1.0, radius, 1e-5)
		} else {
			assert.InDelta(t, 0.5, radius, 1e-5)
		}
	}
}

func TestBlobs(t *testing.T) {
	ds := Blobs(2000, 0.5, 13)
	var sum0, sum1 [2]float64
	zeros, ones := classCounts(t, ds)
	require.Equal(t, zeros, ones)
	for i := 0; i < ds.NumExamples(); i++ {
		if ds.Y[i] == 0 {
			sum0[0] += float64(ds.X[2*i])
			sum0[1] += float64(ds.X[2*i+1])
		} else {
			sum1[0] += float64(ds.X[2*i])
			sum1[1] += float64(ds.X[2*i+1])
		}
	}
	for j := 0; j < 2; j++ {
		assert.InDelta(t, -1.0, sum0[j]/float64(zeros), 0.1)
		assert.InDelta(t, 1.0, sum1[j]/float64(ones), 0.1)
	}
}

func TestByName(t *testing.T) {
	require.Equal(t, []string{"blobs", "circles", "moons"}, Names())
	for _, name := range Names() {
		ds, err := ByName(name, 32, 0.1, 3)
		require.NoError(t, err)
		assert.Equal(t, name, ds.Name)
		assert.Equal(t, 32, ds.NumExamples())
	}
	_, err := ByName("spirals", 32, 0.1, 3)
	require.ErrorContains(t, err, "unknown dataset")
}

func TestBounds(t *testing.T) {
	ds := Dataset{Name: "fixed", X: []float32{-1, 2, 3, -4}, Y: []float32{0, 1}}
	minX, maxX, minY, maxY := ds.Bounds(0.5)
	assert.Equal(t, -1.5, minX)
	assert.Equal(t, 3.5, maxX)
	assert.Equal(t, -4.5, minY)
	assert.Equal(t, 2.5, maxY)
}

func TestTensors(t *testing.T) {
	ds := Moons(64, 0.1, 5)
	inputs, labels := ds.Tensors()
	assert.Equal(t, []int{64, 2}, inputs.Shape().Dimensions)
	assert.Equal(t, []int{64, 1}, labels.Shape().Dimensions)
}
