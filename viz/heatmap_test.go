// Copyright 2026 The BayesMoons Authors. SPDX-License-Identifier: Apache-2.0

package viz

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probing-ml/bayesmoons"
	"github.com/probing-ml/bayesmoons/moons"
)

func testGrid() *bayesmoons.GridPrediction {
	return &bayesmoons.GridPrediction{
		X1s: []float64{-1, 0, 1},
		X2s: []float64{0, 1},
		Mean: [][]float64{
			{0.1, 0.5, 0.9},
			{0.2, 0.5, 0.8},
		},
		StdDev: [][]float64{
			{0.01, 0.2, 0.02},
			{0.03, 0.25, 0.01},
		},
		Entropy: [][]float64{
			{0.3, 0.69, 0.33},
			{0.5, 0.69, 0.5},
		},
		NumSamples: 10,
	}
}

func TestGridData(t *testing.T) {
	mean, stddev := SurfaceGrids(testGrid())

	c, r := mean.Dims()
	assert.Equal(t, 3, c)
	assert.Equal(t, 2, r)
	assert.Equal(t, 0.9, mean.Z(2, 0))
	assert.Equal(t, 1.0, mean.X(2))
	assert.Equal(t, 1.0, mean.Y(1))
	assert.Equal(t, 0.0, mean.ZMin)
	assert.Equal(t, 1.0, mean.ZMax, "mean surface color range is pinned to [0,1]")

	assert.Equal(t, 0.25, stddev.Z(1, 1))
	assert.Zero(t, stddev.ZMax, "stddev surface auto-ranges")
}

func TestHeatmapPNG(t *testing.T) {
	mean, _ := SurfaceGrids(testGrid())
	ds := moons.Moons(32, 0.1, 3)
	path := filepath.Join(t.TempDir(), "mean.png")
	require.NoError(t, HeatmapPNG(mean, ds, "mean", path, DivergingPalette()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestSurfacePNGs(t *testing.T) {
	dir := t.TempDir()
	paths, err := SurfacePNGs(testGrid(), moons.Blobs(16, 0.3, 7), dir)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, filepath.Join(dir, "predictive_mean.png"), paths[0])
	assert.Equal(t, filepath.Join(dir, "predictive_stddev.png"), paths[1])
	for _, path := range paths {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}
}

func TestMontage(t *testing.T) {
	dir := t.TempDir()
	paths, err := SurfacePNGs(testGrid(), moons.Moons(16, 0.1, 1), dir)
	require.NoError(t, err)

	out := filepath.Join(dir, "surfaces.png")
	require.NoError(t, Montage(paths, 2, out))
	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	require.Error(t, Montage(nil, 2, out))
	require.Error(t, Montage([]string{filepath.Join(dir, "missing.png")}, 1, out))
}
