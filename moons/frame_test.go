// Copyright 2026 The BayesMoons Authors. SPDX-License-Identifier: Apache-2.0

package moons

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVRoundTrip(t *testing.T) {
	ds := Moons(64, 0.1, 5)
	var buf bytes.Buffer
	require.NoError(t, ds.WriteCSV(&buf))
	assert.True(t, strings.HasPrefix(buf.String(), "x1,x2,label\n"))

	back, err := ReadCSV(&buf, "roundtrip")
	require.NoError(t, err)
	require.Equal(t, ds.NumExamples(), back.NumExamples())
	assert.Equal(t, ds.Y, back.Y)
	for i := range ds.X {
		assert.InDelta(t, ds.X[i], back.X[i], 1e-5)
	}
}

func TestSaveAndLoadCSV(t *testing.T) {
	ds := Circles(32, 0.05, 0.5, 7)
	path := filepath.Join(t.TempDir(), "circles.csv")
	require.NoError(t, ds.SaveCSV(path))

	back, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, "circles", back.Name)
	assert.Equal(t, ds.Y, back.Y)
}

func TestReadCSVMissingColumn(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("a,b\n1,2\n"), "bad")
	require.ErrorContains(t, err, "misses column")
}

func TestLoadCSVMissingFile(t *testing.T) {
	_, err := LoadCSV(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
}

func TestDescribe(t *testing.T) {
	summary := Moons(128, 0.2, 11).Describe()
	assert.Contains(t, summary, "x1")
	assert.Contains(t, summary, "x2")
	assert.Contains(t, summary, "mean")
}
