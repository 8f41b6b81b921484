// Copyright 2026 The BayesMoons Authors. SPDX-License-Identifier: Apache-2.0

package moons

import (
	"github.com/gomlx/gomlx/backends"
	"github.com/gomlx/gomlx/ml/data"
	"github.com/gomlx/gomlx/types/tensors"
	"github.com/pkg/errors"
)

// Tensors converts the dataset to GoMLX tensors: inputs shaped
// [NumExamples, 2], labels shaped [NumExamples, 1].
func (ds Dataset) Tensors() (inputs, labels *tensors.Tensor) {
	n := ds.NumExamples()
	inputs = tensors.FromFlatDataAndDimensions(ds.X, n, ds.NumFeatures())
	labels = tensors.FromFlatDataAndDimensions(ds.Y, n, 1)
	return
}

// InMemoryDataset wraps the dataset for the GoMLX training loop. Chain the
// usual modifiers (BatchSize, Shuffle, Infinite) on the result.
func (ds Dataset) InMemoryDataset(backend backends.Backend, name string) (*data.InMemoryDataset, error) {
	inputs, labels := ds.Tensors()
	mds, err := data.InMemoryFromData(backend, name, []any{inputs}, []any{labels})
	if err != nil {
		return nil, errors.WithMessagef(err, "creating in-memory dataset %q", name)
	}
	return mds, nil
}
