// Copyright 2026 The BayesMoons Authors. SPDX-License-Identifier: Apache-2.0

package bayesmoons

import (
	"testing"

	"github.com/gomlx/gomlx/backends"
	. "github.com/gomlx/gomlx/graph"
	"github.com/gomlx/gomlx/ml/context"
	"github.com/gomlx/gomlx/types/tensors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runModelGraph builds and executes one forward pass of the given model type
// on a fresh context, returning [logits, kl].
func runModelGraph(t *testing.T, modelType string) []*tensors.Tensor {
	modelFn, found := Models[modelType]
	require.Truef(t, found, "model %q not registered", modelType)
	ctx := context.New()
	ctx.RngStateFromSeed(42)
	exec := context.NewExec(backends.New(), ctx.In("model"),
		func(ctx *context.Context, x *Node) []*Node {
			return modelFn(ctx, nil, []*Node{x})
		})
	inputs := tensors.FromFlatDataAndDimensions([]float32{
		0.5, -1.0,
		1.0, 2.0,
		-0.5, 0.25,
	}, 3, 2)
	return exec.Call(inputs)
}

func TestModelsRegistry(t *testing.T) {
	assert.Contains(t, Models, "bnn")
	assert.Contains(t, Models, "map")
}

func TestBNNModelGraph(t *testing.T) {
	outputs := runModelGraph(t, "bnn")
	require.Len(t, outputs, 2)
	assert.Equal(t, []int{3, 1}, outputs[0].Shape().Dimensions)
	assert.True(t, outputs[1].Shape().IsScalar(), "KL must be a scalar, got %s", outputs[1].Shape())

	// Freshly initialized posteriors differ from the prior, so KL > 0.
	kl := tensors.ToScalar[float32](outputs[1])
	assert.Greater(t, kl, float32(0))
}

func TestMAPModelGraph(t *testing.T) {
	outputs := runModelGraph(t, "map")
	require.Len(t, outputs, 2)
	assert.Equal(t, []int{3, 1}, outputs[0].Shape().Dimensions)

	// The baseline has no weight posteriors: its KL output is exactly zero.
	kl := tensors.ToScalar[float32](outputs[1])
	assert.Zero(t, kl)
}

func TestFeedForwardTopology(t *testing.T) {
	ctx := context.New()
	ctx.RngStateFromSeed(42)
	ctx.SetParam(ParamNumHiddenLayers, 3)
	ctx.SetParam(ParamNumHiddenNodes, 8)
	exec := context.NewExec(backends.New(), ctx.In("model"),
		func(ctx *context.Context, x *Node) []*Node {
			return BNNModelGraph(ctx, nil, []*Node{x})
		})
	inputs := tensors.FromFlatDataAndDimensions([]float32{0.5, -1.0}, 1, 2)
	outputs := exec.Call(inputs)
	assert.Equal(t, []int{1, 1}, outputs[0].Shape().Dimensions)

	// One posterior mean per configured hidden layer, plus the readout.
	for _, scope := range []string{"/model/hidden_0", "/model/hidden_1", "/model/hidden_2", "/model/readout"} {
		v := ctx.GetVariableByScopeAndName(scope+"/bayes_dense", "w_mu")
		assert.NotNilf(t, v, "missing posterior under %s", scope)
	}
	widths := ctx.GetVariableByScopeAndName("/model/hidden_1/bayes_dense", "w_mu")
	require.NotNil(t, widths)
	assert.Equal(t, []int{8, 8}, widths.Shape().Dimensions)
}
