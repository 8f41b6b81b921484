// Copyright 2026 The BayesMoons Authors. SPDX-License-Identifier: Apache-2.0

// Package bayesmoons walks through Bayesian neural-network classification on
// synthetic 2D datasets: generate data (package moons), fit a small
// feed-forward network whose weights carry Gaussian variational posteriors
// (package bayes) by stochastic variational inference, then sample the
// fitted posterior to map predictive mean and uncertainty over the input
// plane (package viz draws them).
//
// The heavy lifting (autodiff, optimizers, graph execution) is GoMLX's; this
// package only assembles the tutorial flow: TrainModel fits, Predictor
// samples, FormatSummary reports.
package bayesmoons

import (
	"fmt"

	. "github.com/gomlx/gomlx/graph"
	"github.com/gomlx/gomlx/ml/context"
	"github.com/gomlx/gomlx/ml/layers"
	"github.com/gomlx/gomlx/ml/layers/activations"
	"github.com/gomlx/gomlx/ml/train"

	"github.com/probing-ml/bayesmoons/bayes"
)

const (
	// ParamNumHiddenLayers is the number of hidden layers, shared by all
	// model types. Default 2.
	ParamNumHiddenLayers = "hidden_layers"

	// ParamNumHiddenNodes is the width of each hidden layer. Default 16.
	ParamNumHiddenNodes = "hidden_nodes"
)

// Models maps the values of the "model" hyperparameter to graph-building
// functions. Both models share the topology set by ParamNumHiddenLayers and
// ParamNumHiddenNodes: "bnn" uses variational layers, "map" is the
// deterministic point-estimate baseline to compare against.
var Models = map[string]train.ModelFn{
	"bnn": BNNModelGraph,
	"map": MAPModelGraph,
}

// BNNModelGraph builds the Bayesian feed-forward classifier: 2 features in,
// hidden layers of bayes.Dense plus activation, one logit out.
//
// It returns [logits, kl]: logits shaped [batchSize, 1] and the scalar KL
// divergence between all weight posteriors and their priors. The loss
// consumes output 0; output 1 feeds the KL metric, and during training the
// weighted KL reaches the optimizer through the context losses (see
// bayes.Dense), completing the ELBO.
func BNNModelGraph(ctx *context.Context, spec any, inputs []*Node) []*Node {
	_ = spec
	logits := feedForward(ctx, inputs[0], func(ctx *context.Context, x *Node, dim int) *Node {
		return bayes.Dense(ctx, x, true, dim)
	})
	return []*Node{logits, bayes.TotalKL(ctx, logits.Graph())}
}

// MAPModelGraph builds the deterministic twin of BNNModelGraph with plain
// dense layers; L2 regularization from the context plays the role of the
// prior, making it a maximum-a-posteriori point estimate. The KL output is
// always zero, keeping the output contract of BNNModelGraph.
func MAPModelGraph(ctx *context.Context, spec any, inputs []*Node) []*Node {
	_ = spec
	logits := feedForward(ctx, inputs[0], func(ctx *context.Context, x *Node, dim int) *Node {
		return layers.DenseWithBias(ctx, x, dim)
	})
	return []*Node{logits, bayes.TotalKL(ctx, logits.Graph())}
}

func feedForward(ctx *context.Context, x *Node, dense func(ctx *context.Context, x *Node, outputDim int) *Node) *Node {
	numHiddenLayers := context.GetParamOr(ctx, ParamNumHiddenLayers, 2)
	numHiddenNodes := context.GetParamOr(ctx, ParamNumHiddenNodes, 16)
	for i := 0; i < numHiddenLayers; i++ {
		x = dense(ctx.In(fmt.Sprintf("hidden_%d", i)), x, numHiddenNodes)
		x = activations.ApplyFromContext(ctx, x)
	}
	return dense(ctx.In("readout"), x, 1)
}
