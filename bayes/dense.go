// Copyright 2026 The BayesMoons Authors. SPDX-License-Identifier: Apache-2.0

package bayes

import (
	. "github.com/gomlx/exceptions"
	. "github.com/gomlx/gomlx/graph"
	"github.com/gomlx/gomlx/ml/context"
	"github.com/gomlx/gomlx/ml/train"
	"github.com/gomlx/gomlx/types/shapes"
)

// Dense applies a variational fully-connected layer to a rank-2 input
// shaped [batchSize, numFeatures], producing [batchSize, outputDim].
// The weight and bias posteriors are stored as "*_mu" / "*_log_sigma"
// variable pairs under the "bayes_dense" scope, checkpointed like any
// other variable.
//
// With sampling on (see IsSampling) every execution draws fresh weights;
// with sampling off the posterior means are used, which gives the
// deterministic mean predictor.
func Dense(ctx *context.Context, input *Node, useBias bool, outputDim int) *Node {
	g := input.Graph()
	ctx = ctx.In("bayes_dense")

	inputShape := input.Shape()
	if inputShape.Rank() != 2 {
		Panicf("bayes.Dense requires a rank-2 input [batchSize, numFeatures], got %s", inputShape)
	}
	if outputDim < 1 {
		Panicf("bayes.Dense requires outputDim >= 1, got %d", outputDim)
	}
	numFeatures := inputShape.Dimensions[1]
	dtype := inputShape.DType

	weights := posteriorWeights(ctx, g, "w", shapes.Make(dtype, numFeatures, outputDim))
	output := Dot(input, weights)
	if useBias {
		bias := posteriorWeights(ctx, g, "b", shapes.Make(dtype, outputDim))
		output = Add(output, InsertAxes(bias, 0))
	}
	return output
}

// posteriorWeights creates (or reuses) the mu/log_sigma variable pair for
// one weight tensor and returns the weight values to use on this graph:
// a reparameterized sample, or the posterior mean when not sampling.
// Training graphs also get the weighted KL added to the context losses.
func posteriorWeights(ctx *context.Context, g *Graph, prefix string, shape shapes.Shape) *Node {
	priorSigma := context.GetParamOr(ctx, ParamPriorSigma, 1.0)
	if priorSigma <= 0 {
		Panicf("hyperparameter %q must be > 0, got %g", ParamPriorSigma, priorSigma)
	}
	initLogSigma := context.GetParamOr(ctx, ParamInitLogSigma, -5.0)

	// The posterior mean takes the context's default initializer, same as a
	// deterministic layer's weights would; the posterior starts as a nearly
	// collapsed Gaussian around it.
	muVar := ctx.VariableWithShape(prefix+"_mu", shape)
	logSigmaVar := ctx.WithInitializer(constantInitializer(initLogSigma)).
		VariableWithShape(prefix+"_log_sigma", shape)
	mu := muVar.ValueGraph(g)
	logSigma := logSigmaVar.ValueGraph(g)

	if ctx.IsTraining(g) {
		if klWeight := context.GetParamOr(ctx, ParamKLWeight, 0.0); klWeight > 0 {
			train.AddLoss(ctx, MulScalar(KLDivergence(mu, logSigma, priorSigma), klWeight))
		}
	}

	if !IsSampling(ctx, g) {
		return mu
	}
	eps := ctx.RandomNormal(g, shape)
	return Add(mu, Mul(Exp(logSigma), eps))
}
