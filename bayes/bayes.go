// Copyright 2026 The BayesMoons Authors. SPDX-License-Identifier: Apache-2.0

// Package bayes implements fully-connected layers whose weights are random
// variables: every weight carries an independent Gaussian ("mean-field")
// variational posterior N(mu, sigma²) paired with a zero-mean Gaussian prior.
//
// While sampling, layers draw their weights with the reparameterization
// trick, w = mu + exp(logSigma)·eps with eps ~ N(0,1), so gradients flow
// through mu and logSigma. Training graphs additionally add the closed-form
// KL(posterior‖prior) to the context losses (train.AddLoss), which turns the
// usual mean negative log-likelihood loss into the (negative) ELBO.
// Gradients, the optimizer and graph execution are all GoMLX's; this package
// only assembles the distributional bookkeeping on top.
//
// Hyperparameters are read from the context (see the Param* constants), so
// they can be set like any other, e.g. -set="bayes_prior_sigma=0.5".
package bayes

import (
	. "github.com/gomlx/gomlx/graph"
	"github.com/gomlx/gomlx/ml/context"
	"github.com/gomlx/gomlx/types/shapes"
)

const (
	// ParamPriorSigma is the standard deviation of the zero-mean Gaussian
	// prior over every weight. The value should be a float64 > 0.
	// Default is 1.0.
	ParamPriorSigma = "bayes_prior_sigma"

	// ParamInitLogSigma is the initial value of the posterior log-stddev
	// variables. The default of -5 starts the posterior nearly
	// deterministic, close to a point estimate.
	ParamInitLogSigma = "bayes_init_log_sigma"

	// ParamKLWeight scales the KL term added to the training loss. With the
	// likelihood averaged per example the ELBO calls for 1/numTrainExamples;
	// the trainer sets that automatically when the value is 0 (the default).
	ParamKLWeight = "bayes_kl_weight"

	// ParamSample forces weight sampling outside training, for
	// posterior-predictive inference. It is read when a graph is built, so
	// set it before creating the executor that should sample.
	ParamSample = "bayes_sample"
)

// Sampling sets ParamSample on ctx, affecting graphs built afterwards.
func Sampling(ctx *context.Context, enabled bool) {
	ctx.SetParam(ParamSample, enabled)
}

// IsSampling reports whether layers built on g draw sampled weights:
// always during training, otherwise only when ParamSample is set.
func IsSampling(ctx *context.Context, g *Graph) bool {
	return ctx.IsTraining(g) || context.GetParamOr(ctx, ParamSample, false)
}

func constantInitializer(value float64) context.VariableInitializer {
	return func(g *Graph, shape shapes.Shape) *Node {
		return AddScalar(Zeros(g, shape), value)
	}
}
