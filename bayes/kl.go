// Copyright 2026 The BayesMoons Authors. SPDX-License-Identifier: Apache-2.0

package bayes

import (
	"math"
	"strings"

	. "github.com/gomlx/exceptions"
	. "github.com/gomlx/gomlx/graph"
	"github.com/gomlx/gomlx/ml/context"
	"github.com/gomlx/gopjrt/dtypes"
)

// KLDivergence returns KL(N(mu, sigma²) ‖ N(0, priorSigma²)) with
// sigma = exp(logSigma), summed over all elements:
//
//	log(priorSigma) − logSigma + (sigma² + mu²)/(2·priorSigma²) − ½
//
// It is zero exactly when the posterior matches the prior, positive
// otherwise.
func KLDivergence(mu, logSigma *Node, priorSigma float64) *Node {
	if priorSigma <= 0 {
		Panicf("bayes.KLDivergence requires priorSigma > 0, got %g", priorSigma)
	}
	sigma2 := Exp(MulScalar(logSigma, 2))
	quad := DivScalar(Add(sigma2, Square(mu)), 2*priorSigma*priorSigma)
	perElement := AddScalar(Sub(quad, logSigma), math.Log(priorSigma)-0.5)
	return ReduceAllSum(perElement)
}

// TotalKL sums the KL divergence of every variational posterior registered
// under ctx against its prior, as a scalar node on g. It is a pure function
// of the mu/log_sigma variables, independent of training and sampling modes,
// so models can expose it as an extra output for metrics. Returns a Float32
// zero when the context holds no variational variables (e.g. a
// deterministic baseline model).
func TotalKL(ctx *context.Context, g *Graph) *Node {
	priorSigma := context.GetParamOr(ctx, ParamPriorSigma, 1.0)
	var total *Node
	ctx.EnumerateVariables(func(v *context.Variable) {
		// Skip optimizer slots and other non-trainable state.
		if !v.Trainable || !strings.HasSuffix(v.Name(), "_log_sigma") {
			return
		}
		muName := strings.TrimSuffix(v.Name(), "_log_sigma") + "_mu"
		muVar := ctx.GetVariableByScopeAndName(v.Scope(), muName)
		if muVar == nil {
			return
		}
		kl := KLDivergence(muVar.ValueGraph(g), v.ValueGraph(g), priorSigma)
		if total == nil {
			total = kl
		} else {
			total = Add(total, kl)
		}
	})
	if total == nil {
		return ScalarZero(g, dtypes.Float32)
	}
	return total
}
