// Copyright 2025 The xentropy Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package xentropy is the public API for the fused softmax cross-entropy
// loss with label smoothing.
//
// The ops are a host-side validation layer over pluggable compute kernels:
// the reference CPU kernel (backend/cpu) and the WebGPU kernel
// (backend/webgpu). Forward returns the per-row loss along with a saved
// per-row log-sum-exp statistic that Backward consumes; the Loss criterion
// automates that pairing.
//
// Example:
//
//	kernel := cpu.New()
//	criterion := xentropy.NewLoss(kernel, xentropy.LossConfig{Smoothing: 0.1})
//	loss, err := criterion.Forward(logits, labels)
//	grad, err := criterion.Backward(upstream)
package xentropy

import (
	"github.com/xentropy-ml/xentropy/internal/parallel"
	"github.com/xentropy-ml/xentropy/internal/tensor"
	"github.com/xentropy-ml/xentropy/internal/xentropy"
)

// ErrInvalidArgument is returned when an input tensor fails a placement,
// layout, shape or dtype precondition. Match with errors.Is.
var ErrInvalidArgument = xentropy.ErrInvalidArgument

// Kernel is the pluggable compute backend interface for the fused loss.
type Kernel = xentropy.Kernel

// Reduction selects how the per-row loss vector is collapsed.
type Reduction = xentropy.Reduction

// Reduction modes. None is the default and returns one loss per row.
const (
	None Reduction = xentropy.None
	Mean Reduction = xentropy.Mean
	Sum  Reduction = xentropy.Sum
)

// LossConfig configures a Loss criterion.
type LossConfig = xentropy.LossConfig

// Loss is a criterion pairing the forward and backward ops, holding the
// saved log-sum-exp statistic between the two calls.
type Loss = xentropy.Loss

// ParallelConfig controls how CPU-side reductions split work across
// goroutines.
type ParallelConfig = parallel.Config

// DefaultParallelConfig returns sensible parallelism defaults based on CPU
// count.
func DefaultParallelConfig() ParallelConfig {
	return parallel.DefaultConfig()
}

// NewLoss creates a Loss criterion on the given kernel. A zero LossConfig
// gives unsmoothed cross-entropy with per-row output.
func NewLoss(k Kernel, cfg LossConfig) *Loss {
	return xentropy.NewLoss(k, cfg)
}

// Forward computes the fused softmax cross-entropy loss with label
// smoothing, returning the per-row loss and the per-row max-inclusive
// log-sum-exp that Backward consumes. Placement or layout violations
// return an error wrapping ErrInvalidArgument before any computation.
func Forward(k Kernel, logits, labels *tensor.RawTensor, smoothing float32, halfToFloat bool) (loss, lse *tensor.RawTensor, err error) {
	return xentropy.Forward(k, logits, labels, smoothing, halfToFloat)
}

// Backward computes the gradient of the loss with respect to logits, given
// the upstream per-row gradient and the statistic from the matching
// Forward call.
func Backward(k Kernel, gradLoss, logits, lse, labels *tensor.RawTensor, smoothing float32) (*tensor.RawTensor, error) {
	return xentropy.Backward(k, gradLoss, logits, lse, labels, smoothing)
}

// Reduce collapses a per-row loss vector into a single-element tensor.
func Reduce(loss *tensor.RawTensor, r Reduction, cfg ParallelConfig) (*tensor.RawTensor, error) {
	return xentropy.Reduce(loss, r, cfg)
}
