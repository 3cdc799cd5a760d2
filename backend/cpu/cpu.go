// Copyright 2025 The xentropy Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/xentropy-ml/xentropy/internal/backend/cpu"
	"github.com/xentropy-ml/xentropy/xentropy"
)

// Kernel is the reference CPU implementation of the fused loss.
//
// Rows are processed in parallel; each row is a single fused pass with no
// intermediate softmax tensor.
type Kernel = internalcpu.Kernel

// Compile-time check that Kernel implements xentropy.Kernel.
var _ xentropy.Kernel = (*Kernel)(nil)

// New creates a CPU kernel with default parallelism.
//
// Example:
//
//	kernel := cpu.New()
//	loss, lse, err := xentropy.Forward(kernel, logits, labels, 0.1, false)
func New() *Kernel {
	return internalcpu.New()
}

// NewWithConfig creates a CPU kernel with explicit parallelism settings.
func NewWithConfig(cfg xentropy.ParallelConfig) *Kernel {
	return internalcpu.NewWithConfig(cfg)
}
