// Copyright 2025 The xentropy Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package webgpu

import (
	internalwebgpu "github.com/xentropy-ml/xentropy/internal/backend/webgpu"
	"github.com/xentropy-ml/xentropy/xentropy"
)

// Kernel dispatches the fused loss shaders on a WebGPU device.
//
// Only float32 logits are supported. On platforms without the go-webgpu
// native library, New returns an error.
type Kernel = internalwebgpu.Kernel

// Compile-time check that Kernel implements xentropy.Kernel.
var _ xentropy.Kernel = (*Kernel)(nil)

// New creates a WebGPU kernel.
// Returns an error if WebGPU is not available or initialization fails.
//
// Example:
//
//	kernel, err := webgpu.New()
//	if err != nil {
//	    kernel = nil // Fall back to cpu.New().
//	}
func New() (*Kernel, error) {
	return internalwebgpu.New()
}
