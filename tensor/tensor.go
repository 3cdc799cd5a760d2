// Copyright 2025 The xentropy Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public tensor types for the xentropy library.
//
// The package defines the host-side tensor representation the loss ops
// validate and the compute kernels consume:
//   - RawTensor: shape, strides, dtype and device placement over a byte buffer
//   - Shape, DataType, Device: core type definitions
//
// Example:
//
//	logits, _ := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{1, 3}, tensor.CPU)
//	labels, _ := tensor.FromSlice([]int32{2}, tensor.Shape{1}, tensor.CPU)
package tensor

import (
	"github.com/xentropy-ml/xentropy/internal/tensor"
)

// DType is a constraint for element types that map directly onto a tensor
// buffer. Float16 tensors are created through FromFloat16Slice instead.
type DType = tensor.DType

// DataType represents the underlying data type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float16 DataType = tensor.Float16
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
	Int32   DataType = tensor.Int32
	Int64   DataType = tensor.Int64
)

// Device represents the memory space where tensor data resides.
type Device = tensor.Device

// Device constants.
const (
	CPU    Device = tensor.CPU
	CUDA   Device = tensor.CUDA
	Vulkan Device = tensor.Vulkan
	Metal  Device = tensor.Metal
	WebGPU Device = tensor.WebGPU
)

// Shape represents the dimensions of a tensor.
// Example: Shape{4, 10} represents a 4×10 logits matrix.
type Shape = tensor.Shape

// RawTensor is the low-level tensor representation: a byte buffer plus
// shape, strides, dtype and device placement. Views created with Narrow
// share the buffer and may be non-contiguous.
type RawTensor = tensor.RawTensor

// NewRaw creates a new zero-initialized tensor with the given shape, dtype
// and device.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}

// FromSlice creates a tensor from a Go slice. The slice length must match
// the shape's element count.
//
// Example:
//
//	logits, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, tensor.CPU)
func FromSlice[T DType](data []T, shape Shape, device Device) (*RawTensor, error) {
	return tensor.FromSlice(data, shape, device)
}

// FromFloat16Slice creates a Float16 tensor from float32 values, rounding
// each to the nearest representable half-precision value.
func FromFloat16Slice(data []float32, shape Shape, device Device) (*RawTensor, error) {
	return tensor.FromFloat16Slice(data, shape, device)
}

// Float16ToFloat32 converts raw half-precision bits to float32.
func Float16ToFloat32(bits uint16) float32 {
	return tensor.Float16ToFloat32(bits)
}

// Float32ToFloat16 converts a float32 to raw half-precision bits,
// rounding to nearest even.
func Float32ToFloat16(v float32) uint16 {
	return tensor.Float32ToFloat16(v)
}
