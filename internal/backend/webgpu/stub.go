//go:build !windows

// Package webgpu implements the accelerated kernel for the fused softmax
// cross-entropy loss on top of go-webgpu's zero-CGO WebGPU bindings.
package webgpu

import (
	"fmt"

	"github.com/xentropy-ml/xentropy/internal/tensor"
)

// Kernel is unavailable on this platform; go-webgpu ships native libraries
// for Windows only. Use the CPU kernel elsewhere.
type Kernel struct{}

// New reports that the WebGPU kernel is not supported on this platform.
func New() (*Kernel, error) {
	return nil, fmt.Errorf("webgpu: not supported on this platform")
}

// Release is a no-op on this platform.
func (k *Kernel) Release() {}

// Name returns the kernel name.
func (k *Kernel) Name() string {
	return "WebGPU"
}

// Device returns the memory space the kernel operates on.
func (k *Kernel) Device() tensor.Device {
	return tensor.WebGPU
}

// Forward is unavailable on this platform.
func (k *Kernel) Forward(logits, labels *tensor.RawTensor, smoothing float32, halfToFloat bool) (loss, lse *tensor.RawTensor, err error) {
	return nil, nil, fmt.Errorf("webgpu: not supported on this platform")
}

// Backward is unavailable on this platform.
func (k *Kernel) Backward(gradLoss, logits, lse, labels *tensor.RawTensor, smoothing float32) (*tensor.RawTensor, error) {
	return nil, fmt.Errorf("webgpu: not supported on this platform")
}
