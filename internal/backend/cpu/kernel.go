// Package cpu implements the reference CPU kernels for the fused softmax
// cross-entropy loss. Rows are processed in parallel; each row is a single
// fused pass with no intermediate softmax tensor.
package cpu

import (
	"github.com/xentropy-ml/xentropy/internal/parallel"
	"github.com/xentropy-ml/xentropy/internal/tensor"
)

// Kernel computes the fused loss on host memory.
type Kernel struct {
	cfg parallel.Config
}

// New creates a CPU kernel with default parallelism.
func New() *Kernel {
	return &Kernel{cfg: parallel.DefaultConfig()}
}

// NewWithConfig creates a CPU kernel with explicit parallelism settings.
func NewWithConfig(cfg parallel.Config) *Kernel {
	return &Kernel{cfg: cfg}
}

// Name returns the kernel name.
func (k *Kernel) Name() string {
	return "CPU"
}

// Device returns the memory space the kernel operates on.
func (k *Kernel) Device() tensor.Device {
	return tensor.CPU
}

// labelAt returns a row-index reader over an Int32 or Int64 label tensor.
func labelAt(labels *tensor.RawTensor) func(i int) int {
	switch labels.DType() {
	case tensor.Int32:
		data := labels.AsInt32()
		return func(i int) int { return int(data[i]) }
	case tensor.Int64:
		data := labels.AsInt64()
		return func(i int) int { return int(data[i]) }
	default:
		panic("labels must be int32 or int64")
	}
}

// float32At returns a row-index reader promoting Float16/Float32 to float32.
func float32At(t *tensor.RawTensor) func(i int) float32 {
	switch t.DType() {
	case tensor.Float32:
		data := t.AsFloat32()
		return func(i int) float32 { return data[i] }
	case tensor.Float16:
		data := t.AsFloat16()
		return func(i int) float32 { return tensor.Float16ToFloat32(data[i]) }
	default:
		panic("expected float16 or float32 tensor")
	}
}

// float32Set returns a row-index writer for a Float16/Float32 tensor.
func float32Set(t *tensor.RawTensor) func(i int, v float32) {
	switch t.DType() {
	case tensor.Float32:
		data := t.AsFloat32()
		return func(i int, v float32) { data[i] = v }
	case tensor.Float16:
		data := t.AsFloat16()
		return func(i int, v float32) { data[i] = tensor.Float32ToFloat16(v) }
	default:
		panic("expected float16 or float32 tensor")
	}
}
