// Package xentropy implements a fused softmax cross-entropy loss with label
// smoothing as a thin host-side validation layer over pluggable compute
// kernels.
//
// The loss for row i of an N×C logits matrix with target label t_i and
// smoothing factor s ∈ [0, 1] is
//
//	LSE_i  = max_c(logits[i]) + log Σ_c exp(logits[i,c] - max_c(logits[i]))
//	CE_i   = LSE_i - logits[i, t_i]
//	mean_i = LSE_i - (1/C) Σ_c logits[i,c]
//	loss_i = (1-s)·CE_i + s·mean_i
//
// Forward returns the per-row loss together with the per-row LSE_i, which
// Backward consumes to reconstruct softmax probabilities without a second
// reduction:
//
//	grad[i,c] = g_i · (exp(logits[i,c] - LSE_i) - ((1-s)·1[c==t_i] + s/C))
//
// The validation layer owns every precondition check (placement, layout,
// shapes, dtypes, label range); kernels may assume validated inputs. This
// keeps the reference CPU kernel and accelerated kernels swappable without
// duplicating checks.
package xentropy

import "github.com/xentropy-ml/xentropy/internal/tensor"

// Kernel is the pluggable compute backend for the fused loss. Inputs are
// fully validated before a kernel method is invoked: logits is a contiguous
// N×C float tensor on the kernel's device, labels a contiguous length-N
// integer tensor with all entries in [0, C).
type Kernel interface {
	// Forward computes the per-row smoothed loss and the per-row
	// max-inclusive log-sum-exp. When halfToFloat is set (Float16 logits
	// only), both outputs are widened to Float32; otherwise they match the
	// logits dtype.
	Forward(logits, labels *tensor.RawTensor, smoothing float32, halfToFloat bool) (loss, lse *tensor.RawTensor, err error)

	// Backward computes the gradient of the loss with respect to logits,
	// scaled per row by gradLoss. lse must be the statistic produced by the
	// matching Forward call. The result has the logits' shape and dtype.
	Backward(gradLoss, logits, lse, labels *tensor.RawTensor, smoothing float32) (*tensor.RawTensor, error)

	// Name returns the kernel name (e.g. "CPU", "WebGPU").
	Name() string

	// Device returns the memory space the kernel operates on.
	Device() tensor.Device
}
