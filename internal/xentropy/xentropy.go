package xentropy

import (
	"github.com/xentropy-ml/xentropy/internal/tensor"
)

// Forward computes the fused softmax cross-entropy loss with label
// smoothing on the given kernel.
//
// logits must be a contiguous N×C float tensor and labels a contiguous
// length-N integer tensor, both on the kernel's device. halfToFloat widens
// the outputs to Float32 and is only valid for Float16 logits.
//
// It returns the per-row loss and the per-row max-inclusive log-sum-exp.
// The caller owns the statistic between the calls and must hand the exact
// tensor back to Backward; Loss automates that pairing.
//
// All precondition violations return an error wrapping ErrInvalidArgument
// before any computation runs.
func Forward(k Kernel, logits, labels *tensor.RawTensor, smoothing float32, halfToFloat bool) (loss, lse *tensor.RawTensor, err error) {
	if _, _, err := checkLogitsLabels(logits, labels, k.Device()); err != nil {
		return nil, nil, err
	}
	if err := checkSmoothing(smoothing); err != nil {
		return nil, nil, err
	}
	if halfToFloat && logits.DType() != tensor.Float16 {
		return nil, nil, invalidArgf("halfToFloat requires float16 logits, got %s", logits.DType())
	}

	return k.Forward(logits, labels, smoothing, halfToFloat)
}

// Backward computes the gradient of the loss with respect to logits.
//
// gradLoss is the upstream per-row gradient and lse the statistic returned
// by the matching Forward call; both must share Forward's output dtype.
// Pairing a statistic with different logits or labels silently produces
// wrong gradients; shapes cannot detect it, so correctness relies on
// caller discipline.
//
// The result has the logits' shape and dtype.
func Backward(k Kernel, gradLoss, logits, lse, labels *tensor.RawTensor, smoothing float32) (*tensor.RawTensor, error) {
	rows, _, err := checkLogitsLabels(logits, labels, k.Device())
	if err != nil {
		return nil, err
	}
	if err := checkSmoothing(smoothing); err != nil {
		return nil, err
	}
	if err := checkInput("gradLoss", gradLoss, k.Device()); err != nil {
		return nil, err
	}
	if err := checkInput("lse", lse, k.Device()); err != nil {
		return nil, err
	}

	// Forward emits Float32 statistics for Float16 logits when halfToFloat
	// is set, so a widened pair is accepted alongside the exact dtype.
	statDType := logits.DType()
	if logits.DType() == tensor.Float16 && gradLoss.DType() == tensor.Float32 {
		statDType = tensor.Float32
	}
	if err := checkStatVector("gradLoss", gradLoss, rows, statDType); err != nil {
		return nil, err
	}
	if err := checkStatVector("lse", lse, rows, statDType); err != nil {
		return nil, err
	}

	return k.Backward(gradLoss, logits, lse, labels, smoothing)
}
