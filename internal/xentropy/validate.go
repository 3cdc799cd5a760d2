package xentropy

import (
	"math"

	"github.com/xentropy-ml/xentropy/internal/tensor"
)

// checkInput verifies the placement and layout preconditions for a single
// tensor: it must live on the kernel's device and be contiguous.
func checkInput(name string, t *tensor.RawTensor, device tensor.Device) error {
	if t == nil {
		return invalidArgf("%s must not be nil", name)
	}
	if t.Device() != device {
		return invalidArgf("%s must be a %s tensor, got %s", name, device, t.Device())
	}
	if !t.IsContiguous() {
		return invalidArgf("%s must be contiguous", name)
	}
	return nil
}

// checkLogitsLabels validates the shared logits/labels contract: a 2-D
// float logits matrix and a matching 1-D integer label vector with every
// entry in [0, C).
func checkLogitsLabels(logits, labels *tensor.RawTensor, device tensor.Device) (rows, classes int, err error) {
	if err := checkInput("logits", logits, device); err != nil {
		return 0, 0, err
	}
	if err := checkInput("labels", labels, device); err != nil {
		return 0, 0, err
	}

	shape := logits.Shape()
	if len(shape) != 2 {
		return 0, 0, invalidArgf("logits must be 2-D [rows, classes], got shape %v", shape)
	}
	rows, classes = shape[0], shape[1]

	if !logits.DType().IsFloat() {
		return 0, 0, invalidArgf("logits must be a float tensor, got %s", logits.DType())
	}

	labelShape := labels.Shape()
	if len(labelShape) != 1 {
		return 0, 0, invalidArgf("labels must be 1-D [rows], got shape %v", labelShape)
	}
	if labelShape[0] != rows {
		return 0, 0, invalidArgf("labels length %d does not match logits rows %d", labelShape[0], rows)
	}
	if !labels.DType().IsInt() {
		return 0, 0, invalidArgf("labels must be an integer tensor, got %s", labels.DType())
	}

	if err := checkLabelRange(labels, classes); err != nil {
		return 0, 0, err
	}

	return rows, classes, nil
}

// checkLabelRange rejects out-of-range labels up front. The gradient
// formula cannot detect a bad label from shapes alone, so this is a defined
// failure rather than undefined behavior.
func checkLabelRange(labels *tensor.RawTensor, classes int) error {
	switch labels.DType() {
	case tensor.Int32:
		for i, l := range labels.AsInt32() {
			if l < 0 || int(l) >= classes {
				return invalidArgf("labels[%d] = %d out of range [0, %d)", i, l, classes)
			}
		}
	case tensor.Int64:
		for i, l := range labels.AsInt64() {
			if l < 0 || int(l) >= classes {
				return invalidArgf("labels[%d] = %d out of range [0, %d)", i, l, classes)
			}
		}
	}
	return nil
}

// checkSmoothing validates the smoothing factor. The endpoints are valid
// inputs: 0 is plain cross-entropy, 1 is pure uniform smoothing.
func checkSmoothing(smoothing float32) error {
	if math.IsNaN(float64(smoothing)) || smoothing < 0 || smoothing > 1 {
		return invalidArgf("smoothing must be in [0, 1], got %v", smoothing)
	}
	return nil
}

// checkStatVector validates a per-row statistic (upstream gradient or saved
// log-sum-exp): 1-D, length rows, and of the given dtype.
func checkStatVector(name string, t *tensor.RawTensor, rows int, want tensor.DataType) error {
	shape := t.Shape()
	if len(shape) != 1 || shape[0] != rows {
		return invalidArgf("%s must be 1-D of length %d, got shape %v", name, rows, shape)
	}
	if t.DType() != want {
		return invalidArgf("%s must be %s, got %s", name, want, t.DType())
	}
	return nil
}
