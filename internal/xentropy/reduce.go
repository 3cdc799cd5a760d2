package xentropy

import (
	"github.com/xentropy-ml/xentropy/internal/parallel"
	"github.com/xentropy-ml/xentropy/internal/tensor"
)

// Reduction selects how the per-row loss vector is collapsed.
type Reduction int

// Supported reduction modes. None is the default and matches the native
// binding's behavior of returning one loss per row.
const (
	None Reduction = iota
	Mean
	Sum
)

// String returns a human-readable reduction name.
func (r Reduction) String() string {
	switch r {
	case None:
		return "none"
	case Mean:
		return "mean"
	case Sum:
		return "sum"
	default:
		return "unknown"
	}
}

// Reduce collapses a per-row loss vector into a single-element tensor using
// parallel partial sums. The accumulation runs in float64 regardless of the
// input dtype; the result is cast back to the input dtype. For None the
// input is returned unchanged.
func Reduce(loss *tensor.RawTensor, r Reduction, cfg parallel.Config) (*tensor.RawTensor, error) {
	if r == None {
		return loss, nil
	}
	if loss == nil {
		return nil, invalidArgf("loss must not be nil")
	}
	shape := loss.Shape()
	if len(shape) != 1 {
		return nil, invalidArgf("loss must be 1-D, got shape %v", shape)
	}
	if !loss.DType().IsFloat() {
		return nil, invalidArgf("loss must be a float tensor, got %s", loss.DType())
	}

	n := shape[0]
	at := floatAt(loss)
	total := parallel.SumFloat64(n, at, cfg)
	if r == Mean {
		total /= float64(n)
	}

	out, err := tensor.NewRaw(tensor.Shape{1}, loss.DType(), loss.Device())
	if err != nil {
		return nil, err
	}
	switch loss.DType() {
	case tensor.Float32:
		out.AsFloat32()[0] = float32(total)
	case tensor.Float64:
		out.AsFloat64()[0] = total
	case tensor.Float16:
		out.AsFloat16()[0] = tensor.Float32ToFloat16(float32(total))
	}
	return out, nil
}

// floatAt returns an element reader promoting any float dtype to float64.
func floatAt(t *tensor.RawTensor) func(i int) float64 {
	switch t.DType() {
	case tensor.Float32:
		data := t.AsFloat32()
		return func(i int) float64 { return float64(data[i]) }
	case tensor.Float64:
		data := t.AsFloat64()
		return func(i int) float64 { return data[i] }
	case tensor.Float16:
		data := t.AsFloat16()
		return func(i int) float64 { return float64(tensor.Float16ToFloat32(data[i])) }
	default:
		panic("floatAt: not a float tensor")
	}
}
