package cpu

import (
	"fmt"
	"math"

	"github.com/xentropy-ml/xentropy/internal/parallel"
	"github.com/xentropy-ml/xentropy/internal/tensor"
)

// Backward computes grad[i,c] = g_i · (softmax[i,c] - ((1-s)·1[c==t_i] + s/C)),
// reconstructing softmax from the saved log-sum-exp instead of re-reducing
// each row. The gradient has the logits' shape and dtype.
func (k *Kernel) Backward(gradLoss, logits, lse, labels *tensor.RawTensor, smoothing float32) (*tensor.RawTensor, error) {
	shape := logits.Shape()
	rows, classes := shape[0], shape[1]

	grad, err := tensor.NewRaw(shape, logits.DType(), tensor.CPU)
	if err != nil {
		return nil, err
	}

	label := labelAt(labels)

	switch logits.DType() {
	case tensor.Float32, tensor.Float16:
		backwardFloat32(float32At(gradLoss), float32At(logits), float32At(lse), label,
			float32Set(grad), rows, classes, smoothing, k.cfg)
	case tensor.Float64:
		backwardFloat64(gradLoss.AsFloat64(), logits.AsFloat64(), lse.AsFloat64(), label,
			grad.AsFloat64(), rows, classes, float64(smoothing), k.cfg)
	default:
		return nil, fmt.Errorf("cpu: unsupported logits dtype %s", logits.DType())
	}

	return grad, nil
}

func backwardFloat32(
	gradAt, logitAt, lseAt func(i int) float32,
	label func(i int) int,
	setGrad func(i int, v float32),
	rows, classes int,
	smoothing float32,
	cfg parallel.Config,
) {
	uniform := smoothing / float32(classes)
	confidence := 1 - smoothing

	parallel.For(rows, func(i int) {
		base := i * classes
		g := gradAt(i)
		rowLSE := lseAt(i)
		target := label(i)

		for c := 0; c < classes; c++ {
			prob := float32(math.Exp(float64(logitAt(base+c) - rowLSE)))
			expected := uniform
			if c == target {
				expected += confidence
			}
			setGrad(base+c, g*(prob-expected))
		}
	}, cfg)
}

func backwardFloat64(
	gradData, logitsData, lseData []float64,
	label func(i int) int,
	out []float64,
	rows, classes int,
	smoothing float64,
	cfg parallel.Config,
) {
	uniform := smoothing / float64(classes)
	confidence := 1 - smoothing

	parallel.For(rows, func(i int) {
		base := i * classes
		g := gradData[i]
		rowLSE := lseData[i]
		target := label(i)

		for c := 0; c < classes; c++ {
			prob := math.Exp(logitsData[base+c] - rowLSE)
			expected := uniform
			if c == target {
				expected += confidence
			}
			out[base+c] = g * (prob - expected)
		}
	}, cfg)
}
