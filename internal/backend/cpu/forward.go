package cpu

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/xentropy-ml/xentropy/internal/parallel"
	"github.com/xentropy-ml/xentropy/internal/tensor"
)

// Forward computes the per-row smoothed loss and max-inclusive log-sum-exp.
// Inputs are validated by the xentropy layer before this is called.
func (k *Kernel) Forward(logits, labels *tensor.RawTensor, smoothing float32, halfToFloat bool) (loss, lse *tensor.RawTensor, err error) {
	shape := logits.Shape()
	rows, classes := shape[0], shape[1]

	outType := logits.DType()
	if outType == tensor.Float16 && halfToFloat {
		outType = tensor.Float32
	}

	loss, err = tensor.NewRaw(tensor.Shape{rows}, outType, tensor.CPU)
	if err != nil {
		return nil, nil, err
	}
	lse, err = tensor.NewRaw(tensor.Shape{rows}, outType, tensor.CPU)
	if err != nil {
		return nil, nil, err
	}

	label := labelAt(labels)

	switch logits.DType() {
	case tensor.Float32, tensor.Float16:
		forwardFloat32(float32At(logits), label, float32Set(loss), float32Set(lse),
			rows, classes, smoothing, k.cfg)
	case tensor.Float64:
		forwardFloat64(logits.AsFloat64(), label, loss.AsFloat64(), lse.AsFloat64(),
			rows, classes, float64(smoothing), k.cfg)
	default:
		return nil, nil, fmt.Errorf("cpu: unsupported logits dtype %s", logits.DType())
	}

	return loss, lse, nil
}

// forwardFloat32 handles Float32 and Float16 logits; Float16 rows are
// promoted element-wise through the reader so no scratch row is allocated.
func forwardFloat32(
	logitAt func(i int) float32,
	label func(i int) int,
	setLoss, setLSE func(i int, v float32),
	rows, classes int,
	smoothing float32,
	cfg parallel.Config,
) {
	parallel.For(rows, func(i int) {
		base := i * classes

		maxVal := logitAt(base)
		for c := 1; c < classes; c++ {
			if v := logitAt(base + c); v > maxVal {
				maxVal = v
			}
		}

		var sumExp float32
		var sum float32
		for c := 0; c < classes; c++ {
			v := logitAt(base + c)
			sumExp += float32(math.Exp(float64(v - maxVal)))
			sum += v
		}

		rowLSE := maxVal + float32(math.Log(float64(sumExp)))
		ce := rowLSE - logitAt(base+label(i))
		smooth := rowLSE - sum/float32(classes)

		setLoss(i, (1-smoothing)*ce+smoothing*smooth)
		setLSE(i, rowLSE)
	}, cfg)
}

// forwardFloat64 uses gonum's stabilized LogSumExp for the double-precision
// path, which doubles as the test oracle for the float32 kernels.
func forwardFloat64(
	logitsData []float64,
	label func(i int) int,
	lossData, lseData []float64,
	rows, classes int,
	smoothing float64,
	cfg parallel.Config,
) {
	parallel.For(rows, func(i int) {
		row := logitsData[i*classes : (i+1)*classes]

		rowLSE := floats.LogSumExp(row)
		ce := rowLSE - row[label(i)]
		smooth := rowLSE - floats.Sum(row)/float64(classes)

		lossData[i] = (1-smoothing)*ce + smoothing*smooth
		lseData[i] = rowLSE
	}, cfg)
}
