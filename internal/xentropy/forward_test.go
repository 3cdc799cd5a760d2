package xentropy_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xentropy-ml/xentropy/internal/backend/cpu"
	"github.com/xentropy-ml/xentropy/internal/parallel"
	"github.com/xentropy-ml/xentropy/internal/tensor"
	"github.com/xentropy-ml/xentropy/internal/xentropy"
)

// logSoftmax computes log(softmax(z)) with the log-sum-exp trick, as the
// unfused oracle for the smoothing=0 case.
func logSoftmax(z []float64) []float64 {
	maxZ := z[0]
	for _, v := range z {
		if v > maxZ {
			maxZ = v
		}
	}
	sumExp := 0.0
	for _, v := range z {
		sumExp += math.Exp(v - maxZ)
	}
	lse := maxZ + math.Log(sumExp)

	result := make([]float64, len(z))
	for i, v := range z {
		result[i] = v - lse
	}
	return result
}

func TestForward_KnownValues(t *testing.T) {
	kernel := cpu.New()

	logits, err := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{1, 3}, tensor.CPU)
	require.NoError(t, err)
	labels, err := tensor.FromSlice([]int32{2}, tensor.Shape{1}, tensor.CPU)
	require.NoError(t, err)

	// LSE = 3 + log(e^-2 + e^-1 + 1) = 3.407606
	// smoothing=0: loss = LSE - logits[2] = 0.407606
	loss, lse, err := xentropy.Forward(kernel, logits, labels, 0, false)
	require.NoError(t, err)
	assert.InDelta(t, 0.407606, loss.AsFloat32()[0], 1e-5)
	assert.InDelta(t, 3.407606, lse.AsFloat32()[0], 1e-5)

	// smoothing=1: loss = mean_c(LSE - logits[c]) = LSE - mean(logits) = 1.407606
	loss, _, err = xentropy.Forward(kernel, logits, labels, 1, false)
	require.NoError(t, err)
	assert.InDelta(t, 1.407606, loss.AsFloat32()[0], 1e-5)
}

func TestForward_ZeroSmoothingMatchesCrossEntropy(t *testing.T) {
	kernel := cpu.New()
	rng := rand.New(rand.NewSource(42))

	rows, classes := 16, 10
	logitsData := make([]float32, rows*classes)
	for i := range logitsData {
		logitsData[i] = float32(rng.NormFloat64() * 3)
	}
	labelsData := make([]int32, rows)
	for i := range labelsData {
		labelsData[i] = int32(rng.Intn(classes))
	}

	logits, err := tensor.FromSlice(logitsData, tensor.Shape{rows, classes}, tensor.CPU)
	require.NoError(t, err)
	labels, err := tensor.FromSlice(labelsData, tensor.Shape{rows}, tensor.CPU)
	require.NoError(t, err)

	loss, _, err := xentropy.Forward(kernel, logits, labels, 0, false)
	require.NoError(t, err)
	lossData := loss.AsFloat32()

	for i := 0; i < rows; i++ {
		row := make([]float64, classes)
		for c := 0; c < classes; c++ {
			row[c] = float64(logitsData[i*classes+c])
		}
		want := -logSoftmax(row)[labelsData[i]]
		assert.InDelta(t, want, float64(lossData[i]), 1e-5*math.Max(1, math.Abs(want)),
			"row %d", i)
	}
}

func TestForward_LossFiniteAndNonNegative(t *testing.T) {
	kernel := cpu.New()
	rng := rand.New(rand.NewSource(7))

	rows, classes := 32, 7
	logitsData := make([]float32, rows*classes)
	for i := range logitsData {
		logitsData[i] = float32(rng.NormFloat64() * 10)
	}
	labelsData := make([]int64, rows)
	for i := range labelsData {
		labelsData[i] = int64(rng.Intn(classes))
	}

	logits, err := tensor.FromSlice(logitsData, tensor.Shape{rows, classes}, tensor.CPU)
	require.NoError(t, err)
	labels, err := tensor.FromSlice(labelsData, tensor.Shape{rows}, tensor.CPU)
	require.NoError(t, err)

	for _, smoothing := range []float32{0, 0.1, 0.5, 1} {
		loss, lse, err := xentropy.Forward(kernel, logits, labels, smoothing, false)
		require.NoError(t, err)

		for i, v := range loss.AsFloat32() {
			assert.False(t, math.IsNaN(float64(v)) || math.IsInf(float64(v), 0),
				"smoothing=%v row %d: loss %f not finite", smoothing, i, v)
			assert.GreaterOrEqual(t, v, float32(0),
				"smoothing=%v row %d: loss negative", smoothing, i)
		}
		for i, v := range lse.AsFloat32() {
			assert.False(t, math.IsNaN(float64(v)) || math.IsInf(float64(v), 0),
				"smoothing=%v row %d: lse %f not finite", smoothing, i, v)
		}
	}
}

func TestForward_ExtremeLogits(t *testing.T) {
	kernel := cpu.New()

	// Rows that overflow exp without max subtraction, plus an all-equal row.
	logits, err := tensor.FromSlice([]float32{
		1000, 999, 998,
		-1000, -999, -998,
		5, 5, 5,
	}, tensor.Shape{3, 3}, tensor.CPU)
	require.NoError(t, err)
	labels, err := tensor.FromSlice([]int32{0, 2, 1}, tensor.Shape{3}, tensor.CPU)
	require.NoError(t, err)

	loss, _, err := xentropy.Forward(kernel, logits, labels, 0.2, false)
	require.NoError(t, err)

	for i, v := range loss.AsFloat32() {
		assert.False(t, math.IsNaN(float64(v)) || math.IsInf(float64(v), 0),
			"row %d: loss %f not finite", i, v)
	}

	// All-equal logits reduce to uniform probabilities: loss = log(C)
	// for any smoothing.
	assert.InDelta(t, math.Log(3), float64(loss.AsFloat32()[2]), 1e-5)
}

func TestForward_RowPermutationInvariance(t *testing.T) {
	kernel := cpu.New()
	rng := rand.New(rand.NewSource(99))

	rows, classes := 8, 5
	logitsData := make([]float32, rows*classes)
	for i := range logitsData {
		logitsData[i] = float32(rng.NormFloat64())
	}
	labelsData := make([]int32, rows)
	for i := range labelsData {
		labelsData[i] = int32(rng.Intn(classes))
	}

	perm := rng.Perm(rows)
	permLogits := make([]float32, rows*classes)
	permLabels := make([]int32, rows)
	for i, p := range perm {
		copy(permLogits[i*classes:(i+1)*classes], logitsData[p*classes:(p+1)*classes])
		permLabels[i] = labelsData[p]
	}

	logits, err := tensor.FromSlice(logitsData, tensor.Shape{rows, classes}, tensor.CPU)
	require.NoError(t, err)
	labels, err := tensor.FromSlice(labelsData, tensor.Shape{rows}, tensor.CPU)
	require.NoError(t, err)
	logitsP, err := tensor.FromSlice(permLogits, tensor.Shape{rows, classes}, tensor.CPU)
	require.NoError(t, err)
	labelsP, err := tensor.FromSlice(permLabels, tensor.Shape{rows}, tensor.CPU)
	require.NoError(t, err)

	loss, lse, err := xentropy.Forward(kernel, logits, labels, 0.3, false)
	require.NoError(t, err)
	lossP, lseP, err := xentropy.Forward(kernel, logitsP, labelsP, 0.3, false)
	require.NoError(t, err)

	gradLoss := onesVector(t, rows)
	grad, err := xentropy.Backward(kernel, gradLoss, logits, lse, labels, 0.3)
	require.NoError(t, err)
	gradP, err := xentropy.Backward(kernel, gradLoss, logitsP, lseP, labelsP, 0.3)
	require.NoError(t, err)

	lossData, lossPData := loss.AsFloat32(), lossP.AsFloat32()
	gradData, gradPData := grad.AsFloat32(), gradP.AsFloat32()
	for i, p := range perm {
		assert.Equal(t, lossData[p], lossPData[i], "loss row %d", i)
		assert.Equal(t,
			gradData[p*classes:(p+1)*classes],
			gradPData[i*classes:(i+1)*classes],
			"grad row %d", i)
	}
}

func TestReduce(t *testing.T) {
	cfg := parallel.DefaultConfig()

	loss, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{4}, tensor.CPU)
	require.NoError(t, err)

	same, err := xentropy.Reduce(loss, xentropy.None, cfg)
	require.NoError(t, err)
	assert.Same(t, loss, same)

	sum, err := xentropy.Reduce(loss, xentropy.Sum, cfg)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1}, sum.Shape())
	assert.InDelta(t, 10.0, sum.AsFloat32()[0], 1e-6)

	mean, err := xentropy.Reduce(loss, xentropy.Mean, cfg)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, mean.AsFloat32()[0], 1e-6)
}

func TestReduce_RejectsNonVector(t *testing.T) {
	cfg := parallel.DefaultConfig()

	mat, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, tensor.CPU)
	require.NoError(t, err)

	_, err = xentropy.Reduce(mat, xentropy.Mean, cfg)
	assert.ErrorIs(t, err, xentropy.ErrInvalidArgument)
}

// onesVector builds a length-n float32 upstream gradient of ones.
func onesVector(t *testing.T, n int) *tensor.RawTensor {
	t.Helper()
	data := make([]float32, n)
	for i := range data {
		data[i] = 1
	}
	v, err := tensor.FromSlice(data, tensor.Shape{n}, tensor.CPU)
	require.NoError(t, err)
	return v
}
