package xentropy_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xentropy-ml/xentropy/internal/backend/cpu"
	"github.com/xentropy-ml/xentropy/internal/tensor"
	"github.com/xentropy-ml/xentropy/internal/xentropy"
)

func validPair(t *testing.T) (*tensor.RawTensor, *tensor.RawTensor) {
	t.Helper()
	logits, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, tensor.CPU)
	require.NoError(t, err)
	labels, err := tensor.FromSlice([]int32{0, 2}, tensor.Shape{2}, tensor.CPU)
	require.NoError(t, err)
	return logits, labels
}

func TestForward_RejectsNilInputs(t *testing.T) {
	kernel := cpu.New()
	logits, labels := validPair(t)

	_, _, err := xentropy.Forward(kernel, nil, labels, 0, false)
	assert.ErrorIs(t, err, xentropy.ErrInvalidArgument)

	_, _, err = xentropy.Forward(kernel, logits, nil, 0, false)
	assert.ErrorIs(t, err, xentropy.ErrInvalidArgument)
}

func TestForward_RejectsWrongDevice(t *testing.T) {
	kernel := cpu.New()

	logits, err := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32, tensor.WebGPU)
	require.NoError(t, err)
	labels, err := tensor.NewRaw(tensor.Shape{2}, tensor.Int32, tensor.WebGPU)
	require.NoError(t, err)

	_, _, err = xentropy.Forward(kernel, logits, labels, 0, false)
	assert.ErrorIs(t, err, xentropy.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "must be a CPU tensor")
}

func TestForward_RejectsNonContiguousLogits(t *testing.T) {
	kernel := cpu.New()

	wide, err := tensor.FromSlice([]float32{
		1, 2, 3, 4,
		5, 6, 7, 8,
	}, tensor.Shape{2, 4}, tensor.CPU)
	require.NoError(t, err)

	// Narrowing an inner dimension produces a strided view.
	logits, err := wide.Narrow(1, 1, 3)
	require.NoError(t, err)
	require.False(t, logits.IsContiguous())

	labels, err := tensor.FromSlice([]int32{0, 2}, tensor.Shape{2}, tensor.CPU)
	require.NoError(t, err)

	_, _, err = xentropy.Forward(kernel, logits, labels, 0, false)
	assert.ErrorIs(t, err, xentropy.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "contiguous")

	// Packing the view makes it acceptable again.
	_, _, err = xentropy.Forward(kernel, logits.Contiguous(), labels, 0, false)
	assert.NoError(t, err)
}

func TestForward_RejectsBadShapes(t *testing.T) {
	kernel := cpu.New()

	vec, err := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{3}, tensor.CPU)
	require.NoError(t, err)
	labels, err := tensor.FromSlice([]int32{0, 1, 2}, tensor.Shape{3}, tensor.CPU)
	require.NoError(t, err)

	// 1-D logits.
	_, _, err = xentropy.Forward(kernel, vec, labels, 0, false)
	assert.ErrorIs(t, err, xentropy.ErrInvalidArgument)

	logits, _ := validPair(t)

	// 2-D labels.
	mat, err := tensor.FromSlice([]int32{0, 1, 0, 1}, tensor.Shape{2, 2}, tensor.CPU)
	require.NoError(t, err)
	_, _, err = xentropy.Forward(kernel, logits, mat, 0, false)
	assert.ErrorIs(t, err, xentropy.ErrInvalidArgument)

	// Row count mismatch.
	short, err := tensor.FromSlice([]int32{0}, tensor.Shape{1}, tensor.CPU)
	require.NoError(t, err)
	_, _, err = xentropy.Forward(kernel, logits, short, 0, false)
	assert.ErrorIs(t, err, xentropy.ErrInvalidArgument)
}

func TestForward_RejectsBadDTypes(t *testing.T) {
	kernel := cpu.New()
	logits, labels := validPair(t)

	// Integer logits.
	intLogits, err := tensor.FromSlice([]int32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, tensor.CPU)
	require.NoError(t, err)
	_, _, err = xentropy.Forward(kernel, intLogits, labels, 0, false)
	assert.ErrorIs(t, err, xentropy.ErrInvalidArgument)

	// Float labels.
	floatLabels, err := tensor.FromSlice([]float32{0, 2}, tensor.Shape{2}, tensor.CPU)
	require.NoError(t, err)
	_, _, err = xentropy.Forward(kernel, logits, floatLabels, 0, false)
	assert.ErrorIs(t, err, xentropy.ErrInvalidArgument)
}

func TestForward_RejectsOutOfRangeLabels(t *testing.T) {
	kernel := cpu.New()
	logits, _ := validPair(t)

	tooBig, err := tensor.FromSlice([]int32{0, 3}, tensor.Shape{2}, tensor.CPU)
	require.NoError(t, err)
	_, _, err = xentropy.Forward(kernel, logits, tooBig, 0, false)
	assert.ErrorIs(t, err, xentropy.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "out of range")

	negative, err := tensor.FromSlice([]int64{-1, 0}, tensor.Shape{2}, tensor.CPU)
	require.NoError(t, err)
	_, _, err = xentropy.Forward(kernel, logits, negative, 0, false)
	assert.ErrorIs(t, err, xentropy.ErrInvalidArgument)
}

func TestForward_RejectsBadSmoothing(t *testing.T) {
	kernel := cpu.New()
	logits, labels := validPair(t)

	for _, s := range []float32{-0.1, 1.1, float32(math.NaN())} {
		_, _, err := xentropy.Forward(kernel, logits, labels, s, false)
		assert.ErrorIs(t, err, xentropy.ErrInvalidArgument, "smoothing=%v", s)
	}

	// Endpoints are valid.
	for _, s := range []float32{0, 1} {
		_, _, err := xentropy.Forward(kernel, logits, labels, s, false)
		assert.NoError(t, err, "smoothing=%v", s)
	}
}

func TestForward_RejectsHalfToFloatOnFloat32(t *testing.T) {
	kernel := cpu.New()
	logits, labels := validPair(t)

	_, _, err := xentropy.Forward(kernel, logits, labels, 0, true)
	assert.ErrorIs(t, err, xentropy.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "float16")
}

func TestBackward_RejectsMismatchedStatVectors(t *testing.T) {
	kernel := cpu.New()
	logits, labels := validPair(t)

	_, lse, err := xentropy.Forward(kernel, logits, labels, 0, false)
	require.NoError(t, err)

	// Wrong-length upstream gradient.
	badGrad, err := tensor.FromSlice([]float32{1, 1, 1}, tensor.Shape{3}, tensor.CPU)
	require.NoError(t, err)
	_, err = xentropy.Backward(kernel, badGrad, logits, lse, labels, 0)
	assert.ErrorIs(t, err, xentropy.ErrInvalidArgument)

	// Wrong-dtype statistic.
	gradLoss := onesVector(t, 2)
	badLse, err := tensor.FromSlice([]float64{1, 1}, tensor.Shape{2}, tensor.CPU)
	require.NoError(t, err)
	_, err = xentropy.Backward(kernel, gradLoss, logits, badLse, labels, 0)
	assert.ErrorIs(t, err, xentropy.ErrInvalidArgument)

	// Valid pair goes through.
	_, err = xentropy.Backward(kernel, gradLoss, logits, lse, labels, 0)
	assert.NoError(t, err)
}
