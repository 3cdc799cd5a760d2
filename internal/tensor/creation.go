package tensor

import (
	"fmt"

	"github.com/x448/float16"
)

// FromSlice creates a tensor from a Go slice. The slice length must match
// the shape's element count; the data is copied into a fresh buffer.
func FromSlice[T DType](data []T, shape Shape, device Device) (*RawTensor, error) {
	var dummy T
	dtype := inferDataType(dummy)

	if len(data) != shape.NumElements() {
		return nil, fmt.Errorf("data length %d does not match shape %v (%d elements)",
			len(data), shape, shape.NumElements())
	}

	raw, err := NewRaw(shape, dtype, device)
	if err != nil {
		return nil, err
	}

	switch dtype {
	case Float32:
		copy(raw.AsFloat32(), any(data).([]float32))
	case Float64:
		copy(raw.AsFloat64(), any(data).([]float64))
	case Int32:
		copy(raw.AsInt32(), any(data).([]int32))
	case Int64:
		copy(raw.AsInt64(), any(data).([]int64))
	default:
		panic("unreachable")
	}

	return raw, nil
}

// FromFloat16Slice creates a Float16 tensor from float32 values, rounding
// each to the nearest representable half-precision value.
func FromFloat16Slice(data []float32, shape Shape, device Device) (*RawTensor, error) {
	if len(data) != shape.NumElements() {
		return nil, fmt.Errorf("data length %d does not match shape %v (%d elements)",
			len(data), shape, shape.NumElements())
	}

	raw, err := NewRaw(shape, Float16, device)
	if err != nil {
		return nil, err
	}

	bits := raw.AsFloat16()
	for i, v := range data {
		bits[i] = float16.Fromfloat32(v).Bits()
	}

	return raw, nil
}

// Float16ToFloat32 converts raw half-precision bits to float32.
func Float16ToFloat32(bits uint16) float32 {
	return float16.Frombits(bits).Float32()
}

// Float32ToFloat16 converts a float32 to raw half-precision bits,
// rounding to nearest even.
func Float32ToFloat16(v float32) uint16 {
	return float16.Fromfloat32(v).Bits()
}
