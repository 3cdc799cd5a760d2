package tensor

import (
	"fmt"
	"unsafe"
)

// RawTensor is the low-level tensor representation: a byte buffer plus
// shape, strides, dtype and device placement.
//
// Views created with Narrow share the underlying buffer and may be
// non-contiguous. Kernels that require packed row-major data check
// IsContiguous before touching the buffer.
type RawTensor struct {
	data   []byte   // Underlying buffer, possibly shared with views
	shape  Shape    // Tensor dimensions
	stride []int    // Memory strides in elements (row-major when contiguous)
	dtype  DataType // Runtime type information
	device Device   // Memory space the data belongs to
	offset int      // Byte offset of the first element in data
}

// NewRaw creates a new RawTensor with the given shape, dtype and device.
// The buffer is allocated and zero-initialized.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}

	return &RawTensor{
		data:   make([]byte, shape.NumElements()*dtype.Size()),
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  dtype,
		device: device,
		offset: 0,
	}, nil
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// Strides returns the tensor's memory strides in elements.
func (r *RawTensor) Strides() []int {
	return r.stride
}

// DType returns the tensor's data type.
func (r *RawTensor) DType() DataType {
	return r.dtype
}

// Device returns the memory space the tensor belongs to.
func (r *RawTensor) Device() Device {
	return r.device
}

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int {
	return r.shape.NumElements()
}

// ByteSize returns the logical size of the tensor's elements in bytes.
func (r *RawTensor) ByteSize() int {
	return r.NumElements() * r.dtype.Size()
}

// Data returns the raw bytes starting at the tensor's first element.
// For non-contiguous views the slice covers more than the tensor's own
// elements; respect Strides when indexing.
func (r *RawTensor) Data() []byte {
	return r.data[r.offset:]
}

// IsContiguous reports whether the tensor's elements are packed in
// row-major order with no gaps.
func (r *RawTensor) IsContiguous() bool {
	expected := r.shape.ComputeStrides()
	for i := range expected {
		if r.stride[i] != expected[i] {
			return false
		}
	}
	return true
}

// Narrow returns a view of the tensor restricted to [start, start+length)
// along dim. The view shares the underlying buffer; narrowing any
// dimension other than the outermost produces a non-contiguous view.
func (r *RawTensor) Narrow(dim, start, length int) (*RawTensor, error) {
	if dim < 0 || dim >= len(r.shape) {
		return nil, fmt.Errorf("narrow: dimension %d out of range for shape %v", dim, r.shape)
	}
	if start < 0 || length <= 0 || start+length > r.shape[dim] {
		return nil, fmt.Errorf("narrow: range [%d, %d) invalid for dimension of size %d",
			start, start+length, r.shape[dim])
	}

	shape := r.shape.Clone()
	shape[dim] = length

	return &RawTensor{
		data:   r.data,
		shape:  shape,
		stride: append([]int(nil), r.stride...),
		dtype:  r.dtype,
		device: r.device,
		offset: r.offset + start*r.stride[dim]*r.dtype.Size(),
	}, nil
}

// Contiguous returns a tensor with the same elements packed in row-major
// order. Returns the receiver unchanged if it is already contiguous.
func (r *RawTensor) Contiguous() *RawTensor {
	if r.IsContiguous() {
		return r
	}

	packed, err := NewRaw(r.shape, r.dtype, r.device)
	if err != nil {
		panic(err) // Shape already validated on the source tensor.
	}

	elemSize := r.dtype.Size()
	src := r.data[r.offset:]
	dst := packed.data

	// Walk the logical index space, gathering strided elements.
	idx := make([]int, len(r.shape))
	n := r.NumElements()
	for flat := 0; flat < n; flat++ {
		srcElem := 0
		for d := range idx {
			srcElem += idx[d] * r.stride[d]
		}
		copy(dst[flat*elemSize:(flat+1)*elemSize], src[srcElem*elemSize:(srcElem+1)*elemSize])

		for d := len(idx) - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < r.shape[d] {
				break
			}
			idx[d] = 0
		}
	}

	return packed
}

// Clone returns a view sharing the same buffer, shape and strides.
func (r *RawTensor) Clone() *RawTensor {
	return &RawTensor{
		data:   r.data,
		shape:  r.shape.Clone(),
		stride: append([]int(nil), r.stride...),
		dtype:  r.dtype,
		device: r.device,
		offset: r.offset,
	}
}

// AsFloat32 interprets the data as []float32.
// Panics if the tensor's dtype is not Float32.
func (r *RawTensor) AsFloat32() []float32 {
	if r.dtype != Float32 {
		panic(fmt.Sprintf("tensor dtype is %s, not float32", r.dtype))
	}
	data := r.data[r.offset:]
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*float32)(unsafe.Pointer(&data[0])), r.NumElements())
}

// AsFloat64 interprets the data as []float64.
// Panics if the tensor's dtype is not Float64.
func (r *RawTensor) AsFloat64() []float64 {
	if r.dtype != Float64 {
		panic(fmt.Sprintf("tensor dtype is %s, not float64", r.dtype))
	}
	data := r.data[r.offset:]
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*float64)(unsafe.Pointer(&data[0])), r.NumElements())
}

// AsInt32 interprets the data as []int32.
// Panics if the tensor's dtype is not Int32.
func (r *RawTensor) AsInt32() []int32 {
	if r.dtype != Int32 {
		panic(fmt.Sprintf("tensor dtype is %s, not int32", r.dtype))
	}
	data := r.data[r.offset:]
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*int32)(unsafe.Pointer(&data[0])), r.NumElements())
}

// AsInt64 interprets the data as []int64.
// Panics if the tensor's dtype is not Int64.
func (r *RawTensor) AsInt64() []int64 {
	if r.dtype != Int64 {
		panic(fmt.Sprintf("tensor dtype is %s, not int64", r.dtype))
	}
	data := r.data[r.offset:]
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*int64)(unsafe.Pointer(&data[0])), r.NumElements())
}

// AsFloat16 interprets the data as raw IEEE 754 half-precision bits.
// Panics if the tensor's dtype is not Float16.
func (r *RawTensor) AsFloat16() []uint16 {
	if r.dtype != Float16 {
		panic(fmt.Sprintf("tensor dtype is %s, not float16", r.dtype))
	}
	data := r.data[r.offset:]
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*uint16)(unsafe.Pointer(&data[0])), r.NumElements())
}
