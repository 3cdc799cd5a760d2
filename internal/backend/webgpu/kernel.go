//go:build windows

package webgpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/xentropy-ml/xentropy/internal/tensor"
)

// Name returns the kernel name.
func (k *Kernel) Name() string {
	return "WebGPU"
}

// Device returns the memory space the kernel operates on.
func (k *Kernel) Device() tensor.Device {
	return tensor.WebGPU
}

// Forward dispatches the fused forward shader, one invocation per row.
// Only float32 logits are supported on this kernel.
func (k *Kernel) Forward(logits, labels *tensor.RawTensor, smoothing float32, halfToFloat bool) (loss, lse *tensor.RawTensor, err error) {
	if logits.DType() != tensor.Float32 {
		return nil, nil, fmt.Errorf("webgpu: only float32 logits are supported, got %s", logits.DType())
	}
	_ = halfToFloat // Only meaningful for float16 logits, which are rejected above.

	shape := logits.Shape()
	rows, classes := shape[0], shape[1]

	shader := k.compileShader("xentropy_forward", forwardShader)
	pipeline := k.getOrCreatePipeline("xentropy_forward", shader)

	bufferLogits := k.createBuffer(logits.Data()[:logits.ByteSize()], wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferLogits.Release()

	bufferLabels := k.createBuffer(labelBytes(labels), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferLabels.Release()

	//nolint:gosec // G115: row count is non-negative
	outSize := uint64(rows * 4)
	bufferLoss := k.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
		Size:  outSize,
	})
	defer bufferLoss.Release()

	bufferLSE := k.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
		Size:  outSize,
	})
	defer bufferLSE.Release()

	bufferParams := k.createUniformBuffer(paramBytes(rows, classes, smoothing))
	defer bufferParams.Release()

	bindGroupLayout := pipeline.GetBindGroupLayout(0)
	//nolint:gosec // G115: ByteSize() returns non-negative int
	bindGroup := k.device.CreateBindGroupSimple(bindGroupLayout, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufferLogits, 0, uint64(logits.ByteSize())),
		wgpu.BufferBindingEntry(1, bufferLabels, 0, uint64(rows*4)),
		wgpu.BufferBindingEntry(2, bufferLoss, 0, outSize),
		wgpu.BufferBindingEntry(3, bufferLSE, 0, outSize),
		wgpu.BufferBindingEntry(4, bufferParams, 0, 16),
	})
	defer bindGroup.Release()

	k.dispatchRows(pipeline, bindGroup, rows)

	lossData, err := k.readBuffer(bufferLoss, outSize)
	if err != nil {
		return nil, nil, err
	}
	lseData, err := k.readBuffer(bufferLSE, outSize)
	if err != nil {
		return nil, nil, err
	}

	loss, err = tensor.NewRaw(tensor.Shape{rows}, tensor.Float32, tensor.WebGPU)
	if err != nil {
		return nil, nil, err
	}
	lse, err = tensor.NewRaw(tensor.Shape{rows}, tensor.Float32, tensor.WebGPU)
	if err != nil {
		return nil, nil, err
	}

	copy(loss.Data(), lossData)
	copy(lse.Data(), lseData)
	return loss, lse, nil
}

// Backward dispatches the fused backward shader, one invocation per row.
func (k *Kernel) Backward(gradLoss, logits, lse, labels *tensor.RawTensor, smoothing float32) (*tensor.RawTensor, error) {
	if logits.DType() != tensor.Float32 {
		return nil, fmt.Errorf("webgpu: only float32 logits are supported, got %s", logits.DType())
	}

	shape := logits.Shape()
	rows, classes := shape[0], shape[1]

	shader := k.compileShader("xentropy_backward", backwardShader)
	pipeline := k.getOrCreatePipeline("xentropy_backward", shader)

	bufferGradLoss := k.createBuffer(gradLoss.Data()[:gradLoss.ByteSize()], wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferGradLoss.Release()

	bufferLogits := k.createBuffer(logits.Data()[:logits.ByteSize()], wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferLogits.Release()

	bufferLSE := k.createBuffer(lse.Data()[:lse.ByteSize()], wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferLSE.Release()

	bufferLabels := k.createBuffer(labelBytes(labels), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferLabels.Release()

	//nolint:gosec // G115: ByteSize() returns non-negative int
	gradSize := uint64(logits.ByteSize())
	bufferGrad := k.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
		Size:  gradSize,
	})
	defer bufferGrad.Release()

	bufferParams := k.createUniformBuffer(paramBytes(rows, classes, smoothing))
	defer bufferParams.Release()

	bindGroupLayout := pipeline.GetBindGroupLayout(0)
	//nolint:gosec // G115: ByteSize() returns non-negative int
	bindGroup := k.device.CreateBindGroupSimple(bindGroupLayout, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufferGradLoss, 0, uint64(gradLoss.ByteSize())),
		wgpu.BufferBindingEntry(1, bufferLogits, 0, uint64(logits.ByteSize())),
		wgpu.BufferBindingEntry(2, bufferLSE, 0, uint64(lse.ByteSize())),
		wgpu.BufferBindingEntry(3, bufferLabels, 0, uint64(rows*4)),
		wgpu.BufferBindingEntry(4, bufferGrad, 0, gradSize),
		wgpu.BufferBindingEntry(5, bufferParams, 0, 16),
	})
	defer bindGroup.Release()

	k.dispatchRows(pipeline, bindGroup, rows)

	gradData, err := k.readBuffer(bufferGrad, gradSize)
	if err != nil {
		return nil, err
	}

	grad, err := tensor.NewRaw(shape, tensor.Float32, tensor.WebGPU)
	if err != nil {
		return nil, err
	}

	copy(grad.Data(), gradData)
	return grad, nil
}

// dispatchRows runs a compute pass with ceil(rows/workgroupSize) workgroups.
func (k *Kernel) dispatchRows(pipeline *wgpu.ComputePipeline, bindGroup *wgpu.BindGroup, rows int) {
	encoder := k.device.CreateCommandEncoder(nil)
	computePass := encoder.BeginComputePass(nil)

	computePass.SetPipeline(pipeline)
	computePass.SetBindGroup(0, bindGroup, nil)

	//nolint:gosec // G115: workgroup count is non-negative
	workgroups := uint32((rows + workgroupSize - 1) / workgroupSize)
	computePass.DispatchWorkgroups(workgroups, 1, 1)
	computePass.End()

	cmdBuffer := encoder.Finish(nil)
	k.queue.Submit(cmdBuffer)
}

// labelBytes packs labels into the i32 layout the shaders expect,
// down-converting Int64 labels host-side.
func labelBytes(labels *tensor.RawTensor) []byte {
	rows := labels.NumElements()
	out := make([]byte, rows*4)
	switch labels.DType() {
	case tensor.Int32:
		data := labels.AsInt32()
		for i, l := range data {
			//nolint:gosec // G115: labels validated in [0, classes)
			binary.LittleEndian.PutUint32(out[i*4:], uint32(l))
		}
	case tensor.Int64:
		data := labels.AsInt64()
		for i, l := range data {
			//nolint:gosec // G115: labels validated in [0, classes)
			binary.LittleEndian.PutUint32(out[i*4:], uint32(int32(l)))
		}
	}
	return out
}

// paramBytes packs the uniform Params struct (rows, classes, smoothing)
// with 16-byte alignment.
func paramBytes(rows, classes int, smoothing float32) []byte {
	params := make([]byte, 16)
	//nolint:gosec // G115: dimensions are non-negative
	binary.LittleEndian.PutUint32(params[0:4], uint32(rows))
	//nolint:gosec // G115: dimensions are non-negative
	binary.LittleEndian.PutUint32(params[4:8], uint32(classes))
	binary.LittleEndian.PutUint32(params[8:12], math.Float32bits(smoothing))
	return params
}
