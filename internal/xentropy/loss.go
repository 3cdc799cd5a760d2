package xentropy

import (
	"github.com/xentropy-ml/xentropy/internal/parallel"
	"github.com/xentropy-ml/xentropy/internal/tensor"
)

// LossConfig configures a Loss criterion.
type LossConfig struct {
	Smoothing   float32   // Label smoothing factor in [0, 1].
	HalfToFloat bool      // Widen Float16 outputs to Float32.
	Reduction   Reduction // How the per-row loss is collapsed (default None).
	Parallel    parallel.Config
}

// Loss is a criterion that pairs the forward and backward ops, holding the
// saved log-sum-exp statistic between the two calls so callers cannot mix
// statistics across batches.
//
// A Loss instance is not safe for concurrent use; run concurrent batches
// through separate instances (rows within one call are still processed in
// parallel by the kernel).
//
//	criterion := xentropy.NewLoss(cpu.New(), xentropy.LossConfig{Smoothing: 0.1})
//	loss, err := criterion.Forward(logits, labels)
//	grad, err := criterion.Backward(upstream)
type Loss struct {
	kernel Kernel
	cfg    LossConfig

	saved *savedState
}

// savedState carries the tensors Forward produced for the pending Backward.
type savedState struct {
	logits *tensor.RawTensor
	labels *tensor.RawTensor
	lse    *tensor.RawTensor
	rows   int
}

// NewLoss creates a Loss criterion on the given kernel. A zero LossConfig
// gives unsmoothed cross-entropy with per-row output.
func NewLoss(k Kernel, cfg LossConfig) *Loss {
	if cfg.Parallel == (parallel.Config{}) {
		cfg.Parallel = parallel.DefaultConfig()
	}
	return &Loss{kernel: k, cfg: cfg}
}

// Kernel returns the compute kernel the criterion dispatches to.
func (l *Loss) Kernel() Kernel {
	return l.kernel
}

// Forward computes the loss and saves the statistic for Backward.
// The result is per-row for Reduction None, single-element otherwise.
// A pending saved statistic from an unconsumed Forward is discarded.
func (l *Loss) Forward(logits, labels *tensor.RawTensor) (*tensor.RawTensor, error) {
	loss, lse, err := Forward(l.kernel, logits, labels, l.cfg.Smoothing, l.cfg.HalfToFloat)
	if err != nil {
		return nil, err
	}

	l.saved = &savedState{
		logits: logits,
		labels: labels,
		lse:    lse,
		rows:   logits.Shape()[0],
	}

	return Reduce(loss, l.cfg.Reduction, l.cfg.Parallel)
}

// Backward computes the gradient of the most recent Forward with respect to
// its logits, consuming the saved statistic. upstream must match the shape
// Forward returned: length-N for Reduction None, single-element otherwise.
// Calling Backward without a pending Forward is an error.
func (l *Loss) Backward(upstream *tensor.RawTensor) (*tensor.RawTensor, error) {
	if l.saved == nil {
		return nil, invalidArgf("backward called without a matching forward")
	}
	saved := l.saved
	l.saved = nil

	gradLoss, err := l.perRowUpstream(upstream, saved)
	if err != nil {
		return nil, err
	}

	return Backward(l.kernel, gradLoss, saved.logits, saved.lse, saved.labels, l.cfg.Smoothing)
}

// perRowUpstream expands the upstream gradient into the per-row vector the
// backward kernel consumes. For Mean the scalar is spread as g/N, for Sum
// as g; for None the vector passes through untouched.
func (l *Loss) perRowUpstream(upstream *tensor.RawTensor, saved *savedState) (*tensor.RawTensor, error) {
	if l.cfg.Reduction == None {
		return upstream, nil
	}

	if upstream == nil {
		return nil, invalidArgf("upstream gradient must not be nil")
	}
	if upstream.NumElements() != 1 {
		return nil, invalidArgf("upstream gradient must be a single element for %s reduction, got shape %v",
			l.cfg.Reduction, upstream.Shape())
	}
	if !upstream.DType().IsFloat() {
		return nil, invalidArgf("upstream gradient must be a float tensor, got %s", upstream.DType())
	}

	g := floatAt(upstream)(0)
	if l.cfg.Reduction == Mean {
		g /= float64(saved.rows)
	}

	gradLoss, err := tensor.NewRaw(tensor.Shape{saved.rows}, saved.lse.DType(), saved.lse.Device())
	if err != nil {
		return nil, err
	}
	switch gradLoss.DType() {
	case tensor.Float32:
		data := gradLoss.AsFloat32()
		for i := range data {
			data[i] = float32(g)
		}
	case tensor.Float64:
		data := gradLoss.AsFloat64()
		for i := range data {
			data[i] = g
		}
	case tensor.Float16:
		data := gradLoss.AsFloat16()
		bits := tensor.Float32ToFloat16(float32(g))
		for i := range data {
			data[i] = bits
		}
	}
	return gradLoss, nil
}
