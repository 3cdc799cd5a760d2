package parallel

import (
	"sync/atomic"
	"testing"
)

func TestFor(t *testing.T) {
	cfg := DefaultConfig()

	var counter int64
	n := 1000

	For(n, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, cfg)

	if counter != int64(n) {
		t.Errorf("Expected %d, got %d", n, counter)
	}
}

func TestFor_Sequential(t *testing.T) {
	cfg := Config{Enabled: false}

	var counter int64
	For(100, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, cfg)

	if counter != 100 {
		t.Errorf("Expected 100, got %d", counter)
	}
}

func TestFor_SmallChunk(t *testing.T) {
	// Small work units fall back to sequential.
	cfg := DefaultConfig()

	var counter int64
	n := cfg.MinChunkSize - 1

	For(n, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, cfg)

	if counter != int64(n) {
		t.Errorf("Expected %d, got %d", n, counter)
	}
}

func TestSumFloat64(t *testing.T) {
	cfg := DefaultConfig()
	n := 10000

	got := SumFloat64(n, func(i int) float64 { return float64(i) }, cfg)
	want := float64(n*(n-1)) / 2

	if got != want {
		t.Errorf("SumFloat64: got %f, want %f", got, want)
	}
}

func TestSumFloat64_MatchesSequential(t *testing.T) {
	par := DefaultConfig()
	seq := Config{Enabled: false}
	n := 4096

	f := func(i int) float64 { return 1.0 / float64(i+1) }

	got := SumFloat64(n, f, par)
	want := SumFloat64(n, f, seq)

	diff := got - want
	if diff < 0 {
		diff = -diff
	}
	if diff > 1e-10 {
		t.Errorf("parallel sum %g differs from sequential %g", got, want)
	}
}

func BenchmarkFor(b *testing.B) {
	cfg := DefaultConfig()
	n := 10000

	b.Run("parallel", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			var sum int64
			For(n, func(i int) {
				atomic.AddInt64(&sum, int64(i))
			}, cfg)
		}
	})

	b.Run("sequential", func(b *testing.B) {
		cfgSeq := cfg
		cfgSeq.Enabled = false
		for i := 0; i < b.N; i++ {
			var sum int64
			For(n, func(i int) {
				atomic.AddInt64(&sum, int64(i))
			}, cfgSeq)
		}
	})
}
