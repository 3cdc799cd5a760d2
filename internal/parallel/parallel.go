// Package parallel provides the row-parallel execution helpers used by the
// CPU kernels. Loss rows are independent, so work is split into contiguous
// row blocks with no cross-block synchronization.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 64,
	}
}

// For executes f(i) for i in [0, n) with optional parallelism.
// Falls back to sequential execution if parallelism is disabled or n is too small.
func For(n int, f func(i int), cfg Config) {
	if !cfg.Enabled || n < cfg.MinChunkSize {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	var wg sync.WaitGroup
	chunkSize := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize)

	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				f(i)
			}
		}(start, end)
	}
	wg.Wait()
}

// SumFloat64 computes Σ f(i) for i in [0, n) using per-chunk partial sums
// combined after all workers finish. Summation order differs from the
// sequential loop only at chunk boundaries, so results agree up to
// floating-point rounding.
func SumFloat64(n int, f func(i int) float64, cfg Config) float64 {
	if !cfg.Enabled || n < cfg.MinChunkSize {
		var sum float64
		for i := 0; i < n; i++ {
			sum += f(i)
		}
		return sum
	}

	chunkSize := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize)
	numChunks := (n + chunkSize - 1) / chunkSize
	partials := make([]float64, numChunks)

	var wg sync.WaitGroup
	for c := 0; c < numChunks; c++ {
		start := c * chunkSize
		end := min(start+chunkSize, n)
		wg.Add(1)
		go func(c, s, e int) {
			defer wg.Done()
			var sum float64
			for i := s; i < e; i++ {
				sum += f(i)
			}
			partials[c] = sum
		}(c, start, end)
	}
	wg.Wait()

	var total float64
	for _, p := range partials {
		total += p
	}
	return total
}
