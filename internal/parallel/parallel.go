// Package parallel splits row-oriented elementwise work across goroutines.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use (<= 0 means runtime.NumCPU).
	MinChunkSize int  // Minimum elements per goroutine to avoid overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 4096, // Elementwise float work is cheap; only split large matrices.
	}
}

// Sequential returns a config that never spawns goroutines.
func Sequential() Config {
	return Config{Enabled: false}
}

// ForRows executes f(r) for every r in [0, rows), where each row carries cols elements of
// work. Rows are grouped into contiguous chunks of at least MinChunkSize elements; each
// chunk runs on its own goroutine. Falls back to sequential execution when parallelism is
// disabled or the total work fits in one chunk. Returns after every row has been processed.
func ForRows(rows, cols int, f func(r int), cfg Config) {
	total := rows * cols
	if !cfg.Enabled || rows < 2 || total < 2*cfg.MinChunkSize {
		for r := 0; r < rows; r++ {
			f(r)
		}
		return
	}

	workers := cfg.NumWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	minRows := max((cfg.MinChunkSize+cols-1)/max(cols, 1), 1)
	chunkRows := max((rows+workers-1)/workers, minRows)

	var wg sync.WaitGroup
	for start := 0; start < rows; start += chunkRows {
		end := min(start+chunkRows, rows)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for r := s; r < e; r++ {
				f(r)
			}
		}(start, end)
	}
	wg.Wait()
}
