// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go CPU backend for the GRU kernels.
//
// # Overview
//
// This package implements a CPU backend with:
//   - Row-major gemm through gonum's BLAS (Sgemm/Dgemm) with explicit leading dimensions
//   - A naive strided gemm for cross-checking
//   - Float32 and Float64 support
//   - Row-chunked parallel elementwise apply
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/gru/backend/cpu"
//	    "github.com/born-ml/gru/gru"
//	)
//
//	func main() {
//	    backend := cpu.New[float32]()
//	    cell := gru.NewCell(backend, gru.DefaultAttrs(), weight, bias)
//	    state := cell.Step(input, hiddenPrev)
//	}
//
// # Thread Safety
//
// The CPU backend is safe for concurrent use. It holds no mutable state; callers must not
// write the same output matrix from two goroutines.
package cpu
