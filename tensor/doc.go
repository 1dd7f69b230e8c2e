// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the matrix types the GRU kernels operate on.
//
// The package defines:
//   - Matrix[T]: row-major 2-D buffer with an explicit row stride, so column ranges of one
//     allocation can be passed around as views without copying
//   - Backend[T]: the compute capability (gemm and elementwise apply) kernels run on
//   - Shape, DataType, Device: core type definitions
//
// Example:
//
//	gate := tensor.New[float32](batch, 3*frame)
//	ur := gate.ColSlice(0, 2*frame)     // update and reset columns
//	c := gate.ColSlice(2*frame, 3*frame) // candidate columns
package tensor
