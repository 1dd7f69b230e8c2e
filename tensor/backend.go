// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "github.com/born-ml/gru/internal/tensor"

// Backend defines the compute capabilities the GRU kernels need: a strided row-major gemm
// and elementwise apply/combine over matrices.
//
// Implementations:
//   - backend/cpu: gonum BLAS gemm or a naive strided loop, optional row parallelism
type Backend[T Float] = tensor.Backend[T]

// MatMul computes c = alpha·op(a)·op(b) + beta·c through b's gemm, deriving sizes and
// strides from the matrices. Panics on incompatible shapes.
func MatMul[T Float](b Backend[T], transA, transB bool, alpha T, a, bm *Matrix[T], beta T, c *Matrix[T]) {
	tensor.MatMul(b, transA, transB, alpha, a, bm, beta, c)
}
