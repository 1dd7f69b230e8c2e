package tensor

import "fmt"

// Backend defines the capabilities the GRU kernels need from a compute device.
// Backends handle the actual computation; the kernels only decide what to compute and in
// which order.
//
// All operations are synchronous: they return with the output fully written.
// Views (column slices of a wider matrix) are valid arguments everywhere.
//
// Implementations:
//   - CPU: gonum BLAS gemm or naive strided loops, optional row parallelism
type Backend[T Float] interface {
	// Gemm computes C := alpha*op(A)*op(B) + beta*C where op(A) is M×K, op(B) is K×N and C
	// is M×N. lda, ldb, ldc are row strides of the row-major buffers a, b, c. With beta == 0,
	// C is overwritten and its previous contents are ignored.
	Gemm(transA, transB bool, m, n, k int, alpha T, a []T, lda int, b []T, ldb int, beta T, c []T, ldc int)

	// Apply sets dst[i,j] = f(src[i,j]). dst and src may be the same view.
	Apply(dst, src *Matrix[T], f func(x T) T)

	// Combine sets dst[i,j] = f(a[i,j], b[i,j]). dst may alias either input.
	Combine(dst, a, b *Matrix[T], f func(x, y T) T)

	// Combine3 sets dst[i,j] = f(a[i,j], b[i,j], c[i,j]). dst may alias any input.
	Combine3(dst, a, b, c *Matrix[T], f func(x, y, z T) T)

	// Metadata
	Name() string
	Device() Device
}

// MatMul computes C := alpha*op(A)*op(B) + beta*C on whole matrices (or views), deriving
// M, N, K and the strides from the operands.
func MatMul[T Float](b Backend[T], transA, transB bool, alpha T, a, bm *Matrix[T], beta T, c *Matrix[T]) {
	m, k := a.Rows(), a.Cols()
	if transA {
		m, k = k, m
	}
	kB, n := bm.Rows(), bm.Cols()
	if transB {
		kB, n = n, kB
	}
	if k != kB || c.Rows() != m || c.Cols() != n {
		panic(fmt.Sprintf("matmul: shape mismatch op(A)=[%d,%d] op(B)=[%d,%d] C=%v", m, k, kB, n, c.Shape()))
	}
	b.Gemm(transA, transB, m, n, k, alpha, a.Data(), a.Stride(), bm.Data(), bm.Stride(), beta, c.Data(), c.Stride())
}
