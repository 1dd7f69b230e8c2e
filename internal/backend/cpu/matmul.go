package cpu

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/blas/blas64"

	"github.com/born-ml/gru/internal/parallel"
	"github.com/born-ml/gru/internal/tensor"
)

// Gemm computes C := alpha*op(A)*op(B) + beta*C on row-major buffers.
//
// op(A) is M×K, op(B) is K×N, C is M×N; lda, ldb, ldc are row strides, so a, b and c may
// point into the middle of a wider matrix. With beta == 0 the old contents of C are ignored.
func (cpu *CPUBackend[T]) Gemm(transA, transB bool, m, n, k int, alpha T, a []T, lda int, b []T, ldb int, beta T, c []T, ldc int) {
	checkGemm(transA, transB, m, n, k, len(a), lda, len(b), ldb, len(c), ldc)
	if m == 0 || n == 0 {
		return
	}

	if cpu.naive {
		gemmNaive(transA, transB, m, n, k, alpha, a, lda, b, ldb, beta, c, ldc, cpu.parallel)
		return
	}

	switch a := any(a).(type) {
	case []float32:
		blas32.Implementation().Sgemm(blasTrans(transA), blasTrans(transB), m, n, k,
			float32(alpha), a, lda, any(b).([]float32), ldb, float32(beta), any(c).([]float32), ldc)
	case []float64:
		blas64.Implementation().Dgemm(blasTrans(transA), blasTrans(transB), m, n, k,
			float64(alpha), a, lda, any(b).([]float64), ldb, float64(beta), any(c).([]float64), ldc)
	default:
		panic(fmt.Sprintf("gemm: unsupported dtype %s", tensor.DataTypeOf[T]()))
	}
}

func blasTrans(t bool) blas.Transpose {
	if t {
		return blas.Trans
	}
	return blas.NoTrans
}

// checkGemm validates dimensions, strides and buffer lengths the same way for every gemm
// path, so the naive loops fail as loudly as BLAS does.
func checkGemm(transA, transB bool, m, n, k, lenA, lda, lenB, ldb, lenC, ldc int) {
	if m < 0 || n < 0 || k < 0 {
		panic(fmt.Sprintf("gemm: negative dimension m=%d n=%d k=%d", m, n, k))
	}
	rowsA, colsA := m, k
	if transA {
		rowsA, colsA = k, m
	}
	rowsB, colsB := k, n
	if transB {
		rowsB, colsB = n, k
	}
	checkOperand("A", rowsA, colsA, lenA, lda)
	checkOperand("B", rowsB, colsB, lenB, ldb)
	checkOperand("C", m, n, lenC, ldc)
}

func checkOperand(name string, rows, cols, length, ld int) {
	if ld < max(1, cols) {
		panic(fmt.Sprintf("gemm: ld%s=%d smaller than %d columns", name, ld, cols))
	}
	if rows == 0 || cols == 0 {
		return
	}
	if need := ld*(rows-1) + cols; length < need {
		panic(fmt.Sprintf("gemm: %s buffer has %d elements, need %d", name, length, need))
	}
}

// gemmNaive is the reference O(m·n·k) loop. Rows of C are independent, so they are
// distributed with parallel.ForRows.
func gemmNaive[T tensor.Float](transA, transB bool, m, n, k int, alpha T, a []T, lda int, b []T, ldb int, beta T, c []T, ldc int, cfg parallel.Config) {
	parallel.ForRows(m, n*max(k, 1), func(i int) {
		for j := 0; j < n; j++ {
			var sum T
			for p := 0; p < k; p++ {
				var av, bv T
				if transA {
					av = a[p*lda+i]
				} else {
					av = a[i*lda+p]
				}
				if transB {
					bv = b[j*ldb+p]
				} else {
					bv = b[p*ldb+j]
				}
				sum += av * bv
			}
			idx := i*ldc + j
			if beta == 0 {
				c[idx] = alpha * sum
			} else {
				c[idx] = alpha*sum + beta*c[idx]
			}
		}
	}, cfg)
}
