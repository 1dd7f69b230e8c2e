// Package cpu implements the CPU backend: gemm through gonum BLAS (or naive strided loops)
// and elementwise apply/combine with optional row parallelism.
package cpu

import (
	"fmt"

	"github.com/born-ml/gru/internal/parallel"
	"github.com/born-ml/gru/internal/tensor"
)

// CPUBackend implements tensor.Backend on the host CPU.
type CPUBackend[T tensor.Float] struct {
	device   tensor.Device
	naive    bool
	parallel parallel.Config
}

// Compile-time check that CPUBackend implements tensor.Backend.
var (
	_ tensor.Backend[float32] = (*CPUBackend[float32])(nil)
	_ tensor.Backend[float64] = (*CPUBackend[float64])(nil)
)

// Option configures a CPUBackend.
type Option func(*options)

type options struct {
	naive    bool
	parallel parallel.Config
}

// WithNaiveGemm replaces the BLAS gemm with straightforward strided loops.
// Useful as a reference implementation.
func WithNaiveGemm() Option {
	return func(o *options) { o.naive = true }
}

// WithParallel sets how elementwise work and naive gemm rows are spread across goroutines.
func WithParallel(cfg parallel.Config) Option {
	return func(o *options) { o.parallel = cfg }
}

// New creates a new CPU backend.
func New[T tensor.Float](opts ...Option) *CPUBackend[T] {
	o := options{parallel: parallel.DefaultConfig()}
	for _, opt := range opts {
		opt(&o)
	}
	return &CPUBackend[T]{
		device:   tensor.CPU,
		naive:    o.naive,
		parallel: o.parallel,
	}
}

// Name returns the backend name.
func (cpu *CPUBackend[T]) Name() string {
	if cpu.naive {
		return "CPU(naive)"
	}
	return "CPU(blas)"
}

// Device returns the compute device.
func (cpu *CPUBackend[T]) Device() tensor.Device {
	return cpu.device
}

// Apply sets dst[i,j] = f(src[i,j]).
func (cpu *CPUBackend[T]) Apply(dst, src *tensor.Matrix[T], f func(x T) T) {
	if !dst.Shape().Equal(src.Shape()) {
		panic(fmt.Sprintf("apply: shape mismatch dst %v src %v", dst.Shape(), src.Shape()))
	}
	parallel.ForRows(dst.Rows(), dst.Cols(), func(r int) {
		d, s := dst.Row(r), src.Row(r)
		for j := range d {
			d[j] = f(s[j])
		}
	}, cpu.parallel)
}

// Combine sets dst[i,j] = f(a[i,j], b[i,j]).
func (cpu *CPUBackend[T]) Combine(dst, a, b *tensor.Matrix[T], f func(x, y T) T) {
	if !dst.Shape().Equal(a.Shape()) || !dst.Shape().Equal(b.Shape()) {
		panic(fmt.Sprintf("combine: shape mismatch dst %v a %v b %v", dst.Shape(), a.Shape(), b.Shape()))
	}
	parallel.ForRows(dst.Rows(), dst.Cols(), func(r int) {
		d, x, y := dst.Row(r), a.Row(r), b.Row(r)
		for j := range d {
			d[j] = f(x[j], y[j])
		}
	}, cpu.parallel)
}

// Combine3 sets dst[i,j] = f(a[i,j], b[i,j], c[i,j]).
func (cpu *CPUBackend[T]) Combine3(dst, a, b, c *tensor.Matrix[T], f func(x, y, z T) T) {
	s := dst.Shape()
	if !s.Equal(a.Shape()) || !s.Equal(b.Shape()) || !s.Equal(c.Shape()) {
		panic(fmt.Sprintf("combine3: shape mismatch dst %v a %v b %v c %v", s, a.Shape(), b.Shape(), c.Shape()))
	}
	parallel.ForRows(dst.Rows(), dst.Cols(), func(r int) {
		d, x, y, z := dst.Row(r), a.Row(r), b.Row(r), c.Row(r)
		for j := range d {
			d[j] = f(x[j], y[j], z[j])
		}
	}, cpu.parallel)
}
