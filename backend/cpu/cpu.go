// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/born-ml/gru/internal/backend/cpu"
	"github.com/born-ml/gru/internal/parallel"
	"github.com/born-ml/gru/tensor"
)

// Backend represents the CPU backend implementation.
type Backend[T tensor.Float] = internalcpu.CPUBackend[T]

// Compile-time check that Backend implements tensor.Backend.
var (
	_ tensor.Backend[float32] = (*Backend[float32])(nil)
	_ tensor.Backend[float64] = (*Backend[float64])(nil)
)

// Option configures a Backend.
type Option = internalcpu.Option

// ParallelConfig controls row-parallel elementwise work.
type ParallelConfig = parallel.Config

// WithNaiveGemm replaces the BLAS gemm with a strided triple loop.
func WithNaiveGemm() Option {
	return internalcpu.WithNaiveGemm()
}

// WithParallel sets the row parallelism of elementwise operations.
func WithParallel(cfg ParallelConfig) Option {
	return internalcpu.WithParallel(cfg)
}

// DefaultParallelConfig returns the parallelism used when no option is given.
func DefaultParallelConfig() ParallelConfig {
	return parallel.DefaultConfig()
}

// New creates a new CPU backend.
//
// Example:
//
//	backend := cpu.New[float64](cpu.WithNaiveGemm())
func New[T tensor.Float](opts ...Option) *Backend[T] {
	return internalcpu.New[T](opts...)
}
