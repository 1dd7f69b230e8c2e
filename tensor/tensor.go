// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/gru/internal/tensor"
)

// Type aliases for public API

// Float is the constraint for matrix element types: float32 or float64.
type Float = tensor.Float

// DataType represents the element type of a matrix.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
)

// Device represents the device where matrix data resides.
type Device = tensor.Device

// Device constants.
const (
	CPU    Device = tensor.CPU
	CUDA   Device = tensor.CUDA
	Vulkan Device = tensor.Vulkan
	Metal  Device = tensor.Metal
	WebGPU Device = tensor.WebGPU
)

// Shape holds the row and column count of a matrix.
type Shape = tensor.Shape

// Matrix is a row-major matrix or a strided view into one.
type Matrix[T Float] = tensor.Matrix[T]

// New allocates a zeroed rows×cols matrix.
func New[T Float](rows, cols int) *Matrix[T] {
	return tensor.New[T](rows, cols)
}

// FromSlice copies row-major data into a new rows×cols matrix.
func FromSlice[T Float](data []T, rows, cols int) (*Matrix[T], error) {
	return tensor.FromSlice(data, rows, cols)
}

// NewView wraps data as a rows×cols matrix whose rows start stride elements apart.
func NewView[T Float](data []T, rows, cols, stride int) *Matrix[T] {
	return tensor.NewView(data, rows, cols, stride)
}

// DataTypeOf returns the DataType of T.
func DataTypeOf[T Float]() DataType {
	return tensor.DataTypeOf[T]()
}
