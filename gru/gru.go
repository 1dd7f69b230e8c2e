// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package gru

import (
	"github.com/born-ml/gru/internal/activation"
	"github.com/born-ml/gru/internal/gru"
	"github.com/born-ml/gru/tensor"
)

// Activation selects an elementwise activation function.
type Activation = activation.Kind

// Supported activations. The numbering is the gru_unit attribute encoding.
const (
	Identity Activation = activation.Identity
	Sigmoid  Activation = activation.Sigmoid
	Tanh     Activation = activation.Tanh
	ReLU     Activation = activation.ReLU
)

// ParseActivation accepts an activation name or its number.
func ParseActivation(s string) (Activation, error) {
	return activation.ParseKind(s)
}

// Attrs selects the gate and candidate activations and the weight layout.
type Attrs = gru.Attrs

// DefaultAttrs returns sigmoid gates, a tanh candidate and the column layout.
func DefaultAttrs() Attrs {
	return gru.DefaultAttrs()
}

// Dims holds the batch and frame sizes.
type Dims = gru.Dims

// WeightLayout selects how Weight is split into its two blocks.
type WeightLayout = gru.WeightLayout

// Weight layouts.
const (
	LayoutColumns WeightLayout = gru.LayoutColumns
	LayoutPacked  WeightLayout = gru.LayoutPacked
)

// ParseWeightLayout parses "columns" or "packed".
func ParseWeightLayout(s string) (WeightLayout, error) {
	return gru.ParseWeightLayout(s)
}

// Relayout copies a weight matrix from one layout to another.
func Relayout[T tensor.Float](w *tensor.Matrix[T], from, to WeightLayout) *tensor.Matrix[T] {
	return gru.Relayout(w, from, to)
}

// Kernel argument types.
type (
	ForwardInputs[T tensor.Float]   = gru.ForwardInputs[T]
	ForwardOutputs[T tensor.Float]  = gru.ForwardOutputs[T]
	BackwardInputs[T tensor.Float]  = gru.BackwardInputs[T]
	BackwardOutputs[T tensor.Float] = gru.BackwardOutputs[T]
)

// NewForwardOutputs allocates zeroed forward outputs for d.
func NewForwardOutputs[T tensor.Float](d Dims) ForwardOutputs[T] {
	return gru.NewForwardOutputs[T](d)
}

// NewBackwardOutputs allocates zeroed gradient outputs for d.
func NewBackwardOutputs[T tensor.Float](d Dims) BackwardOutputs[T] {
	return gru.NewBackwardOutputs[T](d)
}

// Forward runs one step into out. Panics on unsupported attributes or mismatched shapes.
func Forward[T tensor.Float](b tensor.Backend[T], attrs Attrs, in ForwardInputs[T], out ForwardOutputs[T]) {
	gru.Forward(b, attrs, in, out)
}

// Backward computes the gradients of one step into out. Nil outputs are skipped.
func Backward[T tensor.Float](b tensor.Backend[T], attrs Attrs, in BackwardInputs[T], out BackwardOutputs[T]) {
	gru.Backward(b, attrs, in, out)
}

// Cell runs steps with fixed parameters, allocating outputs per call.
type Cell[T tensor.Float] = gru.Cell[T]

// State is the result of Cell.Step.
type State[T tensor.Float] = gru.State[T]

// Grads is the result of Cell.Grad.
type Grads[T tensor.Float] = gru.Grads[T]

// NewCell creates a cell over weight (frame×3·frame) and bias (1×3·frame).
func NewCell[T tensor.Float](b tensor.Backend[T], attrs Attrs, weight, bias *tensor.Matrix[T]) *Cell[T] {
	return gru.NewCell(b, attrs, weight, bias)
}
