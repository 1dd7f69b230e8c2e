// Package gru implements one time step of a Gated Recurrent Unit: the forward kernel that
// produces the gates and the new hidden state, and the backward kernel that turns the
// downstream hidden-state gradient into gradients for every input and parameter.
//
// Gate layout: the three gates live side by side in one batch×3·frame buffer,
//
//	Gate[:, 0:f]   update gate u
//	Gate[:, f:2f]  reset gate r
//	Gate[:, 2f:3f] candidate c
//
// and are addressed through column views, never copied out.
//
// Forward:
//
//	Gate            = Input + Bias
//	Gate[:, 0:2f]  += HiddenPrev @ W_ur         u = gate_act(.), r = gate_act(.)
//	ResetHiddenPrev = r * HiddenPrev
//	Gate[:, 2f:3f] += ResetHiddenPrev @ W_c     c = act(.)
//	Hidden          = u * (HiddenPrev - c) + c
//
// Backward reads Gate, ResetHiddenPrev and HiddenPrev exactly as Forward left them and does
// not recompute any of the forward pass.
package gru

import (
	"fmt"

	"github.com/born-ml/gru/internal/activation"
	"github.com/born-ml/gru/internal/tensor"
)

// Attrs are the operator attributes shared by Forward and Backward.
// Backward must be called with the same Attrs as the Forward it differentiates.
type Attrs struct {
	GateActivation activation.Kind // update and reset gates
	Activation     activation.Kind // candidate
	Layout         WeightLayout
}

// DefaultAttrs returns sigmoid gates, a tanh candidate and the column weight layout.
func DefaultAttrs() Attrs {
	return Attrs{
		GateActivation: activation.Sigmoid,
		Activation:     activation.Tanh,
		Layout:         LayoutColumns,
	}
}

// mustValidate panics on an unsupported activation kind or layout. It runs before any
// buffer is touched.
func (a Attrs) mustValidate() {
	if !a.GateActivation.Valid() {
		panic(fmt.Sprintf("gru: unsupported activation type %d for gate_activation", int(a.GateActivation)))
	}
	if !a.Activation.Valid() {
		panic(fmt.Sprintf("gru: unsupported activation type %d for activation", int(a.Activation)))
	}
	if !a.Layout.Valid() {
		panic(fmt.Sprintf("gru: unsupported weight layout %d", int(a.Layout)))
	}
}

// ForwardInputs are the caller-owned, read-only inputs of Forward.
type ForwardInputs[T tensor.Float] struct {
	Input      *tensor.Matrix[T] // batch × 3·frame
	HiddenPrev *tensor.Matrix[T] // batch × frame
	Weight     *tensor.Matrix[T] // frame × 3·frame
	Bias       *tensor.Matrix[T] // 1 × 3·frame
}

// ForwardOutputs are allocated by the caller and fully overwritten by Forward.
type ForwardOutputs[T tensor.Float] struct {
	Gate            *tensor.Matrix[T] // batch × 3·frame, post-activation
	ResetHiddenPrev *tensor.Matrix[T] // batch × frame
	Hidden          *tensor.Matrix[T] // batch × frame
}

// NewForwardOutputs allocates zeroed outputs sized for d.
func NewForwardOutputs[T tensor.Float](d Dims) ForwardOutputs[T] {
	return ForwardOutputs[T]{
		Gate:            tensor.New[T](d.Batch, d.GateWidth()),
		ResetHiddenPrev: tensor.New[T](d.Batch, d.Frame),
		Hidden:          tensor.New[T](d.Batch, d.Frame),
	}
}

// Dims derives batch and frame size from the inputs: batch from Input, frame from HiddenPrev.
func (in ForwardInputs[T]) Dims() Dims {
	return Dims{Batch: in.Input.Rows(), Frame: in.HiddenPrev.Cols()}
}

func (in ForwardInputs[T]) check() Dims {
	if in.Input == nil || in.HiddenPrev == nil {
		panic("gru: Input and HiddenPrev are required")
	}
	d := in.Dims()
	checkShape("Input", in.Input, d.InputShape())
	checkShape("HiddenPrev", in.HiddenPrev, d.HiddenShape())
	checkShape("Weight", in.Weight, d.WeightShape())
	checkShape("Bias", in.Bias, d.BiasShape())
	return d
}

// Forward computes one GRU step, writing Gate, ResetHiddenPrev and Hidden.
//
// Panics on an unsupported activation kind and on any shape that disagrees with the
// dimensions implied by Input and HiddenPrev.
func Forward[T tensor.Float](b tensor.Backend[T], attrs Attrs, in ForwardInputs[T], out ForwardOutputs[T]) {
	attrs.mustValidate()
	d := in.check()
	checkShape("Gate", out.Gate, d.GateShape())
	checkShape("ResetHiddenPrev", out.ResetHiddenPrev, d.HiddenShape())
	checkShape("Hidden", out.Hidden, d.HiddenShape())

	f := d.Frame
	gate := out.Gate
	wUR, wC := splitWeight(attrs.Layout, in.Weight, f)

	// Unactivated gates: input projection plus bias broadcast over the batch.
	for i := 0; i < d.Batch; i++ {
		b.Combine(gate.RowSlice(i, i+1), in.Input.RowSlice(i, i+1), in.Bias, add[T])
	}

	// Update and reset gates share HiddenPrev, so one gemm covers both.
	tensor.MatMul(b, false, false, 1, in.HiddenPrev, wUR, 1, gate.ColSlice(0, 2*f))

	u := gate.ColSlice(0, f)
	r := gate.ColSlice(f, 2*f)
	c := gate.ColSlice(2*f, 3*f)
	activation.Forward(b, attrs.GateActivation, u, u)
	activation.Forward(b, attrs.GateActivation, r, r)

	// The candidate's recurrent term needs the reset-gated state, so it comes second.
	b.Combine(out.ResetHiddenPrev, r, in.HiddenPrev, mul[T])
	tensor.MatMul(b, false, false, 1, out.ResetHiddenPrev, wC, 1, c)
	activation.Forward(b, attrs.Activation, c, c)

	b.Combine3(out.Hidden, u, in.HiddenPrev, c, func(u, hp, c T) T {
		return u*(hp-c) + c
	})
}

func add[T tensor.Float](x, y T) T { return x + y }

func mul[T tensor.Float](x, y T) T { return x * y }
