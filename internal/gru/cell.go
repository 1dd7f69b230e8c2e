package gru

import (
	"github.com/born-ml/gru/internal/tensor"
)

// Cell binds a backend, the activation attributes and the learned parameters, and allocates
// fresh output buffers on every call. A Cell holds no per-call state, so independent steps
// may run on one Cell concurrently.
type Cell[T tensor.Float] struct {
	backend tensor.Backend[T]
	attrs   Attrs
	weight  *tensor.Matrix[T]
	bias    *tensor.Matrix[T]
}

// State is everything one forward step produced, kept for the matching backward step.
type State[T tensor.Float] struct {
	Input           *tensor.Matrix[T]
	HiddenPrev      *tensor.Matrix[T]
	Gate            *tensor.Matrix[T]
	ResetHiddenPrev *tensor.Matrix[T]
	Hidden          *tensor.Matrix[T]
}

// Grads holds the gradients of one step.
type Grads[T tensor.Float] struct {
	Input      *tensor.Matrix[T]
	HiddenPrev *tensor.Matrix[T]
	Weight     *tensor.Matrix[T]
	Bias       *tensor.Matrix[T]
}

// NewCell creates a cell over weight (frame×3·frame) and bias (1×3·frame).
// Panics on unsupported attributes or mismatched parameter shapes.
func NewCell[T tensor.Float](b tensor.Backend[T], attrs Attrs, weight, bias *tensor.Matrix[T]) *Cell[T] {
	attrs.mustValidate()
	if weight == nil {
		panic("gru: Weight is nil")
	}
	d := Dims{Batch: 1, Frame: weight.Rows()}
	checkShape("Weight", weight, d.WeightShape())
	checkShape("Bias", bias, d.BiasShape())
	return &Cell[T]{backend: b, attrs: attrs, weight: weight, bias: bias}
}

// Attrs returns the cell's attributes.
func (c *Cell[T]) Attrs() Attrs { return c.attrs }

// FrameSize returns the hidden-state width.
func (c *Cell[T]) FrameSize() int { return c.weight.Rows() }

// Weight returns the recurrent weight.
func (c *Cell[T]) Weight() *tensor.Matrix[T] { return c.weight }

// Bias returns the bias row.
func (c *Cell[T]) Bias() *tensor.Matrix[T] { return c.bias }

// Step runs Forward on newly allocated outputs.
func (c *Cell[T]) Step(input, hiddenPrev *tensor.Matrix[T]) *State[T] {
	if input == nil || hiddenPrev == nil {
		panic("gru: Input and HiddenPrev are required")
	}
	in := ForwardInputs[T]{Input: input, HiddenPrev: hiddenPrev, Weight: c.weight, Bias: c.bias}
	out := NewForwardOutputs[T](in.Dims())
	Forward(c.backend, c.attrs, in, out)
	return &State[T]{
		Input:           input,
		HiddenPrev:      hiddenPrev,
		Gate:            out.Gate,
		ResetHiddenPrev: out.ResetHiddenPrev,
		Hidden:          out.Hidden,
	}
}

// Grad runs Backward for a state produced by Step on this cell.
func (c *Cell[T]) Grad(s *State[T], hiddenGrad *tensor.Matrix[T]) *Grads[T] {
	d := Dims{Batch: s.Input.Rows(), Frame: c.FrameSize()}
	out := NewBackwardOutputs[T](d)
	Backward(c.backend, c.attrs, BackwardInputs[T]{
		Input:           s.Input,
		HiddenPrev:      s.HiddenPrev,
		Weight:          c.weight,
		Gate:            s.Gate,
		ResetHiddenPrev: s.ResetHiddenPrev,
		HiddenGrad:      hiddenGrad,
	}, out)
	return &Grads[T]{
		Input:      out.InputGrad,
		HiddenPrev: out.HiddenPrevGrad,
		Weight:     out.WeightGrad,
		Bias:       out.BiasGrad,
	}
}
