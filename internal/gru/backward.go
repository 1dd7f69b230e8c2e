package gru

import (
	"github.com/born-ml/gru/internal/activation"
	"github.com/born-ml/gru/internal/tensor"
)

// BackwardInputs are the forward-pass values plus the gradient of the loss with respect to
// Hidden. Gate and ResetHiddenPrev must be exactly what Forward produced for Input,
// HiddenPrev and Weight.
type BackwardInputs[T tensor.Float] struct {
	Input           *tensor.Matrix[T] // batch × 3·frame
	HiddenPrev      *tensor.Matrix[T] // batch × frame
	Weight          *tensor.Matrix[T] // frame × 3·frame
	Gate            *tensor.Matrix[T] // batch × 3·frame, post-activation
	ResetHiddenPrev *tensor.Matrix[T] // batch × frame
	HiddenGrad      *tensor.Matrix[T] // batch × frame
}

// BackwardOutputs receive the gradients. Each is overwritten when non-nil and skipped when
// nil; the internal gate gradient is computed either way.
type BackwardOutputs[T tensor.Float] struct {
	InputGrad      *tensor.Matrix[T] // batch × 3·frame
	HiddenPrevGrad *tensor.Matrix[T] // batch × frame
	WeightGrad     *tensor.Matrix[T] // frame × 3·frame, same layout as Weight
	BiasGrad       *tensor.Matrix[T] // 1 × 3·frame
}

// NewBackwardOutputs allocates every gradient output sized for d.
func NewBackwardOutputs[T tensor.Float](d Dims) BackwardOutputs[T] {
	return BackwardOutputs[T]{
		InputGrad:      tensor.New[T](d.Batch, d.GateWidth()),
		HiddenPrevGrad: tensor.New[T](d.Batch, d.Frame),
		WeightGrad:     tensor.New[T](d.Frame, d.GateWidth()),
		BiasGrad:       tensor.New[T](1, d.GateWidth()),
	}
}

func (in BackwardInputs[T]) check() Dims {
	if in.Input == nil || in.HiddenPrev == nil {
		panic("gru: Input and HiddenPrev are required")
	}
	d := Dims{Batch: in.Input.Rows(), Frame: in.HiddenPrev.Cols()}
	checkShape("Input", in.Input, d.InputShape())
	checkShape("HiddenPrev", in.HiddenPrev, d.HiddenShape())
	checkShape("Weight", in.Weight, d.WeightShape())
	checkShape("Gate", in.Gate, d.GateShape())
	checkShape("ResetHiddenPrev", in.ResetHiddenPrev, d.HiddenShape())
	checkShape("Hidden@GRAD", in.HiddenGrad, d.HiddenShape())
	return d
}

// Backward computes the gradients of one GRU step.
//
// The input gradient equals the full pre-activation gate gradient: Input only enters the
// step through Gate = Input + Bias, whose derivative with respect to Input is the identity.
//
// Panics on an unsupported activation kind and on shape mismatches.
func Backward[T tensor.Float](b tensor.Backend[T], attrs Attrs, in BackwardInputs[T], out BackwardOutputs[T]) {
	attrs.mustValidate()
	d := in.check()
	checkOptionalShape("Input@GRAD", out.InputGrad, d.InputShape())
	checkOptionalShape("HiddenPrev@GRAD", out.HiddenPrevGrad, d.HiddenShape())
	checkOptionalShape("Weight@GRAD", out.WeightGrad, d.WeightShape())
	checkOptionalShape("Bias@GRAD", out.BiasGrad, d.BiasShape())

	f := d.Frame
	hp, dh := in.HiddenPrev, in.HiddenGrad
	u := in.Gate.ColSlice(0, f)
	r := in.Gate.ColSlice(f, 2*f)
	c := in.Gate.ColSlice(2*f, 3*f)
	wUR, wC := splitWeight(attrs.Layout, in.Weight, f)

	gateGrad := tensor.New[T](d.Batch, d.GateWidth())
	resetHiddenPrevGrad := tensor.New[T](d.Batch, f)
	du := gateGrad.ColSlice(0, f)
	dr := gateGrad.ColSlice(f, 2*f)
	dc := gateGrad.ColSlice(2*f, 3*f)

	var dwUR, dwC *tensor.Matrix[T]
	if out.WeightGrad != nil {
		dwUR, dwC = splitWeight(attrs.Layout, out.WeightGrad, f)
	}

	// Unactivated update gate: dHidden * (HiddenPrev - c).
	b.Combine3(du, dh, hp, c, func(dh, hp, c T) T {
		return dh * (hp - c)
	})
	activation.Grad(b, attrs.GateActivation, u, u, du, du)

	// Unactivated candidate: dHidden * (1 - u).
	b.Combine(dc, dh, u, func(dh, u T) T {
		return dh * (1 - u)
	})
	activation.Grad(b, attrs.Activation, c, c, dc, dc)

	// Candidate recurrent path, taken before the reset slice of gateGrad is written.
	tensor.MatMul(b, false, true, 1, dc, wC, 0, resetHiddenPrevGrad)
	if dwC != nil {
		tensor.MatMul(b, true, false, 1, in.ResetHiddenPrev, dc, 0, dwC)
	}

	// Unactivated reset gate: dResetHiddenPrev * HiddenPrev.
	b.Combine(dr, resetHiddenPrevGrad, hp, mul[T])
	activation.Grad(b, attrs.GateActivation, r, r, dr, dr)

	// gateGrad[:, 0:2f] is final from here on.
	urGrad := gateGrad.ColSlice(0, 2*f)
	if dwUR != nil {
		tensor.MatMul(b, true, false, 1, hp, urGrad, 0, dwUR)
	}

	if dhp := out.HiddenPrevGrad; dhp != nil {
		b.Combine(dhp, resetHiddenPrevGrad, r, mul[T])
		b.Combine3(dhp, dhp, dh, u, func(acc, dh, u T) T {
			return acc + dh*u
		})
		tensor.MatMul(b, false, true, 1, urGrad, wUR, 1, dhp)
	}

	if out.InputGrad != nil {
		b.Apply(out.InputGrad, gateGrad, identity[T])
	}

	if db := out.BiasGrad; db != nil {
		b.Apply(db, gateGrad.RowSlice(0, 1), identity[T])
		for i := 1; i < d.Batch; i++ {
			b.Combine(db, db, gateGrad.RowSlice(i, i+1), add[T])
		}
	}
}

func identity[T tensor.Float](x T) T { return x }
