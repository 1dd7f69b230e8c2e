package op

import (
	"fmt"

	"github.com/born-ml/gru/internal/activation"
	"github.com/born-ml/gru/internal/gru"
	"github.com/born-ml/gru/internal/tensor"
)

// Operator types.
const (
	GRUUnit     = "gru_unit"
	GRUUnitGrad = "gru_unit_grad"
)

// Attribute names. The activation attributes take the activation.Kind numbering
// (0 identity, 1 sigmoid, 2 tanh, 3 relu); weight_layout takes gru.WeightLayout.
const (
	AttrGateActivation = "gate_activation"
	AttrActivation     = "activation"
	AttrWeightLayout   = "weight_layout"
)

// NewGRUUnitDesc describes a gru_unit whose slots are bound to variables of the same name.
func NewGRUUnitDesc(gateActivation, act activation.Kind) *Desc {
	return &Desc{
		Type:    GRUUnit,
		Inputs:  identityBinding("Input", "HiddenPrev", "Weight", "Bias"),
		Outputs: identityBinding("Gate", "ResetHiddenPrev", "Hidden"),
		Attrs: map[string]int{
			AttrGateActivation: int(gateActivation),
			AttrActivation:     int(act),
		},
	}
}

// GradDesc builds the gru_unit_grad description that differentiates fwd. It reads the
// forward inputs and outputs through fwd's variable bindings and writes the @GRAD
// variables of Input, HiddenPrev, Weight and Bias. Attributes are copied unchanged.
func GradDesc(fwd *Desc) *Desc {
	in := map[string]string{
		GradVarName("Hidden"): GradVarName(fwd.Outputs["Hidden"]),
	}
	for _, slot := range []string{"Input", "HiddenPrev", "Weight"} {
		in[slot] = fwd.Inputs[slot]
	}
	for _, slot := range []string{"Gate", "ResetHiddenPrev"} {
		in[slot] = fwd.Outputs[slot]
	}

	out := make(map[string]string, 4)
	for _, slot := range []string{"Input", "HiddenPrev", "Weight", "Bias"} {
		out[GradVarName(slot)] = GradVarName(fwd.Inputs[slot])
	}

	attrs := make(map[string]int, len(fwd.Attrs))
	for k, v := range fwd.Attrs {
		attrs[k] = v
	}
	return &Desc{Type: GRUUnitGrad, Inputs: in, Outputs: out, Attrs: attrs}
}

// gruAttrs reads the GRU attributes; defaults are sigmoid gates and a tanh candidate.
func gruAttrs(d *Desc) gru.Attrs {
	return gru.Attrs{
		GateActivation: activation.Kind(d.AttrInt(AttrGateActivation, int(activation.Sigmoid))),
		Activation:     activation.Kind(d.AttrInt(AttrActivation, int(activation.Tanh))),
		Layout:         gru.WeightLayout(d.AttrInt(AttrWeightLayout, int(gru.LayoutColumns))),
	}
}

func expectShape[T tensor.Float](d *Desc, slot string, m *tensor.Matrix[T], want tensor.Shape) error {
	if !m.Shape().Equal(want) {
		return fmt.Errorf("%s: %s has shape %v, want %v: %w", d.Type, slot, m.Shape(), want, ErrShapeMismatch)
	}
	return nil
}

// lookupAll resolves the named input slots in order.
func lookupAll[T tensor.Float](s *Scope[T], d *Desc, slots ...string) ([]*tensor.Matrix[T], error) {
	out := make([]*tensor.Matrix[T], len(slots))
	for i, slot := range slots {
		m, err := s.lookup(d, slot)
		if err != nil {
			return nil, err
		}
		out[i] = m
	}
	return out, nil
}

// inferDims derives batch and frame size from Input and HiddenPrev and checks the
// recurrent weight against them.
func inferDims[T tensor.Float](d *Desc, input, hiddenPrev, weight *tensor.Matrix[T]) (gru.Dims, error) {
	dims := gru.Dims{Batch: input.Rows(), Frame: hiddenPrev.Cols()}
	if err := expectShape(d, "Input", input, dims.InputShape()); err != nil {
		return dims, err
	}
	if err := expectShape(d, "HiddenPrev", hiddenPrev, dims.HiddenShape()); err != nil {
		return dims, err
	}
	if err := expectShape(d, "Weight", weight, dims.WeightShape()); err != nil {
		return dims, err
	}
	return dims, nil
}

func (r *Registry[T]) registerGRUUnit() {
	r.Register(GRUUnit, Operator[T]{
		InferShape: inferGRUUnit[T],
		Compute:    computeGRUUnit[T],
	})
	r.Register(GRUUnitGrad, Operator[T]{
		InferShape: inferGRUUnitGrad[T],
		Compute:    computeGRUUnitGrad[T],
	})
}

func inferGRUUnit[T tensor.Float](ctx *Context[T], d *Desc) error {
	in, err := lookupAll(ctx.Scope, d, "Input", "HiddenPrev", "Weight", "Bias")
	if err != nil {
		return err
	}
	dims, err := inferDims(d, in[0], in[1], in[2])
	if err != nil {
		return err
	}
	if err := expectShape(d, "Bias", in[3], dims.BiasShape()); err != nil {
		return err
	}

	outputs := []struct {
		slot  string
		shape tensor.Shape
	}{
		{"Gate", dims.GateShape()},
		{"ResetHiddenPrev", dims.HiddenShape()},
		{"Hidden", dims.HiddenShape()},
	}
	for _, o := range outputs {
		if _, ok := d.Output(o.slot); !ok {
			return fmt.Errorf("%s: output slot %s not bound: %w", d.Type, o.slot, ErrMissingVariable)
		}
		if _, err := ctx.Scope.ensureOutput(d, o.slot, o.shape); err != nil {
			return err
		}
	}
	return nil
}

func computeGRUUnit[T tensor.Float](ctx *Context[T], d *Desc) error {
	in, err := lookupAll(ctx.Scope, d, "Input", "HiddenPrev", "Weight", "Bias")
	if err != nil {
		return err
	}
	gru.Forward(ctx.Backend, gruAttrs(d), gru.ForwardInputs[T]{
		Input:      in[0],
		HiddenPrev: in[1],
		Weight:     in[2],
		Bias:       in[3],
	}, gru.ForwardOutputs[T]{
		Gate:            ctx.Scope.output(d, "Gate"),
		ResetHiddenPrev: ctx.Scope.output(d, "ResetHiddenPrev"),
		Hidden:          ctx.Scope.output(d, "Hidden"),
	})
	return nil
}

var gradInputSlots = []string{"Input", "HiddenPrev", "Weight", "Gate", "ResetHiddenPrev", GradVarName("Hidden")}

func inferGRUUnitGrad[T tensor.Float](ctx *Context[T], d *Desc) error {
	in, err := lookupAll(ctx.Scope, d, gradInputSlots...)
	if err != nil {
		return err
	}
	dims, err := inferDims(d, in[0], in[1], in[2])
	if err != nil {
		return err
	}
	if err := expectShape(d, "Gate", in[3], dims.GateShape()); err != nil {
		return err
	}
	if err := expectShape(d, "ResetHiddenPrev", in[4], dims.HiddenShape()); err != nil {
		return err
	}
	if err := expectShape(d, GradVarName("Hidden"), in[5], dims.HiddenShape()); err != nil {
		return err
	}

	outputs := []struct {
		slot  string
		shape tensor.Shape
	}{
		{GradVarName("Input"), dims.InputShape()},
		{GradVarName("HiddenPrev"), dims.HiddenShape()},
		{GradVarName("Weight"), dims.WeightShape()},
		{GradVarName("Bias"), dims.BiasShape()},
	}
	for _, o := range outputs {
		if _, err := ctx.Scope.ensureOutput(d, o.slot, o.shape); err != nil {
			return err
		}
	}
	return nil
}

func computeGRUUnitGrad[T tensor.Float](ctx *Context[T], d *Desc) error {
	in, err := lookupAll(ctx.Scope, d, gradInputSlots...)
	if err != nil {
		return err
	}
	gru.Backward(ctx.Backend, gruAttrs(d), gru.BackwardInputs[T]{
		Input:           in[0],
		HiddenPrev:      in[1],
		Weight:          in[2],
		Gate:            in[3],
		ResetHiddenPrev: in[4],
		HiddenGrad:      in[5],
	}, gru.BackwardOutputs[T]{
		InputGrad:      ctx.Scope.output(d, GradVarName("Input")),
		HiddenPrevGrad: ctx.Scope.output(d, GradVarName("HiddenPrev")),
		WeightGrad:     ctx.Scope.output(d, GradVarName("Weight")),
		BiasGrad:       ctx.Scope.output(d, GradVarName("Bias")),
	})
	return nil
}
