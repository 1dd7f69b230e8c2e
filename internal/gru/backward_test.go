package gru_test

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/gru/internal/activation"
	"github.com/born-ml/gru/internal/backend/cpu"
	"github.com/born-ml/gru/internal/gradcheck"
	"github.com/born-ml/gru/internal/gru"
	"github.com/born-ml/gru/internal/tensor"
)

func randMatrix[T tensor.Float](rng *rand.Rand, rows, cols int, scale float64) *tensor.Matrix[T] {
	m := tensor.New[T](rows, cols)
	for i := 0; i < rows; i++ {
		row := m.Row(i)
		for j := range row {
			row[j] = T((rng.Float64()*2 - 1) * scale)
		}
	}
	return m
}

func randCheckInputs[T tensor.Float](rng *rand.Rand, d gru.Dims) gradcheck.Inputs[T] {
	return gradcheck.Inputs[T]{
		Input:      randMatrix[T](rng, d.Batch, d.GateWidth(), 1),
		HiddenPrev: randMatrix[T](rng, d.Batch, d.Frame, 1),
		Weight:     randMatrix[T](rng, d.Frame, d.GateWidth(), 0.5),
		Bias:       randMatrix[T](rng, 1, d.GateWidth(), 0.5),
	}
}

// TestBackward_FiniteDifferences64 compares every gradient with central differences of
// sum(Hidden) for all activation combinations in double precision.
func TestBackward_FiniteDifferences64(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	d := gru.Dims{Batch: 4, Frame: 3}

	for _, gk := range activation.Kinds() {
		for _, ck := range activation.Kinds() {
			t.Run(gk.String()+"/"+ck.String(), func(t *testing.T) {
				attrs := gru.Attrs{GateActivation: gk, Activation: ck}
				results := gradcheck.Check(cpu.New[float64](), attrs, randCheckInputs[float64](rng, d), 1e-6)

				require.Len(t, results, 4)
				for _, r := range results {
					assert.Less(t, r.MaxRelError, 1e-6, r.String())
				}
			})
		}
	}
}

// TestBackward_FiniteDifferences32 runs the check in single precision for the smooth
// activations; ReLU's kink is too likely to fall inside a float32-sized step.
func TestBackward_FiniteDifferences32(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	smooth := []activation.Kind{activation.Identity, activation.Sigmoid, activation.Tanh}

	for _, d := range []gru.Dims{{Batch: 1, Frame: 1}, {Batch: 4, Frame: 3}} {
		for _, gk := range smooth {
			for _, ck := range smooth {
				attrs := gru.Attrs{GateActivation: gk, Activation: ck}
				results := gradcheck.Check(cpu.New[float32](), attrs, randCheckInputs[float32](rng, d), 0)

				for _, r := range results {
					assert.Less(t, r.MaxRelError, 1e-3, "%s/%s %v: %s", gk, ck, d, r)
				}
			}
		}
	}
}

// TestBackward_WeightedLoss uses a random upstream gradient instead of all ones.
func TestBackward_WeightedLoss(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	d := gru.Dims{Batch: 3, Frame: 4}
	in := randCheckInputs[float64](rng, d)
	in.HiddenGrad = randMatrix[float64](rng, d.Batch, d.Frame, 2)

	results := gradcheck.Check(cpu.New[float64](cpu.WithNaiveGemm()), gru.DefaultAttrs(), in, 1e-6)
	worst := gradcheck.Worst(results)
	assert.Less(t, worst.MaxRelError, 1e-6, worst.String())
}

func TestBackward_PackedLayoutFiniteDifferences(t *testing.T) {
	rng := rand.New(rand.NewSource(12))
	d := gru.Dims{Batch: 2, Frame: 3}
	attrs := gru.DefaultAttrs()
	attrs.Layout = gru.LayoutPacked

	results := gradcheck.Check(cpu.New[float64](), attrs, randCheckInputs[float64](rng, d), 1e-6)
	for _, r := range results {
		assert.Less(t, r.MaxRelError, 1e-6, r.String())
	}
}

// TestBackward_PackedMatchesColumns checks that the packed layout yields the same gradients
// as the column layout once dWeight is converted back.
func TestBackward_PackedMatchesColumns(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	d := gru.Dims{Batch: 4, Frame: 3}
	in := randCheckInputs[float64](rng, d)
	backend := cpu.New[float64]()
	dh := randMatrix[float64](rng, d.Batch, d.Frame, 1)

	colCell := gru.NewCell(backend, gru.DefaultAttrs(), in.Weight, in.Bias)
	colGrads := colCell.Grad(colCell.Step(in.Input, in.HiddenPrev), dh)

	attrs := gru.DefaultAttrs()
	attrs.Layout = gru.LayoutPacked
	packedCell := gru.NewCell(backend, attrs, gru.Relayout(in.Weight, gru.LayoutColumns, gru.LayoutPacked), in.Bias)
	packedGrads := packedCell.Grad(packedCell.Step(in.Input, in.HiddenPrev), dh)

	assert.InDeltaSlice(t, colGrads.Input.ToSlice(), packedGrads.Input.ToSlice(), 1e-12)
	assert.InDeltaSlice(t, colGrads.HiddenPrev.ToSlice(), packedGrads.HiddenPrev.ToSlice(), 1e-12)
	assert.InDeltaSlice(t, colGrads.Bias.ToSlice(), packedGrads.Bias.ToSlice(), 1e-12)
	assert.InDeltaSlice(t, colGrads.Weight.ToSlice(),
		gru.Relayout(packedGrads.Weight, gru.LayoutPacked, gru.LayoutColumns).ToSlice(), 1e-12)
}

// TestBackward_BiasGradIsColumnSumOfInputGrad checks dBias = Σ_batch dGate and dInput = dGate.
func TestBackward_BiasGradIsColumnSumOfInputGrad(t *testing.T) {
	rng := rand.New(rand.NewSource(14))
	d := gru.Dims{Batch: 4, Frame: 3}
	in := randCheckInputs[float64](rng, d)
	dh := randMatrix[float64](rng, d.Batch, d.Frame, 1)

	cell := gru.NewCell(cpu.New[float64](), gru.DefaultAttrs(), in.Weight, in.Bias)
	g := cell.Grad(cell.Step(in.Input, in.HiddenPrev), dh)

	for j := 0; j < d.GateWidth(); j++ {
		var sum float64
		for i := 0; i < d.Batch; i++ {
			sum += g.Input.At(i, j)
		}
		assert.InDelta(t, sum, g.Bias.At(0, j), 1e-12, "column %d", j)
	}
}

func TestBackward_OptionalOutputs(t *testing.T) {
	rng := rand.New(rand.NewSource(15))
	d := gru.Dims{Batch: 3, Frame: 2}
	in := randCheckInputs[float64](rng, d)
	dh := randMatrix[float64](rng, d.Batch, d.Frame, 1)
	backend := cpu.New[float64]()
	attrs := gru.DefaultAttrs()

	fwd := gru.NewForwardOutputs[float64](d)
	gru.Forward(backend, attrs, gru.ForwardInputs[float64]{
		Input: in.Input, HiddenPrev: in.HiddenPrev, Weight: in.Weight, Bias: in.Bias,
	}, fwd)
	bin := gru.BackwardInputs[float64]{
		Input:           in.Input,
		HiddenPrev:      in.HiddenPrev,
		Weight:          in.Weight,
		Gate:            fwd.Gate,
		ResetHiddenPrev: fwd.ResetHiddenPrev,
		HiddenGrad:      dh,
	}

	full := gru.NewBackwardOutputs[float64](d)
	gru.Backward(backend, attrs, bin, full)

	onlyHidden := gru.BackwardOutputs[float64]{HiddenPrevGrad: tensor.New[float64](d.Batch, d.Frame)}
	gru.Backward(backend, attrs, bin, onlyHidden)
	assert.Equal(t, full.HiddenPrevGrad.ToSlice(), onlyHidden.HiddenPrevGrad.ToSlice())

	onlyWeight := gru.BackwardOutputs[float64]{WeightGrad: tensor.New[float64](d.Frame, d.GateWidth())}
	gru.Backward(backend, attrs, bin, onlyWeight)
	assert.Equal(t, full.WeightGrad.ToSlice(), onlyWeight.WeightGrad.ToSlice())

	assert.NotPanics(t, func() {
		gru.Backward(backend, attrs, bin, gru.BackwardOutputs[float64]{})
	})
}

// TestBackward_ReadsForwardValuesOnly checks that Backward leaves its inputs untouched, so
// one forward state can be differentiated repeatedly.
func TestBackward_ReadsForwardValuesOnly(t *testing.T) {
	rng := rand.New(rand.NewSource(16))
	d := gru.Dims{Batch: 2, Frame: 3}
	in := randCheckInputs[float32](rng, d)
	cell := gru.NewCell(cpu.New[float32](), gru.DefaultAttrs(), in.Weight, in.Bias)
	s := cell.Step(in.Input, in.HiddenPrev)

	gate := s.Gate.Clone()
	rhp := s.ResetHiddenPrev.Clone()
	weight := in.Weight.Clone()
	dh := randMatrix[float32](rng, d.Batch, d.Frame, 1)

	first := cell.Grad(s, dh)
	second := cell.Grad(s, dh)

	assert.Equal(t, gate.ToSlice(), s.Gate.ToSlice())
	assert.Equal(t, rhp.ToSlice(), s.ResetHiddenPrev.ToSlice())
	assert.Equal(t, weight.ToSlice(), in.Weight.ToSlice())
	assert.Equal(t, first.Weight.ToSlice(), second.Weight.ToSlice())
	assert.Equal(t, first.HiddenPrev.ToSlice(), second.HiddenPrev.ToSlice())
}

func TestBackward_BackendsAgree(t *testing.T) {
	rng := rand.New(rand.NewSource(17))
	d := gru.Dims{Batch: 4, Frame: 8}
	in := randCheckInputs[float64](rng, d)
	dh := randMatrix[float64](rng, d.Batch, d.Frame, 1)

	run := func(backend tensor.Backend[float64]) *gru.Grads[float64] {
		cell := gru.NewCell(backend, gru.DefaultAttrs(), in.Weight, in.Bias)
		return cell.Grad(cell.Step(in.Input, in.HiddenPrev), dh)
	}
	a := run(cpu.New[float64]())
	b := run(cpu.New[float64](cpu.WithNaiveGemm()))

	assert.InDeltaSlice(t, a.Input.ToSlice(), b.Input.ToSlice(), 1e-12)
	assert.InDeltaSlice(t, a.HiddenPrev.ToSlice(), b.HiddenPrev.ToSlice(), 1e-12)
	assert.InDeltaSlice(t, a.Weight.ToSlice(), b.Weight.ToSlice(), 1e-12)
	assert.InDeltaSlice(t, a.Bias.ToSlice(), b.Bias.ToSlice(), 1e-12)
}

func TestBackward_UnsupportedActivationPanics(t *testing.T) {
	d := gru.Dims{Batch: 1, Frame: 2}
	bin := gru.BackwardInputs[float32]{
		Input:           tensor.New[float32](1, 6),
		HiddenPrev:      tensor.New[float32](1, 2),
		Weight:          tensor.New[float32](2, 6),
		Gate:            tensor.New[float32](1, 6),
		ResetHiddenPrev: tensor.New[float32](1, 2),
		HiddenGrad:      tensor.New[float32](1, 2),
	}
	backend := cpu.New[float32]()

	assert.PanicsWithValue(t, "gru: unsupported activation type 4 for gate_activation", func() {
		gru.Backward(backend, gru.Attrs{GateActivation: 4, Activation: activation.Tanh}, bin, gru.NewBackwardOutputs[float32](d))
	})
	assert.PanicsWithValue(t, "gru: unsupported activation type 17 for activation", func() {
		gru.Backward(backend, gru.Attrs{GateActivation: activation.ReLU, Activation: 17}, bin, gru.NewBackwardOutputs[float32](d))
	})
}

func TestBackward_ShapeMismatchPanics(t *testing.T) {
	d := gru.Dims{Batch: 2, Frame: 2}
	bin := gru.BackwardInputs[float64]{
		Input:           tensor.New[float64](2, 6),
		HiddenPrev:      tensor.New[float64](2, 2),
		Weight:          tensor.New[float64](2, 6),
		Gate:            tensor.New[float64](2, 6),
		ResetHiddenPrev: tensor.New[float64](2, 2),
		HiddenGrad:      tensor.New[float64](1, 2),
	}
	backend := cpu.New[float64]()

	assert.PanicsWithValue(t, "gru: Hidden@GRAD has shape [1, 2], want [2, 2]", func() {
		gru.Backward(backend, gru.DefaultAttrs(), bin, gru.NewBackwardOutputs[float64](d))
	})

	bin.HiddenGrad = tensor.New[float64](2, 2)
	out := gru.NewBackwardOutputs[float64](d)
	out.BiasGrad = tensor.New[float64](2, 6)
	assert.PanicsWithValue(t, "gru: Bias@GRAD has shape [2, 6], want [1, 6]", func() {
		gru.Backward(backend, gru.DefaultAttrs(), bin, out)
	})
}

// TestCell_ConcurrentSteps runs independent forward/backward pairs on one cell at once.
func TestCell_ConcurrentSteps(t *testing.T) {
	rng := rand.New(rand.NewSource(18))
	d := gru.Dims{Batch: 2, Frame: 4}
	params := randCheckInputs[float64](rng, d)
	cell := gru.NewCell(cpu.New[float64](), gru.DefaultAttrs(), params.Weight, params.Bias)

	const steps = 8
	inputs := make([]gradcheck.Inputs[float64], steps)
	want := make([]*gru.Grads[float64], steps)
	for i := range inputs {
		inputs[i] = randCheckInputs[float64](rng, d)
		inputs[i].HiddenGrad = randMatrix[float64](rng, d.Batch, d.Frame, 1)
		want[i] = cell.Grad(cell.Step(inputs[i].Input, inputs[i].HiddenPrev), inputs[i].HiddenGrad)
	}

	got := make([]*gru.Grads[float64], steps)
	var wg sync.WaitGroup
	for i := range inputs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = cell.Grad(cell.Step(inputs[i].Input, inputs[i].HiddenPrev), inputs[i].HiddenGrad)
		}(i)
	}
	wg.Wait()

	for i := range want {
		assert.Equal(t, want[i].Weight.ToSlice(), got[i].Weight.ToSlice(), "step %d", i)
		assert.Equal(t, want[i].HiddenPrev.ToSlice(), got[i].HiddenPrev.ToSlice(), "step %d", i)
	}
}

func BenchmarkBackward(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	d := gru.Dims{Batch: 32, Frame: 128}
	in := randCheckInputs[float32](rng, d)
	cell := gru.NewCell(cpu.New[float32](), gru.DefaultAttrs(), in.Weight, in.Bias)
	s := cell.Step(in.Input, in.HiddenPrev)
	dh := randMatrix[float32](rng, d.Batch, d.Frame, 1)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cell.Grad(s, dh)
	}
}
