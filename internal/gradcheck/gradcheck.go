// Package gradcheck verifies GRU backward gradients against central finite differences.
//
// The scalar loss is L = sum(Hidden ⊙ G), where G is the supplied upstream gradient (all
// ones by default, giving L = sum(Hidden)). Every element of Input, HiddenPrev, Weight and
// Bias is perturbed by ±epsilon in turn and the forward step is re-run:
//
//	dL/dx ≈ (L(x+ε) - L(x-ε)) / 2ε
package gradcheck

import (
	"fmt"
	"math"

	"github.com/born-ml/gru/internal/gru"
	"github.com/born-ml/gru/internal/tensor"
)

// DefaultEpsilon returns a step suited to the precision of T.
func DefaultEpsilon[T tensor.Float]() float64 {
	if tensor.DataTypeOf[T]() == tensor.Float32 {
		return 1e-2
	}
	return 1e-6
}

// Result summarizes the comparison for one gradient.
type Result struct {
	Name        string  // Input, HiddenPrev, Weight or Bias
	MaxAbsError float64 // largest |analytic - numeric|
	MaxRelError float64 // largest |analytic - numeric| / max(|analytic|, |numeric|, 1)
	Row, Col    int     // element with the largest relative error
	Analytic    float64 // analytic value at (Row, Col)
	Numeric     float64 // numeric value at (Row, Col)
}

// String formats the result for logs and test failures.
func (r Result) String() string {
	return fmt.Sprintf("%s: max rel %.3g, max abs %.3g at (%d,%d) analytic=%.6g numeric=%.6g",
		r.Name, r.MaxRelError, r.MaxAbsError, r.Row, r.Col, r.Analytic, r.Numeric)
}

// Inputs are the tensors of the step under test. They are perturbed in place during the
// check and restored before Check returns.
type Inputs[T tensor.Float] struct {
	Input      *tensor.Matrix[T]
	HiddenPrev *tensor.Matrix[T]
	Weight     *tensor.Matrix[T]
	Bias       *tensor.Matrix[T]
	HiddenGrad *tensor.Matrix[T] // nil means all ones
}

// Check runs forward and backward once, then compares every analytic gradient with its
// numerical estimate. Results are returned in the order Input, HiddenPrev, Weight, Bias.
func Check[T tensor.Float](b tensor.Backend[T], attrs gru.Attrs, in Inputs[T], epsilon float64) []Result {
	if epsilon <= 0 {
		epsilon = DefaultEpsilon[T]()
	}
	cell := gru.NewCell(b, attrs, in.Weight, in.Bias)

	hiddenGrad := in.HiddenGrad
	if hiddenGrad == nil {
		hiddenGrad = tensor.New[T](in.Input.Rows(), cell.FrameSize())
		hiddenGrad.Fill(1)
	}

	loss := func() float64 {
		s := cell.Step(in.Input, in.HiddenPrev)
		var l float64
		for i := 0; i < s.Hidden.Rows(); i++ {
			h, g := s.Hidden.Row(i), hiddenGrad.Row(i)
			for j := range h {
				l += float64(h[j]) * float64(g[j])
			}
		}
		return l
	}

	grads := cell.Grad(cell.Step(in.Input, in.HiddenPrev), hiddenGrad)

	targets := []struct {
		name     string
		value    *tensor.Matrix[T]
		analytic *tensor.Matrix[T]
	}{
		{"Input", in.Input, grads.Input},
		{"HiddenPrev", in.HiddenPrev, grads.HiddenPrev},
		{"Weight", in.Weight, grads.Weight},
		{"Bias", in.Bias, grads.Bias},
	}

	results := make([]Result, 0, len(targets))
	for _, tg := range targets {
		res := Result{Name: tg.name}
		for i := 0; i < tg.value.Rows(); i++ {
			for j := 0; j < tg.value.Cols(); j++ {
				orig := tg.value.At(i, j)
				plus, minus := orig+T(epsilon), orig-T(epsilon)
				tg.value.Set(i, j, plus)
				lp := loss()
				tg.value.Set(i, j, minus)
				lm := loss()
				tg.value.Set(i, j, orig)

				// Divide by the step actually taken; float32 rounding makes it differ from 2ε.
				numeric := (lp - lm) / float64(plus-minus)
				analytic := float64(tg.analytic.At(i, j))
				abs := math.Abs(analytic - numeric)
				rel := abs / math.Max(1, math.Max(math.Abs(analytic), math.Abs(numeric)))

				res.MaxAbsError = math.Max(res.MaxAbsError, abs)
				if rel > res.MaxRelError || (i == 0 && j == 0) {
					res.MaxRelError = rel
					res.Row, res.Col = i, j
					res.Analytic, res.Numeric = analytic, numeric
				}
			}
		}
		results = append(results, res)
	}
	return results
}

// Worst returns the result with the largest relative error.
func Worst(results []Result) Result {
	var worst Result
	for i, r := range results {
		if i == 0 || r.MaxRelError > worst.MaxRelError {
			worst = r
		}
	}
	return worst
}
