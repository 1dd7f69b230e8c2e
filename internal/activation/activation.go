package activation

import (
	"math"

	"github.com/born-ml/gru/internal/tensor"
)

// Strategy pairs an activation's forward function with its gradient.
//
// Grad receives the post-activation value y and the upstream gradient dy and returns the
// gradient with respect to the pre-activation input. Every supported kind can be
// differentiated from y alone, so the pre-activation value is never needed.
type Strategy[T tensor.Float] struct {
	Forward func(x T) T
	Grad    func(y, dy T) T
}

// StrategyFor returns the forward/gradient pair for k.
// Panics for unsupported kinds.
func StrategyFor[T tensor.Float](k Kind) Strategy[T] {
	switch k {
	case Identity:
		return Strategy[T]{Forward: identity[T], Grad: identityGrad[T]}
	case Sigmoid:
		return Strategy[T]{Forward: sigmoid[T], Grad: sigmoidGrad[T]}
	case Tanh:
		return Strategy[T]{Forward: tanh[T], Grad: tanhGrad[T]}
	case ReLU:
		return Strategy[T]{Forward: relu[T], Grad: reluGrad[T]}
	default:
		panic(unsupported(k))
	}
}

// Forward computes y = act(x) elementwise through the backend. x and y may be the same view.
func Forward[T tensor.Float](b tensor.Backend[T], k Kind, x, y *tensor.Matrix[T]) {
	s := StrategyFor[T](k)
	b.Apply(y, x, s.Forward)
}

// Grad computes dx = act'(x) * dy elementwise through the backend.
//
// x is the pre-activation input and is accepted for symmetry with Forward; the gradient is
// evaluated from the post-activation y (Identity needs neither). When the caller only keeps
// the post-activation buffer, passing it as both x and y is valid.
func Grad[T tensor.Float](b tensor.Backend[T], k Kind, x, y, dy, dx *tensor.Matrix[T]) {
	s := StrategyFor[T](k)
	if k == Identity {
		b.Apply(dx, dy, identity[T])
		return
	}
	b.Combine(dx, y, dy, s.Grad)
}

func identity[T tensor.Float](x T) T { return x }

func identityGrad[T tensor.Float](_, dy T) T { return dy }

// sigmoid is evaluated in float64 and split on the sign of x so exp never overflows.
func sigmoid[T tensor.Float](x T) T {
	v := float64(x)
	if v >= 0 {
		return T(1 / (1 + math.Exp(-v)))
	}
	e := math.Exp(v)
	return T(e / (1 + e))
}

func sigmoidGrad[T tensor.Float](y, dy T) T { return dy * y * (1 - y) }

func tanh[T tensor.Float](x T) T { return T(math.Tanh(float64(x))) }

func tanhGrad[T tensor.Float](y, dy T) T { return dy * (1 - y*y) }

func relu[T tensor.Float](x T) T {
	if x > 0 {
		return x
	}
	return 0
}

// reluGrad treats the kink at 0 as inactive.
func reluGrad[T tensor.Float](y, dy T) T {
	if y > 0 {
		return dy
	}
	return 0
}
