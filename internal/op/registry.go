package op

import (
	"fmt"

	"github.com/born-ml/gru/internal/tensor"
)

// Context provides the backend and the variable scope operators run against.
type Context[T tensor.Float] struct {
	Backend tensor.Backend[T]
	Scope   *Scope[T]
}

// Operator is a registered operator type.
type Operator[T tensor.Float] struct {
	// InferShape checks input shapes against each other and allocates missing outputs.
	InferShape func(ctx *Context[T], d *Desc) error

	// Compute runs the kernel. Inputs and outputs are already validated.
	Compute func(ctx *Context[T], d *Desc) error
}

// Registry maps operator types to their implementations.
type Registry[T tensor.Float] struct {
	ops map[string]Operator[T]
}

// NewRegistry creates a registry with gru_unit and gru_unit_grad registered.
func NewRegistry[T tensor.Float]() *Registry[T] {
	r := &Registry[T]{ops: make(map[string]Operator[T])}
	r.registerGRUUnit()
	return r
}

// Register adds or replaces an operator.
func (r *Registry[T]) Register(opType string, o Operator[T]) {
	r.ops[opType] = o
}

// Get returns the operator registered for opType.
func (r *Registry[T]) Get(opType string) (Operator[T], bool) {
	o, ok := r.ops[opType]
	return o, ok
}

// SupportedOps returns every registered operator type in sorted order.
func (r *Registry[T]) SupportedOps() []string {
	return sortedKeys(r.ops)
}

// Run infers shapes and then computes d.
func (r *Registry[T]) Run(ctx *Context[T], d *Desc) error {
	o, ok := r.ops[d.Type]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownOp, d.Type)
	}
	if o.InferShape != nil {
		if err := o.InferShape(ctx, d); err != nil {
			return err
		}
	}
	return o.Compute(ctx, d)
}
