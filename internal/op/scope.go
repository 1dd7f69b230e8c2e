package op

import (
	"fmt"
	"sync"

	"github.com/born-ml/gru/internal/tensor"
)

// Scope maps variable names to matrices. It is safe for concurrent use, but the matrices
// themselves are not: two operators must not write the same variable at once.
type Scope[T tensor.Float] struct {
	mu   sync.RWMutex
	vars map[string]*tensor.Matrix[T]
}

// NewScope creates an empty scope.
func NewScope[T tensor.Float]() *Scope[T] {
	return &Scope[T]{vars: make(map[string]*tensor.Matrix[T])}
}

// Set binds name to m, replacing any previous binding.
func (s *Scope[T]) Set(name string, m *tensor.Matrix[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vars[name] = m
}

// Get returns the matrix bound to name.
func (s *Scope[T]) Get(name string) (*tensor.Matrix[T], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.vars[name]
	return m, ok
}

// Names returns every bound variable name in sorted order.
func (s *Scope[T]) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.vars)
}

// lookup resolves an input slot of d to its matrix.
func (s *Scope[T]) lookup(d *Desc, slot string) (*tensor.Matrix[T], error) {
	name, ok := d.Input(slot)
	if !ok {
		return nil, fmt.Errorf("%s: input slot %s not bound: %w", d.Type, slot, ErrMissingVariable)
	}
	m, ok := s.Get(name)
	if !ok || m == nil {
		return nil, fmt.Errorf("%s: input %s (variable %q) not in scope: %w", d.Type, slot, name, ErrMissingVariable)
	}
	return m, nil
}

// ensureOutput makes sure the variable bound to an output slot holds a matrix of shape
// want, allocating it when absent. Unbound slots are skipped and yield nil.
func (s *Scope[T]) ensureOutput(d *Desc, slot string, want tensor.Shape) (*tensor.Matrix[T], error) {
	name, ok := d.Output(slot)
	if !ok {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.vars[name]; ok && m != nil {
		if !m.Shape().Equal(want) {
			return nil, fmt.Errorf("%s: output %s (variable %q) has shape %v, want %v: %w",
				d.Type, slot, name, m.Shape(), want, ErrShapeMismatch)
		}
		return m, nil
	}
	m := tensor.New[T](want.Rows(), want.Cols())
	s.vars[name] = m
	return m, nil
}

// output returns the matrix bound to an output slot after shape inference, or nil when the
// slot is unbound.
func (s *Scope[T]) output(d *Desc, slot string) *tensor.Matrix[T] {
	name, ok := d.Output(slot)
	if !ok {
		return nil
	}
	m, _ := s.Get(name)
	return m
}
