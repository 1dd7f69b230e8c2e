// Package op exposes the GRU kernels through an operator-style contract: named input and
// output variables resolved through a Scope, integer attributes, and gradient variables
// named with the @GRAD suffix.
//
// Running an operator is two steps: shape inference validates every input against the
// others and allocates missing outputs, then the kernel computes. Shape errors are returned
// as errors before any kernel runs; attribute values outside the supported activation set
// make the kernel panic.
package op

import (
	"errors"
	"sort"
)

// GradSuffix marks the gradient variable of another variable.
const GradSuffix = "@GRAD"

// Errors returned by shape inference and the registry.
var (
	ErrUnknownOp       = errors.New("unknown operator")
	ErrMissingVariable = errors.New("missing variable")
	ErrShapeMismatch   = errors.New("shape mismatch")
)

// GradVarName returns the name of the gradient variable for name.
func GradVarName(name string) string {
	return name + GradSuffix
}

// Desc describes one operator instance: which scope variables feed each input slot,
// which variables receive each output slot, and its attributes.
type Desc struct {
	Type    string
	Inputs  map[string]string // slot -> variable name
	Outputs map[string]string // slot -> variable name
	Attrs   map[string]int
}

// Input returns the variable bound to an input slot.
func (d *Desc) Input(slot string) (string, bool) {
	name, ok := d.Inputs[slot]
	return name, ok
}

// Output returns the variable bound to an output slot.
func (d *Desc) Output(slot string) (string, bool) {
	name, ok := d.Outputs[slot]
	return name, ok
}

// AttrInt returns an integer attribute or defaultVal when it is not set.
func (d *Desc) AttrInt(name string, defaultVal int) int {
	if v, ok := d.Attrs[name]; ok {
		return v
	}
	return defaultVal
}

// identityBinding maps every slot to a variable of the same name.
func identityBinding(slots ...string) map[string]string {
	m := make(map[string]string, len(slots))
	for _, s := range slots {
		m[s] = s
	}
	return m
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
