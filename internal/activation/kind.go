// Package activation maps an activation-kind tag to its elementwise forward function and
// its gradient.
//
// The set of kinds is closed: Identity, Sigmoid, Tanh and ReLU, numbered 0..3 to match
// the integer attribute encoding used by the gru_unit operator. Any other value is a
// configuration error and makes Forward, Grad and StrategyFor panic.
package activation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies an activation function.
type Kind int

// Supported activation kinds. The numeric values are part of the operator attribute contract.
const (
	Identity Kind = iota
	Sigmoid
	Tanh
	ReLU
)

// ErrUnknownKind is returned when parsing a name or number that is not a supported kind.
var ErrUnknownKind = errors.New("unknown activation kind")

var kindNames = [...]string{
	Identity: "identity",
	Sigmoid:  "sigmoid",
	Tanh:     "tanh",
	ReLU:     "relu",
}

// Kinds returns every supported kind in attribute order.
func Kinds() []Kind {
	return []Kind{Identity, Sigmoid, Tanh, ReLU}
}

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	return k >= Identity && k <= ReLU
}

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	if !k.Valid() {
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

// ParseKind accepts a kind name (case-insensitive) or its attribute number.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range kindNames {
		if n == name {
			return Kind(i), nil
		}
	}
	if n, err := strconv.Atoi(name); err == nil && Kind(n).Valid() {
		return Kind(n), nil
	}
	return 0, fmt.Errorf("%w: %q (want identity, sigmoid, tanh, relu or 0..3)", ErrUnknownKind, s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

func unsupported(k Kind) string {
	return fmt.Sprintf("activation: unsupported activation type %d", int(k))
}
