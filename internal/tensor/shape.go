package tensor

import "fmt"

// Shape is a 2-D matrix shape: {rows, cols}.
type Shape [2]int

// Rows returns the number of rows.
func (s Shape) Rows() int { return s[0] }

// Cols returns the number of columns.
func (s Shape) Cols() int { return s[1] }

// NumElements returns the total number of elements.
func (s Shape) NumElements() int {
	return s[0] * s[1]
}

// Validate checks that both dimensions are positive.
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim <= 0 {
			return fmt.Errorf("invalid dimension at index %d: %d (must be > 0)", i, dim)
		}
	}
	return nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	return s == other
}

// String formats the shape as [rows, cols].
func (s Shape) String() string {
	return fmt.Sprintf("[%d, %d]", s[0], s[1])
}
