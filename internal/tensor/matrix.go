package tensor

import "fmt"

// Matrix is a 2-D row-major matrix of T.
//
// A Matrix may be a view into a larger allocation: element (i, j) lives at
// data[i*stride+j], and stride may exceed cols when the view covers a column range of a
// wider parent. Views share memory with their parent, so writes through a view are visible
// in the parent and vice versa.
type Matrix[T Float] struct {
	data   []T
	rows   int
	cols   int
	stride int
}

// New allocates a zero-filled rows×cols matrix.
// Panics if either dimension is not positive.
func New[T Float](rows, cols int) *Matrix[T] {
	shape := Shape{rows, cols}
	if err := shape.Validate(); err != nil {
		panic(fmt.Sprintf("tensor: invalid shape %v: %v", shape, err))
	}
	return &Matrix[T]{
		data:   make([]T, rows*cols),
		rows:   rows,
		cols:   cols,
		stride: cols,
	}
}

// FromSlice creates a rows×cols matrix from row-major data.
// The slice is copied into the matrix's memory.
func FromSlice[T Float](data []T, rows, cols int) (*Matrix[T], error) {
	shape := Shape{rows, cols}
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	m := New[T](rows, cols)
	copy(m.data, data)
	return m, nil
}

// NewView wraps an existing buffer as a rows×cols matrix with the given row stride.
// The buffer is not copied. Panics if the buffer is too short for the view.
func NewView[T Float](data []T, rows, cols, stride int) *Matrix[T] {
	if rows <= 0 || cols <= 0 || stride < cols {
		panic(fmt.Sprintf("tensor: invalid view rows=%d cols=%d stride=%d", rows, cols, stride))
	}
	need := stride*(rows-1) + cols
	if len(data) < need {
		panic(fmt.Sprintf("tensor: view needs %d elements, buffer has %d", need, len(data)))
	}
	return &Matrix[T]{
		data:   data[:need],
		rows:   rows,
		cols:   cols,
		stride: stride,
	}
}

// Rows returns the number of rows.
func (m *Matrix[T]) Rows() int { return m.rows }

// Cols returns the number of columns.
func (m *Matrix[T]) Cols() int { return m.cols }

// Stride returns the distance in elements between the starts of consecutive rows.
func (m *Matrix[T]) Stride() int { return m.stride }

// Shape returns {rows, cols}.
func (m *Matrix[T]) Shape() Shape { return Shape{m.rows, m.cols} }

// DType returns the runtime element type.
func (m *Matrix[T]) DType() DataType { return DataTypeOf[T]() }

// Data returns the backing slice of the view, starting at element (0, 0).
// For non-contiguous views the slice includes the gaps between rows.
func (m *Matrix[T]) Data() []T { return m.data }

// IsContiguous reports whether rows are packed without gaps.
func (m *Matrix[T]) IsContiguous() bool { return m.stride == m.cols || m.rows == 1 }

// At returns element (i, j).
func (m *Matrix[T]) At(i, j int) T {
	return m.data[i*m.stride+j]
}

// Set assigns element (i, j).
func (m *Matrix[T]) Set(i, j int, v T) {
	m.data[i*m.stride+j] = v
}

// Row returns row i as a slice of length Cols sharing memory with m.
func (m *Matrix[T]) Row(i int) []T {
	start := i * m.stride
	return m.data[start : start+m.cols : start+m.cols]
}

// ColSlice returns a view of columns [c0, c1).
func (m *Matrix[T]) ColSlice(c0, c1 int) *Matrix[T] {
	if c0 < 0 || c1 > m.cols || c0 >= c1 {
		panic(fmt.Sprintf("tensor: column range [%d, %d) out of bounds for %d columns", c0, c1, m.cols))
	}
	return NewView(m.data[c0:], m.rows, c1-c0, m.stride)
}

// RowSlice returns a view of rows [r0, r1).
func (m *Matrix[T]) RowSlice(r0, r1 int) *Matrix[T] {
	if r0 < 0 || r1 > m.rows || r0 >= r1 {
		panic(fmt.Sprintf("tensor: row range [%d, %d) out of bounds for %d rows", r0, r1, m.rows))
	}
	return NewView(m.data[r0*m.stride:], r1-r0, m.cols, m.stride)
}

// Fill sets every element of the view to v.
func (m *Matrix[T]) Fill(v T) {
	for i := 0; i < m.rows; i++ {
		row := m.Row(i)
		for j := range row {
			row[j] = v
		}
	}
}

// CopyFrom copies src into m element by element. Shapes must match.
func (m *Matrix[T]) CopyFrom(src *Matrix[T]) {
	if !m.Shape().Equal(src.Shape()) {
		panic(fmt.Sprintf("tensor: copy shape mismatch %v <- %v", m.Shape(), src.Shape()))
	}
	for i := 0; i < m.rows; i++ {
		copy(m.Row(i), src.Row(i))
	}
}

// Clone returns a contiguous deep copy of the view.
func (m *Matrix[T]) Clone() *Matrix[T] {
	out := New[T](m.rows, m.cols)
	out.CopyFrom(m)
	return out
}

// ToSlice returns the elements in row-major order as a fresh slice.
func (m *Matrix[T]) ToSlice() []T {
	out := make([]T, 0, m.rows*m.cols)
	for i := 0; i < m.rows; i++ {
		out = append(out, m.Row(i)...)
	}
	return out
}

// Sum returns the sum of all elements.
func (m *Matrix[T]) Sum() T {
	var s T
	for i := 0; i < m.rows; i++ {
		for _, v := range m.Row(i) {
			s += v
		}
	}
	return s
}
