package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ZeroFilled(t *testing.T) {
	m := New[float32](2, 3)

	assert.Equal(t, Shape{2, 3}, m.Shape())
	assert.Equal(t, 3, m.Stride())
	assert.True(t, m.IsContiguous())
	assert.Equal(t, []float32{0, 0, 0, 0, 0, 0}, m.ToSlice())
	assert.Equal(t, Float32, m.DType())
}

func TestNew_InvalidShapePanics(t *testing.T) {
	assert.Panics(t, func() { New[float64](0, 3) })
	assert.Panics(t, func() { New[float64](2, -1) })
}

func TestFromSlice(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5, 6}
	m, err := FromSlice(data, 2, 3)
	require.NoError(t, err)

	assert.Equal(t, 6.0, m.At(1, 2))
	assert.Equal(t, []float64{4, 5, 6}, m.Row(1))

	// Copied, not aliased.
	data[0] = 100
	assert.Equal(t, 1.0, m.At(0, 0))
}

func TestFromSlice_WrongLength(t *testing.T) {
	_, err := FromSlice([]float32{1, 2, 3}, 2, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires 4 elements")

	_, err = FromSlice([]float32{}, 0, 2)
	require.Error(t, err)
}

func TestColSlice_SharesMemory(t *testing.T) {
	m, err := FromSlice([]float32{
		1, 2, 3, 4, 5, 6,
		7, 8, 9, 10, 11, 12,
	}, 2, 6)
	require.NoError(t, err)

	v := m.ColSlice(2, 4)
	assert.Equal(t, Shape{2, 2}, v.Shape())
	assert.Equal(t, 6, v.Stride())
	assert.False(t, v.IsContiguous())
	assert.Equal(t, []float32{3, 4, 9, 10}, v.ToSlice())
	// A view's backing slice ends at its last element.
	assert.Len(t, v.Data(), 6+2)

	v.Set(1, 0, -9)
	assert.Equal(t, float32(-9), m.At(1, 2))

	v.Fill(0)
	assert.Equal(t, []float32{1, 2, 0, 0, 5, 6, 7, 8, 0, 0, 11, 12}, m.ToSlice())
}

func TestColSlice_OfView(t *testing.T) {
	m := New[float64](3, 9)
	for i := 0; i < 3; i++ {
		for j := 0; j < 9; j++ {
			m.Set(i, j, float64(i*9+j))
		}
	}

	inner := m.ColSlice(3, 9).ColSlice(3, 6)
	assert.Equal(t, []float64{6, 7, 8, 15, 16, 17, 24, 25, 26}, inner.ToSlice())
}

func TestColSlice_OutOfRangePanics(t *testing.T) {
	m := New[float32](2, 3)
	assert.Panics(t, func() { m.ColSlice(2, 4) })
	assert.Panics(t, func() { m.ColSlice(2, 2) })
	assert.Panics(t, func() { m.ColSlice(-1, 1) })
}

func TestRowSlice(t *testing.T) {
	m, err := FromSlice([]float32{1, 2, 3, 4, 5, 6}, 3, 2)
	require.NoError(t, err)

	r := m.RowSlice(1, 3)
	assert.Equal(t, Shape{2, 2}, r.Shape())
	assert.Equal(t, []float32{3, 4, 5, 6}, r.ToSlice())

	row := m.ColSlice(1, 2).RowSlice(2, 3)
	assert.Equal(t, []float32{6}, row.ToSlice())
}

func TestNewView_ShortBufferPanics(t *testing.T) {
	assert.Panics(t, func() { NewView(make([]float32, 5), 2, 2, 4) })
	assert.Panics(t, func() { NewView(make([]float32, 8), 2, 3, 2) })
	assert.NotPanics(t, func() { NewView(make([]float32, 6), 2, 2, 4) })
}

func TestCloneAndCopyFrom(t *testing.T) {
	m, err := FromSlice([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
	require.NoError(t, err)

	c := m.ColSlice(1, 3).Clone()
	assert.True(t, c.IsContiguous())
	assert.Equal(t, []float64{2, 3, 5, 6}, c.ToSlice())

	c.Set(0, 0, 42)
	assert.Equal(t, 2.0, m.At(0, 1))

	m.ColSlice(0, 2).CopyFrom(c)
	assert.Equal(t, []float64{42, 3, 3, 5, 6, 6}, m.ToSlice())

	assert.Panics(t, func() { m.CopyFrom(c) })
}

func TestSum(t *testing.T) {
	m, err := FromSlice([]float32{1, 2, 3, 4, 5, 6}, 2, 3)
	require.NoError(t, err)

	assert.InDelta(t, 21.0, float64(m.Sum()), 1e-6)
	assert.InDelta(t, 16.0, float64(m.ColSlice(1, 3).Sum()), 1e-6)
}

func TestShape(t *testing.T) {
	s := Shape{4, 9}
	assert.Equal(t, 4, s.Rows())
	assert.Equal(t, 9, s.Cols())
	assert.Equal(t, 36, s.NumElements())
	assert.Equal(t, "[4, 9]", s.String())
	assert.NoError(t, s.Validate())
	assert.Error(t, Shape{0, 1}.Validate())
	assert.True(t, s.Equal(Shape{4, 9}))
	assert.False(t, s.Equal(Shape{9, 4}))
}

func TestDataType(t *testing.T) {
	assert.Equal(t, Float32, DataTypeOf[float32]())
	assert.Equal(t, Float64, DataTypeOf[float64]())
	assert.Equal(t, 4, Float32.Size())
	assert.Equal(t, 8, Float64.Size())
	assert.Equal(t, "float64", Float64.String())
	assert.Equal(t, "CPU", CPU.String())
}
