package gru

import (
	"fmt"
	"strings"

	"github.com/born-ml/gru/internal/tensor"
)

// Dims holds the two sizes every GRU tensor is derived from.
type Dims struct {
	Batch int // rows of Input, HiddenPrev, Gate, ResetHiddenPrev, Hidden
	Frame int // hidden-state width
}

// GateWidth is the width of the concatenated update/reset/candidate columns.
func (d Dims) GateWidth() int { return 3 * d.Frame }

// Validate checks that both sizes are positive.
func (d Dims) Validate() error {
	if d.Batch <= 0 || d.Frame <= 0 {
		return fmt.Errorf("batch size and frame size must be positive, got batch=%d frame=%d", d.Batch, d.Frame)
	}
	return nil
}

// Shapes of every forward and backward tensor for dims d.
func (d Dims) InputShape() tensor.Shape  { return tensor.Shape{d.Batch, d.GateWidth()} }
func (d Dims) HiddenShape() tensor.Shape { return tensor.Shape{d.Batch, d.Frame} }
func (d Dims) WeightShape() tensor.Shape { return tensor.Shape{d.Frame, d.GateWidth()} }
func (d Dims) BiasShape() tensor.Shape   { return tensor.Shape{1, d.GateWidth()} }
func (d Dims) GateShape() tensor.Shape   { return d.InputShape() }

// WeightLayout selects how the frame×3·frame Weight buffer is split into the update/reset
// block and the candidate block. dWeight always uses the same layout as Weight.
type WeightLayout int

const (
	// LayoutColumns treats Weight as one row-major frame×3·frame matrix: columns [0, 2f) hold
	// the update/reset weights and columns [2f, 3f) the candidate weights.
	LayoutColumns WeightLayout = iota

	// LayoutPacked stores a row-major frame×2·frame update/reset block followed by a
	// row-major frame×frame candidate block in the same 3·frame² elements.
	LayoutPacked
)

// String returns the layout name.
func (l WeightLayout) String() string {
	switch l {
	case LayoutColumns:
		return "columns"
	case LayoutPacked:
		return "packed"
	default:
		return fmt.Sprintf("WeightLayout(%d)", int(l))
	}
}

// ParseWeightLayout parses "columns" or "packed".
func ParseWeightLayout(s string) (WeightLayout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "columns", "":
		return LayoutColumns, nil
	case "packed":
		return LayoutPacked, nil
	default:
		return 0, fmt.Errorf("unknown weight layout %q (want columns or packed)", s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *WeightLayout) UnmarshalText(text []byte) error {
	parsed, err := ParseWeightLayout(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Valid reports whether l is a known layout.
func (l WeightLayout) Valid() bool {
	return l == LayoutColumns || l == LayoutPacked
}

// splitWeight returns the frame×2·frame update/reset view and the frame×frame candidate view
// of w (a Weight or dWeight buffer).
func splitWeight[T tensor.Float](l WeightLayout, w *tensor.Matrix[T], frame int) (ur, c *tensor.Matrix[T]) {
	switch l {
	case LayoutColumns:
		return w.ColSlice(0, 2*frame), w.ColSlice(2*frame, 3*frame)
	case LayoutPacked:
		if !w.IsContiguous() {
			panic("gru: packed weight layout requires a contiguous weight buffer")
		}
		data := w.Data()
		return tensor.NewView(data, frame, 2*frame, 2*frame),
			tensor.NewView(data[2*frame*frame:], frame, frame, frame)
	default:
		panic(fmt.Sprintf("gru: unsupported weight layout %d", int(l)))
	}
}

// Relayout copies w from one layout to the other and returns the copy. The shape stays
// frame×3·frame; only the element order changes.
func Relayout[T tensor.Float](w *tensor.Matrix[T], from, to WeightLayout) *tensor.Matrix[T] {
	frame := w.Rows()
	out := tensor.New[T](frame, 3*frame)
	srcUR, srcC := splitWeight(from, w, frame)
	dstUR, dstC := splitWeight(to, out, frame)
	dstUR.CopyFrom(srcUR)
	dstC.CopyFrom(srcC)
	return out
}

// checkShape panics with a descriptive message when m does not have shape want.
func checkShape[T tensor.Float](name string, m *tensor.Matrix[T], want tensor.Shape) {
	if m == nil {
		panic(fmt.Sprintf("gru: %s is nil", name))
	}
	if !m.Shape().Equal(want) {
		panic(fmt.Sprintf("gru: %s has shape %v, want %v", name, m.Shape(), want))
	}
}

// checkOptionalShape is checkShape for outputs the caller may leave nil.
func checkOptionalShape[T tensor.Float](name string, m *tensor.Matrix[T], want tensor.Shape) {
	if m != nil {
		checkShape(name, m, want)
	}
}
