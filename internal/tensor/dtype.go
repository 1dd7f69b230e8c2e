// Package tensor provides the row-major matrix type and backend contract shared by the
// GRU kernels.
package tensor

// Float is the constraint for matrix element types.
// Only exact float32 and float64 are accepted so backends can hand slices straight to BLAS.
type Float interface {
	float32 | float64
}

// DataType represents runtime type information for matrices.
type DataType int

// Supported data types.
const (
	Float32 DataType = iota
	Float64
)

// Size returns the byte size of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float32:
		return 4
	case Float64:
		return 8
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return "unknown"
	}
}

// DataTypeOf returns the DataType for T.
func DataTypeOf[T Float]() DataType {
	var zero T
	switch any(zero).(type) {
	case float32:
		return Float32
	default:
		return Float64
	}
}

// Device represents the compute device a backend runs on.
type Device int

// Supported compute devices.
const (
	CPU Device = iota
	CUDA
	Vulkan
	Metal
	WebGPU
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	case CUDA:
		return "CUDA"
	case Vulkan:
		return "Vulkan"
	case Metal:
		return "Metal"
	case WebGPU:
		return "WebGPU"
	default:
		return "Unknown"
	}
}
