// Package config loads the grucell step configuration from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/gru/internal/activation"
	"github.com/born-ml/gru/internal/backend/cpu"
	"github.com/born-ml/gru/internal/gru"
	"github.com/born-ml/gru/internal/parallel"
)

// ErrInvalid is wrapped by every validation and parse error.
var ErrInvalid = errors.New("invalid config")

// Supported values of Config.DType and Config.Backend.
const (
	DTypeFloat32 = "float32"
	DTypeFloat64 = "float64"

	BackendBLAS  = "blas"
	BackendNaive = "naive"
)

// Config describes one GRU step: tensor sizes, attributes, backend and gradient-check
// tolerances. Inputs are generated from Seed.
type Config struct {
	DType          string           `yaml:"dtype"`
	BatchSize      int              `yaml:"batch_size"`
	FrameSize      int              `yaml:"frame_size"`
	GateActivation activation.Kind  `yaml:"gate_activation"`
	Activation     activation.Kind  `yaml:"activation"`
	WeightLayout   gru.WeightLayout `yaml:"weight_layout"`
	Backend        string           `yaml:"backend"`
	Seed           int64            `yaml:"seed"`

	// Epsilon is the finite-difference step; 0 selects the dtype default.
	Epsilon float64 `yaml:"epsilon"`
	// Tolerance is the largest accepted relative gradient error; 0 selects the dtype default.
	Tolerance float64 `yaml:"tolerance"`

	Parallel Parallel `yaml:"parallel"`
}

// Parallel mirrors parallel.Config.
type Parallel struct {
	Enabled  bool `yaml:"enabled"`
	Workers  int  `yaml:"workers"`
	MinChunk int  `yaml:"min_chunk"`
}

// Default returns a float64 batch of 4 with frame size 3, sigmoid gates and a tanh
// candidate on the BLAS backend.
func Default() Config {
	p := parallel.DefaultConfig()
	return Config{
		DType:          DTypeFloat64,
		BatchSize:      4,
		FrameSize:      3,
		GateActivation: activation.Sigmoid,
		Activation:     activation.Tanh,
		WeightLayout:   gru.LayoutColumns,
		Backend:        BackendBLAS,
		Seed:           1,
		Parallel: Parallel{
			Enabled:  p.Enabled,
			Workers:  p.NumWorkers,
			MinChunk: p.MinChunkSize,
		},
	}
}

// Load reads and validates the YAML file at path. Keys absent from the file keep their
// Default values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over Default and validates the result. Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every field.
func (c Config) Validate() error {
	switch c.DType {
	case DTypeFloat32, DTypeFloat64:
	default:
		return fmt.Errorf("%w: dtype %q (want float32 or float64)", ErrInvalid, c.DType)
	}
	if err := c.Dims().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if !c.GateActivation.Valid() {
		return fmt.Errorf("%w: gate_activation %d", ErrInvalid, int(c.GateActivation))
	}
	if !c.Activation.Valid() {
		return fmt.Errorf("%w: activation %d", ErrInvalid, int(c.Activation))
	}
	if !c.WeightLayout.Valid() {
		return fmt.Errorf("%w: weight_layout %d", ErrInvalid, int(c.WeightLayout))
	}
	switch c.Backend {
	case BackendBLAS, BackendNaive:
	default:
		return fmt.Errorf("%w: backend %q (want blas or naive)", ErrInvalid, c.Backend)
	}
	if c.Epsilon < 0 || c.Tolerance < 0 {
		return fmt.Errorf("%w: epsilon and tolerance must not be negative", ErrInvalid)
	}
	if c.Parallel.Workers < 0 || c.Parallel.MinChunk < 0 {
		return fmt.Errorf("%w: parallel workers and min_chunk must not be negative", ErrInvalid)
	}
	return nil
}

// Dims returns the batch and frame sizes.
func (c Config) Dims() gru.Dims {
	return gru.Dims{Batch: c.BatchSize, Frame: c.FrameSize}
}

// Attrs returns the kernel attributes.
func (c Config) Attrs() gru.Attrs {
	return gru.Attrs{
		GateActivation: c.GateActivation,
		Activation:     c.Activation,
		Layout:         c.WeightLayout,
	}
}

// CPUOptions returns the backend options selected by Backend and Parallel.
func (c Config) CPUOptions() []cpu.Option {
	opts := []cpu.Option{cpu.WithParallel(parallel.Config{
		Enabled:      c.Parallel.Enabled,
		NumWorkers:   c.Parallel.Workers,
		MinChunkSize: c.Parallel.MinChunk,
	})}
	if c.Backend == BackendNaive {
		opts = append(opts, cpu.WithNaiveGemm())
	}
	return opts
}

// GradTolerance returns Tolerance, or the default for DType when it is zero.
func (c Config) GradTolerance() float64 {
	if c.Tolerance > 0 {
		return c.Tolerance
	}
	if c.DType == DTypeFloat32 {
		return 1e-3
	}
	return 1e-6
}
