package main

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/born-ml/gru/internal/activation"
	"github.com/born-ml/gru/internal/config"
	"github.com/born-ml/gru/internal/gru"
)

// stepFlags holds the raw flag values shared by forward and gradcheck.
type stepFlags struct {
	configPath     string
	dtype          string
	batch          int
	frame          int
	gateActivation string
	activation     string
	layout         string
	backend        string
	seed           int64
	epsilon        float64
	tolerance      float64
}

func newRootCommand(log *logrus.Logger) *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "grucell",
		Short:         "Run and verify a single GRU step",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			lvl, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			log.SetLevel(lvl)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(
		newForwardCommand(log),
		newGradcheckCommand(log),
		newVersionCommand(),
	)
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "grucell %s\n", version)
		},
	}
}

func (f *stepFlags) register(cmd *cobra.Command, withTolerance bool) {
	fs := cmd.Flags()
	fs.StringVar(&f.configPath, "config", "", "YAML step configuration file")
	fs.StringVar(&f.dtype, "dtype", config.DTypeFloat64, "element type (float32, float64)")
	fs.IntVar(&f.batch, "batch", 4, "batch size")
	fs.IntVar(&f.frame, "frame", 3, "frame (hidden) size")
	fs.StringVar(&f.gateActivation, "gate-activation", "sigmoid", "update/reset activation (identity, sigmoid, tanh, relu)")
	fs.StringVar(&f.activation, "activation", "tanh", "candidate activation (identity, sigmoid, tanh, relu)")
	fs.StringVar(&f.layout, "layout", "columns", "weight layout (columns, packed)")
	fs.StringVar(&f.backend, "backend", config.BackendBLAS, "gemm backend (blas, naive)")
	fs.Int64Var(&f.seed, "seed", 1, "random seed for inputs and parameters")
	if withTolerance {
		fs.Float64Var(&f.epsilon, "epsilon", 0, "finite-difference step (0 selects the dtype default)")
		fs.Float64Var(&f.tolerance, "tolerance", 0, "maximum relative gradient error (0 selects the dtype default)")
	}
}

// resolve loads the config file when given and applies every flag set on the command
// line on top of it.
func (f *stepFlags) resolve(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		var err error
		if cfg, err = config.Load(f.configPath); err != nil {
			return cfg, err
		}
	}

	changed := cmd.Flags().Changed
	if changed("dtype") {
		cfg.DType = f.dtype
	}
	if changed("batch") {
		cfg.BatchSize = f.batch
	}
	if changed("frame") {
		cfg.FrameSize = f.frame
	}
	if changed("gate-activation") {
		k, err := activation.ParseKind(f.gateActivation)
		if err != nil {
			return cfg, fmt.Errorf("--gate-activation: %w", err)
		}
		cfg.GateActivation = k
	}
	if changed("activation") {
		k, err := activation.ParseKind(f.activation)
		if err != nil {
			return cfg, fmt.Errorf("--activation: %w", err)
		}
		cfg.Activation = k
	}
	if changed("layout") {
		l, err := gru.ParseWeightLayout(f.layout)
		if err != nil {
			return cfg, fmt.Errorf("--layout: %w", err)
		}
		cfg.WeightLayout = l
	}
	if changed("backend") {
		cfg.Backend = f.backend
	}
	if changed("seed") {
		cfg.Seed = f.seed
	}
	if changed("epsilon") {
		cfg.Epsilon = f.epsilon
	}
	if changed("tolerance") {
		cfg.Tolerance = f.tolerance
	}
	return cfg, cfg.Validate()
}

func logStep(log *logrus.Logger, cfg config.Config, backendName string) *logrus.Entry {
	return log.WithFields(logrus.Fields{
		"dtype":           cfg.DType,
		"batch":           cfg.BatchSize,
		"frame":           cfg.FrameSize,
		"gate_activation": cfg.GateActivation.String(),
		"activation":      cfg.Activation.String(),
		"layout":          cfg.WeightLayout.String(),
		"backend":         backendName,
		"seed":            cfg.Seed,
	})
}

func printMatrix(w io.Writer, name string, rows [][]float64) {
	fmt.Fprintf(w, "%s:\n", name)
	for _, r := range rows {
		for j, v := range r {
			if j > 0 {
				fmt.Fprint(w, " ")
			}
			fmt.Fprintf(w, "%.6f", v)
		}
		fmt.Fprintln(w)
	}
}
