package main

import (
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/born-ml/gru/internal/backend/cpu"
	"github.com/born-ml/gru/internal/config"
	"github.com/born-ml/gru/internal/gradcheck"
	"github.com/born-ml/gru/internal/gru"
	"github.com/born-ml/gru/internal/tensor"
)

func newForwardCommand(log *logrus.Logger) *cobra.Command {
	var flags stepFlags
	cmd := &cobra.Command{
		Use:   "forward",
		Short: "Run one forward step on seeded random tensors and print Hidden",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.resolve(cmd)
			if err != nil {
				return err
			}
			var hidden [][]float64
			if cfg.DType == config.DTypeFloat32 {
				hidden = forward[float32](log, cfg)
			} else {
				hidden = forward[float64](log, cfg)
			}
			printMatrix(cmd.OutOrStdout(), "Hidden", hidden)
			return nil
		},
	}
	flags.register(cmd, false)
	return cmd
}

func newGradcheckCommand(log *logrus.Logger) *cobra.Command {
	var flags stepFlags
	cmd := &cobra.Command{
		Use:   "gradcheck",
		Short: "Compare backward gradients with central finite differences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.resolve(cmd)
			if err != nil {
				return err
			}
			var results []gradcheck.Result
			if cfg.DType == config.DTypeFloat32 {
				results = check[float32](log, cfg)
			} else {
				results = check[float64](log, cfg)
			}

			tol := cfg.GradTolerance()
			failed := 0
			for _, r := range results {
				entry := log.WithFields(logrus.Fields{
					"grad":    r.Name,
					"max_rel": r.MaxRelError,
					"max_abs": r.MaxAbsError,
					"row":     r.Row,
					"col":     r.Col,
				})
				if r.MaxRelError > tol {
					failed++
					entry.Warn("gradient mismatch")
				} else {
					entry.Info("gradient ok")
				}
			}
			worst := gradcheck.Worst(results)
			fmt.Fprintf(cmd.OutOrStdout(), "worst %s (tolerance %.3g)\n", worst, tol)
			if failed > 0 {
				return fmt.Errorf("%d of %d gradients exceed tolerance %.3g", failed, len(results), tol)
			}
			return nil
		},
	}
	flags.register(cmd, true)
	return cmd
}

// randomStep draws Input and HiddenPrev uniformly from [-1, 1) and the parameters from
// [-0.5, 0.5), all from one seeded source.
func randomStep[T tensor.Float](cfg config.Config) gradcheck.Inputs[T] {
	rng := rand.New(rand.NewSource(cfg.Seed))
	d := cfg.Dims()
	fill := func(rows, cols int, scale float64) *tensor.Matrix[T] {
		m := tensor.New[T](rows, cols)
		for i := 0; i < rows; i++ {
			row := m.Row(i)
			for j := range row {
				row[j] = T((rng.Float64()*2 - 1) * scale)
			}
		}
		return m
	}
	return gradcheck.Inputs[T]{
		Input:      fill(d.Batch, d.GateWidth(), 1),
		HiddenPrev: fill(d.Batch, d.Frame, 1),
		Weight:     fill(d.Frame, d.GateWidth(), 0.5),
		Bias:       fill(1, d.GateWidth(), 0.5),
	}
}

func forward[T tensor.Float](log *logrus.Logger, cfg config.Config) [][]float64 {
	b := cpu.New[T](cfg.CPUOptions()...)
	in := randomStep[T](cfg)

	logStep(log, cfg, b.Name()).Debug("running forward step")
	cell := gru.NewCell[T](b, cfg.Attrs(), in.Weight, in.Bias)
	s := cell.Step(in.Input, in.HiddenPrev)

	out := make([][]float64, s.Hidden.Rows())
	for i := range out {
		row := s.Hidden.Row(i)
		out[i] = make([]float64, len(row))
		for j, v := range row {
			out[i][j] = float64(v)
		}
	}
	return out
}

func check[T tensor.Float](log *logrus.Logger, cfg config.Config) []gradcheck.Result {
	b := cpu.New[T](cfg.CPUOptions()...)
	eps := cfg.Epsilon
	if eps == 0 {
		eps = gradcheck.DefaultEpsilon[T]()
	}
	logStep(log, cfg, b.Name()).WithField("epsilon", eps).Info("running gradient check")
	return gradcheck.Check[T](b, cfg.Attrs(), randomStep[T](cfg), eps)
}
