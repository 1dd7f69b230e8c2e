package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/gru/internal/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	var out bytes.Buffer
	cmd := newRootCommand(log)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "grucell "+version+"\n", out)
}

func TestForward_PrintsHidden(t *testing.T) {
	out, err := execute(t, "forward", "--batch", "2", "--frame", "3", "--seed", "5")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Hidden:", lines[0])
	for _, l := range lines[1:] {
		assert.Len(t, strings.Fields(l), 3)
	}
}

func TestForward_BackendsAgree(t *testing.T) {
	blas, err := execute(t, "forward", "--backend", "blas", "--seed", "3")
	require.NoError(t, err)
	naive, err := execute(t, "forward", "--backend", "naive", "--seed", "3")
	require.NoError(t, err)
	assert.Equal(t, blas, naive)
}

func TestForward_InvalidFlags(t *testing.T) {
	_, err := execute(t, "forward", "--activation", "softmax")
	assert.Error(t, err)

	_, err = execute(t, "forward", "--layout", "rows")
	assert.Error(t, err)

	_, err = execute(t, "forward", "--batch", "0")
	assert.ErrorIs(t, err, config.ErrInvalid)

	_, err = execute(t, "forward", "--log-level", "loud")
	assert.Error(t, err)
}

func TestGradcheck_Passes(t *testing.T) {
	for _, dtype := range []string{"float32", "float64"} {
		out, err := execute(t, "gradcheck", "--dtype", dtype, "--layout", "packed")
		require.NoError(t, err, dtype)
		assert.Contains(t, out, "worst ")
	}
}

func TestGradcheck_FailsAboveTolerance(t *testing.T) {
	// A float32 step with a tiny epsilon cannot reach a 1e-12 tolerance.
	_, err := execute(t, "gradcheck", "--dtype", "float32", "--epsilon", "1e-4", "--tolerance", "1e-12")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceed tolerance")
}

func TestConfigFileWithFlagOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "step.yaml")
	require.NoError(t, os.WriteFile(path, []byte("batch_size: 3\nframe_size: 2\nactivation: relu\n"), 0o600))

	out, err := execute(t, "forward", "--config", path, "--batch", "1")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Len(t, strings.Fields(lines[1]), 2)
}
