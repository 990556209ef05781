package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"adaptive-cache-service/internal/bench"
	"adaptive-cache-service/internal/trace"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestSynthThenBench(t *testing.T) {
	dir := t.TempDir()
	tracePath := filepath.Join(dir, "workload.txt.zst")
	reportPath := filepath.Join(dir, "report.md")

	out := execute(t, "synth", "--output", tracePath, "--phases", "2", "--working-set", "10", "--steps", "30", "--synth-capacity", "5")
	assert.Contains(t, out, "wrote")

	lines, err := trace.Load(context.Background(), trace.FileSource{}, tracePath)
	require.NoError(t, err)
	require.NotEmpty(t, lines)

	execute(t, "bench", "--trace", tracePath, "--window", "5", "--seeds", "1,2",
		"--policies", "lru,hybrid", "--format", "markdown", "--output", reportPath, "--log-level", "error")

	report, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Contains(t, string(report), "| lru | 2 |")
	assert.Contains(t, string(report), "| hybrid | 2 |")
}

func TestInvalidPolicyRejected(t *testing.T) {
	rootCmd.SetArgs([]string{"synth", "--output", filepath.Join(t.TempDir(), "x.txt"), "--policy", "mru"})
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	assert.Error(t, rootCmd.Execute())
}

func TestSynthRejectsEmptyWorkingSet(t *testing.T) {
	t.Cleanup(func() { synthConfig = bench.DefaultSynthConfig() })

	out := filepath.Join(t.TempDir(), "x.txt")
	rootCmd.SetArgs([]string{"synth", "--output", out, "--working-set", "0"})
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})

	err := rootCmd.Execute()
	require.ErrorIs(t, err, bench.ErrInvalidSynthConfig)
	assert.NoFileExists(t, out)
}
