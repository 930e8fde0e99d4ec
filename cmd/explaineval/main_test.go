package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeInputs(t *testing.T, predictions, annotations string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	predPath := filepath.Join(dir, "explanations.tsv")
	annPath := filepath.Join(dir, "explainable_predicate.txt")
	require.NoError(t, os.WriteFile(predPath, []byte(predictions), 0644))
	require.NoError(t, os.WriteFile(annPath, []byte(annotations), 0644))
	return predPath, annPath
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

// =============================================================================
// Evaluation Command Tests
// =============================================================================

func TestEvaluatePrintsVector(t *testing.T) {
	pred, ann := writeInputs(t, "E1\tAPPLE\tBANANA\n", "apple:yes\n")

	code, stdout, _ := runCLI(t, pred, ann, "2")
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "Explainable at : [1 0.5]\n", stdout)
}

func TestEvaluateUndefinedDepth(t *testing.T) {
	pred, ann := writeInputs(t, "E1\n", "apple:yes\n")

	code, stdout, _ := runCLI(t, pred, ann, "2")
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "Explainable at : [nan nan]\n", stdout)
}

func TestEvaluateFormats(t *testing.T) {
	pred, ann := writeInputs(t, "E1\tAPPLE\tPINEAPPLE\nE2\tPINEAPPLE\n", "apple:yes\nkiwi:no\n")

	t.Run("json", func(t *testing.T) {
		code, stdout, _ := runCLI(t, "--format", "json", pred, ann, "2")
		require.Equal(t, exitOK, code)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal([]byte(stdout), &decoded))
		assert.Equal(t, []any{1.0, 1.0}, decoded["ratios"])
		assert.Equal(t, float64(2), decoded["entities"])
	})

	t.Run("summary", func(t *testing.T) {
		code, stdout, _ := runCLI(t, "--format", "summary", pred, ann, "2")
		require.Equal(t, exitOK, code)
		assert.Contains(t, stdout, "Explainability Evaluation")
	})

	t.Run("compact", func(t *testing.T) {
		code, stdout, _ := runCLI(t, "--format", "compact", pred, ann, "2")
		require.Equal(t, exitOK, code)
		assert.Contains(t, stdout, "entities=2")
	})

	t.Run("unknown_format_is_usage_error", func(t *testing.T) {
		code, stdout, _ := runCLI(t, "--format", "xml", pred, ann, "2")
		assert.Equal(t, exitUsage, code)
		assert.Empty(t, stdout)
	})
}

func TestEvaluateSave(t *testing.T) {
	pred, ann := writeInputs(t, "E1\tAPPLE\n", "apple:yes\n")
	out := filepath.Join(t.TempDir(), "result.json")

	code, stdout, _ := runCLI(t, "--save", out, pred, ann, "1")
	require.Equal(t, exitOK, code)
	assert.Equal(t, "Explainable at : [1]\n", stdout)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"ratios"`)
}

func TestEvaluateConfigFile(t *testing.T) {
	pred, ann := writeInputs(t, "E1\tAPPLE\n", "apple:yes\n")
	cfgPath := filepath.Join(t.TempDir(), "explaineval.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("output:\n  format: compact\n"), 0644))

	code, stdout, _ := runCLI(t, "--config", cfgPath, pred, ann, "1")
	require.Equal(t, exitOK, code)
	assert.True(t, strings.HasPrefix(stdout, "[explainable]"))

	// flags win over the file
	code, stdout, _ = runCLI(t, "--config", cfgPath, "--format", "vector", pred, ann, "1")
	require.Equal(t, exitOK, code)
	assert.Equal(t, "Explainable at : [1]\n", stdout)
}

// =============================================================================
// Error Handling Tests
// =============================================================================

func TestUsageErrors(t *testing.T) {
	pred, ann := writeInputs(t, "E1\tAPPLE\n", "apple:yes\n")

	tests := []struct {
		name string
		args []string
	}{
		{"no_args", nil},
		{"two_args", []string{pred, ann}},
		{"four_args", []string{pred, ann, "1", "extra"}},
		{"non_integer_depth", []string{pred, ann, "five"}},
		{"zero_depth", []string{pred, ann, "0"}},
		{"unknown_flag", []string{"--bogus", pred, ann, "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runCLI(t, tt.args...)
			assert.Equal(t, exitUsage, code)
			assert.Empty(t, stdout)
			assert.Contains(t, stderr, "Usage:")
		})
	}
}

func TestInputErrors(t *testing.T) {
	pred, ann := writeInputs(t, "E1\tAPPLE\n", "apple:maybe\n")

	t.Run("missing_file", func(t *testing.T) {
		code, stdout, stderr := runCLI(t, filepath.Join(t.TempDir(), "absent.tsv"), ann, "1")
		assert.Equal(t, exitError, code)
		assert.Empty(t, stdout)
		assert.Contains(t, stderr, "input not found")
	})

	t.Run("unrecognized_label", func(t *testing.T) {
		code, stdout, stderr := runCLI(t, pred, ann, "1")
		assert.Equal(t, exitError, code)
		assert.Empty(t, stdout)
		assert.Contains(t, stderr, "unrecognized label")
	})
}

// =============================================================================
// History Command Tests
// =============================================================================

func TestHistory(t *testing.T) {
	pred, ann := writeInputs(t, "E1\tAPPLE\tBANANA\n", "apple:yes\n")
	store := filepath.Join(t.TempDir(), "runs")

	code, _, _ := runCLI(t, "--store", store, pred, ann, "2")
	require.Equal(t, exitOK, code)
	code, _, _ = runCLI(t, "--store", store, pred, ann, "2")
	require.Equal(t, exitOK, code)

	code, stdout, _ := runCLI(t, "history", "--store", store)
	require.Equal(t, exitOK, code)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "RUN")
	assert.Contains(t, lines[1], "[1 0.5]")

	runID := strings.Fields(lines[1])[2]
	code, stdout, _ = runCLI(t, "history", "--store", store, runID)
	require.Equal(t, exitOK, code)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &decoded))
	assert.Equal(t, runID, decoded["id"])
	assert.Equal(t, []any{1.0, 0.5}, decoded["ratios"])
}

func TestHistoryErrors(t *testing.T) {
	t.Run("no_store_configured", func(t *testing.T) {
		code, _, stderr := runCLI(t, "history")
		assert.Equal(t, exitError, code)
		assert.Contains(t, stderr, "no run archive")
	})

	t.Run("empty_store", func(t *testing.T) {
		code, stdout, _ := runCLI(t, "history", "--store", filepath.Join(t.TempDir(), "runs"))
		assert.Equal(t, exitOK, code)
		assert.Contains(t, stdout, "No archived runs.")
	})

	t.Run("unknown_run", func(t *testing.T) {
		code, _, stderr := runCLI(t, "history", "--store", filepath.Join(t.TempDir(), "runs"), "nope")
		assert.Equal(t, exitError, code)
		assert.Contains(t, stderr, "not found")
	})
}

func TestVersion(t *testing.T) {
	code, stdout, _ := runCLI(t, "version")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "explaineval v"+version)
}
