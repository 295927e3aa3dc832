package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strataspec/strata/internal/store"
)

func specsFixture(t *testing.T) string {
	t.Helper()
	dir := filepath.Join("..", "..", "testdata", "specs")
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Skip("testdata/specs directory not found")
	}
	return dir
}

func contractFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join("..", "..", "testdata", "contracts", "tasks.yaml")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("testdata/contracts fixture not found")
	}
	return path
}

// brokenSpecs writes a spec tree whose UI action matches no transition.
func brokenSpecs(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"home.yaml":    "layer: navigation\nscreen:\n  id: home\n  entry: true\ntransitions:\n  - id: open_tasks\n    target: tasks\n",
		"tasks.yaml":   "layer: navigation\nscreen:\n  id: tasks\n  exit: true\n",
		"home_ui.yaml": "layer: ui\nscreen:\n  id: home\nelements:\n  - id: open_button\n    action: open_tasks_typo\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestValidateText(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{specsFixture(t)})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "✓ Specification consistent")
	assert.Contains(t, output, "L2_SINGLE_ENTRY")
}

func TestValidateJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{specsFixture(t)})

	err := cmd.Execute()
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, data["pass"])
	assert.NotEmpty(t, data["run_id"])
}

func TestValidateWithContract(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{specsFixture(t), "--contract", contractFixture(t)})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "✓ Specification consistent")
}

func TestValidateFailure(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{brokenSpecs(t)})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	output := buf.String()
	assert.Contains(t, output, "✗ Validation failed")
	assert.Contains(t, output, "L3_ACTION_NOT_IN_L2")
}

func TestValidateFailureJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{brokenSpecs(t)})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_VALIDATION", resp.Error.Code)
}

func TestValidateMissingDirectory(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "nope")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "E_DIR_NOT_FOUND")
}

func TestValidateUnreadableContract(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{specsFixture(t), "--contract", filepath.Join(t.TempDir(), "missing.yaml")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidateRecordsRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "strata.db")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{specsFixture(t), "--record", dbPath})

	require.NoError(t, cmd.Execute())

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	runs, err := st.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.True(t, runs[0].Pass)
	assert.Equal(t, 0, runs[0].ErrorCount)
}

func TestValidateVerboseLogsToStderr(t *testing.T) {
	outBuf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json", Verbose: true}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(outBuf)
	cmd.SetErr(errBuf)
	cmd.SetArgs([]string{specsFixture(t)})

	require.NoError(t, cmd.Execute())

	// Verbose logs must not corrupt the JSON stream on stdout.
	assert.Contains(t, errBuf.String(), "Loaded")
	var resp CLIResponse
	require.NoError(t, json.Unmarshal(outBuf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestValidateParseErrorSurfacesAsDiagnostic(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.yaml"),
		[]byte("layer: navigation\nscreen:\n  id: home\n  entry: true\n  exit: true\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"),
		[]byte("layer: [unclosed\n"), 0o644))

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "L1_BAD_DOCUMENT")
	assert.Contains(t, buf.String(), "broken.yaml")
}
