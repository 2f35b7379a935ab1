package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/brancheval/internal/report"
)

func TestOutputFormatter_EmitJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Emit(report.Notice{Message: "No runs found."}))

	assert.Equal(t, `{"status":"ok","data":{"found":false,"message":"No runs found."}}`+"\n", buf.String())
}

func TestOutputFormatter_EmitText(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Emit(report.Notice{Message: "No runs found."}))
	assert.Equal(t, "No runs found.\n", buf.String())
}

func TestOutputFormatter_EmitNoHTMLEscaping(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Emit(report.Notice{Message: "a<b & c>d"}))
	assert.Contains(t, buf.String(), `"a<b & c>d"`)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Error(ErrCodeStore, "failed to open store", nil))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E004", resp.Error.Code)
	assert.Equal(t, "failed to open store", resp.Error.Message)
	assert.Nil(t, resp.Data)
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Error(ErrCodeConfig, "project is required", map[string]string{"flag": "--project"}))
	assert.Contains(t, buf.String(), "Error [E002]: project is required")
	assert.Contains(t, buf.String(), "Details:")
}

func TestOutputFormatter_Success(t *testing.T) {
	buf := &bytes.Buffer{}
	text := &OutputFormatter{Format: "text", Writer: buf}
	require.NoError(t, text.Success(map[string]int{"runs": 3}, "Imported 3 run(s)"))
	assert.Equal(t, "Imported 3 run(s)\n", buf.String())

	buf.Reset()
	js := &OutputFormatter{Format: "json", Writer: buf}
	require.NoError(t, js.Success(map[string]int{"runs": 3}, "ignored"))
	assert.Equal(t, `{"status":"ok","data":{"runs":3}}`+"\n", buf.String())
}

func TestExitError(t *testing.T) {
	inner := errors.New("disk full")
	err := WrapExitError(ExitCommandError, "E004: failed to open store", inner)

	assert.Equal(t, "E004: failed to open store: disk full", err.Error())
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "plain", NewExitError(ExitFailure, "plain").Error())
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("boom")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad")))
	wrapped := fmt.Errorf("outer: %w", NewExitError(ExitCommandError, "bad"))
	assert.Equal(t, ExitCommandError, GetExitCode(wrapped))
}

func TestFail(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	err := fail(formatter, ExitFailure, ErrCodeFetch, "failed to list runs", errors.New("timeout"), nil)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "E007: failed to list runs")
	assert.Contains(t, buf.String(), "Error [E007]: failed to list runs: timeout")
}
