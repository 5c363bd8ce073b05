package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loamdev/loam/internal/apperr"
)

func TestGetExitCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"not found", apperr.NotFound("D2K4"), ExitFailure},
		{"ambiguous", apperr.Ambiguous("D2", []string{"D2AAAA", "D2BBBB"}), ExitFailure},
		{"already exists", apperr.New(apperr.CodeAlreadyExists, "D2AAAA", "dup"), ExitFailure},
		{"integrity", apperr.New(apperr.CodeIntegrity, "", "bad"), ExitFailure},
		{"orphaned edge", apperr.New(apperr.CodeOrphanedEdge, "EV1", "dangling"), ExitFailure},
		{"store unavailable", apperr.New(apperr.CodeStoreUnavailable, "", "locked"), ExitCommandError},
		{"allocator exhausted", apperr.New(apperr.CodeAllocatorExhausted, "", "full"), ExitCommandError},
		{"plain error", errors.New("boom"), ExitCommandError},
		{"exit error wins", NewExitError(ExitFailure, "domain"), ExitFailure},
		{"wrapped domain error", fmt.Errorf("outer: %w", apperr.NotFound("X")), ExitFailure},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, GetExitCode(tc.err))
		})
	}
}

func TestFormatter_JSONEnvelope(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}

	require.NoError(t, f.JSON(map[string]string{"id": "D2AAAA"}, func(w io.Writer) {
		t.Fatal("text renderer must not run in json mode")
	}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Error)
}

func TestFormatter_TextFallback(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &buf}

	require.NoError(t, f.JSON(nil, func(w io.Writer) {
		fmt.Fprintln(w, "D2AAAA decision captured")
	}))
	assert.Equal(t, "D2AAAA decision captured\n", buf.String())
}

func TestFormatter_ErrorJSONKeepsStructure(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}

	err := apperr.Ambiguous("D2", []string{"D2AAAA", "D2BBBB"})
	require.NoError(t, f.Error(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, string(apperr.CodeAmbiguousPrefix), resp.Error.Code)
	assert.Equal(t, "D2", resp.Error.Subject)
	assert.Equal(t, []string{"D2AAAA", "D2BBBB"}, resp.Error.Candidates)
}

func TestFormatter_ErrorTextGoesToErrWriter(t *testing.T) {
	var out, errOut bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &out, ErrWriter: &errOut}

	require.NoError(t, f.Error(apperr.NotFound("ZZZZ")))
	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), string(apperr.CodeNotFound))
	assert.Contains(t, errOut.String(), "ZZZZ")
}

func TestFormatter_VerboseLog(t *testing.T) {
	var out, errOut bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &out, ErrWriter: &errOut, Verbose: true}

	f.VerboseLog("replayed %d events", 7)
	assert.Empty(t, out.String(), "diagnostics must not pollute JSON output")
	assert.Equal(t, "replayed 7 events\n", errOut.String())

	f.Verbose = false
	errOut.Reset()
	f.VerboseLog("silent")
	assert.Empty(t, errOut.String())
}
