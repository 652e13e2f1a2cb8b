package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ratchet.dev/pkg/ratchet/internal/adapter"
	m "ratchet.dev/pkg/ratchet/internal/model"
)

const testConfigDoc = `[ratchet]
version = "1"
languages = ["rust"]
`

const threeUnwraps = `fn main() {
    let a = foo().unwrap();
    let b = bar().unwrap();
    let c = baz().unwrap();
}
`

// writeProjectDir lays out a minimal repository: config, optional counts
// document and source files.
func writeProjectDir(t *testing.T, counts string, sources map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, adapter.ConfigFileName), []byte(testConfigDoc), 0o644))
	if counts != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, adapter.CountsFileName), []byte(counts), 0o644))
	}
	for rel, content := range sources {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestExitStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"budget exceeded", fmt.Errorf("%w: over", m.ErrBudgetExceeded), 1},
		{"parse failure", fmt.Errorf("%w: bad source", m.ErrParse), 3},
		{"usage", fmt.Errorf("%w: bad flag", m.ErrUsage), 2},
		{"config", fmt.Errorf("%w: bad config", m.ErrConfig), 2},
		{"counts", fmt.Errorf("%w: bad counts", m.ErrCounts), 2},
		{"rule", fmt.Errorf("%w: bad rule", m.ErrRule), 2},
		{"io", fmt.Errorf("%w: unreadable", m.ErrIO), 2},
		{"unknown", errors.New("unknown command"), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitStatus(tt.err))
		})
	}
}

func TestResolveFormat(t *testing.T) {
	format, err := resolveFormat("", "jsonl")
	require.NoError(t, err)
	assert.Equal(t, "jsonl", format)

	format, err = resolveFormat("human", "jsonl")
	require.NoError(t, err)
	assert.Equal(t, "human", format)

	_, err = resolveFormat("xml", "human")
	assert.ErrorIs(t, err, m.ErrUsage)
}

func TestResolveColor(t *testing.T) {
	color, err := resolveColor("always", "never")
	require.NoError(t, err)
	assert.True(t, color)

	color, err = resolveColor("", "never")
	require.NoError(t, err)
	assert.False(t, color)

	_, err = resolveColor("sometimes", "auto")
	assert.ErrorIs(t, err, m.ErrUsage)
}

func TestNewRootCmd(t *testing.T) {
	cmd := newRootCmd()
	assert.Equal(t, "ratchet", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.Equal(t, rootLongDescription, cmd.Long)
	assert.True(t, cmd.SilenceUsage)
}

func TestRootCmdHelpOutput(t *testing.T) {
	cmd := newRootCmd()
	out, _, err := execute(t, cmd)
	require.NoError(t, err)
	assert.Contains(t, out, "Usage:")
	assert.Contains(t, out, "violation budgets")
}

func TestLoadWorkspaceAt(t *testing.T) {
	dir := writeProjectDir(t, "", nil)
	ws, err := loadWorkspaceAt(m.Path(dir))
	require.NoError(t, err)
	assert.NotZero(t, ws.registry.Len())
	_, ok := ws.registry.Get("no-unwrap")
	assert.True(t, ok, "rust builtins should be active")
}

func TestLoadWorkspaceAtMissingConfig(t *testing.T) {
	_, err := loadWorkspaceAt(m.Path(t.TempDir()))
	assert.ErrorIs(t, err, m.ErrConfig)
}

func TestObservedCount(t *testing.T) {
	report := &m.CheckReport{
		Verdicts: []m.RegionVerdict{
			{Rule: "no-unwrap", Region: "src/legacy", Count: 3},
		},
	}
	assert.Equal(t, int64(3), observedCount(report, "no-unwrap", "src/legacy"))
	assert.Equal(t, int64(0), observedCount(report, "no-unwrap", "tests"))
}
