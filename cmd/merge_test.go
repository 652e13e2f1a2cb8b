package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "ratchet.dev/pkg/ratchet/internal/model"
)

func writeMergeInput(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestMergeDriverWritesPointwiseMinimum(t *testing.T) {
	dir := t.TempDir()
	base := writeMergeInput(t, dir, "base.toml", `[no-unwrap]
"." = 0
"src/legacy" = 8
`)
	ours := writeMergeInput(t, dir, "ours.toml", `[no-unwrap]
"." = 0
"src/legacy" = 8
`)
	theirs := writeMergeInput(t, dir, "theirs.toml", `[no-unwrap]
"." = 0
"src/legacy" = 6
"tests" = 20
`)

	_, _, err := execute(t, newMergeDriverCmd(), base, ours, theirs)
	require.NoError(t, err)

	merged, err := os.ReadFile(ours)
	require.NoError(t, err)
	assert.Contains(t, string(merged), `"src/legacy" = 6`, "lower side wins")
	assert.Contains(t, string(merged), `"tests" = 20`, "one-sided regions survive")
	assert.Contains(t, string(merged), `"." = 0`)
}

func TestMergeDriverRejectsCorruptInput(t *testing.T) {
	dir := t.TempDir()
	base := writeMergeInput(t, dir, "base.toml", "")
	ours := writeMergeInput(t, dir, "ours.toml", `[no-unwrap]
"." = 0
`)
	theirs := writeMergeInput(t, dir, "theirs.toml", "not toml [[[")
	before, err := os.ReadFile(ours)
	require.NoError(t, err)

	_, _, err = execute(t, newMergeDriverCmd(), base, ours, theirs)
	assert.ErrorIs(t, err, m.ErrCounts)

	after, readErr := os.ReadFile(ours)
	require.NoError(t, readErr)
	assert.Equal(t, before, after, "a failed merge must not touch ours")
}

func TestMergeDriverMissingInput(t *testing.T) {
	dir := t.TempDir()
	ours := writeMergeInput(t, dir, "ours.toml", "")

	_, _, err := execute(t, newMergeDriverCmd(), filepath.Join(dir, "gone.toml"), ours, ours)
	assert.ErrorIs(t, err, m.ErrIO)
}

func TestMergeDriverRequiresThreeArgs(t *testing.T) {
	_, _, err := execute(t, newMergeDriverCmd(), "only", "two")
	require.Error(t, err)
	assert.Equal(t, 2, exitStatus(err))
}
