package adapter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ratchet.dev/pkg/ratchet/internal/model"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func relPaths(entries []model.FileEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = string(e.Rel)
	}
	return out
}

func TestWalkIsSortedAndDeterministic(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/zeta.rs":    "",
		"src/alpha.rs":   "",
		"main.go":        "",
		"docs/readme.md": "",
	})

	w, err := NewWalker(model.Path(root), []string{"**/*"}, nil)
	require.NoError(t, err)

	entries, err := w.Walk([]string{root})
	require.NoError(t, err)
	assert.Equal(t, []string{"docs/readme.md", "main.go", "src/alpha.rs", "src/zeta.rs"}, relPaths(entries))

	again, err := w.Walk([]string{root})
	require.NoError(t, err)
	assert.Equal(t, relPaths(entries), relPaths(again))
}

func TestWalkAppliesIncludeExclude(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/lib.rs":      "",
		"src/gen/stub.rs": "",
		"tests/it.rs":     "",
		"README.md":       "",
	})

	w, err := NewWalker(model.Path(root), []string{"src/**", "tests/**"}, []string{"src/gen/**"})
	require.NoError(t, err)

	entries, err := w.Walk([]string{root})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/lib.rs", "tests/it.rs"}, relPaths(entries))
}

func TestWalkHonorsGitignoreHierarchy(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		".gitignore":         "*.log\n",
		"build.log":          "",
		"src/.gitignore":     "out/\n",
		"src/out/dump.rs":    "",
		"src/lib.rs":         "",
		"other/out/kept.rs":  "",
		".git/objects/aa/bb": "",
	})

	w, err := NewWalker(model.Path(root), []string{"**/*"}, nil)
	require.NoError(t, err)

	entries, err := w.Walk([]string{root})
	require.NoError(t, err)

	paths := relPaths(entries)
	assert.Contains(t, paths, "src/lib.rs")
	assert.Contains(t, paths, "other/out/kept.rs")
	assert.NotContains(t, paths, "build.log")
	assert.NotContains(t, paths, "src/out/dump.rs")
	for _, p := range paths {
		assert.NotContains(t, p, ".git/objects")
	}
}

func TestWalkNamedFile(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/lib.rs":  "",
		"src/main.rs": "",
	})

	w, err := NewWalker(model.Path(root), []string{"**/*"}, nil)
	require.NoError(t, err)

	entries, err := w.Walk([]string{filepath.Join(root, "src", "lib.rs")})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/lib.rs"}, relPaths(entries))

	assert.Equal(t, model.LangRust, entries[0].Language)
	assert.True(t, entries[0].HasLanguage)
}

func TestWalkRejectsEscapingPaths(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "inner")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	w, err := NewWalker(model.Path(sub), []string{"**/*"}, nil)
	require.NoError(t, err)

	_, err = w.Walk([]string{root})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrUsage)
}

func TestWalkRejectsBadGlob(t *testing.T) {
	_, err := NewWalker(model.Path(t.TempDir()), []string{"src/[oops"}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrConfig)
}
