package adapter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ratchet.dev/pkg/ratchet/internal/model"
)

func TestCountsRoundTripIsByteStable(t *testing.T) {
	store := NewCountsStore()
	store.Set("no-unwrap", ".", 12)
	store.Set("no-unwrap", "src/api", 3)
	store.Set("no-unwrap", "src", 7)
	store.Set("no-eval", ".", 0)

	first := store.Serialize()
	reparsed, err := ParseCounts([]byte(first))
	require.NoError(t, err)
	assert.Equal(t, first, reparsed.Serialize())
}

func TestCountsSerializeOrdering(t *testing.T) {
	store := NewCountsStore()
	store.Set("zz-rule", "src", 1)
	store.Set("zz-rule", ".", 5)
	store.Set("zz-rule", "lib", 2)
	store.Set("aa-rule", ".", 0)

	want := "# Ratchet violation budgets\n" +
		"# These counts represent the maximum tolerated violations.\n" +
		"# Counts can only be reduced (tightened) or explicitly bumped with justification.\n" +
		"\n" +
		"[aa-rule]\n" +
		"\".\" = 0\n" +
		"\n" +
		"[zz-rule]\n" +
		"\".\" = 5\n" +
		"\"lib\" = 2\n" +
		"\"src\" = 1\n" +
		"\n"
	assert.Equal(t, want, store.Serialize())
}

func TestParseCountsRejects(t *testing.T) {
	cases := map[string]string{
		"negative count": "[no-unwrap]\n\".\" = -1\n",
		"bad rule id":    "[No_Caps]\n\".\" = 0\n",
		"not a table":    "no-unwrap = 3\n",
		"not an int":     "[no-unwrap]\n\".\" = \"three\"\n",
		"dup region":     "[no-unwrap]\n\"src\" = 1\n\"src/\" = 2\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCounts([]byte(doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, model.ErrCounts)
		})
	}
}

func TestParseCountsNormalizesRegions(t *testing.T) {
	store, err := ParseCounts([]byte("[no-unwrap]\n\"src/legacy/\" = 4\n"))
	require.NoError(t, err)

	n, ok := store.Budget("no-unwrap", "src/legacy")
	require.True(t, ok)
	assert.Equal(t, int64(4), n)
}

func TestBudgetRootDefaultsToZero(t *testing.T) {
	store := NewCountsStore()

	n, ok := store.Budget("no-unwrap", model.RootRegion)
	assert.True(t, ok)
	assert.Equal(t, int64(0), n)

	_, ok = store.Budget("no-unwrap", "src")
	assert.False(t, ok)
}

func TestLoadCountsMissingFileIsEmpty(t *testing.T) {
	dir := t.TempDir()
	store, err := LoadCounts(model.Path(filepath.Join(dir, CountsFileName)))
	require.NoError(t, err)
	assert.Empty(t, store.Rules())
}

func TestSaveWritesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, CountsFileName)

	store := NewCountsStore()
	store.Set("no-unwrap", ".", 2)
	require.NoError(t, store.Save(model.Path(path)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, store.Serialize(), string(data))

	// No temp droppings left behind.
	matches, err := filepath.Glob(filepath.Join(dir, ".*tmp*"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}
