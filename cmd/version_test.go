package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCmd(t *testing.T) {
	out, _, err := execute(t, newVersionCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "ratchet version")
	assert.Contains(t, out, "go:")
}

func TestBuildMetadata(t *testing.T) {
	release, _, goVersion := buildMetadata()
	assert.NotEmpty(t, release)
	assert.NotEmpty(t, goVersion)
}
