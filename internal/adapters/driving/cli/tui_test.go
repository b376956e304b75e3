package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTUICmd_Structure(t *testing.T) {
	assert.Equal(t, "tui", tuiCmd.Use)
	assert.Contains(t, tuiCmd.Long, "/        - Search")
}

func TestTUICmd_RejectsArgs(t *testing.T) {
	setupTestServices(t)

	_, err := run("tui", "extra")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}
