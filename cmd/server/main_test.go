package main

import (
	"os"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMainLogsConfigurationErrors re-runs the test binary as the server so the
// fatal exit can be observed from outside.
func TestMainLogsConfigurationErrors(t *testing.T) {
	if os.Getenv("INWISTA_RUN_SERVER_MAIN") == "1" {
		main()
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=^TestMainLogsConfigurationErrors$")
	cmd.Env = append(os.Environ(), "INWISTA_RUN_SERVER_MAIN=1", "LEDGER_BACKEND=postgres")
	output, err := cmd.CombinedOutput()

	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.ExitCode())
	assert.Contains(t, string(output), "Failed to load configuration")
	assert.Contains(t, string(output), "LEDGER_BACKEND")
}
