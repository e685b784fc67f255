// Package testutils holds helpers shared by the command-level tests.
package testutils

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// SetupConfig writes a config file into a temporary directory whose history
// file lives next to it, so a test never touches the user's history. Extra
// YAML is appended under the top level. It returns both paths.
func SetupConfig(t *testing.T, extra string) (configPath, historyPath string) {
	t.Helper()

	dir := t.TempDir()
	historyPath = filepath.Join(dir, "history")
	configPath = filepath.Join(dir, "config.yaml")

	content := fmt.Sprintf("history:\n  path: %q\n%s", historyPath, extra)
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644), "Failed to write config")
	return configPath, historyPath
}
