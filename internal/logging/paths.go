package logging

import (
	"os"
	"path/filepath"
)

// DefaultLogDir returns ~/.contractgen/logs, or a directory under the temp
// dir when there is no home directory.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".contractgen", "logs")
	}
	return filepath.Join(home, ".contractgen", "logs")
}

// DefaultLogPath returns the debug log file path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "contractgen.log")
}
