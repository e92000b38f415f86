// Package sqlitepath finds the SQLite database relay serves from.
package sqlitepath

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/papercomputeco/relay/pkg/dotdir"
)

// DefaultName is the database file created in the .relay directory.
const DefaultName = "relay.db"

// ResolveSQLitePath returns override when set, then the first existing
// candidate database, and otherwise relay.db inside the .relay directory,
// creating the directory when needed.
func ResolveSQLitePath(override, configDir string) (string, error) {
	if override != "" {
		return override, nil
	}

	for _, candidate := range sqliteCandidates(configDir) {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	dir, err := dotdir.NewManager().Ensure(configDir)
	if err != nil {
		return "", fmt.Errorf("resolving relay directory: %w", err)
	}
	return filepath.Join(dir, DefaultName), nil
}

func sqliteCandidates(configDir string) []string {
	if configDir != "" {
		return []string{filepath.Join(configDir, DefaultName)}
	}

	candidates := []string{
		filepath.Join(dotdir.DirName, DefaultName),
	}

	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, dotdir.DirName, DefaultName))
	}

	if xdgHome := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); xdgHome != "" {
		candidates = append(candidates, filepath.Join(xdgHome, "relay", DefaultName))
	}

	return candidates
}
