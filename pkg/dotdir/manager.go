// Package dotdir manages the .relay/ and ~/.relay directories that hold
// config.toml, credentials.toml, the default SQLite database, and the CLI
// chat session.
package dotdir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DirName is the name of the relay directory.
	DirName = ".relay"

	// EnvDir names a relay directory when no --config-dir is given.
	EnvDir = "RELAY_CONFIG_DIR"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target resolves the relay directory, first match wins:
//  1. overrideDir, created when missing
//  2. $RELAY_CONFIG_DIR, created when missing
//  3. ./.relay
//  4. ~/.relay
//
// It returns "" when neither ./.relay nor ~/.relay exists.
func (m *Manager) Target(overrideDir string) (string, error) {
	for _, explicit := range []string{overrideDir, os.Getenv(EnvDir)} {
		if explicit == "" {
			continue
		}
		if err := os.MkdirAll(explicit, 0o755); err != nil {
			return "", fmt.Errorf("creating relay directory %s: %w", explicit, err)
		}
		return filepath.Abs(explicit)
	}

	candidates, err := implicitDirs()
	if err != nil {
		return "", err
	}
	for _, dir := range candidates {
		ok, err := isDir(dir)
		if err != nil {
			return "", err
		}
		if ok {
			return dir, nil
		}
	}
	return "", nil
}

// Ensure resolves like Target but creates ~/.relay/ when nothing exists yet.
func (m *Manager) Ensure(overrideDir string) (string, error) {
	dir, err := m.Target(overrideDir)
	if err != nil || dir != "" {
		return dir, err
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	dir = filepath.Join(home, DirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating relay directory %s: %w", dir, err)
	}
	return dir, nil
}

// implicitDirs lists ./.relay then ~/.relay as absolute paths.
func implicitDirs() ([]string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting current directory: %w", err)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting home directory: %w", err)
	}
	return []string{filepath.Join(cwd, DirName), filepath.Join(home, DirName)}, nil
}

func isDir(path string) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case err == nil:
		return info.IsDir(), nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("checking %s: %w", path, err)
	}
}
