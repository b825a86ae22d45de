// Package config handles repository discovery and configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// StashDir is the repository marker directory.
	StashDir = ".stash"
	// DBFile is the knowledge store database file name.
	DBFile = "stash.db"
	// LegacyDBFile is the default location of a legacy store awaiting
	// migration.
	LegacyDBFile = "legacy.db"
	// CacheDir holds ephemeral state like the first-run marker.
	CacheDir = "cache"
)

// StashPath returns the path to the .stash directory from a root path.
func StashPath(root string) string {
	return filepath.Join(root, StashDir)
}

// DBPath returns the path to the knowledge database from a root path.
func DBPath(root string) string {
	return filepath.Join(root, StashDir, DBFile)
}

// LegacyDBPath returns the default legacy store path from a root path.
func LegacyDBPath(root string) string {
	return filepath.Join(root, StashDir, LegacyDBFile)
}

// CachePath returns the path to the cache directory from a root path.
func CachePath(root string) string {
	return filepath.Join(root, StashDir, CacheDir)
}

// IsRepository checks if the given path contains a stash repository.
func IsRepository(root string) bool {
	info, err := os.Stat(StashPath(root))
	return err == nil && info.IsDir()
}

// FindRepository walks up from the given path to find a stash repository.
// Returns the repository root path or an error if not found.
func FindRepository(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	for {
		if IsRepository(abs) {
			return abs, nil
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", fmt.Errorf("not in a stash repository (no .stash directory found)")
		}
		abs = parent
	}
}

// InitRepository creates the .stash directory structure under root.
func InitRepository(root string) error {
	if err := os.MkdirAll(CachePath(root), 0755); err != nil {
		return fmt.Errorf("creating stash directory: %w", err)
	}
	return nil
}

// ExpandTilde expands a leading ~ to the user's home directory.
func ExpandTilde(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(strings.TrimPrefix(path, "~"), "/"))
	}
	return path
}

// HelpfulConfigMessage returns guidance shown when no repository is found.
func HelpfulConfigMessage() string {
	return `No stash repository found.

Run 'stash init' in the directory that should hold your knowledge store,
or set stash_path in ` + GlobalConfigPath() + ` to point at an existing one.`
}
