package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// firstRunMarkerFile records when the first-run notice was last shown.
const firstRunMarkerFile = "first_run_checked"

// FirstRunTTL is how long a first-run check stays valid before the notice
// may be shown again.
const FirstRunTTL = 24 * time.Hour

// FirstRunChecked reports whether the first-run notice was already shown
// within the TTL. A missing or unreadable marker counts as not checked.
func FirstRunChecked(root string) bool {
	data, err := os.ReadFile(filepath.Join(CachePath(root), firstRunMarkerFile))
	if err != nil {
		return false
	}

	checkedAt, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return false
	}

	return time.Since(time.Unix(checkedAt, 0)) < FirstRunTTL
}

// MarkFirstRunChecked stamps the first-run marker with the current time.
func MarkFirstRunChecked(root string) error {
	if err := os.MkdirAll(CachePath(root), 0755); err != nil {
		return err
	}
	stamp := strconv.FormatInt(time.Now().Unix(), 10)
	return os.WriteFile(filepath.Join(CachePath(root), firstRunMarkerFile), []byte(stamp), 0644)
}
