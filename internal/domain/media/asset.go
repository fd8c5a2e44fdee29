package media

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// AudioAsset is an immutable handle to normalized audio on local disk.
// Consumers read it; only Release mutates anything, and only the backing file.
type AudioAsset struct {
	Path       string
	Duration   time.Duration
	SampleRate int
	Channels   int
}

// Release reclaims the temp file. Safe to call more than once.
func (a *AudioAsset) Release() error {
	if a == nil || a.Path == "" {
		return nil
	}
	err := os.Remove(a.Path)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

// SweepTempDir removes leftover run files older than maxAge. Called at
// startup so assets orphaned by a crash do not accumulate.
func SweepTempDir(dir string, maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.HasPrefix(entry.Name(), "run-") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if os.Remove(filepath.Join(dir, entry.Name())) == nil {
				removed++
			}
		}
	}
	return removed, nil
}
