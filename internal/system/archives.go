// Package system finds and removes leftovers the bot writes outside its
// config directory, and formats sizes for display.
package system

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ArchivePattern matches temporary backup archives in the temp dir.
const ArchivePattern = "aniflax-backup-*.zip"

// OrphanedArchive is a temporary backup archive that outlived its upload,
// typically because the process died between archiving and cleanup.
type OrphanedArchive struct {
	Path    string
	ModTime time.Time
	Size    int64
}

// FindOrphanedArchives lists temp archives not modified within minAge.
func FindOrphanedArchives(minAge time.Duration) ([]OrphanedArchive, error) {
	matches, err := filepath.Glob(filepath.Join(os.TempDir(), ArchivePattern))
	if err != nil {
		return nil, fmt.Errorf("globbing temp archives: %w", err)
	}

	cutoff := time.Now().Add(-minAge)
	var orphaned []OrphanedArchive
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}
		// Recently touched archives may belong to a backup in flight.
		if info.ModTime().After(cutoff) {
			continue
		}
		orphaned = append(orphaned, OrphanedArchive{
			Path:    match,
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
	}
	return orphaned, nil
}

// CleanOrphanedArchives removes archives found by FindOrphanedArchives. Each
// file's age is checked again first, since a backup may have reused the
// name between scan and removal. It returns the paths skipped for that reason.
func CleanOrphanedArchives(archives []OrphanedArchive, minAge time.Duration) (skipped []string, err error) {
	cutoff := time.Now().Add(-minAge)
	var errs []string

	for _, a := range archives {
		if info, statErr := os.Stat(a.Path); statErr == nil && info.ModTime().After(cutoff) {
			skipped = append(skipped, a.Path)
			continue
		}
		if rmErr := os.Remove(a.Path); rmErr != nil && !os.IsNotExist(rmErr) {
			errs = append(errs, fmt.Sprintf("%s: %v", a.Path, rmErr))
		}
	}

	if len(errs) > 0 {
		return skipped, fmt.Errorf("failed to remove some archives:\n  %s", strings.Join(errs, "\n  "))
	}
	return skipped, nil
}
