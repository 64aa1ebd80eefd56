package log

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"
)

const (
	filePrefix  = "aniflax-"
	fileSuffix  = ".jsonl"
	currentLink = "current"
	dateLayout  = "2006-01-02"
)

// FileWriter writes to dir/aniflax-YYYY-MM-DD.jsonl, switching files when the
// date changes, and keeps dir/current pointing at the active file.
type FileWriter struct {
	dir  string
	now  func() time.Time
	mu   sync.Mutex
	file *os.File
	date string
}

// NewFileWriter creates dir if needed and opens today's file.
func NewFileWriter(dir string) (*FileWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating debug log dir: %w", err)
	}

	fw := &FileWriter{dir: dir, now: time.Now}
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if err := fw.openLocked(fw.now().Format(dateLayout)); err != nil {
		return nil, err
	}
	return fw, nil
}

// Write implements io.Writer.
func (fw *FileWriter) Write(p []byte) (int, error) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if today := fw.now().Format(dateLayout); today != fw.date {
		if err := fw.openLocked(today); err != nil {
			return 0, err
		}
	}
	return fw.file.Write(p)
}

// Close closes the active file.
func (fw *FileWriter) Close() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.file == nil {
		return nil
	}
	err := fw.file.Close()
	fw.file = nil
	return err
}

// Path returns the file currently written to.
func (fw *FileWriter) Path() string {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return filepath.Join(fw.dir, fileName(fw.date))
}

func (fw *FileWriter) openLocked(date string) error {
	if fw.file != nil {
		fw.file.Close()
	}

	name := fileName(date)
	f, err := os.OpenFile(filepath.Join(fw.dir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	fw.file = f
	fw.date = date
	fw.relink(name)
	return nil
}

// relink swaps dir/current to target via rename. Failures are ignored: the
// link is a convenience for tail -f, not part of the log.
func (fw *FileWriter) relink(target string) {
	link := filepath.Join(fw.dir, currentLink)
	tmp := link + ".tmp"
	os.Remove(tmp)
	if err := os.Symlink(target, tmp); err != nil {
		return
	}
	_ = os.Rename(tmp, link)
}

func fileName(date string) string {
	return filePrefix + date + fileSuffix
}

var logFilePattern = regexp.MustCompile(`^aniflax-(\d{4}-\d{2}-\d{2})\.jsonl$`)

// Cleanup removes log files in dir dated more than retentionDays ago.
// Files that don't match the naming scheme are left alone.
func Cleanup(dir string, retentionDays int) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := logFilePattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		date, err := time.Parse(dateLayout, m[1])
		if err != nil {
			continue
		}
		if date.Before(cutoff) {
			os.Remove(filepath.Join(dir, entry.Name()))
		}
	}
}
