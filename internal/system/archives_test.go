package system

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArchive(t *testing.T, dir, name string, age time.Duration) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("PK"), 0644))
	mod := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, mod, mod))
	return path
}

func TestFindOrphanedArchives(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)

	old := writeArchive(t, tmp, "aniflax-backup-111.zip", 2*time.Hour)
	writeArchive(t, tmp, "aniflax-backup-222.zip", time.Minute)
	writeArchive(t, tmp, "unrelated.zip", 5*time.Hour)

	tests := []struct {
		name   string
		minAge time.Duration
		want   int
	}{
		{"older than an hour", time.Hour, 1},
		{"older than three hours", 3 * time.Hour, 0},
		{"older than thirty seconds", 30 * time.Second, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := FindOrphanedArchives(tt.minAge)
			require.NoError(t, err)
			assert.Len(t, found, tt.want)
		})
	}

	found, err := FindOrphanedArchives(time.Hour)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, old, found[0].Path)
	assert.Equal(t, int64(2), found[0].Size)
}

func TestCleanOrphanedArchives(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)

	old := writeArchive(t, tmp, "aniflax-backup-old.zip", 2*time.Hour)
	found, err := FindOrphanedArchives(time.Hour)
	require.NoError(t, err)
	require.Len(t, found, 1)

	skipped, err := CleanOrphanedArchives(found, time.Hour)
	require.NoError(t, err)
	assert.Empty(t, skipped)
	assert.NoFileExists(t, old)
}

func TestCleanOrphanedArchives_SkipsTouchedSinceScan(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)

	path := writeArchive(t, tmp, "aniflax-backup-busy.zip", 2*time.Hour)
	found, err := FindOrphanedArchives(time.Hour)
	require.NoError(t, err)
	require.Len(t, found, 1)

	now := time.Now()
	require.NoError(t, os.Chtimes(path, now, now))

	skipped, err := CleanOrphanedArchives(found, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{path}, skipped)
	assert.FileExists(t, path)
}
