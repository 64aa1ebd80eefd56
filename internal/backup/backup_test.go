package backup

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func readZip(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	out := make(map[string]string)
	for _, f := range zr.File {
		assert.Equal(t, zip.Deflate, f.Method, f.Name)
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		out[f.Name] = string(content)
	}
	return out
}

func names(m map[string]string) []string {
	var out []string
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func TestCreate_FiltersByExtension(t *testing.T) {
	root := writeTree(t, map[string]string{
		"main.go":              "package main\n",
		"internal/task/r.go":   "package task\n",
		"README.md":            "# hi\n",
		"internal/x/notes.txt": "notes",
		".git/config":          "[core]",
		".git/hooks/pre.go":    "package hooks\n",
	})

	var buf bytes.Buffer
	res, err := Create(context.Background(), root, &buf, Options{Extensions: []string{".go"}})
	require.NoError(t, err)

	got := readZip(t, buf.Bytes())
	assert.Equal(t, []string{"internal/task/r.go", "main.go"}, names(got))
	assert.Equal(t, "package main\n", got["main.go"])
	assert.Equal(t, 2, res.Files)
	assert.Equal(t, int64(len("package main\n")+len("package task\n")), res.Bytes)
}

func TestCreate_NoExtensionsIncludesEverything(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.go":  "a",
		"b.txt": "b",
	})

	var buf bytes.Buffer
	_, err := Create(context.Background(), root, &buf, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.go", "b.txt"}, names(readZip(t, buf.Bytes())))
}

func TestCreate_Gitignore(t *testing.T) {
	root := writeTree(t, map[string]string{
		".gitignore":        "vendor/\n# comment\n*_gen.go\n",
		"main.go":           "package main\n",
		"api_gen.go":        "package main\n",
		"vendor/lib/lib.go": "package lib\n",
		"sub/.gitignore":    "local.go\n",
		"sub/local.go":      "package sub\n",
		"sub/kept.go":       "package sub\n",
		"other/local.go":    "package other\n",
	})

	var buf bytes.Buffer
	_, err := Create(context.Background(), root, &buf, Options{
		Extensions:   []string{".go"},
		UseGitignore: true,
		Exclude:      []string{"other/"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"main.go", "sub/kept.go"}, names(readZip(t, buf.Bytes())))
}

func TestCreate_GitignoreDisabled(t *testing.T) {
	root := writeTree(t, map[string]string{
		".gitignore": "*.go\n",
		"main.go":    "package main\n",
	})

	var buf bytes.Buffer
	_, err := Create(context.Background(), root, &buf, Options{Extensions: []string{".go"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"main.go"}, names(readZip(t, buf.Bytes())))
}

func TestCreate_Cancelled(t *testing.T) {
	root := writeTree(t, map[string]string{"main.go": "package main\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Create(ctx, root, io.Discard, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCreateTemp(t *testing.T) {
	t.Setenv("TMPDIR", t.TempDir())
	root := writeTree(t, map[string]string{"main.go": "package main\n"})

	path, res, err := CreateTemp(context.Background(), root, Options{Extensions: []string{".go"}})
	require.NoError(t, err)
	defer os.Remove(path)

	assert.Equal(t, os.TempDir(), filepath.Dir(path))
	assert.Regexp(t, `aniflax-backup-\d+\.zip$`, filepath.Base(path))
	assert.Equal(t, 1, res.Files)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"main.go"}, names(readZip(t, data)))
}

func TestCreateTemp_RemovesFileOnError(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)

	_, _, err := CreateTemp(context.Background(), filepath.Join(tmp, "missing"), Options{})
	require.Error(t, err)

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCreate_SkipsOutputFileInsideRoot(t *testing.T) {
	root := writeTree(t, map[string]string{"main.go": "package main\n", "notes.txt": "notes"})
	out := filepath.Join(root, "backup.zip")
	f, err := os.Create(out)
	require.NoError(t, err)

	res, err := Create(context.Background(), root, f, Options{})
	require.NoError(t, f.Close())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Files)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"main.go", "notes.txt"}, names(readZip(t, data)))
}
