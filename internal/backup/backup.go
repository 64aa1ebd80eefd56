// Package backup archives the bot's source tree into a zip file.
package backup

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/majorcontext/aniflax/internal/system"
)

// Options selects which files go into an archive.
type Options struct {
	// Extensions lists file name suffixes to include (".go"). Empty includes
	// every regular file.
	Extensions []string
	// UseGitignore skips paths matched by .gitignore files under the root.
	UseGitignore bool
	// Exclude holds extra patterns in gitignore syntax.
	Exclude []string
}

// Result summarizes a finished archive.
type Result struct {
	Files int
	// Bytes is the uncompressed size of the archived files.
	Bytes int64
}

// Create walks root and writes a deflate-compressed zip of the selected files
// to w, with paths relative to root. The .git directory is always skipped.
// ctx is checked between files. When w is a file under root, it is left out
// of its own archive.
func Create(ctx context.Context, root string, w io.Writer, opts Options) (Result, error) {
	var res Result

	var self os.FileInfo
	if f, ok := w.(*os.File); ok {
		self, _ = f.Stat()
	}

	matcher, err := buildMatcher(root, opts)
	if err != nil {
		return res, fmt.Errorf("build ignore matcher: %w", err)
	}

	zw := zip.NewWriter(w)
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if d.IsDir() && d.Name() == ".git" {
			return filepath.SkipDir
		}
		if matcher.Match(strings.Split(rel, string(filepath.Separator)), d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !hasExtension(d.Name(), opts.Extensions) {
			return nil
		}
		if self != nil {
			if info, err := d.Info(); err == nil && os.SameFile(self, info) {
				return nil
			}
		}

		n, err := addFile(zw, path, filepath.ToSlash(rel), d)
		if err != nil {
			return err
		}
		res.Files++
		res.Bytes += n
		return nil
	})
	if err != nil {
		zw.Close()
		return res, fmt.Errorf("walk %s: %w", root, err)
	}
	if err := zw.Close(); err != nil {
		return res, fmt.Errorf("finish archive: %w", err)
	}
	return res, nil
}

// CreateTemp archives root into a new file in the temp dir and returns its
// path. The caller removes the file. On error nothing is left behind.
func CreateTemp(ctx context.Context, root string, opts Options) (string, Result, error) {
	f, err := os.CreateTemp("", system.ArchivePattern)
	if err != nil {
		return "", Result{}, fmt.Errorf("create temp archive: %w", err)
	}

	res, err := Create(ctx, root, f, opts)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("close temp archive: %w", closeErr)
	}
	if err != nil {
		os.Remove(f.Name())
		return "", res, err
	}
	return f.Name(), res, nil
}

func addFile(zw *zip.Writer, path, name string, d fs.DirEntry) (int64, error) {
	info, err := d.Info()
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", name, err)
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return 0, fmt.Errorf("zip header for %s: %w", name, err)
	}
	header.Name = name
	header.Method = zip.Deflate

	dst, err := zw.CreateHeader(header)
	if err != nil {
		return 0, fmt.Errorf("write header for %s: %w", name, err)
	}
	src, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", name, err)
	}
	n, err := io.Copy(dst, src)
	src.Close() // not deferred: a large tree would hold every handle open
	if err != nil {
		return n, fmt.Errorf("copy %s: %w", name, err)
	}
	return n, nil
}

func hasExtension(name string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	for _, ext := range exts {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// buildMatcher collects .gitignore patterns below root (when enabled) plus
// the extra exclusions.
func buildMatcher(root string, opts Options) (gitignore.Matcher, error) {
	var patterns []gitignore.Pattern

	if opts.UseGitignore {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() && d.Name() == ".git" {
				return filepath.SkipDir
			}
			if d.Name() != ".gitignore" || d.IsDir() {
				return nil
			}

			relDir, err := filepath.Rel(root, filepath.Dir(path))
			if err != nil {
				return err
			}
			var domain []string
			if relDir != "." {
				domain = strings.Split(relDir, string(filepath.Separator))
			}

			content, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			for _, line := range strings.Split(string(content), "\n") {
				line = strings.TrimSpace(line)
				if line == "" || strings.HasPrefix(line, "#") {
					continue
				}
				patterns = append(patterns, gitignore.ParsePattern(line, domain))
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	for _, p := range opts.Exclude {
		patterns = append(patterns, gitignore.ParsePattern(p, nil))
	}
	return gitignore.NewMatcher(patterns), nil
}
