// Package imagedir lists and consolidates flat image directories.
//
// Listings follow shell glob semantics for "dir/*": every entry whose name
// does not start with a dot, in lexical order, and nothing at all for a
// directory that does not exist. Consolidation copies regular files only.
package imagedir

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// List returns the names of the visible entries of dir. A missing dir lists
// as empty; any other read failure is an error.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Stats summarises a consolidation.
type Stats struct {
	Copied      int      `json:"copied"`
	Overwritten int      `json:"overwritten"`
	Skipped     int      `json:"skipped"`
	Collisions  []string `json:"collisions,omitempty"` // names provided by more than one source
}

// Consolidate copies every regular file of each source directory into dst,
// in argument order, creating dst if absent. A later source silently
// overwrites a same-named file from an earlier one; the names are reported in
// Stats.Collisions. A missing source contributes nothing. Subdirectories,
// hidden files and files that already are the destination file are skipped.
//
// File mode and modification time are preserved.
func Consolidate(ctx context.Context, dst string, srcs ...string) (Stats, error) {
	var stats Stats
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return stats, fmt.Errorf("consolidate images: %w", err)
	}

	seen := make(map[string]bool)
	for _, src := range srcs {
		names, err := List(src)
		if err != nil {
			return stats, err
		}
		for _, name := range names {
			if err := ctx.Err(); err != nil {
				return stats, err
			}

			from := filepath.Join(src, name)
			to := filepath.Join(dst, name)

			info, err := os.Stat(from)
			if err != nil {
				return stats, fmt.Errorf("consolidate images: %w", err)
			}
			if !info.Mode().IsRegular() {
				stats.Skipped++
				continue
			}

			existing, err := os.Stat(to)
			switch {
			case err == nil && os.SameFile(info, existing):
				stats.Skipped++
				seen[name] = true
				continue
			case err == nil:
				stats.Overwritten++
			case !os.IsNotExist(err):
				return stats, fmt.Errorf("consolidate images: %w", err)
			}

			if seen[name] {
				stats.Collisions = append(stats.Collisions, name)
			}
			seen[name] = true

			if err := copyFile(from, to, info); err != nil {
				return stats, fmt.Errorf("consolidate images: %w", err)
			}
			stats.Copied++
		}
	}
	return stats, nil
}

// copyFile copies contents, permission bits and modification time.
func copyFile(from, to string, info os.FileInfo) error {
	in, err := os.Open(from)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(to, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	if err := os.Chmod(to, info.Mode().Perm()); err != nil {
		return err
	}
	return os.Chtimes(to, info.ModTime(), info.ModTime())
}
