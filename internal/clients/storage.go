package clients

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const storedNameSeparator = "_"

// LocalArchive keeps generated reports on disk and serves them back under a
// public URL prefix. Stored names are "<uuid>_<original name>".
type LocalArchive struct {
	dir          string
	publicPrefix string
	baseURL      string
}

// NewLocalArchive creates dir if missing. baseURL is optional; without it
// file URLs are relative to publicPrefix.
func NewLocalArchive(dir, publicPrefix, baseURL string) (*LocalArchive, error) {
	if dir == "" {
		dir = "./exports"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure archive dir %q: %w", dir, err)
	}

	publicPrefix = "/" + strings.Trim(publicPrefix, "/")
	if publicPrefix == "/" {
		publicPrefix = "/files"
	}

	return &LocalArchive{
		dir:          dir,
		publicPrefix: publicPrefix,
		baseURL:      strings.TrimRight(baseURL, "/"),
	}, nil
}

func (a *LocalArchive) Dir() string { return a.dir }

// Save writes data atomically and returns the stored name.
func (a *LocalArchive) Save(ctx context.Context, fileName string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	stored := uuid.NewString() + storedNameSeparator + filepath.Base(fileName)
	path := filepath.Join(a.dir, stored)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", stored, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to finalize %s: %w", stored, err)
	}
	return stored, nil
}

// Archive stores a generated report and returns its public URL.
func (a *LocalArchive) Archive(ctx context.Context, fileName, _ string, data []byte) (string, error) {
	stored, err := a.Save(ctx, fileName, data)
	if err != nil {
		return "", err
	}
	return a.URLFor(stored), nil
}

// Resolve maps a stored name to its path and the name the file was generated
// under. Names that are not plain files inside the archive dir report
// fs.ErrNotExist.
func (a *LocalArchive) Resolve(stored string) (path, original string, err error) {
	if stored == "" || stored != filepath.Base(stored) || strings.HasPrefix(stored, ".") {
		return "", "", fs.ErrNotExist
	}
	path = filepath.Join(a.dir, stored)
	if _, err := os.Stat(path); err != nil {
		return "", "", err
	}

	original = stored
	if _, name, found := strings.Cut(stored, storedNameSeparator); found {
		original = name
	}
	return path, original, nil
}

func (a *LocalArchive) URLFor(stored string) string {
	return a.baseURL + a.publicPrefix + "/" + stored
}

// Prune removes archived files last modified more than maxAge before now and
// returns how many were removed.
func (a *LocalArchive) Prune(now time.Time, maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		return 0, fmt.Errorf("read archive dir: %w", err)
	}

	removed := 0
	for _, de := range entries {
		if de.IsDir() {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) <= maxAge {
			continue
		}
		if err := os.Remove(filepath.Join(a.dir, de.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}
