package clients

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalArchive_URLFor(t *testing.T) {
	tmpDir := t.TempDir()

	a, err := NewLocalArchive(tmpDir, "/files", "http://example.com:8060/")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com:8060/files/a.csv", a.URLFor("a.csv"))

	b, err := NewLocalArchive(tmpDir, "files/", "")
	require.NoError(t, err)
	assert.Equal(t, "/files/b.pdf", b.URLFor("b.pdf"))

	c, err := NewLocalArchive(tmpDir, "", "")
	require.NoError(t, err)
	assert.Equal(t, "/files/c.xlsx", c.URLFor("c.xlsx"))
}

func TestLocalArchive_ArchiveThenResolve(t *testing.T) {
	a, err := NewLocalArchive(t.TempDir(), "/files", "")
	require.NoError(t, err)

	content := []byte("Status,Agreements\r\n")
	url, err := a.Archive(context.Background(), "registry-summary-20240301-0930.csv", "text/csv", content)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "/files/"), url)

	stored := strings.TrimPrefix(url, "/files/")
	path, original, err := a.Resolve(stored)
	require.NoError(t, err)
	assert.Equal(t, "registry-summary-20240301-0930.csv", original)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, got)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestLocalArchive_SaveHonoursContext(t *testing.T) {
	a, err := NewLocalArchive(t.TempDir(), "", "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = a.Save(ctx, "x.csv", []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)

	entries, err := os.ReadDir(a.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLocalArchive_ResolveRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	a, err := NewLocalArchive(filepath.Join(dir, "exports"), "/files", "")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "secret.txt"), []byte("x"), 0o644))

	for _, name := range []string{"", "../secret.txt", "..", ".hidden", "a/b.csv"} {
		_, _, err := a.Resolve(name)
		assert.Error(t, err, name)
	}

	_, _, err = a.Resolve("missing.csv")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestLocalArchive_Prune(t *testing.T) {
	dir := t.TempDir()
	a, err := NewLocalArchive(dir, "", "")
	require.NoError(t, err)

	oldName, err := a.Save(context.Background(), "old.csv", []byte("old"))
	require.NoError(t, err)
	newName, err := a.Save(context.Background(), "new.csv", []byte("new"))
	require.NoError(t, err)

	now := time.Now()
	past := now.Add(-time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, oldName), past, past))

	removed, err := a.Prune(now, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = os.Stat(filepath.Join(dir, oldName))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	_, err = os.Stat(filepath.Join(dir, newName))
	assert.NoError(t, err)
}
