package fileio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.Dockerfile")

	require.NoError(t, WriteFile(path, "FROM scratch\n", NonExecutablePerms))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "FROM scratch\n", string(contents))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, NonExecutablePerms, info.Mode().Perm())
}

func TestWriteFileInvalidPath(t *testing.T) {
	err := WriteFile("/does/not/exist/file.txt", "contents", NonExecutablePerms)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "writing file /does/not/exist/file.txt")
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()

	src := filepath.Join(dir, "source.yaml")
	require.NoError(t, os.WriteFile(src, []byte("annotations: {}\n"), 0o644))

	dest := filepath.Join(dir, "copy.yaml")
	require.NoError(t, CopyFile(src, dest))

	contents, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "annotations: {}\n", string(contents))
}

func TestCopyFileMissingSource(t *testing.T) {
	err := CopyFile("/does/not/exist.yaml", filepath.Join(t.TempDir(), "copy.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening source file")
}
