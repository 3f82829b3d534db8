package fileio

import (
	"fmt"
	"io"
	"os"
)

const (
	// ExecutablePerms are Linux permissions (rwxr--r--) for executable files (scripts, binaries, etc.)
	ExecutablePerms os.FileMode = 0o744
	// NonExecutablePerms are Linux permissions (rw-r--r--) for non-executable files (configs, manifests, etc.):
	NonExecutablePerms os.FileMode = 0o644
)

func WriteFile(filename string, contents string, perms os.FileMode) error {
	if err := os.WriteFile(filename, []byte(contents), perms); err != nil {
		return fmt.Errorf("writing file %s: %w", filename, err)
	}

	return nil
}

func CopyFile(src string, dest string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source file: %w", err)
	}
	defer func() {
		_ = sourceFile.Close()
	}()

	destFile, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("creating destination file: %w", err)
	}
	defer func() {
		_ = destFile.Close()
	}()

	if _, err = io.Copy(destFile, sourceFile); err != nil {
		return fmt.Errorf("copying file: %w", err)
	}

	return nil
}
