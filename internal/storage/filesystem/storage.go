// Package filesystem implements the storage Backend on the local filesystem.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/univerify/univerify/internal/storage"
)

// FilesystemStorage implements storage.Backend under a base directory.
type FilesystemStorage struct {
	baseDir    string // Base directory for all storage operations
	absBaseDir string // Absolute path of baseDir for path validation
}

// NewFilesystemStorage creates a new FilesystemStorage with the given base directory.
func NewFilesystemStorage(baseDir string) (*FilesystemStorage, error) {
	if err := os.MkdirAll(baseDir, 0o750); err != nil {
		return nil, storage.NewStorageError("NewFilesystemStorage", baseDir, err)
	}

	absBaseDir, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, storage.NewStorageError("NewFilesystemStorage", baseDir, err)
	}

	return &FilesystemStorage{
		baseDir:    baseDir,
		absBaseDir: absBaseDir,
	}, nil
}

// validatePath validates that the key doesn't escape the base directory.
// Returns the safe full path or an error if path traversal is detected.
func (s *FilesystemStorage) validatePath(key string) (string, error) {
	if err := storage.ValidateKey(key); err != nil {
		return "", err
	}

	fullPath := filepath.Join(s.baseDir, filepath.FromSlash(key))

	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}

	// Must start with baseDir + separator
	if !strings.HasPrefix(absPath, s.absBaseDir+string(filepath.Separator)) {
		return "", fmt.Errorf("path escape attempt: %s", key)
	}

	return fullPath, nil
}

// Put writes data under key using a temp file and rename.
func (s *FilesystemStorage) Put(ctx context.Context, key string, data []byte) error {
	filePath, err := s.validatePath(key)
	if err != nil {
		return storage.NewStorageErrorWithMessage("Put", key, err, "path validation failed")
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0o750); err != nil {
		return storage.NewStorageError("Put", key, err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(filePath), ".receipt-*.tmp")
	if err != nil {
		return storage.NewStorageError("Put", key, err)
	}
	tempPath := tempFile.Name()

	var succeeded bool
	defer func() {
		tempFile.Close()
		if !succeeded {
			os.Remove(tempPath)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		return storage.NewStorageError("Put", key, err)
	}

	if err := tempFile.Close(); err != nil {
		return storage.NewStorageError("Put", key, err)
	}

	if err := os.Rename(tempPath, filePath); err != nil {
		return storage.NewStorageError("Put", key, err)
	}

	succeeded = true
	slog.Debug("receipt stored", "key", key, "size", len(data))
	return nil
}

// Get returns the object stored under key.
func (s *FilesystemStorage) Get(ctx context.Context, key string) ([]byte, error) {
	filePath, err := s.validatePath(key)
	if err != nil {
		return nil, storage.NewStorageErrorWithMessage("Get", key, err, "path validation failed")
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storage.NewStorageError("Get", key, storage.ErrNotFound)
		}
		return nil, storage.NewStorageError("Get", key, err)
	}
	return data, nil
}

// List returns the keys under prefix in lexical order. Temp files are skipped.
func (s *FilesystemStorage) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string

	err := filepath.WalkDir(s.baseDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(d.Name(), ".tmp") {
			return nil
		}

		rel, err := filepath.Rel(s.baseDir, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, storage.NewStorageError("List", prefix, err)
	}

	sort.Strings(keys)
	return keys, nil
}

// Delete removes key. A missing key is not an error.
func (s *FilesystemStorage) Delete(ctx context.Context, key string) error {
	filePath, err := s.validatePath(key)
	if err != nil {
		return storage.NewStorageErrorWithMessage("Delete", key, err, "path validation failed")
	}

	if err := os.Remove(filePath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return storage.NewStorageError("Delete", key, err)
	}

	slog.Debug("receipt deleted", "key", key)
	return nil
}

// GetBaseDir returns the storage root.
func (s *FilesystemStorage) GetBaseDir() string {
	return s.baseDir
}

var _ storage.Backend = (*FilesystemStorage)(nil)
