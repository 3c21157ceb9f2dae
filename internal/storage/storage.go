// Package storage holds uploaded proof files on local disk. Paths are
// relative keys; the metadata rows in the files table reference blobs by
// these keys.
package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var ErrInvalidKey = errors.New("invalid blob key")

// BlobStore abstracts blob persistence so services and the worker don't care
// where bytes live.
type BlobStore interface {
	Save(key string, r io.Reader) (int64, error)
	Open(key string) (io.ReadCloser, error)
	Delete(key string) error
	Checksum(key string) (string, int64, error)
}

// DiskStore is a BlobStore rooted at a directory on local disk.
type DiskStore struct {
	root string
}

// NewDiskStore creates a disk-backed blob store rooted at root, creating the
// directory if needed.
func NewDiskStore(root string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob root: %w", err)
	}
	return &DiskStore{root: root}, nil
}

// Save writes the blob under key and returns the number of bytes written
func (s *DiskStore) Save(key string, r io.Reader) (int64, error) {
	path, err := s.resolve(key)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("failed to create blob directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create blob: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, r)
	if err != nil {
		return n, fmt.Errorf("failed to write blob: %w", err)
	}
	return n, nil
}

// Open opens the blob under key for reading
func (s *DiskStore) Open(key string) (io.ReadCloser, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open blob: %w", err)
	}
	return f, nil
}

// Delete removes the blob under key. Deleting a missing blob is not an error.
func (s *DiskStore) Delete(key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

// Checksum streams the blob and returns its hex sha256 digest and size
func (s *DiskStore) Checksum(key string) (string, int64, error) {
	f, err := s.Open(key)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, fmt.Errorf("failed to checksum blob: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// resolve maps a key to an absolute path and rejects traversal outside the
// root.
func (s *DiskStore) resolve(key string) (string, error) {
	if key == "" || strings.Contains(key, "..") || filepath.IsAbs(key) {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.root, filepath.Clean(key)), nil
}
