// Package storage keeps uploaded archives on the local filesystem under a
// single flat directory: {base}/{random-token}_{original-name}.
package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

type Store struct {
	base string
}

func NewStore(base string) *Store {
	return &Store{base: base}
}

// Save copies the reader into the store under a collision-free name built
// from a random 128-bit token and the original filename. An existing file at
// the same path is replaced, though the random prefix makes that unexpected.
func (s *Store) Save(r io.Reader, originalName string) (storedName, path string, err error) {
	if err := os.MkdirAll(s.base, 0o755); err != nil {
		return "", "", fmt.Errorf("create storage directory: %w", err)
	}

	storedName = uuid.NewString() + "_" + originalName
	path = filepath.Join(s.base, storedName)

	f, err := os.Create(path)
	if err != nil {
		return "", "", fmt.Errorf("create stored file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", "", fmt.Errorf("write stored file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", "", fmt.Errorf("close stored file: %w", err)
	}
	return storedName, path, nil
}

// Delete removes the stored file. A missing file is not an error.
func (s *Store) Delete(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete stored file: %w", err)
	}
	return nil
}

// Checksum computes the lowercase hex SHA-256 of everything in r.
func Checksum(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("hash bytes: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
