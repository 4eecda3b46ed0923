package credential

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// File stores the credential as a JSON file with mode 0600.
type File struct {
	path string
}

// NewFile returns a store backed by the file at path.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the backing file path.
func (f *File) Path() string { return f.path }

// Load implements Store.
func (f *File) Load() (Credential, bool, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return Credential{}, false, nil
	}
	if err != nil {
		return Credential{}, false, fmt.Errorf("failed to read %s: %w", filepath.Base(f.path), err)
	}

	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil || cred.Token == "" {
		return Credential{}, false, ErrCorrupt
	}
	return cred, true, nil
}

// Save implements Store. The parent directory is created with mode 0700.
func (f *File) Save(cred Credential) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, data, 0600)
}

// Clear implements Store.
func (f *File) Clear() error {
	err := os.Remove(f.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
