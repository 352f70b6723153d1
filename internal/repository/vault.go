package repository

import (
	"os"
	"path/filepath"

	"github.com/gofrs/uuid"
	"github.com/pkg/errors"
)

// A Vault stores sealed blobs on the filesystem.
type Vault struct {
	root string
}

// NewVault returns a new Vault rooted at the given directory.
func NewVault(root string) (*Vault, error) {
	if err := os.MkdirAll(root, 0700); err != nil {
		return nil, errors.Wrap(err, "could not create vault")
	}
	return &Vault{root: root}, nil
}

// Write stores the given sealed blob and returns its reference.
func (v *Vault) Write(data []byte) (string, error) {
	ref := uuid.Must(uuid.NewV4()).String()

	if err := os.WriteFile(v.path(ref), data, 0600); err != nil {
		return "", errors.Wrap(err, "could not write blob")
	}
	return ref, nil
}

// Read returns the sealed blob of the given reference.
func (v *Vault) Read(ref string) ([]byte, error) {
	data, err := os.ReadFile(v.path(ref))
	return data, errors.Wrap(err, "could not read blob")
}

// Remove deletes the blob of the given reference.
// Removing a missing blob is not an error.
func (v *Vault) Remove(ref string) error {
	if ref == "" {
		return nil
	}

	err := os.Remove(v.path(ref))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "could not remove blob")
	}
	return nil
}

func (v *Vault) path(ref string) string {
	// References are generated so a base name is enough to stay inside the root.
	return filepath.Join(v.root, filepath.Base(ref))
}
