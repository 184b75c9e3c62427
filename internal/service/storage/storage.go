package storage

import (
	"os"
	"path/filepath"
)

// FileStore persists attachment bytes on disk, one directory per session
// passphrase under the base uploads directory.
type FileStore struct {
	baseDir string
}

// NewFileStore ensures the base directory exists.
func NewFileStore(baseDir string) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{baseDir: baseDir}, nil
}

// SaveForSession writes data to <base>/<passphrase>/<name> and returns the
// absolute path.
func (f *FileStore) SaveForSession(passphrase, name string, data []byte) (string, error) {
	dir := filepath.Join(f.baseDir, passphrase)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// Path returns the on-disk location of a stored file and whether it exists.
func (f *FileStore) Path(passphrase, name string) (string, bool) {
	path := filepath.Join(f.baseDir, passphrase, filepath.Base(name))
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

// ListForSession names the files currently stored for a session.
func (f *FileStore) ListForSession(passphrase string) []string {
	entries, err := os.ReadDir(filepath.Join(f.baseDir, passphrase))
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names
}

// DeleteSessionFiles removes the session's directory and everything in it.
func (f *FileStore) DeleteSessionFiles(passphrase string) error {
	return os.RemoveAll(filepath.Join(f.baseDir, passphrase))
}
