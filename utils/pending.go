package utils

import (
	"os"
	"path/filepath"
)

// PendingFile is an output written to a temporary file next to its
// destination. Commit renames it into place, Abort removes it, so readers
// never see a half-written file at path.
type PendingFile struct {
	*os.File
	path string
	done bool
}

func NewPendingFile(path string) (*PendingFile, error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, err
	}
	if err := f.Chmod(0o644); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, err
	}
	return &PendingFile{File: f, path: path}, nil
}

// Path is the final destination.
func (p *PendingFile) Path() string { return p.path }

func (p *PendingFile) Commit() error {
	if p.done {
		return nil
	}
	p.done = true
	if err := p.File.Close(); err != nil {
		os.Remove(p.File.Name())
		return err
	}
	if err := os.Rename(p.File.Name(), p.path); err != nil {
		os.Remove(p.File.Name())
		return err
	}
	return nil
}

// Abort discards the file. It is a no-op after Commit.
func (p *PendingFile) Abort() {
	if p.done {
		return
	}
	p.done = true
	p.File.Close()
	os.Remove(p.File.Name())
}
