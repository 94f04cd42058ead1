package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Saver stores the processed video under name. Prepare is called before
// the upload so an unusable destination fails fast.
type Saver interface {
	Prepare() error
	Save(name string, r io.Reader) (string, error)
}

// DirSaver writes exports into one directory, creating it on demand.
// A relative Dir is resolved against the working directory.
type DirSaver struct {
	Dir string
}

// Prepare creates Dir if needed and checks that it is a directory.
func (d DirSaver) Prepare() error {
	_, err := d.dir()
	return err
}

// Save streams r into a temporary file in Dir and renames it to name.
func (d DirSaver) Save(name string, r io.Reader) (string, error) {
	dir, err := d.dir()
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(dir, ".cutline-*.part")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", fmt.Errorf("download export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close export: %w", err)
	}

	final := filepath.Join(dir, filepath.Base(name))
	if err := os.Rename(tmp.Name(), final); err != nil {
		return "", fmt.Errorf("move export into place: %w", err)
	}
	return final, nil
}

func (d DirSaver) dir() (string, error) {
	dir, err := ResolveOutputDir(d.Dir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}
	return dir, CheckOutputDir(dir)
}
