package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the fichegen home directory.
	DefaultDirName = ".fichegen"

	// GuidesDirName is the subdirectory holding teacher-guide PDFs.
	GuidesDirName = "guides"

	// TextbooksDirName is the subdirectory holding student textbook PDFs.
	TextbooksDirName = "textbooks"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"
)

// Dir represents the fichegen home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.fichegen).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// GuidesDir returns the directory for teacher-guide PDFs.
func (d *Dir) GuidesDir() string {
	return filepath.Join(d.path, GuidesDirName)
}

// TextbooksDir returns the directory for student textbook PDFs.
func (d *Dir) TextbooksDir() string {
	return filepath.Join(d.path, TextbooksDirName)
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	if err := os.MkdirAll(d.GuidesDir(), 0o755); err != nil {
		return fmt.Errorf("failed to create guides directory: %w", err)
	}
	if err := os.MkdirAll(d.TextbooksDir(), 0o755); err != nil {
		return fmt.Errorf("failed to create textbooks directory: %w", err)
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}
