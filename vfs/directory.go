package vfs

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// DirectoryDriver exposes host directory, elements can not escape it
type DirectoryDriver struct {
	path string
}

func NewDirectoryDriver(path string) *DirectoryDriver {
	return &DirectoryDriver{path: filepath.Clean(path)}
}

func (dd *DirectoryDriver) Name() string      { return filepath.Base(dd.path) }
func (dd *DirectoryDriver) IsDirectory() bool { return true }
func (dd *DirectoryDriver) Path() string      { return dd.path }

func (dd *DirectoryDriver) List() ([]string, error) {
	entries, err := os.ReadDir(dd.path)
	if err != nil {
		return nil, errors.Wrapf(err, "Error getting directory %q info", dd.path)
	}
	result := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		result = append(result, e.Name())
	}
	sort.Strings(result)
	return result, nil
}

// GetElement resolves slash separated name relative to directory
func (dd *DirectoryDriver) GetElement(name string) (Element, error) {
	rel := filepath.Clean("/" + filepath.ToSlash(name))
	if rel == "/" {
		return dd, nil
	}
	newPath := filepath.Join(dd.path, filepath.FromSlash(rel))

	s, err := os.Stat(newPath)
	if err != nil {
		return nil, errors.Wrapf(err, "Stat error")
	}
	if s.IsDir() {
		return NewDirectoryDriver(newPath), nil
	}
	return &DirectoryDriverFile{path: newPath, info: s}, nil
}

type DirectoryDriverFile struct {
	path string
	info os.FileInfo
}

func (ddf *DirectoryDriverFile) Name() string       { return filepath.Base(ddf.path) }
func (ddf *DirectoryDriverFile) IsDirectory() bool  { return false }
func (ddf *DirectoryDriverFile) Size() int64        { return ddf.info.Size() }
func (ddf *DirectoryDriverFile) ModTime() time.Time { return ddf.info.ModTime() }
func (ddf *DirectoryDriverFile) Path() string       { return ddf.path }
