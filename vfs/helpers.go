package vfs

import (
	"strings"

	"github.com/pkg/errors"
)

func DirectoryGetFile(d Directory, name string) (File, error) {
	e, err := d.GetElement(name)
	if err != nil {
		return nil, errors.Wrapf(err, "Cannot open file %q", name)
	}
	f, ok := e.(File)
	if !ok || e.IsDirectory() {
		return nil, errors.Errorf("File %q is directory, not a file", name)
	}
	return f, nil
}

// ListWithExt returns names of files with extension ext, compared case insensitive
func ListWithExt(d Directory, ext string) ([]string, error) {
	names, err := d.List()
	if err != nil {
		return nil, err
	}
	result := make([]string, 0, len(names))
	for _, name := range names {
		if strings.EqualFold(ext, nameExt(name)) {
			if e, err := d.GetElement(name); err == nil && !e.IsDirectory() {
				result = append(result, name)
			}
		}
	}
	return result, nil
}

func nameExt(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i:]
	}
	return ""
}
