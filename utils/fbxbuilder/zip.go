package fbxbuilder

import (
	"archive/zip"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mogaika/mesh_optimizer/mesh"
	"github.com/mogaika/mesh_optimizer/vfs"
)

func (f *FBXBuilder) AddExportFile(name string, data []byte) {
	f.files[name] = data
}

func entryName(name string) string {
	return strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(name, "\\", "/")), "/")
}

// textureNames returns names texture can be found by:
// relative name, then file name when it is not absolute, then base of file name
func textureNames(t *mesh.TextureInfo) []string {
	result := make([]string, 0, 3)
	add := func(name string) {
		if name == "" || name == "." {
			return
		}
		for _, n := range result {
			if n == name {
				return
			}
		}
		result = append(result, name)
	}

	add(entryName(t.RelativeFileName))
	if t.FileName != "" {
		if !strings.HasPrefix(t.FileName, "/") && !strings.HasPrefix(t.FileName, "\\") && !strings.Contains(t.FileName, ":") {
			add(entryName(t.FileName))
		}
		add(path.Base(entryName(t.FileName)))
	}
	return result
}

// AddTextureFiles adds images referenced by scene textures found in d.
// Missing textures are skipped. Returns number of added files.
func (f *FBXBuilder) AddTextureFiles(d vfs.Directory) (int, error) {
	added := 0
	for _, t := range f.scene.Textures() {
		found := false
		for _, name := range textureNames(t) {
			if _, exists := f.files[name]; exists {
				found = true
				break
			}
			file, err := vfs.DirectoryGetFile(d, name)
			if err != nil {
				continue
			}
			data, err := os.ReadFile(file.Path())
			if err != nil {
				return added, errors.Wrapf(err, "Unable to read texture %q", name)
			}
			f.AddExportFile(name, data)
			added++
			found = true
			break
		}
		if !found {
			f.log.Warn("texture file not found", zap.String("texture", t.Name), zap.String("file", t.FileName))
		}
	}
	return added, nil
}

// WriteZip writes fbx as name together with added export files
func (f *FBXBuilder) WriteZip(w io.Writer, name string) error {
	zw := zip.NewWriter(w)

	fbxW, err := zw.Create(name)
	if err != nil {
		return errors.Wrapf(err, "Can't create zip fbx for %q", name)
	}
	if err := f.Write(fbxW); err != nil {
		return errors.Wrapf(err, "Fbx exporting failed")
	}

	names := make([]string, 0, len(f.files))
	for fileName := range f.files {
		names = append(names, fileName)
	}
	sort.Strings(names)

	for _, fileName := range names {
		fw, err := zw.Create(fileName)
		if err != nil {
			return errors.Wrapf(err, "Can't create zip for %q", fileName)
		}
		if _, err := fw.Write(f.files[fileName]); err != nil {
			return errors.Wrapf(err, "Can't write zip for %q", fileName)
		}
	}

	return zw.Close()
}
