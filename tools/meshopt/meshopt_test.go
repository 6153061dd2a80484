package main

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mogaika/mesh_optimizer/config"
	"github.com/mogaika/mesh_optimizer/creator"
	"github.com/mogaika/mesh_optimizer/fbx"
	"github.com/mogaika/mesh_optimizer/mesh"
	"github.com/mogaika/mesh_optimizer/utils/fbxbuilder"
)

func TestParseIds(t *testing.T) {
	for _, tc := range []struct {
		in     string
		expect []mesh.NodeID
		err    bool
	}{
		{"", nil, false},
		{"1", []mesh.NodeID{1}, false},
		{" 1, 20 ,300", []mesh.NodeID{1, 20, 300}, false},
		{"1,a", nil, true},
	} {
		ids, err := parseIds(tc.in)
		if tc.err {
			assert.Error(t, err, tc.in)
		} else {
			assert.NoError(t, err, tc.in)
			assert.Equal(t, tc.expect, ids, tc.in)
		}
	}
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "dir/scene_optimized.fbx", outputName("dir/scene.fbx", "_optimized", ".fbx"))
	assert.Equal(t, "scene_merged.fbx", outputName("scene", "_merged", ".fbx"))
}

func writeScene(t *testing.T, dir string) string {
	f := fbxbuilder.NewFBXBuilder("scene.fbx")
	for _, name := range []string{"a", "b"} {
		_, err := f.AddMesh(&creator.MeshObject{
			Name:             name,
			ControlPoints:    []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 0, 0}, {1, 1, 0}, {0, 1, 0}},
			Polygons:         [][3]int{{0, 1, 2}, {3, 4, 5}},
			PolygonMaterials: []int{0, 0},
			Materials:        []mesh.Material{{Name: "m", Shading: mesh.ShadingLambert}},
		})
		require.NoError(t, err)
	}
	path := filepath.Join(dir, "scene.fbx")
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()
	require.NoError(t, f.Write(file))
	return path
}

func TestRunOptimize(t *testing.T) {
	in := writeScene(t, t.TempDir())
	require.NoError(t, run(&options{in: in, normals: true}, config.Default(), zap.NewNop()))

	scene, err := fbx.Open(outputName(in, "_optimized", ".fbx"))
	require.NoError(t, err)
	assert.Len(t, scene.Meshes(), 2)
}

func TestRunMerge(t *testing.T) {
	dir := t.TempDir()
	in := writeScene(t, dir)
	out := filepath.Join(dir, "out.fbx")
	require.NoError(t, run(&options{in: in, out: out, merge: true, name: "all"}, config.Default(), zap.NewNop()))

	scene, err := fbx.Open(out)
	require.NoError(t, err)
	names := make([]string, 0)
	for _, m := range scene.Meshes() {
		names = append(names, m.Name)
	}
	assert.ElementsMatch(t, []string{"a", "b", "all"}, names)
}

func TestRunGlb(t *testing.T) {
	dir := t.TempDir()
	in := writeScene(t, dir)
	out := filepath.Join(dir, "scene.glb")
	require.NoError(t, run(&options{in: in, glb: out}, config.Default(), zap.NewNop()))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, []byte("glTF"), data[:4])
}

func TestRunMissingInput(t *testing.T) {
	assert.Error(t, run(&options{in: filepath.Join(t.TempDir(), "none.fbx")}, config.Default(), zap.NewNop()))
}

func TestRunZip(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stone.png"), []byte("stone"), 0644))

	f := fbxbuilder.NewFBXBuilder("wall.fbx")
	_, err := f.AddMesh(&creator.MeshObject{
		Name:             "wall",
		ControlPoints:    []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}},
		Polygons:         [][3]int{{0, 1, 2}},
		PolygonMaterials: []int{0},
		Materials: []mesh.Material{{
			Name:           "stone",
			Shading:        mesh.ShadingLambert,
			DiffuseTexture: &mesh.TextureInfo{Name: "stone", FileName: "D:\\work\\stone.png"},
		}},
	})
	require.NoError(t, err)
	in := filepath.Join(dir, "wall.fbx")
	file, err := os.Create(in)
	require.NoError(t, err)
	require.NoError(t, f.Write(file))
	require.NoError(t, file.Close())

	require.NoError(t, run(&options{in: in, zip: true}, config.Default(), zap.NewNop()))

	zr, err := zip.OpenReader(filepath.Join(dir, "wall_optimized.zip"))
	require.NoError(t, err)
	defer zr.Close()
	names := make([]string, 0)
	for _, file := range zr.File {
		names = append(names, file.Name)
	}
	assert.Equal(t, []string{"wall_optimized.fbx", "stone.png"}, names)
}
