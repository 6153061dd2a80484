package fbxbuilder

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	rawfbx "github.com/mogaika/fbx"
	"github.com/mogaika/fbx/builders/bfbx73"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/mesh_optimizer/creator"
	"github.com/mogaika/mesh_optimizer/fbx"
	"github.com/mogaika/mesh_optimizer/loader"
	"github.com/mogaika/mesh_optimizer/mesh"
	"github.com/mogaika/mesh_optimizer/vfs"
)

func quad(name string) *creator.MeshObject {
	red := mesh.Material{
		Name:             "Red",
		Shading:          mesh.ShadingPhong,
		Ambient:          mgl64.Vec3{0.1, 0.1, 0.1},
		Diffuse:          mgl64.Vec3{1, 0, 0},
		Specular:         mgl64.Vec3{0.5, 0.5, 0.5},
		Shininess:        10,
		ReflectionFactor: 1,
		DiffuseTexture: &mesh.TextureInfo{
			Name:         "red",
			FileName:     "textures/red.png",
			Scale:        mgl64.Vec2{1, 1},
			DefaultAlpha: 1,
		},
	}
	return &creator.MeshObject{
		Name:             name,
		ControlPoints:    []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
		Normals:          []mgl64.Vec3{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
		UV:               []mgl64.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
		Polygons:         [][3]int{{0, 1, 2}, {0, 2, 3}},
		PolygonMaterials: []int{0, 0},
		Materials:        []mesh.Material{red},
	}
}

func fbxModel(id int64, name string) *rawfbx.Node {
	return bfbx73.Model(id, fbx.JoinName(name, "Model"), "LimbNode").AddNodes(
		bfbx73.Version(232),
		bfbx73.Properties70(),
	)
}

func reread(t *testing.T, f *FBXBuilder) *fbx.Scene {
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	scene, err := fbx.Read(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	return scene
}

func TestAddMeshRoundTrip(t *testing.T) {
	f := NewFBXBuilder("test.fbx")
	node, err := f.AddMesh(quad("plane"))
	require.NoError(t, err)
	assert.Equal(t, []mesh.NodeID{node}, f.Meshes())

	scene := reread(t, f)
	models := scene.Meshes()
	require.Len(t, models, 1)
	assert.Equal(t, "plane", models[0].Name)

	src, err := scene.MeshSource(mesh.NodeID(models[0].Id))
	require.NoError(t, err)
	md, err := loader.Load(src)
	require.NoError(t, err)

	require.Len(t, md.Vertices, 4)
	require.Len(t, md.Faces, 2)
	assert.True(t, md.HasNormal)
	assert.Equal(t, mgl64.Vec2{1, 1}, md.Vertices[2].UV)
	assert.Equal(t, mgl64.Vec3{0, 0, 1}, md.Vertices[3].Normal)
	assert.Equal(t, mesh.Face{A: 0, B: 2, C: 3, MaterialID: 0}, md.Faces[1])

	require.Len(t, md.Materials, 1)
	red := md.Materials[0]
	assert.Equal(t, "Red", red.Name)
	assert.Equal(t, mesh.ShadingPhong, red.Shading)
	assert.Equal(t, mgl64.Vec3{1, 0, 0}, red.Diffuse)
	assert.InDelta(t, 10, red.Shininess, 1e-9)
	require.NotNil(t, red.DiffuseTexture)
	assert.Equal(t, "textures/red.png", red.DiffuseTexture.FileName)
	assert.Nil(t, red.AmbientTexture)
}

func TestMaterialReused(t *testing.T) {
	f := NewFBXBuilder("test.fbx")
	_, err := f.AddMesh(quad("a"))
	require.NoError(t, err)
	_, err = f.AddMesh(quad("b"))
	require.NoError(t, err)

	assert.Len(t, f.Scene().Objects(fbx.KindMaterial), 1)
	assert.Len(t, f.Scene().Objects(fbx.KindTexture), 1)
	assert.Len(t, f.Scene().Objects(fbx.KindVideo), 1)

	// FromScene picks up materials of loaded document
	g := FromScene(reread(t, f))
	_, err = g.AddMesh(quad("c"))
	require.NoError(t, err)
	assert.Len(t, g.Scene().Objects(fbx.KindMaterial), 1)
	assert.Len(t, g.Meshes(), 3)
}

func TestAddSkinAndBindPose(t *testing.T) {
	f := NewFBXBuilder("test.fbx")
	bone := f.GenerateId()
	require.NoError(t, f.AddObjects(
		fbxModel(bone, "bone"),
	))
	f.Scene().Connect(fbx.ConnectionObject, bone, 0, "")

	node, err := f.AddMesh(quad("skinned"))
	require.NoError(t, err)

	skin := &mesh.Skin{Name: "skinned", Clusters: []*mesh.Cluster{{
		Link:          mesh.NodeID(bone),
		Mode:          mesh.LinkTotalOne,
		Indices:       []int{0, 1},
		Weights:       []float64{1, 0.5},
		Transform:     mgl64.Ident4(),
		TransformLink: mgl64.Translate3D(0, 2, 0),
	}}}
	require.NoError(t, f.AddSkin(node, skin))
	require.NoError(t, f.AddBindPose(&creator.BindPose{
		Name: "skinned",
		Entries: []creator.PoseEntry{
			{Node: mesh.NodeID(bone), Matrix: mgl64.Translate3D(0, 2, 0)},
			{Node: node, Matrix: mgl64.Ident4()},
		},
	}))

	scene := reread(t, f)
	src, err := scene.MeshSource(node)
	require.NoError(t, err)
	skins := src.Skins()
	require.Len(t, skins, 1)
	require.Len(t, skins[0].Clusters, 1)
	cluster := skins[0].Clusters[0]
	assert.Equal(t, mesh.NodeID(bone), cluster.Link)
	assert.Equal(t, mesh.LinkTotalOne, cluster.Mode)
	assert.Equal(t, []int{0, 1}, cluster.Indices)
	assert.Equal(t, []float64{1, 0.5}, cluster.Weights)
	assert.True(t, cluster.TransformLink.ApproxEqualThreshold(mgl64.Translate3D(0, 2, 0), 1e-9))

	poses := scene.Poses()
	require.Len(t, poses, 1)
	require.Len(t, poses[0].Nodes, 2)
	assert.Equal(t, bone, poses[0].Nodes[0].Node)
	assert.Equal(t, int64(node), poses[0].Nodes[1].Node)
}

func TestAddSkinWithoutGeometry(t *testing.T) {
	f := NewFBXBuilder("test.fbx")
	assert.Error(t, f.AddSkin(mesh.NodeID(42), &mesh.Skin{Name: "none"}))
}

func TestCountDefinitions(t *testing.T) {
	f := NewFBXBuilder("test.fbx")
	_, err := f.AddMesh(quad("plane"))
	require.NoError(t, err)
	f.countDefinitions()

	counts := make(map[string]int32)
	definitions := f.Root().GetNode("Definitions")
	for _, ot := range definitions.GetNodes("ObjectType") {
		counts[ot.Properties[0].(string)] = ot.GetNode("Count").Properties[0].(int32)
	}

	assert.Equal(t, int32(1), counts["Model"])
	assert.Equal(t, int32(1), counts["Geometry"])
	assert.Equal(t, int32(1), counts["Material"])
	assert.Equal(t, int32(1), counts["Texture"])
	assert.Equal(t, int32(1), counts["Video"])
	assert.Equal(t, int32(0), counts["NodeAttribute"])
	assert.Equal(t, int32(6), definitions.GetNode("Count").Properties[0].(int32))
}

func TestTextureNames(t *testing.T) {
	assert.Equal(t, []string{"textures/red.png", "red.png"},
		textureNames(&mesh.TextureInfo{RelativeFileName: "textures\\red.png", FileName: "C:\\art\\red.png"}))
	assert.Equal(t, []string{"up.png"},
		textureNames(&mesh.TextureInfo{RelativeFileName: "../up.png", FileName: "up.png"}))
	assert.Equal(t, []string{"textures/red.png", "red.png"},
		textureNames(&mesh.TextureInfo{FileName: "textures/red.png"}))
	assert.Empty(t, textureNames(&mesh.TextureInfo{}))
}

func TestWriteZip(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "textures"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "textures", "red.png"), []byte("png"), 0644))

	f := NewFBXBuilder("test.fbx")
	_, err := f.AddMesh(quad("plane"))
	require.NoError(t, err)
	missing := quad("missing")
	missing.Materials[0].Name = "Missing"
	missing.Materials[0].DiffuseTexture.FileName = "none.png"
	_, err = f.AddMesh(missing)
	require.NoError(t, err)

	added, err := f.AddTextureFiles(vfs.NewDirectoryDriver(dir))
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	var buf bytes.Buffer
	require.NoError(t, f.WriteZip(&buf, "test.fbx"))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	assert.Equal(t, "test.fbx", zr.File[0].Name)
	assert.Equal(t, "textures/red.png", zr.File[1].Name)

	rc, err := zr.File[1].Open()
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), data)

	rc, err = zr.File[0].Open()
	require.NoError(t, err)
	data, err = io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	scene, err := fbx.Read(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Len(t, scene.Meshes(), 2)
}
