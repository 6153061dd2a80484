package processor

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/mesh_optimizer/mesh"
)

const eps = 1e-9

type testScene struct {
	global    map[mesh.NodeID]mgl64.Mat4
	local     map[mesh.NodeID]mgl64.Mat4
	geometric map[mesh.NodeID]mgl64.Mat4
}

func newTestScene() *testScene {
	return &testScene{
		global:    make(map[mesh.NodeID]mgl64.Mat4),
		local:     make(map[mesh.NodeID]mgl64.Mat4),
		geometric: make(map[mesh.NodeID]mgl64.Mat4),
	}
}

func lookup(m map[mesh.NodeID]mgl64.Mat4, id mesh.NodeID) mgl64.Mat4 {
	if v, ok := m[id]; ok {
		return v
	}
	return mgl64.Ident4()
}

func (s *testScene) GlobalTransform(id mesh.NodeID) mgl64.Mat4    { return lookup(s.global, id) }
func (s *testScene) LocalTransform(id mesh.NodeID) mgl64.Mat4     { return lookup(s.local, id) }
func (s *testScene) GeometricTransform(id mesh.NodeID) mgl64.Mat4 { return lookup(s.geometric, id) }
func (s *testScene) Parent(id mesh.NodeID) (mesh.NodeID, bool)    { return mesh.NoNode, false }
func (s *testScene) NodeName(id mesh.NodeID) string               { return "" }

// quad of 4 shared vertices with uv equal to xy
func quad() *mesh.MeshData {
	md := mesh.New()
	for _, p := range []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}} {
		md.Vertices = append(md.Vertices, mesh.Vertex{Position: p, UV: mgl64.Vec2{p[0], p[1]}})
	}
	md.Faces = []mesh.Face{
		{A: 0, B: 1, C: 2, MaterialID: mesh.NoMaterial},
		{A: 0, B: 2, C: 3, MaterialID: mesh.NoMaterial},
	}
	return md
}

// same quad expanded per corner
func expandedQuad() *mesh.MeshData {
	src := quad()
	md := mesh.New()
	for _, f := range src.Faces {
		for corner := 0; corner < 3; corner++ {
			md.Vertices = append(md.Vertices, src.Vertices[f.Index(corner)])
		}
		n := len(md.Vertices)
		md.Faces = append(md.Faces, mesh.Face{A: n - 3, B: n - 2, C: n - 1, MaterialID: f.MaterialID})
	}
	return md
}

func TestReduceVertexCollapsesSharedEdge(t *testing.T) {
	md := expandedQuad()
	require.Len(t, md.Vertices, 6)

	New().ReduceVertex(md)

	assert.Len(t, md.Vertices, 4)
	assert.Equal(t, mesh.Face{A: 0, B: 1, C: 2, MaterialID: mesh.NoMaterial}, md.Faces[0])
	assert.Equal(t, mesh.Face{A: 0, B: 2, C: 3, MaterialID: mesh.NoMaterial}, md.Faces[1])
	assert.Equal(t, mgl64.Vec3{0, 1, 0}, md.Vertices[3].Position)
	require.NoError(t, md.Validate())
}

func TestReduceVertexIdempotent(t *testing.T) {
	md := expandedQuad()
	p := New()
	p.ReduceVertex(md)
	vertices, faces := len(md.Vertices), len(md.Faces)
	p.ReduceVertex(md)
	assert.Equal(t, vertices, len(md.Vertices))
	assert.Equal(t, faces, len(md.Faces))
}

func TestReduceVertexTolerances(t *testing.T) {
	var tests = []struct {
		name     string
		offset   mgl64.Vec3
		uvOffset mgl64.Vec2
		expected int
	}{
		{"inside tolerance", mgl64.Vec3{0.019, -0.019, 0.01}, mgl64.Vec2{0.009, 0}, 4},
		{"position outside", mgl64.Vec3{0.021, 0, 0}, mgl64.Vec2{}, 5},
		{"uv outside", mgl64.Vec3{}, mgl64.Vec2{0, 0.011}, 5},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			md := expandedQuad()
			// vertex 3 duplicates vertex 0
			md.Vertices[3].Position = md.Vertices[3].Position.Add(test.offset)
			md.Vertices[3].UV = md.Vertices[3].UV.Add(test.uvOffset)
			New().ReduceVertex(md)
			assert.Len(t, md.Vertices, test.expected)
		})
	}
}

func TestReduceVertexFirstOccurrenceOrder(t *testing.T) {
	md := mesh.New()
	md.Vertices = []mesh.Vertex{
		{Position: mgl64.Vec3{0, 0, 0}},
		{Position: mgl64.Vec3{1, 0, 0}},
		{Position: mgl64.Vec3{0, 1, 0}},
		{Position: mgl64.Vec3{5, 5, 5}},
	}
	// faces reference vertex 3 before vertex 0
	md.Faces = []mesh.Face{{A: 3, B: 1, C: 2, MaterialID: 0}, {A: 0, B: 1, C: 2, MaterialID: 1}}

	New().ReduceVertex(md)

	require.Len(t, md.Vertices, 4)
	assert.Equal(t, mgl64.Vec3{5, 5, 5}, md.Vertices[0].Position)
	assert.Equal(t, mgl64.Vec3{0, 0, 0}, md.Vertices[3].Position)
	assert.Equal(t, mesh.Face{A: 0, B: 1, C: 2, MaterialID: 0}, md.Faces[0])
	assert.Equal(t, mesh.Face{A: 3, B: 1, C: 2, MaterialID: 1}, md.Faces[1])
}

func TestGenerateNormalsQuad(t *testing.T) {
	md := quad()
	md.Vertices = append(md.Vertices, mesh.Vertex{Position: mgl64.Vec3{9, 9, 9}, Normal: mgl64.Vec3{1, 0, 0}})

	New().GenerateNormals(md)

	assert.True(t, md.HasNormal)
	for i := 0; i < 4; i++ {
		n := md.Vertices[i].Normal
		assert.InDelta(t, 1.0, n.Len(), eps)
		assert.True(t, n.ApproxEqualThreshold(mgl64.Vec3{0, 0, 1}, eps), "normal %v", n)
	}
	// isolated vertex
	assert.Equal(t, mgl64.Vec3{}, md.Vertices[4].Normal)
}

func TestGenerateNormalsDegenerateFace(t *testing.T) {
	md := mesh.New()
	md.Vertices = make([]mesh.Vertex, 3)
	md.Faces = []mesh.Face{{A: 0, B: 1, C: 2, MaterialID: mesh.NoMaterial}}

	New().GenerateNormals(md)

	for _, v := range md.Vertices {
		assert.Equal(t, mgl64.Vec3{}, v.Normal)
	}
}

func TestGenerateNormalsUnitWeighted(t *testing.T) {
	// small and big triangle sharing vertex 0, differently oriented
	md := mesh.New()
	md.Vertices = []mesh.Vertex{
		{Position: mgl64.Vec3{0, 0, 0}},
		{Position: mgl64.Vec3{0.1, 0, 0}},
		{Position: mgl64.Vec3{0, 0.1, 0}},
		{Position: mgl64.Vec3{0, 0, 10}},
		{Position: mgl64.Vec3{10, 0, 0}},
	}
	md.Faces = []mesh.Face{{A: 0, B: 1, C: 2, MaterialID: 0}, {A: 0, B: 3, C: 4, MaterialID: 0}}

	New().GenerateNormals(md)

	// z face normal (0,0,1) and y face normal (0,1,0) contribute equally
	expected := mgl64.Vec3{0, 1, 1}.Normalize()
	assert.True(t, md.Vertices[0].Normal.ApproxEqualThreshold(expected, eps), "normal %v", md.Vertices[0].Normal)
}

func TestGenerateTangentsQuad(t *testing.T) {
	md := quad()
	p := New()
	p.GenerateNormals(md)
	p.GenerateTangents(md)

	assert.True(t, md.HasTangent)
	for _, v := range md.Vertices {
		assert.True(t, v.Tangent.ApproxEqualThreshold(mgl64.Vec3{1, 0, 0}, 1e-6), "tangent %v", v.Tangent)
		assert.True(t, v.Binormal.ApproxEqualThreshold(mgl64.Vec3{0, -1, 0}, 1e-6), "binormal %v", v.Binormal)
	}
}

func TestGenerateTangentsOrthogonal(t *testing.T) {
	md := mesh.New()
	md.Vertices = []mesh.Vertex{
		{Position: mgl64.Vec3{0, 0, 0}, UV: mgl64.Vec2{0, 0}},
		{Position: mgl64.Vec3{1, 0.3, 0.2}, UV: mgl64.Vec2{0.8, 0.1}},
		{Position: mgl64.Vec3{0.2, 1, 0.5}, UV: mgl64.Vec2{0.2, 0.9}},
		{Position: mgl64.Vec3{1.1, 1.2, -0.4}, UV: mgl64.Vec2{1, 1}},
		// coincident with vertex 1, different uv seam
		{Position: mgl64.Vec3{1, 0.3, 0.2}, UV: mgl64.Vec2{0, 0.5}},
	}
	md.Faces = []mesh.Face{{A: 0, B: 1, C: 2, MaterialID: 0}, {A: 4, B: 3, C: 2, MaterialID: 0}}

	p := New()
	p.GenerateNormals(md)
	p.GenerateTangents(md)

	for i, v := range md.Vertices {
		assert.InDelta(t, 0, v.Tangent.Dot(v.Normal), 1e-9, "vertex %d", i)
		if v.Tangent.Len() > 0 {
			assert.InDelta(t, 1, v.Tangent.Len(), 1e-9)
		}
	}
}

func TestGenerateTangentsDegenerateUV(t *testing.T) {
	md := quad()
	for i := range md.Vertices {
		md.Vertices[i].UV = mgl64.Vec2{}
	}
	p := New()
	p.GenerateNormals(md)
	assert.NotPanics(t, func() { p.GenerateTangents(md) })
	for _, v := range md.Vertices {
		assert.False(t, v.Tangent.Len() != v.Tangent.Len(), "NaN tangent")
	}
}

func TestMerge(t *testing.T) {
	red := mesh.UnknownMaterial("Red")
	red.Diffuse = mgl64.Vec3{1, 0, 0}
	blue := mesh.UnknownMaterial("Blue")

	m1 := quad()
	m1.Materials = []mesh.Material{red}
	m1.Faces[0].MaterialID = 0
	m1.Faces[1].MaterialID = 0
	m1.HasNormal = true

	m2 := quad()
	m2.Materials = []mesh.Material{blue, mesh.UnknownMaterial("Red")}
	m2.Faces[0].MaterialID = 1
	m2.Faces[1].MaterialID = 0
	m2.HasUV2 = true
	m2.Vertices[0].AddInfluence(3, 1)

	merged := New().Merge([]*mesh.MeshData{m1, m2})

	require.Len(t, merged.Vertices, 8)
	require.Len(t, merged.Faces, 4)
	require.Len(t, merged.Materials, 2)
	assert.Equal(t, "Red", merged.Materials[0].Name)
	assert.Equal(t, mgl64.Vec3{1, 0, 0}, merged.Materials[0].Diffuse)
	assert.Equal(t, "Blue", merged.Materials[1].Name)

	assert.Equal(t, mesh.Face{A: 0, B: 1, C: 2, MaterialID: 0}, merged.Faces[0])
	assert.Equal(t, mesh.Face{A: 4, B: 5, C: 6, MaterialID: 0}, merged.Faces[2])
	assert.Equal(t, mesh.Face{A: 4, B: 6, C: 7, MaterialID: 1}, merged.Faces[3])

	assert.True(t, merged.HasNormal)
	assert.True(t, merged.HasUV2)
	assert.False(t, merged.HasSkin)
	require.NoError(t, merged.Validate())

	// inputs untouched
	assert.Equal(t, mesh.Face{A: 0, B: 1, C: 2, MaterialID: 1}, m2.Faces[0])
	merged.Vertices[4].Weights[0] = 0.5
	assert.Equal(t, 1.0, m2.Vertices[0].Weights[0])
}

func TestMergeUnknownMaterialIndex(t *testing.T) {
	m := quad()
	m.Faces[0].MaterialID = 4
	merged := New().Merge([]*mesh.MeshData{m})
	assert.Equal(t, mesh.NoMaterial, merged.Faces[0].MaterialID)
	assert.Equal(t, mesh.NoMaterial, merged.Faces[1].MaterialID)
}

func TestTransform(t *testing.T) {
	md := quad()
	md.HasNormal = true
	for i := range md.Vertices {
		md.Vertices[i].Normal = mgl64.Vec3{0, 0, 1}
	}

	m := mgl64.Translate3D(1, 2, 3).Mul4(mgl64.Scale3D(2, 2, 2))
	New().Transform(md, m)

	assert.Equal(t, mgl64.Vec3{3, 2, 3}, md.Vertices[1].Position)
	// direction is scaled but not translated or renormalized
	assert.Equal(t, mgl64.Vec3{0, 0, 2}, md.Vertices[1].Normal)
}

func TestTransformSkipsNormalsWithoutFlag(t *testing.T) {
	md := quad()
	md.Vertices[0].Normal = mgl64.Vec3{0, 0, 1}
	New().Transform(md, mgl64.Scale3D(3, 3, 3))
	assert.Equal(t, mgl64.Vec3{0, 0, 1}, md.Vertices[0].Normal)
}

func TestTransformToGlobalAndLocal(t *testing.T) {
	scene := newTestScene()
	scene.global[7] = mgl64.Translate3D(0, 0, 5)
	scene.local[7] = mgl64.Translate3D(0, 1, 0)

	md := quad()
	p := New()
	p.TransformToGlobal(md, scene, 7)
	assert.Equal(t, mgl64.Vec3{1, 0, 5}, md.Vertices[1].Position)
	p.TransformToLocal(md, scene, 7)
	assert.Equal(t, mgl64.Vec3{1, 1, 5}, md.Vertices[1].Position)
}

func TestTransformToBindPose(t *testing.T) {
	const meshNode, bone = mesh.NodeID(1), mesh.NodeID(2)

	scene := newTestScene()
	scene.global[bone] = mgl64.Translate3D(1, 0, 0)

	skin := &mesh.Skin{Clusters: []*mesh.Cluster{{
		Link:          bone,
		Mode:          mesh.LinkNormalize,
		Transform:     mgl64.Ident4(),
		TransformLink: mgl64.Ident4(),
	}}}

	md := quad()
	ok := New().TransformToBindPose(md, skin, meshNode, scene)
	require.True(t, ok)
	assert.True(t, md.Vertices[2].Position.ApproxEqualThreshold(mgl64.Vec3{2, 1, 0}, eps))
}

func TestBindPoseMatrixUsesGeometricOffsets(t *testing.T) {
	const meshNode, bone = mesh.NodeID(1), mesh.NodeID(2)

	scene := newTestScene()
	scene.global[bone] = mgl64.Translate3D(0, 3, 0)
	scene.geometric[meshNode] = mgl64.Scale3D(2, 2, 2)

	cluster := &mesh.Cluster{
		Link:          bone,
		Transform:     mgl64.Ident4(),
		TransformLink: mgl64.Translate3D(0, 1, 0),
	}
	skin := &mesh.Skin{Clusters: []*mesh.Cluster{cluster}}

	m, ok := New().BindPoseMatrix(skin, meshNode, scene)
	require.True(t, ok)

	// current * linkInit^-1 * (transform * geometric)
	expected := mgl64.Translate3D(0, 3, 0).Mul4(mgl64.Translate3D(0, -1, 0)).Mul4(mgl64.Scale3D(2, 2, 2))
	assert.True(t, m.ApproxEqualThreshold(expected, eps))
}

func TestBindPoseMatrixAdditive(t *testing.T) {
	const meshNode, bone, associate = mesh.NodeID(1), mesh.NodeID(2), mesh.NodeID(3)

	scene := newTestScene()
	scene.global[bone] = mgl64.Translate3D(1, 0, 0)
	scene.global[associate] = mgl64.Translate3D(0, 0, 2)

	cluster := &mesh.Cluster{
		Link:                    bone,
		AssociateModel:          associate,
		Mode:                    mesh.LinkAdditive,
		Transform:               mgl64.Translate3D(0, 5, 0),
		TransformLink:           mgl64.Ident4(),
		TransformAssociateModel: mgl64.Ident4(),
	}
	skin := &mesh.Skin{Clusters: []*mesh.Cluster{cluster}}

	m, ok := New().BindPoseMatrix(skin, meshNode, scene)
	require.True(t, ok)

	ref := mgl64.Translate3D(0, 5, 0)
	expected := ref.Inv().
		Mul4(mgl64.Ident4()).
		Mul4(mgl64.Translate3D(0, 0, 2).Inv()).
		Mul4(mgl64.Translate3D(1, 0, 0)).
		Mul4(mgl64.Ident4()).
		Mul4(ref)
	assert.True(t, m.ApproxEqualThreshold(expected, eps))
	assert.True(t, m.ApproxEqualThreshold(mgl64.Translate3D(1, 0, -2), eps))
}

func TestBindPoseWithoutClusters(t *testing.T) {
	md := quad()
	before := md.Clone()
	assert.False(t, New().TransformToBindPose(md, &mesh.Skin{}, 1, newTestScene()))
	assert.False(t, New().TransformToBindPose(md, nil, 1, newTestScene()))
	assert.Equal(t, before.Vertices, md.Vertices)
}

func TestReduceFaceNotImplemented(t *testing.T) {
	result, err := New().ReduceFace(quad())
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, mesh.ErrNotImplemented))
}

func TestProgressCallback(t *testing.T) {
	var stages []string
	p := New(WithProgress(func(stage string, done, total int) {
		if done == total {
			stages = append(stages, stage)
		}
	}))
	md := expandedQuad()
	p.GenerateNormals(md)
	p.GenerateTangents(md)
	p.ReduceVertex(md)
	assert.Equal(t, []string{"generate normals", "generate tangents", "weld tangents", "reduce vertex"}, stages)
}
