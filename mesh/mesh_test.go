package mesh

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFaceIndex(t *testing.T) {
	f := Face{A: 1, B: 2, C: 3, MaterialID: NoMaterial}
	for corner, expected := range []int{1, 2, 3} {
		assert.Equal(t, expected, f.Index(corner))
	}
	f.SetIndex(0, 10)
	f.SetIndex(1, 11)
	f.SetIndex(2, 12)
	assert.Equal(t, Face{A: 10, B: 11, C: 12, MaterialID: NoMaterial}, f)
}

func TestVertexCloneIsDeep(t *testing.T) {
	var v Vertex
	v.AddInfluence(5, 0.5)
	c := v.Clone()
	c.Weights[0] = 1
	c.Bones[0] = 7
	assert.Equal(t, 0.5, v.Weights[0])
	assert.Equal(t, NodeID(5), v.Bones[0])
}

func TestMaterialIndex(t *testing.T) {
	md := New()
	md.Materials = append(md.Materials, UnknownMaterial("Red"), UnknownMaterial("Blue"))
	assert.Equal(t, 1, md.MaterialIndex("Blue"))
	assert.Equal(t, NoMaterial, md.MaterialIndex("Green"))
	assert.Equal(t, 1.0, md.Materials[0].TransparencyFactor)
}

func TestValidate(t *testing.T) {
	md := New()
	md.Vertices = make([]Vertex, 3)
	md.Faces = []Face{{0, 1, 2, NoMaterial}}
	require.NoError(t, md.Validate())

	md.Faces[0].C = 3
	err := md.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDimensionMismatch))

	md.Faces[0].C = 2
	md.Vertices[1].Bones = []NodeID{1}
	assert.True(t, errors.Is(md.Validate(), ErrDimensionMismatch))
}

func TestParseLinkMode(t *testing.T) {
	for _, test := range []struct {
		in  string
		out LinkMode
	}{
		{"Normalize", LinkNormalize},
		{"Additive", LinkAdditive},
		{"Total1", LinkTotalOne},
	} {
		mode, err := ParseLinkMode(test.in)
		require.NoError(t, err)
		assert.Equal(t, test.out, mode)
		assert.Equal(t, test.in, mode.String())
	}
	_, err := ParseLinkMode("Bogus")
	assert.Error(t, err)
}
