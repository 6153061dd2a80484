package utils

import (
	"bytes"
	"image/color"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func TestSafeNormalize(t *testing.T) {
	assert.Equal(t, mgl64.Vec3{}, SafeNormalize(mgl64.Vec3{}))
	assert.True(t, SafeNormalize(mgl64.Vec3{0, 3, 4}).ApproxEqual(mgl64.Vec3{0, 0.6, 0.8}))
}

func TestIsEqual(t *testing.T) {
	for _, tc := range []struct {
		a, b      mgl64.Vec3
		tolerance float64
		equal     bool
	}{
		{mgl64.Vec3{1, 2, 3}, mgl64.Vec3{1, 2, 3}, 0.01, true},
		{mgl64.Vec3{1, 2, 3}, mgl64.Vec3{1.005, 2, 3}, 0.01, true},
		{mgl64.Vec3{1, 2, 3}, mgl64.Vec3{1, 2.02, 3}, 0.01, false},
		{mgl64.Vec3{1, 2, 3}, mgl64.Vec3{1, 2, 3.05}, 0.01, false},
	} {
		assert.Equal(t, tc.equal, IsEqual3(tc.a, tc.b, tc.tolerance), "%v %v", tc.a, tc.b)
	}
	assert.True(t, IsEqual2(mgl64.Vec2{0.5, 0.5}, mgl64.Vec2{0.505, 0.495}, 0.01))
	assert.False(t, IsEqual2(mgl64.Vec2{0.5, 0.5}, mgl64.Vec2{0.52, 0.5}, 0.01))
}

func TestEulerXYZ(t *testing.T) {
	// X is applied first
	m := EulerXYZToMat4(mgl64.Vec3{90, 0, 90})
	p := TransformPoint(m, mgl64.Vec3{0, 1, 0})
	assert.True(t, IsEqual3(p, mgl64.Vec3{0, 0, 1}, 1e-9), "%v", p)

	p = TransformPoint(m, mgl64.Vec3{1, 0, 0})
	assert.True(t, IsEqual3(p, mgl64.Vec3{0, 1, 0}, 1e-9), "%v", p)
}

func TestTRSAndTransform(t *testing.T) {
	m := TRS(mgl64.Vec3{1, 2, 3}, mgl64.Vec3{}, mgl64.Vec3{2, 2, 2})
	assert.True(t, TransformPoint(m, mgl64.Vec3{1, 1, 1}).ApproxEqual(mgl64.Vec3{3, 4, 5}))
	assert.True(t, TransformDirection(m, mgl64.Vec3{1, 0, 0}).ApproxEqual(mgl64.Vec3{2, 0, 0}))
}

func TestMatrixSlice(t *testing.T) {
	m := mgl64.Translate3D(1, 2, 3)
	a := MatrixToSlice(m)
	assert.Len(t, a, 16)
	// translation is stored in last column
	assert.Equal(t, []float64{1, 2, 3, 1}, a[12:])
	assert.Equal(t, m, MatrixFromSlice(a))
	assert.Equal(t, mgl64.Ident4(), MatrixFromSlice([]float64{1, 2}))

	f := MatrixToFloat32(m)
	assert.Equal(t, float32(3), f[14])
}

func TestColorFloat(t *testing.T) {
	c := ColorFloat{1, 0.5, -1, 2}
	assert.Equal(t, [4]uint8{255, 128, 0, 255}, c.Bytes())

	var _ color.Color = c
	r, g, b, a := ColorFloat{1, 1, 0, 0.5}.RGBA()
	assert.Equal(t, uint32(0xffff/2), r)
	assert.Equal(t, r, g)
	assert.Equal(t, uint32(0), b)
	assert.Equal(t, uint32(0xffff/2), a)
}

func TestDecodeName(t *testing.T) {
	assert.Equal(t, "plain", DecodeName("plain"))
	assert.Equal(t, "ünï", DecodeName("ünï"))
	// windows 1252 by default
	assert.Equal(t, "café", DecodeName("caf\xe9"))
	assert.Equal(t, "abc", BytesToString([]byte("abc\x00def")))
}

func TestDump(t *testing.T) {
	var buf bytes.Buffer
	Dump(&buf, struct{ V []int }{[]int{1, 2}})
	assert.Contains(t, buf.String(), "V: ([]int) (len=2)")
	assert.Contains(t, SDump(1), "(int) 1")
	assert.Equal(t, `ab\x00\x01`, DumpToOneLineString([]byte{'a', 'b', 0, 1}))
}
