package utils

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// SafeNormalize returns zero vector for zero-length input
func SafeNormalize(v mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l == 0 {
		return mgl64.Vec3{}
	}
	return v.Mul(1.0 / l)
}

// IsEqual3 compares componentwise with absolute tolerance
func IsEqual3(a, b mgl64.Vec3, tolerance float64) bool {
	return math.Abs(a[0]-b[0]) < tolerance &&
		math.Abs(a[1]-b[1]) < tolerance &&
		math.Abs(a[2]-b[2]) < tolerance
}

func IsEqual2(a, b mgl64.Vec2, tolerance float64) bool {
	return math.Abs(a[0]-b[0]) < tolerance &&
		math.Abs(a[1]-b[1]) < tolerance
}

// input in degrees, fbx order: X first, then Y, then Z
func EulerXYZToMat4(degrees mgl64.Vec3) mgl64.Mat4 {
	rx := mgl64.HomogRotate3DX(mgl64.DegToRad(degrees[0]))
	ry := mgl64.HomogRotate3DY(mgl64.DegToRad(degrees[1]))
	rz := mgl64.HomogRotate3DZ(mgl64.DegToRad(degrees[2]))
	return rz.Mul4(ry).Mul4(rx)
}

// TRS builds T * R * S, rotation in degrees
func TRS(translation, rotation, scaling mgl64.Vec3) mgl64.Mat4 {
	return mgl64.Translate3D(translation[0], translation[1], translation[2]).
		Mul4(EulerXYZToMat4(rotation)).
		Mul4(mgl64.Scale3D(scaling[0], scaling[1], scaling[2]))
}

// TransformPoint applies full affine transform (w = 1)
func TransformPoint(m mgl64.Mat4, p mgl64.Vec3) mgl64.Vec3 {
	return m.Mul4x1(p.Vec4(1)).Vec3()
}

// TransformDirection applies upper 3x3 only (w = 0)
func TransformDirection(m mgl64.Mat4, d mgl64.Vec3) mgl64.Vec3 {
	return m.Mul4x1(d.Vec4(0)).Vec3()
}

// MatrixFromSlice reads column-major 4x4 matrix as stored in fbx arrays
func MatrixFromSlice(a []float64) mgl64.Mat4 {
	if len(a) < 16 {
		return mgl64.Ident4()
	}
	var m mgl64.Mat4
	copy(m[:], a[:16])
	return m
}

func MatrixToSlice(m mgl64.Mat4) []float64 {
	result := make([]float64, 16)
	copy(result, m[:])
	return result
}

func MatrixToFloat32(m mgl64.Mat4) (result [16]float32) {
	for i, v := range m {
		result[i] = float32(v)
	}
	return result
}

func Vec3ToFloat32(v mgl64.Vec3) [3]float32 {
	return [3]float32{float32(v[0]), float32(v[1]), float32(v[2])}
}
