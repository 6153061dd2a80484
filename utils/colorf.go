package utils

import "github.com/go-gl/mathgl/mgl64"

// ColorFloat is rgba color with components in [0, 1]
type ColorFloat mgl64.Vec4

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// RGBA implements image/color.Color, values are alpha-premultiplied
func (c ColorFloat) RGBA() (r, g, b, a uint32) {
	const mf = float64(256*256 - 1)
	alpha := clamp01(c[3])
	r = uint32(clamp01(c[0]) * alpha * mf)
	g = uint32(clamp01(c[1]) * alpha * mf)
	b = uint32(clamp01(c[2]) * alpha * mf)
	a = uint32(alpha * mf)
	return
}

// Bytes returns straight (not premultiplied) 8 bit components
func (c ColorFloat) Bytes() [4]uint8 {
	var result [4]uint8
	for i := range result {
		result[i] = uint8(clamp01(c[i])*255 + 0.5)
	}
	return result
}
