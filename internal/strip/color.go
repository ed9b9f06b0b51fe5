package strip

import "image/color"

// Color is a 24-bit RGB pixel value.
type Color struct {
	R, G, B uint8
}

// Off is the all-dark pixel.
var Off = Color{}

// Scale returns c at level percent (clamped to 0..100). Channels truncate
// toward zero.
func (c Color) Scale(level float64) Color {
	if level <= 0 {
		return Off
	}
	if level >= 100 {
		return c
	}
	return Color{
		R: uint8(float64(c.R) * level / 100),
		G: uint8(float64(c.G) * level / 100),
		B: uint8(float64(c.B) * level / 100),
	}
}

// Dim returns c scaled by a fraction in [0,1].
func (c Color) Dim(f float64) Color {
	return c.Scale(f * 100)
}

func (c Color) IsOff() bool { return c == Off }

// NRGBA converts to an opaque image color for drawers.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

// applyWhiteCap clamps per-LED RGB so r+g+b <= whiteCap*3*255.
func applyWhiteCap(rgb []byte, whiteCap float64) {
	if whiteCap <= 0 || whiteCap >= 1 {
		return
	}
	limit := whiteCap * 3.0 * 255.0
	for i := 0; i+2 < len(rgb); i += 3 {
		s := float64(rgb[i]) + float64(rgb[i+1]) + float64(rgb[i+2])
		if s > limit {
			scale := limit / s
			rgb[i] = byte(float64(rgb[i]) * scale)
			rgb[i+1] = byte(float64(rgb[i+1]) * scale)
			rgb[i+2] = byte(float64(rgb[i+2]) * scale)
		}
	}
}
