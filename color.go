package scenecore

import "image/color"

// A Color represents a color, containing R, G, B, and A components, each expected to range from 0 to 1.
type Color struct {
	R, G, B, A float32
}

// NewColor returns a new Color, with the provided R, G, B, and A components expected to range from 0 to 1.
func NewColor(r, g, b, a float32) Color {
	return Color{r, g, b, a}
}

// White is the default material color.
var White = NewColor(1, 1, 1, 1)

// NewColorFromStd converts a standard library color into a Color.
func NewColorFromStd(c color.Color) Color {
	r, g, b, a := c.RGBA()
	return Color{float32(r) / 0xffff, float32(g) / 0xffff, float32(b) / 0xffff, float32(a) / 0xffff}
}

// RGBA64 returns the Color's components as float64s, ready for use with ebiten's ColorScale and vertex colors.
func (c Color) RGBA64() (float64, float64, float64, float64) {
	return float64(c.R), float64(c.G), float64(c.B), float64(c.A)
}

// ToRGBA converts the Color to an 8-bit-per-channel standard library color.
func (c Color) ToRGBA() color.RGBA {
	clamp := func(v float32) uint8 {
		if v <= 0 {
			return 0
		}
		if v >= 1 {
			return 255
		}
		return uint8(v*255 + 0.5)
	}
	return color.RGBA{clamp(c.R), clamp(c.G), clamp(c.B), clamp(c.A)}
}
