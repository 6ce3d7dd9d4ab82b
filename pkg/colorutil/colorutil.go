// Package colorutil provides the colors used to draw the course-setting map.
package colorutil

import (
	"image/color"
)

// Common overlay colors used throughout the application.
var (
	Black  = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Yellow = color.RGBA{R: 255, G: 255, B: 0, A: 255}
	Blue   = color.RGBA{R: 0, G: 90, B: 255, A: 255}
	Green  = color.RGBA{R: 0, G: 160, B: 60, A: 255}
	Red    = color.RGBA{R: 220, G: 20, B: 20, A: 255}

	// Overprint is the magenta-purple used for course overprint on orienteering maps.
	Overprint = color.RGBA{R: 190, G: 30, B: 190, A: 255}

	Background = color.RGBA{R: 60, G: 60, B: 60, A: 255}

	ImpassableFill   = color.RGBA{R: 220, G: 20, B: 20, A: 80}
	ImpassableStroke = color.RGBA{R: 200, G: 0, B: 0, A: 255}
	InProgress       = color.RGBA{R: 255, G: 140, B: 0, A: 255}
	FirstVertex      = color.RGBA{R: 0, G: 200, B: 80, A: 255}
	Selection        = Yellow
)

// Blend composites c over dst using c's alpha.
func Blend(dst, c color.RGBA) color.RGBA {
	if c.A == 255 {
		return c
	}
	a := float64(c.A) / 255
	mix := func(d, s uint8) uint8 {
		return uint8(float64(s)*a + float64(d)*(1-a) + 0.5)
	}
	return color.RGBA{
		R: mix(dst.R, c.R),
		G: mix(dst.G, c.G),
		B: mix(dst.B, c.B),
		A: uint8(float64(c.A) + float64(dst.A)*(1-a) + 0.5),
	}
}

// Darken reduces the brightness of a color.
func Darken(c color.RGBA, factor float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * (1 - factor)),
		G: uint8(float64(c.G) * (1 - factor)),
		B: uint8(float64(c.B) * (1 - factor)),
		A: c.A,
	}
}

// WithAlpha returns c with a new alpha.
func WithAlpha(c color.RGBA, a uint8) color.RGBA {
	c.A = a
	return c
}
