// Package viewport maps between map raster pixels and canvas pixels.
//
// The transform is
//
//	screen = canvasCenter + pan + (image - imageCenter) * baseScale * zoom
//
// where baseScale fits the whole raster into the canvas at zoom 1 without ever
// upscaling past native resolution. State values are immutable: every operation
// returns a new State and the caller owns storage.
package viewport

import (
	"math"

	"orienteer-map/pkg/geometry"
)

const (
	MinZoom    = 0.25
	MaxZoom    = 5.0
	ButtonStep = 0.25 // zoom in/out buttons
	WheelStep  = 0.1  // one mouse wheel notch
)

// State is a snapshot of the view onto the map raster.
type State struct {
	Zoom       float64              `json:"zoom"`
	Pan        geometry.ScreenPoint `json:"pan"`
	BaseScale  float64              `json:"baseScale"`
	ImageSize  geometry.Size        `json:"imageSize"`
	CanvasSize geometry.Size        `json:"canvasSize"`
}

// New returns a view at zoom 1 with no image loaded.
func New() State {
	return State{Zoom: 1, BaseScale: 1}
}

// BaseScaleFor returns min(container/image) per axis, capped at 1.
// Unknown sizes yield 1.
func BaseScaleFor(container, img geometry.Size) float64 {
	if container.Empty() || img.Empty() {
		return 1
	}
	return math.Min(math.Min(container.Width/img.Width, container.Height/img.Height), 1)
}

// Ready reports whether the raster dimensions are known. Until then the map
// cannot be edited.
func (s State) Ready() bool {
	return !s.ImageSize.Empty()
}

// WithImage sets the raster size and recomputes the base scale.
func (s State) WithImage(size geometry.Size) State {
	s.ImageSize = size
	s.BaseScale = BaseScaleFor(s.CanvasSize, s.ImageSize)
	return s
}

// Resize sets the canvas size and recomputes the base scale. Zoom and pan are kept.
func (s State) Resize(canvas geometry.Size) State {
	s.CanvasSize = canvas
	s.BaseScale = BaseScaleFor(s.CanvasSize, s.ImageSize)
	return s
}

// Scale returns the number of canvas pixels per raster pixel.
func (s State) Scale() float64 {
	return s.BaseScale * s.Zoom
}

// Transform returns the image-to-screen mapping as an affine matrix.
func (s State) Transform() geometry.AffineTransform {
	k := s.Scale()
	cx, cy := s.CanvasSize.Width/2, s.CanvasSize.Height/2
	ix, iy := s.ImageSize.Width/2, s.ImageSize.Height/2
	return geometry.Translation(cx+s.Pan.X, cy+s.Pan.Y).
		Compose(geometry.Scale(k, k)).
		Compose(geometry.Translation(-ix, -iy))
}

// ImageToScreen converts a raster position to canvas pixels.
func (s State) ImageToScreen(p geometry.ImagePoint) geometry.ScreenPoint {
	k := s.Scale()
	return geometry.ScreenPoint{
		X: s.CanvasSize.Width/2 + s.Pan.X + (p.X-s.ImageSize.Width/2)*k,
		Y: s.CanvasSize.Height/2 + s.Pan.Y + (p.Y-s.ImageSize.Height/2)*k,
	}
}

// ScreenToImage converts canvas pixels to a raster position through the
// inverse of Transform. A degenerate scale maps points unchanged.
func (s State) ScreenToImage(p geometry.ScreenPoint) geometry.ImagePoint {
	inv, ok := s.Transform().Inverse()
	if !ok {
		return geometry.ImagePoint{X: p.X, Y: p.Y}
	}
	x, y := inv.Apply(p.X, p.Y)
	return geometry.ImagePoint{X: x, Y: y}
}

// ClampZoom limits a zoom level to [MinZoom, MaxZoom].
func ClampZoom(zoom float64) float64 {
	return math.Max(MinZoom, math.Min(MaxZoom, zoom))
}

// SetZoom sets the zoom level, clamped.
func (s State) SetZoom(zoom float64) State {
	s.Zoom = ClampZoom(zoom)
	return s
}

// ZoomIn steps the zoom up by ButtonStep.
func (s State) ZoomIn() State {
	return s.SetZoom(s.Zoom + ButtonStep)
}

// ZoomOut steps the zoom down by ButtonStep.
func (s State) ZoomOut() State {
	return s.SetZoom(s.Zoom - ButtonStep)
}

// Wheel applies one wheel notch: positive direction zooms in, negative zooms out.
func (s State) Wheel(direction float64) State {
	switch {
	case direction > 0:
		return s.SetZoom(s.Zoom + WheelStep)
	case direction < 0:
		return s.SetZoom(s.Zoom - WheelStep)
	}
	return s
}

// PanBy moves the view by a canvas pixel offset.
func (s State) PanBy(dx, dy float64) State {
	s.Pan = s.Pan.Add(geometry.ScreenPoint{X: dx, Y: dy})
	return s
}

// Reset restores zoom 1 and no pan.
func (s State) Reset() State {
	s.Zoom = 1
	s.Pan = geometry.ScreenPoint{}
	return s
}
