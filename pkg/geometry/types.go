// Package geometry provides the coordinate types shared by the map editor.
//
// Points are tagged with the coordinate space they live in so that raster
// pixels, canvas pixels and percentage-of-map positions cannot be mixed by
// accident. Conversions between spaces are explicit functions.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Space identifies a coordinate space. It is only used as a type parameter.
type Space interface {
	spaceName() string
}

// ImageSpace is raster pixel space: (0,0) is the top-left pixel of the map image.
type ImageSpace struct{}

func (ImageSpace) spaceName() string { return "image" }

// ScreenSpace is canvas pixel space: (0,0) is the top-left of the drawing surface.
type ScreenSpace struct{}

func (ScreenSpace) spaceName() string { return "screen" }

// PercentSpace expresses positions as 0-100 of the map surface width and height.
type PercentSpace struct{}

func (PercentSpace) spaceName() string { return "percent" }

// Point is a 2D point in coordinate space S.
type Point[S Space] struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ImagePoint is a point in raster pixels.
type ImagePoint = Point[ImageSpace]

// ScreenPoint is a point in canvas pixels.
type ScreenPoint = Point[ScreenSpace]

// PercentPoint is a point in percent of the map surface.
type PercentPoint = Point[PercentSpace]

// Pt creates a point in space S.
func Pt[S Space](x, y float64) Point[S] {
	return Point[S]{X: x, Y: y}
}

// SpaceName returns the name of the point's coordinate space.
func (p Point[S]) SpaceName() string {
	var s S
	return s.spaceName()
}

// Vec returns the point as a gonum vector.
func (p Point[S]) Vec() r2.Vec {
	return r2.Vec{X: p.X, Y: p.Y}
}

// FromVec converts a gonum vector to a point in space S.
func FromVec[S Space](v r2.Vec) Point[S] {
	return Point[S]{X: v.X, Y: v.Y}
}

// Distance returns the Euclidean distance to another point in the same space.
func (p Point[S]) Distance(other Point[S]) float64 {
	return r2.Norm(r2.Sub(p.Vec(), other.Vec()))
}

// Add returns the sum of two points.
func (p Point[S]) Add(other Point[S]) Point[S] {
	return FromVec[S](r2.Add(p.Vec(), other.Vec()))
}

// Sub returns the difference of two points.
func (p Point[S]) Sub(other Point[S]) Point[S] {
	return FromVec[S](r2.Sub(p.Vec(), other.Vec()))
}

// Scale returns the point scaled by a factor.
func (p Point[S]) Scale(factor float64) Point[S] {
	return FromVec[S](r2.Scale(factor, p.Vec()))
}

// Size represents a 2D size.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NewSize creates a new Size.
func NewSize(width, height float64) Size {
	return Size{Width: width, Height: height}
}

// Empty reports whether either dimension is not positive.
func (s Size) Empty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// Rect represents a rectangle with floating-point coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NewRect creates a new Rect.
func NewRect(x, y, width, height float64) Rect {
	return Rect{X: x, Y: y, Width: width, Height: height}
}

// Contains returns true if (x, y) is inside the rectangle.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// ImageToPercent converts a raster position to percent of the given image size.
func ImageToPercent(p ImagePoint, size Size) PercentPoint {
	if size.Empty() {
		return PercentPoint{}
	}
	return PercentPoint{X: p.X / size.Width * 100, Y: p.Y / size.Height * 100}
}

// PercentToImage converts a percent position to raster pixels of the given image size.
func PercentToImage(p PercentPoint, size Size) ImagePoint {
	return ImagePoint{X: p.X / 100 * size.Width, Y: p.Y / 100 * size.Height}
}

// AffineTransform represents a 2x3 affine transformation matrix.
// [a b tx]
// [c d ty]
type AffineTransform struct {
	A, B, TX float64
	C, D, TY float64
}

// Translation returns a translation transform.
func Translation(tx, ty float64) AffineTransform {
	return AffineTransform{A: 1, D: 1, TX: tx, TY: ty}
}

// Scale returns a scaling transform.
func Scale(sx, sy float64) AffineTransform {
	return AffineTransform{A: sx, D: sy}
}

// Apply applies the transform to (x, y).
func (t AffineTransform) Apply(x, y float64) (float64, float64) {
	return t.A*x + t.B*y + t.TX, t.C*x + t.D*y + t.TY
}

// Compose returns this transform composed with another (this * other).
// The result applies other first.
func (t AffineTransform) Compose(other AffineTransform) AffineTransform {
	return AffineTransform{
		A:  t.A*other.A + t.B*other.C,
		B:  t.A*other.B + t.B*other.D,
		TX: t.A*other.TX + t.B*other.TY + t.TX,
		C:  t.C*other.A + t.D*other.C,
		D:  t.C*other.B + t.D*other.D,
		TY: t.C*other.TX + t.D*other.TY + t.TY,
	}
}

// Inverse returns the inverse transform, if it exists.
func (t AffineTransform) Inverse() (AffineTransform, bool) {
	det := t.A*t.D - t.B*t.C
	if math.Abs(det) < 1e-12 {
		return AffineTransform{}, false
	}

	invDet := 1.0 / det
	return AffineTransform{
		A:  t.D * invDet,
		B:  -t.B * invDet,
		TX: (t.B*t.TY - t.D*t.TX) * invDet,
		C:  -t.C * invDet,
		D:  t.A * invDet,
		TY: (t.C*t.TX - t.A*t.TY) * invDet,
	}, true
}
