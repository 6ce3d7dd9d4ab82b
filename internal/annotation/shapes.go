// Package annotation implements the freehand impassable-terrain drawing tool.
//
// Shapes are kept in raster pixel coordinates. A Session is an immutable value
// replaced on every event; Editor wraps it for hosts that want a change callback.
package annotation

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"orienteer-map/pkg/geometry"
)

// MinAreaPoints is the number of vertices an area needs before it can be committed.
const MinAreaPoints = 3

var (
	// ErrInvalidShape is returned for shapes that cannot be committed.
	ErrInvalidShape = errors.New("invalid shape")

	// ErrTooFewPoints is returned when closing an area with fewer than MinAreaPoints.
	ErrTooFewPoints = fmt.Errorf("%w: area needs at least %d points", ErrInvalidShape, MinAreaPoints)
)

// ImpassableArea is a closed polygon the runner cannot cross.
type ImpassableArea struct {
	Points []geometry.ImagePoint `json:"points"`
}

// ImpassableLine is a segment the runner cannot cross.
type ImpassableLine struct {
	Start geometry.ImagePoint `json:"start"`
	End   geometry.ImagePoint `json:"end"`
}

func finite(p geometry.ImagePoint) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// Validate checks the area has enough finite vertices.
func (a ImpassableArea) Validate() error {
	if len(a.Points) < MinAreaPoints {
		return fmt.Errorf("%w: %d points", ErrTooFewPoints, len(a.Points))
	}
	for i, p := range a.Points {
		if !finite(p) {
			return fmt.Errorf("%w: area vertex %d is not a number", ErrInvalidShape, i)
		}
	}
	return nil
}

// Validate checks both endpoints are set to finite values.
func (l ImpassableLine) Validate() error {
	if !finite(l.Start) {
		return fmt.Errorf("%w: line start is missing", ErrInvalidShape)
	}
	if !finite(l.End) {
		return fmt.Errorf("%w: line end is missing", ErrInvalidShape)
	}
	return nil
}

// Contains reports whether p is inside the area.
func (a ImpassableArea) Contains(p geometry.ImagePoint) bool {
	if !a.Bounds().Contains(p.X, p.Y) {
		return false
	}
	return geometry.PointInPolygon(p, a.Points)
}

// Bounds returns the area's bounding box in raster pixels.
func (a ImpassableArea) Bounds() geometry.Rect {
	return geometry.BoundingBox(a.Points)
}

// Clone returns a deep copy of the area.
func (a ImpassableArea) Clone() ImpassableArea {
	return ImpassableArea{Points: slices.Clone(a.Points)}
}

// CloneAreas deep-copies a list of areas. The result is never nil.
func CloneAreas(areas []ImpassableArea) []ImpassableArea {
	out := make([]ImpassableArea, len(areas))
	for i, a := range areas {
		out[i] = a.Clone()
	}
	return out
}

// CloneLines copies a list of lines into a non-nil slice.
func CloneLines(lines []ImpassableLine) []ImpassableLine {
	out := make([]ImpassableLine, len(lines))
	copy(out, lines)
	return out
}
