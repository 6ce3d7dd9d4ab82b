// Package hittest answers proximity questions used for closing polygons and
// snapping controls.
package hittest

import "orienteer-map/pkg/geometry"

const (
	// ClosingTolerance is the screen-pixel radius around an area's first vertex
	// that closes the polygon.
	ClosingTolerance = 20.0

	// DefaultSnapDistance is the snap radius in percent units. It is not
	// compensated for zoom.
	DefaultSnapDistance = 2.0
)

// WithinTolerance reports whether a and b are closer than a screen-pixel
// tolerance, with the distance measured in data units at the given scale
// (screen pixels per data unit). A point exactly at the tolerance is outside.
func WithinTolerance[S geometry.Space](a, b geometry.Point[S], tolerance, scale float64) bool {
	if scale <= 0 {
		scale = 1
	}
	return a.Distance(b) < tolerance/scale
}

// WithinDistance reports whether a and b are closer than distance data units.
func WithinDistance[S geometry.Space](a, b geometry.Point[S], distance float64) bool {
	return a.Distance(b) < distance
}

// Nearest returns the index of the first candidate closer than maxDistance to p.
// Iteration order wins over proximity.
func Nearest[S geometry.Space](p geometry.Point[S], candidates []geometry.Point[S], maxDistance float64) (int, bool) {
	for i, c := range candidates {
		if WithinDistance(p, c, maxDistance) {
			return i, true
		}
	}
	return -1, false
}
