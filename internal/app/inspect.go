package app

import (
	"orienteer-map/pkg/geometry"
)

// HoverInfo describes the map position under the pointer.
type HoverInfo struct {
	Image   geometry.ImagePoint
	Percent geometry.PercentPoint
	// Area is the index of the committed impassable area containing the
	// position, or -1.
	Area int
}

// HoverAt reports what lies under screen point p. ok is false before a map
// is loaded and for points off the map.
func (s *State) HoverAt(p geometry.ScreenPoint) (info HoverInfo, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.view.Ready() {
		return HoverInfo{}, false
	}
	img := s.view.ScreenToImage(p)
	size := s.view.ImageSize
	if !geometry.NewRect(0, 0, size.Width, size.Height).Contains(img.X, img.Y) {
		return HoverInfo{}, false
	}

	info = HoverInfo{Image: img, Percent: geometry.ImageToPercent(img, size), Area: -1}
	for i, a := range s.editor.Session().Areas() {
		if a.Contains(img) {
			info.Area = i
			break
		}
	}
	return info, true
}

// VisibleROI returns the part of the map currently shown on the canvas as a
// clockwise rectangle in raster pixels. It is nil when the whole map is in
// view, when no map is loaded, or when the map is scrolled out of view.
func (s *State) VisibleROI() []geometry.ImagePoint {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.view.Ready() || s.view.CanvasSize.Empty() {
		return nil
	}
	tl := s.view.ScreenToImage(geometry.ScreenPoint{})
	br := s.view.ScreenToImage(geometry.ScreenPoint{X: s.view.CanvasSize.Width, Y: s.view.CanvasSize.Height})
	// Half a pixel of slack absorbs rounding in the inverse transform.
	visible := geometry.NewRect(tl.X-0.5, tl.Y-0.5, br.X-tl.X+1, br.Y-tl.Y+1)

	size := s.view.ImageSize
	if visible.Contains(0, 0) && visible.Contains(size.Width, size.Height) {
		return nil
	}

	x0, y0 := max(tl.X, 0), max(tl.Y, 0)
	x1, y1 := min(br.X, size.Width), min(br.Y, size.Height)
	if x1 <= x0 || y1 <= y0 {
		return nil
	}
	return []geometry.ImagePoint{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}}
}
