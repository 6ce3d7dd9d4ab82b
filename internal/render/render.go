// Package render draws the map, impassable shapes and controls into an RGBA
// buffer. Draw is a pure function of its Scene: hosts call it after every state
// change and display the result.
//
// Geometry is transformed to screen space before stroking, so line widths and
// marker sizes stay constant on screen at every zoom level.
package render

import (
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"orienteer-map/internal/annotation"
	"orienteer-map/internal/course"
	"orienteer-map/internal/viewport"
	"orienteer-map/pkg/colorutil"
	"orienteer-map/pkg/geometry"
)

// Style configures stroke and marker sizes in screen pixels.
type Style struct {
	StrokeWidth       int
	VertexRadius      int
	FirstVertexRadius int
	ControlRadius     int
	SelectionWidth    int
	LabelScale        int

	// Smooth uses bilinear filtering for the map raster instead of nearest neighbor.
	Smooth bool
}

// DefaultStyle returns the default sizes.
func DefaultStyle() Style {
	return Style{
		StrokeWidth:       3,
		VertexRadius:      4,
		FirstVertexRadius: 7,
		ControlRadius:     14,
		SelectionWidth:    3,
		LabelScale:        3,
		Smooth:            true,
	}
}

// Scene is everything visible on the map canvas.
type Scene struct {
	View viewport.State
	Map  image.Image

	Areas            []annotation.ImpassableArea
	Lines            []annotation.ImpassableLine
	InProgress       []geometry.ImagePoint
	PendingLineStart *geometry.ImagePoint

	Controls   []course.Control
	SelectedID string

	Style Style
}

// WithSession copies the shapes of an annotation session into the scene.
func (s Scene) WithSession(sess annotation.Session) Scene {
	s.Areas = sess.Areas()
	s.Lines = sess.Lines()
	s.InProgress = sess.Points()
	if p, ok := sess.PendingLineStart(); ok {
		s.PendingLineStart = &p
	} else {
		s.PendingLineStart = nil
	}
	return s
}

// Draw renders the scene into dst, replacing its contents. Layers are drawn
// in order: map, committed shapes, in-progress area, pending line start,
// controls.
func Draw(dst *image.RGBA, s Scene) {
	style := s.Style
	if style == (Style{}) {
		style = DefaultStyle()
	}

	xdraw.Draw(dst, dst.Bounds(), image.NewUniform(colorutil.Background), image.Point{}, xdraw.Src)
	if s.Map != nil && s.View.Ready() {
		drawMap(dst, s.Map, s.View, style.Smooth)
	}

	toScreen := func(pts []geometry.ImagePoint) []geometry.ScreenPoint {
		out := make([]geometry.ScreenPoint, len(pts))
		for i, p := range pts {
			out[i] = s.View.ImageToScreen(p)
		}
		return out
	}

	for _, a := range s.Areas {
		pts := toScreen(a.Points)
		fillPolygon(dst, pts, colorutil.ImpassableFill)
		strokePath(dst, pts, true, style.StrokeWidth, colorutil.ImpassableStroke)
	}
	for _, l := range s.Lines {
		drawSegment(dst, s.View.ImageToScreen(l.Start), s.View.ImageToScreen(l.End), style.StrokeWidth, colorutil.ImpassableStroke)
	}

	if len(s.InProgress) > 0 {
		pts := toScreen(s.InProgress)
		strokePath(dst, pts, false, style.StrokeWidth, colorutil.InProgress)
		for i, p := range pts {
			if i == 0 {
				fillCircle(dst, round(p.X), round(p.Y), style.FirstVertexRadius, colorutil.FirstVertex)
				continue
			}
			fillCircle(dst, round(p.X), round(p.Y), style.VertexRadius, colorutil.InProgress)
		}
	}

	if s.PendingLineStart != nil {
		p := s.View.ImageToScreen(*s.PendingLineStart)
		fillCircle(dst, round(p.X), round(p.Y), style.FirstVertexRadius, colorutil.InProgress)
	}

	for _, c := range s.Controls {
		p := s.View.ImageToScreen(geometry.PercentToImage(c.Position(), s.View.ImageSize))
		drawControl(dst, c, p, style, c.ID == s.SelectedID)
	}
}

func drawMap(dst *image.RGBA, src image.Image, view viewport.State, smooth bool) {
	t := view.Transform()
	// The raster's own origin may not be (0, 0).
	origin := src.Bounds().Min
	t = t.Compose(geometry.Translation(-float64(origin.X), -float64(origin.Y)))
	s2d := f64.Aff3{t.A, t.B, t.TX, t.C, t.D, t.TY}

	var interp xdraw.Interpolator = xdraw.NearestNeighbor
	if smooth {
		interp = xdraw.ApproxBiLinear
	}
	interp.Transform(dst, s2d, src, src.Bounds(), xdraw.Over, nil)
}

func strokePath(dst *image.RGBA, pts []geometry.ScreenPoint, closed bool, width int, c color.RGBA) {
	for i := 0; i+1 < len(pts); i++ {
		drawSegment(dst, pts[i], pts[i+1], width, c)
	}
	if closed && len(pts) > 2 {
		drawSegment(dst, pts[len(pts)-1], pts[0], width, c)
	}
}

// drawControl draws the course-setting symbol for a control centered at p.
func drawControl(dst *image.RGBA, c course.Control, p geometry.ScreenPoint, style Style, selected bool) {
	x, y := round(p.X), round(p.Y)
	r := style.ControlRadius
	w := style.StrokeWidth
	col := colorutil.Overprint

	if selected {
		strokeCircle(dst, x, y, r+w+style.SelectionWidth, style.SelectionWidth, colorutil.Selection)
	}

	switch c.Type {
	case course.TypeStart:
		// triangle pointing up
		top := geometry.ScreenPoint{X: p.X, Y: p.Y - float64(r)}
		left := geometry.ScreenPoint{X: p.X - float64(r)*0.87, Y: p.Y + float64(r)/2}
		right := geometry.ScreenPoint{X: p.X + float64(r)*0.87, Y: p.Y + float64(r)/2}
		strokePath(dst, []geometry.ScreenPoint{top, right, left}, true, w, col)
	case course.TypeControl:
		strokeCircle(dst, x, y, r, w, col)
	case course.TypeFinish:
		strokeCircle(dst, x, y, r, w, col)
		strokeCircle(dst, x, y, r*2/3, w, col)
	case course.TypeCrossingPoint:
		drawLine(dst, x-r/2, y-r, x-r/2, y+r, w, col)
		drawLine(dst, x+r/2, y-r, x+r/2, y+r, w, col)
	case course.TypeMandatoryCrossing:
		drawLine(dst, x-r/2, y-r, x+r/2, y+r, w, col)
		drawLine(dst, x+r/2, y-r, x-r/2, y+r, w, col)
	case course.TypeUncrossableBoundary:
		drawLine(dst, x-r, y, x+r, y, w*2, col)
	case course.TypeOutOfBounds:
		fillRect(dst, x-r, y-r, x+r, y+r, colorutil.WithAlpha(col, 90))
		for d := -r; d <= r; d += max(r/2, 1) {
			drawLine(dst, x-r, y+d, x+r, y+d, 1, col)
		}
	case course.TypeWaterStation:
		drawLine(dst, x-r/2, y-r/2, x-r/3, y+r/2, w, colorutil.Blue)
		drawLine(dst, x+r/2, y-r/2, x+r/3, y+r/2, w, colorutil.Blue)
		drawLine(dst, x-r/3, y+r/2, x+r/3, y+r/2, w, colorutil.Blue)
	case course.TypeFirstAid:
		drawLine(dst, x-r/2, y, x+r/2, y, w*2, colorutil.Red)
		drawLine(dst, x, y-r/2, x, y+r/2, w*2, colorutil.Red)
	default:
		fillCircle(dst, x, y, w, col)
	}

	if label := c.Label(); label != "" {
		drawText(dst, label, x+r+w+2, y-r-5*style.LabelScale/2, style.LabelScale, col)
	}
}

// LabelBounds returns the screen rectangle a control's number occupies.
func LabelBounds(c course.Control, p geometry.ScreenPoint, style Style) image.Rectangle {
	label := c.Label()
	if label == "" {
		return image.Rectangle{}
	}
	x := round(p.X) + style.ControlRadius + style.StrokeWidth + 2
	y := round(p.Y) - style.ControlRadius - 5*style.LabelScale/2
	return image.Rect(x, y, x+textWidth(label, style.LabelScale), y+5*style.LabelScale)
}
