package render

import (
	"image"
	"image/color"
	"math"
	"slices"

	"orienteer-map/pkg/colorutil"
	"orienteer-map/pkg/geometry"
)

// digitPatterns contains 3x5 pixel patterns for digits 0-9.
// Each digit is represented as 5 rows of 3 bits.
var digitPatterns = [10][5]uint8{
	{0b111, 0b101, 0b101, 0b101, 0b111}, // 0
	{0b010, 0b110, 0b010, 0b010, 0b111}, // 1
	{0b111, 0b001, 0b111, 0b100, 0b111}, // 2
	{0b111, 0b001, 0b111, 0b001, 0b111}, // 3
	{0b101, 0b101, 0b111, 0b001, 0b001}, // 4
	{0b111, 0b100, 0b111, 0b001, 0b111}, // 5
	{0b111, 0b100, 0b111, 0b101, 0b111}, // 6
	{0b111, 0b001, 0b001, 0b001, 0b001}, // 7
	{0b111, 0b101, 0b111, 0b101, 0b111}, // 8
	{0b111, 0b101, 0b111, 0b001, 0b111}, // 9
}

// blendPixel composites c onto dst at (x, y), ignoring points outside dst.
func blendPixel(dst *image.RGBA, x, y int, c color.RGBA) {
	if !(image.Point{X: x, Y: y}).In(dst.Bounds()) {
		return
	}
	dst.SetRGBA(x, y, colorutil.Blend(dst.RGBAAt(x, y), c))
}

// fillCircle fills a circle with the given color.
func fillCircle(dst *image.RGBA, cx, cy, r int, c color.RGBA) {
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= r*r {
				blendPixel(dst, x, y, c)
			}
		}
	}
}

// strokeCircle draws a ring of the given width whose outer radius is r.
func strokeCircle(dst *image.RGBA, cx, cy, r, width int, c color.RGBA) {
	inner := r - width
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			dx, dy := x-cx, y-cy
			d2 := dx*dx + dy*dy
			if d2 <= r*r && d2 > inner*inner {
				blendPixel(dst, x, y, c)
			}
		}
	}
}

// drawLine draws a line between two points using Bresenham's algorithm,
// stamping a square brush of the given thickness.
func drawLine(dst *image.RGBA, x1, y1, x2, y2, thickness int, c color.RGBA) {
	dx := abs(x2 - x1)
	dy := abs(y2 - y1)

	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}

	half := thickness / 2
	err := dx - dy
	for {
		for t := -half; t <= half; t++ {
			for s := -half; s <= half; s++ {
				// stamps overlap, so the brush is opaque
				if (image.Point{X: x1 + s, Y: y1 + t}).In(dst.Bounds()) {
					dst.SetRGBA(x1+s, y1+t, c)
				}
			}
		}

		if x1 == x2 && y1 == y2 {
			break
		}

		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

// drawSegment draws a line between two screen points.
func drawSegment(dst *image.RGBA, a, b geometry.ScreenPoint, thickness int, c color.RGBA) {
	drawLine(dst, round(a.X), round(a.Y), round(b.X), round(b.Y), thickness, c)
}

// fillPolygon fills a polygon in screen space with the even-odd rule.
func fillPolygon(dst *image.RGBA, pts []geometry.ScreenPoint, c color.RGBA) {
	if len(pts) < 3 {
		return
	}
	bounds := dst.Bounds()
	minY, maxY := pts[0].Y, pts[0].Y
	for _, p := range pts[1:] {
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	y0 := max(int(math.Floor(minY)), bounds.Min.Y)
	y1 := min(int(math.Ceil(maxY)), bounds.Max.Y-1)

	xs := make([]float64, 0, 8)
	for y := y0; y <= y1; y++ {
		sy := float64(y) + 0.5
		xs = xs[:0]
		for i := range pts {
			a, b := pts[i], pts[(i+1)%len(pts)]
			if (a.Y > sy) != (b.Y > sy) {
				xs = append(xs, a.X+(sy-a.Y)*(b.X-a.X)/(b.Y-a.Y))
			}
		}
		slices.Sort(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			xa := max(int(math.Ceil(xs[i]-0.5)), bounds.Min.X)
			xb := min(int(math.Floor(xs[i+1]-0.5)), bounds.Max.X-1)
			for x := xa; x <= xb; x++ {
				blendPixel(dst, x, y, c)
			}
		}
	}
}

// fillRect fills the rectangle with corners (x1, y1) and (x2, y2) inclusive.
func fillRect(dst *image.RGBA, x1, y1, x2, y2 int, c color.RGBA) {
	for y := y1; y <= y2; y++ {
		for x := x1; x <= x2; x++ {
			blendPixel(dst, x, y, c)
		}
	}
}

// drawText draws digits with the 3x5 bitmap font, each font pixel scale
// screen pixels wide. Other characters are skipped but keep their advance.
func drawText(dst *image.RGBA, text string, x, y, scale int, c color.RGBA) {
	for _, ch := range text {
		if ch >= '0' && ch <= '9' {
			pattern := digitPatterns[ch-'0']
			for row := 0; row < 5; row++ {
				for col := 0; col < 3; col++ {
					if pattern[row]&(1<<(2-col)) == 0 {
						continue
					}
					px, py := x+col*scale, y+row*scale
					fillRect(dst, px, py, px+scale-1, py+scale-1, c)
				}
			}
		}
		x += 4 * scale
	}
}

// textWidth returns the advance of text at the given scale.
func textWidth(text string, scale int) int {
	n := len([]rune(text))
	if n == 0 {
		return 0
	}
	return n*4*scale - scale
}

func round(v float64) int {
	return int(math.Round(v))
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
