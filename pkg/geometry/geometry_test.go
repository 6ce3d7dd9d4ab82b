package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointArithmetic(t *testing.T) {
	a := Pt[ImageSpace](3, 4)
	b := Pt[ImageSpace](1, 1)

	assert.Equal(t, ImagePoint{X: 4, Y: 5}, a.Add(b))
	assert.Equal(t, ImagePoint{X: 2, Y: 3}, a.Sub(b))
	assert.Equal(t, ImagePoint{X: 6, Y: 8}, a.Scale(2))
	assert.InDelta(t, 5.0, a.Distance(ImagePoint{}), 1e-12)
}

func TestSpaceName(t *testing.T) {
	assert.Equal(t, "image", ImagePoint{}.SpaceName())
	assert.Equal(t, "screen", ScreenPoint{}.SpaceName())
	assert.Equal(t, "percent", PercentPoint{}.SpaceName())
}

func TestPercentConversion(t *testing.T) {
	size := NewSize(2000, 1000)

	pct := ImageToPercent(ImagePoint{X: 500, Y: 250}, size)
	assert.InDelta(t, 25.0, pct.X, 1e-9)
	assert.InDelta(t, 25.0, pct.Y, 1e-9)

	back := PercentToImage(pct, size)
	assert.InDelta(t, 500.0, back.X, 1e-9)
	assert.InDelta(t, 250.0, back.Y, 1e-9)

	assert.Equal(t, PercentPoint{}, ImageToPercent(ImagePoint{X: 1, Y: 1}, Size{}))
}

func TestAffineInverse(t *testing.T) {
	tr := Translation(120, -45).Compose(Scale(2.5, 2.5)).Compose(Translation(-50, -30))

	inv, ok := tr.Inverse()
	require.True(t, ok)

	x, y := tr.Apply(17, 91)
	rx, ry := inv.Apply(x, y)
	assert.InDelta(t, 17.0, rx, 1e-9)
	assert.InDelta(t, 91.0, ry, 1e-9)

	_, ok = Scale(0, 1).Inverse()
	assert.False(t, ok)
}

func TestPointInPolygon(t *testing.T) {
	square := []ImagePoint{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}

	assert.True(t, PointInPolygon(ImagePoint{X: 5, Y: 5}, square))
	assert.False(t, PointInPolygon(ImagePoint{X: 15, Y: 5}, square))
	assert.False(t, PointInPolygon(ImagePoint{X: 5, Y: 5}, square[:2]))
}

func TestBoundingBoxAndContains(t *testing.T) {
	tri := []ImagePoint{{X: 10, Y: 10}, {X: 50, Y: 10}, {X: 30, Y: 40}}

	box := BoundingBox(tri)
	assert.Equal(t, NewRect(10, 10, 40, 30), box)
	assert.True(t, box.Contains(10, 40), "edges are inside")
	assert.False(t, box.Contains(9.9, 20))
	assert.Equal(t, Rect{}, BoundingBox[ImageSpace](nil))
}
