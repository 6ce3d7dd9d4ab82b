package canvas

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orienteer-map/internal/annotation"
	"orienteer-map/internal/app"
	"orienteer-map/internal/course"
	"orienteer-map/internal/placement"
)

func newCanvas(t *testing.T) (*MapCanvas, *app.State) {
	t.Helper()
	test.NewApp()

	path := filepath.Join(t.TempDir(), "map.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 200, 100))))
	require.NoError(t, f.Close())

	s := app.NewState(app.Options{Logger: zerolog.Nop()})
	require.NoError(t, s.LoadMap(path))

	c := NewMapCanvas(s, zerolog.Nop())
	c.Resize(fyne.NewSize(200, 100))
	out := c.draw(200, 100)
	require.Equal(t, image.Rect(0, 0, 200, 100), out.Bounds())
	return c, s
}

func TestDrawSizesViewport(t *testing.T) {
	c, s := newCanvas(t)
	assert.True(t, s.View().Ready())
	assert.Equal(t, 200.0, s.View().CanvasSize.Width)
	assert.NotNil(t, c.GetRenderedOutput())
}

func TestTapAddsVertex(t *testing.T) {
	c, s := newCanvas(t)

	c.Tapped(&fyne.PointEvent{Position: fyne.NewPos(20, 30)})
	pts := s.Session().Points()
	require.Len(t, pts, 1)
	assert.InDelta(t, 20.0, pts[0].X, 1e-6)
	assert.InDelta(t, 30.0, pts[0].Y, 1e-6)

	c.Tapped(&fyne.PointEvent{Position: fyne.NewPos(-5, 30)})
	assert.Len(t, s.Session().Points(), 1)
}

func TestScrollZoomsAndDragPans(t *testing.T) {
	c, s := newCanvas(t)

	c.Scrolled(&fyne.ScrollEvent{Scrolled: fyne.NewDelta(0, 1)})
	assert.InDelta(t, 1.1, s.View().Zoom, 1e-9)
	c.Scrolled(&fyne.ScrollEvent{Scrolled: fyne.NewDelta(0, -1)})
	assert.InDelta(t, 1.0, s.View().Zoom, 1e-9)

	c.Dragged(&fyne.DragEvent{Dragged: fyne.NewDelta(5, 5)})
	assert.Zero(t, s.View().Pan.X)

	s.SetAnnotationTool(annotation.ToolPan)
	c.Dragged(&fyne.DragEvent{Dragged: fyne.NewDelta(5, -2)})
	assert.InDelta(t, 5.0, s.View().Pan.X, 1e-6)
	assert.InDelta(t, -2.0, s.View().Pan.Y, 1e-6)
}

func TestRejectedPlacementIsReported(t *testing.T) {
	c, s := newCanvas(t)
	var reported error
	c.OnError(func(err error) { reported = err })

	s.SetPlacementTool(placement.PlaceTool(course.TypeControl))
	c.Tapped(&fyne.PointEvent{Position: fyne.NewPos(50, 50)})
	assert.ErrorIs(t, reported, course.ErrAggregateReadOnly)
}

func TestHoverReportsImpassableArea(t *testing.T) {
	c, s := newCanvas(t)
	var got app.HoverInfo
	var onMap bool
	c.OnHover(func(info app.HoverInfo, ok bool) { got, onMap = info, ok })

	s.SetAnnotationTool(annotation.ToolArea)
	for _, pos := range []fyne.Position{fyne.NewPos(20, 20), fyne.NewPos(120, 20), fyne.NewPos(70, 80)} {
		c.Tapped(&fyne.PointEvent{Position: pos})
	}
	require.NoError(t, s.CommitArea())

	c.MouseMoved(&desktop.MouseEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(70, 40)}})
	require.True(t, onMap)
	assert.Equal(t, 0, got.Area)

	c.MouseMoved(&desktop.MouseEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(190, 90)}})
	require.True(t, onMap)
	assert.Equal(t, -1, got.Area)
}
