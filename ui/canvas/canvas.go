// Package canvas provides the fyne widget the map is edited on.
package canvas

import (
	"image"
	"sync"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"

	"orienteer-map/internal/app"
	"orienteer-map/internal/render"
	"orienteer-map/pkg/geometry"
)

// MapCanvas draws the editing session and forwards pointer input to it.
// Event positions are converted from fyne units to raster pixels of the
// drawing surface before they reach the state.
type MapCanvas struct {
	widget.BaseWidget

	state  *app.State
	raster *fynecanvas.Raster
	log    zerolog.Logger

	mu         sync.Mutex
	pixelScale float64 // raster pixels per fyne unit
	lastOutput *image.RGBA

	onError func(err error)
	onHover func(info app.HoverInfo, onMap bool)
}

var (
	_ fyne.Tappable     = (*MapCanvas)(nil)
	_ fyne.Draggable    = (*MapCanvas)(nil)
	_ fyne.Scrollable   = (*MapCanvas)(nil)
	_ desktop.Mouseable = (*MapCanvas)(nil)
	_ desktop.Hoverable = (*MapCanvas)(nil)
)

// NewMapCanvas creates a canvas bound to state. It redraws whenever the
// session reports a visible change.
func NewMapCanvas(state *app.State, log zerolog.Logger) *MapCanvas {
	c := &MapCanvas{
		state:      state,
		log:        log.With().Str("component", "canvas").Logger(),
		pixelScale: 1,
	}
	c.raster = fynecanvas.NewRaster(c.draw)
	c.raster.ScaleMode = fynecanvas.ImageScalePixels

	for _, ev := range []app.EventType{
		app.EventMapLoaded,
		app.EventViewChanged,
		app.EventShapesChanged,
		app.EventControlAdded,
		app.EventControlMoved,
		app.EventCoursesChanged,
		app.EventSelectionChanged,
		app.EventProjectLoaded,
	} {
		state.On(ev, func(any) { c.Refresh() })
	}

	c.ExtendBaseWidget(c)
	return c
}

// OnError sets the callback for rejected edits, such as a second start.
func (c *MapCanvas) OnError(callback func(err error)) {
	c.onError = callback
}

// OnHover sets the callback for pointer movement outside a drag.
func (c *MapCanvas) OnHover(callback func(info app.HoverInfo, onMap bool)) {
	c.onHover = callback
}

// GetRenderedOutput returns the last drawn frame.
func (c *MapCanvas) GetRenderedOutput() *image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastOutput
}

// draw is the raster drawing function. w and h are device pixels.
func (c *MapCanvas) draw(w, h int) image.Image {
	if size := c.Size(); size.Width > 0 {
		c.mu.Lock()
		c.pixelScale = float64(w) / float64(size.Width)
		c.mu.Unlock()
	}
	c.state.Resize(geometry.NewSize(float64(w), float64(h)))

	output := image.NewRGBA(image.Rect(0, 0, w, h))
	render.Draw(output, c.state.Scene())

	c.mu.Lock()
	c.lastOutput = output
	c.mu.Unlock()
	return output
}

// toScreen converts a widget position to a drawing surface pixel.
func (c *MapCanvas) toScreen(pos fyne.Position) geometry.ScreenPoint {
	c.mu.Lock()
	k := c.pixelScale
	c.mu.Unlock()
	return geometry.ScreenPoint{X: float64(pos.X) * k, Y: float64(pos.Y) * k}
}

// inside rejects positions outside the widget. Fyne occasionally delivers
// taps from neighbouring widgets.
func (c *MapCanvas) inside(pos fyne.Position) bool {
	size := c.Size()
	return pos.X >= 0 && pos.Y >= 0 && pos.X <= size.Width && pos.Y <= size.Height
}

func (c *MapCanvas) report(err error) {
	if err == nil {
		return
	}
	if c.onError != nil {
		c.onError(err)
	}
}

// Tapped handles left-click events.
func (c *MapCanvas) Tapped(ev *fyne.PointEvent) {
	if !c.inside(ev.Position) {
		return
	}
	c.report(c.state.HandleClick(c.toScreen(ev.Position)))
}

// MouseDown starts a control drag when the pointer is over a control.
func (c *MapCanvas) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary || !c.inside(ev.Position) {
		return
	}
	c.state.HandleMouseDown(c.toScreen(ev.Position))
}

// MouseUp ends a control drag.
func (c *MapCanvas) MouseUp(*desktop.MouseEvent) {
	c.state.HandleMouseUp()
}

// MouseIn is required by desktop.Hoverable.
func (c *MapCanvas) MouseIn(*desktop.MouseEvent) {}

// MouseMoved drags the grabbed control, or reports what is under the pointer.
func (c *MapCanvas) MouseMoved(ev *desktop.MouseEvent) {
	p := c.toScreen(ev.Position)
	if c.state.HandleMouseMove(p) {
		return
	}
	if c.onHover != nil {
		c.onHover(c.state.HoverAt(p))
	}
}

// MouseOut ends a control drag.
func (c *MapCanvas) MouseOut() {
	c.state.HandleMouseLeave()
}

// Dragged pans the view with the pan tool and moves the grabbed control otherwise.
func (c *MapCanvas) Dragged(ev *fyne.DragEvent) {
	if c.state.PanToolActive() {
		c.mu.Lock()
		k := c.pixelScale
		c.mu.Unlock()
		c.state.PanBy(float64(ev.Dragged.DX)*k, float64(ev.Dragged.DY)*k)
		return
	}
	c.state.HandleMouseMove(c.toScreen(ev.Position))
}

// DragEnd ends a control drag.
func (c *MapCanvas) DragEnd() {
	c.state.HandleMouseUp()
}

// Scrolled zooms by one wheel step per event.
func (c *MapCanvas) Scrolled(ev *fyne.ScrollEvent) {
	switch {
	case ev.Scrolled.DY > 0:
		c.state.Wheel(1)
	case ev.Scrolled.DY < 0:
		c.state.Wheel(-1)
	}
}

// MinSize keeps the canvas usable in small windows.
func (c *MapCanvas) MinSize() fyne.Size {
	return fyne.NewSize(100, 100)
}

// CreateRenderer implements fyne.Widget.
func (c *MapCanvas) CreateRenderer() fyne.WidgetRenderer {
	return &mapCanvasRenderer{canvas: c}
}

type mapCanvasRenderer struct {
	canvas *MapCanvas
}

func (r *mapCanvasRenderer) Layout(size fyne.Size) {
	r.canvas.raster.Resize(size)
}

func (r *mapCanvasRenderer) MinSize() fyne.Size {
	return r.canvas.MinSize()
}

func (r *mapCanvasRenderer) Refresh() {
	r.canvas.raster.Refresh()
}

func (r *mapCanvasRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.canvas.raster}
}

func (r *mapCanvasRenderer) Destroy() {}
