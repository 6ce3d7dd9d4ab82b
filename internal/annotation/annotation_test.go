package annotation

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orienteer-map/internal/viewport"
	"orienteer-map/pkg/geometry"
)

var triangle = []geometry.ImagePoint{{X: 10, Y: 10}, {X: 50, Y: 10}, {X: 30, Y: 40}}

type recorder struct {
	calls int
	areas []ImpassableArea
	lines []ImpassableLine
}

func (r *recorder) record(areas []ImpassableArea, lines []ImpassableLine) {
	r.calls++
	r.areas = areas
	r.lines = lines
}

// unitView shows an 800x600 map in an 800x600 canvas, so baseScale is 1.
func unitView(zoom float64) viewport.State {
	return viewport.New().
		Resize(geometry.NewSize(800, 600)).
		WithImage(geometry.NewSize(800, 600)).
		SetZoom(zoom)
}

func TestClosingLoopInvariance(t *testing.T) {
	for _, zoom := range []float64{0.25, 1, 2.5, 5} {
		t.Run(fmt.Sprintf("zoom=%v", zoom), func(t *testing.T) {
			view := unitView(zoom)
			require.Equal(t, 1.0, view.BaseScale)

			rec := &recorder{}
			ed := NewEditor(Options{OnChange: rec.record})
			for _, p := range triangle {
				assert.Equal(t, OutcomePointAdded, ed.Click(view, view.ImageToScreen(p)))
			}
			assert.Zero(t, rec.calls, "in-progress points are not reported")

			first := view.ImageToScreen(triangle[0])
			out := ed.Click(view, first.Add(geometry.ScreenPoint{X: 19, Y: 0}))

			assert.Equal(t, OutcomeAreaCommitted, out)
			require.Equal(t, 1, rec.calls)
			require.Len(t, rec.areas, 1)
			assert.Equal(t, triangle, rec.areas[0].Points)
			assert.Empty(t, ed.Session().Points())
			assert.Equal(t, PhaseIdle, ed.Session().Phase())
		})
	}
}

func TestClosingOutsideToleranceAddsPoint(t *testing.T) {
	for _, zoom := range []float64{0.25, 1, 5} {
		view := unitView(zoom)
		ed := NewEditor(Options{})
		for _, p := range triangle {
			ed.Click(view, view.ImageToScreen(p))
		}
		first := view.ImageToScreen(triangle[0])
		out := ed.Click(view, first.Add(geometry.ScreenPoint{X: 0, Y: 21}))

		assert.Equal(t, OutcomePointAdded, out)
		assert.Len(t, ed.Session().Points(), 4)
		assert.Empty(t, ed.Session().Areas())
	}
}

func TestNoClosingBeforeThreePoints(t *testing.T) {
	s := NewSession(nil, nil)
	s, _ = s.Click(geometry.ImagePoint{X: 10, Y: 10}, 1)
	s, _ = s.Click(geometry.ImagePoint{X: 50, Y: 10}, 1)
	s, out := s.Click(geometry.ImagePoint{X: 11, Y: 10}, 1)

	assert.Equal(t, OutcomePointAdded, out)
	assert.Len(t, s.Points(), 3)
	assert.Empty(t, s.Areas())
}

func TestLineTool(t *testing.T) {
	rec := &recorder{}
	ed := NewEditor(Options{OnChange: rec.record})
	ed.SetTool(ToolLine)

	assert.Equal(t, OutcomeLineStarted, ed.ClickImage(geometry.ImagePoint{X: 1, Y: 2}, 1))
	assert.Equal(t, PhaseAwaitingLineEnd, ed.Session().Phase())
	start, ok := ed.Session().PendingLineStart()
	require.True(t, ok)
	assert.Equal(t, geometry.ImagePoint{X: 1, Y: 2}, start)
	assert.Zero(t, rec.calls)

	assert.Equal(t, OutcomeLineCommitted, ed.ClickImage(geometry.ImagePoint{X: 3, Y: 4}, 1))
	require.Equal(t, 1, rec.calls)
	assert.Equal(t, []ImpassableLine{{Start: geometry.ImagePoint{X: 1, Y: 2}, End: geometry.ImagePoint{X: 3, Y: 4}}}, rec.lines)
	_, ok = ed.Session().PendingLineStart()
	assert.False(t, ok)
}

func TestPanToolIgnoresClicks(t *testing.T) {
	s := NewSession(nil, nil).WithTool(ToolPan)
	next, out := s.Click(geometry.ImagePoint{X: 5, Y: 5}, 1)
	assert.Equal(t, OutcomeIgnored, out)
	assert.Equal(t, s, next)
}

func TestToolSwitchKeepsPartialShapes(t *testing.T) {
	s := NewSession(nil, nil)
	s, _ = s.Click(geometry.ImagePoint{X: 1, Y: 1}, 1)
	s, _ = s.Click(geometry.ImagePoint{X: 2, Y: 2}, 1)

	s = s.WithTool(ToolLine)
	s, _ = s.Click(geometry.ImagePoint{X: 9, Y: 9}, 1)
	s = s.WithTool(ToolArea)

	assert.Len(t, s.Points(), 2)
	_, ok := s.PendingLineStart()
	assert.True(t, ok)
	assert.Equal(t, PhaseDrawingArea, s.Phase())
}

func TestUndoPriority(t *testing.T) {
	s := NewSession([]ImpassableArea{{Points: triangle}}, nil)
	s = s.WithTool(ToolLine)
	s, _ = s.Click(geometry.ImagePoint{X: 0, Y: 0}, 1)
	s = s.WithTool(ToolArea)
	s, _ = s.Click(geometry.ImagePoint{X: 7, Y: 7}, 1)

	s, removed := s.Undo()
	assert.False(t, removed)
	assert.Empty(t, s.Points(), "in-progress vertex goes first")
	_, pending := s.PendingLineStart()
	assert.True(t, pending)

	s, removed = s.Undo()
	assert.False(t, removed)
	_, pending = s.PendingLineStart()
	assert.False(t, pending, "pending line start goes second")
	assert.Len(t, s.Areas(), 1)

	s, removed = s.Undo()
	assert.True(t, removed)
	assert.Empty(t, s.Areas())

	_, removed = s.Undo()
	assert.False(t, removed)
}

func TestUndoTieBreak(t *testing.T) {
	area := ImpassableArea{Points: triangle}
	line := ImpassableLine{Start: geometry.ImagePoint{X: 0, Y: 0}, End: geometry.ImagePoint{X: 5, Y: 5}}

	tests := []struct {
		name      string
		areas     []ImpassableArea
		lines     []ImpassableLine
		wantAreas int
		wantLines int
	}{
		{"one area no lines removes area", []ImpassableArea{area}, nil, 0, 0},
		{"equal counts remove line", []ImpassableArea{area}, []ImpassableLine{line}, 1, 0},
		{"more lines remove line", []ImpassableArea{area}, []ImpassableLine{line, line}, 1, 1},
		{"more areas remove area", []ImpassableArea{area, area}, []ImpassableLine{line}, 1, 1},
		{"only lines remove line", nil, []ImpassableLine{line}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, removed := NewSession(tt.areas, tt.lines).Undo()
			assert.True(t, removed)
			assert.Len(t, s.Areas(), tt.wantAreas)
			assert.Len(t, s.Lines(), tt.wantLines)
		})
	}
}

func TestEditorUndoAndClearReport(t *testing.T) {
	rec := &recorder{}
	ed := NewEditor(Options{
		InitialAreas: []ImpassableArea{{Points: triangle}},
		InitialLines: []ImpassableLine{{End: geometry.ImagePoint{X: 1, Y: 1}}},
		OnChange:     rec.record,
	})

	ed.Undo()
	require.Equal(t, 1, rec.calls)
	assert.Len(t, rec.areas, 1)
	assert.Empty(t, rec.lines)

	ed.Clear()
	require.Equal(t, 2, rec.calls)
	assert.NotNil(t, rec.areas)
	assert.NotNil(t, rec.lines)
	assert.Empty(t, rec.areas)
	assert.Empty(t, rec.lines)
}

func TestEditorInertUntilReady(t *testing.T) {
	ed := NewEditor(Options{})
	out := ed.Click(viewport.New(), geometry.ScreenPoint{X: 10, Y: 10})
	assert.Equal(t, OutcomeIgnored, out)
	assert.Empty(t, ed.Session().Points())
}

func TestHydrationIsOneShot(t *testing.T) {
	areas := []ImpassableArea{{Points: append([]geometry.ImagePoint(nil), triangle...)}}
	ed := NewEditor(Options{InitialAreas: areas})

	areas[0].Points[0] = geometry.ImagePoint{X: 999, Y: 999}

	got := ed.Session().Areas()
	require.Len(t, got, 1)
	assert.Equal(t, triangle[0], got[0].Points[0])
}

func TestCallbackListsAreCopies(t *testing.T) {
	rec := &recorder{}
	ed := NewEditor(Options{InitialAreas: []ImpassableArea{{Points: triangle}}, OnChange: rec.record})
	ed.SetTool(ToolLine)
	ed.ClickImage(geometry.ImagePoint{}, 1)
	ed.ClickImage(geometry.ImagePoint{X: 1}, 1)

	rec.areas[0].Points[0] = geometry.ImagePoint{X: -1, Y: -1}
	rec.lines[0].End = geometry.ImagePoint{X: -1}

	assert.Equal(t, triangle[0], ed.Session().Areas()[0].Points[0])
	assert.Equal(t, geometry.ImagePoint{X: 1}, ed.Session().Lines()[0].End)
}

func TestSessionTransitionsDoNotAlias(t *testing.T) {
	base := NewSession(nil, nil)
	base, _ = base.Click(geometry.ImagePoint{X: 1, Y: 1}, 1)

	a, _ := base.Click(geometry.ImagePoint{X: 2, Y: 2}, 1)
	b, _ := base.Click(geometry.ImagePoint{X: 3, Y: 3}, 1)

	assert.Len(t, base.Points(), 1)
	assert.Equal(t, geometry.ImagePoint{X: 2, Y: 2}, a.Points()[1])
	assert.Equal(t, geometry.ImagePoint{X: 3, Y: 3}, b.Points()[1])
}

func TestCommitArea(t *testing.T) {
	s := NewSession(nil, nil)
	s, _ = s.Click(triangle[0], 1)
	s, _ = s.Click(triangle[1], 1)

	_, err := s.CommitArea()
	assert.ErrorIs(t, err, ErrTooFewPoints)
	assert.ErrorIs(t, err, ErrInvalidShape)

	s, _ = s.Click(triangle[2], 1)
	s, err = s.CommitArea()
	require.NoError(t, err)
	assert.Len(t, s.Areas(), 1)
	assert.Empty(t, s.Points())
}

func TestValidate(t *testing.T) {
	assert.NoError(t, ImpassableArea{Points: triangle}.Validate())
	assert.ErrorIs(t, ImpassableArea{Points: triangle[:2]}.Validate(), ErrTooFewPoints)

	bad := ImpassableArea{Points: []geometry.ImagePoint{{X: math.NaN()}, {X: 1}, {Y: 1}}}
	assert.ErrorIs(t, bad.Validate(), ErrInvalidShape)

	assert.NoError(t, ImpassableLine{End: geometry.ImagePoint{X: 1}}.Validate())
	assert.ErrorIs(t, ImpassableLine{End: geometry.ImagePoint{X: math.Inf(1)}}.Validate(), ErrInvalidShape)
}

func TestAreaQueries(t *testing.T) {
	a := ImpassableArea{Points: triangle}
	assert.True(t, a.Contains(geometry.ImagePoint{X: 30, Y: 20}))
	assert.False(t, a.Contains(geometry.ImagePoint{X: 0, Y: 0}))
	assert.False(t, a.Contains(geometry.ImagePoint{X: 12, Y: 38}), "inside the box, outside the triangle")
	assert.Equal(t, geometry.NewRect(10, 10, 40, 30), a.Bounds())
}

func TestGeometryExport(t *testing.T) {
	areas := []ImpassableArea{{Points: triangle}}
	lines := []ImpassableLine{{Start: geometry.ImagePoint{X: 0, Y: 0}, End: geometry.ImagePoint{X: 5, Y: 5}}}

	mp := AreasGeometry(areas)
	require.Equal(t, 1, mp.NumPolygons())
	assert.Equal(t, 4, mp.PolygonN(0).ExteriorRing().Coordinates().Length(), "ring is closed")

	mls := LinesGeometry(lines)
	assert.Equal(t, 1, mls.NumLineStrings())

	assert.InDelta(t, 600.0, TotalArea(areas), 1e-9)

	wkt := WKT(areas, lines)
	assert.True(t, strings.HasPrefix(wkt, "GEOMETRYCOLLECTION"), wkt)
	assert.Contains(t, wkt, "MULTIPOLYGON")
	assert.Contains(t, wkt, "MULTILINESTRING")
}

