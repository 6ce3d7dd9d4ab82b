package app

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orienteer-map/internal/annotation"
	"orienteer-map/internal/course"
	"orienteer-map/internal/placement"
	"orienteer-map/pkg/geometry"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))))
	require.NoError(t, f.Close())
}

// newLoadedState returns a session whose canvas matches a 200x100 map, so
// screen and image pixels coincide.
func newLoadedState(t *testing.T) (*State, string) {
	t.Helper()
	dir := t.TempDir()
	mapPath := filepath.Join(dir, "sprint.png")
	writePNG(t, mapPath, 200, 100)

	s := NewState(Options{EventID: "spring-cup", Logger: zerolog.Nop()})
	s.Resize(geometry.NewSize(200, 100))
	require.NoError(t, s.LoadMap(mapPath))
	return s, dir
}

func scr(x, y float64) geometry.ScreenPoint {
	return geometry.ScreenPoint{X: x, Y: y}
}

func drawTriangle(s *State) {
	s.SetAnnotationTool(annotation.ToolArea)
	s.HandleClick(scr(20, 20))
	s.HandleClick(scr(120, 20))
	s.HandleClick(scr(70, 80))
	s.HandleClick(scr(21, 21))
}

func TestClicksIgnoredUntilMapLoaded(t *testing.T) {
	s := NewState(Options{Logger: zerolog.Nop()})
	s.Resize(geometry.NewSize(200, 100))

	require.NoError(t, s.HandleClick(scr(10, 10)))
	assert.Empty(t, s.Session().Points())
	assert.False(t, s.View().Ready())
}

func TestAnnotateModeCommitsArea(t *testing.T) {
	s, _ := newLoadedState(t)
	s.SetModified(false)

	var changes []ShapesChange
	s.On(EventShapesChanged, func(data any) { changes = append(changes, data.(ShapesChange)) })

	drawTriangle(s)

	areas := s.Session().Areas()
	require.Len(t, areas, 1)
	assert.Equal(t, []geometry.ImagePoint{{X: 20, Y: 20}, {X: 120, Y: 20}, {X: 70, Y: 80}}, areas[0].Points)
	require.Len(t, changes, 1)
	assert.Len(t, changes[0].Areas, 1)
	assert.True(t, s.Modified)

	s.Undo()
	assert.Empty(t, s.Session().Areas())
	assert.Len(t, changes, 2)
}

func TestControlsModePlacesAndRebuildsAggregate(t *testing.T) {
	s, _ := newLoadedState(t)
	long := s.AddCourse("Long")
	assert.Equal(t, long.ID, s.ActiveCourse().ID)

	var courseEvents int
	s.On(EventCoursesChanged, func(any) { courseEvents++ })

	s.SetPlacementTool(placement.PlaceTool(course.TypeStart))
	require.NoError(t, s.HandleClick(scr(100, 50)))
	s.SetPlacementTool(placement.PlaceTool(course.TypeControl))
	require.NoError(t, s.HandleClick(scr(20, 20)))

	active := s.ActiveCourse()
	require.Len(t, active.Controls, 2)
	assert.Equal(t, geometry.PercentPoint{X: 50, Y: 50}, active.Controls[0].Position())
	assert.Equal(t, geometry.PercentPoint{X: 10, Y: 20}, active.Controls[1].Position())
	assert.Equal(t, 1, active.Controls[1].Number)

	agg := s.Aggregate()
	assert.True(t, agg.IsAggregate())
	assert.Len(t, agg.Controls, 2)
	assert.Equal(t, 2, courseEvents)

	courses := s.Courses()
	require.Len(t, courses, 2)
	assert.Equal(t, agg.ID, courses[1].ID)
}

func TestSecondStartIsRejected(t *testing.T) {
	s, _ := newLoadedState(t)
	s.AddCourse("Short")
	s.SetPlacementTool(placement.PlaceTool(course.TypeStart))
	require.NoError(t, s.HandleClick(scr(100, 50)))

	err := s.HandleClick(scr(150, 50))
	require.ErrorIs(t, err, course.ErrDuplicateStart)
	assert.ErrorIs(t, err, course.ErrInvalidOperation)
	assert.Len(t, s.ActiveCourse().Controls, 1)
}

func TestAggregateCourseIsReadOnly(t *testing.T) {
	s, _ := newLoadedState(t)
	s.SetPlacementTool(placement.PlaceTool(course.TypeControl))

	assert.True(t, s.ActiveCourse().IsAggregate())
	assert.ErrorIs(t, s.HandleClick(scr(50, 50)), course.ErrAggregateReadOnly)
	assert.ErrorIs(t, s.DeleteCourse(s.Aggregate().ID), course.ErrAggregateReadOnly)
	assert.ErrorIs(t, s.SelectCourse("nope"), ErrCourseNotFound)
}

func TestDragMovesControlInAggregateToo(t *testing.T) {
	s, _ := newLoadedState(t)
	s.AddCourse("Long")
	s.SetPlacementTool(placement.PlaceTool(course.TypeControl))
	require.NoError(t, s.HandleClick(scr(20, 20)))

	var moves []ControlMove
	s.On(EventControlMoved, func(data any) { moves = append(moves, data.(ControlMove)) })

	s.SetPlacementTool(placement.ToolPointer)
	assert.False(t, s.HandleMouseDown(scr(100, 90)))
	require.True(t, s.HandleMouseDown(scr(22, 21)))
	require.True(t, s.HandleMouseMove(scr(60, 40)))
	s.HandleMouseUp()
	assert.False(t, s.HandleMouseMove(scr(80, 40)))

	want := geometry.PercentPoint{X: 30, Y: 40}
	assert.Equal(t, want, s.ActiveCourse().Controls[0].Position())
	assert.Equal(t, want, s.Aggregate().Controls[0].Position())
	require.Len(t, moves, 1)
	assert.Equal(t, 30.0, moves[0].X)
}

func TestDeleteControlAndCourse(t *testing.T) {
	s, _ := newLoadedState(t)
	c := s.AddCourse("Long")
	s.SetPlacementTool(placement.PlaceTool(course.TypeControl))
	require.NoError(t, s.HandleClick(scr(20, 20)))
	require.NoError(t, s.HandleClick(scr(80, 20)))

	id := s.ActiveCourse().Controls[0].ID
	require.NoError(t, s.DeleteControl(id))
	remaining := s.ActiveCourse().Controls
	require.Len(t, remaining, 1)
	assert.Equal(t, 1, remaining[0].Number)
	assert.ErrorIs(t, s.DeleteControl(id), course.ErrControlNotFound)

	require.NoError(t, s.DeleteCourse(c.ID))
	assert.True(t, s.ActiveCourse().IsAggregate())
	assert.Empty(t, s.Aggregate().Controls)
}

func TestZoomToolsAndPan(t *testing.T) {
	s, _ := newLoadedState(t)

	s.SetPlacementTool(placement.ToolZoomIn)
	require.NoError(t, s.HandleClick(scr(10, 10)))
	assert.InDelta(t, 1.25, s.View().Zoom, 1e-9)

	s.SetPlacementTool(placement.ToolZoomOut)
	require.NoError(t, s.HandleClick(scr(10, 10)))
	assert.InDelta(t, 1.0, s.View().Zoom, 1e-9)

	assert.False(t, s.PanToolActive())
	s.SetPlacementTool(placement.ToolPan)
	assert.True(t, s.PanToolActive())
	s.PanBy(5, -3)
	assert.Equal(t, scr(5, -3), s.View().Pan)

	s.Wheel(1)
	assert.InDelta(t, 1.1, s.View().Zoom, 1e-9)
	s.ResetView()
	assert.Equal(t, 1.0, s.View().Zoom)
	assert.Equal(t, scr(0, 0), s.View().Pan)
}

func TestSaveAndLoadProject(t *testing.T) {
	s, dir := newLoadedState(t)
	drawTriangle(s)
	s.AddCourse("Long")
	s.SetPlacementTool(placement.PlaceTool(course.TypeStart))
	require.NoError(t, s.HandleClick(scr(100, 50)))

	path := filepath.Join(dir, "spring.omproj")
	require.NoError(t, s.SaveProject(path))
	assert.False(t, s.Modified)

	loaded := NewState(Options{Logger: zerolog.Nop()})
	var loadedEvents int
	loaded.On(EventProjectLoaded, func(any) { loadedEvents++ })
	require.NoError(t, loaded.LoadProject(path))

	assert.Equal(t, "spring-cup", loaded.EventID())
	assert.Equal(t, path, loaded.ProjectPath)
	assert.False(t, loaded.Modified)
	assert.Equal(t, 1, loadedEvents)
	require.NotNil(t, loaded.Raster())
	assert.Equal(t, geometry.NewSize(200, 100), loaded.Raster().Size())
	assert.Len(t, loaded.Session().Areas(), 1)

	courses := loaded.Courses()
	require.Len(t, courses, 2)
	assert.Equal(t, "Long", courses[0].Name)
	assert.Len(t, courses[0].Controls, 1)
	assert.Len(t, courses[1].Controls, 1)
	assert.Equal(t, courses[0].ID, loaded.ActiveCourse().ID)
}

func TestLoadProjectMissingMap(t *testing.T) {
	s, dir := newLoadedState(t)
	path := filepath.Join(dir, "event.omproj")
	require.NoError(t, s.SaveProject(path))
	require.NoError(t, os.Remove(filepath.Join(dir, "sprint.png")))

	err := NewState(Options{Logger: zerolog.Nop()}).LoadProject(path)
	assert.ErrorContains(t, err, "failed to load map")
}

func TestSetCoursesDropsAggregate(t *testing.T) {
	s, _ := newLoadedState(t)
	a := course.New("spring-cup", "A")
	a, err := a.Add(course.NewControl(course.TypeControl, geometry.PercentPoint{X: 10, Y: 10}))
	require.NoError(t, err)
	stale := course.Course{ID: course.AggregateCourseID("spring-cup"), EventID: "spring-cup", Aggregate: true}

	s.SetCourses([]course.Course{a, stale})

	courses := s.Courses()
	require.Len(t, courses, 2)
	assert.Equal(t, "A", courses[0].Name)
	assert.Len(t, s.Aggregate().Controls, 1)
}

func TestJobPayload(t *testing.T) {
	empty := NewState(Options{Logger: zerolog.Nop()})
	_, err := empty.JobPayload("m1", nil)
	assert.ErrorIs(t, err, ErrNoMap)

	s, _ := newLoadedState(t)
	drawTriangle(s)
	s.SetAnnotationTool(annotation.ToolLine)
	s.HandleClick(scr(10, 90))
	s.HandleClick(scr(190, 90))
	s.SetAnnotationTool(annotation.ToolArea)
	s.HandleClick(scr(150, 50))

	job, err := s.JobPayload("m1", nil)
	require.NoError(t, err)
	assert.Empty(t, job.RoiCoordinates)
	assert.Equal(t, "m1", job.MapID)
	assert.Equal(t, 200, job.ImageWidth)
	assert.Equal(t, 100, job.ImageHeight)
	require.Len(t, job.Areas, 1)
	assert.Len(t, job.Areas[0], 3)
	require.Len(t, job.Lines, 1)
	assert.Equal(t, geometry.ImagePoint{X: 190, Y: 90}, job.Lines[0].End)
	assert.InDelta(t, 3000.0, job.AreaPixels, 1e-9)
	assert.True(t, strings.Contains(job.WKT, "POLYGON"))
	assert.Equal(t, 3, job.Parameters.NumAlternateRoutes)

	body, err := job.Encode()
	require.NoError(t, err)
	assert.Contains(t, string(body), `"map_id":"m1"`)
	assert.Contains(t, string(body), `"impassable_lines":[{"start":{"x":10,"y":90}`)
	assert.NotContains(t, string(body), "roi_coordinates", "empty ROI means the whole image")
	assert.Contains(t, string(body), `"overlap_tiers":[0.3,0.7,0.85,0.9]`)
	assert.Contains(t, string(body), `"min_separation":60`)
	assert.Contains(t, string(body), `"max_length_ratio":1.25`)
	assert.Contains(t, string(body), `"num_alternate_routes":3`)

	roi := []geometry.ImagePoint{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 50}, {X: 0, Y: 50}}
	job, err = s.JobPayload("m1", roi)
	require.NoError(t, err)
	assert.Equal(t, roi, job.RoiCoordinates)
	body, err = job.Encode()
	require.NoError(t, err)
	assert.Contains(t, string(body), `"roi_coordinates":[{"x":0,"y":0},{"x":100,"y":0},{"x":100,"y":50},{"x":0,"y":50}]`)

	_, err = s.JobPayload("m1", roi[:2])
	assert.ErrorIs(t, err, ErrInvalidROI)
}

func TestWatchMapReloadsChangedFile(t *testing.T) {
	s, dir := newLoadedState(t)
	w, err := s.WatchMap(20 * time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	loaded := make(chan struct{}, 4)
	s.On(EventMapLoaded, func(any) { loaded <- struct{}{} })

	writePNG(t, filepath.Join(dir, "sprint.png"), 300, 100)

	select {
	case <-loaded:
	case <-time.After(5 * time.Second):
		t.Fatal("map was not reloaded")
	}
	assert.Eventually(t, func() bool {
		return s.Raster().Size() == geometry.NewSize(300, 100)
	}, 5*time.Second, 20*time.Millisecond)
}

func TestHoverAtReportsContainingArea(t *testing.T) {
	empty := NewState(Options{Logger: zerolog.Nop()})
	_, ok := empty.HoverAt(scr(10, 10))
	assert.False(t, ok)

	s, _ := newLoadedState(t)
	drawTriangle(s)

	info, ok := s.HoverAt(scr(70, 40))
	require.True(t, ok)
	assert.Equal(t, 0, info.Area)
	assert.InDelta(t, 35.0, info.Percent.X, 1e-9)
	assert.InDelta(t, 40.0, info.Percent.Y, 1e-9)

	info, ok = s.HoverAt(scr(25, 75))
	require.True(t, ok)
	assert.Equal(t, -1, info.Area)

	_, ok = s.HoverAt(scr(250, 50))
	assert.False(t, ok, "off the map")
}

func TestVisibleROI(t *testing.T) {
	s, _ := newLoadedState(t)
	assert.Nil(t, s.VisibleROI(), "whole map in view")

	s.ZoomIn()
	roi := s.VisibleROI()
	require.Len(t, roi, 4)
	want := []geometry.ImagePoint{{X: 20, Y: 10}, {X: 180, Y: 10}, {X: 180, Y: 90}, {X: 20, Y: 90}}
	for i := range want {
		assert.InDelta(t, want[i].X, roi[i].X, 1e-9)
		assert.InDelta(t, want[i].Y, roi[i].Y, 1e-9)
	}

	s.PanBy(1000, 0)
	assert.Nil(t, s.VisibleROI(), "map scrolled out of view")
}

func TestMapScaleIsAProjectSetting(t *testing.T) {
	assert.Equal(t, 10000.0, NewState(Options{Logger: zerolog.Nop()}).MapScale())

	s, dir := newLoadedState(t)
	s.SetModified(false)
	var changed []any
	s.On(EventMapScaleChanged, func(data any) { changed = append(changed, data) })

	assert.ErrorIs(t, s.SetMapScale(0), ErrInvalidMapScale)
	assert.ErrorIs(t, s.SetMapScale(-4000), ErrInvalidMapScale)
	assert.False(t, s.Modified)

	require.NoError(t, s.SetMapScale(4000))
	require.NoError(t, s.SetMapScale(4000))
	assert.Equal(t, []any{4000.0}, changed, "unchanged scale is not re-announced")
	assert.True(t, s.Modified)

	path := filepath.Join(dir, "event.omproj")
	require.NoError(t, s.SaveProject(path))

	loaded := NewState(Options{MapScale: 15000, Logger: zerolog.Nop()})
	assert.Equal(t, 15000.0, loaded.MapScale(), "configured default")
	require.NoError(t, loaded.LoadProject(path))
	assert.Equal(t, 4000.0, loaded.MapScale(), "project value wins")
}
