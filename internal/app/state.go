// Package app hosts the map editing session: the map raster, the viewport,
// the annotation editor, the control placement engine and the event's courses.
package app

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"orienteer-map/internal/annotation"
	"orienteer-map/internal/course"
	"orienteer-map/internal/hittest"
	mapimage "orienteer-map/internal/image"
	"orienteer-map/internal/placement"
	"orienteer-map/internal/project"
	"orienteer-map/internal/render"
	"orienteer-map/internal/route"
	"orienteer-map/internal/viewport"
	"orienteer-map/pkg/geometry"
)

var (
	// ErrCourseNotFound is returned when a course ID is not part of the event.
	ErrCourseNotFound = errors.New("course not found")

	// ErrInvalidMapScale is returned for a non-positive map scale.
	ErrInvalidMapScale = errors.New("map scale must be positive")
)

// Mode selects which engine receives canvas clicks.
type Mode int

const (
	ModeAnnotate Mode = iota
	ModeControls
)

func (m Mode) String() string {
	if m == ModeControls {
		return "controls"
	}
	return "annotate"
}

// EventType identifies different application events.
type EventType int

const (
	EventProjectLoaded EventType = iota
	EventProjectSaved
	EventMapLoaded
	EventViewChanged
	EventShapesChanged
	EventControlAdded
	EventControlMoved
	EventCoursesChanged
	EventSelectionChanged
	EventModeChanged
	EventModified
	EventMapScaleChanged
)

// EventListener is called when an event occurs.
type EventListener func(data any)

// ShapesChange is the payload of EventShapesChanged.
type ShapesChange struct {
	Areas []annotation.ImpassableArea
	Lines []annotation.ImpassableLine
}

// ControlMove is the payload of EventControlMoved.
type ControlMove struct {
	ID   string
	X, Y float64
}

// Options configures a new State.
type Options struct {
	// EventID identifies the event. Empty means a fresh UUID.
	EventID string
	// SnapDistance and ClosingTolerance override the engine defaults when positive.
	SnapDistance     float64
	ClosingTolerance float64
	// MapScale is the scale denominator for projects that do not set one.
	MapScale float64
	Logger   zerolog.Logger
}

type event struct {
	kind EventType
	data any
}

// State holds the editing session. All methods are safe for concurrent use;
// listeners run on the calling goroutine after the state is unlocked.
type State struct {
	mu sync.Mutex

	// Project
	ProjectPath string
	Modified    bool
	proj        *project.File

	eventID string
	opts    Options
	log     zerolog.Logger

	raster *mapimage.Raster
	view   viewport.State
	mode   Mode

	editor *annotation.Editor
	engine *placement.Engine

	courses   []course.Course
	aggregate course.Course
	active    string

	pending []event

	listenersMu sync.RWMutex
	listeners   map[EventType][]EventListener
}

// NewState creates an empty session with no map loaded.
func NewState(opts Options) *State {
	if opts.EventID == "" {
		opts.EventID = uuid.NewString()
	}
	s := &State{
		eventID:   opts.EventID,
		opts:      opts,
		log:       opts.Logger.With().Str("component", "app").Logger(),
		view:      viewport.New(),
		listeners: make(map[EventType][]EventListener),
	}
	s.proj = project.New("", s.eventID)
	if opts.MapScale > 0 {
		s.proj.Settings.MapScale = opts.MapScale
	}
	s.editor = s.newEditor(nil, nil)
	s.aggregate = route.BuildAggregateCourse(s.eventID, nil)
	s.active = s.aggregate.ID
	s.engine = placement.NewEngine(s.aggregate, nil, placement.Options{
		SnapDistance: opts.SnapDistance,
		Callbacks: placement.Callbacks{
			OnAddControl:    s.onAddControl,
			OnUpdateControl: s.onUpdateControl,
			OnSelectControl: s.onSelectControl,
		},
	})
	return s
}

func (s *State) newEditor(areas []annotation.ImpassableArea, lines []annotation.ImpassableLine) *annotation.Editor {
	return annotation.NewEditor(annotation.Options{
		InitialAreas:     areas,
		InitialLines:     lines,
		ClosingTolerance: s.opts.ClosingTolerance,
		OnChange:         s.onShapesChange,
	})
}

// On registers an event listener for the specified event type.
func (s *State) On(kind EventType, listener EventListener) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners[kind] = append(s.listeners[kind], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(kind EventType, data any) {
	s.listenersMu.RLock()
	listeners := s.listeners[kind]
	s.listenersMu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// queue records an event to emit once the state is unlocked. Callers hold mu.
func (s *State) queue(kind EventType, data any) {
	s.pending = append(s.pending, event{kind: kind, data: data})
}

// unlock releases mu and emits every queued event.
func (s *State) unlock() {
	events := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, ev := range events {
		s.Emit(ev.kind, ev.data)
	}
}

func (s *State) markModified() {
	if !s.Modified {
		s.Modified = true
		s.queue(EventModified, true)
	}
}

// SetModified marks the project as modified and emits an event.
func (s *State) SetModified(modified bool) {
	s.mu.Lock()
	s.Modified = modified
	s.queue(EventModified, modified)
	s.unlock()
}

func (s *State) defaultMapScale() float64 {
	if s.opts.MapScale > 0 {
		return s.opts.MapScale
	}
	return project.DefaultMapScale
}

// MapScale returns the scale denominator of the event map.
func (s *State) MapScale() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.proj.Settings.MapScale
}

// SetMapScale sets the scale denominator of the event map.
func (s *State) SetMapScale(scale float64) error {
	if !(scale > 0) || math.IsInf(scale, 1) {
		return fmt.Errorf("%w: %v", ErrInvalidMapScale, scale)
	}
	s.mu.Lock()
	defer s.unlock()
	if s.proj.Settings.MapScale == scale {
		return nil
	}
	s.proj.Settings.MapScale = scale
	s.markModified()
	s.queue(EventMapScaleChanged, scale)
	return nil
}

// EventID returns the event the session edits.
func (s *State) EventID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eventID
}

// Raster returns the loaded map, or nil.
func (s *State) Raster() *mapimage.Raster {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.raster
}

// LoadMap decodes the map image at path. Editing starts once the canvas size
// is known as well.
func (s *State) LoadMap(path string) error {
	r, err := mapimage.Load(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.setRaster(r)
	if s.ProjectPath != "" {
		s.proj.SetMapPath(s.ProjectPath, path)
	} else {
		s.proj.MapPath = path
	}
	s.markModified()
	s.unlock()
	return nil
}

// setRaster installs a decoded map. Callers hold mu.
func (s *State) setRaster(r *mapimage.Raster) {
	s.raster = r
	s.view = s.view.WithImage(r.Size())
	s.log.Info().
		Str("path", r.Path).
		Int("width", r.Width()).
		Int("height", r.Height()).
		Float64("dpi", r.DPI).
		Msg("map loaded")
	s.queue(EventMapLoaded, r)
	s.queue(EventViewChanged, s.view)
}

// Scene returns everything the canvas should draw.
func (s *State) Scene() render.Scene {
	s.mu.Lock()
	defer s.mu.Unlock()

	scene := render.Scene{
		View:       s.view,
		Controls:   s.engine.Course().Controls,
		SelectedID: s.engine.Selected(),
	}
	if s.raster != nil {
		scene.Map = s.raster.Image
	}
	return scene.WithSession(s.editor.Session())
}

// Mode returns which engine receives clicks.
func (s *State) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetMode switches between annotating and placing controls. A drag in
// progress ends.
func (s *State) SetMode(m Mode) {
	s.mu.Lock()
	if s.mode != m {
		s.engine.MouseUp()
		s.mode = m
		s.log.Debug().Stringer("mode", m).Msg("mode changed")
		s.queue(EventModeChanged, m)
	}
	s.unlock()
}

// SetAnnotationTool selects the annotation tool and switches to annotate mode.
func (s *State) SetAnnotationTool(t annotation.Tool) {
	s.mu.Lock()
	s.editor.SetTool(t)
	if s.mode != ModeAnnotate {
		s.mode = ModeAnnotate
		s.queue(EventModeChanged, s.mode)
	}
	s.unlock()
}

// SetPlacementTool selects the placement tool and switches to controls mode.
func (s *State) SetPlacementTool(t placement.Tool) {
	s.mu.Lock()
	s.engine.SetTool(t)
	if s.mode != ModeControls {
		s.mode = ModeControls
		s.queue(EventModeChanged, s.mode)
	}
	s.unlock()
}

// SetPreview turns the read-only course preview on or off.
func (s *State) SetPreview(preview bool) {
	s.mu.Lock()
	s.engine.SetPreview(preview)
	s.unlock()
}

// PanToolActive reports whether canvas drags should pan the view.
func (s *State) PanToolActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == ModeControls {
		return s.engine.Tool() == placement.ToolPan
	}
	return s.editor.Session().Tool() == annotation.ToolPan
}

// imageRect returns where the map is drawn on the canvas. Callers hold mu.
func (s *State) imageRect() placement.Rect {
	origin := s.view.ImageToScreen(geometry.Pt[geometry.ImageSpace](0, 0))
	scale := s.view.Scale()
	return placement.Rect{
		Left:   origin.X,
		Top:    origin.Y,
		Width:  s.view.ImageSize.Width * scale,
		Height: s.view.ImageSize.Height * scale,
	}
}

// HandleClick routes a canvas click to the engine of the active mode.
// Rejected placements are returned; everything else is silent.
func (s *State) HandleClick(p geometry.ScreenPoint) error {
	s.mu.Lock()
	defer s.unlock()

	if s.mode == ModeAnnotate {
		outcome := s.editor.Click(s.view, p)
		if outcome != annotation.OutcomeIgnored {
			s.log.Debug().Stringer("outcome", outcome).Msg("annotation click")
		}
		return nil
	}

	if !s.view.Ready() {
		return nil
	}
	switch s.engine.Tool() {
	case placement.ToolZoomIn:
		s.setView(s.view.ZoomIn())
		return nil
	case placement.ToolZoomOut:
		s.setView(s.view.ZoomOut())
		return nil
	}
	if _, err := s.engine.Click(p.X, p.Y, s.imageRect()); err != nil {
		s.log.Warn().Err(err).Str("course", s.active).Msg("control rejected")
		return err
	}
	return nil
}

// controlAt returns the ID of the first control drawn under p. Callers hold mu.
func (s *State) controlAt(p geometry.ScreenPoint) (string, bool) {
	controls := s.engine.Course().Controls
	pts := make([]geometry.ScreenPoint, len(controls))
	for i, c := range controls {
		pts[i] = s.view.ImageToScreen(geometry.PercentToImage(c.Position(), s.view.ImageSize))
	}
	i, ok := hittest.Nearest(p, pts, float64(render.DefaultStyle().ControlRadius))
	if !ok {
		return "", false
	}
	return controls[i].ID, true
}

// HandleMouseDown selects and starts dragging the control under p.
func (s *State) HandleMouseDown(p geometry.ScreenPoint) bool {
	s.mu.Lock()
	defer s.unlock()

	if s.mode != ModeControls || !s.view.Ready() {
		return false
	}
	id, ok := s.controlAt(p)
	if !ok {
		return false
	}
	_, ok = s.engine.MouseDown(id)
	return ok
}

// HandleMouseMove drags the selected control, if any.
func (s *State) HandleMouseMove(p geometry.ScreenPoint) bool {
	s.mu.Lock()
	defer s.unlock()

	if _, dragging := s.engine.Dragging(); !dragging {
		return false
	}
	_, ok := s.engine.MouseMove(p.X, p.Y, s.imageRect())
	return ok
}

// HandleMouseUp ends a control drag.
func (s *State) HandleMouseUp() {
	s.mu.Lock()
	s.engine.MouseUp()
	s.unlock()
}

// HandleMouseLeave ends a control drag when the pointer leaves the canvas.
func (s *State) HandleMouseLeave() {
	s.mu.Lock()
	s.engine.MouseLeave()
	s.unlock()
}

// CommitArea closes the in-progress area explicitly.
func (s *State) CommitArea() error {
	s.mu.Lock()
	defer s.unlock()
	return s.editor.CommitArea()
}

// Undo removes the most recent committed shape.
func (s *State) Undo() {
	s.mu.Lock()
	s.editor.Undo()
	s.unlock()
}

// ClearShapes removes every shape and discards partial input.
func (s *State) ClearShapes() {
	s.mu.Lock()
	s.editor.Clear()
	s.unlock()
}

// Session returns the current annotation session.
func (s *State) Session() annotation.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.Session()
}

func (s *State) onShapesChange(areas []annotation.ImpassableArea, lines []annotation.ImpassableLine) {
	s.markModified()
	s.queue(EventShapesChanged, ShapesChange{Areas: areas, Lines: lines})
}

// View returns the viewport state.
func (s *State) View() viewport.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// setView stores a new viewport. Callers hold mu.
func (s *State) setView(v viewport.State) {
	if v == s.view {
		return
	}
	s.view = v
	s.queue(EventViewChanged, v)
}

func (s *State) updateView(f func(viewport.State) viewport.State) {
	s.mu.Lock()
	s.setView(f(s.view))
	s.unlock()
}

// Resize records the canvas size.
func (s *State) Resize(size geometry.Size) {
	s.updateView(func(v viewport.State) viewport.State { return v.Resize(size) })
}

// ZoomIn zooms in by one button step.
func (s *State) ZoomIn() {
	s.updateView(viewport.State.ZoomIn)
}

// ZoomOut zooms out by one button step.
func (s *State) ZoomOut() {
	s.updateView(viewport.State.ZoomOut)
}

// Wheel zooms by one wheel step in the direction of the scroll.
func (s *State) Wheel(direction float64) {
	s.updateView(func(v viewport.State) viewport.State { return v.Wheel(direction) })
}

// PanBy moves the view by a screen-pixel delta.
func (s *State) PanBy(dx, dy float64) {
	s.updateView(func(v viewport.State) viewport.State { return v.PanBy(dx, dy) })
}

// ResetView restores zoom 1 and no pan.
func (s *State) ResetView() {
	s.updateView(viewport.State.Reset)
}

func (s *State) onAddControl(c course.Control) {
	s.syncActiveCourse()
	s.log.Debug().Str("control", c.ID).Str("type", string(c.Type)).Int("number", c.Number).Msg("control added")
	s.queue(EventControlAdded, c)
}

func (s *State) onUpdateControl(id string, x, y float64) {
	s.syncActiveCourse()
	s.queue(EventControlMoved, ControlMove{ID: id, X: x, Y: y})
}

func (s *State) onSelectControl(c course.Control) {
	s.queue(EventSelectionChanged, c)
}

// syncActiveCourse copies the engine's course back into the event and
// rebuilds the all-controls course. Callers hold mu.
func (s *State) syncActiveCourse() {
	edited := s.engine.Course()
	if edited.IsAggregate() {
		return
	}
	for i := range s.courses {
		if s.courses[i].ID == edited.ID {
			s.courses[i] = edited
		}
	}
	s.rebuildAggregate()
	s.markModified()
}

// rebuildAggregate replaces the all-controls course. Callers hold mu.
func (s *State) rebuildAggregate() {
	s.aggregate = route.BuildAggregateCourse(s.eventID, s.courses)
	if s.active == s.aggregate.ID {
		s.engine.SetCourse(s.aggregate)
	}
	s.queue(EventCoursesChanged, s.coursesLocked())
}

func (s *State) coursesLocked() []course.Course {
	out := make([]course.Course, 0, len(s.courses)+1)
	for _, c := range s.courses {
		out = append(out, c.Clone())
	}
	return append(out, s.aggregate.Clone())
}

// Courses returns the user courses followed by the all-controls course.
func (s *State) Courses() []course.Course {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coursesLocked()
}

// Aggregate returns the derived all-controls course.
func (s *State) Aggregate() course.Course {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aggregate.Clone()
}

// ActiveCourse returns the course placement edits.
func (s *State) ActiveCourse() course.Course {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Course()
}

// AddCourse creates an empty course and makes it active.
func (s *State) AddCourse(name string) course.Course {
	s.mu.Lock()
	defer s.unlock()

	c := course.New(s.eventID, name)
	s.courses = append(s.courses, c)
	s.activate(c)
	s.rebuildAggregate()
	s.markModified()
	return c.Clone()
}

// SelectCourse makes the course with the given ID active. The all-controls
// course can be selected for viewing only.
func (s *State) SelectCourse(id string) error {
	s.mu.Lock()
	defer s.unlock()

	if id == s.aggregate.ID {
		s.activate(s.aggregate)
		return nil
	}
	i := slices.IndexFunc(s.courses, func(c course.Course) bool { return c.ID == id })
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrCourseNotFound, id)
	}
	s.activate(s.courses[i])
	return nil
}

// activate hands c to the placement engine. Callers hold mu.
func (s *State) activate(c course.Course) {
	s.active = c.ID
	s.engine.SetCourse(c)
	s.engine.SetAllControls(course.AllControls(s.courses))
}

// DeleteCourse removes a user course. The all-controls course is rebuilt.
func (s *State) DeleteCourse(id string) error {
	s.mu.Lock()
	defer s.unlock()

	if id == s.aggregate.ID {
		return course.ErrAggregateReadOnly
	}
	i := slices.IndexFunc(s.courses, func(c course.Course) bool { return c.ID == id })
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrCourseNotFound, id)
	}
	s.courses = slices.Delete(s.courses, i, i+1)
	if s.active == id {
		s.active = s.aggregate.ID
	}
	s.rebuildAggregate()
	if s.active == s.aggregate.ID {
		s.activate(s.aggregate)
	} else {
		s.engine.SetAllControls(course.AllControls(s.courses))
	}
	s.markModified()
	return nil
}

// DeleteControl removes a control from the active course.
func (s *State) DeleteControl(id string) error {
	s.mu.Lock()
	defer s.unlock()

	if err := s.engine.Delete(id); err != nil {
		s.log.Warn().Err(err).Str("control", id).Msg("delete rejected")
		return err
	}
	s.syncActiveCourse()
	return nil
}

// SetCourses replaces the event's user courses, for example after loading
// them from storage. Any all-controls course in the input is ignored.
func (s *State) SetCourses(courses []course.Course) {
	s.mu.Lock()
	defer s.unlock()

	s.courses = make([]course.Course, 0, len(courses))
	for _, c := range courses {
		if !c.IsAggregate() {
			s.courses = append(s.courses, c.Clone())
		}
	}
	s.active = s.aggregate.ID
	s.rebuildAggregate()
	s.activate(s.aggregate)
	s.markModified()
}

// LoadProject loads a project and its map from the specified path.
func (s *State) LoadProject(path string) error {
	proj, err := project.Load(path)
	if err != nil {
		return err
	}

	var r *mapimage.Raster
	if mapPath := proj.GetMapPath(path); mapPath != "" {
		if r, err = mapimage.Load(mapPath); err != nil {
			return fmt.Errorf("failed to load map: %w", err)
		}
	}

	s.mu.Lock()
	defer s.unlock()

	s.proj = proj
	s.ProjectPath = path
	if proj.EventID != "" {
		s.eventID = proj.EventID
	} else {
		proj.EventID = s.eventID
	}
	if proj.Settings.SnapDistance > 0 {
		s.opts.SnapDistance = proj.Settings.SnapDistance
	}
	if proj.Settings.ClosingTolerance > 0 {
		s.opts.ClosingTolerance = proj.Settings.ClosingTolerance
	}
	if proj.Settings.MapScale <= 0 {
		proj.Settings.MapScale = s.defaultMapScale()
	}

	s.editor = s.newEditor(proj.Areas, proj.Lines)
	s.engine = placement.NewEngine(course.Course{}, nil, placement.Options{
		SnapDistance: s.opts.SnapDistance,
		Callbacks: placement.Callbacks{
			OnAddControl:    s.onAddControl,
			OnUpdateControl: s.onUpdateControl,
			OnSelectControl: s.onSelectControl,
		},
	})
	s.courses = proj.UserCourses()
	s.aggregate = route.BuildAggregateCourse(s.eventID, s.courses)
	if len(s.courses) > 0 {
		s.activate(s.courses[0])
	} else {
		s.activate(s.aggregate)
	}
	s.queue(EventCoursesChanged, s.coursesLocked())

	s.view = viewport.New().Resize(s.view.CanvasSize)
	if r != nil {
		s.setRaster(r)
	} else {
		s.raster = nil
		s.queue(EventViewChanged, s.view)
	}

	s.Modified = false
	s.log.Info().Str("path", path).Int("courses", len(s.courses)).Msg("project loaded")
	s.queue(EventProjectLoaded, path)
	return nil
}

// SaveProject saves the session to the specified path.
func (s *State) SaveProject(path string) error {
	s.mu.Lock()
	defer s.unlock()

	mapPath := s.proj.GetMapPath(s.ProjectPath)
	if s.ProjectPath == "" {
		mapPath = s.proj.MapPath
	}
	if mapPath != "" {
		s.proj.SetMapPath(path, mapPath)
	}

	sess := s.editor.Session()
	s.proj.EventID = s.eventID
	s.proj.Areas = sess.Areas()
	s.proj.Lines = sess.Lines()
	s.proj.Courses = make([]course.Course, 0, len(s.courses))
	for _, c := range s.courses {
		s.proj.Courses = append(s.proj.Courses, c.Clone())
	}
	s.proj.Settings.SnapDistance = s.opts.SnapDistance
	s.proj.Settings.ClosingTolerance = s.opts.ClosingTolerance

	if err := s.proj.Save(path); err != nil {
		s.log.Error().Err(err).Str("path", path).Msg("project save failed")
		return err
	}

	s.ProjectPath = path
	s.Modified = false
	s.log.Info().Str("path", path).Msg("project saved")
	s.queue(EventProjectSaved, path)
	return nil
}
