package placement

import (
	"slices"

	"orienteer-map/internal/course"
	"orienteer-map/internal/hittest"
	"orienteer-map/pkg/geometry"
)

// Callbacks report engine changes to the host, which persists them.
type Callbacks struct {
	OnAddControl    func(course.Control)
	OnUpdateControl func(id string, x, y float64)
	OnSelectControl func(course.Control)
}

// Options configures an Engine.
type Options struct {
	// SnapDistance is the snap radius in percent. Zero means hittest.DefaultSnapDistance.
	SnapDistance float64
	Callbacks    Callbacks
}

// Engine places and drags controls on one course. All methods run to
// completion synchronously; it is not safe for concurrent use.
type Engine struct {
	course  course.Course
	all     []course.Control
	tool    Tool
	preview bool
	snap    float64
	cb      Callbacks

	selected string
	dragging string
}

// NewEngine creates an engine editing c. all is every control of the event,
// used as snap targets.
func NewEngine(c course.Course, all []course.Control, opts Options) *Engine {
	snap := opts.SnapDistance
	if snap <= 0 {
		snap = hittest.DefaultSnapDistance
	}
	return &Engine{
		course: c.Clone(),
		all:    slices.Clone(all),
		tool:   ToolPointer,
		snap:   snap,
		cb:     opts.Callbacks,
	}
}

// Snap returns the position of the first control within distance of p, or p
// itself. The control with ID exclude is skipped.
func Snap(p geometry.PercentPoint, controls []course.Control, distance float64, exclude string) geometry.PercentPoint {
	candidates := make([]course.Control, 0, len(controls))
	for _, c := range controls {
		if c.ID != exclude {
			candidates = append(candidates, c)
		}
	}
	if i, ok := hittest.Nearest(p, course.Positions(candidates), distance); ok {
		return candidates[i].Position()
	}
	return p
}

// Course returns a copy of the course being edited.
func (e *Engine) Course() course.Course { return e.course.Clone() }

func (e *Engine) Tool() Tool { return e.tool }

func (e *Engine) Preview() bool { return e.preview }

func (e *Engine) SnapDistance() float64 { return e.snap }

// Selected returns the ID of the last control clicked, or "".
func (e *Engine) Selected() string { return e.selected }

// Dragging returns the ID of the control being dragged.
func (e *Engine) Dragging() (string, bool) { return e.dragging, e.dragging != "" }

// SetTool switches the active tool. Any drag in progress ends.
func (e *Engine) SetTool(t Tool) {
	e.tool = t
	e.dragging = ""
}

// SetPreview toggles read-only mode.
func (e *Engine) SetPreview(preview bool) {
	e.preview = preview
	if preview {
		e.dragging = ""
	}
}

// SetCourse replaces the course being edited.
func (e *Engine) SetCourse(c course.Course) {
	e.course = c.Clone()
	e.dragging = ""
	if _, ok := e.course.Find(e.selected); !ok {
		e.selected = ""
	}
}

// SetAllControls replaces the snap targets.
func (e *Engine) SetAllControls(all []course.Control) {
	e.all = slices.Clone(all)
}

// Click places a control of the active tool's type at the pointer position.
// Inert tools and preview mode return nil without error.
func (e *Engine) Click(clientX, clientY float64, r Rect) (*course.Control, error) {
	ct, ok := e.tool.ControlType()
	if !ok || e.preview {
		return nil, nil
	}
	if e.course.IsAggregate() {
		return nil, course.ErrAggregateReadOnly
	}

	p := Snap(ToPercent(clientX, clientY, r), e.all, e.snap, "")
	next, err := e.course.Add(course.NewControl(ct, p))
	if err != nil {
		return nil, err
	}
	e.course = next
	added := next.Controls[len(next.Controls)-1]
	e.all = append(e.all, added)

	if e.cb.OnAddControl != nil {
		e.cb.OnAddControl(added)
	}
	return &added, nil
}

// MouseDown selects a control and starts dragging it. It only acts with the
// pointer tool outside preview mode. The derived all-controls course can be
// selected but not dragged.
func (e *Engine) MouseDown(id string) (course.Control, bool) {
	if e.tool != ToolPointer || e.preview {
		return course.Control{}, false
	}
	ctrl, ok := e.course.Find(id)
	if !ok {
		return course.Control{}, false
	}
	e.selected = id
	if !e.course.IsAggregate() {
		e.dragging = id
	}
	if e.cb.OnSelectControl != nil {
		e.cb.OnSelectControl(ctrl)
	}
	return ctrl, true
}

// MouseMove moves the dragged control to the pointer position, snapped to
// other controls. Every call reports the new position.
func (e *Engine) MouseMove(clientX, clientY float64, r Rect) (course.Control, bool) {
	if e.dragging == "" {
		return course.Control{}, false
	}
	id := e.dragging
	p := Snap(ToPercent(clientX, clientY, r), e.all, e.snap, id)

	next, err := e.course.Move(id, p)
	if err != nil {
		e.dragging = ""
		return course.Control{}, false
	}
	e.course = next
	for i := range e.all {
		if e.all[i].ID == id {
			e.all[i] = e.all[i].MoveTo(p)
		}
	}

	if e.cb.OnUpdateControl != nil {
		e.cb.OnUpdateControl(id, p.X, p.Y)
	}
	moved, _ := next.Find(id)
	return moved, true
}

// MouseUp ends a drag. Positions were already reported by MouseMove.
func (e *Engine) MouseUp() {
	e.dragging = ""
}

// MouseLeave behaves exactly like MouseUp.
func (e *Engine) MouseLeave() {
	e.MouseUp()
}

// Delete removes a control from the course and renumbers the rest.
func (e *Engine) Delete(id string) error {
	next, err := e.course.Delete(id)
	if err != nil {
		return err
	}
	e.course = next
	e.all = slices.DeleteFunc(e.all, func(c course.Control) bool { return c.ID == id })
	if e.selected == id {
		e.selected = ""
	}
	if e.dragging == id {
		e.dragging = ""
	}
	return nil
}
