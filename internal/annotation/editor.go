package annotation

import (
	"orienteer-map/internal/viewport"
	"orienteer-map/pkg/geometry"
)

// ChangeFunc receives the full committed lists after every commit, undo and clear.
type ChangeFunc func(areas []ImpassableArea, lines []ImpassableLine)

// Options configures a new Editor.
type Options struct {
	// InitialAreas and InitialLines seed the editor once. Later changes to
	// the host's copies are not picked up.
	InitialAreas []ImpassableArea
	InitialLines []ImpassableLine

	// ClosingTolerance overrides the screen-pixel closing radius when positive.
	ClosingTolerance float64

	OnChange ChangeFunc
}

// Editor drives a Session from canvas events. It is not safe for concurrent use;
// hosts serialize events.
type Editor struct {
	session  Session
	onChange ChangeFunc
}

// NewEditor creates an editor hydrated from opts.
func NewEditor(opts Options) *Editor {
	return &Editor{
		session:  NewSession(opts.InitialAreas, opts.InitialLines).WithClosingTolerance(opts.ClosingTolerance),
		onChange: opts.OnChange,
	}
}

// Session returns the current session value.
func (e *Editor) Session() Session {
	return e.session
}

// SetTool switches the active tool. Partial shapes are kept.
func (e *Editor) SetTool(t Tool) {
	e.session = e.session.WithTool(t)
}

// Click handles a click at a canvas position. Nothing happens until the
// viewport knows the image size.
func (e *Editor) Click(view viewport.State, p geometry.ScreenPoint) Outcome {
	if !view.Ready() {
		return OutcomeIgnored
	}
	return e.ClickImage(view.ScreenToImage(p), view.Scale())
}

// ClickImage handles a click already converted to image coordinates.
func (e *Editor) ClickImage(p geometry.ImagePoint, scale float64) Outcome {
	next, outcome := e.session.Click(p, scale)
	e.session = next
	if outcome.Committed() {
		e.notify()
	}
	return outcome
}

// CommitArea closes the in-progress area explicitly.
func (e *Editor) CommitArea() error {
	next, err := e.session.CommitArea()
	if err != nil {
		return err
	}
	e.session = next
	e.notify()
	return nil
}

// Undo steps back once and reports the committed lists.
func (e *Editor) Undo() {
	e.session, _ = e.session.Undo()
	e.notify()
}

// Clear removes every shape and reports empty lists.
func (e *Editor) Clear() {
	e.session = e.session.Clear()
	e.notify()
}

func (e *Editor) notify() {
	if e.onChange != nil {
		e.onChange(e.session.Areas(), e.session.Lines())
	}
}
