package annotation

import (
	"fmt"
	"slices"

	"orienteer-map/internal/hittest"
	"orienteer-map/pkg/geometry"
)

// Tool selects what a click on the map does.
type Tool int

const (
	ToolPan Tool = iota
	ToolArea
	ToolLine
)

var toolNames = map[Tool]string{
	ToolPan:  "pan",
	ToolArea: "area",
	ToolLine: "line",
}

func (t Tool) String() string {
	if s, ok := toolNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Tool(%d)", int(t))
}

// Phase is the drawing state of a session.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseDrawingArea
	PhaseAwaitingLineEnd
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseDrawingArea:
		return "drawing-area"
	case PhaseAwaitingLineEnd:
		return "awaiting-line-end"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Outcome describes what a click did to the session.
type Outcome int

const (
	OutcomeIgnored Outcome = iota
	OutcomePointAdded
	OutcomeAreaCommitted
	OutcomeLineStarted
	OutcomeLineCommitted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomePointAdded:
		return "point-added"
	case OutcomeAreaCommitted:
		return "area-committed"
	case OutcomeLineStarted:
		return "line-started"
	case OutcomeLineCommitted:
		return "line-committed"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Committed reports whether the committed shape lists changed.
func (o Outcome) Committed() bool {
	return o == OutcomeAreaCommitted || o == OutcomeLineCommitted
}

// Session is the complete state of one annotation editor. The zero value is not
// useful; use NewSession.
//
// Switching tools keeps in-progress points and a pending line start, so a
// session can be drawing an area and awaiting a line end at the same time.
type Session struct {
	tool      Tool
	tolerance float64

	points    []geometry.ImagePoint
	lineStart *geometry.ImagePoint

	areas []ImpassableArea
	lines []ImpassableLine
}

// NewSession starts an idle session with the area tool, seeded with already
// committed shapes.
func NewSession(areas []ImpassableArea, lines []ImpassableLine) Session {
	return Session{
		tool:      ToolArea,
		tolerance: hittest.ClosingTolerance,
		areas:     CloneAreas(areas),
		lines:     CloneLines(lines),
	}
}

// WithClosingTolerance returns the session with a different closing radius in
// screen pixels. Non-positive values are ignored.
func (s Session) WithClosingTolerance(tolerance float64) Session {
	if tolerance > 0 {
		s.tolerance = tolerance
	}
	return s
}

// WithTool switches the active tool without discarding partial shapes.
func (s Session) WithTool(t Tool) Session {
	s.tool = t
	return s
}

// Tool returns the active tool.
func (s Session) Tool() Tool { return s.tool }

// ClosingTolerance returns the closing radius in screen pixels.
func (s Session) ClosingTolerance() float64 { return s.tolerance }

// Points returns a copy of the in-progress area vertices.
func (s Session) Points() []geometry.ImagePoint { return slices.Clone(s.points) }

// Areas returns a copy of the committed areas.
func (s Session) Areas() []ImpassableArea { return CloneAreas(s.areas) }

// Lines returns a copy of the committed lines.
func (s Session) Lines() []ImpassableLine { return CloneLines(s.lines) }

// PendingLineStart returns the first endpoint of a line being drawn.
func (s Session) PendingLineStart() (geometry.ImagePoint, bool) {
	if s.lineStart == nil {
		return geometry.ImagePoint{}, false
	}
	return *s.lineStart, true
}

// Phase reports the drawing state. An unfinished area takes precedence over a
// pending line start, matching undo order.
func (s Session) Phase() Phase {
	switch {
	case len(s.points) > 0:
		return PhaseDrawingArea
	case s.lineStart != nil:
		return PhaseAwaitingLineEnd
	default:
		return PhaseIdle
	}
}

// Click applies a click at image point p. scale is screen pixels per image
// pixel, used to keep the closing radius constant on screen.
func (s Session) Click(p geometry.ImagePoint, scale float64) (Session, Outcome) {
	switch s.tool {
	case ToolArea:
		if len(s.points) >= MinAreaPoints &&
			hittest.WithinTolerance(p, s.points[0], s.tolerance, scale) {
			return s.closeArea(), OutcomeAreaCommitted
		}
		s.points = append(slices.Clone(s.points), p)
		return s, OutcomePointAdded

	case ToolLine:
		if s.lineStart == nil {
			start := p
			s.lineStart = &start
			return s, OutcomeLineStarted
		}
		s.lines = append(CloneLines(s.lines), ImpassableLine{Start: *s.lineStart, End: p})
		s.lineStart = nil
		return s, OutcomeLineCommitted

	default:
		return s, OutcomeIgnored
	}
}

// CommitArea closes the in-progress area without clicking on its first vertex.
func (s Session) CommitArea() (Session, error) {
	if len(s.points) < MinAreaPoints {
		return s, fmt.Errorf("%w: have %d", ErrTooFewPoints, len(s.points))
	}
	return s.closeArea(), nil
}

func (s Session) closeArea() Session {
	s.areas = append(CloneAreas(s.areas), ImpassableArea{Points: slices.Clone(s.points)})
	s.points = nil
	return s
}

// Undo steps back once: the last in-progress vertex, then a pending line start,
// then a committed shape. The second result reports whether a committed shape
// was removed.
//
// Lines and areas share no timeline. A line is removed when there are lines and
// either no areas or at least as many lines as areas; otherwise an area is.
func (s Session) Undo() (Session, bool) {
	switch {
	case len(s.points) > 0:
		s.points = slices.Clone(s.points[:len(s.points)-1])
		return s, false
	case s.lineStart != nil:
		s.lineStart = nil
		return s, false
	case len(s.lines) > 0 && (len(s.areas) == 0 || len(s.lines) >= len(s.areas)):
		s.lines = CloneLines(s.lines[:len(s.lines)-1])
		return s, true
	case len(s.areas) > 0:
		s.areas = CloneAreas(s.areas[:len(s.areas)-1])
		return s, true
	}
	return s, false
}

// Clear drops every committed and in-progress shape. The tool is kept.
func (s Session) Clear() Session {
	s.points = nil
	s.lineStart = nil
	s.areas = []ImpassableArea{}
	s.lines = []ImpassableLine{}
	return s
}
