// Package course holds the control and course data model shared by the
// placement engine and the route orderer.
//
// Control positions are in percent of the map surface.
package course

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"orienteer-map/pkg/geometry"
)

var (
	// ErrInvalidOperation is the root of every rejected edit. Rejections never
	// change state.
	ErrInvalidOperation = errors.New("invalid operation")

	ErrDuplicateStart     = fmt.Errorf("%w: course already has a start", ErrInvalidOperation)
	ErrAggregateReadOnly  = fmt.Errorf("%w: the all-controls course is derived and cannot be edited", ErrInvalidOperation)
	ErrControlNotFound    = fmt.Errorf("%w: control not found", ErrInvalidOperation)
	ErrUnknownControlType = fmt.Errorf("%w: unknown control type", ErrInvalidOperation)
)

// ControlType is the symbol a control is drawn with.
type ControlType string

const (
	TypeStart               ControlType = "start"
	TypeControl             ControlType = "control"
	TypeFinish              ControlType = "finish"
	TypeCrossingPoint       ControlType = "crossing-point"
	TypeUncrossableBoundary ControlType = "uncrossable-boundary"
	TypeOutOfBounds         ControlType = "out-of-bounds"
	TypeWaterStation        ControlType = "water-station"
	TypeFirstAid            ControlType = "first-aid"
	TypeMandatoryCrossing   ControlType = "mandatory-crossing"
)

// ControlTypes lists every type in toolbar order.
var ControlTypes = []ControlType{
	TypeStart,
	TypeControl,
	TypeFinish,
	TypeCrossingPoint,
	TypeUncrossableBoundary,
	TypeOutOfBounds,
	TypeWaterStation,
	TypeFirstAid,
	TypeMandatoryCrossing,
}

// Valid reports whether t is a known type.
func (t ControlType) Valid() bool {
	for _, known := range ControlTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseControlType validates a type name.
func ParseControlType(s string) (ControlType, error) {
	t := ControlType(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownControlType, s)
	}
	return t, nil
}

// Numbered reports whether controls of this type carry a number and code.
func (t ControlType) Numbered() bool {
	return t == TypeControl
}

// CodeBase is added to a control's number to get its code. Codes 1-30 are
// reserved on punching units.
const CodeBase = 30

// Code returns the punch code for a control number.
func Code(number int) string {
	return strconv.Itoa(CodeBase + number)
}

// Control is a typed marker on the map.
type Control struct {
	ID          string      `json:"id"`
	Type        ControlType `json:"type"`
	X           float64     `json:"x"`
	Y           float64     `json:"y"`
	Number      int         `json:"number,omitempty"`
	Code        string      `json:"code,omitempty"`
	Description string      `json:"description,omitempty"`
}

// NewControl creates an unnumbered control with a fresh ID.
func NewControl(t ControlType, p geometry.PercentPoint) Control {
	return Control{
		ID:   uuid.NewString(),
		Type: t,
		X:    p.X,
		Y:    p.Y,
	}
}

// Position returns the control position in percent.
func (c Control) Position() geometry.PercentPoint {
	return geometry.PercentPoint{X: c.X, Y: c.Y}
}

// MoveTo returns the control at a new position.
func (c Control) MoveTo(p geometry.PercentPoint) Control {
	c.X, c.Y = p.X, p.Y
	return c
}

// Label is the text drawn next to the control symbol.
func (c Control) Label() string {
	if c.Type.Numbered() && c.Number > 0 {
		return strconv.Itoa(c.Number)
	}
	return ""
}

// Positions returns the position of every control.
func Positions(controls []Control) []geometry.PercentPoint {
	out := make([]geometry.PercentPoint, len(controls))
	for i, c := range controls {
		out[i] = c.Position()
	}
	return out
}

// Renumber returns a copy of controls with numbered types numbered 1..N in
// array order. Other types have their number and code cleared.
func Renumber(controls []Control) []Control {
	out := make([]Control, len(controls))
	n := 0
	for i, c := range controls {
		if c.Type.Numbered() {
			n++
			c.Number = n
			c.Code = Code(n)
		} else {
			c.Number = 0
			c.Code = ""
		}
		out[i] = c
	}
	return out
}
