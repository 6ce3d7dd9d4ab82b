package course

import (
	"fmt"
	"slices"

	"github.com/google/uuid"

	"orienteer-map/pkg/geometry"
)

// Course is one route definition on an event's map.
type Course struct {
	ID        string    `json:"id"`
	EventID   string    `json:"eventId"`
	Name      string    `json:"name"`
	Controls  []Control `json:"controls"`
	Aggregate bool      `json:"aggregate,omitempty"`
}

// AggregateName is the display name of the derived all-controls course.
const AggregateName = "All controls"

// AggregateCourseID returns the ID of the derived all-controls course of an event.
func AggregateCourseID(eventID string) string {
	return eventID + "-all-controls"
}

// New creates an empty course with a fresh ID.
func New(eventID, name string) Course {
	return Course{
		ID:       uuid.NewString(),
		EventID:  eventID,
		Name:     name,
		Controls: []Control{},
	}
}

// IsAggregate reports whether the course is the derived all-controls course.
func (c Course) IsAggregate() bool {
	return c.Aggregate || (c.EventID != "" && c.ID == AggregateCourseID(c.EventID))
}

// HasStart reports whether the course already contains a start.
func (c Course) HasStart() bool {
	return slices.ContainsFunc(c.Controls, func(ctrl Control) bool {
		return ctrl.Type == TypeStart
	})
}

// Find returns the control with the given ID.
func (c Course) Find(id string) (Control, bool) {
	i := c.index(id)
	if i < 0 {
		return Control{}, false
	}
	return c.Controls[i], true
}

func (c Course) index(id string) int {
	return slices.IndexFunc(c.Controls, func(ctrl Control) bool {
		return ctrl.ID == id
	})
}

// NextNumber returns the number the next numbered control would get.
func (c Course) NextNumber() int {
	n := 0
	for _, ctrl := range c.Controls {
		if ctrl.Type.Numbered() {
			n++
		}
	}
	return n + 1
}

// Add appends a control. Numbered types get the next number and code.
func (c Course) Add(ctrl Control) (Course, error) {
	if c.IsAggregate() {
		return c, ErrAggregateReadOnly
	}
	if !ctrl.Type.Valid() {
		return c, fmt.Errorf("%w: %q", ErrUnknownControlType, ctrl.Type)
	}
	if ctrl.Type == TypeStart && c.HasStart() {
		return c, ErrDuplicateStart
	}
	if ctrl.Type.Numbered() {
		ctrl.Number = c.NextNumber()
		ctrl.Code = Code(ctrl.Number)
	}
	c.Controls = append(slices.Clone(c.Controls), ctrl)
	return c, nil
}

// Move sets a control's position.
func (c Course) Move(id string, p geometry.PercentPoint) (Course, error) {
	if c.IsAggregate() {
		return c, ErrAggregateReadOnly
	}
	i := c.index(id)
	if i < 0 {
		return c, fmt.Errorf("%w: %s", ErrControlNotFound, id)
	}
	controls := slices.Clone(c.Controls)
	controls[i] = controls[i].MoveTo(p)
	c.Controls = controls
	return c, nil
}

// Delete removes a control and renumbers the rest in array order.
func (c Course) Delete(id string) (Course, error) {
	if c.IsAggregate() {
		return c, ErrAggregateReadOnly
	}
	i := c.index(id)
	if i < 0 {
		return c, fmt.Errorf("%w: %s", ErrControlNotFound, id)
	}
	c.Controls = Renumber(slices.Delete(slices.Clone(c.Controls), i, i+1))
	return c, nil
}

// Clone returns a deep copy of the course.
func (c Course) Clone() Course {
	c.Controls = slices.Clone(c.Controls)
	return c
}

// AllControls flattens the controls of every regular course.
func AllControls(courses []Course) []Control {
	var out []Control
	for _, c := range courses {
		if c.IsAggregate() {
			continue
		}
		out = append(out, c.Controls...)
	}
	return out
}
