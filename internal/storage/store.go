// Package storage persists an event's courses outside the project file.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"orienteer-map/internal/course"
)

// ErrEventNotFound is returned when no courses are stored for an event.
var ErrEventNotFound = errors.New("event not found")

// Store saves and loads the courses of an event. Saving replaces everything
// previously stored for that event.
type Store interface {
	SaveCourses(ctx context.Context, eventID string, courses []course.Course) error
	LoadCourses(ctx context.Context, eventID string) ([]course.Course, error)
	Events(ctx context.Context) ([]string, error)
	Close() error
}

// DatabaseModels lists every table of the course store.
var DatabaseModels = []interface{}{
	&CourseRecord{},
	&ControlRecord{},
}

// CourseRecord is one stored course.
type CourseRecord struct {
	ID        string          `gorm:"primaryKey;size:64"`
	EventID   string          `gorm:"size:64;index;not null"`
	Name      string          `gorm:"size:255"`
	Position  int             `gorm:"not null"`
	Aggregate bool            `gorm:"not null;default:false"`
	Controls  []ControlRecord `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName overrides the gorm default.
func (CourseRecord) TableName() string { return "courses" }

// ControlRecord is one control of a stored course. The same control ID can
// appear in the all-controls course and in the course it was placed on.
type ControlRecord struct {
	ID          uint    `gorm:"primaryKey;autoIncrement"`
	CourseID    string  `gorm:"size:64;index;not null"`
	EventID     string  `gorm:"size:64;index;not null"`
	ControlID   string  `gorm:"size:64;index;not null"`
	Seq         int     `gorm:"not null"`
	Type        string  `gorm:"size:32;not null"`
	X           float64 `gorm:"not null"`
	Y           float64 `gorm:"not null"`
	Number      int
	Code        string `gorm:"size:16"`
	Description string `gorm:"size:255"`
}

// TableName overrides the gorm default.
func (ControlRecord) TableName() string { return "controls" }

func toRecord(c course.Course, eventID string, position int) CourseRecord {
	rec := CourseRecord{
		ID:        c.ID,
		EventID:   eventID,
		Name:      c.Name,
		Position:  position,
		Aggregate: c.IsAggregate(),
		Controls:  make([]ControlRecord, 0, len(c.Controls)),
	}
	for i, ctrl := range c.Controls {
		rec.Controls = append(rec.Controls, ControlRecord{
			CourseID:    c.ID,
			EventID:     eventID,
			ControlID:   ctrl.ID,
			Seq:         i,
			Type:        string(ctrl.Type),
			X:           ctrl.X,
			Y:           ctrl.Y,
			Number:      ctrl.Number,
			Code:        ctrl.Code,
			Description: ctrl.Description,
		})
	}
	return rec
}

func fromRecord(rec CourseRecord) (course.Course, error) {
	c := course.Course{
		ID:        rec.ID,
		EventID:   rec.EventID,
		Name:      rec.Name,
		Controls:  make([]course.Control, 0, len(rec.Controls)),
		Aggregate: rec.Aggregate,
	}
	for _, r := range rec.Controls {
		typ, err := course.ParseControlType(r.Type)
		if err != nil {
			return course.Course{}, fmt.Errorf("control %s: %w", r.ControlID, err)
		}
		c.Controls = append(c.Controls, course.Control{
			ID:          r.ControlID,
			Type:        typ,
			X:           r.X,
			Y:           r.Y,
			Number:      r.Number,
			Code:        r.Code,
			Description: r.Description,
		})
	}
	return c, nil
}
