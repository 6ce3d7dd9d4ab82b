// Package project provides event project file handling and persistence.
package project

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"

	"orienteer-map/internal/annotation"
	"orienteer-map/internal/course"
)

// CurrentVersion is the project format written by Save.
const CurrentVersion = 1

// Extension is the project file extension.
const Extension = ".omproj"

// DefaultMapScale is the scale denominator of a new project (1:10000).
const DefaultMapScale = 10000

// File represents an event project file (.omproj).
type File struct {
	Version  int       `json:"version"`
	Name     string    `json:"name"`
	EventID  string    `json:"event_id"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`

	// Map image path (relative to project file)
	MapPath string `json:"map,omitempty"`

	// Committed annotation shapes in image pixels
	Areas []annotation.ImpassableArea `json:"impassable_areas"`
	Lines []annotation.ImpassableLine `json:"impassable_lines"`

	// User courses. The all-controls course is derived and never stored.
	Courses []course.Course `json:"courses"`

	Settings Settings `json:"settings,omitempty"`
}

// Settings holds per-event editor preferences. Zero values mean the
// configured defaults.
type Settings struct {
	SnapDistance     float64 `json:"snap_distance,omitempty"`
	ClosingTolerance float64 `json:"closing_tolerance,omitempty"`
	MapScale         float64 `json:"map_scale,omitempty"`
}

// New creates a new project for an event.
func New(name, eventID string) *File {
	now := time.Now()
	return &File{
		Version:  CurrentVersion,
		Name:     name,
		EventID:  eventID,
		Created:  now,
		Modified: now,
		Areas:    []annotation.ImpassableArea{},
		Lines:    []annotation.ImpassableLine{},
		Courses:  []course.Course{},
		Settings: Settings{MapScale: DefaultMapScale},
	}
}

// Load loads a project from a .omproj file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var proj File
	if err := json.Unmarshal(data, &proj); err != nil {
		return nil, fmt.Errorf("failed to parse project %s: %w", filepath.Base(path), err)
	}
	if proj.Version > CurrentVersion {
		return nil, fmt.Errorf("project version %d is newer than supported version %d", proj.Version, CurrentVersion)
	}
	if err := proj.validate(); err != nil {
		return nil, fmt.Errorf("invalid project %s: %w", filepath.Base(path), err)
	}
	return &proj, nil
}

func (p *File) validate() error {
	for i, a := range p.Areas {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("area %d: %w", i, err)
		}
	}
	for i, l := range p.Lines {
		if err := l.Validate(); err != nil {
			return fmt.Errorf("line %d: %w", i, err)
		}
	}
	return nil
}

// UserCourses returns the stored courses without any all-controls course an
// older writer may have persisted.
func (p *File) UserCourses() []course.Course {
	out := make([]course.Course, 0, len(p.Courses))
	for _, c := range p.Courses {
		if !c.IsAggregate() {
			out = append(out, c)
		}
	}
	return out
}

// Save saves the project to a file.
func (p *File) Save(path string) error {
	p.Modified = time.Now()
	if p.Version == 0 {
		p.Version = CurrentVersion
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// SetMapPath sets the map image path (relative to project).
func (p *File) SetMapPath(projectPath, imagePath string) {
	rel, err := filepath.Rel(filepath.Dir(projectPath), imagePath)
	if err != nil {
		p.MapPath = imagePath
	} else {
		p.MapPath = rel
	}
	p.Modified = time.Now()
}

// GetMapPath returns the absolute path to the map image.
func (p *File) GetMapPath(projectPath string) string {
	if p.MapPath == "" {
		return ""
	}
	if filepath.IsAbs(p.MapPath) {
		return p.MapPath
	}
	return filepath.Join(filepath.Dir(projectPath), p.MapPath)
}
