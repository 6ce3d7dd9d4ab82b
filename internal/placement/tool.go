// Package placement implements click-to-place and drag-to-move of controls on
// a course, with snapping to controls already on the map.
package placement

import (
	"fmt"

	"orienteer-map/internal/course"
	"orienteer-map/pkg/geometry"
)

// Tool is the active tool of the course-setting canvas.
type Tool int

const (
	ToolPointer Tool = iota
	ToolPan
	ToolZoomIn
	ToolZoomOut
	ToolMove

	// placement tools follow, one per control type
	toolPlaceBase
)

// PlaceTool returns the tool that places controls of type t.
func PlaceTool(t course.ControlType) Tool {
	for i, ct := range course.ControlTypes {
		if ct == t {
			return toolPlaceBase + Tool(i)
		}
	}
	return ToolPointer
}

// AllTools returns every tool in toolbar order.
func AllTools() []Tool {
	tools := []Tool{ToolPointer, ToolPan, ToolZoomIn, ToolZoomOut, ToolMove}
	for _, ct := range course.ControlTypes {
		tools = append(tools, PlaceTool(ct))
	}
	return tools
}

// ControlType returns the type placed by the tool, if it is a placement tool.
func (t Tool) ControlType() (course.ControlType, bool) {
	i := int(t - toolPlaceBase)
	if i < 0 || i >= len(course.ControlTypes) {
		return "", false
	}
	return course.ControlTypes[i], true
}

func (t Tool) String() string {
	switch t {
	case ToolPointer:
		return "pointer"
	case ToolPan:
		return "pan"
	case ToolZoomIn:
		return "zoom-in"
	case ToolZoomOut:
		return "zoom-out"
	case ToolMove:
		return "move"
	}
	if ct, ok := t.ControlType(); ok {
		return "place-" + string(ct)
	}
	return fmt.Sprintf("Tool(%d)", int(t))
}

// Rect is the on-screen bounding rectangle of the map surface.
type Rect struct {
	Left, Top     float64
	Width, Height float64
}

// ToPercent converts a pointer position to percent of the map surface.
func ToPercent(clientX, clientY float64, r Rect) geometry.PercentPoint {
	if r.Width <= 0 || r.Height <= 0 {
		return geometry.PercentPoint{}
	}
	return geometry.PercentPoint{
		X: (clientX - r.Left) / r.Width * 100,
		Y: (clientY - r.Top) / r.Height * 100,
	}
}
