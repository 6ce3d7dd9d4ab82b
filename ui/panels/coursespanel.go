package panels

import (
	"fmt"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"orienteer-map/internal/app"
	"orienteer-map/internal/course"
	"orienteer-map/internal/placement"
)

// CoursesPanel lists the event's courses and selects the placement tool.
type CoursesPanel struct {
	state     *app.State
	window    fyne.Window
	container fyne.CanvasObject

	mu       sync.Mutex
	courses  []course.Course
	selected course.Control

	courseList    *widget.List
	toolSelect    *widget.Select
	previewCheck  *widget.Check
	selectedLabel *widget.Label
}

// toolLabel is the display name of a placement tool.
func toolLabel(t placement.Tool) string {
	if ct, ok := t.ControlType(); ok {
		return "Place " + strings.ReplaceAll(string(ct), "-", " ")
	}
	switch t {
	case placement.ToolPointer:
		return "Select / move"
	case placement.ToolPan:
		return "Pan"
	case placement.ToolZoomIn:
		return "Zoom in"
	case placement.ToolZoomOut:
		return "Zoom out"
	}
	return t.String()
}

// NewCoursesPanel creates a new courses panel.
func NewCoursesPanel(state *app.State) *CoursesPanel {
	cp := &CoursesPanel{state: state}

	cp.courseList = widget.NewList(
		func() int {
			cp.mu.Lock()
			defer cp.mu.Unlock()
			return len(cp.courses)
		},
		func() fyne.CanvasObject { return widget.NewLabel("course") },
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			cp.mu.Lock()
			defer cp.mu.Unlock()
			if id < 0 || id >= len(cp.courses) {
				return
			}
			c := cp.courses[id]
			obj.(*widget.Label).SetText(fmt.Sprintf("%s (%d)", c.Name, len(c.Controls)))
		},
	)
	cp.courseList.OnSelected = func(id widget.ListItemID) {
		cp.mu.Lock()
		if id < 0 || id >= len(cp.courses) {
			cp.mu.Unlock()
			return
		}
		courseID := cp.courses[id].ID
		cp.mu.Unlock()
		if err := state.SelectCourse(courseID); err != nil {
			cp.showError(err)
		}
	}

	var tools []placement.Tool
	var labels []string
	for _, t := range placement.AllTools() {
		if t == placement.ToolMove {
			continue
		}
		tools = append(tools, t)
		labels = append(labels, toolLabel(t))
	}
	cp.toolSelect = widget.NewSelect(labels, nil)
	cp.toolSelect.SetSelectedIndex(0)
	cp.toolSelect.OnChanged = func(selected string) {
		for i, l := range labels {
			if l == selected {
				state.SetPlacementTool(tools[i])
			}
		}
	}

	cp.previewCheck = widget.NewCheck("Preview (read only)", state.SetPreview)
	cp.selectedLabel = widget.NewLabel("No control selected")

	addButton := widget.NewButton("New Course...", cp.onNewCourse)
	deleteCourseButton := widget.NewButton("Delete Course", cp.onDeleteCourse)
	deleteControlButton := widget.NewButton("Delete Control", cp.onDeleteControl)

	cp.container = container.NewBorder(
		container.NewVBox(
			widget.NewCard("Tool", "", container.NewVBox(cp.toolSelect, cp.previewCheck)),
			container.NewHBox(addButton, deleteCourseButton),
		),
		widget.NewCard("Selected Control", "", container.NewVBox(cp.selectedLabel, deleteControlButton)),
		nil,
		nil,
		cp.courseList,
	)

	state.On(app.EventCoursesChanged, func(data any) {
		if courses, ok := data.([]course.Course); ok {
			cp.setCourses(courses)
		}
	})
	state.On(app.EventSelectionChanged, func(data any) {
		if c, ok := data.(course.Control); ok {
			cp.mu.Lock()
			cp.selected = c
			cp.mu.Unlock()
			cp.selectedLabel.SetText(describeControl(c))
		}
	})
	cp.setCourses(state.Courses())

	return cp
}

func describeControl(c course.Control) string {
	label := string(c.Type)
	if c.Number > 0 {
		label = fmt.Sprintf("%s %d (code %s)", label, c.Number, c.Code)
	}
	return fmt.Sprintf("%s at %.1f%%, %.1f%%", label, c.X, c.Y)
}

// Container returns the panel container.
func (cp *CoursesPanel) Container() fyne.CanvasObject {
	return cp.container
}

// SetWindow sets the parent window for dialogs.
func (cp *CoursesPanel) SetWindow(w fyne.Window) {
	cp.window = w
}

func (cp *CoursesPanel) setCourses(courses []course.Course) {
	cp.mu.Lock()
	cp.courses = courses
	cp.mu.Unlock()
	cp.courseList.Refresh()
}

func (cp *CoursesPanel) onNewCourse() {
	if cp.window == nil {
		return
	}
	name := widget.NewEntry()
	name.SetPlaceHolder("Course name")
	dialog.ShowForm("New Course", "Create", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("Name", name)},
		func(ok bool) {
			if ok && strings.TrimSpace(name.Text) != "" {
				cp.state.AddCourse(strings.TrimSpace(name.Text))
			}
		}, cp.window)
}

func (cp *CoursesPanel) onDeleteCourse() {
	active := cp.state.ActiveCourse()
	if active.IsAggregate() {
		cp.showError(course.ErrAggregateReadOnly)
		return
	}
	if cp.window == nil {
		return
	}
	dialog.ShowConfirm("Delete Course", fmt.Sprintf("Delete course %q?", active.Name), func(ok bool) {
		if ok {
			if err := cp.state.DeleteCourse(active.ID); err != nil {
				cp.showError(err)
			}
		}
	}, cp.window)
}

func (cp *CoursesPanel) onDeleteControl() {
	cp.mu.Lock()
	id := cp.selected.ID
	cp.mu.Unlock()
	if id == "" {
		return
	}
	if err := cp.state.DeleteControl(id); err != nil {
		cp.showError(err)
		return
	}
	cp.mu.Lock()
	cp.selected = course.Control{}
	cp.mu.Unlock()
	cp.selectedLabel.SetText("No control selected")
}

func (cp *CoursesPanel) showError(err error) {
	if cp.window != nil {
		dialog.ShowError(err, cp.window)
	}
}
