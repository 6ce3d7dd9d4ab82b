// Package panels provides UI panels for the application.
package panels

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"

	"orienteer-map/internal/app"
)

// SidePanel provides the main side panel with tabbed sections.
type SidePanel struct {
	state     *app.State
	container *container.AppTabs

	annotatePanel *AnnotatePanel
	coursesPanel  *CoursesPanel
}

// NewSidePanel creates a new side panel. Switching tabs switches the canvas
// between annotating and placing controls.
func NewSidePanel(state *app.State) *SidePanel {
	sp := &SidePanel{state: state}

	sp.annotatePanel = NewAnnotatePanel(state)
	sp.coursesPanel = NewCoursesPanel(state)

	annotateTab := container.NewTabItem("Impassable", sp.annotatePanel.Container())
	coursesTab := container.NewTabItem("Courses", sp.coursesPanel.Container())
	sp.container = container.NewAppTabs(annotateTab, coursesTab)
	sp.container.OnSelected = func(tab *container.TabItem) {
		if tab == coursesTab {
			state.SetMode(app.ModeControls)
		} else {
			state.SetMode(app.ModeAnnotate)
		}
	}

	state.On(app.EventModeChanged, func(data any) {
		if mode, ok := data.(app.Mode); ok {
			if mode == app.ModeControls {
				sp.container.Select(coursesTab)
			} else {
				sp.container.Select(annotateTab)
			}
		}
	})

	return sp
}

// Container returns the panel container.
func (sp *SidePanel) Container() fyne.CanvasObject {
	return sp.container
}

// SetWindow sets the parent window for dialogs.
func (sp *SidePanel) SetWindow(w fyne.Window) {
	sp.annotatePanel.SetWindow(w)
	sp.coursesPanel.SetWindow(w)
}
