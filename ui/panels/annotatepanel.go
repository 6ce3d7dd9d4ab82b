package panels

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"orienteer-map/internal/annotation"
	"orienteer-map/internal/app"
)

var annotationToolLabels = []struct {
	tool  annotation.Tool
	label string
}{
	{annotation.ToolPan, "Pan"},
	{annotation.ToolArea, "Impassable area"},
	{annotation.ToolLine, "Impassable line"},
}

// AnnotatePanel selects the drawing tool and manages committed shapes.
type AnnotatePanel struct {
	state     *app.State
	window    fyne.Window
	container fyne.CanvasObject

	toolGroup   *widget.RadioGroup
	countsLabel *widget.Label
	areaLabel   *widget.Label
	scaleLabel  *widget.Label
	scaleEntry  *widget.SelectEntry
}

var commonMapScales = []string{"4000", "5000", "7500", "10000", "15000"}

// NewAnnotatePanel creates a new annotation panel.
func NewAnnotatePanel(state *app.State) *AnnotatePanel {
	ap := &AnnotatePanel{state: state}

	ap.countsLabel = widget.NewLabel("")
	ap.areaLabel = widget.NewLabel("")
	ap.scaleLabel = widget.NewLabel("Scale: unknown")
	ap.scaleLabel.Wrapping = fyne.TextWrapWord

	labels := make([]string, len(annotationToolLabels))
	for i, t := range annotationToolLabels {
		labels[i] = t.label
	}
	ap.toolGroup = widget.NewRadioGroup(labels, nil)
	ap.toolGroup.SetSelected(ap.labelFor(state.Session().Tool()))
	ap.toolGroup.OnChanged = func(selected string) {
		for _, t := range annotationToolLabels {
			if t.label == selected {
				state.SetAnnotationTool(t.tool)
			}
		}
	}

	ap.scaleEntry = widget.NewSelectEntry(commonMapScales)
	ap.scaleEntry.SetText(formatScale(state.MapScale()))
	ap.scaleEntry.OnSubmitted = ap.onScale
	ap.scaleEntry.OnChanged = func(text string) {
		if slices.Contains(commonMapScales, text) {
			ap.onScale(text)
		}
	}

	closeButton := widget.NewButton("Close Area", func() {
		if err := state.CommitArea(); err != nil {
			ap.showError(err)
		}
	})
	undoButton := widget.NewButton("Undo", state.Undo)
	clearButton := widget.NewButton("Clear All", ap.onClear)

	ap.container = container.NewVBox(
		widget.NewCard("Tool", "", ap.toolGroup),
		widget.NewCard("Shapes", "", container.NewVBox(
			ap.countsLabel,
			ap.areaLabel,
			container.NewHBox(closeButton, undoButton, clearButton),
		)),
		widget.NewCard("Map", "", container.NewVBox(
			container.NewBorder(nil, nil, widget.NewLabel("Scale 1:"), nil, ap.scaleEntry),
			ap.scaleLabel,
		)),
	)

	state.On(app.EventShapesChanged, func(any) { ap.update() })
	state.On(app.EventProjectLoaded, func(any) { ap.update() })
	state.On(app.EventMapLoaded, func(any) { ap.update() })
	state.On(app.EventMapScaleChanged, func(any) { ap.update() })
	ap.update()

	return ap
}

// Container returns the panel container.
func (ap *AnnotatePanel) Container() fyne.CanvasObject {
	return ap.container
}

// SetWindow sets the parent window for dialogs.
func (ap *AnnotatePanel) SetWindow(w fyne.Window) {
	ap.window = w
}

func (ap *AnnotatePanel) labelFor(tool annotation.Tool) string {
	for _, t := range annotationToolLabels {
		if t.tool == tool {
			return t.label
		}
	}
	return ""
}

func (ap *AnnotatePanel) update() {
	sess := ap.state.Session()
	ap.countsLabel.SetText(fmt.Sprintf("%d areas, %d lines", len(sess.Areas()), len(sess.Lines())))
	ap.areaLabel.SetText(fmt.Sprintf("Impassable: %.0f px²", annotation.TotalArea(sess.Areas())))

	scale := ap.state.MapScale()
	if ap.scaleEntry.Text != formatScale(scale) {
		ap.scaleEntry.SetText(formatScale(scale))
	}

	r := ap.state.Raster()
	switch {
	case r == nil:
		ap.scaleLabel.SetText("No map loaded")
	case r.DPI > 0:
		ap.scaleLabel.SetText(fmt.Sprintf("%d × %d px at %.0f dpi (%.2f m/px at 1:%s)",
			r.Width(), r.Height(), r.DPI, r.MetersPerPixel(scale), formatScale(scale)))
	default:
		ap.scaleLabel.SetText(fmt.Sprintf("%d × %d px", r.Width(), r.Height()))
	}
}

func (ap *AnnotatePanel) onScale(text string) {
	scale, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err == nil {
		err = ap.state.SetMapScale(scale)
	}
	if err != nil {
		ap.showError(err)
		ap.scaleEntry.SetText(formatScale(ap.state.MapScale()))
	}
}

func formatScale(scale float64) string {
	return strconv.FormatFloat(scale, 'f', -1, 64)
}

func (ap *AnnotatePanel) onClear() {
	if ap.window == nil {
		ap.state.ClearShapes()
		return
	}
	dialog.ShowConfirm("Clear All", "Remove every impassable area and line?", func(ok bool) {
		if ok {
			ap.state.ClearShapes()
		}
	}, ap.window)
}

func (ap *AnnotatePanel) showError(err error) {
	if ap.window != nil {
		dialog.ShowError(err, ap.window)
	}
}
