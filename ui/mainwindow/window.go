// Package mainwindow provides the main application window.
package mainwindow

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"

	"orienteer-map/internal/app"
	mapimage "orienteer-map/internal/image"
	"orienteer-map/internal/project"
	coursestore "orienteer-map/internal/storage"
	"orienteer-map/internal/version"
	"orienteer-map/pkg/geometry"
	"orienteer-map/ui/canvas"
	"orienteer-map/ui/panels"
)

const (
	appTitle       = "Orienteer Map"
	prefKeyLastDir = "lastDirectory"
	prefKeyLastMap = "lastMap"
)

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app       fyne.App
	state     *app.State
	log       zerolog.Logger
	canvas    *canvas.MapCanvas
	sidePanel *panels.SidePanel
	statusBar *widget.Label
	watcher   *app.MapWatcher
	store     coursestore.Store
}

// New creates a new main window. store may be nil, which disables the
// course store menu items.
func New(fyneApp fyne.App, state *app.State, store coursestore.Store, log zerolog.Logger) *MainWindow {
	win := fyneApp.NewWindow(appTitle)

	mw := &MainWindow{
		Window: win,
		app:    fyneApp,
		state:  state,
		store:  store,
		log:    log.With().Str("component", "window").Logger(),
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupEventHandlers()
	mw.SetOnClosed(mw.stopWatching)

	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	mw.canvas = canvas.NewMapCanvas(mw.state, mw.log)
	mw.canvas.OnError(func(err error) { mw.updateStatus(err.Error()) })
	mw.canvas.OnHover(mw.onHover)

	mw.sidePanel = panels.NewSidePanel(mw.state)
	mw.sidePanel.SetWindow(mw.Window)

	mw.statusBar = widget.NewLabel("Ready")

	canvasArea := container.NewBorder(
		mw.createToolbar(), // top
		nil,                // bottom
		nil,                // left
		nil,                // right
		mw.canvas,          // center
	)

	split := container.NewHSplit(mw.sidePanel.Container(), canvasArea)
	split.SetOffset(0.25)

	content := container.NewBorder(
		nil,                               // top
		container.NewPadded(mw.statusBar), // bottom
		nil,                               // left
		nil,                               // right
		split,                             // center
	)

	mw.SetContent(content)
}

// createToolbar creates the toolbar with zoom controls.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	return container.NewHBox(
		widget.NewLabel("Zoom:"),
		widget.NewButton("-", mw.state.ZoomOut),
		widget.NewButton("+", mw.state.ZoomIn),
		widget.NewButton("Reset", mw.state.ResetView),
	)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Project...", mw.onOpenProject),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Import Map...", mw.onImportMap),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Save Project", mw.onSaveProject),
		fyne.NewMenuItem("Save Project As...", mw.onSaveProjectAs),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export Processing Job...", func() { mw.exportJob(nil) }),
		fyne.NewMenuItem("Export Visible Area Job...", func() { mw.exportJob(mw.state.VisibleROI()) }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Store Courses", mw.onStoreCourses),
		fyne.NewMenuItem("Restore Stored Courses", mw.onRestoreCourses),
	)

	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Undo", mw.state.Undo),
		fyne.NewMenuItem("Close Area", func() {
			if err := mw.state.CommitArea(); err != nil {
				mw.updateStatus(err.Error())
			}
		}),
	)

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", mw.state.ZoomIn),
		fyne.NewMenuItem("Zoom Out", mw.state.ZoomOut),
		fyne.NewMenuItem("Reset View", mw.state.ResetView),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, viewMenu, helpMenu))
}

// setupEventHandlers registers for application events.
func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventProjectLoaded, func(data any) {
		if path, ok := data.(string); ok {
			mw.SetTitle(appTitle + " - " + filepath.Base(path))
			mw.updateStatus("Project loaded: " + path)
			mw.watchMap()
		}
	})

	mw.state.On(app.EventProjectSaved, func(data any) {
		if path, ok := data.(string); ok {
			mw.SetTitle(appTitle + " - " + filepath.Base(path))
			mw.updateStatus("Project saved: " + path)
		}
	})

	mw.state.On(app.EventMapLoaded, func(data any) {
		if r, ok := data.(*mapimage.Raster); ok {
			mw.updateStatus(fmt.Sprintf("Map loaded: %s (%d × %d)", filepath.Base(r.Path), r.Width(), r.Height()))
		}
	})

	mw.state.On(app.EventModified, func(data any) {
		if modified, ok := data.(bool); ok && modified {
			title := mw.Title()
			if len(title) > 0 && title[len(title)-1] != '*' {
				mw.SetTitle(title + " *")
			}
		}
	})
}

func (mw *MainWindow) onHover(info app.HoverInfo, onMap bool) {
	if !onMap {
		return
	}
	text := fmt.Sprintf("%.0f, %.0f px (%.1f%%, %.1f%%)", info.Image.X, info.Image.Y, info.Percent.X, info.Percent.Y)
	if info.Area >= 0 {
		text += fmt.Sprintf(" in impassable area %d", info.Area+1)
	}
	mw.updateStatus(text)
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

// getLastDir returns the last used directory as a ListableURI, or nil.
func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.app.Preferences().String(prefKeyLastDir)
	if path == "" {
		return nil
	}
	listable, err := storage.ListerForURI(storage.NewFileURI(path))
	if err != nil {
		return nil
	}
	return listable
}

// saveLastDir saves the directory of the given file path.
func (mw *MainWindow) saveLastDir(filePath string) {
	mw.app.Preferences().SetString(prefKeyLastDir, filepath.Dir(filePath))
}

// RestoreLastMap loads the previously used map when no project was given.
func (mw *MainWindow) RestoreLastMap() {
	path := mw.app.Preferences().String(prefKeyLastMap)
	if path == "" {
		return
	}
	if err := mw.state.LoadMap(path); err != nil {
		mw.log.Warn().Err(err).Str("path", path).Msg("could not restore last map")
		return
	}
	mw.state.SetModified(false)
	mw.watchMap()
}

// watchMap reloads the map when it is re-exported while the editor runs.
func (mw *MainWindow) watchMap() {
	mw.stopWatching()
	w, err := mw.state.WatchMap(500 * time.Millisecond)
	if err != nil {
		mw.log.Debug().Err(err).Msg("map not watched")
		return
	}
	mw.watcher = w
}

func (mw *MainWindow) stopWatching() {
	if mw.watcher != nil {
		_ = mw.watcher.Stop()
		mw.watcher = nil
	}
}

// Menu action handlers

func (mw *MainWindow) onOpenProject() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)
		if err := mw.state.LoadProject(path); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{project.Extension}))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onImportMap() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)

		if err := mw.state.LoadMap(path); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.app.Preferences().SetString(prefKeyLastMap, path)
		mw.watchMap()
	}, mw.Window)

	fd.SetFilter(storage.NewExtensionFileFilter(mapimage.SupportedFormats()))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onSaveProject() {
	if mw.state.ProjectPath == "" {
		mw.onSaveProjectAs()
		return
	}
	if err := mw.state.SaveProject(mw.state.ProjectPath); err != nil {
		dialog.ShowError(err, mw.Window)
	}
}

func (mw *MainWindow) onSaveProjectAs() {
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()
		if filepath.Ext(path) != project.Extension {
			path += project.Extension
		}
		mw.saveLastDir(path)
		if err := mw.state.SaveProject(path); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
	fd.SetFileName("event" + project.Extension)
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

// exportJob writes the processor job. A nil roi submits the whole map.
func (mw *MainWindow) exportJob(roi []geometry.ImagePoint) {
	job, err := mw.state.JobPayload(mw.state.EventID(), roi)
	if err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	body, err := job.Encode()
	if err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}

	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		defer writer.Close()
		if _, err := writer.Write(body); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.updateStatus(fmt.Sprintf("Job exported: %d areas, %d lines", len(job.Areas), len(job.Lines)))
	}, mw.Window)
	fd.SetFileName("job.json")
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onStoreCourses() {
	if mw.store == nil {
		dialog.ShowInformation("Course Store", "No course store is configured.", mw.Window)
		return
	}
	courses := mw.state.Courses()
	if err := mw.store.SaveCourses(context.Background(), mw.state.EventID(), courses); err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	mw.updateStatus(fmt.Sprintf("Stored %d courses for event %s", len(courses), mw.state.EventID()))
}

func (mw *MainWindow) onRestoreCourses() {
	if mw.store == nil {
		dialog.ShowInformation("Course Store", "No course store is configured.", mw.Window)
		return
	}
	courses, err := mw.store.LoadCourses(context.Background(), mw.state.EventID())
	if err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	dialog.ShowConfirm("Restore Courses",
		fmt.Sprintf("Replace the current courses with %d stored courses?", len(courses)),
		func(ok bool) {
			if ok {
				mw.state.SetCourses(courses)
			}
		}, mw.Window)
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About "+appTitle,
		fmt.Sprintf("%s v%s\n\n"+
			"Marks impassable terrain and sets courses on orienteering maps.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			appTitle, version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}

// LoadFromArgs opens a project or map given on the command line.
func (mw *MainWindow) LoadFromArgs(path string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}
	if filepath.Ext(path) == project.Extension {
		return mw.state.LoadProject(path)
	}
	if !mapimage.IsSupportedFormat(path) {
		return fmt.Errorf("unsupported file %s", filepath.Base(path))
	}
	if err := mw.state.LoadMap(path); err != nil {
		return err
	}
	mw.watchMap()
	return nil
}
