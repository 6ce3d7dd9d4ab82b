// Package main provides the entry point for the Orienteer Map editor.
package main

import (
	"flag"
	"fmt"
	"os"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"

	"orienteer-map/internal/app"
	"orienteer-map/internal/config"
	"orienteer-map/internal/logging"
	"orienteer-map/internal/storage"
	"orienteer-map/internal/version"
	"orienteer-map/ui/mainwindow"
)

const appID = "org.orienteer.mapeditor"

func main() {
	configDir := flag.String("config", ".", "Directory containing orienteer-map.json")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	cfg, err := config.Load(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logging.Init(logging.Config{Level: cfg.LogLevel, Console: cfg.LogConsole})
	log.Info().Str("version", version.String()).Msg("starting")

	var store storage.Store
	if cfg.Storage.Path != "" {
		s, err := storage.OpenSQLite(cfg.Storage.Path, logging.With("storage"))
		if err != nil {
			log.Warn().Err(err).Msg("course store unavailable")
		} else {
			defer s.Close()
			store = s
		}
	}

	fyneApp := fyneapp.NewWithID(appID)
	fyneApp.Settings().SetTheme(&app.MapTheme{})

	state := app.NewState(app.Options{
		SnapDistance:     cfg.SnapDistance,
		ClosingTolerance: cfg.ClosingTolerance,
		MapScale:         cfg.MapScale,
		Logger:           logging.Logger(),
	})

	win := mainwindow.New(fyneApp, state, store, logging.Logger())
	win.Resize(fyne.NewSize(cfg.Window.Width, cfg.Window.Height))

	// Handle command line arguments
	if flag.NArg() > 0 {
		path := flag.Arg(0)
		if err := win.LoadFromArgs(path); err != nil {
			log.Error().Err(err).Str("path", path).Msg("failed to open")
		}
	} else {
		win.RestoreLastMap()
	}

	win.ShowAndRun()
}
