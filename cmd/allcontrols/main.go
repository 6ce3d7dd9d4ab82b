// Command allcontrols rebuilds the all-controls course of an event and
// prints it as JSON.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"orienteer-map/internal/config"
	"orienteer-map/internal/course"
	"orienteer-map/internal/logging"
	"orienteer-map/internal/project"
	"orienteer-map/internal/route"
	"orienteer-map/internal/storage"
)

func main() {
	projectPath := flag.String("project", "", "Path to an event project (.omproj)")
	dbPath := flag.String("db", "", "Path to the course store (default from config)")
	eventID := flag.String("event", "", "Event ID to read from the course store")
	list := flag.Bool("list", false, "List events in the course store and exit")
	store := flag.Bool("store", false, "Write the rebuilt course back to the course store")
	configDir := flag.String("config", ".", "Directory containing orienteer-map.json")
	flag.Parse()

	cfg, err := config.Load(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Console: true})
	log := logging.With("allcontrols")

	if *dbPath == "" {
		*dbPath = cfg.Storage.Path
	}

	ctx := context.Background()
	var courses []course.Course
	var db *storage.SQLiteStore
	defer func() {
		if db != nil {
			db.Close()
		}
	}()

	openDB := func() {
		if db != nil {
			return
		}
		db, err = storage.OpenSQLite(*dbPath, logging.With("storage"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open course store: %v\n", err)
			os.Exit(1)
		}
	}

	switch {
	case *list:
		openDB()
		events, err := db.Events(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		for _, id := range events {
			fmt.Println(id)
		}
		return

	case *projectPath != "":
		proj, err := project.Load(*projectPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load project: %v\n", err)
			os.Exit(1)
		}
		*eventID = proj.EventID
		courses = proj.UserCourses()

	case *eventID != "":
		openDB()
		stored, err := db.LoadCourses(ctx, *eventID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		for _, c := range stored {
			if !c.IsAggregate() {
				courses = append(courses, c)
			}
		}

	default:
		fmt.Println("Usage: allcontrols -project <file.omproj> | -event <id> [-db courses.db] [-store]")
		fmt.Println("       allcontrols -list [-db courses.db]")
		os.Exit(1)
	}

	agg := route.BuildAggregateCourse(*eventID, courses)
	log.Info().Str("event", *eventID).Int("courses", len(courses)).Int("controls", len(agg.Controls)).Msg("aggregate rebuilt")

	if *store {
		openDB()
		if err := db.SaveCourses(ctx, *eventID, append(courses, agg)); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		log.Info().Str("db", db.Path()).Msg("stored")
	}

	out, err := json.MarshalIndent(agg, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode course: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
