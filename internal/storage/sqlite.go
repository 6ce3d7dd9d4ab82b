package storage

import (
	"context"
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"orienteer-map/internal/course"
)

// SQLiteStore keeps courses in a local SQLite file.
type SQLiteStore struct {
	db     *gorm.DB
	path   string
	logger zerolog.Logger
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (creating if needed) the course database at path and
// migrates its schema.
func OpenSQLite(path string, log zerolog.Logger) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open course store: %w", err)
	}

	pragmas := []string{
		"PRAGMA user_version = 1;",
		"PRAGMA foreign_keys = ON;",
		"PRAGMA journal_mode = WAL;",
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			closeDB(db)
			return nil, fmt.Errorf("error setting PRAGMA: %w", err)
		}
	}

	if err := db.AutoMigrate(DatabaseModels...); err != nil {
		closeDB(db)
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	log.Info().Str("path", path).Msg("course store ready")
	return &SQLiteStore{db: db, path: path, logger: log}, nil
}

// closeDB releases a connection pool that never became a store.
func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// Path returns the database file.
func (s *SQLiteStore) Path() string {
	return s.path
}

// SaveCourses replaces the stored courses of an event in one transaction.
func (s *SQLiteStore) SaveCourses(ctx context.Context, eventID string, courses []course.Course) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", eventID).Delete(&ControlRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Where("event_id = ?", eventID).Delete(&CourseRecord{}).Error; err != nil {
			return err
		}
		for i, c := range courses {
			rec := toRecord(c, eventID, i)
			if err := tx.Create(&rec).Error; err != nil {
				return fmt.Errorf("course %s: %w", c.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error().Err(err).Str("event", eventID).Msg("saving courses failed")
		return fmt.Errorf("failed to save courses: %w", err)
	}

	s.logger.Debug().Str("event", eventID).Int("courses", len(courses)).Msg("courses saved")
	return nil
}

// LoadCourses returns the stored courses of an event in the order they were saved.
func (s *SQLiteStore) LoadCourses(ctx context.Context, eventID string) ([]course.Course, error) {
	var records []CourseRecord
	err := s.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("position").
		Preload("Controls", func(db *gorm.DB) *gorm.DB { return db.Order("seq") }).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load courses: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
	}

	out := make([]course.Course, 0, len(records))
	for _, rec := range records {
		c, err := fromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("failed to load course %s: %w", rec.ID, err)
		}
		out = append(out, c)
	}
	return out, nil
}

// Events returns the IDs of every event with stored courses.
func (s *SQLiteStore) Events(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&CourseRecord{}).
		Distinct("event_id").
		Order("event_id").
		Pluck("event_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return ids, nil
}

// Close releases the database.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
