// Package store persists match outcomes to a local SQLite file.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Jvsin/tank-agent-ai/model"
)

// MatchResult is one row per vehicle lifecycle notice: a destruction or the
// end of the match.
type MatchResult struct {
	ID          uint      `json:"id" gorm:"primarykey;autoIncrement"`
	Session     uuid.UUID `json:"session" gorm:"type:text;index"`
	TankID      string    `json:"tankId" gorm:"size:64;index"`
	Team        int       `json:"team"`
	Name        string    `json:"name" gorm:"size:64"`
	Destroyed   bool      `json:"destroyed"`
	Finished    bool      `json:"finished"`
	DamageDealt float64   `json:"damageDealt"`
	TanksKilled int       `json:"tanksKilled"`
	Ticks       int       `json:"ticks"`
	StuckCount  int       `json:"stuckCount"`
	ShotsFired  int       `json:"shotsFired"`
	RecordedAt  time.Time `json:"recordedAt" gorm:"index"`
}

func (MatchResult) TableName() string {
	return "match_results"
}

type Store struct {
	db *gorm.DB
}

// Open opens (or creates) the database at path and migrates the schema. An
// empty path uses a private in-memory database.
func Open(path string) (*Store, error) {
	dsn := path
	if dsn == "" {
		dsn = "file::memory:"
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	if err := db.AutoMigrate(&MatchResult{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// RecordOutcome inserts o. The session must be a UUID.
func (s *Store) RecordOutcome(ctx context.Context, o model.MatchOutcome) error {
	session, err := uuid.Parse(o.Session)
	if err != nil {
		return fmt.Errorf("session id %q: %w", o.Session, err)
	}
	row := MatchResult{
		Session:     session,
		TankID:      o.TankID,
		Team:        o.Team,
		Name:        o.Name,
		Destroyed:   o.Destroyed,
		Finished:    o.Finished,
		DamageDealt: o.DamageDealt,
		TanksKilled: o.TanksKilled,
		Ticks:       o.Ticks,
		StuckCount:  o.StuckCount,
		ShotsFired:  o.ShotsFired,
		RecordedAt:  o.RecordedAt,
	}
	if row.RecordedAt.IsZero() {
		row.RecordedAt = time.Now()
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert match result: %w", err)
	}
	return nil
}

// Results returns the rows of one tank, oldest first.
func (s *Store) Results(ctx context.Context, tankID string) ([]MatchResult, error) {
	var rows []MatchResult
	err := s.db.WithContext(ctx).
		Where("tank_id = ?", tankID).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query match results: %w", err)
	}
	return rows, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
