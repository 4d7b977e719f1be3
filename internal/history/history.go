package history

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Session is one connection attempt, open until EndedAt is set.
type Session struct {
	ID        uint   `gorm:"primaryKey"`
	Profile   string `gorm:"index"`
	Mode      string
	StartedAt time.Time
	EndedAt   *time.Time
	Error     string
}

// Recorder persists connection events. A nil Recorder is a no-op so the
// manager stays usable without a database.
type Recorder struct {
	db *gorm.DB
}

func Open(path string) (*Recorder, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Error),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if err := db.AutoMigrate(&Session{}); err != nil {
		return nil, fmt.Errorf("failed to migrate history schema: %w", err)
	}
	return &Recorder{db: db}, nil
}

// Started records a new session and returns its id.
func (r *Recorder) Started(profileName, mode string) uint {
	if r == nil {
		return 0
	}
	s := Session{Profile: profileName, Mode: mode, StartedAt: time.Now()}
	r.db.Create(&s)
	return s.ID
}

// Ended closes a session, recording the failure text if any.
func (r *Recorder) Ended(id uint, errText string) {
	if r == nil || id == 0 {
		return
	}
	now := time.Now()
	r.db.Model(&Session{}).Where("id = ?", id).
		Updates(map[string]any{"ended_at": &now, "error": errText})
}

// Recent returns the latest sessions, newest first.
func (r *Recorder) Recent(limit int) ([]Session, error) {
	if r == nil {
		return nil, nil
	}
	var sessions []Session
	res := r.db.Order("started_at desc").Limit(limit).Find(&sessions)
	return sessions, res.Error
}
