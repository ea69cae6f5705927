package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/clickreserve/click/internal/domain"
)

// storedSession is one row per namespace
type storedSession struct {
	Namespace string    `gorm:"primaryKey;type:varchar(16)"`
	Token     string    `gorm:"not null"`
	Profile   string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (storedSession) TableName() string {
	return "sessions"
}

// SQLiteStore persists sessions in a local SQLite file. Useful on hosts
// without a keychain (CI runners, containers).
type SQLiteStore struct {
	db *gorm.DB
	ns Namespace
}

// OpenSQLiteStore opens (and migrates) the database at path
func OpenSQLiteStore(path string, ns Namespace) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite session backend requires a path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create session directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	// a single connection keeps ":memory:" databases shared and avoids lock contention
	sqlDB.SetMaxOpenConns(1)

	if err := db.Exec("PRAGMA busy_timeout=5000").Error; err != nil {
		return nil, fmt.Errorf("failed to apply pragma: %w", err)
	}

	return NewSQLiteStore(db, ns)
}

// NewSQLiteStore wraps an existing database handle
func NewSQLiteStore(db *gorm.DB, ns Namespace) (*SQLiteStore, error) {
	if err := db.AutoMigrate(&storedSession{}); err != nil {
		return nil, fmt.Errorf("failed to migrate session table: %w", err)
	}
	return &SQLiteStore{db: db, ns: ns}, nil
}

func (s *SQLiteStore) Get() (*Session, error) {
	var row storedSession
	err := s.db.Where("namespace = ?", string(s.ns)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var user domain.UserProfile
	if err := json.Unmarshal([]byte(row.Profile), &user); err != nil {
		return nil, fmt.Errorf("failed to parse stored profile: %w", err)
	}
	return &Session{Token: row.Token, User: &user}, nil
}

func (s *SQLiteStore) Set(sess *Session) error {
	if err := validate(sess); err != nil {
		return err
	}

	data, err := json.Marshal(sess.User)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	row := storedSession{
		Namespace: string(s.ns),
		Token:     sess.Token,
		Profile:   string(data),
	}
	if err := s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Clear() error {
	if err := s.db.Where("namespace = ?", string(s.ns)).Delete(&storedSession{}).Error; err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
