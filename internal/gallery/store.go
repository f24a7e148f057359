// Package gallery persists a finalized enrollment gallery in SQLite.
package gallery

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite" // pure Go
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	// ErrNotFinalized is returned when a gallery has no metadata row.
	ErrNotFinalized = errors.New("gallery has not been finalized")
	// ErrReadOnly is returned by writes on a store opened with OpenReadOnly.
	ErrReadOnly = errors.New("gallery is opened read-only")
)

// Meta describes the gallery as a whole. There is exactly one row.
type Meta struct {
	ID          uint   `gorm:"primaryKey"`
	GalleryType string `gorm:"not null"`
	APIMajor    int
	APIMinor    int
	Entries     int
	Blank       int
	Source      datatypes.JSON // names of the EDB and manifest it was built from
	FinalizedAt time.Time
}

// Entry is one enrolled template, copied out of the EDB.
type Entry struct {
	ID         uint   `gorm:"primaryKey"`
	Position   int    `gorm:"uniqueIndex;not null"` // order in the manifest
	TemplateID string `gorm:"index;not null"`
	Size       uint64
	Blank      bool
	Payload    []byte
	Header     datatypes.JSON // implementation-defined summary of the payload
}

// Store wraps the gallery database.
type Store struct {
	db       *gorm.DB
	path     string
	readOnly bool
}

func newGormLogger() logger.Interface {
	return logger.New(
		log.StandardLogger(),
		logger.Config{
			SlowThreshold:             2 * time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// Create makes a new, empty gallery at path. An existing file is replaced.
func Create(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create gallery directory: %w", err)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to remove stale gallery: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: newGormLogger()})
	if err != nil {
		return nil, fmt.Errorf("gallery connection failed: %w", err)
	}
	if err := db.AutoMigrate(&Meta{}, &Entry{}); err != nil {
		closeDB(db)
		return nil, fmt.Errorf("gallery migration failed: %w", err)
	}
	log.Debugf("Created gallery database %s", path)
	return &Store{db: db, path: path}, nil
}

// OpenReadOnly opens an existing gallery without write access. Many
// processes may do this concurrently.
func OpenReadOnly(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("gallery not found: %w", err)
	}
	dsn := path + "?_pragma=query_only(1)&_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: newGormLogger()})
	if err != nil {
		return nil, fmt.Errorf("gallery connection failed: %w", err)
	}
	return &Store{db: db, path: path, readOnly: true}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SaveMeta writes the metadata row.
func (s *Store) SaveMeta(m *Meta) error {
	if s.readOnly {
		return ErrReadOnly
	}
	m.ID = 1
	return s.db.Save(m).Error
}

// Meta reads the metadata row.
func (s *Store) Meta() (*Meta, error) {
	var m Meta
	if err := s.db.First(&m, 1).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFinalized
		}
		return nil, err
	}
	return &m, nil
}

// AddEntries inserts entries in one transaction.
func (s *Store) AddEntries(entries []Entry) error {
	if s.readOnly {
		return ErrReadOnly
	}
	if len(entries) == 0 {
		return nil
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(entries, 500).Error
	})
}

// Entries returns all entries in manifest order.
func (s *Store) Entries() ([]Entry, error) {
	var entries []Entry
	if err := s.db.Order("position ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// FindByTemplateID returns the entries enrolled under templateID.
func (s *Store) FindByTemplateID(templateID string) ([]Entry, error) {
	var entries []Entry
	if err := s.db.Where("template_id = ?", templateID).Order("position ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// Count returns the number of entries.
func (s *Store) Count() (int64, error) {
	var n int64
	err := s.db.Model(&Entry{}).Count(&n).Error
	return n, err
}

// Close releases the database.
func (s *Store) Close() error {
	return closeDB(s.db)
}

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
