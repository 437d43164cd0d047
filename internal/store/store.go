package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/prorabapp/prorab-data/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"gorm.io/hints"
)

// ErrNotFound is returned when a namespace has never been written.
var ErrNotFound = errors.New("not found")

// ErrVersion is returned by SetChecked on an optimistic version mismatch.
// The message keeps the E_VERSION prefix the error handler maps to 409.
var ErrVersion = errors.New("E_VERSION - Refresh and reconcile with current version and retry")

// GlobalProjects is the namespace of the denormalized all-users projection.
const GlobalProjects = "projects:all"

// ProjectsPrefix is the shared prefix of every projects namespace,
// including GlobalProjects.
const ProjectsPrefix = "projects:"

// ProjectsKey returns the projects namespace for a user.
func ProjectsKey(userKey string) string { return ProjectsPrefix + userKey }

// CollectionKey returns the namespace for a named per-user collection
// (directory, profile, templates, inventory, inventory_notes).
func CollectionKey(collection, userKey string) string {
	return collection + ":" + userKey
}

// Store reads and writes whole JSON collections under string namespaces.
type Store struct {
	db *gorm.DB
}

// New wraps a GORM connection in a namespace store.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Get unmarshals the namespace blob into out and returns the stored version.
func (s *Store) Get(namespace string, out interface{}) (uint64, error) {
	var entry models.StoreEntry
	err := s.db.Session(&gorm.Session{Logger: s.db.Logger.LogMode(logger.Silent)}).
		Where("namespace = ?", namespace).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNotFound
		}
		return 0, err
	}

	if len(entry.Value.JSON) > 0 {
		if err := json.Unmarshal(entry.Value.JSON, out); err != nil {
			return 0, fmt.Errorf("namespace %s holds invalid JSON: %w", namespace, err)
		}
	}

	return entry.Version, nil
}

// Version returns the stored version of a namespace, 0 when absent.
func (s *Store) Version(namespace string) (uint64, error) {
	var entry models.StoreEntry
	err := s.db.Session(&gorm.Session{Logger: s.db.Logger.LogMode(logger.Silent)}).
		Select("version").
		Where("namespace = ?", namespace).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return entry.Version, nil
}

// Set overwrites the namespace blob unconditionally, last writer wins,
// and bumps the version.
func (s *Store) Set(namespace string, value interface{}) (uint64, error) {
	return s.write(namespace, value, nil)
}

// SetChecked overwrites the namespace blob only when the stored version
// matches expected (0 for a namespace that does not exist yet). Returns
// ErrVersion on mismatch.
func (s *Store) SetChecked(namespace string, expected uint64, value interface{}) (uint64, error) {
	return s.write(namespace, value, &expected)
}

func (s *Store) write(namespace string, value interface{}, expected *uint64) (uint64, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return 0, err
	}

	var newVersion uint64

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var entry models.StoreEntry
		err := tx.Session(&gorm.Session{Logger: tx.Logger.LogMode(logger.Silent)}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("namespace = ?", namespace).
			First(&entry).Error

		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if expected != nil && *expected != 0 {
				return ErrVersion
			}
			entry = models.StoreEntry{
				Namespace: namespace,
				Value:     models.JSON{JSON: datatypes.JSON(raw)},
				Version:   1,
			}
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}
			newVersion = 1
			return nil
		}

		if expected != nil && entry.Version != *expected {
			return ErrVersion
		}

		newVersion = entry.Version + 1
		result := tx.Model(&entry).
			Where("version = ?", entry.Version).
			Updates(map[string]interface{}{
				"value":   models.JSON{JSON: datatypes.JSON(raw)},
				"version": newVersion,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrVersion
		}
		return nil
	})

	return newVersion, err
}

// Delete removes a namespace. Returns the number of rows removed.
func (s *Store) Delete(namespace string) (int64, error) {
	result := s.db.Where("namespace = ?", namespace).Delete(&models.StoreEntry{})
	return result.RowsAffected, result.Error
}

// Keys lists all namespaces with the given prefix in lexicographic order.
func (s *Store) Keys(prefix string) ([]string, error) {
	var namespaces []string
	err := s.db.Model(&models.StoreEntry{}).
		Clauses(hints.CommentBefore("select", "namespace scan")).
		Where("namespace LIKE ?", prefix+"%").
		Order("namespace").
		Pluck("namespace", &namespaces).Error
	return namespaces, err
}
