package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/prorabapp/prorab-data/internal/migrate"
	"github.com/prorabapp/prorab-data/internal/models"
	"github.com/prorabapp/prorab-data/internal/projection"
	"github.com/prorabapp/prorab-data/internal/reconcile"
	"github.com/prorabapp/prorab-data/internal/store"
	"gorm.io/gorm"
)

// ErrValidation marks input rejected before any mutation.
var ErrValidation = errors.New("invalid input")

// PrivateCollections are the per-user namespaces addressable through the
// generic collection endpoints. Projects have their own path because loading
// them runs migration, reconciliation and the projection rebuild.
var PrivateCollections = map[string]bool{
	"directory":       true,
	"profile":         true,
	"templates":       true,
	"inventory":       true,
	"inventory_notes": true,
}

// LoadProjects reads a user's project collection and runs the full load
// pipeline: shape migration, reconciliation against the global projection
// (client comments, approval timestamps), persisting the corrected
// collection iff anything changed, then a full projection rebuild.
func LoadProjects(db *gorm.DB, userKey string) ([]models.Project, uint64, error) {
	s := store.New(db)
	namespace := store.ProjectsKey(userKey)

	var projects []models.Project
	version, err := s.Get(namespace, &projects)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, 0, err
	}

	migrated := migrate.Projects(projects)

	var global []models.Project
	if _, err := s.Get(store.GlobalProjects, &global); err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, 0, err
	}
	synced := reconcile.SyncProjects(projects, global)

	if migrated || synced {
		if version, err = s.Set(namespace, projects); err != nil {
			return nil, 0, err
		}
	}

	if err := projection.Rebuild(s); err != nil {
		return nil, 0, err
	}

	if projects == nil {
		projects = []models.Project{}
	}
	return projects, version, nil
}

// SaveProjects replaces a user's project collection under an optimistic
// version check, then rebuilds the global projection with the new data
// dominant and auto-populates the price directory from estimate lines.
func SaveProjects(db *gorm.DB, userKey string, version uint64, projects []models.Project) (uint64, error) {
	if err := validateProjects(projects); err != nil {
		return 0, err
	}

	s := store.New(db)
	newVersion, err := s.SetChecked(store.ProjectsKey(userKey), version, projects)
	if err != nil {
		return 0, err
	}

	if err := projection.RebuildFor(s, userKey, projects); err != nil {
		return 0, err
	}

	if err := syncDirectory(s, userKey, projects); err != nil {
		return 0, err
	}

	return newVersion, nil
}

func validateProjects(projects []models.Project) error {
	for _, p := range projects {
		if p.ID == "" || strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("%w: project id and name are required", ErrValidation)
		}
		if p.Status != models.StatusActive && p.Status != models.StatusCompleted {
			return fmt.Errorf("%w: project %s has unknown status %q", ErrValidation, p.ID, p.Status)
		}
	}
	return nil
}

// syncDirectory appends estimate lines whose name is not yet in the user's
// price directory, matched case-insensitively.
func syncDirectory(s *store.Store, userKey string, projects []models.Project) error {
	namespace := store.CollectionKey("directory", userKey)

	var directory []models.DirectoryItem
	if _, err := s.Get(namespace, &directory); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}

	known := make(map[string]struct{}, len(directory))
	for _, d := range directory {
		known[strings.ToLower(d.Name)] = struct{}{}
	}

	changed := false
	for _, p := range projects {
		for _, e := range p.Estimates {
			for _, item := range e.Items {
				name := strings.TrimSpace(item.Name)
				if name == "" {
					continue
				}
				key := strings.ToLower(name)
				if _, ok := known[key]; ok {
					continue
				}
				known[key] = struct{}{}
				directory = append(directory, models.DirectoryItem{
					ID:    uuid.NewString(),
					Name:  name,
					Kind:  item.Kind,
					Unit:  item.Unit,
					Price: item.Price,
				})
				changed = true
			}
		}
	}

	if !changed {
		return nil
	}
	_, err := s.Set(namespace, directory)
	return err
}

// LoadDirectory reads the user's price directory, backfilling missing record
// identifiers and persisting the corrected collection iff anything changed.
func LoadDirectory(db *gorm.DB, userKey string) ([]models.DirectoryItem, uint64, error) {
	s := store.New(db)
	namespace := store.CollectionKey("directory", userKey)

	var items []models.DirectoryItem
	version, err := s.Get(namespace, &items)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return []models.DirectoryItem{}, 0, nil
		}
		return nil, 0, err
	}

	if migrate.Directory(items) {
		if version, err = s.Set(namespace, items); err != nil {
			return nil, 0, err
		}
	}

	return items, version, nil
}

// LoadCollection reads a generic per-user collection as a raw JSON blob.
func LoadCollection(db *gorm.DB, userKey, collection string) (json.RawMessage, uint64, error) {
	s := store.New(db)
	var raw json.RawMessage
	version, err := s.Get(store.CollectionKey(collection, userKey), &raw)
	if err != nil {
		return nil, 0, err
	}
	return raw, version, nil
}

// SaveCollection replaces a generic per-user collection under an optimistic
// version check.
func SaveCollection(db *gorm.DB, userKey, collection string, version uint64, data json.RawMessage) (uint64, error) {
	if len(data) == 0 || !json.Valid(data) {
		return 0, fmt.Errorf("%w: data must be valid JSON", ErrValidation)
	}
	s := store.New(db)
	return s.SetChecked(store.CollectionKey(collection, userKey), version, data)
}

// DeleteCollection removes a generic per-user collection wholesale.
func DeleteCollection(db *gorm.DB, userKey, collection string) (int64, error) {
	s := store.New(db)
	return s.Delete(store.CollectionKey(collection, userKey))
}

// ApplyTemplate appends an estimate template's line blueprints to an
// estimate as fresh-id items at quantity 1, under the projects version
// check, and returns the updated collection.
func ApplyTemplate(db *gorm.DB, userKey, projectID, estimateID, templateID string, version uint64) ([]models.Project, uint64, error) {
	s := store.New(db)
	namespace := store.ProjectsKey(userKey)

	var projects []models.Project
	if _, err := s.Get(namespace, &projects); err != nil {
		return nil, 0, err
	}

	var estimate *models.Estimate
	for i := range projects {
		if projects[i].ID != projectID {
			continue
		}
		estimate = projects[i].FindEstimate(estimateID)
		break
	}
	if estimate == nil {
		return nil, 0, store.ErrNotFound
	}

	var templates []models.EstimateTemplate
	if _, err := s.Get(store.CollectionKey("templates", userKey), &templates); err != nil {
		return nil, 0, err
	}

	var template *models.EstimateTemplate
	for i := range templates {
		if templates[i].ID == templateID {
			template = &templates[i]
			break
		}
	}
	if template == nil {
		return nil, 0, store.ErrNotFound
	}

	for _, line := range template.Items {
		estimate.Items = append(estimate.Items, models.EstimateItem{
			ID:       uuid.NewString(),
			Name:     line.Name,
			Kind:     line.Kind,
			Unit:     line.Unit,
			Quantity: 1,
			Price:    line.Price,
		})
	}

	newVersion, err := s.SetChecked(namespace, version, projects)
	if err != nil {
		return nil, 0, err
	}
	if err := projection.RebuildFor(s, userKey, projects); err != nil {
		return nil, 0, err
	}

	return projects, newVersion, nil
}

// RebuildProjection recomputes the global projection from every stored
// per-user collection. Exposed for operational full rebuilds.
func RebuildProjection(db *gorm.DB) error {
	return projection.Rebuild(store.New(db))
}
