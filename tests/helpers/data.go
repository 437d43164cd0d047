package helpers

import (
	"testing"

	"github.com/prorabapp/prorab-data/internal/models"
	"github.com/prorabapp/prorab-data/internal/store"
	"gorm.io/gorm"
)

// SeedProjects writes a projects collection for a user
func SeedProjects(t *testing.T, db *gorm.DB, userKey string, projects []models.Project) uint64 {
	t.Helper()
	version, err := store.New(db).Set(store.ProjectsKey(userKey), projects)
	if err != nil {
		t.Fatalf("Failed to seed projects for %s: %v", userKey, err)
	}
	return version
}

// SeedProjection writes the global projection directly
func SeedProjection(t *testing.T, db *gorm.DB, projects []models.Project) {
	t.Helper()
	if _, err := store.New(db).Set(store.GlobalProjects, projects); err != nil {
		t.Fatalf("Failed to seed projection: %v", err)
	}
}

// SampleProject builds a project with one estimate and one priced line
func SampleProject(projectID, estimateID, itemID string) models.Project {
	return models.Project{
		ID:        projectID,
		Name:      "Дом на Лесной",
		Status:    models.StatusActive,
		CreatedAt: 1700000000000,
		Estimates: []models.Estimate{{
			ID:   estimateID,
			Name: "Основная смета",
			Items: []models.EstimateItem{{
				ID:       itemID,
				Name:     "Штукатурка стен",
				Kind:     "work",
				Unit:     "м2",
				Quantity: 40,
				Price:    500,
			}},
		}},
	}
}
