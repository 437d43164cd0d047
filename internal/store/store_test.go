package store

import (
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/prorabapp/prorab-data/internal/models"
	"gorm.io/gorm"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	if err := db.AutoMigrate(&models.StoreEntry{}); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

func TestGetMissingNamespace(t *testing.T) {
	s := New(setupTestDB(t))

	var out []string
	_, err := s.Get("projects:nobody", &out)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSetGetRoundtrip(t *testing.T) {
	s := New(setupTestDB(t))

	in := []models.Project{{ID: "p1", Name: "Дом", Status: models.StatusActive}}
	version, err := s.Set("projects:user@test", in)
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if version != 1 {
		t.Errorf("Expected version 1, got %d", version)
	}

	var out []models.Project
	gotVersion, err := s.Get("projects:user@test", &out)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if gotVersion != 1 {
		t.Errorf("Expected version 1, got %d", gotVersion)
	}
	if len(out) != 1 || out[0].ID != "p1" {
		t.Errorf("Unexpected roundtrip result: %+v", out)
	}
}

func TestSetBumpsVersion(t *testing.T) {
	s := New(setupTestDB(t))

	if _, err := s.Set("profile:user@test", models.Profile{Name: "ИП Иванов"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	version, err := s.Set("profile:user@test", models.Profile{Name: "ООО Иванов"})
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if version != 2 {
		t.Errorf("Expected version 2, got %d", version)
	}
}

func TestSetCheckedConflict(t *testing.T) {
	s := New(setupTestDB(t))

	if _, err := s.Set("projects:user@test", []string{"a"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// Stale expected version
	if _, err := s.SetChecked("projects:user@test", 5, []string{"b"}); !errors.Is(err, ErrVersion) {
		t.Errorf("Expected ErrVersion, got %v", err)
	}

	// Matching expected version succeeds
	version, err := s.SetChecked("projects:user@test", 1, []string{"b"})
	if err != nil {
		t.Fatalf("SetChecked failed: %v", err)
	}
	if version != 2 {
		t.Errorf("Expected version 2, got %d", version)
	}
}

func TestSetCheckedRequiresZeroForNewNamespace(t *testing.T) {
	s := New(setupTestDB(t))

	if _, err := s.SetChecked("projects:new@test", 3, []string{"a"}); !errors.Is(err, ErrVersion) {
		t.Errorf("Expected ErrVersion, got %v", err)
	}

	version, err := s.SetChecked("projects:new@test", 0, []string{"a"})
	if err != nil {
		t.Fatalf("SetChecked failed: %v", err)
	}
	if version != 1 {
		t.Errorf("Expected version 1, got %d", version)
	}
}

func TestDelete(t *testing.T) {
	s := New(setupTestDB(t))

	if _, err := s.Set("inventory:user@test", []string{"a"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	affected, err := s.Delete("inventory:user@test")
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if affected != 1 {
		t.Errorf("Expected 1 row removed, got %d", affected)
	}

	affected, err = s.Delete("inventory:user@test")
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if affected != 0 {
		t.Errorf("Expected 0 rows removed, got %d", affected)
	}
}

func TestKeysPrefixScan(t *testing.T) {
	s := New(setupTestDB(t))

	for _, ns := range []string{"projects:b@test", "projects:a@test", GlobalProjects, "profile:a@test"} {
		if _, err := s.Set(ns, []string{}); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}

	keys, err := s.Keys(ProjectsPrefix)
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}

	expected := []string{"projects:a@test", GlobalProjects, "projects:b@test"}
	if len(keys) != len(expected) {
		t.Fatalf("Expected %d keys, got %d: %v", len(expected), len(keys), keys)
	}
	for i := range expected {
		if keys[i] != expected[i] {
			t.Errorf("Expected key %q at %d, got %q", expected[i], i, keys[i])
		}
	}
}
