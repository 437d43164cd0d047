package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/prorabapp/prorab-data/internal/handlers"
	"github.com/prorabapp/prorab-data/internal/models"
	"github.com/prorabapp/prorab-data/internal/store"
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

// testUser injects the identity normally set by the auth middleware
func testUser(email string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user", map[string]interface{}{"id": "uid-1", "email": email})
		return c.Next()
	}
}

func setupPrivateApp(db *gorm.DB) *fiber.App {
	app := fiber.New()
	handler := &handlers.PrivateDataHandler{DB: db}
	private := app.Group("/api/data/private", testUser("user@test"))
	private.Get("/projects", handler.GetProjects)
	private.Post("/projects", handler.SaveProjects)
	private.Post("/projects/:project/estimates/:estimate/template", handler.ApplyTemplate)
	private.Get("/:collection", handler.GetCollection)
	private.Post("/:collection", handler.SaveCollection)
	private.Delete("/:collection", handler.DeleteCollection)
	return app
}

func setupPublicApp(db *gorm.DB) *fiber.App {
	app := fiber.New()
	handler := &handlers.PublicDataHandler{DB: db}
	app.Get("/api/public/estimate", handler.GetSharedEstimate)
	app.Post("/api/public/estimate/approve", handler.ApproveEstimate)
	app.Post("/api/public/estimate/comment", handler.AddComment)
	return app
}

func postJSON(t *testing.T, app *fiber.App, url string, payload interface{}) map[string]interface{} {
	t.Helper()
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest("POST", url, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	result["__status"] = float64(resp.StatusCode)
	return result
}

// TestGetProjectsEmpty tests GET /api/data/private/projects with no stored data
func TestGetProjectsEmpty(t *testing.T) {
	app := setupPrivateApp(setupTestDB(t))

	req := httptest.NewRequest("GET", "/api/data/private/projects", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	var result struct {
		Version  uint64           `json:"version"`
		Projects []models.Project `json:"projects"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if result.Projects == nil {
		t.Error("Expected empty projects array, got null")
	}
	if len(result.Projects) != 0 {
		t.Errorf("Expected no projects, got %d", len(result.Projects))
	}
}

// TestSaveAndGetProjects tests the POST then GET roundtrip
func TestSaveAndGetProjects(t *testing.T) {
	db := setupTestDB(t)
	app := setupPrivateApp(db)

	result := postJSON(t, app, "/api/data/private/projects", map[string]interface{}{
		"version": 0,
		"projects": []models.Project{{
			ID: "p1", Name: "Дом", Status: models.StatusActive, CreatedAt: 1700000000000,
		}},
	})
	if result["__status"] != float64(200) {
		t.Fatalf("Expected status 200, got %v: %v", result["__status"], result)
	}
	if result["ok"] != true {
		t.Error("Expected ok=true in response")
	}
	if result["newVersion"] != "1" {
		t.Errorf("Expected newVersion 1, got %v", result["newVersion"])
	}

	req := httptest.NewRequest("GET", "/api/data/private/projects", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	var loaded struct {
		Projects []models.Project `json:"projects"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&loaded); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(loaded.Projects) != 1 || loaded.Projects[0].ID != "p1" {
		t.Errorf("Unexpected projects: %+v", loaded.Projects)
	}
}

// TestSaveProjectsVersionConflict tests version conflict detection
func TestSaveProjectsVersionConflict(t *testing.T) {
	db := setupTestDB(t)
	app := setupPrivateApp(db)

	project := models.Project{ID: "p1", Name: "Дом", Status: models.StatusActive, CreatedAt: 1700000000000}

	first := postJSON(t, app, "/api/data/private/projects", map[string]interface{}{
		"version":  0,
		"projects": []models.Project{project},
	})
	if first["__status"] != float64(200) {
		t.Fatalf("Expected status 200, got %v", first["__status"])
	}

	// Same expected version again must conflict
	conflict := postJSON(t, app, "/api/data/private/projects", map[string]interface{}{
		"version":  0,
		"projects": []models.Project{project},
	})
	if conflict["__status"] != float64(409) {
		t.Errorf("Expected status 409, got %v", conflict["__status"])
	}
	if conflict["versionError"] != true {
		t.Error("Expected versionError=true in response")
	}
}

// TestSaveProjectsStringVersion tests that a string version is accepted
func TestSaveProjectsStringVersion(t *testing.T) {
	db := setupTestDB(t)
	app := setupPrivateApp(db)

	project := models.Project{ID: "p1", Name: "Дом", Status: models.StatusActive, CreatedAt: 1700000000000}

	result := postJSON(t, app, "/api/data/private/projects", map[string]interface{}{
		"version":  "0",
		"projects": []models.Project{project},
	})
	if result["__status"] != float64(200) {
		t.Errorf("Expected status 200, got %v: %v", result["__status"], result)
	}
}

// TestUnknownCollection tests the collection allowlist
func TestUnknownCollection(t *testing.T) {
	app := setupPrivateApp(setupTestDB(t))

	req := httptest.NewRequest("GET", "/api/data/private/users", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	if resp.StatusCode != 404 {
		t.Errorf("Expected status 404, got %d", resp.StatusCode)
	}
}

// TestCollectionRoundtrip tests the generic collection save and load
func TestCollectionRoundtrip(t *testing.T) {
	db := setupTestDB(t)
	app := setupPrivateApp(db)

	result := postJSON(t, app, "/api/data/private/inventory", map[string]interface{}{
		"version": 0,
		"data":    []map[string]interface{}{{"id": "t1", "name": "Перфоратор", "quantity": 1}},
	})
	if result["__status"] != float64(200) {
		t.Fatalf("Expected status 200, got %v: %v", result["__status"], result)
	}

	req := httptest.NewRequest("GET", "/api/data/private/inventory", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	var loaded struct {
		Version uint64                   `json:"version"`
		Data    []map[string]interface{} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&loaded); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(loaded.Data) != 1 || loaded.Data[0]["name"] != "Перфоратор" {
		t.Errorf("Unexpected collection data: %+v", loaded.Data)
	}
}

// TestDeleteCollection tests DELETE /api/data/private/:collection
func TestDeleteCollection(t *testing.T) {
	db := setupTestDB(t)
	app := setupPrivateApp(db)

	postJSON(t, app, "/api/data/private/inventory", map[string]interface{}{
		"version": 0,
		"data":    []map[string]interface{}{{"id": "t1"}},
	})

	req := httptest.NewRequest("DELETE", "/api/data/private/inventory", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	req = httptest.NewRequest("DELETE", "/api/data/private/inventory", nil)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	if resp.StatusCode != 404 {
		t.Errorf("Expected status 404 on second delete, got %d", resp.StatusCode)
	}
}

// TestApplyTemplateEndpoint tests the template application route
func TestApplyTemplateEndpoint(t *testing.T) {
	db := setupTestDB(t)
	app := setupPrivateApp(db)
	s := store.New(db)

	if _, err := s.Set(store.ProjectsKey("user@test"), []models.Project{{
		ID: "p1", Name: "Дом", Status: models.StatusActive, CreatedAt: 1700000000000,
		Estimates: []models.Estimate{{ID: "e1", Name: "Смета"}},
	}}); err != nil {
		t.Fatalf("Failed to seed projects: %v", err)
	}
	if _, err := s.Set(store.CollectionKey("templates", "user@test"), []models.EstimateTemplate{{
		ID: "t1", Name: "Шаблон",
		Items: []models.TemplateItem{{Name: "Штукатурка", Kind: "work", Price: 500}},
	}}); err != nil {
		t.Fatalf("Failed to seed templates: %v", err)
	}

	result := postJSON(t, app, "/api/data/private/projects/p1/estimates/e1/template", map[string]interface{}{
		"version":    1,
		"templateId": "t1",
	})
	if result["__status"] != float64(200) {
		t.Fatalf("Expected status 200, got %v: %v", result["__status"], result)
	}
	projects, ok := result["projects"].([]interface{})
	if !ok || len(projects) != 1 {
		t.Fatalf("Expected one project in response, got %v", result["projects"])
	}
}

// seedSharedEstimate stores a project in the global projection
func seedSharedEstimate(t *testing.T, db *gorm.DB) {
	t.Helper()
	_, err := store.New(db).Set(store.GlobalProjects, []models.Project{{
		ID: "p1", Name: "Дом", Status: models.StatusActive, CreatedAt: 1700000000000,
		Estimates: []models.Estimate{{
			ID: "e1", Name: "Смета",
			Items: []models.EstimateItem{{ID: "i1", Name: "Штукатурка", Kind: "work", Quantity: 10, Price: 500}},
		}},
	}})
	if err != nil {
		t.Fatalf("Failed to seed projection: %v", err)
	}
}

// TestGetSharedEstimate tests the public share view
func TestGetSharedEstimate(t *testing.T) {
	db := setupTestDB(t)
	seedSharedEstimate(t, db)
	app := setupPublicApp(db)

	req := httptest.NewRequest("GET", "/api/public/estimate?project=p1&estimate=e1", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	var view map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if view["subtotal"] != float64(5000) {
		t.Errorf("Expected subtotal 5000, got %v", view["subtotal"])
	}
}

// TestGetSharedEstimateMissingParams tests that unresolved links are terminal
func TestGetSharedEstimateMissingParams(t *testing.T) {
	db := setupTestDB(t)
	seedSharedEstimate(t, db)
	app := setupPublicApp(db)

	for _, url := range []string{
		"/api/public/estimate",
		"/api/public/estimate?project=p1",
		"/api/public/estimate?project=p1&estimate=missing",
	} {
		req := httptest.NewRequest("GET", url, nil)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("Failed to execute request: %v", err)
		}
		if resp.StatusCode != 404 {
			t.Errorf("Expected status 404 for %s, got %d", url, resp.StatusCode)
		}
	}
}

// TestApproveEstimateEndpoint tests estimate approval through the public path
func TestApproveEstimateEndpoint(t *testing.T) {
	db := setupTestDB(t)
	seedSharedEstimate(t, db)
	app := setupPublicApp(db)

	first := postJSON(t, app, "/api/public/estimate/approve", map[string]string{
		"project": "p1", "estimate": "e1",
	})
	if first["__status"] != float64(200) {
		t.Fatalf("Expected status 200, got %v: %v", first["__status"], first)
	}
	approvedOn, ok := first["approvedOn"].(float64)
	if !ok || approvedOn == 0 {
		t.Fatalf("Expected non-zero approvedOn, got %v", first["approvedOn"])
	}

	second := postJSON(t, app, "/api/public/estimate/approve", map[string]string{
		"project": "p1", "estimate": "e1",
	})
	if second["approvedOn"] != first["approvedOn"] {
		t.Errorf("Expected repeated approval to return %v, got %v", first["approvedOn"], second["approvedOn"])
	}
}

// TestAddCommentEndpoint tests client comments through the public path
func TestAddCommentEndpoint(t *testing.T) {
	db := setupTestDB(t)
	seedSharedEstimate(t, db)
	app := setupPublicApp(db)

	result := postJSON(t, app, "/api/public/estimate/comment", map[string]string{
		"project": "p1", "estimate": "e1", "item": "i1", "text": "можно дешевле?",
	})
	if result["__status"] != float64(200) {
		t.Fatalf("Expected status 200, got %v: %v", result["__status"], result)
	}

	comment, ok := result["comment"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected comment in response, got %v", result)
	}
	if comment["author"] != "client" {
		t.Errorf("Expected client author, got %v", comment["author"])
	}

	empty := postJSON(t, app, "/api/public/estimate/comment", map[string]string{
		"project": "p1", "estimate": "e1", "item": "i1", "text": "   ",
	})
	if empty["__status"] != float64(400) {
		t.Errorf("Expected status 400 for blank text, got %v", empty["__status"])
	}
}
