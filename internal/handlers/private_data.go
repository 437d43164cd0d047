package handlers

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/prorabapp/prorab-data/internal/models"
	"github.com/prorabapp/prorab-data/internal/services"
	"github.com/prorabapp/prorab-data/internal/store"
	"github.com/prorabapp/prorab-data/internal/types"
	"github.com/prorabapp/prorab-data/internal/utils"
	"gorm.io/gorm"
)

// PrivateDataHandler handles the authenticated contractor data routes
type PrivateDataHandler struct {
	DB *gorm.DB
}

// GetProjects handles GET /api/data/private/projects
// @Summary Get the contractor's projects
// @Description Get the contractor's project collection, migrated and reconciled with shared client activity
// @Tags PrivateData
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /data/private/projects [get]
func (h *PrivateDataHandler) GetProjects(c *fiber.Ctx) error {
	userKey, err := getUserKey(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "data.authorization.user")
	}

	projects, version, err := services.LoadProjects(h.DB, userKey)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "getProjects")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"version":  version,
		"projects": projects,
	})
}

// SaveProjects handles POST /api/data/private/projects
// @Summary Save the contractor's projects
// @Description Replace the contractor's project collection under an optimistic version check
// @Tags PrivateData
// @Accept json
// @Produce json
// @Param body body object true "Version and projects"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /data/private/projects [post]
func (h *PrivateDataHandler) SaveProjects(c *fiber.Ctx) error {
	userKey, err := getUserKey(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "data.authorization.user")
	}

	var body struct {
		Version  types.FlexUint64 `json:"version"`
		Projects []models.Project `json:"projects"`
	}
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "data.validation.input")
	}
	if body.Projects == nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "data.validation.input")
	}

	newVersion, err := services.SaveProjects(h.DB, userKey, uint64(body.Version), body.Projects)
	if err != nil {
		return mutationErrorResponse(c, err, "saveProjects")
	}

	return utils.MutationSuccessResponse(c, newVersion)
}

// GetCollection handles GET /api/data/private/:collection
// @Summary Get a contractor collection
// @Description Get a per-user collection (directory, profile, templates, inventory, inventory_notes)
// @Tags PrivateData
// @Accept json
// @Produce json
// @Param collection path string true "Collection name"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /data/private/{collection} [get]
func (h *PrivateDataHandler) GetCollection(c *fiber.Ctx) error {
	userKey, err := getUserKey(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "data.authorization.user")
	}

	collection := c.Params("collection")
	if !services.PrivateCollections[collection] {
		return utils.NotFoundResponse(c, fmt.Sprintf("Collection '%s' not found", collection))
	}

	// The directory load runs identifier backfill; other collections are
	// stored and returned as opaque JSON.
	if collection == "directory" {
		items, version, err := services.LoadDirectory(h.DB, userKey)
		if err != nil {
			return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "getCollection")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"version": version,
			"data":    items,
		})
	}

	raw, version, err := services.LoadCollection(h.DB, userKey, collection)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "getCollection")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"version": version,
		"data":    raw,
	})
}

// SaveCollection handles POST /api/data/private/:collection
// @Summary Save a contractor collection
// @Description Replace a per-user collection under an optimistic version check
// @Tags PrivateData
// @Accept json
// @Produce json
// @Param collection path string true "Collection name"
// @Param body body object true "Version and data"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /data/private/{collection} [post]
func (h *PrivateDataHandler) SaveCollection(c *fiber.Ctx) error {
	userKey, err := getUserKey(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "data.authorization.user")
	}

	collection := c.Params("collection")
	if !services.PrivateCollections[collection] {
		return utils.NotFoundResponse(c, fmt.Sprintf("Collection '%s' not found", collection))
	}

	var body struct {
		Version types.FlexUint64 `json:"version"`
		Data    json.RawMessage  `json:"data"`
	}
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "data.validation.input")
	}

	newVersion, err := services.SaveCollection(h.DB, userKey, collection, uint64(body.Version), body.Data)
	if err != nil {
		return mutationErrorResponse(c, err, "saveCollection")
	}

	return utils.MutationSuccessResponse(c, newVersion)
}

// DeleteCollection handles DELETE /api/data/private/:collection
// @Summary Delete a contractor collection
// @Description Delete a per-user collection wholesale
// @Tags PrivateData
// @Accept json
// @Produce json
// @Param collection path string true "Collection name"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /data/private/{collection} [delete]
func (h *PrivateDataHandler) DeleteCollection(c *fiber.Ctx) error {
	userKey, err := getUserKey(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "data.authorization.user")
	}

	collection := c.Params("collection")
	if !services.PrivateCollections[collection] {
		return utils.NotFoundResponse(c, fmt.Sprintf("Collection '%s' not found", collection))
	}

	affected, err := services.DeleteCollection(h.DB, userKey, collection)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "deleteCollection")
	}
	if affected == 0 {
		return utils.NotFoundResponse(c, fmt.Sprintf("Collection '%s' not found", collection))
	}

	return utils.MutationSuccessResponse(c, 0)
}

// ApplyTemplate handles POST /api/data/private/projects/:project/estimates/:estimate/template
// @Summary Apply an estimate template
// @Description Append a template's line blueprints to an estimate as fresh items at quantity 1
// @Tags PrivateData
// @Accept json
// @Produce json
// @Param project path string true "Project ID"
// @Param estimate path string true "Estimate ID"
// @Param body body object true "Version and template id"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /data/private/projects/{project}/estimates/{estimate}/template [post]
func (h *PrivateDataHandler) ApplyTemplate(c *fiber.Ctx) error {
	userKey, err := getUserKey(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "data.authorization.user")
	}

	var body struct {
		Version    types.FlexUint64 `json:"version"`
		TemplateID string           `json:"templateId"`
	}
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "data.validation.input")
	}
	if body.TemplateID == "" {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "data.validation.input")
	}

	projects, newVersion, err := services.ApplyTemplate(h.DB, userKey,
		c.Params("project"), c.Params("estimate"), body.TemplateID, uint64(body.Version))
	if err != nil {
		return mutationErrorResponse(c, err, "applyTemplate")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"version":  newVersion,
		"projects": projects,
	})
}

// mutationErrorResponse maps service errors from mutations to HTTP responses
func mutationErrorResponse(c *fiber.Ctx, err error, errorType string) error {
	switch {
	case errors.Is(err, store.ErrVersion):
		return utils.VersionErrorResponse(c)
	case errors.Is(err, store.ErrNotFound):
		return utils.NotFoundResponse(c, "Resource not found")
	case errors.Is(err, services.ErrValidation):
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "data.validation.input")
	default:
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, errorType)
	}
}
