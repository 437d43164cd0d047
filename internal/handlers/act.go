package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/prorabapp/prorab-data/internal/config"
	"github.com/prorabapp/prorab-data/internal/models"
	"github.com/prorabapp/prorab-data/internal/services"
	"github.com/prorabapp/prorab-data/internal/store"
	"github.com/prorabapp/prorab-data/internal/utils"
	"gorm.io/gorm"
)

// ActHandler handles completion act drafting
type ActHandler struct {
	DB  *gorm.DB
	Cfg *config.Config
}

// GenerateAct handles POST /api/data/private/act/:project
// @Summary Draft a completion act
// @Description Draft a completion certificate for a project from the contractor profile and estimate totals
// @Tags PrivateData
// @Accept json
// @Produce json
// @Param project path string true "Project ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Failure 503 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /data/private/act/{project} [post]
func (h *ActHandler) GenerateAct(c *fiber.Ctx) error {
	userKey, err := getUserKey(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "data.authorization.user")
	}

	s := store.New(h.DB)

	var projects []models.Project
	if _, err := s.Get(store.ProjectsKey(userKey), &projects); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return utils.NotFoundResponse(c, "Project not found")
		}
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "generateAct")
	}

	projectID := c.Params("project")
	var project *models.Project
	for i := range projects {
		if projects[i].ID == projectID {
			project = &projects[i]
			break
		}
	}
	if project == nil {
		return utils.NotFoundResponse(c, "Project not found")
	}

	// A missing profile only means an unnamed contractor on the act.
	var profile models.Profile
	if _, err := s.Get(store.CollectionKey("profile", userKey), &profile); err != nil && !errors.Is(err, store.ErrNotFound) {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "generateAct")
	}

	text, err := services.GenerateAct(c.Context(), h.Cfg, services.BuildActInput(profile, *project))
	if err != nil {
		if errors.Is(err, services.ErrNoGenAICredential) {
			return utils.ErrorResponse(c, err.Error(), fiber.StatusServiceUnavailable, "generateAct")
		}
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "generateAct")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"ok":   true,
		"text": text,
	})
}
