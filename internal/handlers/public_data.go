package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/prorabapp/prorab-data/internal/services"
	"github.com/prorabapp/prorab-data/internal/store"
	"github.com/prorabapp/prorab-data/internal/utils"
	"gorm.io/gorm"
)

// PublicDataHandler handles the unauthenticated client share-link routes
type PublicDataHandler struct {
	DB *gorm.DB
}

// GetSharedEstimate handles GET /api/public/estimate?project=...&estimate=...
// @Summary Get a shared estimate
// @Description Resolve a shared estimate view by project and estimate id
// @Tags PublicData
// @Accept json
// @Produce json
// @Param project query string true "Project ID"
// @Param estimate query string true "Estimate ID"
// @Success 200 {object} services.SharedEstimateView
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /public/estimate [get]
func (h *PublicDataHandler) GetSharedEstimate(c *fiber.Ctx) error {
	view, err := services.ResolveSharedEstimate(h.DB, c.Query("project"), c.Query("estimate"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return utils.NotFoundResponse(c, "Estimate not found")
		}
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "getSharedEstimate")
	}

	return c.Status(fiber.StatusOK).JSON(view)
}

// ApproveEstimate handles POST /api/public/estimate/approve
// @Summary Approve a shared estimate
// @Description Set the approval timestamp on a shared estimate, once
// @Tags PublicData
// @Accept json
// @Produce json
// @Param body body object true "Project and estimate ids"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /public/estimate/approve [post]
func (h *PublicDataHandler) ApproveEstimate(c *fiber.Ctx) error {
	var body struct {
		Project  string `json:"project"`
		Estimate string `json:"estimate"`
	}
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "data.validation.input")
	}

	approvedOn, err := services.ApproveEstimate(h.DB, body.Project, body.Estimate)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return utils.NotFoundResponse(c, "Estimate not found")
		}
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "approveEstimate")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"ok":         true,
		"approvedOn": approvedOn,
	})
}

// AddComment handles POST /api/public/estimate/comment
// @Summary Add a client comment
// @Description Append a client-authored comment to a shared estimate line
// @Tags PublicData
// @Accept json
// @Produce json
// @Param body body object true "Project, estimate, item ids and comment text"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /public/estimate/comment [post]
func (h *PublicDataHandler) AddComment(c *fiber.Ctx) error {
	var body struct {
		Project  string `json:"project"`
		Estimate string `json:"estimate"`
		Item     string `json:"item"`
		Text     string `json:"text"`
	}
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "data.validation.input")
	}

	comment, err := services.AddClientComment(h.DB, body.Project, body.Estimate, body.Item, body.Text)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return utils.NotFoundResponse(c, "Estimate item not found")
		case errors.Is(err, services.ErrValidation):
			return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "data.validation.input")
		default:
			return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "addComment")
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"ok":      true,
		"comment": comment,
	})
}
