package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/prorabapp/prorab-data/internal/config"
	"github.com/prorabapp/prorab-data/internal/services"
	"github.com/prorabapp/prorab-data/internal/utils"
	"gorm.io/gorm"
)

// AdminHandler handles operational admin routes
type AdminHandler struct {
	DB  *gorm.DB
	Cfg *config.Config
}

// RebuildProjection handles POST /api/data/admin/projection/rebuild
// @Summary Rebuild the shared projection
// @Description Recompute the shared project projection from every stored contractor collection
// @Tags Admin
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /data/admin/projection/rebuild [post]
func (h *AdminHandler) RebuildProjection(c *fiber.Ctx) error {
	if err := services.RebuildProjection(h.DB); err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "rebuildProjection")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
}

// Health handles GET /health
// @Summary Service health
// @Description Report database and authorizer connectivity
// @Tags Admin
// @Produce json
// @Success 200 {object} services.HealthCheckResult
// @Failure 503 {object} services.HealthCheckResult
// @Router /health [get]
func (h *AdminHandler) Health(c *fiber.Ctx) error {
	result := services.HealthCheck(h.Cfg, h.DB)
	status := fiber.StatusOK
	if result.Status != "healthy" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(result)
}
