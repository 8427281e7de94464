package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/docauthor/internal/config"
	"github.com/localnerve/docauthor/internal/services"
	"github.com/localnerve/docauthor/internal/utils"
	"gorm.io/gorm"
)

// HealthHandler reports service health
type HealthHandler struct {
	Config      *config.Config
	DB          *gorm.DB
	LLMEndpoint string
}

// Health handles GET /health
// @Summary Database and LLM reachability
// @Tags Health
// @Produce json
// @Success 200 {object} services.HealthCheckResult
// @Failure 503 {object} services.HealthCheckResult
// @Router /health [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	result := services.HealthCheck(ctx, h.Config, h.DB, h.LLMEndpoint)
	status := fiber.StatusOK
	if result.Status != "healthy" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(result)
}

// Welcome handles GET /
// @Summary Welcome message
// @Tags Health
// @Produce json
// @Success 200 {object} utils.MessageResponseStruct
// @Router / [get]
func Welcome(c *fiber.Ctx) error {
	return utils.SuccessResponse(c, utils.MessageResponseStruct{
		Message: "Welcome to the AI Document Authoring Platform!",
	}, fiber.StatusOK)
}
