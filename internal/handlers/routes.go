// routes.go
//
// A document authoring service that drafts and refines content with an LLM
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of docauthor.
// docauthor is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// docauthor is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with docauthor.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/localnerve/docauthor/internal/config"
	"github.com/localnerve/docauthor/internal/middleware"
	"github.com/localnerve/docauthor/internal/services"
	"github.com/localnerve/docauthor/internal/types"
	"github.com/localnerve/docauthor/internal/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Dependencies are the collaborators the HTTP surface routes to
type Dependencies struct {
	Config      *config.Config
	DB          *gorm.DB
	Issuer      *services.TokenIssuer
	Workflow    *services.Workflow
	Exports     *services.ExportService
	LLMEndpoint string

	// Limiter throttles generation routes; nil disables it
	Limiter middleware.Limiter

	// Instrument runs after the global middleware and before any route,
	// for metrics and documentation endpoints.
	Instrument func(app *fiber.App)
}

// NewApp builds the Fiber application with middleware and all routes
func NewApp(deps Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: true,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(compress.New())
	app.Use(cors.New(corsConfig(deps.Config.CORSOrigins)))

	if deps.Instrument != nil {
		deps.Instrument(app)
	}

	health := &HealthHandler{Config: deps.Config, DB: deps.DB, LLMEndpoint: deps.LLMEndpoint}
	app.Get("/", Welcome)
	app.Get("/health", health.Health)

	api := app.Group("/api/v1", middleware.VersionMiddleware())

	authHandler := &AuthHandler{DB: deps.DB, Issuer: deps.Issuer}
	projectHandler := &ProjectHandler{DB: deps.DB, Workflow: deps.Workflow, Exports: deps.Exports}
	sectionHandler := &SectionHandler{Workflow: deps.Workflow}

	requireUser := middleware.AuthUser(deps.Issuer, deps.DB)
	limit := middleware.GenerationLimit(deps.Limiter)

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", requireUser, authHandler.Me)

	projects := api.Group("/projects", requireUser)
	projects.Post("/", projectHandler.CreateProject)
	projects.Get("/", projectHandler.ListProjects)
	projects.Get("/:id", projectHandler.GetProject)
	projects.Delete("/:id", projectHandler.DeleteProject)
	projects.Post("/:id/suggest-outline", limit, projectHandler.SuggestOutline)
	projects.Post("/:id/generate", limit, projectHandler.Generate)
	projects.Get("/:id/export", projectHandler.Export)

	sections := api.Group("/sections", requireUser)
	sections.Post("/:id/refine", limit, sectionHandler.Refine)
	sections.Patch("/:id", sectionHandler.UpdateSection)
	sections.Get("/:id/history", sectionHandler.History)

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return utils.NotFoundResponse(c, "[404] Resource Not Found")
	})

	return app
}

// corsConfig allows the configured origins; credentials are only allowed
// when no wildcard origin is present.
func corsConfig(origins []string) cors.Config {
	wildcard := false
	for _, o := range origins {
		if o == "*" {
			wildcard = true
		}
	}
	return cors.Config{
		AllowOrigins:     strings.Join(origins, ","),
		AllowMethods:     "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Api-Version",
		ExposeHeaders:    "Content-Disposition, X-Api-Version",
		AllowCredentials: !wildcard,
	}
}

// ErrorHandler renders errors returned by handlers and middleware
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	errorType := types.ErrorTypeInternal

	var custom *types.CustomError
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &custom):
		code, message, errorType = custom.Code, custom.Message, custom.Type
	case errors.As(err, &fiberErr):
		code, message, errorType = fiberErr.Code, fiberErr.Message, ""
	default:
		logrus.WithError(err).WithField("url", c.OriginalURL()).Error("Unhandled error")
	}

	return utils.ErrorResponse(c, message, code, errorType)
}
