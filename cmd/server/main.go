// main.go
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

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	swagger "github.com/gofiber/swagger"
	"github.com/localnerve/docauthor/internal/config"
	"github.com/localnerve/docauthor/internal/database"
	"github.com/localnerve/docauthor/internal/export"
	"github.com/localnerve/docauthor/internal/handlers"
	"github.com/localnerve/docauthor/internal/llm"
	"github.com/localnerve/docauthor/internal/middleware"
	"github.com/localnerve/docauthor/internal/ratelimit"
	"github.com/localnerve/docauthor/internal/services"
	"github.com/sirupsen/logrus"

	_ "github.com/localnerve/docauthor/docs/api" // Swagger docs
)

// @title DocAuthor API
// @version 1.0.0
// @description Draft, refine and export documents and slide decks with an LLM
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/localnerve/docauthor
// @contact.email info@localnerve.com

// @license.name AGPL-3.0
// @license.url https://www.gnu.org/licenses/agpl-3.0.html

// @host localhost:3000
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		logrus.Fatalf("Failed to run migrations: %v", err)
	}

	// Content generation
	generator, err := llm.NewGenerator(cfg)
	if err != nil {
		logrus.Fatalf("Failed to create LLM client: %v", err)
	}
	gateway, err := llm.NewGateway(generator, cfg.LLMTimeout)
	if err != nil {
		logrus.Fatalf("Failed to create content gateway: %v", err)
	}

	// Export
	renderer, err := export.NewRenderer(cfg.ExportRenderer)
	if err != nil {
		logrus.Fatalf("Failed to create export renderer: %v", err)
	}

	deps := handlers.Dependencies{
		Config: cfg,
		DB:     db,
		Issuer: services.NewTokenIssuer(cfg),
		Workflow: &services.Workflow{
			DB:      db,
			Gateway: gateway,
			Pacing:  cfg.GenerationPacing,
		},
		Exports:     &services.ExportService{DB: db, Exporter: export.NewExporter(renderer)},
		LLMEndpoint: gateway.Endpoint(),
		Instrument: func(app *fiber.App) {
			// Prometheus metrics
			prometheus := fiberprometheus.New("docauthor")
			prometheus.RegisterAt(app, "/metrics")
			app.Use(prometheus.Middleware)

			// Swagger documentation
			app.Get("/swagger/*", swagger.HandlerDefault)
		},
	}

	// Optional shared generation limit
	if cfg.RedisURL != "" {
		limiter, err := ratelimit.NewRedisFixedWindowLimiter(cfg.RedisURL, "", cfg.GenerationRateLimit, cfg.GenerationRateWindow)
		if err != nil {
			logrus.Fatalf("Failed to create rate limiter: %v", err)
		}
		defer limiter.Close()
		deps.Limiter = middleware.Limiter(limiter)
		logrus.WithFields(logrus.Fields{
			"limit":  cfg.GenerationRateLimit,
			"window": cfg.GenerationRateWindow.String(),
		}).Info("Generation rate limit enabled")
	}

	app := handlers.NewApp(deps)

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		logrus.Info("Gracefully shutting down...")
		_ = app.Shutdown()
	}()

	// Start server
	logrus.WithFields(logrus.Fields{
		"port":     cfg.Port,
		"db_type":  cfg.DBType,
		"provider": cfg.LLMProvider,
		"renderer": cfg.ExportRenderer,
	}).Info("Starting server")
	if err := app.Listen(":" + cfg.Port); err != nil {
		logrus.Fatalf("Failed to start server: %v", err)
	}

	logrus.Info("Server stopped")
}
