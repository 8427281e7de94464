package services

import (
	"context"
	"fmt"
	"time"

	"github.com/localnerve/docauthor/internal/config"
	"github.com/localnerve/docauthor/internal/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// HealthCheckResult represents the result of a health check
type HealthCheckResult struct {
	Status       string            `json:"status"`
	Database     string            `json:"database"`
	LLM          string            `json:"llm"`
	Details      map[string]string `json:"details,omitempty"`
	ErrorMessage string            `json:"error,omitempty"`
}

// HealthCheck pings the database and checks TCP reachability of the LLM endpoint
func HealthCheck(ctx context.Context, cfg *config.Config, db *gorm.DB, llmEndpoint string) HealthCheckResult {
	result := HealthCheckResult{
		Status:  "healthy",
		Details: make(map[string]string),
	}

	fail := func(msg string) {
		result.Status = "unhealthy"
		if result.ErrorMessage == "" {
			result.ErrorMessage = msg
		} else {
			result.ErrorMessage += "; " + msg
		}
		logrus.Warnf("Health check failed - %s", msg)
	}

	// Check database connectivity
	sqlDB, err := db.DB()
	if err != nil {
		result.Database = "error"
		result.Details["database_error"] = err.Error()
		fail(fmt.Sprintf("Database connection error: %v", err))
	} else if err := sqlDB.PingContext(ctx); err != nil {
		result.Database = "unreachable"
		result.Details["database_ping_error"] = err.Error()
		fail(fmt.Sprintf("Database ping failed: %v", err))
	} else {
		result.Database = "ok"
		result.Details["database_type"] = cfg.DBType
		result.Details["database_name"] = cfg.DBDatabase
	}

	// Check the content generation endpoint
	if err := utils.PingService(llmEndpoint, 1500*time.Millisecond); err != nil {
		result.LLM = "unreachable"
		result.Details["llm_error"] = err.Error()
		fail(fmt.Sprintf("LLM ping failed: %v", err))
	} else {
		result.LLM = "ok"
		result.Details["llm_provider"] = cfg.LLMProvider
	}

	if result.Status == "healthy" {
		logrus.Debug("Health check passed - all systems operational")
	}

	return result
}
