package middleware

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/docauthor/internal/types"
	"github.com/sirupsen/logrus"
)

// Limiter reports whether a key is still within its quota
type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

// GenerationLimit throttles LLM-backed routes per authenticated user.
// A nil limiter disables the check.
func GenerationLimit(limiter Limiter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if limiter == nil {
			return c.Next()
		}

		key := c.IP()
		if user, ok := CurrentUser(c); ok {
			key = "user:" + strconv.FormatUint(user.ID, 10)
		}

		if !limiter.Allow(c.UserContext(), key) {
			logrus.WithField("key", key).Warn("Generation rate limit exceeded")
			return &types.CustomError{
				Code:    fiber.StatusTooManyRequests,
				Message: "Too many generation requests, try again later",
				Type:    types.ErrorTypeRateLimit,
			}
		}
		return c.Next()
	}
}
