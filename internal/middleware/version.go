package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/docauthor/internal/types"
)

// APIVersion is the version served under /api/v1
const APIVersion = "1.0.0"

// VersionMiddleware parses the X-Api-Version header and stores it in context.
// Only major version 1 is served; the resolved version is echoed back.
func VersionMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		version := strings.TrimSpace(c.Get("X-Api-Version", APIVersion))

		// Support version aliases
		switch version {
		case "1", "1.0", "v1":
			version = APIVersion
		}

		if major, _, _ := strings.Cut(version, "."); major != "1" {
			return &types.CustomError{
				Code:    fiber.StatusBadRequest,
				Message: "Unsupported API version " + version,
				Type:    "version",
			}
		}

		c.Locals("apiVersion", version)
		c.Set("X-Api-Version", version)

		return c.Next()
	}
}
