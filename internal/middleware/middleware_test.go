package middleware_test

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/docauthor/internal/config"
	"github.com/localnerve/docauthor/internal/middleware"
	"github.com/localnerve/docauthor/internal/models"
	"github.com/localnerve/docauthor/internal/services"
	"github.com/localnerve/docauthor/internal/testsupport"
	"github.com/localnerve/docauthor/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func errorHandler(c *fiber.Ctx, err error) error {
	if e, ok := err.(*types.CustomError); ok {
		return c.Status(e.Code).JSON(e)
	}
	return fiber.DefaultErrorHandler(c, err)
}

func newIssuer() *services.TokenIssuer {
	return services.NewTokenIssuer(&config.Config{
		SecretKey:                "middleware-secret",
		TokenIssuer:              "docauthor",
		AccessTokenExpireMinutes: 5,
	})
}

func TestAuthUser(t *testing.T) {
	db := testsupport.NewSQLiteDB(t)
	issuer := newIssuer()
	user := testsupport.CreateUser(t, db, "writer@example.com")

	app := fiber.New(fiber.Config{ErrorHandler: errorHandler})
	app.Get("/me", middleware.AuthUser(issuer, db), func(c *fiber.Ctx) error {
		u, ok := middleware.CurrentUser(c)
		if !ok {
			return fiber.ErrInternalServerError
		}
		return c.JSON(fiber.Map{"id": u.ID, "email": u.Email})
	})

	token, err := issuer.Issue(user)
	require.NoError(t, err)
	ghost, err := issuer.Issue(&models.User{ID: 999, Email: "ghost@example.com"})
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid token", "Bearer " + token, fiber.StatusOK},
		{"lowercase scheme", "bearer " + token, fiber.StatusOK},
		{"missing header", "", fiber.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, fiber.StatusUnauthorized},
		{"empty token", "Bearer ", fiber.StatusUnauthorized},
		{"garbage token", "Bearer abc.def.ghi", fiber.StatusUnauthorized},
		{"unknown user", "Bearer " + ghost, fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.status == fiber.StatusUnauthorized {
				assert.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))
				var body map[string]interface{}
				testsupport.ParseJSON(t, resp, &body)
				assert.Equal(t, types.ErrorTypeAuthorization, body["type"])
			}
		})
	}
}

func TestVersionMiddleware(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: errorHandler})
	app.Use(middleware.VersionMiddleware())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("apiVersion").(string))
	})

	tests := []struct {
		header string
		status int
		want   string
	}{
		{"", fiber.StatusOK, "1.0.0"},
		{"1.0", fiber.StatusOK, "1.0.0"},
		{"v1", fiber.StatusOK, "1.0.0"},
		{"1.2.0", fiber.StatusOK, "1.2.0"},
		{"2.0.0", fiber.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		req := httptest.NewRequest("GET", "/", nil)
		if tt.header != "" {
			req.Header.Set("X-Api-Version", tt.header)
		}
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, tt.status, resp.StatusCode, "header %q", tt.header)
		if tt.want != "" {
			assert.Equal(t, tt.want, resp.Header.Get("X-Api-Version"))
		}
	}
}

type countingLimiter struct {
	mu    sync.Mutex
	limit int
	seen  map[string]int
}

func (l *countingLimiter) Allow(_ context.Context, key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seen[key]++
	return l.seen[key] <= l.limit
}

func TestGenerationLimit(t *testing.T) {
	limiter := &countingLimiter{limit: 1, seen: map[string]int{}}

	app := fiber.New(fiber.Config{ErrorHandler: errorHandler})
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user", &models.User{ID: 7})
		return c.Next()
	})
	app.Post("/generate", middleware.GenerationLimit(limiter), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	for i, want := range []int{fiber.StatusOK, fiber.StatusTooManyRequests} {
		resp, err := app.Test(httptest.NewRequest("POST", "/generate", nil), -1)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, want, resp.StatusCode, "request %d", i)
	}
	assert.Equal(t, 2, limiter.seen["user:7"])
}

func TestGenerationLimitDisabled(t *testing.T) {
	app := fiber.New()
	app.Post("/generate", middleware.GenerationLimit(nil), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest("POST", "/generate", nil), -1)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
}
