// auth.go
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

package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/docauthor/internal/models"
	"github.com/localnerve/docauthor/internal/services"
	"github.com/localnerve/docauthor/internal/types"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const userLocalsKey = "user"

// AuthUser validates the bearer token and loads the user it names
func AuthUser(issuer *services.TokenIssuer, db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return unauthorized(c)
		}

		claims, err := issuer.Parse(token)
		if err != nil {
			logrus.WithError(err).Debug("Rejected bearer token")
			return unauthorized(c)
		}

		user, err := services.GetUserByEmail(c.UserContext(), db, claims.Subject)
		if err != nil {
			return unauthorized(c)
		}

		c.Locals(userLocalsKey, user)
		return c.Next()
	}
}

// CurrentUser returns the user stored by AuthUser
func CurrentUser(c *fiber.Ctx) (*models.User, bool) {
	user, ok := c.Locals(userLocalsKey).(*models.User)
	return user, ok && user != nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(c *fiber.Ctx) error {
	c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
	return &types.CustomError{
		Code:    fiber.StatusUnauthorized,
		Message: "Could not validate credentials",
		Type:    types.ErrorTypeAuthorization,
	}
}
