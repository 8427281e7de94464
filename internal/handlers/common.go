// common.go
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
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/docauthor/internal/middleware"
	"github.com/localnerve/docauthor/internal/models"
	"github.com/localnerve/docauthor/internal/services"
	"github.com/localnerve/docauthor/internal/types"
	"github.com/localnerve/docauthor/internal/utils"
	"github.com/sirupsen/logrus"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// bindAndValidate parses the request body into req and checks its validate tags
func bindAndValidate(c *fiber.Ctx, req interface{}) error {
	if err := c.BodyParser(req); err != nil {
		return &types.CustomError{
			Code:    fiber.StatusBadRequest,
			Message: fmt.Sprintf("Invalid request body: %v", err),
			Type:    types.ErrorTypeValidation,
		}
	}
	if err := validate.Struct(req); err != nil {
		return validationError(err)
	}
	return nil
}

// validationError flattens validator errors into one readable message
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &types.CustomError{Code: fiber.StatusBadRequest, Message: err.Error(), Type: types.ErrorTypeValidation}
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s]", field, fe.Param()))
		case "email":
			msgs = append(msgs, field+" must be a valid email address")
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", field, fe.Tag()))
		}
	}
	return &types.CustomError{
		Code:    fiber.StatusBadRequest,
		Message: strings.Join(msgs, "; "),
		Type:    types.ErrorTypeValidation,
	}
}

// parseID reads a positive numeric path parameter
func parseID(c *fiber.Ctx, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, &types.CustomError{
			Code:    fiber.StatusBadRequest,
			Message: fmt.Sprintf("Invalid %s", name),
			Type:    types.ErrorTypeValidation,
		}
	}
	return id, nil
}

// currentUser returns the authenticated user or a 401
func currentUser(c *fiber.Ctx) (*models.User, error) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
		return nil, &types.CustomError{
			Code:    fiber.StatusUnauthorized,
			Message: "Could not validate credentials",
			Type:    types.ErrorTypeAuthorization,
		}
	}
	return user, nil
}

// serviceError maps service errors onto HTTP responses.
// notFound is the message used for ErrNotFound.
func serviceError(c *fiber.Ctx, err error, notFound string) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return utils.NotFoundResponse(c, notFound)
	case errors.Is(err, services.ErrNoContent):
		return utils.ErrorResponse(c, "No valid content to export.", fiber.StatusBadRequest, types.ErrorTypeExport)
	case errors.Is(err, services.ErrUnsupportedFormat):
		return utils.ErrorResponse(c, "Unsupported document type", fiber.StatusBadRequest, types.ErrorTypeExport)
	case errors.Is(err, services.ErrSectionTitleTooLong):
		return utils.ErrorResponse(c, fmt.Sprintf("section_titles: each title must be at most %d characters", models.SectionTitleMaxLength), fiber.StatusBadRequest, types.ErrorTypeValidation)
	case errors.Is(err, services.ErrEmailTaken):
		return utils.ErrorResponse(c, "Email already registered", fiber.StatusBadRequest, types.ErrorTypeConflict)
	case errors.Is(err, services.ErrInvalidCredentials):
		return utils.UnauthorizedResponse(c, "Incorrect email or password", types.ErrorTypeAuthorization)
	case errors.Is(err, services.ErrInvalidToken):
		return utils.UnauthorizedResponse(c, "Could not validate credentials", types.ErrorTypeAuthorization)
	}

	var custom *types.CustomError
	if errors.As(err, &custom) {
		return err
	}

	logrus.WithError(err).WithField("url", c.OriginalURL()).Error("Request failed")
	return utils.ErrorResponse(c, "Internal server error", fiber.StatusInternalServerError, types.ErrorTypeInternal)
}
