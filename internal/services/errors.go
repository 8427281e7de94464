package services

import (
	"errors"

	"github.com/localnerve/docauthor/internal/export"
)

var (
	// ErrNotFound indicates the project or section does not exist for the requesting owner.
	ErrNotFound = errors.New("not found")
	// ErrUnsupportedFormat indicates a project document type that cannot be exported.
	ErrUnsupportedFormat = export.ErrUnsupportedFormat
	// ErrNoContent indicates every section failed generation or is empty.
	ErrNoContent = export.ErrNoContent
	// ErrEmailTaken indicates a registration for an existing email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials indicates an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("incorrect email or password")
	// ErrSectionTitleTooLong indicates a section title longer than models.SectionTitleMaxLength.
	ErrSectionTitleTooLong = errors.New("section title too long")
	// ErrInvalidToken indicates a bearer token that failed verification.
	ErrInvalidToken = errors.New("could not validate credentials")
)
