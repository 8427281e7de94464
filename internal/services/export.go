// export.go
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

package services

import (
	"context"
	"strings"

	"github.com/localnerve/docauthor/internal/export"
	"github.com/localnerve/docauthor/internal/llm"
	"github.com/localnerve/docauthor/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// generateFailureMarker prefixes the generation fallback content
const generateFailureMarker = "Error: Could not generate content"

// ExportService renders an owner's project into a document
type ExportService struct {
	DB       *gorm.DB
	Exporter *export.Exporter
}

// Export renders the project's sections in order, skipping failed and empty ones.
// Returns ErrNoContent when nothing is left, then ErrUnsupportedFormat for an
// unknown document type.
func (s *ExportService) Export(ctx context.Context, ownerID, projectID uint64) (*export.Result, error) {
	quiet := s.DB.WithContext(ctx).Session(&gorm.Session{Logger: s.DB.Logger.LogMode(logger.Silent)})

	project, err := findProject(quiet, ownerID, projectID)
	if err != nil {
		return nil, err
	}
	sections, err := orderedSections(quiet, projectID)
	if err != nil {
		return nil, err
	}

	result, err := s.Exporter.Export(ctx, project.DocumentType, project.Title, ExportableSections(sections))
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"project_id": projectID,
		"user_id":    ownerID,
		"bytes":      len(result.Data),
	}).Info("Project exported")
	return result, nil
}

// ExportableSections keeps sections with real content, preserving order
func ExportableSections(sections []models.DocumentSection) []export.Section {
	out := make([]export.Section, 0, len(sections))
	for _, s := range sections {
		content := s.ContentValue()
		if strings.TrimSpace(content) == "" ||
			strings.Contains(content, generateFailureMarker) ||
			llm.IsSentinel(content) {
			continue
		}
		out = append(out, export.Section{Title: s.Title, Content: content})
	}
	return out
}
