// workflow.go
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
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/localnerve/docauthor/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// ContentGateway produces section content. Implementations never fail:
// a degraded call yields fallback content or an empty outline.
type ContentGateway interface {
	SuggestOutline(ctx context.Context, mainTopic, documentType string) []string
	GenerateSection(ctx context.Context, mainTopic, sectionTitle string) string
	RefineSection(ctx context.Context, content, instruction string) string
}

// SectionPatch holds optional section metadata; nil fields are left unchanged.
// UserNotes is an alias of Comment, and Comment wins when both are set.
type SectionPatch struct {
	Comment   *string
	UserNotes *string
	Feedback  *string
}

// Workflow drives outline suggestion, batch generation and refinement of
// a project's sections.
type Workflow struct {
	DB      *gorm.DB
	Gateway ContentGateway
	// Pacing is the wait between successive gateway calls of one batch
	Pacing time.Duration
}

// SuggestOutline asks the gateway for advisory section titles; nothing is stored
func (w *Workflow) SuggestOutline(ctx context.Context, ownerID, projectID uint64, mainTopic string) ([]string, error) {
	project, err := findProject(w.quiet(ctx), ownerID, projectID)
	if err != nil {
		return nil, err
	}
	return w.Gateway.SuggestOutline(ctx, mainTopic, project.DocumentType), nil
}

// Generate replaces the project's sections with one generated section per title.
//
// The old sections (and their history) are deleted and the new main topic is
// committed before any gateway call. Contents are then generated strictly in
// order with Pacing between calls, and the new sections are inserted in a
// second transaction with section_order equal to the title index. A crash or
// cancellation in between leaves the project with no sections. Titles are
// checked before anything is deleted.
func (w *Workflow) Generate(ctx context.Context, ownerID, projectID uint64, mainTopic string, titles []string) ([]models.DocumentSection, error) {
	log := logrus.WithFields(logrus.Fields{
		"op":         "generate",
		"project_id": projectID,
		"user_id":    ownerID,
	})

	for i, title := range titles {
		if utf8.RuneCountInString(title) > models.SectionTitleMaxLength {
			return nil, fmt.Errorf("title %d: %w", i, ErrSectionTitleTooLong)
		}
	}

	err := w.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project, err := findProject(tx.Clauses(clause.Locking{Strength: "UPDATE"}), ownerID, projectID)
		if err != nil {
			return err
		}
		if err := tx.Model(project).Update("main_topic", mainTopic).Error; err != nil {
			return err
		}
		return deleteSections(tx, projectID)
	})
	if err != nil {
		return nil, err
	}

	log.WithField("sections", len(titles)).Info("Generating sections")

	contents := make([]string, len(titles))
	for i, title := range titles {
		if i > 0 {
			if err := w.pause(ctx); err != nil {
				return nil, fmt.Errorf("generation interrupted at section %d: %w", i, err)
			}
		}
		contents[i] = w.Gateway.GenerateSection(ctx, mainTopic, title)
	}

	sections := make([]models.DocumentSection, len(titles))
	err = w.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, title := range titles {
			sections[i] = models.DocumentSection{
				ProjectID:    projectID,
				Title:        title,
				Content:      &contents[i],
				SectionOrder: i,
			}
		}
		if len(sections) == 0 {
			return nil
		}
		return tx.Create(&sections).Error
	})
	if err != nil {
		return nil, err
	}

	stored, err := orderedSections(w.quiet(ctx), projectID)
	if err != nil {
		return nil, err
	}

	log.Info("Sections generated")
	return stored, nil
}

// Refine rewrites a section's content according to prompt.
// The gateway is called first with no transaction open. The content as read
// before the call is then written as a history record in the same transaction
// that stores the refined content, including when the gateway returns
// fallback content.
func (w *Workflow) Refine(ctx context.Context, ownerID, sectionID uint64, prompt string) (*models.DocumentSection, error) {
	section, err := findSection(w.quiet(ctx), ownerID, sectionID)
	if err != nil {
		return nil, err
	}

	previous := section.Content
	refined := w.Gateway.RefineSection(ctx, section.ContentValue(), prompt)

	err = w.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		history := models.RefinementHistory{
			SectionID:       sectionID,
			Prompt:          prompt,
			PreviousContent: previous,
		}
		if err := tx.Create(&history).Error; err != nil {
			return err
		}
		return tx.Model(&models.DocumentSection{ID: sectionID}).Update("content", refined).Error
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"op":         "refine",
		"section_id": sectionID,
		"user_id":    ownerID,
	}).Info("Section refined")

	return findSection(w.quiet(ctx), ownerID, sectionID)
}

// UpdateMetadata applies the non-nil fields of patch to a section's comment and feedback
func (w *Workflow) UpdateMetadata(ctx context.Context, ownerID, sectionID uint64, patch SectionPatch) (*models.DocumentSection, error) {
	var section *models.DocumentSection
	err := w.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		section, err = findSection(tx, ownerID, sectionID)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if patch.UserNotes != nil {
			updates["comment"] = *patch.UserNotes
		}
		if patch.Comment != nil {
			updates["comment"] = *patch.Comment
		}
		if patch.Feedback != nil {
			updates["feedback"] = *patch.Feedback
		}
		if len(updates) == 0 {
			return nil
		}

		if err := tx.Model(&models.DocumentSection{ID: sectionID}).Updates(updates).Error; err != nil {
			return err
		}
		section, err = findSection(tx, ownerID, sectionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return section, nil
}

// History lists a section's refinements, newest first
func (w *Workflow) History(ctx context.Context, ownerID, sectionID uint64) ([]models.RefinementHistory, error) {
	quiet := w.quiet(ctx)
	if _, err := findSection(quiet, ownerID, sectionID); err != nil {
		return nil, err
	}

	history := []models.RefinementHistory{}
	err := quiet.Where("section_id = ?", sectionID).
		Order("created_at DESC").Order("id DESC").
		Find(&history).Error
	if err != nil {
		return nil, err
	}
	return history, nil
}

func (w *Workflow) quiet(ctx context.Context) *gorm.DB {
	return w.DB.WithContext(ctx).Session(&gorm.Session{Logger: w.DB.Logger.LogMode(logger.Silent)})
}

// pause waits Pacing, returning early with the context's error
func (w *Workflow) pause(ctx context.Context) error {
	if w.Pacing <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(w.Pacing)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// findSection loads a section only when ownerID owns its project
func findSection(tx *gorm.DB, ownerID, sectionID uint64) (*models.DocumentSection, error) {
	var section models.DocumentSection
	err := tx.Joins("JOIN projects ON projects.id = document_sections.project_id").
		Where("document_sections.id = ? AND projects.owner_id = ?", sectionID, ownerID).
		First(&section).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &section, nil
}
