// projects.go
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
	"encoding/json"
	"errors"

	"github.com/localnerve/docauthor/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/hints"
)

// ProjectInput carries the fields of a new project
type ProjectInput struct {
	Title          string
	DocumentType   string
	MainTopic      *string
	Tone           *string
	TargetAudience *string
	Sections       []string
}

// SectionsKind tags which representation a ProjectSections holds
type SectionsKind int

const (
	// SectionsLegacy holds the plain title list stored on the project row
	SectionsLegacy SectionsKind = iota
	// SectionsStructured holds generated DocumentSection rows
	SectionsStructured
)

// ProjectSections is the section data of a project resolved at read time.
// Structured sections, when any exist, take precedence over legacy titles.
type ProjectSections struct {
	Kind     SectionsKind
	Titles   []string
	Sections []models.DocumentSection
}

// MarshalJSON writes either the title list or the section objects, never null
func (s ProjectSections) MarshalJSON() ([]byte, error) {
	if s.Kind == SectionsStructured {
		if s.Sections == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(s.Sections)
	}
	if s.Titles == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.Titles)
}

// ProjectView is a project as returned to its owner
type ProjectView struct {
	ID             uint64          `json:"id"`
	Title          string          `json:"title"`
	DocumentType   string          `json:"document_type"`
	OwnerID        uint64          `json:"owner_id"`
	MainTopic      *string         `json:"main_topic"`
	Tone           *string         `json:"tone"`
	TargetAudience *string         `json:"target_audience"`
	Sections       ProjectSections `json:"sections" swaggertype:"array,string"`
}

// newProjectView reconciles the legacy title list with structured sections
func newProjectView(p *models.Project, sections []models.DocumentSection) (ProjectView, error) {
	view := ProjectView{
		ID:             p.ID,
		Title:          p.Title,
		DocumentType:   p.DocumentType,
		OwnerID:        p.OwnerID,
		MainTopic:      p.MainTopic,
		Tone:           p.Tone,
		TargetAudience: p.TargetAudience,
	}

	if len(sections) > 0 {
		view.Sections = ProjectSections{Kind: SectionsStructured, Sections: sections}
		return view, nil
	}

	titles, err := p.LegacyTitles()
	if err != nil {
		return view, err
	}
	view.Sections = ProjectSections{Kind: SectionsLegacy, Titles: titles}
	return view, nil
}

// CreateProject stores a project for owner with its optional legacy section titles
func CreateProject(ctx context.Context, db *gorm.DB, ownerID uint64, in ProjectInput) (*ProjectView, error) {
	project := models.Project{
		Title:          in.Title,
		DocumentType:   in.DocumentType,
		OwnerID:        ownerID,
		MainTopic:      in.MainTopic,
		Tone:           in.Tone,
		TargetAudience: in.TargetAudience,
	}
	if len(in.Sections) > 0 {
		if err := project.SetLegacyTitles(in.Sections); err != nil {
			return nil, err
		}
	}

	if err := db.WithContext(ctx).Create(&project).Error; err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"project_id": project.ID,
		"user_id":    ownerID,
	}).Info("Project created")

	view, err := newProjectView(&project, nil)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// ListProjects returns owner's projects, newest first
func ListProjects(ctx context.Context, db *gorm.DB, ownerID uint64) ([]ProjectView, error) {
	quiet := db.WithContext(ctx).Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)})

	var projects []models.Project
	if err := quiet.Where("owner_id = ?", ownerID).Order("id DESC").Find(&projects).Error; err != nil {
		return nil, err
	}
	if len(projects) == 0 {
		return []ProjectView{}, nil
	}

	ids := make([]uint64, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
	}

	var sections []models.DocumentSection
	if err := quiet.Scopes(sectionsInOrder).
		Where("project_id IN ?", ids).
		Order("project_id").Order("section_order").
		Find(&sections).Error; err != nil {
		return nil, err
	}

	byProject := make(map[uint64][]models.DocumentSection, len(projects))
	for _, s := range sections {
		byProject[s.ProjectID] = append(byProject[s.ProjectID], s)
	}

	views := make([]ProjectView, 0, len(projects))
	for i := range projects {
		view, err := newProjectView(&projects[i], byProject[projects[i].ID])
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// GetProject returns one of owner's projects
func GetProject(ctx context.Context, db *gorm.DB, ownerID, projectID uint64) (*ProjectView, error) {
	quiet := db.WithContext(ctx).Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)})

	project, err := findProject(quiet, ownerID, projectID)
	if err != nil {
		return nil, err
	}
	sections, err := orderedSections(quiet, projectID)
	if err != nil {
		return nil, err
	}

	view, err := newProjectView(project, sections)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// DeleteProject removes a project with its sections and their history
func DeleteProject(ctx context.Context, db *gorm.DB, ownerID, projectID uint64) error {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findProject(tx, ownerID, projectID); err != nil {
			return err
		}
		if err := deleteSections(tx, projectID); err != nil {
			return err
		}
		return tx.Delete(&models.Project{}, projectID).Error
	})
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"project_id": projectID,
		"user_id":    ownerID,
	}).Info("Project deleted")
	return nil
}

// findProject loads a project only when ownerID owns it
func findProject(tx *gorm.DB, ownerID, projectID uint64) (*models.Project, error) {
	var project models.Project
	err := tx.Where("id = ? AND owner_id = ?", projectID, ownerID).First(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &project, nil
}

// sectionsInOrder tags section reads and, on MySQL, pins them to the
// (project_id, section_order) unique index.
func sectionsInOrder(tx *gorm.DB) *gorm.DB {
	tx = tx.Clauses(hints.Comment("select", "ordered_sections"))
	if tx.Dialector.Name() == "mysql" {
		tx = tx.Clauses(hints.UseIndex(models.SectionOrderIndex))
	}
	return tx
}

// orderedSections returns a project's sections by section_order
func orderedSections(tx *gorm.DB, projectID uint64) ([]models.DocumentSection, error) {
	var sections []models.DocumentSection
	err := tx.Scopes(sectionsInOrder).
		Where("project_id = ?", projectID).
		Order("section_order").
		Find(&sections).Error
	return sections, err
}

// deleteSections removes refinement history, then the sections of a project
func deleteSections(tx *gorm.DB, projectID uint64) error {
	sectionIDs := tx.Model(&models.DocumentSection{}).Select("id").Where("project_id = ?", projectID)
	if err := tx.Where("section_id IN (?)", sectionIDs).Delete(&models.RefinementHistory{}).Error; err != nil {
		return err
	}
	return tx.Where("project_id = ?", projectID).Delete(&models.DocumentSection{}).Error
}
