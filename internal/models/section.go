package models

import (
	"time"
)

const (
	// SectionTitleMaxLength is the longest section title, in characters, the
	// title column holds.
	SectionTitleMaxLength = 512
	// SectionOrderIndex is the unique index over (project_id, section_order)
	SectionOrderIndex = "idx_section_project_order"
)

// DocumentSection is one titled, ordered unit of project content.
// SectionOrder is unique within a project and dense from zero after generation.
type DocumentSection struct {
	ID           uint64              `gorm:"primaryKey;autoIncrement" json:"id"`
	ProjectID    uint64              `gorm:"not null;uniqueIndex:idx_section_project_order,priority:1" json:"project_id"`
	Title        string              `gorm:"size:512;not null" json:"title"`
	Content      *string             `gorm:"type:text" json:"content"`
	SectionOrder int                 `gorm:"not null;uniqueIndex:idx_section_project_order,priority:2" json:"section_order"`
	Comment      *string             `gorm:"type:text" json:"comment"`
	Feedback     *string             `gorm:"size:32" json:"feedback"`
	History      []RefinementHistory `gorm:"foreignKey:SectionID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt    time.Time           `json:"-"`
	UpdatedAt    time.Time           `json:"-"`
}

// TableName overrides the table name for DocumentSection
func (DocumentSection) TableName() string {
	return "document_sections"
}

// ContentValue returns the content or the empty string when not generated
func (s *DocumentSection) ContentValue() string {
	if s.Content == nil {
		return ""
	}
	return *s.Content
}

// RefinementHistory is an immutable audit record of one refinement request.
// PreviousContent is the section content as it stood before the refinement.
type RefinementHistory struct {
	ID              uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	SectionID       uint64    `gorm:"not null;index" json:"section_id"`
	Prompt          string    `gorm:"type:text;not null" json:"prompt"`
	PreviousContent *string   `gorm:"type:text" json:"previous_content"`
	CreatedAt       time.Time `gorm:"index" json:"created_at"`
}

// TableName overrides the table name for RefinementHistory
func (RefinementHistory) TableName() string {
	return "refinement_history"
}
