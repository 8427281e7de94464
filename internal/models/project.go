package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Supported project document types
const (
	DocumentTypeDOCX = "docx"
	DocumentTypePPTX = "pptx"
)

// Project is a unit of authoring work bound to a topic and an output format.
// LegacySections holds the pre-structured JSON list of section titles; it is
// only consulted while the project has no DocumentSection rows.
type Project struct {
	ID             uint64            `gorm:"primaryKey;autoIncrement"`
	Title          string            `gorm:"size:255;index;not null"`
	DocumentType   string            `gorm:"size:16;not null"`
	OwnerID        uint64            `gorm:"not null;index"`
	Owner          *User             `gorm:"foreignKey:OwnerID"`
	MainTopic      *string           `gorm:"type:text"`
	Tone           *string           `gorm:"size:255"`
	TargetAudience *string           `gorm:"size:255"`
	LegacySections JSON              `gorm:"column:sections"`
	Sections       []DocumentSection `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName overrides the table name for Project
func (Project) TableName() string {
	return "projects"
}

// LegacyTitles decodes the legacy sections column
func (p *Project) LegacyTitles() ([]string, error) {
	if len(p.LegacySections.JSON) == 0 || string(p.LegacySections.JSON) == "null" {
		return []string{}, nil
	}
	var titles []string
	if err := json.Unmarshal(p.LegacySections.JSON, &titles); err != nil {
		return nil, fmt.Errorf("decode legacy sections for project %d: %w", p.ID, err)
	}
	if titles == nil {
		titles = []string{}
	}
	return titles, nil
}

// SetLegacyTitles encodes titles into the legacy sections column
func (p *Project) SetLegacyTitles(titles []string) error {
	if titles == nil {
		p.LegacySections = JSON{}
		return nil
	}
	raw, err := json.Marshal(titles)
	if err != nil {
		return err
	}
	p.LegacySections = JSON{JSON: raw}
	return nil
}
