package models

import (
	"database/sql/driver"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// JSON stores raw JSON in a column whose type suits the active dialect
type JSON struct {
	datatypes.JSON
}

// Value implements driver.Valuer; an empty document is stored as NULL
func (j JSON) Value() (driver.Value, error) {
	if len(j.JSON) == 0 {
		return nil, nil
	}
	return j.JSON.Value()
}

// Scan implements sql.Scanner
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		j.JSON = nil
		return nil
	}
	return j.JSON.Scan(value)
}

// GormDBDataType picks the column type per driver; sqlserver has no json type.
func (JSON) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	switch db.Dialector.Name() {
	case "mysql", "sqlite":
		return "JSON"
	case "postgres":
		return "JSONB"
	case "sqlserver":
		return "NVARCHAR(MAX)"
	}
	return "TEXT"
}
