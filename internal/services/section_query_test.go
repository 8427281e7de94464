package services

import (
	"testing"

	"github.com/localnerve/docauthor/internal/models"
	"github.com/localnerve/docauthor/internal/testsupport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func orderedSectionsSQL(db *gorm.DB) string {
	return db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var sections []models.DocumentSection
		return tx.Scopes(sectionsInOrder).Where("project_id = ?", 1).Order("section_order").Find(&sections)
	})
}

func TestSectionsInOrderUsesIndexOnMySQL(t *testing.T) {
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "docauthor:docauthor@tcp(127.0.0.1:3306)/docauthor?parseTime=true",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{DisableAutomaticPing: true})
	require.NoError(t, err)

	sql := orderedSectionsSQL(db)
	assert.Contains(t, sql, "/* ordered_sections */")
	assert.Contains(t, sql, "FROM `document_sections` USE INDEX (`"+models.SectionOrderIndex+"`)")
}

func TestSectionsInOrderSkipsIndexHintElsewhere(t *testing.T) {
	sql := orderedSectionsSQL(testsupport.NewSQLiteDB(t))
	assert.Contains(t, sql, "/* ordered_sections */")
	assert.NotContains(t, sql, "USE INDEX")
}
