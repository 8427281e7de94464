package main

import (
	"fmt"
	"log"

	"github.com/localnerve/docauthor/internal/database"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Prints the SQLite DDL GORM generates for the docauthor models
func main() {
	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{})
	if err != nil {
		log.Fatal(err)
	}

	if err := database.AutoMigrate(db); err != nil {
		log.Fatal(err)
	}

	type entry struct {
		Type string
		Name string
		SQL  string
	}
	var entries []entry
	err = db.Raw("SELECT type, name, sql FROM sqlite_master WHERE sql IS NOT NULL AND name NOT LIKE 'sqlite_%' ORDER BY type DESC, name").
		Scan(&entries).Error
	if err != nil {
		log.Fatal(err)
	}

	for _, e := range entries {
		fmt.Printf("\n=== %s: %s ===\n", e.Type, e.Name)
		fmt.Println(e.SQL)
	}
}
