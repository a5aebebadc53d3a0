// Package database opens the SQLite database, runs migrations and seeds
// the default category tree. Entity-specific operations live in the
// subpackages (books, authors, categories, comments, ratings, loans,
// users, audit).
package database

import (
	"fmt"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/database/categories"
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/entities"
)

var defaultCategories = []entities.Category{
	{Name: "Fiction", Icon: "book", Position: 1, IsActive: true},
	{Name: "Science Fiction", Icon: "rocket", Position: 2, IsActive: true},
	{Name: "Fantasy", Icon: "sparkles", Position: 3, IsActive: true},
	{Name: "Mystery", Icon: "search", Position: 4, IsActive: true},
	{Name: "Biography", Icon: "user", Position: 5, IsActive: true},
	{Name: "History", Icon: "landmark", Position: 6, IsActive: true},
	{Name: "Science", Icon: "flask", Position: 7, IsActive: true},
	{Name: "Poetry", Icon: "feather", Position: 8, IsActive: true},
}

type Database struct {
	DB *gorm.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.AutoMigrate(
		&entities.User{},
		&entities.Warning{},
		&entities.Author{},
		&entities.Category{},
		&entities.Book{},
		&entities.Loan{},
		&entities.Comment{},
		&entities.Rating{},
		&entities.AuditEvent{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	database := &Database{DB: db}

	if err := database.seedCategories(); err != nil {
		return nil, fmt.Errorf("failed to seed categories: %w", err)
	}

	log.Printf("Database initialized successfully at %s", dbPath)

	return database, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (d *Database) seedCategories() error {
	for _, category := range defaultCategories {
		category.Slug = categories.Slugify(category.Name)
		var existing entities.Category
		result := d.DB.Where("slug = ?", category.Slug).First(&existing)
		if result.Error == gorm.ErrRecordNotFound {
			if err := d.DB.Create(&category).Error; err != nil {
				return fmt.Errorf("failed to create category %s: %w", category.Name, err)
			}
			log.Printf("Created category: %s", category.Name)
		}
	}
	return nil
}
