// Package categories provides database operations for the category tree.
// Slugs are generated from names and deduplicated with a numeric suffix.
package categories

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"gorm.io/gorm"

	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/entities"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryInUse    = errors.New("category still has books")
)

// Repository handles all category database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new categories repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetCategoryByID retrieves a category by ID with its children.
func (r *Repository) GetCategoryByID(id uint) (*entities.Category, error) {
	var category entities.Category
	err := r.db.Preload("Children").First(&category, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

// GetCategoryBySlug retrieves a category by its slug.
func (r *Repository) GetCategoryBySlug(slug string) (*entities.Category, error) {
	var category entities.Category
	err := r.db.Preload("Children").Where("slug = ?", slug).First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

// ListCategories returns categories ordered by position then name.
// When activeOnly is set, inactive categories are excluded.
func (r *Repository) ListCategories(activeOnly bool) ([]entities.Category, error) {
	query := r.db.Model(&entities.Category{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var categories []entities.Category
	err := query.Order("position ASC, name ASC").Find(&categories).Error
	return categories, err
}

// CreateCategory inserts a new category, generating a unique slug from
// its name.
func (r *Repository) CreateCategory(category *entities.Category) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		slug, err := r.uniqueSlug(tx, category.Name, 0)
		if err != nil {
			return err
		}
		category.Slug = slug
		return tx.Create(category).Error
	})
}

// UpdateCategory updates a category's editable fields, regenerating the
// slug when the name changed.
func (r *Repository) UpdateCategory(id uint, fields map[string]any) (*entities.Category, error) {
	category, err := r.GetCategoryByID(id)
	if err != nil {
		return nil, err
	}

	err = r.db.Transaction(func(tx *gorm.DB) error {
		if name, ok := fields["name"].(string); ok && name != category.Name {
			slug, err := r.uniqueSlug(tx, name, id)
			if err != nil {
				return err
			}
			fields["slug"] = slug
		}
		return tx.Model(category).Updates(fields).Error
	})
	if err != nil {
		return nil, err
	}
	return r.GetCategoryByID(id)
}

// DeleteCategory removes a category that has no books attached.
func (r *Repository) DeleteCategory(id uint) error {
	var count int64
	err := r.db.Table("book_categories").Where("category_id = ?", id).Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrCategoryInUse
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entities.Category{}).Where("parent_id = ?", id).Update("parent_id", nil).Error; err != nil {
			return err
		}
		result := tx.Delete(&entities.Category{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrCategoryNotFound
		}
		return nil
	})
}

// GetCategoriesByIDs fetches the categories matching the given IDs.
// Fails with ErrCategoryNotFound if any ID is missing.
func (r *Repository) GetCategoriesByIDs(ids []uint) ([]entities.Category, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var categories []entities.Category
	err := r.db.Where("id IN ?", ids).Find(&categories).Error
	if err != nil {
		return nil, err
	}
	if len(categories) != len(ids) {
		return nil, ErrCategoryNotFound
	}
	return categories, nil
}

// uniqueSlug slugifies the name and appends -2, -3, ... until no other
// category (besides excludeID) holds the slug.
func (r *Repository) uniqueSlug(tx *gorm.DB, name string, excludeID uint) (string, error) {
	base := Slugify(name)
	slug := base
	for i := 2; ; i++ {
		var count int64
		query := tx.Model(&entities.Category{}).Where("slug = ?", slug)
		if excludeID != 0 {
			query = query.Where("id <> ?", excludeID)
		}
		if err := query.Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

// Slugify lowercases the name and collapses every non-alphanumeric run
// into a single hyphen.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		slug = "category"
	}
	return slug
}
