// Package authors provides database operations for catalog authors,
// including the pending-validation flow for self-registered authors.
package authors

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/entities"
)

var (
	ErrAuthorNotFound = errors.New("author not found")
	ErrAuthorExists   = errors.New("author already exists")
	ErrAuthorHasBooks = errors.New("author still has books")
)

// Repository handles all author database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new authors repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetAuthorByID retrieves an author by ID.
func (r *Repository) GetAuthorByID(id uint) (*entities.Author, error) {
	var author entities.Author
	err := r.db.First(&author, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAuthorNotFound
		}
		return nil, err
	}
	return &author, nil
}

// GetAuthorByUserID retrieves the author profile linked to a user
// account, if any.
func (r *Repository) GetAuthorByUserID(userID uint) (*entities.Author, error) {
	var author entities.Author
	err := r.db.Where("user_id = ?", userID).First(&author).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAuthorNotFound
		}
		return nil, err
	}
	return &author, nil
}

// ListAuthors returns authors, optionally filtered by status, ordered by
// name.
func (r *Repository) ListAuthors(status entities.AuthorStatus) ([]entities.Author, error) {
	query := r.db.Model(&entities.Author{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var authors []entities.Author
	err := query.Order("name ASC").Find(&authors).Error
	return authors, err
}

// CreateAuthor inserts a new author. Names are unique case-insensitively.
func (r *Repository) CreateAuthor(author *entities.Author) error {
	var count int64
	err := r.db.Model(&entities.Author{}).
		Where("LOWER(name) = LOWER(?)", author.Name).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrAuthorExists
	}
	return r.db.Create(author).Error
}

// UpdateAuthor updates an author's editable fields.
func (r *Repository) UpdateAuthor(id uint, fields map[string]any) error {
	result := r.db.Model(&entities.Author{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAuthorNotFound
	}
	return nil
}

// Validate moves a pending author to active and stamps the validation
// time. Rejecting sets status to rejected instead. The linked user
// account, if any, follows the same transition so an approved author
// can log in.
func (r *Repository) Validate(id uint, approve bool) (*entities.Author, error) {
	author, err := r.GetAuthorByID(id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	userStatus := entities.UserStatusRejected
	if approve {
		now := time.Now()
		updates["status"] = entities.AuthorStatusActive
		updates["is_validated"] = true
		updates["validated_at"] = now
		userStatus = entities.UserStatusActive
	} else {
		updates["status"] = entities.AuthorStatusRejected
		updates["is_validated"] = false
	}

	err = r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(author).Updates(updates).Error; err != nil {
			return err
		}
		if author.UserID != nil {
			return tx.Model(&entities.User{}).
				Where("id = ?", *author.UserID).
				Update("status", userStatus).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetAuthorByID(id)
}

// DeleteAuthor removes an author that has no books.
func (r *Repository) DeleteAuthor(id uint) error {
	var count int64
	err := r.db.Model(&entities.Book{}).Where("author_id = ?", id).Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrAuthorHasBooks
	}

	result := r.db.Delete(&entities.Author{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAuthorNotFound
	}
	return nil
}
