// Package books provides database operations for the book catalog.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	book, err := repo.GetBookByID(123)
package books

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/entities"
)

var (
	ErrBookNotFound  = errors.New("book not found")
	ErrISBNExists    = errors.New("a book with this ISBN already exists")
	ErrNotPublished  = errors.New("book is not published")
	ErrInvalidStatus = errors.New("invalid book status")
)

// ListFilter selects books for listing endpoints. VisibleOnly restricts
// results to published books for the public catalog.
type ListFilter struct {
	Search      string // matches title or description
	CategoryID  uint
	AuthorID    uint
	Status      entities.BookStatus
	VisibleOnly bool
	Page        int
	Limit       int
}

// Repository handles all book catalog database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetBookByID retrieves a book by ID with its author and categories.
func (r *Repository) GetBookByID(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Preload("Author").Preload("Categories").First(&book, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	return &book, nil
}

// GetPublishedBookByID retrieves a book only if it is published. Used by
// public catalog endpoints so hidden and draft books stay invisible.
func (r *Repository) GetPublishedBookByID(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Preload("Author").Preload("Categories").
		Where("status = ?", entities.BookStatusPublished).
		First(&book, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	return &book, nil
}

// ListBooks returns one page of books matching the filter, newest first,
// plus the total matching count.
func (r *Repository) ListBooks(f ListFilter) ([]entities.Book, int64, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 20
	}

	query := r.db.Model(&entities.Book{})
	if f.VisibleOnly {
		query = query.Where("status = ?", entities.BookStatusPublished)
	} else if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.AuthorID != 0 {
		query = query.Where("author_id = ?", f.AuthorID)
	}
	if f.CategoryID != 0 {
		query = query.Where(
			"id IN (?)",
			r.db.Table("book_categories").Select("book_id").Where("category_id = ?", f.CategoryID),
		)
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		query = query.Where("LOWER(title) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?)", pattern, pattern)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var books []entities.Book
	err := query.
		Preload("Author").Preload("Categories").
		Order("created_at DESC, id DESC").
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit).
		Find(&books).Error
	return books, total, err
}

// CreateBook inserts a new book with its category associations.
func (r *Repository) CreateBook(book *entities.Book) error {
	if book.ISBN != "" {
		var count int64
		err := r.db.Model(&entities.Book{}).Where("isbn = ?", book.ISBN).Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrISBNExists
		}
	}
	return r.db.Create(book).Error
}

// UpdateBook updates a book's editable fields and replaces its category
// associations when categories are provided.
func (r *Repository) UpdateBook(book *entities.Book, categories []entities.Category) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Categories", "Author").Save(book).Error; err != nil {
			return err
		}
		if categories != nil {
			return tx.Model(book).Association("Categories").Replace(categories)
		}
		return nil
	})
}

// SetStatus moves a book through its visibility lifecycle. Publishing
// stamps PublishedAt on first publish; hiding records the reason.
func (r *Repository) SetStatus(id uint, status entities.BookStatus, hiddenReason string) (*entities.Book, error) {
	book, err := r.GetBookByID(id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{"status": status}
	switch status {
	case entities.BookStatusPublished:
		updates["hidden_reason"] = ""
		if book.PublishedAt == nil {
			now := time.Now()
			updates["published_at"] = now
		}
	case entities.BookStatusHidden:
		updates["hidden_reason"] = hiddenReason
	case entities.BookStatusDraft:
		updates["hidden_reason"] = ""
	default:
		return nil, ErrInvalidStatus
	}

	if err := r.db.Model(book).Updates(updates).Error; err != nil {
		return nil, err
	}
	return r.GetBookByID(id)
}

// DeleteBook soft deletes a book and detaches its categories.
func (r *Repository) DeleteBook(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&entities.Book{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrBookNotFound
		}
		return tx.Exec("DELETE FROM book_categories WHERE book_id = ?", id).Error
	})
}

// FindBookByISBN finds a book by ISBN.
func (r *Repository) FindBookByISBN(isbn string) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Where("isbn = ?", isbn).First(&book).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	return &book, nil
}

// ListBooksByAuthor returns all of an author's books regardless of
// status. Used by the author dashboard.
func (r *Repository) ListBooksByAuthor(authorID uint) ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Preload("Categories").
		Where("author_id = ?", authorID).
		Order("created_at DESC, id DESC").
		Find(&books).Error
	return books, err
}

// ListRecommended returns the top published books by average rating,
// breaking ties by rating volume.
func (r *Repository) ListRecommended(limit int) ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Preload("Author").Preload("Categories").
		Where("status = ?", entities.BookStatusPublished).
		Order("average_rating DESC, rating_count DESC, id ASC").
		Limit(limit).
		Find(&books).Error
	return books, err
}

// GetStats returns catalog totals for the admin dashboard.
func (r *Repository) GetStats() (total, published, hidden int64, err error) {
	err = r.db.Model(&entities.Book{}).Count(&total).Error
	if err != nil {
		return
	}
	err = r.db.Model(&entities.Book{}).Where("status = ?", entities.BookStatusPublished).Count(&published).Error
	if err != nil {
		return
	}
	err = r.db.Model(&entities.Book{}).Where("status = ?", entities.BookStatusHidden).Count(&hidden).Error
	return
}
