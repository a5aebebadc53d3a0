// Package ratings provides database operations for 1-5 star book
// ratings. Each user rates a book at most once; re-rating replaces the
// previous score. The book's aggregate stats are recomputed on every
// write inside the same transaction.
package ratings

import (
	"errors"

	"gorm.io/gorm"

	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/entities"
)

var (
	ErrRatingNotFound = errors.New("rating not found")
	ErrInvalidScore   = errors.New("score must be between 1 and 5")
)

// Repository handles all rating database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new ratings repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Rate records or replaces a user's rating for a book and refreshes the
// book's aggregate stats.
func (r *Repository) Rate(bookID, userID uint, score int) (*entities.Rating, error) {
	if score < 1 || score > 5 {
		return nil, ErrInvalidScore
	}

	var rating entities.Rating
	err := r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("book_id = ? AND user_id = ?", bookID, userID).First(&rating).Error
		switch {
		case err == nil:
			rating.Score = score
			if err := tx.Save(&rating).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			rating = entities.Rating{BookID: bookID, UserID: userID, Score: score}
			if err := tx.Create(&rating).Error; err != nil {
				return err
			}
		default:
			return err
		}
		return r.refreshBookStats(tx, bookID)
	})
	if err != nil {
		return nil, err
	}
	return &rating, nil
}

// GetUserRating returns a user's rating for a book.
func (r *Repository) GetUserRating(bookID, userID uint) (*entities.Rating, error) {
	var rating entities.Rating
	err := r.db.Where("book_id = ? AND user_id = ?", bookID, userID).First(&rating).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRatingNotFound
		}
		return nil, err
	}
	return &rating, nil
}

// DeleteRating removes a user's rating and refreshes book stats.
func (r *Repository) DeleteRating(bookID, userID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("book_id = ? AND user_id = ?", bookID, userID).Delete(&entities.Rating{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrRatingNotFound
		}
		return r.refreshBookStats(tx, bookID)
	})
}

// refreshBookStats recomputes the denormalized rating aggregates stored
// on the book row.
func (r *Repository) refreshBookStats(tx *gorm.DB, bookID uint) error {
	type agg struct {
		Sum   int64
		Count int64
	}
	var a agg
	err := tx.Model(&entities.Rating{}).
		Select("COALESCE(SUM(score), 0) AS sum, COUNT(*) AS count").
		Where("book_id = ?", bookID).
		Scan(&a).Error
	if err != nil {
		return err
	}

	average := 0.0
	if a.Count > 0 {
		average = float64(a.Sum) / float64(a.Count)
	}
	return tx.Model(&entities.Book{}).Where("id = ?", bookID).Updates(map[string]any{
		"rating_sum":     a.Sum,
		"rating_count":   a.Count,
		"average_rating": average,
	}).Error
}
