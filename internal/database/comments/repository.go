// Package comments provides database operations for book comments and
// their moderation state.
package comments

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/entities"
)

var (
	ErrCommentNotFound = errors.New("comment not found")
	ErrNotOwner        = errors.New("comment belongs to another user")
)

// Repository handles all comment database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new comments repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetCommentByID retrieves a comment by ID.
func (r *Repository) GetCommentByID(id uint) (*entities.Comment, error) {
	var comment entities.Comment
	err := r.db.Preload("User").First(&comment, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	return &comment, nil
}

// ListBookComments returns a book's comments, newest first. When
// visibleOnly is set, moderated-away comments are excluded.
func (r *Repository) ListBookComments(bookID uint, visibleOnly bool) ([]entities.Comment, error) {
	query := r.db.Preload("User").Where("book_id = ?", bookID)
	if visibleOnly {
		query = query.Where("is_visible = ?", true)
	}
	var comments []entities.Comment
	err := query.Order("created_at DESC, id DESC").Find(&comments).Error
	return comments, err
}

// ListAuthorComments returns visible comments on any of an author's
// books, newest first. Feeds the author review dashboard.
func (r *Repository) ListAuthorComments(authorID uint) ([]entities.Comment, error) {
	var comments []entities.Comment
	err := r.db.Preload("User").Preload("Book").
		Where("is_visible = ?", true).
		Where("book_id IN (?)", r.db.Model(&entities.Book{}).Select("id").Where("author_id = ?", authorID)).
		Order("created_at DESC, id DESC").
		Find(&comments).Error
	return comments, err
}

// ListUserComments returns all comments written by a user, newest first.
func (r *Repository) ListUserComments(userID uint) ([]entities.Comment, error) {
	var comments []entities.Comment
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC, id DESC").Find(&comments).Error
	return comments, err
}

// CreateComment inserts a new comment and bumps the book's comment count.
func (r *Repository) CreateComment(comment *entities.Comment) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		return r.refreshCommentCount(tx, comment.BookID)
	})
}

// UpdateComment replaces a comment's content. Only the owner may edit.
func (r *Repository) UpdateComment(id, userID uint, content string) (*entities.Comment, error) {
	comment, err := r.GetCommentByID(id)
	if err != nil {
		return nil, err
	}
	if comment.UserID != userID {
		return nil, ErrNotOwner
	}
	if err := r.db.Model(comment).Update("content", content).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// DeleteComment removes a comment and refreshes the book's comment count.
// A zero userID skips the ownership check (admin path).
func (r *Repository) DeleteComment(id, userID uint) error {
	comment, err := r.GetCommentByID(id)
	if err != nil {
		return err
	}
	if userID != 0 && comment.UserID != userID {
		return ErrNotOwner
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(comment).Error; err != nil {
			return err
		}
		return r.refreshCommentCount(tx, comment.BookID)
	})
}

// Moderate hides or restores a comment, recording who moderated it and
// why.
func (r *Repository) Moderate(id, moderatorID uint, visible bool, reason string) (*entities.Comment, error) {
	comment, err := r.GetCommentByID(id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	updates := map[string]any{
		"is_visible":        visible,
		"moderated_at":      now,
		"moderator_id":      moderatorID,
		"moderation_reason": reason,
	}
	if err := r.db.Model(comment).Updates(updates).Error; err != nil {
		return nil, err
	}
	if err := r.refreshCommentCount(r.db, comment.BookID); err != nil {
		return nil, err
	}
	return comment, nil
}

// ListModerated returns hidden comments for the admin moderation queue.
func (r *Repository) ListModerated() ([]entities.Comment, error) {
	var comments []entities.Comment
	err := r.db.Preload("User").
		Where("is_visible = ?", false).
		Order("moderated_at DESC").
		Find(&comments).Error
	return comments, err
}

// refreshCommentCount recounts a book's visible comments.
func (r *Repository) refreshCommentCount(tx *gorm.DB, bookID uint) error {
	var count int64
	err := tx.Model(&entities.Comment{}).
		Where("book_id = ? AND is_visible = ?", bookID, true).
		Count(&count).Error
	if err != nil {
		return err
	}
	return tx.Model(&entities.Book{}).Where("id = ?", bookID).Update("comment_count", count).Error
}
