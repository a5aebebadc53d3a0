// Package users provides database operations for user accounts and
// moderation: warnings, bans and pending-author validation.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.GetUserByID(42)
package users

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/entities"
)

var ErrUserNotFound = errors.New("user not found")

// ListFilter selects users for the admin listing.
type ListFilter struct {
	Role   entities.UserRole
	Status entities.UserStatus
	Search string // matches username or email
	Page   int
	Limit  int
}

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(id uint) (*entities.User, error) {
	var user entities.User
	err := r.db.First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by username.
func (r *Repository) GetUserByUsername(username string) (*entities.User, error) {
	var user entities.User
	err := r.db.Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// ListUsers returns one page of users matching the filter, newest first,
// plus the total matching count.
func (r *Repository) ListUsers(f ListFilter) ([]entities.User, int64, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 20
	}

	query := r.db.Model(&entities.User{})
	if f.Role != "" {
		query = query.Where("role = ?", f.Role)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		query = query.Where("LOWER(username) LIKE LOWER(?) OR LOWER(email) LIKE LOWER(?)", pattern, pattern)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []entities.User
	err := query.
		Order("created_at DESC, id DESC").
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit).
		Find(&users).Error
	return users, total, err
}

// ListReadersByAuthor returns the distinct users who have borrowed any
// of an author's books. Feeds the author reader dashboard.
func (r *Repository) ListReadersByAuthor(authorID uint) ([]entities.User, error) {
	var users []entities.User
	err := r.db.
		Where("id IN (?)", r.db.Model(&entities.Loan{}).
			Distinct("user_id").
			Where("book_id IN (?)", r.db.Model(&entities.Book{}).Select("id").Where("author_id = ?", authorID))).
		Order("username ASC").
		Find(&users).Error
	return users, err
}

// AddWarning files a warning against a user and returns the new total
// warning count.
func (r *Repository) AddWarning(warning *entities.Warning) (int64, error) {
	var count int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var user entities.User
		if err := tx.First(&user, warning.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		if err := tx.Create(warning).Error; err != nil {
			return err
		}
		if err := tx.Model(&entities.Warning{}).Where("user_id = ?", warning.UserID).Count(&count).Error; err != nil {
			return err
		}
		return tx.Model(&user).Update("warnings_count", count).Error
	})
	return count, err
}

// ListWarnings returns a user's warnings, newest first.
func (r *Repository) ListWarnings(userID uint) ([]entities.Warning, error) {
	var warnings []entities.Warning
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&warnings).Error
	return warnings, err
}

// MarkWarningsRead marks all of a user's warnings as read.
func (r *Repository) MarkWarningsRead(userID uint) error {
	return r.db.Model(&entities.Warning{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
}

// HasWarningForLoanSince reports whether a warning referencing the loan
// was filed at or after the cutoff. Used by the overdue reminder task to
// avoid filing duplicates.
func (r *Repository) HasWarningForLoanSince(loanID uint, since time.Time) (bool, error) {
	var count int64
	err := r.db.Model(&entities.Warning{}).
		Where("loan_id = ? AND created_at >= ?", loanID, since).
		Count(&count).Error
	return count > 0, err
}

// BanUser marks a user as banned with a reason.
func (r *Repository) BanUser(userID uint, reason string) error {
	now := time.Now()
	result := r.db.Model(&entities.User{}).Where("id = ?", userID).Updates(map[string]any{
		"is_banned":  true,
		"ban_reason": reason,
		"banned_at":  now,
		"status":     entities.UserStatusBanned,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UnbanUser lifts a ban and restores the user to active status.
func (r *Repository) UnbanUser(userID uint) error {
	result := r.db.Model(&entities.User{}).Where("id = ?", userID).Updates(map[string]any{
		"is_banned":  false,
		"ban_reason": "",
		"banned_at":  nil,
		"status":     entities.UserStatusActive,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetStatus updates a user's account status.
func (r *Repository) SetStatus(userID uint, status entities.UserStatus) error {
	result := r.db.Model(&entities.User{}).Where("id = ?", userID).Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetRole updates a user's role.
func (r *Repository) SetRole(userID uint, role entities.UserRole) error {
	result := r.db.Model(&entities.User{}).Where("id = ?", userID).Update("role", role)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateProfile updates the user-editable profile fields.
func (r *Repository) UpdateProfile(userID uint, fields map[string]any) error {
	result := r.db.Model(&entities.User{}).Where("id = ?", userID).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
