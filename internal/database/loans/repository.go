// Package loans provides database operations for the borrowing lifecycle.
//
// The repository implements the loans.Store interface defined in
// internal/loans, mapping gorm.ErrRecordNotFound onto the package's
// sentinel errors so callers never see GORM internals.
//
//	var _ loans.Store = (*Repository)(nil)
package loans

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/entities"
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/loans"
)

// Repository handles all loan database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new loans repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateLoan inserts a new outstanding loan. Availability is re-checked
// inside the transaction: the book must exist, the borrower must exist,
// the (book, user) pair must not already have an outstanding loan, and
// the number of outstanding loans must be below the book's copy count.
func (r *Repository) CreateLoan(loan *entities.Loan) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var book entities.Book
		if err := tx.First(&book, loan.BookID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return loans.ErrBookNotFound
			}
			return err
		}

		var user entities.User
		if err := tx.First(&user, loan.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return loans.ErrUserNotFound
			}
			return err
		}

		var duplicate int64
		err := tx.Model(&entities.Loan{}).
			Where("book_id = ? AND user_id = ? AND is_returned = ?", loan.BookID, loan.UserID, false).
			Count(&duplicate).Error
		if err != nil {
			return err
		}
		if duplicate > 0 {
			return loans.ErrAlreadyBorrowed
		}

		var outstanding int64
		err = tx.Model(&entities.Loan{}).
			Where("book_id = ? AND is_returned = ?", loan.BookID, false).
			Count(&outstanding).Error
		if err != nil {
			return err
		}
		if outstanding >= int64(book.Copies) {
			return loans.ErrNoCopiesAvailable
		}

		return tx.Create(loan).Error
	})
}

// GetLoan retrieves a loan by ID with its book and borrower preloaded.
func (r *Repository) GetLoan(id uint) (*entities.Loan, error) {
	var loan entities.Loan
	err := r.db.Preload("Book").Preload("Book.Author").Preload("User").First(&loan, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, loans.ErrLoanNotFound
		}
		return nil, err
	}
	return &loan, nil
}

// UpdateLoan persists lifecycle changes (return, extension, override).
func (r *Repository) UpdateLoan(loan *entities.Loan) error {
	return r.db.Save(loan).Error
}

// ListLoans returns one page of loans matching the filter plus the total
// row count and the user/author-scoped aggregates. The status buckets are
// computed against f.Now rather than the stored status column so rows that
// went overdue since their last write land in the right bucket.
func (r *Repository) ListLoans(f loans.Filter) ([]entities.Loan, int64, loans.Counts, error) {
	var counts loans.Counts

	scoped := r.scopeQuery(f)

	if err := scoped.Session(&gorm.Session{}).Count(&counts.Total).Error; err != nil {
		return nil, 0, counts, err
	}
	err := scoped.Session(&gorm.Session{}).
		Where("is_returned = ? AND due_at >= ?", false, f.Now).
		Count(&counts.Active).Error
	if err != nil {
		return nil, 0, counts, err
	}
	err = scoped.Session(&gorm.Session{}).
		Where("is_returned = ? AND due_at < ?", false, f.Now).
		Count(&counts.Overdue).Error
	if err != nil {
		return nil, 0, counts, err
	}

	query := r.scopeQuery(f)
	query = applyStatusBucket(query, f.Status, f.Now)
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		query = query.Where(
			"user_id IN (?) OR book_id IN (?)",
			r.db.Model(&entities.User{}).Select("id").Where("LOWER(username) LIKE LOWER(?)", pattern),
			r.db.Model(&entities.Book{}).Select("id").Where("LOWER(title) LIKE LOWER(?)", pattern),
		)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, counts, err
	}

	var items []entities.Loan
	err = query.
		Preload("Book").Preload("Book.Author").Preload("User").
		Order("borrowed_at DESC, id DESC").
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit).
		Find(&items).Error
	if err != nil {
		return nil, 0, counts, err
	}
	return items, total, counts, nil
}

// scopeQuery narrows loans to the filter's borrower or catalog author.
func (r *Repository) scopeQuery(f loans.Filter) *gorm.DB {
	query := r.db.Model(&entities.Loan{})
	if f.UserID != 0 {
		query = query.Where("user_id = ?", f.UserID)
	}
	if f.AuthorID != 0 {
		query = query.Where(
			"book_id IN (?)",
			r.db.Model(&entities.Book{}).Select("id").Where("author_id = ?", f.AuthorID),
		)
	}
	return query
}

func applyStatusBucket(query *gorm.DB, status entities.LoanStatus, now time.Time) *gorm.DB {
	switch status {
	case entities.LoanStatusActive:
		return query.Where("is_returned = ? AND due_at >= ?", false, now)
	case entities.LoanStatusOverdue:
		return query.Where("is_returned = ? AND due_at < ?", false, now)
	case entities.LoanStatusReturned:
		return query.Where("is_returned = ?", true)
	default:
		return query
	}
}

// FindOutstandingLoan returns the borrower's outstanding loan for a book.
func (r *Repository) FindOutstandingLoan(bookID, userID uint) (*entities.Loan, error) {
	var loan entities.Loan
	err := r.db.Preload("Book").
		Where("book_id = ? AND user_id = ? AND is_returned = ?", bookID, userID, false).
		First(&loan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, loans.ErrLoanNotFound
		}
		return nil, err
	}
	return &loan, nil
}

// ListUserLoans returns a borrower's loans, optionally narrowed to
// outstanding (returned = false) or returned ones.
func (r *Repository) ListUserLoans(userID uint, returned *bool) ([]entities.Loan, error) {
	query := r.db.Preload("Book").Preload("Book.Author").Where("user_id = ?", userID)
	if returned != nil {
		query = query.Where("is_returned = ?", *returned)
	}
	var items []entities.Loan
	err := query.Order("borrowed_at DESC, id DESC").Find(&items).Error
	return items, err
}

// ListOverdueLoans returns all outstanding loans past their due date.
// Used by the reminder task.
func (r *Repository) ListOverdueLoans(now time.Time) ([]entities.Loan, error) {
	var items []entities.Loan
	err := r.db.Preload("Book").Preload("User").
		Where("is_returned = ? AND due_at < ?", false, now).
		Order("due_at ASC").
		Find(&items).Error
	return items, err
}

// OutstandingCount returns the number of outstanding loans for a book.
func (r *Repository) OutstandingCount(bookID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entities.Loan{}).
		Where("book_id = ? AND is_returned = ?", bookID, false).
		Count(&count).Error
	return count, err
}
