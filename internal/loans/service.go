// Package loans owns the borrowing lifecycle: creating, extending,
// returning and status-deriving a Loan. Persistence is abstracted behind
// the Store interface so the rules can be tested against an in-memory
// fake; internal/database/loans provides the GORM implementation.
package loans

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/entities"
)

// MaxConditionNoteLen bounds the free-text condition notes recorded at
// checkout and return.
const MaxConditionNoteLen = 200

// Pagination bounds for List.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

var (
	ErrLoanNotFound      = errors.New("loan not found")
	ErrBookNotFound      = errors.New("book not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrAlreadyBorrowed   = errors.New("user already has an outstanding loan for this book")
	ErrNoCopiesAvailable = errors.New("no copies of this book are available")
	ErrAlreadyReturned   = errors.New("loan is already returned")
	ErrLoanNotActive     = errors.New("loan is not active")
	ErrDueDateRequired   = errors.New("due date is required")
	ErrInvalidDueDate    = errors.New("due date must be after the borrow date")
	ErrInvalidExtension  = errors.New("additional days must be positive")
	ErrInvalidStatus     = errors.New("invalid loan status")
	ErrConditionTooLong  = errors.New("condition note exceeds maximum length")
)

// Filter selects loans for List. Now is stamped by the service so the
// overdue bucket is computed against the same clock as the derived status.
type Filter struct {
	Status   entities.LoanStatus // empty = all buckets
	Search   string              // matches borrower username or book title
	UserID   uint                // scope to one borrower (0 = all)
	AuthorID uint                // scope to books by one catalog author (0 = all)
	Page     int
	Limit    int
	Now      time.Time
}

// Counts are the dashboard aggregates, computed over the filter's
// user/author scope but ignoring the status bucket and search term.
type Counts struct {
	Total   int64 `json:"total"`
	Active  int64 `json:"active"`
	Overdue int64 `json:"overdue"`
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// Page is one page of loans plus pagination metadata and aggregates.
type Page struct {
	Items      []entities.Loan `json:"items"`
	Pagination Pagination      `json:"pagination"`
	Counts     Counts          `json:"aggregate_counts"`
}

// Store is the persistence contract the lifecycle rules run against.
//
// CreateLoan must re-check availability at write time, inside whatever
// atomic primitive the store offers: it fails with ErrAlreadyBorrowed if
// the (book, user) pair already has an outstanding loan, and with
// ErrNoCopiesAvailable if the live count of outstanding loans for the
// book has reached the book's copy count.
type Store interface {
	CreateLoan(loan *entities.Loan) error
	GetLoan(id uint) (*entities.Loan, error)
	UpdateLoan(loan *entities.Loan) error
	ListLoans(f Filter) ([]entities.Loan, int64, Counts, error)
	FindOutstandingLoan(bookID, userID uint) (*entities.Loan, error)
	ListUserLoans(userID uint, returned *bool) ([]entities.Loan, error)
}

// Service applies the borrowing rules on top of a Store. The clock is a
// field so tests can pin time; production code uses time.Now.
type Service struct {
	store           Store
	defaultLoanDays int
	now             func() time.Time
}

func NewService(store Store, defaultLoanDays int) *Service {
	if defaultLoanDays <= 0 {
		defaultLoanDays = 14
	}
	return &Service{
		store:           store,
		defaultLoanDays: defaultLoanDays,
		now:             time.Now,
	}
}

// SetClock replaces the service clock. Intended for tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// CreateRequest carries the inputs for Create. AllowDefaultDue selects the
// reader path, which falls back to now + the configured default loan
// duration when DueAt is omitted; the admin path must supply DueAt.
type CreateRequest struct {
	BookID              uint
	UserID              uint
	DueAt               *time.Time
	ConditionAtCheckout string
	AllowDefaultDue     bool
}

// Create persists a new outstanding loan. Availability (duplicate
// outstanding loan, copy count) is enforced by the store at write time.
func (s *Service) Create(req CreateRequest) (*entities.Loan, error) {
	now := s.now()

	var due time.Time
	switch {
	case req.DueAt != nil:
		due = *req.DueAt
	case req.AllowDefaultDue:
		due = now.AddDate(0, 0, s.defaultLoanDays)
	default:
		return nil, ErrDueDateRequired
	}
	if !due.After(now) {
		return nil, ErrInvalidDueDate
	}

	condition := strings.TrimSpace(req.ConditionAtCheckout)
	if len(condition) > MaxConditionNoteLen {
		return nil, ErrConditionTooLong
	}

	loan := &entities.Loan{
		BookID:              req.BookID,
		UserID:              req.UserID,
		BorrowedAt:          now,
		DueAt:               due,
		IsReturned:          false,
		Status:              entities.LoanStatusActive,
		ConditionAtCheckout: condition,
	}

	if err := s.store.CreateLoan(loan); err != nil {
		return nil, err
	}
	return loan, nil
}

// Return records the return of an outstanding loan. Returning an already
// returned loan fails with ErrAlreadyReturned and leaves the original
// ReturnedAt untouched.
func (s *Service) Return(loanID uint, conditionAtReturn string) (*entities.Loan, error) {
	condition := strings.TrimSpace(conditionAtReturn)
	if len(condition) > MaxConditionNoteLen {
		return nil, ErrConditionTooLong
	}

	loan, err := s.store.GetLoan(loanID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if DeriveStatus(loan, now) == entities.LoanStatusReturned {
		return nil, ErrAlreadyReturned
	}

	returnedAt := now
	loan.ReturnedAt = &returnedAt
	loan.IsReturned = true
	loan.Status = entities.LoanStatusReturned
	if condition != "" {
		loan.ConditionAtReturn = condition
	}

	if err := s.store.UpdateLoan(loan); err != nil {
		return nil, err
	}
	return loan, nil
}

// Extend pushes the due date out by additionalDays. The loan must be
// active right now: status is recomputed from the clock, so an extension
// attempted after the due date has passed fails even if the stored status
// column still says "active".
func (s *Service) Extend(loanID uint, additionalDays int) (*entities.Loan, error) {
	if additionalDays <= 0 {
		return nil, ErrInvalidExtension
	}

	loan, err := s.store.GetLoan(loanID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if DeriveStatus(loan, now) != entities.LoanStatusActive {
		return nil, ErrLoanNotActive
	}

	loan.DueAt = loan.DueAt.AddDate(0, 0, additionalDays)
	loan.Status = entities.LoanStatusActive

	if err := s.store.UpdateLoan(loan); err != nil {
		return nil, err
	}
	return loan, nil
}

// OverrideStatus is the admin escape hatch. It forces the loan into the
// chosen status and keeps ReturnedAt/IsReturned consistent with it:
// "returned" stamps ReturnedAt to now, "active"/"overdue" clear it.
func (s *Service) OverrideStatus(loanID uint, status entities.LoanStatus) (*entities.Loan, error) {
	switch status {
	case entities.LoanStatusActive, entities.LoanStatusOverdue, entities.LoanStatusReturned:
	default:
		return nil, ErrInvalidStatus
	}

	loan, err := s.store.GetLoan(loanID)
	if err != nil {
		return nil, err
	}

	if status == entities.LoanStatusReturned {
		returnedAt := s.now()
		loan.ReturnedAt = &returnedAt
		loan.IsReturned = true
	} else {
		loan.ReturnedAt = nil
		loan.IsReturned = false
	}
	loan.Status = status

	if err := s.store.UpdateLoan(loan); err != nil {
		return nil, err
	}
	return loan, nil
}

// Get fetches a loan with its status freshly derived.
func (s *Service) Get(loanID uint) (*entities.Loan, error) {
	loan, err := s.store.GetLoan(loanID)
	if err != nil {
		return nil, err
	}
	refreshStatus(loan, s.now())
	return loan, nil
}

// List returns one page of loans matching the filter, most recently
// borrowed first, with dashboard aggregates.
func (s *Service) List(f Filter) (*Page, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	f.Now = s.now()

	items, total, counts, err := s.store.ListLoans(f)
	if err != nil {
		return nil, err
	}
	for i := range items {
		refreshStatus(&items[i], f.Now)
	}

	return &Page{
		Items: items,
		Pagination: Pagination{
			Page:  f.Page,
			Limit: f.Limit,
			Total: total,
			Pages: int(math.Ceil(float64(total) / float64(f.Limit))),
		},
		Counts: counts,
	}, nil
}

// Outstanding returns the caller's outstanding loan for a book, or
// ErrLoanNotFound if there is none.
func (s *Service) Outstanding(bookID, userID uint) (*entities.Loan, error) {
	loan, err := s.store.FindOutstandingLoan(bookID, userID)
	if err != nil {
		return nil, err
	}
	refreshStatus(loan, s.now())
	return loan, nil
}

// ForUser lists a borrower's loans, optionally narrowed to outstanding or
// returned ones.
func (s *Service) ForUser(userID uint, returned *bool) ([]entities.Loan, error) {
	items, err := s.store.ListUserLoans(userID, returned)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range items {
		refreshStatus(&items[i], now)
	}
	return items, nil
}

// Now exposes the service clock for callers that need to report derived
// values (e.g. remaining days) consistent with the service's view of time.
func (s *Service) Now() time.Time {
	return s.now()
}
