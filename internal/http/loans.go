package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/audit"
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/database/authors"
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/entities"
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/loans"
)

// LoansController exposes the borrowing lifecycle over HTTP: reader
// self-service, the author dashboard view, and full admin management.
type LoansController struct {
	loans   *loans.Service
	authors *authors.Repository
	audit   *audit.Service
}

func NewLoansController(loanService *loans.Service, authorRepo *authors.Repository, auditService *audit.Service) *LoansController {
	return &LoansController{
		loans:   loanService,
		authors: authorRepo,
		audit:   auditService,
	}
}

// respondLoanError maps loan service sentinels onto HTTP status codes.
func respondLoanError(c *gin.Context, err error, context string) {
	switch {
	case errors.Is(err, loans.ErrLoanNotFound),
		errors.Is(err, loans.ErrBookNotFound),
		errors.Is(err, loans.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, loans.ErrAlreadyBorrowed),
		errors.Is(err, loans.ErrNoCopiesAvailable):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, loans.ErrAlreadyReturned),
		errors.Is(err, loans.ErrLoanNotActive),
		errors.Is(err, loans.ErrDueDateRequired),
		errors.Is(err, loans.ErrInvalidDueDate),
		errors.Is(err, loans.ErrInvalidExtension),
		errors.Is(err, loans.ErrInvalidStatus),
		errors.Is(err, loans.ErrConditionTooLong):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
	default:
		respondInternalError(c, err, context)
	}
}

type createLoanRequest struct {
	BookID              uint       `json:"book_id" binding:"required"`
	UserID              uint       `json:"user_id"`
	DueAt               *time.Time `json:"due_at"`
	ConditionAtCheckout string     `json:"condition_at_checkout"`
}

// CreateLoan borrows a book for the calling reader. The due date
// defaults to the configured loan period when omitted.
// POST /api/loans
func (lc *LoansController) CreateLoan(c *gin.Context) {
	var req createLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "book_id is required")
		return
	}

	userID := GetUserID(c)
	loan, err := lc.loans.Create(loans.CreateRequest{
		BookID:              req.BookID,
		UserID:              userID,
		DueAt:               req.DueAt,
		ConditionAtCheckout: req.ConditionAtCheckout,
		AllowDefaultDue:     true,
	})
	if err != nil {
		lc.audit.LogLoan(userID, "loan_create", "borrow failed", 0, map[string]any{"book_id": req.BookID}, err)
		respondLoanError(c, err, "create loan")
		return
	}

	lc.audit.LogLoan(userID, "loan_create", "borrowed book", loan.ID, map[string]any{"book_id": loan.BookID}, nil)
	respondCreated(c, loan)
}

// ListOwnLoans returns the calling reader's loans, optionally filtered
// by returned state.
// GET /api/loans/mine
func (lc *LoansController) ListOwnLoans(c *gin.Context) {
	var returned *bool
	switch c.Query("returned") {
	case "true":
		v := true
		returned = &v
	case "false":
		v := false
		returned = &v
	}

	items, err := lc.loans.ForUser(GetUserID(c), returned)
	if err != nil {
		respondInternalError(c, err, "list own loans")
		return
	}

	c.JSON(http.StatusOK, gin.H{"loans": items, "count": len(items)})
}

// GetOwnBookLoan reports whether the caller has an outstanding loan for
// a book, including days remaining or overdue.
// GET /api/books/:id/loan
func (lc *LoansController) GetOwnBookLoan(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	loan, err := lc.loans.Outstanding(bookID, GetUserID(c))
	if err != nil {
		if errors.Is(err, loans.ErrLoanNotFound) {
			c.JSON(http.StatusOK, gin.H{"borrowed": false})
			return
		}
		respondInternalError(c, err, "check book loan")
		return
	}

	now := lc.loans.Now()
	c.JSON(http.StatusOK, gin.H{
		"borrowed":       true,
		"loan":           loan,
		"days_remaining": loans.RemainingDays(loan, now),
		"days_overdue":   loans.OverdueDays(loan, now),
	})
}

// ReturnOwnLoan returns the caller's own loan.
// PUT /api/loans/:id/return
func (lc *LoansController) ReturnOwnLoan(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		ConditionAtReturn string `json:"condition_at_return"`
	}
	_ = c.ShouldBindJSON(&req)

	userID := GetUserID(c)
	loan, err := lc.loans.Get(id)
	if err != nil {
		respondLoanError(c, err, "return loan")
		return
	}
	if loan.UserID != userID {
		respondForbidden(c, "loan belongs to another user")
		return
	}

	returned, err := lc.loans.Return(id, req.ConditionAtReturn)
	if err != nil {
		respondLoanError(c, err, "return loan")
		return
	}

	lc.audit.LogLoan(userID, "loan_return", "returned book", id, map[string]any{"book_id": returned.BookID}, nil)
	c.JSON(http.StatusOK, returned)
}

// ListAuthorLoans lists loans of the calling author's books, with the
// same filter/search/aggregate surface as the admin listing, scoped to
// the author.
// GET /api/author/loans
func (lc *LoansController) ListAuthorLoans(c *gin.Context) {
	author, err := lc.authors.GetAuthorByUserID(GetUserID(c))
	if err != nil {
		if errors.Is(err, authors.ErrAuthorNotFound) {
			respondForbidden(c, "no author profile for this account")
			return
		}
		respondInternalError(c, err, "author loans")
		return
	}

	page, err2 := lc.loans.List(lc.listFilter(c, 0, author.ID))
	if err2 != nil {
		respondInternalError(c, err2, "author loans")
		return
	}

	c.JSON(http.StatusOK, page)
}

// --- Admin endpoints ---

// AdminListLoans lists all loans with status filter, search, pagination
// and aggregate counts.
// GET /api/admin/loans
func (lc *LoansController) AdminListLoans(c *gin.Context) {
	var userID uint
	if userStr := c.Query("user_id"); userStr != "" {
		id, err := parseUintSilent(userStr)
		if err != nil {
			respondBadRequest(c, "invalid user_id")
			return
		}
		userID = id
	}

	page, err := lc.loans.List(lc.listFilter(c, userID, 0))
	if err != nil {
		respondInternalError(c, err, "admin list loans")
		return
	}

	c.JSON(http.StatusOK, page)
}

// AdminGetLoan returns one loan with a freshly derived status.
// GET /api/admin/loans/:id
func (lc *LoansController) AdminGetLoan(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	loan, err := lc.loans.Get(id)
	if err != nil {
		respondLoanError(c, err, "admin get loan")
		return
	}

	c.JSON(http.StatusOK, loan)
}

// AdminCreateLoan creates a loan for any user. The due date is required
// on this path.
// POST /api/admin/loans
func (lc *LoansController) AdminCreateLoan(c *gin.Context) {
	var req createLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "book_id is required")
		return
	}
	if req.UserID == 0 {
		respondBadRequest(c, "user_id is required")
		return
	}

	adminID := GetUserID(c)
	loan, err := lc.loans.Create(loans.CreateRequest{
		BookID:              req.BookID,
		UserID:              req.UserID,
		DueAt:               req.DueAt,
		ConditionAtCheckout: req.ConditionAtCheckout,
		AllowDefaultDue:     false,
	})
	if err != nil {
		lc.audit.LogLoan(adminID, "loan_create", "admin borrow failed", 0, map[string]any{"book_id": req.BookID, "user_id": req.UserID}, err)
		respondLoanError(c, err, "admin create loan")
		return
	}

	lc.audit.LogLoan(adminID, "loan_create", "created loan for user", loan.ID, map[string]any{"book_id": loan.BookID, "user_id": loan.UserID}, nil)
	respondCreated(c, loan)
}

// AdminReturnLoan marks any loan returned.
// PUT /api/admin/loans/:id/return
func (lc *LoansController) AdminReturnLoan(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		ConditionAtReturn string `json:"condition_at_return"`
	}
	_ = c.ShouldBindJSON(&req)

	loan, err := lc.loans.Return(id, req.ConditionAtReturn)
	if err != nil {
		respondLoanError(c, err, "admin return loan")
		return
	}

	lc.audit.LogLoan(GetUserID(c), "loan_return", "admin returned loan", id, map[string]any{"book_id": loan.BookID, "user_id": loan.UserID}, nil)
	c.JSON(http.StatusOK, loan)
}

// AdminExtendLoan pushes the due date of an active loan forward.
// PUT /api/admin/loans/:id/extend
func (lc *LoansController) AdminExtendLoan(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		AdditionalDays int `json:"additional_days" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "additional_days is required")
		return
	}

	loan, err := lc.loans.Extend(id, req.AdditionalDays)
	if err != nil {
		respondLoanError(c, err, "extend loan")
		return
	}

	lc.audit.LogLoan(GetUserID(c), "loan_extend", "extended loan", id, map[string]any{"additional_days": req.AdditionalDays}, nil)
	c.JSON(http.StatusOK, loan)
}

// AdminOverrideLoanStatus force-sets a loan's status, adjusting the
// underlying returned state to match.
// PUT /api/admin/loans/:id/status
func (lc *LoansController) AdminOverrideLoanStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "status is required")
		return
	}

	loan, err := lc.loans.OverrideStatus(id, entities.LoanStatus(req.Status))
	if err != nil {
		respondLoanError(c, err, "override loan status")
		return
	}

	lc.audit.LogLoan(GetUserID(c), "loan_status_override", "overrode loan status", id, map[string]any{"status": req.Status}, nil)
	c.JSON(http.StatusOK, loan)
}

// listFilter assembles a loans.Filter from the shared query parameters.
func (lc *LoansController) listFilter(c *gin.Context, userID, authorID uint) loans.Filter {
	page, limit := parsePagination(c, loans.DefaultPageSize, loans.MaxPageSize)
	return loans.Filter{
		Status:   entities.LoanStatus(c.Query("status")),
		Search:   c.Query("search"),
		UserID:   userID,
		AuthorID: authorID,
		Page:     page,
		Limit:    limit,
	}
}
