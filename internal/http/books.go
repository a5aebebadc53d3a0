package http

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/audit"
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/covers"
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/database/authors"
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/database/books"
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/database/categories"
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/entities"
)

// BooksController serves the public catalog plus author and admin
// book management.
type BooksController struct {
	books      *books.Repository
	authors    *authors.Repository
	categories *categories.Repository
	audit      *audit.Service
	covers     *covers.Cache
}

func NewBooksController(bookRepo *books.Repository, authorRepo *authors.Repository, categoryRepo *categories.Repository, auditService *audit.Service, coverCache *covers.Cache) *BooksController {
	return &BooksController{
		books:      bookRepo,
		authors:    authorRepo,
		categories: categoryRepo,
		audit:      auditService,
		covers:     coverCache,
	}
}

// ListBooks returns published books with search, category filter and pagination.
// GET /api/books
func (bc *BooksController) ListBooks(c *gin.Context) {
	page, limit := parsePagination(c, 20, 100)

	filter := books.ListFilter{
		Search:      c.Query("search"),
		Status:      entities.BookStatusPublished,
		VisibleOnly: true,
		Page:        page,
		Limit:       limit,
	}
	if categoryStr := c.Query("category_id"); categoryStr != "" {
		id, err := strconv.ParseUint(categoryStr, 10, 32)
		if err != nil {
			respondBadRequest(c, "invalid category_id")
			return
		}
		filter.CategoryID = uint(id)
	}

	items, total, err := bc.books.ListBooks(filter)
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:       items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages(total, limit),
	})
}

// GetBook returns a single published book.
// GET /api/books/:id
func (bc *BooksController) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.books.GetPublishedBookByID(id)
	if err != nil {
		if errors.Is(err, books.ErrBookNotFound) || errors.Is(err, books.ErrNotPublished) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "get book")
		return
	}

	c.JSON(http.StatusOK, book)
}

// GetBookCover streams the locally cached cover image for a published
// book, falling back to a redirect when caching is unavailable.
// GET /api/books/:id/cover
func (bc *BooksController) GetBookCover(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.books.GetPublishedBookByID(id)
	if err != nil {
		if errors.Is(err, books.ErrBookNotFound) || errors.Is(err, books.ErrNotPublished) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "get book cover")
		return
	}

	if book.CoverURL == "" {
		respondNotFound(c, "cover")
		return
	}

	if bc.covers == nil {
		c.Redirect(http.StatusFound, book.CoverURL)
		return
	}

	path, err := bc.covers.GetCover(book.ID, book.CoverURL)
	if err != nil || path == "" {
		c.Redirect(http.StatusFound, book.CoverURL)
		return
	}

	c.File(path)
}

// RecommendedBooks returns the highest-rated published books.
// GET /api/books/recommended
func (bc *BooksController) RecommendedBooks(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if limit < 1 || limit > 50 {
		limit = 10
	}

	items, err := bc.books.ListRecommended(limit)
	if err != nil {
		respondInternalError(c, err, "recommended books")
		return
	}

	c.JSON(http.StatusOK, gin.H{"books": items, "count": len(items)})
}

type bookRequest struct {
	Title       string `json:"title" binding:"required"`
	ISBN        string `json:"isbn"`
	Description string `json:"description"`
	CoverURL    string `json:"cover_url"`
	Language    string `json:"language"`
	PageCount   int    `json:"page_count"`
	Copies      int    `json:"copies"`
	AuthorID    uint   `json:"author_id"`
	CategoryIDs []uint `json:"category_ids"`
}

// resolveCategories loads the requested categories, responding with 422 when
// any ID is unknown.
func (bc *BooksController) resolveCategories(c *gin.Context, ids []uint) ([]entities.Category, bool) {
	if len(ids) == 0 {
		return nil, true
	}
	cats, err := bc.categories.GetCategoriesByIDs(ids)
	if err != nil {
		if errors.Is(err, categories.ErrCategoryNotFound) {
			respondUnprocessable(c, "unknown category")
			return nil, false
		}
		respondInternalError(c, err, "resolve categories")
		return nil, false
	}
	return cats, true
}

// CreateAuthorBook creates a draft book owned by the calling author.
// POST /api/author/books
func (bc *BooksController) CreateAuthorBook(c *gin.Context) {
	author, ok := bc.requireAuthorProfile(c)
	if !ok {
		return
	}

	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request: "+err.Error())
		return
	}

	cats, ok := bc.resolveCategories(c, req.CategoryIDs)
	if !ok {
		return
	}

	book := &entities.Book{
		Title:       req.Title,
		ISBN:        req.ISBN,
		Description: req.Description,
		CoverURL:    req.CoverURL,
		Language:    req.Language,
		PageCount:   req.PageCount,
		Copies:      req.Copies,
		AuthorID:    author.ID,
		Categories:  cats,
		Status:      entities.BookStatusDraft,
	}
	if book.Copies < 1 {
		book.Copies = 1
	}

	if err := bc.books.CreateBook(book); err != nil {
		if errors.Is(err, books.ErrISBNExists) {
			respondConflict(c, "a book with this ISBN already exists")
			return
		}
		respondInternalError(c, err, "create book")
		return
	}

	bc.audit.LogCatalog(GetUserID(c), "book_create", "book", book.ID, "created draft "+book.Title)
	respondCreated(c, book)
}

// ListAuthorBooks returns every book owned by the calling author,
// drafts included.
// GET /api/author/books
func (bc *BooksController) ListAuthorBooks(c *gin.Context) {
	author, ok := bc.requireAuthorProfile(c)
	if !ok {
		return
	}

	items, err := bc.books.ListBooksByAuthor(author.ID)
	if err != nil {
		respondInternalError(c, err, "list author books")
		return
	}

	c.JSON(http.StatusOK, gin.H{"books": items, "count": len(items)})
}

// UpdateAuthorBook updates a book owned by the calling author.
// PUT /api/author/books/:id
func (bc *BooksController) UpdateAuthorBook(c *gin.Context) {
	author, ok := bc.requireAuthorProfile(c)
	if !ok {
		return
	}

	book, ok := bc.loadOwnedBook(c, author.ID)
	if !ok {
		return
	}

	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request: "+err.Error())
		return
	}

	cats, ok := bc.resolveCategories(c, req.CategoryIDs)
	if !ok {
		return
	}

	book.Title = req.Title
	book.ISBN = req.ISBN
	book.Description = req.Description
	book.CoverURL = req.CoverURL
	book.Language = req.Language
	book.PageCount = req.PageCount
	if req.Copies > 0 {
		book.Copies = req.Copies
	}

	if err := bc.books.UpdateBook(book, cats); err != nil {
		respondInternalError(c, err, "update book")
		return
	}

	bc.audit.LogCatalog(GetUserID(c), "book_update", "book", book.ID, "updated "+book.Title)
	c.JSON(http.StatusOK, book)
}

// RequestBookRemoval hides the author's own book pending admin review.
// Authors cannot hard-delete; the book stays hidden with the stated reason.
// POST /api/author/books/:id/delete-request
func (bc *BooksController) RequestBookRemoval(c *gin.Context) {
	author, ok := bc.requireAuthorProfile(c)
	if !ok {
		return
	}

	book, ok := bc.loadOwnedBook(c, author.ID)
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "reason is required")
		return
	}

	updated, err := bc.books.SetStatus(book.ID, entities.BookStatusHidden, "removal requested: "+req.Reason)
	if err != nil {
		respondInternalError(c, err, "request book removal")
		return
	}

	bc.audit.LogCatalog(GetUserID(c), "book_removal_request", "book", book.ID, req.Reason)
	c.JSON(http.StatusOK, updated)
}

// --- Admin endpoints ---

// AdminListBooks returns all books regardless of status.
// GET /api/admin/books
func (bc *BooksController) AdminListBooks(c *gin.Context) {
	page, limit := parsePagination(c, 20, 100)

	filter := books.ListFilter{
		Search: c.Query("search"),
		Status: entities.BookStatus(c.Query("status")),
		Page:   page,
		Limit:  limit,
	}

	items, total, err := bc.books.ListBooks(filter)
	if err != nil {
		respondInternalError(c, err, "admin list books")
		return
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:       items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages(total, limit),
	})
}

// AdminCreateBook creates a book for any author, in any status.
// POST /api/admin/books
func (bc *BooksController) AdminCreateBook(c *gin.Context) {
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.AuthorID == 0 {
		respondUnprocessable(c, "author_id is required")
		return
	}
	if _, err := bc.authors.GetAuthorByID(req.AuthorID); err != nil {
		if errors.Is(err, authors.ErrAuthorNotFound) {
			respondUnprocessable(c, "unknown author")
			return
		}
		respondInternalError(c, err, "admin create book")
		return
	}

	cats, ok := bc.resolveCategories(c, req.CategoryIDs)
	if !ok {
		return
	}

	book := &entities.Book{
		Title:       req.Title,
		ISBN:        req.ISBN,
		Description: req.Description,
		CoverURL:    req.CoverURL,
		Language:    req.Language,
		PageCount:   req.PageCount,
		Copies:      req.Copies,
		AuthorID:    req.AuthorID,
		Categories:  cats,
		Status:      entities.BookStatusDraft,
	}
	if book.Copies < 1 {
		book.Copies = 1
	}

	if err := bc.books.CreateBook(book); err != nil {
		if errors.Is(err, books.ErrISBNExists) {
			respondConflict(c, "a book with this ISBN already exists")
			return
		}
		respondInternalError(c, err, "admin create book")
		return
	}

	bc.audit.LogCatalog(GetUserID(c), "book_create", "book", book.ID, "created "+book.Title)
	respondCreated(c, book)
}

// AdminGetBook returns any book by ID.
// GET /api/admin/books/:id
func (bc *BooksController) AdminGetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.books.GetBookByID(id)
	if err != nil {
		if errors.Is(err, books.ErrBookNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "admin get book")
		return
	}

	c.JSON(http.StatusOK, book)
}

// AdminUpdateBook updates any book.
// PUT /api/admin/books/:id
func (bc *BooksController) AdminUpdateBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.books.GetBookByID(id)
	if err != nil {
		if errors.Is(err, books.ErrBookNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "admin update book")
		return
	}

	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request: "+err.Error())
		return
	}

	cats, ok := bc.resolveCategories(c, req.CategoryIDs)
	if !ok {
		return
	}

	prevCoverURL := book.CoverURL

	book.Title = req.Title
	book.ISBN = req.ISBN
	book.Description = req.Description
	book.CoverURL = req.CoverURL
	book.Language = req.Language
	book.PageCount = req.PageCount
	if req.AuthorID != 0 {
		book.AuthorID = req.AuthorID
	}
	if req.Copies > 0 {
		book.Copies = req.Copies
	}

	if err := bc.books.UpdateBook(book, cats); err != nil {
		respondInternalError(c, err, "admin update book")
		return
	}

	if bc.covers != nil && book.CoverURL != prevCoverURL {
		if err := bc.covers.InvalidateCover(book.ID); err != nil {
			log.Printf("Failed to invalidate cover cache for book %d: %v", book.ID, err)
		}
	}

	bc.audit.LogCatalog(GetUserID(c), "book_update", "book", book.ID, "updated "+book.Title)
	c.JSON(http.StatusOK, book)
}

// AdminSetBookStatus publishes, hides, or reverts a book to draft.
// PUT /api/admin/books/:id/status
func (bc *BooksController) AdminSetBookStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "status is required")
		return
	}

	book, err := bc.books.SetStatus(id, entities.BookStatus(req.Status), req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, books.ErrBookNotFound):
			respondNotFound(c, "book")
		case errors.Is(err, books.ErrInvalidStatus):
			respondUnprocessable(c, "invalid status")
		default:
			respondInternalError(c, err, "set book status")
		}
		return
	}

	bc.audit.LogModeration(GetUserID(c), "book_status", "book", book.ID, req.Status+" "+req.Reason)
	c.JSON(http.StatusOK, book)
}

// AdminDeleteBook soft-deletes a book.
// DELETE /api/admin/books/:id
func (bc *BooksController) AdminDeleteBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := bc.books.DeleteBook(id); err != nil {
		if errors.Is(err, books.ErrBookNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "delete book")
		return
	}

	bc.audit.LogModeration(GetUserID(c), "book_delete", "book", id, "")
	respondSuccess(c, "book deleted")
}

// --- shared author helpers ---

// requireAuthorProfile resolves the calling user's author profile,
// rejecting users without a validated one.
func (bc *BooksController) requireAuthorProfile(c *gin.Context) (*entities.Author, bool) {
	author, err := bc.authors.GetAuthorByUserID(GetUserID(c))
	if err != nil {
		if errors.Is(err, authors.ErrAuthorNotFound) {
			respondForbidden(c, "no author profile for this account")
			return nil, false
		}
		respondInternalError(c, err, "load author profile")
		return nil, false
	}
	if author.Status != entities.AuthorStatusActive {
		respondForbidden(c, "author profile is not validated")
		return nil, false
	}
	return author, true
}

// loadOwnedBook fetches a book and verifies the author owns it.
func (bc *BooksController) loadOwnedBook(c *gin.Context, authorID uint) (*entities.Book, bool) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return nil, false
	}

	book, err := bc.books.GetBookByID(id)
	if err != nil {
		if errors.Is(err, books.ErrBookNotFound) {
			respondNotFound(c, "book")
			return nil, false
		}
		respondInternalError(c, err, "load book")
		return nil, false
	}
	if book.AuthorID != authorID {
		respondForbidden(c, "book belongs to another author")
		return nil, false
	}
	return book, true
}
