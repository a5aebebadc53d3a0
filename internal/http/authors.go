package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/audit"
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/database/authors"
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/entities"
)

// AuthorsController serves the public author directory and admin
// author management including pending-author validation.
type AuthorsController struct {
	authors *authors.Repository
	audit   *audit.Service
}

func NewAuthorsController(authorRepo *authors.Repository, auditService *audit.Service) *AuthorsController {
	return &AuthorsController{
		authors: authorRepo,
		audit:   auditService,
	}
}

// ListAuthors returns active (validated) authors.
// GET /api/authors
func (ac *AuthorsController) ListAuthors(c *gin.Context) {
	items, err := ac.authors.ListAuthors(entities.AuthorStatusActive)
	if err != nil {
		respondInternalError(c, err, "list authors")
		return
	}
	c.JSON(http.StatusOK, gin.H{"authors": items, "count": len(items)})
}

// GetAuthor returns a single active author.
// GET /api/authors/:id
func (ac *AuthorsController) GetAuthor(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	author, err := ac.authors.GetAuthorByID(id)
	if err != nil {
		if errors.Is(err, authors.ErrAuthorNotFound) {
			respondNotFound(c, "author")
			return
		}
		respondInternalError(c, err, "get author")
		return
	}
	if author.Status != entities.AuthorStatusActive {
		respondNotFound(c, "author")
		return
	}

	c.JSON(http.StatusOK, author)
}

// --- Admin endpoints ---

// AdminListAuthors returns authors, optionally filtered by status.
// GET /api/admin/authors
func (ac *AuthorsController) AdminListAuthors(c *gin.Context) {
	status := entities.AuthorStatus(c.Query("status"))

	items, err := ac.authors.ListAuthors(status)
	if err != nil {
		respondInternalError(c, err, "admin list authors")
		return
	}
	c.JSON(http.StatusOK, gin.H{"authors": items, "count": len(items)})
}

type authorRequest struct {
	Name        string `json:"name" binding:"required"`
	Nationality string `json:"nationality"`
	Bio         string `json:"bio"`
}

// AdminCreateAuthor creates a standalone author profile with no user
// account behind it.
// POST /api/admin/authors
func (ac *AuthorsController) AdminCreateAuthor(c *gin.Context) {
	var req authorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request: "+err.Error())
		return
	}

	author := &entities.Author{
		Name:        req.Name,
		Nationality: req.Nationality,
		Bio:         req.Bio,
		Status:      entities.AuthorStatusActive,
		IsValidated: true,
	}
	if err := ac.authors.CreateAuthor(author); err != nil {
		if errors.Is(err, authors.ErrAuthorExists) {
			respondConflict(c, "an author with this name already exists")
			return
		}
		respondInternalError(c, err, "create author")
		return
	}

	ac.audit.LogCatalog(GetUserID(c), "author_create", "author", author.ID, "created "+author.Name)
	respondCreated(c, author)
}

// AdminUpdateAuthor updates an author profile.
// PUT /api/admin/authors/:id
func (ac *AuthorsController) AdminUpdateAuthor(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req authorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request: "+err.Error())
		return
	}

	fields := map[string]any{
		"name":        req.Name,
		"nationality": req.Nationality,
		"bio":         req.Bio,
	}
	if err := ac.authors.UpdateAuthor(id, fields); err != nil {
		if errors.Is(err, authors.ErrAuthorNotFound) {
			respondNotFound(c, "author")
			return
		}
		respondInternalError(c, err, "update author")
		return
	}

	author, err := ac.authors.GetAuthorByID(id)
	if err != nil {
		respondInternalError(c, err, "update author")
		return
	}

	ac.audit.LogCatalog(GetUserID(c), "author_update", "author", id, "updated "+author.Name)
	c.JSON(http.StatusOK, author)
}

// AdminValidateAuthor approves or rejects a pending author profile.
// Approval unlocks the linked user account for login.
// POST /api/admin/authors/:id/validate
func (ac *AuthorsController) AdminValidateAuthor(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Approve bool `json:"approve"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request")
		return
	}

	author, err := ac.authors.Validate(id, req.Approve)
	if err != nil {
		if errors.Is(err, authors.ErrAuthorNotFound) {
			respondNotFound(c, "author")
			return
		}
		respondInternalError(c, err, "validate author")
		return
	}

	action := "author_reject"
	if req.Approve {
		action = "author_approve"
	}
	ac.audit.LogModeration(GetUserID(c), action, "author", author.ID, "")
	c.JSON(http.StatusOK, author)
}

// AdminDeleteAuthor removes an author with no books.
// DELETE /api/admin/authors/:id
func (ac *AuthorsController) AdminDeleteAuthor(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ac.authors.DeleteAuthor(id); err != nil {
		switch {
		case errors.Is(err, authors.ErrAuthorNotFound):
			respondNotFound(c, "author")
		case errors.Is(err, authors.ErrAuthorHasBooks):
			respondConflict(c, "author still has books in the catalog")
		default:
			respondInternalError(c, err, "delete author")
		}
		return
	}

	ac.audit.LogModeration(GetUserID(c), "author_delete", "author", id, "")
	respondSuccess(c, "author deleted")
}
