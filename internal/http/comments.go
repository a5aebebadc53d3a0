package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/audit"
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/database/authors"
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/database/books"
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/database/comments"
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/entities"
)

const maxCommentLen = 1000

// CommentsController handles book comments: public reads, reader
// writes on their own comments, the author review feed, and admin
// moderation.
type CommentsController struct {
	comments *comments.Repository
	books    *books.Repository
	authors  *authors.Repository
	audit    *audit.Service
}

func NewCommentsController(commentRepo *comments.Repository, bookRepo *books.Repository, authorRepo *authors.Repository, auditService *audit.Service) *CommentsController {
	return &CommentsController{
		comments: commentRepo,
		books:    bookRepo,
		authors:  authorRepo,
		audit:    auditService,
	}
}

// ListAuthorReviews returns visible comments across the calling
// author's books.
// GET /api/author/reviews
func (cc *CommentsController) ListAuthorReviews(c *gin.Context) {
	author, err := cc.authors.GetAuthorByUserID(GetUserID(c))
	if err != nil {
		if errors.Is(err, authors.ErrAuthorNotFound) {
			respondForbidden(c, "no author profile for this account")
			return
		}
		respondInternalError(c, err, "author reviews")
		return
	}

	items, err := cc.comments.ListAuthorComments(author.ID)
	if err != nil {
		respondInternalError(c, err, "author reviews")
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": items, "count": len(items)})
}

// ListBookComments returns the visible comments of a published book.
// GET /api/books/:id/comments
func (cc *CommentsController) ListBookComments(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if _, err := cc.books.GetPublishedBookByID(bookID); err != nil {
		if errors.Is(err, books.ErrBookNotFound) || errors.Is(err, books.ErrNotPublished) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "list comments")
		return
	}

	items, err := cc.comments.ListBookComments(bookID, true)
	if err != nil {
		respondInternalError(c, err, "list comments")
		return
	}

	c.JSON(http.StatusOK, gin.H{"comments": items, "count": len(items)})
}

type commentRequest struct {
	Content string `json:"content" binding:"required"`
}

func validateCommentContent(content string) (string, bool) {
	content = strings.TrimSpace(content)
	if content == "" || len(content) > maxCommentLen {
		return "", false
	}
	return content, true
}

// CreateComment posts a comment on a published book.
// POST /api/books/:id/comments
func (cc *CommentsController) CreateComment(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "content is required")
		return
	}
	content, ok := validateCommentContent(req.Content)
	if !ok {
		respondUnprocessable(c, "comment must be non-empty and at most 1000 characters")
		return
	}

	if _, err := cc.books.GetPublishedBookByID(bookID); err != nil {
		if errors.Is(err, books.ErrBookNotFound) || errors.Is(err, books.ErrNotPublished) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "create comment")
		return
	}

	comment := &entities.Comment{
		BookID:    bookID,
		UserID:    GetUserID(c),
		Content:   content,
		IsVisible: true,
	}
	if err := cc.comments.CreateComment(comment); err != nil {
		respondInternalError(c, err, "create comment")
		return
	}

	respondCreated(c, comment)
}

// UpdateComment edits the caller's own comment.
// PUT /api/comments/:id
func (cc *CommentsController) UpdateComment(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "content is required")
		return
	}
	content, ok := validateCommentContent(req.Content)
	if !ok {
		respondUnprocessable(c, "comment must be non-empty and at most 1000 characters")
		return
	}

	comment, err := cc.comments.UpdateComment(id, GetUserID(c), content)
	if err != nil {
		switch {
		case errors.Is(err, comments.ErrCommentNotFound):
			respondNotFound(c, "comment")
		case errors.Is(err, comments.ErrNotOwner):
			respondForbidden(c, "comment belongs to another user")
		default:
			respondInternalError(c, err, "update comment")
		}
		return
	}

	c.JSON(http.StatusOK, comment)
}

// DeleteComment removes the caller's own comment.
// DELETE /api/comments/:id
func (cc *CommentsController) DeleteComment(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := cc.comments.DeleteComment(id, GetUserID(c)); err != nil {
		switch {
		case errors.Is(err, comments.ErrCommentNotFound):
			respondNotFound(c, "comment")
		case errors.Is(err, comments.ErrNotOwner):
			respondForbidden(c, "comment belongs to another user")
		default:
			respondInternalError(c, err, "delete comment")
		}
		return
	}

	respondSuccess(c, "comment deleted")
}

// --- Admin endpoints ---

// AdminListComments returns all comments of a book, hidden ones included.
// GET /api/admin/books/:id/comments
func (cc *CommentsController) AdminListComments(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	items, err := cc.comments.ListBookComments(bookID, false)
	if err != nil {
		respondInternalError(c, err, "admin list comments")
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": items, "count": len(items)})
}

// AdminListModerated returns comments that have been moderated.
// GET /api/admin/comments/moderated
func (cc *CommentsController) AdminListModerated(c *gin.Context) {
	items, err := cc.comments.ListModerated()
	if err != nil {
		respondInternalError(c, err, "list moderated comments")
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": items, "count": len(items)})
}

// AdminModerateComment hides or restores a comment with a reason.
// PUT /api/admin/comments/:id/moderate
func (cc *CommentsController) AdminModerateComment(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Visible bool   `json:"visible"`
		Reason  string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request")
		return
	}

	adminID := GetUserID(c)
	comment, err := cc.comments.Moderate(id, adminID, req.Visible, req.Reason)
	if err != nil {
		if errors.Is(err, comments.ErrCommentNotFound) {
			respondNotFound(c, "comment")
			return
		}
		respondInternalError(c, err, "moderate comment")
		return
	}

	action := "comment_hide"
	if req.Visible {
		action = "comment_restore"
	}
	cc.audit.LogModeration(adminID, action, "comment", id, req.Reason)
	c.JSON(http.StatusOK, comment)
}

// AdminDeleteComment removes any comment outright.
// DELETE /api/admin/comments/:id
func (cc *CommentsController) AdminDeleteComment(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := cc.comments.DeleteComment(id, 0); err != nil {
		if errors.Is(err, comments.ErrCommentNotFound) {
			respondNotFound(c, "comment")
			return
		}
		respondInternalError(c, err, "admin delete comment")
		return
	}

	cc.audit.LogModeration(GetUserID(c), "comment_delete", "comment", id, "")
	respondSuccess(c, "comment deleted")
}
