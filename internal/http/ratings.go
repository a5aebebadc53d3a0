package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/database/books"
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/database/ratings"
)

// RatingsController handles per-user book ratings.
type RatingsController struct {
	ratings *ratings.Repository
	books   *books.Repository
}

func NewRatingsController(ratingRepo *ratings.Repository, bookRepo *books.Repository) *RatingsController {
	return &RatingsController{
		ratings: ratingRepo,
		books:   bookRepo,
	}
}

// RateBook creates or replaces the caller's rating for a published book.
// POST /api/books/:id/ratings
func (rc *RatingsController) RateBook(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Score int `json:"score" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "score is required")
		return
	}

	if _, err := rc.books.GetPublishedBookByID(bookID); err != nil {
		if errors.Is(err, books.ErrBookNotFound) || errors.Is(err, books.ErrNotPublished) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "rate book")
		return
	}

	rating, err := rc.ratings.Rate(bookID, GetUserID(c), req.Score)
	if err != nil {
		if errors.Is(err, ratings.ErrInvalidScore) {
			respondUnprocessable(c, "score must be between 1 and 5")
			return
		}
		respondInternalError(c, err, "rate book")
		return
	}

	c.JSON(http.StatusOK, rating)
}

// GetOwnRating returns the caller's rating for a book.
// GET /api/books/:id/ratings/mine
func (rc *RatingsController) GetOwnRating(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	rating, err := rc.ratings.GetUserRating(bookID, GetUserID(c))
	if err != nil {
		if errors.Is(err, ratings.ErrRatingNotFound) {
			respondNotFound(c, "rating")
			return
		}
		respondInternalError(c, err, "get rating")
		return
	}

	c.JSON(http.StatusOK, rating)
}

// DeleteOwnRating removes the caller's rating for a book.
// DELETE /api/books/:id/ratings
func (rc *RatingsController) DeleteOwnRating(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := rc.ratings.DeleteRating(bookID, GetUserID(c)); err != nil {
		if errors.Is(err, ratings.ErrRatingNotFound) {
			respondNotFound(c, "rating")
			return
		}
		respondInternalError(c, err, "delete rating")
		return
	}

	respondSuccess(c, "rating deleted")
}
