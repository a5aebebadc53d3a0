package ratings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/entities"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&entities.Author{},
		&entities.Book{},
		&entities.Rating{},
	)
	require.NoError(t, err)

	return db
}

func seedBook(t *testing.T, db *gorm.DB) *entities.Book {
	author := &entities.Author{Name: "Frank Herbert", Status: entities.AuthorStatusActive}
	require.NoError(t, db.Create(author).Error)
	book := &entities.Book{Title: "Dune", ISBN: "isbn-1", AuthorID: author.ID, Status: entities.BookStatusPublished}
	require.NoError(t, db.Create(book).Error)
	return book
}

func bookStats(t *testing.T, db *gorm.DB, bookID uint) (float64, int64, int64) {
	var book entities.Book
	require.NoError(t, db.First(&book, bookID).Error)
	return book.AverageRating, book.RatingSum, book.RatingCount
}

func TestRate_ValidatesScore(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	book := seedBook(t, db)

	for _, score := range []int{0, 6, -1} {
		_, err := repo.Rate(book.ID, 1, score)
		assert.ErrorIs(t, err, ErrInvalidScore)
	}
}

func TestRate_RecomputesBookStats(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	book := seedBook(t, db)

	_, err := repo.Rate(book.ID, 1, 5)
	require.NoError(t, err)
	_, err = repo.Rate(book.ID, 2, 3)
	require.NoError(t, err)

	average, sum, count := bookStats(t, db, book.ID)
	assert.Equal(t, 4.0, average)
	assert.Equal(t, int64(8), sum)
	assert.Equal(t, int64(2), count)
}

func TestRate_ReRatingReplacesScore(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	book := seedBook(t, db)

	first, err := repo.Rate(book.ID, 1, 2)
	require.NoError(t, err)

	second, err := repo.Rate(book.ID, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "re-rating must not create a second row")

	average, sum, count := bookStats(t, db, book.ID)
	assert.Equal(t, 5.0, average)
	assert.Equal(t, int64(5), sum)
	assert.Equal(t, int64(1), count)
}

func TestGetUserRating(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	book := seedBook(t, db)

	_, err := repo.GetUserRating(book.ID, 1)
	assert.ErrorIs(t, err, ErrRatingNotFound)

	_, err = repo.Rate(book.ID, 1, 4)
	require.NoError(t, err)

	got, err := repo.GetUserRating(book.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Score)
}

func TestDeleteRating(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	book := seedBook(t, db)

	assert.ErrorIs(t, repo.DeleteRating(book.ID, 1), ErrRatingNotFound)

	_, err := repo.Rate(book.ID, 1, 4)
	require.NoError(t, err)
	_, err = repo.Rate(book.ID, 2, 2)
	require.NoError(t, err)

	require.NoError(t, repo.DeleteRating(book.ID, 1))

	average, sum, count := bookStats(t, db, book.ID)
	assert.Equal(t, 2.0, average)
	assert.Equal(t, int64(2), sum)
	assert.Equal(t, int64(1), count)

	require.NoError(t, repo.DeleteRating(book.ID, 2))
	average, sum, count = bookStats(t, db, book.ID)
	assert.Equal(t, 0.0, average)
	assert.Equal(t, int64(0), sum)
	assert.Equal(t, int64(0), count)
}
