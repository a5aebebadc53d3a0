package comments

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
		&entities.User{},
		&entities.Author{},
		&entities.Book{},
		&entities.Comment{},
	)
	require.NoError(t, err)

	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string) *entities.User {
	user := &entities.User{Username: username, Email: username + "@example.com", Status: entities.UserStatusActive}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedBook(t *testing.T, db *gorm.DB, title string, authorID uint) *entities.Book {
	book := &entities.Book{Title: title, ISBN: "isbn-" + title, AuthorID: authorID, Status: entities.BookStatusPublished}
	require.NoError(t, db.Create(book).Error)
	return book
}

func seedAuthor(t *testing.T, db *gorm.DB, name string) *entities.Author {
	author := &entities.Author{Name: name, Status: entities.AuthorStatusActive, IsValidated: true}
	require.NoError(t, db.Create(author).Error)
	return author
}

func bookCommentCount(t *testing.T, db *gorm.DB, bookID uint) int64 {
	var book entities.Book
	require.NoError(t, db.First(&book, bookID).Error)
	return book.CommentCount
}

func TestCreateComment_BumpsCommentCount(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	author := seedAuthor(t, db, "Frank Herbert")
	user := seedUser(t, db, "alice")
	book := seedBook(t, db, "Dune", author.ID)

	comment := &entities.Comment{BookID: book.ID, UserID: user.ID, Content: "Great read", IsVisible: true}
	require.NoError(t, repo.CreateComment(comment))
	assert.NotZero(t, comment.ID)
	assert.Equal(t, int64(1), bookCommentCount(t, db, book.ID))
}

func TestCreateComment_HiddenPersists(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	author := seedAuthor(t, db, "Frank Herbert")
	user := seedUser(t, db, "alice")
	book := seedBook(t, db, "Dune", author.ID)

	comment := &entities.Comment{BookID: book.ID, UserID: user.ID, Content: "Pre-hidden", IsVisible: false}
	require.NoError(t, repo.CreateComment(comment))

	var got entities.Comment
	require.NoError(t, db.First(&got, comment.ID).Error)
	assert.False(t, got.IsVisible, "hidden flag must survive the insert")
}

func TestUpdateComment_OwnershipEnforced(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	author := seedAuthor(t, db, "Frank Herbert")
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	book := seedBook(t, db, "Dune", author.ID)

	comment := &entities.Comment{BookID: book.ID, UserID: alice.ID, Content: "First draft", IsVisible: true}
	require.NoError(t, repo.CreateComment(comment))

	updated, err := repo.UpdateComment(comment.ID, alice.ID, "Edited")
	require.NoError(t, err)
	assert.Equal(t, "Edited", updated.Content)

	_, err = repo.UpdateComment(comment.ID, bob.ID, "Hijacked")
	assert.ErrorIs(t, err, ErrNotOwner)

	_, err = repo.UpdateComment(999, alice.ID, "Ghost")
	assert.ErrorIs(t, err, ErrCommentNotFound)
}

func TestDeleteComment(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	author := seedAuthor(t, db, "Frank Herbert")
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	book := seedBook(t, db, "Dune", author.ID)

	comment := &entities.Comment{BookID: book.ID, UserID: alice.ID, Content: "To be deleted", IsVisible: true}
	require.NoError(t, repo.CreateComment(comment))

	assert.ErrorIs(t, repo.DeleteComment(comment.ID, bob.ID), ErrNotOwner)

	// Admin path skips the ownership check
	require.NoError(t, repo.DeleteComment(comment.ID, 0))
	assert.Equal(t, int64(0), bookCommentCount(t, db, book.ID))

	assert.ErrorIs(t, repo.DeleteComment(comment.ID, 0), ErrCommentNotFound)
}

func TestModerate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	author := seedAuthor(t, db, "Frank Herbert")
	alice := seedUser(t, db, "alice")
	admin := seedUser(t, db, "admin")
	book := seedBook(t, db, "Dune", author.ID)

	comment := &entities.Comment{BookID: book.ID, UserID: alice.ID, Content: "Spam spam spam", IsVisible: true}
	require.NoError(t, repo.CreateComment(comment))

	hidden, err := repo.Moderate(comment.ID, admin.ID, false, "spam")
	require.NoError(t, err)

	got, err := repo.GetCommentByID(hidden.ID)
	require.NoError(t, err)
	assert.False(t, got.IsVisible)
	assert.Equal(t, "spam", got.ModerationReason)
	require.NotNil(t, got.ModeratorID)
	assert.Equal(t, admin.ID, *got.ModeratorID)
	assert.NotNil(t, got.ModeratedAt)

	// Hidden comments leave the public count
	assert.Equal(t, int64(0), bookCommentCount(t, db, book.ID))

	queue, err := repo.ListModerated()
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, comment.ID, queue[0].ID)

	// Restore brings it back
	_, err = repo.Moderate(comment.ID, admin.ID, true, "appeal accepted")
	require.NoError(t, err)
	assert.Equal(t, int64(1), bookCommentCount(t, db, book.ID))
}

func TestListBookComments_VisibilityFilter(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	author := seedAuthor(t, db, "Frank Herbert")
	alice := seedUser(t, db, "alice")
	book := seedBook(t, db, "Dune", author.ID)

	visible := &entities.Comment{BookID: book.ID, UserID: alice.ID, Content: "Visible", IsVisible: true}
	require.NoError(t, repo.CreateComment(visible))
	hidden := &entities.Comment{BookID: book.ID, UserID: alice.ID, Content: "Hidden", IsVisible: false}
	require.NoError(t, repo.CreateComment(hidden))

	public, err := repo.ListBookComments(book.ID, true)
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, "Visible", public[0].Content)

	all, err := repo.ListBookComments(book.ID, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestListAuthorComments(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	herbert := seedAuthor(t, db, "Frank Herbert")
	tolkien := seedAuthor(t, db, "J.R.R. Tolkien")
	alice := seedUser(t, db, "alice")
	dune := seedBook(t, db, "Dune", herbert.ID)
	hobbit := seedBook(t, db, "The Hobbit", tolkien.ID)

	require.NoError(t, repo.CreateComment(&entities.Comment{BookID: dune.ID, UserID: alice.ID, Content: "On Dune", IsVisible: true}))
	require.NoError(t, repo.CreateComment(&entities.Comment{BookID: dune.ID, UserID: alice.ID, Content: "Hidden on Dune", IsVisible: false}))
	require.NoError(t, repo.CreateComment(&entities.Comment{BookID: hobbit.ID, UserID: alice.ID, Content: "On Hobbit", IsVisible: true}))

	reviews, err := repo.ListAuthorComments(herbert.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, "On Dune", reviews[0].Content)
	assert.Equal(t, "Dune", reviews[0].Book.Title)
}
