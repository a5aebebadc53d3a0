package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/audit"
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/auth"
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/config"
	auditdb "github.com/chedi-ouerghi/BibloFlow-Hub/internal/database/audit"
	authorsdb "github.com/chedi-ouerghi/BibloFlow-Hub/internal/database/authors"
	usersdb "github.com/chedi-ouerghi/BibloFlow-Hub/internal/database/users"
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/entities"
)

func newUsersController(db *gorm.DB) *UsersController {
	authService := auth.NewService(db, config.Auth{BcryptCost: 4})
	return NewUsersController(
		usersdb.NewRepository(db),
		authorsdb.NewRepository(db),
		authService,
		audit.NewService(auditdb.NewRepository(db)),
	)
}

func usersSelfRouter(uc *UsersController, userID uint) *gin.Engine {
	router := gin.New()
	router.Use(asUser(userID, entities.UserRoleReader))
	router.PUT("/api/profile", uc.UpdateProfile)
	router.GET("/api/me/warnings", uc.ListOwnWarnings)
	router.PUT("/api/me/warnings/read", uc.MarkOwnWarningsRead)
	return router
}

func usersAdminRouter(uc *UsersController, adminID uint) *gin.Engine {
	router := gin.New()
	router.Use(asUser(adminID, entities.UserRoleAdmin))
	router.GET("/api/admin/users", uc.AdminListUsers)
	router.POST("/api/admin/users/authors", uc.AdminCreateAuthorAccount)
	router.GET("/api/admin/users/:id", uc.AdminGetUser)
	router.POST("/api/admin/users/:id/warn", uc.AdminWarnUser)
	router.POST("/api/admin/users/:id/ban", uc.AdminBanUser)
	router.POST("/api/admin/users/:id/unban", uc.AdminUnbanUser)
	router.PUT("/api/admin/users/:id/role", uc.AdminSetUserRole)
	return router
}

func TestUpdateProfile(t *testing.T) {
	db := setupTestDB(t)
	uc := newUsersController(db)
	reader := seedUser(t, db, entities.UserRoleReader)
	router := usersSelfRouter(uc, reader.ID)

	t.Run("nothing to update", func(t *testing.T) {
		w := doJSON(t, router, "PUT", "/api/profile", gin.H{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("updates fields", func(t *testing.T) {
		w := doJSON(t, router, "PUT", "/api/profile",
			gin.H{"email": "new@example.com", "avatar_url": "https://cdn.example.com/a.png"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var updated entities.User
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
		assert.Equal(t, "new@example.com", updated.Email)
		assert.Equal(t, "https://cdn.example.com/a.png", updated.AvatarURL)
	})
}

func TestWarningsFlow(t *testing.T) {
	db := setupTestDB(t)
	uc := newUsersController(db)
	admin := seedUser(t, db, entities.UserRoleAdmin)
	reader := seedUser(t, db, entities.UserRoleReader)
	adminRouter := usersAdminRouter(uc, admin.ID)
	selfRouter := usersSelfRouter(uc, reader.ID)

	t.Run("admin warns the user", func(t *testing.T) {
		w := doJSON(t, adminRouter, "POST", fmt.Sprintf("/api/admin/users/%d/warn", reader.ID),
			gin.H{"message": "return The Glass Meridian"})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Equal(t, float64(1), decodeBody(t, w)["warnings_count"])
	})

	t.Run("warning requires a message", func(t *testing.T) {
		w := doJSON(t, adminRouter, "POST", fmt.Sprintf("/api/admin/users/%d/warn", reader.ID), gin.H{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		w := doJSON(t, adminRouter, "POST", "/api/admin/users/9999/warn", gin.H{"message": "hello"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("reader sees and acknowledges warnings", func(t *testing.T) {
		w := doJSON(t, selfRouter, "GET", "/api/me/warnings", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, float64(1), decodeBody(t, w)["count"])

		w = doJSON(t, selfRouter, "PUT", "/api/me/warnings/read", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var warnings []entities.Warning
		require.NoError(t, db.Where("user_id = ?", reader.ID).Find(&warnings).Error)
		require.Len(t, warnings, 1)
		assert.True(t, warnings[0].IsRead)
	})
}

func TestAdminBanUnbanUser(t *testing.T) {
	db := setupTestDB(t)
	uc := newUsersController(db)
	admin := seedUser(t, db, entities.UserRoleAdmin)
	reader := seedUser(t, db, entities.UserRoleReader)
	router := usersAdminRouter(uc, admin.ID)

	t.Run("cannot ban yourself", func(t *testing.T) {
		w := doJSON(t, router, "POST", fmt.Sprintf("/api/admin/users/%d/ban", admin.ID), gin.H{"reason": "oops"})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("ban requires a reason", func(t *testing.T) {
		w := doJSON(t, router, "POST", fmt.Sprintf("/api/admin/users/%d/ban", reader.ID), gin.H{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("ban then unban", func(t *testing.T) {
		w := doJSON(t, router, "POST", fmt.Sprintf("/api/admin/users/%d/ban", reader.ID), gin.H{"reason": "abuse"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var banned entities.User
		require.NoError(t, db.First(&banned, reader.ID).Error)
		assert.True(t, banned.IsBanned)
		assert.Equal(t, entities.UserStatusBanned, banned.Status)

		w = doJSON(t, router, "POST", fmt.Sprintf("/api/admin/users/%d/unban", reader.ID), nil)
		require.Equal(t, http.StatusOK, w.Code)

		require.NoError(t, db.First(&banned, reader.ID).Error)
		assert.False(t, banned.IsBanned)
		assert.Equal(t, entities.UserStatusActive, banned.Status)
	})

	t.Run("unknown user", func(t *testing.T) {
		w := doJSON(t, router, "POST", "/api/admin/users/9999/ban", gin.H{"reason": "x"})
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = doJSON(t, router, "POST", "/api/admin/users/9999/unban", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestAdminSetUserRole(t *testing.T) {
	db := setupTestDB(t)
	uc := newUsersController(db)
	admin := seedUser(t, db, entities.UserRoleAdmin)
	reader := seedUser(t, db, entities.UserRoleReader)
	router := usersAdminRouter(uc, admin.ID)

	w := doJSON(t, router, "PUT", fmt.Sprintf("/api/admin/users/%d/role", reader.ID), gin.H{"role": "librarian"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(t, router, "PUT", fmt.Sprintf("/api/admin/users/%d/role", reader.ID), gin.H{"role": "admin"})
	require.Equal(t, http.StatusOK, w.Code)

	var promoted entities.User
	require.NoError(t, db.First(&promoted, reader.ID).Error)
	assert.Equal(t, entities.UserRoleAdmin, promoted.Role)
}

func TestAdminListUsers(t *testing.T) {
	db := setupTestDB(t)
	uc := newUsersController(db)
	admin := seedUser(t, db, entities.UserRoleAdmin)
	seedUser(t, db, entities.UserRoleReader)
	seedUser(t, db, entities.UserRoleReader)
	router := usersAdminRouter(uc, admin.ID)

	w := doJSON(t, router, "GET", "/api/admin/users?role=reader", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var page PaginatedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, int64(2), page.Total)

	w = doJSON(t, router, "GET", fmt.Sprintf("/api/admin/users/%d", admin.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, "GET", "/api/admin/users/9999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminCreateAuthorAccount(t *testing.T) {
	db := setupTestDB(t)
	uc := newUsersController(db)
	admin := seedUser(t, db, entities.UserRoleAdmin)
	router := usersAdminRouter(uc, admin.ID)

	payload := gin.H{
		"username": "imoreno",
		"email":    "iris@example.com",
		"password": "correct-horse-battery",
		"name":     "Iris Moreno",
		"bio":      "Writes maritime fiction.",
	}

	t.Run("creates a pre-validated author", func(t *testing.T) {
		w := doJSON(t, router, "POST", "/api/admin/users/authors", payload)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var created entities.User
		require.NoError(t, db.Where("username = ?", "imoreno").First(&created).Error)
		assert.Equal(t, entities.UserRoleAuthor, created.Role)
		assert.Equal(t, entities.UserStatusActive, created.Status)

		var author entities.Author
		require.NoError(t, db.Where("user_id = ?", created.ID).First(&author).Error)
		assert.Equal(t, "Iris Moreno", author.Name)
		assert.Equal(t, entities.AuthorStatusActive, author.Status)
		assert.True(t, author.IsValidated)
	})

	t.Run("duplicate username conflicts", func(t *testing.T) {
		w := doJSON(t, router, "POST", "/api/admin/users/authors", payload)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		w := doJSON(t, router, "POST", "/api/admin/users/authors", gin.H{"username": "half"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestListAuthorReaders(t *testing.T) {
	db := setupTestDB(t)
	uc := newUsersController(db)

	writer, author := seedValidatedAuthor(t, db)
	reader := seedUser(t, db, entities.UserRoleReader)

	book := &entities.Book{Title: "Salt Roads", ISBN: "isbn-readers", AuthorID: author.ID, Status: entities.BookStatusPublished, Copies: 2}
	require.NoError(t, db.Create(book).Error)
	loan := &entities.Loan{BookID: book.ID, UserID: reader.ID, BorrowedAt: time.Now(), DueAt: time.Now().AddDate(0, 0, 14)}
	require.NoError(t, db.Create(loan).Error)

	router := gin.New()
	router.Use(asUser(writer.ID, entities.UserRoleAuthor))
	router.GET("/api/author/readers", uc.ListAuthorReaders)

	w := doJSON(t, router, "GET", "/api/author/readers", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(1), decodeBody(t, w)["count"])

	noProfile := gin.New()
	noProfile.Use(asUser(reader.ID, entities.UserRoleAuthor))
	noProfile.GET("/api/author/readers", uc.ListAuthorReaders)

	w = doJSON(t, noProfile, "GET", "/api/author/readers", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
