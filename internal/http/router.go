package http

import (
	"github.com/gin-gonic/gin"

	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/auth"
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/entities"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())

	// Demo mode blocks writes before any other processing
	if cfg.DemoMiddleware != nil {
		router.Use(cfg.DemoMiddleware.Handler())
	}

	// Apply CSRF protection if auth is enabled
	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies, cfg.AuthService))
	}

	// Session runs after CSRF so session context isn't overwritten by
	// CSRF's request replacement
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}

	// Identity resolution only; enforcement happens per route group
	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.Handler())
	} else {
		router.Use(func(c *gin.Context) {
			c.Set(auth.ContextKeyUserID, auth.DefaultUserID)
			c.Set(auth.ContextKeyAuthType, auth.AuthTypeNone)
			c.Next()
		})
	}

	mw := cfg.AuthMiddleware
	if mw == nil {
		mw = auth.NewMiddleware(cfg.AuthService, cfg.SessionManager, cfg.AuthConfig)
	}

	// Controllers
	health := NewHealthController(cfg.Database, cfg.Version)
	booksController := NewBooksController(cfg.Books, cfg.Authors, cfg.Categories, cfg.AuditService, cfg.CoverCache)
	authorsController := NewAuthorsController(cfg.Authors, cfg.AuditService)
	categoriesController := NewCategoriesController(cfg.Categories, cfg.AuditService)
	commentsController := NewCommentsController(cfg.Comments, cfg.Books, cfg.Authors, cfg.AuditService)
	ratingsController := NewRatingsController(cfg.Ratings, cfg.Books)
	loansController := NewLoansController(cfg.LoanService, cfg.Authors, cfg.AuditService)
	usersController := NewUsersController(cfg.Users, cfg.Authors, cfg.AuthService, cfg.AuditService)
	auditController := NewAuditController(cfg.AuditService)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	api := router.Group("/api")

	// Auth endpoints (signup, login, profile, tokens)
	if cfg.AuthService != nil && cfg.AuthService.IsAuthEnabled() {
		authController := auth.NewAuthController(cfg.AuthService, cfg.SessionManager, cfg.AuthConfig, cfg.AuditService)
		authController.SetAuthorProfiles(cfg.Authors)
		authController.RegisterRoutes(api, mw)
	}

	// Public catalog
	api.GET("/books", booksController.ListBooks)
	api.GET("/books/recommended", booksController.RecommendedBooks)
	api.GET("/books/:id", booksController.GetBook)
	api.GET("/books/:id/cover", booksController.GetBookCover)
	api.GET("/books/:id/comments", commentsController.ListBookComments)
	api.GET("/categories", categoriesController.ListCategories)
	api.GET("/categories/:id", categoriesController.GetCategory)
	api.GET("/authors", authorsController.ListAuthors)
	api.GET("/authors/:id", authorsController.GetAuthor)

	// Authenticated reader surface
	authed := api.Group("")
	authed.Use(mw.RequireAuth())
	{
		authed.PUT("/profile", usersController.UpdateProfile)
		authed.GET("/me/warnings", usersController.ListOwnWarnings)
		authed.PUT("/me/warnings/read", usersController.MarkOwnWarningsRead)

		authed.POST("/books/:id/comments", commentsController.CreateComment)
		authed.PUT("/comments/:id", commentsController.UpdateComment)
		authed.DELETE("/comments/:id", commentsController.DeleteComment)

		authed.POST("/books/:id/ratings", ratingsController.RateBook)
		authed.GET("/books/:id/ratings/mine", ratingsController.GetOwnRating)
		authed.DELETE("/books/:id/ratings", ratingsController.DeleteOwnRating)

		authed.POST("/loans", loansController.CreateLoan)
		authed.GET("/loans/mine", loansController.ListOwnLoans)
		authed.GET("/books/:id/loan", loansController.GetOwnBookLoan)
		authed.PUT("/loans/:id/return", loansController.ReturnOwnLoan)
	}

	// Author dashboard
	author := api.Group("/author")
	author.Use(mw.RequireAuth(), mw.RequireRole(entities.UserRoleAuthor, entities.UserRoleAdmin))
	{
		author.POST("/books", booksController.CreateAuthorBook)
		author.GET("/books", booksController.ListAuthorBooks)
		author.PUT("/books/:id", booksController.UpdateAuthorBook)
		author.POST("/books/:id/delete-request", booksController.RequestBookRemoval)
		author.GET("/loans", loansController.ListAuthorLoans)
		author.GET("/reviews", commentsController.ListAuthorReviews)
		author.GET("/readers", usersController.ListAuthorReaders)
	}

	// Admin surface
	admin := api.Group("/admin")
	admin.Use(mw.RequireAuth(), mw.RequireRole(entities.UserRoleAdmin))
	{
		admin.GET("/books", booksController.AdminListBooks)
		admin.POST("/books", booksController.AdminCreateBook)
		admin.GET("/books/:id", booksController.AdminGetBook)
		admin.PUT("/books/:id", booksController.AdminUpdateBook)
		admin.PUT("/books/:id/status", booksController.AdminSetBookStatus)
		admin.DELETE("/books/:id", booksController.AdminDeleteBook)
		admin.GET("/books/:id/comments", commentsController.AdminListComments)

		admin.GET("/authors", authorsController.AdminListAuthors)
		admin.POST("/authors", authorsController.AdminCreateAuthor)
		admin.PUT("/authors/:id", authorsController.AdminUpdateAuthor)
		admin.POST("/authors/:id/validate", authorsController.AdminValidateAuthor)
		admin.DELETE("/authors/:id", authorsController.AdminDeleteAuthor)

		admin.GET("/categories", categoriesController.AdminListCategories)
		admin.POST("/categories", categoriesController.AdminCreateCategory)
		admin.PUT("/categories/:id", categoriesController.AdminUpdateCategory)
		admin.DELETE("/categories/:id", categoriesController.AdminDeleteCategory)

		admin.GET("/comments/moderated", commentsController.AdminListModerated)
		admin.PUT("/comments/:id/moderate", commentsController.AdminModerateComment)
		admin.DELETE("/comments/:id", commentsController.AdminDeleteComment)

		admin.GET("/loans", loansController.AdminListLoans)
		admin.POST("/loans", loansController.AdminCreateLoan)
		admin.GET("/loans/:id", loansController.AdminGetLoan)
		admin.PUT("/loans/:id/return", loansController.AdminReturnLoan)
		admin.PUT("/loans/:id/extend", loansController.AdminExtendLoan)
		admin.PUT("/loans/:id/status", loansController.AdminOverrideLoanStatus)

		admin.GET("/users", usersController.AdminListUsers)
		admin.GET("/users/:id", usersController.AdminGetUser)
		admin.POST("/users/authors", usersController.AdminCreateAuthorAccount)
		admin.POST("/users/:id/warn", usersController.AdminWarnUser)
		admin.POST("/users/:id/ban", usersController.AdminBanUser)
		admin.POST("/users/:id/unban", usersController.AdminUnbanUser)
		admin.PUT("/users/:id/role", usersController.AdminSetUserRole)

		admin.GET("/audit", auditController.GetAuditEvents)
		admin.GET("/audit/types", auditController.GetEventTypes)
	}

	return router
}
