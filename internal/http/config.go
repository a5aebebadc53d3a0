package http

import (
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/audit"
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/auth"
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/config"
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/covers"
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/database"
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/database/authors"
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/database/books"
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/database/categories"
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/database/comments"
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/database/ratings"
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/database/users"
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/demo"
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/loans"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database     *database.Database
	LoanService  *loans.Service
	AuditService *audit.Service

	// Repositories
	Books      *books.Repository
	Authors    *authors.Repository
	Categories *categories.Repository
	Comments   *comments.Repository
	Ratings    *ratings.Repository
	Users      *users.Repository

	// Authentication
	AuthService    *auth.Service
	AuthMiddleware *auth.Middleware
	SessionManager *auth.SessionManager
	AuthConfig     config.Auth
	CSRFSecret     []byte
	SecureCookies  bool

	// Optional extras
	CoverCache     *covers.Cache
	DemoMiddleware *demo.Middleware

	// Application info
	Version string
}
