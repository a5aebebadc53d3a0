package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/audit"
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/config"
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/entities"
)

// AuthorProfileCreator files the pending catalog profile that backs an
// author registration. Satisfied by the authors repository.
type AuthorProfileCreator interface {
	CreateAuthor(author *entities.Author) error
}

// AuthController handles authentication-related HTTP endpoints.
type AuthController struct {
	service        *Service
	sessionManager *SessionManager
	config         config.Auth
	rateLimiter    *RateLimiter
	auditService   *audit.Service
	authorProfiles AuthorProfileCreator
}

// NewAuthController creates a new authentication controller.
func NewAuthController(service *Service, sessionManager *SessionManager, cfg config.Auth, auditService *audit.Service) *AuthController {
	rateLimiter := NewRateLimiter(RateLimitConfig{
		MaxAttempts:     cfg.MaxLoginAttempts,
		WindowDuration:  cfg.RateLimitWindow,
		LockoutDuration: cfg.LockoutDuration,
	})

	return &AuthController{
		service:        service,
		sessionManager: sessionManager,
		config:         cfg,
		rateLimiter:    rateLimiter,
		auditService:   auditService,
	}
}

// SetAuthorProfiles wires the repository used to file pending author
// profiles during author signup.
func (ac *AuthController) SetAuthorProfiles(creator AuthorProfileCreator) {
	ac.authorProfiles = creator
}

// RegisterRoutes registers authentication routes on the router group.
func (ac *AuthController) RegisterRoutes(api *gin.RouterGroup, mw *Middleware) {
	api.POST("/auth/signup", ac.Signup)
	api.POST("/auth/signup/author", ac.SignupAuthor)
	api.POST("/auth/login", ac.Login)
	api.POST("/auth/logout", ac.Logout)

	authed := api.Group("", mw.RequireAuth())
	authed.GET("/auth/profile", ac.Profile)
	authed.PUT("/auth/password", ac.ChangePassword)
	authed.POST("/auth/token", ac.GenerateToken)
	authed.DELETE("/auth/token", ac.RevokeToken)
}

// Stop cleans up resources (rate limiter background goroutine).
func (ac *AuthController) Stop() {
	if ac.rateLimiter != nil {
		ac.rateLimiter.Stop()
	}
}

type signupRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	AsAuthor bool   `json:"as_author"`

	// Author profile fields, used when AsAuthor is set.
	Name        string `json:"name"`
	Nationality string `json:"nationality"`
	Bio         string `json:"bio"`
}

// Signup registers a new account. Readers are active immediately;
// author registrations go into the pending queue for admin validation.
func (ac *AuthController) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username, email and password are required"})
		return
	}
	ac.signup(c, req)
}

// SignupAuthor registers a pending author account regardless of the
// as_author flag.
func (ac *AuthController) SignupAuthor(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username, email and password are required"})
		return
	}
	req.AsAuthor = true
	ac.signup(c, req)
}

func (ac *AuthController) signup(c *gin.Context, req signupRequest) {
	role := entities.UserRoleReader
	if req.AsAuthor {
		role = entities.UserRoleAuthor
	}

	user, err := ac.service.CreateUser(req.Username, req.Email, req.Password, role)
	if err != nil {
		c.JSON(signupErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	if ac.auditService != nil {
		ac.auditService.LogAuth(user.ID, "signup", c.ClientIP(), true)
	}

	if user.Status == entities.UserStatusPending {
		if ac.authorProfiles != nil {
			name := req.Name
			if name == "" {
				name = req.Username
			}
			userID := user.ID
			profile := &entities.Author{
				Name:        name,
				Nationality: req.Nationality,
				Bio:         req.Bio,
				UserID:      &userID,
				Status:      entities.AuthorStatusPending,
				IsValidated: false,
			}
			if err := ac.authorProfiles.CreateAuthor(profile); err != nil {
				c.JSON(signupErrorStatus(err), gin.H{"error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusCreated, gin.H{
			"user":    user,
			"message": "author account created, awaiting validation",
		})
		return
	}

	if ac.sessionManager != nil {
		_ = ac.sessionManager.CreateSession(c.Request, user)
	}
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

func signupErrorStatus(err error) int {
	switch {
	case errors.Is(err, ErrUserExists):
		return http.StatusConflict
	case errors.Is(err, ErrUsernameRequired),
		errors.Is(err, ErrEmailRequired),
		errors.Is(err, ErrPasswordRequired),
		errors.Is(err, ErrUsernameInvalid),
		errors.Is(err, ErrEmailInvalid),
		errors.Is(err, ErrPasswordTooShort),
		errors.Is(err, ErrPasswordTooLong):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login authenticates credentials and opens a session.
func (ac *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	clientIP := c.ClientIP()

	if ac.rateLimiter != nil {
		allowed, retryAfter := ac.rateLimiter.Allow(clientIP, req.Username)
		if !allowed {
			c.Header("Retry-After", retryAfter.String())
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many login attempts"})
			return
		}
	}

	user, err := ac.service.Authenticate(req.Username, req.Password)
	if err != nil {
		if ac.rateLimiter != nil {
			ac.rateLimiter.RecordFailure(clientIP, req.Username)
		}
		if ac.auditService != nil {
			ac.auditService.LogAuth(0, "login_failed", clientIP, false)
		}

		switch {
		case errors.Is(err, ErrAccountLocked):
			c.JSON(http.StatusForbidden, gin.H{"error": "account locked, try again later"})
		case errors.Is(err, ErrAccountBanned):
			c.JSON(http.StatusForbidden, gin.H{"error": "account is banned"})
		case errors.Is(err, ErrAccountPending):
			c.JSON(http.StatusForbidden, gin.H{"error": "account is awaiting validation"})
		case errors.Is(err, ErrAccountRejected):
			c.JSON(http.StatusForbidden, gin.H{"error": "account registration was rejected"})
		default:
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
		}
		return
	}

	if ac.rateLimiter != nil {
		ac.rateLimiter.RecordSuccess(clientIP, req.Username)
	}

	if ac.sessionManager != nil {
		if err := ac.sessionManager.CreateSession(c.Request, user); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
			return
		}
	}

	if ac.auditService != nil {
		ac.auditService.LogAuth(user.ID, "login", clientIP, true)
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Logout destroys the session.
func (ac *AuthController) Logout(c *gin.Context) {
	if ac.sessionManager != nil {
		_ = ac.sessionManager.DestroySession(c.Request)
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Profile returns the authenticated user.
func (ac *AuthController) Profile(c *gin.Context) {
	user, err := ac.service.GetUserByID(GetUserID(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// ChangePassword updates the authenticated user's password.
func (ac *AuthController) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "old_password and new_password are required"})
		return
	}

	err := ac.service.ChangePassword(GetUserID(c), req.OldPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidPassword):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "old password is incorrect"})
		case errors.Is(err, ErrPasswordTooShort), errors.Is(err, ErrPasswordTooLong):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to change password"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password changed"})
}

// GenerateToken creates a new API token for the authenticated user.
func (ac *AuthController) GenerateToken(c *gin.Context) {
	token, err := ac.service.GenerateToken(GetUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":   token,
		"message": "Store this token securely - it will not be shown again",
	})
}

// RevokeToken revokes the API token for the authenticated user.
func (ac *AuthController) RevokeToken(c *gin.Context) {
	if err := ac.service.RevokeToken(GetUserID(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "token revoked"})
}
