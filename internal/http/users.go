package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/audit"
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/auth"
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/database/authors"
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/database/users"
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/entities"
)

// UsersController covers reader profile self-service, warning
// notifications, the author readers dashboard, and admin user
// moderation (warn, ban, roles, author account creation).
type UsersController struct {
	users       *users.Repository
	authors     *authors.Repository
	authService *auth.Service
	audit       *audit.Service
}

func NewUsersController(userRepo *users.Repository, authorRepo *authors.Repository, authService *auth.Service, auditService *audit.Service) *UsersController {
	return &UsersController{
		users:       userRepo,
		authors:     authorRepo,
		authService: authService,
		audit:       auditService,
	}
}

// UpdateProfile updates the caller's display fields.
// PUT /api/profile
func (uc *UsersController) UpdateProfile(c *gin.Context) {
	var req struct {
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request")
		return
	}

	fields := map[string]any{}
	if req.Email != "" {
		fields["email"] = req.Email
	}
	if req.AvatarURL != "" {
		fields["avatar_url"] = req.AvatarURL
	}
	if len(fields) == 0 {
		respondBadRequest(c, "nothing to update")
		return
	}

	userID := GetUserID(c)
	if err := uc.users.UpdateProfile(userID, fields); err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			respondNotFound(c, "user")
			return
		}
		respondInternalError(c, err, "update profile")
		return
	}

	user, err := uc.users.GetUserByID(userID)
	if err != nil {
		respondInternalError(c, err, "update profile")
		return
	}
	c.JSON(http.StatusOK, user)
}

// ListOwnWarnings returns the caller's warnings, newest first.
// GET /api/me/warnings
func (uc *UsersController) ListOwnWarnings(c *gin.Context) {
	items, err := uc.users.ListWarnings(GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "list warnings")
		return
	}
	c.JSON(http.StatusOK, gin.H{"warnings": items, "count": len(items)})
}

// MarkOwnWarningsRead marks all of the caller's warnings as read.
// PUT /api/me/warnings/read
func (uc *UsersController) MarkOwnWarningsRead(c *gin.Context) {
	if err := uc.users.MarkWarningsRead(GetUserID(c)); err != nil {
		respondInternalError(c, err, "mark warnings read")
		return
	}
	respondSuccess(c, "warnings marked read")
}

// ListAuthorReaders returns the distinct readers who borrowed the
// calling author's books.
// GET /api/author/readers
func (uc *UsersController) ListAuthorReaders(c *gin.Context) {
	author, err := uc.authors.GetAuthorByUserID(GetUserID(c))
	if err != nil {
		if errors.Is(err, authors.ErrAuthorNotFound) {
			respondForbidden(c, "no author profile for this account")
			return
		}
		respondInternalError(c, err, "author readers")
		return
	}

	readers, err := uc.users.ListReadersByAuthor(author.ID)
	if err != nil {
		respondInternalError(c, err, "author readers")
		return
	}
	c.JSON(http.StatusOK, gin.H{"readers": readers, "count": len(readers)})
}

// --- Admin endpoints ---

// AdminListUsers returns users with role/status filters, search and
// pagination.
// GET /api/admin/users
func (uc *UsersController) AdminListUsers(c *gin.Context) {
	page, limit := parsePagination(c, 20, 100)

	filter := users.ListFilter{
		Role:   entities.UserRole(c.Query("role")),
		Status: entities.UserStatus(c.Query("status")),
		Search: c.Query("search"),
		Page:   page,
		Limit:  limit,
	}

	items, total, err := uc.users.ListUsers(filter)
	if err != nil {
		respondInternalError(c, err, "admin list users")
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

// AdminGetUser returns one user with warnings preloaded.
// GET /api/admin/users/:id
func (uc *UsersController) AdminGetUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	user, err := uc.users.GetUserByID(id)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			respondNotFound(c, "user")
			return
		}
		respondInternalError(c, err, "admin get user")
		return
	}

	warnings, err := uc.users.ListWarnings(id)
	if err != nil {
		respondInternalError(c, err, "admin get user")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user, "warnings": warnings})
}

// AdminWarnUser files a manual warning against a user.
// POST /api/admin/users/:id/warn
func (uc *UsersController) AdminWarnUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "message is required")
		return
	}

	adminID := GetUserID(c)
	warning := &entities.Warning{
		UserID:  id,
		AdminID: &adminID,
		Message: req.Message,
	}
	count, err := uc.users.AddWarning(warning)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			respondNotFound(c, "user")
			return
		}
		respondInternalError(c, err, "warn user")
		return
	}

	uc.audit.LogModeration(adminID, "user_warn", "user", id, req.Message)
	c.JSON(http.StatusCreated, gin.H{"warning": warning, "warnings_count": count})
}

// AdminBanUser bans a user with a reason. Banned users cannot log in
// and their sessions and tokens stop resolving.
// POST /api/admin/users/:id/ban
func (uc *UsersController) AdminBanUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
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

	adminID := GetUserID(c)
	if id == adminID {
		respondUnprocessable(c, "cannot ban yourself")
		return
	}

	if err := uc.users.BanUser(id, req.Reason); err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			respondNotFound(c, "user")
			return
		}
		respondInternalError(c, err, "ban user")
		return
	}

	uc.audit.LogModeration(adminID, "user_ban", "user", id, req.Reason)
	respondSuccess(c, "user banned")
}

// AdminUnbanUser lifts a ban.
// POST /api/admin/users/:id/unban
func (uc *UsersController) AdminUnbanUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := uc.users.UnbanUser(id); err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			respondNotFound(c, "user")
			return
		}
		respondInternalError(c, err, "unban user")
		return
	}

	uc.audit.LogModeration(GetUserID(c), "user_unban", "user", id, "")
	respondSuccess(c, "user unbanned")
}

// AdminSetUserRole changes a user's role.
// PUT /api/admin/users/:id/role
func (uc *UsersController) AdminSetUserRole(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "role is required")
		return
	}

	role := entities.UserRole(req.Role)
	switch role {
	case entities.UserRoleReader, entities.UserRoleAuthor, entities.UserRoleAdmin:
	default:
		respondUnprocessable(c, "invalid role")
		return
	}

	if err := uc.users.SetRole(id, role); err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			respondNotFound(c, "user")
			return
		}
		respondInternalError(c, err, "set user role")
		return
	}

	uc.audit.LogModeration(GetUserID(c), "user_role", "user", id, req.Role)
	respondSuccess(c, "role updated")
}

// AdminCreateAuthorAccount creates a pre-validated author: a user
// account with the author role plus a linked active author profile.
// POST /api/admin/users/authors
func (uc *UsersController) AdminCreateAuthorAccount(c *gin.Context) {
	var req struct {
		Username    string `json:"username" binding:"required"`
		Email       string `json:"email" binding:"required"`
		Password    string `json:"password" binding:"required"`
		Name        string `json:"name" binding:"required"`
		Nationality string `json:"nationality"`
		Bio         string `json:"bio"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := uc.authService.CreateUser(req.Username, req.Email, req.Password, entities.UserRoleAuthor)
	if err != nil {
		if errors.Is(err, auth.ErrUserExists) {
			respondConflict(c, "username or email already taken")
			return
		}
		respondUnprocessable(c, err.Error())
		return
	}

	// Admin-created author accounts skip the pending validation gate.
	if err := uc.users.SetStatus(user.ID, entities.UserStatusActive); err != nil {
		respondInternalError(c, err, "create author account")
		return
	}

	userID := user.ID
	author := &entities.Author{
		Name:        req.Name,
		Nationality: req.Nationality,
		Bio:         req.Bio,
		UserID:      &userID,
		Status:      entities.AuthorStatusActive,
		IsValidated: true,
	}
	if err := uc.authors.CreateAuthor(author); err != nil {
		if errors.Is(err, authors.ErrAuthorExists) {
			respondConflict(c, "an author with this name already exists")
			return
		}
		respondInternalError(c, err, "create author account")
		return
	}

	uc.audit.LogModeration(GetUserID(c), "author_account_create", "user", user.ID, req.Name)
	respondCreated(c, gin.H{"user": user, "author": author})
}
