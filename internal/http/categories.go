package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/audit"
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/database/categories"
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/entities"
)

// CategoriesController serves the public category tree and admin CRUD.
type CategoriesController struct {
	categories *categories.Repository
	audit      *audit.Service
}

func NewCategoriesController(categoryRepo *categories.Repository, auditService *audit.Service) *CategoriesController {
	return &CategoriesController{
		categories: categoryRepo,
		audit:      auditService,
	}
}

// ListCategories returns active categories ordered by position.
// GET /api/categories
func (cc *CategoriesController) ListCategories(c *gin.Context) {
	items, err := cc.categories.ListCategories(true)
	if err != nil {
		respondInternalError(c, err, "list categories")
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": items, "count": len(items)})
}

// GetCategory returns a category by ID or slug.
// GET /api/categories/:id
func (cc *CategoriesController) GetCategory(c *gin.Context) {
	var (
		category *entities.Category
		err      error
	)

	idStr := c.Param("id")
	if id, parseErr := parseUintSilent(idStr); parseErr == nil {
		category, err = cc.categories.GetCategoryByID(id)
	} else {
		category, err = cc.categories.GetCategoryBySlug(idStr)
	}

	if err != nil {
		if errors.Is(err, categories.ErrCategoryNotFound) {
			respondNotFound(c, "category")
			return
		}
		respondInternalError(c, err, "get category")
		return
	}

	c.JSON(http.StatusOK, category)
}

type categoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
	Position    int    `json:"position"`
	ParentID    *uint  `json:"parent_id"`
	IsActive    *bool  `json:"is_active"`
}

// AdminListCategories returns all categories including inactive ones.
// GET /api/admin/categories
func (cc *CategoriesController) AdminListCategories(c *gin.Context) {
	items, err := cc.categories.ListCategories(false)
	if err != nil {
		respondInternalError(c, err, "admin list categories")
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": items, "count": len(items)})
}

// AdminCreateCategory creates a category; the slug is derived from the name.
// POST /api/admin/categories
func (cc *CategoriesController) AdminCreateCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request: "+err.Error())
		return
	}

	category := &entities.Category{
		Name:        req.Name,
		Description: req.Description,
		Icon:        req.Icon,
		Color:       req.Color,
		Position:    req.Position,
		ParentID:    req.ParentID,
		IsActive:    true,
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}

	if err := cc.categories.CreateCategory(category); err != nil {
		respondInternalError(c, err, "create category")
		return
	}

	cc.audit.LogCatalog(GetUserID(c), "category_create", "category", category.ID, "created "+category.Name)
	respondCreated(c, category)
}

// AdminUpdateCategory updates a category; renaming re-derives the slug.
// PUT /api/admin/categories/:id
func (cc *CategoriesController) AdminUpdateCategory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request: "+err.Error())
		return
	}

	fields := map[string]any{
		"name":        req.Name,
		"description": req.Description,
		"icon":        req.Icon,
		"color":       req.Color,
		"position":    req.Position,
		"parent_id":   req.ParentID,
	}
	if req.IsActive != nil {
		fields["is_active"] = *req.IsActive
	}

	category, err := cc.categories.UpdateCategory(id, fields)
	if err != nil {
		if errors.Is(err, categories.ErrCategoryNotFound) {
			respondNotFound(c, "category")
			return
		}
		respondInternalError(c, err, "update category")
		return
	}

	cc.audit.LogCatalog(GetUserID(c), "category_update", "category", id, "updated "+category.Name)
	c.JSON(http.StatusOK, category)
}

// AdminDeleteCategory removes a category with no books attached.
// DELETE /api/admin/categories/:id
func (cc *CategoriesController) AdminDeleteCategory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := cc.categories.DeleteCategory(id); err != nil {
		switch {
		case errors.Is(err, categories.ErrCategoryNotFound):
			respondNotFound(c, "category")
		case errors.Is(err, categories.ErrCategoryInUse):
			respondConflict(c, "category still has books attached")
		default:
			respondInternalError(c, err, "delete category")
		}
		return
	}

	cc.audit.LogCatalog(GetUserID(c), "category_delete", "category", id, "")
	respondSuccess(c, "category deleted")
}
