package categories

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
		&entities.Category{},
		&entities.Book{},
	)
	require.NoError(t, err)

	return db
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Science Fiction", "science-fiction"},
		{"  Fiction  ", "fiction"},
		{"Children's Books", "children-s-books"},
		{"20th Century", "20th-century"},
		{"!!!", "category"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.name), tt.name)
	}
}

func TestCreateCategory_SlugDeduplication(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	first := &entities.Category{Name: "Science Fiction", IsActive: true}
	require.NoError(t, repo.CreateCategory(first))
	assert.Equal(t, "science-fiction", first.Slug)

	second := &entities.Category{Name: "Science & Fiction", IsActive: true}
	require.NoError(t, repo.CreateCategory(second))
	assert.Equal(t, "science-fiction-2", second.Slug)

	third := &entities.Category{Name: "Science   Fiction", IsActive: true}
	require.NoError(t, repo.CreateCategory(third))
	assert.Equal(t, "science-fiction-3", third.Slug)
}

func TestCreateCategory_InactivePersists(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	cat := &entities.Category{Name: "Backlist", IsActive: false}
	require.NoError(t, repo.CreateCategory(cat))

	var got entities.Category
	require.NoError(t, db.First(&got, cat.ID).Error)
	assert.False(t, got.IsActive, "inactive flag must survive the insert")
}

func TestGetCategoryBySlug(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	cat := &entities.Category{Name: "Fantasy", IsActive: true}
	require.NoError(t, repo.CreateCategory(cat))

	got, err := repo.GetCategoryBySlug("fantasy")
	require.NoError(t, err)
	assert.Equal(t, cat.ID, got.ID)

	_, err = repo.GetCategoryBySlug("missing")
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestListCategories(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	require.NoError(t, repo.CreateCategory(&entities.Category{Name: "Fiction", Position: 2, IsActive: true}))
	require.NoError(t, repo.CreateCategory(&entities.Category{Name: "Poetry", Position: 1, IsActive: true}))
	require.NoError(t, repo.CreateCategory(&entities.Category{Name: "Retired", Position: 3, IsActive: false}))

	active, err := repo.ListCategories(true)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "Poetry", active[0].Name, "ordered by position")

	all, err := repo.ListCategories(false)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestUpdateCategory_RegeneratesSlugOnRename(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	cat := &entities.Category{Name: "Fantasy", IsActive: true}
	require.NoError(t, repo.CreateCategory(cat))

	updated, err := repo.UpdateCategory(cat.ID, map[string]any{"name": "High Fantasy"})
	require.NoError(t, err)
	assert.Equal(t, "High Fantasy", updated.Name)
	assert.Equal(t, "high-fantasy", updated.Slug)

	// Updating without a rename keeps the slug
	updated, err = repo.UpdateCategory(cat.ID, map[string]any{"description": "Epic settings"})
	require.NoError(t, err)
	assert.Equal(t, "high-fantasy", updated.Slug)
	assert.Equal(t, "Epic settings", updated.Description)
}

func TestDeleteCategory(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	empty := &entities.Category{Name: "Empty", IsActive: true}
	require.NoError(t, repo.CreateCategory(empty))
	require.NoError(t, repo.DeleteCategory(empty.ID))

	_, err := repo.GetCategoryByID(empty.ID)
	assert.ErrorIs(t, err, ErrCategoryNotFound)

	assert.ErrorIs(t, repo.DeleteCategory(999), ErrCategoryNotFound)
}

func TestDeleteCategory_InUse(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	cat := &entities.Category{Name: "Fiction", IsActive: true}
	require.NoError(t, repo.CreateCategory(cat))

	author := &entities.Author{Name: "Frank Herbert", Status: entities.AuthorStatusActive}
	require.NoError(t, db.Create(author).Error)
	book := &entities.Book{Title: "Dune", AuthorID: author.ID, Categories: []entities.Category{*cat}}
	require.NoError(t, db.Create(book).Error)

	assert.ErrorIs(t, repo.DeleteCategory(cat.ID), ErrCategoryInUse)
}

func TestDeleteCategory_DetachesChildren(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	parent := &entities.Category{Name: "Fiction", IsActive: true}
	require.NoError(t, repo.CreateCategory(parent))
	child := &entities.Category{Name: "Literary Fiction", ParentID: &parent.ID, IsActive: true}
	require.NoError(t, repo.CreateCategory(child))

	require.NoError(t, repo.DeleteCategory(parent.ID))

	got, err := repo.GetCategoryByID(child.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ParentID)
}

func TestGetCategoriesByIDs(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	a := &entities.Category{Name: "Fiction", IsActive: true}
	b := &entities.Category{Name: "Poetry", IsActive: true}
	require.NoError(t, repo.CreateCategory(a))
	require.NoError(t, repo.CreateCategory(b))

	got, err := repo.GetCategoriesByIDs([]uint{a.ID, b.ID})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = repo.GetCategoriesByIDs([]uint{a.ID, 999})
	assert.ErrorIs(t, err, ErrCategoryNotFound)

	got, err = repo.GetCategoriesByIDs(nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}
