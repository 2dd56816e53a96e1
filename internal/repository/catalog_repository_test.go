package repository

import (
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"catalog-service/internal/models"
	"catalog-service/internal/ranking"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Category{}, &models.SubCategory{}, &models.Product{}))
	return db
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newCatalogRepo(t *testing.T) (*CatalogRepository, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	return NewCatalogRepository(db, nil, testLogger()), db
}

func makeCategory(t *testing.T, repo *CatalogRepository, name string) *models.Category {
	t.Helper()
	category := &models.Category{
		Name:                 name,
		Slug:                 name,
		Position:             1,
		FeaturedProductLimit: models.DefaultFeaturedProductLimit,
		IsActive:             true,
	}
	require.NoError(t, repo.CreateCategory(category))
	return category
}

func TestCreateAndGetCategory(t *testing.T) {
	repo, _ := newCatalogRepo(t)
	created := makeCategory(t, repo, "shoes")

	got, err := repo.GetCategoryByID(created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "shoes", got.Name)
	assert.False(t, got.IsShowcase)
	assert.Nil(t, got.ShowcaseRank)
}

func TestCreateCategoryPersistsInactive(t *testing.T) {
	repo, _ := newCatalogRepo(t)
	category := &models.Category{
		Name:     "archive",
		Slug:     "archive",
		Position: 1,
		IsActive: false,
	}
	require.NoError(t, repo.CreateCategory(category))

	got, err := repo.GetCategoryByID(category.ID.String())
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}

func TestGetCategoryNotFound(t *testing.T) {
	repo, _ := newCatalogRepo(t)
	_, err := repo.GetCategoryByID(uuid.NewString())
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestSlugExists(t *testing.T) {
	repo, _ := newCatalogRepo(t)
	makeCategory(t, repo, "shoes")

	exists, err := repo.SlugExists("shoes")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.SlugExists("hats")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPromoteCategoryAndShowcaseScope(t *testing.T) {
	repo, _ := newCatalogRepo(t)
	a := makeCategory(t, repo, "a")
	b := makeCategory(t, repo, "b")
	makeCategory(t, repo, "c")

	require.NoError(t, repo.PromoteCategory(a.ID.String(), 1))
	require.NoError(t, repo.PromoteCategory(b.ID.String(), 2))

	scope, err := repo.ShowcaseScope()
	require.NoError(t, err)
	require.Len(t, scope, 2)

	listed, err := repo.ListShowcase()
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, a.ID, listed[0].ID)
	assert.Equal(t, b.ID, listed[1].ID)
}

func TestApplyShowcaseMutationsNilRankClearsFlag(t *testing.T) {
	repo, _ := newCatalogRepo(t)
	a := makeCategory(t, repo, "a")
	require.NoError(t, repo.PromoteCategory(a.ID.String(), 1))

	muts := []ranking.Mutation{{ID: a.ID.String(), Rank: nil}}
	require.NoError(t, repo.ApplyShowcaseMutations(muts))

	got, err := repo.GetCategoryByID(a.ID.String())
	require.NoError(t, err)
	assert.False(t, got.IsShowcase)
	assert.Nil(t, got.ShowcaseRank)
}

func TestSubCategoryCounterLifecycle(t *testing.T) {
	repo, _ := newCatalogRepo(t)
	parent := makeCategory(t, repo, "clothing")

	sub := &models.SubCategory{
		CategoryID: parent.ID,
		Name:       "shirts",
		Slug:       "shirts",
		Position:   1,
		IsActive:   true,
	}
	require.NoError(t, repo.CreateSubCategory(sub))

	got, err := repo.GetCategoryByID(parent.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 1, got.SubCategoryCount)

	require.NoError(t, repo.DeleteSubCategory(sub.ID.String()))

	got, err = repo.GetCategoryByID(parent.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 0, got.SubCategoryCount)
}

func TestSubCategoryActiveFlagDrivesCounter(t *testing.T) {
	repo, _ := newCatalogRepo(t)
	parent := makeCategory(t, repo, "clothing")

	sub := &models.SubCategory{
		CategoryID: parent.ID,
		Name:       "shirts",
		Slug:       "shirts",
		Position:   1,
		IsActive:   true,
	}
	require.NoError(t, repo.CreateSubCategory(sub))

	require.NoError(t, repo.UpdateSubCategory(sub.ID.String(), map[string]interface{}{
		"is_active": false,
	}))
	got, err := repo.GetCategoryByID(parent.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 0, got.SubCategoryCount)

	// Deleting the already-inactive sub-category must not decrement again.
	require.NoError(t, repo.DeleteSubCategory(sub.ID.String()))
	got, err = repo.GetCategoryByID(parent.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 0, got.SubCategoryCount)
}

func TestCreateInactiveSubCategorySkipsCounter(t *testing.T) {
	repo, _ := newCatalogRepo(t)
	parent := makeCategory(t, repo, "clothing")

	sub := &models.SubCategory{
		CategoryID: parent.ID,
		Name:       "archive",
		Slug:       "archive",
		Position:   1,
		IsActive:   false,
	}
	require.NoError(t, repo.CreateSubCategory(sub))

	got, err := repo.GetSubCategoryByID(sub.ID.String())
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	gotParent, err := repo.GetCategoryByID(parent.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 0, gotParent.SubCategoryCount)
}

func TestUpdateSubCategoryReassignmentMovesCounter(t *testing.T) {
	repo, _ := newCatalogRepo(t)
	oldParent := makeCategory(t, repo, "clothing")
	newParent := makeCategory(t, repo, "outdoor")

	sub := &models.SubCategory{
		CategoryID: oldParent.ID,
		Name:       "jackets",
		Slug:       "jackets",
		Position:   1,
		IsActive:   true,
	}
	require.NoError(t, repo.CreateSubCategory(sub))

	updates := map[string]interface{}{"category_id": newParent.ID.String()}
	require.NoError(t, repo.UpdateSubCategory(sub.ID.String(), updates))

	oldGot, err := repo.GetCategoryByID(oldParent.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 0, oldGot.SubCategoryCount)

	newGot, err := repo.GetCategoryByID(newParent.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 1, newGot.SubCategoryCount)
}

func TestRecountCategoryCorrectsDrift(t *testing.T) {
	repo, db := newCatalogRepo(t)
	category := makeCategory(t, repo, "shoes")

	for i := 0; i < 5; i++ {
		product := &models.Product{
			CategoryID: category.ID,
			Name:       "p",
			Slug:       uuid.NewString(),
			SKU:        uuid.NewString(),
			IsActive:   true,
		}
		require.NoError(t, db.Create(product).Error)
	}
	// Stored counter says 5; delete two products behind the counter's back.
	require.NoError(t, db.Model(&models.Category{}).
		Where("id = ?", category.ID).
		UpdateColumn("product_count", 5).Error)

	var victims []models.Product
	require.NoError(t, db.Limit(2).Find(&victims).Error)
	for _, v := range victims {
		require.NoError(t, db.Delete(&v).Error)
	}

	result, err := repo.RecountCategory(category.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 3, result.ProductCount)

	got, err := repo.GetCategoryByID(category.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 3, got.ProductCount)
}

func TestRecountSubCategory(t *testing.T) {
	repo, db := newCatalogRepo(t)
	category := makeCategory(t, repo, "shoes")
	sub := &models.SubCategory{
		CategoryID: category.ID,
		Name:       "boots",
		Slug:       "boots",
		Position:   1,
		IsActive:   true,
	}
	require.NoError(t, repo.CreateSubCategory(sub))

	subID := sub.ID
	for i := 0; i < 2; i++ {
		product := &models.Product{
			CategoryID:    category.ID,
			SubCategoryID: &subID,
			Name:          "p",
			Slug:          uuid.NewString(),
			SKU:           uuid.NewString(),
			IsActive:      true,
		}
		require.NoError(t, db.Create(product).Error)
	}

	result, err := repo.RecountSubCategory(sub.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 2, result.ProductCount)
}
