package repository

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"catalog-service/internal/models"
	"catalog-service/internal/ranking"
)

func newProductsRepo(t *testing.T) (*ProductsRepository, *CatalogRepository, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	return NewProductsRepository(db, nil, testLogger()),
		NewCatalogRepository(db, nil, testLogger()), db
}

func makeProduct(t *testing.T, repo *ProductsRepository, categoryID uuid.UUID) *models.Product {
	t.Helper()
	product := &models.Product{
		CategoryID: categoryID,
		Name:       "p",
		Slug:       uuid.NewString(),
		SKU:        uuid.NewString(),
		IsActive:   true,
	}
	require.NoError(t, repo.CreateProduct(product))
	return product
}

func TestCreateProductBumpsCounters(t *testing.T) {
	productsRepo, catalogRepo, _ := newProductsRepo(t)
	category := makeCategory(t, catalogRepo, "shoes")

	sub := &models.SubCategory{
		CategoryID: category.ID,
		Name:       "boots",
		Slug:       "boots",
		Position:   1,
		IsActive:   true,
	}
	require.NoError(t, catalogRepo.CreateSubCategory(sub))

	subID := sub.ID
	product := &models.Product{
		CategoryID:    category.ID,
		SubCategoryID: &subID,
		Name:          "p",
		Slug:          "p",
		SKU:           "SKU-1",
		IsActive:      true,
	}
	require.NoError(t, productsRepo.CreateProduct(product))

	gotCategory, err := catalogRepo.GetCategoryByID(category.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 1, gotCategory.ProductCount)

	gotSub, err := catalogRepo.GetSubCategoryByID(sub.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 1, gotSub.ProductCount)
}

func TestCreateInactiveProductSkipsCounters(t *testing.T) {
	productsRepo, catalogRepo, _ := newProductsRepo(t)
	category := makeCategory(t, catalogRepo, "shoes")

	product := &models.Product{
		CategoryID: category.ID,
		Name:       "p",
		Slug:       "p",
		SKU:        "SKU-1",
		IsActive:   false,
	}
	require.NoError(t, productsRepo.CreateProduct(product))

	// The inactive flag survives the insert as written.
	got, err := productsRepo.GetProductByID(product.ID.String())
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	gotCategory, err := catalogRepo.GetCategoryByID(category.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 0, gotCategory.ProductCount)
}

func TestDeactivateProductKeepsCountersInSync(t *testing.T) {
	productsRepo, catalogRepo, _ := newProductsRepo(t)
	category := makeCategory(t, catalogRepo, "shoes")
	product := makeProduct(t, productsRepo, category.ID)

	require.NoError(t, productsRepo.UpdateProduct(product.ID.String(), map[string]interface{}{
		"is_active": false,
	}))

	got, err := catalogRepo.GetCategoryByID(category.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 0, got.ProductCount)

	// The stored counter matches what a recount would compute.
	result, err := catalogRepo.RecountCategory(category.ID.String())
	require.NoError(t, err)
	assert.Equal(t, got.ProductCount, result.ProductCount)

	require.NoError(t, productsRepo.UpdateProduct(product.ID.String(), map[string]interface{}{
		"is_active": true,
	}))
	got, err = catalogRepo.GetCategoryByID(category.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 1, got.ProductCount)
}

func TestDeleteInactiveProductLeavesCounterAlone(t *testing.T) {
	productsRepo, catalogRepo, _ := newProductsRepo(t)
	category := makeCategory(t, catalogRepo, "shoes")
	product := makeProduct(t, productsRepo, category.ID)

	require.NoError(t, productsRepo.UpdateProduct(product.ID.String(), map[string]interface{}{
		"is_active": false,
	}))
	require.NoError(t, productsRepo.DeleteProduct(product.ID.String()))

	got, err := catalogRepo.GetCategoryByID(category.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 0, got.ProductCount)
}

func TestDeleteProductDecrementsCounters(t *testing.T) {
	productsRepo, catalogRepo, _ := newProductsRepo(t)
	category := makeCategory(t, catalogRepo, "shoes")
	product := makeProduct(t, productsRepo, category.ID)

	require.NoError(t, productsRepo.DeleteProduct(product.ID.String()))

	got, err := catalogRepo.GetCategoryByID(category.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 0, got.ProductCount)

	_, err = productsRepo.GetProductByID(product.ID.String())
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestReassignProductMovesCounters(t *testing.T) {
	productsRepo, catalogRepo, _ := newProductsRepo(t)
	oldCategory := makeCategory(t, catalogRepo, "shoes")
	newCategory := makeCategory(t, catalogRepo, "hats")
	product := makeProduct(t, productsRepo, oldCategory.ID)

	require.NoError(t, productsRepo.ReassignProduct(product.ID.String(), newCategory.ID.String(), nil))

	oldGot, err := catalogRepo.GetCategoryByID(oldCategory.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 0, oldGot.ProductCount)

	newGot, err := catalogRepo.GetCategoryByID(newCategory.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 1, newGot.ProductCount)

	got, err := productsRepo.GetProductByID(product.ID.String())
	require.NoError(t, err)
	assert.Equal(t, newCategory.ID, got.CategoryID)
}

func TestReassignInactiveProductLeavesCountersAlone(t *testing.T) {
	productsRepo, catalogRepo, _ := newProductsRepo(t)
	oldCategory := makeCategory(t, catalogRepo, "shoes")
	newCategory := makeCategory(t, catalogRepo, "hats")
	product := makeProduct(t, productsRepo, oldCategory.ID)

	require.NoError(t, productsRepo.UpdateProduct(product.ID.String(), map[string]interface{}{
		"is_active": false,
	}))
	require.NoError(t, productsRepo.ReassignProduct(product.ID.String(), newCategory.ID.String(), nil))

	oldGot, err := catalogRepo.GetCategoryByID(oldCategory.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 0, oldGot.ProductCount)

	newGot, err := catalogRepo.GetCategoryByID(newCategory.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 0, newGot.ProductCount)
}

func TestMoveToSubCategoryMovesCounter(t *testing.T) {
	productsRepo, catalogRepo, _ := newProductsRepo(t)
	category := makeCategory(t, catalogRepo, "shoes")

	boots := &models.SubCategory{CategoryID: category.ID, Name: "boots", Slug: "boots", Position: 1, IsActive: true}
	require.NoError(t, catalogRepo.CreateSubCategory(boots))
	heels := &models.SubCategory{CategoryID: category.ID, Name: "heels", Slug: "heels", Position: 2, IsActive: true}
	require.NoError(t, catalogRepo.CreateSubCategory(heels))

	bootsID := boots.ID
	product := &models.Product{
		CategoryID:    category.ID,
		SubCategoryID: &bootsID,
		Name:          "p",
		Slug:          "p",
		SKU:           "SKU-1",
		IsActive:      true,
	}
	require.NoError(t, productsRepo.CreateProduct(product))

	heelsID := heels.ID.String()
	require.NoError(t, productsRepo.MoveToSubCategory(product.ID.String(), &heelsID))

	got, err := productsRepo.GetProductByID(product.ID.String())
	require.NoError(t, err)
	require.NotNil(t, got.SubCategoryID)
	assert.Equal(t, heels.ID, *got.SubCategoryID)
	assert.Equal(t, category.ID, got.CategoryID)

	gotBoots, err := catalogRepo.GetSubCategoryByID(boots.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 0, gotBoots.ProductCount)

	gotHeels, err := catalogRepo.GetSubCategoryByID(heels.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 1, gotHeels.ProductCount)

	// The category's own counter is untouched by a sub-category move.
	gotCategory, err := catalogRepo.GetCategoryByID(category.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 1, gotCategory.ProductCount)
}

func TestMoveToSubCategoryClear(t *testing.T) {
	productsRepo, catalogRepo, _ := newProductsRepo(t)
	category := makeCategory(t, catalogRepo, "shoes")

	boots := &models.SubCategory{CategoryID: category.ID, Name: "boots", Slug: "boots", Position: 1, IsActive: true}
	require.NoError(t, catalogRepo.CreateSubCategory(boots))

	bootsID := boots.ID
	product := &models.Product{
		CategoryID:    category.ID,
		SubCategoryID: &bootsID,
		Name:          "p",
		Slug:          "p",
		SKU:           "SKU-1",
		IsActive:      true,
	}
	require.NoError(t, productsRepo.CreateProduct(product))

	require.NoError(t, productsRepo.MoveToSubCategory(product.ID.String(), nil))

	got, err := productsRepo.GetProductByID(product.ID.String())
	require.NoError(t, err)
	assert.Nil(t, got.SubCategoryID)

	gotBoots, err := catalogRepo.GetSubCategoryByID(boots.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 0, gotBoots.ProductCount)
}

func TestFeaturedScopeAndMutations(t *testing.T) {
	productsRepo, catalogRepo, _ := newProductsRepo(t)
	category := makeCategory(t, catalogRepo, "shoes")
	a := makeProduct(t, productsRepo, category.ID)
	b := makeProduct(t, productsRepo, category.ID)

	require.NoError(t, productsRepo.PromoteProduct(a.ID.String(), 1))
	require.NoError(t, productsRepo.PromoteProduct(b.ID.String(), 2))

	scope, err := productsRepo.FeaturedScope(category.ID.String())
	require.NoError(t, err)
	assert.Len(t, scope, 2)

	// Demote a: b shifts down, a leaves the scope entirely.
	one := 1
	muts := []ranking.Mutation{
		{ID: a.ID.String(), Rank: nil},
		{ID: b.ID.String(), Rank: &one},
	}
	require.NoError(t, productsRepo.ApplyFeaturedMutations(muts))

	gotA, err := productsRepo.GetProductByID(a.ID.String())
	require.NoError(t, err)
	assert.False(t, gotA.IsFeatured)
	assert.Nil(t, gotA.FeaturedRank)

	gotB, err := productsRepo.GetProductByID(b.ID.String())
	require.NoError(t, err)
	assert.True(t, gotB.IsFeatured)
	require.NotNil(t, gotB.FeaturedRank)
	assert.Equal(t, 1, *gotB.FeaturedRank)
}

func TestListFeaturedOrdersByRank(t *testing.T) {
	productsRepo, catalogRepo, _ := newProductsRepo(t)
	category := makeCategory(t, catalogRepo, "shoes")
	a := makeProduct(t, productsRepo, category.ID)
	b := makeProduct(t, productsRepo, category.ID)

	require.NoError(t, productsRepo.PromoteProduct(b.ID.String(), 1))
	require.NoError(t, productsRepo.PromoteProduct(a.ID.String(), 2))

	featured, err := productsRepo.ListFeatured(category.ID.String())
	require.NoError(t, err)
	require.Len(t, featured, 2)
	assert.Equal(t, b.ID, featured[0].ID)
	assert.Equal(t, a.ID, featured[1].ID)
}

func TestAdjustVariantStock(t *testing.T) {
	productsRepo, catalogRepo, _ := newProductsRepo(t)
	category := makeCategory(t, catalogRepo, "shoes")

	product := &models.Product{
		CategoryID: category.ID,
		Name:       "sneaker",
		Slug:       "sneaker",
		SKU:        "SKU-SNK",
		IsActive:   true,
		SizeVariants: models.SizeVariantList{
			{ID: "s1", Label: "S", Price: 500},
		},
		ColorVariants: models.ColorVariantList{
			{ID: "c1", Label: "Black", StockBySize: map[string]int{"s1": 5}},
		},
	}
	require.NoError(t, productsRepo.CreateProduct(product))
	id := product.ID.String()

	require.NoError(t, productsRepo.AdjustVariantStock(id, "c1", "s1", -3))
	got, err := productsRepo.GetProductByID(id)
	require.NoError(t, err)
	assert.Equal(t, 2, got.ColorVariants[0].StockBySize["s1"])

	// Deductions clamp at zero.
	require.NoError(t, productsRepo.AdjustVariantStock(id, "c1", "s1", -10))
	got, err = productsRepo.GetProductByID(id)
	require.NoError(t, err)
	assert.Equal(t, 0, got.ColorVariants[0].StockBySize["s1"])

	err = productsRepo.AdjustVariantStock(id, "missing", "s1", -1)
	assert.ErrorIs(t, err, ErrColorNotFound)
}

func TestSKUExists(t *testing.T) {
	productsRepo, catalogRepo, _ := newProductsRepo(t)
	category := makeCategory(t, catalogRepo, "shoes")
	product := makeProduct(t, productsRepo, category.ID)

	exists, err := productsRepo.SKUExists(product.SKU)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = productsRepo.SKUExists("nope")
	require.NoError(t, err)
	assert.False(t, exists)
}
