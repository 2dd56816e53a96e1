package variants

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-service/internal/models"
)

func legacyProduct() models.Product {
	stock := 7
	images := models.JSONArray{
		map[string]interface{}{"id": "img-a", "url": "https://cdn.example.com/a.jpg", "position": 0},
		"https://cdn.example.com/b.jpg",
	}
	return models.Product{
		ID:             uuid.New(),
		Name:           "Sanganeri Dupatta",
		Price:          floatPtr(850),
		CompareAtPrice: floatPtr(1100),
		Stock:          &stock,
		Images:         &images,
	}
}

func TestCanonicalizeLegacyProduct(t *testing.T) {
	p := Canonicalize(legacyProduct())

	require.Len(t, p.SizeVariants, 1)
	size := p.SizeVariants[0]
	assert.Equal(t, LegacySizeLabel, size.Label)
	assert.Equal(t, 850.0, size.Price)
	require.NotNil(t, size.CompareAtPrice)
	assert.Equal(t, 1100.0, *size.CompareAtPrice)

	require.Len(t, p.ColorVariants, 1)
	color := p.ColorVariants[0]
	assert.Equal(t, LegacyColorLabel, color.Label)
	assert.Equal(t, map[string]int{size.ID: 7}, color.StockBySize)
	require.Len(t, color.Images, 2)
	assert.Equal(t, "img-a", color.Images[0].ID)
	assert.Equal(t, "https://cdn.example.com/b.jpg", color.Images[1].URL)
}

func TestCanonicalizeIsIdempotent(t *testing.T) {
	once := Canonicalize(legacyProduct())
	twice := Canonicalize(once)
	assert.Equal(t, once.SizeVariants, twice.SizeVariants)
	assert.Equal(t, once.ColorVariants, twice.ColorVariants)
}

func TestCanonicalizeDoesNotMutateInput(t *testing.T) {
	legacy := legacyProduct()
	_ = Canonicalize(legacy)
	assert.Empty(t, legacy.SizeVariants)
	assert.Empty(t, legacy.ColorVariants)
}

func TestCanonicalizeLeavesCanonicalUntouched(t *testing.T) {
	p := models.Product{
		ID:            uuid.New(),
		SizeVariants:  models.SizeVariantList{{ID: "s1", Label: "S", Price: 10}},
		ColorVariants: models.ColorVariantList{{ID: "c1", Label: "Red", StockBySize: map[string]int{"s1": 1}}},
	}
	out := Canonicalize(p)
	assert.Equal(t, p.SizeVariants, out.SizeVariants)
	assert.Equal(t, p.ColorVariants, out.ColorVariants)
}

func TestSyncStockMatrixAddsMissingAndDropsStale(t *testing.T) {
	p := models.Product{
		SizeVariants: models.SizeVariantList{
			{ID: "s1", Label: "S", Price: 10},
			{ID: "s2", Label: "M", Price: 12},
		},
		ColorVariants: models.ColorVariantList{
			{ID: "c1", Label: "Red", StockBySize: map[string]int{"s1": 4, "gone": 9}},
			{ID: "c2", Label: "Blue"},
		},
	}

	changed := SyncStockMatrix(&p)
	assert.True(t, changed)
	assert.Equal(t, map[string]int{"s1": 4, "s2": 0}, p.ColorVariants[0].StockBySize)
	assert.Equal(t, map[string]int{"s1": 0, "s2": 0}, p.ColorVariants[1].StockBySize)
}

func TestSyncStockMatrixNoChange(t *testing.T) {
	p := models.Product{
		SizeVariants: models.SizeVariantList{{ID: "s1", Label: "S", Price: 10}},
		ColorVariants: models.ColorVariantList{
			{ID: "c1", Label: "Red", StockBySize: map[string]int{"s1": 2}},
		},
	}
	assert.False(t, SyncStockMatrix(&p))
	assert.Equal(t, map[string]int{"s1": 2}, p.ColorVariants[0].StockBySize)
}
