package variants

import (
	"encoding/json"

	"github.com/google/uuid"

	"catalog-service/internal/models"
)

// Labels used for the synthetic variants of upgraded legacy products.
const (
	LegacySizeLabel  = "Standard"
	LegacyColorLabel = "Default"
)

// Canonicalize upgrades a legacy single-variant product (flat price/stock/
// image-list, empty variant arrays) into the canonical size/color shape:
// one "Standard" size holding the legacy price and one "Default" color
// holding the legacy images and stock. Already-canonical products pass
// through untouched, so the call is idempotent. The input is never mutated;
// persisting the canonical form is an explicit caller decision.
func Canonicalize(product models.Product) models.Product {
	if product.IsCanonical() {
		return product
	}

	price := 0.0
	if product.Price != nil {
		price = *product.Price
	}
	stock := 0
	if product.Stock != nil {
		stock = *product.Stock
	}

	size := models.SizeVariant{
		ID:             uuid.NewSHA1(uuid.NameSpaceOID, []byte(product.ID.String()+":size")).String(),
		Label:          LegacySizeLabel,
		Price:          price,
		CompareAtPrice: product.CompareAtPrice,
	}
	color := models.ColorVariant{
		ID:          uuid.NewSHA1(uuid.NameSpaceOID, []byte(product.ID.String()+":color")).String(),
		Label:       LegacyColorLabel,
		Swatch:      "#000000",
		Images:      legacyImages(product.Images),
		StockBySize: map[string]int{size.ID: stock},
	}

	product.SizeVariants = models.SizeVariantList{size}
	product.ColorVariants = models.ColorVariantList{color}
	return product
}

// SyncStockMatrix enforces the variant-matrix invariant: every color carries
// exactly one stockBySize entry per size currently on the product. Entries
// for removed sizes are dropped, newly added sizes start at zero. Returns
// true when any color was adjusted.
func SyncStockMatrix(product *models.Product) bool {
	changed := false
	for ci := range product.ColorVariants {
		color := &product.ColorVariants[ci]
		synced := make(map[string]int, len(product.SizeVariants))
		for _, size := range product.SizeVariants {
			if color.StockBySize != nil {
				if qty, ok := color.StockBySize[size.ID]; ok {
					synced[size.ID] = qty
					continue
				}
			}
			synced[size.ID] = 0
			changed = true
		}
		if len(color.StockBySize) != len(synced) {
			changed = true
		}
		color.StockBySize = synced
	}
	return changed
}

// legacyImages converts the loosely typed legacy image list (JSONB array of
// either image objects or bare URL strings) into typed product images.
func legacyImages(raw *models.JSONArray) []models.ProductImage {
	if raw == nil || len(*raw) == 0 {
		return nil
	}
	images := make([]models.ProductImage, 0, len(*raw))
	for i, entry := range *raw {
		switch v := entry.(type) {
		case string:
			images = append(images, models.ProductImage{
				ID:       uuid.NewSHA1(uuid.NameSpaceURL, []byte(v)).String(),
				URL:      v,
				Position: i,
			})
		default:
			data, err := json.Marshal(v)
			if err != nil {
				continue
			}
			var img models.ProductImage
			if err := json.Unmarshal(data, &img); err != nil || img.URL == "" {
				continue
			}
			if img.ID == "" {
				img.ID = uuid.NewSHA1(uuid.NameSpaceURL, []byte(img.URL)).String()
			}
			images = append(images, img)
		}
	}
	return images
}
