// Package variants derives the buyer-facing price/stock/image view from a
// product's size x color variant matrix and upgrades legacy single-variant
// records into the canonical shape.
package variants

import (
	"errors"
	"math"

	"catalog-service/internal/models"
)

// ErrInsufficientStock is returned when a requested quantity exceeds the
// stock available for the selected size/color pair.
var ErrInsufficientStock = errors.New("insufficient stock for requested quantity")

// ErrNoVariants is returned when a product has no variants even after the
// legacy upgrade (no sizes or no colors).
var ErrNoVariants = errors.New("product has no variants")

// ResolvedVariant is the effective storefront view for one size/color
// selection. Zero stock is reported, not worked around: the resolver never
// switches the selection on the caller's behalf.
type ResolvedVariant struct {
	SizeID          string                `json:"sizeId"`
	SizeLabel       string                `json:"sizeLabel"`
	ColorID         string                `json:"colorId"`
	ColorLabel      string                `json:"colorLabel"`
	Price           float64               `json:"price"`
	CompareAtPrice  *float64              `json:"compareAtPrice,omitempty"`
	DiscountPct     int                   `json:"discountPct"`
	Stock           int                   `json:"stock"`
	InStock         bool                  `json:"inStock"`
	Images          []models.ProductImage `json:"images"`
	SelectableSizes []models.SizeVariant  `json:"selectableSizes"`
}

// Resolve computes the effective view for the requested size/color ids. An
// absent or unknown id falls back to the first entry of the respective array.
// The product is canonicalized first, so legacy records resolve too.
func Resolve(product models.Product, sizeID, colorID string) (*ResolvedVariant, error) {
	p := Canonicalize(product)
	if len(p.SizeVariants) == 0 || len(p.ColorVariants) == 0 {
		return nil, ErrNoVariants
	}

	size := p.SizeVariants[0]
	for _, s := range p.SizeVariants {
		if s.ID == sizeID {
			size = s
			break
		}
	}
	color := p.ColorVariants[0]
	for _, c := range p.ColorVariants {
		if c.ID == colorID {
			color = c
			break
		}
	}

	stock := 0
	if color.StockBySize != nil {
		stock = color.StockBySize[size.ID]
	}

	images := color.Images
	if len(images) == 0 {
		images = primaryImages(p)
	}

	selectable := make([]models.SizeVariant, 0, len(p.SizeVariants))
	for _, s := range p.SizeVariants {
		if color.StockBySize != nil {
			if _, ok := color.StockBySize[s.ID]; ok {
				selectable = append(selectable, s)
			}
		}
	}

	return &ResolvedVariant{
		SizeID:          size.ID,
		SizeLabel:       size.Label,
		ColorID:         color.ID,
		ColorLabel:      color.Label,
		Price:           size.Price,
		CompareAtPrice:  size.CompareAtPrice,
		DiscountPct:     discountPct(size.Price, size.CompareAtPrice),
		Stock:           stock,
		InStock:         stock > 0,
		Images:          images,
		SelectableSizes: selectable,
	}, nil
}

// ClampQuantity caps a requested quantity at the resolved variant's stock.
// It returns the purchasable quantity together with ErrInsufficientStock when
// the request could not be honored in full, so callers can choose between
// clamping and hard-failing.
func ClampQuantity(resolved *ResolvedVariant, requested int) (int, error) {
	if requested <= resolved.Stock {
		return requested, nil
	}
	return resolved.Stock, ErrInsufficientStock
}

// discountPct returns round(100*(1-price/compare)) when compare > price,
// otherwise 0. Never negative.
func discountPct(price float64, compare *float64) int {
	if compare == nil || *compare <= price || *compare <= 0 {
		return 0
	}
	return int(math.Round(100 * (1 - price / *compare)))
}

// primaryImages returns the product-level image list used as fallback when
// the selected color carries no images of its own.
func primaryImages(p models.Product) []models.ProductImage {
	for _, c := range p.ColorVariants {
		if len(c.Images) > 0 {
			return c.Images
		}
	}
	return legacyImages(p.Images)
}
