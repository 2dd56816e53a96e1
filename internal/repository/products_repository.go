package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"catalog-service/internal/models"
	"catalog-service/internal/ranking"
)

const ProductCacheTTL = 15 * time.Minute

var (
	ErrProductNotFound = errors.New("product not found")
	ErrColorNotFound   = errors.New("color variant not found")
)

// ProductsRepository persists products, the per-category featured rank scope
// and the product-side counter updates.
type ProductsRepository struct {
	db     *gorm.DB
	redis  *redis.Client
	logger *logrus.Entry
}

func NewProductsRepository(db *gorm.DB, redisClient *redis.Client, logger *logrus.Logger) *ProductsRepository {
	return &ProductsRepository{
		db:     db,
		redis:  redisClient,
		logger: logger.WithField("component", "repository.products"),
	}
}

func (r *ProductsRepository) invalidateProductCaches(productID *string) {
	if r.redis == nil {
		return
	}
	ctx := context.Background()
	if productID != nil {
		r.redis.Del(ctx, fmt.Sprintf("catalog:product:%s", *productID))
	}
	keys, _ := r.redis.Keys(ctx, "catalog:featured:*").Result()
	if len(keys) > 0 {
		r.redis.Del(ctx, keys...)
	}
}

// counterDelta adjusts the owning category/sub-category counters inside tx
func counterDelta(tx *gorm.DB, categoryID string, subCategoryID *string, delta int) error {
	if err := tx.Model(&models.Category{}).
		Where("id = ?", categoryID).
		UpdateColumn("product_count", gorm.Expr("product_count + ?", delta)).Error; err != nil {
		return err
	}
	if subCategoryID != nil {
		return tx.Model(&models.SubCategory{}).
			Where("id = ?", *subCategoryID).
			UpdateColumn("product_count", gorm.Expr("product_count + ?", delta)).Error
	}
	return nil
}

// CreateProduct creates a product and bumps the owning counters in the same
// transaction. Counters track active products only, matching the recount
// definition, so an inactive create leaves them alone.
func (r *ProductsRepository) CreateProduct(product *models.Product) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(product).Error; err != nil {
			return err
		}
		if !product.IsActive {
			return nil
		}
		var subID *string
		if product.SubCategoryID != nil {
			s := product.SubCategoryID.String()
			subID = &s
		}
		return counterDelta(tx, product.CategoryID.String(), subID, 1)
	})
	if err == nil {
		r.invalidateProductCaches(nil)
	}
	return err
}

// GetProductByID retrieves a product by ID with caching
func (r *ProductsRepository) GetProductByID(id string) (*models.Product, error) {
	ctx := context.Background()
	cacheKey := fmt.Sprintf("catalog:product:%s", id)

	if r.redis != nil {
		val, err := r.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			var product models.Product
			if err := json.Unmarshal([]byte(val), &product); err == nil {
				return &product, nil
			}
		}
	}

	var product models.Product
	err := retryRead(func() error {
		return r.db.Where("id = ?", id).First(&product).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	if r.redis != nil {
		if data, err := json.Marshal(product); err == nil {
			r.redis.Set(ctx, cacheKey, data, ProductCacheTTL)
		}
	}

	return &product, nil
}

// GetProducts lists products, optionally scoped to a category
func (r *ProductsRepository) GetProducts(categoryID *string, page, limit int) ([]models.Product, int64, error) {
	var products []models.Product
	var total int64

	err := retryRead(func() error {
		query := r.db.Model(&models.Product{})
		if categoryID != nil {
			query = query.Where("category_id = ?", *categoryID)
		}
		if err := query.Count(&total).Error; err != nil {
			return err
		}
		return query.Order("created_at DESC").
			Limit(limit).Offset((page - 1) * limit).
			Find(&products).Error
	})
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// UpdateProduct applies a partial update that does not change ownership.
// Flipping is_active moves the owning counters: they track active products
// only, so a deactivation is a decrement and a reactivation an increment.
func (r *ProductsRepository) UpdateProduct(id string, updates map[string]interface{}) error {
	existing, err := r.GetProductByID(id)
	if err != nil {
		return err
	}

	activeDelta := 0
	if next, ok := updates["is_active"].(bool); ok && next != existing.IsActive {
		if next {
			activeDelta = 1
		} else {
			activeDelta = -1
		}
	}

	err = r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Product{}).Where("id = ?", id).Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrProductNotFound
		}
		if activeDelta == 0 {
			return nil
		}
		var subID *string
		if existing.SubCategoryID != nil {
			s := existing.SubCategoryID.String()
			subID = &s
		}
		return counterDelta(tx, existing.CategoryID.String(), subID, activeDelta)
	})
	if err != nil {
		return err
	}
	r.invalidateProductCaches(&id)
	return nil
}

// SaveProduct persists a full product row. Used by the explicit legacy
// upgrade: the canonical variant shape is only ever written on request.
func (r *ProductsRepository) SaveProduct(product *models.Product) error {
	err := r.db.Save(product).Error
	if err == nil {
		id := product.ID.String()
		r.invalidateProductCaches(&id)
	}
	return err
}

// ReassignProduct moves a product to another category/sub-category and moves
// the counters between the old and new owners in one transaction. Callers
// demote a featured product before reassigning it: the featured scope is
// per category.
func (r *ProductsRepository) ReassignProduct(id string, newCategoryID string, newSubCategoryID *string) error {
	existing, err := r.GetProductByID(id)
	if err != nil {
		return err
	}

	err = r.db.Transaction(func(tx *gorm.DB) error {
		// Inactive products move without counter updates: the counters only
		// track active rows.
		if existing.IsActive {
			var oldSubID *string
			if existing.SubCategoryID != nil {
				s := existing.SubCategoryID.String()
				oldSubID = &s
			}
			if err := counterDelta(tx, existing.CategoryID.String(), oldSubID, -1); err != nil {
				return err
			}
			if err := counterDelta(tx, newCategoryID, newSubCategoryID, 1); err != nil {
				return err
			}
		}
		updates := map[string]interface{}{
			"category_id":     newCategoryID,
			"sub_category_id": nil,
		}
		if newSubCategoryID != nil {
			updates["sub_category_id"] = *newSubCategoryID
		}
		result := tx.Model(&models.Product{}).Where("id = ?", id).Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrProductNotFound
		}
		return nil
	})
	if err == nil {
		r.invalidateProductCaches(&id)
	}
	return err
}

// MoveToSubCategory moves a product between sub-categories of its category
// and moves the sub-category product counters in the same transaction. A nil
// target clears the assignment. Inactive products move without counter
// updates.
func (r *ProductsRepository) MoveToSubCategory(id string, newSubCategoryID *string) error {
	existing, err := r.GetProductByID(id)
	if err != nil {
		return err
	}

	oldID, newID := "", ""
	if existing.SubCategoryID != nil {
		oldID = existing.SubCategoryID.String()
	}
	if newSubCategoryID != nil {
		newID = *newSubCategoryID
	}
	if oldID == newID {
		return nil
	}

	err = r.db.Transaction(func(tx *gorm.DB) error {
		if existing.IsActive {
			if oldID != "" {
				if err := tx.Model(&models.SubCategory{}).
					Where("id = ?", oldID).
					UpdateColumn("product_count", gorm.Expr("product_count - ?", 1)).Error; err != nil {
					return err
				}
			}
			if newID != "" {
				if err := tx.Model(&models.SubCategory{}).
					Where("id = ?", newID).
					UpdateColumn("product_count", gorm.Expr("product_count + ?", 1)).Error; err != nil {
					return err
				}
			}
		}
		updates := map[string]interface{}{"sub_category_id": nil}
		if newID != "" {
			updates["sub_category_id"] = newID
		}
		result := tx.Model(&models.Product{}).Where("id = ?", id).Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrProductNotFound
		}
		return nil
	})
	if err == nil {
		r.invalidateProductCaches(&id)
	}
	return err
}

// DeleteProduct soft-deletes a product and decrements the owning counters in
// the same transaction. Featured products are demoted by the caller first.
func (r *ProductsRepository) DeleteProduct(id string) error {
	existing, err := r.GetProductByID(id)
	if err != nil {
		return err
	}
	err = r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ?", id).Delete(&models.Product{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrProductNotFound
		}
		// An inactive product already left the counters on deactivation.
		if !existing.IsActive {
			return nil
		}
		var subID *string
		if existing.SubCategoryID != nil {
			s := existing.SubCategoryID.String()
			subID = &s
		}
		return counterDelta(tx, existing.CategoryID.String(), subID, -1)
	})
	if err == nil {
		r.invalidateProductCaches(&id)
	}
	return err
}

// ListFeatured returns a category's featured products ordered by rank, with
// caching for the storefront.
func (r *ProductsRepository) ListFeatured(categoryID string) ([]models.Product, error) {
	ctx := context.Background()
	cacheKey := fmt.Sprintf("catalog:featured:%s", categoryID)

	if r.redis != nil {
		val, err := r.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			var products []models.Product
			if err := json.Unmarshal([]byte(val), &products); err == nil {
				return products, nil
			}
		}
	}

	var products []models.Product
	err := retryRead(func() error {
		return r.db.Where("category_id = ? AND is_featured = ?", categoryID, true).
			Order("featured_rank ASC, created_at ASC").
			Find(&products).Error
	})
	if err != nil {
		return nil, err
	}

	if r.redis != nil {
		if data, err := json.Marshal(products); err == nil {
			r.redis.Set(ctx, cacheKey, data, ProductCacheTTL)
		}
	}

	return products, nil
}

// FeaturedScope returns a category's featured products as rank ledger items
func (r *ProductsRepository) FeaturedScope(categoryID string) ([]ranking.Item, error) {
	var products []models.Product
	err := retryRead(func() error {
		return r.db.Where("category_id = ? AND is_featured = ?", categoryID, true).
			Find(&products).Error
	})
	if err != nil {
		return nil, err
	}
	items := make([]ranking.Item, len(products))
	for i, p := range products {
		items[i] = ranking.Item{ID: p.ID.String(), Rank: p.FeaturedRank, CreatedAt: p.CreatedAt}
	}
	return items, nil
}

// PromoteProduct flags a product as featured at the given rank
func (r *ProductsRepository) PromoteProduct(id string, rank int) error {
	result := r.db.Model(&models.Product{}).Where("id = ?", id).Updates(map[string]interface{}{
		"is_featured":   true,
		"featured_rank": rank,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}
	r.invalidateProductCaches(&id)
	return nil
}

// ApplyFeaturedMutations applies a rank mutation set in one transaction.
// A nil rank clears the featured flag along with the rank.
func (r *ProductsRepository) ApplyFeaturedMutations(muts []ranking.Mutation) error {
	if len(muts) == 0 {
		return nil
	}
	err := r.db.Transaction(func(tx *gorm.DB) error {
		for _, m := range muts {
			updates := map[string]interface{}{}
			if m.Rank == nil {
				updates["featured_rank"] = nil
				updates["is_featured"] = false
			} else {
				updates["featured_rank"] = *m.Rank
			}
			result := tx.Model(&models.Product{}).Where("id = ?", m.ID).Updates(updates)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return ErrProductNotFound
			}
		}
		return nil
	})
	if err == nil {
		r.invalidateProductCaches(nil)
	}
	return err
}

// AdjustVariantStock applies a stock delta to one size/color cell of the
// variant matrix. The product row is the unit of atomicity here (single
// document write); quantities never go below zero.
func (r *ProductsRepository) AdjustVariantStock(id, colorID, sizeID string, delta int) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.Where("id = ?", id).First(&product).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return err
		}
		found := false
		for ci := range product.ColorVariants {
			color := &product.ColorVariants[ci]
			if color.ID != colorID {
				continue
			}
			found = true
			if color.StockBySize == nil {
				color.StockBySize = map[string]int{}
			}
			next := color.StockBySize[sizeID] + delta
			if next < 0 {
				next = 0
			}
			color.StockBySize[sizeID] = next
		}
		if !found {
			return ErrColorNotFound
		}
		return tx.Model(&models.Product{}).Where("id = ?", id).
			UpdateColumn("color_variants", product.ColorVariants).Error
	})
	if err == nil {
		r.invalidateProductCaches(&id)
	}
	return err
}

// SKUExists checks if a SKU is already taken
func (r *ProductsRepository) SKUExists(sku string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Product{}).Where("sku = ?", sku).Count(&count).Error
	return count > 0, err
}
