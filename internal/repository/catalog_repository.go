package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"catalog-service/internal/models"
	"catalog-service/internal/ranking"
)

// Cache TTL constants
const (
	CategoryCacheTTL = 30 * time.Minute // Categories rarely change
	ShowcaseCacheTTL = 10 * time.Minute // Homepage showcase list
)

const maxReadRetries = 3

var (
	ErrCategoryNotFound    = errors.New("category not found")
	ErrSubCategoryNotFound = errors.New("sub-category not found")
)

// retryRead runs a read with bounded exponential backoff to absorb transient
// store unavailability. Writes are never routed through this: retrying a
// write risks duplicate mutation.
func retryRead(fn func() error) error {
	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxReadRetries)
	return backoff.Retry(func() error {
		err := fn()
		if err == nil {
			return nil
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return backoff.Permanent(err)
		}
		return err
	}, policy)
}

// CatalogRepository persists categories and sub-categories, including the
// showcase rank scope and the denormalized counters.
type CatalogRepository struct {
	db     *gorm.DB
	redis  *redis.Client
	logger *logrus.Entry
}

func NewCatalogRepository(db *gorm.DB, redisClient *redis.Client, logger *logrus.Logger) *CatalogRepository {
	return &CatalogRepository{
		db:     db,
		redis:  redisClient,
		logger: logger.WithField("component", "repository.catalog"),
	}
}

func (r *CatalogRepository) invalidateCategoryCaches(categoryID *string) {
	if r.redis == nil {
		return
	}
	ctx := context.Background()
	if categoryID != nil {
		r.redis.Del(ctx, fmt.Sprintf("catalog:category:%s", *categoryID))
	}
	r.redis.Del(ctx, "catalog:showcase")
}

// CreateCategory creates a new category with rank fields unset
func (r *CatalogRepository) CreateCategory(category *models.Category) error {
	err := r.db.Create(category).Error
	if err == nil {
		r.invalidateCategoryCaches(nil)
	}
	return err
}

// GetCategoryByID retrieves a category by ID with caching
func (r *CatalogRepository) GetCategoryByID(id string) (*models.Category, error) {
	ctx := context.Background()
	cacheKey := fmt.Sprintf("catalog:category:%s", id)

	if r.redis != nil {
		val, err := r.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			var category models.Category
			if err := json.Unmarshal([]byte(val), &category); err == nil {
				return &category, nil
			}
		}
	}

	var category models.Category
	err := retryRead(func() error {
		return r.db.Where("id = ?", id).First(&category).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}

	if r.redis != nil {
		if data, err := json.Marshal(category); err == nil {
			r.redis.Set(ctx, cacheKey, data, CategoryCacheTTL)
		}
	}

	return &category, nil
}

// GetCategories retrieves categories ordered by position
func (r *CatalogRepository) GetCategories(page, limit int) ([]models.Category, int64, error) {
	var categories []models.Category
	var total int64

	err := retryRead(func() error {
		query := r.db.Model(&models.Category{})
		if err := query.Count(&total).Error; err != nil {
			return err
		}
		return r.db.Order("position ASC, created_at ASC").
			Limit(limit).Offset((page - 1) * limit).
			Find(&categories).Error
	})
	if err != nil {
		return nil, 0, err
	}
	return categories, total, nil
}

// UpdateCategory applies a partial update to a category
func (r *CatalogRepository) UpdateCategory(id string, updates map[string]interface{}) error {
	result := r.db.Model(&models.Category{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCategoryNotFound
	}
	r.invalidateCategoryCaches(&id)
	return nil
}

// DeleteCategory soft-deletes a category. Ranked categories must be demoted
// first so the showcase permutation stays dense.
func (r *CatalogRepository) DeleteCategory(id string) error {
	result := r.db.Where("id = ?", id).Delete(&models.Category{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCategoryNotFound
	}
	r.invalidateCategoryCaches(&id)
	return nil
}

// ListShowcase returns the showcase scope ordered by rank, with caching for
// the storefront homepage.
func (r *CatalogRepository) ListShowcase() ([]models.Category, error) {
	ctx := context.Background()

	if r.redis != nil {
		val, err := r.redis.Get(ctx, "catalog:showcase").Result()
		if err == nil {
			var categories []models.Category
			if err := json.Unmarshal([]byte(val), &categories); err == nil {
				return categories, nil
			}
		}
	}

	var categories []models.Category
	err := retryRead(func() error {
		return r.db.Where("is_showcase = ?", true).
			Order("showcase_rank ASC, created_at ASC").
			Find(&categories).Error
	})
	if err != nil {
		return nil, err
	}

	if r.redis != nil {
		if data, err := json.Marshal(categories); err == nil {
			r.redis.Set(ctx, "catalog:showcase", data, ShowcaseCacheTTL)
		}
	}

	return categories, nil
}

// ShowcaseScope returns the showcase categories as rank ledger items
func (r *CatalogRepository) ShowcaseScope() ([]ranking.Item, error) {
	var categories []models.Category
	err := retryRead(func() error {
		return r.db.Where("is_showcase = ?", true).Find(&categories).Error
	})
	if err != nil {
		return nil, err
	}
	items := make([]ranking.Item, len(categories))
	for i, c := range categories {
		items[i] = ranking.Item{ID: c.ID.String(), Rank: c.ShowcaseRank, CreatedAt: c.CreatedAt}
	}
	return items, nil
}

// PromoteCategory flags a category for the showcase at the given rank.
// A single-row write: the rest of the scope is untouched by promotion.
func (r *CatalogRepository) PromoteCategory(id string, rank int) error {
	result := r.db.Model(&models.Category{}).Where("id = ?", id).Updates(map[string]interface{}{
		"is_showcase":   true,
		"showcase_rank": rank,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCategoryNotFound
	}
	r.invalidateCategoryCaches(&id)
	return nil
}

// ApplyShowcaseMutations applies a rank mutation set in one transaction.
// A nil rank clears the showcase flag along with the rank.
func (r *CatalogRepository) ApplyShowcaseMutations(muts []ranking.Mutation) error {
	if len(muts) == 0 {
		return nil
	}
	err := r.db.Transaction(func(tx *gorm.DB) error {
		for _, m := range muts {
			updates := map[string]interface{}{}
			if m.Rank == nil {
				updates["showcase_rank"] = nil
				updates["is_showcase"] = false
			} else {
				updates["showcase_rank"] = *m.Rank
			}
			result := tx.Model(&models.Category{}).Where("id = ?", m.ID).Updates(updates)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return ErrCategoryNotFound
			}
		}
		return nil
	})
	if err == nil {
		r.invalidateCategoryCaches(nil)
	}
	return err
}

// CreateSubCategory creates a sub-category and bumps the owning category's
// counter in the same transaction. Counters track active sub-categories
// only, matching the recount definition.
func (r *CatalogRepository) CreateSubCategory(subCategory *models.SubCategory) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(subCategory).Error; err != nil {
			return err
		}
		if !subCategory.IsActive {
			return nil
		}
		return tx.Model(&models.Category{}).
			Where("id = ?", subCategory.CategoryID).
			UpdateColumn("sub_category_count", gorm.Expr("sub_category_count + ?", 1)).Error
	})
	if err == nil {
		categoryID := subCategory.CategoryID.String()
		r.invalidateCategoryCaches(&categoryID)
	}
	return err
}

// GetSubCategoryByID retrieves a sub-category by ID
func (r *CatalogRepository) GetSubCategoryByID(id string) (*models.SubCategory, error) {
	var subCategory models.SubCategory
	err := retryRead(func() error {
		return r.db.Where("id = ?", id).First(&subCategory).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubCategoryNotFound
		}
		return nil, err
	}
	return &subCategory, nil
}

// GetSubCategories lists sub-categories, optionally scoped to one category
func (r *CatalogRepository) GetSubCategories(categoryID *string, page, limit int) ([]models.SubCategory, int64, error) {
	var subCategories []models.SubCategory
	var total int64

	err := retryRead(func() error {
		query := r.db.Model(&models.SubCategory{})
		if categoryID != nil {
			query = query.Where("category_id = ?", *categoryID)
		}
		if err := query.Count(&total).Error; err != nil {
			return err
		}
		return query.Order("position ASC, created_at ASC").
			Limit(limit).Offset((page - 1) * limit).
			Find(&subCategories).Error
	})
	if err != nil {
		return nil, 0, err
	}
	return subCategories, total, nil
}

// UpdateSubCategory applies a partial update. Reassignment to another
// category moves the sub-category counter between the two owners in the same
// transaction as the update; an is_active flip moves the counter in or out
// of the owning category, since counters track active rows only.
func (r *CatalogRepository) UpdateSubCategory(id string, updates map[string]interface{}) error {
	existing, err := r.GetSubCategoryByID(id)
	if err != nil {
		return err
	}

	newCategoryID, reassigned := updates["category_id"].(string)
	reassigned = reassigned && newCategoryID != existing.CategoryID.String()

	wasActive := existing.IsActive
	willBeActive := wasActive
	if next, ok := updates["is_active"].(bool); ok {
		willBeActive = next
	}
	newOwner := existing.CategoryID.String()
	if reassigned {
		newOwner = newCategoryID
	}

	err = r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.SubCategory{}).Where("id = ?", id).Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrSubCategoryNotFound
		}
		if wasActive && (reassigned || !willBeActive) {
			if err := tx.Model(&models.Category{}).
				Where("id = ?", existing.CategoryID).
				UpdateColumn("sub_category_count", gorm.Expr("sub_category_count - ?", 1)).Error; err != nil {
				return err
			}
		}
		if willBeActive && (reassigned || !wasActive) {
			if err := tx.Model(&models.Category{}).
				Where("id = ?", newOwner).
				UpdateColumn("sub_category_count", gorm.Expr("sub_category_count + ?", 1)).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil {
		r.invalidateCategoryCaches(nil)
	}
	return err
}

// DeleteSubCategory soft-deletes a sub-category and decrements the owning
// category's counter in the same transaction.
func (r *CatalogRepository) DeleteSubCategory(id string) error {
	existing, err := r.GetSubCategoryByID(id)
	if err != nil {
		return err
	}
	err = r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ?", id).Delete(&models.SubCategory{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrSubCategoryNotFound
		}
		// An inactive sub-category already left the counter on deactivation.
		if !existing.IsActive {
			return nil
		}
		return tx.Model(&models.Category{}).
			Where("id = ?", existing.CategoryID).
			UpdateColumn("sub_category_count", gorm.Expr("sub_category_count - ?", 1)).Error
	})
	if err == nil {
		categoryID := existing.CategoryID.String()
		r.invalidateCategoryCaches(&categoryID)
	}
	return err
}

// RecountCategory recomputes a category's counters from the referencing
// collections and overwrites the stored values. Counter drift from racing
// writers is expected; this is the authoritative correction.
func (r *CatalogRepository) RecountCategory(id string) (*models.RecountResult, error) {
	if _, err := r.GetCategoryByID(id); err != nil {
		return nil, err
	}

	var productCount, subCategoryCount int64
	err := retryRead(func() error {
		if err := r.db.Model(&models.Product{}).
			Where("category_id = ? AND is_active = ?", id, true).
			Count(&productCount).Error; err != nil {
			return err
		}
		return r.db.Model(&models.SubCategory{}).
			Where("category_id = ? AND is_active = ?", id, true).
			Count(&subCategoryCount).Error
	})
	if err != nil {
		return nil, err
	}

	err = r.db.Model(&models.Category{}).Where("id = ?", id).Updates(map[string]interface{}{
		"product_count":      productCount,
		"sub_category_count": subCategoryCount,
	}).Error
	if err != nil {
		return nil, err
	}
	r.invalidateCategoryCaches(&id)

	subCount := int(subCategoryCount)
	return &models.RecountResult{
		ProductCount:     int(productCount),
		SubCategoryCount: &subCount,
	}, nil
}

// RecountSubCategory recomputes a sub-category's product counter
func (r *CatalogRepository) RecountSubCategory(id string) (*models.RecountResult, error) {
	if _, err := r.GetSubCategoryByID(id); err != nil {
		return nil, err
	}

	var productCount int64
	err := retryRead(func() error {
		return r.db.Model(&models.Product{}).
			Where("sub_category_id = ? AND is_active = ?", id, true).
			Count(&productCount).Error
	})
	if err != nil {
		return nil, err
	}

	err = r.db.Model(&models.SubCategory{}).Where("id = ?", id).
		UpdateColumn("product_count", productCount).Error
	if err != nil {
		return nil, err
	}

	return &models.RecountResult{ProductCount: int(productCount)}, nil
}

// SlugExists checks if a category slug is already taken
func (r *CatalogRepository) SlugExists(slug string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Category{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}
