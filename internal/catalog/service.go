// Package catalog exposes the merchandising operations: promoting, demoting
// and reordering showcase categories and featured products, plus the
// self-healing repair and recount counterparts. Each operation loads its rank
// scope, lets the ranking ledger compute the mutation set, and applies it as
// one atomic batch through the repositories.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"catalog-service/internal/events"
	"catalog-service/internal/models"
	"catalog-service/internal/ranking"
	"catalog-service/internal/repository"
)

// ErrWrongCategory is returned when a product operation names a category the
// product does not belong to.
var ErrWrongCategory = errors.New("product does not belong to category")

// Service orchestrates rank-scope operations and counter maintenance
type Service struct {
	catalogRepo   *repository.CatalogRepository
	productsRepo  *repository.ProductsRepository
	publisher     *events.Publisher
	logger        *logrus.Entry
	showcaseLimit int
	featuredLimit int
}

func NewService(catalogRepo *repository.CatalogRepository, productsRepo *repository.ProductsRepository, publisher *events.Publisher, logger *logrus.Logger, showcaseLimit, featuredLimit int) *Service {
	return &Service{
		catalogRepo:   catalogRepo,
		productsRepo:  productsRepo,
		publisher:     publisher,
		logger:        logger.WithField("component", "catalog.service"),
		showcaseLimit: showcaseLimit,
		featuredLimit: featuredLimit,
	}
}

// ShowcaseLimit returns the configured cap on showcase categories
func (s *Service) ShowcaseLimit() int {
	return s.showcaseLimit
}

// PromoteCategory adds a category to the homepage showcase at the tail rank.
// Promoting an already-showcased category is a no-op.
func (s *Service) PromoteCategory(ctx context.Context, id string) error {
	if _, err := s.catalogRepo.GetCategoryByID(id); err != nil {
		return err
	}
	scope, err := s.catalogRepo.ShowcaseScope()
	if err != nil {
		return err
	}
	for _, it := range scope {
		if it.ID == id {
			return nil
		}
	}
	rank, err := ranking.Promote(len(scope), s.showcaseLimit)
	if err != nil {
		return err
	}
	if err := s.catalogRepo.PromoteCategory(id, rank); err != nil {
		return err
	}
	if s.publisher != nil {
		s.publisher.PublishShowcaseUpdated(ctx, id, "promote")
	}
	return nil
}

// DemoteCategory removes a category from the showcase and compacts the ranks
// above it.
func (s *Service) DemoteCategory(ctx context.Context, id string) error {
	scope, err := s.catalogRepo.ShowcaseScope()
	if err != nil {
		return err
	}
	muts, err := ranking.Demote(scope, id)
	if err != nil {
		return err
	}
	if err := s.catalogRepo.ApplyShowcaseMutations(muts); err != nil {
		return err
	}
	if s.publisher != nil {
		s.publisher.PublishShowcaseUpdated(ctx, id, "demote")
	}
	return nil
}

// ReorderCategory moves a showcase category to a new rank
func (s *Service) ReorderCategory(ctx context.Context, id string, newRank int) error {
	scope, err := s.catalogRepo.ShowcaseScope()
	if err != nil {
		return err
	}
	muts, err := ranking.Reorder(scope, id, newRank)
	if err != nil {
		return err
	}
	if len(muts) == 0 {
		return nil
	}
	if err := s.catalogRepo.ApplyShowcaseMutations(muts); err != nil {
		return err
	}
	if s.publisher != nil {
		s.publisher.PublishShowcaseUpdated(ctx, id, "reorder")
	}
	return nil
}

// RepairCategoryRanks renumbers the showcase scope to a dense permutation
// and returns how many categories were corrected.
func (s *Service) RepairCategoryRanks(ctx context.Context) (int, error) {
	scope, err := s.catalogRepo.ShowcaseScope()
	if err != nil {
		return 0, err
	}
	muts := ranking.Repair(scope)
	if len(muts) == 0 {
		return 0, nil
	}
	s.logger.WithField("corrected", len(muts)).Warn("Showcase rank drift detected, repairing")
	if err := s.catalogRepo.ApplyShowcaseMutations(muts); err != nil {
		return 0, err
	}
	if s.publisher != nil {
		s.publisher.PublishShowcaseUpdated(ctx, "", "repair")
	}
	return len(muts), nil
}

// DeleteCategory demotes a showcased category before deleting it so the
// remaining showcase ranks stay dense.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	category, err := s.catalogRepo.GetCategoryByID(id)
	if err != nil {
		return err
	}
	if category.IsShowcase {
		if err := s.DemoteCategory(ctx, id); err != nil {
			return err
		}
	}
	if err := s.catalogRepo.DeleteCategory(id); err != nil {
		return err
	}
	if s.publisher != nil {
		s.publisher.PublishCategoryChange(ctx, events.CategoryDeleted, id)
	}
	return nil
}

// featuredLimitFor returns the per-category cap on featured products: the
// category's own limit, else the configured service-wide default.
func (s *Service) featuredLimitFor(category *models.Category) int {
	if category.FeaturedProductLimit > 0 {
		return category.FeaturedProductLimit
	}
	if s.featuredLimit > 0 {
		return s.featuredLimit
	}
	return models.DefaultFeaturedProductLimit
}

// productInCategory loads the product and checks it belongs to categoryID
func (s *Service) productInCategory(id, categoryID string) (*models.Product, error) {
	product, err := s.productsRepo.GetProductByID(id)
	if err != nil {
		return nil, err
	}
	if product.CategoryID.String() != categoryID {
		return nil, fmt.Errorf("%w: product %s, category %s", ErrWrongCategory, id, categoryID)
	}
	return product, nil
}

// PromoteProduct adds a product to its category's featured list at the tail
// rank. Promoting an already-featured product is a no-op.
func (s *Service) PromoteProduct(ctx context.Context, id, categoryID string) error {
	category, err := s.catalogRepo.GetCategoryByID(categoryID)
	if err != nil {
		return err
	}
	if _, err := s.productInCategory(id, categoryID); err != nil {
		return err
	}
	scope, err := s.productsRepo.FeaturedScope(categoryID)
	if err != nil {
		return err
	}
	for _, it := range scope {
		if it.ID == id {
			return nil
		}
	}
	rank, err := ranking.Promote(len(scope), s.featuredLimitFor(category))
	if err != nil {
		return err
	}
	if err := s.productsRepo.PromoteProduct(id, rank); err != nil {
		return err
	}
	if s.publisher != nil {
		s.publisher.PublishFeaturedUpdated(ctx, id, categoryID, "promote")
	}
	return nil
}

// DemoteProduct removes a product from its category's featured list and
// compacts the ranks above it.
func (s *Service) DemoteProduct(ctx context.Context, id, categoryID string) error {
	if _, err := s.productInCategory(id, categoryID); err != nil {
		return err
	}
	scope, err := s.productsRepo.FeaturedScope(categoryID)
	if err != nil {
		return err
	}
	muts, err := ranking.Demote(scope, id)
	if err != nil {
		return err
	}
	if err := s.productsRepo.ApplyFeaturedMutations(muts); err != nil {
		return err
	}
	if s.publisher != nil {
		s.publisher.PublishFeaturedUpdated(ctx, id, categoryID, "demote")
	}
	return nil
}

// ReorderProduct moves a featured product to a new rank within its category
func (s *Service) ReorderProduct(ctx context.Context, id, categoryID string, newRank int) error {
	if _, err := s.productInCategory(id, categoryID); err != nil {
		return err
	}
	scope, err := s.productsRepo.FeaturedScope(categoryID)
	if err != nil {
		return err
	}
	muts, err := ranking.Reorder(scope, id, newRank)
	if err != nil {
		return err
	}
	if len(muts) == 0 {
		return nil
	}
	if err := s.productsRepo.ApplyFeaturedMutations(muts); err != nil {
		return err
	}
	if s.publisher != nil {
		s.publisher.PublishFeaturedUpdated(ctx, id, categoryID, "reorder")
	}
	return nil
}

// RepairProductRanks renumbers a category's featured scope to a dense
// permutation and returns how many products were corrected.
func (s *Service) RepairProductRanks(ctx context.Context, categoryID string) (int, error) {
	if _, err := s.catalogRepo.GetCategoryByID(categoryID); err != nil {
		return 0, err
	}
	scope, err := s.productsRepo.FeaturedScope(categoryID)
	if err != nil {
		return 0, err
	}
	muts := ranking.Repair(scope)
	if len(muts) == 0 {
		return 0, nil
	}
	s.logger.WithFields(logrus.Fields{
		"category_id": categoryID,
		"corrected":   len(muts),
	}).Warn("Featured rank drift detected, repairing")
	if err := s.productsRepo.ApplyFeaturedMutations(muts); err != nil {
		return 0, err
	}
	if s.publisher != nil {
		s.publisher.PublishFeaturedUpdated(ctx, "", categoryID, "repair")
	}
	return len(muts), nil
}

// DeleteProduct demotes a featured product before deleting it, then lets the
// repository decrement the owning counters.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	product, err := s.productsRepo.GetProductByID(id)
	if err != nil {
		return err
	}
	if product.IsFeatured {
		if err := s.DemoteProduct(ctx, id, product.CategoryID.String()); err != nil {
			return err
		}
	}
	if err := s.productsRepo.DeleteProduct(id); err != nil {
		return err
	}
	if s.publisher != nil {
		s.publisher.PublishProductChange(ctx, events.ProductDeleted, id, product.CategoryID.String())
	}
	return nil
}

// ReassignProduct moves a product between categories/sub-categories,
// demoting it from the featured scope of the old category first.
func (s *Service) ReassignProduct(ctx context.Context, id, newCategoryID string, newSubCategoryID *string) error {
	product, err := s.productsRepo.GetProductByID(id)
	if err != nil {
		return err
	}
	if _, err := s.catalogRepo.GetCategoryByID(newCategoryID); err != nil {
		return err
	}
	if product.IsFeatured && product.CategoryID.String() != newCategoryID {
		if err := s.DemoteProduct(ctx, id, product.CategoryID.String()); err != nil {
			return err
		}
	}
	return s.productsRepo.ReassignProduct(id, newCategoryID, newSubCategoryID)
}

// RecountCategory recomputes a category's counters and logs any drift the
// stored values had accumulated.
func (s *Service) RecountCategory(ctx context.Context, id string) (*models.RecountResult, error) {
	before, err := s.catalogRepo.GetCategoryByID(id)
	if err != nil {
		return nil, err
	}
	result, err := s.catalogRepo.RecountCategory(id)
	if err != nil {
		return nil, err
	}
	if result.ProductCount != before.ProductCount ||
		(result.SubCategoryCount != nil && *result.SubCategoryCount != before.SubCategoryCount) {
		s.logger.WithFields(logrus.Fields{
			"category_id":     id,
			"stored_products": before.ProductCount,
			"actual_products": result.ProductCount,
			"stored_subs":     before.SubCategoryCount,
		}).Warn("Counter drift detected, corrected by recount")
	}
	return result, nil
}

// RecountSubCategory recomputes a sub-category's product counter
func (s *Service) RecountSubCategory(ctx context.Context, id string) (*models.RecountResult, error) {
	before, err := s.catalogRepo.GetSubCategoryByID(id)
	if err != nil {
		return nil, err
	}
	result, err := s.catalogRepo.RecountSubCategory(id)
	if err != nil {
		return nil, err
	}
	if result.ProductCount != before.ProductCount {
		s.logger.WithFields(logrus.Fields{
			"sub_category_id": id,
			"stored":          before.ProductCount,
			"actual":          result.ProductCount,
		}).Warn("Counter drift detected, corrected by recount")
	}
	return result, nil
}
