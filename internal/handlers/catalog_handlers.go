package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"catalog-service/internal/catalog"
	"catalog-service/internal/config"
	"catalog-service/internal/events"
	"catalog-service/internal/models"
	"catalog-service/internal/repository"
)

// CatalogHandler serves the admin category and sub-category endpoints,
// including the showcase rank operations.
type CatalogHandler struct {
	repo            *repository.CatalogRepository
	service         *catalog.Service
	eventsPublisher *events.Publisher
	cfg             *config.Config
}

func NewCatalogHandler(repo *repository.CatalogRepository, service *catalog.Service, eventsPublisher *events.Publisher, cfg *config.Config) *CatalogHandler {
	return &CatalogHandler{
		repo:            repo,
		service:         service,
		eventsPublisher: eventsPublisher,
		cfg:             cfg,
	}
}

// CreateCategory creates a new category
// @Summary Create category
// @Tags categories
// @Accept json
// @Produce json
// @Param category body models.CreateCategoryRequest true "Category"
// @Success 201 {object} models.CategoryResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /categories [post]
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req models.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), "")
		return
	}

	slug := generateSlug(req.Name)
	if req.Slug != nil && *req.Slug != "" {
		slug = *req.Slug
	}
	exists, err := h.repo.SlugExists(slug)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	if exists {
		respondError(c, http.StatusConflict, "SLUG_EXISTS", "A category with this slug already exists", "slug")
		return
	}

	featuredLimit := models.DefaultFeaturedProductLimit
	if h.cfg.FeaturedProductLimit > 0 {
		featuredLimit = h.cfg.FeaturedProductLimit
	}
	category := &models.Category{
		Name:                 req.Name,
		Slug:                 slug,
		Description:          req.Description,
		Position:             1,
		FeaturedProductLimit: featuredLimit,
		ShowcaseImage:        req.ShowcaseImage,
		IsActive:             true,
		SeoTitle:             req.SeoTitle,
		SeoDescription:       req.SeoDescription,
	}
	if req.Position != nil {
		category.Position = *req.Position
	}
	if req.FeaturedProductLimit != nil && *req.FeaturedProductLimit > 0 {
		category.FeaturedProductLimit = *req.FeaturedProductLimit
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}

	if err := h.repo.CreateCategory(category); err != nil {
		respondDomainError(c, err)
		return
	}

	if h.eventsPublisher != nil {
		h.eventsPublisher.PublishCategoryChange(c.Request.Context(), events.CategoryCreated, category.ID.String())
	}

	c.JSON(http.StatusCreated, models.CategoryResponse{Success: true, Data: category})
}

// GetCategories lists categories ordered by position
// @Summary List categories
// @Tags categories
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} models.CategoryListResponse
// @Router /categories [get]
func (h *CatalogHandler) GetCategories(c *gin.Context) {
	page, limit := pagination(c, h.cfg.DefaultPageSize, h.cfg.MaxPageSize)
	categories, total, err := h.repo.GetCategories(page, limit)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.CategoryListResponse{
		Success:    true,
		Data:       categories,
		Pagination: paginationInfo(page, limit, total),
	})
}

// GetCategory retrieves a single category
// @Summary Get category
// @Tags categories
// @Produce json
// @Param id path string true "Category ID"
// @Success 200 {object} models.CategoryResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /categories/{id} [get]
func (h *CatalogHandler) GetCategory(c *gin.Context) {
	category, err := h.repo.GetCategoryByID(c.Param("id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.CategoryResponse{Success: true, Data: category})
}

// UpdateCategory applies a partial update to a category
// @Summary Update category
// @Tags categories
// @Accept json
// @Produce json
// @Param id path string true "Category ID"
// @Param category body models.UpdateCategoryRequest true "Fields to update"
// @Success 200 {object} models.CategoryResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /categories/{id} [put]
func (h *CatalogHandler) UpdateCategory(c *gin.Context) {
	id := c.Param("id")
	var req models.UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), "")
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Slug != nil {
		updates["slug"] = *req.Slug
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Position != nil {
		updates["position"] = *req.Position
	}
	if req.ShowcaseImage != nil {
		updates["showcase_image"] = *req.ShowcaseImage
	}
	if req.FeaturedProductLimit != nil && *req.FeaturedProductLimit > 0 {
		updates["featured_product_limit"] = *req.FeaturedProductLimit
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.SeoTitle != nil {
		updates["seo_title"] = *req.SeoTitle
	}
	if req.SeoDescription != nil {
		updates["seo_description"] = *req.SeoDescription
	}
	if len(updates) == 0 {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "No fields to update", "")
		return
	}

	if err := h.repo.UpdateCategory(id, updates); err != nil {
		respondDomainError(c, err)
		return
	}

	category, err := h.repo.GetCategoryByID(id)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	if h.eventsPublisher != nil {
		h.eventsPublisher.PublishCategoryChange(c.Request.Context(), events.CategoryUpdated, id)
	}

	c.JSON(http.StatusOK, models.CategoryResponse{Success: true, Data: category})
}

// DeleteCategory soft-deletes a category, demoting it from the showcase first
// @Summary Delete category
// @Tags categories
// @Produce json
// @Param id path string true "Category ID"
// @Success 200 {object} models.SuccessResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /categories/{id} [delete]
func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	if err := h.service.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		respondDomainError(c, err)
		return
	}
	message := "Category deleted"
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: &message})
}

// PromoteCategory adds a category to the homepage showcase
// @Summary Promote category to showcase
// @Tags showcase
// @Produce json
// @Param id path string true "Category ID"
// @Success 200 {object} models.CategoryResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /categories/{id}/showcase [post]
func (h *CatalogHandler) PromoteCategory(c *gin.Context) {
	id := c.Param("id")
	if err := h.service.PromoteCategory(c.Request.Context(), id); err != nil {
		respondDomainError(c, err)
		return
	}
	category, err := h.repo.GetCategoryByID(id)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.CategoryResponse{Success: true, Data: category})
}

// DemoteCategory removes a category from the homepage showcase
// @Summary Demote category from showcase
// @Tags showcase
// @Produce json
// @Param id path string true "Category ID"
// @Success 200 {object} models.CategoryResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /categories/{id}/showcase [delete]
func (h *CatalogHandler) DemoteCategory(c *gin.Context) {
	id := c.Param("id")
	if err := h.service.DemoteCategory(c.Request.Context(), id); err != nil {
		respondDomainError(c, err)
		return
	}
	category, err := h.repo.GetCategoryByID(id)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.CategoryResponse{Success: true, Data: category})
}

// ReorderCategory moves a showcase category to a new rank
// @Summary Reorder showcase category
// @Tags showcase
// @Accept json
// @Produce json
// @Param id path string true "Category ID"
// @Param rank body models.ReorderRequest true "Target rank"
// @Success 200 {object} models.SuccessResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /categories/{id}/showcase/rank [put]
func (h *CatalogHandler) ReorderCategory(c *gin.Context) {
	var req models.ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), "rank")
		return
	}
	if err := h.service.ReorderCategory(c.Request.Context(), c.Param("id"), req.Rank); err != nil {
		respondDomainError(c, err)
		return
	}
	message := "Showcase order updated"
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: &message})
}

// RepairShowcase renumbers the showcase scope to a dense permutation
// @Summary Repair showcase ranks
// @Tags showcase
// @Produce json
// @Success 200 {object} models.SuccessResponse
// @Router /categories/showcase/repair [post]
func (h *CatalogHandler) RepairShowcase(c *gin.Context) {
	corrected, err := h.service.RepairCategoryRanks(c.Request.Context())
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    gin.H{"corrected": corrected},
	})
}

// RecountCategory recomputes a category's product and sub-category counters
// @Summary Recount category counters
// @Tags categories
// @Produce json
// @Param id path string true "Category ID"
// @Success 200 {object} models.SuccessResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /categories/{id}/recount [post]
func (h *CatalogHandler) RecountCategory(c *gin.Context) {
	result, err := h.service.RecountCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: result})
}

// CreateSubCategory creates a sub-category under a category
// @Summary Create sub-category
// @Tags subcategories
// @Accept json
// @Produce json
// @Param subcategory body models.CreateSubCategoryRequest true "Sub-category"
// @Success 201 {object} models.SubCategoryResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /subcategories [post]
func (h *CatalogHandler) CreateSubCategory(c *gin.Context) {
	var req models.CreateSubCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), "")
		return
	}

	if _, err := h.repo.GetCategoryByID(req.CategoryID.String()); err != nil {
		respondDomainError(c, err)
		return
	}

	slug := generateSlug(req.Name)
	if req.Slug != nil && *req.Slug != "" {
		slug = *req.Slug
	}

	subCategory := &models.SubCategory{
		CategoryID: req.CategoryID,
		Name:       req.Name,
		Slug:       slug,
		Position:   1,
		IsActive:   true,
	}
	if req.Position != nil {
		subCategory.Position = *req.Position
	}
	if req.IsActive != nil {
		subCategory.IsActive = *req.IsActive
	}

	if err := h.repo.CreateSubCategory(subCategory); err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.SubCategoryResponse{Success: true, Data: subCategory})
}

// GetSubCategories lists sub-categories, optionally scoped to a category
// @Summary List sub-categories
// @Tags subcategories
// @Produce json
// @Param categoryId query string false "Category ID"
// @Success 200 {object} models.SubCategoryListResponse
// @Router /subcategories [get]
func (h *CatalogHandler) GetSubCategories(c *gin.Context) {
	page, limit := pagination(c, h.cfg.DefaultPageSize, h.cfg.MaxPageSize)
	var categoryID *string
	if v := c.Query("categoryId"); v != "" {
		categoryID = &v
	}
	subCategories, total, err := h.repo.GetSubCategories(categoryID, page, limit)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SubCategoryListResponse{
		Success:    true,
		Data:       subCategories,
		Pagination: paginationInfo(page, limit, total),
	})
}

// GetSubCategory retrieves a single sub-category
func (h *CatalogHandler) GetSubCategory(c *gin.Context) {
	subCategory, err := h.repo.GetSubCategoryByID(c.Param("id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SubCategoryResponse{Success: true, Data: subCategory})
}

// UpdateSubCategory applies a partial update. Changing categoryId moves the
// sub-category counter between the old and new owning categories.
func (h *CatalogHandler) UpdateSubCategory(c *gin.Context) {
	id := c.Param("id")
	var req models.UpdateSubCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), "")
		return
	}

	updates := map[string]interface{}{}
	if req.CategoryID != nil {
		if _, err := h.repo.GetCategoryByID(req.CategoryID.String()); err != nil {
			respondDomainError(c, err)
			return
		}
		updates["category_id"] = req.CategoryID.String()
	}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Slug != nil {
		updates["slug"] = *req.Slug
	}
	if req.Position != nil {
		updates["position"] = *req.Position
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "No fields to update", "")
		return
	}

	if err := h.repo.UpdateSubCategory(id, updates); err != nil {
		respondDomainError(c, err)
		return
	}

	subCategory, err := h.repo.GetSubCategoryByID(id)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SubCategoryResponse{Success: true, Data: subCategory})
}

// DeleteSubCategory soft-deletes a sub-category
func (h *CatalogHandler) DeleteSubCategory(c *gin.Context) {
	if err := h.repo.DeleteSubCategory(c.Param("id")); err != nil {
		respondDomainError(c, err)
		return
	}
	message := "Sub-category deleted"
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: &message})
}

// RecountSubCategory recomputes a sub-category's product counter
func (h *CatalogHandler) RecountSubCategory(c *gin.Context) {
	result, err := h.service.RecountSubCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: result})
}
