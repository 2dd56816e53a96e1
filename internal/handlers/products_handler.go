package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"catalog-service/internal/catalog"
	"catalog-service/internal/config"
	"catalog-service/internal/events"
	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"catalog-service/internal/variants"
)

// ProductsHandler serves the admin product endpoints, including the featured
// rank operations and the explicit legacy variant upgrade.
type ProductsHandler struct {
	repo            *repository.ProductsRepository
	service         *catalog.Service
	eventsPublisher *events.Publisher
	cfg             *config.Config
}

func NewProductsHandler(repo *repository.ProductsRepository, service *catalog.Service, eventsPublisher *events.Publisher, cfg *config.Config) *ProductsHandler {
	return &ProductsHandler{
		repo:            repo,
		service:         service,
		eventsPublisher: eventsPublisher,
		cfg:             cfg,
	}
}

// CreateProduct creates a new product
// @Summary Create product
// @Tags products
// @Accept json
// @Produce json
// @Param product body models.CreateProductRequest true "Product"
// @Success 201 {object} models.ProductResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /products [post]
func (h *ProductsHandler) CreateProduct(c *gin.Context) {
	var req models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), "")
		return
	}

	exists, err := h.repo.SKUExists(req.SKU)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	if exists {
		respondError(c, http.StatusConflict, "SKU_EXISTS", "A product with this SKU already exists", "sku")
		return
	}

	slug := generateSlug(req.Name)
	if req.Slug != nil && *req.Slug != "" {
		slug = *req.Slug
	}

	product := &models.Product{
		CategoryID:     req.CategoryID,
		SubCategoryID:  req.SubCategoryID,
		Name:           req.Name,
		Slug:           slug,
		SKU:            req.SKU,
		Description:    req.Description,
		IsActive:       true,
		SizeVariants:   models.SizeVariantList(req.SizeVariants),
		ColorVariants:  models.ColorVariantList(req.ColorVariants),
		Price:          req.Price,
		CompareAtPrice: req.CompareAtPrice,
		Stock:          req.Stock,
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	if len(req.Images) > 0 {
		images := make(models.JSONArray, len(req.Images))
		for i, img := range req.Images {
			images[i] = img
		}
		product.Images = &images
	}
	if product.IsCanonical() {
		variants.SyncStockMatrix(product)
	}

	if err := h.repo.CreateProduct(product); err != nil {
		respondDomainError(c, err)
		return
	}

	if h.eventsPublisher != nil {
		h.eventsPublisher.PublishProductChange(c.Request.Context(), events.ProductCreated, product.ID.String(), product.CategoryID.String())
	}

	c.JSON(http.StatusCreated, models.ProductResponse{Success: true, Data: product})
}

// GetProducts lists products, optionally scoped to a category
// @Summary List products
// @Tags products
// @Produce json
// @Param categoryId query string false "Category ID"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} models.ProductListResponse
// @Router /products [get]
func (h *ProductsHandler) GetProducts(c *gin.Context) {
	page, limit := pagination(c, h.cfg.DefaultPageSize, h.cfg.MaxPageSize)
	var categoryID *string
	if v := c.Query("categoryId"); v != "" {
		categoryID = &v
	}
	products, total, err := h.repo.GetProducts(categoryID, page, limit)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ProductListResponse{
		Success:    true,
		Data:       products,
		Pagination: paginationInfo(page, limit, total),
	})
}

// GetProduct retrieves a single product as stored. Legacy rows come back in
// their legacy shape; the storefront detail endpoint is the upgraded view.
func (h *ProductsHandler) GetProduct(c *gin.Context) {
	product, err := h.repo.GetProductByID(c.Param("id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ProductResponse{Success: true, Data: product})
}

// UpdateProduct applies a partial update. Replacing the variant arrays
// re-syncs the stock matrix; changing categoryId reassigns the product and
// moves its counters.
// @Summary Update product
// @Tags products
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Param product body models.UpdateProductRequest true "Fields to update"
// @Success 200 {object} models.ProductResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /products/{id} [put]
func (h *ProductsHandler) UpdateProduct(c *gin.Context) {
	id := c.Param("id")
	var req models.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), "")
		return
	}

	existing, err := h.repo.GetProductByID(id)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	if req.CategoryID != nil && *req.CategoryID != existing.CategoryID {
		var subID *string
		if req.SubCategoryID != nil {
			s := req.SubCategoryID.String()
			subID = &s
		}
		if err := h.service.ReassignProduct(c.Request.Context(), id, req.CategoryID.String(), subID); err != nil {
			respondDomainError(c, err)
			return
		}
	} else if req.SubCategoryID != nil {
		current := ""
		if existing.SubCategoryID != nil {
			current = existing.SubCategoryID.String()
		}
		if req.SubCategoryID.String() != current {
			s := req.SubCategoryID.String()
			if err := h.repo.MoveToSubCategory(id, &s); err != nil {
				respondDomainError(c, err)
				return
			}
		}
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Slug != nil {
		updates["slug"] = *req.Slug
	}
	if req.SKU != nil && *req.SKU != existing.SKU {
		exists, err := h.repo.SKUExists(*req.SKU)
		if err != nil {
			respondDomainError(c, err)
			return
		}
		if exists {
			respondError(c, http.StatusConflict, "SKU_EXISTS", "A product with this SKU already exists", "sku")
			return
		}
		updates["sku"] = *req.SKU
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if req.SizeVariants != nil || req.ColorVariants != nil {
		next := *existing
		if req.SizeVariants != nil {
			next.SizeVariants = models.SizeVariantList(req.SizeVariants)
		}
		if req.ColorVariants != nil {
			next.ColorVariants = models.ColorVariantList(req.ColorVariants)
		}
		variants.SyncStockMatrix(&next)
		updates["size_variants"] = next.SizeVariants
		updates["color_variants"] = next.ColorVariants
	}

	if len(updates) > 0 {
		if err := h.repo.UpdateProduct(id, updates); err != nil {
			respondDomainError(c, err)
			return
		}
	}

	product, err := h.repo.GetProductByID(id)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	if h.eventsPublisher != nil {
		h.eventsPublisher.PublishProductChange(c.Request.Context(), events.ProductUpdated, id, product.CategoryID.String())
	}

	c.JSON(http.StatusOK, models.ProductResponse{Success: true, Data: product})
}

// DeleteProduct soft-deletes a product, demoting it from the featured list
// first so the remaining ranks stay dense.
func (h *ProductsHandler) DeleteProduct(c *gin.Context) {
	if err := h.service.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		respondDomainError(c, err)
		return
	}
	message := "Product deleted"
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: &message})
}

// PromoteProduct adds a product to its category's featured list
// @Summary Feature product
// @Tags featured
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} models.ProductResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /products/{id}/feature [post]
func (h *ProductsHandler) PromoteProduct(c *gin.Context) {
	id := c.Param("id")
	product, err := h.repo.GetProductByID(id)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	if err := h.service.PromoteProduct(c.Request.Context(), id, product.CategoryID.String()); err != nil {
		respondDomainError(c, err)
		return
	}
	product, err = h.repo.GetProductByID(id)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ProductResponse{Success: true, Data: product})
}

// DemoteProduct removes a product from its category's featured list
func (h *ProductsHandler) DemoteProduct(c *gin.Context) {
	id := c.Param("id")
	product, err := h.repo.GetProductByID(id)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	if err := h.service.DemoteProduct(c.Request.Context(), id, product.CategoryID.String()); err != nil {
		respondDomainError(c, err)
		return
	}
	product, err = h.repo.GetProductByID(id)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ProductResponse{Success: true, Data: product})
}

// ReorderProduct moves a featured product to a new rank within its category
func (h *ProductsHandler) ReorderProduct(c *gin.Context) {
	id := c.Param("id")
	var req models.ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), "rank")
		return
	}
	product, err := h.repo.GetProductByID(id)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	if err := h.service.ReorderProduct(c.Request.Context(), id, product.CategoryID.String(), req.Rank); err != nil {
		respondDomainError(c, err)
		return
	}
	message := "Featured order updated"
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: &message})
}

// RepairFeatured renumbers a category's featured scope to a dense permutation
// @Summary Repair featured ranks
// @Tags featured
// @Produce json
// @Param id path string true "Category ID"
// @Success 200 {object} models.SuccessResponse
// @Router /categories/{id}/featured/repair [post]
func (h *ProductsHandler) RepairFeatured(c *gin.Context) {
	corrected, err := h.service.RepairProductRanks(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    gin.H{"corrected": corrected},
	})
}

// UpgradeProduct persists the canonical variant shape for a legacy product.
// This is the only path that writes an upgrade; reads never do.
// @Summary Upgrade legacy product variants
// @Tags products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} models.ProductResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /products/{id}/upgrade [post]
func (h *ProductsHandler) UpgradeProduct(c *gin.Context) {
	id := c.Param("id")
	product, err := h.repo.GetProductByID(id)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	if product.IsCanonical() {
		c.JSON(http.StatusOK, models.ProductResponse{Success: true, Data: product})
		return
	}

	upgraded := variants.Canonicalize(*product)
	if err := h.repo.SaveProduct(&upgraded); err != nil {
		respondDomainError(c, err)
		return
	}

	if h.eventsPublisher != nil {
		h.eventsPublisher.PublishProductChange(c.Request.Context(), events.ProductUpdated, id, upgraded.CategoryID.String())
	}

	c.JSON(http.StatusOK, models.ProductResponse{Success: true, Data: &upgraded})
}
