package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"catalog-service/internal/variants"
)

// StorefrontHandler serves the public read endpoints: the homepage showcase,
// per-category featured lists, the resolved product detail and the stock
// check used at checkout. No auth; these are cached reads.
type StorefrontHandler struct {
	catalogRepo  *repository.CatalogRepository
	productsRepo *repository.ProductsRepository
}

func NewStorefrontHandler(catalogRepo *repository.CatalogRepository, productsRepo *repository.ProductsRepository) *StorefrontHandler {
	return &StorefrontHandler{
		catalogRepo:  catalogRepo,
		productsRepo: productsRepo,
	}
}

// storefrontProduct is the upgraded product view plus the resolved variant
// for the requested (or default) selection.
type storefrontProduct struct {
	Product  models.Product            `json:"product"`
	Resolved *variants.ResolvedVariant `json:"resolved"`
}

// GetShowcase returns the showcase categories in rank order
// @Summary Homepage showcase
// @Tags storefront
// @Produce json
// @Success 200 {object} models.CategoryListResponse
// @Router /storefront/showcase [get]
func (h *StorefrontHandler) GetShowcase(c *gin.Context) {
	categories, err := h.catalogRepo.ListShowcase()
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.CategoryListResponse{Success: true, Data: categories})
}

// GetFeatured returns a category's featured products in rank order
// @Summary Featured products for a category
// @Tags storefront
// @Produce json
// @Param id path string true "Category ID"
// @Success 200 {object} models.ProductListResponse
// @Router /storefront/categories/{id}/featured [get]
func (h *StorefrontHandler) GetFeatured(c *gin.Context) {
	categoryID := c.Param("id")
	if _, err := h.catalogRepo.GetCategoryByID(categoryID); err != nil {
		respondDomainError(c, err)
		return
	}
	products, err := h.productsRepo.ListFeatured(categoryID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	for i := range products {
		products[i] = variants.Canonicalize(products[i])
	}
	c.JSON(http.StatusOK, models.ProductListResponse{Success: true, Data: products})
}

// GetProductDetail returns the upgraded product plus the resolved variant for
// the sizeId/colorId query selection. Legacy rows are upgraded in the
// response only; nothing is written back.
// @Summary Product detail with resolved variant
// @Tags storefront
// @Produce json
// @Param id path string true "Product ID"
// @Param sizeId query string false "Selected size ID"
// @Param colorId query string false "Selected color ID"
// @Success 200 {object} models.SuccessResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /storefront/products/{id} [get]
func (h *StorefrontHandler) GetProductDetail(c *gin.Context) {
	product, err := h.productsRepo.GetProductByID(c.Param("id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}

	resolved, err := variants.Resolve(*product, c.Query("sizeId"), c.Query("colorId"))
	if err != nil {
		respondDomainError(c, err)
		return
	}

	upgraded := variants.Canonicalize(*product)
	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data: storefrontProduct{
			Product:  upgraded,
			Resolved: resolved,
		},
	})
}

// CheckStock verifies availability for a batch of variant selections. Each
// result reports the stock level and the largest purchasable quantity; a
// short request never fails the batch.
// @Summary Check variant stock
// @Tags storefront
// @Accept json
// @Produce json
// @Param items body models.StockCheckRequest true "Items to check"
// @Success 200 {object} models.StockCheckResponse
// @Router /storefront/stock/check [post]
func (h *StorefrontHandler) CheckStock(c *gin.Context) {
	var req models.StockCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), "")
		return
	}

	allInStock := true
	results := make([]models.StockCheckResult, 0, len(req.Items))
	for _, item := range req.Items {
		product, err := h.productsRepo.GetProductByID(item.ProductID.String())
		if err != nil {
			respondDomainError(c, err)
			return
		}

		sizeID, colorID := "", ""
		if item.SizeID != nil {
			sizeID = *item.SizeID
		}
		if item.ColorID != nil {
			colorID = *item.ColorID
		}
		resolved, err := variants.Resolve(*product, sizeID, colorID)
		if err != nil {
			respondDomainError(c, err)
			return
		}

		clamped, _ := variants.ClampQuantity(resolved, item.Quantity)
		available := clamped == item.Quantity
		if !available {
			allInStock = false
		}
		results = append(results, models.StockCheckResult{
			ProductID: item.ProductID,
			SizeID:    resolved.SizeID,
			ColorID:   resolved.ColorID,
			Available: available,
			InStock:   resolved.Stock,
			Requested: item.Quantity,
			Clamped:   clamped,
		})
	}

	c.JSON(http.StatusOK, models.StockCheckResponse{
		Success:    true,
		AllInStock: allInStock,
		Results:    results,
	})
}
