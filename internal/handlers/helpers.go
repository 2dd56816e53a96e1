package handlers

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"catalog-service/internal/catalog"
	"catalog-service/internal/models"
	"catalog-service/internal/ranking"
	"catalog-service/internal/repository"
)

func respondError(c *gin.Context, status int, code, message, field string) {
	c.JSON(status, models.ErrorResponse{
		Success: false,
		Error: models.Error{
			Code:    code,
			Message: message,
			Field:   field,
		},
	})
}

// respondDomainError maps domain sentinels to HTTP statuses. Anything
// unrecognized is a 500.
func respondDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrCategoryNotFound):
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Category not found", "")
	case errors.Is(err, repository.ErrSubCategoryNotFound):
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Sub-category not found", "")
	case errors.Is(err, repository.ErrProductNotFound):
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Product not found", "")
	case errors.Is(err, repository.ErrColorNotFound):
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Color variant not found", "")
	case errors.Is(err, ranking.ErrLimitExceeded):
		respondError(c, http.StatusConflict, "LIMIT_EXCEEDED", err.Error(), "")
	case errors.Is(err, ranking.ErrInvalidRank):
		respondError(c, http.StatusBadRequest, "INVALID_RANK", err.Error(), "rank")
	case errors.Is(err, ranking.ErrNotInScope):
		respondError(c, http.StatusConflict, "NOT_IN_SCOPE", err.Error(), "")
	case errors.Is(err, catalog.ErrWrongCategory):
		respondError(c, http.StatusBadRequest, "WRONG_CATEGORY", err.Error(), "categoryId")
	default:
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error(), "")
	}
}

// pagination reads page/limit query params, clamped to the configured bounds
func pagination(c *gin.Context, defaultSize, maxSize int) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultSize)))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultSize
	}
	if limit > maxSize {
		limit = maxSize
	}
	return page, limit
}

func paginationInfo(page, limit int, total int64) *models.PaginationInfo {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &models.PaginationInfo{
		Page:        page,
		Limit:       limit,
		Total:       total,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
	}
}

var slugPattern = regexp.MustCompile("[^a-z0-9]+")

func generateSlug(name string) string {
	slug := strings.ToLower(name)
	slug = slugPattern.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > 50 {
		slug = slug[:50]
	}
	return slug
}
