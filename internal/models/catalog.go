package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JSON type for PostgreSQL JSONB (object/map)
type JSON map[string]interface{}

func (j JSON) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSON)
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	}
	return nil
}

// JSONArray type for PostgreSQL JSONB (array)
type JSONArray []interface{}

func (j JSONArray) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSONArray) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSONArray, 0)
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	}
	return nil
}

// DefaultFeaturedProductLimit is the per-category cap on featured products
// when a category does not configure its own.
const DefaultFeaturedProductLimit = 8

// Category represents a product category. Showcase categories additionally
// carry a dense homepage rank (1..N, no gaps) maintained by the rank ledger.
type Category struct {
	ID                   uuid.UUID       `json:"id" gorm:"type:uuid;primary_key"`
	Name                 string          `json:"name" gorm:"not null"`
	Slug                 string          `json:"slug" gorm:"not null;uniqueIndex:idx_categories_slug"`
	Description          *string         `json:"description,omitempty"`
	Position             int             `json:"position" gorm:"not null;default:1"`
	IsShowcase           bool            `json:"isShowcase" gorm:"not null;default:false;index:idx_categories_showcase"`
	ShowcaseRank         *int            `json:"showcaseRank,omitempty" gorm:"index:idx_categories_showcase"`
	ShowcaseImage        *string         `json:"showcaseImage,omitempty"`
	FeaturedProductLimit int             `json:"featuredProductLimit" gorm:"not null;default:8"`
	ProductCount         int             `json:"productCount" gorm:"not null;default:0"`
	SubCategoryCount     int             `json:"subCategoryCount" gorm:"not null;default:0"`
	IsActive             bool            `json:"isActive" gorm:"not null"`
	SeoTitle             *string         `json:"seoTitle,omitempty" gorm:"column:seo_title;type:text"`
	SeoDescription       *string         `json:"seoDescription,omitempty" gorm:"column:seo_description;type:text"`
	CreatedAt            time.Time       `json:"createdAt"`
	UpdatedAt            time.Time       `json:"updatedAt"`
	DeletedAt            *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
}

// SubCategory represents a sub-category within a category
type SubCategory struct {
	ID           uuid.UUID       `json:"id" gorm:"type:uuid;primary_key"`
	CategoryID   uuid.UUID       `json:"categoryId" gorm:"type:uuid;not null;index"`
	Name         string          `json:"name" gorm:"not null"`
	Slug         string          `json:"slug" gorm:"not null;uniqueIndex:idx_sub_categories_slug"`
	Position     int             `json:"position" gorm:"not null;default:1"`
	ProductCount int             `json:"productCount" gorm:"not null;default:0"`
	IsActive     bool            `json:"isActive" gorm:"not null"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
	DeletedAt    *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
}

// CreateCategoryRequest represents a request to create a new category
type CreateCategoryRequest struct {
	Name                 string  `json:"name" binding:"required"`
	Slug                 *string `json:"slug,omitempty"`
	Description          *string `json:"description,omitempty"`
	Position             *int    `json:"position,omitempty"`
	ShowcaseImage        *string `json:"showcaseImage,omitempty"`
	FeaturedProductLimit *int    `json:"featuredProductLimit,omitempty"`
	IsActive             *bool   `json:"isActive,omitempty"`
	SeoTitle             *string `json:"seoTitle,omitempty"`
	SeoDescription       *string `json:"seoDescription,omitempty"`
}

// UpdateCategoryRequest represents a request to update a category
type UpdateCategoryRequest struct {
	Name                 *string `json:"name,omitempty"`
	Slug                 *string `json:"slug,omitempty"`
	Description          *string `json:"description,omitempty"`
	Position             *int    `json:"position,omitempty"`
	ShowcaseImage        *string `json:"showcaseImage,omitempty"`
	FeaturedProductLimit *int    `json:"featuredProductLimit,omitempty"`
	IsActive             *bool   `json:"isActive,omitempty"`
	SeoTitle             *string `json:"seoTitle,omitempty"`
	SeoDescription       *string `json:"seoDescription,omitempty"`
}

// CreateSubCategoryRequest represents a request to create a sub-category
type CreateSubCategoryRequest struct {
	CategoryID uuid.UUID `json:"categoryId" binding:"required"`
	Name       string    `json:"name" binding:"required"`
	Slug       *string   `json:"slug,omitempty"`
	Position   *int      `json:"position,omitempty"`
	IsActive   *bool     `json:"isActive,omitempty"`
}

// UpdateSubCategoryRequest represents a request to update a sub-category.
// Reassigning CategoryID moves the sub-category's counter to the new owner.
type UpdateSubCategoryRequest struct {
	CategoryID *uuid.UUID `json:"categoryId,omitempty"`
	Name       *string    `json:"name,omitempty"`
	Slug       *string    `json:"slug,omitempty"`
	Position   *int       `json:"position,omitempty"`
	IsActive   *bool      `json:"isActive,omitempty"`
}

// ReorderRequest represents a request to move a ranked item to a new rank
type ReorderRequest struct {
	Rank int `json:"rank" binding:"required"`
}

// RecountResult carries the authoritative counters computed by a recount
type RecountResult struct {
	ProductCount     int  `json:"productCount"`
	SubCategoryCount *int `json:"subCategoryCount,omitempty"`
}

// PaginationInfo represents pagination information
type PaginationInfo struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"totalPages"`
	HasNext     bool  `json:"hasNext"`
	HasPrevious bool  `json:"hasPrevious"`
}

// CategoryResponse represents a single category response
type CategoryResponse struct {
	Success bool      `json:"success"`
	Data    *Category `json:"data"`
	Message *string   `json:"message,omitempty"`
}

// CategoryListResponse represents a list of categories response
type CategoryListResponse struct {
	Success    bool            `json:"success"`
	Data       []Category      `json:"data"`
	Pagination *PaginationInfo `json:"pagination,omitempty"`
}

// SubCategoryResponse represents a single sub-category response
type SubCategoryResponse struct {
	Success bool         `json:"success"`
	Data    *SubCategory `json:"data"`
	Message *string      `json:"message,omitempty"`
}

// SubCategoryListResponse represents a list of sub-categories response
type SubCategoryListResponse struct {
	Success    bool            `json:"success"`
	Data       []SubCategory   `json:"data"`
	Pagination *PaginationInfo `json:"pagination,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     Error  `json:"error"`
	Timestamp string `json:"timestamp,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// Error represents error details
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Details *JSON  `json:"details,omitempty"`
}

// SuccessResponse represents a generic success response
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message *string     `json:"message,omitempty"`
}

// BeforeCreate assigns a UUID when the caller did not set one
func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// BeforeCreate assigns a UUID when the caller did not set one
func (s *SubCategory) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Category model
func (Category) TableName() string {
	return "categories"
}

// TableName returns the table name for the SubCategory model
func (SubCategory) TableName() string {
	return "sub_categories"
}
