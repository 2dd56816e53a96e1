package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductImage represents a product image
type ProductImage struct {
	ID       string  `json:"id"`
	URL      string  `json:"url"`
	AltText  *string `json:"altText,omitempty"`
	Position int     `json:"position"`
}

// SizeVariant represents one size option of a product. Price lives on the
// size, not the color.
type SizeVariant struct {
	ID             string   `json:"id"`
	Label          string   `json:"label"`
	Price          float64  `json:"price"`
	CompareAtPrice *float64 `json:"compareAtPrice,omitempty"`
}

// ColorVariant represents one color option of a product. StockBySize holds
// one quantity per size currently on the product (size id -> quantity).
type ColorVariant struct {
	ID          string         `json:"id"`
	Label       string         `json:"label"`
	Swatch      string         `json:"swatch"`
	Images      []ProductImage `json:"images,omitempty"`
	StockBySize map[string]int `json:"stockBySize"`
}

// SizeVariantList is a JSONB-backed slice of size variants
type SizeVariantList []SizeVariant

func (l SizeVariantList) Value() (driver.Value, error) {
	return json.Marshal(l)
}

func (l *SizeVariantList) Scan(value interface{}) error {
	if value == nil {
		*l = make(SizeVariantList, 0)
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	}
	return nil
}

// ColorVariantList is a JSONB-backed slice of color variants
type ColorVariantList []ColorVariant

func (l ColorVariantList) Value() (driver.Value, error) {
	return json.Marshal(l)
}

func (l *ColorVariantList) Scan(value interface{}) error {
	if value == nil {
		*l = make(ColorVariantList, 0)
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	}
	return nil
}

// Product represents a product entity. Canonical products carry the size and
// color variant arrays; legacy rows carry the flat price/stock/images fields
// and are upgraded at read time, never implicitly persisted.
type Product struct {
	ID            uuid.UUID        `json:"id" gorm:"type:uuid;primary_key"`
	CategoryID    uuid.UUID        `json:"categoryId" gorm:"type:uuid;not null;index;index:idx_products_featured"`
	SubCategoryID *uuid.UUID       `json:"subCategoryId,omitempty" gorm:"type:uuid;index"`
	Name          string           `json:"name" gorm:"not null"`
	Slug          string           `json:"slug" gorm:"not null;uniqueIndex:idx_products_slug"`
	SKU           string           `json:"sku" gorm:"not null;uniqueIndex:idx_products_sku"`
	Description   *string          `json:"description,omitempty"`
	IsFeatured    bool             `json:"isFeatured" gorm:"not null;default:false;index:idx_products_featured"`
	FeaturedRank  *int             `json:"featuredRank,omitempty"`
	IsActive      bool             `json:"isActive" gorm:"not null"`
	SizeVariants  SizeVariantList  `json:"sizeVariants" gorm:"type:jsonb"`
	ColorVariants ColorVariantList `json:"colorVariants" gorm:"type:jsonb"`

	// Legacy single-variant shape
	Price          *float64   `json:"price,omitempty"`
	CompareAtPrice *float64   `json:"compareAtPrice,omitempty"`
	Stock          *int       `json:"stock,omitempty"`
	Images         *JSONArray `json:"images,omitempty" gorm:"type:jsonb"`

	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	DeletedAt *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
}

// IsCanonical reports whether the product already carries non-empty variant
// arrays and needs no legacy upgrade.
func (p *Product) IsCanonical() bool {
	return len(p.SizeVariants) > 0 && len(p.ColorVariants) > 0
}

// CreateProductRequest represents a request to create a new product
type CreateProductRequest struct {
	Name           string         `json:"name" binding:"required"`
	Slug           *string        `json:"slug,omitempty"`
	SKU            string         `json:"sku" binding:"required"`
	Description    *string        `json:"description,omitempty"`
	CategoryID     uuid.UUID      `json:"categoryId" binding:"required"`
	SubCategoryID  *uuid.UUID     `json:"subCategoryId,omitempty"`
	SizeVariants   []SizeVariant  `json:"sizeVariants,omitempty"`
	ColorVariants  []ColorVariant `json:"colorVariants,omitempty"`
	Price          *float64       `json:"price,omitempty"`
	CompareAtPrice *float64       `json:"compareAtPrice,omitempty"`
	Stock          *int           `json:"stock,omitempty"`
	Images         []ProductImage `json:"images,omitempty"`
	IsActive       *bool          `json:"isActive,omitempty"`
}

// UpdateProductRequest represents a request to update a product.
// Reassigning CategoryID/SubCategoryID moves the product's counters.
type UpdateProductRequest struct {
	Name          *string        `json:"name,omitempty"`
	Slug          *string        `json:"slug,omitempty"`
	SKU           *string        `json:"sku,omitempty"`
	Description   *string        `json:"description,omitempty"`
	CategoryID    *uuid.UUID     `json:"categoryId,omitempty"`
	SubCategoryID *uuid.UUID     `json:"subCategoryId,omitempty"`
	SizeVariants  []SizeVariant  `json:"sizeVariants,omitempty"`
	ColorVariants []ColorVariant `json:"colorVariants,omitempty"`
	IsActive      *bool          `json:"isActive,omitempty"`
}

// StockCheckItem represents a single variant stock check request
type StockCheckItem struct {
	ProductID uuid.UUID `json:"productId" binding:"required"`
	SizeID    *string   `json:"sizeId,omitempty"`
	ColorID   *string   `json:"colorId,omitempty"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

// StockCheckRequest for checking stock availability
type StockCheckRequest struct {
	Items []StockCheckItem `json:"items" binding:"required,dive"`
}

// StockCheckResult represents stock availability for a single variant.
// Clamped carries the largest purchasable quantity when the request exceeds
// the available stock.
type StockCheckResult struct {
	ProductID uuid.UUID `json:"productId"`
	SizeID    string    `json:"sizeId"`
	ColorID   string    `json:"colorId"`
	Available bool      `json:"available"`
	InStock   int       `json:"inStock"`
	Requested int       `json:"requested"`
	Clamped   int       `json:"clamped"`
}

// StockCheckResponse for stock check results
type StockCheckResponse struct {
	Success    bool               `json:"success"`
	AllInStock bool               `json:"allInStock"`
	Results    []StockCheckResult `json:"results"`
	Message    *string            `json:"message,omitempty"`
}

// ProductResponse represents a single product response
type ProductResponse struct {
	Success bool     `json:"success"`
	Data    *Product `json:"data"`
	Message *string  `json:"message,omitempty"`
}

// ProductListResponse represents a list of products response
type ProductListResponse struct {
	Success    bool            `json:"success"`
	Data       []Product       `json:"data"`
	Pagination *PaginationInfo `json:"pagination,omitempty"`
}

// BeforeCreate assigns a UUID when the caller did not set one
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}
