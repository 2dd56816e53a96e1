package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"catalog-service/internal/repository"
	"catalog-service/internal/variants"
)

// ExportHandler generates the catalog export spreadsheet. Each row is one
// size/color cell of a product's variant matrix, so merchandisers see the
// exact stock grid the storefront sells from.
type ExportHandler struct {
	productsRepo *repository.ProductsRepository
}

func NewExportHandler(productsRepo *repository.ProductsRepository) *ExportHandler {
	return &ExportHandler{productsRepo: productsRepo}
}

// ExportProducts downloads the catalog as an Excel workbook
// @Summary Export catalog to XLSX
// @Tags export
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param categoryId query string false "Category ID"
// @Success 200
// @Router /export/products [get]
func (h *ExportHandler) ExportProducts(c *gin.Context) {
	var categoryID *string
	if v := c.Query("categoryId"); v != "" {
		categoryID = &v
	}

	// Export is unpaginated by design; page through the repository in chunks.
	const chunk = 200
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Variants"
	f.SetSheetName("Sheet1", sheetName)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	headers := []string{"SKU", "Product", "Category ID", "Size", "Color", "Price", "Compare At", "Stock", "Featured", "Featured Rank", "Active"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, colName, colName, 18)
	}

	row := 2
	for page := 1; ; page++ {
		products, total, err := h.productsRepo.GetProducts(categoryID, page, chunk)
		if err != nil {
			respondDomainError(c, err)
			return
		}

		for _, product := range products {
			p := variants.Canonicalize(product)
			for _, size := range p.SizeVariants {
				for _, color := range p.ColorVariants {
					stock := 0
					if color.StockBySize != nil {
						stock = color.StockBySize[size.ID]
					}
					featuredRank := ""
					if p.FeaturedRank != nil {
						featuredRank = fmt.Sprintf("%d", *p.FeaturedRank)
					}
					compareAt := ""
					if size.CompareAtPrice != nil {
						compareAt = fmt.Sprintf("%.2f", *size.CompareAtPrice)
					}
					values := []interface{}{
						p.SKU, p.Name, p.CategoryID.String(),
						size.Label, color.Label,
						size.Price, compareAt, stock,
						p.IsFeatured, featuredRank, p.IsActive,
					}
					for i, v := range values {
						cell, _ := excelize.CoordinatesToCellName(i+1, row)
						f.SetCellValue(sheetName, cell, v)
					}
					row++
				}
			}
		}

		if int64(page*chunk) >= total || len(products) == 0 {
			break
		}
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=catalog_export.xlsx")
	if err := f.Write(c.Writer); err != nil {
		respondError(c, http.StatusInternalServerError, "EXPORT_FAILED", err.Error(), "")
	}
}
