// Package report derives the low-stock restock report from the catalog.
package report

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"tillpoint/internal/domain"
)

// BuildLowStockRows maps low-stock products to report rows. StockNeeded is
// the quantity to restore stock to twice the minimum, with a floor of 1 so
// every listed product gets an actionable order quantity. UnitMarginCents is
// left nil when the purchase price is unknown.
func BuildLowStockRows(products []domain.Product) []domain.LowStockRow {
	rows := make([]domain.LowStockRow, 0, len(products))
	for _, p := range products {
		needed := p.MinStock*2 - p.Stock
		if needed < 1 {
			needed = 1
		}
		row := domain.LowStockRow{
			ProductID:   p.ID,
			Name:        p.Name,
			Barcode:     p.Barcode,
			CategoryID:  p.CategoryID,
			PriceCents:  p.PriceCents,
			Stock:       p.Stock,
			MinStock:    p.MinStock,
			StockNeeded: needed,
		}
		if p.PurchasePriceCents != nil {
			margin := p.PriceCents - *p.PurchasePriceCents
			row.UnitMarginCents = &margin
		}
		rows = append(rows, row)
	}
	return rows
}

func NewLowStockReport(products []domain.Product) domain.LowStockReport {
	return domain.LowStockReport{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Rows:        BuildLowStockRows(products),
	}
}

// WriteCSV streams the report as CSV, one row per product.
func WriteCSV(w io.Writer, rep domain.LowStockReport) error {
	cw := csv.NewWriter(w)
	header := []string{"product_id", "name", "barcode", "category_id", "price_cents", "stock", "min_stock", "stock_needed", "unit_margin_cents"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, row := range rep.Rows {
		margin := ""
		if row.UnitMarginCents != nil {
			margin = strconv.FormatInt(*row.UnitMarginCents, 10)
		}
		record := []string{
			row.ProductID,
			row.Name,
			row.Barcode,
			row.CategoryID,
			strconv.FormatInt(row.PriceCents, 10),
			strconv.Itoa(row.Stock),
			strconv.Itoa(row.MinStock),
			strconv.Itoa(row.StockNeeded),
			margin,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
