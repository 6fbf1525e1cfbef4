package report

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/require"

	"tillpoint/internal/domain"
)

func cents(v int64) *int64 { return &v }

func TestBuildLowStockRows(t *testing.T) {
	rows := BuildLowStockRows([]domain.Product{
		{ID: "p1", Name: "Coffee", PriceCents: 2500, PurchasePriceCents: cents(1750), Stock: 8, MinStock: 10},
		{ID: "p2", Name: "Soap", PriceCents: 1200, Stock: 6, MinStock: 8},
		{ID: "p3", Name: "Edge", PriceCents: 100, Stock: 10, MinStock: 5},
	})
	require.Len(t, rows, 3)

	// Restock target is twice the minimum.
	require.Equal(t, 12, rows[0].StockNeeded)
	require.NotNil(t, rows[0].UnitMarginCents)
	require.Equal(t, int64(750), *rows[0].UnitMarginCents)

	require.Equal(t, 10, rows[1].StockNeeded)
	require.Nil(t, rows[1].UnitMarginCents)

	// Floor of 1 when the formula would go non-positive.
	require.Equal(t, 1, rows[2].StockNeeded)
}

func TestWriteCSV(t *testing.T) {
	rep := NewLowStockReport([]domain.Product{
		{ID: "p1", Name: "Coffee, Ground", PriceCents: 2500, PurchasePriceCents: cents(1750), Stock: 8, MinStock: 10},
	})

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rep))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "product_id", records[0][0])
	require.Equal(t, "Coffee, Ground", records[1][1])
	require.Equal(t, "12", records[1][7])
	require.Equal(t, "750", records[1][8])
}
