package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tillpoint/internal/domain"
	"tillpoint/internal/store"
)

func TestSearchProducts(t *testing.T) {
	s := New()
	ctx := context.Background()

	all, err := s.SearchProducts(ctx, "")
	require.NoError(t, err)
	require.NotEmpty(t, all)

	byName, err := s.SearchProducts(ctx, "coffee")
	require.NoError(t, err)
	require.Len(t, byName, 1)
	require.Equal(t, "Ground Coffee 200g", byName[0].Name)

	byBarcode, err := s.SearchProducts(ctx, "8991002101234")
	require.NoError(t, err)
	require.Len(t, byBarcode, 1)
	require.Equal(t, "Mineral Water 600ml", byBarcode[0].Name)
}

func TestProductCRUD(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now().UTC()

	p := &domain.Product{ID: "prod-test", Name: "Test", PriceCents: 100, Stock: 3, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.CreateProduct(ctx, p))
	require.ErrorIs(t, s.CreateProduct(ctx, p), store.ErrDuplicate)

	got, err := s.GetProduct(ctx, "prod-test")
	require.NoError(t, err)
	require.Equal(t, "Test", got.Name)

	got.Name = "Renamed"
	require.NoError(t, s.UpdateProduct(ctx, got))
	got, err = s.GetProduct(ctx, "prod-test")
	require.NoError(t, err)
	require.Equal(t, "Renamed", got.Name)

	_, err = s.GetProduct(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestSetStock(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.SetStock(ctx, "prod-mineral-water-600", 7))
	p, err := s.GetProduct(ctx, "prod-mineral-water-600")
	require.NoError(t, err)
	require.Equal(t, 7, p.Stock)

	require.ErrorIs(t, s.SetStock(ctx, "missing", 1), store.ErrNotFound)
}

func TestSalesRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	sale := &domain.Sale{
		ID:            "sale-1",
		SubtotalCents: 2400,
		DiscountCents: 600,
		TaxCents:      264,
		TotalCents:    2664,
		PaymentMethod: "cash",
		CreatedAt:     time.Now().UTC(),
		Items: []domain.SaleItem{
			{ProductID: "prod-1", Name: "Widget", Qty: 3, UnitPriceCents: 1000, DiscountPct: 20},
		},
	}
	require.NoError(t, s.CreateSale(ctx, sale))
	require.ErrorIs(t, s.CreateSale(ctx, sale), store.ErrDuplicate)
	require.ErrorIs(t, s.CreateSale(ctx, &domain.Sale{ID: "sale-2"}), store.ErrInvalidSale)

	got, err := s.GetSale(ctx, "sale-1")
	require.NoError(t, err)
	require.Equal(t, int64(2664), got.TotalCents)

	list, err := s.ListSales(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestLowStockProducts(t *testing.T) {
	s := New()
	low, err := s.LowStockProducts(context.Background())
	require.NoError(t, err)

	// Seed data includes coffee (8/10) and soap (6/8).
	names := make([]string, 0, len(low))
	for _, p := range low {
		names = append(names, p.Name)
		require.LessOrEqual(t, p.Stock, p.MinStock)
	}
	require.Contains(t, names, "Ground Coffee 200g")
	require.Contains(t, names, "Hand Soap 250ml")
}

func TestSalesSummaryAndTopProducts(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now().UTC()

	for i, method := range []string{"cash", "cash", "card"} {
		sale := &domain.Sale{
			ID:            "sale-" + method + string(rune('0'+i)),
			TotalCents:    1000,
			TaxCents:      100,
			PaymentMethod: method,
			CreatedAt:     now,
			Items: []domain.SaleItem{
				{ProductID: "prod-1", Name: "Widget", Qty: 2, UnitPriceCents: 500},
			},
		}
		require.NoError(t, s.CreateSale(ctx, sale))
	}

	sum, err := s.SalesSummary(ctx, now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(3), sum.Sales)
	require.Equal(t, int64(3000), sum.GrossCents)
	require.Len(t, sum.ByPayment, 2)

	top, err := s.TopProducts(ctx, now.Add(-time.Hour), now.Add(time.Hour), 5)
	require.NoError(t, err)
	require.Len(t, top, 1)
	require.Equal(t, int64(6), top[0].QtySold)
	require.Equal(t, int64(3000), top[0].RevenueCents)
}

func TestUsersSeededAndUpdatable(t *testing.T) {
	s := New()
	ctx := context.Background()

	admin, err := s.GetUser(ctx, "admin")
	require.NoError(t, err)
	require.Equal(t, "admin", admin.Role)
	require.True(t, admin.Active)

	require.NoError(t, s.UpdateUserPassword(ctx, "admin", "$2a$10$newhash"))
	admin, err = s.GetUser(ctx, "admin")
	require.NoError(t, err)
	require.Equal(t, "$2a$10$newhash", admin.Password)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
}

func TestGetSettings(t *testing.T) {
	s := New()
	settings, err := s.GetSettings(context.Background())
	require.NoError(t, err)
	require.InDelta(t, 0.11, settings.TaxRate, 1e-9)
	require.Equal(t, "IDR", settings.CurrencyCode)
}
