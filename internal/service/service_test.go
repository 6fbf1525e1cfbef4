package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tillpoint/internal/cart"
	"tillpoint/internal/domain"
	"tillpoint/internal/store"
	"tillpoint/internal/store/memory"
)

func adminCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "admin", Role: "admin"})
}

func cents(v int64) *int64 { return &v }

func newTestService(t *testing.T) (*Service, store.Repository) {
	t.Helper()
	repo := memory.New()
	svc := New(context.Background(), repo, nil, zap.NewNop())
	return svc, repo
}

func createProduct(t *testing.T, svc *Service, name string, priceCents int64, costCents *int64, stock int) domain.Product {
	t.Helper()
	p, err := svc.CreateProduct(adminCtx(), domain.ProductCreateRequest{
		Name:               name,
		PriceCents:         priceCents,
		PurchasePriceCents: costCents,
		InitialStock:       stock,
	})
	require.NoError(t, err)
	return p
}

// failingSaleRepo wraps a Repository and fails every CreateSale.
type failingSaleRepo struct {
	store.Repository
}

func (f *failingSaleRepo) CreateSale(context.Context, *domain.Sale) error {
	return errors.New("write failed")
}

// failingStockRepo fails SetStock for one product id.
type failingStockRepo struct {
	store.Repository
	failID string
}

func (f *failingStockRepo) SetStock(ctx context.Context, productID string, qty int) error {
	if productID == f.failID {
		return errors.New("stock write failed")
	}
	return f.Repository.SetStock(ctx, productID, qty)
}

func TestSearchProductsExactBarcodeMatch(t *testing.T) {
	svc, _ := newTestService(t)
	p, err := svc.CreateProduct(adminCtx(), domain.ProductCreateRequest{
		Name:       "Scan Target",
		Barcode:    "777000111",
		PriceCents: 1500,
	})
	require.NoError(t, err)

	resp, err := svc.SearchProducts(context.Background(), "777000111")
	require.NoError(t, err)
	require.NotNil(t, resp.ExactBarcodeMatch)
	require.Equal(t, p.ID, resp.ExactBarcodeMatch.ID)

	resp, err = svc.SearchProducts(context.Background(), "Scan")
	require.NoError(t, err)
	require.Nil(t, resp.ExactBarcodeMatch)
	require.NotEmpty(t, resp.Products)
}

func TestCreateProductRequiresAdmin(t *testing.T) {
	svc, _ := newTestService(t)
	cashier := WithActor(context.Background(), domain.Actor{Username: "c1", Role: "cashier"})
	_, err := svc.CreateProduct(cashier, domain.ProductCreateRequest{Name: "X", PriceCents: 100})
	require.Error(t, err)
}

func TestCheckoutSettlesAndClearsCart(t *testing.T) {
	svc, repo := newTestService(t)
	p := createProduct(t, svc, "Widget", 1000, cents(600), 5)

	_, err := svc.AddLine(context.Background(), "till-1", domain.AddLineRequest{ProductID: p.ID, Qty: 3})
	require.NoError(t, err)

	resp, err := svc.Checkout(context.Background(), "till-1", domain.CheckoutRequest{PaymentMethod: "cash"})
	require.NoError(t, err)
	require.Equal(t, int64(3000), resp.SubtotalCents)
	require.Equal(t, 3, resp.ItemCount)

	// Sale persisted with frozen items.
	sale, err := repo.GetSale(context.Background(), resp.SaleID)
	require.NoError(t, err)
	require.Len(t, sale.Items, 1)
	require.Equal(t, 3, sale.Items[0].Qty)

	// Cart cleared.
	view := svc.CartView(context.Background(), "till-1")
	require.Empty(t, view.Lines)

	// Stock pushed down to the remaining level.
	require.Len(t, resp.StockSync, 1)
	require.Empty(t, resp.StockSync[0].Error)
	require.Equal(t, 2, resp.StockSync[0].NewStock)

	stored, err := repo.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	require.Equal(t, 2, stored.Stock)
}

func TestCheckoutFailureLeavesCartIntact(t *testing.T) {
	repo := memory.New()
	failing := &failingSaleRepo{Repository: repo}
	svc := New(context.Background(), failing, nil, zap.NewNop())

	p := createProduct(t, svc, "Widget", 1000, cents(600), 5)
	_, err := svc.AddLine(context.Background(), "till-1", domain.AddLineRequest{ProductID: p.ID, Qty: 2})
	require.NoError(t, err)

	_, err = svc.Checkout(context.Background(), "till-1", domain.CheckoutRequest{PaymentMethod: "cash"})
	require.Error(t, err)

	// Cart untouched so the operator can retry.
	view := svc.CartView(context.Background(), "till-1")
	require.Len(t, view.Lines, 1)
	require.Equal(t, 2, view.Lines[0].Qty)

	// Stock never pushed.
	stored, err := repo.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	require.Equal(t, 5, stored.Stock)
}

func TestCheckoutStockPushFailureDoesNotRollBack(t *testing.T) {
	repo := memory.New()
	svc := New(context.Background(), repo, nil, zap.NewNop())
	good := createProduct(t, svc, "Good", 1000, cents(600), 5)
	bad := createProduct(t, svc, "Bad", 500, nil, 5)

	failing := &failingStockRepo{Repository: repo, failID: bad.ID}
	svc2 := New(context.Background(), failing, nil, zap.NewNop())

	_, err := svc2.AddLine(context.Background(), "till-1", domain.AddLineRequest{ProductID: good.ID, Qty: 1})
	require.NoError(t, err)
	_, err = svc2.AddLine(context.Background(), "till-1", domain.AddLineRequest{ProductID: bad.ID, Qty: 1})
	require.NoError(t, err)

	resp, err := svc2.Checkout(context.Background(), "till-1", domain.CheckoutRequest{PaymentMethod: "card"})
	require.NoError(t, err)

	// The sale exists even though one push failed.
	_, err = repo.GetSale(context.Background(), resp.SaleID)
	require.NoError(t, err)

	var failed, succeeded int
	for _, status := range resp.StockSync {
		if status.Error != "" {
			failed++
			require.Equal(t, bad.ID, status.ProductID)
		} else {
			succeeded++
		}
	}
	require.Equal(t, 1, failed)
	require.Equal(t, 1, succeeded)
}

func TestCheckoutRejectsInvalidPayment(t *testing.T) {
	svc, _ := newTestService(t)
	p := createProduct(t, svc, "Widget", 1000, nil, 5)
	_, err := svc.AddLine(context.Background(), "till-1", domain.AddLineRequest{ProductID: p.ID, Qty: 1})
	require.NoError(t, err)

	_, err = svc.Checkout(context.Background(), "till-1", domain.CheckoutRequest{PaymentMethod: "barter"})
	require.ErrorIs(t, err, store.ErrInvalidSale)
}

func TestCheckoutEmptyCart(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Checkout(context.Background(), "till-9", domain.CheckoutRequest{PaymentMethod: "cash"})
	require.ErrorIs(t, err, cart.ErrEmptyCart)
}

func TestOverrideStockReconcilesOpenCarts(t *testing.T) {
	svc, _ := newTestService(t)
	p := createProduct(t, svc, "Widget", 1000, nil, 5)

	line, err := svc.AddLine(context.Background(), "till-1", domain.AddLineRequest{ProductID: p.ID, Qty: 5})
	require.NoError(t, err)

	_, err = svc.UpdateQuantity(context.Background(), "till-1", line.ID, 8)
	var exceeded *cart.StockExceededError
	require.ErrorAs(t, err, &exceeded)

	updated, err := svc.OverrideStock(adminCtx(), p.ID, 10)
	require.NoError(t, err)
	require.Equal(t, 10, updated.Stock)

	got, err := svc.UpdateQuantity(context.Background(), "till-1", line.ID, 8)
	require.NoError(t, err)
	require.Equal(t, 8, got.Qty)
}

func TestTerminalCartsAreIsolated(t *testing.T) {
	svc, _ := newTestService(t)
	p := createProduct(t, svc, "Widget", 1000, nil, 5)

	_, err := svc.AddLine(context.Background(), "till-1", domain.AddLineRequest{ProductID: p.ID, Qty: 5})
	require.NoError(t, err)

	// A second terminal sees catalog stock, not the first cart's mirror.
	_, err = svc.AddLine(context.Background(), "till-2", domain.AddLineRequest{ProductID: p.ID, Qty: 5})
	require.NoError(t, err)

	require.Len(t, svc.CartView(context.Background(), "till-1").Lines, 1)
	require.Len(t, svc.CartView(context.Background(), "till-2").Lines, 1)
}

func TestAddLineDefaultsQtyToOne(t *testing.T) {
	svc, _ := newTestService(t)
	p := createProduct(t, svc, "Widget", 1000, nil, 5)

	line, err := svc.AddLine(context.Background(), "till-1", domain.AddLineRequest{ProductID: p.ID})
	require.NoError(t, err)
	require.Equal(t, 1, line.Qty)
}

func TestMaxDiscountBeforeLoss(t *testing.T) {
	svc, _ := newTestService(t)
	known := createProduct(t, svc, "Known", 1000, cents(800), 5)
	unknown := createProduct(t, svc, "Unknown", 1000, nil, 5)

	pct, err := svc.MaxDiscountBeforeLoss(context.Background(), known.ID)
	require.NoError(t, err)
	require.NotNil(t, pct)
	require.InDelta(t, 20.0, *pct, 1e-9)

	pct, err = svc.MaxDiscountBeforeLoss(context.Background(), unknown.ID)
	require.NoError(t, err)
	require.Nil(t, pct)
}

func TestLowStockReport(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.CreateProduct(adminCtx(), domain.ProductCreateRequest{
		Name:         "Running Low",
		PriceCents:   1000,
		InitialStock: 2,
		MinStock:     10,
	})
	require.NoError(t, err)

	rep, err := svc.LowStockReport(context.Background())
	require.NoError(t, err)

	var found bool
	for _, row := range rep.Rows {
		if row.Name == "Running Low" {
			found = true
			require.Equal(t, 18, row.StockNeeded)
		}
	}
	require.True(t, found)
}
