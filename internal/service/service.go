// Package service orchestrates the cart engine, catalog, and settlement. It
// owns one cart per terminal and is the only layer that talks to both the
// engine and the repository.
package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"tillpoint/internal/cart"
	"tillpoint/internal/domain"
	"tillpoint/internal/pricing"
	"tillpoint/internal/report"
	"tillpoint/internal/store"
	"tillpoint/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

var validPaymentMethods = map[string]bool{
	"cash":    true,
	"card":    true,
	"qris":    true,
	"ewallet": true,
}

type Service struct {
	repo     store.Repository
	logger   *zap.Logger
	notifier cart.Notifier
	settings domain.Settings

	mu    sync.Mutex
	carts map[string]*cart.Cart
}

// New loads settings once and wires the service. A settings read failure
// falls back to a zero tax rate rather than refusing to start.
func New(ctx context.Context, repo store.Repository, notifier cart.Notifier, logger *zap.Logger) *Service {
	if notifier == nil {
		notifier = cart.NoopNotifier{}
	}

	settings := domain.Settings{CurrencyCode: "IDR"}
	if loaded, err := repo.GetSettings(ctx); err != nil {
		logger.Warn("settings unavailable, using defaults", zap.Error(err))
	} else {
		settings = *loaded
	}

	return &Service{
		repo:     repo,
		logger:   logger,
		notifier: notifier,
		settings: settings,
		carts:    make(map[string]*cart.Cart),
	}
}

func (s *Service) Settings() domain.Settings {
	return s.settings
}

// cartFor returns the terminal's cart, creating it on first use.
func (s *Service) cartFor(terminalID string) *cart.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[terminalID]
	if !ok {
		c = cart.New(s.notifier)
		s.carts[terminalID] = c
	}
	return c
}

func (s *Service) SearchProducts(ctx context.Context, query string) (domain.ProductSearchResponse, error) {
	query = strings.TrimSpace(query)
	products, err := s.repo.SearchProducts(ctx, query)
	if err != nil {
		return domain.ProductSearchResponse{}, err
	}

	resp := domain.ProductSearchResponse{Products: products}
	if query != "" {
		for i := range products {
			if products[i].Barcode == query {
				resp.ExactBarcodeMatch = &products[i]
				break
			}
		}
	}
	return resp, nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.GetProduct(ctx, id)
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Product{}, fmt.Errorf("admin role required")
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.PriceCents < 1 || req.InitialStock < 0 || req.MinStock < 0 {
		return domain.Product{}, store.ErrInvalidSale
	}

	now := time.Now().UTC()
	product := domain.Product{
		ID:                 xid.New("prod"),
		Name:               req.Name,
		Barcode:            strings.TrimSpace(req.Barcode),
		CategoryID:         strings.TrimSpace(req.CategoryID),
		ImageURL:           strings.TrimSpace(req.ImageURL),
		PriceCents:         req.PriceCents,
		PurchasePriceCents: req.PurchasePriceCents,
		Stock:              req.InitialStock,
		MinStock:           req.MinStock,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.repo.CreateProduct(ctx, &product); err != nil {
		return domain.Product{}, err
	}
	s.logger.Info("product created",
		zap.String("product_id", product.ID),
		zap.String("actor", actor.Username),
	)
	return product, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (domain.Product, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Product{}, fmt.Errorf("admin role required")
	}

	existing, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Product{}, store.ErrInvalidSale
		}
		updated.Name = name
	}
	if req.Barcode != nil {
		updated.Barcode = strings.TrimSpace(*req.Barcode)
	}
	if req.CategoryID != nil {
		updated.CategoryID = strings.TrimSpace(*req.CategoryID)
	}
	if req.ImageURL != nil {
		updated.ImageURL = strings.TrimSpace(*req.ImageURL)
	}
	if req.PriceCents != nil {
		if *req.PriceCents < 1 {
			return domain.Product{}, store.ErrInvalidSale
		}
		updated.PriceCents = *req.PriceCents
	}
	if req.PurchasePriceCents != nil {
		updated.PurchasePriceCents = req.PurchasePriceCents
	}
	if req.MinStock != nil {
		if *req.MinStock < 0 {
			return domain.Product{}, store.ErrInvalidSale
		}
		updated.MinStock = *req.MinStock
	}
	updated.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateProduct(ctx, &updated); err != nil {
		return domain.Product{}, err
	}
	s.logger.Info("product updated",
		zap.String("product_id", updated.ID),
		zap.String("actor", actor.Username),
	)
	return updated, nil
}

// OverrideStock persists an absolute stock level and reconciles every open
// cart's mirror so blocked quantity increases can proceed.
func (s *Service) OverrideStock(ctx context.Context, productID string, newStock int) (*domain.Product, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return nil, fmt.Errorf("admin role required")
	}
	if newStock < 0 {
		return nil, store.ErrInvalidSale
	}

	if err := s.repo.SetStock(ctx, productID, newStock); err != nil {
		return nil, err
	}

	s.mu.Lock()
	for _, c := range s.carts {
		c.RaiseStock(productID, newStock)
	}
	s.mu.Unlock()

	s.logger.Info("stock overridden",
		zap.String("product_id", productID),
		zap.Int("new_stock", newStock),
		zap.String("actor", actor.Username),
	)
	return s.repo.GetProduct(ctx, productID)
}

func (s *Service) AddLine(ctx context.Context, terminalID string, req domain.AddLineRequest) (domain.CartLine, error) {
	qty := req.Qty
	if qty == 0 {
		qty = 1
	}
	product, err := s.repo.GetProduct(ctx, req.ProductID)
	if err != nil {
		return domain.CartLine{}, err
	}
	return s.cartFor(terminalID).AddLine(product, qty)
}

func (s *Service) UpdateQuantity(_ context.Context, terminalID, lineID string, qty int) (domain.CartLine, error) {
	return s.cartFor(terminalID).UpdateQuantity(lineID, qty)
}

func (s *Service) UpdateDiscount(_ context.Context, terminalID, lineID string, pct float64) (domain.CartLine, error) {
	return s.cartFor(terminalID).UpdateDiscount(lineID, pct)
}

func (s *Service) RemoveLine(_ context.Context, terminalID, lineID string) error {
	return s.cartFor(terminalID).RemoveLine(lineID)
}

func (s *Service) ApplyGlobalDiscount(_ context.Context, terminalID string, pct float64) domain.CartView {
	c := s.cartFor(terminalID)
	c.ApplyGlobalDiscount(pct)
	return s.viewOf(terminalID, c)
}

func (s *Service) ClearCart(_ context.Context, terminalID string) {
	s.cartFor(terminalID).Clear()
}

func (s *Service) CartView(_ context.Context, terminalID string) domain.CartView {
	return s.viewOf(terminalID, s.cartFor(terminalID))
}

func (s *Service) viewOf(terminalID string, c *cart.Cart) domain.CartView {
	return domain.CartView{
		TerminalID: terminalID,
		Lines:      c.Lines(),
		Totals:     c.Totals(s.settings.TaxRate),
	}
}

// MaxDiscountBeforeLoss reports the advisory loss threshold for a product, or
// nil when the purchase price is unknown.
func (s *Service) MaxDiscountBeforeLoss(ctx context.Context, productID string) (*float64, error) {
	product, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.PurchasePriceCents == nil {
		return nil, nil
	}
	pct := pricing.MaxDiscountBeforeLoss(product.PriceCents, *product.PurchasePriceCents)
	return &pct, nil
}

// Checkout settles the terminal's cart. The sale record is written first and
// atomically; if that write fails the cart is left untouched so the operator
// can retry. On success the cart is cleared and each product's new absolute
// stock level is pushed concurrently. Push failures are reported in the
// response and logged, never rolled back.
func (s *Service) Checkout(ctx context.Context, terminalID string, req domain.CheckoutRequest) (*domain.CheckoutResponse, error) {
	method := strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	if !validPaymentMethods[method] {
		return nil, store.ErrInvalidSale
	}

	c := s.cartFor(terminalID)
	items := c.Items()
	if len(items) == 0 {
		return nil, cart.ErrEmptyCart
	}
	totals := c.Totals(s.settings.TaxRate)

	sale := &domain.Sale{
		ID:            xid.New("sale"),
		SubtotalCents: totals.SubtotalCents,
		DiscountCents: totals.DiscountCents,
		TaxCents:      totals.TaxCents,
		TotalCents:    totals.GrandTotalCents,
		PaymentMethod: method,
		CreatedAt:     time.Now().UTC(),
		Items:         items,
	}

	if err := s.repo.CreateSale(ctx, sale); err != nil {
		return nil, err
	}

	// Capture remaining levels before Clear drops the mirror.
	remaining := make(map[string]int, len(items))
	for _, item := range items {
		if _, ok := remaining[item.ProductID]; ok {
			continue
		}
		if n, ok := c.Available(item.ProductID); ok {
			remaining[item.ProductID] = n
		}
	}

	c.Clear()
	s.notifier.OnSaleCompleted(sale.ID)
	s.logger.Info("sale settled",
		zap.String("sale_id", sale.ID),
		zap.String("terminal_id", terminalID),
		zap.Int64("total_cents", sale.TotalCents),
		zap.String("payment_method", method),
	)

	statuses := s.pushStock(ctx, remaining)

	return &domain.CheckoutResponse{
		SaleID:        sale.ID,
		SubtotalCents: sale.SubtotalCents,
		DiscountCents: sale.DiscountCents,
		TaxCents:      sale.TaxCents,
		TotalCents:    sale.TotalCents,
		PaymentMethod: sale.PaymentMethod,
		ItemCount:     totals.ItemCount,
		StockSync:     statuses,
		CreatedAt:     sale.CreatedAt.Format(time.RFC3339),
	}, nil
}

// pushStock writes each product's absolute stock level in its own goroutine.
// The pushes outlive request cancellation; a client disconnect after the sale
// is committed must not strand the catalog at stale levels.
func (s *Service) pushStock(ctx context.Context, remaining map[string]int) []domain.StockSyncStatus {
	if len(remaining) == 0 {
		return nil
	}
	pushCtx := context.WithoutCancel(ctx)

	type push struct {
		productID string
		newStock  int
	}
	pushes := make([]push, 0, len(remaining))
	for id, n := range remaining {
		pushes = append(pushes, push{productID: id, newStock: n})
	}

	statuses := make([]domain.StockSyncStatus, len(pushes))
	var wg sync.WaitGroup
	for i, p := range pushes {
		wg.Add(1)
		go func(i int, p push) {
			defer wg.Done()
			status := domain.StockSyncStatus{ProductID: p.productID, NewStock: p.newStock}
			if err := s.repo.SetStock(pushCtx, p.productID, p.newStock); err != nil {
				status.Error = err.Error()
				s.notifier.OnStockSyncFailed(p.productID, err)
			}
			statuses[i] = status
		}(i, p)
	}
	wg.Wait()
	return statuses
}

func (s *Service) GetSale(ctx context.Context, id string) (*domain.Sale, error) {
	return s.repo.GetSale(ctx, id)
}

func (s *Service) ListSales(ctx context.Context, limit int) ([]domain.Sale, error) {
	return s.repo.ListSales(ctx, limit)
}

func (s *Service) LowStockReport(ctx context.Context) (domain.LowStockReport, error) {
	products, err := s.repo.LowStockProducts(ctx)
	if err != nil {
		return domain.LowStockReport{}, err
	}
	return report.NewLowStockReport(products), nil
}

func (s *Service) SalesSummary(ctx context.Context, from, to time.Time) (*domain.SalesSummary, error) {
	return s.repo.SalesSummary(ctx, from, to)
}
