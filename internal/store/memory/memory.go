// Package memory is a map-backed Repository used for development and tests.
// It ships with a small seeded catalog so the server is usable without a
// database.
package memory

import (
	"context"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"tillpoint/internal/domain"
	"tillpoint/internal/store"
)

type Store struct {
	mu       sync.RWMutex
	products map[string]domain.Product
	sales    map[string]domain.Sale
	users    map[string]domain.UserAccount
	settings domain.Settings
}

func New() *Store {
	s := &Store{
		products: make(map[string]domain.Product),
		sales:    make(map[string]domain.Sale),
		users:    seedUsers(),
		settings: domain.Settings{TaxRate: 0.11, CurrencyCode: "IDR"},
	}
	s.seed()
	return s
}

// seedUsers builds the initial in-memory user accounts for dev/demo mode.
// Credentials come from SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD; when
// unset, hardcoded dev defaults are used with a warning. Production runs use
// PostgreSQL, not this store.
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cashier123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, "admin"},
		{"cashier", cashierPwd, "cashier"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key string, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func cents(v int64) *int64 { return &v }

func (s *Store) seed() {
	now := time.Now()
	items := []domain.Product{
		{ID: "prod-mineral-water-600", Name: "Mineral Water 600ml", Barcode: "8991002101234", CategoryID: "beverages", PriceCents: 400000, PurchasePriceCents: cents(250000), Stock: 48, MinStock: 12},
		{ID: "prod-instant-noodles", Name: "Instant Noodles Chicken", Barcode: "8991002105678", CategoryID: "food", PriceCents: 350000, PurchasePriceCents: cents(280000), Stock: 30, MinStock: 10},
		{ID: "prod-ground-coffee-200", Name: "Ground Coffee 200g", Barcode: "8991002109012", CategoryID: "beverages", PriceCents: 2500000, PurchasePriceCents: cents(1750000), Stock: 8, MinStock: 10},
		{ID: "prod-cooking-oil-1l", Name: "Cooking Oil 1L", Barcode: "8991002103456", CategoryID: "staples", PriceCents: 1800000, PurchasePriceCents: cents(1500000), Stock: 15, MinStock: 5},
		{ID: "prod-hand-soap-250", Name: "Hand Soap 250ml", Barcode: "8991002107890", CategoryID: "household", PriceCents: 1200000, Stock: 6, MinStock: 8},
	}
	for _, p := range items {
		p.CreatedAt = now
		p.UpdatedAt = now
		s.products[p.ID] = p
	}
}

func (s *Store) SearchProducts(_ context.Context, query string) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if q == "" || p.Barcode == query || strings.Contains(strings.ToLower(p.Name), q) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (s *Store) GetProductsByIDs(_ context.Context, ids []string) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) CreateProduct(_ context.Context, p *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[p.ID]; ok {
		return store.ErrDuplicate
	}
	s.products[p.ID] = *p
	return nil
}

func (s *Store) UpdateProduct(_ context.Context, p *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[p.ID]; !ok {
		return store.ErrNotFound
	}
	s.products[p.ID] = *p
	return nil
}

func (s *Store) SetStock(_ context.Context, productID string, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[productID]
	if !ok {
		return store.ErrNotFound
	}
	p.Stock = qty
	p.UpdatedAt = time.Now()
	s.products[productID] = p
	return nil
}

func (s *Store) CreateSale(_ context.Context, sale *domain.Sale) error {
	if len(sale.Items) == 0 {
		return store.ErrInvalidSale
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sales[sale.ID]; ok {
		return store.ErrDuplicate
	}
	s.sales[sale.ID] = *sale
	return nil
}

func (s *Store) GetSale(_ context.Context, id string) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, ok := s.sales[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &sale, nil
}

func (s *Store) ListSales(_ context.Context, limit int) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Sale, 0, len(s.sales))
	for _, sale := range s.sales {
		out = append(out, sale)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) LowStockProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Product, 0)
	for _, p := range s.products {
		if p.Stock <= p.MinStock {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Stock < out[j].Stock })
	return out, nil
}

func (s *Store) SalesSummary(_ context.Context, from, to time.Time) (*domain.SalesSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := &domain.SalesSummary{
		From: from.Format(time.RFC3339),
		To:   to.Format(time.RFC3339),
	}
	byPayment := make(map[string]*domain.PaymentBreakdown)
	for _, sale := range s.sales {
		if sale.CreatedAt.Before(from) || sale.CreatedAt.After(to) {
			continue
		}
		sum.Sales++
		sum.GrossCents += sale.TotalCents
		sum.TaxCents += sale.TaxCents
		pb, ok := byPayment[sale.PaymentMethod]
		if !ok {
			pb = &domain.PaymentBreakdown{PaymentMethod: sale.PaymentMethod}
			byPayment[sale.PaymentMethod] = pb
		}
		pb.Sales++
		pb.TotalCents += sale.TotalCents
	}
	for _, pb := range byPayment {
		sum.ByPayment = append(sum.ByPayment, *pb)
	}
	sort.Slice(sum.ByPayment, func(i, j int) bool {
		return sum.ByPayment[i].PaymentMethod < sum.ByPayment[j].PaymentMethod
	})
	return sum, nil
}

func (s *Store) TopProducts(_ context.Context, from, to time.Time, limit int) ([]domain.TopProduct, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agg := make(map[string]*domain.TopProduct)
	for _, sale := range s.sales {
		if sale.CreatedAt.Before(from) || sale.CreatedAt.After(to) {
			continue
		}
		for _, it := range sale.Items {
			tp, ok := agg[it.ProductID]
			if !ok {
				tp = &domain.TopProduct{ProductID: it.ProductID, Name: it.Name}
				agg[it.ProductID] = tp
			}
			tp.QtySold += int64(it.Qty)
			tp.RevenueCents += int64(it.Qty) * it.UnitPriceCents
		}
	}
	out := make([]domain.TopProduct, 0, len(agg))
	for _, tp := range agg {
		out = append(out, *tp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QtySold > out[j].QtySold })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) GetSettings(_ context.Context) (*domain.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	settings := s.settings
	return &settings, nil
}

func (s *Store) CreateUser(_ context.Context, u *domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[u.Username]; ok {
		return store.ErrDuplicate
	}
	s.users[u.Username] = *u
	return nil
}

func (s *Store) GetUser(_ context.Context, username string) (*domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[username]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[username]
	if !ok {
		return store.ErrNotFound
	}
	u.Password = password
	s.users[username] = u
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.UserAccount, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}
