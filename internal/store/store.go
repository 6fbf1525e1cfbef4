// Package store defines the persistence boundary. Implementations live in
// the memory and postgres subpackages.
package store

import (
	"context"
	"errors"
	"time"

	"tillpoint/internal/domain"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidSale       = errors.New("invalid sale")
	ErrDuplicate         = errors.New("record already exists")
)

// Repository is the full persistence surface used by the service layer.
type Repository interface {
	// SearchProducts matches the query against barcode (exact) and name
	// (substring, case-insensitive). An empty query lists everything.
	SearchProducts(ctx context.Context, query string) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	GetProductsByIDs(ctx context.Context, ids []string) ([]domain.Product, error)
	CreateProduct(ctx context.Context, p *domain.Product) error
	UpdateProduct(ctx context.Context, p *domain.Product) error
	// SetStock writes an absolute stock level. It is used both by the
	// explicit override path and the post-sale stock push.
	SetStock(ctx context.Context, productID string, qty int) error

	CreateSale(ctx context.Context, s *domain.Sale) error
	GetSale(ctx context.Context, id string) (*domain.Sale, error)
	ListSales(ctx context.Context, limit int) ([]domain.Sale, error)

	// LowStockProducts returns products with stock at or below min stock.
	LowStockProducts(ctx context.Context) ([]domain.Product, error)
	SalesSummary(ctx context.Context, from, to time.Time) (*domain.SalesSummary, error)
	TopProducts(ctx context.Context, from, to time.Time, limit int) ([]domain.TopProduct, error)

	GetSettings(ctx context.Context) (*domain.Settings, error)

	CreateUser(ctx context.Context, u *domain.UserAccount) error
	GetUser(ctx context.Context, username string) (*domain.UserAccount, error)
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}
