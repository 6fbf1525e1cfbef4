package domain

import "time"

// Product is a sellable item. PurchasePriceCents is nullable: when unknown,
// profit cannot be computed for that item and profit fields stay nil.
type Product struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Barcode            string    `json:"barcode,omitempty"`
	CategoryID         string    `json:"category_id,omitempty"`
	ImageURL           string    `json:"image_url,omitempty"`
	PriceCents         int64     `json:"price_cents"`
	PurchasePriceCents *int64    `json:"purchase_price_cents,omitempty"`
	Stock              int       `json:"stock"`
	MinStock           int       `json:"min_stock"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type ProductCreateRequest struct {
	Name               string `json:"name" validate:"required"`
	Barcode            string `json:"barcode,omitempty"`
	CategoryID         string `json:"category_id,omitempty"`
	ImageURL           string `json:"image_url,omitempty"`
	PriceCents         int64  `json:"price_cents" validate:"gt=0"`
	PurchasePriceCents *int64 `json:"purchase_price_cents,omitempty"`
	InitialStock       int    `json:"initial_stock" validate:"gte=0"`
	MinStock           int    `json:"min_stock" validate:"gte=0"`
}

type ProductUpdateRequest struct {
	Name               *string `json:"name,omitempty"`
	Barcode            *string `json:"barcode,omitempty"`
	CategoryID         *string `json:"category_id,omitempty"`
	ImageURL           *string `json:"image_url,omitempty"`
	PriceCents         *int64  `json:"price_cents,omitempty"`
	PurchasePriceCents *int64  `json:"purchase_price_cents,omitempty"`
	MinStock           *int    `json:"min_stock,omitempty"`
}

// StockOverrideRequest raises a product's stock to an absolute level. This is
// the explicit override path for carts blocked by the stock ceiling; it is
// never triggered implicitly.
type StockOverrideRequest struct {
	NewStock int `json:"new_stock" validate:"gte=0"`
}

// ProductSearchResponse carries the match list plus the exact-barcode hit, if
// any, so the calling UI can auto-add scanned items by convention.
type ProductSearchResponse struct {
	Products          []Product `json:"products"`
	ExactBarcodeMatch *Product  `json:"exact_barcode_match,omitempty"`
}

// CartLine is one entry of an in-progress sale. UnitPriceCents is captured at
// add-time and may diverge from the product's current price. Profit fields are
// nil when the purchase price is unknown.
type CartLine struct {
	ID                        string  `json:"id"`
	ProductID                 string  `json:"product_id"`
	Name                      string  `json:"name"`
	Barcode                   string  `json:"barcode,omitempty"`
	UnitPriceCents            int64   `json:"unit_price_cents"`
	PurchasePriceCents        *int64  `json:"purchase_price_cents,omitempty"`
	Qty                       int     `json:"qty"`
	DiscountPct               float64 `json:"discount_pct"`
	SubtotalCents             int64   `json:"subtotal_cents"`
	ProfitBeforeDiscountCents *int64  `json:"profit_before_discount_cents,omitempty"`
	ProfitAfterDiscountCents  *int64  `json:"profit_after_discount_cents,omitempty"`
}

// CartTotals are the aggregate read-only projections over a cart.
// ProfitComplete is false when at least one line lacks a purchase price, in
// which case the profit sums cover only the lines where cost is known.
type CartTotals struct {
	ItemCount                 int     `json:"item_count"`
	LineCount                 int     `json:"line_count"`
	SubtotalCents             int64   `json:"subtotal_cents"`
	DiscountCents             int64   `json:"discount_cents"`
	TaxCents                  int64   `json:"tax_cents"`
	GrandTotalCents           int64   `json:"grand_total_cents"`
	ProfitBeforeDiscountCents int64   `json:"profit_before_discount_cents"`
	ProfitAfterDiscountCents  int64   `json:"profit_after_discount_cents"`
	ProfitComplete            bool    `json:"profit_complete"`
	GlobalDiscountPct         float64 `json:"global_discount_pct"`
}

type CartView struct {
	TerminalID string     `json:"terminal_id"`
	Lines      []CartLine `json:"lines"`
	Totals     CartTotals `json:"totals"`
}

type AddLineRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Qty       int    `json:"qty"`
}

type UpdateQuantityRequest struct {
	Qty int `json:"qty" validate:"required"`
}

type UpdateDiscountRequest struct {
	DiscountPct float64 `json:"discount_pct"`
}

type GlobalDiscountRequest struct {
	DiscountPct float64 `json:"discount_pct"`
}

// SaleItem is a frozen copy of a cart line at settlement time.
type SaleItem struct {
	ProductID      string  `json:"product_id"`
	Name           string  `json:"name"`
	Qty            int     `json:"qty"`
	UnitPriceCents int64   `json:"unit_price_cents"`
	DiscountPct    float64 `json:"discount_pct"`
}

// Sale is immutable once created; neither the record nor its items are ever
// mutated afterwards.
type Sale struct {
	ID            string     `json:"id"`
	SubtotalCents int64      `json:"subtotal_cents"`
	DiscountCents int64      `json:"discount_cents"`
	TaxCents      int64      `json:"tax_cents"`
	TotalCents    int64      `json:"total_cents"`
	PaymentMethod string     `json:"payment_method"`
	CreatedAt     time.Time  `json:"created_at"`
	Items         []SaleItem `json:"items"`
}

type CheckoutRequest struct {
	PaymentMethod string `json:"payment_method" validate:"required"`
}

// StockSyncStatus reports one product's post-sale stock push. Error is empty
// on success; a non-empty Error never implies the sale was rolled back.
type StockSyncStatus struct {
	ProductID string `json:"product_id"`
	NewStock  int    `json:"new_stock"`
	Error     string `json:"error,omitempty"`
}

type CheckoutResponse struct {
	SaleID        string            `json:"sale_id"`
	SubtotalCents int64             `json:"subtotal_cents"`
	DiscountCents int64             `json:"discount_cents"`
	TaxCents      int64             `json:"tax_cents"`
	TotalCents    int64             `json:"total_cents"`
	PaymentMethod string            `json:"payment_method"`
	ItemCount     int               `json:"item_count"`
	StockSync     []StockSyncStatus `json:"stock_sync"`
	CreatedAt     string            `json:"created_at"`
}

// Settings are read-only configuration supplied once per session. TaxRate is
// a decimal fraction (0.11 = 11%).
type Settings struct {
	TaxRate      float64 `json:"tax_rate"`
	CurrencyCode string  `json:"currency_code"`
}

// LowStockRow is one line of the low-stock report. StockNeeded is the
// restock-to-target quantity; UnitMarginCents is nil when cost is unknown.
type LowStockRow struct {
	ProductID       string `json:"product_id"`
	Name            string `json:"name"`
	Barcode         string `json:"barcode,omitempty"`
	CategoryID      string `json:"category_id,omitempty"`
	PriceCents      int64  `json:"price_cents"`
	Stock           int    `json:"stock"`
	MinStock        int    `json:"min_stock"`
	StockNeeded     int    `json:"stock_needed"`
	UnitMarginCents *int64 `json:"unit_margin_cents,omitempty"`
}

type LowStockReport struct {
	GeneratedAt string        `json:"generated_at"`
	Rows        []LowStockRow `json:"rows"`
}

type PaymentBreakdown struct {
	PaymentMethod string `json:"payment_method"`
	Sales         int64  `json:"sales"`
	TotalCents    int64  `json:"total_cents"`
}

type SalesSummary struct {
	From       string             `json:"from"`
	To         string             `json:"to"`
	Sales      int64              `json:"sales"`
	GrossCents int64              `json:"gross_cents"`
	TaxCents   int64              `json:"tax_cents"`
	ByPayment  []PaymentBreakdown `json:"by_payment"`
}

type TopProduct struct {
	ProductID    string `json:"product_id"`
	Name         string `json:"name"`
	QtySold      int64  `json:"qty_sold"`
	RevenueCents int64  `json:"revenue_cents"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

type CashierCreateRequest struct {
	Username string `json:"username" validate:"required,min=4"`
	Password string `json:"password" validate:"required,min=6"`
}

type CashierUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}
