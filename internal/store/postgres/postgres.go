// Package postgres is the durable Repository backed by PostgreSQL through the
// pgx stdlib driver. Schema is managed with embedded goose migrations.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"tillpoint/internal/domain"
	"tillpoint/internal/store"
)

//go:embed migrations/*.sql
var migrations embed.FS

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Migrate applies all pending schema migrations.
func (s *Store) Migrate() error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(s.db, "migrations")
}

func (s *Store) Close() error {
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (s *Store) SearchProducts(ctx context.Context, query string) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(barcode,''), COALESCE(category_id,''), COALESCE(image_url,''),
			price_cents, purchase_price_cents, stock, min_stock, created_at, updated_at
		FROM products
		WHERE $1 = '' OR barcode = $1 OR name ILIKE '%' || $1 || '%'
		ORDER BY name
	`, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 64)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(barcode,''), COALESCE(category_id,''), COALESCE(image_url,''),
			price_cents, purchase_price_cents, stock, min_stock, created_at, updated_at
		FROM products
		WHERE id = $1
	`, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) GetProductsByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	products := make([]domain.Product, 0, len(ids))
	if len(ids) == 0 {
		return products, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(barcode,''), COALESCE(category_id,''), COALESCE(image_url,''),
			price_cents, purchase_price_cents, stock, min_stock, created_at, updated_at
		FROM products
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) CreateProduct(ctx context.Context, p *domain.Product) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, name, barcode, category_id, image_url, price_cents,
			purchase_price_cents, stock, min_stock, created_at, updated_at)
		VALUES ($1,$2,NULLIF($3,''),NULLIF($4,''),NULLIF($5,''),$6,$7,$8,$9,$10,$11)
	`, p.ID, p.Name, p.Barcode, p.CategoryID, p.ImageURL, p.PriceCents,
		p.PurchasePriceCents, p.Stock, p.MinStock, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *Store) UpdateProduct(ctx context.Context, p *domain.Product) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = $2, barcode = NULLIF($3,''), category_id = NULLIF($4,''),
			image_url = NULLIF($5,''), price_cents = $6, purchase_price_cents = $7,
			min_stock = $8, updated_at = now()
		WHERE id = $1
	`, p.ID, p.Name, p.Barcode, p.CategoryID, p.ImageURL, p.PriceCents, p.PurchasePriceCents, p.MinStock)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) SetStock(ctx context.Context, productID string, qty int) error {
	if qty < 0 {
		return store.ErrInvalidSale
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET stock = $2, updated_at = now()
		WHERE id = $1
	`, productID, qty)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CreateSale(ctx context.Context, sale *domain.Sale) error {
	if len(sale.Items) == 0 {
		return store.ErrInvalidSale
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sales (id, subtotal_cents, discount_cents, tax_cents, total_cents, payment_method, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, sale.ID, sale.SubtotalCents, sale.DiscountCents, sale.TaxCents, sale.TotalCents, sale.PaymentMethod, sale.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicate
		}
		return err
	}

	for _, item := range sale.Items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sale_items (sale_id, product_id, name, qty, unit_price_cents, discount_pct)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, sale.ID, item.ProductID, item.Name, item.Qty, item.UnitPriceCents, item.DiscountPct)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *Store) GetSale(ctx context.Context, id string) (*domain.Sale, error) {
	var sale domain.Sale
	err := s.db.QueryRowContext(ctx, `
		SELECT id, subtotal_cents, discount_cents, tax_cents, total_cents, payment_method, created_at
		FROM sales
		WHERE id = $1
	`, id).Scan(&sale.ID, &sale.SubtotalCents, &sale.DiscountCents, &sale.TaxCents,
		&sale.TotalCents, &sale.PaymentMethod, &sale.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	sale.CreatedAt = sale.CreatedAt.UTC()

	rows, err := s.db.QueryContext(ctx, `
		SELECT product_id, name, qty, unit_price_cents, discount_pct
		FROM sale_items
		WHERE sale_id = $1
		ORDER BY id ASC
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.SaleItem, 0, 8)
	for rows.Next() {
		var item domain.SaleItem
		if err := rows.Scan(&item.ProductID, &item.Name, &item.Qty, &item.UnitPriceCents, &item.DiscountPct); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sale.Items = items
	return &sale, nil
}

func (s *Store) ListSales(ctx context.Context, limit int) ([]domain.Sale, error) {
	if limit < 1 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, subtotal_cents, discount_cents, tax_cents, total_cents, payment_method, created_at
		FROM sales
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]domain.Sale, 0, limit)
	for rows.Next() {
		var sale domain.Sale
		if err := rows.Scan(&sale.ID, &sale.SubtotalCents, &sale.DiscountCents, &sale.TaxCents,
			&sale.TotalCents, &sale.PaymentMethod, &sale.CreatedAt); err != nil {
			return nil, err
		}
		sale.CreatedAt = sale.CreatedAt.UTC()
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sales, nil
}

func (s *Store) LowStockProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(barcode,''), COALESCE(category_id,''), COALESCE(image_url,''),
			price_cents, purchase_price_cents, stock, min_stock, created_at, updated_at
		FROM products
		WHERE stock <= min_stock
		ORDER BY stock ASC, name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 32)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) SalesSummary(ctx context.Context, from, to time.Time) (*domain.SalesSummary, error) {
	sum := &domain.SalesSummary{
		From: from.Format(time.RFC3339),
		To:   to.Format(time.RFC3339),
	}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)::bigint, COALESCE(SUM(total_cents),0)::bigint, COALESCE(SUM(tax_cents),0)::bigint
		FROM sales
		WHERE created_at >= $1 AND created_at <= $2
	`, from, to).Scan(&sum.Sales, &sum.GrossCents, &sum.TaxCents)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT payment_method, COUNT(*)::bigint, COALESCE(SUM(total_cents),0)::bigint
		FROM sales
		WHERE created_at >= $1 AND created_at <= $2
		GROUP BY payment_method
		ORDER BY payment_method
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var pb domain.PaymentBreakdown
		if err := rows.Scan(&pb.PaymentMethod, &pb.Sales, &pb.TotalCents); err != nil {
			return nil, err
		}
		sum.ByPayment = append(sum.ByPayment, pb)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sum, nil
}

func (s *Store) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]domain.TopProduct, error) {
	if limit < 1 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT si.product_id, si.name,
			COALESCE(SUM(si.qty),0)::bigint,
			COALESCE(SUM(si.qty * si.unit_price_cents),0)::bigint
		FROM sale_items si
		JOIN sales sa ON sa.id = si.sale_id
		WHERE sa.created_at >= $1 AND sa.created_at <= $2
		GROUP BY si.product_id, si.name
		ORDER BY 3 DESC
		LIMIT $3
	`, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.TopProduct, 0, limit)
	for rows.Next() {
		var tp domain.TopProduct
		if err := rows.Scan(&tp.ProductID, &tp.Name, &tp.QtySold, &tp.RevenueCents); err != nil {
			return nil, err
		}
		out = append(out, tp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) GetSettings(ctx context.Context) (*domain.Settings, error) {
	var settings domain.Settings
	err := s.db.QueryRowContext(ctx, `
		SELECT tax_rate, currency_code
		FROM settings
		WHERE id = 1
	`).Scan(&settings.TaxRate, &settings.CurrencyCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &settings, nil
}

func (s *Store) CreateUser(ctx context.Context, u *domain.UserAccount) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password, role, active, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, u.Username, u.Password, u.Role, u.Active, u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, username string) (*domain.UserAccount, error) {
	var u domain.UserAccount
	err := s.db.QueryRowContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM users
		WHERE username = $1
	`, username).Scan(&u.Username, &u.Password, &u.Role, &u.Active, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET password = $2
		WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM users
		ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var u domain.UserAccount
		if err := rows.Scan(&u.Username, &u.Password, &u.Role, &u.Active, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(r rowScanner) (domain.Product, error) {
	var p domain.Product
	var purchase sql.NullInt64
	err := r.Scan(&p.ID, &p.Name, &p.Barcode, &p.CategoryID, &p.ImageURL,
		&p.PriceCents, &purchase, &p.Stock, &p.MinStock, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return p, err
	}
	if purchase.Valid {
		v := purchase.Int64
		p.PurchasePriceCents = &v
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}
