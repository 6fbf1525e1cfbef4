// Package cart implements the in-memory sale builder: ordered lines, a local
// stock mirror with optimistic reservation, per-line and global discounts, and
// aggregate totals. A Cart is safe for concurrent use.
package cart

import (
	"sync"

	"tillpoint/internal/domain"
	"tillpoint/internal/pricing"
	"tillpoint/internal/xid"
)

type line struct {
	id                 string
	productID          string
	name               string
	barcode            string
	unitPriceCents     int64
	purchasePriceCents *int64
	qty                int
	discountPct        float64
}

// Cart holds the lines of one in-progress sale. The stock mirror maps product
// id to the quantity still available for this cart: it is seeded from the
// catalog the first time a product is touched and decremented/restored as
// quantities change. The mirror is local; other terminals are not consulted.
type Cart struct {
	mu             sync.Mutex
	lines          []*line
	mirror         map[string]int
	globalDiscount float64
	notifier       Notifier
}

func New(notifier Notifier) *Cart {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &Cart{
		mirror:   make(map[string]int),
		notifier: notifier,
	}
}

// AddLine adds qty of the product, merging into an existing line for the same
// product if one is present. On first touch the product's available stock is
// seeded into the mirror. A request that would reserve more than the mirror
// allows is rejected with a StockExceededError carrying the highest total
// quantity still permitted; the cart is left unchanged.
func (c *Cart) AddLine(p *domain.Product, qty int) (domain.CartLine, error) {
	if qty < 1 {
		return domain.CartLine{}, ErrQuantityTooLow
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	available, seeded := c.mirror[p.ID]
	if !seeded {
		available = p.Stock
		c.mirror[p.ID] = available
	}
	if qty > available {
		max := c.reservedLocked(p.ID) + available
		c.notifier.OnStockExceeded(p.ID, max)
		return domain.CartLine{}, &StockExceededError{ProductID: p.ID, MaxAllowed: max}
	}
	c.mirror[p.ID] = available - qty

	for _, ln := range c.lines {
		if ln.productID == p.ID {
			ln.qty += qty
			return c.viewLocked(ln), nil
		}
	}

	ln := &line{
		id:                 xid.New("line"),
		productID:          p.ID,
		name:               p.Name,
		barcode:            p.Barcode,
		unitPriceCents:     p.PriceCents,
		purchasePriceCents: p.PurchasePriceCents,
		qty:                qty,
	}
	// Newest line first, so the most recent scan sits on top.
	c.lines = append([]*line{ln}, c.lines...)
	return c.viewLocked(ln), nil
}

// UpdateQuantity sets a line's quantity to an absolute value. Increases are
// checked against the mirror like AddLine; decreases restore the freed
// quantity. Quantities below 1 are rejected; removal is explicit via
// RemoveLine.
func (c *Cart) UpdateQuantity(lineID string, qty int) (domain.CartLine, error) {
	if qty < 1 {
		return domain.CartLine{}, ErrQuantityTooLow
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	ln := c.findLocked(lineID)
	if ln == nil {
		return domain.CartLine{}, ErrLineNotFound
	}
	delta := qty - ln.qty
	if delta > 0 {
		available := c.mirror[ln.productID]
		if delta > available {
			max := c.reservedLocked(ln.productID) + available
			c.notifier.OnStockExceeded(ln.productID, max)
			return domain.CartLine{}, &StockExceededError{ProductID: ln.productID, MaxAllowed: max}
		}
	}
	c.mirror[ln.productID] -= delta
	ln.qty = qty
	return c.viewLocked(ln), nil
}

// UpdateDiscount sets a line's discount percentage. The value is not clamped
// and may exceed the loss threshold; crossing the threshold only raises an
// advisory OnLossWarning when the purchase price is known.
func (c *Cart) UpdateDiscount(lineID string, pct float64) (domain.CartLine, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ln := c.findLocked(lineID)
	if ln == nil {
		return domain.CartLine{}, ErrLineNotFound
	}
	ln.discountPct = pct
	if ln.purchasePriceCents != nil {
		maxPct := pricing.MaxDiscountBeforeLoss(ln.unitPriceCents, *ln.purchasePriceCents)
		if pct > maxPct {
			c.notifier.OnLossWarning(ln.id, pct, maxPct)
		}
	}
	return c.viewLocked(ln), nil
}

// RemoveLine deletes a line and restores its full quantity to the mirror. The
// mirror entry itself is kept so a later re-add of the same product sees the
// restored level rather than reseeding from the catalog.
func (c *Cart) RemoveLine(lineID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, ln := range c.lines {
		if ln.id == lineID {
			c.mirror[ln.productID] += ln.qty
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return nil
		}
	}
	return ErrLineNotFound
}

// ApplyGlobalDiscount overwrites every line's discount with pct. The overwrite
// is destructive: prior per-line discounts are lost and reapplying them later
// requires setting each line again.
func (c *Cart) ApplyGlobalDiscount(pct float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.globalDiscount = pct
	for _, ln := range c.lines {
		ln.discountPct = pct
	}
}

// RaiseStock reconciles the mirror after an explicit catalog stock override.
// The available quantity becomes newStock minus what this cart has reserved,
// floored at zero.
func (c *Cart) RaiseStock(productID string, newStock int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	available := newStock - c.reservedLocked(productID)
	if available < 0 {
		available = 0
	}
	c.mirror[productID] = available
}

// Clear empties the cart after settlement or abandonment. The mirror is
// dropped entirely; the next add reseeds from the catalog.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lines = nil
	c.globalDiscount = 0
	c.mirror = make(map[string]int)
}

// Lines returns the lines newest first with derived amounts filled in.
func (c *Cart) Lines() []domain.CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]domain.CartLine, 0, len(c.lines))
	for _, ln := range c.lines {
		out = append(out, c.viewLocked(ln))
	}
	return out
}

// Items snapshots the lines as immutable sale items for settlement.
func (c *Cart) Items() []domain.SaleItem {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]domain.SaleItem, 0, len(c.lines))
	for _, ln := range c.lines {
		out = append(out, domain.SaleItem{
			ProductID:      ln.productID,
			Name:           ln.name,
			Qty:            ln.qty,
			UnitPriceCents: ln.unitPriceCents,
			DiscountPct:    ln.discountPct,
		})
	}
	return out
}

// Reserved returns the total quantity this cart holds for a product.
func (c *Cart) Reserved(productID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reservedLocked(productID)
}

// Available returns the mirror's remaining quantity for a product, and false
// if the product has never been touched by this cart.
func (c *Cart) Available(productID string) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.mirror[productID]
	return n, ok
}

// Totals aggregates the cart. Profit sums cover only lines with a known
// purchase price; ProfitComplete reports whether that was all of them.
func (c *Cart) Totals(taxRate float64) domain.CartTotals {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := domain.CartTotals{
		ProfitComplete:    true,
		GlobalDiscountPct: c.globalDiscount,
	}
	for _, ln := range c.lines {
		t.LineCount++
		t.ItemCount += ln.qty
		t.SubtotalCents += pricing.SubtotalCents(ln.qty, ln.unitPriceCents, ln.discountPct)
		t.DiscountCents += pricing.DiscountAmountCents(ln.qty, ln.unitPriceCents, ln.discountPct)
		if ln.purchasePriceCents == nil {
			t.ProfitComplete = false
			continue
		}
		t.ProfitBeforeDiscountCents += pricing.ProfitCents(ln.unitPriceCents, *ln.purchasePriceCents, ln.qty, 0)
		t.ProfitAfterDiscountCents += pricing.ProfitCents(ln.unitPriceCents, *ln.purchasePriceCents, ln.qty, ln.discountPct)
	}
	t.TaxCents = pricing.TaxCents(t.SubtotalCents, taxRate)
	t.GrandTotalCents = t.SubtotalCents + t.TaxCents
	return t
}

func (c *Cart) findLocked(lineID string) *line {
	for _, ln := range c.lines {
		if ln.id == lineID {
			return ln
		}
	}
	return nil
}

func (c *Cart) reservedLocked(productID string) int {
	n := 0
	for _, ln := range c.lines {
		if ln.productID == productID {
			n += ln.qty
		}
	}
	return n
}

func (c *Cart) viewLocked(ln *line) domain.CartLine {
	out := domain.CartLine{
		ID:                 ln.id,
		ProductID:          ln.productID,
		Name:               ln.name,
		Barcode:            ln.barcode,
		UnitPriceCents:     ln.unitPriceCents,
		PurchasePriceCents: ln.purchasePriceCents,
		Qty:                ln.qty,
		DiscountPct:        ln.discountPct,
		SubtotalCents:      pricing.SubtotalCents(ln.qty, ln.unitPriceCents, ln.discountPct),
	}
	if ln.purchasePriceCents != nil {
		before := pricing.ProfitCents(ln.unitPriceCents, *ln.purchasePriceCents, ln.qty, 0)
		after := pricing.ProfitCents(ln.unitPriceCents, *ln.purchasePriceCents, ln.qty, ln.discountPct)
		out.ProfitBeforeDiscountCents = &before
		out.ProfitAfterDiscountCents = &after
	}
	return out
}
