package cart

import (
	"errors"
	"fmt"
)

var (
	ErrQuantityTooLow = errors.New("quantity must be at least 1")
	ErrLineNotFound   = errors.New("cart line not found")
	ErrEmptyCart      = errors.New("cart is empty")
)

// StockExceededError rejects a quantity increase that would push a product's
// reserved quantity past its available stock. MaxAllowed is the highest total
// quantity the caller may request, so the UI can offer a corrective prompt or
// an explicit stock override.
type StockExceededError struct {
	ProductID  string
	MaxAllowed int
}

func (e *StockExceededError) Error() string {
	return fmt.Sprintf("stock exceeded for product %s: max allowed quantity is %d", e.ProductID, e.MaxAllowed)
}
