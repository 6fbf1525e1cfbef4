package cart

import "go.uber.org/zap"

// Notifier receives side-effect notifications the engine emits on rejected or
// noteworthy operations. The UI layer subscribes to it instead of the engine
// touching any presentation mechanism directly.
type Notifier interface {
	// OnStockExceeded fires when a quantity increase is rejected by the
	// stock ceiling. maxAllowed is the highest total quantity permitted.
	OnStockExceeded(productID string, maxAllowed int)
	// OnLossWarning fires when a line's discount exceeds the advisory
	// max-discount-before-loss ceiling. The operation still proceeds.
	OnLossWarning(lineID string, discountPct, maxPct float64)
	// OnSaleCompleted fires once per successful settlement.
	OnSaleCompleted(saleID string)
	// OnStockSyncFailed fires per product whose post-sale stock push
	// failed. The sale itself is never rolled back.
	OnStockSyncFailed(productID string, err error)
}

type NoopNotifier struct{}

func (NoopNotifier) OnStockExceeded(string, int)              {}
func (NoopNotifier) OnLossWarning(string, float64, float64)   {}
func (NoopNotifier) OnSaleCompleted(string)                   {}
func (NoopNotifier) OnStockSyncFailed(string, error)          {}

// LogNotifier writes every engine notification to a structured logger.
type LogNotifier struct {
	Logger *zap.Logger
}

func (n LogNotifier) OnStockExceeded(productID string, maxAllowed int) {
	n.Logger.Warn("stock ceiling rejected quantity",
		zap.String("product_id", productID),
		zap.Int("max_allowed", maxAllowed),
	)
}

func (n LogNotifier) OnLossWarning(lineID string, discountPct, maxPct float64) {
	n.Logger.Warn("discount exceeds loss threshold",
		zap.String("line_id", lineID),
		zap.Float64("discount_pct", discountPct),
		zap.Float64("max_before_loss_pct", maxPct),
	)
}

func (n LogNotifier) OnSaleCompleted(saleID string) {
	n.Logger.Info("sale completed", zap.String("sale_id", saleID))
}

func (n LogNotifier) OnStockSyncFailed(productID string, err error) {
	n.Logger.Error("stock sync failed",
		zap.String("product_id", productID),
		zap.Error(err),
	)
}
