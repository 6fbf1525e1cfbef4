package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"tillpoint/internal/domain"
	"tillpoint/internal/report"
)

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	a.writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := a.decodeJSON(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}

	resp, err := a.auth.Login(req)
	if err != nil {
		a.writeError(w, http.StatusUnauthorized, err)
		return
	}

	a.writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleSearchProducts(w http.ResponseWriter, r *http.Request) {
	resp, err := a.service.SearchProducts(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := a.service.GetProduct(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, product)
}

func (a *API) handleMaxDiscount(w http.ResponseWriter, r *http.Request) {
	pct, err := a.service.MaxDiscountBeforeLoss(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]any{
		"max_discount_before_loss_pct": pct,
	})
}

func (a *API) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req domain.ProductCreateRequest
	if err := a.decodeJSON(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}

	product, err := a.service.CreateProduct(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, product)
}

func (a *API) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req domain.ProductUpdateRequest
	if err := a.decodeJSON(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}

	product, err := a.service.UpdateProduct(r.Context(), chi.URLParam(r, "productID"), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, product)
}

func (a *API) handleOverrideStock(w http.ResponseWriter, r *http.Request) {
	var req domain.StockOverrideRequest
	if err := a.decodeJSON(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}

	product, err := a.service.OverrideStock(r.Context(), chi.URLParam(r, "productID"), req.NewStock)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, product)
}

func (a *API) handleCartView(w http.ResponseWriter, r *http.Request) {
	view := a.service.CartView(r.Context(), chi.URLParam(r, "terminalID"))
	a.writeJSON(w, http.StatusOK, view)
}

func (a *API) handleClearCart(w http.ResponseWriter, r *http.Request) {
	a.service.ClearCart(r.Context(), chi.URLParam(r, "terminalID"))
	a.writeJSON(w, http.StatusOK, a.service.CartView(r.Context(), chi.URLParam(r, "terminalID")))
}

func (a *API) handleAddLine(w http.ResponseWriter, r *http.Request) {
	var req domain.AddLineRequest
	if err := a.decodeJSON(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}

	line, err := a.service.AddLine(r.Context(), chi.URLParam(r, "terminalID"), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, line)
}

func (a *API) handleUpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateQuantityRequest
	if err := a.decodeJSON(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}

	line, err := a.service.UpdateQuantity(r.Context(), chi.URLParam(r, "terminalID"), chi.URLParam(r, "lineID"), req.Qty)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, line)
}

func (a *API) handleUpdateDiscount(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateDiscountRequest
	if err := a.decodeJSON(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}

	line, err := a.service.UpdateDiscount(r.Context(), chi.URLParam(r, "terminalID"), chi.URLParam(r, "lineID"), req.DiscountPct)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, line)
}

func (a *API) handleRemoveLine(w http.ResponseWriter, r *http.Request) {
	err := a.service.RemoveLine(r.Context(), chi.URLParam(r, "terminalID"), chi.URLParam(r, "lineID"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, a.service.CartView(r.Context(), chi.URLParam(r, "terminalID")))
}

func (a *API) handleGlobalDiscount(w http.ResponseWriter, r *http.Request) {
	var req domain.GlobalDiscountRequest
	if err := a.decodeJSON(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}

	view := a.service.ApplyGlobalDiscount(r.Context(), chi.URLParam(r, "terminalID"), req.DiscountPct)
	a.writeJSON(w, http.StatusOK, view)
}

func (a *API) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req domain.CheckoutRequest
	if err := a.decodeJSON(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}

	resp, err := a.service.Checkout(r.Context(), chi.URLParam(r, "terminalID"), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, resp)
}

func (a *API) handleListSales(w http.ResponseWriter, r *http.Request) {
	limit := parsePositiveInt(r.URL.Query().Get("limit"), 50, 500)
	sales, err := a.service.ListSales(r.Context(), limit)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]any{"sales": sales})
}

func (a *API) handleGetSale(w http.ResponseWriter, r *http.Request) {
	sale, err := a.service.GetSale(r.Context(), chi.URLParam(r, "saleID"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, sale)
}

func (a *API) handleSettings(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, a.service.Settings())
}

func (a *API) handleLowStockReport(w http.ResponseWriter, r *http.Request) {
	rep, err := a.service.LowStockReport(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="low-stock.csv"`)
		if err := report.WriteCSV(w, rep); err != nil {
			a.logger.Error("csv write failed", zap.Error(err))
		}
		return
	}
	a.writeJSON(w, http.StatusOK, rep)
}

func (a *API) handleSalesSummary(w http.ResponseWriter, r *http.Request) {
	days := parsePositiveInt(r.URL.Query().Get("days"), 7, 365)
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -days)

	summary, err := a.service.SalesSummary(r.Context(), from, to)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, summary)
}

func (a *API) handleListTools(w http.ResponseWriter, _ *http.Request) {
	a.writeJSON(w, http.StatusOK, map[string]any{"tools": a.tools.List()})
}

func (a *API) handleInvokeTool(w http.ResponseWriter, r *http.Request) {
	args := make(map[string]any)
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&args); err != nil {
			a.writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	result, err := a.tools.Invoke(r.Context(), chi.URLParam(r, "toolName"), args)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]any{
		"tool":   chi.URLParam(r, "toolName"),
		"result": result,
	})
}

func (a *API) handleListCashiers(w http.ResponseWriter, _ *http.Request) {
	a.writeJSON(w, http.StatusOK, map[string]any{"cashiers": a.auth.ListCashiers()})
}

func (a *API) handleCreateCashier(w http.ResponseWriter, r *http.Request) {
	var req domain.CashierCreateRequest
	if err := a.decodeJSON(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}

	user, err := a.auth.CreateCashier(req)
	if err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, user)
}
