// Package httpapi is the HTTP surface of the server: routing, auth,
// request decoding, and error mapping.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"tillpoint/internal/assistant"
	"tillpoint/internal/cart"
	"tillpoint/internal/service"
	"tillpoint/internal/store"
)

type API struct {
	service       *service.Service
	auth          *AuthManager
	tools         *assistant.Registry
	allowedOrigin string
	logger        *zap.Logger
	validate      *validator.Validate
}

func New(svc *service.Service, auth *AuthManager, tools *assistant.Registry, allowedOrigin string, logger *zap.Logger) *API {
	return &API{
		service:       svc,
		auth:          auth,
		tools:         tools,
		allowedOrigin: allowedOrigin,
		logger:        logger,
		validate:      validator.New(),
	}
}

func (a *API) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(a.requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(a.securityHeaders)

	r.Get("/healthz", a.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.With(httprate.LimitByIP(5, time.Minute)).Post("/auth/login", a.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(a.requireAuth("cashier", "admin"))

			r.Get("/products", a.handleSearchProducts)
			r.Get("/products/{productID}", a.handleGetProduct)
			r.Get("/products/{productID}/max-discount", a.handleMaxDiscount)

			r.Route("/carts/{terminalID}", func(r chi.Router) {
				r.Get("/", a.handleCartView)
				r.Delete("/", a.handleClearCart)
				r.Post("/lines", a.handleAddLine)
				r.Patch("/lines/{lineID}/quantity", a.handleUpdateQuantity)
				r.Patch("/lines/{lineID}/discount", a.handleUpdateDiscount)
				r.Delete("/lines/{lineID}", a.handleRemoveLine)
				r.Post("/discount", a.handleGlobalDiscount)
				r.Post("/checkout", a.handleCheckout)
			})

			r.Get("/sales", a.handleListSales)
			r.Get("/sales/{saleID}", a.handleGetSale)
			r.Get("/settings", a.handleSettings)

			r.Get("/assistant/tools", a.handleListTools)
			r.Post("/assistant/tools/{toolName}", a.handleInvokeTool)
		})

		r.Group(func(r chi.Router) {
			r.Use(a.requireAuth("admin"))

			r.Post("/products", a.handleCreateProduct)
			r.Patch("/products/{productID}", a.handleUpdateProduct)
			r.Post("/products/{productID}/stock", a.handleOverrideStock)

			r.Get("/reports/low-stock", a.handleLowStockReport)
			r.Get("/reports/sales-summary", a.handleSalesSummary)

			r.Get("/users/cashiers", a.handleListCashiers)
			r.Post("/users/cashiers", a.handleCreateCashier)
		})
	})

	return r
}

func (a *API) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startedAt := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		a.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(startedAt)),
		)
	})
}

func (a *API) securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PATCH,DELETE,OPTIONS")
		w.Header().Set("Vary", "Origin")

		if r.Method == http.MethodPost || r.Method == http.MethodPatch {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (a *API) requireAuth(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authorization := strings.TrimSpace(r.Header.Get("Authorization"))
			if !strings.HasPrefix(strings.ToLower(authorization), "bearer ") {
				a.writeError(w, http.StatusUnauthorized, errors.New("missing bearer token"))
				return
			}

			token := strings.TrimSpace(authorization[len("Bearer "):])
			actor, err := a.auth.ParseToken(token)
			if err != nil {
				a.writeError(w, http.StatusUnauthorized, err)
				return
			}

			if len(roles) > 0 && !isRoleAllowed(actor.Role, roles) {
				a.writeError(w, http.StatusForbidden, errors.New("forbidden role"))
				return
			}

			next.ServeHTTP(w, r.WithContext(service.WithActor(r.Context(), actor)))
		})
	}
}

func isRoleAllowed(role string, allowed []string) bool {
	for _, allow := range allowed {
		if role == allow {
			return true
		}
	}
	return false
}

func (a *API) decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return err
	}
	return a.validate.Struct(dest)
}

func parsePositiveInt(raw string, fallback int, max int) int {
	val := fallback
	trimmed := strings.TrimSpace(raw)
	if trimmed != "" {
		if parsed, err := strconv.Atoi(trimmed); err == nil && parsed > 0 {
			val = parsed
		}
	}
	if max > 0 && val > max {
		return max
	}
	return val
}

// writeServiceError maps domain and store errors onto HTTP statuses. A stock
// ceiling rejection includes max_allowed so the client can prompt for the
// correction or an override.
func (a *API) writeServiceError(w http.ResponseWriter, err error) {
	var exceeded *cart.StockExceededError
	switch {
	case errors.As(err, &exceeded):
		a.writeJSON(w, http.StatusConflict, map[string]any{
			"error":       exceeded.Error(),
			"product_id":  exceeded.ProductID,
			"max_allowed": exceeded.MaxAllowed,
		})
	case errors.Is(err, store.ErrNotFound), errors.Is(err, cart.ErrLineNotFound):
		a.writeError(w, http.StatusNotFound, err)
	case errors.Is(err, store.ErrDuplicate):
		a.writeError(w, http.StatusConflict, err)
	case errors.Is(err, store.ErrInvalidSale),
		errors.Is(err, cart.ErrQuantityTooLow),
		errors.Is(err, cart.ErrEmptyCart):
		a.writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, assistant.ErrUnknownTool):
		a.writeError(w, http.StatusNotFound, err)
	case strings.Contains(err.Error(), "role required"):
		a.writeError(w, http.StatusForbidden, err)
	default:
		a.writeError(w, http.StatusInternalServerError, err)
	}
}

func (a *API) writeError(w http.ResponseWriter, status int, err error) {
	// 5xx responses get a generic message so internals (SQL errors, file
	// paths) never leak to clients. 4xx messages are user-facing.
	msg := err.Error()
	if status >= 500 {
		a.logger.Error("internal error", zap.Int("status", status), zap.Error(err))
		msg = "internal server error"
	}
	a.writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func (a *API) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
