// Package assistant exposes read-only store queries as named tools with
// typed argument schemas. The registry is the single entry point a model
// integration or an operator console would call; results are cached briefly
// in Redis since tool traffic tends to repeat the same queries.
package assistant

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"tillpoint/internal/cache"
	"tillpoint/internal/report"
	"tillpoint/internal/store"
)

var ErrUnknownTool = errors.New("unknown tool")

// Param describes one tool argument for discovery responses.
type Param struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

type Tool struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Params      []Param `json:"params"`
	run         func(ctx context.Context, args map[string]any) (any, error)
}

type Registry struct {
	repo   store.Repository
	cache  cache.ResultCache
	ttl    time.Duration
	logger *zap.Logger
	tools  map[string]Tool
	order  []string
}

func NewRegistry(repo store.Repository, resultCache cache.ResultCache, ttl time.Duration, logger *zap.Logger) *Registry {
	r := &Registry{
		repo:   repo,
		cache:  resultCache,
		ttl:    ttl,
		logger: logger,
		tools:  make(map[string]Tool),
	}
	r.register(Tool{
		Name:        "low_stock_products",
		Description: "List products at or below their minimum stock level, with suggested restock quantities.",
		run: func(ctx context.Context, _ map[string]any) (any, error) {
			products, err := r.repo.LowStockProducts(ctx)
			if err != nil {
				return nil, err
			}
			return report.NewLowStockReport(products), nil
		},
	})
	r.register(Tool{
		Name:        "sales_summary",
		Description: "Aggregate sales totals over the trailing N days, broken down by payment method.",
		Params: []Param{
			{Name: "days", Type: "integer", Description: "Trailing window in days, default 7.", Required: false},
		},
		run: func(ctx context.Context, args map[string]any) (any, error) {
			days := intArg(args, "days", 7)
			to := time.Now().UTC()
			from := to.AddDate(0, 0, -days)
			return r.repo.SalesSummary(ctx, from, to)
		},
	})
	r.register(Tool{
		Name:        "top_products",
		Description: "Best-selling products by quantity over the trailing N days.",
		Params: []Param{
			{Name: "days", Type: "integer", Description: "Trailing window in days, default 7.", Required: false},
			{Name: "limit", Type: "integer", Description: "Maximum rows, default 10.", Required: false},
		},
		run: func(ctx context.Context, args map[string]any) (any, error) {
			days := intArg(args, "days", 7)
			limit := intArg(args, "limit", 10)
			to := time.Now().UTC()
			from := to.AddDate(0, 0, -days)
			return r.repo.TopProducts(ctx, from, to, limit)
		},
	})
	r.register(Tool{
		Name:        "product_lookup",
		Description: "Search the catalog by name or exact barcode.",
		Params: []Param{
			{Name: "query", Type: "string", Description: "Name fragment or barcode.", Required: true},
		},
		run: func(ctx context.Context, args map[string]any) (any, error) {
			query, _ := args["query"].(string)
			if strings.TrimSpace(query) == "" {
				return nil, fmt.Errorf("query is required")
			}
			return r.repo.SearchProducts(ctx, query)
		},
	})
	return r
}

func (r *Registry) register(t Tool) {
	r.tools[t.Name] = t
	r.order = append(r.order, t.Name)
}

// List returns the tool descriptors in registration order.
func (r *Registry) List() []Tool {
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Invoke runs a tool by name and returns its JSON-encoded result. Results are
// served from the cache when a recent identical invocation exists.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) (json.RawMessage, error) {
	tool, ok := r.tools[name]
	if !ok {
		return nil, ErrUnknownTool
	}

	key := buildCacheKey(name, args)
	if payload, hit, err := r.cache.Get(ctx, key); err == nil && hit {
		return payload, nil
	} else if err != nil {
		r.logger.Warn("tool cache read failed", zap.String("tool", name), zap.Error(err))
	}

	result, err := tool.run(ctx, args)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Set(ctx, key, payload, r.ttl); err != nil {
		r.logger.Warn("tool cache write failed", zap.String("tool", name), zap.Error(err))
	}
	return payload, nil
}

func buildCacheKey(name string, args map[string]any) string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys)+1)
	parts = append(parts, name)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, args[k]))
	}

	hash := sha1.Sum([]byte(strings.Join(parts, "|")))
	return "pos:tool:" + hex.EncodeToString(hash[:])
}

// intArg reads an integer argument, tolerating the float64 JSON decodes into.
func intArg(args map[string]any, key string, fallback int) int {
	v, ok := args[key]
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case float64:
		if n > 0 {
			return int(n)
		}
	case int:
		if n > 0 {
			return n
		}
	}
	return fallback
}
