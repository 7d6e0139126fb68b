package catalog

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/utafrali/ecocart/internal/domain"
)

// Sort orders accepted by Filter.
const (
	SortCatalog   = ""
	SortPriceAsc  = "low-high"
	SortPriceDesc = "high-low"
)

// Query selects products. Zero fields match everything.
type Query struct {
	Text     string
	Category string
	Badge    string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Sort     string
}

// Filter returns the products matching q. Text matches case-insensitively
// against name and description, category must match exactly, badge ignores
// case, and both price bounds are inclusive. Ties keep catalog order.
func (c *Catalog) Filter(q Query) []domain.Product {
	text := strings.ToLower(strings.TrimSpace(q.Text))

	out := make([]domain.Product, 0)
	for _, p := range c.current().products {
		if text != "" && !strings.Contains(strings.ToLower(p.Name+" "+p.Description), text) {
			continue
		}
		if q.Category != "" && p.Category != q.Category {
			continue
		}
		if q.Badge != "" && !p.HasBadge(q.Badge) {
			continue
		}
		if q.MinPrice != nil && p.Price.LessThan(*q.MinPrice) {
			continue
		}
		if q.MaxPrice != nil && p.Price.GreaterThan(*q.MaxPrice) {
			continue
		}
		out = append(out, p)
	}

	switch q.Sort {
	case SortPriceAsc:
		slices.SortStableFunc(out, func(a, b domain.Product) int { return a.Price.Cmp(b.Price) })
	case SortPriceDesc:
		slices.SortStableFunc(out, func(a, b domain.Product) int { return b.Price.Cmp(a.Price) })
	}
	return out
}
