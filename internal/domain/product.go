package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Product is an immutable catalog entry.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Badges      []string        `json:"badges"`
	Image       string          `json:"image"`
	Description string          `json:"description"`
}

// HasBadge reports whether the product carries the badge, ignoring case.
func (p Product) HasBadge(badge string) bool {
	for _, b := range p.Badges {
		if strings.EqualFold(b, badge) {
			return true
		}
	}
	return false
}
