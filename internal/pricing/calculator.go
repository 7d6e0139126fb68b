// Package pricing derives priced line items and totals from a cart and the catalog.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/utafrali/ecocart/internal/domain"
)

// MoneyPlaces is the number of decimal places totals are rounded to.
const MoneyPlaces = 2

// Catalog resolves product IDs. Implementations must be safe for concurrent reads.
type Catalog interface {
	Lookup(id string) (domain.Product, bool)
}

// Calculator prices carts. It holds no state besides the catalog it reads.
type Calculator struct {
	catalog Catalog
}

// NewCalculator creates a calculator over the given catalog.
func NewCalculator(catalog Catalog) *Calculator {
	return &Calculator{catalog: catalog}
}

// Compute prices every line of the cart. Lines whose product is missing from
// the catalog get a nil Product and a zero unit price but still count toward
// TotalItems. Each line total is rounded half-up to cents before summing, and
// the sum is rounded again.
func (c *Calculator) Compute(cart domain.Cart) domain.CartDetails {
	items := make([]domain.LineItem, 0, len(cart))
	subtotal := decimal.Zero
	totalItems := 0

	for _, line := range cart {
		price := decimal.Zero
		var product *domain.Product
		if p, ok := c.catalog.Lookup(line.ID); ok {
			product = &p
			price = p.Price
		}

		lineTotal := LineTotal(price, line.Qty)
		items = append(items, domain.LineItem{
			Product:   product,
			Qty:       line.Qty,
			LineTotal: lineTotal,
		})

		subtotal = subtotal.Add(lineTotal)
		totalItems += line.Qty
	}

	return domain.CartDetails{
		Items:      items,
		Subtotal:   subtotal.Round(MoneyPlaces),
		TotalItems: totalItems,
	}
}

// LineTotal returns price × qty rounded to cents.
func LineTotal(price decimal.Decimal, qty int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(qty))).Round(MoneyPlaces)
}
