package domain

import "github.com/shopspring/decimal"

// CartLine references a catalog product by ID. Qty is at least 1 while the line exists.
type CartLine struct {
	ID  string `json:"id"`
	Qty int    `json:"qty"`
}

// Cart is the ordered list of lines, in insertion order.
type Cart []CartLine

// Index returns the position of the line for productID, or -1.
func (c Cart) Index(productID string) int {
	for i := range c {
		if c[i].ID == productID {
			return i
		}
	}
	return -1
}

// Find returns the line for productID.
func (c Cart) Find(productID string) (CartLine, bool) {
	if i := c.Index(productID); i >= 0 {
		return c[i], true
	}
	return CartLine{}, false
}

// Without returns a copy of the cart with every line for productID removed.
func (c Cart) Without(productID string) Cart {
	out := make(Cart, 0, len(c))
	for _, line := range c {
		if line.ID != productID {
			out = append(out, line)
		}
	}
	return out
}

// TotalQuantity returns the sum of all line quantities.
func (c Cart) TotalQuantity() int {
	var n int
	for _, line := range c {
		n += line.Qty
	}
	return n
}

// Clone returns an independent copy that is never nil.
func (c Cart) Clone() Cart {
	out := make(Cart, len(c))
	copy(out, c)
	return out
}

// LineItem is a cart line priced against the catalog. Product is nil when the
// line references an ID the catalog no longer has.
type LineItem struct {
	Product   *Product        `json:"product"`
	Qty       int             `json:"qty"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// CartDetails is the derived, never-persisted view of a cart.
type CartDetails struct {
	Items      []LineItem      `json:"items"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	TotalItems int             `json:"totalItems"`
}

// Empty reports whether there is nothing to check out.
func (d CartDetails) Empty() bool {
	return len(d.Items) == 0
}
