// Package catalog holds the read-only product list the cart is priced against.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/utafrali/ecocart/internal/domain"
)

// DefaultFeatured is how many products Featured returns for n <= 0.
const DefaultFeatured = 6

//go:embed products.json
var defaultProducts []byte

type snapshot struct {
	products []domain.Product
	byID     map[string]int
}

// Catalog is an ordered product list. Readers see a consistent snapshot;
// Replace swaps it atomically.
type Catalog struct {
	snap atomic.Pointer[snapshot]
}

// New creates a catalog over products, which must have unique, non-empty ids
// and non-negative prices.
func New(products []domain.Product) (*Catalog, error) {
	c := &Catalog{}
	if err := c.Replace(products); err != nil {
		return nil, err
	}
	return c, nil
}

// Default returns the built-in product list.
func Default() (*Catalog, error) {
	products, err := Parse(defaultProducts, FormatJSON)
	if err != nil {
		return nil, fmt.Errorf("embedded catalog: %w", err)
	}
	return New(products)
}

// Replace validates products and makes them the current snapshot. On error
// the previous snapshot stays in place.
func (c *Catalog) Replace(products []domain.Product) error {
	s := &snapshot{
		products: make([]domain.Product, len(products)),
		byID:     make(map[string]int, len(products)),
	}
	copy(s.products, products)

	for i, p := range s.products {
		if p.ID == "" {
			return fmt.Errorf("product %d: %w", i, errMissingID)
		}
		if _, dup := s.byID[p.ID]; dup {
			return fmt.Errorf("product %s: duplicate id", p.ID)
		}
		if p.Price.IsNegative() {
			return fmt.Errorf("product %s: negative price %s", p.ID, p.Price)
		}
		s.byID[p.ID] = i
	}
	c.snap.Store(s)
	return nil
}

var errMissingID = errors.New("missing id")

func (c *Catalog) current() *snapshot {
	if s := c.snap.Load(); s != nil {
		return s
	}
	return &snapshot{}
}

// All returns every product in display order.
func (c *Catalog) All() []domain.Product {
	s := c.current()
	out := make([]domain.Product, len(s.products))
	copy(out, s.products)
	return out
}

// Len returns the number of products.
func (c *Catalog) Len() int {
	return len(c.current().products)
}

// Lookup finds a product by id.
func (c *Catalog) Lookup(id string) (domain.Product, bool) {
	s := c.current()
	i, ok := s.byID[id]
	if !ok {
		return domain.Product{}, false
	}
	return s.products[i], true
}

// Featured returns the first n products in display order.
func (c *Catalog) Featured(n int) []domain.Product {
	if n <= 0 {
		n = DefaultFeatured
	}
	all := c.All()
	if n > len(all) {
		n = len(all)
	}
	return all[:n]
}

// Categories lists distinct categories in order of first appearance.
func (c *Catalog) Categories() []string {
	var out []string
	seen := make(map[string]bool)
	for _, p := range c.current().products {
		if p.Category != "" && !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	return out
}

// Badges lists distinct badges in order of first appearance.
func (c *Catalog) Badges() []string {
	var out []string
	seen := make(map[string]bool)
	for _, p := range c.current().products {
		for _, b := range p.Badges {
			if !seen[b] {
				seen[b] = true
				out = append(out, b)
			}
		}
	}
	return out
}
