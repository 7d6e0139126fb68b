package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/utafrali/ecocart/internal/catalog"
	apperrors "github.com/utafrali/ecocart/pkg/errors"
)

func newProductsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "products",
		Aliases: []string{"p"},
		Short:   "Browse the product catalog",
	}
	cmd.AddCommand(newProductsListCmd(c), newProductsShowCmd(c), newProductsFeaturedCmd(c))
	return cmd
}

func newProductsListCmd(c *cli) *cobra.Command {
	var (
		q                  catalog.Query
		minPrice, maxPrice string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List products matching the filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if q.MinPrice, err = parsePrice("min", minPrice); err != nil {
				return err
			}
			if q.MaxPrice, err = parsePrice("max", maxPrice); err != nil {
				return err
			}
			switch q.Sort {
			case catalog.SortCatalog, catalog.SortPriceAsc, catalog.SortPriceDesc:
			default:
				return apperrors.InvalidInput(fmt.Sprintf("unknown sort %q (want %s or %s)", q.Sort, catalog.SortPriceAsc, catalog.SortPriceDesc))
			}
			return c.printProducts(c.catalog.Filter(q))
		},
	}
	f := cmd.Flags()
	f.StringVarP(&q.Text, "query", "q", "", "search name and description")
	f.StringVar(&q.Category, "category", "", "exact category")
	f.StringVar(&q.Badge, "badge", "", "badge, ignoring case")
	f.StringVar(&minPrice, "min", "", "lowest price, inclusive")
	f.StringVar(&maxPrice, "max", "", "highest price, inclusive")
	f.StringVar(&q.Sort, "sort", catalog.SortCatalog, "low-high or high-low")
	return cmd
}

func parsePrice(name, raw string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return nil, apperrors.InvalidInput(fmt.Sprintf("--%s must be a non-negative price", name))
	}
	return &d, nil
}

func newProductsShowCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, ok := c.catalog.Lookup(args[0])
			if !ok {
				return apperrors.NotFound("product", args[0])
			}
			if c.jsonOutput {
				return c.printJSON(p)
			}
			fmt.Fprintf(c.out, "%s  %s\n", p.ID, p.Name)
			fmt.Fprintf(c.out, "Price:    %s\n", money(p.Price))
			fmt.Fprintf(c.out, "Category: %s\n", p.Category)
			if len(p.Badges) > 0 {
				fmt.Fprintf(c.out, "Badges:   %v\n", p.Badges)
			}
			if p.Description != "" {
				fmt.Fprintf(c.out, "\n%s\n", p.Description)
			}
			return nil
		},
	}
}

func newProductsFeaturedCmd(c *cli) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "featured",
		Short: "List the featured products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.printProducts(c.catalog.Featured(count))
		},
	}
	cmd.Flags().IntVar(&count, "count", catalog.DefaultFeatured, "number of products")
	return cmd
}
