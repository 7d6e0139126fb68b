package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/utafrali/ecocart/internal/domain"
)

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func (c *cli) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func table(w io.Writer, header string, rows func(tw io.Writer)) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, header)
	rows(tw)
	return tw.Flush()
}

func (c *cli) printProducts(products []domain.Product) error {
	if c.jsonOutput {
		return c.printJSON(products)
	}
	return table(c.out, "ID\tNAME\tPRICE\tCATEGORY\tBADGES", func(tw io.Writer) {
		for _, p := range products {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, money(p.Price), p.Category, strings.Join(p.Badges, ","))
		}
	})
}

func (c *cli) printCart(d domain.CartDetails) error {
	if c.jsonOutput {
		return c.printJSON(d)
	}
	if d.Empty() {
		_, err := fmt.Fprintln(c.out, "Your cart is empty.")
		return err
	}
	err := table(c.out, "ID\tNAME\tQTY\tPRICE\tTOTAL", func(tw io.Writer) {
		for _, it := range d.Items {
			// Lines whose product left the catalog keep their quantity but have no details.
			id, name, price := "?", "(unavailable)", decimal.Zero
			if it.Product != nil {
				id, name, price = it.Product.ID, it.Product.Name, it.Product.Price
			}
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", id, name, it.Qty, money(price), money(it.LineTotal))
		}
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(c.out, "\n%d items, subtotal %s\n", d.TotalItems, money(d.Subtotal))
	return err
}

func (c *cli) printOrders(orders []domain.Order) error {
	if c.jsonOutput {
		return c.printJSON(orders)
	}
	if len(orders) == 0 {
		_, err := fmt.Fprintln(c.out, "No orders yet.")
		return err
	}
	return table(c.out, "ID\tPLACED\tPAYMENT\tITEMS\tSUBTOTAL", func(tw io.Writer) {
		for _, o := range orders {
			items := 0
			for _, it := range o.Items {
				items += it.Qty
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", o.ID, o.CreatedAt.Format("2006-01-02 15:04"), o.Payment, items, money(o.Subtotal))
		}
	})
}
