package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	apperrors "github.com/utafrali/ecocart/pkg/errors"
)

func newCartCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show and change the cart",
	}
	add := &cobra.Command{
		Use:   "add <product-id> [qty]",
		Short: "Add qty units of a product (default 1); a negative qty reduces the line but keeps at least one",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := c.catalog.Lookup(args[0]); !ok {
				return apperrors.NotFound("product", args[0])
			}
			qty := 1
			if len(args) == 2 {
				var err error
				if qty, err = parseQty(args[1]); err != nil {
					return err
				}
			}
			store, _, err := c.stores()
			if err != nil {
				return err
			}
			if _, err := store.Add(cmd.Context(), args[0], qty); err != nil {
				return err
			}
			return c.printCart(store.Details(cmd.Context()))
		},
	}
	set := &cobra.Command{
		Use:   "set <product-id> <qty>",
		Short: "Overwrite the quantity of a line; 0 or less removes it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := parseQty(args[1])
			if err != nil {
				return err
			}
			store, _, err := c.stores()
			if err != nil {
				return err
			}
			if _, err := store.SetQuantity(cmd.Context(), args[0], qty); err != nil {
				return err
			}
			return c.printCart(store.Details(cmd.Context()))
		},
	}
	// Quantities may be negative; flags go before the arguments.
	add.Flags().SetInterspersed(false)
	set.Flags().SetInterspersed(false)

	cmd.AddCommand(
		add,
		set,
		&cobra.Command{
			Use:   "show",
			Short: "Show the priced cart",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				store, _, err := c.stores()
				if err != nil {
					return err
				}
				res := store.Load(cmd.Context())
				if res.Recovered() {
					fmt.Fprintf(c.errOut, "warning: stored cart is unreadable, showing an empty or repaired cart (%v)\n", res.Err)
				}
				return c.printCart(store.Details(cmd.Context()))
			},
		},
		&cobra.Command{
			Use:   "count",
			Short: "Print the total item quantity",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				store, _, err := c.stores()
				if err != nil {
					return err
				}
				n := store.Count(cmd.Context())
				if c.jsonOutput {
					return c.printJSON(map[string]int{"count": n})
				}
				_, err = fmt.Fprintln(c.out, n)
				return err
			},
		},
		&cobra.Command{
			Use:     "remove <product-id>",
			Aliases: []string{"rm"},
			Short:   "Remove a product line",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				store, _, err := c.stores()
				if err != nil {
					return err
				}
				if _, err := store.Remove(cmd.Context(), args[0]); err != nil {
					return err
				}
				return c.printCart(store.Details(cmd.Context()))
			},
		},
	)
	return cmd
}

func parseQty(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.InvalidInput(fmt.Sprintf("qty %q is not a whole number", raw))
	}
	return n, nil
}
