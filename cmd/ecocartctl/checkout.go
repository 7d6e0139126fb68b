package main

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/utafrali/ecocart/internal/cart"
	"github.com/utafrali/ecocart/internal/checkout"
	"github.com/utafrali/ecocart/pkg/validator"
)

func newCheckoutCmd(c *cli) *cobra.Command {
	var (
		in    checkout.PlaceOrderInput
		delay time.Duration
	)
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Place an order for the current cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, book, err := c.stores()
			if err != nil {
				return err
			}
			svc := checkout.NewService(c.bus, c.logger, checkout.WithProcessingDelay(delay))
			order, err := svc.PlaceOrder(cmd.Context(), store, book, in)
			var notCleared *cart.CartNotClearedError
			if errors.As(err, &notCleared) && order != nil {
				// The order stands; placing it again would duplicate it.
				fmt.Fprintf(c.errOut, "warning: order %s was recorded but the cart could not be emptied (%v)\n", order.ID, notCleared.Err)
				err = nil
			}
			if err != nil {
				var verr *validator.ValidationError
				if errors.As(err, &verr) {
					fields := verr.Fields()
					for _, name := range slices.Sorted(maps.Keys(fields)) {
						fmt.Fprintf(c.errOut, "  %s: %s\n", name, fields[name])
					}
				}
				return err
			}
			if c.jsonOutput {
				return c.printJSON(order)
			}
			_, err = fmt.Fprintf(c.out, "Order %s placed: %s, paid by %s\n", order.ID, money(order.Subtotal), order.Payment)
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Name, "name", "", "full name")
	f.StringVar(&in.Email, "email", "", "email address")
	f.StringVar(&in.Address, "address", "", "shipping address")
	f.StringVar(&in.Payment, "payment", "card", "card, paypal or cod")
	f.DurationVar(&delay, "delay", checkout.DefaultProcessingDelay, "simulated processing time")
	return cmd
}

func newOrdersCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "orders",
		Short: "List placed orders, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, book, err := c.stores()
			if err != nil {
				return err
			}
			orders, err := book.List(cmd.Context())
			if err != nil {
				return err
			}
			return c.printOrders(orders)
		},
	}
}
