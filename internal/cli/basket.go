// internal/cli/basket.go
package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/price-hounds/farmaprice/internal/ui"
	"github.com/spf13/cobra"
)

var basketCmd = &cobra.Command{
	Use:   "basket",
	Short: "Manage the shopping basket",
}

var basketAddCmd = &cobra.Command{
	Use:   "add <code> [quantity]",
	Short: "Add a catalog product to the basket",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		qty := 1
		if len(args) == 2 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("quantity must be a number: %q", args[1])
			}
			qty = n
		}
		if err := GetApp().Store.AddToBasket(cmd.Context(), args[0], qty); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Added %dx %s to basket", qty, args[0])))
		return nil
	},
}

var basketSetCmd = &cobra.Command{
	Use:   "set <code> <quantity>",
	Short: "Set the basket quantity for a product",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		qty, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("quantity must be a number: %q", args[1])
		}
		if err := GetApp().Store.SetBasketQuantity(cmd.Context(), args[0], qty); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Set %s quantity to %d", args[0], qty)))
		return nil
	},
}

var basketRmCmd = &cobra.Command{
	Use:   "rm <code>",
	Short: "Remove a product from the basket",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := GetApp().Store.RemoveFromBasket(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Removed %s from basket", args[0])))
		return nil
	},
}

var basketShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the basket contents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		application := GetApp()
		items, err := application.Store.ListBasket(cmd.Context())
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Println(ui.Info("Basket is empty."))
			return nil
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Code", "Name", "Quantity"})
		for _, item := range items {
			name := ""
			if p, err := application.Store.GetProduct(cmd.Context(), item.ProductCode); err == nil {
				name = p.Name
			}
			t.AppendRow(table.Row{item.ProductCode, name, item.Quantity})
		}
		t.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(basketCmd)
	basketCmd.AddCommand(basketAddCmd)
	basketCmd.AddCommand(basketSetCmd)
	basketCmd.AddCommand(basketRmCmd)
	basketCmd.AddCommand(basketShowCmd)
}
