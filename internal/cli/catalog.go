// internal/cli/catalog.go
package cli

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/price-hounds/farmaprice/internal/ui"
	"github.com/price-hounds/farmaprice/pkg/models"
	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the tracked product catalog",
}

var catalogAddCmd = &cobra.Command{
	Use:     "add <code> <name>",
	Short:   "Add a product to the catalog",
	Example: `  farmaprice catalog add 982473682 "Tachipirina 500 mg"`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		err := GetApp().Store.AddProduct(cmd.Context(), models.Product{Code: args[0], Name: args[1]})
		if err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Added %s (%s)", args[1], args[0])))
		return nil
	},
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog products",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		products, err := GetApp().Store.ListProducts(cmd.Context())
		if err != nil {
			return err
		}
		if len(products) == 0 {
			fmt.Println(ui.Info("Catalog is empty."))
			return nil
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Code", "Name"})
		for _, p := range products {
			t.AppendRow(table.Row{p.Code, p.Name})
		}
		t.Render()
		return nil
	},
}

var catalogSetCmd = &cobra.Command{
	Use:   "set <code> <name>",
	Short: "Rename a catalog product",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := GetApp().Store.UpdateProduct(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Renamed %s to %s", args[0], args[1])))
		return nil
	},
}

var catalogRmCmd = &cobra.Command{
	Use:   "rm <code>",
	Short: "Remove a product, its basket row and its offer snapshots",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := GetApp().Store.RemoveProduct(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Removed %s", args[0])))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogAddCmd)
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogSetCmd)
	catalogCmd.AddCommand(catalogRmCmd)
}
