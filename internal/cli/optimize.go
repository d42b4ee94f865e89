// internal/cli/optimize.go
package cli

import (
	"fmt"

	"github.com/price-hounds/farmaprice/internal/optimizer"
	"github.com/price-hounds/farmaprice/internal/ui"
	"github.com/spf13/cobra"
)

var (
	optimizeLimit int
	optimizeAll   bool
)

// optimizeCmd ranks pharmacies by the total cost of the current basket using
// the stored offer snapshots.
var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Find the cheapest pharmacies for the whole basket",
	Long: `Compares stored offers across pharmacies and ranks them by the total
cost of buying the entire basket from a single seller, shipping included.
Run "farmaprice scrape" first to refresh the offer snapshots.`,
	Args: cobra.NoArgs,
	RunE: runOptimize,
}

func init() {
	optimizeCmd.Flags().IntVarP(&optimizeLimit, "limit", "n", 5, "maximum number of pharmacies to show")
	optimizeCmd.Flags().BoolVar(&optimizeAll, "all", false, "include pharmacies that do not stock the full basket")
	rootCmd.AddCommand(optimizeCmd)
}

func runOptimize(cmd *cobra.Command, args []string) error {
	application := GetApp()
	ctx := cmd.Context()

	basket, err := application.Store.ListBasket(ctx)
	if err != nil {
		return err
	}
	if len(basket) == 0 {
		fmt.Println(ui.Info("Basket is empty. Add products with \"farmaprice basket add\"."))
		return nil
	}

	codes := make([]string, 0, len(basket))
	for _, item := range basket {
		codes = append(codes, item.ProductCode)
	}
	offers, err := application.Store.OffersForProducts(ctx, codes)
	if err != nil {
		return err
	}
	if len(offers) == 0 {
		fmt.Println(ui.Warn("No stored offers. Run \"farmaprice scrape\" first."))
		return nil
	}

	opt := optimizer.New(basket, offers)
	options := opt.Best(optimizeLimit)
	if optimizeAll {
		options = opt.Options()
		if optimizeLimit > 0 && len(options) > optimizeLimit {
			options = options[:optimizeLimit]
		}
	}
	if len(options) == 0 {
		fmt.Println(ui.Warn("No single pharmacy stocks the full basket. Retry with --all."))
		return nil
	}

	renderOptions(options)
	return nil
}
