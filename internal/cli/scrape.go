// internal/cli/scrape.go
package cli

import (
	"fmt"

	"github.com/price-hounds/farmaprice/internal/session"
	"github.com/price-hounds/farmaprice/internal/ui"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// scrapeCmd refreshes the stored offer snapshots for every basket product.
var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape fresh offers for every basket product",
	Long: `Runs one comparison session per basket product and replaces the stored
offer snapshots with the results. A failed session leaves the previous
snapshot for that product untouched.`,
	Args: cobra.NoArgs,
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, args []string) error {
	application := GetApp()
	ctx := cmd.Context()

	items, err := application.Store.ListBasket(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println(ui.Info("Basket is empty, nothing to scrape."))
		return nil
	}

	bar := progressbar.NewOptions(len(items),
		progressbar.OptionSetDescription("Scraping offers"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	scraped, failed := 0, 0
	for _, item := range items {
		product, err := application.Store.GetProduct(ctx, item.ProductCode)
		if err != nil {
			return err
		}

		result, err := session.RunComparison(ctx, application.Fetcher,
			application.SessionConfig(), product.Code, nil)
		if err != nil {
			failed++
			application.Logger.Warn().
				Str("product", product.Code).
				Err(err).
				Msg("Scrape failed for product")
			bar.Add(1)
			continue
		}

		if err := application.Store.ReplaceOffers(ctx, product.Code, result.Offers); err != nil {
			return err
		}
		scraped++
		bar.Add(1)
	}
	bar.Finish()

	if failed > 0 {
		fmt.Println(ui.Warn(fmt.Sprintf("Scraped %d products, %d failed.", scraped, failed)))
	} else {
		fmt.Println(ui.Success(fmt.Sprintf("Scraped offers for %d products.", scraped)))
	}
	return nil
}
