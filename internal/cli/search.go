// internal/cli/search.go
package cli

import (
	"fmt"

	"github.com/price-hounds/farmaprice/internal/normalize"
	"github.com/price-hounds/farmaprice/internal/session"
	"github.com/price-hounds/farmaprice/internal/ui"
	"github.com/price-hounds/farmaprice/pkg/models"
	"github.com/spf13/cobra"
)

var (
	searchPack   string
	searchOutput string
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Compare prices for one medication",
	Long: `Runs a full comparison session for the search term: fetches every
result page, normalizes the offers, merges duplicates and ranks them by
effective unit price (price divided by pack quantity).`,
	Example: `  # Search by name
  farmaprice search tachipirina

  # Search by Minsan code, restricted to one pack size
  farmaprice search 982473682 --pack "20 compresse"

  # Save the ranked offers for later processing
  farmaprice search tachipirina --output offers.json`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringVarP(&searchPack, "pack", "p", "", "Only offers matching this pack size (e.g. \"20 compresse\")")
	searchCmd.Flags().StringVarP(&searchOutput, "output", "o", "", "File path to save output (supports .json, .csv)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	application := GetApp()
	term := args[0]

	var packFilter *models.PackSize
	if searchPack != "" {
		ps, ok := normalize.ParsePack(searchPack)
		if !ok {
			return fmt.Errorf("unrecognized pack size %q", searchPack)
		}
		packFilter = &ps
	}

	result, err := session.RunComparison(cmd.Context(), application.Fetcher,
		application.SessionConfig(), term, packFilter)
	if err != nil {
		return err
	}

	if len(result.Offers) == 0 {
		fmt.Println(ui.Info(fmt.Sprintf("No offers found for %q (%d pages, %d rows dropped).",
			term, result.Pages, result.Dropped)))
		return nil
	}

	if searchOutput != "" {
		if err := saveResults(result, searchOutput); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Saved %d offers to %s", len(result.Offers), searchOutput)))
		return nil
	}

	renderOffers(result)
	return nil
}
