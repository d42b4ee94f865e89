// internal/cli/root.go
package cli

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/price-hounds/farmaprice/internal/app"
	"github.com/price-hounds/farmaprice/internal/config"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "farmaprice",
	Short:   "Compare medication prices across online pharmacies",
	Long: `farmaprice scrapes a price-aggregation site for medication offers,
normalizes and deduplicates them, and ranks them by effective unit price.
It also keeps a local catalog and basket so whole orders can be optimized
across pharmacies, shipping included.`,
	Version: "0.1.0",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	config.RegisterFlags(rootCmd)

	// Lazily initialize the application before running commands (avoid starting app for -h/help)
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if GetApp() != nil {
			return nil
		}

		cfg, err := config.Load(cmd)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTPTimeout)
		defer cancel()

		application, err := app.New(ctx, cfg)
		if err != nil {
			log.Error().Err(err).Msg("failed to initialize application")
			return err
		}

		SetApp(application)
		return nil
	}

	// Ensure app is closed after command runs
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		application := GetApp()
		if application == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), application.Config.HTTPTimeout)
		defer cancel()
		_ = application.Close(ctx)
		SetApp(nil)
	}

	rootCmd.Flags().BoolP("help", "h", false, "Help for farmaprice")
	rootCmd.Flags().Bool("version", false, "Version for farmaprice")
}
