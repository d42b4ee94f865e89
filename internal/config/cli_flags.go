package config

import "github.com/spf13/cobra"

// RegisterFlags registers common CLI flags on the provided root command
func RegisterFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress all output except errors")
	cmd.PersistentFlags().Bool("json-log", false, "Emit logs as JSON to stderr")
	cmd.PersistentFlags().String("base-url", "", "Price aggregator base URL")
	cmd.PersistentFlags().String("timeout", "30s", "Per-request HTTP timeout")
	cmd.PersistentFlags().String("user-agent", "", "Custom user agent string")
	cmd.PersistentFlags().Int("max-pages", 0, "Hard cap on result pages per query")
	cmd.PersistentFlags().String("db", "", "Path to the SQLite database file")
	cmd.PersistentFlags().String("config", "", "Path to configuration file (optional)")
}
