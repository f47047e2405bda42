package main

import (
	"github.com/spf13/cobra"

	"github.com/Siddarth2230/shortcode/internal/config"
)

var (
	configFile string
	envFile    string
)

var rootCmd = &cobra.Command{
	Use:   "shortcode",
	Short: "Short-code issuer",
	Long: `shortcode stores text payloads and hands back short base62 codes
derived from a process-wide counter. Running it without a subcommand starts
the HTTP server.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (yaml, json or toml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Dotenv file to load (default .env)")
}

func loadConfig() (*config.Config, error) {
	return config.Load(config.Options{ConfigFile: configFile, EnvFile: envFile})
}
