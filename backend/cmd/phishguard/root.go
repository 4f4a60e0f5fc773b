package main

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var envFile string

var rootCmd = &cobra.Command{
	Use:   "phishguard",
	Short: "Rule-based phishing risk scoring for URLs and emails",
	Long: "PhishGuard scores a URL or an email body against a fixed rule table and\n" +
		"returns a 0-10 risk score, a low/medium/high level, the triggered\n" +
		"indicators and a plain-language explanation.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRunE: loadEnvFile,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "load environment variables from this file (default .env if present)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(urlCmd)
	rootCmd.AddCommand(emailCmd)
	rootCmd.AddCommand(replCmd)
	rootCmd.Version = version
}

func loadEnvFile(_ *cobra.Command, _ []string) error {
	if envFile == "" {
		// Optional
		godotenv.Load()
		return nil
	}
	if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("load env file %s: %w", envFile, err)
	}
	return nil
}
