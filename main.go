package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	_ "github.com/tanpawarit/fintech-research-agents/pkg/logger/autoload"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "fintech-research",
		Short:         "Multi-agent financial research reports",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("env", "", "path to a .env file (defaults to ./.env when present)")
	rootCmd.PersistentFlags().String("persist", persistNone, "result store: none, upstash or postgres")

	setupCLI(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
