package cmd

import (
	"errors"
	"os"

	"github.com/andrewbearsley/withings-skill/pkg/clierr"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func Execute() {
	rootCmd := createRootCmd()

	rootCmd.PersistentFlags().BoolP("help", "h", false, "Show help for a command")

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Command execution failed.")
		var cliErr *clierr.Error
		if errors.As(err, &cliErr) {
			rootCmd.PrintErrln("Error:", cliErr.Message)
		}
		os.Exit(1)
	}
}

func createRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "withings",
		Short:         "Token lifecycle manager for the Withings API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a TOML config file")

	rootCmd.AddCommand(
		authorizeCmd(),
		refreshCmd(),
		tokenCmd(),
		statusCmd(),
		versionCmd(),
	)

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	rootCmd.SetHelpCommand(&cobra.Command{
		Use:    "no-help",
		Hidden: true,
	})

	return rootCmd
}
