package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "alignenv",
	Short: "alignenv drives verification scenarios for the alignment controller",
	Long: `alignenv builds a verification environment from a scenario file, runs its
sequences against the simulated control-plane and metadata agents, and reports
records, split predictions and the scenario verdict.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "Log level on stderr (debug, info, warn, error); empty disables logs")
}
