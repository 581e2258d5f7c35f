package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/alignenv"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of alignenv",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "alignenv version %s\n", strings.TrimSpace(alignenv.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
