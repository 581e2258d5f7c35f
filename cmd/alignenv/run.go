package main

import (
	"context"

	"github.com/aretw0/alignenv/internal/cli"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [scenario.yaml]",
	Short: "Run a scenario file",
	Long: `Loads a scenario file, builds the environment it describes and runs its
sequences concurrently. The command fails when the scenario fails.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := cli.RunOptions{Output: cmd.OutOrStdout()}
		opts.ConfigPath, _ = cmd.Flags().GetString("config")
		if !cmd.Flags().Changed("config") && len(args) > 0 {
			opts.ConfigPath = args[0]
		}
		opts.ReportDir, _ = cmd.Flags().GetString("report")
		opts.LogLevel, _ = cmd.Flags().GetString("log-level")
		opts.Watch, _ = cmd.Flags().GetBool("watch")
		opts.Serve, _ = cmd.Flags().GetBool("serve")
		opts.Quiet, _ = cmd.Flags().GetBool("quiet")
		if cmd.Flags().Changed("seed") {
			seed, _ := cmd.Flags().GetUint64("seed")
			opts.Seed = &seed
		}

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()
		return cli.HandleExecutionError(cli.Execute(sigCtx, opts), sigCtx.Signal())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("config", "c", "scenario.yaml", "Scenario file")
	runCmd.Flags().String("report", "", "Directory receiving one JSON report per stream")
	runCmd.Flags().Uint64("seed", 0, "Override the scenario seed")
	runCmd.Flags().BoolP("watch", "w", false, "Rebind the register map when its file changes")
	runCmd.Flags().Bool("serve", false, "Keep the status server up after the run until interrupted")
	runCmd.Flags().BoolP("quiet", "q", false, "Only print the summary")
}
