package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/abhisek/hooptriage/internal/config"
	"github.com/abhisek/hooptriage/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "hooptriage",
	Short: "Basketball injury triage",
	Long: "hooptriage interviews a player about a basketball injury with a language model, " +
		"produces a structured diagnosis and recommends specialists from a roster.",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			logCloser.Close()
		}
	},
}

var (
	appConfig config.Config
	logCloser io.Closer
)

// Execute runs the root command. An interrupt cancels the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Path to a YAML config file (default ./hooptriage.yaml)")
	pf.String("db", "", "SQLite path or postgres:// URL (overrides HOOPTRIAGE_DB)")
	pf.String("log-level", "", "Log level: debug, info, warn, error")
	pf.String("log-file", "", "Append logs to this file instead of stderr")
	pf.String("roster", "", "Specialist roster file (.json or .yaml)")
	pf.String("taxonomy", "", "Injury taxonomy file (.json or .yaml)")

	rootCmd.AddCommand(interviewCmd)
	rootCmd.AddCommand(questionsCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// setup loads the configuration and the logger before any command runs.
func setup(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return err
	}
	closer, err := logging.Configure(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	appConfig, logCloser = cfg, closer
	return nil
}
