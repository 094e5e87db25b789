package cmd

import (
	"fmt"
	"os"

	"JNChoral/config"
	"JNChoral/logger"

	"github.com/spf13/cobra"
)

// cfg is loaded once before any command runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "jnchoral",
	Short: "Jude Nnam Choral website backend.",
	Long:  `Serves the audition workflow, accounts and public content of the Jude Nnam Choral website.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		logger.InitLogger(logger.Config{
			Level:      logger.LogLevel(cfg.LogLevel),
			OutputPath: cfg.LogFile,
			MaxSize:    cfg.LogMaxSizeMB,
			MaxBackups: cfg.LogMaxBackups,
			MaxAge:     cfg.LogMaxAgeDays,
			Compress:   true,
		})
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
