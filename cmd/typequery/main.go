package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"typequery/internal/config"
)

var (
	// Global flags
	configPath   string
	serverBinary string
	serverArgs   []string
	timeout      time.Duration
	batchSize    int
	verbose      bool

	// Loaded configuration, resolved in PersistentPreRunE
	cfg *config.Config

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "typequery",
	Short: "typequery - typed queries against a running type-analysis server",
	Long: `typequery talks to an already-running type-analysis server over its
textual query protocol and prints typed, structured results as JSON.

The server owns all analysis; typequery only shapes requests (splitting
large ones into bounded batches) and decodes replies into records.

Examples:
  typequery defines my.module other.module
  typequery attributes my.module.MyClass --batch-size 50
  typequery superclasses my.module.MyClass
  typequery invalid-models`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logger
		zapConfig := zap.NewProductionConfig()
		if verbose {
			zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapConfig.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}

		// Flags beat config file and environment.
		if cmd.Flags().Changed("server-binary") {
			cfg.Server.Binary = serverBinary
		}
		if cmd.Flags().Changed("server-arg") {
			cfg.Server.Args = serverArgs
		}
		if cmd.Flags().Changed("timeout") {
			cfg.Server.Timeout = timeout.String()
		}
		if cmd.Flags().Changed("batch-size") {
			if batchSize <= 0 {
				return fmt.Errorf("--batch-size must be a positive integer, got %d", batchSize)
			}
			cfg.Query.BatchSize = batchSize
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "typequery.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().StringVar(&serverBinary, "server-binary", "", "Server client binary (overrides config)")
	rootCmd.PersistentFlags().StringArrayVar(&serverArgs, "server-arg", nil, "Extra argument passed to the server binary (repeatable)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 120*time.Second, "Timeout for one server round trip")
	rootCmd.PersistentFlags().IntVar(&batchSize, "batch-size", 0, "Split large queries into batches of this many subjects")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(definesCmd)
	rootCmd.AddCommand(attributesCmd)
	rootCmd.AddCommand(superclassesCmd)
	rootCmd.AddCommand(hierarchyCmd)
	rootCmd.AddCommand(callGraphCmd)
	rootCmd.AddCommand(invalidModelsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
