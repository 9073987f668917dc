package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/app"
	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/config"
	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/logging"
)

var (
	cfgFile   string
	logLevel  string
	appHandle *app.App
)

var rootCmd = &cobra.Command{
	Use:           "gridfault",
	Short:         "Detect and classify faults in three-phase feeder waveforms",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if appHandle != nil || cmd == versionCmd {
			return nil
		}

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}

		// stdout is reserved for command output
		logger := logging.New(cfg.Logging, cfg.App.Name, cmd.ErrOrStderr())
		appHandle = app.NewApp(cfg, logger)
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level defined in config")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(versionCmd)
}

func getApp() *app.App {
	if appHandle == nil {
		panic("application not initialized; PersistentPreRunE not executed")
	}
	return appHandle
}
