package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ZentaChain/adtp/pkg/config"
	"github.com/ZentaChain/adtp/pkg/logging"
)

var (
	configPath string
	logLevel   string
	logFormat  string

	cfg    *config.Config
	logger *zap.Logger
)

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "adtp",
		Short:         "ADTP request/response protocol node",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if configPath != "" {
				if cfg, err = config.Load(configPath); err != nil {
					return err
				}
			} else {
				cfg = config.Default()
			}

			if cmd.Flags().Changed("log-level") {
				cfg.Log.Level = logLevel
			}
			if cmd.Flags().Changed("log-format") {
				cfg.Log.Format = logFormat
			}

			logger, err = logging.New(cfg.Log.Level, cfg.Log.Format)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format (console, json)")

	root.AddCommand(serveCmd(), sendCmd(), demoCmd())
	return root
}
