package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ZentaChain/adtp/pkg/api"
	"github.com/ZentaChain/adtp/pkg/network"
	"github.com/ZentaChain/adtp/pkg/storage"
)

var _ network.Recorder = (*storage.Ledger)(nil)

func serveCmd() *cobra.Command {
	var listen, mode, status, ledgerPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Accept ADTP connections",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("listen") {
				cfg.ListenAddr = listen
			}
			if cmd.Flags().Changed("mode") {
				cfg.Mode = mode
			}
			if cmd.Flags().Changed("status") {
				cfg.StatusAddr = status
			}
			if cmd.Flags().Changed("ledger") {
				cfg.LedgerPath = ledgerPath
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			m, _ := network.ParseMode(cfg.Mode)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			opts := append(cfg.NetworkOptions(), network.WithLogger(logger))

			var ledger *storage.Ledger
			if cfg.LedgerPath != "" {
				var err error
				ledger, err = storage.OpenLedger(cfg.LedgerPath, cfg.Retention, logger)
				if err != nil {
					return err
				}
				defer ledger.Close()
				opts = append(opts, network.WithRecorder(ledger))
				logger.Info("Connection ledger enabled", zap.String("path", cfg.LedgerPath))
			}

			ln, err := network.Listen(cfg.ListenAddr, opts...)
			if err != nil {
				return err
			}

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return ln.Serve(ctx, m, NewMemoryStore())
			})

			if cfg.StatusAddr != "" {
				apiCfg := api.DefaultConfig()
				apiCfg.Addr = cfg.StatusAddr

				var src api.LedgerSource
				if ledger != nil {
					src = ledger
				}
				srv := api.NewServer(ln, src, apiCfg, logger)
				g.Go(func() error {
					return srv.Start(ctx)
				})
			}

			logger.Info("Serving",
				zap.String("addr", ln.Addr()),
				zap.String("mode", m.String()))
			return g.Wait()
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address (multiaddr or host:port)")
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "secure or insecure")
	cmd.Flags().StringVar(&status, "status", "", "status API address, empty to disable")
	cmd.Flags().StringVar(&ledgerPath, "ledger", "", "SQLite ledger path, empty to disable")
	return cmd
}
