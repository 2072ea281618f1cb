package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ZentaChain/adtp/pkg/network"
	"github.com/ZentaChain/adtp/pkg/protocol"
)

func demoCmd() *cobra.Command {
	var insecure bool

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Exchange \"Hello World\" over a local loopback connection",
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := network.ModeSecure
			if insecure {
				mode = network.ModeInsecure
			}
			resp, err := runDemo(cmd.Context(), mode, append(cfg.NetworkOptions(), network.WithLogger(logger)))
			if err != nil {
				return err
			}
			fmt.Println(resp.String())
			return nil
		},
	}

	cmd.Flags().BoolVar(&insecure, "insecure", false, "skip the handshake and encryption")
	return cmd
}

// runDemo serves one connection on an ephemeral port and sends
// create /items "Hello World" to it
func runDemo(ctx context.Context, mode network.Mode, opts []network.Option) (*protocol.Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	ln, err := network.Listen("/ip4/127.0.0.1/tcp/0", opts...)
	if err != nil {
		return nil, err
	}
	defer ln.Close()

	g, ctx := errgroup.WithContext(ctx)
	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	g.Go(func() error {
		ss, err := ln.Accept(ctx, mode)
		if err != nil {
			return err
		}
		defer ss.Close()

		req, err := ss.Receive()
		if err != nil {
			return err
		}
		return ss.Send(NewMemoryStore().ServeADTP(req))
	})

	var resp *protocol.Response
	g.Go(func() error {
		client := network.NewClient(opts...)
		var err error
		if mode == network.ModeSecure {
			err = client.ConnectSecure(ctx, ln.Addr())
		} else {
			err = client.ConnectInsecure(ctx, ln.Addr())
		}
		if err != nil {
			return err
		}
		defer client.Close()

		if logger != nil {
			logger.Info("Demo client connected",
				zap.String("state", client.State().String()),
				zap.String("server_fingerprint", client.PeerFingerprint()))
		}

		resp, err = client.Do(protocol.NewRequest(protocol.MethodCreate, "/items").SetContent("Hello World"))
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return resp, nil
}
