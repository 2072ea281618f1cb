package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ZentaChain/adtp/pkg/network"
	"github.com/ZentaChain/adtp/pkg/protocol"
)

func sendCmd() *cobra.Command {
	var (
		addr, mode, method, uri, content string
		headers                          []string
		timeout                          time.Duration
		retry                            bool
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send one request and print the response",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = cfg.ListenAddr
			}
			if mode == "" {
				mode = cfg.Mode
			}
			m, err := network.ParseMode(mode)
			if err != nil {
				return err
			}
			verb, err := protocol.ParseMethod(method)
			if err != nil {
				return err
			}

			req := protocol.NewRequest(verb, uri).SetContent(content)
			for _, h := range headers {
				k, v, ok := strings.Cut(h, "=")
				if !ok {
					return fmt.Errorf("header %q must be key=value", h)
				}
				if err := req.AddHeader(k, v); err != nil {
					return err
				}
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			client := network.NewClient(append(cfg.NetworkOptions(), network.WithLogger(logger))...)
			switch {
			case retry:
				err = client.ConnectRetry(ctx, addr, m, network.DefaultBackoff())
			case m == network.ModeSecure:
				err = client.ConnectSecure(ctx, addr)
			default:
				err = client.ConnectInsecure(ctx, addr)
			}
			if err != nil {
				return err
			}
			defer client.Close()

			if fp := client.PeerFingerprint(); fp != "" {
				fmt.Printf("Server fingerprint: %s\n", fp)
			}

			resp, err := client.Do(req)
			if err != nil {
				return err
			}
			fmt.Println(resp.String())
			return nil
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "server address (default: listen_addr from config)")
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "secure or insecure")
	cmd.Flags().StringVarP(&method, "method", "X", "read", "request method")
	cmd.Flags().StringVarP(&uri, "uri", "u", "/", "resource path")
	cmd.Flags().StringVarP(&content, "content", "d", "", "request content")
	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "header as key=value, repeatable")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "connect and handshake timeout")
	cmd.Flags().BoolVar(&retry, "retry", false, "retry the connection with backoff until the timeout")
	return cmd
}
