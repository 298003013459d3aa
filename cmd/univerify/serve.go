package main

import (
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve verification links over HTTP",
		Long: `Run an HTTP server that resolves verification links.

Routes:
  GET /verify/{documentId}/{hash}   verification result (200 valid, 422 not valid)
  GET /health                       backend and database health
  GET /health/live                  liveness probe
  GET /metrics                      Prometheus metrics

Examples:
  univerify serve
  univerify serve --addr 127.0.0.1:9090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if addr != "" {
				a.Config.ListenAddr = addr
			}
			return a.Serve(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: UNIVERIFY_LISTEN_ADDR or :8080)")

	return cmd
}
