package main

import (
	"github.com/spf13/cobra"

	"github.com/sam-thetutor/streamr/server"
)

var (
	serveAddr    string
	serveMetrics bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the read-only dashboard API over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.New(engine, log, serveMetrics).Run(serveAddr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
	serveCmd.Flags().BoolVar(&serveMetrics, "metrics", false, "Expose Prometheus metrics on /metrics")
}
