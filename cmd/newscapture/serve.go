package main

import (
	"github.com/pevans/newscapture/api"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the run ledger over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, ledger, err := openLedgerOnly()
		if err != nil {
			return err
		}
		defer a.Close()

		addr := a.cfg.API.Addr
		if serveAddr != "" {
			addr = serveAddr
		}

		router := api.NewRunAPIServer(ledger).SetupRouter()
		a.logger.Info("starting run API server", "addr", addr)
		return router.Run(addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, localhost:8082)")
}
