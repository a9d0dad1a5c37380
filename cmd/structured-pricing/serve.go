package main

import (
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/contactkeval/structured-pricing/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the pricing REST API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = a.cfg.Server.Addr
			}
			prov, err := a.cfg.Data.NewProvider()
			if err != nil {
				return err
			}

			srv := server.New(prov, a.cfg.Server.AllowedOrigins)
			if err := srv.Start(cmd.Context(), addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}
