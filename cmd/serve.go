package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xhad/pressdata/pkg/dataset"
	"github.com/xhad/pressdata/server"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the live processing session over WebSocket",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}

			gen, err := newGenerator(ctx)
			if err != nil {
				return err
			}

			s := server.New(server.Config{
				Addr:   cfg.Server.Addr,
				Logger: logger,
				NewRunner: func(l *zap.Logger, onProgress func(done, total int, detail dataset.FileDetail)) *dataset.Runner {
					return newRunner(gen, l, onProgress)
				},
			})
			return s.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, 127.0.0.1:8765)")
	return cmd
}
