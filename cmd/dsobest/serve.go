package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/yetanothergithubaccount/DSObest/internal/api"
	"github.com/yetanothergithubaccount/DSObest/internal/state"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long:  "Serve night plans, year plans and stored results over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			cfg := api.ServerConfig{
				Port:     a.cfg.API.Port,
				Planner:  a.planner,
				State:    state.NewManager(state.DefaultConfig()),
				Location: a.cfg.Location,
				Logger:   a.log.With("api"),
			}
			if a.db != nil {
				cfg.Store = a.db
			}
			server := api.NewServer(cfg)

			ctx, stop := signalContext()
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			a.log.Info("DSObest API started at %s. Press Ctrl+C to stop.", a.cfg.Location)

			select {
			case <-ctx.Done():
			case err := <-errCh:
				if err != nil {
					return err
				}
			}

			a.log.Info("Shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return server.Stop(shutdownCtx)
		},
	}
}
