package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/neexbeast/destinations/internal/api"
	"github.com/neexbeast/destinations/internal/store"
)

const FlagPort = "port"

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the destination view gateway over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, cmd.OutOrStdout(), true)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed(FlagPort) {
				port, err := cmd.Flags().GetString(FlagPort)
				if err != nil {
					return fmt.Errorf("%s flag: %w", FlagPort, err)
				}
				a.cfg.Port = port
			}

			if err := a.serve(cmd.Context()); err != nil {
				a.log.Error("server exited with error", "err", err)
				return err
			}
			return nil
		},
	}
	cmd.Flags().String(FlagPort, "8080", "(optional) listen port, overrides PORT")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	unsubscribe := a.store.Subscribe(func() {
		st := a.store.Statuses()
		a.log.Debug("store changed",
			"fetchStatus", st.FetchAll,
			"fetchByIdStatus", st.FetchByID,
			"addStatus", st.Create,
			"updateStatus", st.Update,
			"deleteStatus", st.Delete,
		)
	})
	defer unsubscribe()

	// Prime the collection in the background; the gateway serves while it loads.
	a.tracker.Go(context.WithoutCancel(ctx), store.FetchAll())

	handlers := api.NewHandlers(a.store, a.tracker, a.log)
	router := api.NewRouter(handlers, a.cfg.RateLimitPerMin, a.log)

	srv := &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	errCh := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				a.log.Error("server goroutine panicked", "recover", r)
				errCh <- fmt.Errorf("server panicked: %v", r)
			}
		}()
		a.log.Info("server starting", "port", a.cfg.Port, "api_url", a.cfg.APIBaseURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("listening: %w", err)
		}
	}()

	select {
	case sig := <-quit:
		a.log.Info("shutdown signal received", "signal", sig)
	case <-ctx.Done():
		a.log.Info("context done, shutting down")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	a.tracker.Wait()

	a.log.Info("server shut down cleanly")
	return nil
}
