package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/storefront-sessions/reaper"
	"github.com/jrsteele09/storefront-sessions/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the expired credential reaper",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, opts)
		},
	}
}

func serve(ctx context.Context, opts *rootOptions) error {
	a, err := newApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	displayAppname(a.cfg.GetAppName())

	generatedPassword, err := server.InitialiseSystem(ctx, a.stores.Principals, a.cfg.GetSeedAdminEmail(), a.cfg.GetSeedAdminPassword(), a.log)
	if err != nil {
		return fmt.Errorf("failed to initialise the system: %w", err)
	}
	if generatedPassword != "" {
		a.log.Warn().
			Str("email", a.cfg.GetSeedAdminEmail()).
			Str("password", generatedPassword).
			Msg("admin created with a generated password; it will not be displayed again")
	}

	handler, err := server.New(a.cfg, a.authority, server.WithLogger(a.log))
	if err != nil {
		return err
	}
	httpServer := &http.Server{
		Addr:              a.cfg.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	sweeper := reaper.New(a.authority, a.cfg.GetSweepInterval(), reaper.WithLogger(a.log))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.log.Info().Str("addr", httpServer.Addr).Msg("server listening")
		return listenAndServe(httpServer)
	})
	g.Go(func() error {
		return sweeper.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		return shutdown(httpServer)
	})

	err = g.Wait()
	a.log.Info().Msg("server stopped")
	return err
}

func listenAndServe(server *http.Server) error {
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
