package main

import (
	"context"
	"fmt"

	"github.com/jrsteele09/storefront-sessions/internal/config"
	"github.com/jrsteele09/storefront-sessions/internal/logging"
	"github.com/jrsteele09/storefront-sessions/internal/metrics"
	"github.com/jrsteele09/storefront-sessions/internal/storage"
	"github.com/jrsteele09/storefront-sessions/session"
	"github.com/jrsteele09/storefront-sessions/token"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// app is the wiring shared by every command that talks to storage.
type app struct {
	cfg       config.Config
	log       zerolog.Logger
	stores    *storage.Stores
	authority *session.Authority
}

func newApp(ctx context.Context, opts *rootOptions) (*app, error) {
	if err := config.Load(opts.envFile, opts.configFile); err != nil {
		return nil, err
	}
	cfg := config.New()
	log := logging.Setup(cfg.GetEnv(), cfg.GetLogLevel())

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	stores, err := storage.Open(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	codec := token.NewCodec(
		token.NewHMACSigner(cfg.GetSecretKey()),
		token.WithDefaultTTL(cfg.GetAccessTokenExpiry()),
	)
	authority, err := session.NewAuthority(codec, stores.Revocations, stores.Principals, session.WithLogger(log))
	if err != nil {
		_ = stores.Close(ctx)
		return nil, err
	}

	return &app{
		cfg:       cfg,
		log:       log,
		stores:    stores,
		authority: authority,
	}, nil
}

func (a *app) Close(ctx context.Context) {
	if err := a.stores.Close(ctx); err != nil {
		a.log.Error().Err(err).Msg("closing storage")
	}
}
