package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jrsteele09/storefront-sessions/internal/config"
	"github.com/jrsteele09/storefront-sessions/revocation"
	revocationmongo "github.com/jrsteele09/storefront-sessions/revocation/mongostore"
	"github.com/jrsteele09/storefront-sessions/revocation/pgstore"
	"github.com/jrsteele09/storefront-sessions/revocation/redisstore"
	fakerevocationrepo "github.com/jrsteele09/storefront-sessions/revocation/repofake"
	"github.com/jrsteele09/storefront-sessions/users"
	usersmongo "github.com/jrsteele09/storefront-sessions/users/mongostore"
	fakeuserrepo "github.com/jrsteele09/storefront-sessions/users/repofake"
	red "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
)

// Stores holds the persistence collaborators selected by configuration.
type Stores struct {
	Revocations revocation.Store
	Principals  users.Repo

	mongoClient *mongo.Client
	closers     []func(context.Context) error
}

// Open connects the revocation store and the principal repo named by cfg. Backends
// that need a schema or indexes get them here, so a fresh database is usable.
func Open(ctx context.Context, cfg config.StorageConfig, log zerolog.Logger) (*Stores, error) {
	s := &Stores{}

	revocations, err := s.openRevocations(ctx, cfg)
	if err != nil {
		_ = s.Close(ctx)
		return nil, err
	}
	s.Revocations = revocations

	principals, err := s.openPrincipals(ctx, cfg)
	if err != nil {
		_ = s.Close(ctx)
		return nil, err
	}
	s.Principals = principals

	log.Info().
		Str("revocations", cfg.GetStorageDriver()).
		Str("principals", cfg.GetPrincipalDriver()).
		Msg("storage opened")
	return s, nil
}

func (s *Stores) openRevocations(ctx context.Context, cfg config.StorageConfig) (revocation.Store, error) {
	switch cfg.GetStorageDriver() {
	case config.DriverMemory:
		return fakerevocationrepo.NewFakeRevocationRepo(), nil

	case config.DriverMongo:
		db, err := s.mongoDatabase(ctx, cfg)
		if err != nil {
			return nil, err
		}
		store := revocationmongo.New(db)
		if err := store.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		return store, nil

	case config.DriverRedis:
		client := red.NewClient(&red.Options{
			Addr: cfg.GetRedisAddr(),
			DB:   cfg.GetRedisDB(),
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis ping %s: %w", cfg.GetRedisAddr(), err)
		}
		s.closers = append(s.closers, func(context.Context) error { return client.Close() })
		return redisstore.New(client, cfg.GetRedisPrefix()), nil

	case config.DriverPostgres:
		pool, err := pgstore.Open(ctx, cfg.GetPostgresDSN())
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func(context.Context) error {
			pool.Close()
			return nil
		})
		store := pgstore.New(pool)
		if err := store.Migrate(ctx); err != nil {
			return nil, err
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.GetStorageDriver())
}

func (s *Stores) openPrincipals(ctx context.Context, cfg config.StorageConfig) (users.Repo, error) {
	switch cfg.GetPrincipalDriver() {
	case config.DriverMemory:
		return fakeuserrepo.NewFakeUserRepo(), nil
	case config.DriverMongo:
		db, err := s.mongoDatabase(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return usersmongo.New(db), nil
	}
	return nil, fmt.Errorf("unknown principal driver %q", cfg.GetPrincipalDriver())
}

// mongoDatabase connects once and shares the client between both stores.
func (s *Stores) mongoDatabase(ctx context.Context, cfg config.StorageConfig) (*mongo.Database, error) {
	if s.mongoClient == nil {
		client, err := revocationmongo.Connect(ctx, cfg.GetMongoURL())
		if err != nil {
			return nil, err
		}
		s.mongoClient = client
		s.closers = append(s.closers, client.Disconnect)
	}
	return s.mongoClient.Database(cfg.GetDBName()), nil
}

// Close releases every connection opened by Open.
func (s *Stores) Close(ctx context.Context) error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
