// Package app assembles the datafill components from configuration. It is
// shared by the API server and the operator CLI so both open the backing
// store the same way.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/labstack/echo/v4"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/fmtdata/datafill/internal/api"
	"github.com/fmtdata/datafill/internal/api/metrics"
	"github.com/fmtdata/datafill/internal/core/ports"
	"github.com/fmtdata/datafill/internal/core/service"
	mongostore "github.com/fmtdata/datafill/internal/infrastructure/db/mongo"
	redisstore "github.com/fmtdata/datafill/internal/infrastructure/db/redis"
	"github.com/fmtdata/datafill/internal/infrastructure/google"
	"github.com/fmtdata/datafill/internal/pkg/config"
	"github.com/fmtdata/datafill/pkg/logger"
)

// App holds the long-lived components built from one Config.
type App struct {
	Config   *config.Config
	Log      zerolog.Logger
	Store    ports.DatasetStore
	Datasets *service.DatasetService
	Sessions *service.SessionService

	redis   *goredis.Client
	closers []func(context.Context) error
}

// Open connects the configured backing store and builds the dataset and
// session services. Close releases every connection Open made.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	a := &App{Config: cfg, Log: log}

	store, err := a.openStore(ctx)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	a.Store = metrics.InstrumentStore(store)
	a.Datasets = service.NewDatasetService(a.Store, logger.WithComponent(log, "datasets"))
	a.Sessions = service.NewSessionService(cfg.JWTSecret)
	return a, nil
}

func (a *App) openStore(ctx context.Context) (ports.DatasetStore, error) {
	switch a.Config.StoreBackend {
	case config.BackendRedis:
		client, err := a.Redis(ctx)
		if err != nil {
			return nil, err
		}
		return redisstore.NewDatasetStore(client, logger.WithComponent(a.Log, "redis")), nil

	case config.BackendMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{
			URI:      a.Config.Mongo.URI,
			Database: a.Config.Mongo.Database,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(ctx context.Context) error {
			return mongostore.Disconnect(ctx, client)
		})

		repo := mongostore.NewDatasetRepository(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		a.Log.Info().Str("database", a.Config.Mongo.Database).Msg("connected to MongoDB")
		return repo, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", a.Config.StoreBackend)
}

// Redis returns the Redis client, connecting on first use. The migrate
// command needs it even when MongoDB is the active backend.
func (a *App) Redis(ctx context.Context) (*goredis.Client, error) {
	if a.redis != nil {
		return a.redis, nil
	}
	client, err := redisstore.Connect(ctx, redisstore.Config{
		Host:     a.Config.Redis.Host,
		Port:     a.Config.Redis.Port,
		Username: a.Config.Redis.Username,
		Password: a.Config.Redis.Password,
		DB:       a.Config.Redis.DB,
	})
	if err != nil {
		return nil, err
	}
	a.redis = client
	a.closers = append(a.closers, func(context.Context) error { return client.Close() })
	a.Log.Info().Str("addr", a.Config.Redis.Host).Msg("connected to Redis")
	return client, nil
}

// Router builds the HTTP API. It creates the Google verifier, so it is only
// called by the server.
func (a *App) Router(ctx context.Context) (*echo.Echo, error) {
	verifier, err := google.NewVerifier(ctx, google.Config{
		ClientID:     a.Config.Google.ClientID,
		ClientSecret: a.Config.Google.ClientSecret,
		RedirectURL:  a.Config.Google.RedirectURL,
	})
	if err != nil {
		return nil, err
	}

	auth := service.NewAuthService(verifier, a.Sessions, logger.WithComponent(a.Log, "auth"))
	return api.NewRouter(api.Deps{
		Config:   a.Config,
		Log:      a.Log,
		Datasets: a.Datasets,
		Auth:     auth,
		Sessions: a.Sessions,
		Store:    a.Store,
	}), nil
}

// Close releases connections in reverse order of opening.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	a.redis = nil
	return errors.Join(errs...)
}
