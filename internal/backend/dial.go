package backend

import (
	"context"

	"github.com/pkordes/trip-manager/internal/config"
	"github.com/pkordes/trip-manager/internal/docstore/mongostore"
	"github.com/pkordes/trip-manager/internal/docstore/pgstore"
	"github.com/pkordes/trip-manager/internal/docstore/surrealstore"
)

// DialerFor returns the dialer for cfg.Driver, or nil for config.DriverNone.
func DialerFor(cfg config.Config) Dialer {
	switch cfg.Driver {
	case config.DriverMongo:
		return func(ctx context.Context) (DocumentStore, error) {
			s, err := mongostore.Open(ctx, cfg.MongoURI, cfg.MongoDatabase)
			if err != nil {
				return nil, err
			}
			return s, nil
		}
	case config.DriverSurreal:
		return func(ctx context.Context) (DocumentStore, error) {
			s, err := surrealstore.Open(ctx, surrealstore.Config{
				URL:       cfg.Surreal.URL,
				Namespace: cfg.Surreal.Namespace,
				Database:  cfg.Surreal.Database,
				User:      cfg.Surreal.User,
				Pass:      cfg.Surreal.Pass,
			})
			if err != nil {
				return nil, err
			}
			return s, nil
		}
	case config.DriverPostgres:
		return func(ctx context.Context) (DocumentStore, error) {
			s, err := pgstore.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return nil, err
			}
			return s, nil
		}
	}
	return nil
}

// OptionsFor builds Select options from cfg.
func OptionsFor(cfg config.Config) Options {
	return Options{
		Driver:       cfg.Driver,
		Dial:         DialerFor(cfg),
		ProbeTimeout: cfg.ProbeTimeout,
		FilePath:     cfg.DataFile,
	}
}
