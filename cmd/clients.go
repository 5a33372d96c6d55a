package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/nstepro/the-compound-sub000/internal/runlog"
	"github.com/nstepro/the-compound-sub000/internal/store"
)

// initStore builds the catalog object store from config.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Backend {
	case "", "local":
		return store.NewLocal(cfg.Store.LocalDir), nil
	case "s3":
		if cfg.Store.Bucket == "" {
			return nil, eris.New("store.bucket is required for the s3 backend")
		}
		return store.NewS3(ctx, cfg.Store.Bucket, cfg.Store.Region, cfg.Store.Prefix)
	default:
		return nil, eris.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// initRunLog builds the run history backend from config and runs its
// migration.
func initRunLog(ctx context.Context) (runlog.Log, error) {
	var history runlog.Log
	var err error

	switch cfg.RunLog.Driver {
	case "", "sqlite":
		history, err = runlog.NewSQLite(cfg.RunLog.Path)
	case "postgres":
		history, err = runlog.NewPostgres(ctx, cfg.RunLog.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown runlog driver %q", cfg.RunLog.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := history.Migrate(ctx); err != nil {
		history.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "migrate run log")
	}
	return history, nil
}
