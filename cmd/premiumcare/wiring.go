package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/premiumcare/premiumcare/internal/config"
	"github.com/premiumcare/premiumcare/internal/domain/registry"
	"github.com/premiumcare/premiumcare/internal/platform/db"
	"github.com/premiumcare/premiumcare/internal/platform/docstore"
	"github.com/premiumcare/premiumcare/internal/platform/inference"
)

// registryDocument names the row the postgres driver keeps the registry in.
const registryDocument = "patients"

// loadModel resolves the premium model once at startup. MODEL_STATIC answers
// every request with one label, for smoke runs. MODEL_URL selects a remote
// model server, which must answer its health check. Otherwise the tree
// artifact at MODEL_PATH is loaded. Any failure is fatal to the caller.
func loadModel(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (inference.Model, error) {
	if cfg.ModelStatic != "" {
		logger.Warn().Str("label", cfg.ModelStatic).Msg("using static model")
		return inference.Static{Label: cfg.ModelStatic}, nil
	}
	if cfg.ModelURL != "" {
		remote := inference.NewRemote(cfg.ModelURL, cfg.ModelTimeout)
		if err := remote.Check(ctx); err != nil {
			return nil, fmt.Errorf("model server %s: %w", cfg.ModelURL, err)
		}
		logger.Info().Str("model", remote.Name()).Msg("using remote model")
		return remote, nil
	}

	tree, err := inference.LoadArtifact(cfg.ModelPath)
	if err != nil {
		return nil, err
	}
	logger.Info().
		Str("model", tree.Name()).
		Str("path", cfg.ModelPath).
		Strs("features", tree.Features()).
		Msg("model loaded")
	return tree, nil
}

type registryStore struct {
	store  registry.Store
	pinger db.Pinger
	close  func()
}

// openStore builds the registry store selected by STORE_DRIVER.
func openStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*registryStore, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, err
		}
		logger.Info().Msg("connected to database")
		pg := docstore.NewPGStore(pool, registryDocument, logger)
		if err := pg.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return &registryStore{store: pg, pinger: pool, close: pool.Close}, nil

	default:
		fs := docstore.NewFileStore(cfg.DataFile, logger)
		logger.Info().Str("file", fs.Path()).Msg("using file store")
		return &registryStore{store: fs, pinger: fs, close: func() {}}, nil
	}
}
