package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sustainboard/esg-cli/internal/catalog"
	"github.com/sustainboard/esg-cli/internal/esg"
	"github.com/sustainboard/esg-cli/internal/scorer"
	"github.com/sustainboard/esg-cli/internal/store"
)

// openStore builds the configured backend. Callers own Close.
func openStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// loadCatalog resolves the requirement catalog, falling back to the
// embedded one when no override path is configured.
func loadCatalog() (*catalog.Catalog, error) {
	if cfg.Scoring.CatalogPath != "" {
		return catalog.LoadFile(cfg.Scoring.CatalogPath)
	}
	return catalog.Default(), nil
}

// initService opens the store, runs migrations and wires the scoring
// service. The returned store must be closed by the caller.
func initService(ctx context.Context) (*esg.Service, store.Store, error) {
	st, err := openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, nil, err
	}

	cat, err := loadCatalog()
	if err != nil {
		st.Close()
		return nil, nil, err
	}

	return esg.New(st, cat, scorer.DefaultConfig(), cfg.Cache), st, nil
}
