package commands

import (
	"context"
	"fmt"

	"github.com/SscSPs/erp_accounting/internal/adapters/database/pgsql"
	portsrepo "github.com/SscSPs/erp_accounting/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/erp_accounting/internal/core/ports/services"
	"github.com/SscSPs/erp_accounting/internal/core/services"
	"github.com/SscSPs/erp_accounting/internal/logging"
	"github.com/SscSPs/erp_accounting/internal/platform/config"
	"github.com/SscSPs/erp_accounting/pkg/database"
)

// Env is the store and the services a command runs against.
type Env struct {
	Repos    portsrepo.RepositoryProvider
	Services *portssvc.ServiceContainer
	Close    func()
}

// EnvFactory opens an Env for the given configuration.
type EnvFactory func(ctx context.Context, cfg *config.Config) (*Env, error)

// PostgresEnv connects to PGSQL_URL. Reports read through a separate sqlx handle.
func PostgresEnv(ctx context.Context, cfg *config.Config) (*Env, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("PGSQL_URL is not set")
	}
	pool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
	if err != nil {
		return nil, err
	}
	reportDB, err := database.NewSQLX(ctx, cfg.DatabaseURL)
	if err != nil {
		database.ClosePgxPool(pool)
		return nil, err
	}

	repos := pgsql.NewRepositoryProvider(pool, reportDB)
	return &Env{
		Repos:    repos,
		Services: services.NewServiceContainer(cfg, repos, logging.NewMessageLog()),
		Close: func() {
			_ = reportDB.Close()
			database.ClosePgxPool(pool)
		},
	}, nil
}
