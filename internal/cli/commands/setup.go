package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapxmla/internal/catalog"
	"github.com/leapstack-labs/leapxmla/internal/cli/config"
	"github.com/leapstack-labs/leapxmla/pkg/adapter"
	"github.com/leapstack-labs/leapxmla/pkg/core"
	"github.com/spf13/cobra"

	// Register the member-sourcing adapters.
	_ "github.com/leapstack-labs/leapxmla/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/leapxmla/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/leapxmla/pkg/adapters/sqlite"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg    *config.Loaded
	Logger *slog.Logger
}

// NewCommandContext reads the config and logger the root command stored.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cfg, ok := config.FromContext(cmd.Context())
	if !ok {
		return nil, errors.New("configuration not loaded")
	}
	return &CommandContext{
		Cfg:    cfg,
		Logger: config.GetLogger(cmd.Context()),
	}, nil
}

// Backend is the loaded catalog and the target database its members come
// from.
type Backend struct {
	Factory *catalog.Factory

	// Options reloads the catalog the same way it was first loaded.
	Options catalog.Options

	adapter core.Adapter
}

// OpenBackend connects the configured target, if any, and loads the
// catalog file. The caller must Close the backend.
func (c *CommandContext) OpenBackend(ctx context.Context) (*Backend, error) {
	if err := c.Cfg.ValidateCatalog(); err != nil {
		return nil, err
	}

	b := &Backend{Options: catalog.Options{Logger: c.Logger}}
	if t := c.Cfg.Target; t != nil {
		adp, err := adapter.NewAdapter(t.AdapterConfig(), c.Logger)
		if err != nil {
			return nil, err
		}
		if err := adp.Connect(ctx, t.AdapterConfig()); err != nil {
			return nil, fmt.Errorf("failed to connect to %s target: %w", t.Type, err)
		}
		b.adapter = adp
		b.Options.Adapter = adp
	}

	repo, err := catalog.Load(ctx, c.Cfg.Catalog.Path, b.Options)
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	b.Factory = catalog.NewFactory(repo, catalog.FactoryConfig{
		DataSource: c.Cfg.DataSource.CoreDataSource(),
		Logger:     c.Logger,
	})
	c.Logger.Debug("catalog loaded", "path", c.Cfg.Catalog.Path, "cubes", repo.CubeCount())
	return b, nil
}

// Close disconnects the target database.
func (b *Backend) Close() error {
	if b.adapter == nil {
		return nil
	}
	return b.adapter.Close()
}
