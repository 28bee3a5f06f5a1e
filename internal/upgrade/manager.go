// Package upgrade wires the migration core together: it bootstraps the OCFL
// session factory and migrator from configuration, submits the repository
// root for migration, and waits for the whole tree to drain.
package upgrade

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mikejritter/fcrepo-upgrade-utils/internal/config"
	"github.com/mikejritter/fcrepo-upgrade-utils/internal/migrate"
	"github.com/mikejritter/fcrepo-upgrade-utils/internal/ocfl"
	"github.com/mikejritter/fcrepo-upgrade-utils/internal/ocfl/index"
	"github.com/mikejritter/fcrepo-upgrade-utils/internal/taskmgr"
	"github.com/mikejritter/fcrepo-upgrade-utils/pkg/fedora"
)

// rootResourceName is the name of the container representing the
// repository root in an F5 export.
const rootResourceName = "rest"

// Manager runs one F5→F6 upgrade for a single configuration.
type Manager struct {
	cfg    *config.Config
	logger *slog.Logger
}

// New builds an upgrade Manager for cfg.
func New(cfg *config.Config, logger *slog.Logger) *Manager {
	return &Manager{cfg: cfg, logger: logger}
}

// Run bootstraps the session factory and task manager, submits the
// repository root, and blocks until every resource it reaches has been
// migrated. It returns the first fatal error encountered starting the
// pipeline; per-resource failures are logged and do not fail Run.
func (m *Manager) Run(ctx context.Context) error {
	runID := uuid.NewString()
	logger := m.logger.With("run", runID)
	logger.Info("starting upgrade", "input", m.cfg.InputDir, "output", m.cfg.OutputDir)

	idx, err := index.Open(indexPath(m.cfg))
	if err != nil {
		logger.Warn("commit index disabled", "err", err)
		idx = nil
	}

	factory, err := ocfl.NewFactory(ocfl.FactoryOptions{
		OutputDir:         m.cfg.OutputDir,
		DigestAlgorithm:   m.cfg.DigestAlgorithm,
		FedoraUser:        m.cfg.FedoraUser,
		FedoraUserAddress: m.cfg.FedoraUserAddress,
		Index:             idx,
	})
	if err != nil {
		return err
	}

	migrator := migrate.NewMigrator(m.cfg, factory, logger)
	mgr := taskmgr.New(migrator, m.cfg.Threads, logger)

	root := migrate.NewContainer("", fedora.InternalPrefix+"/"+rootResourceName, m.cfg.InputDir, rootResourceName)

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		return mgr.Submit(root)
	})
	if err := g.Wait(); err != nil {
		return err
	}

	mgr.AwaitCompletion()
	return mgr.Shutdown()
}

func indexPath(cfg *config.Config) string {
	return filepath.Join(cfg.OutputDir, "data", "commit-index.sqlite")
}
