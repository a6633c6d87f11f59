// Package migrator re-encrypts legacy plaintext rows of every entity type
// and, when blind indexes are enabled, backfills missing indexes. It can also
// look a single record up by a confidential value.
package migrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ai8future/sealedfield"
	"github.com/ai8future/sealedfield/internal/config"
	"github.com/ai8future/sealedfield/internal/logging"
	"github.com/ai8future/sealedfield/store/badgerstore"
	"github.com/ai8future/sealedfield/store/pgstore"
)

// ErrInvalidLookup indicates a lookup query not in entity.field=value form.
var ErrInvalidLookup = errors.New("migrator: lookup must be entity.field=value")

type App struct {
	config *config.Config
	logger logging.Logger
	store  sealedfield.Store
	mapper *sealedfield.Mapper
	repo   *sealedfield.Repository
	close  func() error
}

// NewApp derives the key, builds the codec and opens the configured store.
// A missing secret fails here, before any row is touched.
func NewApp(ctx context.Context, cfg *config.Config, l *slog.Logger) (*App, error) {
	store, closeFn, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app, err := newApp(cfg, l, store, closeFn)
	if err != nil {
		_ = closeFn()
		return nil, err
	}
	return app, nil
}

func newApp(cfg *config.Config, l *slog.Logger, store sealedfield.Store, closeFn func() error) (*App, error) {
	key, err := sealedfield.DeriveKey(cfg.SecretKey)
	if err != nil {
		return nil, err
	}

	codec, err := sealedfield.New(key,
		sealedfield.WithLogger(l),
		sealedfield.WithCompression(cfg.CompressionThreshold),
	)
	if err != nil {
		return nil, fmt.Errorf("codec init error: %w", err)
	}

	var opts []sealedfield.MapperOption
	resolverOpts := []sealedfield.ResolverOption{
		sealedfield.WithScanTimeout(cfg.ScanTimeout),
		sealedfield.WithResolverLogger(l),
	}
	if cfg.BlindIndex {
		opts = append(opts, sealedfield.WithBlindIndex())
		resolverOpts = append(resolverOpts, sealedfield.WithIndexLookup())
	}

	mapper := sealedfield.NewMapper(codec, opts...)
	repo, err := sealedfield.NewRepository(store, mapper, resolverOpts...)
	if err != nil {
		return nil, err
	}

	return &App{
		config: cfg,
		logger: logging.NewSlogLogger(l),
		store:  store,
		mapper: mapper,
		repo:   repo,
		close:  closeFn,
	}, nil
}

func openStore(ctx context.Context, cfg *config.Config) (sealedfield.Store, func() error, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		db, err := pgstore.Open(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("db init error: %w", err)
		}
		if err := pgstore.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("db migrations error: %w", err)
		}
		return pgstore.New(db), db.Close, nil

	case config.DriverBadger:
		s, err := badgerstore.Open(cfg.BadgerPath)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil

	default:
		return nil, nil, fmt.Errorf("%w: %q", config.ErrUnknownDriver, cfg.StoreDriver)
	}
}

// Run migrates every entity type in turn and stops at the first failure.
func (a *App) Run(ctx context.Context) ([]sealedfield.MigrationReport, error) {
	a.logger.Info(ctx, "starting migration", "driver", a.config.StoreDriver, "dry_run", a.config.DryRun)

	var reports []sealedfield.MigrationReport
	for _, entity := range sealedfield.Entities() {
		report, err := sealedfield.MigrateEntity(ctx, a.store, a.mapper, entity, a.config.DryRun)
		reports = append(reports, report)
		if err != nil {
			a.logger.Error(ctx, "migration failed", "entity", entity, "scanned", report.Scanned, "migrated", report.Migrated, "error", err)
			return reports, err
		}
		a.logger.Info(ctx, "entity migrated", "entity", entity, "scanned", report.Scanned, "migrated", report.Migrated)
	}

	return reports, nil
}

// Find resolves a query of the form entity.field=value, e.g.
// user.email=alice@example.com, and returns the decrypted record.
func (a *App) Find(ctx context.Context, query string) (sealedfield.Record, error) {
	entity, field, value, err := ParseLookup(query)
	if err != nil {
		return nil, err
	}

	rec, err := a.repo.FindBy(ctx, entity, field, value)
	if err != nil {
		return nil, err
	}
	a.logger.Info(ctx, "record found", "entity", entity, "field", field, "id", rec.ID())
	return rec, nil
}

// ParseLookup splits entity.field=value. The value may itself contain '=' or '.'.
func ParseLookup(query string) (sealedfield.Entity, string, string, error) {
	target, value, ok := strings.Cut(query, "=")
	if !ok {
		return "", "", "", ErrInvalidLookup
	}
	entity, field, ok := strings.Cut(target, ".")
	if !ok || entity == "" || field == "" || value == "" {
		return "", "", "", ErrInvalidLookup
	}
	return sealedfield.Entity(entity), field, value, nil
}

// Close releases the store.
func (a *App) Close() error {
	if a.close == nil {
		return nil
	}
	return a.close()
}
